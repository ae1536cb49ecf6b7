package domain

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PropertyStore persists whole property aggregates. Update is conditional on
// the aggregate version and returns ErrConcurrentModification when another
// writer got there first.
type PropertyStore interface {
	Insert(ctx context.Context, property *Property) (*Property, error)
	Get(ctx context.Context, id primitive.ObjectID) (*Property, error)
	GetByLandlord(ctx context.Context, landlordID string) (Properties, error)
	Update(ctx context.Context, property *Property) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}
