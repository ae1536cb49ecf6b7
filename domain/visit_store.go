package domain

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type VisitStore interface {
	Insert(ctx context.Context, visit *Visit) (*Visit, error)
	Get(ctx context.Context, id primitive.ObjectID) (*Visit, error)
	GetByProperty(ctx context.Context, propertyID string) (Visits, error)
	GetByUser(ctx context.Context, userID string) (Visits, error)
	Update(ctx context.Context, visit *Visit) error
}
