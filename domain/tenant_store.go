package domain

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TenantStore interface {
	Insert(ctx context.Context, tenant *Tenant) (*Tenant, error)
	Get(ctx context.Context, id primitive.ObjectID) (*Tenant, error)
	GetByLandlord(ctx context.Context, landlordID string) (Tenants, error)
	Update(ctx context.Context, tenant *Tenant) error
}
