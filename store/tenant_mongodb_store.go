package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"pgstay/domain"
)

const TENANT_COLLECTION = "tenants"

type TenantMongoDBStore struct {
	tenants *mongo.Collection
	tracer  trace.Tracer
}

func NewTenantMongoDBStore(client *mongo.Client, tracer trace.Tracer) domain.TenantStore {
	tenants := client.Database(DATABASE).Collection(TENANT_COLLECTION)
	return &TenantMongoDBStore{
		tenants: tenants,
		tracer:  tracer,
	}
}

func (store *TenantMongoDBStore) Insert(ctx context.Context, tenant *domain.Tenant) (*domain.Tenant, error) {
	ctx, span := store.tracer.Start(ctx, "TenantStore.Insert")
	defer span.End()

	tenant.ID = primitive.NewObjectID()
	tenant.Version = 1
	result, err := store.tenants.InsertOne(ctx, tenant)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	tenant.ID = result.InsertedID.(primitive.ObjectID)
	return tenant, nil
}

func (store *TenantMongoDBStore) Get(ctx context.Context, id primitive.ObjectID) (*domain.Tenant, error) {
	ctx, span := store.tracer.Start(ctx, "TenantStore.Get")
	defer span.End()

	result := store.tenants.FindOne(ctx, bson.M{"_id": id})
	var tenant domain.Tenant
	if err := result.Decode(&tenant); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NewNotFoundError("tenant", id.Hex())
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return &tenant, nil
}

func (store *TenantMongoDBStore) GetByLandlord(ctx context.Context, landlordID string) (domain.Tenants, error) {
	ctx, span := store.tracer.Start(ctx, "TenantStore.GetByLandlord")
	defer span.End()

	cursor, err := store.tenants.Find(ctx, bson.M{"landlordId": landlordID})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer cursor.Close(ctx)

	var tenants domain.Tenants
	for cursor.Next(ctx) {
		var tenant domain.Tenant
		if err := cursor.Decode(&tenant); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		tenants = append(tenants, &tenant)
	}
	if err := cursor.Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return tenants, nil
}

func (store *TenantMongoDBStore) Update(ctx context.Context, tenant *domain.Tenant) error {
	ctx, span := store.tracer.Start(ctx, "TenantStore.Update")
	defer span.End()

	previous := tenant.Version
	tenant.Version = previous + 1

	filter := bson.M{"_id": tenant.ID, "version": previous}
	result, err := store.tenants.ReplaceOne(ctx, filter, tenant)
	if err != nil {
		tenant.Version = previous
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if result.MatchedCount == 0 {
		tenant.Version = previous
		count, err := store.tenants.CountDocuments(ctx, bson.M{"_id": tenant.ID})
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		if count == 0 {
			return domain.NewNotFoundError("tenant", tenant.ID.Hex())
		}
		span.SetStatus(codes.Error, domain.ErrConcurrentModification.Error())
		return domain.ErrConcurrentModification
	}
	return nil
}
