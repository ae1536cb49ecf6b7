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

const (
	DATABASE            = "pgstay"
	PROPERTY_COLLECTION = "properties"
)

type PropertyMongoDBStore struct {
	properties *mongo.Collection
	tracer     trace.Tracer
}

func NewPropertyMongoDBStore(client *mongo.Client, tracer trace.Tracer) domain.PropertyStore {
	properties := client.Database(DATABASE).Collection(PROPERTY_COLLECTION)
	return &PropertyMongoDBStore{
		properties: properties,
		tracer:     tracer,
	}
}

func (store *PropertyMongoDBStore) Insert(ctx context.Context, property *domain.Property) (*domain.Property, error) {
	ctx, span := store.tracer.Start(ctx, "PropertyStore.Insert")
	defer span.End()

	property.ID = primitive.NewObjectID()
	property.Version = 1
	result, err := store.properties.InsertOne(ctx, property)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	property.ID = result.InsertedID.(primitive.ObjectID)
	return property, nil
}

func (store *PropertyMongoDBStore) Get(ctx context.Context, id primitive.ObjectID) (*domain.Property, error) {
	ctx, span := store.tracer.Start(ctx, "PropertyStore.Get")
	defer span.End()

	filter := bson.M{"_id": id}
	property, err := store.filterOne(ctx, filter)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NewNotFoundError("property", id.Hex())
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return property, nil
}

func (store *PropertyMongoDBStore) GetByLandlord(ctx context.Context, landlordID string) (domain.Properties, error) {
	ctx, span := store.tracer.Start(ctx, "PropertyStore.GetByLandlord")
	defer span.End()

	filter := bson.M{"landlordId": landlordID}
	properties, err := store.filter(ctx, filter)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return properties, nil
}

// Update replaces the whole aggregate, conditional on the version read when
// the aggregate was loaded. A lost race surfaces as ErrConcurrentModification
// so the caller can reload and retry.
func (store *PropertyMongoDBStore) Update(ctx context.Context, property *domain.Property) error {
	ctx, span := store.tracer.Start(ctx, "PropertyStore.Update")
	defer span.End()

	previous := property.Version
	property.Version = previous + 1

	filter := bson.M{"_id": property.ID, "version": previous}
	result, err := store.properties.ReplaceOne(ctx, filter, property)
	if err != nil {
		property.Version = previous
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if result.MatchedCount == 0 {
		property.Version = previous
		count, err := store.properties.CountDocuments(ctx, bson.M{"_id": property.ID})
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		if count == 0 {
			return domain.NewNotFoundError("property", property.ID.Hex())
		}
		span.SetStatus(codes.Error, domain.ErrConcurrentModification.Error())
		return domain.ErrConcurrentModification
	}
	return nil
}

func (store *PropertyMongoDBStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, span := store.tracer.Start(ctx, "PropertyStore.Delete")
	defer span.End()

	result, err := store.properties.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if result.DeletedCount == 0 {
		return domain.NewNotFoundError("property", id.Hex())
	}
	return nil
}

func (store *PropertyMongoDBStore) filter(ctx context.Context, filter interface{}) (domain.Properties, error) {
	cursor, err := store.properties.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	return decodeProperties(ctx, cursor)
}

func (store *PropertyMongoDBStore) filterOne(ctx context.Context, filter interface{}) (property *domain.Property, err error) {
	result := store.properties.FindOne(ctx, filter)
	err = result.Decode(&property)
	return
}

func decodeProperties(ctx context.Context, cursor *mongo.Cursor) (properties domain.Properties, err error) {
	for cursor.Next(ctx) {
		var property domain.Property
		err = cursor.Decode(&property)
		if err != nil {
			return
		}
		properties = append(properties, &property)
	}
	err = cursor.Err()
	return
}
