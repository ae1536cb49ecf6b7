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

const VISIT_COLLECTION = "visits"

type VisitMongoDBStore struct {
	visits *mongo.Collection
	tracer trace.Tracer
}

func NewVisitMongoDBStore(client *mongo.Client, tracer trace.Tracer) domain.VisitStore {
	visits := client.Database(DATABASE).Collection(VISIT_COLLECTION)
	return &VisitMongoDBStore{
		visits: visits,
		tracer: tracer,
	}
}

func (store *VisitMongoDBStore) Insert(ctx context.Context, visit *domain.Visit) (*domain.Visit, error) {
	ctx, span := store.tracer.Start(ctx, "VisitStore.Insert")
	defer span.End()

	visit.ID = primitive.NewObjectID()
	visit.Version = 1
	result, err := store.visits.InsertOne(ctx, visit)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	visit.ID = result.InsertedID.(primitive.ObjectID)
	return visit, nil
}

func (store *VisitMongoDBStore) Get(ctx context.Context, id primitive.ObjectID) (*domain.Visit, error) {
	ctx, span := store.tracer.Start(ctx, "VisitStore.Get")
	defer span.End()

	result := store.visits.FindOne(ctx, bson.M{"_id": id})
	var visit domain.Visit
	if err := result.Decode(&visit); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NewNotFoundError("visit", id.Hex())
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return &visit, nil
}

func (store *VisitMongoDBStore) GetByProperty(ctx context.Context, propertyID string) (domain.Visits, error) {
	ctx, span := store.tracer.Start(ctx, "VisitStore.GetByProperty")
	defer span.End()

	return store.filter(ctx, span, bson.M{"propertyId": propertyID})
}

func (store *VisitMongoDBStore) GetByUser(ctx context.Context, userID string) (domain.Visits, error) {
	ctx, span := store.tracer.Start(ctx, "VisitStore.GetByUser")
	defer span.End()

	return store.filter(ctx, span, bson.M{"userId": userID})
}

func (store *VisitMongoDBStore) Update(ctx context.Context, visit *domain.Visit) error {
	ctx, span := store.tracer.Start(ctx, "VisitStore.Update")
	defer span.End()

	previous := visit.Version
	visit.Version = previous + 1

	filter := bson.M{"_id": visit.ID, "version": previous}
	result, err := store.visits.ReplaceOne(ctx, filter, visit)
	if err != nil {
		visit.Version = previous
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if result.MatchedCount == 0 {
		visit.Version = previous
		count, err := store.visits.CountDocuments(ctx, bson.M{"_id": visit.ID})
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		if count == 0 {
			return domain.NewNotFoundError("visit", visit.ID.Hex())
		}
		span.SetStatus(codes.Error, domain.ErrConcurrentModification.Error())
		return domain.ErrConcurrentModification
	}
	return nil
}

func (store *VisitMongoDBStore) filter(ctx context.Context, span trace.Span, filter interface{}) (domain.Visits, error) {
	cursor, err := store.visits.Find(ctx, filter)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer cursor.Close(ctx)

	var visits domain.Visits
	for cursor.Next(ctx) {
		var visit domain.Visit
		if err := cursor.Decode(&visit); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		visits = append(visits, &visit)
	}
	if err := cursor.Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return visits, nil
}
