package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"pgstay/domain"
)

const propertyListTTL = 10 * time.Minute

type PropertyCache struct {
	cli    *redis.Client
	logger *logrus.Logger
	tracer trace.Tracer
}

// Construct Redis client
func New(address string, logger *logrus.Logger, tracer trace.Tracer) *PropertyCache {
	client := redis.NewClient(&redis.Options{
		Addr: address,
	})

	return &PropertyCache{
		cli:    client,
		logger: logger,
		tracer: tracer,
	}
}

func (pc *PropertyCache) Ping() {
	val, _ := pc.cli.Ping().Result()
	pc.logger.Println(val)
}

func (pc *PropertyCache) PostProperties(ctx context.Context, landlordID string, properties domain.Properties) error {
	ctx, span := pc.tracer.Start(ctx, "PropertyCache.PostProperties")
	defer span.End()

	jsonValue, err := json.Marshal(properties)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	err = pc.cli.Set(constructPropertiesKey(landlordID), jsonValue, propertyListTTL).Err()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	pc.logger.Println("Cache set - property list")
	return nil
}

func (pc *PropertyCache) GetProperties(ctx context.Context, landlordID string) (domain.Properties, error) {
	ctx, span := pc.tracer.Start(ctx, "PropertyCache.GetProperties")
	defer span.End()

	jsonValue, err := pc.cli.Get(constructPropertiesKey(landlordID)).Result()
	if err != nil {
		if err != redis.Nil {
			span.SetStatus(codes.Error, err.Error())
		}
		return nil, err
	}

	var properties domain.Properties
	err = json.Unmarshal([]byte(jsonValue), &properties)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	pc.logger.Println("Cache hit - property list")
	return properties, nil
}

// Invalidate drops the landlord's cached property list. Callers treat a
// failure here as best-effort: the write already landed, a stale list only
// lives until the TTL runs out.
func (pc *PropertyCache) Invalidate(ctx context.Context, landlordID string) error {
	ctx, span := pc.tracer.Start(ctx, "PropertyCache.Invalidate")
	defer span.End()

	err := pc.cli.Del(constructPropertiesKey(landlordID)).Err()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("cache invalidation for landlord %s failed: %w", landlordID, err)
	}
	return nil
}
