package application

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"pgstay/cache"
	"pgstay/domain"
)

// maxRetries bounds the reload-and-retry loop on version conflicts. Each
// attempt re-runs validation against fresh state, so a retry can still end
// in a ConflictError (e.g. the last bed got taken).
const maxRetries = 3

type PropertyService struct {
	store  domain.PropertyStore
	cache  *cache.PropertyCache
	tracer trace.Tracer
	logger *logrus.Logger
}

func NewPropertyService(store domain.PropertyStore, cache *cache.PropertyCache, tracer trace.Tracer, logger *logrus.Logger) *PropertyService {
	return &PropertyService{
		store:  store,
		cache:  cache,
		tracer: tracer,
		logger: logger,
	}
}

type CreatePropertyInput struct {
	LandlordID string            `json:"landlordId"`
	Name       string            `json:"name"`
	Address    domain.Address    `json:"address"`
	Rooms      []domain.RoomSpec `json:"rooms"`
}

func (service *PropertyService) CreateProperty(ctx context.Context, input CreatePropertyInput) (*domain.Property, error) {
	ctx, span := service.tracer.Start(ctx, "PropertyService.CreateProperty")
	defer span.End()

	property, err := domain.NewProperty(input.LandlordID, input.Name, input.Address, input.Rooms)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	created, err := service.store.Insert(ctx, property)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	service.invalidate(ctx, created.LandlordID)
	return created, nil
}

func (service *PropertyService) GetProperty(ctx context.Context, id primitive.ObjectID) (*domain.Property, error) {
	ctx, span := service.tracer.Start(ctx, "PropertyService.GetProperty")
	defer span.End()

	return service.store.Get(ctx, id)
}

func (service *PropertyService) ListProperties(ctx context.Context, landlordID string) (domain.Properties, error) {
	ctx, span := service.tracer.Start(ctx, "PropertyService.ListProperties")
	defer span.End()

	if landlordID == "" {
		return nil, domain.NewValidationError("landlordId is required")
	}

	if cached, err := service.cache.GetProperties(ctx, landlordID); err == nil {
		return cached, nil
	}

	properties, err := service.store.GetByLandlord(ctx, landlordID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := service.cache.PostProperties(ctx, landlordID, properties); err != nil {
		service.logger.Warn("caching property list failed: ", err)
	}
	return properties, nil
}

func (service *PropertyService) UpdateProperty(ctx context.Context, id primitive.ObjectID, patch domain.PropertyPatch) (*domain.Property, error) {
	ctx, span := service.tracer.Start(ctx, "PropertyService.UpdateProperty")
	defer span.End()

	return service.mutate(ctx, span, id, func(property *domain.Property) error {
		return property.ApplyPatch(patch)
	})
}

func (service *PropertyService) DeleteProperty(ctx context.Context, id primitive.ObjectID) error {
	ctx, span := service.tracer.Start(ctx, "PropertyService.DeleteProperty")
	defer span.End()

	property, err := service.store.Get(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if property.HasActiveTenants() {
		err := domain.NewConflictError("property %s has active tenants and cannot be deleted", id.Hex())
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := service.store.Delete(ctx, id); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	service.invalidate(ctx, property.LandlordID)
	return nil
}

func (service *PropertyService) AddRoom(ctx context.Context, id primitive.ObjectID, spec domain.RoomSpec) (*domain.Property, error) {
	ctx, span := service.tracer.Start(ctx, "PropertyService.AddRoom")
	defer span.End()

	return service.mutate(ctx, span, id, func(property *domain.Property) error {
		_, err := property.AddRoom(spec)
		return err
	})
}

func (service *PropertyService) UpdateRoom(ctx context.Context, id primitive.ObjectID, roomID string, patch domain.RoomPatch) (*domain.Property, error) {
	ctx, span := service.tracer.Start(ctx, "PropertyService.UpdateRoom")
	defer span.End()

	return service.mutate(ctx, span, id, func(property *domain.Property) error {
		return property.UpdateRoom(roomID, patch)
	})
}

func (service *PropertyService) RemoveRoom(ctx context.Context, id primitive.ObjectID, roomID string) (*domain.Property, error) {
	ctx, span := service.tracer.Start(ctx, "PropertyService.RemoveRoom")
	defer span.End()

	return service.mutate(ctx, span, id, func(property *domain.Property) error {
		return property.RemoveRoom(roomID)
	})
}

func (service *PropertyService) AddBed(ctx context.Context, id primitive.ObjectID, roomID string, spec domain.BedSpec) (*domain.Property, error) {
	ctx, span := service.tracer.Start(ctx, "PropertyService.AddBed")
	defer span.End()

	return service.mutate(ctx, span, id, func(property *domain.Property) error {
		_, err := property.AddBed(roomID, spec)
		return err
	})
}

func (service *PropertyService) UpdateBed(ctx context.Context, id primitive.ObjectID, roomID, bedID string, patch domain.BedPatch) (*domain.Property, error) {
	ctx, span := service.tracer.Start(ctx, "PropertyService.UpdateBed")
	defer span.End()

	return service.mutate(ctx, span, id, func(property *domain.Property) error {
		return property.UpdateBed(roomID, bedID, patch)
	})
}

func (service *PropertyService) RemoveBed(ctx context.Context, id primitive.ObjectID, roomID, bedID string) (*domain.Property, error) {
	ctx, span := service.tracer.Start(ctx, "PropertyService.RemoveBed")
	defer span.End()

	return service.mutate(ctx, span, id, func(property *domain.Property) error {
		return property.RemoveBed(roomID, bedID)
	})
}

func (service *PropertyService) OverrideRoomStatus(ctx context.Context, id primitive.ObjectID, roomID string, status domain.AvailabilityStatus) (*domain.Property, error) {
	ctx, span := service.tracer.Start(ctx, "PropertyService.OverrideRoomStatus")
	defer span.End()

	return service.mutate(ctx, span, id, func(property *domain.Property) error {
		return property.OverrideRoomStatus(roomID, status)
	})
}

func (service *PropertyService) OverrideBedStatus(ctx context.Context, id primitive.ObjectID, roomID, bedID string, status domain.AvailabilityStatus) (*domain.Property, error) {
	ctx, span := service.tracer.Start(ctx, "PropertyService.OverrideBedStatus")
	defer span.End()

	return service.mutate(ctx, span, id, func(property *domain.Property) error {
		return property.OverrideBedStatus(roomID, bedID, status)
	})
}

func (service *PropertyService) Occupancy(ctx context.Context, id primitive.ObjectID) (*domain.OccupancyReport, error) {
	ctx, span := service.tracer.Start(ctx, "PropertyService.Occupancy")
	defer span.End()

	property, err := service.store.Get(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return property.Occupancy(), nil
}

// Recompute is the rollup repair operation: a full idempotent recalculation
// persisted back through the same versioned write as every other mutation.
func (service *PropertyService) Recompute(ctx context.Context, id primitive.ObjectID) (*domain.Property, error) {
	ctx, span := service.tracer.Start(ctx, "PropertyService.Recompute")
	defer span.End()

	return service.mutate(ctx, span, id, func(property *domain.Property) error {
		property.RecomputeRollups()
		return nil
	})
}

// AssignTenant and RemoveTenant exist for the tenant service, which owns the
// cross-aggregate assignment flow.
func (service *PropertyService) AssignTenant(ctx context.Context, id primitive.ObjectID, roomID, bedID, tenantID string) (*domain.Property, error) {
	ctx, span := service.tracer.Start(ctx, "PropertyService.AssignTenant")
	defer span.End()

	return service.mutate(ctx, span, id, func(property *domain.Property) error {
		return property.AssignTenant(roomID, bedID, tenantID)
	})
}

func (service *PropertyService) RemoveTenant(ctx context.Context, id primitive.ObjectID, roomID, bedID, tenantID string) (*domain.Property, error) {
	ctx, span := service.tracer.Start(ctx, "PropertyService.RemoveTenant")
	defer span.End()

	return service.mutate(ctx, span, id, func(property *domain.Property) error {
		return property.RemoveTenant(roomID, bedID, tenantID)
	})
}

func (service *PropertyService) ApplyBill(ctx context.Context, id primitive.ObjectID, roomID, bedID string, amount float64) (*domain.Property, error) {
	ctx, span := service.tracer.Start(ctx, "PropertyService.ApplyBill")
	defer span.End()

	return service.mutate(ctx, span, id, func(property *domain.Property) error {
		return property.ApplyBill(roomID, bedID, amount)
	})
}

func (service *PropertyService) ApplyPayment(ctx context.Context, id primitive.ObjectID, roomID, bedID string, amount float64) (*domain.Property, error) {
	ctx, span := service.tracer.Start(ctx, "PropertyService.ApplyPayment")
	defer span.End()

	return service.mutate(ctx, span, id, func(property *domain.Property) error {
		return property.ApplyPayment(roomID, bedID, amount)
	})
}

// mutate runs the load-mutate-write loop behind every aggregate write. On a
// lost version race it reloads and re-applies fn against fresh state, up to
// maxRetries attempts.
func (service *PropertyService) mutate(ctx context.Context, span trace.Span, id primitive.ObjectID, fn func(*domain.Property) error) (*domain.Property, error) {
	for attempt := 0; attempt < maxRetries; attempt++ {
		property, err := service.store.Get(ctx, id)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		if err := fn(property); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		err = service.store.Update(ctx, property)
		if err == nil {
			service.invalidate(ctx, property.LandlordID)
			return property, nil
		}
		if !errors.Is(err, domain.ErrConcurrentModification) {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		service.logger.Info("version conflict on property ", id.Hex(), ", retrying")
	}
	err := domain.NewConflictError("property %s was modified concurrently, please retry", id.Hex())
	span.SetStatus(codes.Error, err.Error())
	return nil, err
}

func (service *PropertyService) invalidate(ctx context.Context, landlordID string) {
	if err := service.cache.Invalidate(ctx, landlordID); err != nil {
		service.logger.Warn(err)
	}
}
