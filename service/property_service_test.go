package application

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/trace"

	"pgstay/cache"
	"pgstay/domain"
)

// memoryPropertyStore backs service tests with the same conditional write
// semantics as the mongo store: Update only lands when the caller read the
// current version.
type memoryPropertyStore struct {
	mu         sync.Mutex
	properties map[primitive.ObjectID]*domain.Property
}

func newMemoryPropertyStore() *memoryPropertyStore {
	return &memoryPropertyStore{properties: make(map[primitive.ObjectID]*domain.Property)}
}

func clone(property *domain.Property) *domain.Property {
	raw, err := bson.Marshal(property)
	if err != nil {
		panic(err)
	}
	var copied domain.Property
	if err := bson.Unmarshal(raw, &copied); err != nil {
		panic(err)
	}
	return &copied
}

func (store *memoryPropertyStore) Insert(ctx context.Context, property *domain.Property) (*domain.Property, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	property.ID = primitive.NewObjectID()
	store.properties[property.ID] = clone(property)
	return property, nil
}

func (store *memoryPropertyStore) Get(ctx context.Context, id primitive.ObjectID) (*domain.Property, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	property, ok := store.properties[id]
	if !ok {
		return nil, domain.NewNotFoundError("property", id.Hex())
	}
	return clone(property), nil
}

func (store *memoryPropertyStore) GetByLandlord(ctx context.Context, landlordID string) (domain.Properties, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	var result domain.Properties
	for _, property := range store.properties {
		if property.LandlordID == landlordID {
			result = append(result, clone(property))
		}
	}
	return result, nil
}

func (store *memoryPropertyStore) Update(ctx context.Context, property *domain.Property) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	current, ok := store.properties[property.ID]
	if !ok {
		return domain.NewNotFoundError("property", property.ID.Hex())
	}
	if current.Version != property.Version {
		return domain.ErrConcurrentModification
	}
	property.Version++
	store.properties[property.ID] = clone(property)
	return nil
}

func (store *memoryPropertyStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if _, ok := store.properties[id]; !ok {
		return domain.NewNotFoundError("property", id.Hex())
	}
	delete(store.properties, id)
	return nil
}

// conflictingStore fails the first n Update calls with a version conflict, to
// drive the retry loop without real contention.
type conflictingStore struct {
	*memoryPropertyStore
	mu        sync.Mutex
	conflicts int
}

func (store *conflictingStore) Update(ctx context.Context, property *domain.Property) error {
	store.mu.Lock()
	remaining := store.conflicts
	if remaining > 0 {
		store.conflicts--
	}
	store.mu.Unlock()

	if remaining > 0 {
		return domain.ErrConcurrentModification
	}
	return store.memoryPropertyStore.Update(ctx, property)
}

func newTestService(store domain.PropertyStore) *PropertyService {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	tracer := trace.NewNoopTracerProvider().Tracer("")
	propertyCache := cache.New("localhost:1", logger, tracer)
	return NewPropertyService(store, propertyCache, tracer, logger)
}

func seedProperty(t *testing.T, service *PropertyService, rooms ...domain.RoomSpec) *domain.Property {
	t.Helper()
	property, err := service.CreateProperty(context.Background(), CreatePropertyInput{
		LandlordID: "landlord-1",
		Name:       "Sunrise PG",
		Rooms:      rooms,
	})
	require.NoError(t, err)
	return property
}

func TestCreateAndGetProperty(t *testing.T) {
	service := newTestService(newMemoryPropertyStore())

	property := seedProperty(t, service, domain.RoomSpec{
		Type:     "Single",
		Price:    5000,
		Capacity: 1,
		Beds:     []domain.BedSpec{{Price: 5000}},
	})
	require.False(t, property.ID.IsZero())

	loaded, err := service.GetProperty(context.Background(), property.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.TotalRooms)
	assert.Equal(t, 1, loaded.TotalBeds)
}

func TestGetPropertyNotFound(t *testing.T) {
	service := newTestService(newMemoryPropertyStore())

	_, err := service.GetProperty(context.Background(), primitive.NewObjectID())
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
}

func TestMutationRetriesThroughVersionConflict(t *testing.T) {
	store := &conflictingStore{memoryPropertyStore: newMemoryPropertyStore(), conflicts: 2}
	service := newTestService(store)

	property := seedProperty(t, service)

	updated, err := service.AddRoom(context.Background(), property.ID, domain.RoomSpec{
		Type:     "Single",
		Price:    5000,
		Capacity: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.TotalRooms)
}

func TestMutationGivesUpAfterMaxRetries(t *testing.T) {
	store := &conflictingStore{memoryPropertyStore: newMemoryPropertyStore(), conflicts: maxRetries}
	service := newTestService(store)

	property := seedProperty(t, service)

	_, err := service.AddRoom(context.Background(), property.ID, domain.RoomSpec{
		Type:     "Single",
		Price:    5000,
		Capacity: 1,
	})
	require.Error(t, err)
	assert.True(t, domain.IsConflict(err))
	assert.Contains(t, err.Error(), "modified concurrently")
}

func TestConcurrentAssignToLastBed(t *testing.T) {
	service := newTestService(newMemoryPropertyStore())

	property := seedProperty(t, service, domain.RoomSpec{
		Type:     "Single",
		Price:    5000,
		Capacity: 1,
		Beds:     []domain.BedSpec{{Price: 5000}},
	})
	roomID := property.Rooms[0].RoomID
	bedID := property.Rooms[0].Beds[0].BedID

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, tenantID := range []string{"tenant-1", "tenant-2"} {
		wg.Add(1)
		go func(i int, tenantID string) {
			defer wg.Done()
			_, errs[i] = service.AssignTenant(context.Background(), property.ID, roomID, bedID, tenantID)
		}(i, tenantID)
	}
	wg.Wait()

	succeeded, conflicted := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case domain.IsConflict(err):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, conflicted)

	loaded, err := service.GetProperty(context.Background(), property.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.OccupiedBeds)
	require.Len(t, loaded.Rooms[0].Beds[0].Tenants, 1)
}

func TestDeletePropertyWithTenantsRejected(t *testing.T) {
	service := newTestService(newMemoryPropertyStore())

	property := seedProperty(t, service, domain.RoomSpec{
		Type:     "Single",
		Price:    5000,
		Capacity: 1,
		Beds:     []domain.BedSpec{{Price: 5000}},
	})
	roomID := property.Rooms[0].RoomID
	bedID := property.Rooms[0].Beds[0].BedID

	_, err := service.AssignTenant(context.Background(), property.ID, roomID, bedID, "tenant-1")
	require.NoError(t, err)

	err = service.DeleteProperty(context.Background(), property.ID)
	require.Error(t, err)
	assert.True(t, domain.IsConflict(err))

	_, err = service.RemoveTenant(context.Background(), property.ID, roomID, bedID, "tenant-1")
	require.NoError(t, err)

	require.NoError(t, service.DeleteProperty(context.Background(), property.ID))
	_, err = service.GetProperty(context.Background(), property.ID)
	assert.True(t, domain.IsNotFound(err))
}

func TestRecomputeRepairsDriftedRollups(t *testing.T) {
	store := newMemoryPropertyStore()
	service := newTestService(store)

	property := seedProperty(t, service, domain.RoomSpec{
		Type:     "Single",
		Price:    5000,
		Capacity: 1,
		Beds:     []domain.BedSpec{{Price: 5000}},
	})

	// corrupt the stored counters behind the service's back
	store.mu.Lock()
	store.properties[property.ID].TotalBeds = 42
	store.properties[property.ID].OccupiedBeds = 7
	store.mu.Unlock()

	repaired, err := service.Recompute(context.Background(), property.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, repaired.TotalBeds)
	assert.Equal(t, 0, repaired.OccupiedBeds)
}
