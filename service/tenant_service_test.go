package application

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"pgstay/domain"
)

type memoryTenantStore struct {
	mu      sync.Mutex
	tenants map[primitive.ObjectID]*domain.Tenant
}

func newMemoryTenantStore() *memoryTenantStore {
	return &memoryTenantStore{tenants: make(map[primitive.ObjectID]*domain.Tenant)}
}

func cloneTenant(tenant *domain.Tenant) *domain.Tenant {
	raw, err := bson.Marshal(tenant)
	if err != nil {
		panic(err)
	}
	var copied domain.Tenant
	if err := bson.Unmarshal(raw, &copied); err != nil {
		panic(err)
	}
	return &copied
}

func (store *memoryTenantStore) Insert(ctx context.Context, tenant *domain.Tenant) (*domain.Tenant, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	tenant.ID = primitive.NewObjectID()
	store.tenants[tenant.ID] = cloneTenant(tenant)
	return tenant, nil
}

func (store *memoryTenantStore) Get(ctx context.Context, id primitive.ObjectID) (*domain.Tenant, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	tenant, ok := store.tenants[id]
	if !ok {
		return nil, domain.NewNotFoundError("tenant", id.Hex())
	}
	return cloneTenant(tenant), nil
}

func (store *memoryTenantStore) GetByLandlord(ctx context.Context, landlordID string) (domain.Tenants, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	var result domain.Tenants
	for _, tenant := range store.tenants {
		if tenant.LandlordID == landlordID {
			result = append(result, cloneTenant(tenant))
		}
	}
	return result, nil
}

func (store *memoryTenantStore) Update(ctx context.Context, tenant *domain.Tenant) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	current, ok := store.tenants[tenant.ID]
	if !ok {
		return domain.NewNotFoundError("tenant", tenant.ID.Hex())
	}
	if current.Version != tenant.Version {
		return domain.ErrConcurrentModification
	}
	tenant.Version++
	store.tenants[tenant.ID] = cloneTenant(tenant)
	return nil
}

// brokenTenantStore fails every Update with a persistence error, so cross-
// aggregate flows hit their compensation path after the property write landed.
type brokenTenantStore struct {
	*memoryTenantStore
}

func (store *brokenTenantStore) Update(ctx context.Context, tenant *domain.Tenant) error {
	return errors.New("write failed")
}

func newTenantServiceFixture(tenantStore domain.TenantStore, propertyStore domain.PropertyStore) (*TenantService, *PropertyService) {
	propertyService := newTestService(propertyStore)
	tenantService := NewTenantService(tenantStore, propertyService, propertyService.tracer, propertyService.logger)
	return tenantService, propertyService
}

func seedTenant(t *testing.T, service *TenantService) *domain.Tenant {
	t.Helper()
	tenant, err := service.CreateTenant(context.Background(), CreateTenantInput{
		LandlordID: "landlord-1",
		Name:       "Asha",
	})
	require.NoError(t, err)
	return tenant
}

func seedSingleBedProperty(t *testing.T, service *PropertyService) (*domain.Property, string, string) {
	t.Helper()
	property := seedProperty(t, service, domain.RoomSpec{
		Type:     "Single",
		Price:    5000,
		Capacity: 1,
		Beds:     []domain.BedSpec{{Price: 5000}},
	})
	return property, property.Rooms[0].RoomID, property.Rooms[0].Beds[0].BedID
}

func TestAssignAccommodationOccupiesBed(t *testing.T) {
	tenantService, propertyService := newTenantServiceFixture(newMemoryTenantStore(), newMemoryPropertyStore())

	tenant := seedTenant(t, tenantService)
	property, roomID, bedID := seedSingleBedProperty(t, propertyService)

	updated, err := tenantService.AssignAccommodation(context.Background(), tenant.ID, AssignAccommodationInput{
		PropertyID: property.ID.Hex(),
		RoomID:     roomID,
		BedID:      bedID,
		RentAmount: 5000,
	})
	require.NoError(t, err)
	require.Len(t, updated.Accommodations, 1)
	assert.True(t, updated.Accommodations[0].Active)
	assert.Equal(t, "landlord-1", updated.Accommodations[0].LandlordID)

	loaded, err := propertyService.GetProperty(context.Background(), property.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.OccupiedBeds)
	assert.Equal(t, domain.NotAvailable, loaded.Rooms[0].Beds[0].Status)
	assert.Equal(t, domain.NotAvailable, loaded.Rooms[0].Status)
	require.Len(t, loaded.Rooms[0].Beds[0].Tenants, 1)
	assert.Equal(t, tenant.ID.Hex(), loaded.Rooms[0].Beds[0].Tenants[0])
}

func TestAssignAccommodationCompensatesFailedTenantWrite(t *testing.T) {
	tenantStore := newMemoryTenantStore()
	tenantService, propertyService := newTenantServiceFixture(&brokenTenantStore{tenantStore}, newMemoryPropertyStore())

	// seed through the intact store so only the assignment write breaks
	seeded, err := NewTenantService(tenantStore, propertyService, propertyService.tracer, propertyService.logger).
		CreateTenant(context.Background(), CreateTenantInput{LandlordID: "landlord-1", Name: "Asha"})
	require.NoError(t, err)

	property, roomID, bedID := seedSingleBedProperty(t, propertyService)

	_, err = tenantService.AssignAccommodation(context.Background(), seeded.ID, AssignAccommodationInput{
		PropertyID: property.ID.Hex(),
		RoomID:     roomID,
		BedID:      bedID,
		RentAmount: 5000,
	})
	require.Error(t, err)

	// the compensating write must have released the bed
	loaded, err := propertyService.GetProperty(context.Background(), property.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.OccupiedBeds)
	assert.Empty(t, loaded.Rooms[0].Beds[0].Tenants)
	assert.Equal(t, domain.Available, loaded.Rooms[0].Beds[0].Status)

	// and the tenant side recorded nothing
	unchanged, err := tenantStore.Get(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Empty(t, unchanged.Accommodations)
}

func TestVacateFreesBedAndClosesAccommodation(t *testing.T) {
	tenantService, propertyService := newTenantServiceFixture(newMemoryTenantStore(), newMemoryPropertyStore())

	tenant := seedTenant(t, tenantService)
	property, roomID, bedID := seedSingleBedProperty(t, propertyService)

	assigned, err := tenantService.AssignAccommodation(context.Background(), tenant.ID, AssignAccommodationInput{
		PropertyID: property.ID.Hex(),
		RoomID:     roomID,
		BedID:      bedID,
		RentAmount: 5000,
	})
	require.NoError(t, err)
	accommodationID := assigned.Accommodations[0].AccommodationID

	vacated, err := tenantService.Vacate(context.Background(), tenant.ID, accommodationID)
	require.NoError(t, err)
	require.Len(t, vacated.Accommodations, 1)
	assert.False(t, vacated.Accommodations[0].Active)
	require.NotNil(t, vacated.Accommodations[0].EndDate)

	loaded, err := propertyService.GetProperty(context.Background(), property.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.OccupiedBeds)
	assert.Empty(t, loaded.Rooms[0].Beds[0].Tenants)
	assert.Equal(t, domain.Available, loaded.Rooms[0].Beds[0].Status)
	assert.Equal(t, domain.Available, loaded.Rooms[0].Status)

	// vacating twice is a conflict, not a second bed release
	_, err = tenantService.Vacate(context.Background(), tenant.ID, accommodationID)
	require.Error(t, err)
	assert.True(t, domain.IsConflict(err))
}

func TestBillAndPaymentMirrorOntoProperty(t *testing.T) {
	tenantService, propertyService := newTenantServiceFixture(newMemoryTenantStore(), newMemoryPropertyStore())

	tenant := seedTenant(t, tenantService)
	property, roomID, bedID := seedSingleBedProperty(t, propertyService)

	_, err := tenantService.AssignAccommodation(context.Background(), tenant.ID, AssignAccommodationInput{
		PropertyID: property.ID.Hex(),
		RoomID:     roomID,
		BedID:      bedID,
		RentAmount: 5000,
	})
	require.NoError(t, err)

	loaded, err := tenantService.GetTenant(context.Background(), tenant.ID)
	require.NoError(t, err)
	accommodationID := loaded.Accommodations[0].AccommodationID

	bill, err := tenantService.RecordBill(context.Background(), tenant.ID, RecordBillInput{
		AccommodationID: accommodationID,
		Description:     "rent",
		Amount:          5000,
	})
	require.NoError(t, err)

	mirrored, err := propertyService.GetProperty(context.Background(), property.ID)
	require.NoError(t, err)
	assert.Equal(t, 5000.0, mirrored.PendingDues)
	assert.Equal(t, 0.0, mirrored.MonthlyCollection)

	paid, err := tenantService.RecordPayment(context.Background(), tenant.ID, RecordPaymentInput{
		BillIDs: []string{bill.BillID},
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, paid.Accommodations[0].PendingDues)
	assert.Equal(t, 5000.0, paid.Accommodations[0].MonthlyCollection)

	mirrored, err = propertyService.GetProperty(context.Background(), property.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, mirrored.PendingDues)
	assert.Equal(t, 5000.0, mirrored.MonthlyCollection)
}
