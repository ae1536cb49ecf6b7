package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"pgstay/domain"
)

type TenantService struct {
	store      domain.TenantStore
	properties *PropertyService
	tracer     trace.Tracer
	logger     *logrus.Logger
}

func NewTenantService(store domain.TenantStore, properties *PropertyService, tracer trace.Tracer, logger *logrus.Logger) *TenantService {
	return &TenantService{
		store:      store,
		properties: properties,
		tracer:     tracer,
		logger:     logger,
	}
}

type CreateTenantInput struct {
	LandlordID string `json:"landlordId"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
}

type AssignAccommodationInput struct {
	PropertyID string  `json:"propertyId"`
	RoomID     string  `json:"roomId"`
	BedID      string  `json:"bedId"`
	RentAmount float64 `json:"rentAmount"`
}

type RecordBillInput struct {
	AccommodationID string  `json:"accommodationId"`
	Description     string  `json:"description"`
	Amount          float64 `json:"amount"`
}

type RecordPaymentInput struct {
	BillIDs []string `json:"billIds"`
}

func (service *TenantService) CreateTenant(ctx context.Context, input CreateTenantInput) (*domain.Tenant, error) {
	ctx, span := service.tracer.Start(ctx, "TenantService.CreateTenant")
	defer span.End()

	tenant, err := domain.NewTenant(input.LandlordID, input.Name, input.Phone, input.Email)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return service.store.Insert(ctx, tenant)
}

func (service *TenantService) GetTenant(ctx context.Context, id primitive.ObjectID) (*domain.Tenant, error) {
	ctx, span := service.tracer.Start(ctx, "TenantService.GetTenant")
	defer span.End()

	return service.store.Get(ctx, id)
}

func (service *TenantService) ListTenants(ctx context.Context, landlordID string) (domain.Tenants, error) {
	ctx, span := service.tracer.Start(ctx, "TenantService.ListTenants")
	defer span.End()

	if landlordID == "" {
		return nil, domain.NewValidationError("landlordId is required")
	}
	return service.store.GetByLandlord(ctx, landlordID)
}

type TenantPatch struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
	Email *string `json:"email"`
}

func (service *TenantService) UpdateTenant(ctx context.Context, id primitive.ObjectID, patch TenantPatch) (*domain.Tenant, error) {
	ctx, span := service.tracer.Start(ctx, "TenantService.UpdateTenant")
	defer span.End()

	return service.mutate(ctx, span, id, func(tenant *domain.Tenant) error {
		if patch.Name != nil {
			if *patch.Name == "" {
				return domain.NewValidationError("tenant name cannot be empty")
			}
			tenant.Name = *patch.Name
		}
		if patch.Phone != nil {
			tenant.Phone = *patch.Phone
		}
		if patch.Email != nil {
			tenant.Email = *patch.Email
		}
		tenant.UpdatedAt = time.Now()
		return nil
	})
}

// AssignAccommodation books a bed for the tenant. The property aggregate is
// written first so bed occupancy acts as the contention point: when two
// requests race for the last bed, exactly one survives the versioned write.
// If opening the accommodation on the tenant then fails, the bed assignment
// is rolled back with a compensating write.
func (service *TenantService) AssignAccommodation(ctx context.Context, tenantID primitive.ObjectID, input AssignAccommodationInput) (*domain.Tenant, error) {
	ctx, span := service.tracer.Start(ctx, "TenantService.AssignAccommodation")
	defer span.End()

	propertyID, err := primitive.ObjectIDFromHex(input.PropertyID)
	if err != nil {
		return nil, domain.NewValidationError("propertyId is not a valid id")
	}

	tenant, err := service.store.Get(ctx, tenantID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	property, err := service.properties.AssignTenant(ctx, propertyID, input.RoomID, input.BedID, tenant.ID.Hex())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	updated, err := service.mutate(ctx, span, tenantID, func(tenant *domain.Tenant) error {
		_, err := tenant.AddAccommodation(property.LandlordID, input.PropertyID, input.RoomID, input.BedID, input.RentAmount, time.Now())
		return err
	})
	if err != nil {
		// Free the bed again; without cross-aggregate transactions this
		// compensating write is the only way back to a consistent pair.
		if _, compErr := service.properties.RemoveTenant(ctx, propertyID, input.RoomID, input.BedID, tenant.ID.Hex()); compErr != nil {
			service.logger.Error("compensating bed release failed for tenant ", tenant.ID.Hex(), ": ", compErr)
		}
		return nil, err
	}
	return updated, nil
}

// Vacate closes the accommodation on the tenant first, then frees the bed.
// Ordering matters: a bed that stays briefly occupied is safe, a bed that
// frees up while the accommodation is still active is not.
func (service *TenantService) Vacate(ctx context.Context, tenantID primitive.ObjectID, accommodationID string) (*domain.Tenant, error) {
	ctx, span := service.tracer.Start(ctx, "TenantService.Vacate")
	defer span.End()

	var closed domain.Accommodation
	updated, err := service.mutate(ctx, span, tenantID, func(tenant *domain.Tenant) error {
		acc, err := tenant.CloseAccommodation(accommodationID, time.Now())
		if err != nil {
			return err
		}
		closed = *acc
		return nil
	})
	if err != nil {
		return nil, err
	}

	propertyID, err := primitive.ObjectIDFromHex(closed.PropertyID)
	if err != nil {
		service.logger.Error("accommodation ", accommodationID, " carries invalid propertyId ", closed.PropertyID)
		return updated, nil
	}
	if _, err := service.properties.RemoveTenant(ctx, propertyID, closed.RoomID, closed.BedID, tenantID.Hex()); err != nil {
		service.logger.Error("freeing bed after vacate failed for tenant ", tenantID.Hex(), ": ", err)
	}
	return updated, nil
}

// RecordBill issues a bill on the accommodation and mirrors the dues on the
// property rollups. The tenant aggregate is authoritative; a failed mirror
// write is logged and left for the rollup repair operation.
func (service *TenantService) RecordBill(ctx context.Context, tenantID primitive.ObjectID, input RecordBillInput) (*domain.Bill, error) {
	ctx, span := service.tracer.Start(ctx, "TenantService.RecordBill")
	defer span.End()

	var bill domain.Bill
	var acc domain.Accommodation
	_, err := service.mutate(ctx, span, tenantID, func(tenant *domain.Tenant) error {
		created, err := tenant.AddBill(input.AccommodationID, input.Description, input.Amount, time.Now())
		if err != nil {
			return err
		}
		bill = *created
		found, err := tenant.Accommodation(input.AccommodationID)
		if err != nil {
			return err
		}
		acc = *found
		return nil
	})
	if err != nil {
		return nil, err
	}

	service.mirrorFinancials(ctx, acc, bill.Amount, false)
	return &bill, nil
}

// RecordPayment settles bills all-or-nothing on the tenant aggregate, then
// mirrors each accommodation's paid total onto the property rollups.
func (service *TenantService) RecordPayment(ctx context.Context, tenantID primitive.ObjectID, input RecordPaymentInput) (*domain.Tenant, error) {
	ctx, span := service.tracer.Start(ctx, "TenantService.RecordPayment")
	defer span.End()

	var paid map[string]float64
	updated, err := service.mutate(ctx, span, tenantID, func(tenant *domain.Tenant) error {
		totals, err := tenant.PayBills(input.BillIDs, time.Now())
		if err != nil {
			return err
		}
		paid = totals
		return nil
	})
	if err != nil {
		return nil, err
	}

	for accommodationID, amount := range paid {
		acc, err := updated.Accommodation(accommodationID)
		if err != nil {
			service.logger.Error("paid accommodation ", accommodationID, " missing on tenant ", tenantID.Hex())
			continue
		}
		service.mirrorFinancials(ctx, *acc, amount, true)
	}
	return updated, nil
}

func (service *TenantService) AddComplaint(ctx context.Context, tenantID primitive.ObjectID, subject, description string) (*domain.Tenant, error) {
	ctx, span := service.tracer.Start(ctx, "TenantService.AddComplaint")
	defer span.End()

	return service.mutate(ctx, span, tenantID, func(tenant *domain.Tenant) error {
		_, err := tenant.AddComplaint(subject, description, time.Now())
		return err
	})
}

func (service *TenantService) ResolveComplaint(ctx context.Context, tenantID primitive.ObjectID, complaintID string) (*domain.Tenant, error) {
	ctx, span := service.tracer.Start(ctx, "TenantService.ResolveComplaint")
	defer span.End()

	return service.mutate(ctx, span, tenantID, func(tenant *domain.Tenant) error {
		return tenant.ResolveComplaint(complaintID, time.Now())
	})
}

func (service *TenantService) AddBookingRequest(ctx context.Context, tenantID primitive.ObjectID, propertyID, roomID string) (*domain.Tenant, error) {
	ctx, span := service.tracer.Start(ctx, "TenantService.AddBookingRequest")
	defer span.End()

	return service.mutate(ctx, span, tenantID, func(tenant *domain.Tenant) error {
		_, err := tenant.AddBookingRequest(propertyID, roomID, time.Now())
		return err
	})
}

func (service *TenantService) DecideBookingRequest(ctx context.Context, tenantID primitive.ObjectID, requestID string, approved bool) (*domain.Tenant, error) {
	ctx, span := service.tracer.Start(ctx, "TenantService.DecideBookingRequest")
	defer span.End()

	return service.mutate(ctx, span, tenantID, func(tenant *domain.Tenant) error {
		return tenant.DecideBookingRequest(requestID, approved, time.Now())
	})
}

func (service *TenantService) mirrorFinancials(ctx context.Context, acc domain.Accommodation, amount float64, payment bool) {
	propertyID, err := primitive.ObjectIDFromHex(acc.PropertyID)
	if err != nil {
		service.logger.Error("accommodation ", acc.AccommodationID, " carries invalid propertyId ", acc.PropertyID)
		return
	}
	if payment {
		_, err = service.properties.ApplyPayment(ctx, propertyID, acc.RoomID, acc.BedID, amount)
	} else {
		_, err = service.properties.ApplyBill(ctx, propertyID, acc.RoomID, acc.BedID, amount)
	}
	if err != nil {
		service.logger.Error(fmt.Sprintf("mirroring financials on property %s failed: %v", acc.PropertyID, err))
	}
}

func (service *TenantService) mutate(ctx context.Context, span trace.Span, id primitive.ObjectID, fn func(*domain.Tenant) error) (*domain.Tenant, error) {
	for attempt := 0; attempt < maxRetries; attempt++ {
		tenant, err := service.store.Get(ctx, id)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		if err := fn(tenant); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		err = service.store.Update(ctx, tenant)
		if err == nil {
			return tenant, nil
		}
		if !errors.Is(err, domain.ErrConcurrentModification) {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		service.logger.Info("version conflict on tenant ", id.Hex(), ", retrying")
	}
	err := domain.NewConflictError("tenant %s was modified concurrently, please retry", id.Hex())
	span.SetStatus(codes.Error, err.Error())
	return nil, err
}
