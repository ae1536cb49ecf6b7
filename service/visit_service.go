package application

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"pgstay/domain"
)

type VisitService struct {
	store      domain.VisitStore
	properties domain.PropertyStore
	notifier   *Notifier
	tracer     trace.Tracer
	logger     *logrus.Logger
}

func NewVisitService(store domain.VisitStore, properties domain.PropertyStore, notifier *Notifier, tracer trace.Tracer, logger *logrus.Logger) *VisitService {
	return &VisitService{
		store:      store,
		properties: properties,
		notifier:   notifier,
		tracer:     tracer,
		logger:     logger,
	}
}

type ScheduleVisitInput struct {
	PropertyID string    `json:"propertyId"`
	UserID     string    `json:"userId"`
	VisitDate  time.Time `json:"visitDate"`
}

func (service *VisitService) ScheduleVisit(ctx context.Context, input ScheduleVisitInput) (*domain.Visit, error) {
	ctx, span := service.tracer.Start(ctx, "VisitService.ScheduleVisit")
	defer span.End()

	propertyID, err := primitive.ObjectIDFromHex(input.PropertyID)
	if err != nil {
		return nil, domain.NewValidationError("propertyId is not a valid id")
	}
	property, err := service.properties.Get(ctx, propertyID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	visit, err := domain.NewVisit(input.PropertyID, property.LandlordID, input.UserID, input.VisitDate, time.Now())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return service.store.Insert(ctx, visit)
}

func (service *VisitService) GetVisit(ctx context.Context, id primitive.ObjectID) (*domain.Visit, error) {
	ctx, span := service.tracer.Start(ctx, "VisitService.GetVisit")
	defer span.End()

	return service.store.Get(ctx, id)
}

func (service *VisitService) ListVisitsByProperty(ctx context.Context, propertyID string) (domain.Visits, error) {
	ctx, span := service.tracer.Start(ctx, "VisitService.ListVisitsByProperty")
	defer span.End()

	return service.store.GetByProperty(ctx, propertyID)
}

func (service *VisitService) ListVisitsByUser(ctx context.Context, userID string) (domain.Visits, error) {
	ctx, span := service.tracer.Start(ctx, "VisitService.ListVisitsByUser")
	defer span.End()

	return service.store.GetByUser(ctx, userID)
}

func (service *VisitService) ConfirmVisit(ctx context.Context, id primitive.ObjectID) (*domain.Visit, error) {
	ctx, span := service.tracer.Start(ctx, "VisitService.ConfirmVisit")
	defer span.End()

	visit, err := service.mutate(ctx, span, id, func(visit *domain.Visit) error {
		return visit.Confirm(time.Now())
	})
	if err != nil {
		return nil, err
	}

	// Best-effort: the visit is confirmed whether or not the guest hears
	// about it right away.
	if err := service.notifier.VisitConfirmed(ctx, visit); err != nil {
		service.logger.Warn("visit confirmation notification failed: ", err)
	}
	return visit, nil
}

func (service *VisitService) CancelVisit(ctx context.Context, id primitive.ObjectID, reason string) (*domain.Visit, error) {
	ctx, span := service.tracer.Start(ctx, "VisitService.CancelVisit")
	defer span.End()

	return service.mutate(ctx, span, id, func(visit *domain.Visit) error {
		return visit.Cancel(time.Now(), reason)
	})
}

func (service *VisitService) CompleteVisit(ctx context.Context, id primitive.ObjectID, notes, feedback string) (*domain.Visit, error) {
	ctx, span := service.tracer.Start(ctx, "VisitService.CompleteVisit")
	defer span.End()

	return service.mutate(ctx, span, id, func(visit *domain.Visit) error {
		return visit.Complete(time.Now(), notes, feedback)
	})
}

func (service *VisitService) mutate(ctx context.Context, span trace.Span, id primitive.ObjectID, fn func(*domain.Visit) error) (*domain.Visit, error) {
	for attempt := 0; attempt < maxRetries; attempt++ {
		visit, err := service.store.Get(ctx, id)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		if err := fn(visit); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		err = service.store.Update(ctx, visit)
		if err == nil {
			return visit, nil
		}
		if !errors.Is(err, domain.ErrConcurrentModification) {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		service.logger.Info("version conflict on visit ", id.Hex(), ", retrying")
	}
	err := domain.NewConflictError("visit %s was modified concurrently, please retry", id.Hex())
	span.SetStatus(codes.Error, err.Error())
	return nil, err
}
