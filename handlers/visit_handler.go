package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	application "pgstay/service"

	"pgstay/domain"
)

type VisitHandler struct {
	service *application.VisitService
	tracer  trace.Tracer
	logger  *logrus.Logger
}

func NewVisitHandler(service *application.VisitService, tracer trace.Tracer, logger *logrus.Logger) *VisitHandler {
	return &VisitHandler{
		service: service,
		tracer:  tracer,
		logger:  logger,
	}
}

func (handler *VisitHandler) Init(router *mux.Router) {
	router.HandleFunc("/visits", handler.ScheduleVisit).Methods("POST")
	router.HandleFunc("/visits", handler.ListVisits).Methods("GET")
	router.HandleFunc("/visits/{visitId}", handler.GetVisit).Methods("GET")
	router.HandleFunc("/visits/{visitId}/confirm", handler.ConfirmVisit).Methods("PUT")
	router.HandleFunc("/visits/{visitId}/cancel", handler.CancelVisit).Methods("PUT")
	router.HandleFunc("/visits/{visitId}/complete", handler.CompleteVisit).Methods("PUT")
}

func (handler *VisitHandler) ScheduleVisit(rw http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "VisitHandler.ScheduleVisit")
	defer span.End()

	var input application.ScheduleVisitInput
	if err := json.NewDecoder(req.Body).Decode(&input); err != nil {
		writeError(rw, domain.NewValidationError("invalid request body"))
		return
	}
	visit, err := handler.service.ScheduleVisit(ctx, input)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(rw, err)
		return
	}
	jsonResponse(rw, http.StatusCreated, visit)
}

func (handler *VisitHandler) ListVisits(rw http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "VisitHandler.ListVisits")
	defer span.End()

	var (
		visits domain.Visits
		err    error
	)
	query := req.URL.Query()
	switch {
	case query.Get("propertyId") != "":
		visits, err = handler.service.ListVisitsByProperty(ctx, query.Get("propertyId"))
	case query.Get("userId") != "":
		visits, err = handler.service.ListVisitsByUser(ctx, query.Get("userId"))
	default:
		writeError(rw, domain.NewValidationError("propertyId or userId query parameter is required"))
		return
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(rw, err)
		return
	}
	if visits == nil {
		visits = domain.Visits{}
	}
	jsonResponse(rw, http.StatusOK, visits)
}

func (handler *VisitHandler) GetVisit(rw http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "VisitHandler.GetVisit")
	defer span.End()

	id, err := visitID(req)
	if err != nil {
		writeError(rw, err)
		return
	}
	visit, err := handler.service.GetVisit(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(rw, err)
		return
	}
	jsonResponse(rw, http.StatusOK, visit)
}

func (handler *VisitHandler) ConfirmVisit(rw http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "VisitHandler.ConfirmVisit")
	defer span.End()

	id, err := visitID(req)
	if err != nil {
		writeError(rw, err)
		return
	}
	visit, err := handler.service.ConfirmVisit(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(rw, err)
		return
	}
	jsonResponse(rw, http.StatusOK, visit)
}

type cancelVisitBody struct {
	Reason string `json:"reason"`
}

func (handler *VisitHandler) CancelVisit(rw http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "VisitHandler.CancelVisit")
	defer span.End()

	id, err := visitID(req)
	if err != nil {
		writeError(rw, err)
		return
	}
	var body cancelVisitBody
	if req.Body != nil {
		_ = json.NewDecoder(req.Body).Decode(&body)
	}
	visit, err := handler.service.CancelVisit(ctx, id, body.Reason)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(rw, err)
		return
	}
	jsonResponse(rw, http.StatusOK, visit)
}

type completeVisitBody struct {
	Notes    string `json:"notes"`
	Feedback string `json:"feedback"`
}

func (handler *VisitHandler) CompleteVisit(rw http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "VisitHandler.CompleteVisit")
	defer span.End()

	id, err := visitID(req)
	if err != nil {
		writeError(rw, err)
		return
	}
	var body completeVisitBody
	if req.Body != nil {
		_ = json.NewDecoder(req.Body).Decode(&body)
	}
	visit, err := handler.service.CompleteVisit(ctx, id, body.Notes, body.Feedback)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(rw, err)
		return
	}
	jsonResponse(rw, http.StatusOK, visit)
}

func visitID(req *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(req)["visitId"])
	if err != nil {
		return primitive.NilObjectID, domain.NewValidationError("visitId is not a valid id")
	}
	return id, nil
}
