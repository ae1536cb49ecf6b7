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

type TenantHandler struct {
	service *application.TenantService
	tracer  trace.Tracer
	logger  *logrus.Logger
}

func NewTenantHandler(service *application.TenantService, tracer trace.Tracer, logger *logrus.Logger) *TenantHandler {
	return &TenantHandler{
		service: service,
		tracer:  tracer,
		logger:  logger,
	}
}

func (handler *TenantHandler) Init(router *mux.Router) {
	router.HandleFunc("/tenants", handler.CreateTenant).Methods("POST")
	router.HandleFunc("/tenants", handler.ListTenants).Methods("GET")
	router.HandleFunc("/tenants/{tenantId}", handler.GetTenant).Methods("GET")
	router.HandleFunc("/tenants/{tenantId}", handler.UpdateTenant).Methods("PUT")
	router.HandleFunc("/tenants/{tenantId}/accommodations", handler.AssignAccommodation).Methods("POST")
	router.HandleFunc("/tenants/{tenantId}/accommodations/{accommodationId}", handler.Vacate).Methods("DELETE")
	router.HandleFunc("/tenants/{tenantId}/bills", handler.RecordBill).Methods("POST")
	router.HandleFunc("/tenants/{tenantId}/payments", handler.RecordPayment).Methods("POST")
	router.HandleFunc("/tenants/{tenantId}/complaints", handler.AddComplaint).Methods("POST")
	router.HandleFunc("/tenants/{tenantId}/complaints", handler.ListComplaints).Methods("GET")
	router.HandleFunc("/tenants/{tenantId}/complaints/{complaintId}/resolve", handler.ResolveComplaint).Methods("PUT")
	router.HandleFunc("/tenants/{tenantId}/booking-requests", handler.AddBookingRequest).Methods("POST")
	router.HandleFunc("/tenants/{tenantId}/booking-requests/{requestId}/status", handler.DecideBookingRequest).Methods("PUT")
}

func (handler *TenantHandler) CreateTenant(rw http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "TenantHandler.CreateTenant")
	defer span.End()

	var input application.CreateTenantInput
	if err := json.NewDecoder(req.Body).Decode(&input); err != nil {
		writeError(rw, domain.NewValidationError("invalid request body"))
		return
	}
	tenant, err := handler.service.CreateTenant(ctx, input)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(rw, err)
		return
	}
	jsonResponse(rw, http.StatusCreated, tenant)
}

func (handler *TenantHandler) ListTenants(rw http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "TenantHandler.ListTenants")
	defer span.End()

	tenants, err := handler.service.ListTenants(ctx, req.URL.Query().Get("landlordId"))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(rw, err)
		return
	}
	if tenants == nil {
		tenants = domain.Tenants{}
	}
	jsonResponse(rw, http.StatusOK, tenants)
}

func (handler *TenantHandler) GetTenant(rw http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "TenantHandler.GetTenant")
	defer span.End()

	id, err := tenantID(req)
	if err != nil {
		writeError(rw, err)
		return
	}
	tenant, err := handler.service.GetTenant(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(rw, err)
		return
	}
	jsonResponse(rw, http.StatusOK, tenant)
}

func (handler *TenantHandler) UpdateTenant(rw http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "TenantHandler.UpdateTenant")
	defer span.End()

	id, err := tenantID(req)
	if err != nil {
		writeError(rw, err)
		return
	}
	var patch application.TenantPatch
	if err := json.NewDecoder(req.Body).Decode(&patch); err != nil {
		writeError(rw, domain.NewValidationError("invalid request body"))
		return
	}
	tenant, err := handler.service.UpdateTenant(ctx, id, patch)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(rw, err)
		return
	}
	jsonResponse(rw, http.StatusOK, tenant)
}

func (handler *TenantHandler) AssignAccommodation(rw http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "TenantHandler.AssignAccommodation")
	defer span.End()

	id, err := tenantID(req)
	if err != nil {
		writeError(rw, err)
		return
	}
	var input application.AssignAccommodationInput
	if err := json.NewDecoder(req.Body).Decode(&input); err != nil {
		writeError(rw, domain.NewValidationError("invalid request body"))
		return
	}
	tenant, err := handler.service.AssignAccommodation(ctx, id, input)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(rw, err)
		return
	}
	jsonResponse(rw, http.StatusCreated, tenant)
}

func (handler *TenantHandler) Vacate(rw http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "TenantHandler.Vacate")
	defer span.End()

	id, err := tenantID(req)
	if err != nil {
		writeError(rw, err)
		return
	}
	tenant, err := handler.service.Vacate(ctx, id, mux.Vars(req)["accommodationId"])
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(rw, err)
		return
	}
	jsonResponse(rw, http.StatusOK, tenant)
}

func (handler *TenantHandler) RecordBill(rw http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "TenantHandler.RecordBill")
	defer span.End()

	id, err := tenantID(req)
	if err != nil {
		writeError(rw, err)
		return
	}
	var input application.RecordBillInput
	if err := json.NewDecoder(req.Body).Decode(&input); err != nil {
		writeError(rw, domain.NewValidationError("invalid request body"))
		return
	}
	bill, err := handler.service.RecordBill(ctx, id, input)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(rw, err)
		return
	}
	jsonResponse(rw, http.StatusCreated, bill)
}

func (handler *TenantHandler) RecordPayment(rw http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "TenantHandler.RecordPayment")
	defer span.End()

	id, err := tenantID(req)
	if err != nil {
		writeError(rw, err)
		return
	}
	var input application.RecordPaymentInput
	if err := json.NewDecoder(req.Body).Decode(&input); err != nil {
		writeError(rw, domain.NewValidationError("invalid request body"))
		return
	}
	tenant, err := handler.service.RecordPayment(ctx, id, input)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(rw, err)
		return
	}
	jsonResponse(rw, http.StatusOK, tenant)
}

type complaintRequest struct {
	Subject     string `json:"subject"`
	Description string `json:"description"`
}

func (handler *TenantHandler) AddComplaint(rw http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "TenantHandler.AddComplaint")
	defer span.End()

	id, err := tenantID(req)
	if err != nil {
		writeError(rw, err)
		return
	}
	var body complaintRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(rw, domain.NewValidationError("invalid request body"))
		return
	}
	tenant, err := handler.service.AddComplaint(ctx, id, body.Subject, body.Description)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(rw, err)
		return
	}
	jsonResponse(rw, http.StatusCreated, tenant.Complaints)
}

func (handler *TenantHandler) ListComplaints(rw http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "TenantHandler.ListComplaints")
	defer span.End()

	id, err := tenantID(req)
	if err != nil {
		writeError(rw, err)
		return
	}
	tenant, err := handler.service.GetTenant(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(rw, err)
		return
	}
	jsonResponse(rw, http.StatusOK, tenant.Complaints)
}

func (handler *TenantHandler) ResolveComplaint(rw http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "TenantHandler.ResolveComplaint")
	defer span.End()

	id, err := tenantID(req)
	if err != nil {
		writeError(rw, err)
		return
	}
	tenant, err := handler.service.ResolveComplaint(ctx, id, mux.Vars(req)["complaintId"])
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(rw, err)
		return
	}
	jsonResponse(rw, http.StatusOK, tenant.Complaints)
}

type bookingRequestBody struct {
	PropertyID string `json:"propertyId"`
	RoomID     string `json:"roomId"`
}

func (handler *TenantHandler) AddBookingRequest(rw http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "TenantHandler.AddBookingRequest")
	defer span.End()

	id, err := tenantID(req)
	if err != nil {
		writeError(rw, err)
		return
	}
	var body bookingRequestBody
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(rw, domain.NewValidationError("invalid request body"))
		return
	}
	tenant, err := handler.service.AddBookingRequest(ctx, id, body.PropertyID, body.RoomID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(rw, err)
		return
	}
	jsonResponse(rw, http.StatusCreated, tenant.BookingRequests)
}

type bookingDecisionBody struct {
	Approved bool `json:"approved"`
}

func (handler *TenantHandler) DecideBookingRequest(rw http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "TenantHandler.DecideBookingRequest")
	defer span.End()

	id, err := tenantID(req)
	if err != nil {
		writeError(rw, err)
		return
	}
	var body bookingDecisionBody
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(rw, domain.NewValidationError("invalid request body"))
		return
	}
	tenant, err := handler.service.DecideBookingRequest(ctx, id, mux.Vars(req)["requestId"], body.Approved)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(rw, err)
		return
	}
	jsonResponse(rw, http.StatusOK, tenant.BookingRequests)
}

func tenantID(req *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(req)["tenantId"])
	if err != nil {
		return primitive.NilObjectID, domain.NewValidationError("tenantId is not a valid id")
	}
	return id, nil
}
