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

type PropertyHandler struct {
	service *application.PropertyService
	tracer  trace.Tracer
	logger  *logrus.Logger
}

func NewPropertyHandler(service *application.PropertyService, tracer trace.Tracer, logger *logrus.Logger) *PropertyHandler {
	return &PropertyHandler{
		service: service,
		tracer:  tracer,
		logger:  logger,
	}
}

func (handler *PropertyHandler) Init(router *mux.Router) {
	router.HandleFunc("/properties", handler.CreateProperty).Methods("POST")
	router.HandleFunc("/properties", handler.ListProperties).Methods("GET")
	router.HandleFunc("/properties/{propertyId}", handler.GetProperty).Methods("GET")
	router.HandleFunc("/properties/{propertyId}", handler.UpdateProperty).Methods("PUT")
	router.HandleFunc("/properties/{propertyId}", handler.DeleteProperty).Methods("DELETE")
	router.HandleFunc("/properties/{propertyId}/occupancy", handler.Occupancy).Methods("GET")
	router.HandleFunc("/properties/{propertyId}/recompute", handler.Recompute).Methods("POST")
	router.HandleFunc("/properties/{propertyId}/rooms", handler.AddRoom).Methods("POST")
	router.HandleFunc("/properties/{propertyId}/rooms/{roomId}", handler.UpdateRoom).Methods("PUT")
	router.HandleFunc("/properties/{propertyId}/rooms/{roomId}", handler.RemoveRoom).Methods("DELETE")
	router.HandleFunc("/properties/{propertyId}/rooms/{roomId}/status", handler.OverrideRoomStatus).Methods("PUT")
	router.HandleFunc("/properties/{propertyId}/rooms/{roomId}/beds", handler.AddBed).Methods("POST")
	router.HandleFunc("/properties/{propertyId}/rooms/{roomId}/beds/{bedId}", handler.UpdateBed).Methods("PUT")
	router.HandleFunc("/properties/{propertyId}/rooms/{roomId}/beds/{bedId}", handler.RemoveBed).Methods("DELETE")
	router.HandleFunc("/properties/{propertyId}/rooms/{roomId}/beds/{bedId}/status", handler.OverrideBedStatus).Methods("PUT")
}

func (handler *PropertyHandler) CreateProperty(rw http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "PropertyHandler.CreateProperty")
	defer span.End()

	var input application.CreatePropertyInput
	if err := json.NewDecoder(req.Body).Decode(&input); err != nil {
		writeError(rw, domain.NewValidationError("invalid request body"))
		return
	}

	property, err := handler.service.CreateProperty(ctx, input)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(rw, err)
		return
	}
	jsonResponse(rw, http.StatusCreated, property)
}

func (handler *PropertyHandler) ListProperties(rw http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "PropertyHandler.ListProperties")
	defer span.End()

	landlordID := req.URL.Query().Get("landlordId")
	properties, err := handler.service.ListProperties(ctx, landlordID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(rw, err)
		return
	}
	if properties == nil {
		properties = domain.Properties{}
	}
	jsonResponse(rw, http.StatusOK, properties)
}

func (handler *PropertyHandler) GetProperty(rw http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "PropertyHandler.GetProperty")
	defer span.End()

	id, err := propertyID(req)
	if err != nil {
		writeError(rw, err)
		return
	}
	property, err := handler.service.GetProperty(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(rw, err)
		return
	}
	jsonResponse(rw, http.StatusOK, property)
}

func (handler *PropertyHandler) UpdateProperty(rw http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "PropertyHandler.UpdateProperty")
	defer span.End()

	id, err := propertyID(req)
	if err != nil {
		writeError(rw, err)
		return
	}
	var patch domain.PropertyPatch
	if err := json.NewDecoder(req.Body).Decode(&patch); err != nil {
		writeError(rw, domain.NewValidationError("invalid request body"))
		return
	}
	property, err := handler.service.UpdateProperty(ctx, id, patch)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(rw, err)
		return
	}
	jsonResponse(rw, http.StatusOK, property)
}

func (handler *PropertyHandler) DeleteProperty(rw http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "PropertyHandler.DeleteProperty")
	defer span.End()

	id, err := propertyID(req)
	if err != nil {
		writeError(rw, err)
		return
	}
	if err := handler.service.DeleteProperty(ctx, id); err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(rw, err)
		return
	}
	jsonResponse(rw, http.StatusOK, nil)
}

func (handler *PropertyHandler) Occupancy(rw http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "PropertyHandler.Occupancy")
	defer span.End()

	id, err := propertyID(req)
	if err != nil {
		writeError(rw, err)
		return
	}
	report, err := handler.service.Occupancy(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(rw, err)
		return
	}
	jsonResponse(rw, http.StatusOK, report)
}

func (handler *PropertyHandler) Recompute(rw http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "PropertyHandler.Recompute")
	defer span.End()

	id, err := propertyID(req)
	if err != nil {
		writeError(rw, err)
		return
	}
	property, err := handler.service.Recompute(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(rw, err)
		return
	}
	jsonResponse(rw, http.StatusOK, property)
}

func (handler *PropertyHandler) AddRoom(rw http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "PropertyHandler.AddRoom")
	defer span.End()

	id, err := propertyID(req)
	if err != nil {
		writeError(rw, err)
		return
	}
	var spec domain.RoomSpec
	if err := json.NewDecoder(req.Body).Decode(&spec); err != nil {
		writeError(rw, domain.NewValidationError("invalid request body"))
		return
	}
	property, err := handler.service.AddRoom(ctx, id, spec)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(rw, err)
		return
	}
	jsonResponse(rw, http.StatusCreated, property)
}

func (handler *PropertyHandler) UpdateRoom(rw http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "PropertyHandler.UpdateRoom")
	defer span.End()

	id, err := propertyID(req)
	if err != nil {
		writeError(rw, err)
		return
	}
	var patch domain.RoomPatch
	if err := json.NewDecoder(req.Body).Decode(&patch); err != nil {
		writeError(rw, domain.NewValidationError("invalid request body"))
		return
	}
	property, err := handler.service.UpdateRoom(ctx, id, mux.Vars(req)["roomId"], patch)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(rw, err)
		return
	}
	jsonResponse(rw, http.StatusOK, property)
}

func (handler *PropertyHandler) RemoveRoom(rw http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "PropertyHandler.RemoveRoom")
	defer span.End()

	id, err := propertyID(req)
	if err != nil {
		writeError(rw, err)
		return
	}
	property, err := handler.service.RemoveRoom(ctx, id, mux.Vars(req)["roomId"])
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(rw, err)
		return
	}
	jsonResponse(rw, http.StatusOK, property)
}

type statusRequest struct {
	Status domain.AvailabilityStatus `json:"status"`
}

func (handler *PropertyHandler) OverrideRoomStatus(rw http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "PropertyHandler.OverrideRoomStatus")
	defer span.End()

	id, err := propertyID(req)
	if err != nil {
		writeError(rw, err)
		return
	}
	var body statusRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(rw, domain.NewValidationError("invalid request body"))
		return
	}
	property, err := handler.service.OverrideRoomStatus(ctx, id, mux.Vars(req)["roomId"], body.Status)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(rw, err)
		return
	}
	jsonResponse(rw, http.StatusOK, property)
}

func (handler *PropertyHandler) AddBed(rw http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "PropertyHandler.AddBed")
	defer span.End()

	id, err := propertyID(req)
	if err != nil {
		writeError(rw, err)
		return
	}
	var spec domain.BedSpec
	if err := json.NewDecoder(req.Body).Decode(&spec); err != nil {
		writeError(rw, domain.NewValidationError("invalid request body"))
		return
	}
	property, err := handler.service.AddBed(ctx, id, mux.Vars(req)["roomId"], spec)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(rw, err)
		return
	}
	jsonResponse(rw, http.StatusCreated, property)
}

func (handler *PropertyHandler) UpdateBed(rw http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "PropertyHandler.UpdateBed")
	defer span.End()

	id, err := propertyID(req)
	if err != nil {
		writeError(rw, err)
		return
	}
	var patch domain.BedPatch
	if err := json.NewDecoder(req.Body).Decode(&patch); err != nil {
		writeError(rw, domain.NewValidationError("invalid request body"))
		return
	}
	vars := mux.Vars(req)
	property, err := handler.service.UpdateBed(ctx, id, vars["roomId"], vars["bedId"], patch)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(rw, err)
		return
	}
	jsonResponse(rw, http.StatusOK, property)
}

func (handler *PropertyHandler) RemoveBed(rw http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "PropertyHandler.RemoveBed")
	defer span.End()

	id, err := propertyID(req)
	if err != nil {
		writeError(rw, err)
		return
	}
	vars := mux.Vars(req)
	property, err := handler.service.RemoveBed(ctx, id, vars["roomId"], vars["bedId"])
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(rw, err)
		return
	}
	jsonResponse(rw, http.StatusOK, property)
}

func (handler *PropertyHandler) OverrideBedStatus(rw http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "PropertyHandler.OverrideBedStatus")
	defer span.End()

	id, err := propertyID(req)
	if err != nil {
		writeError(rw, err)
		return
	}
	var body statusRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(rw, domain.NewValidationError("invalid request body"))
		return
	}
	vars := mux.Vars(req)
	property, err := handler.service.OverrideBedStatus(ctx, id, vars["roomId"], vars["bedId"], body.Status)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(rw, err)
		return
	}
	jsonResponse(rw, http.StatusOK, property)
}

func propertyID(req *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(req)["propertyId"])
	if err != nil {
		return primitive.NilObjectID, domain.NewValidationError("propertyId is not a valid id")
	}
	return id, nil
}
