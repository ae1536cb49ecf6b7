package handlers

import (
	"encoding/json"
	"net/http"

	"pgstay/domain"
)

type successResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(successResponse{Success: true, Data: data}); err != nil {
		http.Error(w, "Unable to convert to json", http.StatusInternalServerError)
	}
}

// writeError maps the domain error taxonomy onto the HTTP contract:
// validation and conflict are 400, not-found is 404, the rest is 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"
	switch {
	case domain.IsValidation(err):
		status = http.StatusBadRequest
		message = "validation failed"
	case domain.IsConflict(err):
		status = http.StatusBadRequest
		message = "conflict"
	case domain.IsNotFound(err):
		status = http.StatusNotFound
		message = "not found"
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Success: false,
		Message: message,
		Error:   err.Error(),
	})
}
