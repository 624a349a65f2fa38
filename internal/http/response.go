package httpapi

import (
	"encoding/json"
	"net/http"

	"kanza-admin-go/internal/services"
)

type ErrorResponse struct {
	Message string `json:"message"`
}

// ListResponse is the canonical list envelope. Every list endpoint uses it;
// there is deliberately no second envelope shape.
type ListResponse struct {
	Data       interface{}         `json:"data"`
	Pagination services.Pagination `json:"pagination"`
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteJSONRaw writes an already-serialized payload, used on cache hits.
func WriteJSONRaw(w http.ResponseWriter, status int, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Message: message})
}
