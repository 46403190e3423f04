package httpx

import (
	"encoding/json"
	"net/http"
)

// APIError is the {"error", "details"} envelope used by the refresh and
// image endpoints.
type APIError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// NotFound is the {"detail"} shape used by lookups that miss.
type NotFound struct {
	Detail string `json:"detail"`
}

func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, msg, details string) {
	WriteJSON(w, status, APIError{Error: msg, Details: details})
}

func WriteDetail(w http.ResponseWriter, status int, detail string) {
	WriteJSON(w, status, NotFound{Detail: detail})
}
