package core

import (
	"encoding/json"
	"net/http"
)

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type okBody struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteOK wraps data in the success envelope.
func WriteOK(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, okBody{Success: true, Data: data})
}

// WriteError writes the failure envelope. msg must be safe to show a client.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, errorBody{Success: false, Error: msg})
}
