package httpx

import (
	"encoding/json"
	"net/http"
)

// Response is the JSON envelope every endpoint answers with.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
	Error   string `json:"error,omitempty"`
}

// WriteJSON writes v as the JSON body with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// OK writes a success envelope, omitting data when nil.
func OK(w http.ResponseWriter, status int, message string, data any) {
	WriteJSON(w, status, Response{Success: true, Message: message, Data: data})
}

// Fail writes a failure envelope with just a message.
func Fail(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Response{Success: false, Message: message})
}

// ServerError writes a 500 envelope echoing the underlying error string.
func ServerError(w http.ResponseWriter, message string, err error) {
	WriteJSON(w, http.StatusInternalServerError, Response{
		Success: false,
		Message: message,
		Error:   err.Error(),
	})
}
