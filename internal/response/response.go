// Package response writes JSON bodies for the HTTP handlers.
package response

import (
	"encoding/json"
	"net/http"

	"taskmanager/internal/apperrors"
)

// Message is the body for operations that return no resource
type Message struct {
	Message string `json:"message"`
}

// ErrorBody is the body of every failed request
type ErrorBody struct {
	Error string         `json:"error"`
	Code  apperrors.Code `json:"code"`
}

// JSON writes v with the given status
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Error maps err to its status and writes the public part of it
func Error(w http.ResponseWriter, err error) {
	code := apperrors.CodeOf(err)
	JSON(w, code.HTTPStatus(), ErrorBody{Error: apperrors.PublicMessage(err), Code: code})
}

// Fail writes an error body for failures that happen before any service is reached
func Fail(w http.ResponseWriter, status int, code apperrors.Code, message string) {
	JSON(w, status, ErrorBody{Error: message, Code: code})
}
