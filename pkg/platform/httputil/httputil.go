// Package httputil provides the JSON response helpers shared by all HTTP handlers.
//
// Error responses follow one wire shape everywhere:
//
//	{"error": "<code>", "error_description": "<human text>"}
//
// Internal errors deliberately omit error_description so infrastructure
// details never leak to clients; the handler logs the real error.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"budgetme/pkg/platform/sentinel"
)

type errorBody struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status code.
// Encoding failures are swallowed: headers are already flushed by then and
// the client connection is the only thing left to fail.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates err into the standard error response.
// Sentinel errors map to specific statuses; anything unrecognized is an
// internal error with the description withheld.
func WriteError(w http.ResponseWriter, err error) {
	status, code, describe := classify(err)

	body := errorBody{Error: code}
	if describe && err != nil {
		body.Description = err.Error()
	}
	WriteJSON(w, status, body)
}

// WriteErrorMessage writes an error response with an explicit code and
// description, for handler-level validation failures that have no sentinel.
func WriteErrorMessage(w http.ResponseWriter, status int, code, description string) {
	WriteJSON(w, status, errorBody{Error: code, Description: description})
}

func classify(err error) (status int, code string, describe bool) {
	switch {
	case errors.Is(err, sentinel.ErrMalformed):
		return http.StatusBadRequest, "bad_request", true
	case errors.Is(err, sentinel.ErrNotFound):
		return http.StatusNotFound, "not_found", true
	case errors.Is(err, sentinel.ErrPermissionDenied):
		return http.StatusForbidden, "forbidden", true
	case errors.Is(err, sentinel.ErrExpired):
		return http.StatusUnauthorized, "invalid_token", true
	case errors.Is(err, sentinel.ErrConflict), errors.Is(err, sentinel.ErrInvalidState):
		return http.StatusConflict, "conflict", true
	case errors.Is(err, sentinel.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "unavailable", false
	default:
		return http.StatusInternalServerError, "internal_error", false
	}
}
