package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/amlakplus/backoffice/internal/ledger"
)

type contextKey string

const contextKeyActor contextKey = "actor"

// ActorMiddleware resolves the requesting user from the identity headers set
// by the upstream gateway. Authentication happens there; these headers are
// attribution and scoping only.
//
//	X-Actor-Id    numeric user id (required)
//	X-Actor-Name  display name
//	X-Actor-Role  agent | operator | manager
//	X-Office-Id   numeric office id
func ActorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idStr := r.Header.Get("X-Actor-Id")
		if idStr == "" {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing X-Actor-Id header")
			return
		}
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil || id <= 0 {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid X-Actor-Id header")
			return
		}

		actor := ledger.Actor{
			ID:   id,
			Name: r.Header.Get("X-Actor-Name"),
			Role: r.Header.Get("X-Actor-Role"),
		}
		if officeStr := r.Header.Get("X-Office-Id"); officeStr != "" {
			officeID, err := strconv.ParseInt(officeStr, 10, 64)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid X-Office-Id header")
				return
			}
			actor.OfficeID = officeID
		}

		ctx := context.WithValue(r.Context(), contextKeyActor, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// actorFrom returns the actor stored by ActorMiddleware.
func actorFrom(r *http.Request) ledger.Actor {
	actor, _ := r.Context().Value(contextKeyActor).(ledger.Actor)
	return actor
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, status int, error, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:            error,
		ErrorDescription: description,
	})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeServiceError maps ledger errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case ledger.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, ledger.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ledger.ErrForbidden):
		writeJSONError(w, http.StatusForbidden, "forbidden", err.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Internal server error")
	}
}

// urlID parses a positive numeric URL parameter.
func urlID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	return id, err == nil && id > 0
}
