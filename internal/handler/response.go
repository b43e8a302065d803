// Package handler is the HTTP layer: it decodes requests, asks the services
// for work, and encodes the result.
//
// Every handler in this package computes an Outcome first and writes it
// last. Dispatch functions never touch the ResponseWriter, so the
// authorization state machine can be tested without HTTP.
//
// Error bodies have one shape:
//
//	{"error": "<message>"}
//
// 401 always carries msgNotAuthorized; 404 for an unsupported method or
// action has no body at all.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/booker/internal/apperror"
)

// msgNotAuthorized is the only 401 body. It does not say whether the
// session was missing, expired or pointed at a deleted user.
const msgNotAuthorized = "Not Authorized, Login First"

// maxBodyBytes bounds request bodies read by the JSON endpoints.
const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every error outcome that has one.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Outcome is what a dispatch decided: a status, an optional JSON body and,
// for redirects, a Location.
type Outcome struct {
	Status   int
	Body     any
	Location string
}

func ok(body any) Outcome { return Outcome{Status: http.StatusOK, Body: body} }

func notAuthorized() Outcome {
	return Outcome{Status: http.StatusUnauthorized, Body: ErrorResponse{Error: msgNotAuthorized}}
}

func notSupported() Outcome { return Outcome{Status: http.StatusNotFound} }

func badRequest(message string) Outcome {
	return Outcome{Status: http.StatusBadRequest, Body: ErrorResponse{Error: message}}
}

// errorOutcome translates a service error.
//
//	ErrNotSupported          -> 404, no body
//	any other *AppError      -> 400 {"error": Message}
//	anything else            -> 500 {"error": "An internal error occurred"}
//
// Stale sessions are handled by the caller before it gets here, because
// only the caller knows whether a NotFound refers to the session's user.
func errorOutcome(logger *slog.Logger, err error) Outcome {
	if errors.Is(err, apperror.ErrNotSupported) {
		return notSupported()
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		if errors.Is(err, apperror.ErrUnavailable) {
			logger.Error("store unavailable", slog.String("error", err.Error()))
		}
		return badRequest(appErr.Message)
	}

	logger.Error("unhandled error", slog.String("error", err.Error()))
	return Outcome{
		Status: http.StatusInternalServerError,
		Body:   ErrorResponse{Error: "An internal error occurred"},
	}
}

// writeOutcome sends o. Headers go out before the body.
func writeOutcome(w http.ResponseWriter, r *http.Request, o Outcome) {
	if o.Location != "" {
		http.Redirect(w, r, o.Location, o.Status)
		return
	}
	if o.Body == nil {
		w.WriteHeader(o.Status)
		return
	}
	WriteJSON(w, o.Status, o.Body)
}

// WriteJSON sends data as JSON with status.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent; all we can do is log.
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}
