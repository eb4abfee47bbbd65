package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jellehierck/Streeplijst3/pkg/api"
	"github.com/jellehierck/Streeplijst3/pkg/auth"
	"github.com/jellehierck/Streeplijst3/pkg/model"
	"github.com/jellehierck/Streeplijst3/pkg/server/middleware"
	"github.com/jellehierck/Streeplijst3/pkg/service"
	"github.com/jellehierck/Streeplijst3/pkg/session"
)

// SessionResp is returned by every session operation. Failures the kiosk shows
// to the member are carried by the alert in Session.
type SessionResp struct {
	Session session.Snapshot `json:"session"`
	Error   string           `json:"error,omitempty"`
	Data    any              `json:"data,omitempty"`
}

type ErrorResp struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("can't encode response", slog.Any("error", err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResp{Error: err.Error()})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("can't decode request body: %w", err)
	}
	return nil
}

// writeSession answers with the session snapshot. The status depends on err.
func writeSession(w http.ResponseWriter, s *session.Session, data any, err error) {
	resp := SessionResp{Session: s.Snapshot(), Data: data}
	if err != nil {
		resp.Error = err.Error()
	}

	writeJSON(w, sessionStatus(err), resp)
}

func sessionStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, model.ErrNotLoggedIn),
		errors.Is(err, model.ErrEmptyCart),
		errors.Is(err, session.ErrCheckoutInProgress):
		return http.StatusConflict
	case errors.Is(err, model.ErrProductNotFound), errors.Is(err, model.ErrFolderNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrUnknownScreen), errors.Is(err, model.ErrInvalidCardUID):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNoCardLookup):
		return http.StatusNotImplemented
	}

	// API failures, refused logins and superseded lookups are shown by the alert.
	var apiErr *api.Error
	if errors.As(err, &apiErr) ||
		errors.Is(err, auth.ErrSuperseded) ||
		errors.Is(err, model.ErrInvalidUsername) ||
		errors.Is(err, model.ErrCardNotRegistered) ||
		errors.Is(err, service.ErrLimitExceeded) {
		return http.StatusOK
	}

	slog.Error("unexpected session error", slog.Any("error", err))
	return http.StatusOK
}

// apiStatus maps a failed API call to the status of the kiosk's own response.
func apiStatus(err error) int {
	switch api.StatusOf(err) {
	case http.StatusNotFound:
		return http.StatusNotFound
	case http.StatusRequestTimeout:
		return http.StatusGatewayTimeout
	case 0:
		return http.StatusInternalServerError
	}
	return http.StatusBadGateway
}

func currentSession(r *http.Request) *session.Session {
	return middleware.SessionFrom(r.Context())
}
