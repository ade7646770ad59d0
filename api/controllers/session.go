package controllers

import (
	"context"
	"net/http"

	"github.com/sajidhasan/fieldorder/api/responses"
	"github.com/sajidhasan/fieldorder/api/validators"
	"github.com/sajidhasan/fieldorder/internal/auth"
	pkgerrors "github.com/sajidhasan/fieldorder/pkg/errors"
	"github.com/sajidhasan/fieldorder/pkg/logger"
)

// SessionService is the slice of the session manager the handlers need.
type SessionService interface {
	Login(ctx context.Context, username, password string) (*auth.Session, error)
	Logout(ctx context.Context) error
	Unlock(ctx context.Context, password string) error
	Session(ctx context.Context) (*auth.Session, error)
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type unlockRequest struct {
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	Username   string `json:"username"`
	EmployeeID string `json:"employee_id"`
}

func newSessionResponse(session *auth.Session) sessionResponse {
	return sessionResponse{
		Username:   session.Username,
		EmployeeID: session.EmployeeID,
	}
}

func SessionLogin(svc SessionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session service unavailable"))
			return
		}

		var payload loginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Login(r.Context(), payload.Username, payload.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newSessionResponse(session))
	}
}

func SessionLogout(svc SessionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session service unavailable"))
			return
		}

		if err := svc.Logout(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "signed_out"})
	}
}

func SessionUnlock(svc SessionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session service unavailable"))
			return
		}

		var payload unlockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Unlock(r.Context(), payload.Password); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "unlocked"})
	}
}

func SessionCurrent(svc SessionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session service unavailable"))
			return
		}

		session, err := svc.Session(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newSessionResponse(session))
	}
}
