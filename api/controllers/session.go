package controllers

import (
	"context"
	"net/http"

	"github.com/designcraft/designcraft-backend/api/middleware"
	"github.com/designcraft/designcraft-backend/internal/session"
	pkgerrors "github.com/designcraft/designcraft-backend/pkg/errors"
)

// SessionResolver hands out the cart session for a browser session id.
type SessionResolver interface {
	Get(ctx context.Context, id string) (*session.Session, error)
}

func currentSession(r *http.Request, sessions SessionResolver) (*session.Session, error) {
	if sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session registry unavailable")
	}
	id := middleware.SessionIDFromContext(r.Context())
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	return sessions.Get(r.Context(), id)
}
