package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/designcraft/designcraft-backend/api/responses"
	"github.com/designcraft/designcraft-backend/internal/session"
	pkgerrors "github.com/designcraft/designcraft-backend/pkg/errors"
	"github.com/designcraft/designcraft-backend/pkg/logger"
)

// SessionIDHeader carries the browser's cart session.
const SessionIDHeader = "X-Session-Id"

// Session resolves the cart session from the request header, minting a new id
// when the client has none yet. The id is echoed on every response.
func Session(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sessionID := strings.TrimSpace(r.Header.Get(SessionIDHeader))
			if sessionID == "" {
				sessionID = uuid.NewString()
			} else if !session.ValidID(sessionID) {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid session id"))
				return
			}

			w.Header().Set(SessionIDHeader, sessionID)
			ctx = WithSessionID(ctx, sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
