package controllers

import (
	"net/http"

	"github.com/designcraft/designcraft-backend/api/responses"
	"github.com/designcraft/designcraft-backend/api/validators"
	"github.com/designcraft/designcraft-backend/pkg/logger"
)

type errorReport struct {
	Message string `json:"message" validate:"required"`
}

func CheckoutState(sessions SessionResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := currentSession(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sess.Checkout.State())
	}
}

// CheckoutStart creates a payment session for the current cart and returns the
// URL the browser must follow.
func CheckoutStart(sessions SessionResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := currentSession(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := sess.Checkout.Checkout(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func CheckoutCancel(sessions SessionResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := currentSession(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := sess.Checkout.Cancel(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sess.Checkout.State())
	}
}

// CheckoutReportError receives uncaught browser errors and latches the blocked
// flag when they point at the payment provider.
func CheckoutReportError(sessions SessionResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := currentSession(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload errorReport
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		latched := sess.Checkout.ReportError(r.Context(), validators.SanitizeString(payload.Message, 2048))
		responses.WriteSuccess(w, map[string]any{
			"latched": latched,
			"state":   sess.Checkout.State(),
		})
	}
}

func CheckoutClearBlocked(sessions SessionResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := currentSession(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sess.Checkout.ClearBlocked()
		responses.WriteSuccess(w, sess.Checkout.State())
	}
}
