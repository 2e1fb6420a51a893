package controllers

import (
	"net/http"

	"github.com/designcraft/designcraft-backend/api/responses"
	"github.com/designcraft/designcraft-backend/api/validators"
	"github.com/designcraft/designcraft-backend/internal/fit"
	"github.com/designcraft/designcraft-backend/pkg/enums"
	pkgerrors "github.com/designcraft/designcraft-backend/pkg/errors"
	"github.com/designcraft/designcraft-backend/pkg/logger"
)

type fitRequest struct {
	Width       int    `json:"width" validate:"required,gt=0"`
	Height      int    `json:"height" validate:"required,gt=0"`
	ProductType string `json:"productType" validate:"required"`
}

type fixRequest struct {
	ImageURL    string `json:"imageUrl" validate:"required,url"`
	ProductType string `json:"productType" validate:"required"`
}

// DesignFit grades an image's pixel size against a product's print area.
// Unknown product types are not a request error: the verdict is "error".
func DesignFit(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload fitRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, fit.Evaluate(payload.Width, payload.Height, enums.ProductType(payload.ProductType)))
	}
}

func DesignFix(fixer fit.Fixer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if fixer == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "image fixer unavailable"))
			return
		}
		var payload fixRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		fixed, err := fixer.Fix(r.Context(), payload.ImageURL, enums.ProductType(payload.ProductType))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"imageUrl": fixed})
	}
}
