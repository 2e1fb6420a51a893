package controllers

import (
	"net/http"

	"github.com/designcraft/designcraft-backend/api/responses"
	"github.com/designcraft/designcraft-backend/api/validators"
	"github.com/designcraft/designcraft-backend/internal/cart"
	"github.com/designcraft/designcraft-backend/internal/catalog"
	pkgerrors "github.com/designcraft/designcraft-backend/pkg/errors"
	"github.com/designcraft/designcraft-backend/pkg/logger"
)

type addItemRequest struct {
	ProductID     string              `json:"productId" validate:"required"`
	VariantID     int                 `json:"variantId" validate:"required,gt=0"`
	Image         string              `json:"image" validate:"required"`
	Customization *cart.Customization `json:"customization"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

type customizationRequest struct {
	Customization *cart.Customization `json:"customization"`
}

type openRequest struct {
	Open *bool `json:"isOpen" validate:"required"`
}

func CartGet(sessions SessionResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := currentSession(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sess.Cart.Snapshot())
	}
}

// CartAddItem prices the item from the catalog; clients only pick the variant
// and supply the design.
func CartAddItem(sessions SessionResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := currentSession(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := catalog.ProductByID(payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		variant, err := catalog.Variant(product.ID, payload.VariantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := sess.Cart.AddItem(r.Context(), cart.Candidate{
			ProductID:     product.ID,
			VariantID:     variant.ID,
			ProductType:   product.Type,
			Name:          product.Name,
			Image:         payload.Image,
			UnitPrice:     variant.Price,
			Size:          variant.Size,
			Color:         variant.Color,
			Customization: payload.Customization,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"item": item,
			"cart": sess.Cart.Snapshot(),
		})
	}
}

func CartRemoveItem(sessions SessionResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := currentSession(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.PathParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sess.Cart.RemoveItem(r.Context(), itemID)
		responses.WriteSuccess(w, sess.Cart.Snapshot())
	}
}

// CartUpdateQuantity sets the quantity; zero or less removes the item.
func CartUpdateQuantity(sessions SessionResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := currentSession(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.PathParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload quantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sess.Cart.UpdateQuantity(r.Context(), itemID, *payload.Quantity)
		responses.WriteSuccess(w, sess.Cart.Snapshot())
	}
}

func CartUpdateCustomization(sessions SessionResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := currentSession(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.PathParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload customizationRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if _, ok := sess.Cart.Item(itemID); !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found"))
			return
		}
		sess.Cart.UpdateCustomization(r.Context(), itemID, payload.Customization)
		responses.WriteSuccess(w, sess.Cart.Snapshot())
	}
}

func CartClear(sessions SessionResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := currentSession(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sess.Cart.ClearCart(r.Context())
		responses.WriteSuccess(w, sess.Cart.Snapshot())
	}
}

func CartSetOpen(sessions SessionResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := currentSession(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload openRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sess.Cart.SetOpen(*payload.Open)
		responses.WriteSuccess(w, sess.Cart.Snapshot())
	}
}
