package controllers

import (
	"net/http"

	"github.com/designcraft/designcraft-backend/api/responses"
	"github.com/designcraft/designcraft-backend/api/validators"
	"github.com/designcraft/designcraft-backend/internal/catalog"
	"github.com/designcraft/designcraft-backend/pkg/enums"
	pkgerrors "github.com/designcraft/designcraft-backend/pkg/errors"
	"github.com/designcraft/designcraft-backend/pkg/logger"
)

type catalogProduct struct {
	catalog.Product
	Dimensions catalog.Dimensions `json:"dimensions"`
}

func withDimensions(p catalog.Product) catalogProduct {
	dims, _ := catalog.LookupDimensions(p.Type)
	return catalogProduct{Product: p, Dimensions: dims}
}

// CatalogProducts lists every product in display order.
func CatalogProducts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products := catalog.Products()
		out := make([]catalogProduct, 0, len(products))
		for _, p := range products {
			out = append(out, withDimensions(p))
		}
		responses.WriteSuccess(w, out)
	}
}

func CatalogProduct(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := validators.PathParam(r, "product")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productType, err := enums.ParseProductType(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product type not found"))
			return
		}
		product, err := catalog.ProductByType(productType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, withDimensions(product))
	}
}

func CatalogVariants(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.PathParam(r, "product")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		variants, err := catalog.Variants(productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, variants)
	}
}
