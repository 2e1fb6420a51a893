package controllers

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/designcraft/designcraft-backend/api/responses"
	"github.com/designcraft/designcraft-backend/api/validators"
	"github.com/designcraft/designcraft-backend/internal/printful"
	pkgerrors "github.com/designcraft/designcraft-backend/pkg/errors"
	"github.com/designcraft/designcraft-backend/pkg/logger"
)

const (
	maxUploadBytes = 32 << 20
	mockupWaitMax  = 30 * time.Second
)

// FulfillmentAPI is the subset of the Printful client exposed over HTTP.
type FulfillmentAPI interface {
	ValidateKey(ctx context.Context, key string) error
	Categories(ctx context.Context) ([]printful.Category, error)
	ProductsInCategory(ctx context.Context, categoryID int) ([]printful.Product, error)
	Product(ctx context.Context, productID int) (*printful.ProductDetails, error)
	Variant(ctx context.Context, variantID int) (*printful.ProductDetails, error)
	PrintFiles(ctx context.Context, productID int) (*printful.PrintFiles, error)
	MockupTask(ctx context.Context, taskKey string) (*printful.MockupTask, error)
	WaitForMockup(ctx context.Context, taskKey string) (*printful.MockupTask, error)
	UploadFile(ctx context.Context, filename string, content io.Reader) (*printful.File, error)
	AddFileByURL(ctx context.Context, fileURL, filename string) (*printful.File, error)
	EstimateOrderCosts(ctx context.Context, order printful.OrderRequest) (*printful.CostEstimate, error)
	Order(ctx context.Context, orderID int64) (*printful.Order, error)
	ConfirmOrder(ctx context.Context, orderID int64) (*printful.Order, error)
	CancelOrder(ctx context.Context, orderID int64) (*printful.Order, error)
	ShippingRates(ctx context.Context, shipping printful.ShippingRequest) ([]printful.ShippingRate, error)
	StoreInfo(ctx context.Context) (*printful.Store, error)
}

type KeyManager interface {
	Status(ctx context.Context) (printful.KeyStatus, error)
	Set(ctx context.Context, key string, validator printful.KeyValidator) error
	Clear(ctx context.Context) error
}

type MockupCreator interface {
	Create(ctx context.Context, req printful.MockupRequest) (*printful.MockupResult, error)
}

type fileURLRequest struct {
	URL      string `json:"url" validate:"required,url"`
	Filename string `json:"filename"`
}

type keyRequest struct {
	APIKey string `json:"apiKey" validate:"required"`
}

func FulfillmentKeyStatus(keys KeyManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if keys == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "key store unavailable"))
			return
		}
		status, err := keys.Status(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, status)
	}
}

// FulfillmentKeySet validates the key against the API before storing it.
func FulfillmentKeySet(keys KeyManager, api FulfillmentAPI, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if keys == nil || api == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "key store unavailable"))
			return
		}
		var payload keyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := keys.Set(r.Context(), payload.APIKey, api); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := keys.Status(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if logg != nil {
			logg.Info(r.Context(), "fulfillment.key.stored")
		}
		responses.WriteSuccess(w, status)
	}
}

func FulfillmentKeyClear(keys KeyManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if keys == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "key store unavailable"))
			return
		}
		if err := keys.Clear(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := keys.Status(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, status)
	}
}

func FulfillmentCategories(api FulfillmentAPI, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if api == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment client unavailable"))
			return
		}
		categories, err := api.Categories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, categories)
	}
}

func FulfillmentCategoryProducts(api FulfillmentAPI, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if api == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment client unavailable"))
			return
		}
		categoryID, err := validators.ParsePathInt(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		products, err := api.ProductsInCategory(r.Context(), categoryID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

func FulfillmentProduct(api FulfillmentAPI, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if api == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment client unavailable"))
			return
		}
		productID, err := validators.ParsePathInt(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := api.Product(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func FulfillmentVariant(api FulfillmentAPI, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if api == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment client unavailable"))
			return
		}
		variantID, err := validators.ParsePathInt(r, "variantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		variant, err := api.Variant(r.Context(), variantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, variant)
	}
}

// FulfillmentCreateMockups answers with a generator task, or with the static
// catalog photo when no key is configured.
func FulfillmentCreateMockups(mockups MockupCreator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if mockups == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "mockup service unavailable"))
			return
		}
		var payload printful.MockupRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := mockups.Create(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := http.StatusOK
		if result.Source == printful.SourcePrintful {
			status = http.StatusAccepted
		}
		responses.WriteSuccessStatus(w, status, result)
	}
}

// FulfillmentMockupTask reports a generator task. With ?wait=true it polls
// until the task settles or the wait limit passes.
func FulfillmentMockupTask(api FulfillmentAPI, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if api == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment client unavailable"))
			return
		}
		taskKey, err := validators.PathParam(r, "taskKey")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var task *printful.MockupTask
		if r.URL.Query().Get("wait") == "true" {
			ctx, cancel := context.WithTimeout(r.Context(), mockupWaitMax)
			defer cancel()
			task, err = api.WaitForMockup(ctx, taskKey)
		} else {
			task, err = api.MockupTask(r.Context(), taskKey)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, task)
	}
}

// FulfillmentUploadFile forwards the multipart "file" field to the file library.
func FulfillmentUploadFile(api FulfillmentAPI, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if api == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment client unavailable"))
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		file, header, err := r.FormFile("file")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "file field is required"))
			return
		}
		defer file.Close()

		uploaded, err := api.UploadFile(r.Context(), filepath.Base(header.Filename), file)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, uploaded)
	}
}

func FulfillmentEstimateOrder(api FulfillmentAPI, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if api == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment client unavailable"))
			return
		}
		var payload printful.OrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		estimate, err := api.EstimateOrderCosts(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, estimate)
	}
}

func FulfillmentShippingRates(api FulfillmentAPI, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if api == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment client unavailable"))
			return
		}
		var payload printful.ShippingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rates, err := api.ShippingRates(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rates)
	}
}

func FulfillmentPrintFiles(api FulfillmentAPI, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if api == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment client unavailable"))
			return
		}
		productID, err := validators.ParsePathInt(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		files, err := api.PrintFiles(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, files)
	}
}

func FulfillmentAddFileByURL(api FulfillmentAPI, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if api == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment client unavailable"))
			return
		}
		var payload fileURLRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		file, err := api.AddFileByURL(r.Context(), payload.URL, payload.Filename)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, file)
	}
}

// FulfillmentOrder covers reading, confirming and cancelling a fulfillment
// order; action selects which call is made.
func FulfillmentOrder(api FulfillmentAPI, action string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if api == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment client unavailable"))
			return
		}
		orderID, err := validators.ParsePathInt(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var order *printful.Order
		switch action {
		case OrderActionGet:
			order, err = api.Order(r.Context(), int64(orderID))
		case OrderActionConfirm:
			order, err = api.ConfirmOrder(r.Context(), int64(orderID))
		case OrderActionCancel:
			order, err = api.CancelOrder(r.Context(), int64(orderID))
		default:
			err = pkgerrors.New(pkgerrors.CodeInternal, "unknown order action")
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if action != OrderActionGet && logg != nil {
			ctx := logg.WithFields(r.Context(), map[string]any{"fulfillment_order_id": orderID, "action": action})
			logg.Info(ctx, "fulfillment.order.updated")
		}
		responses.WriteSuccess(w, order)
	}
}

// Fulfillment order actions.
const (
	OrderActionGet     = "get"
	OrderActionConfirm = "confirm"
	OrderActionCancel  = "cancel"
)

func FulfillmentStore(api FulfillmentAPI, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if api == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment client unavailable"))
			return
		}
		store, err := api.StoreInfo(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store)
	}
}
