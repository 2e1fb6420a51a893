package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/designcraft/designcraft-backend/api/middleware"
	"github.com/designcraft/designcraft-backend/internal/fit"
	"github.com/designcraft/designcraft-backend/internal/orders"
	"github.com/designcraft/designcraft-backend/internal/payment"
	"github.com/designcraft/designcraft-backend/internal/printful"
	"github.com/designcraft/designcraft-backend/internal/session"
	"github.com/designcraft/designcraft-backend/pkg/config"
	pkgerrors "github.com/designcraft/designcraft-backend/pkg/errors"
	"github.com/designcraft/designcraft-backend/pkg/storage"
)

const testSession = "sess-1"

type stubGateway struct {
	mu        sync.Mutex
	createErr error
	creates   int
}

func (g *stubGateway) Init(context.Context) error { return nil }

func (g *stubGateway) CreateSession(_ context.Context, req payment.SessionRequest) (payment.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.creates++
	if g.createErr != nil {
		return payment.Session{}, g.createErr
	}
	return payment.Session{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/pay/cs_test_1"}, nil
}

func (g *stubGateway) Redirect(_ context.Context, s payment.Session) (string, error) {
	return s.URL, nil
}

type harness struct {
	registry *session.Registry
	gateway  *stubGateway
	orders   orders.Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	kv := storage.NewMemory()
	svc, err := orders.NewService(orders.NewRepository(kv), nil)
	require.NoError(t, err)
	gw := &stubGateway{}
	reg, err := session.NewRegistry(session.RegistryParams{KV: kv, Gateway: gw, Orders: svc, ProviderDomain: "stripe.com"})
	require.NoError(t, err)
	return &harness{registry: reg, gateway: gw, orders: svc}
}

func (h *harness) router() http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithSessionID(req.Context(), testSession)))
		})
	})
	r.Get("/cart", CartGet(h.registry, nil))
	r.Post("/cart/items", CartAddItem(h.registry, nil))
	r.Delete("/cart/items/{itemId}", CartRemoveItem(h.registry, nil))
	r.Patch("/cart/items/{itemId}/quantity", CartUpdateQuantity(h.registry, nil))
	r.Put("/cart/items/{itemId}/customization", CartUpdateCustomization(h.registry, nil))
	r.Delete("/cart", CartClear(h.registry, nil))
	r.Put("/cart/open", CartSetOpen(h.registry, nil))
	r.Get("/checkout", CheckoutState(h.registry, nil))
	r.Post("/checkout", CheckoutStart(h.registry, nil))
	r.Post("/checkout/cancel", CheckoutCancel(h.registry, nil))
	r.Post("/checkout/errors", CheckoutReportError(h.registry, nil))
	r.Delete("/checkout/blocked", CheckoutClearBlocked(h.registry, nil))
	return r
}

func do(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, dest))
}

type cartView struct {
	Items []struct {
		ID            string `json:"id"`
		ProductID     string `json:"productId"`
		Name          string `json:"name"`
		Price         string `json:"price"`
		Quantity      int    `json:"quantity"`
		Size          string `json:"size"`
		Color         string `json:"color"`
		Customization *struct {
			Zoom float64 `json:"zoom"`
		} `json:"customization"`
	} `json:"items"`
	TotalItems int    `json:"totalItems"`
	TotalPrice string `json:"totalPrice"`
	Open       bool   `json:"isOpen"`
	Status     string `json:"checkoutStatus"`
}

const shirtBody = `{"productId":"tshirt-001","variantId":102,"image":"https://cdn.example.com/d.png"}`

func TestHealth(t *testing.T) {
	cfg := &config.Config{}
	rec := do(t, HealthLive(cfg), http.MethodGet, "/health/live", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, HealthReady(cfg, pingFunc(func(context.Context) error { return nil }), nil), http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, HealthReady(cfg, pingFunc(func(context.Context) error { return errors.New("redis down") }), nil), http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestCatalogRoutes(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/products", CatalogProducts())
	r.Get("/products/{product}", CatalogProduct(nil))
	r.Get("/products/{product}/variants", CatalogVariants(nil))

	rec := do(t, r, http.MethodGet, "/products", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []struct {
		ID         string `json:"id"`
		Dimensions struct {
			Width int `json:"width"`
		} `json:"dimensions"`
	}
	decodeData(t, rec, &list)
	require.Len(t, list, 4)
	assert.Equal(t, "tshirt-001", list[0].ID)
	assert.Equal(t, 1800, list[0].Dimensions.Width)

	rec = do(t, r, http.MethodGet, "/products/mug", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, r, http.MethodGet, "/products/sticker", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, r, http.MethodGet, "/products/poster-001/variants", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var variants []struct {
		ID int `json:"id"`
	}
	decodeData(t, rec, &variants)
	assert.Len(t, variants, 3)
}

func TestDesignFit(t *testing.T) {
	rec := do(t, DesignFit(nil), http.MethodPost, "/designs/fit", `{"width":1800,"height":2400,"productType":"tshirt"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var report fit.Report
	decodeData(t, rec, &report)
	assert.Equal(t, "good", report.Verdict.String())

	rec = do(t, DesignFit(nil), http.MethodPost, "/designs/fit", `{"width":1800,"height":2400,"productType":"sticker"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &report)
	assert.Equal(t, "error", report.Verdict.String())

	rec = do(t, DesignFit(nil), http.MethodPost, "/designs/fit", `{"width":0,"height":2400,"productType":"tshirt"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDesignFix(t *testing.T) {
	handler := DesignFix(fit.NewDelayFixer(0, nil), nil)
	rec := do(t, handler, http.MethodPost, "/designs/fix", `{"imageUrl":"https://cdn.example.com/d.png","productType":"mug"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string]string
	decodeData(t, rec, &out)
	assert.Equal(t, "https://cdn.example.com/d.png", out["imageUrl"])

	rec = do(t, DesignFix(nil, nil), http.MethodPost, "/designs/fix", `{}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCartFlow(t *testing.T) {
	h := newHarness(t)
	r := h.router()

	rec := do(t, r, http.MethodPost, "/cart/items", shirtBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = do(t, r, http.MethodPost, "/cart/items", shirtBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	var view cartView
	decodeData(t, do(t, r, http.MethodGet, "/cart", ""), &view)
	require.Len(t, view.Items, 1)
	item := view.Items[0]
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, "Premium T-Shirt", item.Name)
	assert.Equal(t, "24.99", item.Price)
	assert.Equal(t, "M", item.Size)
	assert.Equal(t, "Black", item.Color)
	assert.Equal(t, "49.98", view.TotalPrice)
	assert.True(t, view.Open)

	rec = do(t, r, http.MethodPut, "/cart/items/"+item.ID+"/customization", `{"customization":{"position":{"x":1,"y":2},"rotation":0,"zoom":1.5}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &view)
	require.NotNil(t, view.Items[0].Customization)
	assert.Equal(t, 1.5, view.Items[0].Customization.Zoom)

	rec = do(t, r, http.MethodPatch, "/cart/items/"+item.ID+"/quantity", `{"quantity":5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &view)
	assert.Equal(t, 5, view.TotalItems)

	rec = do(t, r, http.MethodPatch, "/cart/items/"+item.ID+"/quantity", `{"quantity":0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &view)
	assert.Empty(t, view.Items)

	rec = do(t, r, http.MethodPut, "/cart/open", `{"isOpen":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &view)
	assert.False(t, view.Open)
}

func TestCartRejectsBadInput(t *testing.T) {
	r := newHarness(t).router()

	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodPost, "/cart/items", `{"productId":"tshirt-001","variantId":999,"image":"x"}`).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodPost, "/cart/items", `{"productId":"sticker-001","variantId":1,"image":"x"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodPost, "/cart/items", `{"productId":"tshirt-001","image":"x"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodPost, "/cart/items", `{"productId":"tshirt-001","variantId":102,"image":"x","price":"0.01"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodPatch, "/cart/items/x/quantity", `{}`).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodPut, "/cart/items/missing/customization", `{"customization":null}`).Code)
}

func TestCartAddItemRequiresExactProductID(t *testing.T) {
	r := newHarness(t).router()

	for _, id := range []string{"tshirt-bogus", "TSHIRT-001", "tshirt"} {
		body := `{"productId":"` + id + `","variantId":102,"image":"https://cdn.example.com/d.png"}`
		assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodPost, "/cart/items", body).Code, id)
	}
	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/cart/items", shirtBody).Code)
	}

	var view cartView
	decodeData(t, do(t, r, http.MethodGet, "/cart", ""), &view)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "tshirt-001", view.Items[0].ProductID)
	assert.Equal(t, 3, view.Items[0].Quantity)
	assert.Equal(t, 3, view.TotalItems)
}

func TestCartRemoveAndClear(t *testing.T) {
	r := newHarness(t).router()
	do(t, r, http.MethodPost, "/cart/items", shirtBody)
	do(t, r, http.MethodPost, "/cart/items", `{"productId":"mug-001","variantId":201,"image":"https://cdn.example.com/m.png"}`)

	var view cartView
	decodeData(t, do(t, r, http.MethodGet, "/cart", ""), &view)
	require.Len(t, view.Items, 2)

	rec := do(t, r, http.MethodDelete, "/cart/items/"+view.Items[0].ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &view)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "14.99", view.TotalPrice)

	rec = do(t, r, http.MethodDelete, "/cart", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &view)
	assert.Empty(t, view.Items)
}

func TestCartWithoutSession(t *testing.T) {
	h := newHarness(t)
	rec := do(t, CartGet(h.registry, nil), http.MethodGet, "/cart", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, CartGet(nil, nil), http.MethodGet, "/cart", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCheckoutFlow(t *testing.T) {
	h := newHarness(t)
	r := h.router()

	rec := do(t, r, http.MethodPost, "/checkout", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Your cart is empty")

	do(t, r, http.MethodPost, "/cart/items", shirtBody)
	rec = do(t, r, http.MethodPost, "/checkout", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var result struct {
		Status      string `json:"status"`
		OrderID     string `json:"orderId"`
		RedirectURL string `json:"redirectUrl"`
	}
	decodeData(t, rec, &result)
	assert.Equal(t, "success", result.Status)
	assert.Equal(t, "cs_test_1", result.OrderID)
	assert.Contains(t, result.RedirectURL, "checkout.stripe.com")

	order, err := h.orders.Get(context.Background(), "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, testSession, order.CartSessionID)

	var view cartView
	decodeData(t, do(t, r, http.MethodGet, "/cart", ""), &view)
	assert.Empty(t, view.Items)

	rec = do(t, r, http.MethodPost, "/checkout/cancel", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var state struct {
		Status      string `json:"status"`
		LastOrderID string `json:"lastOrderId"`
	}
	decodeData(t, rec, &state)
	assert.Equal(t, "idle", state.Status)
	assert.Equal(t, "cs_test_1", state.LastOrderID)
}

func TestCheckoutBlockedLatch(t *testing.T) {
	h := newHarness(t)
	h.gateway.createErr = errors.New("Failed to fetch: net::ERR_BLOCKED_BY_CLIENT")
	r := h.router()

	do(t, r, http.MethodPost, "/cart/items", shirtBody)
	rec := do(t, r, http.MethodPost, "/checkout", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "ad blocker")

	var state struct {
		Status  string `json:"status"`
		Blocked bool   `json:"blocked"`
	}
	decodeData(t, do(t, r, http.MethodGet, "/checkout", ""), &state)
	assert.True(t, state.Blocked)
	assert.Equal(t, "error", state.Status)

	do(t, r, http.MethodPost, "/checkout", "")
	assert.Equal(t, 1, h.gateway.creates)

	rec = do(t, r, http.MethodDelete, "/checkout/blocked", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &state)
	assert.False(t, state.Blocked)
}

func TestCheckoutReportError(t *testing.T) {
	r := newHarness(t).router()

	rec := do(t, r, http.MethodPost, "/checkout/errors", `{"message":"Failed to fetch https://js.stripe.com/v3"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Latched bool `json:"latched"`
	}
	decodeData(t, rec, &out)
	assert.True(t, out.Latched)

	rec = do(t, r, http.MethodPost, "/checkout/errors", `{"message":"undefined is not a function"}`)
	decodeData(t, rec, &out)
	assert.False(t, out.Latched)

	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodPost, "/checkout/errors", `{}`).Code)
}

type fakeFulfillment struct {
	validateErr error
	uploaded    string
	uploadBody  string
	waited      bool
}

func (f *fakeFulfillment) ValidateKey(context.Context, string) error { return f.validateErr }

func (f *fakeFulfillment) Categories(context.Context) ([]printful.Category, error) {
	return []printful.Category{{ID: 24, Title: "T-Shirts"}}, nil
}

func (f *fakeFulfillment) ProductsInCategory(_ context.Context, id int) ([]printful.Product, error) {
	return []printful.Product{{ID: 71, MainCategory: id, Title: "Unisex Staple T-Shirt"}}, nil
}

func (f *fakeFulfillment) Product(_ context.Context, id int) (*printful.ProductDetails, error) {
	return &printful.ProductDetails{Product: printful.Product{ID: id}}, nil
}

func (f *fakeFulfillment) Variant(_ context.Context, id int) (*printful.ProductDetails, error) {
	return &printful.ProductDetails{Variant: &printful.Variant{ID: id}}, nil
}

func (f *fakeFulfillment) MockupTask(_ context.Context, key string) (*printful.MockupTask, error) {
	if key == "missing" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "task not found")
	}
	return &printful.MockupTask{TaskKey: key, Status: "completed"}, nil
}

func (f *fakeFulfillment) UploadFile(_ context.Context, name string, content io.Reader) (*printful.File, error) {
	raw, err := io.ReadAll(content)
	if err != nil {
		return nil, err
	}
	f.uploaded = name
	f.uploadBody = string(raw)
	return &printful.File{ID: 7, Filename: name}, nil
}

func (f *fakeFulfillment) PrintFiles(_ context.Context, id int) (*printful.PrintFiles, error) {
	return &printful.PrintFiles{ProductID: id}, nil
}

func (f *fakeFulfillment) WaitForMockup(_ context.Context, key string) (*printful.MockupTask, error) {
	f.waited = true
	return &printful.MockupTask{TaskKey: key, Status: "completed"}, nil
}

func (f *fakeFulfillment) AddFileByURL(_ context.Context, fileURL, name string) (*printful.File, error) {
	return &printful.File{ID: 8, URL: fileURL, Filename: name}, nil
}

func (f *fakeFulfillment) Order(_ context.Context, id int64) (*printful.Order, error) {
	return &printful.Order{ID: id, Status: "draft"}, nil
}

func (f *fakeFulfillment) ConfirmOrder(_ context.Context, id int64) (*printful.Order, error) {
	return &printful.Order{ID: id, Status: "pending"}, nil
}

func (f *fakeFulfillment) CancelOrder(_ context.Context, id int64) (*printful.Order, error) {
	return &printful.Order{ID: id, Status: "canceled"}, nil
}

func (f *fakeFulfillment) StoreInfo(context.Context) (*printful.Store, error) {
	return &printful.Store{ID: 1, Name: "DesignCraft"}, nil
}

func (f *fakeFulfillment) EstimateOrderCosts(context.Context, printful.OrderRequest) (*printful.CostEstimate, error) {
	return &printful.CostEstimate{}, nil
}

func (f *fakeFulfillment) ShippingRates(context.Context, printful.ShippingRequest) ([]printful.ShippingRate, error) {
	return []printful.ShippingRate{{ID: "STANDARD", Currency: "USD"}}, nil
}

func TestFulfillmentKey(t *testing.T) {
	keys, err := printful.NewKeyStore(storage.NewMemory(), "")
	require.NoError(t, err)
	api := &fakeFulfillment{}

	rec := do(t, FulfillmentKeyStatus(keys, nil), http.MethodGet, "/key", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var status printful.KeyStatus
	decodeData(t, rec, &status)
	assert.False(t, status.Configured)

	rec = do(t, FulfillmentKeySet(keys, api, nil), http.MethodPut, "/key", `{"apiKey":"  pf_live_abcdef  "}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeData(t, rec, &status)
	assert.True(t, status.Configured)
	assert.Equal(t, printful.SourceStored, status.Source)
	assert.Equal(t, "pf_li...", status.Preview)
	assert.NotContains(t, rec.Body.String(), "abcdef")

	api.validateErr = pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid printful api key")
	rec = do(t, FulfillmentKeySet(keys, api, nil), http.MethodPut, "/key", `{"apiKey":"bad"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	stored, err := keys.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pf_live_abcdef", stored)

	rec = do(t, FulfillmentKeyClear(keys, nil), http.MethodDelete, "/key", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &status)
	assert.False(t, status.Configured)
}

func TestFulfillmentCatalogProxy(t *testing.T) {
	api := &fakeFulfillment{}
	r := chi.NewRouter()
	r.Get("/categories", FulfillmentCategories(api, nil))
	r.Get("/categories/{categoryId}/products", FulfillmentCategoryProducts(api, nil))
	r.Get("/products/{productId}", FulfillmentProduct(api, nil))
	r.Get("/variants/{variantId}", FulfillmentVariant(api, nil))
	r.Get("/mockups/{taskKey}", FulfillmentMockupTask(api, nil))
	r.Post("/shipping-rates", FulfillmentShippingRates(api, nil))
	r.Post("/orders/estimate", FulfillmentEstimateOrder(api, nil))
	r.Get("/store", FulfillmentStore(api, nil))
	r.Get("/products/{productId}/print-files", FulfillmentPrintFiles(api, nil))
	r.Post("/files/url", FulfillmentAddFileByURL(api, nil))
	r.Get("/orders/{orderId}", FulfillmentOrder(api, OrderActionGet, nil))
	r.Post("/orders/{orderId}/confirm", FulfillmentOrder(api, OrderActionConfirm, nil))
	r.Delete("/orders/{orderId}", FulfillmentOrder(api, OrderActionCancel, nil))

	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/categories", "").Code)

	rec := do(t, r, http.MethodGet, "/categories/24/products", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var products []printful.Product
	decodeData(t, rec, &products)
	assert.Equal(t, 24, products[0].MainCategory)

	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodGet, "/categories/abc/products", "").Code)
	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/products/71", "").Code)
	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/variants/4012", "").Code)
	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/mockups/abc123", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/mockups/missing", "").Code)
	assert.False(t, api.waited)
	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/mockups/abc123?wait=true", "").Code)
	assert.True(t, api.waited)

	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/store", "").Code)
	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/products/71/print-files", "").Code)
	assert.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/files/url", `{"url":"https://cdn.example.com/d.png","filename":"d.png"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodPost, "/files/url", `{"url":"not a url"}`).Code)

	var order printful.Order
	rec = do(t, r, http.MethodPost, "/orders/12/confirm", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &order)
	assert.Equal(t, "pending", order.Status)
	rec = do(t, r, http.MethodDelete, "/orders/12", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &order)
	assert.Equal(t, "canceled", order.Status)
	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/orders/12", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodGet, "/orders/0", "").Code)

	rates := `{"recipient":{"name":"Jane","address1":"1 High St","city":"London","country_code":"GB","zip":"N1"},"items":[{"variant_id":4012,"quantity":1}]}`
	assert.Equal(t, http.StatusOK, do(t, r, http.MethodPost, "/shipping-rates", rates).Code)
	assert.Equal(t, http.StatusOK, do(t, r, http.MethodPost, "/orders/estimate", rates).Code)

	assert.Equal(t, http.StatusInternalServerError, do(t, FulfillmentCategories(nil, nil), http.MethodGet, "/categories", "").Code)
}

func TestFulfillmentMockupsFallBackToStatic(t *testing.T) {
	keys, err := printful.NewKeyStore(storage.NewMemory(), "")
	require.NoError(t, err)
	mockups, err := printful.NewMockups(&noMockupClient{}, keys)
	require.NoError(t, err)

	rec := do(t, FulfillmentCreateMockups(mockups, nil), http.MethodPost, "/mockups", `{"productId":"mug-001","imageUrl":"https://cdn.example.com/d.png"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result printful.MockupResult
	decodeData(t, rec, &result)
	assert.Equal(t, printful.SourceStatic, result.Source)
	require.Len(t, result.Mockups, 1)
	assert.Equal(t, "https://cdn.example.com/d.png", result.Mockups[0].PreviewURL)
}

type noMockupClient struct{}

func (noMockupClient) CreateMockupTask(context.Context, int, printful.MockupTaskRequest) (*printful.MockupTask, error) {
	return nil, errors.New("unexpected call")
}

func TestFulfillmentUploadFile(t *testing.T) {
	api := &fakeFulfillment{}
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "../design.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/files", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	FulfillmentUploadFile(api, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "design.png", api.uploaded)
	assert.Equal(t, "png-bytes", api.uploadBody)

	rec = do(t, FulfillmentUploadFile(api, nil), http.MethodPost, "/files", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
