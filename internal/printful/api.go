package printful

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/designcraft/designcraft-backend/pkg/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

func validatePayload(payload any) error {
	if err := validate.Struct(payload); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			details := map[string]string{}
			for _, fe := range errs {
				details[fe.Namespace()] = fe.Tag()
			}
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid printful payload").WithDetails(details)
		}
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid printful payload")
	}
	return nil
}

func positiveID(name string, id int64) error {
	if id <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, name+" must be positive")
	}
	return nil
}

func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	var out struct {
		Categories []Category `json:"categories"`
	}
	req := request{endpoint: "categories", method: http.MethodGet, path: "/categories"}
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return out.Categories, nil
}

func (c *Client) ProductsInCategory(ctx context.Context, categoryID int) ([]Product, error) {
	if err := positiveID("category id", int64(categoryID)); err != nil {
		return nil, err
	}
	req := request{
		endpoint: "products",
		method:   http.MethodGet,
		path:     "/products",
		query:    url.Values{"category_id": {strconv.Itoa(categoryID)}},
	}
	var out []Product
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Product returns a catalog product with all of its variants.
func (c *Client) Product(ctx context.Context, productID int) (*ProductDetails, error) {
	if err := positiveID("product id", int64(productID)); err != nil {
		return nil, err
	}
	req := request{endpoint: "product", method: http.MethodGet, path: fmt.Sprintf("/products/%d", productID)}
	var out ProductDetails
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Variant(ctx context.Context, variantID int) (*ProductDetails, error) {
	if err := positiveID("variant id", int64(variantID)); err != nil {
		return nil, err
	}
	req := request{endpoint: "variant", method: http.MethodGet, path: fmt.Sprintf("/products/variant/%d", variantID)}
	var out ProductDetails
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PrintFiles(ctx context.Context, productID int) (*PrintFiles, error) {
	if err := positiveID("product id", int64(productID)); err != nil {
		return nil, err
	}
	req := request{endpoint: "printfiles", method: http.MethodGet, path: fmt.Sprintf("/mockup-generator/printfiles/%d", productID)}
	var out PrintFiles
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateMockupTask queues mockup generation for a product.
func (c *Client) CreateMockupTask(ctx context.Context, productID int, task MockupTaskRequest) (*MockupTask, error) {
	if err := positiveID("product id", int64(productID)); err != nil {
		return nil, err
	}
	if task.Format == "" {
		task.Format = "jpg"
	}
	if err := validatePayload(task); err != nil {
		return nil, err
	}
	req, err := jsonRequest("mockup_create", http.MethodPost, fmt.Sprintf("/mockup-generator/create-task/%d", productID), task)
	if err != nil {
		return nil, err
	}
	var out MockupTask
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MockupTask(ctx context.Context, taskKey string) (*MockupTask, error) {
	taskKey = strings.TrimSpace(taskKey)
	if taskKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "task key is required")
	}
	req := request{
		endpoint: "mockup_task",
		method:   http.MethodGet,
		path:     "/mockup-generator/task",
		query:    url.Values{"task_key": {taskKey}},
	}
	var out MockupTask
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// WaitForMockup polls a mockup task until it completes, fails or ctx ends.
func (c *Client) WaitForMockup(ctx context.Context, taskKey string) (*MockupTask, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		task, err := c.MockupTask(ctx, taskKey)
		if err != nil {
			return nil, err
		}
		switch task.Status {
		case TaskCompleted:
			return task, nil
		case TaskFailed:
			msg := task.Error
			if msg == "" {
				msg = "mockup generation failed"
			}
			return task, pkgerrors.New(pkgerrors.CodeDependency, msg).WithDetails(map[string]any{"task_key": taskKey})
		}
		select {
		case <-ctx.Done():
			return task, pkgerrors.Wrap(pkgerrors.CodeDependency, ctx.Err(), "mockup generation still pending")
		case <-ticker.C:
		}
	}
}

// UploadFile sends a design to the file library as multipart form data.
func (c *Client) UploadFile(ctx context.Context, filename string, content io.Reader) (*File, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" || content == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file name and content are required")
	}
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build upload form")
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read upload content")
	}
	if err := writer.Close(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "finish upload form")
	}

	req := request{
		endpoint:    "files_upload",
		method:      http.MethodPost,
		path:        "/files",
		body:        buf.Bytes(),
		contentType: writer.FormDataContentType(),
	}
	var out File
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddFileByURL registers a remotely hosted design in the file library.
func (c *Client) AddFileByURL(ctx context.Context, fileURL, filename string) (*File, error) {
	parsed, err := url.Parse(strings.TrimSpace(fileURL))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file url must be absolute")
	}
	payload := File{URL: parsed.String(), Filename: strings.TrimSpace(filename)}
	req, err := jsonRequest("files_add", http.MethodPost, "/files", payload)
	if err != nil {
		return nil, err
	}
	var out File
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EstimateOrderCosts prices an order without creating it.
func (c *Client) EstimateOrderCosts(ctx context.Context, order OrderRequest) (*CostEstimate, error) {
	if err := validatePayload(order); err != nil {
		return nil, err
	}
	req, err := jsonRequest("orders_estimate", http.MethodPost, "/orders/estimate-costs", order)
	if err != nil {
		return nil, err
	}
	var out CostEstimate
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateOrder creates a draft order; it is not fulfilled until confirmed.
func (c *Client) CreateOrder(ctx context.Context, order OrderRequest) (*Order, error) {
	if err := validatePayload(order); err != nil {
		return nil, err
	}
	req, err := jsonRequest("orders_create", http.MethodPost, "/orders", order)
	if err != nil {
		return nil, err
	}
	var out Order
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Order(ctx context.Context, orderID int64) (*Order, error) {
	if err := positiveID("order id", orderID); err != nil {
		return nil, err
	}
	req := request{endpoint: "orders_get", method: http.MethodGet, path: fmt.Sprintf("/orders/%d", orderID)}
	var out Order
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ConfirmOrder(ctx context.Context, orderID int64) (*Order, error) {
	if err := positiveID("order id", orderID); err != nil {
		return nil, err
	}
	req := request{endpoint: "orders_confirm", method: http.MethodPost, path: fmt.Sprintf("/orders/%d/confirm", orderID)}
	var out Order
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CancelOrder(ctx context.Context, orderID int64) (*Order, error) {
	if err := positiveID("order id", orderID); err != nil {
		return nil, err
	}
	req := request{endpoint: "orders_cancel", method: http.MethodDelete, path: fmt.Sprintf("/orders/%d", orderID)}
	var out Order
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ShippingRates(ctx context.Context, shipping ShippingRequest) ([]ShippingRate, error) {
	if err := validatePayload(shipping); err != nil {
		return nil, err
	}
	req, err := jsonRequest("shipping_rates", http.MethodPost, "/shipping/rates", shipping)
	if err != nil {
		return nil, err
	}
	var out []ShippingRate
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) StoreInfo(ctx context.Context) (*Store, error) {
	req := request{endpoint: "store", method: http.MethodGet, path: "/store"}
	var out Store
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ValidateKey checks a candidate key against a lightweight endpoint without
// touching the stored key.
func (c *Client) ValidateKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "api key is required")
	}
	req := request{endpoint: "countries", method: http.MethodGet, path: "/countries", apiKey: key}
	return c.do(ctx, req, nil)
}
