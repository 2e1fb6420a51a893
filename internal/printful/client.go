package printful

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/sony/gobreaker/v2"

	"github.com/designcraft/designcraft-backend/pkg/config"
	pkgerrors "github.com/designcraft/designcraft-backend/pkg/errors"
	"github.com/designcraft/designcraft-backend/pkg/logger"
	"github.com/designcraft/designcraft-backend/pkg/metrics"
)

const maxResponseBytes = 10 << 20

// KeySource resolves the bearer credential for each request.
type KeySource interface {
	Get(ctx context.Context) (string, error)
}

type ClientParams struct {
	Config     config.PrintfulConfig
	Keys       KeySource
	HTTPClient *http.Client
	Metrics    *metrics.ClientMetrics
	Logger     *logger.Logger
}

// Client talks to the Printful REST API. Transient failures (network errors,
// 429 and 5xx) are retried with a linearly growing delay; a circuit breaker
// stops calling the API after repeated transient failures.
type Client struct {
	baseURL      string
	keys         KeySource
	http         *http.Client
	maxAttempts  int
	retryDelay   time.Duration
	pollInterval time.Duration
	breaker      *gobreaker.CircuitBreaker[[]byte]
	metrics      *metrics.ClientMetrics
	logg         *logger.Logger
}

func NewClient(params ClientParams) (*Client, error) {
	if params.Keys == nil {
		return nil, errors.New("printful key source required")
	}
	base := strings.TrimRight(strings.TrimSpace(params.Config.BaseURL), "/")
	if base == "" {
		return nil, errors.New("printful base url required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parse printful base url: %w", err)
	}

	httpClient := params.HTTPClient
	if httpClient == nil {
		timeout := params.Config.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	attempts := params.Config.MaxRetries
	if attempts < 1 {
		attempts = 1
	}
	poll := params.Config.MockupPollInterval
	if poll <= 0 {
		poll = 2 * time.Second
	}
	failures := params.Config.BreakerFailures
	if failures == 0 {
		failures = 5
	}

	c := &Client{
		baseURL:      base,
		keys:         params.Keys,
		http:         httpClient,
		maxAttempts:  attempts,
		retryDelay:   params.Config.RetryDelay,
		pollInterval: poll,
		metrics:      params.Metrics,
		logg:         params.Logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "printful",
		Timeout: params.Config.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !transient(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if c.logg == nil {
				return
			}
			ctx := c.logg.WithFields(context.Background(), map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			c.logg.Warn(ctx, "printful.breaker.state_changed")
		},
	})
	return c, nil
}

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Reason  string
	Message string
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("printful api error %d (%s): %s", e.Status, e.Reason, e.Message)
	}
	return fmt.Sprintf("printful api error %d: %s", e.Status, e.Message)
}

type envelope struct {
	Code   int             `json:"code"`
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Reason  string `json:"reason"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type request struct {
	endpoint    string
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
	apiKey      string
}

func jsonRequest(endpoint, method, path string, payload any) (request, error) {
	req := request{endpoint: endpoint, method: method, path: path}
	if payload == nil {
		return req, nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return request{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode printful request")
	}
	req.body = body
	req.contentType = "application/json"
	return req, nil
}

func (c *Client) do(ctx context.Context, req request, out any) error {
	key := req.apiKey
	if key == "" {
		var err error
		key, err = c.keys.Get(ctx)
		if err != nil {
			return keyError(err)
		}
	}

	start := time.Now()
	attempt := 0
	var payload []byte
	err := retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			c.metrics.IncRetry(req.endpoint)
		}
		result, err := c.breaker.Execute(func() ([]byte, error) {
			return c.roundTrip(ctx, key, req)
		})
		if err != nil {
			if transient(err) {
				c.warnRetry(ctx, req, attempt, err)
				return retry.RetryableError(err)
			}
			return err
		}
		payload = result
		return nil
	})
	c.metrics.ObserveDuration(req.endpoint, time.Since(start))
	if err != nil {
		c.metrics.IncFailure(req.endpoint)
		return translate(req.endpoint, err)
	}

	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode printful %s response", req.endpoint))
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, key string, req request) ([]byte, error) {
	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}
	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+key)
	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, apiError(resp.StatusCode, env, decodeErr)
	}
	if decodeErr != nil {
		return nil, &APIError{Status: resp.StatusCode, Message: "malformed response body"}
	}
	return env.Result, nil
}

func apiError(status int, env envelope, decodeErr error) *APIError {
	apiErr := &APIError{Status: status}
	if decodeErr == nil {
		if env.Error != nil {
			apiErr.Reason = env.Error.Reason
			apiErr.Message = env.Error.Message
		}
		if apiErr.Message == "" {
			var text string
			if json.Unmarshal(env.Result, &text) == nil {
				apiErr.Message = text
			}
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

// backoff waits retryDelay×attempt between attempts.
func (c *Client) backoff() retry.Backoff {
	var n time.Duration
	linear := retry.BackoffFunc(func() (time.Duration, bool) {
		n++
		return c.retryDelay * n, false
	})
	return retry.WithMaxRetries(uint64(c.maxAttempts-1), linear)
}

func (c *Client) warnRetry(ctx context.Context, req request, attempt int, err error) {
	if c.logg == nil || attempt >= c.maxAttempts {
		return
	}
	ctx = c.logg.WithFields(ctx, map[string]any{
		"endpoint": req.endpoint,
		"attempt":  attempt,
		"error":    err.Error(),
	})
	c.logg.Warn(ctx, "printful.request.retry")
}

// transient reports whether err is worth retrying: network failures, rate
// limiting and server errors. Client errors and an open breaker are final.
func transient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusTooManyRequests || apiErr.Status >= http.StatusInternalServerError
	}
	return true
}

func translate(endpoint string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "printful api temporarily unavailable")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("printful %s request failed", endpoint))
	}
	switch {
	case apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden:
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, apiErr, "printful api key rejected")
	case apiErr.Status == http.StatusNotFound:
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, apiErr, apiErr.Message)
	case apiErr.Status == http.StatusTooManyRequests:
		return pkgerrors.Wrap(pkgerrors.CodeRateLimit, apiErr, "printful rate limit exceeded")
	case apiErr.Status < http.StatusInternalServerError:
		return pkgerrors.Wrap(pkgerrors.CodeValidation, apiErr, "printful rejected the request").
			WithDetails(map[string]any{"reason": apiErr.Reason, "message": apiErr.Message})
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, apiErr, fmt.Sprintf("printful %s request failed", endpoint)).
			WithDetails(map[string]any{"status": apiErr.Status})
	}
}

func keyError(err error) error {
	if errors.Is(err, ErrNoAPIKey) {
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "printful api key not configured")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load printful api key")
}
