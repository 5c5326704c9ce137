// Package remote is the HTTP client for the storefront API: authentication,
// the product catalog, order history, order tracking and order submission.
//
// Every call runs through a circuit breaker. Reads and idempotency-keyed order
// submissions are retried on transport failures only.
package remote

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

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"github.com/storefront-labs/storefront/internal/cart"
	"github.com/storefront-labs/storefront/internal/config"
	sferrors "github.com/storefront-labs/storefront/internal/errors"
	"github.com/storefront-labs/storefront/pkg/api"
	"github.com/storefront-labs/storefront/pkg/models"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 4 << 20

// Options configures a Client.
type Options struct {
	Timeout     time.Duration
	Retry       RetryConfig
	MaxFailures uint32
	OpenTimeout time.Duration

	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
}

// OptionsFromConfig builds client options from the remote config section.
func OptionsFromConfig(cfg config.RemoteConfig) Options {
	retry := DefaultRetryConfig()
	retry.MaxAttempts = cfg.Retry.MaxAttempts
	if cfg.Retry.InitialDelay > 0 {
		retry.InitialDelay = cfg.Retry.InitialDelay
	}
	return Options{
		Timeout:     cfg.Timeout,
		Retry:       retry,
		MaxFailures: cfg.Breaker.MaxFailures,
		OpenTimeout: cfg.Breaker.OpenTimeout,
	}
}

// Client talks to the storefront API.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
	retry      RetryConfig
	breaker    *gobreaker.CircuitBreaker[struct{}]
}

// NewClient creates a client for endpoint. token may be empty for login and
// registration.
func NewClient(endpoint, token string, opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	maxFailures := opts.MaxFailures
	if maxFailures == 0 {
		maxFailures = 3
	}

	c := &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		token:      token,
		httpClient: httpClient,
		retry:      opts.Retry,
	}
	c.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "storefront-api",
		MaxRequests: 1,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: countsAsSuccess,
	})
	return c
}

// Endpoint returns the configured API endpoint.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Token returns the configured bearer token.
func (c *Client) Token() string {
	return c.token
}

// BreakerState reports the circuit breaker state.
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp models.LoginResponse
	err := c.call(ctx, request{
		method: http.MethodPost,
		path:   api.EndpointLogin,
		body:   models.LoginRequest{Email: email, Password: password},
	}, &resp)
	if err != nil {
		return "", c.authError("login", err)
	}
	if resp.Token == "" {
		return "", sferrors.NewAuthFailed("login", "server returned no token")
	}
	return resp.Token, nil
}

// Register creates a customer account.
func (c *Client) Register(ctx context.Context, fullName, email, password string) error {
	err := c.call(ctx, request{
		method: http.MethodPost,
		path:   api.EndpointRegister,
		body:   models.RegisterRequest{FullName: fullName, Email: email, Password: password},
	}, nil)
	if err != nil {
		return c.authError("registration", err)
	}
	return nil
}

// ListProducts returns the product catalog.
func (c *Client) ListProducts(ctx context.Context) ([]cart.Product, error) {
	var resp struct {
		Products []cart.Product `json:"products"`
	}
	if err := c.get(ctx, api.EndpointProducts, &resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

// ListOrders returns the customer's server-confirmed orders.
func (c *Client) ListOrders(ctx context.Context, customerID string) ([]models.OrderRecord, error) {
	if customerID == "" {
		return nil, sferrors.NewInvalidInput("customer_id", "cannot be empty")
	}
	var resp models.OrdersResponse
	if err := c.get(ctx, api.OrdersPath(url.PathEscape(customerID)), &resp); err != nil {
		return nil, err
	}
	return resp.Orders, nil
}

// GetTracking returns the tracking record for an order. A record with an empty
// Status means the API has no tracking data for the order.
func (c *Client) GetTracking(ctx context.Context, orderID string) (*models.TrackingRecord, error) {
	if orderID == "" {
		return nil, sferrors.NewInvalidInput("order_id", "cannot be empty")
	}
	var rec models.TrackingRecord
	err := c.get(ctx, api.TrackingPath(url.PathEscape(orderID)), &rec)
	var se *sferrors.ErrRemoteUnavailable
	if errors.As(err, &se) && se.Status == http.StatusNotFound {
		return &models.TrackingRecord{OrderID: models.ID(orderID)}, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// SubmitOrder records a confirmed order. The idempotency key makes resubmission
// safe, so transport failures are retried like reads.
func (c *Client) SubmitOrder(ctx context.Context, order models.SubmitOrderRequest, idempotencyKey string) (*models.SubmitOrderResponse, error) {
	req := request{
		method: http.MethodPost,
		path:   api.EndpointOrders,
		body:   order,
		auth:   true,
	}
	if idempotencyKey != "" {
		req.headers = map[string]string{api.HeaderIdempotencyKey: idempotencyKey}
	}

	var resp models.SubmitOrderResponse
	if err := c.withRetry(ctx, func() error { return c.call(ctx, req, &resp) }); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CheckHealth verifies API connectivity.
func (c *Client) CheckHealth(ctx context.Context) (bool, error) {
	err := c.call(ctx, request{method: http.MethodGet, path: api.EndpointHealth}, nil)
	if err != nil {
		return false, err
	}
	return true, nil
}

type request struct {
	method  string
	path    string
	body    interface{}
	auth    bool
	headers map[string]string
}

// statusError is a non-2xx response before it is classified.
type statusError struct {
	code    int
	message string
}

func (e *statusError) Error() string {
	if e.message == "" {
		return fmt.Sprintf("server returned %d", e.code)
	}
	return fmt.Sprintf("server returned %d: %s", e.code, e.message)
}

// transportError is a failure to get any response at all.
type transportError struct {
	err error
}

func (e *transportError) Error() string { return e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req := request{method: http.MethodGet, path: path, auth: true}
	return c.withRetry(ctx, func() error { return c.call(ctx, req, out) })
}

func (c *Client) withRetry(ctx context.Context, fn func() error) error {
	result := ExecuteWithRetry(ctx, c.retry, fn)
	if result.Success {
		return nil
	}
	return result.LastError
}

// call performs one request through the breaker and classifies the outcome.
func (c *Client) call(ctx context.Context, r request, out interface{}) error {
	if c.endpoint == "" {
		return sferrors.NewRemoteUnavailable("", "no API endpoint configured")
	}
	if r.auth && c.token == "" {
		return sferrors.NewAuthRequired("no token stored")
	}

	_, err := c.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, c.roundTrip(ctx, r, out)
	})
	return c.classify(err)
}

func (c *Client) roundTrip(ctx context.Context, r request, out interface{}) error {
	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.endpoint+r.path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	// Set headers
	req.Header.Set(api.HeaderRequestID, uuid.NewString())
	req.Header.Set("Accept", api.ContentTypeJSON)
	if r.body != nil {
		req.Header.Set(api.HeaderContentType, api.ContentTypeJSON)
	}
	if r.auth {
		req.Header.Set(api.HeaderAuthorization, "Bearer "+c.token)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &transportError{err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &transportError{err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &statusError{code: resp.StatusCode, message: errorMessage(data)}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// classify maps raw failures onto the storefront error taxonomy.
func (c *Client) classify(err error) error {
	if err == nil {
		return nil
	}

	var se *statusError
	if errors.As(err, &se) {
		if se.code == http.StatusUnauthorized || se.code == http.StatusForbidden {
			reason := se.message
			if reason == "" {
				reason = "token rejected by the server"
			}
			e := sferrors.NewAuthRequired(reason)
			e.Cause = se
			return e
		}
		e := sferrors.NewRemoteUnavailable(c.endpoint, se.Error())
		e.Status = se.code
		e.Cause = se
		return e
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		e := sferrors.NewRemoteUnavailable(c.endpoint, "circuit breaker open after repeated failures")
		e.Cause = err
		return e
	}

	var te *transportError
	if errors.As(err, &te) {
		e := sferrors.NewRemoteUnavailable(c.endpoint, te.Error())
		e.Cause = te
		return e
	}

	return sferrors.WrapRemoteUnavailable(c.endpoint, err)
}

// authError turns a rejected login or registration into ErrAuthFailed while
// leaving connectivity failures as they are.
func (c *Client) authError(operation string, err error) error {
	var se *statusError
	if errors.As(err, &se) && se.code >= 400 && se.code < 500 {
		return sferrors.NewAuthFailed(operation, se.message)
	}
	return err
}

// countsAsSuccess decides what the breaker records as a failure: transport
// errors, undecodable bodies and 5xx responses. Client errors mean the API is up.
func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code < 500
	}
	return false
}

func errorMessage(body []byte) string {
	var resp models.ErrorResponse
	if err := json.Unmarshal(body, &resp); err == nil {
		if text := resp.Text(); text != "" {
			return text
		}
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}
