package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	sferrors "github.com/storefront-labs/storefront/internal/errors"
	"github.com/storefront-labs/storefront/pkg/api"
	"github.com/storefront-labs/storefront/pkg/models"
)

func testOptions() Options {
	return Options{
		Timeout:     2 * time.Second,
		Retry:       RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond},
		MaxFailures: 3,
		OpenTimeout: time.Minute,
	}
}

// TestClient_Login verifies the token is returned and credentials are sent.
//
// Green-Flag: a 200 with a token yields the token.
func TestClient_Login(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != api.EndpointLogin || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req models.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Email != "ann@example.com" || req.Password != "secret" {
			t.Errorf("unexpected credentials: %+v", req)
		}
		if r.Header.Get(api.HeaderAuthorization) != "" {
			t.Error("login must not send a bearer token")
		}
		_, _ = w.Write([]byte(`{"token":"tok-123"}`))
	}))
	defer srv.Close()

	token, err := NewClient(srv.URL, "", testOptions()).Login(context.Background(), "ann@example.com", "secret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token != "tok-123" {
		t.Errorf("expected tok-123, got %s", token)
	}
}

// TestClient_LoginRejected verifies the server message reaches the user.
//
// Red-Flag: a 401 on login is an AuthFailed carrying the server message.
func TestClient_LoginRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Invalid email or password"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", testOptions()).Login(context.Background(), "a@b.c", "x")

	var failed *sferrors.ErrAuthFailed
	if !errors.As(err, &failed) {
		t.Fatalf("expected ErrAuthFailed, got %v", err)
	}
	if failed.Reason != "Invalid email or password" {
		t.Errorf("expected server message, got %q", failed.Reason)
	}
}

// TestClient_Register verifies the registration body.
func TestClient_Register(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req models.RegisterRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.FullName != "Ann Lee" {
			t.Errorf("unexpected fullName %q", req.FullName)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	if err := NewClient(srv.URL, "", testOptions()).Register(context.Background(), "Ann Lee", "ann@example.com", "pw"); err != nil {
		t.Errorf("register failed: %v", err)
	}
}

// TestClient_ListProducts verifies bearer auth and numeric field decoding.
func TestClient_ListProducts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(api.HeaderAuthorization) != "Bearer tok" {
			t.Errorf("missing bearer token, got %q", r.Header.Get(api.HeaderAuthorization))
		}
		if r.Header.Get(api.HeaderRequestID) == "" {
			t.Error("missing request id")
		}
		_, _ = w.Write([]byte(`{"products":[{"ProductID":1,"ProductName":"Mug","Description":"Blue","Price":9.99}]}`))
	}))
	defer srv.Close()

	products, err := NewClient(srv.URL, "tok", testOptions()).ListProducts(context.Background())
	if err != nil {
		t.Fatalf("list products failed: %v", err)
	}
	if len(products) != 1 || products[0].ProductID != "1" {
		t.Fatalf("unexpected products: %+v", products)
	}
	if !products[0].Price.Equal(decimal.RequireFromString("9.99")) {
		t.Errorf("expected price 9.99, got %s", products[0].Price)
	}
}

// TestClient_Unauthorized verifies 401 and 403 map to AuthRequired.
//
// Red-Flag: a rejected token sends the user back to login.
func TestClient_Unauthorized(t *testing.T) {
	for _, code := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))

		_, err := NewClient(srv.URL, "expired", testOptions()).ListProducts(context.Background())
		srv.Close()

		var authErr *sferrors.ErrAuthRequired
		if !errors.As(err, &authErr) {
			t.Errorf("status %d: expected ErrAuthRequired, got %v", code, err)
		}
	}
}

// TestClient_MissingToken verifies authenticated calls fail before the network.
func TestClient_MissingToken(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", testOptions()).ListOrders(context.Background(), "7")

	var authErr *sferrors.ErrAuthRequired
	if !errors.As(err, &authErr) {
		t.Errorf("expected ErrAuthRequired, got %v", err)
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Errorf("expected no requests, got %d", hits)
	}
}

// TestClient_ListOrders verifies the customer path and decoding.
func TestClient_ListOrders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/orders/7" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"orders":[{"CustomerID":7,"OrderDate":"2024-05-01","Status":"Shipped"}]}`))
	}))
	defer srv.Close()

	orders, err := NewClient(srv.URL, "tok", testOptions()).ListOrders(context.Background(), "7")
	if err != nil {
		t.Fatalf("list orders failed: %v", err)
	}
	if len(orders) != 1 || orders[0].CustomerID != "7" || orders[0].Status != "Shipped" {
		t.Errorf("unexpected orders: %+v", orders)
	}
}

// TestClient_GetTracking verifies found and not-found tracking records.
func TestClient_GetTracking(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/order-tracking/42" {
			_, _ = w.Write([]byte(`{"OrderID":42,"CustomerID":7,"Status":"Processing"}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()
	c := NewClient(srv.URL, "tok", testOptions())

	rec, err := c.GetTracking(context.Background(), "42")
	if err != nil {
		t.Fatalf("tracking failed: %v", err)
	}
	if rec.Status != "Processing" || rec.OrderID != "42" {
		t.Errorf("unexpected record: %+v", rec)
	}

	missing, err := c.GetTracking(context.Background(), "99")
	if err != nil {
		t.Fatalf("expected no error for unknown order, got %v", err)
	}
	if missing.Status != "" {
		t.Errorf("expected empty status, got %q", missing.Status)
	}
}

// TestClient_SubmitOrder verifies the idempotency key header.
func TestClient_SubmitOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(api.HeaderIdempotencyKey) != "key-1" {
			t.Errorf("expected idempotency key, got %q", r.Header.Get(api.HeaderIdempotencyKey))
		}
		var req models.SubmitOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad body: %v", err)
		}
		if !req.TotalAmount.Equal(decimal.RequireFromString("25.00")) {
			t.Errorf("unexpected total %s", req.TotalAmount)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"OrderID":501}`))
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL, "tok", testOptions()).SubmitOrder(context.Background(), models.SubmitOrderRequest{
		TotalAmount: decimal.RequireFromString("25.00"),
		Status:      "Pending",
	}, "key-1")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if resp.OrderID != "501" {
		t.Errorf("expected order 501, got %s", resp.OrderID)
	}
}

// TestClient_ServerError verifies 5xx responses are RemoteUnavailable and not retried.
func TestClient_ServerError(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"db down"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "tok", testOptions()).ListProducts(context.Background())

	var remote *sferrors.ErrRemoteUnavailable
	if !errors.As(err, &remote) {
		t.Fatalf("expected ErrRemoteUnavailable, got %v", err)
	}
	if remote.Status != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", remote.Status)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Errorf("expected 1 request, got %d", hits)
	}
}

// TestClient_BadJSON verifies undecodable bodies are RemoteUnavailable.
func TestClient_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "tok", testOptions()).ListProducts(context.Background())

	var remote *sferrors.ErrRemoteUnavailable
	if !errors.As(err, &remote) {
		t.Errorf("expected ErrRemoteUnavailable, got %v", err)
	}
}

// TestClient_TransportFailureOpensBreaker verifies retries and fail-fast.
//
// Red-Flag: a dead endpoint is retried, then the breaker opens.
func TestClient_TransportFailureOpensBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	opts := testOptions()
	opts.MaxFailures = 2
	c := NewClient(url, "tok", opts)

	_, err := c.ListProducts(context.Background())
	var remote *sferrors.ErrRemoteUnavailable
	if !errors.As(err, &remote) {
		t.Fatalf("expected ErrRemoteUnavailable, got %v", err)
	}
	if remote.Status != 0 {
		t.Errorf("expected no status for transport failure, got %d", remote.Status)
	}

	// Two attempts have failed; the breaker is now open.
	if c.BreakerState() != "open" {
		t.Errorf("expected open breaker, got %s", c.BreakerState())
	}
	_, err = c.ListProducts(context.Background())
	if !errors.As(err, &remote) || remote.Reason != "circuit breaker open after repeated failures" {
		t.Errorf("expected open breaker error, got %v", err)
	}
}

// TestClient_Timeout verifies a hung server does not hang the client.
func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	opts := testOptions()
	opts.Timeout = 50 * time.Millisecond
	opts.Retry.MaxAttempts = 1

	start := time.Now()
	_, err := NewClient(srv.URL, "tok", opts).ListProducts(context.Background())
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > time.Second {
		t.Errorf("request took too long: %s", time.Since(start))
	}
}

// TestClient_NoEndpoint verifies an unset endpoint is reported.
func TestClient_NoEndpoint(t *testing.T) {
	_, err := NewClient("", "tok", testOptions()).CheckHealth(context.Background())

	var remote *sferrors.ErrRemoteUnavailable
	if !errors.As(err, &remote) {
		t.Errorf("expected ErrRemoteUnavailable, got %v", err)
	}
}
