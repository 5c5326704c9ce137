// Package api defines the storefront HTTP API endpoints and headers used by the client.
package api

// API version
const Version = "0.1.0"

// API endpoints
const (
	EndpointLogin         = "/api/login"
	EndpointRegister      = "/api/register"
	EndpointProducts      = "/api/products"
	EndpointOrders        = "/api/orders"
	EndpointOrderTracking = "/api/order-tracking"
	EndpointHealth        = "/health"
)

// HTTP headers
const (
	HeaderContentType    = "Content-Type"
	HeaderAuthorization  = "Authorization"
	HeaderRequestID      = "X-Request-ID"
	HeaderIdempotencyKey = "Idempotency-Key"
)

// Content types
const (
	ContentTypeJSON = "application/json"
)

// OrdersPath returns the orders endpoint for a customer.
func OrdersPath(customerID string) string {
	return EndpointOrders + "/" + customerID
}

// TrackingPath returns the tracking endpoint for an order.
func TrackingPath(orderID string) string {
	return EndpointOrderTracking + "/" + orderID
}
