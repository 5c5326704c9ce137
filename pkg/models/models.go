// Package models provides the wire models of the storefront HTTP API.
// Field names follow the API's own casing.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ID is an identifier the API may send as a JSON number or string.
type ID string

// UnmarshalJSON accepts a JSON string or number.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	Token string `json:"token"`
}

// RegisterRequest is the body of POST /api/register.
type RegisterRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// OrderRecord is a server-confirmed order.
type OrderRecord struct {
	OrderID    ID     `json:"OrderID,omitempty"`
	CustomerID ID     `json:"CustomerID"`
	OrderDate  string `json:"OrderDate"`
	Status     string `json:"Status"`
}

// OrdersResponse is returned by GET /api/orders/{customerId}.
type OrdersResponse struct {
	Orders []OrderRecord `json:"orders"`
}

// TrackingRecord is returned by GET /api/order-tracking/{orderId}.
type TrackingRecord struct {
	OrderID    ID     `json:"OrderID"`
	CustomerID ID     `json:"CustomerID"`
	Status     string `json:"Status"`
}

// OrderLine is one item of a submitted order.
type OrderLine struct {
	ProductID string          `json:"ProductID"`
	Quantity  int             `json:"Quantity"`
	Price     decimal.Decimal `json:"Price"`
}

// SubmitOrderRequest is the body of POST /api/orders.
type SubmitOrderRequest struct {
	CustomerID  string          `json:"CustomerID,omitempty"`
	OrderDate   time.Time       `json:"OrderDate"`
	Items       []OrderLine     `json:"orderItems"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Status      string          `json:"Status"`
}

// SubmitOrderResponse is returned when the API accepts an order.
type SubmitOrderResponse struct {
	OrderID ID     `json:"OrderID"`
	Status  string `json:"Status,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse is the API's error body.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// Text returns the most specific message in the body.
func (e ErrorResponse) Text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}
