// Package errors provides explicit, human-readable error types for the storefront client.
// Every error carries a Reason and a Suggestion so the CLI can tell the user what to do next.
package errors

import (
	"fmt"
	"strings"
)

// StorefrontError is the base error type for all storefront errors.
type StorefrontError struct {
	Code       ErrorCode
	Message    string
	Reason     string
	Suggestion string
	Cause      error
}

// ErrorCode represents the category of error for exit code mapping.
type ErrorCode int

const (
	CodeValidation ErrorCode = 1
	CodeAuth       ErrorCode = 2
	CodeRemote     ErrorCode = 3
	CodeInternal   ErrorCode = 4
)

func (e *StorefrontError) Error() string {
	msg := e.Message
	if e.Reason != "" {
		msg = fmt.Sprintf("%s\nReason: %s", msg, e.Reason)
	}
	if e.Suggestion != "" {
		msg = fmt.Sprintf("%s\nSuggestion: %s", msg, e.Suggestion)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s\nCaused by: %v", msg, e.Cause)
	}
	return msg
}

func (e *StorefrontError) Unwrap() error {
	return e.Cause
}

// ErrorCode returns the category of the error.
func (e *StorefrontError) ErrorCode() ErrorCode {
	return e.Code
}

// Base returns the StorefrontError itself. Every error type in this package
// embeds a StorefrontError, so Base gives callers uniform access to its fields.
func (e *StorefrontError) Base() *StorefrontError {
	return e
}

// Coded is implemented by every error in this package.
type Coded interface {
	error
	ErrorCode() ErrorCode
}

// ErrAuthRequired is returned when an action needs a bearer token that is
// missing, expired, or rejected by the remote API.
type ErrAuthRequired struct {
	StorefrontError
}

// NewAuthRequired creates a new ErrAuthRequired.
func NewAuthRequired(reason string) *ErrAuthRequired {
	return &ErrAuthRequired{
		StorefrontError: StorefrontError{
			Code:       CodeAuth,
			Message:    "authentication required",
			Reason:     reason,
			Suggestion: "log in with 'storefront auth login'",
		},
	}
}

// NewAuthExpired creates an ErrAuthRequired for an expired token.
func NewAuthExpired() *ErrAuthRequired {
	return &ErrAuthRequired{
		StorefrontError: StorefrontError{
			Code:       CodeAuth,
			Message:    "authentication expired",
			Reason:     "token has expired",
			Suggestion: "log in again with 'storefront auth login'",
		},
	}
}

// ErrAuthFailed is returned when the remote API rejects login or registration.
type ErrAuthFailed struct {
	StorefrontError
}

// NewAuthFailed creates a new ErrAuthFailed. serverMessage is the message the
// remote API returned, if any.
func NewAuthFailed(operation, serverMessage string) *ErrAuthFailed {
	reason := serverMessage
	if reason == "" {
		reason = fmt.Sprintf("%s was rejected by the server", operation)
	}
	return &ErrAuthFailed{
		StorefrontError: StorefrontError{
			Code:       CodeAuth,
			Message:    fmt.Sprintf("%s failed", operation),
			Reason:     reason,
			Suggestion: "check your credentials and try again",
		},
	}
}

// ErrEmptyCart is returned when checkout is attempted on an empty cart.
type ErrEmptyCart struct {
	StorefrontError
}

// NewEmptyCart creates a new ErrEmptyCart.
func NewEmptyCart() *ErrEmptyCart {
	return &ErrEmptyCart{
		StorefrontError: StorefrontError{
			Code:       CodeValidation,
			Message:    "your cart is empty",
			Reason:     "checkout needs at least one item",
			Suggestion: "add products with 'storefront cart add <product-id>'",
		},
	}
}

// ErrRemoteUnavailable is returned on network, status, or decoding failures
// talking to the storefront API.
type ErrRemoteUnavailable struct {
	StorefrontError
	Endpoint string

	// Status is the HTTP status code, or 0 when no response was received.
	Status int
}

// NewRemoteUnavailable creates a new ErrRemoteUnavailable.
func NewRemoteUnavailable(endpoint, reason string) *ErrRemoteUnavailable {
	return &ErrRemoteUnavailable{
		StorefrontError: StorefrontError{
			Code:       CodeRemote,
			Message:    "storefront API unavailable",
			Reason:     reason,
			Suggestion: "check the endpoint with 'storefront doctor' and retry",
		},
		Endpoint: endpoint,
	}
}

// WrapRemoteUnavailable creates an ErrRemoteUnavailable that keeps the cause.
func WrapRemoteUnavailable(endpoint string, cause error) *ErrRemoteUnavailable {
	e := NewRemoteUnavailable(endpoint, "request failed")
	e.Cause = cause
	return e
}

// ErrNoPendingOrder is returned when there is no pending order to show or confirm.
type ErrNoPendingOrder struct {
	StorefrontError
}

// NewNoPendingOrder creates a new ErrNoPendingOrder.
func NewNoPendingOrder() *ErrNoPendingOrder {
	return &ErrNoPendingOrder{
		StorefrontError: StorefrontError{
			Code:       CodeValidation,
			Message:    "no orders found",
			Reason:     "there is no pending order",
			Suggestion: "check out your cart with 'storefront cart checkout'",
		},
	}
}

// ErrNoPaymentPending is returned when payment is attempted without a confirmed order.
type ErrNoPaymentPending struct {
	StorefrontError
}

// NewNoPaymentPending creates a new ErrNoPaymentPending.
func NewNoPaymentPending() *ErrNoPaymentPending {
	return &ErrNoPaymentPending{
		StorefrontError: StorefrontError{
			Code:       CodeValidation,
			Message:    "nothing to pay",
			Reason:     "no confirmed order is waiting for payment",
			Suggestion: "confirm your order with 'storefront orders confirm'",
		},
	}
}

// ErrInvalidPaymentMethod is returned when no or an unknown payment method is chosen.
type ErrInvalidPaymentMethod struct {
	StorefrontError
	Method string
}

// NewInvalidPaymentMethod creates a new ErrInvalidPaymentMethod.
func NewInvalidPaymentMethod(method string, supported []string) *ErrInvalidPaymentMethod {
	reason := fmt.Sprintf("unsupported payment method %q", method)
	if method == "" {
		reason = "no payment method selected"
	}
	return &ErrInvalidPaymentMethod{
		StorefrontError: StorefrontError{
			Code:       CodeValidation,
			Message:    "please select a payment method",
			Reason:     reason,
			Suggestion: fmt.Sprintf("use --method with one of: %s", strings.Join(supported, ", ")),
		},
		Method: method,
	}
}

// ErrProductNotFound is returned when a product id is not in the catalog or cart.
type ErrProductNotFound struct {
	StorefrontError
	ProductID string
}

// NewProductNotFound creates a new ErrProductNotFound.
func NewProductNotFound(productID string) *ErrProductNotFound {
	return &ErrProductNotFound{
		StorefrontError: StorefrontError{
			Code:       CodeValidation,
			Message:    fmt.Sprintf("product not found: %s", productID),
			Reason:     "no product with this id in the catalog",
			Suggestion: "list products with 'storefront products list'",
		},
		ProductID: productID,
	}
}

// ErrInvalidInput is returned when user input fails validation.
type ErrInvalidInput struct {
	StorefrontError
	Field string
}

// NewInvalidInput creates a new ErrInvalidInput.
func NewInvalidInput(field, reason string) *ErrInvalidInput {
	return &ErrInvalidInput{
		StorefrontError: StorefrontError{
			Code:       CodeValidation,
			Message:    "invalid input",
			Reason:     fmt.Sprintf("field '%s': %s", field, reason),
			Suggestion: "run the command with --help for the expected input",
		},
		Field: field,
	}
}

// ErrStoreUnavailable is returned when the session store cannot be read or written.
type ErrStoreUnavailable struct {
	StorefrontError
}

// NewStoreUnavailable creates a new ErrStoreUnavailable.
func NewStoreUnavailable(reason string, cause error) *ErrStoreUnavailable {
	return &ErrStoreUnavailable{
		StorefrontError: StorefrontError{
			Code:       CodeInternal,
			Message:    "session store unavailable",
			Reason:     reason,
			Suggestion: "check the session settings with 'storefront doctor'",
			Cause:      cause,
		},
	}
}

// ErrMigrationFailed is returned when a session store schema migration fails.
type ErrMigrationFailed struct {
	StorefrontError
	Migration string
}

// NewMigrationFailed creates a new ErrMigrationFailed.
func NewMigrationFailed(migration string, cause error) *ErrMigrationFailed {
	return &ErrMigrationFailed{
		StorefrontError: StorefrontError{
			Code:       CodeInternal,
			Message:    fmt.Sprintf("migration failed: %s", migration),
			Reason:     "the session store schema could not be applied",
			Suggestion: "check the session database is writable",
			Cause:      cause,
		},
		Migration: migration,
	}
}
