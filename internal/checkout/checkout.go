// Package checkout turns the cart into a pending order, confirms the pending
// order and hands it off to the mock payment stage.
//
// Every state transition is a single storage.Batch commit, so callers never
// observe the cart and the pending order both present or both missing after a
// checkout, nor a confirmed order without its payment hand-off.
package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront-labs/storefront/internal/cart"
	sferrors "github.com/storefront-labs/storefront/internal/errors"
	"github.com/storefront-labs/storefront/internal/storage"
	"github.com/storefront-labs/storefront/pkg/models"
)

// StatusPending is the status of every freshly derived order.
const StatusPending = "Pending"

// PendingOrder is the snapshot of a cart taken at checkout.
type PendingOrder struct {
	OrderItems     []cart.LineItem `json:"orderItems"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	Status         string          `json:"status"`
	IdempotencyKey string          `json:"idempotencyKey,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// PaymentHandoff is written when an order is confirmed and read by the payment stage.
type PaymentHandoff struct {
	OrderID     string          `json:"orderId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Items       []cart.LineItem `json:"items"`
	Submitted   bool            `json:"submitted"`
	ConfirmedAt time.Time       `json:"confirmedAt"`
}

// OrderSubmitter records a confirmed order with the storefront API.
type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, req models.SubmitOrderRequest, idempotencyKey string) (*models.SubmitOrderResponse, error)
}

// Options configures a Service.
type Options struct {
	// SubmitOrders sends confirmed orders to Submitter before the payment stage.
	SubmitOrders bool
	Submitter    OrderSubmitter
}

// Service owns the cart, order and payment keys of the session store.
type Service struct {
	store  storage.SessionStore
	opts   Options
	now    func() time.Time
	newKey func() string
}

// NewService creates a checkout service over store.
func NewService(store storage.SessionStore, opts Options) *Service {
	return &Service{
		store:  store,
		opts:   opts,
		now:    time.Now,
		newKey: func() string { return uuid.NewString() },
	}
}

// Checkout snapshots the stored cart into a pending order, replacing any prior
// pending order and clearing the cart in the same commit.
func (s *Service) Checkout(ctx context.Context) (*PendingOrder, error) {
	current, err := cart.NewEngine(s.store).Load(ctx)
	if err != nil {
		return nil, err
	}
	if current.Len() == 0 {
		return nil, sferrors.NewEmptyCart()
	}

	order := &PendingOrder{
		OrderItems:     current.Copy(),
		TotalAmount:    cart.TotalPrice(current),
		Status:         StatusPending,
		IdempotencyKey: s.newKey(),
		CreatedAt:      s.now().UTC(),
	}

	batch := storage.NewBatch()
	if err := batch.PutJSON(storage.KeyOrder, order); err != nil {
		return nil, err
	}
	batch.Delete(storage.KeyCart)

	if err := s.store.Commit(ctx, *batch); err != nil {
		return nil, err
	}
	return order, nil
}

// Pending returns the current pending order.
func (s *Service) Pending(ctx context.Context) (*PendingOrder, error) {
	var order PendingOrder
	found, err := storage.LoadJSON(ctx, s.store, storage.KeyOrder, &order)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, sferrors.NewNoPendingOrder()
	}
	return &order, nil
}

// Confirm consumes the pending order and writes the payment hand-off. When order
// submission is enabled the order is recorded with the API first; if that fails
// the pending order is kept so the confirmation can be retried.
func (s *Service) Confirm(ctx context.Context, customerID string) (*PaymentHandoff, error) {
	order, err := s.Pending(ctx)
	if err != nil {
		return nil, err
	}

	handoff := &PaymentHandoff{
		OrderID:     order.IdempotencyKey,
		TotalAmount: order.TotalAmount,
		Items:       order.OrderItems,
		ConfirmedAt: s.now().UTC(),
	}

	if s.opts.SubmitOrders && s.opts.Submitter != nil {
		resp, err := s.opts.Submitter.SubmitOrder(ctx, submitRequest(order, customerID), order.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if resp != nil && resp.OrderID != "" {
			handoff.OrderID = string(resp.OrderID)
		}
		handoff.Submitted = true
	}

	batch := storage.NewBatch().Delete(storage.KeyOrder)
	if err := batch.PutJSON(storage.KeyPayment, handoff); err != nil {
		return nil, err
	}
	if err := s.store.Commit(ctx, *batch); err != nil {
		return nil, err
	}
	return handoff, nil
}

func submitRequest(order *PendingOrder, customerID string) models.SubmitOrderRequest {
	lines := make([]models.OrderLine, 0, len(order.OrderItems))
	for _, item := range order.OrderItems {
		lines = append(lines, models.OrderLine{
			ProductID: item.ProductID.String(),
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return models.SubmitOrderRequest{
		CustomerID:  customerID,
		OrderDate:   order.CreatedAt,
		Items:       lines,
		TotalAmount: order.TotalAmount,
		Status:      order.Status,
	}
}
