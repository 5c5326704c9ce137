package checkout

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	sferrors "github.com/storefront-labs/storefront/internal/errors"
	"github.com/storefront-labs/storefront/internal/storage"
)

// Payment methods offered by the mock payment stage.
const (
	MethodCreditCard   = "Credit Card"
	MethodPayPal       = "PayPal"
	MethodBankTransfer = "Bank Transfer"
)

// PaymentMethods lists the supported methods in display order.
var PaymentMethods = []string{MethodCreditCard, MethodPayPal, MethodBankTransfer}

var methodAliases = map[string]string{
	"credit card":   MethodCreditCard,
	"card":          MethodCreditCard,
	"paypal":        MethodPayPal,
	"bank transfer": MethodBankTransfer,
	"bank":          MethodBankTransfer,
}

// Receipt is returned by a completed mock payment.
type Receipt struct {
	Reference string          `json:"reference"`
	OrderID   string          `json:"orderId"`
	Method    string          `json:"method"`
	Amount    decimal.Decimal `json:"amount"`
	PaidAt    time.Time       `json:"paidAt"`
}

// ParsePaymentMethod resolves a user-supplied method name or alias.
func ParsePaymentMethod(method string) (string, error) {
	key := strings.ToLower(strings.Join(strings.Fields(method), " "))
	if canonical, ok := methodAliases[key]; ok {
		return canonical, nil
	}
	return "", sferrors.NewInvalidPaymentMethod(strings.TrimSpace(method), PaymentMethods)
}

// PendingPayment returns the hand-off waiting for payment.
func (s *Service) PendingPayment(ctx context.Context) (*PaymentHandoff, error) {
	var handoff PaymentHandoff
	found, err := storage.LoadJSON(ctx, s.store, storage.KeyPayment, &handoff)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, sferrors.NewNoPaymentPending()
	}
	return &handoff, nil
}

// CompletePayment settles the confirmed order with the given method and clears
// the hand-off.
func (s *Service) CompletePayment(ctx context.Context, method string) (*Receipt, error) {
	handoff, err := s.PendingPayment(ctx)
	if err != nil {
		return nil, err
	}
	canonical, err := ParsePaymentMethod(method)
	if err != nil {
		return nil, err
	}

	if err := s.store.Delete(ctx, storage.KeyPayment); err != nil {
		return nil, err
	}
	return &Receipt{
		Reference: uuid.NewString(),
		OrderID:   handoff.OrderID,
		Method:    canonical,
		Amount:    handoff.TotalAmount,
		PaidAt:    s.now().UTC(),
	}, nil
}
