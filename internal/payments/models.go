package payments

import (
	"github.com/ksred/papertrade-api/internal/types"
	"github.com/ksred/papertrade-api/pkg/apperror"
)

var (
	ErrInvalidMethod = apperror.Validation("Payment method must be UPI or NET_BANKING.")
	ErrInvalidAmount = apperror.Validation("Amount must be greater than 0.")
)

const (
	msgSuccess    = "Payment successful. Balance updated."
	msgDeclined   = "Payment failed in dummy gateway simulation."
	reasonDecline = "Dummy gateway declined payment."
)

// Gateway decides whether a deposit is approved
type Gateway func() bool

// DepositRequest is the validated input of a deposit
type DepositRequest struct {
	Amount float64
	Method string
}

// DepositResult is returned for both approved and declined deposits.
// Balance is only set when the payment succeeded.
type DepositResult struct {
	Balance     *float64       `json:"balance,omitempty"`
	Transaction *types.Payment `json:"transaction"`
}

// Succeeded reports whether the gateway approved the deposit
func (r *DepositResult) Succeeded() bool {
	return r.Transaction != nil && r.Transaction.Status == types.PaymentStatusSuccess
}
