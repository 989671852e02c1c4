package trading

import (
	"errors"
	"time"

	"github.com/ksred/papertrade-api/pkg/apperror"
)

var (
	ErrInvalidOrderType     = apperror.Validation("Order type must be BUY or SELL.")
	ErrSymbolRequired       = apperror.Validation("Stock symbol is required.")
	ErrInvalidQuantity      = apperror.Validation("Quantity must be a positive whole number.")
	ErrInvalidPrice         = apperror.Validation("Price must be greater than 0.")
	ErrUnknownSymbol        = apperror.BusinessRule("Stock symbol is invalid.")
	ErrInsufficientFunds    = apperror.BusinessRule("Insufficient balance for this trade.")
	ErrInsufficientHoldings = apperror.BusinessRule("Insufficient holdings to sell.")
	ErrExecutionFailed      = apperror.Execution("Trade execution failed. Please retry.")

	// errOrderNotPending means the order was resolved elsewhere (by the
	// recovery sweep) while its ledger transaction was in flight
	errOrderNotPending = errors.New("order is no longer pending")
)

// reasonInterrupted is recorded on orders the recovery sweep fails
const reasonInterrupted = "Execution interrupted before ledger update."

// OrderFilter holds the optional, AND-combined filters of GET /api/orders
type OrderFilter struct {
	Symbol string `form:"symbol"`
	Type   string `form:"type"`
	Date   string `form:"date"` // YYYY-MM-DD or RFC3339, matched against the local calendar day
}

// orderQuery is an OrderFilter resolved to column values
type orderQuery struct {
	userID uint
	symbol string
	typ    string
	from   time.Time
	to     time.Time
}

// orderRow is one line of the orders CSV export
type orderRow struct {
	OrderID     string  `csv:"order_id"`
	Timestamp   string  `csv:"timestamp"`
	Symbol      string  `csv:"symbol"`
	CompanyName string  `csv:"company_name"`
	Type        string  `csv:"type"`
	Quantity    int64   `csv:"quantity"`
	Price       float64 `csv:"price"`
	Total       float64 `csv:"total"`
	Status      string  `csv:"status"`
	Reason      string  `csv:"reason"`
}

// RecoveryReport summarises one recovery sweep
type RecoveryReport struct {
	Scanned  int `json:"scanned"`
	Executed int `json:"executed"`
	Failed   int `json:"failed"`
}
