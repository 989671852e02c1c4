package types

import (
	"time"
)

const (
	OrderTypeBuy  = "BUY"
	OrderTypeSell = "SELL"

	OrderStatusPending  = "PENDING"
	OrderStatusExecuted = "EXECUTED"
	OrderStatusFailed   = "FAILED"

	PaymentMethodUPI        = "UPI"
	PaymentMethodNetBanking = "NET_BANKING"

	PaymentStatusSuccess = "SUCCESS"
	PaymentStatusFailed  = "FAILED"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	Username     string    `gorm:"not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	AvatarURL    string    `json:"avatarUrl"`
	Balance      float64   `gorm:"not null;default:0" json:"balance"`
	Version      int64     `gorm:"not null;default:1" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Holding struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"not null;uniqueIndex:idx_holdings_user_symbol" json:"-"`
	Symbol          string    `gorm:"not null;uniqueIndex:idx_holdings_user_symbol" json:"symbol"`
	CompanyName     string    `json:"companyName"`
	Quantity        int64     `gorm:"not null" json:"quantity"`
	AverageBuyPrice float64   `gorm:"not null" json:"averageBuyPrice"`
	CurrentPrice    float64   `json:"currentPrice"`
	Version         int64     `gorm:"not null;default:1" json:"-"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type Order struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	OrderID     string    `gorm:"uniqueIndex;not null" json:"orderId"`
	UserID      uint      `gorm:"not null" json:"-"`
	Symbol      string    `gorm:"not null" json:"symbol"`
	CompanyName string    `json:"companyName"`
	Type        string    `gorm:"not null" json:"type"` // BUY or SELL
	Quantity    int64     `gorm:"not null" json:"quantity"`
	Price       float64   `gorm:"not null" json:"price"`
	Total       float64   `gorm:"not null" json:"total"`
	Status      string    `gorm:"not null" json:"status"` // PENDING, EXECUTED, FAILED
	Reason      string    `json:"reason,omitempty"`
	CreatedAt   time.Time `json:"timestamp"`
	UpdatedAt   time.Time `json:"-"`
}

type Trade struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	OrderID     string    `gorm:"uniqueIndex;not null" json:"orderId"`
	UserID      uint      `gorm:"not null" json:"-"`
	Symbol      string    `gorm:"not null" json:"symbol"`
	CompanyName string    `json:"companyName"`
	Type        string    `gorm:"not null" json:"type"`
	Quantity    int64     `gorm:"not null" json:"quantity"`
	Price       float64   `gorm:"not null" json:"price"`
	Total       float64   `gorm:"not null" json:"total"`
	CreatedAt   time.Time `json:"timestamp"`
}

type WatchlistItem struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_watchlist_user_symbol" json:"-"`
	Symbol      string    `gorm:"not null;uniqueIndex:idx_watchlist_user_symbol" json:"symbol"`
	CompanyName string    `json:"companyName"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Payment struct {
	ID             uint      `gorm:"primaryKey" json:"-"`
	UserID         uint      `gorm:"not null;index" json:"-"`
	Amount         float64   `gorm:"not null" json:"amount"`
	Method         string    `gorm:"not null" json:"method"` // UPI or NET_BANKING
	Status         string    `gorm:"not null" json:"status"` // SUCCESS or FAILED
	TransactionRef string    `gorm:"uniqueIndex;not null" json:"transactionRef"`
	FailureReason  string    `json:"failureReason,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
