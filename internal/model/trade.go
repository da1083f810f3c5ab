package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TradeTypeBuy  = "buy"
	TradeTypeSell = "sell"
)

type Transaction struct {
	TransactionID int64
	PortfolioID   int64
	StockID       int64
	Quantity      int
	Price         decimal.Decimal
	Type          string
	CreatedAt     time.Time
}

type BuyParams struct {
	UserID   string
	StockID  int64
	Price    decimal.Decimal
	Quantity int

	// PortfolioID targets an explicit portfolio; when 0 the portfolio is
	// resolved (or created) from Scope.
	PortfolioID int64
	Scope       PortfolioScope
}

type TradeResult struct {
	PortfolioID   int64
	HoldingID     int64
	TransactionID int64
	Reserve       decimal.Decimal
}
