package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Stock struct {
	StockID      int64
	Symbol       string
	Name         string
	CurrentPrice decimal.Decimal
}

// Quote is a price snapshot from the external market data feed.
type Quote struct {
	Symbol string
	Name   string
	Price  decimal.Decimal
}

type Profile struct {
	ProfileID string
	Email     string
	Username  string
	AvatarURL string
	Badge     string
	CreatedAt time.Time
}
