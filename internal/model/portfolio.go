package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PortfolioScope selects which of a user's portfolios an operation targets:
// the solo one or the one bound to a specific league.
type PortfolioScope struct {
	IsSolo   bool
	LeagueID int64
}

func SoloScope() PortfolioScope {
	return PortfolioScope{IsSolo: true}
}

func LeagueScope(leagueID int64) PortfolioScope {
	return PortfolioScope{LeagueID: leagueID}
}

type Portfolio struct {
	PortfolioID  int64
	UserID       string
	LeagueID     int64 // 0 for solo portfolios
	IsSolo       bool
	TotalValue   decimal.Decimal
	ReserveValue decimal.Decimal
	CreatedAt    time.Time
}

type Holding struct {
	HoldingID       int64
	PortfolioID     int64
	StockID         int64
	Quantity        int
	AverageBuyPrice decimal.Decimal
}

// HoldingView is a holding enriched with its stock row for read endpoints.
type HoldingView struct {
	Holding
	Symbol       string
	StockName    string
	CurrentPrice decimal.Decimal
}

type PortfolioView struct {
	Portfolio Portfolio
	Holdings  []HoldingView
}

// PortfolioReport bundles everything the report generator needs for a
// single workbook.
type PortfolioReport struct {
	Portfolio    Portfolio
	Holdings     []HoldingView
	Transactions []Transaction
}
