package dbModel

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type Portfolio struct {
	PortfolioID  int64           `db:"portfolio_id"`
	UserID       string          `db:"user_id"`
	LeagueID     sql.NullInt64   `db:"league_id"`
	IsSolo       bool            `db:"is_solo"`
	TotalValue   decimal.Decimal `db:"total_value"`
	ReserveValue decimal.Decimal `db:"reserve_value"`
	CreatedAt    time.Time       `db:"created_at"`
}

type Holding struct {
	HoldingID       int64           `db:"portfolio_holding_id"`
	PortfolioID     int64           `db:"portfolio_id"`
	StockID         int64           `db:"stock_id"`
	Quantity        int             `db:"quantity"`
	AverageBuyPrice decimal.Decimal `db:"average_buy_price"`
}

type HoldingWithStock struct {
	Holding
	Symbol       string              `db:"stock_symbol"`
	StockName    sql.NullString      `db:"name"`
	CurrentPrice decimal.NullDecimal `db:"current_price"`
}

type Transaction struct {
	TransactionID int64           `db:"transaction_id"`
	PortfolioID   int64           `db:"portfolio_id"`
	StockID       int64           `db:"stock_id"`
	Quantity      int             `db:"quantity"`
	Price         decimal.Decimal `db:"price"`
	Type          string          `db:"type"`
	CreatedAt     time.Time       `db:"created_at"`
}

type Stock struct {
	StockID      int64               `db:"stock_id"`
	Symbol       string              `db:"stock_symbol"`
	Name         sql.NullString      `db:"name"`
	CurrentPrice decimal.NullDecimal `db:"current_price"`
}

type League struct {
	LeagueID    int64          `db:"league_id"`
	Name        string         `db:"name"`
	OwnerID     string         `db:"owner_id"`
	StartTime   sql.NullTime   `db:"start_time"`
	FinishTime  sql.NullTime   `db:"finish_time"`
	HasTrading  bool           `db:"has_trading"`
	HasDrafting bool           `db:"has_drafting"`
	Sectors     sql.NullString `db:"sectors"` // selected via array_to_string
	CreatedAt   time.Time      `db:"created_at"`
}

type Draft struct {
	DraftID            int64         `db:"draft_id"`
	LeagueID           int64         `db:"league_id"`
	TotalRounds        int           `db:"total_rounds"`
	CurrentRound       int           `db:"current_round"`
	CurrentPick        int           `db:"current_pick"`
	CurrentPortfolioID sql.NullInt64 `db:"current_portfolio_id"`
	IsSnakingForward   bool          `db:"is_snaking_forward"`
	TimerStartTime     sql.NullTime  `db:"timer_start_time"`
	IsStarted          bool          `db:"is_started"`
	IsEnded            bool          `db:"is_ended"`
}

type Profile struct {
	ProfileID string         `db:"profile_id"`
	Email     string         `db:"email"`
	Username  sql.NullString `db:"username"`
	AvatarURL sql.NullString `db:"avatar_url"`
	Badge     sql.NullString `db:"badge"`
	CreatedAt time.Time      `db:"created_at"`
}
