package dbConverter

import (
	"github.com/shopspring/decimal"

	"github.com/stockleague/stockleague_api/internal/model"
	"github.com/stockleague/stockleague_api/internal/model/dbModel"
)

func ConvertPortfolio(p dbModel.Portfolio) model.Portfolio {
	return model.Portfolio{
		PortfolioID:  p.PortfolioID,
		UserID:       p.UserID,
		LeagueID:     p.LeagueID.Int64,
		IsSolo:       p.IsSolo,
		TotalValue:   p.TotalValue,
		ReserveValue: p.ReserveValue,
		CreatedAt:    p.CreatedAt,
	}
}

func ConvertHolding(h dbModel.Holding) model.Holding {
	return model.Holding{
		HoldingID:       h.HoldingID,
		PortfolioID:     h.PortfolioID,
		StockID:         h.StockID,
		Quantity:        h.Quantity,
		AverageBuyPrice: h.AverageBuyPrice,
	}
}

func ConvertHoldingWithStock(h dbModel.HoldingWithStock) model.HoldingView {
	return model.HoldingView{
		Holding:      ConvertHolding(h.Holding),
		Symbol:       h.Symbol,
		StockName:    h.StockName.String,
		CurrentPrice: h.CurrentPrice.Decimal,
	}
}

func ConvertTransaction(t dbModel.Transaction) model.Transaction {
	return model.Transaction{
		TransactionID: t.TransactionID,
		PortfolioID:   t.PortfolioID,
		StockID:       t.StockID,
		Quantity:      t.Quantity,
		Price:         t.Price,
		Type:          t.Type,
		CreatedAt:     t.CreatedAt,
	}
}

func ConvertStock(s dbModel.Stock) model.Stock {
	price := decimal.Decimal{}
	if s.CurrentPrice.Valid {
		price = s.CurrentPrice.Decimal
	}
	return model.Stock{
		StockID:      s.StockID,
		Symbol:       s.Symbol,
		Name:         s.Name.String,
		CurrentPrice: price,
	}
}

func ConvertLeague(l dbModel.League) model.League {
	league := model.League{
		LeagueID:    l.LeagueID,
		Name:        l.Name,
		OwnerID:     l.OwnerID,
		HasTrading:  l.HasTrading,
		HasDrafting: l.HasDrafting,
		Sectors:     model.ParseSectors(l.Sectors.String),
		CreatedAt:   l.CreatedAt,
	}
	if l.StartTime.Valid {
		t := l.StartTime.Time
		league.StartTime = &t
	}
	if l.FinishTime.Valid {
		t := l.FinishTime.Time
		league.FinishTime = &t
	}
	return league
}

func ConvertDraft(d dbModel.Draft) model.Draft {
	draft := model.Draft{
		DraftID:            d.DraftID,
		LeagueID:           d.LeagueID,
		TotalRounds:        d.TotalRounds,
		CurrentRound:       d.CurrentRound,
		CurrentPick:        d.CurrentPick,
		CurrentPortfolioID: d.CurrentPortfolioID.Int64,
		IsSnakingForward:   d.IsSnakingForward,
		IsStarted:          d.IsStarted,
		IsEnded:            d.IsEnded,
	}
	if d.TimerStartTime.Valid {
		t := d.TimerStartTime.Time
		draft.TimerStartTime = &t
	}
	return draft
}

func ConvertProfile(p dbModel.Profile) model.Profile {
	return model.Profile{
		ProfileID: p.ProfileID,
		Email:     p.Email,
		Username:  p.Username.String,
		AvatarURL: p.AvatarURL.String,
		Badge:     p.Badge.String,
		CreatedAt: p.CreatedAt,
	}
}
