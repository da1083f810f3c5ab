package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/stockleague/stockleague_api/data/repository"
	"github.com/stockleague/stockleague_api/internal/converter/dbConverter"
	"github.com/stockleague/stockleague_api/internal/model"
	"github.com/stockleague/stockleague_api/internal/model/dbModel"
	"github.com/stockleague/stockleague_api/utils"
)

func (r *Postgres) getStock(ctx context.Context, op, query string, arg any) (stock model.Stock, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	slog.Debug(op+" start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			slog.Error(op+" failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug(op+" completed", slog.String("rqID", rqID))
		}
	}()

	dbStock := dbModel.Stock{}
	err = r.txOrDb(ctx).GetContext(ctx, &dbStock, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Stock{}, repository.ErrNotFound
		}
		return model.Stock{}, err
	}

	return dbConverter.ConvertStock(dbStock), nil
}

func (r *Postgres) GetStock(ctx context.Context, stockID int64) (model.Stock, error) {
	query := `
		SELECT stock_id, stock_symbol, name, current_price
		FROM stocks
		WHERE stock_id = $1
		`

	return r.getStock(ctx, "Postgres.GetStock", query, stockID)
}

func (r *Postgres) GetStockBySymbol(ctx context.Context, symbol string) (model.Stock, error) {
	query := `
		SELECT stock_id, stock_symbol, name, current_price
		FROM stocks
		WHERE stock_symbol = $1
		`

	return r.getStock(ctx, "Postgres.GetStockBySymbol", query, symbol)
}

func (r *Postgres) ListStockSymbols(ctx context.Context) (symbols []string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.ListStockSymbols"
	query := `
		SELECT stock_symbol FROM stocks
		ORDER BY stock_symbol
		`

	slog.Debug(op+" start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error(op+" failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug(op+" completed", slog.String("rqID", rqID))
		}
	}()

	err = r.txOrDb(ctx).SelectContext(ctx, &symbols, query)
	if err != nil {
		return nil, err
	}

	return symbols, nil
}

func (r *Postgres) UpdateStockPrices(ctx context.Context, quotes []model.Quote) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.UpdateStockPrices"
	query := `
		UPDATE stocks AS s
		SET current_price = u.price
		FROM UNNEST($1::text[], $2::decimal[]) AS u(symbol, price)
		WHERE s.stock_symbol = u.symbol
		`

	symbols := make([]string, 0, len(quotes))
	prices := make([]decimal.Decimal, 0, len(quotes))
	for _, q := range quotes {
		symbols = append(symbols, q.Symbol)
		prices = append(prices, q.Price)
	}

	slog.Debug(op+" start", slog.String("rqID", rqID), slog.String("query", query), slog.Int("quotes", len(quotes)))
	defer func() {
		if err != nil {
			slog.Error(op+" failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug(op+" completed", slog.String("rqID", rqID))
		}
	}()

	_, err = r.txOrDb(ctx).ExecContext(ctx, query, symbols, prices)
	if err != nil {
		return err
	}

	return nil
}

func (r *Postgres) GetProfile(ctx context.Context, userID string) (profile model.Profile, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetProfile"
	query := `
		SELECT profile_id, email, username, avatar_url, badge, created_at
		FROM profiles
		WHERE profile_id = $1
		`

	slog.Debug(op+" start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			slog.Error(op+" failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug(op+" completed", slog.String("rqID", rqID))
		}
	}()

	dbProfile := dbModel.Profile{}
	err = r.txOrDb(ctx).GetContext(ctx, &dbProfile, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Profile{}, repository.ErrNotFound
		}
		return model.Profile{}, err
	}

	return dbConverter.ConvertProfile(dbProfile), nil
}
