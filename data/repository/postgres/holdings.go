package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/stockleague/stockleague_api/data/repository"
	"github.com/stockleague/stockleague_api/internal/converter/dbConverter"
	"github.com/stockleague/stockleague_api/internal/model"
	"github.com/stockleague/stockleague_api/internal/model/dbModel"
	"github.com/stockleague/stockleague_api/utils"
)

func (r *Postgres) GetHolding(ctx context.Context, portfolioID, stockID int64) (holding model.Holding, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetHolding"
	query := `
		SELECT portfolio_holding_id, portfolio_id, stock_id, quantity, average_buy_price
		FROM portfolio_holdings
		WHERE portfolio_id = $1
		AND stock_id = $2
		`

	slog.Debug(op+" start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			slog.Error(op+" failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug(op+" completed", slog.String("rqID", rqID))
		}
	}()

	dbHolding := dbModel.Holding{}
	err = r.txOrDb(ctx).GetContext(ctx, &dbHolding, query, portfolioID, stockID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Holding{}, repository.ErrNotFound
		}
		return model.Holding{}, err
	}

	return dbConverter.ConvertHolding(dbHolding), nil
}

func (r *Postgres) InsertHolding(ctx context.Context, holding model.Holding) (holdingID int64, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.InsertHolding"
	query := `
		INSERT INTO portfolio_holdings(portfolio_id, stock_id, quantity, average_buy_price)
		VALUES($1, $2, $3, $4)
		RETURNING portfolio_holding_id
		`

	slog.Debug(op+" start", slog.String("rqID", rqID), slog.String("query", query), slog.Any("holding", holding))
	defer func() {
		if err != nil {
			slog.Error(op+" failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug(op+" completed", slog.String("rqID", rqID))
		}
	}()

	err = r.txOrDb(ctx).QueryRowxContext(ctx, query, holding.PortfolioID, holding.StockID, holding.Quantity, holding.AverageBuyPrice).Scan(&holdingID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // unique_violation
				return 0, repository.ErrAlreadyExists
			}
		}
		return 0, err
	}

	return holdingID, nil
}

func (r *Postgres) UpdateHolding(ctx context.Context, holdingID int64, quantity int, averageBuyPrice decimal.Decimal) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.UpdateHolding"
	params := map[string]any{
		"holdingID":       holdingID,
		"quantity":        quantity,
		"averageBuyPrice": averageBuyPrice,
	}
	query := `
		UPDATE portfolio_holdings
		SET
			quantity = $1,
			average_buy_price = $2
		WHERE portfolio_holding_id = $3
		`

	slog.Debug(op+" start", slog.String("rqID", rqID), slog.String("query", query), slog.Any("params", params))
	defer func() {
		if err != nil {
			slog.Error(op+" failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug(op+" completed", slog.String("rqID", rqID))
		}
	}()

	res, err := r.txOrDb(ctx).ExecContext(ctx, query, quantity, averageBuyPrice, holdingID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *Postgres) GetHoldingsWithStocks(ctx context.Context, portfolioID int64) (holdings []model.HoldingView, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetHoldingsWithStocks"
	query := `
		SELECT h.portfolio_holding_id, h.portfolio_id, h.stock_id, h.quantity, h.average_buy_price,
			s.stock_symbol, s.name, s.current_price
		FROM portfolio_holdings h
		JOIN stocks s USING(stock_id)
		WHERE h.portfolio_id = $1
		ORDER BY s.stock_symbol
		`

	slog.Debug(op+" start", slog.String("rqID", rqID), slog.String("query", query), slog.Int64("portfolioID", portfolioID))
	defer func() {
		if err != nil {
			slog.Error(op+" failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug(op+" completed", slog.String("rqID", rqID))
		}
	}()

	rows, err := r.txOrDb(ctx).QueryxContext(ctx, query, portfolioID)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	for rows.Next() {
		var h dbModel.HoldingWithStock
		err = rows.StructScan(&h)
		if err != nil {
			return nil, err
		}
		holdings = append(holdings, dbConverter.ConvertHoldingWithStock(h))
	}

	return holdings, nil
}
