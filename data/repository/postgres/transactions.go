package postgres

import (
	"context"
	"log/slog"

	"github.com/stockleague/stockleague_api/internal/converter/dbConverter"
	"github.com/stockleague/stockleague_api/internal/model"
	"github.com/stockleague/stockleague_api/internal/model/dbModel"
	"github.com/stockleague/stockleague_api/utils"
)

func (r *Postgres) InsertTransaction(ctx context.Context, trade model.Transaction) (transactionID int64, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.InsertTransaction"
	query := `
		INSERT INTO transactions(portfolio_id, stock_id, quantity, price, type)
		VALUES($1, $2, $3, $4, $5)
		RETURNING transaction_id
		`

	slog.Debug(
		op+" start",
		slog.String("rqID", rqID),
		slog.String("query", query),
		slog.Any("trade", trade),
	)
	defer func() {
		if err != nil {
			slog.Error(op+" failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug(op+" completed", slog.String("rqID", rqID))
		}
	}()

	err = r.txOrDb(ctx).QueryRowxContext(
		ctx,
		query,
		trade.PortfolioID,
		trade.StockID,
		trade.Quantity,
		trade.Price,
		trade.Type,
	).Scan(&transactionID)

	if err != nil {
		return 0, err
	}

	return transactionID, nil
}

func (r *Postgres) GetTransactions(ctx context.Context, portfolioID int64) (transactions []model.Transaction, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetTransactions"
	query := `
		SELECT transaction_id, portfolio_id, stock_id, quantity, price, type, created_at
		FROM transactions
		WHERE portfolio_id = $1
		ORDER BY created_at DESC, transaction_id DESC
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
		var trade dbModel.Transaction
		err = rows.StructScan(&trade)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, dbConverter.ConvertTransaction(trade))
	}

	return transactions, nil
}
