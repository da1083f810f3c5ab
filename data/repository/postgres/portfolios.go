package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/shopspring/decimal"

	"github.com/stockleague/stockleague_api/data/repository"
	"github.com/stockleague/stockleague_api/internal/converter/dbConverter"
	"github.com/stockleague/stockleague_api/internal/model"
	"github.com/stockleague/stockleague_api/internal/model/dbModel"
	"github.com/stockleague/stockleague_api/utils"
)

const portfolioColumns = `portfolio_id, user_id, league_id, is_solo, total_value, reserve_value, created_at`

func (r *Postgres) getPortfolio(ctx context.Context, op, query string, args ...any) (portfolio model.Portfolio, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	slog.Debug(op+" start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error(op+" failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug(op+" completed", slog.String("rqID", rqID))
		}
	}()

	dbPortfolio := dbModel.Portfolio{}
	err = r.txOrDb(ctx).GetContext(ctx, &dbPortfolio, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Portfolio{}, repository.ErrNotFound
		}
		return model.Portfolio{}, err
	}

	return dbConverter.ConvertPortfolio(dbPortfolio), nil
}

func (r *Postgres) GetPortfolio(ctx context.Context, portfolioID int64) (model.Portfolio, error) {
	query := `
		SELECT ` + portfolioColumns + `
		FROM portfolios
		WHERE portfolio_id = $1
		`

	return r.getPortfolio(ctx, "Postgres.GetPortfolio", query, portfolioID)
}

// LockPortfolio reads the portfolio row with FOR UPDATE. Must be called
// inside WithinTransaction, concurrent buys against the same portfolio
// serialize on this lock.
func (r *Postgres) LockPortfolio(ctx context.Context, portfolioID int64) (model.Portfolio, error) {
	query := `
		SELECT ` + portfolioColumns + `
		FROM portfolios
		WHERE portfolio_id = $1
		FOR UPDATE
		`

	return r.getPortfolio(ctx, "Postgres.LockPortfolio", query, portfolioID)
}

func scopeFilter(scope model.PortfolioScope) (clause string, arg any) {
	if scope.IsSolo {
		return "is_solo = true", nil
	}
	return "league_id = $2", scope.LeagueID
}

func (r *Postgres) findPortfolio(ctx context.Context, op string, userID string, scope model.PortfolioScope, forUpdate bool) (model.Portfolio, error) {
	clause, arg := scopeFilter(scope)

	query := `
		SELECT ` + portfolioColumns + `
		FROM portfolios
		WHERE user_id = $1
		AND ` + clause + `
		ORDER BY created_at DESC
		LIMIT 1
		`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	if arg != nil {
		return r.getPortfolio(ctx, op, query, userID, arg)
	}
	return r.getPortfolio(ctx, op, query, userID)
}

// FindPortfolio returns the user's portfolio for the given scope. Should
// duplicates exist, the most recently created one wins.
func (r *Postgres) FindPortfolio(ctx context.Context, userID string, scope model.PortfolioScope) (model.Portfolio, error) {
	return r.findPortfolio(ctx, "Postgres.FindPortfolio", userID, scope, false)
}

func (r *Postgres) LockLatestPortfolio(ctx context.Context, userID string, scope model.PortfolioScope) (model.Portfolio, error) {
	return r.findPortfolio(ctx, "Postgres.LockLatestPortfolio", userID, scope, true)
}

func (r *Postgres) CreatePortfolio(ctx context.Context, userID string, scope model.PortfolioScope, startingBalance decimal.Decimal) (portfolio model.Portfolio, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.CreatePortfolio"
	query := `
		INSERT INTO portfolios(user_id, league_id, is_solo, total_value, reserve_value)
		VALUES($1, $2, $3, $4, $4)
		RETURNING ` + portfolioColumns

	slog.Debug(op+" start", slog.String("rqID", rqID), slog.String("query", query), slog.String("userID", userID))
	defer func() {
		if err != nil {
			slog.Error(op+" failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug(op+" completed", slog.String("rqID", rqID))
		}
	}()

	var leagueID sql.NullInt64
	if scope.LeagueID != 0 {
		leagueID = sql.NullInt64{Int64: scope.LeagueID, Valid: true}
	}

	dbPortfolio := dbModel.Portfolio{}
	err = r.txOrDb(ctx).GetContext(ctx, &dbPortfolio, query, userID, leagueID, scope.IsSolo, startingBalance)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505": // unique_violation
				return model.Portfolio{}, repository.ErrAlreadyExists
			case "23503": // foreign_key_violation
				return model.Portfolio{}, repository.ErrMissingReference
			}
		}
		return model.Portfolio{}, err
	}

	return dbConverter.ConvertPortfolio(dbPortfolio), nil
}

// DebitReserve subtracts cost from the portfolio's reserve. total_value is
// left untouched, trades move cash into positions without recomputing net
// worth. The conditional guard keeps the reserve from going negative even
// if the caller's funds check raced.
func (r *Postgres) DebitReserve(ctx context.Context, portfolioID int64, cost decimal.Decimal) (newReserve decimal.Decimal, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.DebitReserve"
	query := `
		UPDATE portfolios
		SET reserve_value = reserve_value - $1
		WHERE portfolio_id = $2
		AND reserve_value >= $1
		RETURNING reserve_value
		`

	slog.Debug(op+" start", slog.String("rqID", rqID), slog.String("query", query), slog.Int64("portfolioID", portfolioID))
	defer func() {
		if err != nil {
			slog.Error(op+" failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug(op+" completed", slog.String("rqID", rqID))
		}
	}()

	err = r.txOrDb(ctx).QueryRowxContext(ctx, query, cost, portfolioID).Scan(&newReserve)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Decimal{}, repository.ErrReserveTooLow
		}
		return decimal.Decimal{}, err
	}

	return newReserve, nil
}
