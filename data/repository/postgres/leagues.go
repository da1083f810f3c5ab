package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/stockleague/stockleague_api/data/repository"
	"github.com/stockleague/stockleague_api/internal/converter/dbConverter"
	"github.com/stockleague/stockleague_api/internal/model"
	"github.com/stockleague/stockleague_api/internal/model/dbModel"
	"github.com/stockleague/stockleague_api/utils"
)

func (r *Postgres) InsertLeague(ctx context.Context, ownerID string, params model.LeagueParams, sectors []string) (leagueID int64, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.InsertLeague"

	// sectors travel as a comma-joined string and land as text[] via
	// string_to_array, which keeps the query portable across sqlx drivers.
	query := `
		INSERT INTO leagues(name, owner_id, start_time, finish_time, has_trading, has_drafting, sectors)
		VALUES($1, $2, $3, $4, $5, $6, string_to_array(NULLIF($7, ''), ','))
		RETURNING league_id
		`

	slog.Debug(op+" start", slog.String("rqID", rqID), slog.String("query", query), slog.String("ownerID", ownerID), slog.String("name", params.Name))
	defer func() {
		if err != nil {
			slog.Error(op+" failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug(op+" completed", slog.String("rqID", rqID))
		}
	}()

	var startTime, finishTime sql.NullTime
	if params.StartTime != nil {
		startTime = sql.NullTime{Time: *params.StartTime, Valid: true}
	}
	if params.FinishTime != nil {
		finishTime = sql.NullTime{Time: *params.FinishTime, Valid: true}
	}

	err = r.txOrDb(ctx).QueryRowxContext(
		ctx,
		query,
		params.Name,
		ownerID,
		startTime,
		finishTime,
		params.HasTrading,
		params.HasDrafting,
		strings.Join(sectors, ","),
	).Scan(&leagueID)

	if err != nil {
		return 0, err
	}

	return leagueID, nil
}

func (r *Postgres) GetLeague(ctx context.Context, leagueID int64) (league model.League, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetLeague"
	query := `
		SELECT league_id, name, owner_id, start_time, finish_time, has_trading, has_drafting,
			array_to_string(sectors, ',') AS sectors, created_at
		FROM leagues
		WHERE league_id = $1
		`

	slog.Debug(op+" start", slog.String("rqID", rqID), slog.String("query", query), slog.Int64("leagueID", leagueID))
	defer func() {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			slog.Error(op+" failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug(op+" completed", slog.String("rqID", rqID))
		}
	}()

	dbLeague := dbModel.League{}
	err = r.txOrDb(ctx).GetContext(ctx, &dbLeague, query, leagueID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.League{}, repository.ErrNotFound
		}
		return model.League{}, err
	}

	return dbConverter.ConvertLeague(dbLeague), nil
}

func (r *Postgres) InsertDraft(ctx context.Context, leagueID int64, totalRounds int, currentPortfolioID int64) (draftID int64, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.InsertDraft"
	params := map[string]any{
		"leagueID":           leagueID,
		"totalRounds":        totalRounds,
		"currentPortfolioID": currentPortfolioID,
	}
	query := `
		INSERT INTO drafts(league_id, total_rounds, current_round, current_pick, current_portfolio_id,
			is_snaking_forward, timer_start_time, is_started, is_ended)
		VALUES($1, $2, 0, 0, $3, true, NULL, false, false)
		RETURNING draft_id
		`

	slog.Debug(op+" start", slog.String("rqID", rqID), slog.String("query", query), slog.Any("params", params))
	defer func() {
		if err != nil {
			slog.Error(op+" failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug(op+" completed", slog.String("rqID", rqID))
		}
	}()

	var portfolioID sql.NullInt64
	if currentPortfolioID != 0 {
		portfolioID = sql.NullInt64{Int64: currentPortfolioID, Valid: true}
	}

	err = r.txOrDb(ctx).QueryRowxContext(ctx, query, leagueID, totalRounds, portfolioID).Scan(&draftID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505": // unique_violation
				return 0, repository.ErrAlreadyExists
			case "23503": // foreign_key_violation
				return 0, repository.ErrMissingReference
			}
		}
		return 0, err
	}

	return draftID, nil
}

func (r *Postgres) GetDraft(ctx context.Context, leagueID int64) (draft model.Draft, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetDraft"
	query := `
		SELECT draft_id, league_id, total_rounds, current_round, current_pick, current_portfolio_id,
			is_snaking_forward, timer_start_time, is_started, is_ended
		FROM drafts
		WHERE league_id = $1
		`

	slog.Debug(op+" start", slog.String("rqID", rqID), slog.String("query", query), slog.Int64("leagueID", leagueID))
	defer func() {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			slog.Error(op+" failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug(op+" completed", slog.String("rqID", rqID))
		}
	}()

	dbDraft := dbModel.Draft{}
	err = r.txOrDb(ctx).GetContext(ctx, &dbDraft, query, leagueID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Draft{}, repository.ErrNotFound
		}
		return model.Draft{}, err
	}

	return dbConverter.ConvertDraft(dbDraft), nil
}
