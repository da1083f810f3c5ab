package leagueService

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/stockleague/stockleague_api/config"
	"github.com/stockleague/stockleague_api/data/repository"
	"github.com/stockleague/stockleague_api/internal/model"
	"github.com/stockleague/stockleague_api/internal/service"
	"github.com/stockleague/stockleague_api/utils"
)

type Repository interface {
	WithinTransaction(ctx context.Context, tFunc func(ctx context.Context) error) error

	InsertLeague(ctx context.Context, ownerID string, params model.LeagueParams, sectors []string) (int64, error)
	GetLeague(ctx context.Context, leagueID int64) (model.League, error)
	InsertDraft(ctx context.Context, leagueID int64, totalRounds int, currentPortfolioID int64) (int64, error)
	GetDraft(ctx context.Context, leagueID int64) (model.Draft, error)

	CreatePortfolio(ctx context.Context, userID string, scope model.PortfolioScope, startingBalance decimal.Decimal) (model.Portfolio, error)

	GetProfile(ctx context.Context, userID string) (model.Profile, error)
}

type LeagueService struct {
	cfg  *config.Config
	repo Repository
}

func New(cfg *config.Config, repo Repository) *LeagueService {
	return &LeagueService{cfg: cfg, repo: repo}
}

func (s *LeagueService) startingBalance() decimal.Decimal {
	return decimal.NewFromInt(s.cfg.StartingBalance)
}

// CreateLeague creates the league together with the owner's portfolio in one
// transaction, then records the draft state when drafting is enabled. The
// draft insert is best effort: the league stands even if it fails.
func (s *LeagueService) CreateLeague(ctx context.Context, ownerID string, params model.LeagueParams) (result model.LeagueResult, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "LeagueService.CreateLeague"

	slog.Debug(op+" start", slog.String("rqID", rqID), slog.String("ownerID", ownerID), slog.String("name", params.Name))
	defer func() {
		if err != nil {
			slog.Warn(op+" failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug(op+" finished", slog.String("rqID", rqID), slog.Int64("leagueID", result.LeagueID))
		}
	}()

	if ownerID == "" {
		return model.LeagueResult{}, service.ErrMissingUser
	}

	params.Name = strings.TrimSpace(params.Name)
	if params.Name == "" {
		return model.LeagueResult{}, service.ErrEmptyLeagueName
	}

	if params.StartTime != nil && params.FinishTime != nil && params.StartTime.After(*params.FinishTime) {
		return model.LeagueResult{}, service.ErrInvalidTimeRange
	}

	if params.HasDrafting && params.DraftRounds < 1 {
		return model.LeagueResult{}, service.ErrInvalidDraftRounds
	}

	sectors := model.ParseSectors(params.Sectors)

	var leagueID, portfolioID int64
	err = s.repo.WithinTransaction(ctx, func(ctx context.Context) error {
		leagueID, err = s.repo.InsertLeague(ctx, ownerID, params, sectors)
		if err != nil {
			return fmt.Errorf("league insert: %w", err)
		}
		if leagueID == 0 {
			return service.ErrNoLeagueID
		}

		portfolio, err := s.repo.CreatePortfolio(ctx, ownerID, model.LeagueScope(leagueID), s.startingBalance())
		if err != nil {
			return fmt.Errorf("owner portfolio insert: %w", err)
		}
		portfolioID = portfolio.PortfolioID

		return nil
	})
	if err != nil {
		return model.LeagueResult{}, err
	}

	result = model.LeagueResult{LeagueID: leagueID, PortfolioID: portfolioID}

	if params.HasDrafting {
		draftID, draftErr := s.repo.InsertDraft(ctx, leagueID, params.DraftRounds, portfolioID)
		if draftErr != nil {
			slog.Warn(
				"draft insert failed, league and portfolio remain",
				slog.String("rqID", rqID),
				slog.String("op", op),
				slog.Int64("leagueID", leagueID),
				slog.String("err", draftErr.Error()),
			)
			result.DraftError = draftErr.Error()
		} else {
			result.DraftID = draftID
		}
	}

	return result, nil
}

// JoinLeague gives the user a portfolio in the league with the starting
// bankroll. Whether the league is open for joining is not checked here.
func (s *LeagueService) JoinLeague(ctx context.Context, userID string, leagueID int64) (result model.JoinResult, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "LeagueService.JoinLeague"

	slog.Debug(op+" start", slog.String("rqID", rqID), slog.String("userID", userID), slog.Int64("leagueID", leagueID))
	defer func() {
		if err != nil {
			slog.Warn(op+" failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug(op+" finished", slog.String("rqID", rqID), slog.Int64("portfolioID", result.PortfolioID))
		}
	}()

	if userID == "" {
		return model.JoinResult{}, service.ErrMissingUser
	}
	if leagueID <= 0 {
		return model.JoinResult{}, service.ErrInvalidLeagueID
	}

	portfolio, err := s.repo.CreatePortfolio(ctx, userID, model.LeagueScope(leagueID), s.startingBalance())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyExists):
			return model.JoinResult{}, service.ErrAlreadyJoined
		case errors.Is(err, repository.ErrMissingReference):
			return model.JoinResult{}, service.ErrLeagueNotFound
		}
		return model.JoinResult{}, err
	}

	return model.JoinResult{LeagueID: leagueID, PortfolioID: portfolio.PortfolioID}, nil
}

// GetLeague returns the league with its draft state. The owner's display
// name is looked up best effort and omitted when the profile is missing.
func (s *LeagueService) GetLeague(ctx context.Context, leagueID int64) (view model.LeagueView, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "LeagueService.GetLeague"

	slog.Debug(op+" start", slog.String("rqID", rqID), slog.Int64("leagueID", leagueID))
	defer func() {
		slog.Debug(op+" finished", slog.String("rqID", rqID), slog.Int64("leagueID", leagueID))
	}()

	league, err := s.repo.GetLeague(ctx, leagueID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.LeagueView{}, service.ErrLeagueNotFound
		}
		return model.LeagueView{}, err
	}

	profile, profileErr := s.repo.GetProfile(ctx, league.OwnerID)
	if profileErr == nil {
		league.OwnerName = profile.Username
	} else if !errors.Is(profileErr, repository.ErrNotFound) {
		slog.Warn("owner profile lookup failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", profileErr.Error()))
	}

	view = model.LeagueView{League: league}

	if league.HasDrafting {
		draft, draftErr := s.repo.GetDraft(ctx, leagueID)
		if draftErr == nil {
			view.Draft = &draft
		} else if !errors.Is(draftErr, repository.ErrNotFound) {
			slog.Warn("draft lookup failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", draftErr.Error()))
		}
	}

	return view, nil
}
