package leagueService

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stockleague/stockleague_api/config"
	"github.com/stockleague/stockleague_api/data/repository"
	"github.com/stockleague/stockleague_api/internal/model"
	"github.com/stockleague/stockleague_api/internal/service"
)

type fakeRepo struct {
	mu sync.Mutex

	leagues    map[int64]model.League
	portfolios map[int64]model.Portfolio
	drafts     map[int64]model.Draft
	profiles   map[string]model.Profile

	nextID    int64
	failDraft bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		leagues:    make(map[int64]model.League),
		portfolios: make(map[int64]model.Portfolio),
		drafts:     make(map[int64]model.Draft),
		profiles:   make(map[string]model.Profile),
	}
}

func (r *fakeRepo) id() int64 {
	r.nextID++
	return r.nextID
}

func (r *fakeRepo) WithinTransaction(ctx context.Context, tFunc func(ctx context.Context) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	leagues := make(map[int64]model.League, len(r.leagues))
	for k, v := range r.leagues {
		leagues[k] = v
	}
	portfolios := make(map[int64]model.Portfolio, len(r.portfolios))
	for k, v := range r.portfolios {
		portfolios[k] = v
	}
	nextID := r.nextID

	if err := tFunc(ctx); err != nil {
		r.leagues = leagues
		r.portfolios = portfolios
		r.nextID = nextID
		return err
	}
	return nil
}

func (r *fakeRepo) InsertLeague(ctx context.Context, ownerID string, params model.LeagueParams, sectors []string) (int64, error) {
	league := model.League{
		LeagueID:    r.id(),
		Name:        params.Name,
		OwnerID:     ownerID,
		StartTime:   params.StartTime,
		FinishTime:  params.FinishTime,
		HasTrading:  params.HasTrading,
		HasDrafting: params.HasDrafting,
		Sectors:     sectors,
		CreatedAt:   time.Now(),
	}
	r.leagues[league.LeagueID] = league
	return league.LeagueID, nil
}

func (r *fakeRepo) GetLeague(ctx context.Context, leagueID int64) (model.League, error) {
	league, ok := r.leagues[leagueID]
	if !ok {
		return model.League{}, repository.ErrNotFound
	}
	return league, nil
}

func (r *fakeRepo) InsertDraft(ctx context.Context, leagueID int64, totalRounds int, currentPortfolioID int64) (int64, error) {
	if r.failDraft {
		return 0, errors.New("draft insert refused")
	}
	if _, ok := r.leagues[leagueID]; !ok {
		return 0, repository.ErrMissingReference
	}
	draft := model.Draft{
		DraftID:            r.id(),
		LeagueID:           leagueID,
		TotalRounds:        totalRounds,
		CurrentPortfolioID: currentPortfolioID,
		IsSnakingForward:   true,
	}
	r.drafts[leagueID] = draft
	return draft.DraftID, nil
}

func (r *fakeRepo) GetDraft(ctx context.Context, leagueID int64) (model.Draft, error) {
	draft, ok := r.drafts[leagueID]
	if !ok {
		return model.Draft{}, repository.ErrNotFound
	}
	return draft, nil
}

func (r *fakeRepo) CreatePortfolio(ctx context.Context, userID string, scope model.PortfolioScope, startingBalance decimal.Decimal) (model.Portfolio, error) {
	if !scope.IsSolo {
		if _, ok := r.leagues[scope.LeagueID]; !ok {
			return model.Portfolio{}, repository.ErrMissingReference
		}
	}
	for _, p := range r.portfolios {
		if p.UserID == userID && p.IsSolo == scope.IsSolo && p.LeagueID == scope.LeagueID {
			return model.Portfolio{}, repository.ErrAlreadyExists
		}
	}

	p := model.Portfolio{
		PortfolioID:  r.id(),
		UserID:       userID,
		LeagueID:     scope.LeagueID,
		IsSolo:       scope.IsSolo,
		TotalValue:   startingBalance,
		ReserveValue: startingBalance,
		CreatedAt:    time.Now(),
	}
	r.portfolios[p.PortfolioID] = p
	return p, nil
}

func (r *fakeRepo) GetProfile(ctx context.Context, userID string) (model.Profile, error) {
	profile, ok := r.profiles[userID]
	if !ok {
		return model.Profile{}, repository.ErrNotFound
	}
	return profile, nil
}

func newTestService(repo *fakeRepo) *LeagueService {
	return New(&config.Config{StartingBalance: 10000}, repo)
}

const (
	ownerID  = "3b7c1d2e-1111-4f5a-8b9c-000000000001"
	memberID = "3b7c1d2e-2222-4f5a-8b9c-000000000002"
)

func validParams() model.LeagueParams {
	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	finish := start.AddDate(0, 1, 0)
	return model.LeagueParams{
		Name:        "Autumn Cup",
		StartTime:   &start,
		FinishTime:  &finish,
		HasTrading:  true,
		HasDrafting: true,
		DraftRounds: 5,
		Sectors:     "tech, energy",
	}
}

func TestCreateLeague_CreatesLeaguePortfolioAndDraft(t *testing.T) {
	repo := newFakeRepo()
	srv := newTestService(repo)
	ctx := context.Background()

	result, err := srv.CreateLeague(ctx, ownerID, validParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.LeagueID == 0 || result.PortfolioID == 0 || result.DraftID == 0 {
		t.Fatalf("expected league, portfolio and draft ids, got %+v", result)
	}
	if result.DraftError != "" {
		t.Fatalf("unexpected draft error: %s", result.DraftError)
	}

	portfolio := repo.portfolios[result.PortfolioID]
	if portfolio.UserID != ownerID {
		t.Fatalf("expected owner portfolio, got user %s", portfolio.UserID)
	}
	if portfolio.IsSolo {
		t.Fatal("league portfolio must not be solo")
	}
	if portfolio.LeagueID != result.LeagueID {
		t.Fatalf("expected portfolio bound to league %d, got %d", result.LeagueID, portfolio.LeagueID)
	}
	if !portfolio.ReserveValue.Equal(decimal.NewFromInt(10000)) {
		t.Fatalf("expected starting reserve 10000, got %s", portfolio.ReserveValue.String())
	}

	draft := repo.drafts[result.LeagueID]
	if draft.TotalRounds != 5 {
		t.Fatalf("expected 5 rounds, got %d", draft.TotalRounds)
	}
	if draft.CurrentRound != 0 || draft.CurrentPick != 0 {
		t.Fatalf("expected zeroed draft counters, got round %d pick %d", draft.CurrentRound, draft.CurrentPick)
	}
	if !draft.IsSnakingForward {
		t.Fatal("expected draft to start snaking forward")
	}
	if draft.IsStarted || draft.IsEnded {
		t.Fatal("expected draft not started and not ended")
	}
}

func TestCreateLeague_NoDraftWhenDraftingDisabled(t *testing.T) {
	repo := newFakeRepo()
	srv := newTestService(repo)

	params := validParams()
	params.HasDrafting = false
	params.DraftRounds = 0

	result, err := srv.CreateLeague(context.Background(), ownerID, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.DraftID != 0 {
		t.Fatalf("expected no draft, got id %d", result.DraftID)
	}
	if len(repo.drafts) != 0 {
		t.Fatalf("expected no draft rows, got %d", len(repo.drafts))
	}
}

func TestCreateLeague_DraftFailureIsTolerated(t *testing.T) {
	repo := newFakeRepo()
	repo.failDraft = true
	srv := newTestService(repo)

	result, err := srv.CreateLeague(context.Background(), ownerID, validParams())
	if err != nil {
		t.Fatalf("expected league creation to succeed, got %v", err)
	}

	if result.LeagueID == 0 || result.PortfolioID == 0 {
		t.Fatalf("expected league and portfolio despite draft failure, got %+v", result)
	}
	if result.DraftID != 0 {
		t.Fatalf("expected no draft id, got %d", result.DraftID)
	}
	if result.DraftError == "" {
		t.Fatal("expected draft error to be reported")
	}

	if len(repo.leagues) != 1 || len(repo.portfolios) != 1 {
		t.Fatalf("expected league and portfolio persisted, got %d leagues %d portfolios", len(repo.leagues), len(repo.portfolios))
	}
}

func TestCreateLeague_Validation(t *testing.T) {
	repo := newFakeRepo()
	srv := newTestService(repo)
	ctx := context.Background()

	badTimes := validParams()
	finish := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	start := finish.AddDate(0, 1, 0)
	badTimes.StartTime = &start
	badTimes.FinishTime = &finish

	blankName := validParams()
	blankName.Name = "   "

	badRounds := validParams()
	badRounds.DraftRounds = 0

	cases := []struct {
		name   string
		owner  string
		params model.LeagueParams
		want   error
	}{
		{"missing owner", "", validParams(), service.ErrMissingUser},
		{"blank name", ownerID, blankName, service.ErrEmptyLeagueName},
		{"start after finish", ownerID, badTimes, service.ErrInvalidTimeRange},
		{"drafting without rounds", ownerID, badRounds, service.ErrInvalidDraftRounds},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := srv.CreateLeague(ctx, tc.owner, tc.params); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if len(repo.leagues) != 0 || len(repo.portfolios) != 0 {
		t.Fatalf("expected nothing persisted, got %d leagues %d portfolios", len(repo.leagues), len(repo.portfolios))
	}
}

func TestJoinLeague(t *testing.T) {
	repo := newFakeRepo()
	srv := newTestService(repo)
	ctx := context.Background()

	created, err := srv.CreateLeague(ctx, ownerID, validParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	joined, err := srv.JoinLeague(ctx, memberID, created.LeagueID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if joined.LeagueID != created.LeagueID {
		t.Fatalf("expected league %d, got %d", created.LeagueID, joined.LeagueID)
	}

	portfolio := repo.portfolios[joined.PortfolioID]
	if !portfolio.ReserveValue.Equal(decimal.NewFromInt(10000)) {
		t.Fatalf("expected starting reserve 10000, got %s", portfolio.ReserveValue.String())
	}

	if _, err = srv.JoinLeague(ctx, memberID, created.LeagueID); !errors.Is(err, service.ErrAlreadyJoined) {
		t.Fatalf("expected ErrAlreadyJoined, got %v", err)
	}

	if _, err = srv.JoinLeague(ctx, memberID, 999); !errors.Is(err, service.ErrLeagueNotFound) {
		t.Fatalf("expected ErrLeagueNotFound, got %v", err)
	}

	if _, err = srv.JoinLeague(ctx, "", created.LeagueID); !errors.Is(err, service.ErrMissingUser) {
		t.Fatalf("expected ErrMissingUser, got %v", err)
	}

	if _, err = srv.JoinLeague(ctx, memberID, 0); !errors.Is(err, service.ErrInvalidLeagueID) {
		t.Fatalf("expected ErrInvalidLeagueID, got %v", err)
	}
}

func TestGetLeague(t *testing.T) {
	repo := newFakeRepo()
	repo.profiles[ownerID] = model.Profile{ProfileID: ownerID, Username: "commish"}
	srv := newTestService(repo)
	ctx := context.Background()

	created, err := srv.CreateLeague(ctx, ownerID, validParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	view, err := srv.GetLeague(ctx, created.LeagueID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if view.League.Name != "Autumn Cup" {
		t.Fatalf("unexpected league name %q", view.League.Name)
	}
	if view.League.OwnerName != "commish" {
		t.Fatalf("expected owner name from profile, got %q", view.League.OwnerName)
	}
	if len(view.League.Sectors) != 2 || view.League.Sectors[0] != "tech" || view.League.Sectors[1] != "energy" {
		t.Fatalf("unexpected sectors %v", view.League.Sectors)
	}
	if view.Draft == nil {
		t.Fatal("expected draft state on drafting league")
	}
	if view.Draft.TotalRounds != 5 {
		t.Fatalf("expected 5 rounds, got %d", view.Draft.TotalRounds)
	}

	if _, err = srv.GetLeague(ctx, 999); !errors.Is(err, service.ErrLeagueNotFound) {
		t.Fatalf("expected ErrLeagueNotFound, got %v", err)
	}
}

func TestGetLeague_MissingProfileOmitsOwnerName(t *testing.T) {
	repo := newFakeRepo()
	srv := newTestService(repo)
	ctx := context.Background()

	created, err := srv.CreateLeague(ctx, ownerID, validParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	view, err := srv.GetLeague(ctx, created.LeagueID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.League.OwnerName != "" {
		t.Fatalf("expected empty owner name, got %q", view.League.OwnerName)
	}
}
