package tradingService

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/stockleague/stockleague_api/config"
	"github.com/stockleague/stockleague_api/data/repository"
	"github.com/stockleague/stockleague_api/internal/externalApi"
	"github.com/stockleague/stockleague_api/internal/model"
	"github.com/stockleague/stockleague_api/internal/service"
	"github.com/stockleague/stockleague_api/utils"
)

type Repository interface {
	WithinTransaction(ctx context.Context, tFunc func(ctx context.Context) error) error

	GetPortfolio(ctx context.Context, portfolioID int64) (model.Portfolio, error)
	LockPortfolio(ctx context.Context, portfolioID int64) (model.Portfolio, error)
	FindPortfolio(ctx context.Context, userID string, scope model.PortfolioScope) (model.Portfolio, error)
	LockLatestPortfolio(ctx context.Context, userID string, scope model.PortfolioScope) (model.Portfolio, error)
	CreatePortfolio(ctx context.Context, userID string, scope model.PortfolioScope, startingBalance decimal.Decimal) (model.Portfolio, error)
	DebitReserve(ctx context.Context, portfolioID int64, cost decimal.Decimal) (decimal.Decimal, error)

	GetHolding(ctx context.Context, portfolioID, stockID int64) (model.Holding, error)
	InsertHolding(ctx context.Context, holding model.Holding) (int64, error)
	UpdateHolding(ctx context.Context, holdingID int64, quantity int, averageBuyPrice decimal.Decimal) error
	GetHoldingsWithStocks(ctx context.Context, portfolioID int64) ([]model.HoldingView, error)

	InsertTransaction(ctx context.Context, trade model.Transaction) (int64, error)
	GetTransactions(ctx context.Context, portfolioID int64) ([]model.Transaction, error)

	GetStock(ctx context.Context, stockID int64) (model.Stock, error)
	GetStockBySymbol(ctx context.Context, symbol string) (model.Stock, error)
	ListStockSymbols(ctx context.Context) ([]string, error)
	UpdateStockPrices(ctx context.Context, quotes []model.Quote) error
}

type Cache interface {
	GetQuote(ctx context.Context, symbol string) (model.Quote, error)
	SetQuotes(ctx context.Context, quotes []model.Quote) error
}

type QuotesApi interface {
	GetQuote(ctx context.Context, symbol string) (model.Quote, error)
	GetQuotes(ctx context.Context, symbols []string) ([]model.Quote, error)
}

type ReportGenerator interface {
	Generate(ctx context.Context, report model.PortfolioReport) (fileBytes []byte, fileExtension string, err error)
}

type TradingService struct {
	cfg             *config.Config
	repo            Repository
	cache           Cache
	quotesApi       QuotesApi
	reportGenerator ReportGenerator
}

func New(cfg *config.Config, repo Repository, cache Cache, quotesApi QuotesApi, reportGenerator ReportGenerator) *TradingService {
	return &TradingService{
		cfg:             cfg,
		repo:            repo,
		cache:           cache,
		quotesApi:       quotesApi,
		reportGenerator: reportGenerator,
	}
}

func (s *TradingService) startingBalance() decimal.Decimal {
	return decimal.NewFromInt(s.cfg.StartingBalance)
}

// ResolvePortfolio finds the user's portfolio for the given scope, creating
// one with the starting bankroll on first use. Repeated calls return the
// same portfolio; should duplicate rows exist the most recently created one
// wins.
func (s *TradingService) ResolvePortfolio(ctx context.Context, userID string, scope model.PortfolioScope) (portfolio model.Portfolio, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "TradingService.ResolvePortfolio"

	slog.Debug(op+" start", slog.String("rqID", rqID), slog.String("userID", userID), slog.Any("scope", scope))
	defer func() {
		slog.Debug(op+" finished", slog.String("rqID", rqID), slog.String("userID", userID))
	}()

	if userID == "" {
		return model.Portfolio{}, service.ErrMissingUser
	}
	if !scope.IsSolo && scope.LeagueID <= 0 {
		return model.Portfolio{}, service.ErrInvalidScope
	}

	portfolio, err = s.repo.FindPortfolio(ctx, userID, scope)
	if err == nil {
		return portfolio, nil
	}

	if !errors.Is(err, repository.ErrNotFound) {
		slog.Error("got error from repo.FindPortfolio", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.Portfolio{}, fmt.Errorf("portfolio lookup: %w", err)
	}

	portfolio, err = s.repo.CreatePortfolio(ctx, userID, scope, s.startingBalance())
	if err != nil {
		// lost the creation race, somebody else's row is fine too
		if errors.Is(err, repository.ErrAlreadyExists) {
			return s.repo.FindPortfolio(ctx, userID, scope)
		}
		slog.Error("got error from repo.CreatePortfolio", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.Portfolio{}, fmt.Errorf("portfolio creation: %w", err)
	}

	return portfolio, nil
}

// lockTargetPortfolio resolves the buy target inside the surrounding
// transaction, taking a row lock so concurrent buys serialize.
func (s *TradingService) lockTargetPortfolio(ctx context.Context, params model.BuyParams) (model.Portfolio, error) {
	if params.PortfolioID != 0 {
		portfolio, err := s.repo.LockPortfolio(ctx, params.PortfolioID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return model.Portfolio{}, service.ErrPortfolioNotFound
			}
			return model.Portfolio{}, fmt.Errorf("portfolio lookup: %w", err)
		}
		if portfolio.UserID != params.UserID {
			return model.Portfolio{}, service.ErrOwnershipMismatch
		}
		return portfolio, nil
	}

	portfolio, err := s.repo.LockLatestPortfolio(ctx, params.UserID, params.Scope)
	if err == nil {
		return portfolio, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return model.Portfolio{}, fmt.Errorf("portfolio lookup: %w", err)
	}

	portfolio, err = s.repo.CreatePortfolio(ctx, params.UserID, params.Scope, s.startingBalance())
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return s.repo.LockLatestPortfolio(ctx, params.UserID, params.Scope)
		}
		return model.Portfolio{}, fmt.Errorf("portfolio creation: %w", err)
	}
	return portfolio, nil
}

// Buy executes one purchase: funds check, reserve debit, holding merge with
// weighted average cost recalculation, and an append-only transaction row.
// All steps run in a single database transaction.
func (s *TradingService) Buy(ctx context.Context, params model.BuyParams) (result model.TradeResult, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "TradingService.Buy"

	slog.Debug(op+" start", slog.String("rqID", rqID), slog.String("userID", params.UserID), slog.Int64("stockID", params.StockID))
	defer func() {
		if err != nil {
			slog.Warn(op+" failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug(op+" finished", slog.String("rqID", rqID), slog.Int64("transactionID", result.TransactionID))
		}
	}()

	if params.UserID == "" {
		return model.TradeResult{}, service.ErrMissingUser
	}
	if params.StockID <= 0 {
		return model.TradeResult{}, service.ErrInvalidStock
	}
	if !params.Price.IsPositive() {
		return model.TradeResult{}, service.ErrInvalidPrice
	}
	if params.PortfolioID == 0 && !params.Scope.IsSolo && params.Scope.LeagueID <= 0 {
		return model.TradeResult{}, service.ErrInvalidScope
	}

	quantity := params.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 {
		return model.TradeResult{}, service.ErrInvalidQuantity
	}

	cost := params.Price.Mul(decimal.NewFromInt(int64(quantity)))

	err = s.repo.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetStock(ctx, params.StockID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return service.ErrStockNotFound
			}
			return fmt.Errorf("stock lookup: %w", err)
		}

		portfolio, err := s.lockTargetPortfolio(ctx, params)
		if err != nil {
			return err
		}

		if portfolio.ReserveValue.LessThan(cost) {
			return service.ErrInsufficientFunds
		}

		newReserve, err := s.repo.DebitReserve(ctx, portfolio.PortfolioID, cost)
		if err != nil {
			if errors.Is(err, repository.ErrReserveTooLow) {
				return service.ErrInsufficientFunds
			}
			return fmt.Errorf("reserve debit: %w", err)
		}

		holdingID, err := s.mergeHolding(ctx, portfolio.PortfolioID, params.StockID, quantity, params.Price)
		if err != nil {
			return err
		}

		transactionID, err := s.repo.InsertTransaction(ctx, model.Transaction{
			PortfolioID: portfolio.PortfolioID,
			StockID:     params.StockID,
			Quantity:    quantity,
			Price:       params.Price,
			Type:        model.TradeTypeBuy,
		})
		if err != nil {
			return fmt.Errorf("transaction insert: %w", err)
		}

		result = model.TradeResult{
			PortfolioID:   portfolio.PortfolioID,
			HoldingID:     holdingID,
			TransactionID: transactionID,
			Reserve:       newReserve,
		}
		return nil
	})

	if err != nil {
		return model.TradeResult{}, err
	}

	return result, nil
}

// mergeHolding folds a buy into the (portfolio, stock) holding. On merge the
// cost basis becomes the quantity-weighted mean of the old basis and the
// fill price.
func (s *TradingService) mergeHolding(ctx context.Context, portfolioID, stockID int64, quantity int, price decimal.Decimal) (int64, error) {
	holding, err := s.repo.GetHolding(ctx, portfolioID, stockID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return 0, fmt.Errorf("holding lookup: %w", err)
		}

		holdingID, err := s.repo.InsertHolding(ctx, model.Holding{
			PortfolioID:     portfolioID,
			StockID:         stockID,
			Quantity:        quantity,
			AverageBuyPrice: price,
		})
		if err != nil {
			return 0, fmt.Errorf("holding insert: %w", err)
		}
		return holdingID, nil
	}

	newQuantity := holding.Quantity + quantity
	oldCost := holding.AverageBuyPrice.Mul(decimal.NewFromInt(int64(holding.Quantity)))
	addedCost := price.Mul(decimal.NewFromInt(int64(quantity)))
	newAverage := oldCost.Add(addedCost).Div(decimal.NewFromInt(int64(newQuantity)))

	if err := s.repo.UpdateHolding(ctx, holding.HoldingID, newQuantity, newAverage); err != nil {
		return 0, fmt.Errorf("holding update: %w", err)
	}

	return holding.HoldingID, nil
}

// Sell is reserved in the transaction schema but has no workflow yet.
func (s *TradingService) Sell(ctx context.Context, params model.BuyParams) (model.TradeResult, error) {
	return model.TradeResult{}, service.ErrNotImplemented
}

// GetPortfolioView is a pure read: a user who never traded in the scope gets
// ErrPortfolioNotFound. Portfolios come into existence through buys and
// league joins only.
func (s *TradingService) GetPortfolioView(ctx context.Context, userID string, scope model.PortfolioScope) (view model.PortfolioView, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "TradingService.GetPortfolioView"

	slog.Debug(op+" start", slog.String("rqID", rqID), slog.String("userID", userID))
	defer func() {
		slog.Debug(op+" finished", slog.String("rqID", rqID), slog.String("userID", userID))
	}()

	if userID == "" {
		return model.PortfolioView{}, service.ErrMissingUser
	}
	if !scope.IsSolo && scope.LeagueID <= 0 {
		return model.PortfolioView{}, service.ErrInvalidScope
	}

	portfolio, err := s.repo.FindPortfolio(ctx, userID, scope)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.PortfolioView{}, service.ErrPortfolioNotFound
		}
		slog.Error("got error from repo.FindPortfolio", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.PortfolioView{}, err
	}

	holdings, err := s.repo.GetHoldingsWithStocks(ctx, portfolio.PortfolioID)
	if err != nil {
		slog.Error("got error from repo.GetHoldingsWithStocks", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.PortfolioView{}, err
	}

	return model.PortfolioView{Portfolio: portfolio, Holdings: holdings}, nil
}

func (s *TradingService) ListTransactions(ctx context.Context, userID string, portfolioID int64) (transactions []model.Transaction, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "TradingService.ListTransactions"

	slog.Debug(op+" start", slog.String("rqID", rqID), slog.Int64("portfolioID", portfolioID))
	defer func() {
		slog.Debug(op+" finished", slog.String("rqID", rqID), slog.Int64("portfolioID", portfolioID))
	}()

	portfolio, err := s.repo.GetPortfolio(ctx, portfolioID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, service.ErrPortfolioNotFound
		}
		return nil, err
	}

	if portfolio.UserID != userID {
		return nil, service.ErrOwnershipMismatch
	}

	return s.repo.GetTransactions(ctx, portfolioID)
}

// GetStockBySymbol returns the stock row, preferring a cached feed quote
// for the price when one is fresh. On a cache miss it asks the feed for the
// single symbol; feed failures leave the stored price in place.
func (s *TradingService) GetStockBySymbol(ctx context.Context, symbol string) (stock model.Stock, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "TradingService.GetStockBySymbol"

	slog.Debug(op+" start", slog.String("rqID", rqID), slog.String("symbol", symbol))
	defer func() {
		slog.Debug(op+" finished", slog.String("rqID", rqID), slog.String("symbol", symbol))
	}()

	stock, err = s.repo.GetStockBySymbol(ctx, symbol)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Stock{}, service.ErrStockNotFound
		}
		return model.Stock{}, err
	}

	quote, err := s.cache.GetQuote(ctx, symbol)
	if err == nil && quote.Price.IsPositive() {
		stock.CurrentPrice = quote.Price
		return stock, nil
	}

	quote, err = s.quotesApi.GetQuote(ctx, symbol)
	if err != nil {
		if !errors.Is(err, externalApi.ErrNotFound) {
			slog.Warn("got error from quotesApi.GetQuote", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
		return stock, nil
	}

	if quote.Price.IsPositive() {
		stock.CurrentPrice = quote.Price
		if cacheErr := s.cache.SetQuotes(ctx, []model.Quote{quote}); cacheErr != nil {
			slog.Warn("got error from cache.SetQuotes", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", cacheErr.Error()))
		}
	}

	return stock, nil
}

// BuildPortfolioReport renders the portfolio's holdings and transaction
// history as a downloadable workbook.
func (s *TradingService) BuildPortfolioReport(ctx context.Context, userID string, portfolioID int64) (fileBytes []byte, fileExtension string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "TradingService.BuildPortfolioReport"

	slog.Debug(op+" start", slog.String("rqID", rqID), slog.Int64("portfolioID", portfolioID))
	defer func() {
		slog.Debug(op+" finished", slog.String("rqID", rqID), slog.Int64("portfolioID", portfolioID))
	}()

	portfolio, err := s.repo.GetPortfolio(ctx, portfolioID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", service.ErrPortfolioNotFound
		}
		return nil, "", err
	}

	if portfolio.UserID != userID {
		return nil, "", service.ErrOwnershipMismatch
	}

	holdings, err := s.repo.GetHoldingsWithStocks(ctx, portfolioID)
	if err != nil {
		return nil, "", err
	}

	transactions, err := s.repo.GetTransactions(ctx, portfolioID)
	if err != nil {
		return nil, "", err
	}

	return s.reportGenerator.Generate(ctx, model.PortfolioReport{
		Portfolio:    portfolio,
		Holdings:     holdings,
		Transactions: transactions,
	})
}

// RefreshStockPrices pulls current quotes from the market data feed for all
// known symbols, writes them through to the stocks table and warms the
// quote cache. Runs as a scheduled job.
func (s *TradingService) RefreshStockPrices(ctx context.Context) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "TradingService.RefreshStockPrices"

	slog.Debug(op+" start", slog.String("rqID", rqID))
	defer func() {
		slog.Debug(op+" finished", slog.String("rqID", rqID))
	}()

	symbols, err := s.repo.ListStockSymbols(ctx)
	if err != nil {
		slog.Error("got error from repo.ListStockSymbols", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	if len(symbols) == 0 {
		return nil
	}

	quotes, err := s.quotesApi.GetQuotes(ctx, symbols)
	if err != nil {
		if errors.Is(err, externalApi.ErrNotFound) {
			slog.Warn("quotes feed has no data for known symbols", slog.String("rqID", rqID), slog.String("op", op))
			return nil
		}
		slog.Error("got error from quotesApi.GetQuotes", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	if err = s.repo.UpdateStockPrices(ctx, quotes); err != nil {
		slog.Error("got error from repo.UpdateStockPrices", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	if err = s.cache.SetQuotes(ctx, quotes); err != nil {
		// cache warmup is best effort, prices are already persisted
		slog.Warn("got error from cache.SetQuotes", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}

	return nil
}
