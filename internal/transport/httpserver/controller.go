package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/stockleague/stockleague_api/internal/model"
	"github.com/stockleague/stockleague_api/internal/service"
	"github.com/stockleague/stockleague_api/utils"
)

type TradingService interface {
	Buy(ctx context.Context, params model.BuyParams) (model.TradeResult, error)
	Sell(ctx context.Context, params model.BuyParams) (model.TradeResult, error)
	GetPortfolioView(ctx context.Context, userID string, scope model.PortfolioScope) (model.PortfolioView, error)
	ListTransactions(ctx context.Context, userID string, portfolioID int64) ([]model.Transaction, error)
	GetStockBySymbol(ctx context.Context, symbol string) (model.Stock, error)
	BuildPortfolioReport(ctx context.Context, userID string, portfolioID int64) (fileBytes []byte, fileExtension string, err error)
}

type LeagueService interface {
	CreateLeague(ctx context.Context, ownerID string, params model.LeagueParams) (model.LeagueResult, error)
	JoinLeague(ctx context.Context, userID string, leagueID int64) (model.JoinResult, error)
	GetLeague(ctx context.Context, leagueID int64) (model.LeagueView, error)
}

type Controller struct {
	tradingService TradingService
	leagueService  LeagueService
}

func NewController(tradingService TradingService, leagueService LeagueService) *Controller {
	return &Controller{
		tradingService: tradingService,
		leagueService:  leagueService,
	}
}

func userIDFromCtx(c *gin.Context) string {
	userID, _ := c.Get("userID")
	s, _ := userID.(string)
	return s
}

// writeError maps service errors onto HTTP statuses, passing the underlying
// message through to the client.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, service.ErrInvalidStock),
		errors.Is(err, service.ErrInvalidPrice),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidScope),
		errors.Is(err, service.ErrEmptyLeagueName),
		errors.Is(err, service.ErrInvalidTimeRange),
		errors.Is(err, service.ErrInvalidDraftRounds),
		errors.Is(err, service.ErrInvalidLeagueID):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrMissingUser):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrOwnershipMismatch):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrPortfolioNotFound),
		errors.Is(err, service.ErrStockNotFound),
		errors.Is(err, service.ErrLeagueNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrAlreadyJoined):
		status = http.StatusConflict
	case errors.Is(err, service.ErrInsufficientFunds):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrNotImplemented):
		status = http.StatusNotImplemented
	}

	c.JSON(status, gin.H{"error": err.Error()})
}

type tradeRequest struct {
	StockID     int64           `json:"stock_id"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Type        string          `json:"type"`
	PortfolioID int64           `json:"portfolio_id"`
	IsSolo      bool            `json:"is_solo"`
	LeagueID    int64           `json:"league_id"`
}

type tradeResponse struct {
	Success       bool   `json:"success"`
	PortfolioID   int64  `json:"portfolio_id"`
	HoldingID     int64  `json:"portfolio_holding_id"`
	TransactionID int64  `json:"transaction_id"`
	Reserve       string `json:"reserve_value"`
}

func (ctrl *Controller) ExecuteTrade(c *gin.Context) {
	ctx := utils.CreateCtxWithRqID(c)

	req := tradeRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	params := model.BuyParams{
		UserID:      userIDFromCtx(c),
		StockID:     req.StockID,
		Price:       req.Price,
		Quantity:    req.Quantity,
		PortfolioID: req.PortfolioID,
		Scope:       model.PortfolioScope{IsSolo: req.IsSolo, LeagueID: req.LeagueID},
	}

	var result model.TradeResult
	var err error

	switch req.Type {
	case "", model.TradeTypeBuy:
		result, err = ctrl.tradingService.Buy(ctx, params)
	case model.TradeTypeSell:
		result, err = ctrl.tradingService.Sell(ctx, params)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown trade type: " + req.Type})
		return
	}

	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, tradeResponse{
		Success:       true,
		PortfolioID:   result.PortfolioID,
		HoldingID:     result.HoldingID,
		TransactionID: result.TransactionID,
		Reserve:       result.Reserve.String(),
	})
}

type holdingResponse struct {
	HoldingID       int64  `json:"portfolio_holding_id"`
	StockID         int64  `json:"stock_id"`
	Symbol          string `json:"stock_symbol"`
	Name            string `json:"name"`
	Quantity        int    `json:"quantity"`
	AverageBuyPrice string `json:"average_buy_price"`
	CurrentPrice    string `json:"current_price"`
}

type portfolioResponse struct {
	PortfolioID  int64             `json:"portfolio_id"`
	UserID       string            `json:"user_id"`
	LeagueID     int64             `json:"league_id,omitempty"`
	IsSolo       bool              `json:"is_solo"`
	TotalValue   string            `json:"total_value"`
	ReserveValue string            `json:"reserve_value"`
	CreatedAt    time.Time         `json:"created_at"`
	Holdings     []holdingResponse `json:"holdings"`
}

func (ctrl *Controller) GetPortfolio(c *gin.Context) {
	ctx := utils.CreateCtxWithRqID(c)

	scope := model.PortfolioScope{}
	scope.IsSolo = c.Query("is_solo") == "true"
	if raw := c.Query("league_id"); raw != "" {
		leagueID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid league_id: " + raw})
			return
		}
		scope.LeagueID = leagueID
	}

	view, err := ctrl.tradingService.GetPortfolioView(ctx, userIDFromCtx(c), scope)
	if err != nil {
		writeError(c, err)
		return
	}

	holdings := make([]holdingResponse, 0, len(view.Holdings))
	for _, h := range view.Holdings {
		holdings = append(holdings, holdingResponse{
			HoldingID:       h.HoldingID,
			StockID:         h.StockID,
			Symbol:          h.Symbol,
			Name:            h.StockName,
			Quantity:        h.Quantity,
			AverageBuyPrice: h.AverageBuyPrice.String(),
			CurrentPrice:    h.CurrentPrice.String(),
		})
	}

	c.JSON(http.StatusOK, portfolioResponse{
		PortfolioID:  view.Portfolio.PortfolioID,
		UserID:       view.Portfolio.UserID,
		LeagueID:     view.Portfolio.LeagueID,
		IsSolo:       view.Portfolio.IsSolo,
		TotalValue:   view.Portfolio.TotalValue.String(),
		ReserveValue: view.Portfolio.ReserveValue.String(),
		CreatedAt:    view.Portfolio.CreatedAt,
		Holdings:     holdings,
	})
}

type transactionResponse struct {
	TransactionID int64     `json:"transaction_id"`
	PortfolioID   int64     `json:"portfolio_id"`
	StockID       int64     `json:"stock_id"`
	Quantity      int       `json:"quantity"`
	Price         string    `json:"price"`
	Type          string    `json:"type"`
	CreatedAt     time.Time `json:"created_at"`
}

func (ctrl *Controller) ListTransactions(c *gin.Context) {
	ctx := utils.CreateCtxWithRqID(c)

	portfolioID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid portfolio id"})
		return
	}

	transactions, err := ctrl.tradingService.ListTransactions(ctx, userIDFromCtx(c), portfolioID)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]transactionResponse, 0, len(transactions))
	for _, t := range transactions {
		resp = append(resp, transactionResponse{
			TransactionID: t.TransactionID,
			PortfolioID:   t.PortfolioID,
			StockID:       t.StockID,
			Quantity:      t.Quantity,
			Price:         t.Price.String(),
			Type:          t.Type,
			CreatedAt:     t.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"transactions": resp})
}

func (ctrl *Controller) DownloadPortfolioReport(c *gin.Context) {
	ctx := utils.CreateCtxWithRqID(c)

	portfolioID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid portfolio id"})
		return
	}

	fileBytes, fileExtension, err := ctrl.tradingService.BuildPortfolioReport(ctx, userIDFromCtx(c), portfolioID)
	if err != nil {
		writeError(c, err)
		return
	}

	fileName := "portfolio_" + strconv.FormatInt(portfolioID, 10) + fileExtension
	c.Header("Content-Disposition", `attachment; filename="`+fileName+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", fileBytes)
}

type stockResponse struct {
	StockID      int64  `json:"stock_id"`
	Symbol       string `json:"stock_symbol"`
	Name         string `json:"name"`
	CurrentPrice string `json:"current_price"`
}

func (ctrl *Controller) GetStock(c *gin.Context) {
	ctx := utils.CreateCtxWithRqID(c)

	stock, err := ctrl.tradingService.GetStockBySymbol(ctx, c.Param("symbol"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, stockResponse{
		StockID:      stock.StockID,
		Symbol:       stock.Symbol,
		Name:         stock.Name,
		CurrentPrice: stock.CurrentPrice.String(),
	})
}

type createLeagueRequest struct {
	Name        string     `json:"name"`
	StartTime   *time.Time `json:"start_time"`
	FinishTime  *time.Time `json:"finish_time"`
	HasTrading  bool       `json:"has_trading"`
	HasDrafting bool       `json:"has_drafting"`
	DraftRounds int        `json:"draft_rounds"`
	Sectors     string     `json:"sectors"`
}

type createLeagueResponse struct {
	LeagueID    int64  `json:"league_id"`
	PortfolioID int64  `json:"portfolio_id"`
	DraftID     int64  `json:"draft_id,omitempty"`
	DraftError  string `json:"draft_error,omitempty"`
}

func (ctrl *Controller) CreateLeague(c *gin.Context) {
	ctx := utils.CreateCtxWithRqID(c)

	req := createLeagueRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	result, err := ctrl.leagueService.CreateLeague(ctx, userIDFromCtx(c), model.LeagueParams{
		Name:        req.Name,
		StartTime:   req.StartTime,
		FinishTime:  req.FinishTime,
		HasTrading:  req.HasTrading,
		HasDrafting: req.HasDrafting,
		DraftRounds: req.DraftRounds,
		Sectors:     req.Sectors,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, createLeagueResponse{
		LeagueID:    result.LeagueID,
		PortfolioID: result.PortfolioID,
		DraftID:     result.DraftID,
		DraftError:  result.DraftError,
	})
}

func (ctrl *Controller) JoinLeague(c *gin.Context) {
	ctx := utils.CreateCtxWithRqID(c)

	leagueID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid league id"})
		return
	}

	result, err := ctrl.leagueService.JoinLeague(ctx, userIDFromCtx(c), leagueID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"league_id":    result.LeagueID,
		"portfolio_id": result.PortfolioID,
	})
}

type draftResponse struct {
	DraftID            int64      `json:"draft_id"`
	TotalRounds        int        `json:"total_rounds"`
	CurrentRound       int        `json:"current_round"`
	CurrentPick        int        `json:"current_pick"`
	CurrentPortfolioID int64      `json:"current_portfolio_id,omitempty"`
	IsSnakingForward   bool       `json:"is_snaking_forward"`
	TimerStartTime     *time.Time `json:"timer_start_time,omitempty"`
	IsStarted          bool       `json:"is_started"`
	IsEnded            bool       `json:"is_ended"`
}

type leagueResponse struct {
	LeagueID    int64          `json:"league_id"`
	Name        string         `json:"name"`
	OwnerID     string         `json:"owner_id"`
	OwnerName   string         `json:"owner_name,omitempty"`
	StartTime   *time.Time     `json:"start_time,omitempty"`
	FinishTime  *time.Time     `json:"finish_time,omitempty"`
	HasTrading  bool           `json:"has_trading"`
	HasDrafting bool           `json:"has_drafting"`
	Sectors     []string       `json:"sectors,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	Draft       *draftResponse `json:"draft,omitempty"`
}

func (ctrl *Controller) GetLeague(c *gin.Context) {
	ctx := utils.CreateCtxWithRqID(c)

	leagueID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid league id"})
		return
	}

	view, err := ctrl.leagueService.GetLeague(ctx, leagueID)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := leagueResponse{
		LeagueID:    view.League.LeagueID,
		Name:        view.League.Name,
		OwnerID:     view.League.OwnerID,
		OwnerName:   view.League.OwnerName,
		StartTime:   view.League.StartTime,
		FinishTime:  view.League.FinishTime,
		HasTrading:  view.League.HasTrading,
		HasDrafting: view.League.HasDrafting,
		Sectors:     view.League.Sectors,
		CreatedAt:   view.League.CreatedAt,
	}

	if view.Draft != nil {
		resp.Draft = &draftResponse{
			DraftID:            view.Draft.DraftID,
			TotalRounds:        view.Draft.TotalRounds,
			CurrentRound:       view.Draft.CurrentRound,
			CurrentPick:        view.Draft.CurrentPick,
			CurrentPortfolioID: view.Draft.CurrentPortfolioID,
			IsSnakingForward:   view.Draft.IsSnakingForward,
			TimerStartTime:     view.Draft.TimerStartTime,
			IsStarted:          view.Draft.IsStarted,
			IsEnded:            view.Draft.IsEnded,
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (ctrl *Controller) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
