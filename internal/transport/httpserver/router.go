package httpserver

import (
	"github.com/gin-gonic/gin"

	"github.com/stockleague/stockleague_api/internal/transport/httpserver/middleware"
)

// NewRouter wires the HTTP routes. Every /api route requires the caller
// identity header set by the auth gateway; /health stays public.
func NewRouter(ctrl *Controller, debug bool) *gin.Engine {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.Logger())

	router.GET("/health", ctrl.Health)

	api := router.Group("/api", middleware.Identity())
	{
		api.GET("/stocks/:symbol", ctrl.GetStock)
		api.POST("/trades", ctrl.ExecuteTrade)
		api.GET("/portfolio", ctrl.GetPortfolio)
		api.GET("/portfolios/:id/transactions", ctrl.ListTransactions)
		api.GET("/portfolios/:id/report", ctrl.DownloadPortfolioReport)
		api.POST("/leagues", ctrl.CreateLeague)
		api.GET("/leagues/:id", ctrl.GetLeague)
		api.POST("/leagues/:id/join", ctrl.JoinLeague)
	}

	return router
}
