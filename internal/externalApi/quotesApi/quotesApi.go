package quotesApi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/stockleague/stockleague_api/config"
	"github.com/stockleague/stockleague_api/internal/externalApi"
	"github.com/stockleague/stockleague_api/internal/model"
	"github.com/stockleague/stockleague_api/utils"
)

// QuotesApi talks to the market data feed that owns stock prices.
type QuotesApi struct {
	client *resty.Client
}

func New(cfg *config.Config) *QuotesApi {
	client := resty.New().
		SetDebug(cfg.API.Debug).
		SetTimeout(cfg.API.Timeout).
		SetBaseURL(cfg.API.QuotesApi.Url)
	return &QuotesApi{client: client}
}

type rawQuote struct {
	Symbol string  `json:"symbol"`
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
}

type rawQuotesResponse struct {
	Quotes []rawQuote `json:"quotes"`
}

func (a *QuotesApi) GetQuotes(ctx context.Context, symbols []string) ([]model.Quote, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	url := "/v1/quotes"
	params := map[string]string{
		"symbols": strings.Join(symbols, ","),
	}

	slog.Debug("start QuotesApi.GetQuotes request", slog.String("rqID", rqID), slog.Int("symbols", len(symbols)))

	resp, err := a.client.R().
		SetHeader("Accept", "application/json").
		SetQueryParams(params).
		Get(url)

	if err != nil {
		slog.Error("error while dialing QuotesApi", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return nil, err
	}

	if resp.StatusCode() == http.StatusNotFound {
		return nil, externalApi.ErrNotFound
	}

	if resp.IsError() {
		err = fmt.Errorf("quotes api returned status %d", resp.StatusCode())
		slog.Error("QuotesApi bad status", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return nil, err
	}

	rawResp := rawQuotesResponse{}
	err = json.Unmarshal(resp.Body(), &rawResp)
	if err != nil {
		slog.Error("can't unmarshall response into rawQuotesResponse", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return nil, err
	}

	quotes := make([]model.Quote, 0, len(rawResp.Quotes))
	for _, raw := range rawResp.Quotes {
		if raw.Symbol == "" {
			return nil, fmt.Errorf("quote without symbol in feed response")
		}
		quotes = append(quotes, model.Quote{
			Symbol: raw.Symbol,
			Name:   raw.Name,
			Price:  decimal.NewFromFloat(raw.Price),
		})
	}

	slog.Debug("QuotesApi.GetQuotes request complete", slog.String("rqID", rqID), slog.Int("quotes", len(quotes)))

	return quotes, nil
}

func (a *QuotesApi) GetQuote(ctx context.Context, symbol string) (model.Quote, error) {
	quotes, err := a.GetQuotes(ctx, []string{symbol})
	if err != nil {
		return model.Quote{}, err
	}

	if len(quotes) == 0 {
		return model.Quote{}, externalApi.ErrNotFound
	}

	if len(quotes) != 1 {
		return model.Quote{}, fmt.Errorf("unexpected quotes count %d, expected only 1 element", len(quotes))
	}

	return quotes[0], nil
}
