package binance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"westrates-service/internal/application"
	"westrates-service/internal/infrastructure/httpx"
	"westrates-service/internal/infrastructure/logx"

	"go.uber.org/zap"
)

const (
	successCode = "000000"
	maxRows     = 20

	defaultTradeType = "BUY"
)

// Client fetches quoted prices from the Binance P2P advertisement search.
type Client struct {
	BaseURL string
	HTTP    *httpx.Client
}

var _ application.QuoteSource = (*Client)(nil)

type searchRequest struct {
	Fiat                      string   `json:"fiat"`
	Page                      int      `json:"page"`
	Rows                      int      `json:"rows"`
	TradeType                 string   `json:"tradeType"`
	Asset                     string   `json:"asset"`
	Countries                 []string `json:"countries"`
	ProMerchantAds            bool     `json:"proMerchantAds"`
	ShieldMerchantAds         bool     `json:"shieldMerchantAds"`
	FilterType                string   `json:"filterType"`
	Periods                   []any    `json:"periods"`
	AdditionalKycVerifyFilter int      `json:"additionalKycVerifyFilter"`
	PayTypes                  []string `json:"payTypes"`
	Classifies                []string `json:"classifies"`
	TradedWith                bool     `json:"tradedWith"`
	Followed                  bool     `json:"followed"`
}

type searchResponse struct {
	Code string `json:"code"`
	Data []struct {
		Adv struct {
			Price string `json:"price"`
		} `json:"adv"`
	} `json:"data"`
}

// FetchPrices issues one advertisement search and returns the flat list of
// quoted prices. Rows above 20 are a configuration error rejected before
// any network I/O. Unreachable or unparsable upstream maps to ErrTransport;
// a well-formed but unusable response maps to ErrEmptySample. Prices are
// never fabricated from a bad envelope.
func (c *Client) FetchPrices(ctx context.Context, q application.QuoteQuery) ([]float64, error) {
	if q.Rows > maxRows {
		return nil, fmt.Errorf("%w: rows %d exceeds maximum %d", application.ErrValidation, q.Rows, maxRows)
	}
	if q.Rows <= 0 {
		q.Rows = maxRows
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.TradeType == "" {
		q.TradeType = defaultTradeType
	}

	log := logx.L().With(
		zap.String("source", "binance_p2p"),
		zap.String("fiat", q.Fiat),
		zap.String("asset", q.Asset),
		zap.String("trade_type", q.TradeType),
	)

	body := searchRequest{
		Fiat:       q.Fiat,
		Page:       q.Page,
		Rows:       q.Rows,
		TradeType:  q.TradeType,
		Asset:      q.Asset,
		Countries:  []string{},
		FilterType: "tradable",
		Periods:    []any{},
		PayTypes:   []string{},
		Classifies: []string{"mass", "profession", "fiat_trade"},
	}
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("binance: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("binance: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	client := c.HTTP
	if client == nil {
		client = &httpx.Client{}
	}
	var out searchResponse
	if err := client.DoJSON(ctx, req, &out); err != nil {
		log.Warn("binance.fetch_failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", application.ErrTransport, err)
	}

	if out.Code != successCode || len(out.Data) == 0 {
		log.Warn("binance.empty_response",
			zap.String("code", out.Code),
			zap.Int("advs", len(out.Data)),
		)
		return nil, fmt.Errorf("%w: code=%q advs=%d", application.ErrEmptySample, out.Code, len(out.Data))
	}

	prices := make([]float64, 0, len(out.Data))
	for _, item := range out.Data {
		p, err := strconv.ParseFloat(item.Adv.Price, 64)
		if err != nil {
			log.Warn("binance.unparsable_price", zap.String("price", item.Adv.Price))
			continue
		}
		prices = append(prices, p)
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("%w: no parsable prices in %d advs", application.ErrEmptySample, len(out.Data))
	}
	log.Info("binance.prices_collected", zap.Int("count", len(prices)))
	return prices, nil
}
