package binance_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"westrates-service/internal/application"
	"westrates-service/internal/infrastructure/binance"
	"westrates-service/internal/infrastructure/httpx"

	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func newClient(rt roundTripFunc) *binance.Client {
	return &binance.Client{
		BaseURL: "https://p2p.example.com/adv/search",
		HTTP: &httpx.Client{HTTP: &http.Client{
			Timeout:   2 * time.Second,
			Transport: rt,
		}},
	}
}

func jsonResponse(body string, code int, r *http.Request) *http.Response {
	return &http.Response{
		StatusCode: code,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
		Request:    r,
	}
}

func TestFetchPrices_HappyPath(t *testing.T) {
	t.Parallel()
	const body = `{"code":"000000","data":[{"adv":{"price":"35.5"}},{"adv":{"price":"36.0"}}]}`
	c := newClient(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(body, 200, r), nil
	})

	prices, err := c.FetchPrices(context.Background(), application.QuoteQuery{Fiat: "VES", Asset: "USDT"})
	require.NoError(t, err)
	require.Equal(t, []float64{35.5, 36.0}, prices)
}

func TestFetchPrices_SendsSearchEnvelope(t *testing.T) {
	t.Parallel()
	var got map[string]any
	c := newClient(func(r *http.Request) (*http.Response, error) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &got))
		return jsonResponse(`{"code":"000000","data":[{"adv":{"price":"1"}}]}`, 200, r), nil
	})

	_, err := c.FetchPrices(context.Background(), application.QuoteQuery{Fiat: "VES", Asset: "USDT"})
	require.NoError(t, err)

	require.Equal(t, "VES", got["fiat"])
	require.Equal(t, "USDT", got["asset"])
	require.Equal(t, "BUY", got["tradeType"])
	require.Equal(t, float64(1), got["page"])
	require.Equal(t, float64(20), got["rows"])
	require.Equal(t, "tradable", got["filterType"])
	require.Equal(t, []any{"mass", "profession", "fiat_trade"}, got["classifies"])
	require.Equal(t, []any{}, got["countries"])
	require.Equal(t, false, got["proMerchantAds"])
	require.Equal(t, false, got["tradedWith"])
}

func TestFetchPrices_RowsAboveLimit_FailsBeforeNetwork(t *testing.T) {
	t.Parallel()
	c := newClient(func(r *http.Request) (*http.Response, error) {
		t.Fatal("no request expected for invalid rows")
		return nil, nil
	})

	_, err := c.FetchPrices(context.Background(), application.QuoteQuery{Fiat: "VES", Asset: "USDT", Rows: 21})
	require.ErrorIs(t, err, application.ErrValidation)
}

func TestFetchPrices_NonJSONBody(t *testing.T) {
	t.Parallel()
	c := newClient(func(r *http.Request) (*http.Response, error) {
		return jsonResponse("<html>cloudflare</html>", 200, r), nil
	})

	_, err := c.FetchPrices(context.Background(), application.QuoteQuery{Fiat: "VES", Asset: "USDT"})
	require.ErrorIs(t, err, application.ErrTransport)
}

func TestFetchPrices_ErrorCode(t *testing.T) {
	t.Parallel()
	c := newClient(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(`{"code":"500001","data":[]}`, 200, r), nil
	})

	_, err := c.FetchPrices(context.Background(), application.QuoteQuery{Fiat: "VES", Asset: "USDT"})
	require.ErrorIs(t, err, application.ErrEmptySample)
}

func TestFetchPrices_EmptyData(t *testing.T) {
	t.Parallel()
	c := newClient(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(`{"code":"000000","data":[]}`, 200, r), nil
	})

	_, err := c.FetchPrices(context.Background(), application.QuoteQuery{Fiat: "VES", Asset: "USDT"})
	require.ErrorIs(t, err, application.ErrEmptySample)
}

func TestFetchPrices_UnparsablePricesSkipped(t *testing.T) {
	t.Parallel()
	const body = `{"code":"000000","data":[{"adv":{"price":"not-a-number"}},{"adv":{"price":"36.0"}}]}`
	c := newClient(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(body, 200, r), nil
	})

	prices, err := c.FetchPrices(context.Background(), application.QuoteQuery{Fiat: "VES", Asset: "USDT"})
	require.NoError(t, err)
	require.Equal(t, []float64{36.0}, prices)
}

func TestFetchPrices_AllPricesUnparsable(t *testing.T) {
	t.Parallel()
	const body = `{"code":"000000","data":[{"adv":{"price":"x"}},{"adv":{"price":"y"}}]}`
	c := newClient(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(body, 200, r), nil
	})

	_, err := c.FetchPrices(context.Background(), application.QuoteQuery{Fiat: "VES", Asset: "USDT"})
	require.ErrorIs(t, err, application.ErrEmptySample)
}
