package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"westrates-service/internal/domain"

	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (http.Handler, *fakeRateRepo, *fakeUserRepo) {
	t.Helper()
	srv, rr, ur := NewInMemoryServer()
	return NewRouter(srv), rr, ur
}

func adminToken() string  { return "tok|admin@westcambios.com|ADMIN" }
func clientToken() string { return "tok|client@example.com|CLIENT" }

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func seedRate(t *testing.T, rr *fakeRateRepo, from, to domain.Currency, rate float64, ts time.Time) domain.Rate {
	t.Helper()
	r, err := rr.Insert(context.Background(), domain.Rate{From: from, To: to, Rate: rate, Timestamp: ts})
	require.NoError(t, err)
	return r
}

func TestHealthz(t *testing.T) {
	h, _, _ := setup(t)
	rec := doJSON(t, h, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "OK", rec.Body.String())
}

func TestLogin(t *testing.T) {
	h, _, ur := setup(t)
	_, err := ur.Insert(context.Background(), domain.User{
		Email: "admin@westcambios.com", Username: "admin",
		PasswordHash: "hash:secretpass", Active: true,
		Role: domain.RoleAdmin, CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	rec := doJSON(t, h, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "admin@westcambios.com", "password": "secretpass",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "bearer", resp.TokenType)
	require.NotEmpty(t, resp.AccessToken)

	rec = doJSON(t, h, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "admin@westcambios.com", "password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterRateRequiresAdmin(t *testing.T) {
	h, rr, _ := setup(t)
	body := map[string]any{"from_currency": "VES", "to_currency": "USDT", "rate": 36.5}

	rec := doJSON(t, h, http.MethodPost, "/rates/", "", body)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/rates/", clientToken(), body)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/rates/", adminToken(), body)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created rateJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, "VES", created.FromCurrency)
	require.InDelta(t, 36.5, created.Rate, 1e-9)
	require.False(t, created.Timestamp.IsZero())
	require.Len(t, rr.rates, 1)
}

func TestRegisterRateRejectsBadInput(t *testing.T) {
	h, _, _ := setup(t)

	rec := doJSON(t, h, http.MethodPost, "/rates/", adminToken(),
		map[string]any{"from_currency": "EUR", "to_currency": "USDT", "rate": 1.0})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/rates/", adminToken(),
		map[string]any{"from_currency": "VES", "to_currency": "USDT", "rate": -3.0})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetRateByID(t *testing.T) {
	h, rr, _ := setup(t)
	r := seedRate(t, rr, domain.CurrencyVES, domain.CurrencyUSDT, 36.2, time.Now())

	rec := doJSON(t, h, http.MethodGet, "/rates/1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got rateJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, r.ID, got.ID)
	require.Equal(t, "USDT", got.ToCurrency)

	rec = doJSON(t, h, http.MethodGet, "/rates/999", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/rates/abc", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNamedRangeRoutesTakePrecedenceOverID(t *testing.T) {
	h, rr, _ := setup(t)
	seedRate(t, rr, domain.CurrencyVES, domain.CurrencyUSDT, 36.0, time.Now())
	seedRate(t, rr, domain.CurrencyVES, domain.CurrencyUSDT, 35.0, time.Now().AddDate(0, 0, -40))

	rec := doJSON(t, h, http.MethodGet, "/rates/week", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var env ratesEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Equal(t, 1, env.Count)

	rec = doJSON(t, h, http.MethodGet, "/rates/3months", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Equal(t, 2, env.Count)
}

func TestCustomRange(t *testing.T) {
	h, rr, _ := setup(t)
	seedRate(t, rr, domain.CurrencyVES, domain.CurrencyUSDT, 36.0,
		time.Date(2025, 11, 5, 14, 0, 0, 0, time.UTC))

	rec := doJSON(t, h, http.MethodGet, "/rates/custom?start_date=2025-11-01&end_date=2025-11-10", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var env ratesEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Equal(t, 1, env.Count)

	rec = doJSON(t, h, http.MethodGet, "/rates/custom?start_date=2025-11-10&end_date=2025-11-01", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/rates/custom?start_date=05-11-2025&end_date=2025-11-10", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLatestByPair(t *testing.T) {
	h, rr, _ := setup(t)
	base := time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		seedRate(t, rr, domain.CurrencyBRL, domain.CurrencyVES, 6.0+float64(i), base.Add(time.Duration(i)*time.Hour))
	}

	rec := doJSON(t, h, http.MethodGet, "/rates/latest?from=BRL&to=VES&limit=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var env ratesEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Equal(t, 2, env.Count)
	require.InDelta(t, 8.0, env.Rates[0].Rate, 1e-9)

	rec = doJSON(t, h, http.MethodGet, "/rates/latest?from=BRL&to=XYZ", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateAndDeleteRate(t *testing.T) {
	h, rr, _ := setup(t)
	seedRate(t, rr, domain.CurrencyVES, domain.CurrencyUSDT, 36.0, time.Now())

	rec := doJSON(t, h, http.MethodPatch, "/rates/1", adminToken(), map[string]any{"rate": 37.5})
	require.Equal(t, http.StatusOK, rec.Code)
	var got rateJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.InDelta(t, 37.5, got.Rate, 1e-9)
	require.Equal(t, "VES", got.FromCurrency)

	rec = doJSON(t, h, http.MethodDelete, "/rates/1", clientToken(), nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/rates/1", adminToken(), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/rates/1", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserLifecycle(t *testing.T) {
	h, _, _ := setup(t)

	body := map[string]any{
		"email": "Maria@Example.com", "username": "maria",
		"password": "longenough", "role": "EMPLOYEE",
	}
	rec := doJSON(t, h, http.MethodPost, "/users/", adminToken(), body)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created userJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, "maria@example.com", created.Email)
	require.True(t, created.Active)

	rec = doJSON(t, h, http.MethodPost, "/users/", adminToken(), body)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/users/?role=EMPLOYEE", "tok|m@x.com|MANAGER", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/users/?role=EMPLOYEE", clientToken(), nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/users/1/deactivate", adminToken(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var deactivated userJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &deactivated))
	require.False(t, deactivated.Active)

	rec = doJSON(t, h, http.MethodDelete, "/users/1", adminToken(), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/users/1", adminToken(), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserShortPasswordRejected(t *testing.T) {
	h, _, _ := setup(t)
	rec := doJSON(t, h, http.MethodPost, "/users/", adminToken(), map[string]any{
		"email": "a@b.com", "username": "a", "password": "short", "role": "CLIENT",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInvalidBearerToken(t *testing.T) {
	h, _, _ := setup(t)
	rec := doJSON(t, h, http.MethodGet, "/users/?role=CLIENT", "garbage", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
