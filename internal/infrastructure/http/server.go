package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"westrates-service/internal/application"
	"westrates-service/internal/domain"

	"github.com/go-chi/chi/v5"
)

const dateLayout = "2006-01-02"

type Server struct {
	rates  *application.RatesService
	users  *application.UserService
	tokens application.TokenIssuer
	ping   func(ctx context.Context) error
}

func NewServer(rates *application.RatesService, users *application.UserService, tokens application.TokenIssuer) *Server {
	return &Server{rates: rates, users: users, tokens: tokens}
}

// WithPing installs a readiness probe, typically the database ping.
func (s *Server) WithPing(fn func(ctx context.Context) error) *Server {
	s.ping = fn
	return s
}

type rateJSON struct {
	ID           int64     `json:"id"`
	FromCurrency string    `json:"from_currency"`
	ToCurrency   string    `json:"to_currency"`
	Rate         float64   `json:"rate"`
	Timestamp    time.Time `json:"timestamp"`
}

type ratesEnvelope struct {
	Count int        `json:"count"`
	Rates []rateJSON `json:"rates"`
}

type userJSON struct {
	ID        int64      `json:"id"`
	Email     string     `json:"email"`
	Username  string     `json:"username"`
	Role      string     `json:"role"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func toRateJSON(r domain.Rate) rateJSON {
	return rateJSON{
		ID:           r.ID,
		FromCurrency: string(r.From),
		ToCurrency:   string(r.To),
		Rate:         r.Rate,
		Timestamp:    r.Timestamp,
	}
}

func toRatesEnvelope(rs []domain.Rate) ratesEnvelope {
	out := ratesEnvelope{Count: len(rs), Rates: make([]rateJSON, 0, len(rs))}
	for _, r := range rs {
		out.Rates = append(out.Rates, toRateJSON(r))
	}
	return out
}

func toUserJSON(u domain.User) userJSON {
	return userJSON{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		Role:      string(u.Role),
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// --- auth ---

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	tok, err := s.users.Authenticate(r.Context(), body.Email, body.Password)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": tok.AccessToken,
		"token_type":   "bearer",
		"expires_at":   tok.ExpiresAt,
	})
}

// --- rates ---

func (s *Server) RegisterRate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		FromCurrency string     `json:"from_currency"`
		ToCurrency   string     `json:"to_currency"`
		Rate         float64    `json:"rate"`
		Timestamp    *time.Time `json:"timestamp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	in := application.RateCreate{
		From: domain.Currency(body.FromCurrency),
		To:   domain.Currency(body.ToCurrency),
		Rate: body.Rate,
	}
	if body.Timestamp != nil {
		in.Timestamp = *body.Timestamp
	}
	var idemKey *string
	if k := r.Header.Get("X-Idempotency-Key"); k != "" {
		idemKey = &k
	}
	out, err := s.rates.RegisterRate(r.Context(), in, idemKey)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRateJSON(out))
}

func (s *Server) GetRateByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	out, err := s.rates.GetRateByID(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRateJSON(out))
}

func (s *Server) ListAllRates(w http.ResponseWriter, r *http.Request) {
	out, err := s.rates.ListAllRates(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRatesEnvelope(out))
}

// GetRatesNamed serves the fixed windows: today, week, month, 3months,
// 6months and year.
func (s *Server) GetRatesNamed(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := s.rates.GetRatesNamedRange(r.Context(), name)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRatesEnvelope(out))
	}
}

func (s *Server) GetRatesCustom(w http.ResponseWriter, r *http.Request) {
	start, err := time.Parse(dateLayout, r.URL.Query().Get("start_date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse(dateLayout, r.URL.Query().Get("end_date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "end_date must be YYYY-MM-DD")
		return
	}
	out, err := s.rates.GetRatesByRange(r.Context(), start, end)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRatesEnvelope(out))
}

func (s *Server) GetLatestByPair(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 1
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}
	out, err := s.rates.GetLatestByPair(r.Context(),
		domain.Currency(q.Get("from")), domain.Currency(q.Get("to")), limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRatesEnvelope(out))
}

func (s *Server) UpdateRate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body struct {
		FromCurrency *string  `json:"from_currency"`
		ToCurrency   *string  `json:"to_currency"`
		Rate         *float64 `json:"rate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	patch := application.RateUpdate{Rate: body.Rate}
	if body.FromCurrency != nil {
		c := domain.Currency(*body.FromCurrency)
		patch.From = &c
	}
	if body.ToCurrency != nil {
		c := domain.Currency(*body.ToCurrency)
		patch.To = &c
	}
	out, err := s.rates.UpdateRate(r.Context(), id, patch)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRateJSON(out))
}

func (s *Server) DeleteRate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.rates.DeleteRate(r.Context(), id); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- users ---

func (s *Server) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	out, err := s.users.RegisterUser(r.Context(), application.UserCreate{
		Email:    body.Email,
		Username: body.Username,
		Password: body.Password,
		Role:     domain.Role(body.Role),
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserJSON(out))
}

func (s *Server) GetUserByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	out, err := s.users.GetUserByID(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserJSON(out))
}

// ListUsers filters by role or created-at day range when the query
// parameters are present, otherwise serves everything by role group.
func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if startRaw := q.Get("start_date"); startRaw != "" {
		start, err := time.Parse(dateLayout, startRaw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
			return
		}
		end, err := time.Parse(dateLayout, q.Get("end_date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "end_date must be YYYY-MM-DD")
			return
		}
		out, err := s.users.ListUsersByCreatedRange(r.Context(), start, end)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeUserList(w, out)
		return
	}
	role := q.Get("role")
	if role == "" {
		writeError(w, http.StatusBadRequest, "role or start_date/end_date is required")
		return
	}
	out, err := s.users.ListUsersByRole(r.Context(), domain.Role(role))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeUserList(w, out)
}

func (s *Server) writeUserList(w http.ResponseWriter, users []domain.User) {
	out := make([]userJSON, 0, len(users))
	for _, u := range users {
		out = append(out, toUserJSON(u))
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(out), "users": out})
}

func (s *Server) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body struct {
		Email    *string `json:"email"`
		Username *string `json:"username"`
		Role     *string `json:"role"`
		Active   *bool   `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	patch := application.UserUpdate{
		Email:    body.Email,
		Username: body.Username,
		Active:   body.Active,
	}
	if body.Role != nil {
		role := domain.Role(*body.Role)
		patch.Role = &role
	}
	out, err := s.users.UpdateUser(r.Context(), id, patch)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserJSON(out))
}

func (s *Server) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	out, err := s.users.DeactivateUser(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserJSON(out))
}

func (s *Server) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.users.DeleteUser(r.Context(), id); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- helpers ---

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "id must be an integer")
		return 0, false
	}
	return id, true
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, application.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, application.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, application.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, application.ErrConflict):
		writeError(w, http.StatusConflict, "conflict")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
