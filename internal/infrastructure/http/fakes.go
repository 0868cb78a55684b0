package httpserver

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"westrates-service/internal/application"
	"westrates-service/internal/domain"
)

var _ application.RateRepo = (*fakeRateRepo)(nil)
var _ application.UserRepo = (*fakeUserRepo)(nil)
var _ application.TokenIssuer = (*fakeIssuer)(nil)
var _ application.PasswordHasher = (*fakeHasher)(nil)

type fakeRateRepo struct {
	nextID int64
	rates  map[int64]domain.Rate
}

func newFakeRateRepo() *fakeRateRepo { return &fakeRateRepo{rates: map[int64]domain.Rate{}} }

func (f *fakeRateRepo) Insert(_ context.Context, r domain.Rate) (domain.Rate, error) {
	f.nextID++
	r.ID = f.nextID
	f.rates[r.ID] = r
	return r, nil
}

func (f *fakeRateRepo) GetByID(_ context.Context, id int64) (domain.Rate, error) {
	r, ok := f.rates[id]
	if !ok {
		return domain.Rate{}, application.ErrNotFound
	}
	return r, nil
}

func (f *fakeRateRepo) ListByRange(_ context.Context, start, end time.Time) ([]domain.Rate, error) {
	var out []domain.Rate
	for _, r := range f.rates {
		if !r.Timestamp.Before(start) && !r.Timestamp.After(end) {
			out = append(out, r)
		}
	}
	sortByTimestamp(out)
	return out, nil
}

func (f *fakeRateRepo) ListLastByPair(_ context.Context, from, to domain.Currency, n int) ([]domain.Rate, error) {
	var out []domain.Rate
	for _, r := range f.rates {
		if r.From == from && r.To == to {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (f *fakeRateRepo) ListAll(context.Context) ([]domain.Rate, error) {
	out := make([]domain.Rate, 0, len(f.rates))
	for _, r := range f.rates {
		out = append(out, r)
	}
	sortByTimestamp(out)
	return out, nil
}

func (f *fakeRateRepo) Update(_ context.Context, id int64, patch application.RateUpdate) (domain.Rate, error) {
	r, ok := f.rates[id]
	if !ok {
		return domain.Rate{}, application.ErrNotFound
	}
	if patch.From != nil {
		r.From = *patch.From
	}
	if patch.To != nil {
		r.To = *patch.To
	}
	if patch.Rate != nil {
		r.Rate = *patch.Rate
	}
	f.rates[id] = r
	return r, nil
}

func (f *fakeRateRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.rates[id]; !ok {
		return application.ErrNotFound
	}
	delete(f.rates, id)
	return nil
}

func sortByTimestamp(rs []domain.Rate) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].Timestamp.Equal(rs[j].Timestamp) {
			return rs[i].ID < rs[j].ID
		}
		return rs[i].Timestamp.Before(rs[j].Timestamp)
	})
}

type fakeUserRepo struct {
	nextID int64
	users  map[int64]domain.User
}

func newFakeUserRepo() *fakeUserRepo { return &fakeUserRepo{users: map[int64]domain.User{}} }

func (f *fakeUserRepo) Insert(_ context.Context, u domain.User) (domain.User, error) {
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return domain.User{}, application.ErrConflict
		}
	}
	f.nextID++
	u.ID = f.nextID
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int64) (domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return domain.User{}, application.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, application.ErrNotFound
}

func (f *fakeUserRepo) ListByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	var out []domain.User
	for _, u := range f.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUserRepo) ListByCreatedRange(_ context.Context, start, end time.Time) ([]domain.User, error) {
	var out []domain.User
	for _, u := range f.users {
		if !u.CreatedAt.Before(start) && !u.CreatedAt.After(end) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUserRepo) Update(_ context.Context, id int64, patch application.UserUpdate) (domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return domain.User{}, application.ErrNotFound
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.Username != nil {
		u.Username = *patch.Username
	}
	if patch.Role != nil {
		u.Role = *patch.Role
	}
	if patch.Active != nil {
		u.Active = *patch.Active
	}
	now := time.Now()
	u.UpdatedAt = &now
	f.users[id] = u
	return u, nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.users[id]; !ok {
		return application.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

type fakeHasher struct{}

func (fakeHasher) Hash(plain string) (string, error) { return "hash:" + plain, nil }
func (fakeHasher) Verify(plain, hash string) bool    { return hash == "hash:"+plain }

type fakeIssuer struct{}

func (fakeIssuer) Issue(email string, role domain.Role) (string, time.Time, error) {
	return fmt.Sprintf("tok|%s|%s", email, role), time.Now().Add(time.Hour), nil
}

func (fakeIssuer) Verify(token string) (application.TokenClaims, error) {
	parts := strings.Split(token, "|")
	if len(parts) != 3 || parts[0] != "tok" {
		return application.TokenClaims{}, application.ErrUnauthorized
	}
	return application.TokenClaims{Email: parts[1], Role: domain.Role(parts[2])}, nil
}

// NewInMemoryServer wires the handlers against in-memory stores. Used by
// the router tests and handy for local poking without a database.
func NewInMemoryServer() (*Server, *fakeRateRepo, *fakeUserRepo) {
	rr := newFakeRateRepo()
	ur := newFakeUserRepo()
	rates := application.NewRatesService(rr)
	users := application.NewUserService(ur, fakeHasher{}, fakeIssuer{})
	return NewServer(rates, users, fakeIssuer{}), rr, ur
}
