package application

import (
	"context"
	"sort"
	"time"

	"westrates-service/internal/domain"
)

type fakeClock struct{ t time.Time }

func (f fakeClock) Now() time.Time { return f.t }

type fakeRateRepo struct {
	rates  map[int64]domain.Rate
	nextID int64
	err    error
}

func newFakeRateRepo() *fakeRateRepo {
	return &fakeRateRepo{rates: map[int64]domain.Rate{}, nextID: 1}
}

func (f *fakeRateRepo) Insert(_ context.Context, r domain.Rate) (domain.Rate, error) {
	if f.err != nil {
		return domain.Rate{}, f.err
	}
	r.ID = f.nextID
	f.nextID++
	f.rates[r.ID] = r
	return r, nil
}

func (f *fakeRateRepo) GetByID(_ context.Context, id int64) (domain.Rate, error) {
	if f.err != nil {
		return domain.Rate{}, f.err
	}
	r, ok := f.rates[id]
	if !ok {
		return domain.Rate{}, ErrNotFound
	}
	return r, nil
}

func (f *fakeRateRepo) ListByRange(_ context.Context, start, end time.Time) ([]domain.Rate, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.Rate
	for _, r := range f.rates {
		if !r.Timestamp.Before(start) && !r.Timestamp.After(end) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeRateRepo) ListLastByPair(_ context.Context, from, to domain.Currency, n int) ([]domain.Rate, error) {
	if f.err != nil {
		return nil, f.err
	}
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

func (f *fakeRateRepo) ListAll(_ context.Context) ([]domain.Rate, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.Rate
	for _, r := range f.rates {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRateRepo) Update(_ context.Context, id int64, patch RateUpdate) (domain.Rate, error) {
	if f.err != nil {
		return domain.Rate{}, f.err
	}
	r, ok := f.rates[id]
	if !ok {
		return domain.Rate{}, ErrNotFound
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
	if f.err != nil {
		return f.err
	}
	if _, ok := f.rates[id]; !ok {
		return ErrNotFound
	}
	delete(f.rates, id)
	return nil
}

type fakeUserRepo struct {
	users  map[int64]domain.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int64]domain.User{}, nextID: 1}
}

func (f *fakeUserRepo) Insert(_ context.Context, u domain.User) (domain.User, error) {
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return domain.User{}, ErrConflict
		}
	}
	u.ID = f.nextID
	f.nextID++
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int64) (domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return domain.User{}, ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, ErrNotFound
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

func (f *fakeUserRepo) Update(_ context.Context, id int64, patch UserUpdate) (domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return domain.User{}, ErrNotFound
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
	f.users[id] = u
	return u, nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.users[id]; !ok {
		return ErrNotFound
	}
	delete(f.users, id)
	return nil
}

type fakeHasher struct{}

func (fakeHasher) Hash(plain string) (string, error) { return "hash:" + plain, nil }
func (fakeHasher) Verify(plain, hash string) bool    { return hash == "hash:"+plain }

type fakeIssuer struct{ err error }

func (f fakeIssuer) Issue(email string, role domain.Role) (string, time.Time, error) {
	if f.err != nil {
		return "", time.Time{}, f.err
	}
	return "token-" + email, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), nil
}

func (f fakeIssuer) Verify(string) (TokenClaims, error) {
	return TokenClaims{}, f.err
}

type fakeIdem struct{ seen map[string]bool }

func (f *fakeIdem) TryReserve(_ context.Context, k string) (bool, error) {
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.seen[k] {
		return false, nil
	}
	f.seen[k] = true
	return true, nil
}

func strPtr(s string) *string                   { return &s }
func f64Ptr(v float64) *float64                 { return &v }
func curPtr(c domain.Currency) *domain.Currency { return &c }
