package auth

import (
	"errors"
	"fmt"
	"time"

	"westrates-service/internal/application"
	"westrates-service/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and verifies passwords with bcrypt.
type Hasher struct {
	Cost int
}

var _ application.PasswordHasher = Hasher{}

func (h Hasher) Hash(plain string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h Hasher) Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// TokenIssuer issues and verifies HS256 access tokens carrying the
// subject email and a role claim.
type TokenIssuer struct {
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

var _ application.TokenIssuer = (*TokenIssuer)(nil)

func (t *TokenIssuer) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

func (t *TokenIssuer) Issue(email string, role domain.Role) (string, time.Time, error) {
	if len(t.Secret) == 0 {
		return "", time.Time{}, errors.New("auth: missing signing secret")
	}
	now := t.now()
	exp := now.Add(t.TTL)
	claims := jwt.MapClaims{
		"sub":  email,
		"role": string(role),
		"iat":  jwt.NewNumericDate(now),
		"exp":  jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, exp, nil
}

func (t *TokenIssuer) Verify(token string) (application.TokenClaims, error) {
	parsed, err := jwt.Parse(token, func(tk *jwt.Token) (any, error) {
		if _, ok := tk.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tk.Header["alg"])
		}
		return t.Secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		return application.TokenClaims{}, fmt.Errorf("%w: %v", application.ErrUnauthorized, err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return application.TokenClaims{}, application.ErrUnauthorized
	}
	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	if sub == "" {
		return application.TokenClaims{}, application.ErrUnauthorized
	}
	return application.TokenClaims{Email: sub, Role: domain.Role(role)}, nil
}
