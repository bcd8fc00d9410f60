// Package auth verifies bearer tokens and yields the caller identity.
// Verification is local and stateless: every instance holds the same secret.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/smallbiznis/invoicely/internal/clock"
	"github.com/smallbiznis/invoicely/internal/config"
	"go.uber.org/fx"
)

const (
	bearerPrefix = "Bearer "
	TokenTTL     = 7 * 24 * time.Hour
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrMissingSecret   = errors.New("auth_jwt_secret_required")
)

// Identity is the verified caller.
type Identity struct {
	UserID    int64
	ExpiresAt time.Time
}

type Params struct {
	fx.In

	Config config.Config
	Clock  clock.Clock `optional:"true"`
}

// Resolver turns an Authorization header into an Identity.
type Resolver struct {
	secret []byte
	clock  clock.Clock
	parser *jwt.Parser
}

func NewResolver(p Params) (*Resolver, error) {
	secret := strings.TrimSpace(p.Config.AuthJWTSecret)
	if secret == "" {
		return nil, ErrMissingSecret
	}
	clk := p.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &Resolver{
		secret: []byte(secret),
		clock:  clk,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
			jwt.WithTimeFunc(clk.Now),
		),
	}, nil
}

// Resolve validates the header value and returns the caller it names.
func (r *Resolver) Resolve(header string) (Identity, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return Identity{}, fmt.Errorf("%w: missing authorization header", ErrUnauthenticated)
	}
	if !strings.HasPrefix(header, bearerPrefix) {
		return Identity{}, fmt.Errorf("%w: malformed authorization header", ErrUnauthenticated)
	}
	raw := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	if raw == "" {
		return Identity{}, fmt.Errorf("%w: malformed authorization header", ErrUnauthenticated)
	}

	var claims Claims
	token, err := r.parser.ParseWithClaims(raw, &claims, r.keyFunc)
	if err != nil || !token.Valid {
		return Identity{}, fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	}
	if claims.Subject <= 0 {
		return Identity{}, fmt.Errorf("%w: invalid subject", ErrUnauthenticated)
	}

	return Identity{
		UserID:    claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (r *Resolver) keyFunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.New("invalid signing method")
	}
	return r.secret, nil
}

// Issuer signs tokens with the shared secret. Used by local tooling and tests.
type Issuer struct {
	secret []byte
	clock  clock.Clock
}

func NewIssuer(p Params) (*Issuer, error) {
	secret := strings.TrimSpace(p.Config.AuthJWTSecret)
	if secret == "" {
		return nil, ErrMissingSecret
	}
	clk := p.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &Issuer{secret: []byte(secret), clock: clk}, nil
}

func (i *Issuer) Issue(subject int64) (string, error) {
	if subject <= 0 {
		return "", errors.New("invalid_subject")
	}
	now := i.clock.Now()
	claims := Claims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}
