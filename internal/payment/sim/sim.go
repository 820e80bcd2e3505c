// Package sim is the development payment provider.  It never talks to a
// gateway: the client secret is an HS256 token naming the entry, which
// the payment simulation endpoint can check before marking it paid.
package sim

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
)

const (
	Name   = "sim"
	issuer = "racecraft-sim"
)

// ErrInvalidClientSecret is returned for secrets that fail verification.
var ErrInvalidClientSecret = errors.New("invalid client secret")

// Provider signs and verifies client secrets.
type Provider struct {
	secret []byte
	ttl    time.Duration
	clock  clockwork.Clock
}

// New returns a Provider.  A non-positive ttl defaults to one hour.
func New(secret string, ttl time.Duration, clock clockwork.Clock) *Provider {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Provider{secret: []byte(secret), ttl: ttl, clock: clock}
}

func (p *Provider) Name() string { return Name }

// Issue builds a signed client secret for entryID.
func (p *Provider) Issue(entryID string) (string, error) {
	now := p.clock.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   entryID,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(p.secret)
}

// Verify checks signature, issuer and expiry and returns the entry id
// the secret was issued for.
func (p *Provider) Verify(clientSecret string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(clientSecret, &claims,
		func(t *jwt.Token) (any, error) { return p.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.clock.Now),
	)
	if err != nil || claims.Subject == "" {
		return "", ErrInvalidClientSecret
	}
	return claims.Subject, nil
}
