// Package payment defines the payment provider abstraction used by the
// entry flow.  Only a simulated provider exists; real gateways would
// implement the same interface.
package payment

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/iliyamo/racecraft/internal/payment/sim"
)

// ErrInvalidClientSecret is returned by Verify for secrets that are
// malformed, expired or signed by someone else.
var ErrInvalidClientSecret = sim.ErrInvalidClientSecret

// Intent is the payment handle returned to the client after an entry
// is created.
type Intent struct {
	Provider     string
	ClientSecret string
}

// Provider issues and verifies payment handles for entries.
type Provider interface {
	Name() string
	NewIntent(entryID string) (Intent, error)
	// Verify returns the entry id a client secret was issued for.
	Verify(clientSecret string) (string, error)
}

// Config selects and configures a provider.
type Config struct {
	Provider string
	Secret   string
	TTL      time.Duration
}

// NewProvider builds the provider named in cfg.
func NewProvider(cfg Config, clock clockwork.Clock) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", sim.Name:
		if cfg.Secret == "" {
			return nil, errors.New("payment secret is required")
		}
		return simProvider{sim.New(cfg.Secret, cfg.TTL, clock)}, nil
	default:
		return nil, fmt.Errorf("unsupported payment provider %q", cfg.Provider)
	}
}

type simProvider struct {
	*sim.Provider
}

func (p simProvider) NewIntent(entryID string) (Intent, error) {
	secret, err := p.Issue(entryID)
	if err != nil {
		return Intent{}, err
	}
	return Intent{Provider: p.Name(), ClientSecret: secret}, nil
}
