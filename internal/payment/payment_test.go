package payment

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestSimProviderRoundTrip(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	p, err := NewProvider(Config{Provider: "sim", Secret: "dev-secret", TTL: time.Hour}, clock)
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}

	intent, err := p.NewIntent("entry-1")
	if err != nil {
		t.Fatalf("NewIntent: %v", err)
	}
	if intent.Provider != "sim" || intent.ClientSecret == "" {
		t.Fatalf("intent = %+v", intent)
	}

	got, err := p.Verify(intent.ClientSecret)
	if err != nil || got != "entry-1" {
		t.Fatalf("Verify = %q, %v", got, err)
	}

	clock.Advance(2 * time.Hour)
	if _, err := p.Verify(intent.ClientSecret); !errors.Is(err, ErrInvalidClientSecret) {
		t.Errorf("Verify expired secret: got %v", err)
	}
}

func TestSimProviderRejectsForeignSecret(t *testing.T) {
	clock := clockwork.NewFakeClock()
	a, _ := NewProvider(Config{Secret: "a"}, clock)
	b, _ := NewProvider(Config{Secret: "b"}, clock)

	intent, err := a.NewIntent("entry-1")
	if err != nil {
		t.Fatalf("NewIntent: %v", err)
	}
	if _, err := b.Verify(intent.ClientSecret); !errors.Is(err, ErrInvalidClientSecret) {
		t.Errorf("Verify with other key: got %v", err)
	}
	if _, err := a.Verify("not-a-token"); !errors.Is(err, ErrInvalidClientSecret) {
		t.Errorf("Verify garbage: got %v", err)
	}
}

func TestNewProviderErrors(t *testing.T) {
	if _, err := NewProvider(Config{Provider: "stripe", Secret: "x"}, nil); err == nil {
		t.Error("expected error for unknown provider")
	}
	if _, err := NewProvider(Config{Provider: "sim"}, nil); err == nil {
		t.Error("expected error for missing secret")
	}
}
