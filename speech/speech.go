// Package speech reads prompts aloud for the listen-and-repeat module.
package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// DefaultRate is the prompt speaking rate relative to normal speech.
const DefaultRate = 0.85

const Language = "en-US"

var ErrUnavailable = errors.New("no speech synthesizer available")

type Speaker interface {
	Speak(ctx context.Context, text string) error
	Name() string
}

type Config struct {
	// Provider is auto, local, google or none.
	Provider string
	// GoogleCredentials is a service account JSON file; empty uses
	// application default credentials.
	GoogleCredentials string
	GoogleAPIKey      string
	Voice             string
	Rate              float64
}

func (c Config) rate() float64 {
	if c.Rate <= 0 {
		return DefaultRate
	}
	return c.Rate
}

// New picks a synthesizer. auto prefers a local engine and falls back to
// Google when credentials are configured.
func New(ctx context.Context, cfg Config) (Speaker, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "none", "off":
		return nil, ErrUnavailable
	case "local":
		return local(cfg)
	case "google":
		return google(ctx, cfg)
	case "", "auto":
		if s, err := local(cfg); err == nil {
			return s, nil
		}
		if cfg.GoogleCredentials != "" || cfg.GoogleAPIKey != "" {
			return google(ctx, cfg)
		}
		return nil, ErrUnavailable
	}
	return nil, fmt.Errorf("unknown speech provider %q", cfg.Provider)
}

func local(cfg Config) (Speaker, error) {
	l, err := NewLocal(cfg.rate())
	if err != nil {
		return nil, err
	}
	return l, nil
}

func google(ctx context.Context, cfg Config) (Speaker, error) {
	g, err := NewGoogle(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return g, nil
}
