package goConsole

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Config configures a [Console]. Use [DefaultConfig] as a starting point.
type Config struct {
	Access  AccessConfig
	Session SessionConfig
	UI      UIConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

/*
====================================
ACCESS CONFIG
====================================
*/

// AccessConfig selects the authorization policy.
type AccessConfig struct {
	// AllowedEmail is the only identity granted access. It is compared exactly,
	// including case.
	AllowedEmail string
	// AllowAnyAuthenticated grants every authenticated session and ignores
	// AllowedEmail.
	AllowAnyAuthenticated bool
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig bounds the calls made to the identity provider. A zero
// timeout means the caller's context alone bounds the call.
type SessionConfig struct {
	RestoreTimeout time.Duration
	LoginTimeout   time.Duration
	LogoutTimeout  time.Duration
	// DiscardMemory is how many superseded session ids are remembered so their
	// late sign-in events can be ignored.
	DiscardMemory int
}

// UIConfig holds presentation state seeded at startup.
type UIConfig struct {
	DarkMode bool
}

// AuditConfig controls the audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the strict single-identity policy with no allowed
// email set; callers must fill in Access.AllowedEmail.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			RestoreTimeout: 10 * time.Second,
			LoginTimeout:   15 * time.Second,
			LogoutTimeout:  10 * time.Second,
			DiscardMemory:  16,
		},
		Audit: AuditConfig{
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	return cfg
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks c for internal consistency.
func (c *Config) Validate() error {
	if !c.Access.AllowAnyAuthenticated {
		email := c.Access.AllowedEmail
		if email == "" {
			return fmt.Errorf("%w: Access.AllowedEmail is required unless AllowAnyAuthenticated is set", ErrInvalidConfig)
		}
		if strings.TrimSpace(email) != email {
			return fmt.Errorf("%w: Access.AllowedEmail has surrounding whitespace", ErrInvalidConfig)
		}
		if !strings.Contains(email, "@") {
			return fmt.Errorf("%w: Access.AllowedEmail %q is not an email address", ErrInvalidConfig, email)
		}
	}

	if c.Session.RestoreTimeout < 0 || c.Session.LoginTimeout < 0 || c.Session.LogoutTimeout < 0 {
		return fmt.Errorf("%w: Session timeouts must be >= 0", ErrInvalidConfig)
	}
	if c.Session.DiscardMemory < 1 {
		return fmt.Errorf("%w: Session.DiscardMemory must be >= 1", ErrInvalidConfig)
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return fmt.Errorf("%w: Audit.BufferSize must be > 0 when audit is enabled", ErrInvalidConfig)
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return fmt.Errorf("%w: Metrics.EnableLatencyHistograms requires Metrics.Enabled", ErrInvalidConfig)
	}
	return nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
