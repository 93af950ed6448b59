package goConsole

import (
	"errors"
	"testing"
	"time"
)

func validTestConfig() Config {
	cfg := DefaultConfig()
	cfg.Access.AllowedEmail = "admin@example.com"
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name:      "defaults with allowed email",
			mutate:    func(*Config) {},
			wantValid: true,
		},
		{
			name: "allowed email required",
			mutate: func(c *Config) {
				c.Access.AllowedEmail = ""
			},
			wantValid: false,
		},
		{
			name: "allow any without email",
			mutate: func(c *Config) {
				c.Access.AllowedEmail = ""
				c.Access.AllowAnyAuthenticated = true
			},
			wantValid: true,
		},
		{
			name: "allowed email with whitespace",
			mutate: func(c *Config) {
				c.Access.AllowedEmail = " admin@example.com"
			},
			wantValid: false,
		},
		{
			name: "allowed email without at sign",
			mutate: func(c *Config) {
				c.Access.AllowedEmail = "admin"
			},
			wantValid: false,
		},
		{
			name: "zero timeouts disable deadlines",
			mutate: func(c *Config) {
				c.Session.RestoreTimeout = 0
				c.Session.LoginTimeout = 0
				c.Session.LogoutTimeout = 0
			},
			wantValid: true,
		},
		{
			name: "negative login timeout",
			mutate: func(c *Config) {
				c.Session.LoginTimeout = -time.Second
			},
			wantValid: false,
		},
		{
			name: "discard memory zero",
			mutate: func(c *Config) {
				c.Session.DiscardMemory = 0
			},
			wantValid: false,
		},
		{
			name: "audit buffer zero",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
				c.Audit.BufferSize = 0
			},
			wantValid: false,
		},
		{
			name: "audit disabled ignores buffer",
			mutate: func(c *Config) {
				c.Audit.Enabled = false
				c.Audit.BufferSize = 0
			},
			wantValid: true,
		},
		{
			name: "histograms need metrics",
			mutate: func(c *Config) {
				c.Metrics.Enabled = false
				c.Metrics.EnableLatencyHistograms = true
			},
			wantValid: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validTestConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantValid && err != nil {
				t.Fatalf("expected valid config, got %v", err)
			}
			if !tc.wantValid {
				if err == nil {
					t.Fatal("expected invalid config, got nil")
				}
				if !errors.Is(err, ErrInvalidConfig) {
					t.Fatalf("expected ErrInvalidConfig, got %v", err)
				}
			}
		})
	}
}

func TestDefaultConfigIsIndependent(t *testing.T) {
	a := DefaultConfig()
	a.Session.DiscardMemory = 99
	b := DefaultConfig()
	if b.Session.DiscardMemory == 99 {
		t.Fatal("DefaultConfig returned shared state")
	}
}
