package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cheapConfig keeps tests fast; production uses DefaultConfig.
func cheapConfig() Config {
	return Config{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
}

func TestHashAndVerify(t *testing.T) {
	h, err := New(cheapConfig())
	require.NoError(t, err)

	encoded, err := h.Hash("secret")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=8192,t=1,p=1$"), encoded)

	ok, err := h.Verify("secret", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("Secret", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashSaltsEveryCall(t *testing.T) {
	h, err := New(cheapConfig())
	require.NoError(t, err)

	a, err := h.Hash("same-password")
	require.NoError(t, err)
	b, err := h.Hash("same-password")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHashEnforcesMinimumLength(t *testing.T) {
	h, err := New(cheapConfig())
	require.NoError(t, err)

	_, err = h.Hash("12345")
	assert.ErrorIs(t, err, ErrTooShort)

	cfg := cheapConfig()
	cfg.MinLength = 12
	h, err = New(cfg)
	require.NoError(t, err)
	_, err = h.Hash("secret")
	assert.ErrorIs(t, err, ErrTooShort)
}

func TestNewRejectsWeakConfig(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"memory":      func(c *Config) { c.Memory = 1024 },
		"time":        func(c *Config) { c.Time = 0 },
		"parallelism": func(c *Config) { c.Parallelism = 0 },
		"salt":        func(c *Config) { c.SaltLength = 8 },
		"key":         func(c *Config) { c.KeyLength = 8 },
		"min length":  func(c *Config) { c.MinLength = -1 },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := cheapConfig()
			mutate(&cfg)
			_, err := New(cfg)
			assert.Error(t, err)
		})
	}
}

func TestVerifyRejectsMalformedHashes(t *testing.T) {
	h, err := New(cheapConfig())
	require.NoError(t, err)

	for _, encoded := range []string{
		"",
		"plain",
		"$bcrypt$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5",
		"$argon2id$v=16$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5",
		"$argon2id$v=19$m=8192,t=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5",
		"$argon2id$v=19$m=10,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5",
		"$argon2id$v=19$m=8192,t=1,p=1,x=2$c2FsdHNhbHRzYWx0c2FsdA$a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5",
		"$argon2id$v=19$m=8192,t=1,p=1$!!$a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5",
		"$argon2id$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5",
	} {
		_, err := h.Verify("secret", encoded)
		assert.ErrorIs(t, err, ErrMalformedHash, "hash %q", encoded)
	}
}

func TestNeedsRehash(t *testing.T) {
	weak, err := New(cheapConfig())
	require.NoError(t, err)
	encoded, err := weak.Hash("secret-password")
	require.NoError(t, err)

	stronger := cheapConfig()
	stronger.Time = 2
	strong, err := New(stronger)
	require.NoError(t, err)

	need, err := strong.NeedsRehash(encoded)
	require.NoError(t, err)
	assert.True(t, need)

	need, err = weak.NeedsRehash(encoded)
	require.NoError(t, err)
	assert.False(t, need)
}

func TestVerifyDummyDoesNotPanic(t *testing.T) {
	h, err := New(cheapConfig())
	require.NoError(t, err)
	h.VerifyDummy("anything")
}
