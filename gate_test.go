package goConsole

import (
	"testing"

	"github.com/MrEthical07/goConsole/identity"
	"github.com/stretchr/testify/assert"
)

func sessionFor(email string) *identity.Session {
	return &identity.Session{ID: "s", AccessToken: "t", User: identity.User{ID: "u", Email: email}}
}

func TestGateDecide(t *testing.T) {
	strict := NewGate(AccessConfig{AllowedEmail: "admin@example.com"})
	open := NewGate(AccessConfig{AllowAnyAuthenticated: true})

	tests := []struct {
		name string
		gate *Gate
		snap Snapshot
		want Decision
	}{
		{"unknown is pending", strict, Snapshot{State: StateUnknown}, DecisionPending},
		{"unauthenticated signs in", strict, Snapshot{State: StateUnauthenticated}, DecisionSignIn},
		{"authenticated without session", strict, Snapshot{State: StateAuthenticated}, DecisionSignIn},
		{"allowed email granted", strict, Snapshot{State: StateAuthenticated, Session: sessionFor("admin@example.com")}, DecisionGranted},
		{"other email denied", strict, Snapshot{State: StateAuthenticated, Session: sessionFor("other@example.com")}, DecisionDenied},
		{"case differs denied", strict, Snapshot{State: StateAuthenticated, Session: sessionFor("Admin@example.com")}, DecisionDenied},
		{"missing email denied", strict, Snapshot{State: StateAuthenticated, Session: sessionFor("")}, DecisionDenied},
		{"open policy grants any", open, Snapshot{State: StateAuthenticated, Session: sessionFor("other@example.com")}, DecisionGranted},
		{"open policy grants missing email", open, Snapshot{State: StateAuthenticated, Session: sessionFor("")}, DecisionGranted},
		{"open policy still pending", open, Snapshot{State: StateUnknown}, DecisionPending},
		{"open policy still signs in", open, Snapshot{State: StateUnauthenticated}, DecisionSignIn},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.gate.Decide(tc.snap))
		})
	}
}

func TestGateEmptyAllowedEmailDeniesEveryone(t *testing.T) {
	g := NewGate(AccessConfig{})
	assert.Equal(t, DecisionDenied, g.Decide(Snapshot{State: StateAuthenticated, Session: sessionFor("")}))
	assert.Equal(t, DecisionDenied, g.Decide(Snapshot{State: StateAuthenticated, Session: sessionFor("a@b")}))
}

func TestGatePolicy(t *testing.T) {
	assert.Equal(t, "only admin@example.com", NewGate(AccessConfig{AllowedEmail: "admin@example.com"}).Policy())
	assert.Equal(t, "any authenticated user", NewGate(AccessConfig{AllowAnyAuthenticated: true}).Policy())
	assert.Equal(t, "granted", DecisionGranted.String())
	assert.Equal(t, "invalid", Decision(42).String())
}
