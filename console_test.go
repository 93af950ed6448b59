package goConsole

import (
	"context"
	"testing"

	"github.com/MrEthical07/goConsole/identity"
	"github.com/MrEthical07/goConsole/identity/identitytest"
	"github.com/MrEthical07/goConsole/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func drainAudit(sink *ChannelSink) []string {
	var types []string
	for {
		select {
		case e := <-sink.Events():
			types = append(types, e.Type)
		default:
			return types
		}
	}
}

func TestConsoleDeniesOtherIdentity(t *testing.T) {
	p, _ := newAdminProvider()
	p.AddUser("intruso@example.com", "hunter2", nil)
	sink := NewChannelSink(64)

	cfg := validTestConfig()
	cfg.Audit.Enabled = true
	c, err := New().WithConfig(cfg).WithProvider(p).WithAuditSink(sink).Build()
	require.NoError(t, err)

	_, err = c.Start(context.Background())
	require.NoError(t, err)
	require.NoError(t, c.Login(context.Background(), identity.Credentials{Email: "intruso@example.com", Password: "hunter2"}))

	assert.Equal(t, StateAuthenticated, c.Snapshot().State)
	assert.Equal(t, DecisionDenied, c.Decision())
	assert.Equal(t, uint64(1), c.Metrics().Value(MetricAccessDenied))
	assert.Zero(t, c.Metrics().Value(MetricAccessGranted))

	require.NoError(t, c.Logout(context.Background()))
	assert.Equal(t, DecisionSignIn, c.Decision())

	c.Close()
	types := drainAudit(sink)
	assert.Contains(t, types, AuditLoginSuccess)
	assert.Contains(t, types, AuditAccessDenied)
	assert.Contains(t, types, AuditLogout)
	assert.Zero(t, c.AuditDropped())
}

func TestConsoleOpenPolicyGrantsAnyone(t *testing.T) {
	p := identitytest.New()
	p.AddUser("qualquer@example.com", "pw", nil)
	c := newTestConsole(t, p, func(cfg *Config) {
		cfg.Access.AllowedEmail = ""
		cfg.Access.AllowAnyAuthenticated = true
	})
	_, err := c.Start(context.Background())
	require.NoError(t, err)
	require.NoError(t, c.Login(context.Background(), identity.Credentials{Email: "qualquer@example.com", Password: "pw"}))
	assert.Equal(t, DecisionGranted, c.Decision())
}

func TestConsoleResetsViewOnSignIn(t *testing.T) {
	p, u := newAdminProvider()
	c := newTestConsole(t, p)
	_, err := c.Start(context.Background())
	require.NoError(t, err)

	c.SetView(view.Settings)
	c.ToggleDrawer()
	require.True(t, c.DrawerOpen())

	var seen view.View
	c.Observe(func(s Snapshot) {
		if s.State == StateAuthenticated {
			seen = c.CurrentView()
		}
	})

	p.Push(identity.EventSignedIn, p.NewSession(u))
	assert.Equal(t, view.Dashboard, seen)
	assert.Equal(t, view.Dashboard, c.CurrentView())
	assert.False(t, c.DrawerOpen())

	// A token refresh does not move the user.
	c.SetView(view.Settings)
	p.Push(identity.EventTokenRefreshed, p.NewSession(u))
	assert.Equal(t, view.Settings, c.CurrentView())
}

func TestConsoleResetsViewOnRelogin(t *testing.T) {
	p, _ := newAdminProvider()
	p.AddUser("other@example.com", "pw", nil)
	c := newTestConsole(t, p)
	ctx := context.Background()
	_, err := c.Start(ctx)
	require.NoError(t, err)

	require.NoError(t, c.Login(ctx, identity.Credentials{Email: "other@example.com", Password: "pw"}))
	require.Equal(t, DecisionDenied, c.Decision())
	c.SetView(view.Settings)

	require.NoError(t, c.Login(ctx, identity.Credentials{Email: adminEmail, Password: adminPassword}))
	assert.Equal(t, DecisionGranted, c.Decision())
	assert.Equal(t, adminEmail, c.Snapshot().Email())
	assert.Equal(t, view.Dashboard, c.CurrentView())
}

func TestConsoleResetsViewOnPushedSessionSwap(t *testing.T) {
	p, u := newAdminProvider()
	other := p.AddUser("other@example.com", "pw", nil)
	c := newTestConsole(t, p)
	_, err := c.Start(context.Background())
	require.NoError(t, err)

	p.Push(identity.EventSignedIn, p.NewSession(other))
	c.SetView(view.Settings)

	sess := p.NewSession(u)
	p.Push(identity.EventSignedIn, sess)
	assert.Equal(t, view.Dashboard, c.CurrentView())
	c.SetView(view.Settings)
	p.Push(identity.EventUserUpdated, sess)
	assert.Equal(t, view.Settings, c.CurrentView())
}

func TestConsoleViewAndDrawer(t *testing.T) {
	p, _ := newAdminProvider()
	c := newTestConsole(t, p)

	assert.Equal(t, view.Dashboard, c.CurrentView())
	assert.True(t, c.ToggleDrawer())
	c.SetView(view.Settings)
	assert.False(t, c.DrawerOpen())
	c.SetView(view.Settings)
	assert.Equal(t, uint64(1), c.Metrics().Value(MetricViewChanged))

	c.SetView(view.View(200))
	assert.Equal(t, view.Dashboard, c.CurrentView())
}

func TestConsoleDarkMode(t *testing.T) {
	p, _ := newAdminProvider()
	c := newTestConsole(t, p)
	assert.False(t, c.DarkMode())
	assert.True(t, c.ToggleDarkMode())
	assert.True(t, c.DarkMode())
	assert.False(t, c.ToggleDarkMode())

	dark := newTestConsole(t, p, func(cfg *Config) { cfg.UI.DarkMode = true })
	assert.True(t, dark.DarkMode())
}

func TestConsoleRecordsSpans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	p, _ := newAdminProvider()
	c, err := New().WithConfig(validTestConfig()).WithProvider(p).WithTracerProvider(tp).Build()
	require.NoError(t, err)
	t.Cleanup(c.Close)

	ctx := context.Background()
	_, err = c.Start(ctx)
	require.NoError(t, err)
	_ = c.Login(ctx, identity.Credentials{Email: adminEmail, Password: "wrong"})
	require.NoError(t, c.Logout(ctx))

	spans := rec.Ended()
	require.Len(t, spans, 3)
	assert.Equal(t, "goconsole.restore", spans[0].Name())
	assert.Equal(t, "goconsole.login", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "goconsole.logout", spans[2].Name())
	assert.Equal(t, codes.Unset, spans[2].Status().Code)
}

func TestBuilderRules(t *testing.T) {
	_, err := New().WithConfig(validTestConfig()).Build()
	assert.ErrorIs(t, err, ErrProviderRequired)

	_, err = New().WithProvider(identitytest.New()).Build()
	assert.ErrorIs(t, err, ErrInvalidConfig)

	b := New().WithProvider(identitytest.New()).WithAllowedEmail(adminEmail)
	c, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(c.Close)
	assert.Equal(t, StateUnknown, c.Snapshot().State)

	_, err = b.Build()
	assert.ErrorIs(t, err, ErrBuilderUsed)
}

func TestBuilderMetricsDisabled(t *testing.T) {
	p, _ := newAdminProvider()
	c, err := New().WithProvider(p).WithAllowedEmail(adminEmail).WithLatencyHistograms(false).WithMetricsEnabled(false).Build()
	require.NoError(t, err)
	t.Cleanup(c.Close)

	_, err = c.Start(context.Background())
	require.NoError(t, err)
	assert.Zero(t, c.Metrics().Value(MetricRestoreEmpty))
	assert.Zero(t, c.Metrics().Value(MetricSessionChanged))
}

func TestConsoleUpdateProfileFlowsThroughEvent(t *testing.T) {
	p, u := newAdminProvider()
	p.SetCurrent(p.NewSession(u))
	sink := NewChannelSink(16)
	cfg := validTestConfig()
	cfg.Audit.Enabled = true
	c, err := New().WithConfig(cfg).WithProvider(p).WithAuditSink(sink).Build()
	require.NoError(t, err)

	_, err = c.Start(context.Background())
	require.NoError(t, err)

	require.NoError(t, c.UpdateProfile(context.Background(), "  Administrador "))
	assert.Equal(t, "Administrador", c.Snapshot().User().DisplayName())
	assert.Equal(t, identity.EventUserUpdated, c.Snapshot().Event)

	assert.ErrorIs(t, c.UpdateProfile(context.Background(), " "), identity.ErrInvalidRequest)

	c.Close()
	assert.Contains(t, drainAudit(sink), AuditProfileUpdated)
}

func TestConsoleChangePassword(t *testing.T) {
	p, u := newAdminProvider()
	c := newTestConsole(t, p)
	ctx := context.Background()
	_, err := c.Start(ctx)
	require.NoError(t, err)

	assert.ErrorIs(t, c.ChangePassword(ctx, "nova-senha", "nova-senha"), identity.ErrNotSignedIn)

	p.Push(identity.EventSignedIn, p.NewSession(u))
	assert.ErrorIs(t, c.ChangePassword(ctx, "nova-senha", "outra"), ErrPasswordMismatch)
	require.NoError(t, c.ChangePassword(ctx, "nova-senha", "nova-senha"))

	require.NoError(t, c.Logout(ctx))
	assert.ErrorIs(t, c.Login(ctx, identity.Credentials{Email: adminEmail, Password: adminPassword}), identity.ErrInvalidCredentials)
	require.NoError(t, c.Login(ctx, identity.Credentials{Email: adminEmail, Password: "nova-senha"}))
}

type readOnlyProvider struct {
	identity.Provider
}

func TestConsoleUpdateUnsupported(t *testing.T) {
	p, _ := newAdminProvider()
	c, err := New().WithConfig(validTestConfig()).WithProvider(readOnlyProvider{p}).Build()
	require.NoError(t, err)
	t.Cleanup(c.Close)
	assert.ErrorIs(t, c.UpdateProfile(context.Background(), "X"), ErrUpdateUnsupported)
}
