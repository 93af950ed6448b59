package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blockingSink struct {
	release chan struct{}
	mu      sync.Mutex
	got     []Event
}

func (s *blockingSink) Emit(_ context.Context, e Event) {
	<-s.release
	s.mu.Lock()
	s.got = append(s.got, e)
	s.mu.Unlock()
}

func TestDispatcherDisabledIsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, NoOpSink{})
	assert.Nil(t, d)
	d.Emit(context.Background(), Event{Type: "login.success"})
	d.Close()
	assert.Zero(t, d.Dropped())
}

func TestDispatcherDeliversAndDrainsOnClose(t *testing.T) {
	sink := NewChannelSink(8)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8}, sink)

	d.Emit(context.Background(), Event{Type: "login.success", Success: true})
	d.Emit(context.Background(), Event{Type: "logout", Success: true})
	d.Close()

	first := <-sink.Events()
	second := <-sink.Events()
	assert.Equal(t, "login.success", first.Type)
	assert.False(t, first.Timestamp.IsZero())
	assert.Equal(t, "logout", second.Type)

	d.Emit(context.Background(), Event{Type: "after.close"})
	select {
	case e := <-sink.Events():
		t.Fatalf("unexpected event after close: %v", e.Type)
	default:
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// The relay goroutine holds at most one event in Emit and one in the buffer.
	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), Event{Type: "session.changed"})
	}
	assert.Eventually(t, func() bool { return d.Dropped() >= 8 }, time.Second, 5*time.Millisecond)

	close(sink.release)
	d.Close()
	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, uint64(10), uint64(len(sink.got))+d.Dropped())
}

func TestJSONWriterSinkWritesLines(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)
	sink.Emit(context.Background(), Event{ID: "a", Type: "login.failure", Email: "x@example.com", Error: "invalid credentials"})
	sink.Emit(context.Background(), Event{ID: "b", Type: "logout", Success: true})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var e Event
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &e))
	assert.Equal(t, "login.failure", e.Type)
	assert.Equal(t, "invalid credentials", e.Error)
}

func TestSlogSinkLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sink := NewSlogSink(logger)

	sink.Emit(context.Background(), Event{Type: "login.success", Success: true, Email: "admin@example.com"})
	sink.Emit(context.Background(), Event{Type: "access.denied", Email: "other@example.com", Metadata: map[string]string{"reason": "email"}})

	out := buf.String()
	assert.Contains(t, out, `level=INFO msg="audit login.success"`)
	assert.Contains(t, out, `level=WARN msg="audit access.denied"`)
	assert.Contains(t, out, "meta.reason=email")
}

func TestDispatcherFillsIDAndCountsDelivered(t *testing.T) {
	sink := NewChannelSink(4)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 4}, sink)

	d.Emit(context.Background(), Event{Type: "session.restored"})
	d.Emit(context.Background(), Event{ID: "fixed", Type: "logout"})
	d.Close()
	d.Close()

	first, second := <-sink.Events(), <-sink.Events()
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "fixed", second.ID)
	assert.Equal(t, uint64(2), d.Delivered())
	assert.Zero(t, d.Dropped())
}

func TestDispatcherEmitGivesUpWithContext(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1}, sink)

	// One event sits in the sink, one fills the buffer.
	d.Emit(context.Background(), Event{Type: "a"})
	assert.Eventually(t, func() bool { return len(d.events) == 0 }, time.Second, time.Millisecond)
	d.Emit(context.Background(), Event{Type: "b"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	d.Emit(ctx, Event{Type: "c"})
	assert.Equal(t, uint64(1), d.Dropped())

	close(sink.release)
	d.Close()
	assert.Equal(t, uint64(2), d.Delivered())
}

func TestDispatcherCloseContextDeadline(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 2}, sink)
	d.Emit(context.Background(), Event{Type: "stuck"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, d.CloseContext(ctx), context.DeadlineExceeded)

	close(sink.release)
	require.NoError(t, d.CloseContext(context.Background()))
	assert.Equal(t, uint64(1), d.Delivered())
}
