package local

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/MrEthical07/goConsole/identity"
	"github.com/MrEthical07/goConsole/session"
	"github.com/redis/go-redis/v9"
)

// busMessage is the payload published on <prefix>:events. Sessions are not
// sent over the wire; receivers re-read them from the shared store.
type busMessage struct {
	Origin    string `json:"origin"`
	Kind      string `json:"kind"`
	SessionID string `json:"sid,omitempty"`
}

func (p *Provider) channel() string {
	return p.config.Prefix + ":events"
}

func parseKind(s string) (identity.EventKind, bool) {
	for _, k := range []identity.EventKind{
		identity.EventInitialSession,
		identity.EventSignedIn,
		identity.EventSignedOut,
		identity.EventTokenRefreshed,
		identity.EventUserUpdated,
	} {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// broadcast tells other instances sharing the store about a local change.
// Failures only cost cross-instance freshness and are logged.
func (p *Provider) broadcast(ctx context.Context, kind identity.EventKind, sessionID string) {
	payload, err := json.Marshal(busMessage{Origin: p.origin, Kind: kind.String(), SessionID: sessionID})
	if err != nil {
		return
	}
	if err := p.redis.Publish(ctx, p.channel(), payload).Err(); err != nil {
		p.logger.Warn("event broadcast failed", "event", kind.String(), "error", err)
	}
}

// listen subscribes to the change channel and relays remote events until ctx
// is cancelled. It returns once the subscription is confirmed, waiting at most
// as long as confirmCtx allows.
func (p *Provider) listen(confirmCtx, ctx context.Context) error {
	pubsub := p.redis.Subscribe(confirmCtx, p.channel())
	if _, err := pubsub.Receive(confirmCtx); err != nil {
		_ = pubsub.Close()
		return err
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				p.handleRemote(ctx, msg)
			}
		}
	}()
	return nil
}

func (p *Provider) handleRemote(ctx context.Context, msg *redis.Message) {
	var m busMessage
	if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
		p.logger.Debug("malformed bus message dropped", "error", err)
		return
	}
	if m.Origin == p.origin {
		return
	}
	kind, ok := parseKind(m.Kind)
	if !ok {
		p.logger.Debug("unknown bus event dropped", "event", m.Kind)
		return
	}

	if kind == identity.EventSignedOut {
		p.disarm("")
		p.Publish(identity.Event{Kind: identity.EventSignedOut})
		return
	}

	sess, err := p.store.Load(ctx, p.config.Profile)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			p.logger.Warn("remote event session load failed", "event", m.Kind, "error", err)
		}
		return
	}
	if sess.ID != m.SessionID {
		// Superseded by a later change the bus will deliver too.
		return
	}
	p.arm(sess)
	p.Publish(identity.Event{Kind: kind, Session: sess})
}
