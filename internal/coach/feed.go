package coach

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Garsondee/Duel-Sense/internal/config"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 64 * 1024

	outboxSize = 16
)

// Feed keeps a websocket connection to the relay open, publishing this
// player's updates and delivering everyone else's to Inbox.
type Feed struct {
	url    string
	player string
	dialer *websocket.Dialer
	logger *zap.Logger

	inbox  chan Message
	outbox chan PlayerUpdate
}

// NewFeed creates a feed for cfg.FeedURL. Nothing connects until Run.
func NewFeed(cfg config.CoachConfig, logger *zap.Logger) *Feed {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Feed{
		url:    cfg.FeedURL,
		player: cfg.Player,
		dialer: &websocket.Dialer{HandshakeTimeout: 5 * time.Second},
		logger: logger.Named("coach_feed"),
		inbox:  make(chan Message, inboxSize),
		outbox: make(chan PlayerUpdate, outboxSize),
	}
}

// Inbox delivers pushed messages. It is never closed.
func (f *Feed) Inbox() <-chan Message { return f.inbox }

// Publish queues a state update. It never blocks; when the outbox is full the
// update is dropped, since a newer one will follow.
func (f *Feed) Publish(data PlayerData) {
	select {
	case f.outbox <- PlayerUpdate{Name: f.player, PlayerData: data}:
	default:
	}
}

// Run connects and reconnects with backoff until ctx is cancelled.
func (f *Feed) Run(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 15 * time.Second
	b.MaxElapsedTime = 0

	for {
		start := time.Now()
		err := f.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if time.Since(start) > pongWait {
			b.Reset()
		}
		wait := b.NextBackOff()
		f.logger.Warn("Feed disconnected, reconnecting", zap.Error(err), zap.Duration("in", wait))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
}

// session runs one connection until it fails or ctx ends.
func (f *Feed) session(ctx context.Context) error {
	conn, _, err := f.dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", f.url, err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(PlayerUpdate{Name: f.player}); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	f.logger.Info("Feed connected", zap.String("url", f.url), zap.String("player", f.player))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		// Unblocks the read pump.
		conn.Close()
		return nil
	})
	g.Go(func() error { return f.readPump(conn) })
	g.Go(func() error { return f.writePump(gctx, conn) })
	return g.Wait()
}

func (f *Feed) readPump(conn *websocket.Conn) error {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		msg, ok := decodeEnvelope(env)
		if !ok {
			f.logger.Debug("Ignoring feed frame", zap.String("type", env.Type))
			continue
		}
		select {
		case f.inbox <- msg:
		default:
			f.logger.Warn("Feed inbox full, dropping message")
		}
	}
}

func (f *Feed) writePump(ctx context.Context, conn *websocket.Conn) error {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return ctx.Err()
		case u := <-f.outbox:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(u); err != nil {
				return fmt.Errorf("write: %w", err)
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return fmt.Errorf("ping: %w", err)
			}
		}
	}
}

// decodeEnvelope turns a relay frame into a display line.
func decodeEnvelope(env Envelope) (Message, bool) {
	now := time.Now()
	switch env.Type {
	case TypeAI:
		return Message{From: "coach", Text: env.Payload, At: now}, true
	case TypeGame:
		var u PlayerUpdate
		if err := json.Unmarshal([]byte(env.Payload), &u); err != nil {
			return Message{}, false
		}
		text := u.PlayerData.Prompt
		if text == "" {
			text = fmt.Sprintf("at (%.0f,%.0f)", u.PlayerData.X, u.PlayerData.Y)
		}
		return Message{From: u.Name, Text: text, At: now}, true
	default:
		return Message{}, false
	}
}
