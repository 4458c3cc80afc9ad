package coach

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Garsondee/Duel-Sense/internal/config"
)

// ErrClosed is returned once the client has been closed.
var ErrClosed = errors.New("coach client closed")

// inboxSize bounds replies waiting for the frame loop.
const inboxSize = 32

// Client posts coaching instructions to the relay. Ask blocks; Submit runs
// Ask on a background goroutine and delivers the reply to Inbox.
type Client struct {
	endpoint   string
	player     string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries uint64
	logger     *zap.Logger

	inbox  chan Message
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewClient builds a client from the coach section of the configuration.
func NewClient(cfg config.CoachConfig, logger *zap.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("coach endpoint is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		endpoint:   cfg.Endpoint,
		player:     cfg.Player,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, 1),
		maxRetries: cfg.MaxRetries,
		logger:     logger.Named("coach_client"),
		inbox:      make(chan Message, inboxSize),
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

// Player returns the name instructions are sent under.
func (c *Client) Player() string { return c.player }

// Inbox delivers replies from Submit. It is never closed.
func (c *Client) Inbox() <-chan Message { return c.inbox }

// Ask sends msg and waits for the coach's reply, retrying transient failures.
func (c *Client) Ask(ctx context.Context, msg string) (string, error) {
	if c.ctx.Err() != nil {
		return "", ErrClosed
	}
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return "", fmt.Errorf("empty instruction")
	}
	body, err := json.Marshal(Instruction{Name: c.player, Msg: msg})
	if err != nil {
		return "", fmt.Errorf("failed to marshal instruction: %w", err)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	requestID := uuid.NewString()
	var reply Reply

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create HTTP request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Request-ID", requestID)

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Warn("Coach request failed, retrying", zap.String("request_id", requestID), zap.Error(err))
			return fmt.Errorf("failed to execute HTTP request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			statusErr := fmt.Errorf("coach relay returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return backoff.Permanent(statusErr)
			}
			return statusErr
		}
		if err := json.Unmarshal(respBody, &reply); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode reply: %w", err))
		}

		c.logger.Debug("Coach reply received",
			zap.String("request_id", requestID),
			zap.Duration("duration", time.Since(start)),
		)
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 15 * time.Second
	policy := backoff.WithContext(backoff.WithMaxRetries(b, c.maxRetries), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		return "", err
	}
	return reply.State, nil
}

// Submit sends msg in the background. The reply, or the error, lands in Inbox.
// Submit never blocks; if the inbox is full the result is dropped and logged.
func (c *Client) Submit(msg string) {
	if c.ctx.Err() != nil {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		text, err := c.Ask(c.ctx, msg)
		if err != nil && c.ctx.Err() != nil {
			return
		}
		if err != nil {
			c.logger.Warn("Coach instruction failed", zap.Error(err))
		}
		c.deliver(Message{From: "coach", Text: text, Err: err, At: time.Now()})
	}()
}

func (c *Client) deliver(m Message) {
	select {
	case c.inbox <- m:
	default:
		c.logger.Warn("Coach inbox full, dropping reply")
	}
}

// Close cancels in-flight requests and waits for background sends to finish.
func (c *Client) Close() {
	c.cancel()
	c.wg.Wait()
}
