// Package live maintains the push connection to the auction board: one
// WebSocket at a time, a typed frame router, an explicit reconnect policy
// and a polling fallback for deployments without push support.
package live

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

// ErrNotConnected is returned by Send while no socket is open, instead of
// dropping the frame silently.
var ErrNotConnected = errors.New("not connected")

type State int

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	default:
		return "closed"
	}
}

type Config struct {
	URL string

	// Backoff builds a fresh reconnect schedule after each unexpected
	// close. Nil means a constant 5-second delay with no attempt cap.
	Backoff func() retry.Backoff

	// OnAlert receives server-reported error frames.
	OnAlert func(msg string)
}

// ReconnectPolicy is a constant-delay reconnect schedule, capped at
// maxAttempts when non-zero.
func ReconnectPolicy(delay time.Duration, maxAttempts uint64) func() retry.Backoff {
	return func() retry.Backoff {
		b := retry.NewConstant(delay)
		if maxAttempts > 0 {
			b = retry.WithMaxRetries(maxAttempts, b)
		}
		return b
	}
}

// Channel owns at most one live WebSocket connection. Inbound frames are
// dispatched through the router; an unexpected close schedules exactly one
// reconnect goroutine, which retries per the configured backoff until a
// socket is open again or the policy gives up.
type Channel struct {
	url     string
	backoff func() retry.Backoff
	alert   func(string)
	router  *Router
	dialer  *websocket.Dialer

	mu     sync.Mutex
	conn   *clientConn
	state  State
	closed bool

	stop chan struct{}
	wg   sync.WaitGroup
}

func NewChannel(cfg Config, router *Router) *Channel {
	backoff := cfg.Backoff
	if backoff == nil {
		backoff = ReconnectPolicy(5*time.Second, 0)
	}
	return &Channel{
		url:     cfg.URL,
		backoff: backoff,
		alert:   cfg.OnAlert,
		router:  router,
		dialer:  websocket.DefaultDialer,
		state:   StateConnecting,
		stop:    make(chan struct{}),
	}
}

func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect dials the push endpoint. On failure the reconnect schedule starts
// anyway, so a server that is briefly down at page load is picked up later;
// the dial error is still returned for logging.
func (c *Channel) Connect(ctx context.Context) error {
	if err := c.dial(ctx); err != nil {
		zap.L().Warn("live.dial", zap.String("url", c.url), zap.Error(err))
		c.scheduleReconnect(ctx)
		return err
	}
	return nil
}

// Send writes one JSON frame to the open socket.
func (c *Channel) Send(v any) error {
	c.mu.Lock()
	cc := c.conn
	open := c.state == StateOpen
	c.mu.Unlock()

	if !open || cc == nil {
		return ErrNotConnected
	}
	return cc.writeJSON(v)
}

// Close is the expected, navigation-away shutdown: no reconnect follows.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	cc := c.conn
	c.conn = nil
	c.state = StateClosed
	c.mu.Unlock()

	close(c.stop)
	var err error
	if cc != nil {
		err = cc.close()
	}
	c.wg.Wait()
	return err
}

func (c *Channel) dial(ctx context.Context) error {
	conn, resp, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		return err
	}

	cc := &clientConn{rawConn: conn}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return cc.close()
	}
	c.conn = cc
	c.state = StateOpen
	c.mu.Unlock()

	zap.L().Info("live.open", zap.String("url", c.url))
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.reader(ctx, cc)
	}()
	return nil
}

func (c *Channel) reader(ctx context.Context, cc *clientConn) {
	for {
		_, data, err := cc.rawConn.ReadMessage()
		if err != nil {
			c.onDisconnect(ctx, err)
			return
		}
		c.handleFrame(ctx, data)
	}
}

func (c *Channel) handleFrame(ctx context.Context, data []byte) {
	f, raw, err := decodeFrame(data)
	if err != nil {
		zap.L().Warn("live.decode", zap.Error(err))
		return
	}
	if f.Error != "" {
		if c.alert != nil {
			c.alert(f.Error)
		}
		return
	}
	if err := c.router.dispatch(ctx, f.Type, raw); err != nil {
		if errors.Is(err, ErrUnknownEvent) {
			zap.L().Debug("live.unknown_event", zap.String("type", f.Type))
			return
		}
		zap.L().Warn("live.handle", zap.String("type", f.Type), zap.Error(err))
	}
}

func (c *Channel) onDisconnect(ctx context.Context, err error) {
	c.mu.Lock()
	c.conn = nil
	if c.closed || isExpectedClose(err) {
		c.state = StateClosed
		c.mu.Unlock()
		zap.L().Info("live.closed", zap.Error(err))
		return
	}
	c.state = StateConnecting
	c.mu.Unlock()

	zap.L().Warn("live.closed_unexpectedly", zap.Error(err))
	c.scheduleReconnect(ctx)
}

// scheduleReconnect starts the single retry goroutine for this close event.
func (c *Channel) scheduleReconnect(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		b := c.backoff()
		for {
			delay, stopRetrying := b.Next()
			if stopRetrying {
				zap.L().Warn("live.reconnect_gave_up", zap.String("url", c.url))
				c.setState(StateClosed)
				return
			}

			select {
			case <-c.stop:
				return
			case <-ctx.Done():
				c.setState(StateClosed)
				return
			case <-time.After(delay):
			}

			c.mu.Lock()
			if c.closed || c.conn != nil {
				// Shut down, or a live socket already exists.
				c.mu.Unlock()
				return
			}
			c.mu.Unlock()

			if err := c.dial(ctx); err != nil {
				zap.L().Warn("live.redial", zap.String("url", c.url), zap.Error(err))
				continue
			}
			return
		}
	}()
}

func (c *Channel) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func isExpectedClose(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) ||
		errors.Is(err, net.ErrClosed)
}
