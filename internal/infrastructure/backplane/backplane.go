// Package backplane maintains the Redis pub/sub connection pair used to
// replicate room broadcasts across server processes. The backplane is an
// optimization for horizontal scaling: every failure mode here degrades the
// server to single-process fan-out, never crashes it.
package backplane

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// State describes the lifecycle of the backplane connection pair.
type State int32

const (
	StateConnecting State = iota
	StateReady
	StateError
	StateReconnecting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

const (
	maxRetryAttempts = 10
	maxRetryDelay    = 2000 * time.Millisecond
	retryStep        = 50 * time.Millisecond

	defaultAddr           = "localhost:6379"
	defaultConnectTimeout = 10 * time.Second
	defaultCommandTimeout = 5 * time.Second
	healthCheckPeriod     = 30 * time.Second
)

// RetryDelay implements the reconnection backoff policy:
// delay = min(attempt*50ms, 2s). The second return value is false once the
// attempt budget is exhausted, which permanently disables reconnection
// until process restart.
func RetryDelay(attempt int) (time.Duration, bool) {
	if attempt > maxRetryAttempts {
		return 0, false
	}
	delay := time.Duration(attempt) * retryStep
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay, true
}

// Source carries the connection parameters for the backplane. URL takes
// precedence over the discrete fields when both are set.
type Source struct {
	URL      string
	Host     string
	Port     int
	Password string
	DB       int
	TLS      bool
}

// Configure builds go-redis options from the source. A malformed URL falls
// back to the discrete fields (and ultimately localhost:6379) with a warning;
// it is never a fatal error.
func Configure(src Source) *redis.Options {
	if src.URL != "" {
		opt, err := redis.ParseURL(src.URL)
		if err == nil {
			tune(opt)
			return opt
		}
		log.Printf("backplane: failed to parse REDIS_URL, falling back to discrete config: %v", err)
	}

	host := src.Host
	if host == "" {
		host = "localhost"
	}
	port := src.Port
	if port == 0 {
		port = 6379
	}
	opt := &redis.Options{
		Addr:     net.JoinHostPort(host, strconv.Itoa(port)),
		Password: src.Password,
		DB:       src.DB,
	}
	if src.TLS {
		opt.TLSConfig = &tls.Config{}
	}
	tune(opt)
	return opt
}

func tune(opt *redis.Options) {
	// Commands fail fast while disconnected instead of queueing: retrying
	// individual commands would silently buffer unbounded work under a
	// partition. Reconnection is handled by the client's own retry loop.
	opt.MaxRetries = -1
	opt.DialTimeout = defaultConnectTimeout
	opt.ReadTimeout = defaultCommandTimeout
	opt.WriteTimeout = defaultCommandTimeout
}

// Client wraps a publish connection and a dedicated subscribe connection.
// Construction is side-effect free; Connect performs the first network
// attempt so callers can finish wiring before any error can surface.
type Client struct {
	opt     *redis.Options
	channel string

	pub *redis.Client
	sub *redis.Client

	state atomic.Int32

	mu     sync.Mutex
	pubsub *redis.PubSub
	msgs   chan []byte
	done   chan struct{}
	once   sync.Once
}

// New constructs a Client for the given source. No connection is made yet.
func New(src Source, channel string) *Client {
	c := &Client{
		opt:     Configure(src),
		channel: channel,
		msgs:    make(chan []byte, 256),
		done:    make(chan struct{}),
	}
	c.state.Store(int32(StateConnecting))
	return c
}

// State reports the current connection state.
func (c *Client) State() State {
	return State(c.state.Load())
}

// Available reports whether the publish role is ready to accept commands.
func (c *Client) Available() bool {
	return c.State() == StateReady
}

// Channel returns the pub/sub channel name broadcasts travel on.
func (c *Client) Channel() string {
	return c.channel
}

// Connect establishes both roles and starts the subscriber relay and the
// health monitor. Connection failures are reported but leave the client in
// a reconnecting state handled by the retry loop.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.pub == nil {
		c.pub = redis.NewClient(c.opt)
		c.sub = redis.NewClient(c.opt)
	}
	c.mu.Unlock()

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
	defer cancel()
	if err := c.pub.Ping(pingCtx).Err(); err != nil {
		c.state.Store(int32(StateReconnecting))
		go c.retryLoop()
		return fmt.Errorf("backplane: initial connect: %w", err)
	}

	c.state.Store(int32(StateReady))
	log.Printf("backplane: connected to %s", c.opt.Addr)

	c.startSubscriber()
	go c.monitor()
	return nil
}

// Publish sends payload on the broadcast channel. It fails fast when the
// backplane is not ready; callers fall back to in-process fan-out.
func (c *Client) Publish(ctx context.Context, payload []byte) error {
	if !c.Available() {
		return fmt.Errorf("backplane: not available (state=%s)", c.State())
	}
	return c.pub.Publish(ctx, c.channel, payload).Err()
}

// Messages exposes frames received from other processes. The channel is
// closed when the client shuts down.
func (c *Client) Messages() <-chan []byte {
	return c.msgs
}

// Close shuts both roles down best-effort. Errors are swallowed; this runs
// on process termination where there is nothing left to do about them.
func (c *Client) Close() {
	c.once.Do(func() {
		c.state.Store(int32(StateClosed))
		close(c.done)

		c.mu.Lock()
		hadSubscriber := c.pubsub != nil
		if c.pubsub != nil {
			_ = c.pubsub.Close()
		}
		if c.sub != nil {
			_ = c.sub.Close()
		}
		if c.pub != nil {
			_ = c.pub.Close()
		}
		c.mu.Unlock()

		// The subscriber goroutine is the sole sender on msgs and closes it
		// on exit; closing it here too could race a frame mid-relay. Only
		// close directly when no subscriber was ever started.
		if !hadSubscriber {
			close(c.msgs)
		}
		log.Printf("backplane: connections closed")
	})
}

func (c *Client) startSubscriber() {
	c.mu.Lock()
	if c.pubsub != nil || c.State() == StateClosed {
		c.mu.Unlock()
		return
	}
	c.pubsub = c.sub.Subscribe(context.Background(), c.channel)
	ps := c.pubsub
	c.mu.Unlock()

	go func() {
		defer close(c.msgs)
		for msg := range ps.Channel() {
			select {
			case c.msgs <- []byte(msg.Payload):
			case <-c.done:
				return
			default:
				// A stalled consumer must not block the subscriber; drop
				// and let clients rejoin state via their own reconnects.
				log.Printf("backplane: dropping frame, relay buffer full")
			}
		}
	}()
}

// monitor pings the publish role periodically and hands control to the
// retry loop when the connection is lost.
func (c *Client) monitor() {
	ticker := time.NewTicker(healthCheckPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if c.State() != StateReady {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), defaultCommandTimeout)
			err := c.pub.Ping(ctx).Err()
			cancel()
			if err != nil {
				log.Printf("backplane: connection lost: %v", err)
				c.state.Store(int32(StateReconnecting))
				if !c.reconnect() {
					return
				}
			}
		}
	}
}

func (c *Client) retryLoop() {
	if c.reconnect() {
		c.startSubscriber()
		go c.monitor()
	}
}

// reconnect runs the bounded backoff policy. Exhausting the attempt budget
// is deliberately downgraded to a warning: the server keeps running in
// single-process mode.
func (c *Client) reconnect() bool {
	for attempt := 1; ; attempt++ {
		delay, ok := RetryDelay(attempt)
		if !ok {
			log.Printf("backplane: max retry attempts reached, giving up until restart; continuing without backplane")
			c.state.Store(int32(StateError))
			return false
		}
		log.Printf("backplane: retry attempt %d in %s", attempt, delay)

		select {
		case <-c.done:
			return false
		case <-time.After(delay):
		}

		ctx, cancel := context.WithTimeout(context.Background(), defaultConnectTimeout)
		err := c.pub.Ping(ctx).Err()
		cancel()
		if err == nil {
			c.state.Store(int32(StateReady))
			log.Printf("backplane: reconnected to %s", c.opt.Addr)
			return true
		}
		log.Printf("backplane: retry attempt %d failed: %v", attempt, err)
	}
}
