package backplane_test

import (
	"testing"
	"time"

	"github.com/apardew63/wetarseel-server/internal/infrastructure/backplane"
)

func TestRetryDelay(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
		wantOK  bool
	}{
		{attempt: 1, want: 50 * time.Millisecond, wantOK: true},
		{attempt: 2, want: 100 * time.Millisecond, wantOK: true},
		{attempt: 10, want: 500 * time.Millisecond, wantOK: true},
		{attempt: 11, want: 0, wantOK: false},
		{attempt: 40, want: 0, wantOK: false},
	}

	for _, tt := range tests {
		got, ok := backplane.RetryDelay(tt.attempt)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("RetryDelay(%d) = (%s, %v), want (%s, %v)", tt.attempt, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestRetryDelayIsCapped(t *testing.T) {
	// The cap only matters for hypothetical large attempt numbers inside
	// the budget; verify the formula itself never exceeds 2s.
	for attempt := 1; attempt <= 10; attempt++ {
		got, ok := backplane.RetryDelay(attempt)
		if !ok {
			t.Fatalf("RetryDelay(%d) stopped inside the attempt budget", attempt)
		}
		if got > 2*time.Second {
			t.Errorf("RetryDelay(%d) = %s, exceeds 2s cap", attempt, got)
		}
	}
}

func TestConfigureFromURL(t *testing.T) {
	opt := backplane.Configure(backplane.Source{URL: "redis://:secret@redis.example.com:6380/2"})

	if opt.Addr != "redis.example.com:6380" {
		t.Errorf("Addr = %q, want %q", opt.Addr, "redis.example.com:6380")
	}
	if opt.Password != "secret" {
		t.Errorf("Password = %q, want %q", opt.Password, "secret")
	}
	if opt.DB != 2 {
		t.Errorf("DB = %d, want 2", opt.DB)
	}
	if opt.TLSConfig != nil {
		t.Error("TLSConfig set for plain redis:// URL")
	}
}

func TestConfigureFromTLSURL(t *testing.T) {
	opt := backplane.Configure(backplane.Source{URL: "rediss://:secret@cloud.example.com:6379"})
	if opt.TLSConfig == nil {
		t.Error("TLSConfig not set for rediss:// URL")
	}
}

func TestConfigureURLTakesPrecedence(t *testing.T) {
	opt := backplane.Configure(backplane.Source{
		URL:  "redis://urlhost:7000",
		Host: "fieldhost",
		Port: 8000,
	})
	if opt.Addr != "urlhost:7000" {
		t.Errorf("Addr = %q, want URL form to win", opt.Addr)
	}
}

func TestConfigureMalformedURLFallsBack(t *testing.T) {
	opt := backplane.Configure(backplane.Source{URL: "http://not-a-redis-url"})
	if opt.Addr != "localhost:6379" {
		t.Errorf("Addr = %q, want default localhost:6379", opt.Addr)
	}
}

func TestConfigureDiscreteFields(t *testing.T) {
	opt := backplane.Configure(backplane.Source{
		Host:     "10.0.0.5",
		Port:     6380,
		Password: "pw",
		DB:       1,
		TLS:      true,
	})
	if opt.Addr != "10.0.0.5:6380" {
		t.Errorf("Addr = %q, want %q", opt.Addr, "10.0.0.5:6380")
	}
	if opt.Password != "pw" || opt.DB != 1 {
		t.Errorf("Password/DB = %q/%d, want pw/1", opt.Password, opt.DB)
	}
	if opt.TLSConfig == nil {
		t.Error("TLSConfig not set when TLS flag is true")
	}
}

func TestConfigureEmptySourceDefaults(t *testing.T) {
	opt := backplane.Configure(backplane.Source{})
	if opt.Addr != "localhost:6379" {
		t.Errorf("Addr = %q, want default localhost:6379", opt.Addr)
	}
}

func TestNewClientIsLazy(t *testing.T) {
	// Construction must not touch the network; state stays "connecting"
	// until Connect is called.
	c := backplane.New(backplane.Source{Host: "192.0.2.1", Port: 6379}, "wetarseel:rooms")
	defer c.Close()

	if got := c.State(); got != backplane.StateConnecting {
		t.Errorf("State() = %s, want connecting", got)
	}
	if c.Available() {
		t.Error("Available() = true before any connection attempt")
	}
	if got := c.Channel(); got != "wetarseel:rooms" {
		t.Errorf("Channel() = %q, want %q", got, "wetarseel:rooms")
	}
}

func TestPublishFailsFastWhenUnavailable(t *testing.T) {
	c := backplane.New(backplane.Source{Host: "192.0.2.1", Port: 6379}, "wetarseel:rooms")
	defer c.Close()

	if err := c.Publish(t.Context(), []byte("payload")); err == nil {
		t.Error("Publish succeeded while disconnected, want fail-fast error")
	}
}

func TestCloseBeforeConnect(t *testing.T) {
	c := backplane.New(backplane.Source{Host: "192.0.2.1", Port: 6379}, "wetarseel:rooms")

	c.Close()
	c.Close()

	if got := c.State(); got != backplane.StateClosed {
		t.Errorf("State() = %s, want closed", got)
	}
	select {
	case _, ok := <-c.Messages():
		if ok {
			t.Error("Messages() delivered a frame on a client that never connected")
		}
	default:
		t.Error("Messages() still open after Close with no subscriber")
	}
}

func TestStateString(t *testing.T) {
	states := map[backplane.State]string{
		backplane.StateConnecting:   "connecting",
		backplane.StateReady:        "ready",
		backplane.StateError:        "error",
		backplane.StateReconnecting: "reconnecting",
		backplane.StateClosed:       "closed",
	}
	for state, want := range states {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}
