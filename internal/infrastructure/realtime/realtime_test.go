package realtime_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/apardew63/wetarseel-server/internal/infrastructure/realtime"
)

// fakeTransport records frames written by the connection write loop.
type fakeTransport struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func (f *fakeTransport) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	f.frames = append(f.frames, cp)
	return nil
}

func (f *fakeTransport) WriteControl(messageType int, data []byte, deadline time.Time) error {
	return nil
}

func (f *fakeTransport) SetWriteDeadline(t time.Time) error { return nil }

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeTransport) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func (f *fakeTransport) last() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.frames) == 0 {
		return nil
	}
	return f.frames[len(f.frames)-1]
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func newMember(t *testing.T, hub *realtime.Hub, userID string, rooms ...string) (*realtime.Connection, *fakeTransport) {
	t.Helper()
	tr := &fakeTransport{}
	conn := realtime.NewConnection(userID, tr)
	hub.Attach(conn)
	for _, room := range rooms {
		hub.Join(room, conn)
	}
	return conn, tr
}

func TestBroadcastReachesEveryMemberOnce(t *testing.T) {
	hub := realtime.NewHub()
	defer hub.Close()

	_, trA := newMember(t, hub, "user-a", "conv1")
	_, trB := newMember(t, hub, "user-b", "conv1")
	_, trC := newMember(t, hub, "user-c", "conv2")

	delivered := hub.Broadcast("conv1", []byte(`{"hello":true}`), "")
	if delivered != 2 {
		t.Errorf("Broadcast delivered = %d, want 2", delivered)
	}

	waitFor(t, func() bool { return trA.count() == 1 && trB.count() == 1 })
	if trC.count() != 0 {
		t.Errorf("non-member received %d frames, want 0", trC.count())
	}
}

func TestBroadcastExcludesSender(t *testing.T) {
	hub := realtime.NewHub()
	defer hub.Close()

	_, trA := newMember(t, hub, "user-a", "conv1")
	_, trB := newMember(t, hub, "user-b", "conv1")

	delivered := hub.Broadcast("conv1", []byte(`{"typing":true}`), "user-a")
	if delivered != 1 {
		t.Errorf("Broadcast delivered = %d, want 1", delivered)
	}

	waitFor(t, func() bool { return trB.count() == 1 })
	time.Sleep(20 * time.Millisecond)
	if trA.count() != 0 {
		t.Errorf("excluded sender received %d frames, want 0", trA.count())
	}
}

func TestJoinIsIdempotent(t *testing.T) {
	hub := realtime.NewHub()
	defer hub.Close()

	conn, tr := newMember(t, hub, "user-a")
	hub.Join("conv1", conn)
	hub.Join("conv1", conn)
	hub.Join("conv1", conn)

	hub.Broadcast("conv1", []byte("x"), "")
	waitFor(t, func() bool { return tr.count() == 1 })
	time.Sleep(20 * time.Millisecond)
	if got := tr.count(); got != 1 {
		t.Errorf("member received %d frames after repeated joins, want 1", got)
	}
}

func TestDetachDiscardsMemberships(t *testing.T) {
	hub := realtime.NewHub()
	defer hub.Close()

	conn, tr := newMember(t, hub, "user-a", "conv1", "conv2")
	hub.Detach(conn)

	if got := hub.Broadcast("conv1", []byte("x"), ""); got != 0 {
		t.Errorf("Broadcast delivered = %d after detach, want 0", got)
	}
	if got := hub.Broadcast("conv2", []byte("x"), ""); got != 0 {
		t.Errorf("Broadcast delivered = %d after detach, want 0", got)
	}
	time.Sleep(20 * time.Millisecond)
	if tr.count() != 0 {
		t.Errorf("detached connection received %d frames, want 0", tr.count())
	}
}

func TestJoinBeforeAttachIsIgnored(t *testing.T) {
	hub := realtime.NewHub()
	defer hub.Close()

	tr := &fakeTransport{}
	conn := realtime.NewConnection("user-a", tr)
	hub.Join("conv1", conn)

	if got := hub.Broadcast("conv1", []byte("x"), ""); got != 0 {
		t.Errorf("Broadcast delivered = %d for unattached join, want 0", got)
	}
}

func TestBroadcastToEmptyRoom(t *testing.T) {
	hub := realtime.NewHub()
	defer hub.Close()

	if got := hub.Broadcast("nobody-here", []byte("x"), ""); got != 0 {
		t.Errorf("Broadcast delivered = %d, want 0", got)
	}
}

// fakeFanout is an in-memory backplane double.
type fakeFanout struct {
	mu        sync.Mutex
	available bool
	published [][]byte
	inbox     chan []byte
	pubErr    error
}

func newFakeFanout(available bool) *fakeFanout {
	return &fakeFanout{available: available, inbox: make(chan []byte, 16)}
}

func (f *fakeFanout) Publish(ctx context.Context, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pubErr != nil {
		return f.pubErr
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	f.published = append(f.published, cp)
	return nil
}

func (f *fakeFanout) Messages() <-chan []byte { return f.inbox }
func (f *fakeFanout) Available() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.available
}

func (f *fakeFanout) publishedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.published)
}

func TestAdaptRejectsUnavailableBackplane(t *testing.T) {
	hub := realtime.NewHub()
	defer hub.Close()

	if hub.Adapt(nil) {
		t.Error("Adapt(nil) = true, want false")
	}
	if hub.Adapt(newFakeFanout(false)) {
		t.Error("Adapt(unavailable) = true, want false")
	}
}

func TestBroadcastReplicatesThroughBackplane(t *testing.T) {
	hub := realtime.NewHub()
	defer hub.Close()

	fan := newFakeFanout(true)
	if !hub.Adapt(fan) {
		t.Fatal("Adapt(available) = false, want true")
	}

	newMember(t, hub, "user-a", "conv1")
	hub.Broadcast("conv1", []byte(`{"body":"hi"}`), "")

	waitFor(t, func() bool { return fan.publishedCount() == 1 })

	var env struct {
		Origin  string          `json:"origin"`
		Room    string          `json:"room"`
		Payload json.RawMessage `json:"payload"`
	}
	fan.mu.Lock()
	frame := fan.published[0]
	fan.mu.Unlock()
	if err := json.Unmarshal(frame, &env); err != nil {
		t.Fatalf("published frame is not a valid envelope: %v", err)
	}
	if env.Room != "conv1" {
		t.Errorf("envelope room = %q, want conv1", env.Room)
	}
	if env.Origin == "" {
		t.Error("envelope origin is empty")
	}
	if string(env.Payload) != `{"body":"hi"}` {
		t.Errorf("envelope payload = %s", env.Payload)
	}
}

func TestRemoteFramesAreAppliedLocally(t *testing.T) {
	hub := realtime.NewHub()
	defer hub.Close()

	fan := newFakeFanout(true)
	hub.Adapt(fan)

	_, tr := newMember(t, hub, "user-b", "conv1")

	remote, _ := json.Marshal(map[string]any{
		"origin":  "some-other-process",
		"room":    "conv1",
		"payload": json.RawMessage(`{"body":"from afar"}`),
	})
	fan.inbox <- remote

	waitFor(t, func() bool { return tr.count() == 1 })
	if got := string(tr.last()); got != `{"body":"from afar"}` {
		t.Errorf("delivered frame = %s, want remote payload", got)
	}
}

func TestOwnFramesAreNotEchoed(t *testing.T) {
	hub := realtime.NewHub()
	defer hub.Close()

	fan := newFakeFanout(true)
	hub.Adapt(fan)

	_, tr := newMember(t, hub, "user-a", "conv1")
	hub.Broadcast("conv1", []byte(`{"n":1}`), "")
	waitFor(t, func() bool { return fan.publishedCount() == 1 })

	// Feed the hub's own envelope back in, as Redis pub/sub would.
	fan.mu.Lock()
	own := fan.published[0]
	fan.mu.Unlock()
	fan.inbox <- own

	waitFor(t, func() bool { return tr.count() == 1 })
	time.Sleep(50 * time.Millisecond)
	if got := tr.count(); got != 1 {
		t.Errorf("member received %d frames, want 1 (own frame must not echo)", got)
	}
}

func TestBroadcastSurvivesPublishFailure(t *testing.T) {
	hub := realtime.NewHub()
	defer hub.Close()

	fan := newFakeFanout(true)
	fan.pubErr = errors.New("backplane gone")
	hub.Adapt(fan)

	_, tr := newMember(t, hub, "user-a", "conv1")
	if got := hub.Broadcast("conv1", []byte("x"), ""); got != 1 {
		t.Errorf("Broadcast delivered = %d with failing backplane, want 1", got)
	}
	waitFor(t, func() bool { return tr.count() == 1 })
}

type allowGate struct{ userID string }

func (g allowGate) Authenticate(r *http.Request) (string, error) { return g.userID, nil }

func TestAuthorizeRequiresGate(t *testing.T) {
	hub := realtime.NewHub()
	defer hub.Close()

	req, _ := http.NewRequest(http.MethodGet, "/ws", nil)
	if _, err := hub.Authorize(req); !errors.Is(err, realtime.ErrNoGate) {
		t.Errorf("Authorize without gate = %v, want ErrNoGate", err)
	}

	hub.AttachAuth(allowGate{userID: "user-1"})
	userID, err := hub.Authorize(req)
	if err != nil {
		t.Fatalf("Authorize with gate: %v", err)
	}
	if userID != "user-1" {
		t.Errorf("Authorize userID = %q, want user-1", userID)
	}
}

func TestConnectionSendAfterClose(t *testing.T) {
	tr := &fakeTransport{}
	conn := realtime.NewConnection("user-a", tr)
	conn.Start()
	conn.Close(1000, "bye")

	if err := conn.Send([]byte("late")); err == nil {
		t.Error("Send after Close succeeded, want error")
	}
}

func TestConnectionCloseThenSendNeverPanics(t *testing.T) {
	for i := 0; i < 200; i++ {
		tr := &fakeTransport{}
		conn := realtime.NewConnection("user-a", tr)
		conn.Start()
		conn.Close(1000, "bye")
		if err := conn.Send([]byte("late")); err == nil {
			t.Fatal("Send after Close succeeded, want error")
		}
	}
}

func TestConnectionSendRacingCloseNeverPanics(t *testing.T) {
	for i := 0; i < 200; i++ {
		tr := &fakeTransport{}
		conn := realtime.NewConnection("user-a", tr)
		conn.Start()

		done := make(chan struct{})
		go func() {
			defer close(done)
			for j := 0; j < 10; j++ {
				_ = conn.Send([]byte("frame"))
			}
		}()
		conn.Close(1000, "bye")
		<-done
	}
}

func TestConnectionWritesEnqueuedFrames(t *testing.T) {
	tr := &fakeTransport{}
	conn := realtime.NewConnection("user-a", tr)
	conn.Start()
	defer conn.Close(1000, "done")

	if err := conn.Send([]byte("one")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := conn.Send([]byte("two")); err != nil {
		t.Fatalf("Send: %v", err)
	}

	waitFor(t, func() bool { return tr.count() == 2 })
	if got := string(tr.last()); got != "two" {
		t.Errorf("last frame = %q, want two (program order preserved)", got)
	}
}
