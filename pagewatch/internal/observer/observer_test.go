package observer

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// testObserver builds an Observer with the rod page wiring replaced:
// readURL returns whatever the test last pushed, and fired events are
// collected for assertion.
type testObserver struct {
	o *Observer

	mu      sync.Mutex
	current string
	fired   []string
}

func newTestObserver(t *testing.T, settle time.Duration, initialURL string) *testObserver {
	t.Helper()

	to := &testObserver{current: initialURL}
	to.o = New(Config{
		SettleDelay: settle,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		OnNavigate: func(url string) {
			to.mu.Lock()
			to.fired = append(to.fired, url)
			to.mu.Unlock()
		},
	})
	to.o.readURL = func() (string, error) {
		to.mu.Lock()
		defer to.mu.Unlock()
		return to.current, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	to.o.ctx = ctx
	to.o.cancel = cancel
	t.Cleanup(cancel)

	go to.o.loop(initialURL)
	return to
}

// ping simulates the injected script reporting a URL.
func (to *testObserver) ping(url string) {
	to.mu.Lock()
	to.current = url
	to.mu.Unlock()
	to.o.urlCh <- url
}

func (to *testObserver) firedURLs() []string {
	to.mu.Lock()
	defer to.mu.Unlock()
	return append([]string(nil), to.fired...)
}

func TestLoop_FiresOnceAfterSettle(t *testing.T) {
	to := newTestObserver(t, 30*time.Millisecond, "https://store.example/")

	to.ping("https://store.example/app/1")
	time.Sleep(100 * time.Millisecond)

	got := to.firedURLs()
	if len(got) != 1 {
		t.Fatalf("fired %d events, want 1: %v", len(got), got)
	}
	if got[0] != "https://store.example/app/1" {
		t.Errorf("fired URL = %q, want %q", got[0], "https://store.example/app/1")
	}
}

func TestLoop_UnchangedURLDoesNotFire(t *testing.T) {
	to := newTestObserver(t, 30*time.Millisecond, "https://store.example/app/1")

	// DOM churn: pings arrive but the URL never changes.
	for i := 0; i < 5; i++ {
		to.ping("https://store.example/app/1")
	}
	time.Sleep(100 * time.Millisecond)

	if got := to.firedURLs(); len(got) != 0 {
		t.Fatalf("fired %d events, want 0: %v", len(got), got)
	}
}

func TestLoop_RapidNavigationSupersedes(t *testing.T) {
	to := newTestObserver(t, 50*time.Millisecond, "https://store.example/")

	// Second navigation lands inside the settle window of the first.
	to.ping("https://store.example/app/1")
	time.Sleep(10 * time.Millisecond)
	to.ping("https://store.example/app/2")
	time.Sleep(150 * time.Millisecond)

	got := to.firedURLs()
	if len(got) != 1 {
		t.Fatalf("fired %d events, want 1 (pending timer superseded): %v", len(got), got)
	}
	if got[0] != "https://store.example/app/2" {
		t.Errorf("fired URL = %q, want the final destination", got[0])
	}
}

func TestLoop_ReadsURLAtFireTime(t *testing.T) {
	to := newTestObserver(t, 40*time.Millisecond, "https://store.example/")

	to.ping("https://store.example/app/1")

	// The page moves again without a ping making it through before the
	// timer fires; the event must carry the fire-time URL.
	to.mu.Lock()
	to.current = "https://store.example/app/9"
	to.mu.Unlock()

	time.Sleep(120 * time.Millisecond)

	got := to.firedURLs()
	if len(got) != 1 {
		t.Fatalf("fired %d events, want 1: %v", len(got), got)
	}
	if got[0] != "https://store.example/app/9" {
		t.Errorf("fired URL = %q, want fire-time URL %q", got[0], "https://store.example/app/9")
	}
}

func TestLoop_DistinctNavigationsFireSeparately(t *testing.T) {
	to := newTestObserver(t, 20*time.Millisecond, "https://store.example/")

	to.ping("https://store.example/app/1")
	time.Sleep(80 * time.Millisecond)
	to.ping("https://store.example/cart")
	time.Sleep(80 * time.Millisecond)

	got := to.firedURLs()
	if len(got) != 2 {
		t.Fatalf("fired %d events, want 2: %v", len(got), got)
	}
}
