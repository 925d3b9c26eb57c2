// Package notify holds short-lived status messages for the dice board.
package notify

import (
	"sync"
	"time"
)

const DefaultTTL = 1500 * time.Millisecond

type Kind string

const (
	KindOK    Kind = "ok"
	KindError Kind = "err"
)

type Notice struct {
	Text      string
	Kind      Kind
	ExpiresAt time.Time
}

// Toast shows at most one notice at a time. Each Show restarts the window.
type Toast struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	current *Notice
}

func NewToast(ttl time.Duration) *Toast {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Toast{ttl: ttl, now: time.Now}
}

func (t *Toast) Show(text string, kind Kind) Notice {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := Notice{Text: text, Kind: kind, ExpiresAt: t.now().Add(t.ttl)}
	t.current = &n
	return n
}

// Current returns the visible notice, dropping it once its window has passed.
func (t *Toast) Current() (Notice, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == nil {
		return Notice{}, false
	}
	if !t.now().Before(t.current.ExpiresAt) {
		t.current = nil
		return Notice{}, false
	}
	return *t.current, true
}

func (t *Toast) Dismiss() {
	t.mu.Lock()
	t.current = nil
	t.mu.Unlock()
}

func (t *Toast) TTL() time.Duration {
	return t.ttl
}
