package daemon

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// sendTimeout bounds a single toast delivery.
const sendTimeout = 2 * time.Second

// Sender delivers a desktop notification.
type Sender interface {
	Toast(ctx context.Context, summary, body string, timeout time.Duration) (uint32, error)
}

// Toaster sends short feedback notifications, dropping repeats of the same
// message within a minimum interval.
type Toaster struct {
	mu     sync.Mutex
	sender Sender
	logger *slog.Logger
	now    func() time.Time

	lastSent    map[string]time.Time // message -> last send time
	minInterval time.Duration
	timeout     time.Duration
	enabled     bool
}

// NewToaster creates an enabled toaster.
func NewToaster(sender Sender, logger *slog.Logger) *Toaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Toaster{
		sender:      sender,
		logger:      logger,
		now:         time.Now,
		lastSent:    make(map[string]time.Time),
		minInterval: 2 * time.Second,
		timeout:     2 * time.Second,
		enabled:     true,
	}
}

// SetEnabled enables or disables toasts.
func (t *Toaster) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
}

// SetMinInterval sets the minimum interval between identical toasts.
func (t *Toaster) SetMinInterval(interval time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.minInterval = interval
}

// SetTimeout sets the expire timeout passed to the notification server.
func (t *Toaster) SetTimeout(timeout time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timeout = timeout
}

// Toast sends message in the background. It never blocks the caller.
func (t *Toaster) Toast(message string) {
	go t.Send(context.Background(), message)
}

// Send delivers message unless toasts are disabled or it was sent recently.
// It reports whether the message went out.
func (t *Toaster) Send(ctx context.Context, message string) bool {
	t.mu.Lock()
	if !t.enabled || t.sender == nil {
		t.mu.Unlock()
		t.logger.Debug("toast skipped", "message", message)
		return false
	}

	now := t.now()
	if last, ok := t.lastSent[message]; ok && now.Sub(last) < t.minInterval {
		t.mu.Unlock()
		t.logger.Debug("toast rate-limited", "message", message)
		return false
	}
	t.lastSent[message] = now
	timeout := t.timeout
	t.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if _, err := t.sender.Toast(ctx, message, "", timeout); err != nil {
		t.logger.Warn("failed to send toast", "message", message, "error", err)
		return false
	}
	return true
}
