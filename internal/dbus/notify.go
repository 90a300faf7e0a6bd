package dbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
)

// Urgency levels for outgoing notifications.
const (
	UrgencyLow    byte = 0
	UrgencyNormal byte = 1
)

// Notifier sends notifications to whatever server owns the bus name.
type Notifier struct {
	appName string
	logger  *slog.Logger

	mu   sync.Mutex
	conn *dbus.Conn
}

// NewNotifier creates a notifier posting as appName.
func NewNotifier(appName string, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{appName: appName, logger: logger}
}

// toastNotification builds a transient, low urgency notification.
func (n *Notifier) toastNotification(summary, body string, timeout time.Duration) *DBusNotification {
	return &DBusNotification{
		AppName: n.appName,
		AppIcon: "audio-x-generic",
		Summary: summary,
		Body:    body,
		Hints: map[string]dbus.Variant{
			"urgency":       dbus.MakeVariant(UrgencyLow),
			"transient":     dbus.MakeVariant(true),
			"desktop-entry": dbus.MakeVariant(n.appName),
		},
		ExpireTimeout: int32(timeout / time.Millisecond),
	}
}

// Toast sends a short-lived notification and returns its id.
func (n *Notifier) Toast(ctx context.Context, summary, body string, timeout time.Duration) (uint32, error) {
	conn, err := n.connection()
	if err != nil {
		return 0, err
	}

	msg := n.toastNotification(summary, body, timeout)
	actions := msg.Actions
	if actions == nil {
		actions = []string{}
	}

	var id uint32
	err = conn.Object(DBusBusName, DBusPath).CallWithContext(ctx, DBusInterface+".Notify", 0,
		msg.AppName, msg.ReplacesID, msg.AppIcon, msg.Summary, msg.Body,
		actions, msg.Hints, msg.ExpireTimeout).Store(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to send notification: %w", err)
	}

	n.logger.Debug("sent notification", "id", id, "summary", summary)
	return id, nil
}

// Close releases the bus connection.
func (n *Notifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.conn == nil {
		return nil
	}
	err := n.conn.Close()
	n.conn = nil
	return err
}

func (n *Notifier) connection() (*dbus.Conn, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.conn != nil && n.conn.Connected() {
		return n.conn, nil
	}
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	n.conn = conn
	return conn, nil
}
