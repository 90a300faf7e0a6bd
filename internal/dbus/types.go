package dbus

import (
	"strings"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/tracknote/internal/decode"
)

const (
	// DBusInterface is the notification interface name.
	DBusInterface = "org.freedesktop.Notifications"
	// DBusPath is the notification object path.
	DBusPath = "/org/freedesktop/Notifications"
	// DBusBusName is the well-known name of the notification server.
	DBusBusName = "org.freedesktop.Notifications"
)

// CloseReason is the reason carried by NotificationClosed.
// Values are defined by the freedesktop.org notification specification.
type CloseReason uint32

const (
	// CloseReasonExpired indicates the notification expired (timeout reached).
	CloseReasonExpired CloseReason = 1
	// CloseReasonDismissed indicates the user dismissed the notification.
	CloseReasonDismissed CloseReason = 2
	// CloseReasonClosed indicates the sender closed it via CloseNotification.
	CloseReasonClosed CloseReason = 3
	// CloseReasonUndefined is reserved by the protocol.
	CloseReasonUndefined CloseReason = 4
)

// String returns the string representation of the close reason.
func (r CloseReason) String() string {
	switch r {
	case CloseReasonExpired:
		return "expired"
	case CloseReasonDismissed:
		return "dismissed"
	case CloseReasonClosed:
		return "closed"
	case CloseReasonUndefined:
		return "undefined"
	default:
		return "unknown"
	}
}

// EndsPlayback reports whether a close with this reason means the player
// withdrew its notification. Expiry only means the popup timed out.
func (r CloseReason) EndsPlayback() bool {
	return r == CloseReasonDismissed || r == CloseReasonClosed
}

// DBusNotification holds the arguments of a Notify call.
type DBusNotification struct {
	AppName       string
	ReplacesID    uint32
	AppIcon       string
	Summary       string
	Body          string
	Actions       []string // Alternating key, label pairs
	Hints         map[string]dbus.Variant
	ExpireTimeout int32 // -1 = server default, 0 = never expire
}

// parseNotify decodes the body of a Notify call:
// Notify(app_name, replaces_id, app_icon, summary, body, actions, hints, expire_timeout)
func parseNotify(body []any) (*DBusNotification, bool) {
	if len(body) < 8 {
		return nil, false
	}

	n := &DBusNotification{}
	var ok bool
	if n.AppName, ok = body[0].(string); !ok {
		return nil, false
	}
	if n.ReplacesID, ok = body[1].(uint32); !ok {
		return nil, false
	}
	if n.AppIcon, ok = body[2].(string); !ok {
		return nil, false
	}
	if n.Summary, ok = body[3].(string); !ok {
		return nil, false
	}
	if n.Body, ok = body[4].(string); !ok {
		return nil, false
	}
	if actions, ok := body[5].([]string); ok {
		n.Actions = actions
	}
	if hints, ok := body[6].(map[string]dbus.Variant); ok {
		n.Hints = hints
	}
	if timeout, ok := body[7].(int32); ok {
		n.ExpireTimeout = timeout
	}
	return n, true
}

// DesktopEntry extracts the desktop-entry hint.
func (n *DBusNotification) DesktopEntry() string {
	return n.stringHint("desktop-entry")
}

// ImagePath extracts the image-path hint (image_path in protocol 1.1).
func (n *DBusNotification) ImagePath() string {
	if s := n.stringHint("image-path"); s != "" {
		return s
	}
	return n.stringHint("image_path")
}

// Transient returns true if the transient hint is set.
func (n *DBusNotification) Transient() bool {
	if v, ok := n.Hints["transient"]; ok {
		if b, ok := v.Value().(bool); ok {
			return b
		}
	}
	return false
}

// ImageData extracts the image-data hint (iiibiiay), also accepting the
// older image_data and icon_data names. Returns false if absent or malformed.
func (n *DBusNotification) ImageData() (decode.RawIcon, bool) {
	for _, key := range []string{"image-data", "image_data", "icon_data"} {
		v, ok := n.Hints[key]
		if !ok {
			continue
		}
		if raw, ok := rawIcon(v.Value()); ok {
			return raw, true
		}
	}
	return decode.RawIcon{}, false
}

func rawIcon(v any) (decode.RawIcon, bool) {
	fields, ok := v.([]any)
	if !ok || len(fields) != 7 {
		return decode.RawIcon{}, false
	}

	ints := make([]int, 0, 5)
	for _, i := range []int{0, 1, 2, 4, 5} {
		x, ok := fields[i].(int32)
		if !ok {
			return decode.RawIcon{}, false
		}
		ints = append(ints, int(x))
	}
	alpha, ok := fields[3].(bool)
	if !ok {
		return decode.RawIcon{}, false
	}
	data, ok := fields[6].([]byte)
	if !ok {
		return decode.RawIcon{}, false
	}

	return decode.RawIcon{
		Width:         ints[0],
		Height:        ints[1],
		Rowstride:     ints[2],
		HasAlpha:      alpha,
		BitsPerSample: ints[3],
		Channels:      ints[4],
		Data:          data,
	}, true
}

func (n *DBusNotification) stringHint(key string) string {
	if v, ok := n.Hints[key]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}

// SourceID identifies the posting application: the desktop-entry hint when
// present, otherwise the app name, lower-cased.
func (n *DBusNotification) SourceID() string {
	if de := n.DesktopEntry(); de != "" {
		return strings.ToLower(strings.TrimSuffix(de, ".desktop"))
	}
	return strings.ToLower(n.AppName)
}

// Icon picks the best artwork reference: inline pixels, then image-path,
// then an app_icon that names a file.
func (n *DBusNotification) Icon() decode.IconSource {
	if raw, ok := n.ImageData(); ok {
		return raw
	}
	if p := n.ImagePath(); p != "" {
		return decode.FileIcon(p)
	}
	if strings.HasPrefix(n.AppIcon, "/") || strings.HasPrefix(n.AppIcon, "file://") {
		return decode.FileIcon(n.AppIcon)
	}
	return nil
}

// Payload converts the notification into decoder input.
func (n *DBusNotification) Payload() decode.Payload {
	return decode.Payload{
		SourceID: n.SourceID(),
		Title:    n.Summary,
		Text:     n.Body,
		Icon:     n.Icon(),
	}
}
