package dbus

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/tracknote/internal/decode"
	"github.com/jmylchreest/tracknote/internal/listener"
)

func notifyBody(appName, summary, body string, replaces uint32) []any {
	return []any{appName, replaces, "", summary, body, []string{}, map[string]dbus.Variant{}, int32(-1)}
}

func notifyCall(sender, appName, summary, body string) *dbus.Message {
	return &dbus.Message{
		Type: dbus.TypeMethodCall,
		Headers: map[dbus.HeaderField]dbus.Variant{
			dbus.FieldInterface: dbus.MakeVariant(DBusInterface),
			dbus.FieldMember:    dbus.MakeVariant("Notify"),
			dbus.FieldPath:      dbus.MakeVariant(dbus.ObjectPath(DBusPath)),
			dbus.FieldSender:    dbus.MakeVariant(sender),
		},
		Body: notifyBody(appName, summary, body, 0),
	}
}

func notifyReply(dest string, replySerial, id uint32) *dbus.Message {
	return &dbus.Message{
		Type: dbus.TypeMethodReply,
		Headers: map[dbus.HeaderField]dbus.Variant{
			dbus.FieldReplySerial: dbus.MakeVariant(replySerial),
			dbus.FieldDestination: dbus.MakeVariant(dest),
		},
		Body: []any{id},
	}
}

func closedSignal(id uint32, reason CloseReason) *dbus.Message {
	return &dbus.Message{
		Type: dbus.TypeSignal,
		Headers: map[dbus.HeaderField]dbus.Variant{
			dbus.FieldInterface: dbus.MakeVariant(DBusInterface),
			dbus.FieldMember:    dbus.MakeVariant("NotificationClosed"),
		},
		Body: []any{id, uint32(reason)},
	}
}

func TestMonitorHandle_NotifyAndClose(t *testing.T) {
	m := NewMonitor(MonitorOptions{Source: "spotify"}, nil)

	events := m.notify(":1.5", 10, notifyBody("Spotify", "Song A", "Artist X", 0))
	require.Len(t, events, 1)
	assert.Equal(t, listener.Posted, events[0].Kind)
	assert.Equal(t, "spotify", events[0].Payload.SourceID)
	assert.Equal(t, "Song A", events[0].Payload.Title)

	assert.Empty(t, m.handle(notifyReply(":1.5", 10, 42)))

	// Expiry is not a removal.
	assert.Empty(t, m.handle(closedSignal(42, CloseReasonExpired)))

	m.notify(":1.5", 11, notifyBody("Spotify", "Song B", "Artist X", 0))
	m.handle(notifyReply(":1.5", 11, 43))
	events = m.handle(closedSignal(43, CloseReasonClosed))
	require.Len(t, events, 1)
	assert.Equal(t, listener.Removed, events[0].Kind)
	assert.Equal(t, "spotify", events[0].Payload.SourceID)

	// Each id is removed once.
	assert.Empty(t, m.handle(closedSignal(43, CloseReasonClosed)))
}

func TestMonitorHandle_NotifyCallMessage(t *testing.T) {
	m := NewMonitor(MonitorOptions{Source: "spotify"}, nil)

	events := m.handle(notifyCall(":1.5", "Spotify", "Song A", "Artist X"))
	require.Len(t, events, 1)
	assert.Equal(t, "Artist X", events[0].Payload.Text)
}

func TestMonitorHandle_ReplyFromOtherCaller(t *testing.T) {
	m := NewMonitor(MonitorOptions{Source: "spotify"}, nil)

	m.notify(":1.5", 10, notifyBody("Spotify", "Song A", "Artist X", 0))
	m.handle(notifyReply(":1.9", 10, 42))
	assert.Empty(t, m.handle(closedSignal(42, CloseReasonDismissed)))
}

func TestMonitorHandle_ReplacesID(t *testing.T) {
	m := NewMonitor(MonitorOptions{Source: "spotify"}, nil)

	m.notify(":1.5", 10, notifyBody("Spotify", "Song A", "Artist X", 42))
	events := m.handle(closedSignal(42, CloseReasonDismissed))
	require.Len(t, events, 1)
	assert.Equal(t, listener.Removed, events[0].Kind)
}

func TestMonitorHandle_AppNameAlias(t *testing.T) {
	m := NewMonitor(MonitorOptions{Source: "spotify", AppNames: []string{"spotify premium"}}, nil)

	events := m.notify(":1.5", 10, notifyBody("Spotify Premium", "Song A", "Artist X", 0))
	require.Len(t, events, 1)
	assert.Equal(t, "spotify", events[0].Payload.SourceID)
}

func TestMonitorHandle_IgnoresOtherTraffic(t *testing.T) {
	m := NewMonitor(MonitorOptions{Source: "spotify"}, nil)

	other := notifyCall(":1.5", "Spotify", "x", "y")
	other.Headers[dbus.FieldMember] = dbus.MakeVariant("CloseNotification")
	assert.Empty(t, m.handle(other))

	assert.Empty(t, m.notify(":1.5", 11, notifyBody("Spotify", "x", "y", 0)[:3]))
	assert.Empty(t, m.handle(notifyReply(":1.5", 99, 1)))
}

func TestMonitorHandle_PlayerStopped(t *testing.T) {
	m := NewMonitor(MonitorOptions{Source: "spotify", MPRISPlayer: "spotify"}, nil)
	m.player = ":1.20"

	signal := func(sender, status string) *dbus.Message {
		return &dbus.Message{
			Type: dbus.TypeSignal,
			Headers: map[dbus.HeaderField]dbus.Variant{
				dbus.FieldInterface: dbus.MakeVariant(propertiesInterface),
				dbus.FieldMember:    dbus.MakeVariant("PropertiesChanged"),
				dbus.FieldSender:    dbus.MakeVariant(sender),
			},
			Body: []any{
				mprisPlayerInterface,
				map[string]dbus.Variant{"PlaybackStatus": dbus.MakeVariant(status)},
				[]string{},
			},
		}
	}

	assert.Empty(t, m.handle(signal(":1.20", "Paused")))
	assert.Empty(t, m.handle(signal(":1.99", "Stopped")))

	events := m.handle(signal(":1.20", "Stopped"))
	require.Len(t, events, 1)
	assert.Equal(t, listener.Removed, events[0].Kind)
	assert.Equal(t, "spotify", events[0].Payload.SourceID)
}

func TestMetadataPayload(t *testing.T) {
	meta := map[string]dbus.Variant{
		"xesam:title":  dbus.MakeVariant("Song A"),
		"xesam:artist": dbus.MakeVariant([]string{"Artist X", "Artist Y"}),
		"mpris:artUrl": dbus.MakeVariant("https://i.scdn.co/image/abc"),
	}

	p := metadataPayload(meta, "spotify")
	assert.Equal(t, "spotify", p.SourceID)
	assert.Equal(t, "Song A", p.Title)
	assert.Equal(t, "Artist X, Artist Y", p.Text)
	assert.Nil(t, p.Icon)

	meta["mpris:artUrl"] = dbus.MakeVariant("file:///tmp/art.png")
	p = metadataPayload(meta, "spotify")
	assert.Equal(t, decode.FileIcon("file:///tmp/art.png"), p.Icon)

	p = metadataPayload(map[string]dbus.Variant{}, "spotify")
	assert.Empty(t, p.Title)
	assert.Empty(t, p.Text)
}

func TestMonitorRules(t *testing.T) {
	m := NewMonitor(MonitorOptions{}, nil)
	assert.Len(t, m.rules(""), 2)
	assert.Len(t, m.rules(":1.3"), 3)

	m = NewMonitor(MonitorOptions{MPRISPlayer: "spotify"}, nil)
	rules := m.rules(":1.3")
	require.Len(t, rules, 5)
	assert.Contains(t, rules[2], "sender=':1.3'")
	assert.Contains(t, rules[3], "member='PropertiesChanged'")
	assert.NotContains(t, rules[3], "sender=")
	assert.Contains(t, rules[4], "arg0='org.mpris.MediaPlayer2.spotify'")
}

func ownerChangedSignal(name, oldOwner, newOwner string) *dbus.Message {
	return &dbus.Message{
		Type: dbus.TypeSignal,
		Headers: map[dbus.HeaderField]dbus.Variant{
			dbus.FieldInterface: dbus.MakeVariant("org.freedesktop.DBus"),
			dbus.FieldMember:    dbus.MakeVariant("NameOwnerChanged"),
			dbus.FieldSender:    dbus.MakeVariant("org.freedesktop.DBus"),
		},
		Body: []any{name, oldOwner, newOwner},
	}
}

func stoppedSignal(sender string) *dbus.Message {
	return &dbus.Message{
		Type: dbus.TypeSignal,
		Headers: map[dbus.HeaderField]dbus.Variant{
			dbus.FieldInterface: dbus.MakeVariant(propertiesInterface),
			dbus.FieldMember:    dbus.MakeVariant("PropertiesChanged"),
			dbus.FieldSender:    dbus.MakeVariant(sender),
		},
		Body: []any{
			mprisPlayerInterface,
			map[string]dbus.Variant{"PlaybackStatus": dbus.MakeVariant("Stopped")},
			[]string{},
		},
	}
}

func TestMonitorHandle_PlayerStartedLater(t *testing.T) {
	m := NewMonitor(MonitorOptions{Source: "spotify", MPRISPlayer: "spotify"}, nil)

	// Not running at connect time.
	assert.Empty(t, m.handle(stoppedSignal(":1.40")))

	assert.Empty(t, m.handle(ownerChangedSignal("org.mpris.MediaPlayer2.spotify", "", ":1.40")))
	events := m.handle(stoppedSignal(":1.40"))
	require.Len(t, events, 1)
	assert.Equal(t, listener.Removed, events[0].Kind)
}

func TestMonitorHandle_PlayerQuit(t *testing.T) {
	m := NewMonitor(MonitorOptions{Source: "spotify", MPRISPlayer: "spotify"}, nil)
	m.player = ":1.40"

	assert.Empty(t, m.handle(ownerChangedSignal("org.mpris.MediaPlayer2.vlc", ":1.41", "")))

	events := m.handle(ownerChangedSignal("org.mpris.MediaPlayer2.spotify", ":1.40", ""))
	require.Len(t, events, 1)
	assert.Equal(t, listener.Removed, events[0].Kind)
	assert.Equal(t, "spotify", events[0].Payload.SourceID)

	// The old unique name no longer counts.
	assert.Empty(t, m.handle(stoppedSignal(":1.40")))
}

func TestMonitorHandle_OwnerChangedFromOtherSender(t *testing.T) {
	m := NewMonitor(MonitorOptions{Source: "spotify", MPRISPlayer: "spotify"}, nil)

	msg := ownerChangedSignal("org.mpris.MediaPlayer2.spotify", "", ":1.40")
	msg.Headers[dbus.FieldSender] = dbus.MakeVariant(":1.66")
	assert.Empty(t, m.handle(msg))
	assert.Empty(t, m.player)
}

func TestMonitorHandle_TracksOnlyPlayerNotifications(t *testing.T) {
	m := NewMonitor(MonitorOptions{Source: "spotify"}, nil)

	events := m.notify(":1.7", 10, notifyBody("Thunderbird", "New mail", "", 0))
	require.Len(t, events, 1)
	assert.Empty(t, m.pending)

	m.handle(notifyReply(":1.7", 10, 42))
	assert.Empty(t, m.ids)
	assert.Empty(t, m.handle(closedSignal(42, CloseReasonClosed)))
}

func TestMonitorTrack_Bounded(t *testing.T) {
	m := NewMonitor(MonitorOptions{Source: "spotify"}, nil)

	for id := range uint32(maxTracked * 3) {
		m.track(id+1, "spotify")
		require.LessOrEqual(t, len(m.ids), maxTracked)
	}

	// The newest id still routes.
	events := m.handle(closedSignal(maxTracked*3, CloseReasonClosed))
	require.Len(t, events, 1)
}
