package dbus

import (
	"context"
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/tracknote/internal/decode"
)

const (
	mprisPrefix          = "org.mpris.MediaPlayer2."
	mprisPath            = "/org/mpris/MediaPlayer2"
	mprisPlayerInterface = "org.mpris.MediaPlayer2.Player"
	propertiesInterface  = "org.freedesktop.DBus.Properties"

	statusPlaying = "Playing"
	statusStopped = "Stopped"
)

// readPlayer asks an MPRIS player what it is playing. It returns false when
// the player is absent or not playing.
func readPlayer(ctx context.Context, bus *dbus.Conn, name, source string) (decode.Payload, bool, error) {
	if nameOwner(ctx, bus, name) == "" {
		return decode.Payload{}, false, nil
	}
	obj := bus.Object(name, mprisPath)

	var status dbus.Variant
	if err := obj.CallWithContext(ctx, propertiesInterface+".Get", 0, mprisPlayerInterface, "PlaybackStatus").Store(&status); err != nil {
		return decode.Payload{}, false, fmt.Errorf("failed to read playback status from %s: %w", name, err)
	}
	if s, _ := status.Value().(string); s != statusPlaying {
		return decode.Payload{}, false, nil
	}

	var meta dbus.Variant
	if err := obj.CallWithContext(ctx, propertiesInterface+".Get", 0, mprisPlayerInterface, "Metadata").Store(&meta); err != nil {
		return decode.Payload{}, false, fmt.Errorf("failed to read metadata from %s: %w", name, err)
	}
	m, ok := meta.Value().(map[string]dbus.Variant)
	if !ok {
		return decode.Payload{}, false, fmt.Errorf("unexpected metadata type %s from %s", meta.Signature(), name)
	}
	return metadataPayload(m, source), true, nil
}

// metadataPayload maps MPRIS xesam metadata onto decoder input the same way
// a now-playing notification would arrive: title as summary, artists as body.
func metadataPayload(meta map[string]dbus.Variant, source string) decode.Payload {
	p := decode.Payload{SourceID: source}

	if v, ok := meta["xesam:title"]; ok {
		p.Title, _ = v.Value().(string)
	}
	if v, ok := meta["xesam:artist"]; ok {
		switch a := v.Value().(type) {
		case []string:
			p.Text = strings.Join(a, ", ")
		case string:
			p.Text = a
		}
	}
	if v, ok := meta["mpris:artUrl"]; ok {
		if u, _ := v.Value().(string); strings.HasPrefix(u, "file://") || strings.HasPrefix(u, "/") {
			p.Icon = decode.FileIcon(u)
		}
	}
	return p
}

// NowPlaying connects to the session bus and reads what the MPRIS player
// org.mpris.MediaPlayer2.<player> is playing.
func NowPlaying(ctx context.Context, player, source string) (decode.Payload, bool, error) {
	bus, err := dbus.ConnectSessionBus(dbus.WithContext(ctx))
	if err != nil {
		return decode.Payload{}, false, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	defer bus.Close()

	return readPlayer(ctx, bus, mprisPrefix+player, source)
}
