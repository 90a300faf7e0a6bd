package display

import (
	"log/slog"
	"unsafe"

	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/tracknote/internal/overlay"
)

// fallbackScreen is used when no monitor can be queried.
var fallbackScreen = overlay.Screen{Width: 1920, Height: 1080}

// selectMonitor returns the configured monitor (1-indexed), or nil to let
// the compositor choose. An out of range index falls back to the first.
func selectMonitor(display *gdk.Display, index int, logger *slog.Logger) *gdk.Monitor {
	if display == nil || index <= 0 {
		return nil
	}

	monitors := display.Monitors()
	if monitors == nil || monitors.NItems() == 0 {
		logger.Warn("no monitors list available")
		return nil
	}

	i := uint(index - 1)
	if i >= monitors.NItems() {
		logger.Warn("configured monitor not available, using first",
			"configured", index,
			"available", monitors.NItems(),
		)
		i = 0
	}
	return wrapMonitor(monitors.Item(i))
}

// screenSize returns the geometry of monitor, or of the first monitor when
// monitor is nil.
func screenSize(display *gdk.Display, monitor *gdk.Monitor) overlay.Screen {
	if monitor == nil && display != nil {
		if monitors := display.Monitors(); monitors != nil && monitors.NItems() > 0 {
			monitor = wrapMonitor(monitors.Item(0))
		}
	}
	if monitor == nil {
		return fallbackScreen
	}

	geom := monitor.Geometry()
	if geom == nil || geom.Width() <= 0 || geom.Height() <= 0 {
		return fallbackScreen
	}
	return overlay.Screen{Width: geom.Width(), Height: geom.Height()}
}

// wrapMonitor wraps a glib.Object as a gdk.Monitor. gotk4 does not export
// its own wrapper; gdk.Monitor is a single embedded *glib.Object.
func wrapMonitor(obj *glib.Object) *gdk.Monitor {
	if obj == nil {
		return nil
	}
	type monitor struct {
		_ [0]func()
		*glib.Object
	}
	m := &monitor{Object: obj}
	return (*gdk.Monitor)(unsafe.Pointer(m))
}

func setMonitor(window *gtk.Window, monitor *gdk.Monitor) {
	if monitor == nil {
		return
	}
	layershell.SetMonitor(window, monitor)
}
