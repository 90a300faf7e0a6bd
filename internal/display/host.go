package display

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/tracknote/internal/gesture"
	"github.com/jmylchreest/tracknote/internal/model"
	"github.com/jmylchreest/tracknote/internal/overlay"
)

// ErrNotBuilt is returned by surface calls made before Build.
var ErrNotBuilt = errors.New("overlay window not built")

// Toaster delivers short feedback messages.
type Toaster interface {
	Toast(message string)
}

// Host is the GTK overlay window. It is created and used on the main loop.
type Host struct {
	app     *gtk.Application
	sched   overlay.Scheduler
	toaster Toaster
	monitor int
	logger  *slog.Logger

	display *gdk.Display
	mon     *gdk.Monitor
	styles  *styles

	window    *gtk.Window
	root      *gtk.Box
	indicator *gtk.Image
	panel     *gtk.Box
	artwork   *gtk.Image
	titleLbl  *gtk.Label
	artistLbl *gtk.Label
	countLbl  *gtk.Label
	list      *gtk.ListBox
	empty     *gtk.Label
	addBtn    *gtk.Button
	entry     *entryWindow

	ctx  context.Context
	ctrl *overlay.Controller

	dragX, dragY float64 // drag start, widget coordinates
}

// NewHost creates a host for app. monitor is 1-indexed; 0 lets the
// compositor choose.
func NewHost(app *gtk.Application, sched overlay.Scheduler, toaster Toaster, monitor int, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	return &Host{
		app:     app,
		sched:   sched,
		toaster: toaster,
		monitor: monitor,
		logger:  logger,
	}
}

// Build creates the overlay and entry windows.
func (h *Host) Build() error {
	h.display = gdk.DisplayGetDefault()
	if h.display == nil {
		return &DisplayError{Message: "no display available"}
	}
	if !layershell.IsSupported() {
		return &DisplayError{Message: "compositor does not support wlr-layer-shell"}
	}
	h.styles = applyStyle(h.display)
	h.mon = selectMonitor(h.display, h.monitor, h.logger)

	h.window = gtk.NewWindow()
	h.window.SetApplication(h.app)
	h.window.SetDecorated(false)
	h.window.SetResizable(false)

	layershell.InitForWindow(h.window)
	layershell.SetLayer(h.window, layershell.LayerShellLayerOverlay)
	layershell.SetExclusiveZone(h.window, 0)
	layershell.SetKeyboardMode(h.window, layershell.LayerShellKeyboardModeNone)
	layershell.SetNamespace(h.window, "tracknote-overlay")
	layershell.SetAnchor(h.window, layershell.LayerShellEdgeTop, true)
	layershell.SetAnchor(h.window, layershell.LayerShellEdgeRight, true)
	setMonitor(h.window, h.mon)

	h.root = gtk.NewBox(gtk.OrientationVertical, 6)
	h.root.AddCSSClass("tracknote-overlay")

	h.indicator = gtk.NewImageFromIconName(indicatorIcon(nil, false))
	h.indicator.AddCSSClass("tracknote-indicator")
	h.indicator.SetPixelSize(32)
	h.indicator.SetHAlign(gtk.AlignEnd)
	h.root.Append(h.indicator)

	h.root.Append(h.buildPanel())
	h.window.SetChild(h.root)

	h.entry = newEntryWindow(h.app, h.mon)
	return nil
}

func (h *Host) buildPanel() gtk.Widgetter {
	h.panel = gtk.NewBox(gtk.OrientationVertical, 6)
	h.panel.AddCSSClass("tracknote-panel")

	header := gtk.NewBox(gtk.OrientationHorizontal, 8)

	h.artwork = gtk.NewImageFromIconName("audio-x-generic-symbolic")
	h.artwork.SetPixelSize(56)
	header.Append(h.artwork)

	labels := gtk.NewBox(gtk.OrientationVertical, 2)
	labels.SetHExpand(true)
	h.titleLbl = gtk.NewLabel(model.NoSongTitle)
	h.titleLbl.AddCSSClass("tracknote-title")
	h.titleLbl.SetXAlign(0)
	h.titleLbl.SetEllipsize(3) // PANGO_ELLIPSIZE_END
	h.titleLbl.SetMaxWidthChars(32)
	h.artistLbl = gtk.NewLabel(model.NoSongArtist)
	h.artistLbl.AddCSSClass("tracknote-artist")
	h.artistLbl.SetXAlign(0)
	h.artistLbl.SetEllipsize(3)
	h.countLbl = gtk.NewLabel(countLabel(0))
	h.countLbl.AddCSSClass("tracknote-count")
	h.countLbl.SetXAlign(0)
	labels.Append(h.titleLbl)
	labels.Append(h.artistLbl)
	labels.Append(h.countLbl)
	header.Append(labels)

	closeBtn := gtk.NewButtonFromIconName("window-close-symbolic")
	closeBtn.SetVAlign(gtk.AlignStart)
	closeBtn.ConnectClicked(func() {
		if h.ctrl != nil {
			h.ctrl.Collapse()
		}
	})
	header.Append(closeBtn)
	h.panel.Append(header)

	h.list = gtk.NewListBox()
	h.list.SetSelectionMode(gtk.SelectionNone)
	scroll := gtk.NewScrolledWindow()
	scroll.SetPolicy(gtk.PolicyNever, gtk.PolicyAutomatic)
	scroll.SetMaxContentHeight(320)
	scroll.SetPropagateNaturalHeight(true)
	scroll.SetChild(h.list)
	h.panel.Append(scroll)

	h.empty = gtk.NewLabel("No comments for this song yet")
	h.empty.AddCSSClass("tracknote-empty")
	h.empty.SetVisible(false)
	h.panel.Append(h.empty)

	h.addBtn = gtk.NewButtonWithLabel("Add comment")
	h.addBtn.AddCSSClass("suggested-action")
	h.addBtn.ConnectClicked(func() {
		if h.ctrl != nil {
			h.ctrl.ShowAnnotationEntry()
		}
	})
	h.panel.Append(h.addBtn)

	h.panel.SetVisible(false)
	return h.panel
}

// Bind attaches ctrl: pointer input on the indicator goes to the gesture
// recognizer and saves from the entry window go through ctrl. Saves run
// under ctx.
func (h *Host) Bind(ctx context.Context, ctrl *overlay.Controller) {
	h.ctx = ctx
	h.ctrl = ctrl

	drag := gtk.NewGestureDrag()
	drag.ConnectDragBegin(func(x, y float64) {
		h.dragX, h.dragY = x, y
		h.pointer(gesture.Press, x, y)
	})
	drag.ConnectDragUpdate(func(dx, dy float64) {
		h.pointer(gesture.Move, h.dragX+dx, h.dragY+dy)
	})
	drag.ConnectDragEnd(func(dx, dy float64) {
		h.pointer(gesture.Release, h.dragX+dx, h.dragY+dy)
	})
	drag.ConnectCancel(func(*gdk.EventSequence) {
		h.pointer(gesture.Cancel, h.dragX, h.dragY)
	})
	h.indicator.AddController(drag)

	h.entry.onSave = h.save
}

// pointer converts widget coordinates to screen-relative ones. The window is
// anchored top-right, so the left edge moves opposite to the right margin.
// Constant offsets cancel out in the recognizer's deltas.
func (h *Host) pointer(kind gesture.EventKind, x, y float64) {
	if h.ctrl == nil {
		return
	}
	l := h.ctrl.Layout()
	h.ctrl.HandlePointer(gesture.Event{
		Kind: kind,
		X:    int(x) - l.X,
		Y:    int(y) + l.Y,
		Time: time.Now(),
	})
}

func (h *Host) save(d overlay.Draft) {
	ctx, ctrl := h.ctx, h.ctrl
	if ctrl == nil {
		return
	}
	go func() {
		_, err := ctrl.SaveAnnotation(ctx, d)
		h.sched.Post(func() {
			switch {
			case err == nil:
				h.entry.hide()
			case errors.Is(err, model.ErrEmptyText):
				h.entry.showError("Write something first")
			case errors.Is(err, overlay.ErrSaveFailed):
				h.entry.showError("Could not save, try again")
			default:
				h.entry.showError(err.Error())
			}
		})
	}()
}

// SetUserStyle replaces the user stylesheet layered over the built-in one.
// Must be called on the main loop.
func (h *Host) SetUserStyle(css string) {
	h.styles.setUser(css)
}

// Present shows the overlay window.
func (h *Host) Present() {
	if h.window != nil {
		h.window.Present()
	}
}

// Destroy closes both windows.
func (h *Host) Destroy() {
	if h.entry != nil {
		h.entry.window.Destroy()
	}
	if h.window != nil {
		h.window.Destroy()
	}
}

// ScreenSize implements overlay.Surface.
func (h *Host) ScreenSize() overlay.Screen {
	return screenSize(h.display, h.mon)
}

// ApplyLayout implements overlay.Surface.
func (h *Host) ApplyLayout(l overlay.Layout) error {
	if h.window == nil {
		return ErrNotBuilt
	}
	layershell.SetMargin(h.window, layershell.LayerShellEdgeRight, l.X)
	layershell.SetMargin(h.window, layershell.LayerShellEdgeTop, l.Y)
	if l.Expanded {
		h.root.AddCSSClass("expanded")
	} else {
		h.root.RemoveCSSClass("expanded")
	}
	return nil
}

// SetPanelVisible implements overlay.Surface.
func (h *Host) SetPanelVisible(visible bool) error {
	if h.panel == nil {
		return ErrNotBuilt
	}
	h.panel.SetVisible(visible)
	if !visible && h.entry != nil {
		h.entry.hide()
	}
	return nil
}

// ShowPlayback implements overlay.Surface.
func (h *Host) ShowPlayback(info model.PlaybackInfo, ok bool) {
	if h.panel == nil {
		return
	}
	h.titleLbl.SetText(info.Title)
	h.artistLbl.SetText(info.Artist)
	h.addBtn.SetSensitive(ok)
	h.setArtwork(info.Artwork)
}

func (h *Host) setArtwork(art *model.Artwork) {
	switch {
	case art == nil:
		h.artwork.SetFromIconName("audio-x-generic-symbolic")
	case art.Image != nil:
		h.artwork.SetFromPaintable(newTexture(art.Image))
	case isLocalFile(art.Ref):
		h.artwork.SetFromFile(strings.TrimPrefix(art.Ref, "file://"))
	default:
		h.artwork.SetFromIconName("audio-x-generic-symbolic")
	}
}

func isLocalFile(ref string) bool {
	path := strings.TrimPrefix(ref, "file://")
	if !strings.HasPrefix(path, "/") {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// ShowIndicator implements overlay.Surface.
func (h *Host) ShowIndicator(info *model.PlaybackInfo, playing bool) {
	if h.indicator == nil {
		return
	}
	h.indicator.SetFromIconName(indicatorIcon(info, playing))
	if info != nil {
		h.indicator.SetTooltipText(entryHeading(*info))
	} else {
		h.indicator.SetTooltipText(model.NoSongTitle)
	}
}

// ShowAnnotations implements overlay.Surface.
func (h *Host) ShowAnnotations(annotations []model.Annotation) {
	if h.list == nil {
		return
	}
	for child := h.list.FirstChild(); child != nil; child = h.list.FirstChild() {
		h.list.Remove(child)
	}

	now := time.Now()
	for _, a := range annotations {
		row := gtk.NewBox(gtk.OrientationVertical, 2)
		meta := gtk.NewLabel(rowTitle(a, now))
		meta.AddCSSClass("tracknote-row-meta")
		meta.SetXAlign(0)
		body := gtk.NewLabel(rowBody(a))
		body.SetXAlign(0)
		body.SetWrap(true)
		body.SetMaxWidthChars(40)
		row.Append(meta)
		row.Append(body)
		h.list.Append(row)
	}
	h.countLbl.SetText(countLabel(len(annotations)))
}

// SetEmptyState implements overlay.Surface.
func (h *Host) SetEmptyState(empty bool) {
	if h.empty == nil {
		return
	}
	h.empty.SetVisible(empty)
	h.list.SetVisible(!empty)
}

// OpenAnnotationEntry implements overlay.Surface.
func (h *Host) OpenAnnotationEntry(info model.PlaybackInfo) {
	if h.entry == nil {
		return
	}
	h.entry.open(info)
}

// Toast implements overlay.Surface.
func (h *Host) Toast(message string) {
	h.logger.Debug("toast", "message", message)
	if h.toaster != nil {
		h.toaster.Toast(message)
	}
}

// DisplayError represents a display-related error.
type DisplayError struct {
	Message string
	Cause   error
}

func (e *DisplayError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *DisplayError) Unwrap() error {
	return e.Cause
}
