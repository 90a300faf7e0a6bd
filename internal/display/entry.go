package display

import (
	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/tracknote/internal/model"
	"github.com/jmylchreest/tracknote/internal/overlay"
)

// entryWindow collects the text, rating and reaction for a new annotation.
type entryWindow struct {
	window    *gtk.Window
	heading   *gtk.Label
	text      *gtk.Entry
	stars     []*gtk.Button
	reactions []*gtk.Button
	errLbl    *gtk.Label

	song     model.PlaybackInfo
	rating   int
	reaction string
	onSave   func(overlay.Draft)
}

func newEntryWindow(app *gtk.Application, monitor *gdk.Monitor) *entryWindow {
	e := &entryWindow{}

	e.window = gtk.NewWindow()
	e.window.SetApplication(app)
	e.window.SetDecorated(false)
	e.window.SetHideOnClose(true)
	e.window.SetDefaultSize(360, -1)

	layershell.InitForWindow(e.window)
	layershell.SetLayer(e.window, layershell.LayerShellLayerOverlay)
	layershell.SetKeyboardMode(e.window, layershell.LayerShellKeyboardModeOnDemand)
	layershell.SetNamespace(e.window, "tracknote-entry")
	setMonitor(e.window, monitor)

	box := gtk.NewBox(gtk.OrientationVertical, 8)
	box.AddCSSClass("tracknote-entry")

	e.heading = gtk.NewLabel("")
	e.heading.AddCSSClass("tracknote-title")
	e.heading.SetXAlign(0)
	e.heading.SetEllipsize(3)
	box.Append(e.heading)

	e.text = gtk.NewEntry()
	e.text.SetPlaceholderText("What do you think of this song?")
	e.text.ConnectActivate(e.submit)
	box.Append(e.text)

	starRow := gtk.NewBox(gtk.OrientationHorizontal, 2)
	for i := range model.MaxRating {
		rating := i + 1
		btn := gtk.NewButtonWithLabel("☆")
		btn.AddCSSClass("flat")
		btn.ConnectClicked(func() { e.setRating(rating) })
		e.stars = append(e.stars, btn)
		starRow.Append(btn)
	}
	box.Append(starRow)

	reactionRow := gtk.NewBox(gtk.OrientationHorizontal, 2)
	for _, r := range model.Reactions {
		reaction := r
		btn := gtk.NewButtonWithLabel(reaction)
		btn.AddCSSClass("flat")
		btn.ConnectClicked(func() { e.setReaction(reaction) })
		e.reactions = append(e.reactions, btn)
		reactionRow.Append(btn)
	}
	box.Append(reactionRow)

	e.errLbl = gtk.NewLabel("")
	e.errLbl.AddCSSClass("tracknote-error")
	e.errLbl.SetVisible(false)
	box.Append(e.errLbl)

	buttons := gtk.NewBox(gtk.OrientationHorizontal, 6)
	buttons.SetHAlign(gtk.AlignEnd)
	cancel := gtk.NewButtonWithLabel("Cancel")
	cancel.ConnectClicked(e.hide)
	save := gtk.NewButtonWithLabel("Save")
	save.AddCSSClass("suggested-action")
	save.ConnectClicked(e.submit)
	buttons.Append(cancel)
	buttons.Append(save)
	box.Append(buttons)

	keys := gtk.NewEventControllerKey()
	keys.ConnectKeyPressed(func(keyval, keycode uint, state gdk.ModifierType) bool {
		if keyval == gdk.KEY_Escape {
			e.hide()
			return true
		}
		return false
	})
	e.window.AddController(keys)

	e.window.SetChild(box)
	return e
}

// open resets the form for info and shows it.
func (e *entryWindow) open(info model.PlaybackInfo) {
	e.song = info
	e.heading.SetText(entryHeading(info))
	e.text.SetText("")
	e.setRating(0)
	e.setReaction("")
	e.errLbl.SetVisible(false)
	e.window.Present()
	e.text.GrabFocus()
}

func (e *entryWindow) hide() {
	e.window.SetVisible(false)
}

func (e *entryWindow) showError(msg string) {
	e.errLbl.SetText(msg)
	e.errLbl.SetVisible(true)
}

func (e *entryWindow) submit() {
	if e.onSave == nil {
		return
	}
	e.errLbl.SetVisible(false)
	e.onSave(overlay.Draft{
		Song:     e.song,
		Text:     e.text.Text(),
		Rating:   e.rating,
		Reaction: e.reaction,
	})
}

// setRating selects r stars; choosing the current rating clears it.
func (e *entryWindow) setRating(r int) {
	if r == e.rating {
		r = 0
	}
	e.rating = r
	for i, btn := range e.stars {
		if i < r {
			btn.SetLabel("★")
		} else {
			btn.SetLabel("☆")
		}
	}
}

// setReaction selects r; choosing the current reaction clears it.
func (e *entryWindow) setReaction(r string) {
	if r == e.reaction {
		r = ""
	}
	e.reaction = r
	for i, btn := range e.reactions {
		if model.Reactions[i] == r {
			btn.AddCSSClass("selected")
		} else {
			btn.RemoveCSSClass("selected")
		}
	}
}
