package display

import (
	_ "embed"

	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
)

//go:embed style.css
var styleCSS string

// styles holds the built-in stylesheet and the user layer above it.
type styles struct {
	user *gtk.CSSProvider
}

// applyStyle installs the overlay stylesheet on display.
func applyStyle(display *gdk.Display) *styles {
	if display == nil {
		return nil
	}
	base := gtk.NewCSSProvider()
	base.LoadFromString(styleCSS)
	gtk.StyleContextAddProviderForDisplay(display, base, gtk.STYLE_PROVIDER_PRIORITY_APPLICATION)

	user := gtk.NewCSSProvider()
	gtk.StyleContextAddProviderForDisplay(display, user, gtk.STYLE_PROVIDER_PRIORITY_USER)
	return &styles{user: user}
}

// setUser replaces the user layer. Empty css removes it.
func (s *styles) setUser(css string) {
	if s == nil {
		return
	}
	s.user.LoadFromString(css)
}
