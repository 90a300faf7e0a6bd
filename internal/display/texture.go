package display

import (
	"image"
	"image/draw"

	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
)

// toNRGBA returns img as tightly packed non-premultiplied RGBA.
func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) && n.Stride == 4*n.Rect.Dx() {
		return n
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// newTexture uploads img as a GDK memory texture.
func newTexture(img image.Image) *gdk.MemoryTexture {
	n := toNRGBA(img)
	return gdk.NewMemoryTexture(
		n.Rect.Dx(), n.Rect.Dy(),
		gdk.MemoryR8G8B8A8,
		glib.NewBytes(n.Pix),
		uint(n.Stride),
	)
}
