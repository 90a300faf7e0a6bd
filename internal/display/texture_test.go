package display

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToNRGBA(t *testing.T) {
	packed := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	assert.Same(t, packed, toNRGBA(packed))

	src := image.NewRGBA(image.Rect(5, 5, 7, 6))
	src.Set(5, 5, color.RGBA{R: 255, A: 255})

	out := toNRGBA(src)
	assert.Equal(t, image.Rect(0, 0, 2, 1), out.Bounds())
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, out.NRGBAAt(0, 0))
	assert.Equal(t, 8, out.Stride)
}
