package decode

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"os"
	"strings"

	"github.com/jmylchreest/tracknote/internal/model"
)

// ErrNoIcon is returned when a notification carries no usable icon.
var ErrNoIcon = errors.New("no icon")

// FileIcon loads artwork from a local path or file:// URI.
type FileIcon string

// Load opens and decodes the image. When the file cannot be decoded the
// reference is still returned so the annotation can record it.
func (f FileIcon) Load() (*model.Artwork, error) {
	ref := string(f)
	if ref == "" {
		return nil, ErrNoIcon
	}

	path, err := iconPath(ref)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open icon: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode icon %s: %w", path, err)
	}
	return &model.Artwork{Ref: ref, Image: img}, nil
}

// iconPath maps a reference to a filesystem path. Bare icon theme names
// (no slash) are rejected because they cannot be resolved without a theme.
func iconPath(ref string) (string, error) {
	if strings.HasPrefix(ref, "file://") {
		u, err := url.Parse(ref)
		if err != nil {
			return "", fmt.Errorf("invalid icon uri: %w", err)
		}
		return u.Path, nil
	}
	if strings.Contains(ref, "://") {
		return "", fmt.Errorf("icon %q is not a local file: %w", ref, ErrNoIcon)
	}
	if !strings.Contains(ref, "/") {
		return "", fmt.Errorf("icon %q is a theme name: %w", ref, ErrNoIcon)
	}
	return ref, nil
}

// RawIcon is the image-data hint of a notification: (iiibiiay).
type RawIcon struct {
	Width, Height int
	Rowstride     int
	HasAlpha      bool
	BitsPerSample int
	Channels      int
	Data          []byte
}

// Load converts the raw pixel buffer into an NRGBA image.
func (r RawIcon) Load() (*model.Artwork, error) {
	if r.Width <= 0 || r.Height <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d: %w", r.Width, r.Height, ErrNoIcon)
	}
	if r.BitsPerSample != 8 || (r.Channels != 3 && r.Channels != 4) {
		return nil, fmt.Errorf("unsupported pixel format: %d bits, %d channels", r.BitsPerSample, r.Channels)
	}
	if need := (r.Height-1)*r.Rowstride + r.Width*r.Channels; len(r.Data) < need {
		return nil, fmt.Errorf("image data too short: have %d, need %d", len(r.Data), need)
	}

	img := image.NewNRGBA(image.Rect(0, 0, r.Width, r.Height))
	for y := 0; y < r.Height; y++ {
		row := r.Data[y*r.Rowstride:]
		for x := 0; x < r.Width; x++ {
			px := row[x*r.Channels:]
			o := img.PixOffset(x, y)
			img.Pix[o], img.Pix[o+1], img.Pix[o+2] = px[0], px[1], px[2]
			img.Pix[o+3] = 0xff
			if r.Channels == 4 && r.HasAlpha {
				img.Pix[o+3] = px[3]
			}
		}
	}
	return &model.Artwork{Image: img}, nil
}
