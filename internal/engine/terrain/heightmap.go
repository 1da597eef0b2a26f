package terrain

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/png" // register PNG decoder
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder

	"github.com/Tomius/LoD-sub000/internal/engine/texture"
)

// ErrOutOfRange is returned by strict sample access outside the heightfield.
var ErrOutOfRange = errors.New("sample out of range")

// Heightmap is an in-memory HeightSampler. Samples are row-major (z*width + x) and never
// change after construction, so concurrent reads need no locking.
type Heightmap struct {
	width   int
	height  int
	samples []float32
}

// NewHeightmap wraps samples; len(samples) must equal width*height.
func NewHeightmap(width, height int, samples []float32) (*Heightmap, error) {
	if width <= 0 || height <= 0 || len(samples) != width*height {
		return nil, fmt.Errorf("%w: %dx%d with %d samples", ErrInvalidDimensions, width, height, len(samples))
	}
	return &Heightmap{width: width, height: height, samples: samples}, nil
}

// LoadHeightmap decodes a grayscale PNG, BMP, TIFF or TGA. 8 and 16 bit images both map to [0, 1].
func LoadHeightmap(path string) (*Heightmap, error) {
	img, format, err := decodeImage(path)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	hm := HeightmapFromImage(img)
	if hm == nil {
		return nil, fmt.Errorf("%w: empty %s image %s", ErrInvalidDimensions, format, path)
	}
	return hm, nil
}

// decodeImage picks the TGA decoder by extension, since TGA has no magic number for
// image.Decode to sniff.
func decodeImage(path string) (image.Image, string, error) {
	if strings.EqualFold(filepath.Ext(path), ".tga") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, "", err
		}
		img, err := texture.DecodeTGA(data)
		return img, "tga", err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	return image.Decode(f)
}

// HeightmapFromImage converts an image's luminance to heights in [0, 1].
// Returns nil for an empty image.
func HeightmapFromImage(img image.Image) *Heightmap {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil
	}
	samples := make([]float32, w*h)
	for z := 0; z < h; z++ {
		for x := 0; x < w; x++ {
			g := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+z)).(color.Gray16)
			samples[z*w+x] = float32(g.Y) / 0xFFFF
		}
	}
	return &Heightmap{width: w, height: h, samples: samples}
}

// Dimensions returns the width (X) and height (Z) in samples.
func (h *Heightmap) Dimensions() (width, height int) {
	return h.width, h.height
}

// Valid reports whether (x, z) is inside the heightmap.
func (h *Heightmap) Valid(x, z int) bool {
	return x >= 0 && z >= 0 && x < h.width && z < h.height
}

// Height returns the sample at (x, z), clamping coordinates to the edge.
func (h *Heightmap) Height(x, z int) float32 {
	x = clampi(x, 0, h.width-1)
	z = clampi(z, 0, h.height-1)
	return h.samples[z*h.width+x]
}

// Sample returns the sample at (x, z) without clamping.
func (h *Heightmap) Sample(x, z int) (float32, error) {
	if !h.Valid(x, z) {
		return 0, fmt.Errorf("%w: (%d, %d) outside %dx%d", ErrOutOfRange, x, z, h.width, h.height)
	}
	return h.samples[z*h.width+x], nil
}

// HeightRange returns the min and max over [x, x+w) × [z, z+d), clipped to the heightmap.
// A region with no overlap falls back to the clamped sample at (x, z).
func (h *Heightmap) HeightRange(x, z, w, d int) (lo, hi float32) {
	x0, z0 := max(x, 0), max(z, 0)
	x1, z1 := min(x+w, h.width), min(z+d, h.height)
	if x0 >= x1 || z0 >= z1 {
		v := h.Height(x, z)
		return v, v
	}

	lo = h.samples[z0*h.width+x0]
	hi = lo
	for row := z0; row < z1; row++ {
		for _, v := range h.samples[row*h.width+x0 : row*h.width+x1] {
			lo = min(lo, v)
			hi = max(hi, v)
		}
	}
	return lo, hi
}

// InterpolatedHeight returns the bilinearly filtered height at fractional (x, z).
func (h *Heightmap) InterpolatedHeight(x, z float32) float32 {
	cx := clampf(x, 0, float32(h.width-1))
	cz := clampf(z, 0, float32(h.height-1))

	ix, iz := int(cx), int(cz)
	fx, fz := cx-float32(ix), cz-float32(iz)

	// Lerp along X on both rows, then along Z.
	north := h.Height(ix, iz)*(1-fx) + h.Height(ix+1, iz)*fx
	south := h.Height(ix, iz+1)*(1-fx) + h.Height(ix+1, iz+1)*fx
	return north*(1-fz) + south*fz
}

// Samples returns the backing row-major samples. Callers must not modify them.
func (h *Heightmap) Samples() []float32 {
	return h.samples
}

func clampi(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
