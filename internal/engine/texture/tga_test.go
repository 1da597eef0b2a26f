package texture

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func tgaHeader(imageType byte, w, h int, bpp byte, topToBottom bool) []byte {
	hdr := make([]byte, 18)
	hdr[2] = imageType
	hdr[12], hdr[13] = byte(w), byte(w>>8)
	hdr[14], hdr[15] = byte(h), byte(h>>8)
	hdr[16] = bpp
	if topToBottom {
		hdr[17] = 0x20
	}
	return hdr
}

func TestDecodeTGAGray(t *testing.T) {
	// Bottom-up rows: first stored row is the bottom of the image.
	data := append(tgaHeader(tgaGray, 2, 2, 8, false), 10, 20, 30, 40)
	img, err := DecodeTGA(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	g, ok := img.(*image.Gray)
	if !ok {
		t.Fatalf("expected *image.Gray, got %T", img)
	}
	want := map[image.Point]uint8{{0, 0}: 30, {1, 0}: 40, {0, 1}: 10, {1, 1}: 20}
	for p, v := range want {
		if got := g.GrayAt(p.X, p.Y).Y; got != v {
			t.Errorf("pixel %v = %d, want %d", p, got, v)
		}
	}
}

func TestDecodeTGAGrayRLE(t *testing.T) {
	// Run of three 7s, then one raw 9, top-to-bottom.
	data := append(tgaHeader(tgaGrayRLE, 2, 2, 8, true), 0x82, 7, 0x00, 9)
	img, err := DecodeTGA(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	g := img.(*image.Gray)
	if g.Pix[0] != 7 || g.Pix[1] != 7 || g.Pix[2] != 7 || g.Pix[3] != 9 {
		t.Errorf("pixels = %v", g.Pix)
	}
}

func TestDecodeTGATrueColor(t *testing.T) {
	// One BGRA pixel, then one RLE-encoded BGR run.
	data := append(tgaHeader(tgaTrueColor, 1, 1, 32, true), 1, 2, 3, 4)
	img, err := DecodeTGA(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := img.At(0, 0).(color.RGBA); got != (color.RGBA{R: 3, G: 2, B: 1, A: 4}) {
		t.Errorf("pixel = %v", got)
	}

	data = append(tgaHeader(tgaTrueColorRLE, 2, 1, 24, true), 0x81, 10, 20, 30)
	img, err = DecodeTGA(data)
	if err != nil {
		t.Fatalf("decode RLE: %v", err)
	}
	for x := 0; x < 2; x++ {
		if got := img.At(x, 0).(color.RGBA); got != (color.RGBA{R: 30, G: 20, B: 10, A: 255}) {
			t.Errorf("pixel %d = %v", x, got)
		}
	}
}

func TestDecodeTGAErrors(t *testing.T) {
	tests := []struct {
		name        string
		data        []byte
		unsupported bool
	}{
		{"short", []byte{0, 0, 2}, false},
		{"color mapped", func() []byte { h := tgaHeader(tgaTrueColor, 1, 1, 24, false); h[1] = 1; return h }(), true},
		{"16-bit gray", tgaHeader(tgaGray, 1, 1, 16, false), true},
		{"unknown type", tgaHeader(1, 1, 1, 8, false), true},
		{"truncated pixels", append(tgaHeader(tgaGray, 2, 2, 8, false), 1, 2), false},
		{"truncated run", append(tgaHeader(tgaGrayRLE, 2, 2, 8, false), 0x81, 1), false},
		{"overrun", append(tgaHeader(tgaGrayRLE, 1, 1, 8, false), 0x81, 1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeTGA(tt.data)
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := errors.Is(err, ErrUnsupportedTGA); got != tt.unsupported {
				t.Errorf("errors.Is(ErrUnsupportedTGA) = %v for %v", got, err)
			}
		})
	}
}
