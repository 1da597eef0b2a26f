// Package texture decodes image formats the standard library does not register.
package texture

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// ErrUnsupportedTGA is returned for TGA variants DecodeTGA cannot read.
var ErrUnsupportedTGA = errors.New("unsupported TGA")

// TGA image types.
const (
	tgaTrueColor    = 2
	tgaGray         = 3
	tgaTrueColorRLE = 10
	tgaGrayRLE      = 11
)

// DecodeTGA decodes uncompressed or RLE TGA files in 8-bit grayscale or 24/32-bit true color.
// Grayscale files decode to *image.Gray, true color to *image.RGBA.
func DecodeTGA(data []byte) (image.Image, error) {
	if len(data) < 18 {
		return nil, fmt.Errorf("TGA data too short")
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	descriptor := data[17]

	if colorMapType != 0 {
		return nil, fmt.Errorf("%w: color-mapped", ErrUnsupportedTGA)
	}
	gray := imageType == tgaGray || imageType == tgaGrayRLE
	switch {
	case gray && bpp != 8:
		return nil, fmt.Errorf("%w: %d-bit grayscale", ErrUnsupportedTGA, bpp)
	case !gray && imageType != tgaTrueColor && imageType != tgaTrueColorRLE:
		return nil, fmt.Errorf("%w: type %d", ErrUnsupportedTGA, imageType)
	case !gray && bpp != 24 && bpp != 32:
		return nil, fmt.Errorf("%w: %d-bit true color", ErrUnsupportedTGA, bpp)
	}

	offset := 18 + idLength
	if offset > len(data) {
		return nil, fmt.Errorf("TGA data truncated")
	}
	bytesPerPixel := bpp / 8

	var pixels []byte
	if imageType == tgaTrueColorRLE || imageType == tgaGrayRLE {
		var err error
		if pixels, err = decodeRLE(data[offset:], width*height, bytesPerPixel); err != nil {
			return nil, err
		}
	} else {
		size := width * height * bytesPerPixel
		if len(data)-offset < size {
			return nil, fmt.Errorf("TGA pixel data truncated")
		}
		pixels = data[offset : offset+size]
	}

	// Bit 5 of the descriptor marks top-to-bottom rows.
	topToBottom := descriptor&0x20 != 0
	row := func(y int) int {
		if topToBottom {
			return y
		}
		return height - 1 - y
	}

	rect := image.Rect(0, 0, width, height)
	if gray {
		img := image.NewGray(rect)
		for y := 0; y < height; y++ {
			copy(img.Pix[row(y)*img.Stride:], pixels[y*width:(y+1)*width])
		}
		return img, nil
	}

	img := image.NewRGBA(rect)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := (y*width + x) * bytesPerPixel
			a := uint8(255)
			if bytesPerPixel == 4 {
				a = pixels[i+3]
			}
			img.SetRGBA(x, row(y), color.RGBA{R: pixels[i+2], G: pixels[i+1], B: pixels[i], A: a})
		}
	}
	return img, nil
}

// decodeRLE expands RLE packets into count raw pixels.
func decodeRLE(data []byte, count, bytesPerPixel int) ([]byte, error) {
	out := make([]byte, 0, count*bytesPerPixel)
	i := 0
	for len(out) < count*bytesPerPixel {
		if i >= len(data) {
			return nil, fmt.Errorf("TGA RLE data truncated")
		}
		packet := data[i]
		i++
		n := int(packet&0x7F) + 1

		if packet&0x80 != 0 {
			// Run: one pixel repeated n times
			if i+bytesPerPixel > len(data) {
				return nil, fmt.Errorf("TGA RLE data truncated")
			}
			px := data[i : i+bytesPerPixel]
			i += bytesPerPixel
			for j := 0; j < n; j++ {
				out = append(out, px...)
			}
		} else {
			// Raw: n literal pixels
			size := n * bytesPerPixel
			if i+size > len(data) {
				return nil, fmt.Errorf("TGA RLE data truncated")
			}
			out = append(out, data[i:i+size]...)
			i += size
		}
	}
	if len(out) > count*bytesPerPixel {
		return nil, fmt.Errorf("TGA RLE packet overruns the image")
	}
	return out, nil
}
