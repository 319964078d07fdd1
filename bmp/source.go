package bmp

import (
	"fmt"
	"image"
	"image/color"

	"github.com/camsnap/camsnap/rgb565"
)

// Source supplies 8-bit per channel pixels addressed by (x, y) with the
// origin at the top-left corner.
type Source interface {
	Size() (width, height uint32)
	RGB(x, y uint32) (r, g, b uint8, err error)
}

// RGB565Source supplies packed RGB565 pixels, for example a camera
// framebuffer.
type RGB565Source interface {
	Size() (width, height uint32)
	RGB565At(x, y uint32) (uint16, error)
}

type rgb565Source struct {
	RGB565Source
}

func (s rgb565Source) RGB(x, y uint32) (uint8, uint8, uint8, error) {
	p, err := s.RGB565At(x, y)
	if err != nil {
		return 0, 0, 0, err
	}
	r, g, b := rgb565.Convert(p)
	return r, g, b, nil
}

// FromRGB565 returns a Source expanding each pixel of s to 8 bits per
// channel.
func FromRGB565(s RGB565Source) Source {
	return rgb565Source{s}
}

// RGB24 is an already converted buffer of three bytes per pixel in R, G, B
// order.
type RGB24 struct {
	Pix    []byte
	Width  uint32
	Height uint32
}

// Size implements Source.
func (s *RGB24) Size() (uint32, uint32) {
	return s.Width, s.Height
}

// RGB implements Source.
func (s *RGB24) RGB(x, y uint32) (uint8, uint8, uint8, error) {
	if x >= s.Width || y >= s.Height {
		return 0, 0, 0, fmt.Errorf("(%d, %d) outside %dx%d", x, y, s.Width, s.Height)
	}
	i := (uint64(y)*uint64(s.Width) + uint64(x)) * bytesPerPixel
	if i+bytesPerPixel > uint64(len(s.Pix)) {
		return 0, 0, 0, fmt.Errorf("buffer holds %d bytes", len(s.Pix))
	}
	return s.Pix[i], s.Pix[i+1], s.Pix[i+2], nil
}

type imageSource struct {
	m image.Image
	b image.Rectangle
}

func (s imageSource) Size() (uint32, uint32) {
	return uint32(s.b.Dx()), uint32(s.b.Dy())
}

func (s imageSource) RGB(x, y uint32) (uint8, uint8, uint8, error) {
	c := color.NRGBAModel.Convert(s.m.At(s.b.Min.X+int(x), s.b.Min.Y+int(y))).(color.NRGBA)
	return c.R, c.G, c.B, nil
}

func sourceFor(m image.Image) (Source, error) {
	if fb, ok := m.(*rgb565.Image); ok {
		return FromRGB565(fb), nil
	}
	b := m.Bounds()
	if b.Dx() > maxDimension || b.Dy() > maxDimension {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, b.Dx(), b.Dy())
	}
	return imageSource{m: m, b: b}, nil
}
