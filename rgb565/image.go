package rgb565

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
)

const (
	maxDimension = 1<<31 - 1
	maxFileSize  = 1<<32 - 1
	bmpHeaderLen = 54
)

var (
	// ErrInvalidDimensions is returned for a zero or oversized framebuffer
	ErrInvalidDimensions = errors.New("rgb565: invalid dimensions")
	// ErrBufferSize is returned when raw data doesn't match the framebuffer
	ErrBufferSize = errors.New("rgb565: buffer size mismatch")
	// ErrOutOfBounds is returned when addressing a pixel outside the image
	ErrOutOfBounds = errors.New("rgb565: pixel out of bounds")
)

// Image is a framebuffer of RGB565 pixels stored row-major with the origin
// at the top-left corner.
type Image struct {
	Pix    []uint16
	Width  int
	Height int
}

// CheckDimensions returns ErrInvalidDimensions unless a frame of the given
// size can be held in memory and saved as a 24-bit bitmap.
func CheckDimensions(width, height int) error {
	if width <= 0 || height <= 0 || width > maxDimension || height > maxDimension {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	// The padded 24-bit rows plus headers must fit a 32-bit file size
	row := (uint64(width)*3 + 3) &^ 3
	if row*uint64(height) > maxFileSize-bmpHeaderLen {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	return nil
}

// New returns a zeroed framebuffer of the given size.
func New(width, height int) (*Image, error) {
	if err := CheckDimensions(width, height); err != nil {
		return nil, err
	}
	return &Image{
		Pix:    make([]uint16, width*height),
		Width:  width,
		Height: height,
	}, nil
}

// Bounds implements image.Image.
func (m *Image) Bounds() image.Rectangle { return image.Rect(0, 0, m.Width, m.Height) }

// ColorModel implements image.Image.
func (m *Image) ColorModel() color.Model { return Model }

// At implements image.Image.
func (m *Image) At(x, y int) color.Color {
	if !(image.Point{x, y}.In(m.Bounds())) {
		return Color(0)
	}
	return Color(m.Pix[y*m.Width+x])
}

// Set stores c at (x, y), converting it to RGB565 first.
func (m *Image) Set(x, y int, c color.Color) {
	if !(image.Point{x, y}.In(m.Bounds())) {
		return
	}
	m.Pix[y*m.Width+x] = uint16(Model.Convert(c).(Color))
}

// Size returns the dimensions of the framebuffer.
func (m *Image) Size() (width, height uint32) {
	return uint32(m.Width), uint32(m.Height)
}

// RGB565At returns the packed pixel at (x, y).
func (m *Image) RGB565At(x, y uint32) (uint16, error) {
	if uint64(x) >= uint64(m.Width) || uint64(y) >= uint64(m.Height) {
		return 0, fmt.Errorf("%w: (%d, %d)", ErrOutOfBounds, x, y)
	}
	if len(m.Pix) != m.Width*m.Height {
		return 0, ErrBufferSize
	}
	return m.Pix[int(y)*m.Width+int(x)], nil
}

// Load fills the framebuffer from a raw sensor dump of two bytes per pixel
// in the given byte order.
func (m *Image) Load(b []byte, order binary.ByteOrder) error {
	if len(b) != len(m.Pix)*2 {
		return fmt.Errorf("%w: got %d bytes, expected %d", ErrBufferSize, len(b), len(m.Pix)*2)
	}
	for i := range m.Pix {
		m.Pix[i] = order.Uint16(b[i*2:])
	}
	return nil
}

// Expand returns the framebuffer converted to 8 bits per channel, three
// bytes per pixel in R, G, B order.
func (m *Image) Expand() []byte {
	rgb := make([]byte, len(m.Pix)*3)
	for i, p := range m.Pix {
		rgb[i*3+0], rgb[i*3+1], rgb[i*3+2] = Convert(p)
	}
	return rgb
}
