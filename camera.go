package camsnap

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/camsnap/camsnap/rgb565"
)

// ErrNoFrame is returned by a Camera with no more frames to deliver
var ErrNoFrame = errors.New("camsnap: no frame available")

var errFramebufferSize = errors.New("camsnap: framebuffer doesn't match camera")

// Camera fills a framebuffer with a captured frame. Capture blocks until the
// whole framebuffer has been written or fails.
type Camera interface {
	Size() (width, height int)
	Capture(fb *rgb565.Image) error
}

func checkFramebuffer(c Camera, fb *rgb565.Image) error {
	w, h := c.Size()
	if fb.Width != w || fb.Height != h || len(fb.Pix) != w*h {
		return fmt.Errorf("%w: %dx%d, expected %dx%d", errFramebufferSize, fb.Width, fb.Height, w, h)
	}
	return nil
}

var colorBars = [...]uint16{
	rgb565.Pack(192, 192, 192), // Gray
	rgb565.Pack(192, 192, 0),   // Yellow
	rgb565.Pack(0, 192, 192),   // Cyan
	rgb565.Pack(0, 192, 0),     // Green
	rgb565.Pack(192, 0, 192),   // Magenta
	rgb565.Pack(192, 0, 0),     // Red
	rgb565.Pack(0, 0, 192),     // Blue
}

// ColorBars is a synthetic Camera producing SMPTE color bars that scroll one
// column to the left with every frame.
type ColorBars struct {
	width, height int
	frame         int
}

func NewColorBars(width, height int) *ColorBars {
	return &ColorBars{
		width:  width,
		height: height,
	}
}

func (c *ColorBars) Size() (int, int) {
	return c.width, c.height
}

func (c *ColorBars) Capture(fb *rgb565.Image) error {
	if err := checkFramebuffer(c, fb); err != nil {
		return err
	}

	barWidth := c.width / len(colorBars)
	if barWidth == 0 {
		barWidth = 1
	}

	for y := 0; y < c.height; y++ {
		for x := 0; x < c.width; x++ {
			bar := ((x + c.frame) % c.width) / barWidth
			if bar >= len(colorBars) {
				bar = len(colorBars) - 1
			}
			fb.Pix[y*c.width+x] = colorBars[bar]
		}
	}
	c.frame++

	return nil
}

// RawCamera replays frames from a raw sensor dump, two bytes per pixel with
// frames stored back to back.
type RawCamera struct {
	r             io.Reader
	order         binary.ByteOrder
	width, height int
	buf           []byte
}

func NewRawCamera(r io.Reader, width, height int, order binary.ByteOrder) (*RawCamera, error) {
	if err := rgb565.CheckDimensions(width, height); err != nil {
		return nil, err
	}

	return &RawCamera{
		r:      r,
		order:  order,
		width:  width,
		height: height,
		buf:    make([]byte, width*height*2),
	}, nil
}

func (c *RawCamera) Size() (int, int) {
	return c.width, c.height
}

// Capture implements Camera. It returns ErrNoFrame once the dump is
// exhausted; a trailing partial frame is an error.
func (c *RawCamera) Capture(fb *rgb565.Image) error {
	if err := checkFramebuffer(c, fb); err != nil {
		return err
	}

	switch _, err := io.ReadFull(c.r, c.buf); err {
	case nil:
	case io.EOF:
		return ErrNoFrame
	case io.ErrUnexpectedEOF:
		return errors.New("camsnap: truncated frame")
	default:
		return err
	}

	return fb.Load(c.buf, c.order)
}
