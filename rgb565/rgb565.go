/*
Package rgb565 implements the 16-bit packed color format produced by camera
sensors such as the OV7670 and an image.Image backed by a framebuffer of
such pixels.

Each pixel is packed as RRRRRGGGGGGBBBBB with bit 15 being the most
significant bit of red. Expansion to 8 bits per channel is a plain bit shift;
the low order bits of each channel are always zero.
*/
package rgb565

import "image/color"

const (
	redMask   = 0xf8
	greenMask = 0xfc
	blueMask  = 0xf8
)

// Convert expands the packed pixel p into 8-bit red, green and blue channels.
func Convert(p uint16) (r, g, b uint8) {
	r = uint8(p>>8) & redMask
	g = uint8(p>>3) & greenMask
	b = uint8(p<<3) & blueMask
	return
}

// Pack is the inverse of Convert, discarding the low order bits of each
// channel.
func Pack(r, g, b uint8) uint16 {
	return uint16(r&redMask)<<8 | uint16(g&greenMask)<<3 | uint16(b)>>3
}

// Color is a single RGB565 pixel. It implements the color.Color interface.
type Color uint16

// RGBA returns the alpha-premultiplied channels of c, which is always opaque.
func (c Color) RGBA() (r, g, b, a uint32) {
	r8, g8, b8 := Convert(uint16(c))
	r = uint32(r8)
	r |= r << 8
	g = uint32(g8)
	g |= g << 8
	b = uint32(b8)
	b |= b << 8
	a = 0xffff
	return
}

// Model converts any color.Color to a Color by truncating each channel.
var Model = color.ModelFunc(func(c color.Color) color.Color {
	if _, ok := c.(Color); ok {
		return c
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Color(Pack(n.R, n.G, n.B))
})
