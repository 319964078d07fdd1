package bmp

import (
	"encoding/binary"
	"image"
	"image/color"
	"io"
	"io/ioutil"
)

type decoder struct {
	r io.Reader

	fh fileHeader
	ih infoHeader

	width, height int
	topDown       bool

	image *image.RGBA
}

func (d *decoder) readHeaders() error {
	if err := binary.Read(d.r, binary.LittleEndian, &d.fh); err != nil {
		return err
	}
	if d.fh.Type != signature {
		return errBadSignature
	}

	if err := binary.Read(d.r, binary.LittleEndian, &d.ih); err != nil {
		return err
	}
	if d.ih.Size != infoHeaderLen || d.ih.Planes != 1 || d.ih.BitCount != bitsPerPixel || d.ih.Compression != biRGB {
		return ErrUnsupported
	}
	if d.fh.OffBits < headerLen {
		return ErrUnsupported
	}

	d.width = int(d.ih.Width)
	d.height = int(d.ih.Height)
	if d.height < 0 {
		d.height, d.topDown = -d.height, true
	}
	if d.width <= 0 || d.height <= 0 || FileSize(uint32(d.width), uint32(d.height)) > maxFileSize {
		return ErrInvalidDimensions
	}

	return nil
}

func (d *decoder) readPixels() error {
	// Skip anything between the headers and the pixel data
	if _, err := io.CopyN(ioutil.Discard, d.r, int64(d.fh.OffBits-headerLen)); err != nil {
		return err
	}

	// Read the rows before allocating the image so a short file can't claim
	// an arbitrarily large one
	rowSize := int(RowSize(uint32(d.width)))
	n := int64(rowSize) * int64(d.height)
	pix, err := ioutil.ReadAll(io.LimitReader(d.r, n))
	if err != nil {
		return err
	}
	if int64(len(pix)) < n {
		return io.ErrUnexpectedEOF
	}

	d.image = image.NewRGBA(image.Rect(0, 0, d.width, d.height))

	for i := 0; i < d.height; i++ {
		row := pix[i*rowSize:]
		y := d.height - 1 - i
		if d.topDown {
			y = i
		}
		for x := 0; x < d.width; x++ {
			p := row[x*bytesPerPixel:]
			d.image.SetRGBA(x, y, color.RGBA{p[2], p[1], p[0], 0xff})
		}
	}

	return nil
}

func (d *decoder) decode(r io.Reader, configOnly bool) error {
	d.r = r

	if err := d.readHeaders(); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return errNotEnough
		}
		return err
	}

	if configOnly {
		return nil
	}

	if err := d.readPixels(); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return errNotEnough
		}
		return err
	}

	return nil
}

// Decode reads an uncompressed 24-bit bitmap from r and returns it as an
// image.Image.
func Decode(r io.Reader) (image.Image, error) {
	var d decoder
	if err := d.decode(r, false); err != nil {
		return nil, err
	}
	return d.image, nil
}

// DecodeConfig returns the color model and dimensions of a bitmap without
// decoding the pixel data.
func DecodeConfig(r io.Reader) (image.Config, error) {
	var d decoder
	if err := d.decode(r, true); err != nil {
		return image.Config{}, err
	}
	return image.Config{
		ColorModel: color.RGBAModel,
		Width:      d.width,
		Height:     d.height,
	}, nil
}
