package bmp

import (
	"bytes"
	"encoding/binary"
	"image"
	"io"
)

type encoder struct {
	w io.Writer
	s Source

	width, height uint32
}

func (e *encoder) writeHeaders(pixelBytes uint32) error {
	fh := fileHeader{
		Type:    signature,
		Size:    headerLen + pixelBytes,
		OffBits: headerLen,
	}
	if err := binary.Write(e.w, binary.LittleEndian, &fh); err != nil {
		return err
	}

	// Positive height means the rows are stored bottom-up
	ih := infoHeader{
		Size:          infoHeaderLen,
		Width:         int32(e.width),
		Height:        int32(e.height),
		Planes:        1,
		BitCount:      bitsPerPixel,
		Compression:   biRGB,
		SizeImage:     pixelBytes,
		XPelsPerMeter: pixelsPerMeter,
		YPelsPerMeter: pixelsPerMeter,
	}
	return binary.Write(e.w, binary.LittleEndian, &ih)
}

func (e *encoder) writePixels() error {
	rowSize := RowSize(e.width)
	row := make([]byte, rowSize)

	for y := e.height; y > 0; y-- {
		for x := uint32(0); x < e.width; x++ {
			r, g, b, err := e.s.RGB(x, y-1)
			if err != nil {
				return &SourceError{X: x, Y: y - 1, Err: err}
			}
			i := x * bytesPerPixel
			row[i+0], row[i+1], row[i+2] = b, g, r
		}
		// Trailing padding bytes are never touched so stay zero
		if _, err := e.w.Write(row); err != nil {
			return err
		}
	}

	return nil
}

func (e *encoder) encode() error {
	if err := e.writeHeaders(uint32(RowSize(e.width) * uint64(e.height))); err != nil {
		return err
	}
	return e.writePixels()
}

// Marshal encodes s and returns the complete bitmap.
func Marshal(s Source) ([]byte, error) {
	width, height := s.Size()
	if err := checkDimensions(width, height); err != nil {
		return nil, err
	}

	b := new(bytes.Buffer)
	b.Grow(int(FileSize(width, height)))

	e := encoder{
		w:      b,
		s:      s,
		width:  width,
		height: height,
	}
	if err := e.encode(); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// EncodeSource writes s to w as a 24-bit bitmap. The image is encoded in
// full before anything is written so a failing Source leaves w untouched.
func EncodeSource(w io.Writer, s Source) error {
	b, err := Marshal(s)
	if err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return &WriteError{Err: err}
	}
	return nil
}

// Encode writes the Image m to w as a 24-bit bitmap. An *rgb565.Image is
// expanded with rgb565.Convert, anything else is converted through
// color.NRGBAModel.
func Encode(w io.Writer, m image.Image) error {
	s, err := sourceFor(m)
	if err != nil {
		return err
	}
	return EncodeSource(w, s)
}
