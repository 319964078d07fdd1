/*
Package bmp implements an uncompressed 24-bit Windows bitmap encoder and
decoder.

A file is written as a 14 byte file header, a 40 byte BITMAPINFOHEADER and
then the pixel rows. Rows are stored bottom row first, each pixel as blue,
green and red bytes, and every row is padded with zeroes to a multiple of 4
bytes. All header fields are little-endian.
*/
package bmp

import (
	"errors"
	"fmt"
)

const (
	fileHeaderLen  = 14
	infoHeaderLen  = 40
	headerLen      = fileHeaderLen + infoHeaderLen
	bytesPerPixel  = 3
	bitsPerPixel   = bytesPerPixel * 8
	biRGB          = 0
	pixelsPerMeter = 2835 // 72 DPI
	maxDimension   = 1<<31 - 1
	maxFileSize    = 1<<32 - 1
)

var signature = [2]byte{'B', 'M'}

type fileHeader struct {
	Type      [2]byte
	Size      uint32
	Reserved1 uint16
	Reserved2 uint16
	OffBits   uint32
}

type infoHeader struct {
	Size            uint32
	Width           int32
	Height          int32
	Planes          uint16
	BitCount        uint16
	Compression     uint32
	SizeImage       uint32
	XPelsPerMeter   int32
	YPelsPerMeter   int32
	ColorsUsed      uint32
	ColorsImportant uint32
}

var (
	// ErrInvalidDimensions is returned when the width or height is zero or
	// can't be represented in the headers
	ErrInvalidDimensions = errors.New("bmp: invalid dimensions")
	// ErrUnsupported is returned by the decoder for anything other than an
	// uncompressed 24-bit bitmap
	ErrUnsupported = errors.New("bmp: unsupported format")

	errBadSignature = errors.New("bmp: invalid signature")
	errNotEnough    = errors.New("bmp: not enough image data")
)

// SourceError records a failure reading a pixel from a Source.
type SourceError struct {
	X, Y uint32
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("bmp: reading pixel (%d, %d): %v", e.X, e.Y, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// WriteError records a failure writing the encoded image.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string {
	return "bmp: write: " + e.Err.Error()
}

func (e *WriteError) Unwrap() error { return e.Err }

// RowSize returns the number of bytes used by one row of pixels including
// padding.
func RowSize(width uint32) uint64 {
	return (uint64(width)*bytesPerPixel + 3) &^ 3
}

// FileSize returns the total number of bytes in an encoded image.
func FileSize(width, height uint32) uint64 {
	return headerLen + RowSize(width)*uint64(height)
}

// Zero width or height is rejected rather than producing a headers-only
// file.
func checkDimensions(width, height uint32) error {
	if width == 0 || height == 0 || width > maxDimension || height > maxDimension || FileSize(width, height) > maxFileSize {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	return nil
}
