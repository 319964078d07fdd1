package camsnap

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/camsnap/camsnap/bmp"
	"github.com/camsnap/camsnap/rgb565"
	"github.com/camsnap/camsnap/sdcard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempDir(t *testing.T) string {
	dir, err := ioutil.TempDir("", "camsnap")
	require.Nil(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func discardLogger() *log.Logger {
	return log.New(ioutil.Discard, "", 0)
}

type brokenCamera struct {
	ColorBars
	after int
	calls int
}

var errSensor = errors.New("sensor timeout")

func (c *brokenCamera) Capture(fb *rgb565.Image) error {
	c.calls++
	if c.calls > c.after {
		return errSensor
	}
	return c.ColorBars.Capture(fb)
}

func TestCatalog(t *testing.T) {
	dir := tempDir(t)

	c, err := NewCatalog(filepath.Join(dir, "catalog.db"))
	require.Nil(t, err)

	next, err := c.NextSequence()
	require.Nil(t, err)
	assert.Equal(t, 0, next)

	taken := time.Unix(1700000000, 0)
	for _, seq := range []int{3, 1} {
		require.Nil(t, c.Add(Capture{
			Seq:      seq,
			Filename: "frame.bmp",
			Width:    80,
			Height:   60,
			Size:     14454,
			SHA1:     checksum([]byte{byte(seq)}),
			Taken:    taken,
		}))
	}

	next, err = c.NextSequence()
	require.Nil(t, err)
	assert.Equal(t, 4, next)

	captures, err := c.List()
	require.Nil(t, err)
	require.Len(t, captures, 2)
	assert.Equal(t, 1, captures[0].Seq)
	assert.Equal(t, 3, captures[1].Seq)
	assert.True(t, taken.Equal(captures[0].Taken))

	capture, err := c.FindBySHA1(checksum([]byte{3}))
	require.Nil(t, err)
	require.NotNil(t, capture)
	assert.Equal(t, 3, capture.Seq)

	capture, err = c.FindBySHA1(checksum([]byte{2}))
	require.Nil(t, err)
	assert.Nil(t, capture)

	require.Nil(t, c.Close())

	// Sequence numbers survive reopening
	c, err = NewCatalog(filepath.Join(dir, "catalog.db"))
	require.Nil(t, err)
	defer c.Close()

	next, err = c.NextSequence()
	require.Nil(t, err)
	assert.Equal(t, 4, next)
}

func TestColorBars(t *testing.T) {
	c := NewColorBars(14, 2)
	fb, err := rgb565.New(c.Size())
	require.Nil(t, err)

	require.Nil(t, c.Capture(fb))
	assert.Equal(t, colorBars[0], fb.Pix[0])
	assert.Equal(t, colorBars[0], fb.Pix[1])
	assert.Equal(t, colorBars[1], fb.Pix[2])
	assert.Equal(t, colorBars[6], fb.Pix[13])
	assert.Equal(t, fb.Pix[:14], fb.Pix[14:])

	// Scrolled by one column
	require.Nil(t, c.Capture(fb))
	assert.Equal(t, colorBars[0], fb.Pix[0])
	assert.Equal(t, colorBars[1], fb.Pix[1])
	assert.Equal(t, colorBars[0], fb.Pix[13])

	small, err := rgb565.New(7, 2)
	require.Nil(t, err)
	assert.True(t, errors.Is(c.Capture(small), errFramebufferSize))
}

func TestRawCamera(t *testing.T) {
	raw := []byte{
		0xf8, 0x00, 0x07, 0xe0, // frame 0
		0x00, 0x1f, 0xff, 0xff, // frame 1
		0x12, // partial
	}

	c, err := NewRawCamera(bytes.NewReader(raw), 2, 1, binary.BigEndian)
	require.Nil(t, err)
	fb, err := rgb565.New(c.Size())
	require.Nil(t, err)

	require.Nil(t, c.Capture(fb))
	assert.Equal(t, []uint16{0xf800, 0x07e0}, fb.Pix)

	require.Nil(t, c.Capture(fb))
	assert.Equal(t, []uint16{0x001f, 0xffff}, fb.Pix)

	err = c.Capture(fb)
	assert.NotNil(t, err)
	assert.False(t, errors.Is(err, ErrNoFrame))

	assert.Equal(t, ErrNoFrame, c.Capture(fb))

	for _, dims := range [][2]int{{0, 1}, {1<<31 - 1, 1<<31 - 1}} {
		_, err := NewRawCamera(bytes.NewReader(raw), dims[0], dims[1], binary.BigEndian)
		assert.True(t, errors.Is(err, rgb565.ErrInvalidDimensions), "%v", dims)
	}
}

func TestLogDisplay(t *testing.T) {
	buf := new(bytes.Buffer)
	d := NewLogDisplay(log.New(buf, "", 0))

	fb := &rgb565.Image{Pix: []uint16{0xf800, 0xf800}, Width: 2, Height: 1}
	require.Nil(t, d.Show(fb))
	assert.Equal(t, "Preview frame 0, 2x1, average #F80000\n", buf.String())
}

func TestConfig(t *testing.T) {
	dir := tempDir(t)
	file := filepath.Join(dir, "camsnap.yaml")

	require.Nil(t, ioutil.WriteFile(file, []byte("width: 160\nheight: 120\nbyte_order: little\nframes: 5\n"), 0644))

	config, err := LoadConfig(file)
	require.Nil(t, err)
	assert.Equal(t, 160, config.Width)
	assert.Equal(t, 120, config.Height)
	assert.Equal(t, "little", config.ByteOrder)
	assert.Equal(t, 5, config.Frames)
	assert.Equal(t, sdcard.DefaultPattern, config.Pattern)
	assert.Equal(t, DefaultOutput, config.Output)

	for _, body := range []string{"width: 0\n", "width: 2147483647\nheight: 2147483647\n", "width: 65536\nheight: 65536\n", "byte_order: middle\n", "frames: -1\n", "colour: red\n"} {
		require.Nil(t, ioutil.WriteFile(file, []byte(body), 0644))
		_, err := LoadConfig(file)
		assert.NotNil(t, err, body)
	}

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.True(t, os.IsNotExist(err))
}

func TestRun(t *testing.T) {
	dir := tempDir(t)

	store, err := sdcard.New(filepath.Join(dir, "sd"), sdcard.DefaultPattern)
	require.Nil(t, err)

	catalog, err := NewCatalog(filepath.Join(dir, "catalog.db"))
	require.Nil(t, err)
	defer catalog.Close()

	camera := NewColorBars(21, 5)
	c := New(camera, NewLogDisplay(discardLogger()), store, catalog, discardLogger())

	require.Nil(t, c.Run(context.Background(), 3))

	for seq := 0; seq < 3; seq++ {
		b, err := ioutil.ReadFile(store.Path(seq))
		require.Nil(t, err)
		assert.Len(t, b, int(bmp.FileSize(21, 5)))

		m, err := bmp.Decode(bytes.NewReader(b))
		require.Nil(t, err)
		assert.Equal(t, 21, m.Bounds().Dx())
	}

	captures, err := catalog.List()
	require.Nil(t, err)
	require.Len(t, captures, 3)
	assert.Equal(t, "frame2.bmp", captures[2].Filename)

	// A second run carries on numbering
	require.Nil(t, c.Run(context.Background(), 2))
	_, err = os.Stat(store.Path(4))
	assert.Nil(t, err)
	_, err = os.Stat(store.Path(5))
	assert.True(t, os.IsNotExist(err))
}

func TestRunRawCamera(t *testing.T) {
	dir := tempDir(t)

	store, err := sdcard.New(dir, sdcard.DefaultPattern)
	require.Nil(t, err)

	// Two 2x2 frames, the second all red
	raw := make([]byte, 16)
	for i := 8; i < 16; i += 2 {
		raw[i] = 0xf8
	}

	camera, err := NewRawCamera(bytes.NewReader(raw), 2, 2, binary.BigEndian)
	require.Nil(t, err)

	c := New(camera, nil, store, nil, discardLogger())
	require.Nil(t, c.Run(context.Background(), 0))

	b, err := ioutil.ReadFile(store.Path(1))
	require.Nil(t, err)
	assert.Equal(t, []byte{0x00, 0x00, 0xf8}, b[54:57])

	_, err = os.Stat(store.Path(2))
	assert.True(t, os.IsNotExist(err))
}

func TestRunCameraFailure(t *testing.T) {
	dir := tempDir(t)

	store, err := sdcard.New(dir, sdcard.DefaultPattern)
	require.Nil(t, err)

	camera := &brokenCamera{ColorBars: *NewColorBars(8, 8), after: 1}
	c := New(camera, nil, store, nil, discardLogger())

	err = c.Run(context.Background(), 5)
	assert.True(t, errors.Is(err, errSensor))

	// The failed capture never reaches the store
	_, err = os.Stat(store.Path(1))
	assert.True(t, os.IsNotExist(err))
}

func TestRunCancelled(t *testing.T) {
	store, err := sdcard.New(tempDir(t), sdcard.DefaultPattern)
	require.Nil(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(NewColorBars(4, 4), nil, store, nil, discardLogger())
	assert.Nil(t, c.Run(ctx, 0))
}
