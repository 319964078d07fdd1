package camsnap

import (
	"log"

	"github.com/camsnap/camsnap/rgb565"
)

// Display presents a live preview of each captured frame.
type Display interface {
	Show(fb *rgb565.Image) error
}

type NopDisplay struct{}

func (NopDisplay) Show(*rgb565.Image) error { return nil }

// LogDisplay stands in for a panel on hosts without one, logging the
// average color of each frame instead.
type LogDisplay struct {
	logger *log.Logger
	frames int
}

func NewLogDisplay(logger *log.Logger) *LogDisplay {
	return &LogDisplay{
		logger: logger,
	}
}

func average(fb *rgb565.Image) (r, g, b uint8) {
	if len(fb.Pix) == 0 {
		return
	}
	var sr, sg, sb uint64
	for _, p := range fb.Pix {
		r, g, b := rgb565.Convert(p)
		sr += uint64(r)
		sg += uint64(g)
		sb += uint64(b)
	}
	n := uint64(len(fb.Pix))
	return uint8(sr / n), uint8(sg / n), uint8(sb / n)
}

func (d *LogDisplay) Show(fb *rgb565.Image) error {
	r, g, b := average(fb)
	d.logger.Printf("Preview frame %d, %dx%d, average #%02X%02X%02X\n", d.frames, fb.Width, fb.Height, r, g, b)
	d.frames++
	return nil
}
