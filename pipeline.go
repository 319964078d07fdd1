package camsnap

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/camsnap/camsnap/bmp"
	"github.com/camsnap/camsnap/rgb565"
)

type frame struct {
	seq           int
	width, height int
	data          []byte
	taken         time.Time
}

// NextSequence returns the first unused sequence number, taking both the
// store and the catalog into account.
func (c *Camsnap) NextSequence() (int, error) {
	next, err := c.store.Next()
	if err != nil {
		return 0, err
	}
	if c.catalog != nil {
		seq, err := c.catalog.NextSequence()
		if err != nil {
			return 0, err
		}
		if seq > next {
			next = seq
		}
	}
	return next, nil
}

// The framebuffer is owned by this stage alone; each frame is captured,
// previewed and fully encoded before the next capture starts so only the
// encoded bytes ever leave it.
func (c *Camsnap) captureWorker(ctx context.Context, seq, frames int) (<-chan frame, <-chan error, error) {
	fb, err := rgb565.New(c.camera.Size())
	if err != nil {
		return nil, nil, err
	}

	out := make(chan frame)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		for i := 0; frames == 0 || i < frames; i++ {
			select {
			case <-ctx.Done():
				return
			default:
			}

			if err := c.camera.Capture(fb); err != nil {
				if errors.Is(err, ErrNoFrame) {
					c.logger.Printf("Camera has no more frames after %d\n", i)
					return
				}
				errc <- err
				return
			}
			taken := time.Now()

			if err := c.display.Show(fb); err != nil {
				errc <- err
				return
			}

			b, err := bmp.Marshal(bmp.FromRGB565(fb))
			if err != nil {
				errc <- err
				return
			}

			select {
			case out <- frame{seq: seq + i, width: fb.Width, height: fb.Height, data: b, taken: taken}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, errc, nil
}

func (c *Camsnap) storageWorker(ctx context.Context, in <-chan frame) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for f := range in {
			filename := c.store.Filename(f.seq)
			if err := c.store.WriteFile(filename, f.data); err != nil {
				errc <- err
				return
			}

			if c.catalog != nil {
				if err := c.catalog.Add(Capture{
					Seq:      f.seq,
					Filename: filename,
					Width:    f.width,
					Height:   f.height,
					Size:     len(f.data),
					SHA1:     checksum(f.data),
					Taken:    f.taken,
				}); err != nil {
					errc <- err
					return
				}
			}

			c.logger.Printf("Saved image %d to \"%s\"\n", f.seq, filename)
		}
	}()
	return errc, nil
}

// The first error cancels the pipeline but every stage is still drained so
// nothing is left writing to the store once this returns.
func waitForPipeline(cancelFunc context.CancelFunc, errs ...<-chan error) error {
	var first error
	for err := range mergeErrors(errs...) {
		if err != nil && first == nil {
			first = err
			cancelFunc()
		}
	}
	return first
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Run captures frames and saves each one to the store, numbering them after
// any captures already present. A frames value of zero runs until ctx is
// cancelled or the camera runs out of frames.
func (c *Camsnap) Run(ctx context.Context, frames int) error {
	seq, err := c.NextSequence()
	if err != nil {
		return err
	}

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	var errcList []<-chan error

	captured, errc, err := c.captureWorker(ctx, seq, frames)
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	errc, err = c.storageWorker(ctx, captured)
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	return waitForPipeline(cancelFunc, errcList...)
}
