package main

import (
	"bytes"
	"context"
	"crypto/sha1"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/camsnap/camsnap"
	"github.com/camsnap/camsnap/bmp"
	"github.com/camsnap/camsnap/rgb565"
	"github.com/camsnap/camsnap/sdcard"
	"github.com/urfave/cli/v2"
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(ioutil.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

func loadConfig(c *cli.Context) (camsnap.Config, error) {
	config := camsnap.DefaultConfig()
	if c.IsSet("config") {
		var err error
		if config, err = camsnap.LoadConfig(c.String("config")); err != nil {
			return camsnap.Config{}, err
		}
	}

	// Flags win over the config file
	if c.IsSet("catalog") {
		config.Catalog = c.String("catalog")
	}
	if c.IsSet("output") {
		config.Output = c.String("output")
	}
	if c.IsSet("frames") {
		config.Frames = c.Int("frames")
	}
	if c.IsSet("raw") {
		config.Raw = c.String("raw")
	}

	return config, config.Validate()
}

func capture(c *cli.Context) error {
	logger := newLogger(c)

	config, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err, 1)
	}

	store, err := sdcard.New(config.Output, config.Pattern)
	if err != nil {
		return cli.Exit(err, 1)
	}

	var catalog *camsnap.Catalog
	if config.Catalog != "" {
		if catalog, err = camsnap.NewCatalog(config.Catalog); err != nil {
			return cli.Exit(err, 1)
		}
		defer catalog.Close()
	}

	var camera camsnap.Camera = camsnap.NewColorBars(config.Width, config.Height)
	if config.Raw != "" {
		order, err := camsnap.ParseByteOrder(config.ByteOrder)
		if err != nil {
			return cli.Exit(err, 1)
		}
		f, err := os.Open(config.Raw)
		if err != nil {
			return cli.Exit(err, 1)
		}
		defer f.Close()
		if camera, err = camsnap.NewRawCamera(f, config.Width, config.Height, order); err != nil {
			return cli.Exit(err, 1)
		}
	}

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	// Finish the frame in progress on ^C rather than dying mid-write
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	defer signal.Stop(sig)
	go func() {
		select {
		case <-sig:
			cancelFunc()
		case <-ctx.Done():
		}
	}()

	m := camsnap.New(camera, camsnap.NewLogDisplay(logger), store, catalog, logger)
	if err := m.Run(ctx, config.Frames); err != nil {
		return cli.Exit(err, 1)
	}

	return nil
}

func convert(c *cli.Context) error {
	if c.NArg() < 2 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	order, err := camsnap.ParseByteOrder(c.String("byte-order"))
	if err != nil {
		return cli.Exit(err, 1)
	}

	raw, err := ioutil.ReadFile(c.Args().Get(0))
	if err != nil {
		return cli.Exit(err, 1)
	}

	fb, err := rgb565.New(c.Int("width"), c.Int("height"))
	if err != nil {
		return cli.Exit(err, 1)
	}
	if err := fb.Load(raw, order); err != nil {
		return cli.Exit(err, 1)
	}

	b, err := bmp.Marshal(bmp.FromRGB565(fb))
	if err != nil {
		return cli.Exit(err, 1)
	}

	// Reuse the store for its atomic write
	out := c.Args().Get(1)
	store, err := sdcard.New(filepath.Dir(out), sdcard.DefaultPattern)
	if err != nil {
		return cli.Exit(err, 1)
	}
	if err := store.WriteFile(filepath.Base(out), b); err != nil {
		return cli.Exit(err, 1)
	}

	newLogger(c).Printf("Wrote %d bytes to \"%s\"\n", len(b), out)

	return nil
}

func info(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	b, err := ioutil.ReadFile(c.Args().First())
	if err != nil {
		return cli.Exit(err, 1)
	}

	m, err := bmp.Decode(bytes.NewReader(b))
	if err != nil {
		return cli.Exit(err, 1)
	}

	fmt.Printf("%s: %dx%d, %d bytes, SHA1 %X\n", c.Args().First(), m.Bounds().Dx(), m.Bounds().Dy(), len(b), sha1.Sum(b))

	if c.IsSet("catalog") {
		catalog, err := camsnap.NewCatalog(c.String("catalog"))
		if err != nil {
			return cli.Exit(err, 1)
		}
		defer catalog.Close()

		capture, err := catalog.FindBySHA1(fmt.Sprintf("%X", sha1.Sum(b)))
		if err != nil {
			return cli.Exit(err, 1)
		}
		if capture != nil {
			fmt.Printf("Capture %d (\"%s\") taken %s\n", capture.Seq, capture.Filename, capture.Taken.Format("2006-01-02 15:04:05"))
		}
	}

	return nil
}

func list(c *cli.Context) error {
	catalog, err := camsnap.NewCatalog(c.String("catalog"))
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer catalog.Close()

	captures, err := catalog.List()
	if err != nil {
		return cli.Exit(err, 1)
	}

	for _, capture := range captures {
		fmt.Printf("%6d %-20s %4dx%-4d %8d %s %s\n", capture.Seq, capture.Filename, capture.Width, capture.Height, capture.Size, capture.SHA1, capture.Taken.Format("2006-01-02 15:04:05"))
	}

	return nil
}

func main() {
	app := cli.NewApp()

	app.Name = "camsnap"
	app.Usage = "RGB565 camera capture to bitmap utility"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "catalog",
			EnvVars: []string{"CAMSNAP_CATALOG"},
			Value:   camsnap.DefaultCatalog,
			Usage:   "path to capture catalog",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:  "capture",
			Usage: "Capture frames and save them as bitmaps",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "config",
					Usage: "path to YAML config file",
				},
				&cli.StringFlag{
					Name:  "output",
					Value: camsnap.DefaultOutput,
					Usage: "directory to save captures to",
				},
				&cli.IntFlag{
					Name:  "frames",
					Usage: "number of frames to capture, 0 for no limit",
				},
				&cli.StringFlag{
					Name:  "raw",
					Usage: "replay a raw RGB565 sensor dump instead of color bars",
				},
			},
			Action: capture,
		},
		{
			Name:      "convert",
			Usage:     "Convert a raw RGB565 frame to a bitmap",
			ArgsUsage: "RAW BMP",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "width",
					Value: camsnap.DefaultWidth,
					Usage: "frame width in pixels",
				},
				&cli.IntFlag{
					Name:  "height",
					Value: camsnap.DefaultHeight,
					Usage: "frame height in pixels",
				},
				&cli.StringFlag{
					Name:  "byte-order",
					Value: camsnap.DefaultByteOrder,
					Usage: "byte order of each pixel, big or little",
				},
			},
			Action: convert,
		},
		{
			Name:      "info",
			Usage:     "Show the dimensions of a bitmap",
			ArgsUsage: "FILE",
			Action:    info,
		},
		{
			Name:   "list",
			Usage:  "List the captures in the catalog",
			Action: list,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
