package camsnap

import (
	"encoding/binary"
	"fmt"
	"io/ioutil"

	"github.com/camsnap/camsnap/rgb565"
	"github.com/camsnap/camsnap/sdcard"
	"gopkg.in/yaml.v2"
)

// Default capture settings; 80x60 is the OV7670 at a sixteenth of VGA
const (
	DefaultWidth     = 80
	DefaultHeight    = 60
	DefaultByteOrder = "big"
	DefaultOutput    = "captures"
	DefaultCatalog   = "camsnap.db"
)

// Config holds the capture pipeline settings.
type Config struct {
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	ByteOrder string `yaml:"byte_order"`
	Output    string `yaml:"output"`
	Pattern   string `yaml:"pattern"`
	Catalog   string `yaml:"catalog"`
	Frames    int    `yaml:"frames"`
	// Raw sensor dump to replay instead of the color bar generator
	Raw string `yaml:"raw"`
}

// DefaultConfig returns the settings used when no file is given.
func DefaultConfig() Config {
	return Config{
		Width:     DefaultWidth,
		Height:    DefaultHeight,
		ByteOrder: DefaultByteOrder,
		Output:    DefaultOutput,
		Pattern:   sdcard.DefaultPattern,
		Catalog:   DefaultCatalog,
	}
}

// LoadConfig reads a YAML config file on top of the defaults.
func LoadConfig(file string) (Config, error) {
	config := DefaultConfig()

	b, err := ioutil.ReadFile(file)
	if err != nil {
		return Config{}, err
	}

	if err := yaml.UnmarshalStrict(b, &config); err != nil {
		return Config{}, fmt.Errorf("%s: %w", file, err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", file, err)
	}

	return config, nil
}

// Validate checks the settings are usable.
func (c Config) Validate() error {
	if err := rgb565.CheckDimensions(c.Width, c.Height); err != nil {
		return fmt.Errorf("invalid size: %w", err)
	}
	switch {
	case c.Frames < 0:
		return fmt.Errorf("invalid frame count %d", c.Frames)
	case c.Output == "":
		return fmt.Errorf("no output directory")
	}
	if _, err := ParseByteOrder(c.ByteOrder); err != nil {
		return err
	}
	return nil
}

// ParseByteOrder maps "big" or "little" to the byte order of raw sensor
// data.
func ParseByteOrder(s string) (binary.ByteOrder, error) {
	switch s {
	case "big":
		return binary.BigEndian, nil
	case "little":
		return binary.LittleEndian, nil
	default:
		return nil, fmt.Errorf("invalid byte order %q", s)
	}
}
