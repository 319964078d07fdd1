/*
Package camsnap captures frames from an RGB565 camera sensor, previews them
on a display and saves each one to removable storage as a 24-bit bitmap.
*/
package camsnap

import (
	"log"

	"github.com/camsnap/camsnap/sdcard"
)

type Camsnap struct {
	camera  Camera
	display Display
	store   *sdcard.Store
	catalog *Catalog
	logger  *log.Logger
}

// New returns a Camsnap. The display and catalog may be nil.
func New(camera Camera, display Display, store *sdcard.Store, catalog *Catalog, logger *log.Logger) *Camsnap {
	if display == nil {
		display = NopDisplay{}
	}
	return &Camsnap{
		camera:  camera,
		display: display,
		store:   store,
		catalog: catalog,
		logger:  logger,
	}
}
