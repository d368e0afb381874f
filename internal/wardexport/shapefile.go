package wardexport

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"

	"github.com/VietTranDai/SMART-GARDEN-SERVER/internal/ward"
)

// dBase field names are limited to 10 characters.
var shapeFields = []shp.Field{
	shp.StringField("CODE", 16),
	shp.StringField("NAME", 128),
	shp.StringField("DISTRICT", 128),
	shp.StringField("PROVINCE", 128),
}

// WriteShapefile writes wards as a point shapefile at path. The .shx and
// .dbf companions are created next to it.
func WriteShapefile(path string, wards []ward.Located) error {
	if !strings.EqualFold(filepath.Ext(path), ".shp") {
		return eris.Errorf("wardexport: shapefile path must end in .shp: %s", path)
	}

	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		return eris.Wrapf(err, "wardexport: create shapefile %s", path)
	}

	if err := writeShapes(w, wards); err != nil {
		w.Close()
		return err
	}
	w.Close()

	return fixDBFName(path)
}

func writeShapes(w *shp.Writer, wards []ward.Located) error {
	if err := w.SetFields(shapeFields); err != nil {
		return eris.Wrap(err, "wardexport: set shapefile fields")
	}

	for _, lw := range wards {
		row := int(w.Write(&shp.Point{X: lw.Longitude, Y: lw.Latitude}))
		for i, v := range []string{lw.Code, lw.Name, lw.DistrictName, lw.ProvinceName} {
			if err := w.WriteAttribute(row, i, v); err != nil {
				return eris.Wrapf(err, "wardexport: write attribute %d for %s", i, lw.Code)
			}
		}
	}
	return nil
}

// fixDBFName moves the attribute table go-shp v0.1.1 writes as "<base>dbf"
// to "<base>.dbf", where readers look for it.
func fixDBFName(path string) error {
	base := path[:len(path)-len(filepath.Ext(path))]
	err := os.Rename(base+"dbf", base+".dbf")
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return eris.Wrapf(err, "wardexport: rename attribute table for %s", path)
	}
	return nil
}
