// Package wardexport writes geocoded wards to GIS formats.
package wardexport

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/VietTranDai/SMART-GARDEN-SERVER/internal/ward"
)

// FeatureCollection converts wards into GeoJSON point features. Feature IDs
// are ward codes; coordinates are [longitude, latitude].
func FeatureCollection(wards []ward.Located) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{
		Features: make([]*geojson.Feature, 0, len(wards)),
	}
	for _, w := range wards {
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       w.Code,
			Geometry: geom.NewPointFlat(geom.XY, []float64{w.Longitude, w.Latitude}),
			Properties: map[string]interface{}{
				"code":     w.Code,
				"name":     w.Name,
				"district": w.DistrictName,
				"province": w.ProvinceName,
			},
		})
	}
	return fc
}

// WriteGeoJSON encodes wards as a GeoJSON FeatureCollection to w.
func WriteGeoJSON(w io.Writer, wards []ward.Located) error {
	data, err := json.Marshal(FeatureCollection(wards))
	if err != nil {
		return eris.Wrap(err, "wardexport: marshal geojson")
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return eris.Wrap(err, "wardexport: write geojson")
	}
	return nil
}
