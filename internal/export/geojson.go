package export

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/texgrid/infrascan/internal/model"
)

// WriteGeoJSON serializes the dataset as a FeatureCollection of WGS84
// points with the same attributes as the CSV. This artifact is
// best-effort: its failure never fails the run.
func WriteGeoJSON(dataset model.Dataset, path string) error {
	fc := geojson.NewFeatureCollection()
	for _, rec := range dataset {
		f := geojson.NewFeature(orb.Point{rec.Lon, rec.Lat})
		f.Properties = geojson.Properties{
			"element_type":     rec.ElementType,
			"osmid":            rec.OSMID,
			"name":             rec.Name,
			"power":            rec.Power,
			"amenity":          rec.Amenity,
			"man_made":         rec.ManMade,
			"telecom":          rec.Telecom,
			"aeroway":          rec.Aeroway,
			"generator:source": rec.GeneratorSource,
			"addr:full":        rec.AddrFull,
			"addr:street":      rec.AddrStreet,
			"addr:city":        rec.AddrCity,
			"operator":         rec.Operator,
			"capacity":         rec.Capacity,
			"voltage":          rec.Voltage,
			"lat":              rec.Lat,
			"lon":              rec.Lon,
			"city_source":      rec.CitySource,
		}
		fc.Append(f)
	}

	data, err := json.Marshal(fc)
	if err != nil {
		return fmt.Errorf("marshal feature collection: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
