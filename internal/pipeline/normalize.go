package pipeline

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/texgrid/infrascan/internal/model"
)

// Normalize reduces every feature's geometry to its centroid,
// producing one coordinate pair per feature. Coordinates are WGS84
// throughout; Overpass never labels a reference system, so geographic
// coordinates are assumed. Features with degenerate geometry are
// dropped. A nil return is the explicit no-data signal, distinct from
// a fetch error.
func Normalize(features []model.RawFeature) []model.NormalizedRecord {
	if len(features) == 0 {
		return nil
	}

	records := make([]model.NormalizedRecord, 0, len(features))
	for _, f := range features {
		coord, ok := centroid(f.Geometry)
		if !ok {
			continue
		}
		records = append(records, model.NormalizedRecord{
			ID:         f.ID,
			Kind:       f.Kind,
			Coordinate: coord,
			Tags:       f.Tags,
		})
	}

	if len(records) == 0 {
		return nil
	}
	return records
}

// centroid reduces a geometry to a single coordinate: a point maps to
// itself, a line to its length-weighted centroid, a polygon ring to
// its area-weighted centroid. This matches centroid computation on
// raw lon/lat values, which is what the dedup and sanity checks
// downstream expect.
func centroid(geom model.Geometry) (model.Coordinate, bool) {
	if len(geom.Points) == 0 {
		return model.Coordinate{}, false
	}

	var g orb.Geometry
	switch geom.Type {
	case model.GeometryPoint:
		g = orbPoint(geom.Points[0])
	case model.GeometryLine:
		if len(geom.Points) == 1 {
			g = orbPoint(geom.Points[0])
			break
		}
		line := make(orb.LineString, 0, len(geom.Points))
		for _, p := range geom.Points {
			line = append(line, orbPoint(p))
		}
		g = line
	case model.GeometryPolygon:
		ring := make(orb.Ring, 0, len(geom.Points)+1)
		for _, p := range geom.Points {
			ring = append(ring, orbPoint(p))
		}
		if !ring.Closed() {
			ring = append(ring, ring[0])
		}
		g = orb.Polygon{ring}
	default:
		return model.Coordinate{}, false
	}

	center, _ := planar.CentroidArea(g)
	coord := model.Coordinate{Lat: center.Lat(), Lon: center.Lon()}
	if !finite(coord.Lat) || !finite(coord.Lon) {
		return model.Coordinate{}, false
	}
	return coord, true
}

func orbPoint(c model.Coordinate) orb.Point {
	return orb.Point{c.Lon, c.Lat}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
