package model

// TemporalMode selects which snapshot of the map a query targets.
type TemporalMode string

const (
	ModeHistorical TemporalMode = "historical" // attic query pinned to Config.Extract.HistoricalDate
	ModeCurrent    TemporalMode = "current"    // present-day data, used as fallback
)

// GeometryType classifies the shape of a raw feature.
type GeometryType string

const (
	GeometryPoint   GeometryType = "point"
	GeometryLine    GeometryType = "line"
	GeometryPolygon GeometryType = "polygon"
)

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Geometry is the ordered coordinate sequence backing a feature.
// A point has exactly one coordinate; a polygon's ring is closed
// (first == last) as returned by Overpass.
type Geometry struct {
	Type   GeometryType `json:"type"`
	Points []Coordinate `json:"points"`
}

// RawFeature is one element returned by the Overpass query for one
// region, before any normalization. Tags are sparse; keys vary per
// feature.
type RawFeature struct {
	ID       int64             `json:"id"`
	Kind     string            `json:"kind"` // node, way or relation
	Tags     map[string]string `json:"tags"`
	Geometry Geometry          `json:"geometry"`
}

// NormalizedRecord is a RawFeature reduced to a single centroid
// coordinate. Features whose geometry cannot be reduced are dropped,
// never represented with a zero coordinate.
type NormalizedRecord struct {
	ID           int64
	Kind         string
	Coordinate   Coordinate
	Tags         map[string]string
	SourceRegion string
}

// CleanedRecord is a NormalizedRecord projected onto the fixed output
// schema. Every field is always present; absent tags are empty
// strings, so records from any region or temporal mode are
// structurally identical.
type CleanedRecord struct {
	ElementType     string
	OSMID           int64
	Name            string
	Power           string
	Amenity         string
	ManMade         string
	Telecom         string
	Aeroway         string
	GeneratorSource string
	AddrFull        string
	AddrStreet      string
	AddrCity        string
	Operator        string
	Capacity        string
	Voltage         string
	Lat             float64
	Lon             float64
	CitySource      string
}

// Dataset is the ordered, coordinate-deduplicated collection of
// cleaned records for one run.
type Dataset []CleanedRecord

// MeanCoordinate returns the arithmetic mean latitude and longitude
// across the dataset. Only meaningful for a non-empty dataset.
func (d Dataset) MeanCoordinate() (lat, lon float64) {
	if len(d) == 0 {
		return 0, 0
	}
	for _, rec := range d {
		lat += rec.Lat
		lon += rec.Lon
	}
	n := float64(len(d))
	return lat / n, lon / n
}
