package model

import (
	"strings"
	"time"
)

// Config is the complete extraction configuration. It is assembled
// once by the CLI and passed down by value reference; nothing mutates
// it after a run starts.
type Config struct {
	Extract  ExtractConfig  `yaml:"extract" mapstructure:"extract"`
	Overpass OverpassConfig `yaml:"overpass" mapstructure:"overpass"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
}

// ExtractConfig holds the domain parameters: where to look, when, for
// what, and the thresholds the run is judged against.
type ExtractConfig struct {
	// Regions are full place names; the display name used for
	// source tagging and the Overpass area lookup is the text before
	// the first comma ("Houston, Texas, USA" -> "Houston").
	Regions []string `yaml:"regions" mapstructure:"regions"`

	// HistoricalDate is the attic snapshot instant, ISO-8601 UTC.
	HistoricalDate string `yaml:"historical_date" mapstructure:"historical_date"`

	// Tags maps an infrastructure category key to its subtypes.
	Tags map[string][]string `yaml:"tags" mapstructure:"tags"`

	// FallbackMinYield is the minimum total historical record count
	// below which the run is repeated against current data.
	FallbackMinYield int `yaml:"fallback_min_yield" mapstructure:"fallback_min_yield"`

	// MinVolume is the record count the final dataset must exceed
	// (strictly) for the volume check to pass.
	MinVolume int `yaml:"min_volume" mapstructure:"min_volume"`

	// SanityBounds is the bounding box the dataset's mean coordinate
	// must fall within.
	SanityBounds Bounds `yaml:"sanity_bounds" mapstructure:"sanity_bounds"`
}

// Bounds is an inclusive lat/lon bounding box.
type Bounds struct {
	MinLat float64 `yaml:"min_lat" mapstructure:"min_lat"`
	MaxLat float64 `yaml:"max_lat" mapstructure:"max_lat"`
	MinLon float64 `yaml:"min_lon" mapstructure:"min_lon"`
	MaxLon float64 `yaml:"max_lon" mapstructure:"max_lon"`
}

// Contains reports whether the point lies inside the box.
func (b Bounds) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// OverpassConfig configures the external Overpass client.
type OverpassConfig struct {
	Endpoint   string        `yaml:"endpoint" mapstructure:"endpoint"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
	RateLimit  float64       `yaml:"rate_limit" mapstructure:"rate_limit"` // queries per second
	Burst      int           `yaml:"burst" mapstructure:"burst"`
	HTTPProxy  string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy    string        `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// CacheConfig controls the layered query-response cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"` // empty: ~/.infrascan/cache
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// OutputConfig names the persisted artifacts.
type OutputConfig struct {
	CSVPath     string `yaml:"csv_path" mapstructure:"csv_path"`
	GeoJSONPath string `yaml:"geojson_path" mapstructure:"geojson_path"`
	Verbose     bool   `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the stock Texas critical-infrastructure
// configuration: Houston and Dallas at the 2022-06-01 snapshot.
func DefaultConfig() *Config {
	return &Config{
		Extract: ExtractConfig{
			Regions: []string{
				"Houston, Texas, USA",
				"Dallas, Texas, USA",
			},
			HistoricalDate: "2022-06-01T00:00:00Z",
			Tags: map[string][]string{
				"power":    {"plant", "generator", "substation"},
				"amenity":  {"hospital", "fire_station", "police"},
				"telecom":  {"data_center"},
				"man_made": {"water_works", "wastewater_plant"},
				"aeroway":  {"aerodrome"},
			},
			FallbackMinYield: 50,
			MinVolume:        100,
			SanityBounds: Bounds{
				MinLat: 29.0,
				MaxLat: 33.5,
				MinLon: -97.5,
				MaxLon: -94.5,
			},
		},
		Overpass: OverpassConfig{
			Endpoint:  "https://overpass-api.de/api/interpreter",
			Timeout:   180 * time.Second,
			RateLimit: 0.5,
			Burst:     2,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 1 * time.Hour,
			DiskTTL:   24 * time.Hour,
		},
		Output: OutputConfig{
			CSVPath:     "texas_critical_infra_points_2022.csv",
			GeoJSONPath: "texas_critical_infra_points_2022.geojson",
		},
	}
}

// RegionDisplayName reduces a full place name to the short name used
// for source tagging and the Overpass area lookup.
func RegionDisplayName(place string) string {
	name, _, _ := strings.Cut(place, ",")
	return strings.TrimSpace(name)
}
