// Package overpass wraps the Overpass API client: query generation,
// rate limiting, response caching and conversion of raw elements into
// the extraction's feature model.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	overpassapi "github.com/serjvanilla/go-overpass"
	"golang.org/x/time/rate"

	"github.com/texgrid/infrascan/internal/cache"
	"github.com/texgrid/infrascan/internal/model"
	"github.com/texgrid/infrascan/internal/pipeline"
)

// Client fetches infrastructure features for named regions. It
// implements pipeline.RegionFetcher.
type Client struct {
	api            overpassapi.Client
	tags           TagQuery
	settings       QuerySettings
	historicalDate string
	limiter        *rate.Limiter
	store          cache.Cache // nil disables caching
}

// NewClient builds a client from the run configuration. store may be
// nil to bypass caching.
func NewClient(cfg *model.Config, store cache.Cache) *Client {
	httpClient := &http.Client{
		Timeout: cfg.Overpass.Timeout,
		Transport: &http.Transport{
			Proxy: proxyFunc(cfg.Overpass.HTTPProxy, cfg.Overpass.HTTPSProxy, cfg.Overpass.NoProxy),
		},
	}

	limit := cfg.Overpass.RateLimit
	if limit <= 0 {
		limit = 1
	}
	burst := cfg.Overpass.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		api:            overpassapi.NewWithSettings(cfg.Overpass.Endpoint, 1, httpClient),
		tags:           BuildTagQuery(cfg.Extract.Tags),
		settings:       QuerySettings{Timeout: cfg.Overpass.Timeout},
		historicalDate: cfg.Extract.HistoricalDate,
		limiter:        rate.NewLimiter(rate.Limit(limit), burst),
		store:          store,
	}
}

// Fetch runs one bounded query for the place under the given temporal
// mode. Every client failure is folded into a FetchFailed result so a
// bad region cannot abort the remaining ones.
func (c *Client) Fetch(ctx context.Context, place string, mode model.TemporalMode) pipeline.FetchResult {
	region := model.RegionDisplayName(place)

	settings := c.settings
	if mode == model.ModeHistorical {
		settings.Date = c.historicalDate
	}
	ql := c.tags.QL(region, settings)

	if features, ok := c.cached(ql); ok {
		if len(features) == 0 {
			return pipeline.FetchResult{Region: region, Status: pipeline.FetchNoData, Reason: "no features matched (cached)"}
		}
		return pipeline.FetchResult{Region: region, Status: pipeline.FetchFound, Features: features}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return pipeline.FetchResult{Region: region, Status: pipeline.FetchFailed, Reason: err.Error()}
	}

	result, err := c.api.Query(ql)
	if err != nil {
		return pipeline.FetchResult{
			Region: region,
			Status: pipeline.FetchFailed,
			Reason: fmt.Sprintf("overpass query for %q: %v", place, err),
		}
	}

	features := convertResult(&result)
	c.remember(ql, features)

	if len(features) == 0 {
		return pipeline.FetchResult{Region: region, Status: pipeline.FetchNoData, Reason: "no features matched"}
	}
	return pipeline.FetchResult{Region: region, Status: pipeline.FetchFound, Features: features}
}

func (c *Client) cached(ql string) ([]model.RawFeature, bool) {
	if c.store == nil {
		return nil, false
	}
	data, ok := c.store.Get(cache.Key(ql))
	if !ok {
		return nil, false
	}
	var features []model.RawFeature
	if err := json.Unmarshal(data, &features); err != nil {
		return nil, false
	}
	return features, true
}

func (c *Client) remember(ql string, features []model.RawFeature) {
	if c.store == nil {
		return
	}
	data, err := json.Marshal(features)
	if err != nil {
		return
	}
	_ = c.store.Set(cache.Key(ql), data, 0)
}

// convertResult flattens an Overpass result into RawFeatures. The
// query recurses into members, so the result carries untagged
// skeleton nodes and ways; only tagged elements are features, the
// rest exist to supply geometry. The result holds its elements in
// maps; each class is walked in ascending ID order so identical input
// always produces the identical feature sequence, which downstream
// first-occurrence-wins dedup and row ordering depend on.
func convertResult(result *overpassapi.Result) []model.RawFeature {
	var features []model.RawFeature

	for _, id := range sortedIDs(result.Nodes) {
		node := result.Nodes[id]
		if node == nil || len(node.Tags) == 0 {
			continue
		}
		features = append(features, model.RawFeature{
			ID:   node.ID,
			Kind: string(overpassapi.ElementTypeNode),
			Tags: node.Tags,
			Geometry: model.Geometry{
				Type:   model.GeometryPoint,
				Points: []model.Coordinate{{Lat: node.Lat, Lon: node.Lon}},
			},
		})
	}

	for _, id := range sortedIDs(result.Ways) {
		way := result.Ways[id]
		if way == nil || len(way.Tags) == 0 {
			continue
		}
		features = append(features, model.RawFeature{
			ID:       way.ID,
			Kind:     string(overpassapi.ElementTypeWay),
			Tags:     way.Tags,
			Geometry: wayGeometry(way),
		})
	}

	for _, id := range sortedIDs(result.Relations) {
		relation := result.Relations[id]
		if relation == nil || len(relation.Tags) == 0 {
			continue
		}
		features = append(features, model.RawFeature{
			ID:       relation.ID,
			Kind:     string(overpassapi.ElementTypeRelation),
			Tags:     relation.Tags,
			Geometry: relationGeometry(relation),
		})
	}

	return features
}

func sortedIDs[E any](elements map[int64]*E) []int64 {
	ids := make([]int64, 0, len(elements))
	for id := range elements {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func wayGeometry(way *overpassapi.Way) model.Geometry {
	points := make([]model.Coordinate, 0, len(way.Nodes))
	for _, n := range way.Nodes {
		if n == nil {
			continue
		}
		points = append(points, model.Coordinate{Lat: n.Lat, Lon: n.Lon})
	}

	geomType := model.GeometryLine
	if len(points) >= 4 && points[0] == points[len(points)-1] {
		geomType = model.GeometryPolygon
	}
	return model.Geometry{Type: geomType, Points: points}
}

// relationGeometry pools the member node and way coordinates into one
// point set. Reconstructing true multipolygons is out of scope; the
// pooled centroid is close enough for point reduction of hospital
// campuses and plant sites.
func relationGeometry(relation *overpassapi.Relation) model.Geometry {
	var points []model.Coordinate
	for _, member := range relation.Members {
		if member.Node != nil {
			points = append(points, model.Coordinate{Lat: member.Node.Lat, Lon: member.Node.Lon})
		}
		if member.Way != nil {
			for _, n := range member.Way.Nodes {
				if n != nil {
					points = append(points, model.Coordinate{Lat: n.Lat, Lon: n.Lon})
				}
			}
		}
	}
	return model.Geometry{Type: model.GeometryLine, Points: points}
}
