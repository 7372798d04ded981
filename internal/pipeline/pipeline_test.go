package pipeline

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/texgrid/infrascan/internal/model"
)

// stubFetcher returns canned results per (mode, place).
type stubFetcher struct {
	results map[model.TemporalMode]map[string]FetchResult
	calls   []string
}

func (s *stubFetcher) Fetch(_ context.Context, place string, mode model.TemporalMode) FetchResult {
	s.calls = append(s.calls, string(mode)+":"+place)
	if byPlace, ok := s.results[mode]; ok {
		if result, ok := byPlace[place]; ok {
			return result
		}
	}
	return FetchResult{Region: model.RegionDisplayName(place), Status: FetchNoData, Reason: "no stub"}
}

// powerNodes builds n raw node features with distinct coordinates,
// all carrying a category tag so they survive cleaning.
func powerNodes(n int, baseLat, baseLon float64) []model.RawFeature {
	features := make([]model.RawFeature, n)
	for i := range features {
		features[i] = model.RawFeature{
			ID:   int64(i + 1),
			Kind: "node",
			Tags: map[string]string{"power": "substation"},
			Geometry: model.Geometry{
				Type: model.GeometryPoint,
				Points: []model.Coordinate{
					{Lat: baseLat + float64(i)*0.001, Lon: baseLon},
				},
			},
		}
	}
	return features
}

func found(place string, features []model.RawFeature) FetchResult {
	return FetchResult{
		Region:   model.RegionDisplayName(place),
		Status:   FetchFound,
		Features: features,
	}
}

func testConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.Extract.Regions = []string{"Houston, Texas, USA", "Dallas, Texas, USA"}
	return cfg
}

func TestPipeline_Run_NoFallbackAtThreshold(t *testing.T) {
	// 30 + 25 = 55 >= 50: historical results stay final.
	fetcher := &stubFetcher{results: map[model.TemporalMode]map[string]FetchResult{
		model.ModeHistorical: {
			"Houston, Texas, USA": found("Houston, Texas, USA", powerNodes(30, 29.7, -95.4)),
			"Dallas, Texas, USA":  found("Dallas, Texas, USA", powerNodes(25, 32.7, -96.8)),
		},
	}}

	result, err := New(testConfig(), fetcher, io.Discard).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Mode != model.ModeHistorical {
		t.Errorf("Expected historical mode, got %s", result.Mode)
	}
	if len(result.Dataset) != 55 {
		t.Errorf("Expected 55 records, got %d", len(result.Dataset))
	}
	for _, call := range fetcher.calls {
		if call == "current:Houston, Texas, USA" {
			t.Error("Expected no current-mode pass when yield meets the threshold")
		}
	}
}

func TestPipeline_Run_FallbackBelowThreshold(t *testing.T) {
	// 10 + 30 = 40 < 50: the current pass runs and replaces the
	// historical output entirely.
	fetcher := &stubFetcher{results: map[model.TemporalMode]map[string]FetchResult{
		model.ModeHistorical: {
			"Houston, Texas, USA": found("Houston, Texas, USA", powerNodes(10, 29.7, -95.4)),
			"Dallas, Texas, USA":  found("Dallas, Texas, USA", powerNodes(30, 32.7, -96.8)),
		},
		model.ModeCurrent: {
			"Houston, Texas, USA": found("Houston, Texas, USA", powerNodes(60, 29.5, -95.3)),
			"Dallas, Texas, USA":  found("Dallas, Texas, USA", powerNodes(70, 32.5, -96.7)),
		},
	}}

	result, err := New(testConfig(), fetcher, io.Discard).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Mode != model.ModeCurrent {
		t.Errorf("Expected current mode after fallback, got %s", result.Mode)
	}
	if len(result.Dataset) != 130 {
		t.Errorf("Expected 130 records from the current pass, got %d", len(result.Dataset))
	}
	for _, rec := range result.Dataset {
		if rec.Lat >= 29.7 && rec.Lat < 29.72 {
			t.Fatalf("Found a historical-pass record in the final dataset: %+v", rec)
		}
	}
}

func TestPipeline_Run_PartialFailureIsolation(t *testing.T) {
	// Houston fails; Dallas must still be fetched and included.
	fetcher := &stubFetcher{results: map[model.TemporalMode]map[string]FetchResult{
		model.ModeHistorical: {
			"Houston, Texas, USA": {Region: "Houston", Status: FetchFailed, Reason: "overpass query failed: timeout"},
			"Dallas, Texas, USA":  found("Dallas, Texas, USA", powerNodes(60, 32.7, -96.8)),
		},
	}}

	result, err := New(testConfig(), fetcher, io.Discard).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(result.Dataset) != 60 {
		t.Errorf("Expected 60 Dallas records despite the Houston failure, got %d", len(result.Dataset))
	}
	if len(result.Regions) != 2 {
		t.Fatalf("Expected 2 region yields, got %d", len(result.Regions))
	}
	if result.Regions[0].Note == "" {
		t.Error("Expected the failed region to carry a diagnostic note")
	}
	if result.Regions[1].Cleaned != 60 {
		t.Errorf("Expected Dallas yield 60, got %d", result.Regions[1].Cleaned)
	}
}

func TestPipeline_Run_TotalFailureIsFatal(t *testing.T) {
	fetcher := &stubFetcher{results: map[model.TemporalMode]map[string]FetchResult{}}

	_, err := New(testConfig(), fetcher, io.Discard).Run(context.Background())
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("Expected ErrNoData when both passes yield nothing, got %v", err)
	}

	// Both modes must have been attempted for both regions.
	if len(fetcher.calls) != 4 {
		t.Errorf("Expected 4 fetch calls (2 regions x 2 modes), got %d: %v", len(fetcher.calls), fetcher.calls)
	}
}

func TestPipeline_Run_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := &stubFetcher{}
	_, err := New(testConfig(), fetcher, io.Discard).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if len(fetcher.calls) != 0 {
		t.Errorf("Expected no fetches after cancellation, got %d", len(fetcher.calls))
	}
}
