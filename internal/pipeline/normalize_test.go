package pipeline

import (
	"math"
	"testing"

	"github.com/texgrid/infrascan/internal/model"
)

func point(lat, lon float64) model.Geometry {
	return model.Geometry{
		Type:   model.GeometryPoint,
		Points: []model.Coordinate{{Lat: lat, Lon: lon}},
	}
}

func TestNormalize_PointPassesThrough(t *testing.T) {
	features := []model.RawFeature{
		{ID: 1, Kind: "node", Tags: map[string]string{"power": "plant"}, Geometry: point(29.76, -95.37)},
	}

	records := Normalize(features)
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	if records[0].Coordinate.Lat != 29.76 || records[0].Coordinate.Lon != -95.37 {
		t.Errorf("Expected point coordinate preserved, got %+v", records[0].Coordinate)
	}
	if records[0].ID != 1 || records[0].Kind != "node" {
		t.Errorf("Expected identity carried over, got id=%d kind=%q", records[0].ID, records[0].Kind)
	}
}

func TestNormalize_LineCentroid(t *testing.T) {
	features := []model.RawFeature{
		{ID: 2, Kind: "way", Geometry: model.Geometry{
			Type: model.GeometryLine,
			Points: []model.Coordinate{
				{Lat: 10, Lon: 20},
				{Lat: 12, Lon: 20},
			},
		}},
	}

	records := Normalize(features)
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	c := records[0].Coordinate
	if math.Abs(c.Lat-11) > 1e-9 || math.Abs(c.Lon-20) > 1e-9 {
		t.Errorf("Expected line centroid (11, 20), got (%v, %v)", c.Lat, c.Lon)
	}
}

func TestNormalize_PolygonCentroid(t *testing.T) {
	// Closed unit square: centroid at its center.
	features := []model.RawFeature{
		{ID: 3, Kind: "way", Geometry: model.Geometry{
			Type: model.GeometryPolygon,
			Points: []model.Coordinate{
				{Lat: 10, Lon: 20},
				{Lat: 10, Lon: 21},
				{Lat: 11, Lon: 21},
				{Lat: 11, Lon: 20},
				{Lat: 10, Lon: 20},
			},
		}},
	}

	records := Normalize(features)
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	c := records[0].Coordinate
	if math.Abs(c.Lat-10.5) > 1e-9 || math.Abs(c.Lon-20.5) > 1e-9 {
		t.Errorf("Expected polygon centroid (10.5, 20.5), got (%v, %v)", c.Lat, c.Lon)
	}
}

func TestNormalize_UnclosedPolygonRingIsClosed(t *testing.T) {
	features := []model.RawFeature{
		{ID: 4, Kind: "way", Geometry: model.Geometry{
			Type: model.GeometryPolygon,
			Points: []model.Coordinate{
				{Lat: 0, Lon: 0},
				{Lat: 0, Lon: 2},
				{Lat: 2, Lon: 2},
				{Lat: 2, Lon: 0},
			},
		}},
	}

	records := Normalize(features)
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	c := records[0].Coordinate
	if math.Abs(c.Lat-1) > 1e-9 || math.Abs(c.Lon-1) > 1e-9 {
		t.Errorf("Expected centroid (1, 1), got (%v, %v)", c.Lat, c.Lon)
	}
}

func TestNormalize_DegenerateGeometryDropped(t *testing.T) {
	features := []model.RawFeature{
		{ID: 5, Kind: "way", Geometry: model.Geometry{Type: model.GeometryLine}},
		{ID: 6, Kind: "node", Geometry: point(29.76, -95.37)},
	}

	records := Normalize(features)
	if len(records) != 1 {
		t.Fatalf("Expected degenerate geometry dropped, got %d records", len(records))
	}
	if records[0].ID != 6 {
		t.Errorf("Expected the surviving record to be the valid node, got id=%d", records[0].ID)
	}
}

func TestNormalize_EmptyInputSignalsNoData(t *testing.T) {
	if records := Normalize(nil); records != nil {
		t.Errorf("Expected nil no-data signal for empty input, got %d records", len(records))
	}

	onlyDegenerate := []model.RawFeature{
		{ID: 7, Kind: "way", Geometry: model.Geometry{Type: model.GeometryPolygon}},
	}
	if records := Normalize(onlyDegenerate); records != nil {
		t.Errorf("Expected nil when every geometry is degenerate, got %d records", len(records))
	}
}
