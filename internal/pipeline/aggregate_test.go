package pipeline

import (
	"reflect"
	"testing"

	"github.com/texgrid/infrascan/internal/model"
)

func cleanedAt(lat, lon float64, city string) model.CleanedRecord {
	return model.CleanedRecord{
		ElementType: "node",
		Power:       "substation",
		Lat:         lat,
		Lon:         lon,
		CitySource:  city,
	}
}

func TestAggregate_FirstOccurrenceWins(t *testing.T) {
	houston := []model.CleanedRecord{
		cleanedAt(29.76, -95.37, "Houston"),
		cleanedAt(29.80, -95.40, "Houston"),
	}
	dallas := []model.CleanedRecord{
		cleanedAt(29.76, -95.37, "Dallas"), // same coordinate as a Houston record
		cleanedAt(32.78, -96.80, "Dallas"),
	}

	dataset, duplicates := Aggregate([][]model.CleanedRecord{houston, dallas})
	if len(dataset) != 3 {
		t.Fatalf("Expected 3 unique records, got %d", len(dataset))
	}
	if duplicates != 1 {
		t.Errorf("Expected 1 duplicate removed, got %d", duplicates)
	}
	if dataset[0].CitySource != "Houston" {
		t.Errorf("Expected the earlier Houston record to win, got %q", dataset[0].CitySource)
	}
}

func TestAggregate_ExactFloatEquality(t *testing.T) {
	// Sub-meter float noise keeps records distinct.
	a := cleanedAt(29.76, -95.37, "Houston")
	b := cleanedAt(29.76+1e-12, -95.37, "Houston")

	dataset, duplicates := Aggregate([][]model.CleanedRecord{{a, b}})
	if len(dataset) != 2 || duplicates != 0 {
		t.Errorf("Expected near-duplicates kept distinct, got %d records, %d duplicates", len(dataset), duplicates)
	}
}

func TestAggregate_IdempotentUnderDoubledInput(t *testing.T) {
	set := []model.CleanedRecord{
		cleanedAt(29.76, -95.37, "Houston"),
		cleanedAt(29.80, -95.40, "Houston"),
		cleanedAt(32.78, -96.80, "Dallas"),
	}

	once, _ := Aggregate([][]model.CleanedRecord{set})
	doubled, _ := Aggregate([][]model.CleanedRecord{set, set})

	if !reflect.DeepEqual(once, doubled) {
		t.Errorf("Expected dedup to be idempotent under doubled input:\nonce:    %+v\ndoubled: %+v", once, doubled)
	}
}

func TestAggregate_PreservesRegionOrder(t *testing.T) {
	houston := []model.CleanedRecord{cleanedAt(29.76, -95.37, "Houston")}
	dallas := []model.CleanedRecord{cleanedAt(32.78, -96.80, "Dallas")}

	dataset, _ := Aggregate([][]model.CleanedRecord{houston, dallas})
	if len(dataset) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(dataset))
	}
	if dataset[0].CitySource != "Houston" || dataset[1].CitySource != "Dallas" {
		t.Errorf("Expected region-processing order preserved, got %q then %q",
			dataset[0].CitySource, dataset[1].CitySource)
	}
}
