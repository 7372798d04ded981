// Package verify implements the post-run self-verification protocol:
// a fixed battery of independent checks against the final dataset,
// collected into a pass/fail report.
package verify

import (
	"fmt"
	"math"

	"github.com/texgrid/infrascan/internal/model"
)

// Report holds the four named checks, the record count and every
// failure reason. Overall success is the AND of all four checks; the
// persistence check is recorded after the writer runs, so OK is
// derived on demand rather than stored.
type Report struct {
	Volume         bool
	Coordinates    bool
	LocationSanity bool
	Persistence    bool
	TotalRecords   int
	Reasons        []string
}

// OK reports overall success: every check passed.
func (r *Report) OK() bool {
	return r.Volume && r.Coordinates && r.LocationSanity && r.Persistence
}

// ChecksPassed counts the passing checks, for the N/4 failure summary.
func (r *Report) ChecksPassed() int {
	n := 0
	for _, ok := range []bool{r.Volume, r.Coordinates, r.LocationSanity, r.Persistence} {
		if ok {
			n++
		}
	}
	return n
}

// RecordPersistence fills in the fourth check from the writer's
// outcome.
func (r *Report) RecordPersistence(ok bool) {
	r.Persistence = ok
	if !ok {
		r.Reasons = append(r.Reasons, "output file creation failed")
	}
}

// Verifier runs the data checks with configured thresholds.
type Verifier struct {
	minVolume int
	bounds    model.Bounds
}

// New creates a verifier. minVolume is the strict lower bound on the
// record count; bounds is the sanity box the mean coordinate must lie
// in.
func New(minVolume int, bounds model.Bounds) *Verifier {
	return &Verifier{minVolume: minVolume, bounds: bounds}
}

// Verify runs the volume, coordinate and location-sanity checks.
// Checks never short-circuit each other; every failure appends its
// own diagnostic. The persistence check is left for
// Report.RecordPersistence.
func (v *Verifier) Verify(dataset model.Dataset) *Report {
	report := &Report{TotalRecords: len(dataset)}

	if len(dataset) == 0 {
		report.Reasons = append(report.Reasons, "dataset is empty")
		return report
	}

	// Check 1: volume, strictly greater than the threshold.
	if len(dataset) > v.minVolume {
		report.Volume = true
	} else {
		report.Reasons = append(report.Reasons,
			fmt.Sprintf("volume check failed: only %d records (need > %d)", len(dataset), v.minVolume))
	}

	// Check 2: at least one finite latitude and one finite longitude,
	// counted independently.
	latValid, lonValid := 0, 0
	for _, rec := range dataset {
		if isFinite(rec.Lat) {
			latValid++
		}
		if isFinite(rec.Lon) {
			lonValid++
		}
	}
	if latValid > 0 && lonValid > 0 {
		report.Coordinates = true
	} else {
		report.Reasons = append(report.Reasons, "no valid coordinates found")
	}

	// Check 3: mean coordinate inside the expected bounding box.
	meanLat, meanLon := dataset.MeanCoordinate()
	if v.bounds.Contains(meanLat, meanLon) {
		report.LocationSanity = true
	} else {
		report.Reasons = append(report.Reasons,
			fmt.Sprintf("mean coordinates (%.4f, %.4f) outside expected bounds", meanLat, meanLon))
	}

	return report
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
