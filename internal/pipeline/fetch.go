package pipeline

import (
	"context"

	"github.com/texgrid/infrascan/internal/model"
)

// FetchStatus tags the outcome of one region query.
type FetchStatus int

const (
	// FetchFound means the query returned at least one feature.
	FetchFound FetchStatus = iota
	// FetchNoData means the query succeeded but matched nothing.
	FetchNoData
	// FetchFailed means the client raised (network, bad place name,
	// quota). A failed region degrades yield; it never aborts the run.
	FetchFailed
)

// FetchResult is the explicit per-region outcome. Failure is a value,
// not a panic or error return, so the controller's continue-on-failure
// and yield logic is plain branching.
type FetchResult struct {
	Region   string // display name the records are tagged with
	Status   FetchStatus
	Features []model.RawFeature
	Reason   string // diagnostic for FetchNoData / FetchFailed
}

// RegionFetcher issues one bounded query for a named place under the
// given temporal mode. Implemented by the Overpass client; stubbed in
// tests.
type RegionFetcher interface {
	Fetch(ctx context.Context, place string, mode model.TemporalMode) FetchResult
}
