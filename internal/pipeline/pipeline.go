// Package pipeline implements the extraction flow: fetch each region,
// reduce geometry to centroids, clean and project records, fall back
// to current data when the historical snapshot underperforms, then
// aggregate into one deduplicated dataset.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/texgrid/infrascan/internal/model"
)

// ErrNoData is returned when every region, in both temporal modes,
// yields nothing. The run has no dataset; verification and persistence
// are not attempted.
var ErrNoData = errors.New("no data could be extracted from any region")

// NoDataCauses lists the plausible explanations reported alongside
// ErrNoData.
var NoDataCauses = []string{
	"network connectivity issues",
	"Overpass API rate limiting",
	"invalid region names",
}

// Pipeline drives the extraction for all configured regions.
type Pipeline struct {
	fetcher  RegionFetcher
	cfg      *model.Config
	progress io.Writer
}

// New builds a pipeline. progress receives per-stage status lines;
// pass io.Discard to silence them.
func New(cfg *model.Config, fetcher RegionFetcher, progress io.Writer) *Pipeline {
	if progress == nil {
		progress = io.Discard
	}
	return &Pipeline{fetcher: fetcher, cfg: cfg, progress: progress}
}

// RegionYield records the per-region stage counts for reporting.
type RegionYield struct {
	Region  string
	Fetched int    // raw features returned by the query
	Cleaned int    // records surviving normalize + clean
	Note    string // diagnostic when the region failed or was empty
}

// RunResult is the outcome of a successful run: the final dataset and
// which temporal mode produced it.
type RunResult struct {
	Dataset    model.Dataset
	Mode       model.TemporalMode
	Regions    []RegionYield
	Merged     int // record count before deduplication
	Duplicates int // exact-coordinate duplicates removed
}

type passResult struct {
	sets    [][]model.CleanedRecord
	regions []RegionYield
	yield   int
}

// Run executes the historical pass and, when its total yield is below
// the fallback threshold, discards it and repeats against current
// data. The final mode's records, never a union of both, are
// aggregated and returned.
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	mode := model.ModeHistorical
	pass, err := p.runPass(ctx, mode)
	if err != nil {
		return nil, err
	}

	if pass.yield < p.cfg.Extract.FallbackMinYield {
		fmt.Fprintf(p.progress, "[fallback] historical yield %d below %d, retrying with current data\n",
			pass.yield, p.cfg.Extract.FallbackMinYield)
		mode = model.ModeCurrent
		pass, err = p.runPass(ctx, mode)
		if err != nil {
			return nil, err
		}
	}

	if pass.yield == 0 {
		return nil, ErrNoData
	}

	dataset, duplicates := Aggregate(pass.sets)
	fmt.Fprintf(p.progress, "[merge] combined dataset: %d records\n", pass.yield)
	fmt.Fprintf(p.progress, "[dedup] removed %d duplicate coordinates, %d unique records\n",
		duplicates, len(dataset))

	return &RunResult{
		Dataset:    dataset,
		Mode:       mode,
		Regions:    pass.regions,
		Merged:     pass.yield,
		Duplicates: duplicates,
	}, nil
}

// runPass fetches, normalizes and cleans every configured region once
// under the given mode. A region failure is recorded and skipped; it
// never stops the remaining regions.
func (p *Pipeline) runPass(ctx context.Context, mode model.TemporalMode) (passResult, error) {
	var pass passResult

	for _, place := range p.cfg.Extract.Regions {
		if err := ctx.Err(); err != nil {
			return passResult{}, err
		}

		fmt.Fprintf(p.progress, "[fetch] querying %s (%s)...\n", place, mode)
		result := p.fetcher.Fetch(ctx, place, mode)
		yield := RegionYield{Region: result.Region}

		switch result.Status {
		case FetchFailed:
			fmt.Fprintf(p.progress, "[error] %s: %s\n", result.Region, result.Reason)
			yield.Note = result.Reason
		case FetchNoData:
			fmt.Fprintf(p.progress, "[warn] no data returned for %s\n", result.Region)
			yield.Note = result.Reason
		case FetchFound:
			yield.Fetched = len(result.Features)
			fmt.Fprintf(p.progress, "[fetch] retrieved %d features from %s\n", yield.Fetched, result.Region)

			cleaned := Clean(Normalize(result.Features), result.Region)
			yield.Cleaned = len(cleaned)
			fmt.Fprintf(p.progress, "[clean] %s: %d records after filtering\n", result.Region, yield.Cleaned)

			if len(cleaned) > 0 {
				pass.sets = append(pass.sets, cleaned)
				pass.yield += len(cleaned)
			}
		}

		pass.regions = append(pass.regions, yield)
	}

	return pass, nil
}
