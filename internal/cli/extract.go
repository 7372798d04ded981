package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/texgrid/infrascan/internal/cache"
	"github.com/texgrid/infrascan/internal/export"
	"github.com/texgrid/infrascan/internal/model"
	"github.com/texgrid/infrascan/internal/overpass"
	"github.com/texgrid/infrascan/internal/pipeline"
	"github.com/texgrid/infrascan/internal/verify"
)

var (
	outCSV     string
	outGeoJSON string
	runTimeout time.Duration
	noCache    bool
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract, verify and persist the infrastructure dataset",
	Long: `Extract runs the full pipeline for every configured region:
- Query the Overpass API at the historical snapshot date
- Reduce feature geometry to point centroids
- Filter and project records onto the fixed output schema
- Fall back to current data when the historical yield is too low
- Merge regions, deduplicate by exact coordinates
- Run the self-verification checks and write CSV + GeoJSON

Example:
  infrascan extract
  infrascan extract --csv infra.csv --geojson infra.geojson
  infrascan extract --no-cache --timeout 45m -v`,
	Args: cobra.NoArgs,
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	// Output flags
	extractCmd.Flags().StringVar(&outCSV, "csv", "", "output CSV path (default from config)")
	extractCmd.Flags().StringVar(&outGeoJSON, "geojson", "", "output GeoJSON path (default from config)")

	// Run flags
	extractCmd.Flags().DurationVar(&runTimeout, "timeout", 30*time.Minute, "overall extraction timeout (covers both temporal passes)")
	extractCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the query-response cache (force fresh fetches)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), runTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if outCSV != "" {
		cfg.Output.CSVPath = outCSV
	}
	if outGeoJSON != "" {
		cfg.Output.GeoJSONPath = outGeoJSON
	}
	if noCache {
		cfg.Cache.Enabled = false
	}

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Regions: %v\n", cfg.Extract.Regions)
		fmt.Fprintf(os.Stderr, "Historical date: %s\n", cfg.Extract.HistoricalDate)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	store, err := buildCache(cfg)
	if err != nil {
		return err
	}

	fetcher := overpass.NewClient(cfg, store)
	p := pipeline.New(cfg, fetcher, os.Stderr)

	result, err := p.Run(ctx)
	if err != nil {
		if errors.Is(err, pipeline.ErrNoData) {
			fmt.Fprintln(os.Stderr)
			fmt.Fprintln(os.Stderr, "FAILURE REPORT")
			fmt.Fprintln(os.Stderr, "No data could be extracted from any region.")
			fmt.Fprintln(os.Stderr, "Possible causes:")
			for _, cause := range pipeline.NoDataCauses {
				fmt.Fprintf(os.Stderr, "  - %s\n", cause)
			}
		}
		return err
	}

	// Self-verification: three data checks, then persistence.
	verifier := verify.New(cfg.Extract.MinVolume, cfg.Extract.SanityBounds)
	report := verifier.Verify(result.Dataset)

	size, werr := export.WriteCSV(result.Dataset, cfg.Output.CSVPath)
	report.RecordPersistence(werr == nil)
	if werr != nil {
		fmt.Fprintf(os.Stderr, "Warning: CSV write failed: %v\n", werr)
	} else {
		fmt.Fprintf(os.Stderr, "[save] CSV saved to %s (%d bytes)\n", cfg.Output.CSVPath, size)
		if gerr := export.WriteGeoJSON(result.Dataset, cfg.Output.GeoJSONPath); gerr != nil {
			fmt.Fprintf(os.Stderr, "Warning: GeoJSON write failed: %v\n", gerr)
		} else {
			fmt.Fprintf(os.Stderr, "[save] GeoJSON saved to %s\n", cfg.Output.GeoJSONPath)
		}
	}

	renderReport(os.Stdout, cfg, result, report)

	if !report.OK() {
		return fmt.Errorf("verification failed: %d/4 checks passed", report.ChecksPassed())
	}
	return nil
}

// loadConfig layers the config file and environment over the
// defaults.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// buildCache constructs the layered response cache, defaulting the
// disk layer to ~/.infrascan/cache. Returns nil when caching is off.
func buildCache(cfg *model.Config) (cache.Cache, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}

	dir := cfg.Cache.Dir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve cache dir: %w", err)
		}
		dir = filepath.Join(home, ".infrascan", "cache")
	}

	return cache.NewLayeredCache(cfg.Cache.MemoryTTL, dir, cfg.Cache.DiskTTL), nil
}

// renderReport prints the verification lines, the run summary and, on
// success, the per-category breakdown.
func renderReport(w io.Writer, cfg *model.Config, result *pipeline.RunResult, report *verify.Report) {
	fmt.Fprintln(w, "SELF-VERIFICATION")
	fmt.Fprintf(w, "  [volume]      %s (%d records)\n", passFail(report.Volume), report.TotalRecords)
	fmt.Fprintf(w, "  [coordinates] %s\n", passFail(report.Coordinates))
	fmt.Fprintf(w, "  [location]    %s\n", passFail(report.LocationSanity))
	fmt.Fprintf(w, "  [persistence] %s\n", passFail(report.Persistence))
	fmt.Fprintln(w)

	if report.OK() {
		fmt.Fprintln(w, "SUCCESS: data extracted successfully")
		fmt.Fprintf(w, "  Total records: %d\n", report.TotalRecords)
		if result.Mode == model.ModeHistorical {
			fmt.Fprintf(w, "  Data source: historical (%s)\n", cfg.Extract.HistoricalDate)
		} else {
			fmt.Fprintln(w, "  Data source: current (fallback)")
		}
		fmt.Fprintf(w, "  CSV file: %s\n", cfg.Output.CSVPath)
		fmt.Fprintf(w, "  GeoJSON file: %s\n", cfg.Output.GeoJSONPath)
		fmt.Fprintln(w)
		renderBreakdown(w, result.Dataset)
		return
	}

	fmt.Fprintln(w, "FAILURE REPORT")
	fmt.Fprintf(w, "  Checks passed: %d/4\n", report.ChecksPassed())
	fmt.Fprintln(w, "  Errors:")
	for _, reason := range report.Reasons {
		fmt.Fprintf(w, "    - %s\n", reason)
	}
}

// renderBreakdown prints per-category record counts with the top five
// values of each category.
func renderBreakdown(w io.Writer, dataset model.Dataset) {
	categories := []struct {
		name  string
		value func(model.CleanedRecord) string
	}{
		{"power", func(r model.CleanedRecord) string { return r.Power }},
		{"amenity", func(r model.CleanedRecord) string { return r.Amenity }},
		{"man_made", func(r model.CleanedRecord) string { return r.ManMade }},
		{"telecom", func(r model.CleanedRecord) string { return r.Telecom }},
		{"aeroway", func(r model.CleanedRecord) string { return r.Aeroway }},
	}

	fmt.Fprintln(w, "CATEGORY BREAKDOWN:")
	for _, cat := range categories {
		counts := make(map[string]int)
		total := 0
		for _, rec := range dataset {
			if v := cat.value(rec); v != "" {
				counts[v]++
				total++
			}
		}
		if total == 0 {
			continue
		}

		values := make([]string, 0, len(counts))
		for v := range counts {
			values = append(values, v)
		}
		sort.Slice(values, func(i, j int) bool {
			if counts[values[i]] != counts[values[j]] {
				return counts[values[i]] > counts[values[j]]
			}
			return values[i] < values[j]
		})
		if len(values) > 5 {
			values = values[:5]
		}

		fmt.Fprintf(w, "  %s: %d records -", cat.name, total)
		for _, v := range values {
			fmt.Fprintf(w, " %s=%d", v, counts[v])
		}
		fmt.Fprintln(w)
	}
}

func passFail(ok bool) string {
	if ok {
		return "PASS"
	}
	return "FAIL"
}
