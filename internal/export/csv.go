// Package export persists the final dataset: a delimited tabular file
// (the primary artifact whose existence the persistence check
// verifies) and a best-effort GeoJSON companion.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/texgrid/infrascan/internal/model"
)

// Header is the fixed column order of the tabular output. It never
// varies with region or temporal mode.
var Header = []string{
	"element_type", "osmid", "name",
	"power", "amenity", "man_made", "telecom", "aeroway",
	"generator:source", "addr:full", "addr:street", "addr:city",
	"operator", "capacity", "voltage",
	"lat", "lon", "city_source",
}

// WriteCSV serializes the dataset to a UTF-8 CSV at path and returns
// the written file's size. Success requires the file to exist on disk
// after the write; coordinates are rendered with the shortest exact
// representation so a round-trip loses no precision.
func WriteCSV(dataset model.Dataset, path string) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		f.Close()
		return 0, fmt.Errorf("write header: %w", err)
	}
	for _, rec := range dataset {
		if err := w.Write(row(rec)); err != nil {
			f.Close()
			return 0, fmt.Errorf("write record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return 0, fmt.Errorf("flush: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close %s: %w", path, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("file not found after save: %w", err)
	}
	return info.Size(), nil
}

// ReadCSV loads a previously written CSV back into a dataset. Used to
// confirm the tabular artifact round-trips without loss.
func ReadCSV(path string) (model.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("read %s: missing header row", path)
	}

	dataset := make(model.Dataset, 0, len(rows)-1)
	for _, cols := range rows[1:] {
		if len(cols) != len(Header) {
			return nil, fmt.Errorf("read %s: row has %d columns, want %d", path, len(cols), len(Header))
		}
		rec, err := parseRow(cols)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		dataset = append(dataset, rec)
	}
	return dataset, nil
}

func row(rec model.CleanedRecord) []string {
	return []string{
		rec.ElementType,
		strconv.FormatInt(rec.OSMID, 10),
		rec.Name,
		rec.Power, rec.Amenity, rec.ManMade, rec.Telecom, rec.Aeroway,
		rec.GeneratorSource, rec.AddrFull, rec.AddrStreet, rec.AddrCity,
		rec.Operator, rec.Capacity, rec.Voltage,
		formatCoord(rec.Lat), formatCoord(rec.Lon),
		rec.CitySource,
	}
}

func parseRow(cols []string) (model.CleanedRecord, error) {
	osmid, err := strconv.ParseInt(cols[1], 10, 64)
	if err != nil {
		return model.CleanedRecord{}, fmt.Errorf("parse osmid %q: %w", cols[1], err)
	}
	lat, err := strconv.ParseFloat(cols[15], 64)
	if err != nil {
		return model.CleanedRecord{}, fmt.Errorf("parse lat %q: %w", cols[15], err)
	}
	lon, err := strconv.ParseFloat(cols[16], 64)
	if err != nil {
		return model.CleanedRecord{}, fmt.Errorf("parse lon %q: %w", cols[16], err)
	}

	return model.CleanedRecord{
		ElementType:     cols[0],
		OSMID:           osmid,
		Name:            cols[2],
		Power:           cols[3],
		Amenity:         cols[4],
		ManMade:         cols[5],
		Telecom:         cols[6],
		Aeroway:         cols[7],
		GeneratorSource: cols[8],
		AddrFull:        cols[9],
		AddrStreet:      cols[10],
		AddrCity:        cols[11],
		Operator:        cols[12],
		Capacity:        cols[13],
		Voltage:         cols[14],
		Lat:             lat,
		Lon:             lon,
		CitySource:      cols[17],
	}, nil
}

// formatCoord renders a float with the minimal digits that parse back
// to the identical value.
func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
