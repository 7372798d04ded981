package pipeline

import "github.com/texgrid/infrascan/internal/model"

// categoryKeys are the designated infrastructure tags. A record
// survives cleaning only if at least one of these carries a value.
var categoryKeys = []string{"power", "amenity", "man_made", "telecom", "aeroway"}

// Clean stamps every record with its source region, drops records
// without any recognized infrastructure tag and projects the
// survivors onto the fixed output schema. Absent tags become empty
// fields, never missing columns, so records from any region or
// temporal mode are union-compatible. A nil return signals no data.
func Clean(records []model.NormalizedRecord, region string) []model.CleanedRecord {
	if len(records) == 0 {
		return nil
	}

	cleaned := make([]model.CleanedRecord, 0, len(records))
	for _, rec := range records {
		rec.SourceRegion = region
		if !hasCategoryTag(rec.Tags) {
			continue
		}
		cleaned = append(cleaned, project(rec))
	}

	if len(cleaned) == 0 {
		return nil
	}
	return cleaned
}

func hasCategoryTag(tags map[string]string) bool {
	for _, key := range categoryKeys {
		if tags[key] != "" {
			return true
		}
	}
	return false
}

func project(rec model.NormalizedRecord) model.CleanedRecord {
	return model.CleanedRecord{
		ElementType:     rec.Kind,
		OSMID:           rec.ID,
		Name:            rec.Tags["name"],
		Power:           rec.Tags["power"],
		Amenity:         rec.Tags["amenity"],
		ManMade:         rec.Tags["man_made"],
		Telecom:         rec.Tags["telecom"],
		Aeroway:         rec.Tags["aeroway"],
		GeneratorSource: rec.Tags["generator:source"],
		AddrFull:        rec.Tags["addr:full"],
		AddrStreet:      rec.Tags["addr:street"],
		AddrCity:        rec.Tags["addr:city"],
		Operator:        rec.Tags["operator"],
		Capacity:        rec.Tags["capacity"],
		Voltage:         rec.Tags["voltage"],
		Lat:             rec.Coordinate.Lat,
		Lon:             rec.Coordinate.Lon,
		CitySource:      rec.SourceRegion,
	}
}
