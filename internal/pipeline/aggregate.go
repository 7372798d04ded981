package pipeline

import "github.com/texgrid/infrascan/internal/model"

// Aggregate concatenates the per-region record sets in region order
// and removes records whose exact (lat, lon) pair was already seen,
// keeping the first occurrence. Equality is exact float equality;
// centroids differing by any amount are distinct assets. Returns the
// dataset and the number of duplicates removed.
func Aggregate(sets [][]model.CleanedRecord) (model.Dataset, int) {
	type coordKey struct{ lat, lon float64 }

	var total int
	for _, set := range sets {
		total += len(set)
	}

	seen := make(map[coordKey]struct{}, total)
	dataset := make(model.Dataset, 0, total)
	for _, set := range sets {
		for _, rec := range set {
			key := coordKey{lat: rec.Lat, lon: rec.Lon}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			dataset = append(dataset, rec)
		}
	}

	return dataset, total - len(dataset)
}
