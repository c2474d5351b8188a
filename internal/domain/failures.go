package domain

import "math"

// CountFailures aggregates raw fetch failure records into a count per
// producer. Duplicate timestamps are counted separately; counts saturate at
// the uint16 maximum.
func CountFailures(failures []FetchFailure) map[WxApp]uint16 {
	counts := make(map[WxApp]uint16)
	for _, f := range failures {
		if counts[f.App] < math.MaxUint16 {
			counts[f.App]++
		}
	}
	return counts
}
