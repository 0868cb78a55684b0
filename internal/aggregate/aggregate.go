package aggregate

import "sort"

// Summary holds the representative prices of one quote sample.
// Both fields are nil when the sample was empty.
type Summary struct {
	Median *float64
	Mean   *float64
}

// Summarize reduces a price sample to its median and arithmetic mean.
// The input slice is never reordered; the median is taken on a sorted copy.
// No outlier rejection is applied.
func Summarize(prices []float64) Summary {
	if len(prices) == 0 {
		return Summary{}
	}

	sorted := make([]float64, len(prices))
	copy(sorted, prices)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	var med float64
	if len(sorted)%2 == 1 {
		med = sorted[mid]
	} else {
		med = (sorted[mid-1] + sorted[mid]) / 2
	}

	var sum float64
	for _, p := range prices {
		sum += p
	}
	mean := sum / float64(len(prices))

	return Summary{Median: &med, Mean: &mean}
}
