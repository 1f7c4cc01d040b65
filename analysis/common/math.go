package common

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Basic statistical functions shared across the analysis packages, built on
// gonum for robustness. All functions guard degenerate inputs.

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the population standard deviation.
// Population (divide by N) rather than sample, so a single observation
// yields 0 instead of an undefined value.
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0.0
	}
	return stat.PopStdDev(data, nil)
}

// Median calculates the median, averaging the two middle values for
// even-length input.
func Median(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2.0
	}
	return sorted[mid]
}

// Correlation calculates the Pearson correlation coefficient between two
// series. Returns NaN when the correlation is undefined (length mismatch,
// empty input, or a constant series); callers decide whether to skip or
// substitute. Defined results are clamped to [-1, 1].
func Correlation(x, y []float64) float64 {
	if len(x) != len(y) || len(x) == 0 {
		return math.NaN()
	}

	corr := stat.Correlation(x, y, nil)
	if math.IsNaN(corr) {
		return corr
	}
	return ClampCorrelation(corr)
}

// CorrelationOrZero is Correlation with undefined results replaced by 0.0.
func CorrelationOrZero(x, y []float64) float64 {
	corr := Correlation(x, y)
	if math.IsNaN(corr) {
		return 0.0
	}
	return corr
}

// ClampCorrelation ensures a correlation is in the valid range [-1, 1]
func ClampCorrelation(corr float64) float64 {
	if corr > 1.0 {
		return 1.0
	} else if corr < -1.0 {
		return -1.0
	}
	return corr
}

// Dot calculates the dot product of two equal-length vectors
func Dot(x, y []float64) float64 {
	if len(x) != len(y) || len(x) == 0 {
		return 0.0
	}
	return floats.Dot(x, y)
}

// Norm calculates the Euclidean norm of a vector
func Norm(x []float64) float64 {
	if len(x) == 0 {
		return 0.0
	}
	return floats.Norm(x, 2)
}

// Sum calculates the sum of a slice
func Sum(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return floats.Sum(data)
}

// ArgsortAscending returns the indices of data ordered by ascending value.
// Ties keep their original index order so results are deterministic.
func ArgsortAscending(data []float64) []int {
	indices := make([]int, len(data))
	for i := range indices {
		indices[i] = i
	}

	sort.SliceStable(indices, func(a, b int) bool {
		return data[indices[a]] < data[indices[b]]
	})

	return indices
}
