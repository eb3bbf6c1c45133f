package utils

import "math"

// Clamp は v を [lo, hi] に収める。
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Mean は単純平均を返す。空なら0。
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// WeightedMean は重みの合計が0なら fallback を返す。
func WeightedMean(values, weights []float64, fallback float64) float64 {
	var sum, total float64
	for i, v := range values {
		sum += v * weights[i]
		total += weights[i]
	}
	if total == 0 {
		return fallback
	}
	return sum / total
}
