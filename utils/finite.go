package utils

import (
	"math"
)

// Finite は全ての値が NaN でも無限大でもないかを返す。
func Finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
