package model

import "math"

// RoundMoney rounds half away from zero to cents.
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
