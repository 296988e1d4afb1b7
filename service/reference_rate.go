package service

// ReferenceRateFunc returns the benchmark annual rate, in percent, for a tenure.
type ReferenceRateFunc func(tenureYears float64) float64

// ReferenceRate is the static tenure-bucketed benchmark.
func ReferenceRate(tenureYears float64) float64 {
	switch {
	case tenureYears <= ShortTenureYears:
		return ShortTermRate
	case tenureYears <= MediumTenureYears:
		return MediumTermRate
	default:
		return LongTermRate
	}
}
