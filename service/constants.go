package service

import "time"

const (
	DefaultRateDeviationThreshold = 2.0  // percentage points away from the reference rate
	DefaultMaturityTolerance      = 0.05 // relative gap between compound and simple-interest figures
	DefaultAdvisoryTimeout        = 10 * time.Second
	DefaultAdvisoryTTL            = 15 * time.Minute

	// Reference-rate buckets by tenure in years.
	ShortTenureYears  = 1.0
	MediumTenureYears = 3.0
	ShortTermRate     = 5.0
	MediumTermRate    = 6.0
	LongTermRate      = 7.0

	maxToolRounds     = 2
	advisoryMaxTokens = 200
)
