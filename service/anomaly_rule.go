package service

import "math"

// AnomalyRule decides whether an input deserves an advisory.
type AnomalyRule struct {
	RateDeviationThreshold float64
	MaturityTolerance      float64
}

func DefaultAnomalyRule() AnomalyRule {
	return AnomalyRule{
		RateDeviationThreshold: DefaultRateDeviationThreshold,
		MaturityTolerance:      DefaultMaturityTolerance,
	}
}

type Assessment struct {
	ReferenceRate     float64
	RateDeviation     float64 // |rate - reference|, in percentage points
	SimpleEstimate    float64
	MaturityDeviation float64 // |maturity - simple| / simple
	RateOutlier       bool
	MaturityOutlier   bool
}

// Fires reports whether either sub-rule triggered.
func (a Assessment) Fires() bool {
	return a.RateOutlier || a.MaturityOutlier
}

// SimpleEstimate is principal × (1 + rate/100 × tenure).
func SimpleEstimate(principal, annualRatePercent, tenureYears float64) float64 {
	return principal * (1 + annualRatePercent/100*tenureYears)
}

// Evaluate applies both thresholds strictly: a deviation equal to the
// threshold does not fire.
func (r AnomalyRule) Evaluate(
	principal float64,
	annualRatePercent float64,
	tenureYears float64,
	maturityAmount float64,
	referenceRate float64,
) Assessment {
	a := Assessment{
		ReferenceRate:  referenceRate,
		RateDeviation:  math.Abs(annualRatePercent - referenceRate),
		SimpleEstimate: SimpleEstimate(principal, annualRatePercent, tenureYears),
	}
	a.RateOutlier = a.RateDeviation > r.RateDeviationThreshold

	if a.SimpleEstimate != 0 {
		a.MaturityDeviation = math.Abs(maturityAmount-a.SimpleEstimate) / math.Abs(a.SimpleEstimate)
	} else if maturityAmount != 0 {
		a.MaturityDeviation = math.Inf(1)
	}
	a.MaturityOutlier = a.MaturityDeviation > r.MaturityTolerance

	return a
}
