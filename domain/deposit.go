package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidInput is wrapped by every validation failure at the input boundary.
var ErrInvalidInput = errors.New("invalid input")

const (
	MinAnnualRatePercent = 0.1
	MaxAnnualRatePercent = 100.0
	MinTenureYears       = 0.1
)

// CompoundingFrequency is the number of compounding periods per year.
type CompoundingFrequency int

const (
	Annual     CompoundingFrequency = 1
	SemiAnnual CompoundingFrequency = 2
	Quarterly  CompoundingFrequency = 4
	Monthly    CompoundingFrequency = 12
)

func (f CompoundingFrequency) String() string {
	switch f {
	case Annual:
		return "annual"
	case SemiAnnual:
		return "semi-annual"
	case Quarterly:
		return "quarterly"
	case Monthly:
		return "monthly"
	}
	return fmt.Sprintf("CompoundingFrequency(%d)", int(f))
}

// Valid reports whether f is one of the supported schedules.
func (f CompoundingFrequency) Valid() bool {
	switch f {
	case Annual, SemiAnnual, Quarterly, Monthly:
		return true
	}
	return false
}

// ParseCompoundingFrequency accepts a label ("monthly", "semi-annual", ...) or
// the period count itself ("12").
func ParseCompoundingFrequency(s string) (CompoundingFrequency, error) {
	label := strings.ToLower(strings.TrimSpace(s))
	switch label {
	case "annual", "annually", "yearly":
		return Annual, nil
	case "semi-annual", "semi_annual", "semiannual", "half-yearly":
		return SemiAnnual, nil
	case "quarterly":
		return Quarterly, nil
	case "monthly":
		return Monthly, nil
	}

	n, err := strconv.Atoi(label)
	if err == nil && CompoundingFrequency(n).Valid() {
		return CompoundingFrequency(n), nil
	}
	return 0, fmt.Errorf("%w: unknown compounding frequency %q", ErrInvalidInput, s)
}

// DepositInput is a fixed-deposit request as received from the presentation layer.
type DepositInput struct {
	Principal            float64
	AnnualRatePercent    float64
	TenureYears          float64
	CompoundingFrequency CompoundingFrequency
}

// Validate applies the boundary rules. The calculator itself never calls it.
func (in DepositInput) Validate() error {
	if !isFinite(in.Principal) || in.Principal <= 0 {
		return fmt.Errorf("%w: principal must be greater than 0", ErrInvalidInput)
	}
	if !isFinite(in.AnnualRatePercent) ||
		in.AnnualRatePercent < MinAnnualRatePercent ||
		in.AnnualRatePercent > MaxAnnualRatePercent {
		return fmt.Errorf("%w: annual rate must be between %.1f%% and %.0f%%",
			ErrInvalidInput, MinAnnualRatePercent, MaxAnnualRatePercent)
	}
	if !isFinite(in.TenureYears) || in.TenureYears < MinTenureYears {
		return fmt.Errorf("%w: tenure must be at least %.1f years", ErrInvalidInput, MinTenureYears)
	}
	if !in.CompoundingFrequency.Valid() {
		return fmt.Errorf("%w: unsupported compounding frequency %d",
			ErrInvalidInput, int(in.CompoundingFrequency))
	}
	return nil
}

// DepositResult is the outcome of one maturity calculation.
type DepositResult struct {
	Principal      float64
	MaturityAmount float64
	TotalInterest  float64
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// MarshalJSON writes the label form, e.g. "monthly".
func (f CompoundingFrequency) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

// UnmarshalJSON accepts either a label or the period count.
func (f *CompoundingFrequency) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		var n int
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("%w: compounding frequency must be a label or an integer", ErrInvalidInput)
		}
		raw = strconv.Itoa(n)
	}

	parsed, err := ParseCompoundingFrequency(raw)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
