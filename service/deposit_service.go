package service

import (
	"errors"
	"math"

	"github.com/rs/zerolog"

	"fd-advisor/domain"
)

var ErrNonFiniteResult = errors.New("maturity amount is not a finite number")

// ComputeMaturity grows principal by compound interest:
// principal × (1 + r/n)^(n×t). Inputs are not validated and no rounding is applied.
func ComputeMaturity(
	principal float64,
	annualRatePercent float64,
	tenureYears float64,
	frequency domain.CompoundingFrequency,
) domain.DepositResult {
	r := annualRatePercent / 100
	n := float64(frequency)

	maturity := principal * math.Pow(1+r/n, n*tenureYears)

	return domain.DepositResult{
		Principal:      principal,
		MaturityAmount: maturity,
		TotalInterest:  maturity - principal,
	}
}

type DepositService struct {
	log zerolog.Logger
}

// NewDepositService creates a new DepositService.
func NewDepositService(log zerolog.Logger) *DepositService {
	return &DepositService{
		log: log.With().Str("service", "deposit").Logger(),
	}
}

// Calculate computes the deposit result for an already validated input.
func (s *DepositService) Calculate(input domain.DepositInput) (domain.DepositResult, error) {
	result := ComputeMaturity(
		input.Principal,
		input.AnnualRatePercent,
		input.TenureYears,
		input.CompoundingFrequency,
	)

	if math.IsNaN(result.MaturityAmount) || math.IsInf(result.MaturityAmount, 0) {
		s.log.Error().
			Float64("principal", input.Principal).
			Float64("rate", input.AnnualRatePercent).
			Float64("tenure", input.TenureYears).
			Int("frequency", int(input.CompoundingFrequency)).
			Msg("Non-finite maturity amount")
		return domain.DepositResult{}, ErrNonFiniteResult
	}

	s.log.Debug().
		Float64("maturity", result.MaturityAmount).
		Float64("interest", result.TotalInterest).
		Msg("Deposit calculated")

	return result, nil
}
