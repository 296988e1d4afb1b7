package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"fd-advisor/domain"
)

// AdvisoryGenerator turns an anomalous deposit into a short caution sentence.
// An empty string means the generator found nothing worth saying.
type AdvisoryGenerator interface {
	GenerateAdvisory(ctx context.Context, req domain.AdvisoryRequest) (string, error)
}

type AdvisoryService struct {
	lookup    ReferenceRateFunc
	rule      AnomalyRule
	generator AdvisoryGenerator
	timeout   time.Duration
	log       zerolog.Logger
}

// NewAdvisoryService creates an AdvisoryService. A zero timeout falls back
// to DefaultAdvisoryTimeout.
func NewAdvisoryService(
	lookup ReferenceRateFunc,
	rule AnomalyRule,
	generator AdvisoryGenerator,
	timeout time.Duration,
	log zerolog.Logger,
) *AdvisoryService {
	if lookup == nil {
		lookup = ReferenceRate
	}
	if timeout <= 0 {
		timeout = DefaultAdvisoryTimeout
	}
	return &AdvisoryService{
		lookup:    lookup,
		rule:      rule,
		generator: generator,
		timeout:   timeout,
		log:       log.With().Str("service", "advisory").Logger(),
	}
}

// Assess runs the deterministic part of the flow without calling the generator.
func (s *AdvisoryService) Assess(
	principal float64,
	annualRatePercent float64,
	tenureYears float64,
	maturityAmount float64,
) Assessment {
	refRate := s.lookup(tenureYears)
	return s.rule.Evaluate(principal, annualRatePercent, tenureYears, maturityAmount, refRate)
}

// Advise returns a caution for anomalous inputs, or nil. Generator failures
// are logged and reported as nil.
func (s *AdvisoryService) Advise(
	ctx context.Context,
	principal float64,
	annualRatePercent float64,
	tenureYears float64,
	maturityAmount float64,
) *domain.Advisory {
	assessment := s.Assess(principal, annualRatePercent, tenureYears, maturityAmount)
	if !assessment.Fires() {
		return nil
	}

	s.log.Debug().
		Float64("rate", annualRatePercent).
		Float64("reference_rate", assessment.ReferenceRate).
		Float64("maturity_deviation", assessment.MaturityDeviation).
		Bool("rate_outlier", assessment.RateOutlier).
		Bool("maturity_outlier", assessment.MaturityOutlier).
		Msg("Anomaly rule fired")

	if s.generator == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	message, err := s.generator.GenerateAdvisory(ctx, domain.AdvisoryRequest{
		Principal:         principal,
		AnnualRatePercent: annualRatePercent,
		TenureYears:       tenureYears,
		MaturityAmount:    maturityAmount,
		ReferenceRate:     assessment.ReferenceRate,
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("Advisory generation failed")
		return nil
	}

	message = strings.TrimSpace(message)
	if message == "" {
		s.log.Debug().Msg("Generator returned no advisory")
		return nil
	}

	return &domain.Advisory{Message: message}
}

// AdviseAsync runs Advise in a goroutine. The channel receives exactly one
// value and is then closed; callers that lose interest may drop it.
func (s *AdvisoryService) AdviseAsync(
	ctx context.Context,
	principal float64,
	annualRatePercent float64,
	tenureYears float64,
	maturityAmount float64,
) <-chan *domain.Advisory {
	out := make(chan *domain.Advisory, 1)
	go func() {
		defer close(out)
		out <- s.Advise(ctx, principal, annualRatePercent, tenureYears, maturityAmount)
	}()
	return out
}
