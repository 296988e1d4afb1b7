package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"fd-advisor/domain"
	"fd-advisor/repository"
)

var errCacheDown = errors.New("cache down")

type failingCache struct{}

func (failingCache) Get(context.Context, string) (string, bool, error) {
	return "", false, errCacheDown
}

func (failingCache) Set(context.Context, string, string, time.Duration) error {
	return errCacheDown
}

func waitForTicket(t *testing.T, tracker *AdvisoryTracker, id string) domain.AdvisoryTicket {
	t.Helper()
	var ticket domain.AdvisoryTicket
	require.Eventually(t, func() bool {
		var err error
		ticket, err = tracker.Get(context.Background(), id)
		return err == nil && ticket.Status != domain.AdvisoryPending
	}, 2*time.Second, 5*time.Millisecond)
	return ticket
}

func depositFixture(rate float64) (domain.DepositInput, domain.DepositResult) {
	input := domain.DepositInput{
		Principal:            100000,
		AnnualRatePercent:    rate,
		TenureYears:          5,
		CompoundingFrequency: domain.Annual,
	}
	return input, ComputeMaturity(input.Principal, input.AnnualRatePercent, input.TenureYears, input.CompoundingFrequency)
}

func TestAdvisoryTracker_ResolvesReady(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("GenerateAdvisory", mock.Anything, mock.Anything).Return("Unusually high rate.", nil)
	tracker := NewAdvisoryTracker(newTestAdvisoryService(gen), repository.NewMemoryCache(), time.Minute, zerolog.Nop())

	input, result := depositFixture(20)
	id, err := tracker.Start(context.Background(), input, result)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	ticket := waitForTicket(t, tracker, id)
	assert.Equal(t, domain.AdvisoryReady, ticket.Status)
	require.NotNil(t, ticket.Message)
	assert.Equal(t, "Unusually high rate.", *ticket.Message)
}

func TestAdvisoryTracker_ResolvesNone(t *testing.T) {
	gen := new(MockGenerator)
	tracker := NewAdvisoryTracker(newTestAdvisoryService(gen), repository.NewMemoryCache(), time.Minute, zerolog.Nop())

	input, result := depositFixture(6.5)
	id, err := tracker.Start(context.Background(), input, result)
	require.NoError(t, err)

	ticket := waitForTicket(t, tracker, id)
	assert.Equal(t, domain.AdvisoryNone, ticket.Status)
	assert.Nil(t, ticket.Message)
	gen.AssertNotCalled(t, "GenerateAdvisory", mock.Anything, mock.Anything)
}

func TestAdvisoryTracker_SurvivesRequestCancellation(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("GenerateAdvisory", mock.Anything, mock.Anything).
		After(20*time.Millisecond).Return("Still delivered.", nil)
	tracker := NewAdvisoryTracker(newTestAdvisoryService(gen), repository.NewMemoryCache(), time.Minute, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	input, result := depositFixture(20)
	id, err := tracker.Start(ctx, input, result)
	require.NoError(t, err)
	cancel()

	ticket := waitForTicket(t, tracker, id)
	assert.Equal(t, domain.AdvisoryReady, ticket.Status)
}

func TestAdvisoryTracker_UnknownTicket(t *testing.T) {
	tracker := NewAdvisoryTracker(newTestAdvisoryService(nil), repository.NewMemoryCache(), time.Minute, zerolog.Nop())

	_, err := tracker.Get(context.Background(), "does-not-exist")

	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestAdvisoryTracker_CacheFailure(t *testing.T) {
	tracker := NewAdvisoryTracker(newTestAdvisoryService(nil), failingCache{}, time.Minute, zerolog.Nop())

	input, result := depositFixture(6.5)
	_, err := tracker.Start(context.Background(), input, result)

	assert.Error(t, err)
}

func TestAdvisoryTracker_CorruptTicket(t *testing.T) {
	cache := repository.NewMemoryCache()
	require.NoError(t, cache.Set(context.Background(), ticketKeyPrefix+"bad", "{", time.Minute))
	tracker := NewAdvisoryTracker(newTestAdvisoryService(nil), cache, time.Minute, zerolog.Nop())

	_, err := tracker.Get(context.Background(), "bad")

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrTicketNotFound)
}

func TestAdvisoryTracker_CacheReadFailureIsNotAMiss(t *testing.T) {
	tracker := NewAdvisoryTracker(newTestAdvisoryService(nil), failingCache{}, time.Minute, zerolog.Nop())

	_, err := tracker.Get(context.Background(), "some-id")

	assert.ErrorIs(t, err, errCacheDown)
	assert.NotErrorIs(t, err, ErrTicketNotFound)
}
