package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fd-advisor/domain"
	"fd-advisor/repository"
)

var ErrTicketNotFound = errors.New("advisory ticket not found")

const ticketKeyPrefix = "advisory:"

// AdvisoryTracker lets callers show the numeric result immediately and
// collect the advisory later by ticket id.
type AdvisoryTracker struct {
	advisor *AdvisoryService
	cache   repository.CacheRepository
	ttl     time.Duration
	log     zerolog.Logger
}

func NewAdvisoryTracker(
	advisor *AdvisoryService,
	cache repository.CacheRepository,
	ttl time.Duration,
	log zerolog.Logger,
) *AdvisoryTracker {
	if ttl <= 0 {
		ttl = DefaultAdvisoryTTL
	}
	return &AdvisoryTracker{
		advisor: advisor,
		cache:   cache,
		ttl:     ttl,
		log:     log.With().Str("service", "advisory_tracker").Logger(),
	}
}

// Start records a pending ticket and resolves it in the background. The
// background work does not inherit cancellation from ctx.
func (t *AdvisoryTracker) Start(
	ctx context.Context,
	input domain.DepositInput,
	result domain.DepositResult,
) (string, error) {
	id := uuid.NewString()
	if err := t.save(ctx, domain.AdvisoryTicket{ID: id, Status: domain.AdvisoryPending}); err != nil {
		return "", fmt.Errorf("failed to store advisory ticket: %w", err)
	}

	bg := context.WithoutCancel(ctx)
	done := t.advisor.AdviseAsync(bg,
		input.Principal, input.AnnualRatePercent, input.TenureYears, result.MaturityAmount)

	go func() {
		ticket := domain.AdvisoryTicket{ID: id, Status: domain.AdvisoryNone}
		if advisory := <-done; advisory != nil {
			message := advisory.Message
			ticket.Status = domain.AdvisoryReady
			ticket.Message = &message
		}
		if err := t.save(bg, ticket); err != nil {
			t.log.Warn().Err(err).Str("ticket", id).Msg("Failed to store resolved advisory")
		}
	}()

	return id, nil
}

// Get returns the current state of a ticket.
func (t *AdvisoryTracker) Get(ctx context.Context, id string) (domain.AdvisoryTicket, error) {
	raw, ok, err := t.cache.Get(ctx, ticketKeyPrefix+id)
	if err != nil {
		return domain.AdvisoryTicket{}, fmt.Errorf("failed to read advisory ticket %s: %w", id, err)
	}
	if !ok {
		return domain.AdvisoryTicket{}, ErrTicketNotFound
	}

	var ticket domain.AdvisoryTicket
	if err := json.Unmarshal([]byte(raw), &ticket); err != nil {
		return domain.AdvisoryTicket{}, fmt.Errorf("corrupt advisory ticket %s: %w", id, err)
	}
	return ticket, nil
}

func (t *AdvisoryTracker) save(ctx context.Context, ticket domain.AdvisoryTicket) error {
	data, err := json.Marshal(ticket)
	if err != nil {
		return err
	}
	return t.cache.Set(ctx, ticketKeyPrefix+ticket.ID, string(data), t.ttl)
}
