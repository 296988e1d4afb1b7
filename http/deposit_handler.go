package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"fd-advisor/domain"
	"fd-advisor/service"
)

const maxRequestBodyBytes = 64 << 10

type DepositHandler struct {
	deposits *service.DepositService
	tracker  *service.AdvisoryTracker
	lookup   service.ReferenceRateFunc
	log      zerolog.Logger
}

func NewDepositHandler(
	deposits *service.DepositService,
	tracker *service.AdvisoryTracker,
	lookup service.ReferenceRateFunc,
	log zerolog.Logger,
) *DepositHandler {
	if lookup == nil {
		lookup = service.ReferenceRate
	}
	return &DepositHandler{
		deposits: deposits,
		tracker:  tracker,
		lookup:   lookup,
		log:      log.With().Str("handler", "deposit").Logger(),
	}
}

type calculateRequest struct {
	Principal            float64                     `json:"principal"`
	AnnualRatePercent    float64                     `json:"annual_rate_percent"`
	TenureYears          float64                     `json:"tenure_years"`
	CompoundingFrequency domain.CompoundingFrequency `json:"compounding_frequency"`
}

type calculateResponse struct {
	Principal            decimal.Decimal             `json:"principal"`
	MaturityAmount       decimal.Decimal             `json:"maturity_amount"`
	TotalInterest        decimal.Decimal             `json:"total_interest"`
	CompoundingFrequency domain.CompoundingFrequency `json:"compounding_frequency"`
	ReferenceRate        float64                     `json:"reference_rate"`
	AdvisoryID           string                      `json:"advisory_id,omitempty"`
}

type referenceRateResponse struct {
	TenureYears   float64 `json:"tenure_years"`
	ReferenceRate float64 `json:"reference_rate"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// CalculateDeposit returns the maturity figures right away and a ticket for
// the advisory, which resolves in the background.
func (h *DepositHandler) CalculateDeposit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)

	var req calculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := domain.DepositInput{
		Principal:            req.Principal,
		AnnualRatePercent:    req.AnnualRatePercent,
		TenureYears:          req.TenureYears,
		CompoundingFrequency: req.CompoundingFrequency,
	}
	if err := input.Validate(); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.deposits.Calculate(input)
	if err != nil {
		h.log.Error().Err(err).Msg("Deposit calculation failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := newCalculateResponse(input, result, h.lookup(input.TenureYears))

	// The numeric result is returned even if the advisory cannot be tracked.
	id, err := h.tracker.Start(r.Context(), input, result)
	if err != nil {
		h.log.Warn().Err(err).Msg("Advisory tracking unavailable")
	} else {
		resp.AdvisoryID = id
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// GetAdvisory reports the state of an advisory ticket.
func (h *DepositHandler) GetAdvisory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ticket, err := h.tracker.Get(r.Context(), id)
	if errors.Is(err, service.ErrTicketNotFound) {
		h.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("ticket", id).Msg("Failed to read advisory ticket")
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, ticket)
}

// GetReferenceRate exposes the benchmark rate for a tenure.
func (h *DepositHandler) GetReferenceRate(w http.ResponseWriter, r *http.Request) {
	tenure, err := strconv.ParseFloat(r.URL.Query().Get("tenure_years"), 64)
	if err != nil || !(tenure > 0) {
		h.writeError(w, http.StatusBadRequest, "tenure_years must be a positive number")
		return
	}

	h.writeJSON(w, http.StatusOK, referenceRateResponse{
		TenureYears:   tenure,
		ReferenceRate: h.lookup(tenure),
	})
}

// newCalculateResponse rounds for display only; interest is derived from the
// rounded figures so the three values stay consistent.
func newCalculateResponse(
	input domain.DepositInput,
	result domain.DepositResult,
	referenceRate float64,
) calculateResponse {
	principal := decimal.NewFromFloat(result.Principal).Round(2)
	maturity := decimal.NewFromFloat(result.MaturityAmount).Round(2)

	return calculateResponse{
		Principal:            principal,
		MaturityAmount:       maturity,
		TotalInterest:        maturity.Sub(principal),
		CompoundingFrequency: input.CompoundingFrequency,
		ReferenceRate:        referenceRate,
	}
}

func (h *DepositHandler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, errorResponse{Error: message})
}

func (h *DepositHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	// Encode into a buffer first so a failure does not leave a half-written response
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Error encoding response")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		h.log.Warn().Err(err).Msg("Error writing response")
	}
}
