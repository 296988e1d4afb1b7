package domain

// Advisory is a best-effort caution attached to a deposit result.
// A nil *Advisory means no message; a non-nil one always has text.
type Advisory struct {
	Message string
}

// AdvisoryRequest is the context handed to the text generator.
type AdvisoryRequest struct {
	Principal         float64
	AnnualRatePercent float64
	TenureYears       float64
	MaturityAmount    float64
	ReferenceRate     float64
}

type AdvisoryStatus string

const (
	AdvisoryPending AdvisoryStatus = "pending"
	AdvisoryReady   AdvisoryStatus = "ready"
	AdvisoryNone    AdvisoryStatus = "none"
)

// AdvisoryTicket tracks an advisory that resolves after the numeric result
// has already been returned.
type AdvisoryTicket struct {
	ID      string         `json:"id"`
	Status  AdvisoryStatus `json:"status"`
	Message *string        `json:"message,omitempty"`
}
