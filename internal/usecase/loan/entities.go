package loan

import (
	"context"

	"smart-loan-recovery/internal/domain/loan"
)

type CreateLoanInput struct {
	BorrowerID   string  `json:"borrower_id"`
	LenderID     string  `json:"lender_id,omitempty"`
	Principal    float64 `json:"principal"`
	InterestRate float64 `json:"interest_rate"`
	Months       int     `json:"months"`
}

type CreateLoanDTO struct {
	ID string `json:"id"`
}

type SweepResult struct {
	Flagged   int `json:"flagged_count"`
	Defaulted int `json:"defaulted_count"`
}

// EventPublisher is the outbound port for loan events.
type EventPublisher interface {
	PublishLoanEvent(ctx context.Context, ev loan.Event) error
}
