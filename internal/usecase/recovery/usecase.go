package recovery

import (
	"context"
	"time"

	"smart-loan-recovery/internal/domain/loan"
	"smart-loan-recovery/internal/domain/recovery"
	"smart-loan-recovery/pkg/id"
)

type RecommendationDTO struct {
	LoanID            string          `json:"loan_id"`
	RiskScore         float64         `json:"risk_score"`
	MissedPayments    int             `json:"missed_payments"`
	RecommendedAction recovery.Action `json:"recommended_action"`
}

type Usecase struct {
	loans loan.Repository
	now   func() time.Time
}

func NewUsecase(loans loan.Repository) *Usecase {
	return &Usecase{loans: loans, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock replaces the time source; tests only.
func (u *Usecase) WithClock(now func() time.Time) *Usecase {
	u.now = now
	return u
}

// Recommend is read-only: it scores the loan as stored and never changes its status.
func (u *Usecase) Recommend(ctx context.Context, loanID string) (*RecommendationDTO, error) {
	lid, err := id.Parse(loanID)
	if err != nil {
		return nil, loan.ErrNotFound
	}
	l, err := u.loans.GetByID(ctx, lid)
	if err != nil {
		return nil, err
	}
	score := recovery.RiskScore(l.Status)
	missed := l.MissedPayments(u.now())
	return &RecommendationDTO{
		LoanID:            l.ID,
		RiskScore:         score,
		MissedPayments:    missed,
		RecommendedAction: recovery.Recommend(score, missed),
	}, nil
}
