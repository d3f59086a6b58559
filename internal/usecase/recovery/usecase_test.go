package recovery

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "smart-loan-recovery/internal/domain/loan"
	"smart-loan-recovery/internal/domain/recovery"
	"smart-loan-recovery/internal/testutil/loanmock"
	"smart-loan-recovery/pkg/id"
)

var t0 = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

func repoWith(l *domain.Loan) *loanmock.Repo {
	return &loanmock.Repo{
		GetByIDFn: func(_ context.Context, lid string) (*domain.Loan, error) {
			if lid != l.ID {
				return nil, domain.ErrNotFound
			}
			return l, nil
		},
	}
}

func TestRecommend(t *testing.T) {
	cases := []struct {
		name       string
		status     domain.Status
		daysLater  int
		wantScore  float64
		wantMissed int
		wantAction recovery.Action
	}{
		{"active, nothing due", domain.StatusActive, 10, recovery.LowRisk, 0, recovery.ActionReminder},
		{"active, one missed", domain.StatusActive, 35, recovery.LowRisk, 1, recovery.ActionRenegotiate},
		{"active, three missed", domain.StatusActive, 100, recovery.LowRisk, 3, recovery.ActionEscalate},
		{"overdue", domain.StatusOverdue, 35, recovery.HighRisk, 1, recovery.ActionEscalate},
		{"defaulted", domain.StatusDefaulted, 200, recovery.HighRisk, 6, recovery.ActionEscalate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l, err := domain.New(id.New(), id.New(), id.New(), 600, 12, 6, t0)
			if err != nil {
				t.Fatal(err)
			}
			l.Status = tc.status
			now := t0.Add(time.Duration(tc.daysLater) * 24 * time.Hour)
			uc := NewUsecase(repoWith(l)).WithClock(func() time.Time { return now })

			got, err := uc.Recommend(context.Background(), l.ID)
			if err != nil {
				t.Fatalf("Recommend: %v", err)
			}
			if got.LoanID != l.ID || got.RiskScore != tc.wantScore || got.MissedPayments != tc.wantMissed || got.RecommendedAction != tc.wantAction {
				t.Fatalf("got %+v", got)
			}
			if l.Status != tc.status {
				t.Fatal("Recommend must not change the loan")
			}
		})
	}
}

func TestRecommend_NotFound(t *testing.T) {
	uc := NewUsecase(repoWith(&domain.Loan{ID: id.New()}))
	if _, err := uc.Recommend(context.Background(), id.New()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if _, err := uc.Recommend(context.Background(), "garbage"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("malformed id: want ErrNotFound, got %v", err)
	}
}
