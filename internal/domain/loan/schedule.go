package loan

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// InstallmentInterval approximates a month.
	InstallmentInterval = 30 * 24 * time.Hour
	MaxMonths           = 360
)

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// TotalRepayable applies simple annual interest over the loan term, rounded to cents.
func TotalRepayable(principal, ratePct float64, months int) decimal.Decimal {
	p := decimal.NewFromFloat(principal)
	interest := decimal.NewFromFloat(ratePct).Div(hundred).
		Mul(decimal.NewFromInt(int64(months))).Div(twelve)
	return p.Mul(decimal.NewFromInt(1).Add(interest)).Round(2)
}

// BuildSchedule splits the repayable total into equal installments due every
// InstallmentInterval after from. The last installment absorbs the rounding remainder.
func BuildSchedule(principal, ratePct float64, months int, from time.Time) ([]Installment, error) {
	if principal <= 0 || ratePct < 0 || ratePct > 100 || months < 1 || months > MaxMonths {
		return nil, fmt.Errorf("%w: principal=%v rate=%v months=%d", ErrInvalidInput, principal, ratePct, months)
	}
	total := TotalRepayable(principal, ratePct, months)
	n := decimal.NewFromInt(int64(months))
	each := total.Div(n).Truncate(2)
	last := total.Sub(each.Mul(decimal.NewFromInt(int64(months - 1))))

	out := make([]Installment, months)
	for i := range out {
		amt := each
		if i == months-1 {
			amt = last
		}
		out[i] = Installment{
			Number:  i + 1,
			DueDate: from.Add(time.Duration(i+1) * InstallmentInterval),
			Amount:  amt,
		}
	}
	return out, nil
}

// New builds an active loan disbursed at now.
func New(id, borrowerID, lenderID string, principal, ratePct float64, months int, now time.Time) (*Loan, error) {
	if borrowerID == "" || lenderID == "" || borrowerID == lenderID {
		return nil, fmt.Errorf("%w: borrower and lender must be distinct users", ErrInvalidInput)
	}
	sched, err := BuildSchedule(principal, ratePct, months, now)
	if err != nil {
		return nil, err
	}
	return &Loan{
		ID:           id,
		BorrowerID:   borrowerID,
		LenderID:     lenderID,
		Principal:    principal,
		InterestRate: ratePct,
		DisbursedAt:  now,
		StartDate:    now,
		Schedule:     sched,
		Status:       StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// MissedPayments counts unpaid installments due strictly before now.
func (l *Loan) MissedPayments(now time.Time) int {
	n := 0
	for _, in := range l.Schedule {
		if !in.Paid() && in.DueDate.Before(now) {
			n++
		}
	}
	return n
}

// NextUnpaid returns the index of the earliest unpaid installment, or -1.
func (l *Loan) NextUnpaid() int {
	for i, in := range l.Schedule {
		if !in.Paid() {
			return i
		}
	}
	return -1
}

// Outstanding sums the unpaid installment amounts.
func (l *Loan) Outstanding() decimal.Decimal {
	sum := decimal.Zero
	for _, in := range l.Schedule {
		if !in.Paid() {
			sum = sum.Add(in.Amount)
		}
	}
	return sum
}

func (l *Loan) transition(to Status, now time.Time) error {
	if !CanTransition(l.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, l.Status, to)
	}
	l.Status = to
	l.UpdatedAt = now
	return nil
}

// RecordRepayment settles the earliest unpaid installment. Settling the last one
// repays the loan; an overdue loan with installments left stays overdue.
func (l *Loan) RecordRepayment(now time.Time) (*Installment, error) {
	if l.Status.Terminal() {
		return nil, fmt.Errorf("%w: loan is %s", ErrInvalidTransition, l.Status)
	}
	idx := l.NextUnpaid()
	if idx < 0 {
		return nil, fmt.Errorf("%w: nothing left to repay", ErrInvalidTransition)
	}
	paid := now
	l.Schedule[idx].PaidAt = &paid
	l.LastRepaymentAt = &paid
	l.UpdatedAt = now
	if l.NextUnpaid() < 0 {
		if err := l.transition(StatusRepaid, now); err != nil {
			return nil, err
		}
	}
	return &l.Schedule[idx], nil
}

// Sweep advances the loan at most one step: active with a missed installment
// becomes overdue; overdue with at least defaultAfter missed becomes defaulted.
func (l *Loan) Sweep(now time.Time, defaultAfter int) (from Status, changed bool) {
	from = l.Status
	missed := l.MissedPayments(now)
	switch {
	case l.Status == StatusActive && missed > 0:
		changed = l.transition(StatusOverdue, now) == nil
	case l.Status == StatusOverdue && missed >= defaultAfter:
		changed = l.transition(StatusDefaulted, now) == nil
	}
	return from, changed
}
