package loan

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("loan not found")
	ErrInvalidTransition = errors.New("invalid loan status transition")
	ErrInvalidInput      = errors.New("invalid loan input")
)

type Status string

const (
	StatusActive    Status = "active"
	StatusOverdue   Status = "overdue"
	StatusDefaulted Status = "defaulted"
	StatusRepaid    Status = "repaid"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusActive, StatusOverdue, StatusDefaulted, StatusRepaid:
		return st, nil
	}
	return "", ErrInvalidInput
}

// Terminal statuses accept no further transitions.
func (s Status) Terminal() bool { return s == StatusDefaulted || s == StatusRepaid }

// allowed holds every legal edge; status never moves backwards.
var allowed = map[Status][]Status{
	StatusActive:  {StatusOverdue, StatusRepaid},
	StatusOverdue: {StatusDefaulted, StatusRepaid},
}

func CanTransition(from, to Status) bool {
	for _, s := range allowed[from] {
		if s == to {
			return true
		}
	}
	return false
}

type Installment struct {
	Number  int             `json:"number"`
	DueDate time.Time       `json:"due_date"`
	Amount  decimal.Decimal `json:"amount"`
	PaidAt  *time.Time      `json:"paid_at,omitempty"`
}

func (i Installment) Paid() bool { return i.PaidAt != nil }

type Loan struct {
	ID              string        `json:"id"`
	BorrowerID      string        `json:"borrower_id"`
	LenderID        string        `json:"lender_id"`
	Principal       float64       `json:"principal"`
	InterestRate    float64       `json:"interest_rate"` // annual, percent
	DisbursedAt     time.Time     `json:"disbursement_date"`
	StartDate       time.Time     `json:"start_date"`
	Schedule        []Installment `json:"repayment_schedule"`
	LastRepaymentAt *time.Time    `json:"last_repayment_date"`
	Status          Status        `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// Filter narrows List; zero fields match everything.
type Filter struct {
	Status     Status
	BorrowerID string
	LenderID   string
}

// Event is emitted for every status change and repayment.
type Event struct {
	LoanID     string    `json:"loan_id"`
	BorrowerID string    `json:"borrower_id"`
	LenderID   string    `json:"lender_id"`
	From       Status    `json:"from,omitempty"`
	To         Status    `json:"to"`
	Kind       string    `json:"kind"`
	At         time.Time `json:"at"`
}

const (
	EventCreated   = "loan.created"
	EventRepayment = "loan.repayment"
	EventOverdue   = "loan.overdue"
	EventDefaulted = "loan.defaulted"
	EventRepaid    = "loan.repaid"
)

// EventKind maps a destination status to its routing key.
func EventKind(to Status) string {
	switch to {
	case StatusOverdue:
		return EventOverdue
	case StatusDefaulted:
		return EventDefaulted
	case StatusRepaid:
		return EventRepaid
	}
	return EventCreated
}
