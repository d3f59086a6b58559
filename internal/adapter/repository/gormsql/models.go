package gormsql

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	loanDomain "smart-loan-recovery/internal/domain/loan"
	userDomain "smart-loan-recovery/internal/domain/user"
	"smart-loan-recovery/pkg/id"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrMalformedRecord is returned when a stored row cannot be decoded into a domain value.
var ErrMalformedRecord = errors.New("malformed record")

func malformed(table, column, id string, cause error) error {
	if cause != nil {
		return fmt.Errorf("%w: %s.%s (id=%s): %v", ErrMalformedRecord, table, column, id, cause)
	}
	return fmt.Errorf("%w: %s.%s (id=%s)", ErrMalformedRecord, table, column, id)
}

type userRow struct {
	ID        string    `gorm:"column:id;primaryKey;size:36"`
	Name      string    `gorm:"column:name;size:100;not null;uniqueIndex:ux_users_name"`
	Role      string    `gorm:"column:role;size:16;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime:false"`
}

func (userRow) TableName() string { return "users" }

func userToRow(u *userDomain.User) userRow {
	return userRow{ID: u.ID, Name: u.Name, Role: string(u.Role), CreatedAt: u.CreatedAt.UTC()}
}

func (r userRow) toDomain() (*userDomain.User, error) {
	if !id.Valid(r.ID) {
		return nil, malformed("users", "id", r.ID, nil)
	}
	role, err := userDomain.ParseRole(r.Role)
	if err != nil {
		return nil, malformed("users", "role", r.ID, err)
	}
	return &userDomain.User{ID: r.ID, Name: r.Name, Role: role, CreatedAt: r.CreatedAt.UTC()}, nil
}

type loanRow struct {
	ID                string     `gorm:"column:id;primaryKey;size:36"`
	BorrowerID        string     `gorm:"column:borrower_id;size:36;not null;index:idx_loans_borrower"`
	LenderID          string     `gorm:"column:lender_id;size:36;not null;index:idx_loans_lender"`
	Principal         float64    `gorm:"column:principal;not null"`
	InterestRate      float64    `gorm:"column:interest_rate;not null"`
	DisbursedAt       time.Time  `gorm:"column:disbursement_date;not null"`
	StartDate         time.Time  `gorm:"column:start_date;not null"`
	LastRepaymentAt   *time.Time `gorm:"column:last_repayment_date"`
	Status            string     `gorm:"column:status;size:16;not null;index:idx_loans_status"`
	RepaymentSchedule string     `gorm:"column:repayment_schedule;type:text;not null"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime:false"`
}

func (loanRow) TableName() string { return "loans" }

// installmentRow pins the stored JSON layout independently of the domain type.
type installmentRow struct {
	Number  int        `json:"n"`
	DueDate time.Time  `json:"due"`
	Amount  string     `json:"amount"`
	PaidAt  *time.Time `json:"paid_at,omitempty"`
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func loanToRow(l *loanDomain.Loan) (loanRow, error) {
	sched := make([]installmentRow, len(l.Schedule))
	for i, in := range l.Schedule {
		sched[i] = installmentRow{
			Number:  in.Number,
			DueDate: in.DueDate.UTC(),
			Amount:  in.Amount.String(),
			PaidAt:  utcPtr(in.PaidAt),
		}
	}
	raw, err := json.Marshal(sched)
	if err != nil {
		return loanRow{}, err
	}
	return loanRow{
		ID:                l.ID,
		BorrowerID:        l.BorrowerID,
		LenderID:          l.LenderID,
		Principal:         l.Principal,
		InterestRate:      l.InterestRate,
		DisbursedAt:       l.DisbursedAt.UTC(),
		StartDate:         l.StartDate.UTC(),
		LastRepaymentAt:   utcPtr(l.LastRepaymentAt),
		Status:            string(l.Status),
		RepaymentSchedule: string(raw),
		CreatedAt:         l.CreatedAt.UTC(),
		UpdatedAt:         l.UpdatedAt.UTC(),
	}, nil
}

func (r loanRow) toDomain() (*loanDomain.Loan, error) {
	for col, v := range map[string]string{"id": r.ID, "borrower_id": r.BorrowerID, "lender_id": r.LenderID} {
		if !id.Valid(v) {
			return nil, malformed("loans", col, r.ID, nil)
		}
	}
	status, err := loanDomain.ParseStatus(r.Status)
	if err != nil {
		return nil, malformed("loans", "status", r.ID, err)
	}
	var rows []installmentRow
	if err := json.Unmarshal([]byte(r.RepaymentSchedule), &rows); err != nil {
		return nil, malformed("loans", "repayment_schedule", r.ID, err)
	}
	sched := make([]loanDomain.Installment, len(rows))
	for i, in := range rows {
		amt, err := decimal.NewFromString(in.Amount)
		if err != nil {
			return nil, malformed("loans", "repayment_schedule", r.ID, err)
		}
		sched[i] = loanDomain.Installment{
			Number:  in.Number,
			DueDate: in.DueDate.UTC(),
			Amount:  amt,
			PaidAt:  utcPtr(in.PaidAt),
		}
	}
	return &loanDomain.Loan{
		ID:              r.ID,
		BorrowerID:      r.BorrowerID,
		LenderID:        r.LenderID,
		Principal:       r.Principal,
		InterestRate:    r.InterestRate,
		DisbursedAt:     r.DisbursedAt.UTC(),
		StartDate:       r.StartDate.UTC(),
		Schedule:        sched,
		LastRepaymentAt: utcPtr(r.LastRepaymentAt),
		Status:          status,
		CreatedAt:       r.CreatedAt.UTC(),
		UpdatedAt:       r.UpdatedAt.UTC(),
	}, nil
}

// AutoMigrate creates the tables and indexes if they do not exist.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&userRow{}, &loanRow{})
}
