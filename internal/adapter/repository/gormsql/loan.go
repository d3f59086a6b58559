package gormsql

import (
	"context"
	"errors"

	loanDomain "smart-loan-recovery/internal/domain/loan"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.Loan) error {
	row, err := loanToRow(l)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *LoanRepository) Save(ctx context.Context, l *loanDomain.Loan) error {
	row, err := loanToRow(l)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Save(&row).Error
}

func (r *LoanRepository) Upsert(ctx context.Context, l *loanDomain.Loan) error {
	row, err := loanToRow(l)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}

func (r *LoanRepository) get(q *gorm.DB, id string) (*loanDomain.Loan, error) {
	var row loanRow
	err := q.Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, loanDomain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain()
}

func (r *LoanRepository) GetByID(ctx context.Context, id string) (*loanDomain.Loan, error) {
	return r.get(r.db.WithContext(ctx), id)
}

// GetByIDForUpdate takes a row lock on servers that support it. sqlite has no
// FOR UPDATE; its single writer already serializes the transaction.
func (r *LoanRepository) GetByIDForUpdate(ctx context.Context, id string) (*loanDomain.Loan, error) {
	q := r.db.WithContext(ctx)
	if r.db.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.get(q, id)
}

func (r *LoanRepository) List(ctx context.Context, f loanDomain.Filter) ([]loanDomain.Loan, error) {
	q := r.db.WithContext(ctx)
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	if f.BorrowerID != "" {
		q = q.Where("borrower_id = ?", f.BorrowerID)
	}
	if f.LenderID != "" {
		q = q.Where("lender_id = ?", f.LenderID)
	}
	return r.find(q)
}

func (r *LoanRepository) ListByStatus(ctx context.Context, statuses ...loanDomain.Status) ([]loanDomain.Loan, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	in := make([]string, len(statuses))
	for i, s := range statuses {
		in[i] = string(s)
	}
	return r.find(r.db.WithContext(ctx).Where("status IN ?", in))
}

func (r *LoanRepository) find(q *gorm.DB) ([]loanDomain.Loan, error) {
	var rows []loanRow
	if err := q.Order("disbursement_date ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]loanDomain.Loan, 0, len(rows))
	for _, row := range rows {
		l, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, nil
}
