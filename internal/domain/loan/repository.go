package loan

import "context"

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	GetByID(ctx context.Context, id string) (*Loan, error)
	// GetByIDForUpdate locks the row where the dialect supports it.
	GetByIDForUpdate(ctx context.Context, id string) (*Loan, error)
	List(ctx context.Context, f Filter) ([]Loan, error)
	// ListByStatus returns loans in any of the given statuses, oldest first.
	ListByStatus(ctx context.Context, statuses ...Status) ([]Loan, error)
	Save(ctx context.Context, l *Loan) error
	// Upsert inserts or replaces by id; used by snapshot import.
	Upsert(ctx context.Context, l *Loan) error
}
