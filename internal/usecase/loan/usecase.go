package loan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"smart-loan-recovery/internal/domain/loan"
	"smart-loan-recovery/internal/domain/uow"
	"smart-loan-recovery/internal/domain/user"
	"smart-loan-recovery/pkg/id"
)

// ErrForbidden is returned when the acting user may not perform the operation.
var ErrForbidden = errors.New("not permitted for this user")

// ErrUnauthenticated is returned when the session names a user the store no longer has.
var ErrUnauthenticated = errors.New("session user not found")

type Usecase struct {
	repo         loan.Repository
	users        user.Repository
	uow          uow.UnitOfWork
	events       EventPublisher
	log          *slog.Logger
	defaultAfter int
	now          func() time.Time
}

// NewUsecase wires the loan flows. defaultAfter is the missed-installment count at
// which the sweep moves an overdue loan to defaulted.
func NewUsecase(loans loan.Repository, users user.Repository, tx uow.UnitOfWork, pub EventPublisher, defaultAfter int, log *slog.Logger) *Usecase {
	if log == nil {
		log = slog.Default()
	}
	if defaultAfter < 1 {
		defaultAfter = 3
	}
	return &Usecase{
		repo:         loans,
		users:        users,
		uow:          tx,
		events:       pub,
		log:          log,
		defaultAfter: defaultAfter,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source; tests only.
func (u *Usecase) WithClock(now func() time.Time) *Usecase {
	u.now = now
	return u
}

// clock truncates to microseconds so values survive a MySQL DATETIME(6) round trip.
func (u *Usecase) clock() time.Time { return u.now().UTC().Truncate(time.Microsecond) }

// Create disburses a new loan from the acting lender to an existing borrower.
func (u *Usecase) Create(ctx context.Context, actorID string, in CreateLoanInput) (*loan.Loan, error) {
	actor, err := u.users.GetByID(ctx, actorID)
	if errors.Is(err, user.ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	if !actor.IsLender() {
		return nil, fmt.Errorf("%w: only lenders can create loans", ErrForbidden)
	}
	lenderID := actor.ID
	if in.LenderID != "" {
		lid, err := id.Parse(in.LenderID)
		if err != nil {
			return nil, fmt.Errorf("%w: lender_id is not a uuid", loan.ErrInvalidInput)
		}
		if lid != actor.ID {
			return nil, fmt.Errorf("%w: lender_id must be the logged-in user", ErrForbidden)
		}
	}
	borrowerID, err := id.Parse(in.BorrowerID)
	if err != nil {
		return nil, fmt.Errorf("%w: borrower_id is not a uuid", loan.ErrInvalidInput)
	}

	var created *loan.Loan
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		b, err := r.Users.GetByID(ctx, borrowerID)
		if err != nil {
			return err
		}
		if b.Role != user.RoleBorrower {
			return fmt.Errorf("%w: %s is not a borrower", loan.ErrInvalidInput, b.ID)
		}
		l, err := loan.New(id.New(), b.ID, lenderID, in.Principal, in.InterestRate, in.Months, u.clock())
		if err != nil {
			return err
		}
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		created = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.publish(ctx, event(created, "", loan.EventCreated, created.CreatedAt))
	return created, nil
}

func (u *Usecase) Get(ctx context.Context, loanID string) (*loan.Loan, error) {
	lid, err := id.Parse(loanID)
	if err != nil {
		return nil, loan.ErrNotFound
	}
	return u.repo.GetByID(ctx, lid)
}

func (u *Usecase) List(ctx context.Context, f loan.Filter) ([]loan.Loan, error) {
	return u.repo.List(ctx, f)
}

// RecordRepayment settles the next unpaid installment. Only the loan's borrower or
// lender may do so.
func (u *Usecase) RecordRepayment(ctx context.Context, actorID, loanID string) (*loan.Loan, error) {
	lid, err := id.Parse(loanID)
	if err != nil {
		return nil, loan.ErrNotFound
	}

	var (
		updated *loan.Loan
		from    loan.Status
	)
	err = u.uow.WithinLoanTx(ctx, lid, func(r uow.Repos, l *loan.Loan) error {
		if actorID != l.BorrowerID && actorID != l.LenderID {
			return fmt.Errorf("%w: not a party to loan %s", ErrForbidden, l.ID)
		}
		from = l.Status
		if _, err := l.RecordRepayment(u.clock()); err != nil {
			return err
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		updated = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.publish(ctx, event(updated, from, loan.EventRepayment, *updated.LastRepaymentAt))
	if updated.Status != from {
		u.publish(ctx, event(updated, from, loan.EventKind(updated.Status), updated.UpdatedAt))
	}
	return updated, nil
}

// FlagOverdues runs one sweep over active and overdue loans inside a single
// transaction. Each loan advances at most one status step.
func (u *Usecase) FlagOverdues(ctx context.Context) (SweepResult, error) {
	var (
		res     SweepResult
		changed []loan.Event
	)
	now := u.clock()
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		loans, err := r.Loans.ListByStatus(ctx, loan.StatusActive, loan.StatusOverdue)
		if err != nil {
			return err
		}
		for i := range loans {
			l := &loans[i]
			from, ok := l.Sweep(now, u.defaultAfter)
			if !ok {
				continue
			}
			if err := r.Loans.Save(ctx, l); err != nil {
				return err
			}
			switch l.Status {
			case loan.StatusOverdue:
				res.Flagged++
			case loan.StatusDefaulted:
				res.Defaulted++
			}
			changed = append(changed, event(l, from, loan.EventKind(l.Status), now))
		}
		return nil
	})
	if err != nil {
		return SweepResult{}, err
	}

	for _, ev := range changed {
		u.publish(ctx, ev)
	}
	return res, nil
}

// Sweep adapts FlagOverdues to the scheduler's callback shape.
func (u *Usecase) Sweep(ctx context.Context) (flagged, defaulted int, err error) {
	res, err := u.FlagOverdues(ctx)
	return res.Flagged, res.Defaulted, err
}

// publish never fails the caller; the state change is already committed.
func (u *Usecase) publish(ctx context.Context, ev loan.Event) {
	if u.events == nil {
		return
	}
	if err := u.events.PublishLoanEvent(ctx, ev); err != nil {
		u.log.Warn("loan event not published", "kind", ev.Kind, "loan_id", ev.LoanID, "err", err)
	}
}

func event(l *loan.Loan, from loan.Status, kind string, at time.Time) loan.Event {
	return loan.Event{
		LoanID:     l.ID,
		BorrowerID: l.BorrowerID,
		LenderID:   l.LenderID,
		From:       from,
		To:         l.Status,
		Kind:       kind,
		At:         at,
	}
}
