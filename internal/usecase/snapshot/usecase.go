// Package snapshot exports and imports the whole store as JSON.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"smart-loan-recovery/internal/domain/loan"
	"smart-loan-recovery/internal/domain/uow"
	"smart-loan-recovery/internal/domain/user"
	"smart-loan-recovery/pkg/id"
)

const (
	UsersFile = "users.json"
	LoansFile = "loans.json"
)

var (
	// ErrInvalidRecord marks a snapshot record the store could not read back.
	ErrInvalidRecord = errors.New("invalid snapshot record")
	ErrNoSnapshot    = errors.New("no snapshot files found")
)

type Snapshot struct {
	ExportedAt time.Time   `json:"exported_at"`
	Users      []user.User `json:"users"`
	Loans      []loan.Loan `json:"loans"`
}

type ImportResult struct {
	Users int `json:"users"`
	Loans int `json:"loans"`
}

type Usecase struct {
	users user.Repository
	loans loan.Repository
	uow   uow.UnitOfWork
	now   func() time.Time
}

func NewUsecase(users user.Repository, loans loan.Repository, tx uow.UnitOfWork) *Usecase {
	return &Usecase{users: users, loans: loans, uow: tx, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock replaces the time source; tests only.
func (u *Usecase) WithClock(now func() time.Time) *Usecase {
	u.now = now
	return u
}

func (u *Usecase) Export(ctx context.Context) (*Snapshot, error) {
	users, err := u.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("export users: %w", err)
	}
	loans, err := u.loans.List(ctx, loan.Filter{})
	if err != nil {
		return nil, fmt.Errorf("export loans: %w", err)
	}
	if users == nil {
		users = []user.User{}
	}
	if loans == nil {
		loans = []loan.Loan{}
	}
	return &Snapshot{ExportedAt: u.now(), Users: users, Loans: loans}, nil
}

// Import upserts every user, then every loan, in one transaction. A loan whose
// parties are missing from both the snapshot and the store aborts the import.
func (u *Usecase) Import(ctx context.Context, s *Snapshot) (ImportResult, error) {
	if s == nil {
		return ImportResult{}, errors.New("empty snapshot")
	}
	if err := s.validate(); err != nil {
		return ImportResult{}, err
	}
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		for i := range s.Users {
			if err := r.Users.Upsert(ctx, &s.Users[i]); err != nil {
				return fmt.Errorf("import user %s: %w", s.Users[i].ID, err)
			}
		}
		for i := range s.Loans {
			l := &s.Loans[i]
			for _, party := range []string{l.BorrowerID, l.LenderID} {
				if _, err := r.Users.GetByID(ctx, party); err != nil {
					return fmt.Errorf("import loan %s: party %s: %w", l.ID, party, err)
				}
			}
			if err := r.Loans.Upsert(ctx, l); err != nil {
				return fmt.Errorf("import loan %s: %w", l.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}
	return ImportResult{Users: len(s.Users), Loans: len(s.Loans)}, nil
}

// validate rejects the whole snapshot if any record would not survive a read
// back from the store. User names and roles are normalized in place.
func (s *Snapshot) validate() error {
	for i := range s.Users {
		u := &s.Users[i]
		if !id.Valid(u.ID) {
			return fmt.Errorf("%w: user id %q", ErrInvalidRecord, u.ID)
		}
		name, err := user.NormalizeName(u.Name)
		if err != nil {
			return fmt.Errorf("%w: user %s: %v", ErrInvalidRecord, u.ID, err)
		}
		role, err := user.ParseRole(string(u.Role))
		if err != nil {
			return fmt.Errorf("%w: user %s: %v", ErrInvalidRecord, u.ID, err)
		}
		u.Name, u.Role = name, role
	}
	for i := range s.Loans {
		l := &s.Loans[i]
		for _, v := range []string{l.ID, l.BorrowerID, l.LenderID} {
			if !id.Valid(v) {
				return fmt.Errorf("%w: loan %q: bad id %q", ErrInvalidRecord, l.ID, v)
			}
		}
		st, err := loan.ParseStatus(string(l.Status))
		if err != nil {
			return fmt.Errorf("%w: loan %s: status %q", ErrInvalidRecord, l.ID, l.Status)
		}
		l.Status = st
		if len(l.Schedule) == 0 {
			return fmt.Errorf("%w: loan %s: empty repayment schedule", ErrInvalidRecord, l.ID)
		}
		if l.Principal <= 0 || l.BorrowerID == l.LenderID {
			return fmt.Errorf("%w: loan %s: %v", ErrInvalidRecord, l.ID, loan.ErrInvalidInput)
		}
	}
	return nil
}

// WriteDir writes users.json and loans.json into dir, creating it if needed.
func WriteDir(dir string, s *Snapshot) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, UsersFile), s.Users); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, LoansFile), s.Loans)
}

// ReadDir loads a snapshot written by WriteDir. One missing file reads as
// empty; if both are missing the directory is not a snapshot.
func ReadDir(dir string) (*Snapshot, error) {
	s := &Snapshot{Users: []user.User{}, Loans: []loan.Loan{}}
	foundUsers, err := readJSON(filepath.Join(dir, UsersFile), &s.Users)
	if err != nil {
		return nil, err
	}
	foundLoans, err := readJSON(filepath.Join(dir, LoansFile), &s.Loans)
	if err != nil {
		return nil, err
	}
	if !foundUsers && !foundLoans {
		return nil, fmt.Errorf("%w in %s", ErrNoSnapshot, dir)
	}
	return s, nil
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	// rename so readers never see a partial file
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(b, '\n'), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func readJSON(path string, v any) (bool, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return true, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return true, nil
}
