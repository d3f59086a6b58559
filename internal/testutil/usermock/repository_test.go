package usermock

import (
	"context"
	"errors"
	"testing"

	domain "smart-loan-recovery/internal/domain/user"
)

func TestFixed(t *testing.T) {
	ctx := context.Background()
	m := Fixed(
		domain.User{ID: "u1", Name: "alice", Role: domain.RoleLender},
		domain.User{ID: "u2", Name: "bob", Role: domain.RoleBorrower},
	)

	u, err := m.GetByID(ctx, "u2")
	if err != nil || u.Name != "bob" {
		t.Fatalf("GetByID: got (%v, %v)", u, err)
	}
	u, err = m.GetByName(ctx, "alice")
	if err != nil || u.ID != "u1" {
		t.Fatalf("GetByName: got (%v, %v)", u, err)
	}
	if _, err := m.GetByID(ctx, "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetByID missing: want ErrNotFound, got %v", err)
	}
	all, _ := m.List(ctx)
	if len(all) != 2 {
		t.Fatalf("List: want 2, got %d", len(all))
	}
	// returned copies must not alias the fixture
	all[0].Name = "mallory"
	again, _ := m.GetByName(ctx, "alice")
	if again == nil {
		t.Fatal("fixture mutated through List result")
	}
}

func TestRepo_Defaults(t *testing.T) {
	ctx := context.Background()
	m := &Repo{}
	if err := m.Create(ctx, &domain.User{}); err != nil {
		t.Fatalf("Create default: %v", err)
	}
	if _, err := m.GetByID(ctx, "x"); !errors.Is(err, context.Canceled) {
		t.Fatalf("GetByID default: want context.Canceled, got %v", err)
	}
	if _, err := m.List(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("List default: want context.Canceled, got %v", err)
	}
}
