package gormsql

import (
	"testing"
	"time"

	loanDomain "smart-loan-recovery/internal/domain/loan"
	userDomain "smart-loan-recovery/internal/domain/user"
	"smart-loan-recovery/pkg/id"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB creates an in-memory sqlite DB on a single connection (every
// new connection to :memory: would see an empty database) and migrates it.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

var baseTime = time.Date(2025, 3, 1, 10, 30, 0, 123456000, time.UTC)

func makeUser(name string, role userDomain.Role) *userDomain.User {
	return &userDomain.User{ID: id.New(), Name: name, Role: role, CreatedAt: baseTime}
}

func makeLoan(t *testing.T, borrowerID, lenderID string) *loanDomain.Loan {
	t.Helper()
	l, err := loanDomain.New(id.New(), borrowerID, lenderID, 10_000, 5.5, 12, baseTime)
	if err != nil {
		t.Fatalf("new loan: %v", err)
	}
	return l
}
