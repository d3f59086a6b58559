package http

import (
	"log/slog"
	"time"

	"smart-loan-recovery/internal/adapter/middleware"
	"smart-loan-recovery/internal/usecase/loan"
	"smart-loan-recovery/internal/usecase/recovery"
	"smart-loan-recovery/internal/usecase/snapshot"
	"smart-loan-recovery/internal/usecase/user"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
)

type Deps struct {
	Users    *user.Usecase
	Loans    *loan.Usecase
	Recovery *recovery.Usecase
	Snapshot *snapshot.Usecase
	Sessions *middleware.Sessions

	// Redis is optional; nil disables idempotent replay.
	Redis          *redis.Client
	IdempotencyTTL time.Duration
	Log            *slog.Logger
}

// NewRouter builds the echo instance with access logging, panic recovery and every route.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.Use(echomw.Logger(), echomw.Recover())
	Register(e, d)
	return e
}

func Register(e *echo.Echo, d Deps) {
	e.Use(d.Sessions.Load())
	// Idempotent replay is attached per route; the auth routes must always set or clear the cookie.
	idem := middleware.IdempotencyMiddleware(d.Redis, d.IdempotencyTTL, d.Log)

	h := NewHandler()
	uh := NewUserHandler(d.Users, d.Sessions)
	lh := NewLoanHandler(d.Loans)
	rh := NewRecoveryHandler(d.Recovery)
	sh := NewSnapshotHandler(d.Snapshot)

	e.GET("/", h.Index)
	e.GET("/health", h.Health)

	e.POST("/users", uh.Register, idem)
	e.GET("/users", uh.List, middleware.RequireUser)

	e.POST("/auth/login", uh.Login)
	e.POST("/auth/logout", uh.Logout)
	e.GET("/auth/me", uh.Me, middleware.RequireUser)

	e.GET("/loans", lh.ListLoans, middleware.RequireUser)
	e.POST("/loans", lh.CreateLoan, middleware.RequireLender, idem)
	e.GET("/loans/:loan_id", lh.GetLoan, middleware.RequireUser)
	e.POST("/loans/:loan_id/repayments", lh.RecordRepayment, middleware.RequireUser, idem)
	e.POST("/overdues", lh.FlagOverdues, middleware.RequireLender, idem)

	e.POST("/recommend/:loan_id", rh.Recommend, middleware.RequireUser, idem)

	e.GET("/export", sh.Export, middleware.RequireLender)
}
