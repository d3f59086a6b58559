package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type Handler struct{}

func NewHandler() *Handler { return &Handler{} }

type endpoint struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Auth   string `json:"auth"`
}

var catalog = []endpoint{
	{http.MethodGet, "/health", "public"},
	{http.MethodPost, "/users", "public"},
	{http.MethodGet, "/users", "session"},
	{http.MethodPost, "/auth/login", "public"},
	{http.MethodPost, "/auth/logout", "public"},
	{http.MethodGet, "/auth/me", "session"},
	{http.MethodGet, "/loans", "session"},
	{http.MethodPost, "/loans", "lender"},
	{http.MethodGet, "/loans/:loan_id", "session"},
	{http.MethodPost, "/loans/:loan_id/repayments", "party"},
	{http.MethodPost, "/overdues", "lender"},
	{http.MethodPost, "/recommend/:loan_id", "session"},
	{http.MethodGet, "/export", "lender"},
}

func (h *Handler) Index(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"service":   "smart-loan-recovery",
		"message":   "loan tracking and recovery recommendations",
		"endpoints": catalog,
	})
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339Nano),
	})
}
