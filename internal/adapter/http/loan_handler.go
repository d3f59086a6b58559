package http

import (
	"net/http"
	"strings"

	"smart-loan-recovery/internal/adapter/middleware"
	domain "smart-loan-recovery/internal/domain/loan"
	"smart-loan-recovery/internal/usecase/loan"
	"smart-loan-recovery/pkg/id"

	"github.com/labstack/echo/v4"
)

type LoanHandler struct{ uc *loan.Usecase }

func NewLoanHandler(uc *loan.Usecase) *LoanHandler { return &LoanHandler{uc: uc} }

type createLoanReq struct {
	BorrowerID   string  `json:"borrower_id" validate:"required,uuid"`
	LenderID     string  `json:"lender_id" validate:"omitempty,uuid"`
	Principal    float64 `json:"principal" validate:"gt=0,dec2"`
	InterestRate float64 `json:"interest_rate" validate:"gte=0,lte=100"`
	Months       int     `json:"months" validate:"gte=1,lte=360"`
}

func (h *LoanHandler) CreateLoan(c echo.Context) error {
	var req createLoanReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	l, err := h.uc.Create(c.Request().Context(), middleware.UserID(c), loan.CreateLoanInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, loan.CreateLoanDTO{ID: l.ID})
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	l, err := h.uc.Get(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

// ListLoans accepts optional status, borrower_id and lender_id filters.
func (h *LoanHandler) ListLoans(c echo.Context) error {
	var f domain.Filter
	if s := strings.TrimSpace(c.QueryParam("status")); s != "" {
		st, err := domain.ParseStatus(s)
		if err != nil {
			return badRequest(c, "status must be one of active, overdue, defaulted, repaid")
		}
		f.Status = st
	}
	for param, dst := range map[string]*string{"borrower_id": &f.BorrowerID, "lender_id": &f.LenderID} {
		v := strings.TrimSpace(c.QueryParam(param))
		if v == "" {
			continue
		}
		canon, err := id.Parse(v)
		if err != nil {
			return badRequest(c, param+" must be a UUID")
		}
		*dst = canon
	}
	loans, err := h.uc.List(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	if loans == nil {
		loans = []domain.Loan{}
	}
	return c.JSON(http.StatusOK, loans)
}

func (h *LoanHandler) RecordRepayment(c echo.Context) error {
	l, err := h.uc.RecordRepayment(c.Request().Context(), middleware.UserID(c), c.Param("loan_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *LoanHandler) FlagOverdues(c echo.Context) error {
	res, err := h.uc.FlagOverdues(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
