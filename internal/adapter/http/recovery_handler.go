package http

import (
	"net/http"

	"smart-loan-recovery/internal/usecase/recovery"

	"github.com/labstack/echo/v4"
)

type RecoveryHandler struct{ uc *recovery.Usecase }

func NewRecoveryHandler(uc *recovery.Usecase) *RecoveryHandler { return &RecoveryHandler{uc: uc} }

func (h *RecoveryHandler) Recommend(c echo.Context) error {
	dto, err := h.uc.Recommend(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
