package http

import (
	"net/http"

	"smart-loan-recovery/internal/usecase/snapshot"

	"github.com/labstack/echo/v4"
)

type SnapshotHandler struct{ uc *snapshot.Usecase }

func NewSnapshotHandler(uc *snapshot.Usecase) *SnapshotHandler { return &SnapshotHandler{uc: uc} }

func (h *SnapshotHandler) Export(c echo.Context) error {
	s, err := h.uc.Export(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}
