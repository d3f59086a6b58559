package http

import (
	"errors"
	"log/slog"
	"net/http"

	"smart-loan-recovery/internal/domain/loan"
	"smart-loan-recovery/internal/domain/user"
	loanuc "smart-loan-recovery/internal/usecase/loan"

	"github.com/labstack/echo/v4"
)

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_input", Message: msg})
}

func validationFailed(c echo.Context, err error) error {
	return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:   "validation_failed",
		Message: "request validation failed",
		Details: ToFieldErrors(err),
	})
}

// bindAndValidate decodes the JSON body into req and runs the struct rules.
// On failure the response is already written and ok is false.
func bindAndValidate(c echo.Context, req any) (ok bool, err error) {
	if err := c.Bind(req); err != nil {
		return false, badRequest(c, "malformed JSON body")
	}
	if err := c.Validate(req); err != nil {
		return false, validationFailed(c, err)
	}
	return true, nil
}

// Map domain errors → HTTP codes
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, loanuc.ErrUnauthenticated):
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "login required"})
	case errors.Is(err, user.ErrNotFound), errors.Is(err, loan.ErrNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: err.Error()})
	case errors.Is(err, loanuc.ErrForbidden):
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: "forbidden", Message: err.Error()})
	case errors.Is(err, user.ErrDuplicateName):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: "conflict", Message: err.Error()})
	case errors.Is(err, loan.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: "invalid_transition", Message: err.Error()})
	case errors.Is(err, user.ErrInvalidName), errors.Is(err, user.ErrInvalidRole), errors.Is(err, loan.ErrInvalidInput):
		return badRequest(c, err.Error())
	}
	slog.Error("request failed", "method", c.Request().Method, "path", c.Path(), "err", err)
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal", Message: "internal error"})
}
