package http

import (
	"errors"
	"net/http"

	"smart-loan-recovery/internal/adapter/middleware"
	domain "smart-loan-recovery/internal/domain/user"
	"smart-loan-recovery/internal/usecase/user"

	"github.com/labstack/echo/v4"
)

type UserHandler struct {
	uc       *user.Usecase
	sessions *middleware.Sessions
}

func NewUserHandler(uc *user.Usecase, sessions *middleware.Sessions) *UserHandler {
	return &UserHandler{uc: uc, sessions: sessions}
}

type registerReq struct {
	Name string `json:"name" validate:"notblank,max=100"`
	Role string `json:"role" validate:"required,role"`
}

type loginReq struct {
	Name string `json:"name" validate:"notblank,max=100"`
}

func (h *UserHandler) Register(c echo.Context) error {
	var req registerReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	u, err := h.uc.Register(c.Request().Context(), user.RegisterInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, user.RegisterDTO{ID: u.ID})
}

func (h *UserHandler) List(c echo.Context) error {
	users, err := h.uc.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

// Login looks the user up by name and sets the session cookie.
func (h *UserHandler) Login(c echo.Context) error {
	var req loginReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	u, err := h.uc.Login(c.Request().Context(), req.Name)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.sessions.Issue(c, u); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"message": "logged in",
		"user_id": u.ID,
		"role":    u.Role,
	})
}

func (h *UserHandler) Logout(c echo.Context) error {
	if err := h.sessions.Clear(c); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "logged out"})
}

// Me returns the session user; a session whose user no longer exists is 401.
func (h *UserHandler) Me(c echo.Context) error {
	u, err := h.uc.Get(c.Request().Context(), middleware.UserID(c))
	if errors.Is(err, domain.ErrNotFound) {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "login required"})
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}
