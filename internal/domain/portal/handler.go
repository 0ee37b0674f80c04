package portal

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ehr/portal/internal/platform/apperr"
	"github.com/ehr/portal/internal/platform/auth"
	"github.com/ehr/portal/internal/platform/validation"
)

type Handler struct {
	svc   *Service
	limit []echo.MiddlewareFunc
}

// NewHandler wires the account endpoints. limiters guard register and login.
func NewHandler(svc *Service, limiters ...echo.MiddlewareFunc) *Handler {
	return &Handler{svc: svc, limit: limiters}
}

func (h *Handler) RegisterRoutes(public *echo.Group, protected *echo.Group) {
	public.POST("/portal/register", h.Register, h.limit...)
	public.POST("/portal/login", h.Login, h.limit...)

	me := protected.Group("/portal/me", auth.RequireRole(auth.RolePatient))
	me.GET("", h.GetProfile)
	me.PUT("", h.UpdateProfile)
	me.PUT("/password", h.ChangePassword)
	me.POST("/logout", h.Logout)
}

func (h *Handler) Register(c echo.Context) error {
	var in RegisterInput
	if err := validation.BindAndValidate(c, &in); err != nil {
		return err
	}
	a, err := h.svc.Register(c.Request().Context(), in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, NewProfile(a))
}

func (h *Handler) Login(c echo.Context) error {
	var in LoginInput
	if err := validation.BindAndValidate(c, &in); err != nil {
		return err
	}
	s, err := h.svc.Login(c.Request().Context(), in.Username, in.Password)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *Handler) GetProfile(c echo.Context) error {
	id, err := currentAccount(c)
	if err != nil {
		return err
	}
	p, err := h.svc.GetProfile(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	id, err := currentAccount(c)
	if err != nil {
		return err
	}
	var in ProfileUpdate
	if err := validation.BindAndValidate(c, &in); err != nil {
		return err
	}
	p, err := h.svc.UpdateProfile(c.Request().Context(), id, in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ChangePassword(c echo.Context) error {
	id, err := currentAccount(c)
	if err != nil {
		return err
	}
	var in PasswordChange
	if err := validation.BindAndValidate(c, &in); err != nil {
		return err
	}
	if err := h.svc.ChangePassword(c.Request().Context(), id, in.Current, in.New); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Logout(c echo.Context) error {
	id, err := currentAccount(c)
	if err != nil {
		return err
	}
	ref, _ := auth.TokenFromContext(c.Request().Context())
	if err := h.svc.Logout(c.Request().Context(), id, ref); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func currentAccount(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
	}
	return id, nil
}
