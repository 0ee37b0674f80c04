package surgery

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ehr/portal/internal/platform/apperr"
	"github.com/ehr/portal/internal/platform/auth"
	"github.com/ehr/portal/internal/platform/validation"
	"github.com/ehr/portal/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(_ *echo.Group, protected *echo.Group) {
	g := protected.Group("/surgeries", auth.RequireRole(auth.RolePatient))
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.GET("/:id/procedures", h.ListProcedures)
	g.POST("/:id/procedures", h.AddProcedure)
	g.DELETE("/:id/procedures/:procedureId", h.RemoveProcedure)
}

func (h *Handler) Create(c echo.Context) error {
	owner, err := currentAccount(c)
	if err != nil {
		return err
	}
	var in RecordInput
	if err := validation.BindAndValidate(c, &in); err != nil {
		return err
	}
	r, err := h.svc.Create(c.Request().Context(), owner, in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, NewRecordView(r, nil))
}

func (h *Handler) Get(c echo.Context) error {
	owner, id, err := ownerAndID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	r, err := h.svc.Get(ctx, owner, id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	procs, err := h.svc.ListProcedures(ctx, owner, id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, NewRecordView(r, procs))
}

func (h *Handler) List(c echo.Context) error {
	owner, err := currentAccount(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), owner, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	views := make([]*RecordView, 0, len(items))
	for _, r := range items {
		views = append(views, NewRecordView(r, nil))
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(views, total, pg).WithLinks(c.Request().URL))
}

func (h *Handler) Update(c echo.Context) error {
	owner, id, err := ownerAndID(c)
	if err != nil {
		return err
	}
	var in RecordInput
	if err := validation.BindAndValidate(c, &in); err != nil {
		return err
	}
	r, err := h.svc.Update(c.Request().Context(), owner, id, in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, NewRecordView(r, nil))
}

func (h *Handler) Delete(c echo.Context) error {
	owner, id, err := ownerAndID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), owner, id); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Procedures --

func (h *Handler) AddProcedure(c echo.Context) error {
	owner, id, err := ownerAndID(c)
	if err != nil {
		return err
	}
	var in ProcedureInput
	if err := validation.BindAndValidate(c, &in); err != nil {
		return err
	}
	p, err := h.svc.AddProcedure(c.Request().Context(), owner, id, in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) ListProcedures(c echo.Context) error {
	owner, id, err := ownerAndID(c)
	if err != nil {
		return err
	}
	procs, err := h.svc.ListProcedures(c.Request().Context(), owner, id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	if procs == nil {
		procs = []*SurgeryProcedure{}
	}
	return c.JSON(http.StatusOK, procs)
}

func (h *Handler) RemoveProcedure(c echo.Context) error {
	owner, id, err := ownerAndID(c)
	if err != nil {
		return err
	}
	procID, err := uuid.Parse(c.Param("procedureId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid procedure id")
	}
	if err := h.svc.RemoveProcedure(c.Request().Context(), owner, id, procID); err != nil {
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

func ownerAndID(c echo.Context) (owner, id uuid.UUID, err error) {
	owner, err = currentAccount(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	id, err = uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return owner, id, nil
}
