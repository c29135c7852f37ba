package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/atuch/dojang/core/sede"
)

type sedeApi struct {
	svc *sede.Service
}

func registerSedeAPI(g *echo.Group, admin echo.MiddlewareFunc, s *Server) {
	api := sedeApi{svc: s.svcs.Sede}

	g.GET("", api.query)
	g.POST("", api.create, admin)
	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update, admin)
	g.DELETE("/:id", api.destroy, admin)
}

func (api *sedeApi) query(ctx echo.Context) error {
	sedes, err := api.svc.Query(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying sedes")
	}
	if sedes == nil {
		sedes = []sede.Sede{}
	}
	return ctx.JSON(http.StatusOK, sedes)
}

func (api *sedeApi) create(ctx echo.Context) error {
	var data sede.NewSede
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSede")
	}

	s, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating sede")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *sedeApi) retrieve(ctx echo.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return err
	}
	s, err := api.svc.Get(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding sede")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *sedeApi) update(ctx echo.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return err
	}
	var data sede.UpdateSede
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSede")
	}

	s, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating sede")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *sedeApi) destroy(ctx echo.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting sede")
	}
	return ctx.NoContent(http.StatusNoContent)
}
