package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/atuch/dojang/core/instructor"
)

type instructorApi struct {
	svc *instructor.Service
}

func registerInstructorAPI(g *echo.Group, admin echo.MiddlewareFunc, s *Server) {
	api := instructorApi{svc: s.svcs.Instructor}

	g.GET("/grados", api.grados)
	g.GET("", api.query)
	g.POST("", api.create, admin)
	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update, admin)
	g.DELETE("/:id", api.destroy, admin)
}

func (api *instructorApi) grados(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, instructor.Grados)
}

func (api *instructorApi) query(ctx echo.Context) error {
	var filter instructor.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []instructor.Instructor{})
	}

	ins, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying instructores")
	}
	if ins == nil {
		ins = []instructor.Instructor{}
	}
	return ctx.JSON(http.StatusOK, ins)
}

func (api *instructorApi) create(ctx echo.Context) error {
	var data instructor.NewInstructor
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewInstructor")
	}

	in, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating instructor")
	}
	return ctx.JSON(http.StatusCreated, in)
}

func (api *instructorApi) retrieve(ctx echo.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return err
	}
	in, err := api.svc.Get(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding instructor")
	}
	return ctx.JSON(http.StatusOK, in)
}

func (api *instructorApi) update(ctx echo.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return err
	}
	var data instructor.UpdateInstructor
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateInstructor")
	}

	in, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating instructor")
	}
	return ctx.JSON(http.StatusOK, in)
}

func (api *instructorApi) destroy(ctx echo.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting instructor")
	}
	return ctx.NoContent(http.StatusNoContent)
}
