package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/atuch/dojang/core"
	"github.com/atuch/dojang/core/alumno"
)

type alumnoApi struct {
	svc *alumno.Service
}

// alumnoResponse is an Alumno with its display RUT, age and exam status.
type alumnoResponse struct {
	alumno.Alumno
	RUTFormateado string `json:"rut_formateado"`
	alumno.ExamenInfo
}

func newAlumnoResponse(a alumno.Alumno, now time.Time) alumnoResponse {
	return alumnoResponse{Alumno: a, RUTFormateado: core.FormatRUT(a.RUT), ExamenInfo: alumno.Examen(a, now)}
}

func registerAlumnoAPI(g *echo.Group, s *Server) {
	api := alumnoApi{svc: s.svcs.Alumno}

	g.GET("/grados", api.grados)
	g.GET("", api.query)
	g.POST("", api.create)

	dg := g.Group("/:id", api.objectMiddleware)
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.deactivate)
	dg.POST("/activar", api.activate)
	dg.POST("/examen", api.registerExam)
}

// objectMiddleware loads the Alumno of the path, hiding the ones outside the sede of the context user.
func (api *alumnoApi) objectMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		id, err := parseID(ctx)
		if err != nil {
			return err
		}
		a, err := api.svc.Get(ctx.Request().Context(), id)
		if err != nil {
			return errors.Wrap(err, "finding alumno")
		}
		if sedeID, scoped := contextSedeScope(ctx); scoped && !(a.SedeID.Valid && a.SedeID.Int64 == sedeID) {
			return errHttpNotFound
		}
		ctx.Set("object", a)
		return next(ctx)
	}
}

func (api *alumnoApi) grados(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, alumno.Grados)
}

func (api *alumnoApi) query(ctx echo.Context) error {
	var filter alumno.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errInvalidQuery
	}
	filter.Activo = boolParam(ctx, "activo")
	if sedeID, scoped := contextSedeScope(ctx); scoped {
		filter.SedeID = sedeID
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	alumnos, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying alumnos")
	}
	now := time.Now()
	res := make([]alumnoResponse, 0, len(alumnos))
	for _, a := range alumnos {
		res = append(res, newAlumnoResponse(a, now))
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *alumnoApi) create(ctx echo.Context) error {
	var data alumno.NewAlumno
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAlumno")
	}
	if sedeID, scoped := contextSedeScope(ctx); scoped && data.SedeID != sedeID {
		return errHttpForbidden
	}

	a, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating alumno")
	}
	return ctx.JSON(http.StatusCreated, newAlumnoResponse(a, time.Now()))
}

func (api *alumnoApi) retrieve(ctx echo.Context) error {
	a := ctx.Get("object").(alumno.Alumno)
	return ctx.JSON(http.StatusOK, newAlumnoResponse(a, time.Now()))
}

func (api *alumnoApi) update(ctx echo.Context) error {
	a := ctx.Get("object").(alumno.Alumno)

	var data alumno.NewAlumno
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAlumno")
	}
	if sedeID, scoped := contextSedeScope(ctx); scoped && data.SedeID != sedeID {
		return errHttpForbidden
	}

	a, err := api.svc.Update(ctx.Request().Context(), a.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating alumno")
	}
	return ctx.JSON(http.StatusOK, newAlumnoResponse(a, time.Now()))
}

func (api *alumnoApi) deactivate(ctx echo.Context) error {
	return api.setActivo(ctx, false)
}

func (api *alumnoApi) activate(ctx echo.Context) error {
	return api.setActivo(ctx, true)
}

func (api *alumnoApi) setActivo(ctx echo.Context, activo bool) error {
	a := ctx.Get("object").(alumno.Alumno)
	a, err := api.svc.SetActivo(ctx.Request().Context(), a.ID, activo)
	if err != nil {
		return errors.Wrap(err, "setting alumno activo")
	}
	return ctx.JSON(http.StatusOK, newAlumnoResponse(a, time.Now()))
}

func (api *alumnoApi) registerExam(ctx echo.Context) error {
	a := ctx.Get("object").(alumno.Alumno)

	var data alumno.RegistroExamen
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RegistroExamen")
	}

	a, err := api.svc.RegistrarExamen(ctx.Request().Context(), a.ID, data)
	if err != nil {
		return errors.Wrap(err, "registering exam")
	}
	return ctx.JSON(http.StatusOK, newAlumnoResponse(a, time.Now()))
}
