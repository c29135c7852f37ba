package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/atuch/dojang/core/alumno"
	"github.com/atuch/dojang/core/pago"
)

type pagoApi struct {
	svc       *pago.Service
	alumnoSvc *alumno.Service
}

type SetPagadoRequest struct {
	Pagado bool `json:"pagado"`
}

func registerPagoAPI(g *echo.Group, s *Server) {
	api := pagoApi{svc: s.svcs.Pago, alumnoSvc: s.svcs.Alumno}

	g.GET("", api.query)
	g.POST("", api.create)
	g.GET("/resumen", api.resumen)

	dg := g.Group("/:id", api.objectMiddleware)
	dg.GET("", api.retrieve)
	dg.DELETE("", api.destroy)
	dg.POST("/toggle", api.toggle)
	dg.PUT("/pagado", api.setPagado)
}

// objectMiddleware loads the Pago of the path, hiding the ones outside the sede of the context user.
func (api *pagoApi) objectMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		id, err := parseID(ctx)
		if err != nil {
			return err
		}
		p, err := api.svc.Get(ctx.Request().Context(), id)
		if err != nil {
			return errors.Wrap(err, "finding pago")
		}
		if sedeID, scoped := contextSedeScope(ctx); scoped {
			if p.Alumno == nil || !p.Alumno.SedeID.Valid || p.Alumno.SedeID.Int64 != sedeID {
				return errHttpNotFound
			}
		}
		ctx.Set("object", p)
		return next(ctx)
	}
}

func (api *pagoApi) bindFilter(ctx echo.Context) (pago.QueryFilter, error) {
	var filter pago.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return filter, errInvalidQuery
	}
	filter.Pagado = boolParam(ctx, "pagado")
	if sedeID, scoped := contextSedeScope(ctx); scoped {
		filter.SedeID = sedeID
	}
	return filter, nil
}

func (api *pagoApi) query(ctx echo.Context) error {
	filter, err := api.bindFilter(ctx)
	if err != nil {
		return err
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	pagos, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying pagos")
	}
	if pagos == nil {
		pagos = []pago.Pago{}
	}
	return ctx.JSON(http.StatusOK, pagos)
}

func (api *pagoApi) resumen(ctx echo.Context) error {
	filter, err := api.bindFilter(ctx)
	if err != nil {
		return err
	}

	res, err := api.svc.Resumen(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "summarizing pagos")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *pagoApi) create(ctx echo.Context) error {
	var data pago.NewPago
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPago")
	}
	if sedeID, scoped := contextSedeScope(ctx); scoped && data.AlumnoID > 0 {
		a, err := api.alumnoSvc.Get(ctx.Request().Context(), data.AlumnoID)
		switch errors.Cause(err) {
		case nil:
			if !(a.SedeID.Valid && a.SedeID.Int64 == sedeID) {
				return errHttpForbidden
			}
		case alumno.ErrNotFound: // reported by the validation of the Pago
		default:
			return errors.Wrap(err, "finding alumno")
		}
	}

	p, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating pago")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *pagoApi) retrieve(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, ctx.Get("object").(pago.Pago))
}

func (api *pagoApi) destroy(ctx echo.Context) error {
	p := ctx.Get("object").(pago.Pago)
	if err := api.svc.Delete(ctx.Request().Context(), p.ID); err != nil {
		return errors.Wrap(err, "deleting pago")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *pagoApi) toggle(ctx echo.Context) error {
	p := ctx.Get("object").(pago.Pago)
	p, err := api.svc.Toggle(ctx.Request().Context(), p.ID)
	if err != nil {
		return errors.Wrap(err, "toggling pago")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *pagoApi) setPagado(ctx echo.Context) error {
	p := ctx.Get("object").(pago.Pago)

	var data SetPagadoRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetPagadoRequest")
	}

	p, err := api.svc.SetPagado(ctx.Request().Context(), p.ID, data.Pagado)
	if err != nil {
		return errors.Wrap(err, "setting pago pagado")
	}
	return ctx.JSON(http.StatusOK, p)
}
