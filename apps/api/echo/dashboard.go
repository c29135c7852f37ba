package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/atuch/dojang/core/dashboard"
)

type dashboardApi struct {
	svc *dashboard.Service
}

func registerDashboardAPI(g *echo.Group, s *Server) {
	api := dashboardApi{svc: s.svcs.Dashboard}

	g.GET("", api.retrieve)
}

// retrieve returns the dashboard of every sede, or of the one given by the sede_id query param.
// Instructores bound to a sede always get the dashboard of their sede.
func (api *dashboardApi) retrieve(ctx echo.Context) error {
	var sedeID *int64
	if id, err := strconv.ParseInt(ctx.QueryParam("sede_id"), 10, 64); err == nil && id > 0 {
		sedeID = &id
	}
	if id, scoped := contextSedeScope(ctx); scoped {
		sedeID = &id
	}

	dash, err := api.svc.Get(ctx.Request().Context(), sedeID)
	if err != nil {
		return errors.Wrap(err, "getting dashboard")
	}
	return ctx.JSON(http.StatusOK, dash)
}
