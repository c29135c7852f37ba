package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/atuch/dojang/core"
	"github.com/atuch/dojang/core/dashboard"
	"github.com/atuch/dojang/core/user"
)

func requestLogger(logger core.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("request", map[string]interface{}{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency_ms": v.Latency.Milliseconds(),
				"remote_ip":  v.RemoteIP,
			})
			return nil
		},
	})
}

// roleMiddleware refuses inactive users and users without any role.
func roleMiddleware(svc *user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx, svc)
			if err != nil {
				return err
			}
			if !usr.IsActive {
				return errAccountDeactivated
			}
			ur, err := getContextRole(ctx, svc)
			if err != nil {
				return err
			}
			if !ur.HasRole() {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}

func adminMiddleware(svc *user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ur, err := getContextRole(ctx, svc)
			if err != nil {
				return errors.Wrap(err, "getting context role")
			}
			if ur.IsAdmin() {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// invalidateDashboard drops the cached dashboards after every successful write.
func invalidateDashboard(svc *dashboard.Service, logger core.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if err := next(ctx); err != nil {
				return err
			}
			method := ctx.Request().Method
			if method == http.MethodGet || method == http.MethodHead || ctx.Response().Status >= http.StatusBadRequest {
				return nil
			}
			if err := svc.Invalidate(ctx.Request().Context()); err != nil {
				logger.Warn("invalidating dashboard", err, map[string]interface{}{"uri": ctx.Request().RequestURI})
			}
			return nil
		}
	}
}
