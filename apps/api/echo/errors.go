package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/atuch/dojang/core"
	"github.com/atuch/dojang/core/alumno"
	"github.com/atuch/dojang/core/instructor"
	"github.com/atuch/dojang/core/pago"
	"github.com/atuch/dojang/core/sede"
	"github.com/atuch/dojang/core/user"
)

var (
	errJWTMissing           = echo.NewHTTPError(http.StatusUnauthorized, "token ausente o mal formado")
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "usuario no autenticado")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, user.ErrInvalidCredentials.Error())
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, user.ErrAccountDeactivated.Error())
	errRefreshExpired       = echo.NewHTTPError(http.StatusForbidden, "la renovación del token expiró")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permiso denegado")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "no encontrado")
	errInvalidQuery         = echo.NewHTTPError(http.StatusBadRequest, "los filtros de búsqueda no son válidos")
)

// isNotFound reports whether err is a domain error rendered as 404.
func isNotFound(err error) bool {
	switch err {
	case user.ErrNotFound, sede.ErrNotFound, instructor.ErrNotFound, alumno.ErrNotFound, pago.ErrNotFound:
		return true
	}
	return false
}

func errInvalidToken(err error) *echo.HTTPError {
	return &echo.HTTPError{Code: http.StatusUnauthorized, Message: "token inválido o expirado", Internal: err}
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		origErr := errors.Cause(err)
		if flds, ok := core.FieldErrors(err, translator); ok {
			code = http.StatusBadRequest
			message = flds
		} else if isNotFound(origErr) {
			code = http.StatusNotFound
			message = origErr.Error()
		} else if origErr == pago.ErrConflict {
			code = http.StatusConflict
			message = origErr.Error()
		} else {
			switch e := origErr.(type) {
			case *echo.HTTPError:
				if e.Internal != nil {
					if herr, ok := e.Internal.(*echo.HTTPError); ok {
						e = herr
					}
				}
				code = e.Code
				message = e.Message
			case *core.ValidationError:
				code = http.StatusBadRequest
				message = e.Error()
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg

				var person core.Person
				if claims, cErr := getContextClaims(ctx); cErr == nil {
					person = core.Person{ID: claims.Subject, Email: claims.Email}
				}
				logger.Error(msg, errors.Wrap(err, msg), map[string]interface{}{
					"method": ctx.Request().Method,
					"uri":    ctx.Request().RequestURI,
				}, person)

				if ctx.Echo().Debug {
					message = err.Error()
				}

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				logger.Error("sending error response", err)
			}
		}
	}
}
