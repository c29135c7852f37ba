package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/httprate"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/atuch/dojang/core"
	"github.com/atuch/dojang/core/alumno"
	"github.com/atuch/dojang/core/dashboard"
	"github.com/atuch/dojang/core/instructor"
	"github.com/atuch/dojang/core/pago"
	"github.com/atuch/dojang/core/sede"
	"github.com/atuch/dojang/core/user"
)

// Services are the domain services exposed by the API.
type Services struct {
	User       *user.Service
	Sede       *sede.Service
	Instructor *instructor.Service
	Alumno     *alumno.Service
	Pago       *pago.Service
	Dashboard  *dashboard.Service
}

type Server struct {
	conf       *core.Config
	logger     core.Logger
	validate   *validator.Validate
	translator ut.Translator
	svcs       Services
	tokens     *TokenIssuer
	app        *echo.Echo
	errors     chan error
	shutdown   chan os.Signal
}

var _ http.Handler = (*Server)(nil)

func NewServer(
	conf *core.Config,
	logger core.Logger,
	validate *validator.Validate,
	translator ut.Translator,
	svcs Services,
) *Server {
	s := &Server{
		conf:       conf,
		logger:     logger,
		validate:   validate,
		translator: translator,
		svcs:       svcs,
		tokens:     NewTokenIssuer(conf),
		app:        echo.New(),
		errors:     make(chan error, 1),
		shutdown:   make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	s.app.HideBanner = true
	s.app.Debug = s.conf.Debug
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.logger, s.translator, s.SignalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.conf.TestMode {
		s.app.Use(requestLogger(s.logger))
	}
	// do not recover in DEV|TEST mode
	if !(s.conf.Debug || s.conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.conf.Server.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := jwtMiddleware(s.tokens)
	rateLimit := echo.WrapMiddleware(httprate.LimitByIP(s.conf.Server.RateLimit, time.Minute))
	roles := roleMiddleware(s.svcs.User)
	admin := adminMiddleware(s.svcs.User)
	invalidate := invalidateDashboard(s.svcs.Dashboard, s.logger)

	registerUserAPI(v1, jwt, rateLimit, roles, admin, s)
	registerSedeAPI(v1.Group("/sedes", jwt, roles, invalidate), admin, s)
	registerInstructorAPI(v1.Group("/instructores", jwt, roles, invalidate), admin, s)
	registerAlumnoAPI(v1.Group("/alumnos", jwt, roles, invalidate), s)
	registerPagoAPI(v1.Group("/pagos", jwt, roles, invalidate), s)
	registerDashboardAPI(v1.Group("/dashboard", jwt, roles), s)
}

// Start listens on the configured address; failures are sent to Errors.
func (s *Server) Start() {
	s.logger.Info("API listening", map[string]interface{}{"address": s.conf.Server.Address})
	if err := s.app.Start(s.conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

// ShutdownSignal notifies SIGINT, SIGTERM and the shutdowns requested by the error handler.
func (s *Server) ShutdownSignal() <-chan os.Signal {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	return s.shutdown
}

// SignalShutdown asks for a graceful shutdown, once.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Bienvenido a la API de ATUCH!")
}
