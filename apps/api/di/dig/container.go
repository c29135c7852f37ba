package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/atuch/dojang/apps/api/echo"
	"github.com/atuch/dojang/core"
	"github.com/atuch/dojang/core/alumno"
	"github.com/atuch/dojang/core/dashboard"
	"github.com/atuch/dojang/core/instructor"
	"github.com/atuch/dojang/core/pago"
	"github.com/atuch/dojang/core/sede"
	"github.com/atuch/dojang/core/user"
	cachesvc "github.com/atuch/dojang/services/cache"
	emailsvc "github.com/atuch/dojang/services/email"
	logsvc "github.com/atuch/dojang/services/logger"
	"github.com/atuch/dojang/storage/database"
	"github.com/atuch/dojang/storage/database/sqlxrepos"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// CacheCloser releases the connections of the dashboard cache.
type CacheCloser func() error

type servicesParam struct {
	dig.In
	User       *user.Service
	Sede       *sede.Service
	Instructor *instructor.Service
	Alumno     *alumno.Service
	Pago       *pago.Service
	Dashboard  *dashboard.Service
}

func newLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(logsvc.NewStdLogger(os.Stdout, conf, "API"), conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(logsvc.NewStdLogger(os.Stdout, conf, "DB"), conf)
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) *sqlx.DB {
	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db
}

func newCache(conf *core.Config, logger core.Logger) (core.Cache, CacheCloser) {
	cache, closeFunc, err := cachesvc.NewService(context.Background(), conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up cache: %v", err), err)
	}
	return cache, closeFunc
}

func newValidator() *validator.Validate {
	return validator.New()
}

func newTranslator() ut.Translator {
	return core.NewTranslator()
}

func newDashboardService(
	alumnoSvc *alumno.Service,
	sedeSvc *sede.Service,
	instructorSvc *instructor.Service,
	pagoSvc *pago.Service,
	cache core.Cache,
	conf *core.Config,
	logger core.Logger,
) *dashboard.Service {
	return dashboard.NewService(alumnoSvc, sedeSvc, instructorSvc, pagoSvc, cache, conf, logger)
}

func newServices(p servicesParam) echoapi.Services {
	return echoapi.Services{
		User:       p.User,
		Sede:       p.Sede,
		Instructor: p.Instructor,
		Alumno:     p.Alumno,
		Pago:       p.Pago,
		Dashboard:  p.Dashboard,
	}
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(emailsvc.NewService))
	must(c.Provide(newCache))
	must(c.Provide(newValidator))
	must(c.Provide(newTranslator))

	// repositories
	must(c.Provide(sqlxrepos.NewUserRepository, dig.As(new(user.Repository))))
	must(c.Provide(sqlxrepos.NewSedeRepository, dig.As(new(sede.Repository))))
	must(c.Provide(sqlxrepos.NewInstructorRepository, dig.As(new(instructor.Repository))))
	must(c.Provide(sqlxrepos.NewAlumnoRepository, dig.As(new(alumno.Repository))))
	must(c.Provide(sqlxrepos.NewPagoRepository, dig.As(new(pago.Repository))))

	// services
	must(c.Provide(user.NewService))
	must(c.Provide(sede.NewService))
	must(c.Provide(instructor.NewService))
	must(c.Provide(alumno.NewService))
	must(c.Provide(pago.NewService))
	must(c.Provide(newDashboardService))
	must(c.Provide(newServices))

	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
