package dashboard

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/atuch/dojang/core"
	"github.com/atuch/dojang/core/alumno"
	"github.com/atuch/dojang/core/instructor"
	"github.com/atuch/dojang/core/pago"
	"github.com/atuch/dojang/core/sede"
)

const keyPrefix = "dashboard:"

var nowFunc = time.Now // mockable

type (
	AlumnoService interface {
		Query(ctx context.Context, filter alumno.QueryFilter, ordering ...core.DBOrdering) ([]alumno.Alumno, error)
	}

	SedeService interface {
		Query(ctx context.Context) ([]sede.Sede, error)
	}

	InstructorService interface {
		Query(ctx context.Context, filter instructor.QueryFilter) ([]instructor.Instructor, error)
		Count(ctx context.Context) (int, error)
	}

	PagoService interface {
		Query(ctx context.Context, filter pago.QueryFilter, ordering ...core.DBOrdering) ([]pago.Pago, error)
	}

	Service struct {
		alumnos      AlumnoService
		sedes        SedeService
		instructores InstructorService
		pagos        PagoService
		cache        core.Cache
		ttl          time.Duration
		logger       core.Logger
	}
)

func NewService(
	alumnoSvc AlumnoService,
	sedeSvc SedeService,
	instructorSvc InstructorService,
	pagoSvc PagoService,
	cache core.Cache,
	conf *core.Config,
	logger core.Logger,
) *Service {
	return &Service{
		alumnos:      alumnoSvc,
		sedes:        sedeSvc,
		instructores: instructorSvc,
		pagos:        pagoSvc,
		cache:        cache,
		ttl:          conf.Cache.TTL,
		logger:       logger,
	}
}

func cacheKey(sedeID *int64) string {
	if sedeID == nil {
		return keyPrefix + "all"
	}
	return keyPrefix + "sede:" + strconv.FormatInt(*sedeID, 10)
}

// Get returns the Dashboard of every sede, or of a single one when sedeID is set.
// Snapshots are cached until Invalidate is called or the TTL expires; cache failures are logged and bypassed.
func (svc *Service) Get(ctx context.Context, sedeID *int64) (Dashboard, error) {
	key := cacheKey(sedeID)

	var dash Dashboard
	found, err := svc.cache.Get(ctx, key, &dash)
	if err != nil {
		svc.logger.Warn("reading dashboard cache", err, map[string]interface{}{"key": key})
	}
	if found {
		return dash, nil
	}

	if dash, err = svc.compute(ctx, sedeID); err != nil {
		return Dashboard{}, err
	}
	if err = svc.cache.Set(ctx, key, dash, svc.ttl); err != nil {
		svc.logger.Warn("writing dashboard cache", err, map[string]interface{}{"key": key})
	}
	return dash, nil
}

func (svc *Service) compute(ctx context.Context, sedeID *int64) (Dashboard, error) {
	var alumnoFilter alumno.QueryFilter
	var pagoFilter pago.QueryFilter
	if sedeID != nil {
		alumnoFilter.SedeID = *sedeID
		pagoFilter.SedeID = *sedeID
	}

	alumnos, err := svc.alumnos.Query(ctx, alumnoFilter)
	if err != nil {
		return Dashboard{}, errors.Wrap(err, "querying alumnos")
	}
	sedes, err := svc.sedes.Query(ctx)
	if err != nil {
		return Dashboard{}, errors.Wrap(err, "querying sedes")
	}
	pagos, err := svc.pagos.Query(ctx, pagoFilter)
	if err != nil {
		return Dashboard{}, errors.Wrap(err, "querying pagos")
	}

	var totalInstructores int
	if sedeID == nil {
		if totalInstructores, err = svc.instructores.Count(ctx); err != nil {
			return Dashboard{}, errors.Wrap(err, "counting instructores")
		}
	} else {
		ins, err := svc.instructores.Query(ctx, instructor.QueryFilter{SedeID: *sedeID})
		if err != nil {
			return Dashboard{}, errors.Wrap(err, "querying instructores")
		}
		totalInstructores = len(ins)
		sedes = onlySede(sedes, *sedeID)
	}

	return Compute(nowFunc(), alumnos, sedes, totalInstructores, pagos), nil
}

func onlySede(sedes []sede.Sede, id int64) []sede.Sede {
	for _, s := range sedes {
		if s.ID == id {
			return []sede.Sede{s}
		}
	}
	return []sede.Sede{}
}

// Invalidate drops every cached Dashboard.
func (svc *Service) Invalidate(ctx context.Context) error {
	return errors.Wrap(svc.cache.DeletePrefix(ctx, keyPrefix), "invalidating dashboard cache")
}
