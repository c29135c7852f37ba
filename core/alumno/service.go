package alumno

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/atuch/dojang/core"
)

var (
	// errors
	ErrNotFound         = errors.New("alumno no encontrado")
	ErrRUTExists        = errors.New("ya existe un alumno con este RUT")
	ErrInvalidReference = errors.New("la sede o el instructor seleccionado no existe")
)

type (
	Repository interface {
		CreateAlumno(ctx context.Context, a Alumno) (Alumno, error)
		UpdateAlumno(ctx context.Context, a Alumno) (Alumno, error)
		// GetAlumno returns the Alumno with its sede and instructor names.
		GetAlumno(ctx context.Context, id int64) (Alumno, error)
		// QueryAlumnos lists alumnos; default order is apellidos then nombres.
		QueryAlumnos(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Alumno, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

func (svc *Service) checkRepoErr(err error) error {
	switch errors.Cause(err) {
	case ErrRUTExists:
		return core.NewValidationError(ErrRUTExists, core.FieldError{Field: "rut", Error: ErrRUTExists.Error()})
	case ErrInvalidReference:
		return core.NewValidationError(ErrInvalidReference,
			core.FieldError{Field: "sede_id", Error: ErrInvalidReference.Error()},
			core.FieldError{Field: "instructor_id", Error: ErrInvalidReference.Error()},
		)
	}
	return err
}

// Create registers a new active Alumno.
func (svc *Service) Create(ctx context.Context, na NewAlumno) (Alumno, error) {
	if err := na.Validate(svc.validate); err != nil {
		return Alumno{}, err
	}
	now := nowFunc().UTC()
	a := Alumno{Activo: true, FechaUltimoExamen: na.FechaUltimoExamen, CreatedAt: now, UpdatedAt: now}
	na.apply(&a)

	a, err := svc.repo.CreateAlumno(ctx, a)
	if err != nil {
		return Alumno{}, svc.checkRepoErr(err)
	}
	return svc.repo.GetAlumno(ctx, a.ID)
}

// Update replaces every editable field of the Alumno. Activo and FechaUltimoExamen are kept.
func (svc *Service) Update(ctx context.Context, id int64, na NewAlumno) (Alumno, error) {
	if err := na.Validate(svc.validate); err != nil {
		return Alumno{}, err
	}
	a, err := svc.repo.GetAlumno(ctx, id)
	if err != nil {
		return Alumno{}, err
	}
	na.apply(&a)
	return svc.save(ctx, a)
}

func (svc *Service) Get(ctx context.Context, id int64) (Alumno, error) {
	return svc.repo.GetAlumno(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Alumno, error) {
	filter.Clean()
	return svc.repo.QueryAlumnos(ctx, filter, ordering)
}

// SetActivo activates or deactivates the Alumno. Deactivation is the only way to remove one.
func (svc *Service) SetActivo(ctx context.Context, id int64, activo bool) (Alumno, error) {
	a, err := svc.repo.GetAlumno(ctx, id)
	if err != nil {
		return Alumno{}, err
	}
	if a.Activo == activo {
		return a, nil
	}
	a.Activo = activo
	return svc.save(ctx, a)
}

// RegistrarExamen sets the date of the last exam and, when given, the new grado.
func (svc *Service) RegistrarExamen(ctx context.Context, id int64, re RegistroExamen) (Alumno, error) {
	if err := re.Validate(svc.validate); err != nil {
		return Alumno{}, err
	}
	a, err := svc.repo.GetAlumno(ctx, id)
	if err != nil {
		return Alumno{}, err
	}
	fecha := re.Fecha
	a.FechaUltimoExamen = &fecha
	if re.Grado != "" {
		a.Grado.SetValid(re.Grado)
	}
	return svc.save(ctx, a)
}

func (svc *Service) save(ctx context.Context, a Alumno) (Alumno, error) {
	a.UpdatedAt = nowFunc().UTC()
	if _, err := svc.repo.UpdateAlumno(ctx, a); err != nil {
		return Alumno{}, svc.checkRepoErr(err)
	}
	return svc.repo.GetAlumno(ctx, a.ID)
}

// ExamenInfo is the exam status of an Alumno at a given time.
type ExamenInfo struct {
	Edad            *int   `json:"edad"`
	DiasDesde       *int   `json:"dias_desde_examen"`
	Estado          string `json:"estado_examen"`
	ExamenPendiente bool   `json:"examen_pendiente"`
}

// Examen computes the age and exam status of a at now.
func Examen(a Alumno, now time.Time) ExamenInfo {
	dias := DiasDesde(a.FechaUltimoExamen, now)
	return ExamenInfo{
		Edad:            Edad(a.FechaNacimiento, now),
		DiasDesde:       dias,
		Estado:          EstadoExamen(dias),
		ExamenPendiente: ExamenPendiente(dias),
	}
}
