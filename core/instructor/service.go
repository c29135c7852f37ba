package instructor

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/atuch/dojang/core"
)

var (
	// errors
	ErrNotFound     = errors.New("instructor no encontrado")
	ErrCorreoExists = errors.New("ya existe un instructor con este correo")
	ErrSedeNotFound = errors.New("una de las sedes seleccionadas no existe")
)

type (
	Repository interface {
		// CreateInstructor inserts the Instructor and links it to sedeIDs in one transaction.
		CreateInstructor(ctx context.Context, ins Instructor, sedeIDs []int64) (Instructor, error)
		// UpdateInstructor updates the Instructor; a non-nil sedeIDs replaces its links in the same transaction.
		UpdateInstructor(ctx context.Context, ins Instructor, sedeIDs []int64) (Instructor, error)
		// QueryInstructores lists instructors, newest first, with their sedes.
		QueryInstructores(ctx context.Context, filter QueryFilter) ([]Instructor, error)
		GetInstructor(ctx context.Context, id int64) (Instructor, error)
		DeleteInstructor(ctx context.Context, id int64) error
		CountInstructores(ctx context.Context) (int, error)
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
	case ErrCorreoExists:
		return core.NewValidationError(ErrCorreoExists, core.FieldError{Field: "correo", Error: ErrCorreoExists.Error()})
	case ErrSedeNotFound:
		return core.NewValidationError(ErrSedeNotFound, core.FieldError{Field: "sede_ids", Error: ErrSedeNotFound.Error()})
	}
	return err
}

func (svc *Service) Create(ctx context.Context, ni NewInstructor) (Instructor, error) {
	if err := ni.Validate(svc.validate); err != nil {
		return Instructor{}, err
	}
	ins := Instructor{
		Nombre:    ni.Nombre,
		Apellido:  ni.Apellido,
		Grado:     ni.Grado,
		Correo:    ni.Correo,
		CreatedAt: time.Now().UTC(),
	}
	ins, err := svc.repo.CreateInstructor(ctx, ins, ni.SedeIDs)
	if err != nil {
		return Instructor{}, svc.checkRepoErr(err)
	}
	return ins, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Instructor, error) {
	return svc.repo.QueryInstructores(ctx, filter)
}

func (svc *Service) Get(ctx context.Context, id int64) (Instructor, error) {
	return svc.repo.GetInstructor(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id int64, ui UpdateInstructor) (Instructor, error) {
	if err := ui.Validate(svc.validate); err != nil {
		return Instructor{}, err
	}
	ins, err := svc.repo.GetInstructor(ctx, id)
	if err != nil {
		return Instructor{}, err
	}
	ui.apply(&ins)

	ins, err = svc.repo.UpdateInstructor(ctx, ins, ui.SedeIDs)
	if err != nil {
		return Instructor{}, svc.checkRepoErr(err)
	}
	return ins, nil
}

// Delete removes an Instructor and its sede links. Alumnos and roles bound to it are left without instructor.
func (svc *Service) Delete(ctx context.Context, id int64) error {
	return svc.repo.DeleteInstructor(ctx, id)
}

func (svc *Service) Count(ctx context.Context) (int, error) {
	return svc.repo.CountInstructores(ctx)
}
