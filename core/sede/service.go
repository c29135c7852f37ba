package sede

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var (
	// errors
	ErrNotFound = errors.New("sede no encontrada")
)

type (
	Repository interface {
		CreateSede(ctx context.Context, s Sede) (Sede, error)
		// QuerySedes lists all sedes ordered by nombre.
		QuerySedes(ctx context.Context) ([]Sede, error)
		GetSede(ctx context.Context, id int64) (Sede, error)
		UpdateSede(ctx context.Context, s Sede) (Sede, error)
		DeleteSede(ctx context.Context, id int64) error
		CountSedes(ctx context.Context) (int, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

func (svc *Service) Create(ctx context.Context, ns NewSede) (Sede, error) {
	if err := ns.Validate(svc.validate); err != nil {
		return Sede{}, err
	}
	s := Sede{
		Nombre:    ns.Nombre,
		Direccion: ns.Direccion,
		Telefono:  ns.Telefono,
		CreatedAt: time.Now().UTC(),
	}
	s, err := svc.repo.CreateSede(ctx, s)
	return s, errors.Wrap(err, "creating sede")
}

func (svc *Service) Query(ctx context.Context) ([]Sede, error) {
	return svc.repo.QuerySedes(ctx)
}

func (svc *Service) Get(ctx context.Context, id int64) (Sede, error) {
	return svc.repo.GetSede(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id int64, us UpdateSede) (Sede, error) {
	if err := us.Validate(svc.validate); err != nil {
		return Sede{}, err
	}
	s, err := svc.repo.GetSede(ctx, id)
	if err != nil {
		return Sede{}, err
	}
	us.apply(&s)
	return svc.repo.UpdateSede(ctx, s)
}

// Delete removes a Sede. Alumnos and roles bound to it are left without sede.
func (svc *Service) Delete(ctx context.Context, id int64) error {
	return svc.repo.DeleteSede(ctx, id)
}

func (svc *Service) Count(ctx context.Context) (int, error) {
	return svc.repo.CountSedes(ctx)
}
