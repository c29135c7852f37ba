package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/atuch/dojang/core/sede"
)

var sedeColumns = []string{"id", "nombre", "direccion", "telefono", "created_at"}

type sedeRepository struct {
	baseRepository
}

var _ sede.Repository = (*sedeRepository)(nil) // interface compliance check

func NewSedeRepository(db *sqlx.DB) *sedeRepository {
	return &sedeRepository{baseRepository: newBaseRepository(db)}
}

func (repo sedeRepository) CreateSede(ctx context.Context, s sede.Sede) (sede.Sede, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	q := repo.sb.Insert("sedes").
		Columns("nombre", "direccion", "telefono", "created_at").
		Values(s.Nombre, s.Direccion, s.Telefono, s.CreatedAt)
	id, err := insertReturningID(ctx, repo.db, q)
	if err != nil {
		return sede.Sede{}, errors.Wrap(err, "inserting sede")
	}
	s.ID = id
	return s, nil
}

func (repo sedeRepository) QuerySedes(ctx context.Context) ([]sede.Sede, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	sedes := make([]sede.Sede, 0)
	q := repo.sb.Select(sedeColumns...).From("sedes").OrderBy("nombre ASC", "id ASC")
	if err := selectAll(ctx, repo.db, &sedes, q); err != nil {
		return nil, errors.Wrap(err, "querying sedes")
	}
	return sedes, nil
}

func (repo sedeRepository) GetSede(ctx context.Context, id int64) (sede.Sede, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var s sede.Sede
	q := repo.sb.Select(sedeColumns...).From("sedes").Where(sq.Eq{"id": id})
	if err := getOne(ctx, repo.db, &s, q); err != nil {
		return sede.Sede{}, trapNoRowsErr(err, sede.ErrNotFound, "finding sede by ID")
	}
	return s, nil
}

func (repo sedeRepository) UpdateSede(ctx context.Context, s sede.Sede) (sede.Sede, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	q := repo.sb.Update("sedes").
		Set("nombre", s.Nombre).
		Set("direccion", s.Direccion).
		Set("telefono", s.Telefono).
		Where(sq.Eq{"id": s.ID})
	res, err := execute(ctx, repo.db, q)
	if err != nil {
		return sede.Sede{}, errors.Wrap(err, "updating sede")
	}
	if err = checkAffected(res, sede.ErrNotFound); err != nil {
		return sede.Sede{}, err
	}
	return s, nil
}

func (repo sedeRepository) DeleteSede(ctx context.Context, id int64) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := execute(ctx, repo.db, repo.sb.Delete("sedes").Where(sq.Eq{"id": id}))
	if err != nil {
		return errors.Wrap(err, "deleting sede")
	}
	return checkAffected(res, sede.ErrNotFound)
}

func (repo sedeRepository) CountSedes(ctx context.Context) (int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	n, err := count(ctx, repo.db, repo.sb, "sedes")
	return n, errors.Wrap(err, "counting sedes")
}
