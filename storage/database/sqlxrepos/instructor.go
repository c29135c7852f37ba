package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/atuch/dojang/core/instructor"
	"github.com/atuch/dojang/storage/database"
)

var instructorColumns = []string{"id", "nombre", "apellido", "grado", "correo", "created_at"}

type instructorRepository struct {
	baseRepository
}

var _ instructor.Repository = (*instructorRepository)(nil) // interface compliance check

func NewInstructorRepository(db *sqlx.DB) *instructorRepository {
	return &instructorRepository{baseRepository: newBaseRepository(db)}
}

func (repo instructorRepository) trapConstraintErr(err error, msg string) error {
	switch {
	case database.IsUniqueViolation(err):
		return instructor.ErrCorreoExists
	case database.IsForeignKeyViolation(err):
		return instructor.ErrSedeNotFound
	}
	return errors.Wrap(err, msg)
}

// linkSedes replaces the sede links of an instructor.
func (repo instructorRepository) linkSedes(ctx context.Context, tx *sqlx.Tx, id int64, sedeIDs []int64) error {
	if _, err := execute(ctx, tx, repo.sb.Delete("instructores_sedes").Where(sq.Eq{"instructor_id": id})); err != nil {
		return errors.Wrap(err, "unlinking sedes")
	}
	if len(sedeIDs) == 0 {
		return nil
	}

	q := repo.sb.Insert("instructores_sedes").Columns("instructor_id", "sede_id", "rol_en_sede")
	for _, sedeID := range sedeIDs {
		q = q.Values(id, sedeID, instructor.DefaultRolEnSede)
	}
	if _, err := execute(ctx, tx, q); err != nil {
		return repo.trapConstraintErr(err, "linking sedes")
	}
	return nil
}

func (repo instructorRepository) CreateInstructor(ctx context.Context, ins instructor.Instructor, sedeIDs []int64) (instructor.Instructor, error) {
	tctx, cancel := withTimeout(ctx)
	defer cancel()

	err := withTx(tctx, repo.db, func(tx *sqlx.Tx) error {
		q := repo.sb.Insert("instructores").
			Columns("nombre", "apellido", "grado", "correo", "created_at").
			Values(ins.Nombre, ins.Apellido, ins.Grado, ins.Correo, ins.CreatedAt)
		id, err := insertReturningID(tctx, tx, q)
		if err != nil {
			return repo.trapConstraintErr(err, "inserting instructor")
		}
		ins.ID = id
		return repo.linkSedes(tctx, tx, id, sedeIDs)
	})
	if err != nil {
		return instructor.Instructor{}, err
	}
	return repo.GetInstructor(ctx, ins.ID)
}

func (repo instructorRepository) UpdateInstructor(ctx context.Context, ins instructor.Instructor, sedeIDs []int64) (instructor.Instructor, error) {
	tctx, cancel := withTimeout(ctx)
	defer cancel()

	err := withTx(tctx, repo.db, func(tx *sqlx.Tx) error {
		q := repo.sb.Update("instructores").
			Set("nombre", ins.Nombre).
			Set("apellido", ins.Apellido).
			Set("grado", ins.Grado).
			Set("correo", ins.Correo).
			Where(sq.Eq{"id": ins.ID})
		res, err := execute(tctx, tx, q)
		if err != nil {
			return repo.trapConstraintErr(err, "updating instructor")
		}
		if err = checkAffected(res, instructor.ErrNotFound); err != nil {
			return err
		}
		if sedeIDs == nil {
			return nil
		}
		return repo.linkSedes(tctx, tx, ins.ID, sedeIDs)
	})
	if err != nil {
		return instructor.Instructor{}, err
	}
	return repo.GetInstructor(ctx, ins.ID)
}

// loadSedes fills the Sedes of each instructor, ordered by sede nombre.
func (repo instructorRepository) loadSedes(ctx context.Context, instructores []instructor.Instructor) error {
	if len(instructores) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(instructores))
	for _, ins := range instructores {
		ids = append(ids, ins.ID)
	}

	var links []instructor.SedeLink
	q := repo.sb.Select("l.instructor_id", "l.sede_id", "s.nombre", "l.rol_en_sede").
		From("instructores_sedes l").
		Join("sedes s ON s.id = l.sede_id").
		Where(sq.Eq{"l.instructor_id": ids}).
		OrderBy("s.nombre ASC")
	if err := selectAll(ctx, repo.db, &links, q); err != nil {
		return errors.Wrap(err, "querying instructor sedes")
	}

	byInstructor := make(map[int64][]instructor.SedeLink, len(instructores))
	for _, l := range links {
		byInstructor[l.InstructorID] = append(byInstructor[l.InstructorID], l)
	}
	for i := range instructores {
		instructores[i].Sedes = byInstructor[instructores[i].ID]
		if instructores[i].Sedes == nil {
			instructores[i].Sedes = []instructor.SedeLink{}
		}
	}
	return nil
}

func (repo instructorRepository) QueryInstructores(ctx context.Context, filter instructor.QueryFilter) ([]instructor.Instructor, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	q := repo.sb.Select(instructorColumns...).From("instructores").OrderBy("id DESC")
	if filter.SedeID > 0 {
		sub := repo.sb.Select("instructor_id").From("instructores_sedes").Where(sq.Eq{"sede_id": filter.SedeID})
		q = q.Where(sq.Expr("id IN (?)", sub))
	}

	instructores := make([]instructor.Instructor, 0)
	if err := selectAll(ctx, repo.db, &instructores, q); err != nil {
		return nil, errors.Wrap(err, "querying instructores")
	}
	if err := repo.loadSedes(ctx, instructores); err != nil {
		return nil, err
	}
	return instructores, nil
}

func (repo instructorRepository) GetInstructor(ctx context.Context, id int64) (instructor.Instructor, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var ins instructor.Instructor
	q := repo.sb.Select(instructorColumns...).From("instructores").Where(sq.Eq{"id": id})
	if err := getOne(ctx, repo.db, &ins, q); err != nil {
		return instructor.Instructor{}, trapNoRowsErr(err, instructor.ErrNotFound, "finding instructor by ID")
	}

	slice := []instructor.Instructor{ins}
	if err := repo.loadSedes(ctx, slice); err != nil {
		return instructor.Instructor{}, err
	}
	return slice[0], nil
}

func (repo instructorRepository) DeleteInstructor(ctx context.Context, id int64) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := execute(ctx, repo.db, repo.sb.Delete("instructores").Where(sq.Eq{"id": id}))
	if err != nil {
		return errors.Wrap(err, "deleting instructor")
	}
	return checkAffected(res, instructor.ErrNotFound)
}

func (repo instructorRepository) CountInstructores(ctx context.Context) (int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	n, err := count(ctx, repo.db, repo.sb, "instructores")
	return n, errors.Wrap(err, "counting instructores")
}
