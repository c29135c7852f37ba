package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/atuch/dojang/core"
	"github.com/atuch/dojang/core/alumno"
	"github.com/atuch/dojang/storage/database"
)

var (
	alumnoColumns = []string{
		"a.id", "a.nombres", "a.apellidos", "a.rut", "a.fecha_nacimiento", "a.telefono", "a.email", "a.direccion",
		"a.grado", "a.sede_id", "a.instructor_id", "a.fecha_ultimo_examen", "a.activo", "a.created_at", "a.updated_at",
		"s.nombre AS sede_nombre",
		"NULLIF(TRIM(i.nombre || ' ' || i.apellido), '') AS instructor_nombre",
	}

	alumnoOrderings = map[string]string{
		"nombres":             "a.nombres",
		"apellidos":           "a.apellidos",
		"rut":                 "a.rut",
		"grado":               "a.grado",
		"fecha_ultimo_examen": "a.fecha_ultimo_examen",
		"created_at":          "a.created_at",
	}
)

type alumnoRepository struct {
	baseRepository
}

var _ alumno.Repository = (*alumnoRepository)(nil) // interface compliance check

func NewAlumnoRepository(db *sqlx.DB) *alumnoRepository {
	return &alumnoRepository{baseRepository: newBaseRepository(db)}
}

func (repo alumnoRepository) trapConstraintErr(err error, msg string) error {
	switch {
	case database.IsUniqueViolation(err):
		return alumno.ErrRUTExists
	case database.IsForeignKeyViolation(err):
		return alumno.ErrInvalidReference
	}
	return errors.Wrap(err, msg)
}

func (repo alumnoRepository) selectAlumnos() sq.SelectBuilder {
	return repo.sb.Select(alumnoColumns...).
		From("alumnos a").
		LeftJoin("sedes s ON s.id = a.sede_id").
		LeftJoin("instructores i ON i.id = a.instructor_id")
}

func (repo alumnoRepository) CreateAlumno(ctx context.Context, a alumno.Alumno) (alumno.Alumno, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	q := repo.sb.Insert("alumnos").
		Columns(
			"nombres", "apellidos", "rut", "fecha_nacimiento", "telefono", "email", "direccion",
			"grado", "sede_id", "instructor_id", "fecha_ultimo_examen", "activo", "created_at", "updated_at",
		).
		Values(
			a.Nombres, a.Apellidos, a.RUT, a.FechaNacimiento, a.Telefono, a.Email, a.Direccion,
			a.Grado, a.SedeID, a.InstructorID, a.FechaUltimoExamen, a.Activo, a.CreatedAt, a.UpdatedAt,
		)
	id, err := insertReturningID(ctx, repo.db, q)
	if err != nil {
		return alumno.Alumno{}, repo.trapConstraintErr(err, "inserting alumno")
	}
	a.ID = id
	return a, nil
}

func (repo alumnoRepository) UpdateAlumno(ctx context.Context, a alumno.Alumno) (alumno.Alumno, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	q := repo.sb.Update("alumnos").
		SetMap(map[string]interface{}{
			"nombres":             a.Nombres,
			"apellidos":           a.Apellidos,
			"rut":                 a.RUT,
			"fecha_nacimiento":    a.FechaNacimiento,
			"telefono":            a.Telefono,
			"email":               a.Email,
			"direccion":           a.Direccion,
			"grado":               a.Grado,
			"sede_id":             a.SedeID,
			"instructor_id":       a.InstructorID,
			"fecha_ultimo_examen": a.FechaUltimoExamen,
			"activo":              a.Activo,
			"updated_at":          a.UpdatedAt,
		}).
		Where(sq.Eq{"id": a.ID})
	res, err := execute(ctx, repo.db, q)
	if err != nil {
		return alumno.Alumno{}, repo.trapConstraintErr(err, "updating alumno")
	}
	if err = checkAffected(res, alumno.ErrNotFound); err != nil {
		return alumno.Alumno{}, err
	}
	return a, nil
}

func (repo alumnoRepository) GetAlumno(ctx context.Context, id int64) (alumno.Alumno, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var a alumno.Alumno
	if err := getOne(ctx, repo.db, &a, repo.selectAlumnos().Where(sq.Eq{"a.id": id})); err != nil {
		return alumno.Alumno{}, trapNoRowsErr(err, alumno.ErrNotFound, "finding alumno by ID")
	}
	return a, nil
}

func (repo alumnoRepository) QueryAlumnos(ctx context.Context, filter alumno.QueryFilter, ordering []core.DBOrdering) ([]alumno.Alumno, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	q := repo.selectAlumnos()
	if filter.Search != "" {
		q = q.Where(repo.likeAny(filter.Search, "a.nombres", "a.apellidos", "a.rut", "a.email"))
	}
	if filter.SedeID > 0 {
		q = q.Where(sq.Eq{"a.sede_id": filter.SedeID})
	}
	if filter.InstructorID > 0 {
		q = q.Where(sq.Eq{"a.instructor_id": filter.InstructorID})
	}
	if filter.Activo != nil {
		q = q.Where(sq.Eq{"a.activo": *filter.Activo})
	}
	q = q.OrderBy(orderBy(ordering, alumnoOrderings, "a.apellidos ASC", "a.nombres ASC")...).OrderBy("a.id ASC")

	alumnos := make([]alumno.Alumno, 0)
	if err := selectAll(ctx, repo.db, &alumnos, q); err != nil {
		return nil, errors.Wrap(err, "querying alumnos")
	}
	return alumnos, nil
}
