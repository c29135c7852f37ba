package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/atuch/dojang/core"
	"github.com/atuch/dojang/core/pago"
	"github.com/atuch/dojang/storage/database"
)

var (
	pagoColumns = []string{
		"p.id", "p.alumno_id", "p.mes", "p.anio", "p.monto", "p.metodo_pago", "p.pagado", "p.pagado_en", "p.created_at",
		"a.nombres AS alumno_nombres", "a.apellidos AS alumno_apellidos", "a.rut AS alumno_rut",
		"a.email AS alumno_email", "a.sede_id AS alumno_sede_id",
	}

	pagoOrderings = map[string]string{
		"anio":       "p.anio",
		"monto":      "p.monto",
		"created_at": "p.created_at",
	}
)

// pagoRow is a Pago joined with its alumno.
type pagoRow struct {
	pago.Pago
	AlumnoNombres   string     `db:"alumno_nombres"`
	AlumnoApellidos string     `db:"alumno_apellidos"`
	AlumnoRUT       string     `db:"alumno_rut"`
	AlumnoEmail     string     `db:"alumno_email"`
	AlumnoSedeID    null.Int64 `db:"alumno_sede_id"`
}

func (r pagoRow) toPago() pago.Pago {
	p := r.Pago
	p.Alumno = &pago.AlumnoRef{
		Nombres:   r.AlumnoNombres,
		Apellidos: r.AlumnoApellidos,
		RUT:       r.AlumnoRUT,
		Email:     r.AlumnoEmail,
		SedeID:    r.AlumnoSedeID,
	}
	return p
}

type pagoRepository struct {
	baseRepository
}

var _ pago.Repository = (*pagoRepository)(nil) // interface compliance check

func NewPagoRepository(db *sqlx.DB) *pagoRepository {
	return &pagoRepository{baseRepository: newBaseRepository(db)}
}

func (repo pagoRepository) selectPagos() sq.SelectBuilder {
	return repo.sb.Select(pagoColumns...).
		From("pagos p").
		Join("alumnos a ON a.id = p.alumno_id")
}

func (repo pagoRepository) CreatePago(ctx context.Context, p pago.Pago) (pago.Pago, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	q := repo.sb.Insert("pagos").
		Columns("alumno_id", "mes", "anio", "monto", "metodo_pago", "pagado", "pagado_en", "created_at").
		Values(p.AlumnoID, p.Mes, p.Anio, p.Monto, p.MetodoPago, p.Pagado, p.PagadoEn, p.CreatedAt)
	id, err := insertReturningID(ctx, repo.db, q)
	if err != nil {
		switch {
		case database.IsUniqueViolation(err):
			return pago.Pago{}, pago.ErrPagoExists
		case database.IsForeignKeyViolation(err):
			return pago.Pago{}, pago.ErrAlumnoNotFound
		}
		return pago.Pago{}, errors.Wrap(err, "inserting pago")
	}
	p.ID = id
	return p, nil
}

func (repo pagoRepository) GetPago(ctx context.Context, id int64) (pago.Pago, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var row pagoRow
	if err := getOne(ctx, repo.db, &row, repo.selectPagos().Where(sq.Eq{"p.id": id})); err != nil {
		return pago.Pago{}, trapNoRowsErr(err, pago.ErrNotFound, "finding pago by ID")
	}
	return row.toPago(), nil
}

func (repo pagoRepository) QueryPagos(ctx context.Context, filter pago.QueryFilter, ordering []core.DBOrdering) ([]pago.Pago, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	q := repo.selectPagos()
	if filter.AlumnoID > 0 {
		q = q.Where(sq.Eq{"p.alumno_id": filter.AlumnoID})
	}
	if filter.SedeID > 0 {
		q = q.Where(sq.Eq{"a.sede_id": filter.SedeID})
	}
	if filter.Anio > 0 {
		q = q.Where(sq.Eq{"p.anio": filter.Anio})
	}
	if filter.Mes != "" {
		q = q.Where(sq.Eq{"p.mes": filter.Mes})
	}
	if filter.Pagado != nil {
		q = q.Where(sq.Eq{"p.pagado": *filter.Pagado})
	}
	q = q.OrderBy(orderBy(ordering, pagoOrderings, "p.pagado_en DESC NULLS LAST")...).OrderBy("p.id DESC")

	var rows []pagoRow
	if err := selectAll(ctx, repo.db, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying pagos")
	}
	pagos := make([]pago.Pago, 0, len(rows))
	for _, r := range rows {
		pagos = append(pagos, r.toPago())
	}
	return pagos, nil
}

func (repo pagoRepository) SetPagado(ctx context.Context, id int64, pagado bool, pagadoEn null.Time) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	q := repo.sb.Update("pagos").
		Set("pagado", pagado).
		Set("pagado_en", pagadoEn).
		Where(sq.Eq{"id": id}).
		Where(sq.NotEq{"pagado": pagado})
	res, err := execute(ctx, repo.db, q)
	if err != nil {
		return false, errors.Wrap(err, "updating pago")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "reading affected rows")
	}
	return n > 0, nil
}

func (repo pagoRepository) DeletePago(ctx context.Context, id int64) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := execute(ctx, repo.db, repo.sb.Delete("pagos").Where(sq.Eq{"id": id}))
	if err != nil {
		return errors.Wrap(err, "deleting pago")
	}
	return checkAffected(res, pago.ErrNotFound)
}
