// Package sqlxrepos implements the domain repositories with sqlx and squirrel.
// Queries are written once for both Postgres and SQLite.
package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/atuch/dojang/core"
	"github.com/atuch/dojang/storage/database"
)

type baseRepository struct {
	db    *sqlx.DB
	sb    sq.StatementBuilderType
	lower string
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func newBaseRepository(db *sqlx.DB) baseRepository {
	return baseRepository{db: db, sb: database.StatementBuilder(db), lower: database.LowerFunc(db)}
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, core.DBTimeout)
}

func getOne(ctx context.Context, exec sqlx.ExtContext, dest interface{}, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return sqlx.GetContext(ctx, exec, dest, query, args...)
}

func selectAll(ctx context.Context, exec sqlx.ExtContext, dest interface{}, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return sqlx.SelectContext(ctx, exec, dest, query, args...)
}

func execute(ctx context.Context, exec sqlx.ExtContext, b sq.Sqlizer) (sql.Result, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	return exec.ExecContext(ctx, query, args...)
}

// insertReturningID runs an INSERT ... RETURNING id and returns the new id.
func insertReturningID(ctx context.Context, exec sqlx.ExtContext, b sq.InsertBuilder) (int64, error) {
	var id int64
	err := getOne(ctx, exec, &id, b.Suffix("RETURNING id"))
	return id, err
}

// count runs a SELECT COUNT(*) FROM table.
func count(ctx context.Context, exec sqlx.ExtContext, sb sq.StatementBuilderType, table string) (int, error) {
	var n int
	err := getOne(ctx, exec, &n, sb.Select("COUNT(*)").From(table))
	return n, err
}

// checkAffected returns notFound when res changed no row.
func checkAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "reading affected rows")
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// trapNoRowsErr maps "no rows" to notFound
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// withTx runs fn in a transaction, rolled back when fn fails.
func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

// orderBy maps orderings on allowed fields ({field: column}) to ORDER BY clauses.
// Unknown fields are ignored; defaults apply when nothing is left.
func orderBy(ordering []core.DBOrdering, allowed map[string]string, defaults ...string) []string {
	clauses := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		col, ok := allowed[ord.Field]
		if !ok {
			continue
		}
		clauses = append(clauses, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
	}
	if len(clauses) == 0 {
		return defaults
	}
	return clauses
}

// likeAny matches val, case-insensitively, as a literal substring of any of cols.
func (repo baseRepository) likeAny(val string, cols ...string) sq.Or {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(val)) + "%"
	or := make(sq.Or, 0, len(cols))
	for _, col := range cols {
		or = append(or, sq.Expr(repo.lower+"("+col+") LIKE ? ESCAPE '\\'", pattern))
	}
	return or
}
