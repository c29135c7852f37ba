package database

import (
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// Postgres error codes, see https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// IsUniqueViolation reports whether err was caused by a unique or primary key constraint.
func IsUniqueViolation(err error) bool {
	switch dbErr := errors.Cause(err).(type) {
	case *pq.Error:
		return dbErr.Code == pgUniqueViolation
	case sqlite3.Error:
		return dbErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			dbErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// IsForeignKeyViolation reports whether err was caused by a foreign key constraint.
func IsForeignKeyViolation(err error) bool {
	switch dbErr := errors.Cause(err).(type) {
	case *pq.Error:
		return dbErr.Code == pgForeignKeyViolation
	case sqlite3.Error:
		return dbErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return false
}
