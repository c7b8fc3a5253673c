package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/yourusername/verification-api/internal/domain/repository"
	apperrors "github.com/yourusername/verification-api/internal/pkg/errors"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"

	purposePrimaryKey = "verification_purposes_pkey"
)

// pgError extracts the SQLSTATE and constraint name from either the pgx or the lib/pq driver.
func pgError(err error) (code, constraint string, ok bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName, true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Constraint, true
	}
	return "", "", false
}

func isUniqueViolation(err error) bool {
	code, _, ok := pgError(err)
	return ok && code == pgUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	code, _, ok := pgError(err)
	return ok && code == pgForeignKeyViolation
}

func violatedConstraint(err error) string {
	_, constraint, _ := pgError(err)
	return constraint
}

// applyFilters adds the equality filters resolved from a repository.ListQuery.
// Column names come from a static repository.FieldMap, never from user input directly.
func applyFilters(q *gorm.DB, opts repository.ListOptions) *gorm.DB {
	for column, value := range opts.Where {
		q = q.Where(fmt.Sprintf("%s = ?", column), value)
	}
	return q
}

func orderClause(opts repository.ListOptions) string {
	if opts.Desc {
		return opts.OrderBy + " DESC"
	}
	return opts.OrderBy + " ASC"
}

func notFoundOr(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
