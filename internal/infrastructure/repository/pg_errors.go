package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Error class 23 is integrity constraint violation. Those failures are
// caused by the data in the statement, not by the connection, so callers
// map them to record-level domain errors instead of retrying.
func isIntegrityViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23")
}
