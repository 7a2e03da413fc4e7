package docstore

import (
	"errors"

	"github.com/docident/docident/identity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// MapError translates low-level postgres errors into the identity sentinel
// errors. Unique violations are split by constraint so callers can tell a
// taken user name from a taken email; serialization failures surface as
// concurrency conflicts rather than generic I/O errors.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return identity.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			switch pgErr.ConstraintName {
			case usersNameIndex:
				return identity.ErrDuplicateUserName
			case usersEmailIndex:
				return identity.ErrDuplicateEmail
			default:
				return identity.ErrConflict
			}
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return identity.ErrConcurrency
		}
	}

	return err
}
