package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/errs"
)

// MapError translates Postgres constraint errors into error kinds.
// Constraint-specific errors in conflicts take precedence over the generic conflict.
// Other errors are returned unchanged.
func MapError(err error, conflicts map[string]error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	if mapped, ok := conflicts[pgErr.ConstraintName]; ok {
		return mapped
	}
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		return fmt.Errorf("%w: %s", errs.ErrConflict, pgErr.ConstraintName)
	case pgerrcode.ForeignKeyViolation:
		if pgErr.TableName != "" {
			return fmt.Errorf("%w: %s references a missing row", errs.ErrNotFound, pgErr.TableName)
		}
		return fmt.Errorf("%w: %s", errs.ErrNotFound, pgErr.ConstraintName)
	case pgerrcode.CheckViolation:
		return fmt.Errorf("%w: %s", errs.ErrValidation, pgErr.ConstraintName)
	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected, pgerrcode.LockNotAvailable:
		return fmt.Errorf("%w: concurrent update, retry: %v", errs.ErrConflict, err)
	}
	return err
}
