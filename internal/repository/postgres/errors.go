package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/jwalitptl/trials-api/internal/repository"
)

// mapError translates driver errors into the repository sentinels so that
// services never inspect pq codes.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "unique_violation":
			return fmt.Errorf("%w: %s", repository.ErrUniqueViolation, pqErr.Constraint)
		case "foreign_key_violation":
			return fmt.Errorf("%w: %s", repository.ErrForeignKeyViolation, pqErr.Constraint)
		}
	}
	return err
}

func requireAffected(result sql.Result, entity string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", entity, err)
	}
	if n == 0 {
		return fmt.Errorf("failed to delete %s: %w", entity, repository.ErrNotFound)
	}
	return nil
}
