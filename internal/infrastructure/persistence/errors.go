package persistence

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/schoolfees/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// PostgreSQL SQLSTATE codes
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgSerialization       = "40001"
)

// translateError maps driver errors onto the domain taxonomy. The database
// is opened with TranslateError so unique and foreign-key violations usually
// arrive as gorm sentinels; raw pgconn errors are still matched for
// connections opened without it.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.ErrDuplicateRecord
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return shared.ErrRelatedMissing
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return shared.ErrDuplicateRecord
		case pgForeignKeyViolation:
			return shared.ErrRelatedMissing
		case pgSerialization:
			return shared.ErrConcurrencyConflict
		}
	}
	return shared.NewStorageError("database operation failed", err)
}

// firstOrNotFound runs a First query and maps a missing row to notFound
func firstOrNotFound(tx *gorm.DB, dest any, notFound error) error {
	err := tx.First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return translateError(err)
}
