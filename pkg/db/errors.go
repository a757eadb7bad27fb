package db

import (
	stdErrors "errors"
	"strings"

	pkgerrors "github.com/angelmondragon/tms-backend/pkg/errors"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// IsUniqueViolation reports whether the provided error references a unique
// constraint violation. When constraintName is provided, the helper looks for
// the constraint text in the error message.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" && !strings.Contains(msg, constraintName) {
		return false
	}
	if pgCode(err) == pgUniqueViolation {
		return true
	}
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed")
}

// IsForeignKeyViolation reports whether err is a referential integrity failure.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	if pgCode(err) == pgForeignKeyViolation {
		return true
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// Classify converts a store error into the typed error taxonomy. Unique
// violations become conflicts, missing rows become not found, and everything
// else is a persistence error carrying the store diagnostics.
func Classify(err error, message string) error {
	if err == nil {
		return nil
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	switch {
	case stdErrors.Is(err, gorm.ErrRecordNotFound):
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, message)
	case IsUniqueViolation(err, ""):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, message)
	}
	return pkgerrors.Wrap(pkgerrors.CodePersistence, err, message).WithDetails(persistenceDetails(err))
}

func persistenceDetails(err error) map[string]any {
	details := map[string]any{"cause": pkgerrors.Root(err)}
	pg, ok := pkgerrors.Postgres(err)
	if !ok {
		return details
	}
	for key, value := range map[string]string{
		"pg_code":    pg.Code,
		"constraint": pg.Constraint,
		"table":      pg.Table,
		"column":     pg.Column,
		"detail":     pg.Detail,
	} {
		if value != "" {
			details[key] = value
		}
	}
	return details
}

func pgCode(err error) string {
	pg, _ := pkgerrors.Postgres(err)
	return pg.Code
}
