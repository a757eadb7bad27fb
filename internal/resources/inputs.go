package resources

import (
	pkgerrors "github.com/angelmondragon/tms-backend/pkg/errors"
	"github.com/google/uuid"
)

type enumValue interface {
	IsValid() bool
}

// invalidField mirrors the body validator's detail shape.
func invalidField(field, message string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
		WithDetails(map[string]string{field: message})
}

func checkEnum(field string, v enumValue) error {
	if !v.IsValid() {
		return invalidField(field, "is invalid")
	}
	return nil
}

// columns accumulates non-nil patch fields.
type columns map[string]any

func set[V any](c columns, column string, v *V) {
	if v != nil {
		c[column] = *v
	}
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
