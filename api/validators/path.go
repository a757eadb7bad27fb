package validators

import (
	"net/http"
	"strings"

	pkgerrors "github.com/angelmondragon/tms-backend/pkg/errors"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// PathUUID reads a UUID route parameter. An id that cannot name any row is
// reported as not found rather than as a validation failure.
func PathUUID(r *http.Request, key, resource string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, resource+" not found")
	}
	return id, nil
}
