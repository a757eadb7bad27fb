package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/tms-backend/api/middleware"
	"github.com/angelmondragon/tms-backend/api/responses"
	"github.com/angelmondragon/tms-backend/api/validators"
	"github.com/angelmondragon/tms-backend/internal/listing"
	"github.com/angelmondragon/tms-backend/internal/resources"
	"github.com/angelmondragon/tms-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Resource is the CRUD surface shared by the reference entities, jobs and users.
type Resource[T any] interface {
	Name() string
	Spec() listing.Spec
	Create(ctx context.Context, in resources.Input[T]) (*T, error)
	Get(ctx context.Context, id uuid.UUID) (*T, error)
	Update(ctx context.Context, id uuid.UUID, patch resources.Patch) (*T, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params listing.Params) (*listing.Page[T], error)
}

// stamper is implemented by inputs that record the caller (requester, creator).
type stamper interface {
	Stamp(actorID uuid.UUID)
}

// MountResource registers list/create on "/" and get/update/delete on "/{id}".
func MountResource[T, I, P any, PI interface {
	*I
	resources.Input[T]
}, PP interface {
	*P
	resources.Patch
}](r chi.Router, svc Resource[T], logg *logger.Logger, guards ...WriteGuards) {
	var g WriteGuards
	if len(guards) > 0 {
		g = guards[0]
	}
	r.Get("/", ListResource[T](svc, logg))
	guarded(r, g.Create).Post("/", CreateResource[T, I, PI](svc, logg))
	r.Get("/{id}", GetResource[T](svc, logg))
	guarded(r, g.Update).Put("/{id}", UpdateResource[T, P, PP](svc, logg))
	guarded(r, g.Delete).Delete("/{id}", DeleteResource[T](svc, logg))
}

// WriteGuards gate the mutating routes of a resource. A nil guard leaves the
// route open to any authenticated caller.
type WriteGuards struct {
	Create func(http.Handler) http.Handler
	Update func(http.Handler) http.Handler
	Delete func(http.Handler) http.Handler
}

// AllWrites applies one guard to create, update and delete.
func AllWrites(guard func(http.Handler) http.Handler) WriteGuards {
	return WriteGuards{Create: guard, Update: guard, Delete: guard}
}

func guarded(r chi.Router, guard func(http.Handler) http.Handler) chi.Router {
	if guard == nil {
		return r
	}
	return r.With(guard)
}

func ListResource[T any](svc Resource[T], logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := svc.Spec().ParseQuery(r.URL.Query())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func GetResource[T any](svc Resource[T], logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(r, "id", svc.Name())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func CreateResource[T, I any, PI interface {
	*I
	resources.Input[T]
}](svc Resource[T], logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body I
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := PI(&body)
		if s, ok := any(input).(stamper); ok {
			s.Stamp(middleware.UserIDFromContext(r.Context()))
		}
		item, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

func UpdateResource[T, P any, PP interface {
	*P
	resources.Patch
}](svc Resource[T], logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(r, "id", svc.Name())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body P
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.Update(r.Context(), id, PP(&body))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func DeleteResource[T any](svc Resource[T], logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(r, "id", svc.Name())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
