// Package resources serves the reference entities (clients, sites, equipment,
// procedures...) through one generic create/read/update/delete/list service.
package resources

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/tms-backend/internal/listing"
	"github.com/angelmondragon/tms-backend/internal/repo"
	"github.com/angelmondragon/tms-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/tms-backend/pkg/errors"
	"github.com/angelmondragon/tms-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Input builds a new row from a create request. The id is generated by the
// service so related rows can be written in the same transaction.
type Input[T any] interface {
	Build(id uuid.UUID) (*T, error)
}

// Patch describes a partial update as column assignments.
type Patch interface {
	Columns() (map[string]any, error)
}

// Associator is implemented by inputs that also write join or child rows.
type Associator interface {
	Associate(tx *gorm.DB, id uuid.UUID) error
}

// Params wires a resource service.
type Params[T any] struct {
	Name   string
	Repo   *repo.CRUD[T]
	Tx     txRunner
	Logger *logger.Logger
	Now    func() time.Time
}

// Service implements CRUD and listing for one entity.
type Service[T any] struct {
	name string
	repo *repo.CRUD[T]
	tx   txRunner
	logg *logger.Logger
	now  func() time.Time
}

// New validates dependencies and builds the service.
func New[T any](params Params[T]) (*Service[T], error) {
	if params.Name == "" {
		return nil, fmt.Errorf("resource name required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("%s repository required", params.Name)
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service[T]{name: params.Name, repo: params.Repo, tx: params.Tx, logg: logg, now: now}, nil
}

// Name is the singular entity name used in messages.
func (s *Service[T]) Name() string {
	return s.name
}

// Spec exposes the listing contract so handlers can parse list queries.
func (s *Service[T]) Spec() listing.Spec {
	return s.repo.Spec()
}

func (s *Service[T]) Create(ctx context.Context, in Input[T]) (*T, error) {
	id := uuid.New()
	model, err := in.Build(id)
	if err != nil {
		return nil, err
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, model); err != nil {
			return err
		}
		if assoc, ok := in.(Associator); ok {
			return assoc.Associate(tx, id)
		}
		return nil
	})
	if err != nil {
		return nil, db.Classify(err, "create "+s.name)
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"resource": s.name, "id": id.String()}), "resource created")
	return s.Get(ctx, id)
}

func (s *Service[T]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	model, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.classify(err, "load")
	}
	return model, nil
}

func (s *Service[T]) Update(ctx context.Context, id uuid.UUID, patch Patch) (*T, error) {
	columns, err := patch.Columns()
	if err != nil {
		return nil, err
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.UpdateTx(tx, id, columns, s.now().UTC()); err != nil {
			return err
		}
		if assoc, ok := patch.(Associator); ok {
			return assoc.Associate(tx, id)
		}
		return nil
	})
	if err != nil {
		return nil, s.classify(err, "update")
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"resource": s.name, "id": id.String()}), "resource updated")
	return s.Get(ctx, id)
}

func (s *Service[T]) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.DeleteTx(tx, id)
	})
	if err != nil {
		return s.classify(err, "delete")
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"resource": s.name, "id": id.String()}), "resource deleted")
	return nil
}

func (s *Service[T]) List(ctx context.Context, params listing.Params) (*listing.Page[T], error) {
	page, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, db.Classify(err, "list "+s.name)
	}
	return page, nil
}

func (s *Service[T]) classify(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, s.name+" not found")
	}
	return db.Classify(err, op+" "+s.name)
}
