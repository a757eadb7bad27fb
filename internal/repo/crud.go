package repo

import (
	"context"
	"time"

	"github.com/angelmondragon/tms-backend/internal/listing"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Scope adjusts a query before it loads rows, typically to add preloads.
type Scope func(*gorm.DB) *gorm.DB

// CRUD is a table-backed repository for one model type. Reads apply the
// detail scope so single rows and list pages carry the same relations.
type CRUD[T any] struct {
	db      *gorm.DB
	spec    listing.Spec
	details Scope
}

// NewCRUD binds a model type to its listing spec. details may be nil.
func NewCRUD[T any](db *gorm.DB, spec listing.Spec, details Scope) *CRUD[T] {
	return &CRUD[T]{db: db, spec: spec, details: details}
}

// DB binds the connection to ctx.
func (r *CRUD[T]) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return r.db
	}
	return r.db.WithContext(ctx)
}

// Spec returns the listing contract for the table.
func (r *CRUD[T]) Spec() listing.Spec {
	return r.spec
}

func (r *CRUD[T]) scoped(query *gorm.DB) *gorm.DB {
	if r.details == nil {
		return query
	}
	return r.details(query)
}

// CreateTx inserts model inside tx.
func (r *CRUD[T]) CreateTx(tx *gorm.DB, model *T) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.Create(model).Error
}

// FindByID loads one row with its details.
func (r *CRUD[T]) FindByID(ctx context.Context, id uuid.UUID) (*T, error) {
	var model T
	err := r.scoped(r.DB(ctx)).
		Where(r.spec.Table+".id = ?", id).
		First(&model).Error
	if err != nil {
		return nil, err
	}
	return &model, nil
}

// UpdateTx writes columns to the row. It returns gorm.ErrRecordNotFound when
// the row does not exist.
func (r *CRUD[T]) UpdateTx(tx *gorm.DB, id uuid.UUID, columns map[string]any, at time.Time) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	values := make(map[string]any, len(columns)+1)
	for k, v := range columns {
		values[k] = v
	}
	values["updated_at"] = at

	res := tx.Model(new(T)).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteTx removes the row. It returns gorm.ErrRecordNotFound when nothing
// was deleted.
func (r *CRUD[T]) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	res := tx.Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns one page following the listing contract.
func (r *CRUD[T]) List(ctx context.Context, params listing.Params) (*listing.Page[T], error) {
	return listing.Find[T](ctx, r.db, r.spec, params, r.scoped)
}
