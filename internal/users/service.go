// Package users administers staff and driver accounts.
package users

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/tms-backend/internal/listing"
	"github.com/angelmondragon/tms-backend/internal/resources"
	"github.com/angelmondragon/tms-backend/pkg/config"
	"github.com/angelmondragon/tms-backend/pkg/db/models"
	"github.com/angelmondragon/tms-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type passwordHasher interface {
	hashPassword(cfg config.PasswordConfig) error
}

type ServiceParams struct {
	Repo      *Repository
	Tx        txRunner
	Passwords config.PasswordConfig
	Logger    *logger.Logger
	Now       func() time.Time
}

// Service is the user CRUD surface. Passwords are hashed before they reach
// the store.
type Service struct {
	resource  *resources.Service[models.User]
	passwords config.PasswordConfig
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	resource, err := resources.New(resources.Params[models.User]{
		Name:   "user",
		Repo:   params.Repo.CRUD,
		Tx:     params.Tx,
		Logger: params.Logger,
		Now:    params.Now,
	})
	if err != nil {
		return nil, err
	}
	return &Service{resource: resource, passwords: params.Passwords}, nil
}

func (s *Service) Name() string       { return s.resource.Name() }
func (s *Service) Spec() listing.Spec { return s.resource.Spec() }

func (s *Service) Create(ctx context.Context, in resources.Input[models.User]) (*models.User, error) {
	if h, ok := in.(passwordHasher); ok {
		if err := h.hashPassword(s.passwords); err != nil {
			return nil, err
		}
	}
	return s.resource.Create(ctx, in)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.resource.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, patch resources.Patch) (*models.User, error) {
	if h, ok := patch.(passwordHasher); ok {
		if err := h.hashPassword(s.passwords); err != nil {
			return nil, err
		}
	}
	return s.resource.Update(ctx, id, patch)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.resource.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, params listing.Params) (*listing.Page[models.User], error) {
	return s.resource.List(ctx, params)
}
