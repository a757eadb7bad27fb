package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tms-backend/internal/listing"
	"github.com/angelmondragon/tms-backend/internal/repo"
	"github.com/angelmondragon/tms-backend/pkg/db/models"
)

// Repository is the generic user CRUD plus the sign-in bookkeeping the auth
// service needs.
type Repository struct {
	*repo.CRUD[models.User]
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{CRUD: repo.NewCRUD[models.User](db, listing.Users, nil)}
}

// FindByEmail matches case-insensitively.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.DB(ctx).Where("LOWER(email) = ?", NormalizeEmail(email)).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) users(db *gorm.DB, id uuid.UUID) *gorm.DB {
	return db.Model(&models.User{}).Where("id = ?", id)
}

// SetAuthCodeTx replaces any pending sign-in code with hash.
func (r *Repository) SetAuthCodeTx(tx *gorm.DB, id uuid.UUID, hash string, expiresAt time.Time) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return r.users(tx, id).UpdateColumns(map[string]any{
		"auth_code_hash":       hash,
		"auth_code_expires_at": expiresAt,
	}).Error
}

// ConsumeAuthCode clears the pending code and records the login, but only
// while hash is still the stored code. It reports false when another request
// consumed or replaced the code first.
func (r *Repository) ConsumeAuthCode(ctx context.Context, id uuid.UUID, hash string, at time.Time) (bool, error) {
	res := r.users(r.DB(ctx), id).
		Where("auth_code_hash = ?", hash).
		UpdateColumns(map[string]any{
			"auth_code_hash":       nil,
			"auth_code_expires_at": nil,
			"last_login_at":        at,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.users(r.DB(ctx), id).UpdateColumn("last_login_at", at).Error
}
