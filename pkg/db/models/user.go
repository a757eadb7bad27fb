package models

import (
	"time"

	dbtypes "github.com/angelmondragon/tms-backend/pkg/db/types"
	"github.com/angelmondragon/tms-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents the canonical identity entity. Drivers sign in with an
// emailed auth code; office roles use a password.
type User struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Email             string              `gorm:"column:email;type:text;not null;uniqueIndex" json:"email"`
	FirstName         string              `gorm:"column:first_name;not null" json:"firstName"`
	MiddleName        *string             `gorm:"column:middle_name" json:"middleName"`
	LastName          string              `gorm:"column:last_name;not null" json:"lastName"`
	IDNumber          *string             `gorm:"column:id_number" json:"idNumber"`
	ContactNumber     *string             `gorm:"column:contact_number" json:"contactNumber"`
	WhatsApp          *string             `gorm:"column:whatsapp" json:"whatsapp"`
	Address           *string             `gorm:"column:address" json:"address"`
	PasswordHash      *string             `gorm:"column:password_hash" json:"-"`
	AuthCodeHash      *string             `gorm:"column:auth_code_hash" json:"-"`
	AuthCodeExpiresAt *time.Time          `gorm:"column:auth_code_expires_at" json:"-"`
	Role              enums.Role          `gorm:"column:role;type:role_enum;not null" json:"role"`
	Permissions       dbtypes.StringArray `gorm:"column:permissions;type:text[];not null" json:"permissions"`
	LastLoginAt       *time.Time          `gorm:"column:last_login_at" json:"lastLoginAt,omitempty"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	assignID(&u.ID)
	return nil
}

// HasPermission reports whether the user carries the permission.
func (u User) HasPermission(p enums.Permission) bool {
	return u.Permissions.Contains(string(p))
}
