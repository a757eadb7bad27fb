package users

import (
	"strings"

	"github.com/angelmondragon/tms-backend/pkg/config"
	"github.com/angelmondragon/tms-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/tms-backend/pkg/db/types"
	"github.com/angelmondragon/tms-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tms-backend/pkg/errors"
	"github.com/angelmondragon/tms-backend/pkg/security"
	"github.com/google/uuid"
)

// CreateUserInput is the administrator payload for a new account. Office
// roles normally get a password; drivers and agents sign in with emailed
// codes and may omit it.
type CreateUserInput struct {
	Email         string     `json:"email" validate:"required,email"`
	FirstName     string     `json:"firstName" validate:"required"`
	MiddleName    *string    `json:"middleName"`
	LastName      string     `json:"lastName" validate:"required"`
	IDNumber      *string    `json:"idNumber"`
	ContactNumber *string    `json:"contactNumber"`
	WhatsApp      *string    `json:"whatsapp"`
	Address       *string    `json:"address"`
	Role          enums.Role `json:"role" validate:"required"`
	Permissions   []string   `json:"permissions"`
	Password      *string    `json:"password" validate:"omitempty,min=8"`

	passwordHash *string
}

func (in *CreateUserInput) hashPassword(cfg config.PasswordConfig) error {
	hash, err := hashOptional(in.Password, cfg)
	in.passwordHash = hash
	return err
}

func (in *CreateUserInput) Build(id uuid.UUID) (*models.User, error) {
	if !in.Role.IsValid() {
		return nil, invalidField("role")
	}
	perms, err := parsePermissions(in.Permissions)
	if err != nil {
		return nil, err
	}
	return &models.User{
		ID:            id,
		Email:         NormalizeEmail(in.Email),
		FirstName:     in.FirstName,
		MiddleName:    in.MiddleName,
		LastName:      in.LastName,
		IDNumber:      in.IDNumber,
		ContactNumber: in.ContactNumber,
		WhatsApp:      in.WhatsApp,
		Address:       in.Address,
		PasswordHash:  in.passwordHash,
		Role:          in.Role,
		Permissions:   perms,
	}, nil
}

// UpdateUserInput changes an account. Absent fields are left as is.
type UpdateUserInput struct {
	Email         *string     `json:"email" validate:"omitempty,email"`
	FirstName     *string     `json:"firstName" validate:"omitempty,min=1"`
	MiddleName    *string     `json:"middleName"`
	LastName      *string     `json:"lastName" validate:"omitempty,min=1"`
	IDNumber      *string     `json:"idNumber"`
	ContactNumber *string     `json:"contactNumber"`
	WhatsApp      *string     `json:"whatsapp"`
	Address       *string     `json:"address"`
	Role          *enums.Role `json:"role"`
	Permissions   []string    `json:"permissions"`
	Password      *string     `json:"password" validate:"omitempty,min=8"`

	passwordHash *string
}

func (in *UpdateUserInput) hashPassword(cfg config.PasswordConfig) error {
	hash, err := hashOptional(in.Password, cfg)
	in.passwordHash = hash
	return err
}

func (in *UpdateUserInput) Columns() (map[string]any, error) {
	cols := map[string]any{}
	if in.Email != nil {
		cols["email"] = NormalizeEmail(*in.Email)
	}
	if in.FirstName != nil {
		cols["first_name"] = *in.FirstName
	}
	if in.MiddleName != nil {
		cols["middle_name"] = *in.MiddleName
	}
	if in.LastName != nil {
		cols["last_name"] = *in.LastName
	}
	if in.IDNumber != nil {
		cols["id_number"] = *in.IDNumber
	}
	if in.ContactNumber != nil {
		cols["contact_number"] = *in.ContactNumber
	}
	if in.WhatsApp != nil {
		cols["whatsapp"] = *in.WhatsApp
	}
	if in.Address != nil {
		cols["address"] = *in.Address
	}
	if in.Role != nil {
		if !in.Role.IsValid() {
			return nil, invalidField("role")
		}
		cols["role"] = *in.Role
	}
	if in.Permissions != nil {
		perms, err := parsePermissions(in.Permissions)
		if err != nil {
			return nil, err
		}
		cols["permissions"] = perms
	}
	if in.passwordHash != nil {
		cols["password_hash"] = *in.passwordHash
	}
	return cols, nil
}

// NormalizeEmail trims and lowercases an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashOptional(password *string, cfg config.PasswordConfig) (*string, error) {
	if password == nil {
		return nil, nil
	}
	hash, err := security.HashPassword(*password, cfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid password")
	}
	return &hash, nil
}

func parsePermissions(values []string) (dbtypes.StringArray, error) {
	perms, err := enums.ParsePermissions(values)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed").
			WithDetails(map[string]string{"permissions": err.Error()})
	}
	out := make(dbtypes.StringArray, 0, len(perms))
	for _, p := range perms {
		out = append(out, string(p))
	}
	return out, nil
}

func invalidField(field string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
		WithDetails(map[string]string{field: "is invalid"})
}
