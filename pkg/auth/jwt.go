// Package auth mints and verifies the HS256 access tokens handed out at
// sign-in. The token id (jti) doubles as the Redis session id, which is how
// sign-out revokes a token before it expires.
package auth

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/angelmondragon/tms-backend/pkg/config"
	"github.com/angelmondragon/tms-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const clockSkew = 30 * time.Second

var signingMethod = jwt.SigningMethodHS256

type AccessTokenPayload struct {
	UserID      uuid.UUID
	Role        enums.Role
	Permissions []enums.Permission
	// JTI is generated when blank.
	JTI string
}

type AccessTokenClaims struct {
	UserID      uuid.UUID          `json:"user_id"`
	Role        enums.Role         `json:"role"`
	Permissions []enums.Permission `json:"permissions"`
	jwt.RegisteredClaims
}

// Validate runs after the registered claims checks on every parse, so a
// token whose custom claims were tampered with but re-signed is still
// rejected.
func (c AccessTokenClaims) Validate() error {
	switch {
	case c.UserID == uuid.Nil:
		return errors.New("token has no user")
	case c.Subject != c.UserID.String():
		return errors.New("token subject does not match user")
	case !c.Role.IsValid():
		return fmt.Errorf("token carries unknown role %q", c.Role)
	case c.ID == "":
		return errors.New("token has no id")
	}
	return nil
}

func (c *AccessTokenClaims) HasPermission(p enums.Permission) bool {
	return slices.Contains(c.Permissions, p)
}

func signingKey(cfg config.JWTConfig) ([]byte, error) {
	if cfg.Secret == "" || cfg.Issuer == "" {
		return nil, errors.New("jwt secret and issuer are required")
	}
	return []byte(cfg.Secret), nil
}

// MintAccessToken signs a token valid from now for cfg.TokenTTL().
func MintAccessToken(cfg config.JWTConfig, now time.Time, p AccessTokenPayload) (string, error) {
	key, err := signingKey(cfg)
	if err != nil {
		return "", err
	}
	for _, perm := range p.Permissions {
		if !perm.IsValid() {
			return "", fmt.Errorf("mint token: unknown permission %q", perm)
		}
	}
	jti := strings.TrimSpace(p.JTI)
	if jti == "" {
		jti = uuid.NewString()
	}

	claims := AccessTokenClaims{
		UserID:      p.UserID,
		Role:        p.Role,
		Permissions: p.Permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    cfg.Issuer,
			Subject:   p.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TokenTTL())),
		},
	}
	if err := claims.Validate(); err != nil {
		return "", fmt.Errorf("mint token: %w", err)
	}

	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("mint token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken verifies signature, issuer and expiry. Errors wrap the
// jwt sentinel errors, e.g. jwt.ErrTokenExpired.
func ParseAccessToken(cfg config.JWTConfig, raw string) (*AccessTokenClaims, error) {
	key, err := signingKey(cfg)
	if err != nil {
		return nil, err
	}
	claims := &AccessTokenClaims{}
	_, err = jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return key, nil },
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(clockSkew),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
