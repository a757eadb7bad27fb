// Package auth signs users in. Drivers and agents receive a one-time code by
// email; office roles use a password. Every token is backed by a Redis session
// keyed by its jti.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/tms-backend/internal/users"
	pkgAuth "github.com/angelmondragon/tms-backend/pkg/auth"
	"github.com/angelmondragon/tms-backend/pkg/auth/session"
	"github.com/angelmondragon/tms-backend/pkg/config"
	"github.com/angelmondragon/tms-backend/pkg/db/models"
	"github.com/angelmondragon/tms-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tms-backend/pkg/errors"
	"github.com/angelmondragon/tms-backend/pkg/logger"
	"github.com/angelmondragon/tms-backend/pkg/outbox"
	"github.com/angelmondragon/tms-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/tms-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	invalidCredentialsMessage = "invalid credentials"
	invalidCodeMessage        = "invalid or expired code"
	codeRequestedMessage      = "if the account can sign in with a code, one has been sent"

	authCodeDigits     = 6
	defaultAuthCodeTTL = 15 * time.Minute
)

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	SetAuthCodeTx(tx *gorm.DB, id uuid.UUID, hash string, expiresAt time.Time) error
	ConsumeAuthCode(ctx context.Context, id uuid.UUID, hash string, at time.Time) (bool, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type sessionManager interface {
	Start(ctx context.Context, accessID string, userID uuid.UUID) error
	Revoke(ctx context.Context, accessID string) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.Event) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo       userRepository
	SessionManager sessionManager
	Tx             txRunner
	Outbox         outboxPublisher
	JWTConfig      config.JWTConfig
	Passwords      config.PasswordConfig
	AuthCodeTTL    time.Duration
	Logger         *logger.Logger
	Now            func() time.Time
}

// Service implements the sign-in flows used by the auth controller.
type Service struct {
	users     userRepository
	session   sessionManager
	tx        txRunner
	outbox    outboxPublisher
	jwtCfg    config.JWTConfig
	passwords config.PasswordConfig
	codeTTL   time.Duration
	logg      *logger.Logger
	now       func() time.Time
}

// NewService constructs the auth service with the provided dependencies.
func NewService(params ServiceParams) (*Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher is required")
	}
	svc := &Service{
		users:     params.UserRepo,
		session:   params.SessionManager,
		tx:        params.Tx,
		outbox:    params.Outbox,
		jwtCfg:    params.JWTConfig,
		passwords: params.Passwords,
		codeTTL:   params.AuthCodeTTL,
		logg:      params.Logger,
		now:       params.Now,
	}
	if svc.codeTTL <= 0 {
		svc.codeTTL = defaultAuthCodeTTL
	}
	if svc.logg == nil {
		svc.logg = logger.Nop()
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc, nil
}

// RequestCode issues a one-time code to a driver or agent. The response is
// the same for unknown addresses and ineligible roles.
func (s *Service) RequestCode(ctx context.Context, req RequestCodeRequest) (*CodeRequestedResponse, error) {
	resp := &CodeRequestedResponse{Message: codeRequestedMessage}

	user, err := s.lookup(ctx, req.Email)
	if err != nil {
		if pkgerrors.Is(err, pkgerrors.CodeUnauthorized) {
			return resp, nil
		}
		return nil, err
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"user_id": user.ID.String(),
		"role":    user.Role,
	})
	if !usesAuthCode(user.Role) {
		s.logg.Warn(logCtx, "auth code requested for ineligible role")
		return resp, nil
	}

	code, err := security.GenerateNumericCode(authCodeDigits)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate auth code")
	}
	hash, err := security.HashPassword(code, s.passwords)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash auth code")
	}
	now := s.now().UTC()
	expiresAt := now.Add(s.codeTTL)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.users.SetAuthCodeTx(tx, user.ID, hash, expiresAt); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.Event{
			EventType:     enums.EventNotificationRequested,
			AggregateType: enums.AggregateUser,
			AggregateID:   user.ID,
			OccurredAt:    now,
			Data: payloads.NotificationRequestedEvent{
				UserID:   user.ID,
				Channel:  payloads.NotificationChannelEmail,
				Template: payloads.TemplateAuthCode,
				To:       user.Email,
				Params: map[string]string{
					"code":      code,
					"expiresAt": expiresAt.Format(time.RFC3339),
				},
			},
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store auth code")
	}
	s.logg.Info(logCtx, "auth code issued")
	return resp, nil
}

// VerifyCode exchanges a valid, unexpired code for a token. The code is
// single use.
func (s *Service) VerifyCode(ctx context.Context, req VerifyCodeRequest) (*LoginResponse, error) {
	user, err := s.lookup(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if !usesAuthCode(user.Role) || user.AuthCodeHash == nil || user.AuthCodeExpiresAt == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCodeMessage)
	}
	if !now.Before(*user.AuthCodeExpiresAt) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCodeMessage)
	}
	valid, err := security.VerifyPassword(strings.TrimSpace(req.Code), *user.AuthCodeHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify auth code")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCodeMessage)
	}

	consumed, err := s.users.ConsumeAuthCode(ctx, user.ID, *user.AuthCodeHash, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "consume auth code")
	}
	if !consumed {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCodeMessage)
	}
	user.AuthCodeHash = nil
	user.AuthCodeExpiresAt = nil
	user.LastLoginAt = &now
	return s.issue(ctx, user, now)
}

// Login signs a user in with a password.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.lookup(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if user.PasswordHash == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	valid, err := security.VerifyPassword(req.Password, *user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	now := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	user.LastLoginAt = &now
	return s.issue(ctx, user, now)
}

// Logout revokes the session behind the caller's token.
func (s *Service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session")
	}
	if err := s.session.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *Service) lookup(ctx context.Context, email string) (*models.User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	user, err := s.users.FindByEmail(ctx, users.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	return user, nil
}

func (s *Service) issue(ctx context.Context, user *models.User, now time.Time) (*LoginResponse, error) {
	perms := make([]enums.Permission, 0, len(user.Permissions))
	for _, p := range user.Permissions {
		perms = append(perms, enums.Permission(p))
	}
	accessID := session.NewAccessID()
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID:      user.ID,
		Role:        user.Role,
		Permissions: perms,
		JTI:         accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	if err := s.session.Start(ctx, accessID, user.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store session")
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"user_id": user.ID.String(),
		"role":    user.Role,
	}), "user signed in")
	return &LoginResponse{Token: token, User: user}, nil
}

func usesAuthCode(role enums.Role) bool {
	return role == enums.RoleDriver || role == enums.RoleAgent
}
