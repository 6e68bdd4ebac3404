package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/souqly/storefront-backend/internal/users"
	"github.com/souqly/storefront-backend/pkg/config"
	"github.com/souqly/storefront-backend/pkg/db/models"
	pkgerrors "github.com/souqly/storefront-backend/pkg/errors"
	"github.com/souqly/storefront-backend/pkg/logger"
	"github.com/souqly/storefront-backend/pkg/redis"
	"github.com/souqly/storefront-backend/pkg/security"
)

const (
	resetRequestsPerWindow = 3
	invalidResetMessage    = "invalid or expired reset code"
)

// PasswordResetService issues and redeems emailed password reset codes.
type PasswordResetService interface {
	RequestReset(ctx context.Context, req PasswordResetRequest) error
	ConfirmReset(ctx context.Context, req PasswordResetConfirmRequest) error
}

type resetCodeStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	GetDel(ctx context.Context, key string) (string, error)
	ResetCodeKey(userID string) string
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

type resetUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
}

type resetCodeSender interface {
	SendPasswordResetCode(ctx context.Context, user *models.User, code string, ttl time.Duration) error
}

// PasswordResetParams wires the reset flow.
type PasswordResetParams struct {
	UserRepo       resetUserRepository
	Codes          resetCodeStore
	Mailer         resetCodeSender
	PasswordConfig config.PasswordConfig
	Logger         *logger.Logger
}

type passwordResetService struct {
	users       resetUserRepository
	codes       resetCodeStore
	mailer      resetCodeSender
	passwordCfg config.PasswordConfig
	ttl         time.Duration
	generate    func() (string, error)
	logg        *logger.Logger
}

// NewPasswordResetService builds the reset flow. Codes live for
// PasswordConfig.ResetCodeTTL, 15 minutes when unset.
func NewPasswordResetService(params PasswordResetParams) (PasswordResetService, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Codes == nil {
		return nil, fmt.Errorf("reset code store is required")
	}
	if params.Mailer == nil {
		return nil, fmt.Errorf("mailer is required")
	}
	ttl := params.PasswordConfig.ResetCodeTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	if params.PasswordConfig.MinLength <= 0 {
		params.PasswordConfig.MinLength = 8
	}
	return &passwordResetService{
		users:       params.UserRepo,
		codes:       params.Codes,
		mailer:      params.Mailer,
		passwordCfg: params.PasswordConfig,
		ttl:         ttl,
		generate:    security.GenerateResetCode,
		logg:        params.Logger,
	}, nil
}

// RequestReset never reveals whether the email belongs to an account.
func (s *passwordResetService) RequestReset(ctx context.Context, req PasswordResetRequest) error {
	user, err := s.users.FindByEmail(ctx, users.NormalizeEmail(req.Email))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}
	if !user.IsActive {
		return nil
	}

	allowed, _, err := s.codes.FixedWindowAllow(ctx, "password_reset:"+user.ID.String(), resetRequestsPerWindow, s.ttl)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limit reset")
	}
	if !allowed {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithUserID(ctx, user.ID.String()), "auth.password_reset_throttled")
		}
		return nil
	}

	code, err := s.generate()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate reset code")
	}
	if err := s.codes.Set(ctx, s.codes.ResetCodeKey(user.ID.String()), code, s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store reset code")
	}
	if err := s.mailer.SendPasswordResetCode(ctx, user, code, s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send reset code")
	}
	return nil
}

// ConfirmReset consumes the stored code whether or not it matches, so each
// code gets exactly one attempt.
func (s *passwordResetService) ConfirmReset(ctx context.Context, req PasswordResetConfirmRequest) error {
	if err := checkPassword(req.NewPassword, s.passwordCfg.MinLength); err != nil {
		return err
	}
	user, err := s.users.FindByEmail(ctx, users.NormalizeEmail(req.Email))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return invalidResetCode()
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}

	stored, err := s.codes.GetDel(ctx, s.codes.ResetCodeKey(user.ID.String()))
	if errors.Is(err, redis.Nil) {
		return invalidResetCode()
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reset code")
	}
	if !security.CodesEqual(stored, req.Code) {
		return invalidResetCode()
	}

	hash, err := security.HashPassword(req.NewPassword, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update password")
	}
	return nil
}

func invalidResetCode() error {
	return pkgerrors.New(pkgerrors.CodeValidation, invalidResetMessage).
		WithDetails(map[string]any{"field": "code"})
}
