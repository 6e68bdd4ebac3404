package auth

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/souqly/storefront-backend/internal/users"
	"github.com/souqly/storefront-backend/pkg/config"
	"github.com/souqly/storefront-backend/pkg/db"
	"github.com/souqly/storefront-backend/pkg/db/models"
	pkgerrors "github.com/souqly/storefront-backend/pkg/errors"
	"github.com/souqly/storefront-backend/pkg/logger"
	"github.com/souqly/storefront-backend/pkg/security"
)

// RegisterService opens customer accounts.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error)
}

type welcomeSender interface {
	SendWelcome(ctx context.Context, user *models.User) error
}

type registerRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	UserRepo       registerRepository
	PasswordConfig config.PasswordConfig
	Mailer         welcomeSender
	Logger         *logger.Logger
}

type registerService struct {
	users       registerRepository
	passwordCfg config.PasswordConfig
	mailer      welcomeSender
	logg        *logger.Logger
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.PasswordConfig.MinLength <= 0 {
		params.PasswordConfig.MinLength = 8
	}
	return &registerService{
		users:       params.UserRepo,
		passwordCfg: params.PasswordConfig,
		mailer:      params.Mailer,
		logg:        params.Logger,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error) {
	email := users.NormalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if err := checkPassword(req.Password, s.passwordCfg.MinLength); err != nil {
		return nil, err
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, emailTaken()
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check user email")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.users.Create(ctx, users.CreateUserDTO{
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, emailTaken()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}

	if s.mailer != nil {
		if err := s.mailer.SendWelcome(ctx, user); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "auth.welcome_email_failed")
		}
	}
	return users.FromModel(user), nil
}

func emailTaken() error {
	return pkgerrors.New(pkgerrors.CodeConflict, "email already registered").
		WithDetails(map[string]any{"field": "email"})
}

func checkPassword(password string, minLength int) error {
	if utf8.RuneCountInString(password) < minLength {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("password must be at least %d characters", minLength)).
			WithDetails(map[string]any{"field": "password"})
	}
	return nil
}
