package users

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/souqly/storefront-backend/pkg/db"
	pkgerrors "github.com/souqly/storefront-backend/pkg/errors"
	"github.com/souqly/storefront-backend/pkg/pagination"
)

// ListUsersInput filters the staff account listing.
type ListUsersInput struct {
	Search string
	Limit  int
	Cursor string
}

// UserListResult is one page of accounts.
type UserListResult struct {
	Users      []UserDTO `json:"users"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

// AdminService exposes account administration to staff.
type AdminService interface {
	ListUsers(ctx context.Context, input ListUsersInput) (*UserListResult, error)
	DeleteUser(ctx context.Context, actorID, userID uuid.UUID) error
}

type adminService struct {
	repo     *Repository
	dbClient *db.Client
}

// NewAdminService constructs the account administration service.
func NewAdminService(repo *Repository, dbClient *db.Client) (AdminService, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &adminService{repo: repo, dbClient: dbClient}, nil
}

func (s *adminService) ListUsers(ctx context.Context, input ListUsersInput) (*UserListResult, error) {
	if _, err := pagination.ParseCursor(input.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, next, err := s.repo.List(ctx, listQuery{
		Pagination: pagination.Params{Limit: input.Limit, Cursor: input.Cursor},
		Search:     input.Search,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	result := &UserListResult{Users: make([]UserDTO, 0, len(rows)), NextCursor: next}
	for i := range rows {
		result.Users = append(result.Users, *FromModel(&rows[i]))
	}
	return result, nil
}

// DeleteUser removes an account. Staff cannot delete their own account.
func (s *adminService) DeleteUser(ctx context.Context, actorID, userID uuid.UUID) error {
	if actorID == userID {
		return pkgerrors.New(pkgerrors.CodeConflict, "you cannot delete your own account")
	}
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		deleted, err := s.repo.WithTx(tx).Delete(ctx, userID)
		if err != nil {
			return err
		}
		if !deleted {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return typed
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete user")
	}
	return nil
}
