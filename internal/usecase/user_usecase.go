package usecase

import (
	"context"
	"strings"

	"github.com/nguyentranbao-ct/team-chat/internal/models"
	"github.com/nguyentranbao-ct/team-chat/internal/repo/mongodb"
)

type DirectoryPage struct {
	Total int64         `json:"total"`
	Users []models.User `json:"users"`
}

type UserUsecase interface {
	GetUser(ctx context.Context, id models.ObjectID) (*models.User, error)
	// SyncProfile stores the identity provider's view of the caller.
	SyncProfile(ctx context.Context, user models.User) (*models.User, error)
	Directory(ctx context.Context, query string, limit, offset int) (*DirectoryPage, error)
}

type userUsecase struct {
	users mongodb.UserRepository
}

func NewUserUsecase(users mongodb.UserRepository) UserUsecase {
	return &userUsecase{users: users}
}

func (uc *userUsecase) GetUser(ctx context.Context, id models.ObjectID) (*models.User, error) {
	return uc.users.GetByID(ctx, id)
}

func (uc *userUsecase) SyncProfile(ctx context.Context, user models.User) (*models.User, error) {
	user.Name = strings.TrimSpace(user.Name)
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	return uc.users.Upsert(ctx, user)
}

func (uc *userUsecase) Directory(ctx context.Context, query string, limit, offset int) (*DirectoryPage, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	page, err := uc.users.Search(ctx, strings.TrimSpace(query), limit, max(offset, 0))
	if err != nil {
		return nil, err
	}
	return &DirectoryPage{Total: page.Total, Users: page.Data}, nil
}
