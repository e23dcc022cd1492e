package repository

import (
	"context"

	"github.com/nanobananary/studio-api/internal/models"
)

//go:generate mockgen -source=user_repository.go -destination=mocks/mock_user_repository.go -package=mocks

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	// CreateWithGrant creates the user together with its opening charge entry, atomically.
	CreateWithGrant(ctx context.Context, user *models.User, grant *models.CreditTransaction) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, id int64, upd models.ProfileUpdate) (*models.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}
