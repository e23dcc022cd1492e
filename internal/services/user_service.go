package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nanobananary/studio-api/internal/models"
	"github.com/nanobananary/studio-api/internal/repository"
	pkgerrors "github.com/nanobananary/studio-api/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/crypto/bcrypt"
)

// ProfileInput is a profile change. NewPassword is applied only together with
// a matching CurrentPassword.
type ProfileInput struct {
	models.ProfileUpdate
	CurrentPassword string
	NewPassword     string
}

type UserService interface {
	GetProfile(ctx context.Context, userID int64) (*models.User, error)
	UpdateProfile(ctx context.Context, userID int64, in ProfileInput) (*models.User, error)
	ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *userService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetProfile(ctx context.Context, userID int64) (*models.User, error) {
	tracer := otel.Tracer("user-service")
	ctx, span := tracer.Start(ctx, "GetProfile")
	defer span.End()

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "user lookup failed")
		slog.Error("failed to get profile", "user_id", userID, "error", err)
		return nil, err
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID int64, in ProfileInput) (*models.User, error) {
	tracer := otel.Tracer("user-service")
	ctx, span := tracer.Start(ctx, "UpdateProfile")
	defer span.End()

	upd := in.ProfileUpdate
	if upd.Username != nil {
		trimmed := strings.TrimSpace(*upd.Username)
		if err := validateUsername(trimmed); err != nil {
			span.SetStatus(codes.Error, "invalid username")
			return nil, err
		}
		upd.Username = &trimmed
	}
	if upd.Phone != nil {
		if err := validatePhone(*upd.Phone); err != nil {
			span.SetStatus(codes.Error, "invalid phone")
			return nil, err
		}
	}
	if upd.Email != nil && *upd.Email != "" {
		if err := validateEmail(*upd.Email); err != nil {
			span.SetStatus(codes.Error, "invalid email")
			return nil, err
		}
	}

	var newHash string
	if in.NewPassword != "" {
		if in.CurrentPassword == "" {
			span.SetStatus(codes.Error, "current password missing")
			return nil, fmt.Errorf("%w: current password required", pkgerrors.ErrInvalidInput)
		}
		hash, err := s.hashReplacement(ctx, userID, in.CurrentPassword, in.NewPassword)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "password check failed")
			return nil, err
		}
		newHash = hash
	}

	// Пароль меняем только после успешного обновления профиля
	user, err := s.userRepo.UpdateProfile(ctx, userID, upd)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "profile update failed")
		slog.Warn("failed to update profile", "user_id", userID, "error", err)
		return nil, err
	}

	if newHash != "" {
		if err := s.userRepo.UpdatePassword(ctx, userID, newHash); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "password update failed")
			slog.Error("failed to update password", "user_id", userID, "error", err)
			return nil, err
		}
		user.PasswordHash = newHash
		slog.Info("password changed", "user_id", userID)
	}

	slog.Info("profile updated", "user_id", userID)
	return user, nil
}

// hashReplacement checks currentPassword against the stored hash and returns
// the bcrypt hash of newPassword. Nothing is written.
func (s *userService) hashReplacement(ctx context.Context, userID int64, currentPassword, newPassword string) (string, error) {
	if err := validatePassword(newPassword); err != nil {
		return "", err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		slog.Warn("wrong current password", "user_id", userID)
		return "", pkgerrors.ErrInvalidPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%w: failed to hash password", pkgerrors.ErrInternal)
	}
	return string(hash), nil
}

func (s *userService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	tracer := otel.Tracer("user-service")
	ctx, span := tracer.Start(ctx, "ChangePassword")
	defer span.End()

	hash, err := s.hashReplacement(ctx, userID, currentPassword, newPassword)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "password check failed")
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "password update failed")
		slog.Error("failed to update password", "user_id", userID, "error", err)
		return err
	}

	slog.Info("password changed", "user_id", userID)
	return nil
}
