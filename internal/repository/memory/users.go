package memory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nanobananary/studio-api/internal/infrastructure/observability"
	"github.com/nanobananary/studio-api/internal/models"
	pkgerrors "github.com/nanobananary/studio-api/pkg/errors"
)

const maxUsernameLength = 50

type UserRepository struct {
	s *Store
}

// conflict reports which unique field of candidate is already taken by another user.
func (s *Store) conflict(id int64, username, phone, email string) error {
	for _, u := range s.users {
		if u.ID == id {
			continue
		}
		switch {
		case username != "" && u.Username == username:
			return pkgerrors.ErrUsernameExists
		case phone != "" && u.Phone == phone:
			return pkgerrors.ErrPhoneExists
		case email != "" && u.Email == email:
			return pkgerrors.ErrEmailExists
		}
	}
	return nil
}

func validateUser(user *models.User) error {
	if user == nil {
		return pkgerrors.ErrNilUser
	}
	if user.Username == "" {
		return fmt.Errorf("%w: username is required", pkgerrors.ErrInvalidInput)
	}
	if len(user.Username) > maxUsernameLength {
		return fmt.Errorf("%w: username too long", pkgerrors.ErrInvalidInput)
	}
	if user.Phone == "" || user.PasswordHash == "" {
		return fmt.Errorf("%w: phone and password are required", pkgerrors.ErrInvalidInput)
	}
	if user.Credits < 0 {
		return pkgerrors.ErrInvalidAmount
	}
	return nil
}

// insertLocked stores a new user. The caller holds s.mu.
func (s *Store) insertLocked(user *models.User) error {
	if err := s.conflict(0, user.Username, user.Phone, user.Email); err != nil {
		slog.Warn("user already exists", "username", user.Username, "error", err)
		return err
	}
	if user.Status == "" {
		user.Status = models.UserStatusActive
	}
	now := s.now()
	user.ID = s.nextUserID
	user.CreatedAt = now
	user.UpdatedAt = now
	s.nextUserID++

	stored := *user
	s.users[user.ID] = &stored
	s.dirty = true
	return nil
}

func (r *UserRepository) Create(_ context.Context, user *models.User) error {
	if err := validateUser(user); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.insertLocked(user); err != nil {
		return err
	}
	slog.Info("user created", "method", "Create", "user_id", user.ID, "username", user.Username)
	return nil
}

// CreateWithGrant stores the user and its opening ledger entry under one lock.
func (r *UserRepository) CreateWithGrant(_ context.Context, user *models.User, grant *models.CreditTransaction) error {
	if err := validateUser(user); err != nil {
		return err
	}
	if grant == nil || grant.Type != models.TypeCharge || grant.Amount <= 0 {
		return fmt.Errorf("%w: opening grant must be a positive charge", pkgerrors.ErrInvalidAmount)
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.insertLocked(user); err != nil {
		return err
	}
	grant.UserID = user.ID
	if err := r.s.applyLocked(grant); err != nil {
		delete(r.s.users, user.ID)
		slog.Error("failed to apply opening grant", "method", "CreateWithGrant", "user_id", user.ID, "error", err)
		return err
	}
	user.Credits = grant.Balance

	observability.LedgerEntries.WithLabelValues(string(grant.Type)).Inc()
	slog.Info("user created", "method", "CreateWithGrant", "user_id", user.ID, "username", user.Username, "credits", user.Credits)
	return nil
}

func (r *UserRepository) find(match func(*models.User) bool) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if match(u) {
			found := *u
			return &found, nil
		}
	}
	return nil, pkgerrors.ErrUserNotFound
}

func (r *UserRepository) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, pkgerrors.ErrUserNotFound
	}
	found := *u
	return &found, nil
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (*models.User, error) {
	if username == "" {
		return nil, pkgerrors.ErrUserNotFound
	}
	return r.find(func(u *models.User) bool { return u.Username == username })
}

func (r *UserRepository) GetByPhone(_ context.Context, phone string) (*models.User, error) {
	if phone == "" {
		return nil, pkgerrors.ErrUserNotFound
	}
	return r.find(func(u *models.User) bool { return u.Phone == phone })
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if email == "" {
		return nil, pkgerrors.ErrUserNotFound
	}
	return r.find(func(u *models.User) bool { return u.Email == email })
}

func (r *UserRepository) UpdateProfile(_ context.Context, id int64, upd models.ProfileUpdate) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, pkgerrors.ErrUserNotFound
	}
	var username, phone, email string
	if upd.Username != nil {
		username = *upd.Username
	}
	if upd.Phone != nil {
		phone = *upd.Phone
	}
	if upd.Email != nil {
		email = *upd.Email
	}
	if err := r.s.conflict(id, username, phone, email); err != nil {
		return nil, err
	}

	if upd.Username != nil {
		u.Username = *upd.Username
	}
	if upd.Phone != nil {
		u.Phone = *upd.Phone
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.AvatarURL != nil {
		u.AvatarURL = *upd.AvatarURL
	}
	u.UpdatedAt = r.s.now()
	r.s.dirty = true

	slog.Info("profile updated", "method", "UpdateProfile", "user_id", id)
	updated := *u
	return &updated, nil
}

func (r *UserRepository) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return pkgerrors.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = r.s.now()
	r.s.dirty = true

	slog.Info("password updated", "method", "UpdatePassword", "user_id", id)
	return nil
}
