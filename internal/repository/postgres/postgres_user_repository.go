package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lib/pq"
	"github.com/nanobananary/studio-api/internal/infrastructure/observability"
	"github.com/nanobananary/studio-api/internal/models"
	pkgerrors "github.com/nanobananary/studio-api/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

const (
	maxUsernameLength = 50
	userColumns       = `id, username, phone, COALESCE(email, ''), avatar_url, password_hash, credits, status, created_at, updated_at`
)

type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Phone,
		&user.Email,
		&user.AvatarURL,
		&user.PasswordHash,
		&user.Credits,
		&user.Status,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// uniqueViolation maps a unique constraint failure to the matching domain error.
func uniqueViolation(err error) error {
	var pqErr *pq.Error
	if !stderrors.As(err, &pqErr) || pqErr.Code != "23505" {
		return nil
	}
	switch {
	case strings.Contains(pqErr.Constraint, "phone"):
		return pkgerrors.ErrPhoneExists
	case strings.Contains(pqErr.Constraint, "email"):
		return pkgerrors.ErrEmailExists
	default:
		return pkgerrors.ErrUsernameExists
	}
}

func (r *PostgresUserRepository) Create(ctx context.Context, user *models.User) (err error) {
	ctx, span, finish := startCall(ctx, "user-repository", "CreateUser")
	defer func() { finish(err) }()

	if err = validateUser(user); err != nil {
		slog.Error("failed to create user", "method", "Create", "error", err)
		return err
	}
	span.SetAttributes(attribute.String("username", user.Username))

	if err = insertUser(ctx, r.db, user); err != nil {
		return err
	}

	slog.Info("user created", "method", "Create", "user_id", user.ID, "username", user.Username)
	return nil
}

// CreateWithGrant inserts the user and its opening ledger entry in one transaction.
func (r *PostgresUserRepository) CreateWithGrant(ctx context.Context, user *models.User, grant *models.CreditTransaction) (err error) {
	ctx, span, finish := startCall(ctx, "user-repository", "CreateUserWithGrant")
	defer func() { finish(err) }()

	if err = validateUser(user); err != nil {
		slog.Error("failed to create user", "method", "CreateWithGrant", "error", err)
		return err
	}
	if grant == nil || grant.Type != models.TypeCharge || grant.Amount <= 0 {
		err = fmt.Errorf("%w: opening grant must be a positive charge", pkgerrors.ErrInvalidAmount)
		return err
	}
	span.SetAttributes(attribute.String("username", user.Username), attribute.Int64("grant", grant.Amount))

	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		slog.Error("failed to begin transaction", "method", "CreateWithGrant", "error", err)
		err = fmt.Errorf("failed to begin transaction: %w", err)
		return err
	}

	if err = insertUser(ctx, dbTx, user); err != nil {
		err = rollback(dbTx, "CreateWithGrant", err)
		return err
	}
	grant.UserID = user.ID
	if err = applyInTx(ctx, dbTx, grant); err != nil {
		slog.Error("failed to apply opening grant", "method", "CreateWithGrant", "user_id", user.ID, "error", err)
		err = rollback(dbTx, "CreateWithGrant", err)
		return err
	}
	if err = dbTx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "method", "CreateWithGrant", "error", err)
		err = fmt.Errorf("failed to commit transaction: %w", err)
		return err
	}

	user.Credits = grant.Balance
	observability.LedgerEntries.WithLabelValues(string(grant.Type)).Inc()
	slog.Info("user created", "method", "CreateWithGrant", "user_id", user.ID, "username", user.Username, "credits", user.Credits)
	return nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
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
	if user.Status == "" {
		user.Status = models.UserStatusActive
	}
	return nil
}

func insertUser(ctx context.Context, q queryRower, user *models.User) error {
	query := `INSERT INTO users (username, phone, email, avatar_url, password_hash, credits, status)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`
	err := q.QueryRowContext(ctx, query,
		user.Username,
		user.Phone,
		user.Email,
		user.AvatarURL,
		user.PasswordHash,
		user.Credits,
		user.Status,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if dupErr := uniqueViolation(err); dupErr != nil {
			slog.Warn("user already exists", "username", user.Username, "error", err)
			return dupErr
		}
		slog.Error("failed to create user", "username", user.Username, "error", err)
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *PostgresUserRepository) getOne(ctx context.Context, method, column string, value any) (user *models.User, err error) {
	ctx, _, finish := startCall(ctx, "user-repository", method)
	defer func() {
		if stderrors.Is(err, pkgerrors.ErrUserNotFound) {
			finish(nil)
			return
		}
		finish(err)
	}()

	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s = $1`, userColumns, column)
	user, err = scanUser(r.db.QueryRowContext(ctx, query, value))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.ErrUserNotFound
	}
	if err != nil {
		slog.Error("failed to get user", "method", method, column, value, "error", err)
		return nil, fmt.Errorf("failed to get user by %s: %w", column, err)
	}
	return user, nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, "GetUserByID", "id", id)
}

func (r *PostgresUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if username == "" {
		return nil, pkgerrors.ErrUserNotFound
	}
	return r.getOne(ctx, "GetUserByUsername", "username", username)
}

func (r *PostgresUserRepository) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	if phone == "" {
		return nil, pkgerrors.ErrUserNotFound
	}
	return r.getOne(ctx, "GetUserByPhone", "phone", phone)
}

func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if email == "" {
		return nil, pkgerrors.ErrUserNotFound
	}
	return r.getOne(ctx, "GetUserByEmail", "email", email)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func (r *PostgresUserRepository) UpdateProfile(ctx context.Context, id int64, upd models.ProfileUpdate) (user *models.User, err error) {
	ctx, span, finish := startCall(ctx, "user-repository", "UpdateProfile")
	defer func() { finish(err) }()
	span.SetAttributes(attribute.Int64("user_id", id))

	query := `UPDATE users SET
			username = COALESCE($2, username),
			phone = COALESCE($3, phone),
			email = CASE WHEN $4::text IS NULL THEN email ELSE NULLIF($4, '') END,
			avatar_url = COALESCE($5, avatar_url),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	user, err = scanUser(r.db.QueryRowContext(ctx, query,
		id,
		nullString(upd.Username),
		nullString(upd.Phone),
		nullString(upd.Email),
		nullString(upd.AvatarURL),
	))
	if stderrors.Is(err, sql.ErrNoRows) {
		err = pkgerrors.ErrUserNotFound
		return nil, err
	}
	if err != nil {
		if dupErr := uniqueViolation(err); dupErr != nil {
			err = dupErr
			return nil, err
		}
		slog.Error("failed to update profile", "method", "UpdateProfile", "user_id", id, "error", err)
		err = fmt.Errorf("failed to update profile: %w", err)
		return nil, err
	}

	slog.Info("profile updated", "method", "UpdateProfile", "user_id", id)
	return user, nil
}

func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) (err error) {
	ctx, _, finish := startCall(ctx, "user-repository", "UpdatePassword")
	defer func() { finish(err) }()

	res, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`, passwordHash, id)
	if err != nil {
		slog.Error("failed to update password", "method", "UpdatePassword", "user_id", id, "error", err)
		err = fmt.Errorf("failed to update password: %w", err)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = pkgerrors.ErrUserNotFound
		return err
	}

	slog.Info("password updated", "method", "UpdatePassword", "user_id", id)
	return nil
}
