package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	stderrors "errors"

	"github.com/nanobananary/studio-api/internal/infrastructure/auth"
	"github.com/nanobananary/studio-api/internal/infrastructure/kafka"
	"github.com/nanobananary/studio-api/internal/infrastructure/notify"
	"github.com/nanobananary/studio-api/internal/infrastructure/redis"
	"github.com/nanobananary/studio-api/internal/models"
	"github.com/nanobananary/studio-api/internal/repository"
	pkgerrors "github.com/nanobananary/studio-api/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/crypto/bcrypt"
)

const (
	LoginByUsername = "username"
	LoginByPhone    = "phone"
	LoginByEmail    = "email"

	CodeLogin    = "login"
	CodeRegister = "register"
	CodeReset    = "reset"

	codeTTL       = 5 * time.Minute
	codeRateLimit = 60 * time.Second
)

type RegisterInput struct {
	Username        string
	Phone           string
	Email           string
	Password        string
	ConfirmPassword string
}

type LoginInput struct {
	LoginType        string
	Identifier       string
	Password         string
	VerificationCode string
}

type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, in LoginInput) (*AuthResult, error)
	// SendVerificationCode returns the code itself only in development mode.
	SendVerificationCode(ctx context.Context, target, purpose string) (string, error)
	ResetPassword(ctx context.Context, target, code, newPassword string) error
	Logout(ctx context.Context, userID int64) error
}

type authService struct {
	userRepo          repository.UserRepository
	redisClient       redis.RedisClient
	tokens            *auth.TokenManager
	sender            notify.CodeSender
	events            EventPublisher
	registrationBonus int64
	devMode           bool
}

func NewAuthService(
	userRepo repository.UserRepository,
	redisClient redis.RedisClient,
	tokens *auth.TokenManager,
	sender notify.CodeSender,
	events EventPublisher,
	registrationBonus int64,
	devMode bool,
) *authService {
	return &authService{
		userRepo:          userRepo,
		redisClient:       redisClient,
		tokens:            tokens,
		sender:            sender,
		events:            events,
		registrationBonus: registrationBonus,
		devMode:           devMode,
	}
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	tracer := otel.Tracer("auth-service")
	ctx, span := tracer.Start(ctx, "Register")
	defer span.End()

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := validateUsername(in.Username); err != nil {
		span.SetStatus(codes.Error, "invalid username")
		return nil, err
	}
	if err := validatePhone(in.Phone); err != nil {
		span.SetStatus(codes.Error, "invalid phone")
		return nil, err
	}
	if in.Email != "" {
		if err := validateEmail(in.Email); err != nil {
			span.SetStatus(codes.Error, "invalid email")
			return nil, err
		}
	}
	if err := validatePassword(in.Password); err != nil {
		span.SetStatus(codes.Error, "invalid password")
		return nil, err
	}
	if in.Password != in.ConfirmPassword {
		span.SetStatus(codes.Error, "passwords do not match")
		return nil, fmt.Errorf("%w: passwords do not match", pkgerrors.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "password hashing failed")
		slog.Error("failed to hash password", "username", in.Username, "error", err)
		return nil, fmt.Errorf("%w: failed to hash password", pkgerrors.ErrInternal)
	}

	user := &models.User{
		Username:     in.Username,
		Phone:        in.Phone,
		Email:        in.Email,
		PasswordHash: string(hash),
		Status:       models.UserStatusActive,
	}
	var grant *models.CreditTransaction
	if s.registrationBonus > 0 {
		grant = &models.CreditTransaction{
			Type:        models.TypeCharge,
			Amount:      s.registrationBonus,
			Description: "registration bonus",
		}
		err = s.userRepo.CreateWithGrant(ctx, user, grant)
	} else {
		err = s.userRepo.Create(ctx, user)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "user creation failed")
		if isConflict(err) {
			slog.Warn("registration conflict", "username", in.Username, "error", err)
			return nil, err
		}
		slog.Error("failed to create user", "username", in.Username, "error", err)
		return nil, fmt.Errorf("%w: failed to create user", pkgerrors.ErrInternal)
	}

	if grant != nil {
		afterLedgerWrite(ctx, s.redisClient, s.events, grant)
	}

	s.events.Publish(kafka.TopicUsers, user.ID, map[string]interface{}{
		"event_type": "user_registered",
		"user_id":    user.ID,
		"username":   user.Username,
		"credits":    user.Credits,
		"created_at": time.Now().UTC().Format(time.RFC3339),
	})

	token, err := s.issueToken(ctx, user.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "token generation failed")
		return nil, err
	}

	slog.Info("user registered successfully", "user_id", user.ID, "username", user.Username)
	return &AuthResult{Token: token, User: user}, nil
}

func isConflict(err error) bool {
	return stderrors.Is(err, pkgerrors.ErrUsernameExists) ||
		stderrors.Is(err, pkgerrors.ErrPhoneExists) ||
		stderrors.Is(err, pkgerrors.ErrEmailExists)
}

func (s *authService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	tracer := otel.Tracer("auth-service")
	ctx, span := tracer.Start(ctx, "Login")
	defer span.End()

	in.Identifier = strings.TrimSpace(in.Identifier)
	if in.Identifier == "" || (in.Password == "" && in.VerificationCode == "") {
		span.SetStatus(codes.Error, "missing credentials")
		return nil, fmt.Errorf("%w: identifier and password or verification code required", pkgerrors.ErrInvalidInput)
	}

	var (
		user *models.User
		err  error
	)
	switch in.LoginType {
	case LoginByUsername:
		if in.Password == "" {
			return nil, fmt.Errorf("%w: password required", pkgerrors.ErrInvalidInput)
		}
		user, err = s.userRepo.GetByUsername(ctx, in.Identifier)
	case LoginByPhone:
		user, err = s.userRepo.GetByPhone(ctx, in.Identifier)
	case LoginByEmail:
		user, err = s.userRepo.GetByEmail(ctx, in.Identifier)
	default:
		span.SetStatus(codes.Error, "invalid login type")
		return nil, fmt.Errorf("%w: unknown login type %q", pkgerrors.ErrInvalidInput, in.LoginType)
	}
	if err != nil {
		if !stderrors.Is(err, pkgerrors.ErrUserNotFound) {
			span.RecordError(err)
			slog.Error("failed to look up user", "login_type", in.LoginType, "error", err)
			return nil, fmt.Errorf("%w: failed to look up user", pkgerrors.ErrInternal)
		}
		span.SetStatus(codes.Error, "invalid credentials")
		slog.Warn("login for unknown identifier", "login_type", in.LoginType)
		return nil, pkgerrors.ErrInvalidCredentials
	}

	if in.Password != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
			span.SetStatus(codes.Error, "invalid credentials")
			slog.Warn("invalid password", "user_id", user.ID)
			return nil, pkgerrors.ErrInvalidCredentials
		}
	} else if err := s.verifyCode(ctx, CodeLogin, in.Identifier, in.VerificationCode); err != nil {
		span.SetStatus(codes.Error, "invalid credentials")
		slog.Warn("invalid login code", "user_id", user.ID, "error", err)
		if stderrors.Is(err, pkgerrors.ErrInvalidCode) {
			return nil, pkgerrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if user.Status == models.UserStatusDisabled {
		span.SetStatus(codes.Error, "user disabled")
		slog.Warn("disabled user tried to log in", "user_id", user.ID)
		return nil, pkgerrors.ErrUserDisabled
	}

	token, err := s.issueToken(ctx, user.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "token generation failed")
		return nil, err
	}

	slog.Info("user logged in", "user_id", user.ID, "login_type", in.LoginType)
	return &AuthResult{Token: token, User: user}, nil
}

func (s *authService) issueToken(ctx context.Context, userID int64) (string, error) {
	token, err := s.tokens.Generate(userID)
	if err != nil {
		slog.Error("failed to generate JWT", "user_id", userID, "error", err)
		return "", fmt.Errorf("%w: failed to generate token", pkgerrors.ErrInternal)
	}
	if err := s.redisClient.Set(ctx, auth.TokenKey(userID), token, s.tokens.TTL()); err != nil {
		slog.Error("failed to cache JWT", "user_id", userID, "error", err)
		return "", fmt.Errorf("%w: failed to store session", pkgerrors.ErrInternal)
	}
	return token, nil
}

func codeKey(purpose, target string) string {
	return fmt.Sprintf("verification_code:%s:%s", purpose, target)
}

// verifyCode checks and consumes a verification code.
func (s *authService) verifyCode(ctx context.Context, purpose, target, code string) error {
	if code == "" {
		return pkgerrors.ErrInvalidCode
	}
	key := codeKey(purpose, target)
	stored, err := s.redisClient.Get(ctx, key)
	if stderrors.Is(err, redis.ErrKeyNotFound) {
		return pkgerrors.ErrInvalidCode
	}
	if err != nil {
		slog.Error("failed to read verification code", "purpose", purpose, "error", err)
		return fmt.Errorf("%w: failed to read verification code", pkgerrors.ErrInternal)
	}
	if stored != code {
		return pkgerrors.ErrInvalidCode
	}
	if err := s.redisClient.Del(ctx, key); err != nil {
		slog.Error("failed to consume verification code", "purpose", purpose, "error", err)
	}
	return nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func (s *authService) SendVerificationCode(ctx context.Context, target, purpose string) (string, error) {
	tracer := otel.Tracer("auth-service")
	ctx, span := tracer.Start(ctx, "SendVerificationCode")
	defer span.End()

	switch purpose {
	case CodeLogin, CodeRegister, CodeReset:
	default:
		span.SetStatus(codes.Error, "invalid code type")
		return "", fmt.Errorf("%w: unknown code type %q", pkgerrors.ErrInvalidInput, purpose)
	}
	target = strings.TrimSpace(target)
	if err := validateTarget(target); err != nil {
		span.SetStatus(codes.Error, "invalid target")
		return "", err
	}

	rateKey := "rate_limit:send_code:" + target
	ok, err := s.redisClient.SetNX(ctx, rateKey, "1", codeRateLimit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rate limit check failed")
		slog.Error("failed to check code rate limit", "purpose", purpose, "error", err)
		return "", fmt.Errorf("%w: failed to check rate limit", pkgerrors.ErrInternal)
	}
	if !ok {
		span.SetStatus(codes.Error, "rate limited")
		return "", pkgerrors.ErrCodeRateLimited
	}

	code, err := generateCode()
	if err != nil {
		span.RecordError(err)
		slog.Error("failed to generate verification code", "error", err)
		return "", fmt.Errorf("%w: failed to generate code", pkgerrors.ErrInternal)
	}
	if err := s.redisClient.Set(ctx, codeKey(purpose, target), code, codeTTL); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to store code")
		slog.Error("failed to store verification code", "purpose", purpose, "error", err)
		return "", fmt.Errorf("%w: failed to store code", pkgerrors.ErrInternal)
	}

	if err := s.sender.SendCode(ctx, target, purpose, code); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to deliver code")
		if delErr := s.redisClient.Del(ctx, rateKey); delErr != nil {
			slog.Error("failed to release rate limit", "error", delErr)
		}
		return "", fmt.Errorf("%w: failed to deliver code", pkgerrors.ErrInternal)
	}

	slog.Info("verification code sent", "purpose", purpose)
	if s.devMode {
		return code, nil
	}
	return "", nil
}

func (s *authService) ResetPassword(ctx context.Context, target, code, newPassword string) error {
	tracer := otel.Tracer("auth-service")
	ctx, span := tracer.Start(ctx, "ResetPassword")
	defer span.End()

	target = strings.TrimSpace(target)
	if err := validateTarget(target); err != nil {
		span.SetStatus(codes.Error, "invalid target")
		return err
	}
	if err := validatePassword(newPassword); err != nil {
		span.SetStatus(codes.Error, "invalid password")
		return err
	}
	if err := s.verifyCode(ctx, CodeReset, target, code); err != nil {
		span.SetStatus(codes.Error, "invalid code")
		return err
	}

	var (
		user *models.User
		err  error
	)
	if strings.Contains(target, "@") {
		user, err = s.userRepo.GetByEmail(ctx, target)
	} else {
		user, err = s.userRepo.GetByPhone(ctx, target)
	}
	if stderrors.Is(err, pkgerrors.ErrUserNotFound) {
		span.SetStatus(codes.Error, "invalid code")
		slog.Warn("password reset for unknown account", "target", target)
		return pkgerrors.ErrInvalidCode
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "user lookup failed")
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: failed to hash password", pkgerrors.ErrInternal)
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "password update failed")
		slog.Error("failed to reset password", "user_id", user.ID, "error", err)
		return err
	}
	if err := s.redisClient.Del(ctx, auth.TokenKey(user.ID)); err != nil {
		slog.Error("failed to revoke token", "user_id", user.ID, "error", err)
	}

	slog.Info("password reset", "user_id", user.ID)
	return nil
}

func (s *authService) Logout(ctx context.Context, userID int64) error {
	tracer := otel.Tracer("auth-service")
	ctx, span := tracer.Start(ctx, "Logout")
	defer span.End()

	if err := s.redisClient.Del(ctx, auth.TokenKey(userID)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to revoke token")
		slog.Error("failed to revoke token", "user_id", userID, "error", err)
		return fmt.Errorf("%w: failed to revoke token", pkgerrors.ErrInternal)
	}
	slog.Info("user logged out", "user_id", userID)
	return nil
}
