package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/nanobananary/studio-api/internal/infrastructure/redis"
	redismocks "github.com/nanobananary/studio-api/internal/infrastructure/redis/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)

	token, err := m.Generate(42)
	require.NoError(t, err)

	userID, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewTokenManager("other", time.Hour).Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		expired := NewTokenManager("secret", time.Hour)
		expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		old, err := expired.Generate(42)
		require.NoError(t, err)
		_, err = m.Validate(old)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("empty secret", func(t *testing.T) {
		_, err := NewTokenManager("", time.Hour).Generate(1)
		assert.Error(t, err)
	})
}

func TestAuthMiddleware(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	redisClient := redismocks.NewMockRedisClient(ctrl)
	tokens := NewTokenManager("secret", time.Hour)
	token, err := tokens.Generate(7)
	require.NoError(t, err)

	var seen int64
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	handler := AuthMiddleware(redisClient, tokens)(next)

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/user/profile", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), `"success":false`)
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/user/profile", nil)
		req.Header.Set("Authorization", "Token "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("revoked token", func(t *testing.T) {
		redisClient.EXPECT().Get(gomock.Any(), "user:7:token").Return("", redis.ErrKeyNotFound)
		req := httptest.NewRequest(http.MethodGet, "/api/user/profile", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		redisClient.EXPECT().Get(gomock.Any(), "user:7:token").Return(token, nil)
		req := httptest.NewRequest(http.MethodGet, "/api/user/profile", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, int64(7), seen)
	})
}
