package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

func TestClient_Get(t *testing.T) {
	db, mock := redismock.NewClientMock()
	client := Wrap(db)
	ctx := context.Background()

	tests := []struct {
		name    string
		setup   func()
		want    string
		wantErr error
	}{
		{
			name:  "hit",
			setup: func() { mock.ExpectGet("user:1:token").SetVal("token") },
			want:  "token",
		},
		{
			name:    "miss",
			setup:   func() { mock.ExpectGet("user:1:token").RedisNil() },
			wantErr: ErrKeyNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			got, err := client.Get(ctx, "user:1:token")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}

	t.Run("backend error", func(t *testing.T) {
		mock.ExpectGet("user:1:token").SetErr(errors.New("connection refused"))
		_, err := client.Get(ctx, "user:1:token")
		assert.EqualError(t, err, "connection refused")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestClient_SetNX(t *testing.T) {
	db, mock := redismock.NewClientMock()
	client := Wrap(db)
	ctx := context.Background()

	mock.ExpectSetNX("rate_limit:send_code:13800138000", "1", time.Minute).SetVal(true)
	ok, err := client.SetNX(ctx, "rate_limit:send_code:13800138000", "1", time.Minute)
	assert.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectSetNX("rate_limit:send_code:13800138000", "1", time.Minute).SetVal(false)
	ok, err = client.SetNX(ctx, "rate_limit:send_code:13800138000", "1", time.Minute)
	assert.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClient_SetAndDel(t *testing.T) {
	db, mock := redismock.NewClientMock()
	client := Wrap(db)
	ctx := context.Background()

	mock.ExpectSet("user:7:credits", int64(150), 5*time.Minute).SetVal("OK")
	mock.ExpectDel("user:7:credits").SetVal(1)

	assert.NoError(t, client.Set(ctx, "user:7:credits", int64(150), 5*time.Minute))
	assert.NoError(t, client.Del(ctx, "user:7:credits"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
