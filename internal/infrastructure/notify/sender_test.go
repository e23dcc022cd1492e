package notify_test

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/nanobananary/studio-api/internal/infrastructure/notify"
	"github.com/nanobananary/studio-api/internal/infrastructure/notify/mocks"
	"github.com/stretchr/testify/assert"
)

func TestRouter_SendCode(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	phone := mocks.NewMockCodeSender(ctrl)
	email := mocks.NewMockCodeSender(ctrl)
	router := notify.Router{Phone: phone, Email: email}
	ctx := context.Background()

	email.EXPECT().SendCode(ctx, "alice@example.com", "register", "123456").Return(nil)
	phone.EXPECT().SendCode(ctx, "13800138000", "login", "654321").Return(nil)

	assert.NoError(t, router.SendCode(ctx, "alice@example.com", "register", "123456"))
	assert.NoError(t, router.SendCode(ctx, "13800138000", "login", "654321"))
}

func TestRouter_NoMailSender(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	phone := mocks.NewMockCodeSender(ctrl)
	router := notify.Router{Phone: phone}

	phone.EXPECT().SendCode(gomock.Any(), "bob@example.com", "reset", "000111").Return(nil)
	assert.NoError(t, router.SendCode(context.Background(), "bob@example.com", "reset", "000111"))
}

func TestLogSender(t *testing.T) {
	assert.NoError(t, notify.LogSender{}.SendCode(context.Background(), "13800138000", "login", "123456"))
}
