package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

//go:generate mockgen -source=sender.go -destination=mocks/mock_sender.go -package=mocks

// CodeSender delivers a verification code to a phone number or e-mail address.
type CodeSender interface {
	SendCode(ctx context.Context, target, purpose, code string) error
}

// LogSender only logs the code. Phone numbers always go here, there is no SMS gateway.
type LogSender struct{}

func (LogSender) SendCode(_ context.Context, target, purpose, code string) error {
	slog.Info("verification code issued", "method", "SendCode", "target", mask(target), "purpose", purpose, "code", code)
	return nil
}

type SendGridSender struct {
	from   *mail.Email
	client *sendgrid.Client
}

func NewSendGridSender(apiKey, fromAddress, fromName string) *SendGridSender {
	return &SendGridSender{
		from:   mail.NewEmail(fromName, fromAddress),
		client: sendgrid.NewSendClient(apiKey),
	}
}

func (s *SendGridSender) SendCode(ctx context.Context, target, purpose, code string) error {
	subject := fmt.Sprintf("Your %s verification code", purpose)
	plain := fmt.Sprintf("Your verification code is %s. It expires in 5 minutes.", code)
	html := fmt.Sprintf("<p>Your verification code is <strong>%s</strong>.</p><p>It expires in 5 minutes.</p>", code)
	message := mail.NewSingleEmail(s.from, subject, mail.NewEmail("", target), plain, html)

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		slog.Error("sendgrid request failed", "method", "SendCode", "target", mask(target), "error", err)
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	if resp.StatusCode >= 300 {
		slog.Error("sendgrid rejected message", "method", "SendCode", "status", resp.StatusCode, "body", resp.Body)
		return fmt.Errorf("failed to send verification email: status %d", resp.StatusCode)
	}

	slog.Info("verification email sent", "method", "SendCode", "target", mask(target), "purpose", purpose)
	return nil
}

// Router sends e-mail targets through the mail sender and everything else through the log.
type Router struct {
	Phone CodeSender
	Email CodeSender
}

func (r Router) SendCode(ctx context.Context, target, purpose, code string) error {
	if strings.Contains(target, "@") && r.Email != nil {
		return r.Email.SendCode(ctx, target, purpose, code)
	}
	return r.Phone.SendCode(ctx, target, purpose, code)
}

func mask(target string) string {
	if name, domain, ok := strings.Cut(target, "@"); ok {
		if len(name) > 1 {
			name = name[:1] + "***"
		}
		return name + "@" + domain
	}
	if len(target) > 7 {
		return target[:3] + "****" + target[len(target)-4:]
	}
	return target
}
