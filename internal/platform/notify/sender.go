package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"oj_account/internal/platform/config"
	"strings"
)

// Sender delivers password reset tokens to the account's email address.
type Sender interface {
	SendPasswordReset(ctx context.Context, toEmail, token string) error
}

func NewSender(cfg *config.Config, logger *slog.Logger) Sender {
	switch cfg.PasswordResetSender {
	case "smtp":
		return SMTPSender{
			host:    cfg.SMTPHost,
			port:    cfg.SMTPPort,
			from:    cfg.PasswordResetFrom,
			baseURL: cfg.PasswordResetBaseURL,
		}
	default:
		return LogSender{baseURL: cfg.PasswordResetBaseURL, logger: logger}
	}
}

// LogSender only logs the reset link. Meant for development.
type LogSender struct {
	baseURL string
	logger  *slog.Logger
}

func (s LogSender) SendPasswordReset(ctx context.Context, toEmail, token string) error {
	s.logger.InfoContext(ctx, "password reset token generated",
		slog.String("email", toEmail),
		slog.String("link", ResetLink(s.baseURL, token)),
	)
	return nil
}

type SMTPSender struct {
	host    string
	port    int
	from    string
	baseURL string
}

func (s SMTPSender) SendPasswordReset(ctx context.Context, toEmail, token string) error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	body := "Subject: Password Reset\r\n\r\nUse this link to reset your password:\r\n" + ResetLink(s.baseURL, token) + "\r\n"
	if err := smtp.SendMail(addr, nil, s.from, []string{toEmail}, []byte(body)); err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}
	return nil
}

// ResetLink falls back to the bare token when no base URL is configured.
func ResetLink(baseURL, token string) string {
	link := strings.TrimRight(baseURL, "/")
	if link == "" {
		return token
	}
	return link + "/reset-password?token=" + token
}
