package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/glimpse/storefront-api/internal/core/domain"
	"github.com/glimpse/storefront-api/internal/core/ports"
)

// SMTPConfig holds the outgoing mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPNotifier mails a password reset link carrying a fresh reset token.
type SMTPNotifier struct {
	cfg         SMTPConfig
	tokens      ports.TokenService
	frontendURL string
	send        sendFunc
	log         zerolog.Logger
}

func NewSMTPNotifier(cfg SMTPConfig, tokens ports.TokenService, frontendURL string, log zerolog.Logger) *SMTPNotifier {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPNotifier{
		cfg:         cfg,
		tokens:      tokens,
		frontendURL: frontendURL,
		send:        smtp.SendMail,
		log:         log,
	}
}

func (n *SMTPNotifier) SendPasswordReset(ctx context.Context, to, userID, name string) error {
	link, err := resetLink(n.tokens, n.frontendURL, userID)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))
	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	done := make(chan error, 1)
	go func() {
		done <- n.send(addr, auth, n.cfg.From, []string{to}, resetMessage(n.cfg.From, to, name, link))
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	n.log.Info().Str("user_id", userID).Msg("password reset email sent")
	return nil
}

// LogNotifier writes the reset link to the log instead of sending mail.
// Used when no SMTP host is configured.
type LogNotifier struct {
	tokens      ports.TokenService
	frontendURL string
	log         zerolog.Logger
}

func NewLogNotifier(tokens ports.TokenService, frontendURL string, log zerolog.Logger) *LogNotifier {
	return &LogNotifier{tokens: tokens, frontendURL: frontendURL, log: log}
}

func (n *LogNotifier) SendPasswordReset(_ context.Context, to, userID, _ string) error {
	link, err := resetLink(n.tokens, n.frontendURL, userID)
	if err != nil {
		return err
	}
	n.log.Info().Str("to", to).Str("user_id", userID).Str("link", link).Msg("password reset link (mail disabled)")
	return nil
}

func resetLink(tokens ports.TokenService, frontendURL, userID string) (string, error) {
	token, err := tokens.Issue(domain.TokenReset, domain.TokenPayload{Subject: userID})
	if err != nil {
		return "", fmt.Errorf("issue reset token: %w", err)
	}
	return strings.TrimRight(frontendURL, "/") + "/reset-password?token=" + url.QueryEscape(token), nil
}

func resetMessage(from, to, name, link string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: Password Reset Request\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	fmt.Fprintf(&b, "Hello %s,\r\n\r\n", name)
	b.WriteString("We received a request to reset your password. Open the link below to choose a new one:\r\n\r\n")
	b.WriteString(link + "\r\n\r\n")
	b.WriteString("The link expires in 15 minutes. If you did not request a reset, ignore this email.\r\n")
	return []byte(b.String())
}
