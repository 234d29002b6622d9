package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/apitienda/store-api/internal/config"
)

// SMTPSender delivers mail over plain-auth SMTP using the deployment's
// configured account.
type SMTPSender struct {
	config  config.SMTPConfig
	baseURL string
}

var _ Sender = (*SMTPSender)(nil)

func NewSMTPSender(cfg config.SMTPConfig, baseURL string) *SMTPSender {
	return &SMTPSender{config: cfg, baseURL: baseURL}
}

func (s *SMTPSender) SendPasswordReset(_ context.Context, to, token string) error {
	resetLink := fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(s.baseURL, "/"), token)

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.config.GetSmtpSender())
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	msg.WriteString("Subject: Password reset request\r\n")
	msg.WriteString("\r\n")
	fmt.Fprintf(&msg, "A password reset was requested for this address.\r\n\r\n")
	fmt.Fprintf(&msg, "Reset link: %s\r\n\r\n", resetLink)
	msg.WriteString("The link expires in one hour. If you did not request this, ignore this message.\r\n")

	addr := fmt.Sprintf("%s:%s", s.config.GetSmtpHost(), s.config.GetSmtpPort())
	auth := smtp.PlainAuth("", s.config.GetSmtpAccount(), s.config.GetSmtpPassword(), s.config.GetSmtpHost())

	if err := smtp.SendMail(addr, auth, s.config.GetSmtpSender(), []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("[SendPasswordReset] smtp.SendMail: %w", err)
	}
	return nil
}
