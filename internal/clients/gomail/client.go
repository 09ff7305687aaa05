package gomail

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/samandr77/microservices/backoffice/pkg/config"
)

const subject = "Alert Triggered"

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Client delivers alerts by email. The channel passed to Post is a comma separated
// list of recipients.
type Client struct {
	cfg    config.SMTP
	dialer sender
}

func New(cfg config.SMTP) *Client {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Login, cfg.Password)

	dialer.TLSConfig = &tls.Config{
		ServerName: cfg.Host,
		MinVersion: tls.VersionTLS12,
	}

	return newClient(cfg, dialer)
}

func newClient(cfg config.SMTP, dialer sender) *Client {
	return &Client{
		cfg:    cfg,
		dialer: dialer,
	}
}

func (c *Client) Post(ctx context.Context, channel, text string) error {
	err := ctx.Err()
	if err != nil {
		return err
	}

	recipients := strings.FieldsFunc(channel, func(r rune) bool { return r == ',' || r == ' ' })
	if len(recipients) == 0 {
		return fmt.Errorf("no recipients in %q", channel)
	}

	msg := gomail.NewMessage(
		gomail.SetCharset("UTF-8"),
		gomail.SetEncoding(gomail.Base64),
	)

	msg.SetAddressHeader("From", c.cfg.From, c.cfg.FromName)
	msg.SetHeader("To", recipients...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", text)

	err = c.dialer.DialAndSend(msg)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	return nil
}
