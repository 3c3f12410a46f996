package utils

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"schedulesync/core/config"
)

type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type EmailMessage struct {
	To      []string
	Subject string
	Body    string
	IsHTML  bool
}

// GetEmailConfig builds the SMTP config from app config.
func GetEmailConfig() *EmailConfig {
	cfg := config.Get()
	return &EmailConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}
}

// SendEmailTLS delivers msg over SMTP with STARTTLS.
func SendEmailTLS(conf EmailConfig, msg EmailMessage) error {
	if conf.Host == "" {
		return fmt.Errorf("smtp host is not configured")
	}

	addr := fmt.Sprintf("%s:%d", conf.Host, conf.Port)
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("smtp dial failed: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: conf.Host}); err != nil {
			return fmt.Errorf("starttls failed: %w", err)
		}
	}

	if conf.Username != "" {
		auth := smtp.PlainAuth("", conf.Username, conf.Password, conf.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth failed: %w", err)
		}
	}

	if err := client.Mail(conf.From); err != nil {
		return err
	}
	for _, rcpt := range msg.To {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}

	w, err := client.Data()
	if err != nil {
		return err
	}

	contentType := "text/plain; charset=UTF-8"
	if msg.IsHTML {
		contentType = "text/html; charset=UTF-8"
	}
	headers := []string{
		"From: " + conf.From,
		"To: " + strings.Join(msg.To, ", "),
		"Subject: " + msg.Subject,
		"MIME-Version: 1.0",
		"Content-Type: " + contentType,
	}
	if _, err := w.Write([]byte(strings.Join(headers, "\r\n") + "\r\n\r\n" + msg.Body)); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return client.Quit()
}
