package backends

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// MailBackend delivers notifications over SMTP.
type MailBackend struct {
	host     string
	port     int
	username string
	password string
	from     string
	logger   hclog.Logger
}

// MailConfig configures the SMTP backend.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// NewMailBackend creates an SMTP mail backend.
func NewMailBackend(cfg MailConfig, logger hclog.Logger) (*MailBackend, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("from address is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &MailBackend{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
		logger:   logger.Named("notify.mail"),
	}, nil
}

func (b *MailBackend) Name() string { return "mail" }

func (b *MailBackend) Handle(ctx context.Context, msg *Message) error {
	var to []string
	for _, r := range msg.Recipients {
		if r.Email != "" {
			to = append(to, r.Email)
		}
	}
	if len(to) == 0 {
		b.logger.Warn("no mail recipients for notification", "id", msg.ID)
		return nil
	}

	if err := ctx.Err(); err != nil {
		return &BackendError{Backend: b.Name(), Err: err}
	}

	body := b.render(msg, to)
	addr := fmt.Sprintf("%s:%d", b.host, b.port)

	var auth smtp.Auth
	if b.username != "" {
		auth = smtp.PlainAuth("", b.username, b.password, b.host)
	}
	if err := smtp.SendMail(addr, auth, b.from, to, body); err != nil {
		return &BackendError{Backend: b.Name(), Err: err}
	}

	b.logger.Debug("mail sent", "id", msg.ID, "recipients", len(to))
	return nil
}

func (b *MailBackend) render(msg *Message, to []string) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "From: %s\r\n", b.from)
	fmt.Fprintf(&sb, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&sb, "Subject: %s\r\n", msg.Subject)
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(msg.Body)
	sb.WriteString("\r\n")
	return []byte(sb.String())
}
