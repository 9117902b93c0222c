// mail — исходящие письма. Реальная доставка вынесена за интерфейс Sender;
// LogSender пишет письмо в лог и используется в local/dev.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/pribylovaa/photo-sharing/internal/config"
	"github.com/pribylovaa/photo-sharing/internal/pkg/log"
	"github.com/pribylovaa/photo-sharing/internal/pkg/redact"
)

// Message — письмо.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Sender доставляет письма.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Composer собирает письма сервиса.
type Composer struct {
	from    string
	baseURL string
}

func NewComposer(cfg config.MailConfig) *Composer {
	return &Composer{
		from:    cfg.From,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// ConfirmationLink — ссылка подтверждения e-mail.
func (c *Composer) ConfirmationLink(token string) string {
	return c.baseURL + "/api/users/confirmed_email/" + url.PathEscape(token)
}

// Verification — письмо со ссылкой подтверждения.
func (c *Composer) Verification(to, token string) Message {
	return Message{
		From:    c.from,
		To:      to,
		Subject: "Confirm your email",
		Body: fmt.Sprintf(
			"Hi!\n\nTo finish signing up, open the link below:\n%s\n\nThe link is valid for 7 days.\n",
			c.ConfirmationLink(token),
		),
	}
}

// LogSender пишет письма в лог вместо отправки.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, msg Message) error {
	log.From(ctx).Info("mail_sent",
		slog.String("to", redact.Email(msg.To)),
		slog.String("subject", msg.Subject),
		slog.String("body", msg.Body),
	)

	return nil
}
