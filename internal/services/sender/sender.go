// Package sender отправляет владельцам письма о скором окончании подписки.
package sender

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/license-portal/internal/lib/sl"
	"github.com/magabrotheeeer/license-portal/internal/lib/smtp"
	"github.com/magabrotheeeer/license-portal/internal/metrics"
	"github.com/magabrotheeeer/license-portal/internal/models"
)

// ErrEmptyRecipient в сообщении нет адреса получателя.
var ErrEmptyRecipient = fmt.Errorf("notice has no recipient")

const expiringSubject = "Ваша подписка скоро закончится"

// Service формирует и отправляет письма.
type Service struct {
	transport smtp.TransportInterface
	log       *slog.Logger
	renewURL  string
}

// New создает отправителя. renewURL ссылка на страницу оплаты в тексте письма.
func New(transport smtp.TransportInterface, log *slog.Logger, renewURL string) *Service {
	return &Service{
		transport: transport,
		log:       log,
		renewURL:  renewURL,
	}
}

// SendExpiringNotice обработчик сообщения из очереди напоминаний.
func (s *Service) SendExpiringNotice(body []byte) error {
	const op = "sender.SendExpiringNotice"
	var notice models.ExpiringNotice
	if err := json.Unmarshal(body, &notice); err != nil {
		s.log.Error("failed to unmarshal reminder", sl.Err(err))
		return fmt.Errorf("%s: unmarshal: %w", op, err)
	}
	if notice.Email == "" {
		return fmt.Errorf("%s: subscription %d: %w", op, notice.SubscriptionID, ErrEmptyRecipient)
	}

	err := s.sendEmail([]string{notice.Email}, expiringSubject, s.expiringText(notice))
	if err != nil {
		metrics.EmailsSentTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("%s: %w", op, err)
	}
	metrics.EmailsSentTotal.WithLabelValues("sent").Inc()
	return nil
}

func (s *Service) expiringText(n models.ExpiringNotice) string {
	return fmt.Sprintf("Здравствуйте, %s!\n\n"+
		"Ваша подписка %s заканчивается %s (UTC).\n"+
		"После этого бот перестанет принимать лицензионный ключ.\n\n"+
		"Продлить подписку можно здесь: %s\n",
		n.Username,
		strings.ToUpper(string(n.PlanType)),
		n.ExpiresAt.UTC().Format("02.01.2006 15:04"),
		s.renewURL,
	)
}

func (s *Service) sendEmail(to []string, subject, bodyText string) error {
	from := s.transport.GetSMTPUser()
	msg := strings.Join([]string{
		"From: " + from,
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(from); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", from), sl.Err(err))
		return err
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get data writer", sl.Err(err))
		return err
	}
	if _, err := wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}
	if err := wc.Close(); err != nil {
		s.log.Error("failed to close data writer", sl.Err(err))
		return err
	}
	if err := client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP session", sl.Err(err))
		return err
	}

	s.log.Info("email sent", slog.Int("recipients", len(to)))
	return nil
}
