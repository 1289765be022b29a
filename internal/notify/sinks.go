package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"
)

// DefaultSubject is the mail subject template. First verb is the host,
// second the job name.
const DefaultSubject = "[%s] '%s' needs some attention!"

// Sink delivers one message to one destination.
type Sink interface {
	Name() string
	Send(ctx context.Context, m Message) error
}

// MailConfig is the SMTP transport for recipient lists.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string // fallback when the message carries no recipients
	Subject  string
}

type MailSink struct {
	cfg  MailConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMailSink(cfg MailConfig) (*MailSink, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("mail: host is required")
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, errors.New("mail: from is required")
	}
	if cfg.Port <= 0 {
		cfg.Port = 25
	}
	if strings.TrimSpace(cfg.Subject) == "" {
		cfg.Subject = DefaultSubject
	}
	return &MailSink{cfg: cfg, send: smtp.SendMail}, nil
}

func (s *MailSink) Name() string { return "mail" }

func (s *MailSink) Send(ctx context.Context, m Message) error {
	if ctx != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
	to := m.Recipients
	if len(to) == 0 {
		to = s.cfg.To
	}
	if len(to) == 0 {
		return nil
	}

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	return s.send(addr, auth, s.cfg.From, to, buildMail(s.cfg.From, to, s.cfg.Subject, m))
}

// buildMail renders a plain-text RFC 5322 message.
func buildMail(from string, to []string, subject string, m Message) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", fmt.Sprintf(subject, m.Host, m.Job))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(m.Text)
	if m.Log != "" {
		fmt.Fprintf(&b, "\r\n\r\nYou can find its output in %s on %s.", m.Log, m.Host)
	}
	b.WriteString("\r\n")
	return b.Bytes()
}

// TelegramConfig targets one chat.
type TelegramConfig struct {
	Token  string
	ChatID int64
}

type TelegramSink struct {
	bot  *tele.Bot
	chat *tele.Chat
}

func NewTelegramSink(cfg TelegramConfig) (*TelegramSink, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram: token is required")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("telegram: chat_id is required")
	}
	b, err := tele.NewBot(tele.Settings{
		Token: cfg.Token,
	})
	if err != nil {
		return nil, err
	}
	return &TelegramSink{bot: b, chat: &tele.Chat{ID: cfg.ChatID}}, nil
}

func (s *TelegramSink) Name() string { return "telegram" }

func (s *TelegramSink) Send(ctx context.Context, m Message) error {
	if ctx != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
	text := fmt.Sprintf("[%s] %s\n%s", m.Host, m.Job, m.Text)
	_, err := s.bot.Send(s.chat, text)
	return err
}

// WebhookSink POSTs a JSON payload to each configured URL. The payload's
// "text" field keeps it drop-in compatible with Slack and Mattermost
// incoming webhooks.
type WebhookSink struct {
	urls   []string
	client *http.Client
}

func NewWebhookSink(urls []string) *WebhookSink {
	return &WebhookSink{
		urls:   urls,
		client: &http.Client{Timeout: 8 * time.Second},
	}
}

func (s *WebhookSink) Name() string { return "webhook" }

type webhookPayload struct {
	Text string `json:"text"`
	Job  string `json:"job"`
	Host string `json:"host,omitempty"`
	At   string `json:"at,omitempty"`
}

func (s *WebhookSink) Send(ctx context.Context, m Message) error {
	if ctx == nil {
		ctx = context.Background()
	}
	p := webhookPayload{
		Text: fmt.Sprintf("[%s] %s: %s", m.Host, m.Job, m.Text),
		Job:  m.Job,
		Host: m.Host,
	}
	if !m.At.IsZero() {
		p.At = m.At.Format(time.RFC3339)
	}
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}

	var errs []error
	for _, u := range s.urls {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := s.client.Do(req)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		_ = resp.Body.Close()
		if resp.StatusCode >= 300 {
			errs = append(errs, fmt.Errorf("webhook %s: status %d", u, resp.StatusCode))
		}
	}
	return errors.Join(errs...)
}
