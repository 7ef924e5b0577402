package mails

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"io"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	texttemplate "text/template"
	"time"

	"imdb/proj/internal/config"
	"imdb/proj/internal/metrics"

	"github.com/goccy/go-json"
	gomail "github.com/go-mail/mail/v2"
)

//go:embed "templates"
var templateFS embed.FS

const (
	TransportSMTP = "smtp"
	TransportAPI  = "api"
)

// Message is a rendered email ready to be delivered.
type Message struct {
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	HTMLBody string `json:"html_body,omitempty"`
}

type Sender interface {
	Send(ctx context.Context, msg Message, recipient string) error
}

type partialExecutor interface {
	ExecuteTemplate(wr io.Writer, name string, data any) error
}

// Render executes the subject, plainBody and htmlBody partials of the named template.
// Only htmlBody is HTML-escaped.
func Render(tmplName string, tmplData any) (Message, error) {
	textTmpl, err := texttemplate.ParseFS(templateFS, "templates/"+tmplName)
	if err != nil {
		return Message{}, err
	}
	htmlTmpl, err := htmltemplate.ParseFS(templateFS, "templates/"+tmplName)
	if err != nil {
		return Message{}, err
	}
	var msg Message
	partials := []struct {
		name string
		tmpl partialExecutor
		dst  *string
	}{
		{"subject", textTmpl, &msg.Subject},
		{"plainBody", textTmpl, &msg.Body},
		{"htmlBody", htmlTmpl, &msg.HTMLBody},
	}
	for _, p := range partials {
		buff := new(bytes.Buffer)
		if err := p.tmpl.ExecuteTemplate(buff, p.name, tmplData); err != nil {
			return Message{}, err
		}
		*p.dst = strings.TrimSpace(buff.String())
	}
	return msg, nil
}

// New builds the sender selected by cfg.Transport, guarded by a circuit breaker.
func New(cfg config.SMTPServer, log *slog.Logger) (Sender, error) {
	var sender Sender
	switch cfg.Transport {
	case TransportSMTP, "":
		sender = NewSMTPMailer(cfg.Host, cfg.Port, cfg.Timeout, cfg.Username, cfg.Password, cfg.Sender, cfg.RetriesCount)
	case TransportAPI:
		sender = &ApiMailer{
			ApiURL:       cfg.ApiURL,
			ApiToken:     cfg.ApiToken,
			Sender:       cfg.Sender,
			RetriesCount: cfg.RetriesCount,
			Client:       &http.Client{Timeout: cfg.Timeout},
		}
	default:
		return nil, fmt.Errorf("unknown mail transport %q", cfg.Transport)
	}
	return NewBreakerMailer(sender, cfg.BreakerFailures, cfg.BreakerTimeout, log), nil
}

type SMTPMailer struct {
	Dialer       *gomail.Dialer
	Sender       string
	RetriesCount int
	RetryDelay   time.Duration
}

func NewSMTPMailer(host string, port int, timeout time.Duration, username, password, sender string, retriesCount int) *SMTPMailer {
	dialer := gomail.NewDialer(host, port, username, password)
	dialer.Timeout = timeout
	return &SMTPMailer{
		Dialer:       dialer,
		Sender:       sender,
		RetriesCount: max(retriesCount, 1),
		RetryDelay:   500 * time.Millisecond,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message, recipient string) error {
	email := gomail.NewMessage()
	email.SetHeader("To", recipient)
	email.SetHeader("From", m.Sender)
	email.SetHeader("Subject", msg.Subject)
	email.SetBody("text/plain", msg.Body)
	if msg.HTMLBody != "" {
		email.AddAlternative("text/html", msg.HTMLBody)
	}
	var err error
	for i := 0; i < m.RetriesCount; i++ {
		if err = m.Dialer.DialAndSend(email); err == nil {
			metrics.MailsSentTotal.WithLabelValues(TransportSMTP, "success").Inc()
			return nil
		}
		if waitErr := sleep(ctx, m.RetryDelay); waitErr != nil {
			break
		}
	}
	metrics.MailsSentTotal.WithLabelValues(TransportSMTP, "failure").Inc()
	return err
}

type ApiMailer struct {
	ApiURL       string
	ApiToken     string
	Sender       string
	RetriesCount int
	RetryDelay   time.Duration
	Client       *http.Client
}

type apiAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type apiPayload struct {
	From    apiAddress   `json:"from"`
	To      []apiAddress `json:"to"`
	Subject string       `json:"subject"`
	Text    string       `json:"text"`
	HTML    string       `json:"html,omitempty"`
}

func (m *ApiMailer) Send(ctx context.Context, msg Message, recipient string) error {
	from, err := mail.ParseAddress(m.Sender)
	if err != nil {
		return fmt.Errorf("invalid sender %q: %w", m.Sender, err)
	}
	payload, err := json.Marshal(apiPayload{
		From:    apiAddress{Email: from.Address, Name: from.Name},
		To:      []apiAddress{{Email: recipient}},
		Subject: msg.Subject,
		Text:    msg.Body,
		HTML:    msg.HTMLBody,
	})
	if err != nil {
		return err
	}
	retries := max(m.RetriesCount, 1)
	for i := 0; i < retries; i++ {
		if err = m.post(ctx, payload); err == nil {
			metrics.MailsSentTotal.WithLabelValues(TransportAPI, "success").Inc()
			return nil
		}
		if waitErr := sleep(ctx, m.RetryDelay); waitErr != nil {
			break
		}
	}
	metrics.MailsSentTotal.WithLabelValues(TransportAPI, "failure").Inc()
	return err
}

func (m *ApiMailer) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.ApiURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.ApiToken)
	req.Header.Set("Content-Type", "application/json")
	client := m.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var parsed struct {
		Errors []string `json:"errors"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && len(parsed.Errors) > 0 {
		return fmt.Errorf("failed to send email: %s", strings.Join(parsed.Errors, "; "))
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("failed to send email: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
