package emails

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

type Email struct {
	To      string
	Subject string
	HTML    string
}

// SendResult is returned instead of an error: a failed email never fails the caller.
type SendResult struct {
	OK    bool   `json:"ok"`
	ID    string `json:"id,omitempty"`
	Error string `json:"error,omitempty"`
}

type Sender interface {
	Send(ctx context.Context, e Email) SendResult
}

/* =========================================================
   SMTP (gomail)
========================================================= */

type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(host string, port int, user, password, from string) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, user, password),
		from:   from,
	}
}

func (s *SMTPSender) Send(ctx context.Context, e Email) SendResult {
	if strings.TrimSpace(e.To) == "" {
		return SendResult{Error: "missing recipient"}
	}
	if err := ctx.Err(); err != nil {
		return SendResult{Error: err.Error()}
	}

	id := uuid.NewString()
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", e.To)
	m.SetHeader("Subject", e.Subject)
	m.SetHeader("Message-ID", "<"+id+"@"+domainOf(s.from)+">")
	m.SetBody("text/html", e.HTML)

	if err := s.dialer.DialAndSend(m); err != nil {
		log.Printf("[EMAIL] ERROR send to=%s subject=%q err=%v", e.To, e.Subject, err)
		return SendResult{Error: err.Error()}
	}
	log.Printf("[EMAIL] SENT to=%s subject=%q id=%s", e.To, e.Subject, id)
	return SendResult{OK: true, ID: id}
}

func domainOf(addr string) string {
	if i := strings.LastIndex(addr, "@"); i >= 0 {
		return strings.Trim(addr[i+1:], "> ")
	}
	return "localhost"
}

/* =========================================================
   Log-only (SMTP belum dikonfigurasi / dev)
========================================================= */

type LogSender struct{}

func (LogSender) Send(_ context.Context, e Email) SendResult {
	if strings.TrimSpace(e.To) == "" {
		return SendResult{Error: "missing recipient"}
	}
	log.Printf("[EMAIL] (log only) to=%s subject=%q bytes=%d", e.To, e.Subject, len(e.HTML))
	return SendResult{OK: true, ID: "log-" + uuid.NewString()}
}
