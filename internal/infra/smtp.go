package infra

import (
	"bytes"
	"fmt"
	"net/smtp"

	"visionallende/internal/config"

	"github.com/jordan-wright/email"
)

// Adjunto is an in-memory attachment.
type Adjunto struct {
	Nombre      string
	ContentType string
	Contenido   []byte
}

// Mailer wraps SMTP configuration for sending report spreadsheets. Sends go
// through a circuit breaker so a dead SMTP server fails fast.
type Mailer struct {
	host      string
	user      string
	password  string
	addr      string
	disyuntor *Disyuntor
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:      cfg.SMTPHost,
		user:      cfg.SMTPUser,
		password:  cfg.SMTPPassword,
		addr:      fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		disyuntor: NewDisyuntor(DisyuntorSMTP()),
	}
}

// Configurado reports whether an SMTP host was provided.
func (m *Mailer) Configurado() bool { return m.host != "" }

// EnviarReporte mails a generated spreadsheet.
func (m *Mailer) EnviarReporte(to, subject, body string, adjunto Adjunto) error {
	if !m.Configurado() {
		return fmt.Errorf("mailer: SMTP_HOST no configurado")
	}

	e := email.NewEmail()
	e.From = m.user
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)
	ct := adjunto.ContentType
	if ct == "" {
		ct = XLSXContentType
	}
	if _, err := e.Attach(bytes.NewReader(adjunto.Contenido), adjunto.Nombre, ct); err != nil {
		return fmt.Errorf("mailer: attach: %w", err)
	}

	auth := smtp.PlainAuth("", m.user, m.password, m.host)
	return m.disyuntor.Ejecutar(func() error {
		return e.Send(m.addr, auth)
	})
}

// Estado exposes the breaker state for the health endpoint.
func (m *Mailer) Estado() EstadoDisyuntor { return m.disyuntor.Estado() }
