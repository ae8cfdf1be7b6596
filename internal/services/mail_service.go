package services

import (
	"bytes"
	"fmt"
	"html/template"
	"mime"
	"net/smtp"
	"strings"

	"makecommunity/internal/config"
	"makecommunity/internal/logger"
	"makecommunity/web"

	"github.com/rs/zerolog"
)

// sendFunc matches smtp.SendMail.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type MailService struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	Enabled  bool

	send      sendFunc
	templates *template.Template
	log       zerolog.Logger
}

func NewMailService(cfg *config.Config) *MailService {
	log := logger.New("mail")
	s := &MailService{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.SMTPFrom,
		Enabled:  cfg.MailEnabled(),
		send:     smtp.SendMail,
		log:      log,
	}
	if !s.Enabled {
		log.Warn().Msg("mail service disabled: missing SMTP settings")
	}

	t, err := template.ParseFS(web.FS, "templates/email/*.html")
	if err != nil {
		log.Error().Err(err).Msg("failed to parse email templates")
		s.Enabled = false
		return s
	}
	s.templates = t
	return s
}

// message builds the RFC 5322 message. Headers end in CRLF and the subject
// is B-encoded since it carries Korean text.
func (s *MailService) message(to []string, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ","))
	fmt.Fprintf(&b, "From: MakeCommunity <%s>\r\n", s.From)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.BEncoding.Encode("UTF-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

func (s *MailService) sendAsync(to []string, subject string, body string) {
	if !s.Enabled {
		return
	}

	go func() {
		auth := smtp.PlainAuth("", s.Username, s.Password, s.Host)
		addr := fmt.Sprintf("%s:%s", s.Host, s.Port)

		if err := s.send(addr, auth, s.From, to, s.message(to, subject, body)); err != nil {
			s.log.Error().Err(err).Str("to", logger.MaskEmail(strings.Join(to, ","))).Msg("failed to send email")
			return
		}
		s.log.Info().Str("to", logger.MaskEmail(strings.Join(to, ","))).Str("subject", subject).Msg("email sent")
	}()
}

func (s *MailService) render(name string, data interface{}) (string, error) {
	if s.templates == nil {
		return "", fmt.Errorf("email templates not loaded")
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return buf.String(), nil
}

// SendConfirmationEmail mails the sign-up confirmation link.
func (s *MailService) SendConfirmationEmail(email, link string) {
	body, err := s.render("confirm.html", map[string]string{"Link": link})
	if err != nil {
		s.log.Error().Err(err).Msg("error rendering confirmation email")
		return
	}
	s.sendAsync([]string{email}, "[MakeCommunity] 이메일 주소를 확인해주세요", body)
}

// SendPasswordResetEmail mails the password recovery link.
func (s *MailService) SendPasswordResetEmail(email, link string) {
	body, err := s.render("reset.html", map[string]string{"Link": link})
	if err != nil {
		s.log.Error().Err(err).Msg("error rendering reset email")
		return
	}
	s.sendAsync([]string{email}, "[MakeCommunity] 비밀번호 재설정 안내", body)
}
