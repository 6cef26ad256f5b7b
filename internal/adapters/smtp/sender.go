// Package smtp delivers rendered reports by email. The provider path mirrors
// common Gmail app-password setups: STARTTLS on the configured port first,
// implicit TLS on 465 as fallback.
package smtp

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ItRachii/weekly-app-review-pulse/internal/core/pipeline"
	"github.com/ItRachii/weekly-app-review-pulse/internal/ports/secondary"
)

// Sender implements secondary.ReportSender over SMTP.
type Sender struct {
	host     string
	port     int
	username string
	password string
	from     string
	timeout  time.Duration
	log      *zap.SugaredLogger
}

var _ secondary.ReportSender = (*Sender)(nil)

// Config carries the SMTP settings.
type Config struct {
	Host     string
	Port     int // STARTTLS port, typically 587
	Username string
	Password string
	From     string // defaults to Username
}

// NewSender builds a sender from configuration. App passwords copied from
// provider UIs often carry spaces; they are stripped here.
func NewSender(cfg Config, logger *zap.SugaredLogger) *Sender {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Sender{
		host:     cfg.Host,
		port:     cfg.Port,
		username: strings.TrimSpace(cfg.Username),
		password: strings.ReplaceAll(strings.TrimSpace(cfg.Password), " ", ""),
		from:     strings.TrimSpace(cfg.From),
		timeout:  15 * time.Second,
		log:      logger.Named("smtp"),
	}
}

// Send delivers the HTML body to the recipient. A failure on the STARTTLS
// port falls back to implicit TLS on 465 before giving up.
func (s *Sender) Send(ctx context.Context, subject, htmlBody, recipient string) (*secondary.DeliveryAck, error) {
	if s.username == "" || s.password == "" {
		return nil, &pipeline.DeliveryError{
			Recipient: recipient,
			Err:       fmt.Errorf("smtp credentials not configured"),
		}
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), s.host)
	message := s.buildMessage(messageID, subject, htmlBody, recipient)

	if err := s.sendSTARTTLS(ctx, recipient, message); err != nil {
		s.log.Warnw("delivery failed on starttls port, falling back to 465",
			"port", s.port, "error", err)
		if sslErr := s.sendImplicitTLS(ctx, recipient, message); sslErr != nil {
			return nil, &pipeline.DeliveryError{
				Recipient: recipient,
				Err:       fmt.Errorf("starttls: %v; ssl fallback: %w", err, sslErr),
			}
		}
	}

	s.log.Infow("report delivered", "recipient", recipient, "message_id", messageID)
	return &secondary.DeliveryAck{MessageID: messageID, Recipient: recipient}, nil
}

func (s *Sender) buildMessage(messageID, subject, htmlBody, recipient string) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Message-ID: %s\r\n", messageID)
	fmt.Fprintf(&sb, "From: %s\r\n", s.from)
	fmt.Fprintf(&sb, "To: %s\r\n", recipient)
	fmt.Fprintf(&sb, "Subject: %s\r\n", subject)
	fmt.Fprintf(&sb, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(htmlBody)
	sb.WriteString("\r\n")
	return []byte(sb.String())
}

func (s *Sender) sendSTARTTLS(ctx context.Context, recipient string, message []byte) error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	conn, err := s.dial(ctx, addr)
	if err != nil {
		return err
	}

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: s.host}); err != nil {
		return err
	}
	return s.submit(client, recipient, message)
}

func (s *Sender) sendImplicitTLS(ctx context.Context, recipient string, message []byte) error {
	addr := fmt.Sprintf("%s:465", s.host)
	conn, err := s.dial(ctx, addr)
	if err != nil {
		return err
	}
	tlsConn := tls.Client(conn, &tls.Config{ServerName: s.host})

	client, err := smtp.NewClient(tlsConn, s.host)
	if err != nil {
		tlsConn.Close()
		return err
	}
	defer client.Close()

	return s.submit(client, recipient, message)
}

func (s *Sender) dial(ctx context.Context, addr string) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: s.timeout}
	return dialer.DialContext(ctx, "tcp", addr)
}

func (s *Sender) submit(client *smtp.Client, recipient string, message []byte) error {
	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := client.Mail(s.from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := client.Rcpt(recipient); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(message); err != nil {
		w.Close()
		return fmt.Errorf("write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close body: %w", err)
	}
	return client.Quit()
}
