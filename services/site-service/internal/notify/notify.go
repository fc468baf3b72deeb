package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/claryon/claryon-site/services/site-service/internal/model"
)

// Notifier tells the office about a new contact submission.
type Notifier interface {
	ContactReceived(ctx context.Context, c model.ContactSubmission) error
}

// DefaultTimeout bounds one delivery when ctx carries no earlier deadline.
const DefaultTimeout = 10 * time.Second

// SMTPNotifier sends plain-text mail through an unauthenticated relay.
type SMTPNotifier struct {
	addr    string
	from    string
	to      string
	timeout time.Duration
}

func NewSMTPNotifier(host, port, from, to string) *SMTPNotifier {
	from = strings.TrimSpace(from)
	if from == "" {
		from = "no-reply@claryon.local"
	}
	return &SMTPNotifier{
		addr:    fmt.Sprintf("%s:%s", strings.TrimSpace(host), strings.TrimSpace(port)),
		from:    from,
		to:      strings.TrimSpace(to),
		timeout: DefaultTimeout,
	}
}

// ContactReceived delivers one message. The whole SMTP exchange stops at
// the ctx deadline or after n.timeout, whichever comes first.
func (n *SMTPNotifier) ContactReceived(ctx context.Context, c model.ContactSubmission) error {
	subject, body := contactMessage(c)
	msg := buildMessage(n.from, n.to, subject, body)

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	return n.send(ctx, []byte(msg))
}

func (n *SMTPNotifier) send(ctx context.Context, msg []byte) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", n.addr)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	deadline, _ := ctx.Deadline()
	if err := conn.SetDeadline(deadline); err != nil {
		_ = conn.Close()
		return err
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	host, _, _ := net.SplitHostPort(n.addr)
	client, err := smtp.NewClient(conn, host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp greeting: %w", err)
	}
	defer client.Close()

	if err := client.Mail(n.from); err != nil {
		return fmt.Errorf("smtp mail: %w", err)
	}
	if err := client.Rcpt(n.to); err != nil {
		return fmt.Errorf("smtp rcpt: %w", err)
	}
	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := wc.Write(msg); err != nil {
		_ = wc.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	return client.Quit()
}

func contactMessage(c model.ContactSubmission) (string, string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", c.Name)
	fmt.Fprintf(&b, "Email: %s\n", c.Email)
	if c.Phone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", c.Phone)
	}
	if c.ServiceOfInterest != "" {
		fmt.Fprintf(&b, "Service: %s\n", c.ServiceOfInterest)
	}
	fmt.Fprintf(&b, "\n%s\n", c.Message)
	return "New contact submission from " + headerSafe(c.Name), b.String()
}

func buildMessage(from, to, subject, body string) string {
	return fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		from,
		to,
		headerSafe(subject),
		body,
	)
}

// headerSafe strips line breaks so user input cannot add headers.
func headerSafe(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}

type NoopNotifier struct{}

func (NoopNotifier) ContactReceived(context.Context, model.ContactSubmission) error {
	return nil
}
