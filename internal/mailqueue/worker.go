package mailqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/domain"
	"github.com/wneessen/go-mail"
)

// Sender delivers built messages; *mail.Client satisfies it.
type Sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Acknowledger is the settle side of an amqp.Delivery.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// Worker renders queued mail jobs and hands them to an SMTP sender.
type Worker struct {
	from        string
	templateDir string
	sender      Sender

	mu        sync.Mutex
	templates map[string]*template.Template
}

func NewWorker(from, templateDir string, sender Sender) *Worker {
	return &Worker{
		from:        from,
		templateDir: templateDir,
		sender:      sender,
		templates:   make(map[string]*template.Template),
	}
}

func (w *Worker) template(file string) (*template.Template, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if tmpl, ok := w.templates[file]; ok {
		return tmpl, nil
	}
	tmpl, err := template.ParseFiles(filepath.Join(w.templateDir, file))
	if err != nil {
		return nil, err
	}
	w.templates[file] = tmpl
	return tmpl, nil
}

// Build turns a queued job into a ready to send message.
func (w *Worker) Build(job domain.MailMessage) (*mail.Msg, error) {
	t, err := TemplateFor(job.Type)
	if err != nil {
		return nil, err
	}
	tmpl, err := w.template(t.File)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	msg := mail.NewMsg()
	if err := msg.From(w.from); err != nil {
		return nil, fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(job.To); err != nil {
		return nil, fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(t.Subject)
	if err := msg.SetBodyHTMLTemplate(tmpl, job.Data); err != nil {
		return nil, fmt.Errorf("render body: %w", err)
	}
	return msg, nil
}

// Handle processes one delivery. Malformed or unrenderable jobs are dropped,
// failed sends are requeued and delivered mail is acknowledged.
func (w *Worker) Handle(ctx context.Context, body []byte, ack Acknowledger) {
	var job domain.MailMessage
	if err := json.Unmarshal(body, &job); err != nil {
		slog.Error("failed to decode mail job", "error", err)
		_ = ack.Nack(false, false)
		return
	}

	msg, err := w.Build(job)
	if err != nil {
		slog.Error("failed to build mail", "type", job.Type, "error", err)
		_ = ack.Nack(false, false)
		return
	}

	if err := w.sender.DialAndSendWithContext(ctx, msg); err != nil {
		slog.Error("failed to send mail", "type", job.Type, "error", err)
		_ = ack.Nack(false, true)
		return
	}

	slog.Info("mail sent", "type", job.Type)
	_ = ack.Ack(false)
}
