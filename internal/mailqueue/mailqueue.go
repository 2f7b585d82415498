package mailqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

const DefaultQueue = "email_queue"

// Channel is the part of *amqp.Channel the publisher uses.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// DeclareQueue declares the durable mail queue shared by the API and the worker.
func DeclareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	if name == "" {
		name = DefaultQueue
	}
	return ch.QueueDeclare(
		name,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
}

// Publisher puts mail jobs on the queue for cmd/mail to deliver.
type Publisher struct {
	ch      Channel
	queue   string
	timeout time.Duration
}

func NewPublisher(ch Channel, queue string, timeout time.Duration) *Publisher {
	if queue == "" {
		queue = DefaultQueue
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Publisher{ch: ch, queue: queue, timeout: timeout}
}

func (p *Publisher) Publish(ctx context.Context, msg domain.MailMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return p.ch.PublishWithContext(
		ctx,
		"",
		p.queue,
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// SendPasswordReset queues the reset code mail.
func (p *Publisher) SendPasswordReset(ctx context.Context, account *domain.Account, code string, ttl time.Duration) error {
	return p.Publish(ctx, domain.MailMessage{
		Type: domain.MailTypeResetPassword,
		To:   account.Email,
		Data: domain.ResetPasswordMailData{
			FullName:   account.FullName(),
			OTP:        code,
			Expiration: int(ttl / time.Minute),
		},
	})
}

// SendAccountCreated queues the welcome mail. password is only included when
// the server generated it.
func (p *Publisher) SendAccountCreated(ctx context.Context, account *domain.Account, password string) error {
	return p.Publish(ctx, domain.MailMessage{
		Type: domain.MailTypeAccountCreated,
		To:   account.Email,
		Data: domain.AccountCreatedMailData{
			FullName: account.FullName(),
			Email:    account.Email,
			Role:     account.Role,
			Password: password,
		},
	})
}

// Template describes how the worker renders one mail type.
type Template struct {
	File    string
	Subject string
}

var templates = map[string]Template{
	domain.MailTypeAccountCreated: {File: "account_created_email.html", Subject: "Ghost Feedback - Your admin account"},
	domain.MailTypeResetPassword:  {File: "reset_password_otp_email.html", Subject: "Ghost Feedback - Password reset code"},
}

func TemplateFor(mailType string) (Template, error) {
	t, ok := templates[mailType]
	if !ok {
		return Template{}, fmt.Errorf("unsupported mail type %q", mailType)
	}
	return t, nil
}
