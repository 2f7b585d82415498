package mailqueue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

type recordingChannel struct {
	key  string
	msgs []amqp.Publishing
}

func (c *recordingChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	c.key = key
	c.msgs = append(c.msgs, msg)
	return nil
}

func TestSendPasswordReset(t *testing.T) {
	ch := &recordingChannel{}
	p := NewPublisher(ch, "", time.Second)
	account := &domain.Account{Email: "hr@company.com", FirstName: "Jane", LastName: "Doe"}

	if err := p.SendPasswordReset(context.Background(), account, "042042", 15*time.Minute); err != nil {
		t.Fatalf("SendPasswordReset: %v", err)
	}
	if ch.key != DefaultQueue || len(ch.msgs) != 1 {
		t.Fatalf("unexpected publish: key=%s n=%d", ch.key, len(ch.msgs))
	}
	if ch.msgs[0].DeliveryMode != amqp.Persistent {
		t.Fatal("mail jobs should survive a broker restart")
	}

	var msg struct {
		Type string                       `json:"type"`
		To   string                       `json:"to"`
		Data domain.ResetPasswordMailData `json:"data"`
	}
	if err := json.Unmarshal(ch.msgs[0].Body, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Type != domain.MailTypeResetPassword || msg.To != "hr@company.com" {
		t.Fatalf("unexpected envelope: %+v", msg)
	}
	if msg.Data.OTP != "042042" || msg.Data.Expiration != 15 || msg.Data.FullName != "Jane Doe" {
		t.Fatalf("unexpected data: %+v", msg.Data)
	}
}

func TestSendAccountCreatedOmitsChosenPassword(t *testing.T) {
	ch := &recordingChannel{}
	p := NewPublisher(ch, "mail", time.Second)
	account := &domain.Account{Email: "cto@company.com", Role: domain.RoleCTO}

	if err := p.SendAccountCreated(context.Background(), account, ""); err != nil {
		t.Fatalf("SendAccountCreated: %v", err)
	}
	var raw map[string]map[string]any
	if err := json.Unmarshal(ch.msgs[0].Body, &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := raw["data"]["password"]; ok {
		t.Fatal("password must be omitted when the admin chose it")
	}
}

func TestTemplateFor(t *testing.T) {
	if _, err := TemplateFor(domain.MailTypeAccountCreated); err != nil {
		t.Fatalf("TemplateFor: %v", err)
	}
	if _, err := TemplateFor("change_email"); err == nil {
		t.Fatal("expected an error for an unknown type")
	}
}
