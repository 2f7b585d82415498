package mailqueue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/DishantMadariya/ghost-feedbacksystem-backend/internal/domain"
	"github.com/wneessen/go-mail"
)

type fakeSender struct {
	err  error
	sent []*mail.Msg
}

func (s *fakeSender) DialAndSendWithContext(_ context.Context, msgs ...*mail.Msg) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msgs...)
	return nil
}

type fakeAck struct {
	acked, nacked, requeued bool
}

func (a *fakeAck) Ack(bool) error { a.acked = true; return nil }

func (a *fakeAck) Nack(_ bool, requeue bool) error {
	a.nacked = true
	a.requeued = requeue
	return nil
}

func newTestWorker(t *testing.T, sender Sender) *Worker {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"reset_password_otp_email.html": `<p>Hi {{.fullName}}, your code is {{.otp}} ({{.expiration}} min)</p>`,
		"account_created_email.html":    `<p>Welcome {{.fullName}}</p>`,
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
			t.Fatalf("write template: %v", err)
		}
	}
	return NewWorker("noreply@company.com", dir, sender)
}

func resetJob(t *testing.T) []byte {
	t.Helper()
	b, err := json.Marshal(domain.MailMessage{
		Type: domain.MailTypeResetPassword,
		To:   "hr@company.com",
		Data: domain.ResetPasswordMailData{FullName: "Jane Doe", OTP: "042042", Expiration: 15},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestWorkerDeliversAndAcks(t *testing.T) {
	sender := &fakeSender{}
	w := newTestWorker(t, sender)
	ack := &fakeAck{}

	w.Handle(context.Background(), resetJob(t), ack)

	if !ack.acked || ack.nacked {
		t.Fatalf("expected ack, got %+v", ack)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(sender.sent))
	}
	rcpts, err := sender.sent[0].GetRecipients()
	if err != nil || len(rcpts) != 1 || rcpts[0] != "hr@company.com" {
		t.Fatalf("unexpected recipients %v (%v)", rcpts, err)
	}
	var buf bytes.Buffer
	if _, err := sender.sent[0].WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("042042")) {
		t.Fatalf("rendered mail lacks the code:\n%s", buf.String())
	}
}

func TestWorkerSettlesFailures(t *testing.T) {
	cases := []struct {
		name     string
		body     []byte
		sendErr  error
		requeued bool
	}{
		{name: "malformed json", body: []byte("{"), requeued: false},
		{name: "unknown type", body: []byte(`{"type":"newsletter","to":"a@b.co","data":{}}`), requeued: false},
		{name: "smtp failure", body: nil, sendErr: errors.New("connection refused"), requeued: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := newTestWorker(t, &fakeSender{err: tc.sendErr})
			body := tc.body
			if body == nil {
				body = resetJob(t)
			}
			ack := &fakeAck{}
			w.Handle(context.Background(), body, ack)
			if ack.acked || !ack.nacked || ack.requeued != tc.requeued {
				t.Fatalf("unexpected settlement %+v", ack)
			}
		})
	}
}
