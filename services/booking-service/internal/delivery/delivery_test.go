package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/md-rashed-zaman/apptdesk/libs/kafkax"
	"github.com/segmentio/kafka-go"
)

func sampleReminder() Reminder {
	return Reminder{
		NotificationID: 7,
		AppointmentID:  3,
		Title:          "Appointment Reminder",
		Message:        "Reminder: you have an appointment at 09:00 with Amina",
		ClientName:     "Amina",
		Phone:          "0501111111",
		NotifyAt:       time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC),
	}
}

func TestMultiSucceedsWhenAnyChannelDelivers(t *testing.T) {
	failing := SinkFunc(func(context.Context, Reminder) error { return errors.New("down") })
	skipped := SinkFunc(func(context.Context, Reminder) error { return ErrNoRecipient })
	ok := SinkFunc(func(context.Context, Reminder) error { return nil })

	var logs strings.Builder
	m := NewMulti(slog.New(slog.NewJSONHandler(&logs, nil))).Add("sms", failing).Add("email", skipped).Add("log", ok)
	if err := m.Deliver(context.Background(), sampleReminder()); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if !strings.Contains(logs.String(), `"channel":"sms"`) || !strings.Contains(logs.String(), `"err":"down"`) {
		t.Fatalf("failing channel should be logged despite success, got %s", logs.String())
	}
	if strings.Contains(logs.String(), `"channel":"email"`) {
		t.Fatalf("skipped channel should not be logged as a failure, got %s", logs.String())
	}

	m = NewMulti(nil).Add("sms", failing).Add("email", skipped)
	err := m.Deliver(context.Background(), sampleReminder())
	if err == nil || !strings.Contains(err.Error(), "sms: down") {
		t.Fatalf("expected joined sms error, got %v", err)
	}

	m = NewMulti(nil).Add("email", skipped)
	if err := m.Deliver(context.Background(), sampleReminder()); !errors.Is(err, ErrNoRecipient) {
		t.Fatalf("expected ErrNoRecipient, got %v", err)
	}

	if err := NewMulti(nil).Deliver(context.Background(), sampleReminder()); err == nil {
		t.Fatal("expected error with no channels")
	}
}

func TestLogSink(t *testing.T) {
	var buf strings.Builder
	s := NewLogSink(slog.New(slog.NewJSONHandler(&buf, nil)))
	if err := s.Deliver(context.Background(), sampleReminder()); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if !strings.Contains(buf.String(), `"title":"Appointment Reminder"`) {
		t.Fatalf("unexpected log output %s", buf.String())
	}
}

func TestEmailSink(t *testing.T) {
	s := NewEmailSink("localhost", "1025", "")
	var gotTo []string
	var gotMsg string
	s.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		if addr != "localhost:1025" || from != "no-reply@apptdesk.local" {
			t.Fatalf("unexpected addr/from %s %s", addr, from)
		}
		gotTo = to
		gotMsg = string(msg)
		return nil
	}

	r := sampleReminder()
	if err := s.Deliver(context.Background(), r); !errors.Is(err, ErrNoRecipient) {
		t.Fatalf("expected ErrNoRecipient without email, got %v", err)
	}

	r.Email = "amina@example.com"
	if err := s.Deliver(context.Background(), r); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if len(gotTo) != 1 || gotTo[0] != "amina@example.com" {
		t.Fatalf("unexpected recipients %v", gotTo)
	}
	if !strings.Contains(gotMsg, "Subject: Appointment Reminder\r\n") || !strings.Contains(gotMsg, r.Message) {
		t.Fatalf("unexpected message %q", gotMsg)
	}
}

func TestSMSWebhookSink(t *testing.T) {
	var payload map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &payload)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewSMSWebhookSink(srv.URL, "secret")
	if err := s.Deliver(context.Background(), sampleReminder()); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if payload["to"] != "0501111111" || !strings.HasPrefix(payload["body"], "Reminder:") {
		t.Fatalf("unexpected payload %v", payload)
	}

	bad := NewSMSWebhookSink(srv.URL, "wrong")
	if err := bad.Deliver(context.Background(), sampleReminder()); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
	if err := NewSMSWebhookSink("", "").Deliver(context.Background(), sampleReminder()); err == nil {
		t.Fatal("expected error without url")
	}
}

type fakeWriter struct {
	msgs []kafka.Message
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaSinkPublishesEvent(t *testing.T) {
	w := &fakeWriter{}
	s := &KafkaSink{writer: w, topic: DefaultReminderTopic}
	if err := s.Deliver(context.Background(), sampleReminder()); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(w.msgs))
	}
	msg := w.msgs[0]
	if msg.Topic != DefaultReminderTopic || string(msg.Key) != "3" {
		t.Fatalf("unexpected topic/key %s %s", msg.Topic, msg.Key)
	}
	if kafkax.HeaderValue(msg.Headers, kafkax.HeaderEventID) == "" {
		t.Fatal("expected event id header")
	}
	if kafkax.HeaderValue(msg.Headers, kafkax.HeaderEventType) != DefaultReminderTopic {
		t.Fatal("expected event type header")
	}
	var ev reminderEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.NotificationID != 7 || ev.ClientName != "Amina" || !ev.NotifyAt.Equal(sampleReminder().NotifyAt) {
		t.Fatalf("unexpected event %+v", ev)
	}

	if _, err := NewKafkaSink(" , ", ""); err == nil {
		t.Fatal("expected error without brokers")
	}
}

func TestTelegramSinkRequiresConfig(t *testing.T) {
	if _, err := NewTelegramSink(TelegramConfig{ChatID: 1}); err == nil {
		t.Fatal("expected error without token")
	}
	if _, err := NewTelegramSink(TelegramConfig{Token: "123:abc"}); err == nil {
		t.Fatal("expected error without chat id")
	}
}

func TestTelegramSinkSendsToChat(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"},"text":"x"}}`)
	}))
	defer srv.Close()

	s, err := NewTelegramSink(TelegramConfig{Token: "123:abc", ChatID: 42, APIURL: srv.URL})
	if err != nil {
		t.Fatalf("NewTelegramSink: %v", err)
	}
	if err := s.Deliver(context.Background(), sampleReminder()); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if path != "/bot123:abc/sendMessage" {
		t.Fatalf("unexpected api path %q", path)
	}
}
