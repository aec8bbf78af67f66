package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/apptdesk/libs/db"
	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/storage"
)

func TestTranslate(t *testing.T) {
	cases := []struct {
		in   error
		want error
	}{
		{pgx.ErrNoRows, storage.ErrNotFound},
		{&pgconn.PgError{Code: "23505", ConstraintName: "clients_phone_key"}, storage.ErrDuplicatePhone},
		{&pgconn.PgError{Code: "23505", ConstraintName: "appointments_slot_key"}, storage.ErrSlotTaken},
		{fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503"}), storage.ErrNotFound},
	}
	for _, tc := range cases {
		if got := translate(tc.in); !errors.Is(got, tc.want) {
			t.Fatalf("translate(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}

	other := &pgconn.PgError{Code: "23505", ConstraintName: "notifications_appointment_key"}
	if got := translate(other); storage.IsConflict(got) {
		t.Fatalf("unrelated unique violation should pass through, got %v", got)
	}
}

// TestStoreAgainstDatabase needs a disposable database in TEST_DATABASE_URL.
func TestStoreAgainstDatabase(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := db.Open(ctx, url, db.Config{})
	if err != nil {
		t.Fatalf("open pool: %v", err)
	}
	st, err := New(ctx, pool)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	if _, err := pool.Exec(ctx, `TRUNCATE clients RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	clientID, err := st.InsertClient(ctx, "Amina", "0501111111", "")
	if err != nil {
		t.Fatalf("insert client: %v", err)
	}
	if _, err := st.InsertClient(ctx, "Other", "0501111111", ""); !errors.Is(err, storage.ErrDuplicatePhone) {
		t.Fatalf("expected ErrDuplicatePhone, got %v", err)
	}

	start := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	var notifID int64
	err = st.InTx(ctx, func(tx storage.Tx) error {
		apptID, err := tx.InsertAppointment(ctx, model.Appointment{
			ClientID:        clientID,
			Start:           start,
			DurationMinutes: 30,
			Status:          model.StatusScheduled,
		})
		if err != nil {
			return err
		}
		notifID, err = tx.InsertNotification(ctx, model.Notification{AppointmentID: apptID, NotifyAt: start, Message: "Reminder"})
		return err
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	err = st.InTx(ctx, func(tx storage.Tx) error {
		_, err := tx.InsertAppointment(ctx, model.Appointment{ClientID: clientID, Start: start, DurationMinutes: 30, Status: model.StatusScheduled})
		return err
	})
	if !errors.Is(err, storage.ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}

	due, err := st.PendingNotifications(ctx, start)
	if err != nil || len(due) != 1 || !due[0].NotifyAt.Equal(start) {
		t.Fatalf("unexpected pending %+v (%v)", due, err)
	}
	if ok, err := st.MarkNotificationSent(ctx, notifID, start); err != nil || !ok {
		t.Fatalf("first mark: ok=%v err=%v", ok, err)
	}
	if ok, err := st.MarkNotificationSent(ctx, notifID, start); err != nil || ok {
		t.Fatalf("second mark: ok=%v err=%v", ok, err)
	}
}
