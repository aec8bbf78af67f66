package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(context.Background(), Config{Path: filepath.Join(t.TempDir(), "appointments.db")}, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func bookWithReminder(t *testing.T, st *Store, clientID int64, start time.Time) (int64, int64) {
	t.Helper()
	var apptID, notifID int64
	err := st.InTx(context.Background(), func(tx storage.Tx) error {
		var err error
		apptID, err = tx.InsertAppointment(context.Background(), model.Appointment{
			ClientID:        clientID,
			Start:           start,
			Service:         "Consultation",
			DurationMinutes: model.DefaultDurationMinutes,
			Status:          model.StatusScheduled,
		})
		if err != nil {
			return err
		}
		notifID, err = tx.InsertNotification(context.Background(), model.Notification{
			AppointmentID: apptID,
			NotifyAt:      start,
			Message:       "Reminder",
		})
		return err
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	return apptID, notifID
}

func TestClientPhoneIsUnique(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if _, err := st.InsertClient(ctx, "Amina", "0501111111", ""); err != nil {
		t.Fatalf("insert client: %v", err)
	}
	_, err := st.InsertClient(ctx, "Other", "0501111111", "")
	if !errors.Is(err, storage.ErrDuplicatePhone) {
		t.Fatalf("expected ErrDuplicatePhone, got %v", err)
	}
}

func TestAppointmentSlotIsUnique(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	clientID, err := st.InsertClient(ctx, "Amina", "0501111111", "")
	if err != nil {
		t.Fatalf("insert client: %v", err)
	}
	start := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	bookWithReminder(t, st, clientID, start)

	err = st.InTx(ctx, func(tx storage.Tx) error {
		_, err := tx.InsertAppointment(ctx, model.Appointment{
			ClientID:        clientID,
			Start:           start,
			DurationMinutes: model.DefaultDurationMinutes,
			Status:          model.StatusScheduled,
		})
		return err
	})
	if !errors.Is(err, storage.ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}

	appts, err := st.ListAppointmentsByDate(ctx, start)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(appts) != 1 {
		t.Fatalf("expected 1 appointment, got %d", len(appts))
	}
	if appts[0].ClientName != "Amina" || appts[0].TimeString() != "09:00" {
		t.Fatalf("unexpected appointment %+v", appts[0])
	}
}

func TestRollbackDiscardsAppointment(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	clientID, _ := st.InsertClient(ctx, "Amina", "0501111111", "")
	start := time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)

	boom := errors.New("boom")
	err := st.InTx(ctx, func(tx storage.Tx) error {
		if _, err := tx.InsertAppointment(ctx, model.Appointment{
			ClientID:        clientID,
			Start:           start,
			DurationMinutes: 30,
			Status:          model.StatusScheduled,
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	appts, _ := st.ListAllAppointments(ctx)
	if len(appts) != 0 {
		t.Fatalf("expected rollback, found %d appointments", len(appts))
	}
}

func TestMarkNotificationSentOnce(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	clientID, _ := st.InsertClient(ctx, "Amina", "0501111111", "")
	start := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	apptID, notifID := bookWithReminder(t, st, clientID, start)

	at := start.Add(time.Minute)
	ok, err := st.MarkNotificationSent(ctx, notifID, at)
	if err != nil || !ok {
		t.Fatalf("first mark: ok=%v err=%v", ok, err)
	}
	ok, err = st.MarkNotificationSent(ctx, notifID, at.Add(time.Minute))
	if err != nil || ok {
		t.Fatalf("second mark should be a no-op: ok=%v err=%v", ok, err)
	}
	if _, err := st.MarkNotificationSent(ctx, 9999, at); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}

	n, err := st.GetNotificationByAppointment(ctx, apptID)
	if err != nil {
		t.Fatalf("get notification: %v", err)
	}
	if !n.IsSent || n.SentAt == nil || !n.SentAt.Equal(at) {
		t.Fatalf("unexpected notification state %+v", n)
	}
}

func TestPendingNotificationsFilter(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	clientID, _ := st.InsertClient(ctx, "Amina", "0501111111", "")
	early := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	late := time.Date(2024, 1, 10, 11, 0, 0, 0, time.UTC)
	bookWithReminder(t, st, clientID, early)
	bookWithReminder(t, st, clientID, late)

	due, err := st.PendingNotifications(ctx, time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(due) != 1 || !due[0].NotifyAt.Equal(early) {
		t.Fatalf("expected only the 09:00 reminder, got %+v", due)
	}
	if due[0].ClientPhone != "0501111111" || !due[0].AppointmentStart.Equal(early) {
		t.Fatalf("expected joined client and appointment fields, got %+v", due[0])
	}

	if _, err := st.MarkNotificationSent(ctx, due[0].ID, early); err != nil {
		t.Fatalf("mark: %v", err)
	}
	due, _ = st.PendingNotifications(ctx, late)
	if len(due) != 1 || !due[0].NotifyAt.Equal(late) {
		t.Fatalf("expected only the 11:00 reminder, got %+v", due)
	}
}

func TestDeleteClientCascades(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	clientID, _ := st.InsertClient(ctx, "Amina", "0501111111", "")
	apptID, _ := bookWithReminder(t, st, clientID, time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC))

	if err := st.DeleteClient(ctx, clientID); err != nil {
		t.Fatalf("delete client: %v", err)
	}
	if _, err := st.GetAppointment(ctx, apptID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected appointment gone, got %v", err)
	}
	if _, err := st.GetNotificationByAppointment(ctx, apptID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected notification gone, got %v", err)
	}
	if err := st.DeleteClient(ctx, clientID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestRescheduleSkipsSentNotification(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	clientID, _ := st.InsertClient(ctx, "Amina", "0501111111", "")
	start := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	apptID, notifID := bookWithReminder(t, st, clientID, start)

	moved := start.Add(2 * time.Hour)
	err := st.InTx(ctx, func(tx storage.Tx) error {
		return tx.RescheduleNotification(ctx, apptID, moved, "moved")
	})
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	n, _ := st.GetNotificationByAppointment(ctx, apptID)
	if !n.NotifyAt.Equal(moved) || n.Message != "moved" {
		t.Fatalf("expected moved reminder, got %+v", n)
	}

	if _, err := st.MarkNotificationSent(ctx, notifID, moved); err != nil {
		t.Fatalf("mark: %v", err)
	}
	_ = st.InTx(ctx, func(tx storage.Tx) error {
		return tx.RescheduleNotification(ctx, apptID, start, "again")
	})
	n, _ = st.GetNotificationByAppointment(ctx, apptID)
	if !n.NotifyAt.Equal(moved) || n.Message != "moved" {
		t.Fatalf("sent reminder must not move, got %+v", n)
	}
}

func TestStats(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	clientID, _ := st.InsertClient(ctx, "Amina", "0501111111", "")
	apptID, _ := bookWithReminder(t, st, clientID, time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC))
	bookWithReminder(t, st, clientID, time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC))

	a, _ := st.GetAppointment(ctx, apptID)
	a.Status = model.StatusCancelled
	if err := st.UpdateAppointment(ctx, a); err != nil {
		t.Fatalf("update: %v", err)
	}

	s, err := st.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	want := model.Stats{TotalClients: 1, TotalAppointments: 2, Scheduled: 1, Cancelled: 1, PendingReminders: 2}
	if s != want {
		t.Fatalf("expected %+v, got %+v", want, s)
	}
}

func TestOpenAppliesPragmas(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	var mode string
	if err := st.db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Fatalf("expected wal journal, got %q", mode)
	}
	var sync, fk int
	if err := st.db.QueryRowContext(ctx, "PRAGMA synchronous").Scan(&sync); err != nil {
		t.Fatalf("synchronous: %v", err)
	}
	if err := st.db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("foreign_keys: %v", err)
	}
	if sync != 1 || fk != 1 {
		t.Fatalf("expected synchronous=NORMAL and foreign_keys on, got %d %d", sync, fk)
	}
}
