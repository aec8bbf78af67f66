package scheduling

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/storage"
	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/storage/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.Open(context.Background(), sqlite.Config{Path: filepath.Join(t.TempDir(), "test.db")}, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func insertAppointment(t *testing.T, st storage.Store, clientID int64, start time.Time, status model.Status) int64 {
	t.Helper()
	var id int64
	err := st.InTx(context.Background(), func(tx storage.Tx) error {
		var err error
		id, err = tx.InsertAppointment(context.Background(), model.Appointment{
			ClientID:        clientID,
			Start:           start,
			DurationMinutes: model.DefaultDurationMinutes,
			Status:          status,
		})
		return err
	})
	if err != nil {
		t.Fatalf("insert appointment: %v", err)
	}
	return id
}

func TestValidateAppointmentMissingFields(t *testing.T) {
	v := NewValidator(newTestStore(t))
	ctx := context.Background()

	cases := []struct {
		clientID    int64
		date, clock string
		want        error
	}{
		{0, "2024-01-10", "09:00", ErrMissingClient},
		{1, "", "09:00", ErrMissingDate},
		{1, "2024-01-10", "", ErrMissingTime},
		{1, "bad", "", ErrMissingTime},
		{1, "2024-13-01", "09:00", ErrInvalidDate},
		{1, "2024-01-10", "9:00", ErrInvalidTime},
	}
	for _, tc := range cases {
		_, err := v.ValidateAppointment(ctx, tc.clientID, tc.date, tc.clock)
		if !errors.Is(err, tc.want) {
			t.Fatalf("ValidateAppointment(%d, %q, %q) = %v, want %v", tc.clientID, tc.date, tc.clock, err, tc.want)
		}
	}

	_, err := v.ValidateAppointment(ctx, 1, "2024-01-10", "9:00")
	if !errors.Is(err, model.ErrInvalidTime) {
		t.Fatalf("expected model.ErrInvalidTime in chain, got %v", err)
	}
}

func TestSlotTakenRegardlessOfStatus(t *testing.T) {
	st := newTestStore(t)
	v := NewValidator(st)
	ctx := context.Background()
	clientID, _ := st.InsertClient(ctx, "Amina", "0501111111", "")

	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	for i, status := range []model.Status{model.StatusScheduled, model.StatusCompleted, model.StatusCancelled} {
		start := day.Add(9*time.Hour + time.Duration(i)*time.Hour)
		insertAppointment(t, st, clientID, start, status)

		_, err := v.ValidateAppointment(ctx, clientID, "2024-01-10", start.Format(model.ClockLayout))
		if !errors.Is(err, ErrSlotTaken) {
			t.Fatalf("%s appointment at %s should occupy the slot, got %v", status, start.Format(model.ClockLayout), err)
		}
		if !errors.Is(err, storage.ErrSlotTaken) {
			t.Fatalf("expected storage.ErrSlotTaken in chain, got %v", err)
		}
		ve, ok := AsValidation(err)
		if !ok || ve.Code != CodeSlotTaken || !strings.Contains(ve.Reason, "2024-01-10") {
			t.Fatalf("unexpected validation error %#v", err)
		}
	}

	slot, err := v.ValidateAppointment(ctx, clientID, "2024-01-10", "12:00")
	if err != nil {
		t.Fatalf("free slot rejected: %v", err)
	}
	if slot.String() != "2024-01-10 12:00" {
		t.Fatalf("unexpected slot %s", slot)
	}
}

func TestValidateRescheduleIgnoresOwnRow(t *testing.T) {
	st := newTestStore(t)
	v := NewValidator(st)
	ctx := context.Background()
	clientID, _ := st.InsertClient(ctx, "Amina", "0501111111", "")
	own := insertAppointment(t, st, clientID, time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC), model.StatusScheduled)
	insertAppointment(t, st, clientID, time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC), model.StatusScheduled)

	if _, err := v.ValidateReschedule(ctx, own, "2024-01-10", "09:00"); err != nil {
		t.Fatalf("keeping the same slot should be allowed: %v", err)
	}
	if _, err := v.ValidateReschedule(ctx, own, "2024-01-10", "10:00"); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
	if _, err := v.ValidateReschedule(ctx, 999, "2024-01-10", "11:00"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown appointment, got %v", err)
	}
}

func TestAvailableTimesFullDay(t *testing.T) {
	v := NewValidator(newTestStore(t))
	got, err := v.AvailableTimes(context.Background(), "2024-01-10", 0)
	if err != nil {
		t.Fatalf("AvailableTimes: %v", err)
	}
	want := []string{
		"09:00", "09:30", "10:00", "10:30", "11:00", "11:30", "12:00", "12:30",
		"13:00", "13:30", "14:00", "14:30", "15:00", "15:30", "16:00", "16:30",
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestAvailableTimesIntervals(t *testing.T) {
	v := NewValidator(newTestStore(t))
	ctx := context.Background()

	got, err := v.AvailableTimes(ctx, "2024-01-10", 480)
	if err != nil || len(got) != 0 {
		t.Fatalf("interval spanning the window should yield nothing, got %v (%v)", got, err)
	}
	for _, huge := range []int{481, 30 + 1<<53, int(^uint(0) >> 1)} {
		got, err = v.AvailableTimes(ctx, "2024-01-10", huge)
		if err != nil || len(got) != 0 {
			t.Fatalf("interval %d should yield nothing, got %v (%v)", huge, got, err)
		}
	}
	got, _ = v.AvailableTimes(ctx, "2024-01-10", 120)
	if strings.Join(got, ",") != "09:00,11:00,13:00,15:00" {
		t.Fatalf("unexpected 2h grid %v", got)
	}
	if _, err := v.AvailableTimes(ctx, "2024-01-10", -15); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval, got %v", err)
	}
	if _, err := v.AvailableTimes(ctx, "", 30); !errors.Is(err, ErrMissingDate) {
		t.Fatalf("expected ErrMissingDate, got %v", err)
	}
}

func TestAminaBookingScenario(t *testing.T) {
	st := newTestStore(t)
	v := NewValidator(st)
	ctx := context.Background()
	clientID, err := st.InsertClient(ctx, "Amina", "0501111111", "")
	if err != nil {
		t.Fatalf("insert client: %v", err)
	}

	slot, err := v.ValidateAppointment(ctx, clientID, "2024-01-10", "09:00")
	if err != nil {
		t.Fatalf("first validation should pass: %v", err)
	}
	insertAppointment(t, st, clientID, slot.Start(), model.StatusScheduled)

	free, _ := v.AvailableTimes(ctx, "2024-01-10", 30)
	if len(free) != 15 {
		t.Fatalf("expected 15 free slots, got %d", len(free))
	}
	for _, f := range free {
		if f == "09:00" {
			t.Fatal("09:00 should no longer be free")
		}
	}
	if _, err := v.ValidateAppointment(ctx, clientID, "2024-01-10", "09:00"); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("second booking should fail with ErrSlotTaken, got %v", err)
	}
}

func TestAppointmentsInRange(t *testing.T) {
	st := newTestStore(t)
	v := NewValidator(st)
	ctx := context.Background()
	clientID, _ := st.InsertClient(ctx, "Amina", "0501111111", "")
	insertAppointment(t, st, clientID, time.Date(2024, 1, 12, 9, 0, 0, 0, time.UTC), model.StatusScheduled)
	insertAppointment(t, st, clientID, time.Date(2024, 1, 10, 16, 30, 0, 0, time.UTC), model.StatusScheduled)
	insertAppointment(t, st, clientID, time.Date(2024, 1, 13, 9, 0, 0, 0, time.UTC), model.StatusScheduled)

	got, err := v.AppointmentsInRange(ctx, "2024-01-10", "2024-01-12")
	if err != nil {
		t.Fatalf("AppointmentsInRange: %v", err)
	}
	if len(got) != 2 || got[0].DateString() != "2024-01-10" || got[1].DateString() != "2024-01-12" {
		t.Fatalf("unexpected range result %+v", got)
	}

	got, err = v.AppointmentsInRange(ctx, "2024-01-12", "2024-01-10")
	if err != nil || len(got) != 0 {
		t.Fatalf("reversed range should be empty, got %v (%v)", got, err)
	}
}
