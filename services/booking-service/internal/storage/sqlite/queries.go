package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/storage"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type queries struct {
	q   querier
	now func() time.Time
}

var _ storage.Tx = (*queries)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

const selectAppointment = `
	SELECT a.id, a.client_id, a.starts_at, a.service, a.duration_minutes, a.notes, a.status, a.created_at,
		c.name, c.phone, c.email
	FROM appointments a
	JOIN clients c ON c.id = a.client_id`

const selectNotification = `
	SELECT n.id, n.appointment_id, n.notify_at, n.message, n.is_sent, n.sent_at, n.traceparent, n.tracestate,
		n.created_at, a.starts_at, c.name, c.phone, c.email
	FROM notifications n
	JOIN appointments a ON a.id = n.appointment_id
	JOIN clients c ON c.id = a.client_id`

func (r *queries) InsertClient(ctx context.Context, name, phone, email string) (int64, error) {
	res, err := r.q.ExecContext(ctx, `
		INSERT INTO clients (name, phone, email, created_at)
		VALUES (?, ?, ?, ?)
	`, name, phone, email, r.now().Unix())
	if err != nil {
		return 0, translate(err)
	}
	return res.LastInsertId()
}

func (r *queries) GetClient(ctx context.Context, id int64) (model.Client, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, name, phone, email, created_at FROM clients WHERE id = ?
	`, id)
	c, err := scanClient(row)
	if err != nil {
		return model.Client{}, translate(err)
	}
	return c, nil
}

func (r *queries) ListClientsByName(ctx context.Context) ([]model.Client, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, name, phone, email, created_at FROM clients ORDER BY name ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []model.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (r *queries) UpdateClient(ctx context.Context, c model.Client) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE clients SET name = ?, phone = ?, email = ? WHERE id = ?
	`, c.Name, c.Phone, c.Email, c.ID)
	if err != nil {
		return translate(err)
	}
	return expectOne(res)
}

func (r *queries) DeleteClient(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *queries) InsertAppointment(ctx context.Context, a model.Appointment) (int64, error) {
	res, err := r.q.ExecContext(ctx, `
		INSERT INTO appointments (client_id, starts_at, service, duration_minutes, notes, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, a.ClientID, a.Start.Unix(), a.Service, a.DurationMinutes, a.Notes, string(a.Status), r.now().Unix())
	if err != nil {
		return 0, translate(err)
	}
	return res.LastInsertId()
}

func (r *queries) GetAppointment(ctx context.Context, id int64) (model.Appointment, error) {
	row := r.q.QueryRowContext(ctx, selectAppointment+` WHERE a.id = ?`, id)
	a, err := scanAppointment(row)
	if err != nil {
		return model.Appointment{}, translate(err)
	}
	return a, nil
}

func (r *queries) ListAppointmentsByDate(ctx context.Context, day time.Time) ([]model.Appointment, error) {
	from, to := storage.DayBounds(day)
	return r.listAppointments(ctx, selectAppointment+`
		WHERE a.starts_at >= ? AND a.starts_at < ?
		ORDER BY a.starts_at ASC
	`, from.Unix(), to.Unix())
}

func (r *queries) ListAppointmentsInRange(ctx context.Context, from, to time.Time) ([]model.Appointment, error) {
	start, _ := storage.DayBounds(from)
	_, end := storage.DayBounds(to)
	return r.listAppointments(ctx, selectAppointment+`
		WHERE a.starts_at >= ? AND a.starts_at < ?
		ORDER BY a.starts_at ASC
	`, start.Unix(), end.Unix())
}

func (r *queries) ListAllAppointments(ctx context.Context) ([]model.Appointment, error) {
	return r.listAppointments(ctx, selectAppointment+` ORDER BY a.starts_at DESC`)
}

func (r *queries) ListAppointmentsByClient(ctx context.Context, clientID int64) ([]model.Appointment, error) {
	return r.listAppointments(ctx, selectAppointment+`
		WHERE a.client_id = ?
		ORDER BY a.starts_at ASC
	`, clientID)
}

func (r *queries) ListScheduledBetween(ctx context.Context, after, until time.Time) ([]model.Appointment, error) {
	return r.listAppointments(ctx, selectAppointment+`
		WHERE a.status = ? AND a.starts_at > ? AND a.starts_at <= ?
		ORDER BY a.starts_at ASC
	`, string(model.StatusScheduled), after.Unix(), until.Unix())
}

func (r *queries) UpdateAppointment(ctx context.Context, a model.Appointment) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE appointments
		SET starts_at = ?, service = ?, duration_minutes = ?, notes = ?, status = ?
		WHERE id = ?
	`, a.Start.Unix(), a.Service, a.DurationMinutes, a.Notes, string(a.Status), a.ID)
	if err != nil {
		return translate(err)
	}
	return expectOne(res)
}

func (r *queries) DeleteAppointment(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM appointments WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *queries) InsertNotification(ctx context.Context, n model.Notification) (int64, error) {
	res, err := r.q.ExecContext(ctx, `
		INSERT INTO notifications (appointment_id, notify_at, message, traceparent, tracestate, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, n.AppointmentID, n.NotifyAt.Unix(), n.Message, n.Traceparent, n.Tracestate, r.now().Unix())
	if err != nil {
		return 0, translate(err)
	}
	return res.LastInsertId()
}

func (r *queries) RescheduleNotification(ctx context.Context, appointmentID int64, at time.Time, message string) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE notifications SET notify_at = ?, message = ?
		WHERE appointment_id = ? AND is_sent = 0
	`, at.Unix(), message, appointmentID)
	return err
}

func (r *queries) PendingNotifications(ctx context.Context, nowFloor time.Time) ([]model.Notification, error) {
	rows, err := r.q.QueryContext(ctx, selectNotification+`
		WHERE n.is_sent = 0 AND n.notify_at <= ?
		ORDER BY n.notify_at ASC, n.id ASC
	`, nowFloor.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *queries) GetNotificationByAppointment(ctx context.Context, appointmentID int64) (model.Notification, error) {
	row := r.q.QueryRowContext(ctx, selectNotification+` WHERE n.appointment_id = ?`, appointmentID)
	n, err := scanNotification(row)
	if err != nil {
		return model.Notification{}, translate(err)
	}
	return n, nil
}

func (r *queries) MarkNotificationSent(ctx context.Context, id int64, at time.Time) (bool, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE notifications SET is_sent = 1, sent_at = ?
		WHERE id = ? AND is_sent = 0
	`, at.Unix(), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 1 {
		return true, nil
	}

	var exists int
	if err := r.q.QueryRowContext(ctx, `SELECT 1 FROM notifications WHERE id = ?`, id).Scan(&exists); err != nil {
		return false, translate(err)
	}
	return false, nil
}

func (r *queries) Stats(ctx context.Context) (model.Stats, error) {
	var s model.Stats
	err := r.q.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM clients),
			(SELECT COUNT(*) FROM appointments),
			(SELECT COUNT(*) FROM appointments WHERE status = 'scheduled'),
			(SELECT COUNT(*) FROM appointments WHERE status = 'completed'),
			(SELECT COUNT(*) FROM appointments WHERE status = 'cancelled'),
			(SELECT COUNT(*) FROM notifications WHERE is_sent = 0)
	`).Scan(&s.TotalClients, &s.TotalAppointments, &s.Scheduled, &s.Completed, &s.Cancelled, &s.PendingReminders)
	return s, err
}

func (r *queries) listAppointments(ctx context.Context, query string, args ...any) ([]model.Appointment, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, a)
	}
	return appts, rows.Err()
}

func scanClient(row rowScanner) (model.Client, error) {
	var c model.Client
	var createdAt int64
	if err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &createdAt); err != nil {
		return model.Client{}, err
	}
	c.CreatedAt = fromUnix(createdAt)
	return c, nil
}

func scanAppointment(row rowScanner) (model.Appointment, error) {
	var a model.Appointment
	var startsAt, createdAt int64
	var status string
	if err := row.Scan(
		&a.ID,
		&a.ClientID,
		&startsAt,
		&a.Service,
		&a.DurationMinutes,
		&a.Notes,
		&status,
		&createdAt,
		&a.ClientName,
		&a.ClientPhone,
		&a.ClientEmail,
	); err != nil {
		return model.Appointment{}, err
	}
	a.Start = fromUnix(startsAt)
	a.Status = model.Status(status)
	a.CreatedAt = fromUnix(createdAt)
	return a, nil
}

func scanNotification(row rowScanner) (model.Notification, error) {
	var n model.Notification
	var notifyAt, createdAt, startsAt int64
	var sentAt sql.NullInt64
	if err := row.Scan(
		&n.ID,
		&n.AppointmentID,
		&notifyAt,
		&n.Message,
		&n.IsSent,
		&sentAt,
		&n.Traceparent,
		&n.Tracestate,
		&createdAt,
		&startsAt,
		&n.ClientName,
		&n.ClientPhone,
		&n.ClientEmail,
	); err != nil {
		return model.Notification{}, err
	}
	n.NotifyAt = fromUnix(notifyAt)
	n.CreatedAt = fromUnix(createdAt)
	n.AppointmentStart = fromUnix(startsAt)
	if sentAt.Valid {
		t := fromUnix(sentAt.Int64)
		n.SentAt = &t
	}
	return n, nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no matching row: %w", storage.ErrNotFound)
	}
	return nil
}

func fromUnix(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}
