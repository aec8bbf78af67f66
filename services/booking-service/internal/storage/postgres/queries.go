package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/storage"
)

// querier is satisfied by the pool and by pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type queries struct {
	q querier
}

var _ storage.Tx = (*queries)(nil)

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
	var id int64
	err := r.q.QueryRow(ctx, `
		INSERT INTO clients (name, phone, email)
		VALUES ($1, $2, $3)
		RETURNING id
	`, name, phone, email).Scan(&id)
	if err != nil {
		return 0, translate(err)
	}
	return id, nil
}

func (r *queries) GetClient(ctx context.Context, id int64) (model.Client, error) {
	var c model.Client
	err := r.q.QueryRow(ctx, `
		SELECT id, name, phone, email, created_at FROM clients WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.CreatedAt)
	if err != nil {
		return model.Client{}, translate(err)
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return c, nil
}

func (r *queries) ListClientsByName(ctx context.Context) ([]model.Client, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, name, phone, email, created_at FROM clients ORDER BY name ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []model.Client
	for rows.Next() {
		var c model.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.CreatedAt = c.CreatedAt.UTC()
		clients = append(clients, c)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return clients, nil
}

func (r *queries) UpdateClient(ctx context.Context, c model.Client) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE clients SET name = $2, phone = $3, email = $4 WHERE id = $1
	`, c.ID, c.Name, c.Phone, c.Email)
	if err != nil {
		return translate(err)
	}
	return expectOne(tag)
}

func (r *queries) DeleteClient(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOne(tag)
}

func (r *queries) InsertAppointment(ctx context.Context, a model.Appointment) (int64, error) {
	var id int64
	err := r.q.QueryRow(ctx, `
		INSERT INTO appointments (client_id, starts_at, service, duration_minutes, notes, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, a.ClientID, a.Start, a.Service, a.DurationMinutes, a.Notes, string(a.Status)).Scan(&id)
	if err != nil {
		return 0, translate(err)
	}
	return id, nil
}

func (r *queries) GetAppointment(ctx context.Context, id int64) (model.Appointment, error) {
	a, err := scanAppointment(r.q.QueryRow(ctx, selectAppointment+` WHERE a.id = $1`, id))
	if err != nil {
		return model.Appointment{}, translate(err)
	}
	return a, nil
}

func (r *queries) ListAppointmentsByDate(ctx context.Context, day time.Time) ([]model.Appointment, error) {
	from, to := storage.DayBounds(day)
	return r.listAppointments(ctx, selectAppointment+`
		WHERE a.starts_at >= $1 AND a.starts_at < $2
		ORDER BY a.starts_at ASC
	`, from, to)
}

func (r *queries) ListAppointmentsInRange(ctx context.Context, from, to time.Time) ([]model.Appointment, error) {
	start, _ := storage.DayBounds(from)
	_, end := storage.DayBounds(to)
	return r.listAppointments(ctx, selectAppointment+`
		WHERE a.starts_at >= $1 AND a.starts_at < $2
		ORDER BY a.starts_at ASC
	`, start, end)
}

func (r *queries) ListAllAppointments(ctx context.Context) ([]model.Appointment, error) {
	return r.listAppointments(ctx, selectAppointment+` ORDER BY a.starts_at DESC`)
}

func (r *queries) ListAppointmentsByClient(ctx context.Context, clientID int64) ([]model.Appointment, error) {
	return r.listAppointments(ctx, selectAppointment+`
		WHERE a.client_id = $1
		ORDER BY a.starts_at ASC
	`, clientID)
}

func (r *queries) ListScheduledBetween(ctx context.Context, after, until time.Time) ([]model.Appointment, error) {
	return r.listAppointments(ctx, selectAppointment+`
		WHERE a.status = 'scheduled' AND a.starts_at > $1 AND a.starts_at <= $2
		ORDER BY a.starts_at ASC
	`, after, until)
}

func (r *queries) UpdateAppointment(ctx context.Context, a model.Appointment) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE appointments
		SET starts_at = $2,
			service = $3,
			duration_minutes = $4,
			notes = $5,
			status = $6
		WHERE id = $1
	`, a.ID, a.Start, a.Service, a.DurationMinutes, a.Notes, string(a.Status))
	if err != nil {
		return translate(err)
	}
	return expectOne(tag)
}

func (r *queries) DeleteAppointment(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOne(tag)
}

func (r *queries) InsertNotification(ctx context.Context, n model.Notification) (int64, error) {
	var id int64
	err := r.q.QueryRow(ctx, `
		INSERT INTO notifications (appointment_id, notify_at, message, traceparent, tracestate)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, n.AppointmentID, n.NotifyAt, n.Message, n.Traceparent, n.Tracestate).Scan(&id)
	if err != nil {
		return 0, translate(err)
	}
	return id, nil
}

func (r *queries) RescheduleNotification(ctx context.Context, appointmentID int64, at time.Time, message string) error {
	_, err := r.q.Exec(ctx, `
		UPDATE notifications SET notify_at = $2, message = $3
		WHERE appointment_id = $1 AND NOT is_sent
	`, appointmentID, at, message)
	return err
}

func (r *queries) PendingNotifications(ctx context.Context, nowFloor time.Time) ([]model.Notification, error) {
	rows, err := r.q.Query(ctx, selectNotification+`
		WHERE NOT n.is_sent AND n.notify_at <= $1
		ORDER BY n.notify_at ASC, n.id ASC
	`, nowFloor)
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
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *queries) GetNotificationByAppointment(ctx context.Context, appointmentID int64) (model.Notification, error) {
	n, err := scanNotification(r.q.QueryRow(ctx, selectNotification+` WHERE n.appointment_id = $1`, appointmentID))
	if err != nil {
		return model.Notification{}, translate(err)
	}
	return n, nil
}

func (r *queries) MarkNotificationSent(ctx context.Context, id int64, at time.Time) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE notifications SET is_sent = true, sent_at = $2
		WHERE id = $1 AND NOT is_sent
	`, id, at)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}

	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT true FROM notifications WHERE id = $1`, id).Scan(&exists); err != nil {
		return false, translate(err)
	}
	return false, nil
}

func (r *queries) Stats(ctx context.Context) (model.Stats, error) {
	var s model.Stats
	err := r.q.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM clients),
			(SELECT COUNT(*) FROM appointments),
			(SELECT COUNT(*) FROM appointments WHERE status = 'scheduled'),
			(SELECT COUNT(*) FROM appointments WHERE status = 'completed'),
			(SELECT COUNT(*) FROM appointments WHERE status = 'cancelled'),
			(SELECT COUNT(*) FROM notifications WHERE NOT is_sent)
	`).Scan(&s.TotalClients, &s.TotalAppointments, &s.Scheduled, &s.Completed, &s.Cancelled, &s.PendingReminders)
	return s, err
}

func (r *queries) listAppointments(ctx context.Context, sql string, args ...any) ([]model.Appointment, error) {
	rows, err := r.q.Query(ctx, sql, args...)
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
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var a model.Appointment
	var status string
	if err := row.Scan(
		&a.ID,
		&a.ClientID,
		&a.Start,
		&a.Service,
		&a.DurationMinutes,
		&a.Notes,
		&status,
		&a.CreatedAt,
		&a.ClientName,
		&a.ClientPhone,
		&a.ClientEmail,
	); err != nil {
		return model.Appointment{}, err
	}
	a.Start = a.Start.UTC()
	a.CreatedAt = a.CreatedAt.UTC()
	a.Status = model.Status(status)
	return a, nil
}

func scanNotification(row pgx.Row) (model.Notification, error) {
	var n model.Notification
	var sentAt *time.Time
	if err := row.Scan(
		&n.ID,
		&n.AppointmentID,
		&n.NotifyAt,
		&n.Message,
		&n.IsSent,
		&sentAt,
		&n.Traceparent,
		&n.Tracestate,
		&n.CreatedAt,
		&n.AppointmentStart,
		&n.ClientName,
		&n.ClientPhone,
		&n.ClientEmail,
	); err != nil {
		return model.Notification{}, err
	}
	n.NotifyAt = n.NotifyAt.UTC()
	n.CreatedAt = n.CreatedAt.UTC()
	n.AppointmentStart = n.AppointmentStart.UTC()
	if sentAt != nil {
		t := sentAt.UTC()
		n.SentAt = &t
	}
	return n, nil
}

func expectOne(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no matching row: %w", storage.ErrNotFound)
	}
	return nil
}
