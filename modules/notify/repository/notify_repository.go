package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/andreypavlenko/crmcore/modules/notify/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NotificationRepository is the Postgres-backed adapter for the
// notifications table (spec §4.4 schedule-failure sink).
type NotificationRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	n.ID = uuid.New().String()
	n.CreatedAt = time.Now().UTC()
	detailJSON, _ := json.Marshal(n.Detail)

	query := `
		INSERT INTO notifications (id, kind, message, detail, read_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query, n.ID, n.Kind, n.Message, detailJSON, n.ReadAt, n.CreatedAt)
	return err
}

func (r *NotificationRepository) ListUnread(ctx context.Context, limit int) ([]*model.Notification, error) {
	query := `
		SELECT id, kind, message, detail, read_at, created_at
		FROM notifications
		WHERE read_at IS NULL
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Notification
	for rows.Next() {
		n := &model.Notification{}
		var detailRaw []byte
		if err := rows.Scan(&n.ID, &n.Kind, &n.Message, &detailRaw, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		if len(detailRaw) > 0 {
			_ = json.Unmarshal(detailRaw, &n.Detail)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id string) error {
	query := `UPDATE notifications SET read_at = $2 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, time.Now().UTC())
	return err
}

// EmailLogRepository is the Postgres-backed adapter for the email_log
// queue (spec §3 "email_log", supplemented features: webinar reminders
// and the Monday newsletter both enqueue through it).
type EmailLogRepository struct {
	pool *pgxpool.Pool
}

func NewEmailLogRepository(pool *pgxpool.Pool) *EmailLogRepository {
	return &EmailLogRepository{pool: pool}
}

func (r *EmailLogRepository) Enqueue(ctx context.Context, e *model.EmailLogEntry) error {
	e.ID = uuid.New().String()
	e.CreatedAt = time.Now().UTC()
	e.Status = model.EmailStatusQueued

	query := `
		INSERT INTO email_log (id, rule, contact_id, to_address, subject, html_body, text_body, status, scheduled_at, sent_at, message_id, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.pool.Exec(ctx, query,
		e.ID, e.Rule, e.ContactID, e.ToAddress, e.Subject, e.HTMLBody, e.TextBody,
		e.Status, e.ScheduledAt, e.SentAt, e.MessageID, e.Error, e.CreatedAt,
	)
	return err
}

func (r *EmailLogRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*model.EmailLogEntry, error) {
	query := `
		SELECT id, rule, contact_id, to_address, subject, html_body, text_body, status, scheduled_at, sent_at, message_id, error, created_at
		FROM email_log
		WHERE status = $1 AND scheduled_at <= $2
		ORDER BY scheduled_at ASC
		LIMIT $3
	`
	rows, err := r.pool.Query(ctx, query, model.EmailStatusQueued, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.EmailLogEntry
	for rows.Next() {
		e := &model.EmailLogEntry{}
		if err := rows.Scan(
			&e.ID, &e.Rule, &e.ContactID, &e.ToAddress, &e.Subject, &e.HTMLBody, &e.TextBody,
			&e.Status, &e.ScheduledAt, &e.SentAt, &e.MessageID, &e.Error, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *EmailLogRepository) MarkSent(ctx context.Context, id string, sentAt time.Time, messageID string) error {
	query := `UPDATE email_log SET status = $2, sent_at = $3, message_id = $4 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, model.EmailStatusSent, sentAt, messageID)
	return err
}

func (r *EmailLogRepository) MarkFailed(ctx context.Context, id string, errMsg string) error {
	query := `UPDATE email_log SET status = $2, error = $3 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, model.EmailStatusFailed, errMsg)
	return err
}

func (r *EmailLogRepository) Exists(ctx context.Context, rule, contactID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM email_log WHERE rule = $1 AND contact_id = $2)`
	err := r.pool.QueryRow(ctx, query, rule, contactID).Scan(&exists)
	return exists, err
}
