package repository

import (
	"context"
	"time"

	"github.com/andreypavlenko/crmcore/modules/newsletter/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewsletterRepository implements ports.NewsletterRepository against
// the newsletters table.
type NewsletterRepository struct {
	pool *pgxpool.Pool
}

func NewNewsletterRepository(pool *pgxpool.Pool) *NewsletterRepository {
	return &NewsletterRepository{pool: pool}
}

func (r *NewsletterRepository) Create(ctx context.Context, n *model.Newsletter) error {
	n.ID = uuid.New().String()
	n.Status = model.StatusScheduled
	n.CreatedAt = time.Now().UTC()
	query := `
		INSERT INTO newsletters (id, subject, html_body, text_body, scheduled_at, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query, n.ID, n.Subject, n.HTMLBody, n.TextBody, n.ScheduledAt, n.Status, n.CreatedAt)
	return err
}

func (r *NewsletterRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*model.Newsletter, error) {
	query := `
		SELECT id, subject, html_body, text_body, scheduled_at, sent_at, status, recipient_count, error, created_at
		FROM newsletters
		WHERE status = $1 AND scheduled_at <= $2
		ORDER BY scheduled_at ASC
		LIMIT $3
	`
	rows, err := r.pool.Query(ctx, query, model.StatusScheduled, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Newsletter
	for rows.Next() {
		n := &model.Newsletter{}
		if err := rows.Scan(&n.ID, &n.Subject, &n.HTMLBody, &n.TextBody, &n.ScheduledAt, &n.SentAt, &n.Status, &n.RecipientCount, &n.Error, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *NewsletterRepository) MarkSent(ctx context.Context, id string, sentAt time.Time, recipientCount int) error {
	query := `UPDATE newsletters SET status = $2, sent_at = $3, recipient_count = $4 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, model.StatusSent, sentAt, recipientCount)
	return err
}

func (r *NewsletterRepository) MarkFailed(ctx context.Context, id string, errMsg string) error {
	query := `UPDATE newsletters SET status = $2, error = $3 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, model.StatusFailed, errMsg)
	return err
}

func (r *NewsletterRepository) CountSentSince(ctx context.Context, since time.Time) (int, error) {
	query := `SELECT count(*) FROM newsletters WHERE status = $1 AND sent_at >= $2`
	var count int
	err := r.pool.QueryRow(ctx, query, model.StatusSent, since).Scan(&count)
	return count, err
}
