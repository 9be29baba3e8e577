package repository

import (
	"context"

	"github.com/andreypavlenko/matchday/modules/queue/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QueueRepository implements ports.QueueRepository over Postgres. The
// daily_email_queue table is keyed by (user_id, scheduled_date) and is
// not partitioned (§3, §6.2).
type QueueRepository struct {
	pool *pgxpool.Pool
}

// NewQueueRepository creates a new queue repository.
func NewQueueRepository(pool *pgxpool.Pool) *QueueRepository {
	return &QueueRepository{pool: pool}
}

const upsertQueueQuery = `
	INSERT INTO daily_email_queue (
		user_id, scheduled_date, recipient, subject_template, pick_ids,
		generator_model, template_version, fallback_used,
		status, retry_count, low_inventory, generated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (user_id, scheduled_date) DO UPDATE SET
		recipient = EXCLUDED.recipient,
		subject_template = EXCLUDED.subject_template,
		pick_ids = EXCLUDED.pick_ids,
		generator_model = EXCLUDED.generator_model,
		template_version = EXCLUDED.template_version,
		fallback_used = EXCLUDED.fallback_used,
		status = EXCLUDED.status,
		low_inventory = EXCLUDED.low_inventory,
		generated_at = EXCLUDED.generated_at
`

// UpsertBatch writes every queue row for the batch in a single
// transaction, the same shape as every other module's batch writer.
func (r *QueueRepository) UpsertBatch(ctx context.Context, rows []model.DailyEmailQueue) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(upsertQueueQuery,
			row.UserID, row.ScheduledDate, row.Recipient, row.SubjectTemplate, row.PickIDs,
			row.Metadata.Model, row.Metadata.TemplateVersion, row.Metadata.FallbackUsed,
			row.Status, row.RetryCount, row.LowInventory, row.GeneratedAt,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for range rows {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return err
		}
	}
	if err := br.Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
