// Package repositories - activity_repository.go records domain events in the
// activity_logs table. Entries are append-only; nothing in the API reads them back.
package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/taskflow/internal/db/models"
)

// insertActivityLogTx writes an activity log row inside an existing transaction.
// Repositories use it to record events atomically with the mutation they describe.
func insertActivityLogTx(ctx context.Context, tx *sql.Tx, entry *models.ActivityLog) error {
	entry.ID = uuid.New().String()
	entry.CreatedAt = time.Now()

	query := `
		INSERT INTO activity_logs (id, workspace_id, user_id, action, entity_type, entity_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := tx.ExecContext(ctx, query,
		entry.ID,
		entry.WorkspaceID,
		entry.UserID,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		entry.CreatedAt,
	)

	return err
}
