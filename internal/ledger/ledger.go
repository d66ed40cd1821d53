// Package ledger records every create-pool attempt in Postgres.
package ledger

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"pool-wizard/internal/common/errors"
	"pool-wizard/internal/common/logger"
	"pool-wizard/internal/models"

	"github.com/google/uuid"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const (
	insertSubmissionQuery = `INSERT INTO pool_submissions (id, session_id, borrower_email, pool_type, amount, status, pool_id, error, payload, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	insertAuditQuery      = `INSERT INTO audit_log (entity_type, entity_id, action, actor, details, created_at) VALUES ($1, $2, $3, $4, $5, $6)`
	listBySessionQuery    = `SELECT id, session_id, borrower_email, pool_type, amount, status, COALESCE(pool_id, ''), COALESCE(error, ''), payload, created_at FROM pool_submissions WHERE session_id = $1 ORDER BY created_at DESC`
)

type Ledger struct {
	db     *sql.DB
	logger logger.Logger
	now    func() time.Time
}

func New(db *sql.DB, log logger.Logger) *Ledger {
	return &Ledger{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "ledger"}),
		now:    time.Now,
	}
}

// RunMigrations applies the embedded SQL files in lexical order. Every file
// is idempotent.
func (l *Ledger) RunMigrations(ctx context.Context) error {
	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		body, err := migrationFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := l.db.ExecContext(ctx, string(body)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		l.logger.Info("migration applied", map[string]interface{}{"migration": name})
	}
	return nil
}

// Record stores one submission and its audit row in a single transaction.
// An empty ID is filled in.
func (l *Ledger) Record(ctx context.Context, sub *models.Submission) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = l.now().UTC()
	}
	if len(sub.Payload) == 0 {
		sub.Payload = []byte("{}")
	}

	details, err := json.Marshal(map[string]interface{}{
		"sessionId": sub.SessionID,
		"poolType":  sub.PoolType,
		"amount":    sub.Amount,
		"poolId":    sub.PoolID,
		"error":     sub.Error,
	})
	if err != nil {
		return errors.NewLedgerWriteFailedError(err)
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewLedgerWriteFailedError(err)
	}

	_, err = tx.ExecContext(ctx, insertSubmissionQuery,
		sub.ID, sub.SessionID, sub.BorrowerEmail, sub.PoolType, sub.Amount,
		sub.Status, nullString(sub.PoolID), nullString(sub.Error), sub.Payload, sub.CreatedAt,
	)
	if err != nil {
		_ = tx.Rollback()
		return errors.NewLedgerWriteFailedError(err)
	}

	action := "pool_submission_" + sub.Status
	if _, err := tx.ExecContext(ctx, insertAuditQuery,
		"pool_submission", sub.ID, action, sub.BorrowerEmail, details, sub.CreatedAt,
	); err != nil {
		_ = tx.Rollback()
		return errors.NewLedgerWriteFailedError(err)
	}

	if err := tx.Commit(); err != nil {
		return errors.NewLedgerWriteFailedError(err)
	}

	l.logger.Debug("submission recorded", map[string]interface{}{
		"submissionId": sub.ID,
		"status":       sub.Status,
	})
	return nil
}

// ListBySession returns a session's attempts, newest first.
func (l *Ledger) ListBySession(ctx context.Context, sessionID string) ([]models.Submission, error) {
	rows, err := l.db.QueryContext(ctx, listBySessionQuery, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	var out []models.Submission
	for rows.Next() {
		var s models.Submission
		if err := rows.Scan(&s.ID, &s.SessionID, &s.BorrowerEmail, &s.PoolType, &s.Amount,
			&s.Status, &s.PoolID, &s.Error, &s.Payload, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
