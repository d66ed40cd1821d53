package ledger

import (
	"context"
	"database/sql"
	"database/sql/driver"
	stderrors "errors"
	"regexp"
	"testing"
	"time"

	"pool-wizard/internal/common/errors"
	"pool-wizard/internal/common/logger"
	"pool-wizard/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)

func newTestLedger(t *testing.T) (*Ledger, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	l := New(db, logger.NewTestLogger(t))
	l.now = func() time.Time { return fixedNow }
	return l, mock, db
}

func TestLedger_Record_Created(t *testing.T) {
	l, mock, _ := newTestLedger(t)

	sub := &models.Submission{
		SessionID:     "sess-1",
		BorrowerEmail: "jane@example.com",
		PoolType:      "equity",
		Amount:        250000,
		Status:        models.SubmissionStatusCreated,
		PoolID:        "pool-9",
		Payload:       []byte(`{"amount":250000}`),
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertSubmissionQuery)).
		WithArgs(sqlmock.AnyArg(), "sess-1", "jane@example.com", "equity", 250000.0,
			"created", "pool-9", nil, []byte(`{"amount":250000}`), fixedNow).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertAuditQuery)).
		WithArgs("pool_submission", sqlmock.AnyArg(), "pool_submission_created", "jane@example.com", sqlmock.AnyArg(), fixedNow).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, l.Record(context.Background(), sub))
	assert.NotEmpty(t, sub.ID)
	assert.Equal(t, fixedNow, sub.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_Record_AuditFailureRollsBack(t *testing.T) {
	l, mock, _ := newTestLedger(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(insertSubmissionQuery)).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertAuditQuery)).WillReturnError(stderrors.New("disk full"))
	mock.ExpectRollback()

	err := l.Record(context.Background(), &models.Submission{
		SessionID: "sess-2",
		Status:    models.SubmissionStatusFailed,
		Error:     "Failed to create pool",
	})

	stdErr, ok := errors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeLedgerWriteFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_Record_BeginFails(t *testing.T) {
	l, mock, _ := newTestLedger(t)
	mock.ExpectBegin().WillReturnError(stderrors.New("connection refused"))

	err := l.Record(context.Background(), &models.Submission{SessionID: "s", Status: "failed"})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_ListBySession(t *testing.T) {
	l, mock, _ := newTestLedger(t)

	rows := sqlmock.NewRows([]string{"id", "session_id", "borrower_email", "pool_type", "amount", "status", "pool_id", "error", "payload", "created_at"}).
		AddRow("id-2", "sess-1", "jane@example.com", "equity", 250000.0, "created", "pool-9", "", []byte(`{}`), fixedNow).
		AddRow("id-1", "sess-1", "jane@example.com", "equity", 250000.0, "failed", "", "Failed to create pool", []byte(`{}`), fixedNow.Add(-time.Minute))
	mock.ExpectQuery(regexp.QuoteMeta(listBySessionQuery)).WithArgs("sess-1").WillReturnRows(rows)

	subs, err := l.ListBySession(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "pool-9", subs[0].PoolID)
	assert.Equal(t, "Failed to create pool", subs[1].Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_RunMigrations(t *testing.T) {
	l, mock, _ := newTestLedger(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS pool_submissions").WillReturnResult(driver.ResultNoRows)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS audit_log").WillReturnResult(driver.ResultNoRows)

	require.NoError(t, l.RunMigrations(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
