// internal/models/submission.go
package models

import "time"

const (
	SubmissionStatusCreated = "created"
	SubmissionStatusFailed  = "failed"
)

// Submission is one create-pool attempt as recorded in the ledger.
type Submission struct {
	ID            string    `json:"id" db:"id"`
	SessionID     string    `json:"sessionId" db:"session_id"`
	BorrowerEmail string    `json:"borrowerEmail" db:"borrower_email"`
	PoolType      string    `json:"poolType" db:"pool_type"`
	Amount        float64   `json:"amount" db:"amount"`
	Status        string    `json:"status" db:"status"`
	PoolID        string    `json:"poolId,omitempty" db:"pool_id"`
	Error         string    `json:"error,omitempty" db:"error"`
	Payload       []byte    `json:"-" db:"payload"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}
