package validatepoolsubmission

import "pool-wizard/internal/models"

// Input is the variable set the pool-underwriting process is started with.
type Input struct {
	PoolID     string                    `json:"poolId"`
	Submission *models.CreatePoolRequest `json:"submission"`
}

type Output struct {
	PoolID           string            `json:"poolId"`
	IsValid          bool              `json:"isValid"`
	ValidationErrors []ValidationError `json:"validationErrors"`
}

type ValidationError struct {
	Step    string `json:"step"`
	Field   string `json:"field"`
	Message string `json:"message"`
}
