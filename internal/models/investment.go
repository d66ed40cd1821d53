// internal/models/investment.go
package models

type Investment struct {
	ID        string  `json:"id"`
	PoolID    string  `json:"poolId"`
	Amount    float64 `json:"amount"`
	Status    string  `json:"status,omitempty"`
	CreatedAt string  `json:"createdAt,omitempty"`
}

type InvestRequest struct {
	Amount float64 `json:"amount"`
}
