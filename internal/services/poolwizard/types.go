package poolwizard

import (
	"context"

	"pool-wizard/internal/models"
	"pool-wizard/internal/notify"
	"pool-wizard/internal/wizard"
)

type Backend interface {
	Me(ctx context.Context, creds models.Credentials) (*models.AuthProfile, error)
	ListPools(ctx context.Context, creds models.Credentials) ([]models.Pool, error)
	CreatePool(ctx context.Context, creds models.Credentials, req *models.CreatePoolRequest) (*models.Pool, error)
	UpdatePool(ctx context.Context, creds models.Credentials, poolID string, update *models.PoolUpdate) (*models.Pool, error)
	DeletePool(ctx context.Context, creds models.Credentials, poolID string) error
	GetInvestorPool(ctx context.Context, creds models.Credentials, poolID string) (*models.Pool, error)
	Invest(ctx context.Context, creds models.Credentials, poolID string, amount float64) (*models.Investment, error)
	ListInvestments(ctx context.Context, creds models.Credentials) ([]models.Investment, error)
}

type SessionStore interface {
	Save(ctx context.Context, state *wizard.State) error
	Load(ctx context.Context, id string) (*wizard.State, error)
	Delete(ctx context.Context, id string) error
}

type Ledger interface {
	Record(ctx context.Context, sub *models.Submission) error
}

type Notifier interface {
	NotifyPoolCreated(ctx context.Context, evt notify.PoolCreated) []models.Notification
}

type ProcessStarter interface {
	StartProcess(ctx context.Context, processID string, variables map[string]interface{}) (int64, error)
}

type StepUpdate struct {
	Values  map[string]string `json:"values"`
	Touched []string          `json:"touched"`
}

// NavigationResult is returned by every navigation action. Errors is set only
// when Continue was refused.
type NavigationResult struct {
	View     wizard.View     `json:"view"`
	Advanced bool            `json:"advanced"`
	Errors   wizard.ErrorMap `json:"errors,omitempty"`
}

type SubmitResult struct {
	View               wizard.View           `json:"view"`
	Pool               *models.Pool          `json:"pool"`
	Pools              []models.Pool         `json:"pools,omitempty"`
	Notifications      []models.Notification `json:"notifications,omitempty"`
	ProcessInstanceKey int64                 `json:"processInstanceKey,omitempty"`
}

type RepaymentQuery struct {
	Amount        string
	ROIRate       string
	TermMonths    int
	LoanType      string
	PropertyValue string
}

type RepaymentResult struct {
	MonthlyInterest string `json:"monthlyInterest"`
	FinalRepayment  string `json:"finalRepayment"`
	LoanToValue     string `json:"loanToValue"`
}
