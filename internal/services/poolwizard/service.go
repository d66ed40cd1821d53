// Package poolwizard drives wizard sessions: it loads a session, applies one
// user action through the wizard state machine and saves the result.
package poolwizard

import (
	"context"
	"time"

	"pool-wizard/internal/common/errors"
	"pool-wizard/internal/common/logger"
	"pool-wizard/internal/common/metrics"
	"pool-wizard/internal/common/observability"
	"pool-wizard/internal/models"
	"pool-wizard/internal/wizard"

	"github.com/google/uuid"
)

type Config struct {
	DefaultState          string
	UnderwritingProcessID string
}

type Service struct {
	cfg       Config
	backend   Backend
	sessions  SessionStore
	ledger    Ledger
	notifier  Notifier
	processes ProcessStarter
	assembler *wizard.Assembler
	obs       *observability.Observability
	logger    logger.Logger
	nowFn     func() time.Time
	newID     func() string
}

// Dependencies wires the service. Ledger, Notifier and Processes are optional.
type Dependencies struct {
	Config        Config
	Backend       Backend
	Sessions      SessionStore
	Ledger        Ledger
	Notifier      Notifier
	Processes     ProcessStarter
	Observability *observability.Observability
	Logger        logger.Logger
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.UnderwritingProcessID == "" {
		cfg.UnderwritingProcessID = "pool-underwriting"
	}
	obs := deps.Observability
	if obs == nil {
		obs = observability.NewNoop()
	}
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{
		cfg:       cfg,
		backend:   deps.Backend,
		sessions:  deps.Sessions,
		ledger:    deps.Ledger,
		notifier:  deps.Notifier,
		processes: deps.Processes,
		assembler: wizard.NewAssembler(cfg.DefaultState),
		obs:       obs,
		logger:    log.WithFields(map[string]interface{}{"component": "poolwizard"}),
		nowFn:     time.Now,
		newID:     uuid.NewString,
	}
}

// Open starts a session on step 1 for poolType, pre-filling personal info
// from the signed-in borrower when the backend knows them.
func (s *Service) Open(ctx context.Context, creds models.Credentials, poolType string) (*wizard.View, error) {
	pt, err := wizard.ParsePoolType(poolType)
	if err != nil {
		return nil, err
	}

	now := s.nowFn()
	state := wizard.NewState(s.newID(), pt, now)

	profile, err := s.backend.Me(ctx, creds)
	switch {
	case err != nil:
		s.logger.Warn("profile prefill skipped", map[string]interface{}{"error": err.Error()})
	default:
		state.Prefill(profile)
	}

	if err := s.sessions.Save(ctx, state); err != nil {
		return nil, err
	}
	metrics.WizardSessionsOpened.WithLabelValues(string(pt)).Inc()
	s.logger.Info("wizard session opened", map[string]interface{}{
		"sessionId": state.ID,
		"poolType":  pt,
	})

	view := state.View(now)
	return &view, nil
}

func (s *Service) Get(ctx context.Context, id string) (*wizard.View, error) {
	state, err := s.sessions.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	view := state.View(s.nowFn())
	return &view, nil
}

func (s *Service) Close(ctx context.Context, id string) error {
	if err := s.sessions.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("wizard session closed", map[string]interface{}{"sessionId": id})
	return nil
}

// UpdateStep applies field values and then blur events for one step. Values
// are applied atomically: one unknown field rejects the whole update.
func (s *Service) UpdateStep(ctx context.Context, id string, step wizard.Step, update StepUpdate) (*wizard.View, error) {
	if !step.Valid() {
		return nil, errors.NewStepOutOfRangeError(int(step))
	}
	state, err := s.mutate(ctx, id, func(st *wizard.State) error {
		if len(update.Values) > 0 {
			if err := st.ApplyFields(step, update.Values); err != nil {
				return err
			}
		}
		if len(update.Touched) > 0 {
			return st.Touch(step, update.Touched...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	view := state.View(s.nowFn())
	return &view, nil
}

func (s *Service) Continue(ctx context.Context, id string) (*NavigationResult, error) {
	var (
		from wizard.Step
		errs wizard.ErrorMap
	)
	state, err := s.mutate(ctx, id, func(st *wizard.State) error {
		from = st.CurrentStep
		var err error
		errs, err = st.Continue(s.nowFn())
		return err
	})
	if err != nil {
		s.recordTransition("continue", from, "rejected")
		return nil, err
	}

	res := &NavigationResult{View: state.View(s.nowFn()), Advanced: errs.Empty(), Errors: errs}
	outcome := "advanced"
	if !res.Advanced {
		outcome = "blocked"
	}
	s.recordTransition("continue", from, outcome)
	return res, nil
}

func (s *Service) Back(ctx context.Context, id string) (*NavigationResult, error) {
	var from wizard.Step
	state, err := s.mutate(ctx, id, func(st *wizard.State) error {
		from = st.CurrentStep
		return st.Back()
	})
	if err != nil {
		s.recordTransition("back", from, "rejected")
		return nil, err
	}
	s.recordTransition("back", from, "moved")
	return &NavigationResult{View: state.View(s.nowFn()), Advanced: state.CurrentStep != from}, nil
}

func (s *Service) JumpTo(ctx context.Context, id string, step wizard.Step) (*NavigationResult, error) {
	var from wizard.Step
	state, err := s.mutate(ctx, id, func(st *wizard.State) error {
		from = st.CurrentStep
		return st.JumpTo(step)
	})
	if err != nil {
		s.recordTransition("jump", from, "rejected")
		return nil, err
	}
	s.recordTransition("jump", from, "moved")
	return &NavigationResult{View: state.View(s.nowFn()), Advanced: state.CurrentStep != from}, nil
}

func (s *Service) AddListItem(ctx context.Context, id string, kind wizard.ListKind, row []byte) (*wizard.View, error) {
	return s.viewAfter(ctx, id, func(st *wizard.State) error { return st.AddListItem(kind, row) })
}

func (s *Service) UpdateListItem(ctx context.Context, id string, kind wizard.ListKind, index int, row []byte) (*wizard.View, error) {
	return s.viewAfter(ctx, id, func(st *wizard.State) error { return st.UpdateListItem(kind, index, row) })
}

func (s *Service) RemoveListItem(ctx context.Context, id string, kind wizard.ListKind, index int) (*wizard.View, error) {
	return s.viewAfter(ctx, id, func(st *wizard.State) error { return st.RemoveListItem(kind, index) })
}

// ListPools proxies the borrower's pool listing.
func (s *Service) ListPools(ctx context.Context, creds models.Credentials) ([]models.Pool, error) {
	return s.backend.ListPools(ctx, creds)
}

func (s *Service) UpdatePool(ctx context.Context, creds models.Credentials, poolID string, update *models.PoolUpdate) (*models.Pool, error) {
	if update == nil || (update.Amount == nil && update.ROIRate == nil && update.TermMonths == nil && update.LoanType == nil && update.Status == nil) {
		return nil, errors.NewInvalidRequestError("update has no fields")
	}
	if update.Amount != nil && *update.Amount <= 0 {
		return nil, errors.NewInvalidFieldError("amount", "amount must be greater than zero")
	}
	if update.ROIRate != nil && (*update.ROIRate <= 0 || *update.ROIRate > 100) {
		return nil, errors.NewInvalidFieldError("roiRate", "roiRate must be between 0 and 100")
	}
	if update.TermMonths != nil && *update.TermMonths <= 0 {
		return nil, errors.NewInvalidFieldError("term", "term must be a positive number of months")
	}
	return s.backend.UpdatePool(ctx, creds, poolID, update)
}

func (s *Service) DeletePool(ctx context.Context, creds models.Credentials, poolID string) error {
	return s.backend.DeletePool(ctx, creds, poolID)
}

// InvestorPool loads a pool as an investor sees it.
func (s *Service) InvestorPool(ctx context.Context, creds models.Credentials, poolID string) (*models.Pool, error) {
	return s.backend.GetInvestorPool(ctx, creds, poolID)
}

func (s *Service) Invest(ctx context.Context, creds models.Credentials, poolID string, amount float64) (*models.Investment, error) {
	if amount <= 0 {
		return nil, errors.NewInvalidFieldError("amount", "amount must be greater than zero")
	}
	inv, err := s.backend.Invest(ctx, creds, poolID, amount)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Investment created", map[string]interface{}{"poolId": poolID, "investmentId": inv.ID})
	return inv, nil
}

func (s *Service) ListInvestments(ctx context.Context, creds models.Credentials) ([]models.Investment, error) {
	return s.backend.ListInvestments(ctx, creds)
}

// Repayment runs the calculators without a session.
func (s *Service) Repayment(q RepaymentQuery) RepaymentResult {
	amount := wizard.ParseMoney(q.Amount)
	rate := wizard.ParsePercentage(q.ROIRate)
	return RepaymentResult{
		MonthlyInterest: wizard.MonthlyInterest(amount, rate),
		FinalRepayment:  wizard.FinalRepayment(amount, rate, q.TermMonths, wizard.LoanType(q.LoanType)),
		LoanToValue:     wizard.LoanToValue(amount, wizard.ParseMoney(q.PropertyValue)),
	}
}

func (s *Service) viewAfter(ctx context.Context, id string, fn func(*wizard.State) error) (*wizard.View, error) {
	state, err := s.mutate(ctx, id, fn)
	if err != nil {
		return nil, err
	}
	view := state.View(s.nowFn())
	return &view, nil
}

// mutate loads the session, applies fn and saves. Nothing is saved when fn
// fails; sessions are single-writer so the last save wins.
func (s *Service) mutate(ctx context.Context, id string, fn func(*wizard.State) error) (*wizard.State, error) {
	state, err := s.sessions.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(state); err != nil {
		return nil, err
	}
	state.UpdatedAt = s.nowFn()
	if err := s.sessions.Save(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

func (s *Service) recordTransition(action string, from wizard.Step, outcome string) {
	metrics.WizardTransitions.WithLabelValues(action, from.String(), outcome).Inc()
}
