package poolwizard

import (
	"context"
	"encoding/json"
	"time"

	"pool-wizard/internal/common/errors"
	"pool-wizard/internal/common/metrics"
	"pool-wizard/internal/models"
	"pool-wizard/internal/notify"
)

// Submit sends the assembled pool to the backend. A refused or failed
// submission leaves the session exactly as it was, still on the review step.
// On success the session moves to the confirmation phase with reset values,
// and the ledger, notifications and underwriting hand-off run best effort.
func (s *Service) Submit(ctx context.Context, creds models.Credentials, id string) (*SubmitResult, error) {
	start := s.nowFn()

	state, err := s.sessions.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := state.CheckSubmittable(start); err != nil {
		s.recordSubmission(ctx, string(state.PoolType), "rejected", start)
		return nil, err
	}

	req, err := s.assembler.Build(state)
	if err != nil {
		s.recordSubmission(ctx, string(state.PoolType), "rejected", start)
		return nil, err
	}
	redacted := req.Redacted()
	payload, err := json.Marshal(redacted)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}

	sub := &models.Submission{
		SessionID:     state.ID,
		BorrowerEmail: req.Email,
		PoolType:      req.PoolType,
		Amount:        req.Amount,
		Payload:       payload,
	}

	pool, err := s.backend.CreatePool(ctx, creds, req)
	if err != nil {
		stdErr := errors.Normalize(err)
		sub.Status = models.SubmissionStatusFailed
		sub.Error = stdErr.Message
		s.recordLedger(ctx, sub)
		s.recordSubmission(ctx, req.PoolType, "failed", start)
		s.logger.Warn("pool creation failed", map[string]interface{}{
			"sessionId": state.ID,
			"errorCode": string(stdErr.Code),
			"message":   stdErr.Message,
		})
		return nil, stdErr
	}

	sub.Status = models.SubmissionStatusCreated
	sub.PoolID = pool.ID
	s.recordLedger(ctx, sub)

	pools, err := s.backend.ListPools(ctx, creds)
	if err != nil {
		s.logger.WithError(err).Warn("pool listing refresh failed", nil)
	}

	state.Complete(pool, s.nowFn())
	if err := s.sessions.Save(ctx, state); err != nil {
		// The pool exists; the session is only display state.
		s.logger.WithError(err).Error("failed to save completed session", map[string]interface{}{
			"sessionId": state.ID,
			"poolId":    pool.ID,
		})
	}

	result := &SubmitResult{
		View:  state.View(s.nowFn()),
		Pool:  pool,
		Pools: pools,
	}

	if s.notifier != nil {
		result.Notifications = s.notifier.NotifyPoolCreated(ctx, notify.PoolCreated{
			PoolID:     pool.ID,
			PoolType:   req.PoolType,
			FirstName:  req.FirstName,
			Email:      req.Email,
			Phone:      req.Phone,
			Amount:     req.Amount,
			ROIRate:    req.ROIRate,
			TermMonths: req.TermMonths,
		})
	}

	if s.processes != nil {
		key, err := s.processes.StartProcess(ctx, s.cfg.UnderwritingProcessID, underwritingVariables(pool, redacted))
		if err != nil {
			s.logger.WithError(err).Error("underwriting hand-off failed", map[string]interface{}{
				"poolId": pool.ID,
			})
		} else {
			result.ProcessInstanceKey = key
		}
	}

	s.recordSubmission(ctx, req.PoolType, "created", start)
	s.logger.Info("pool created", map[string]interface{}{
		"sessionId": state.ID,
		"poolId":    pool.ID,
		"poolType":  req.PoolType,
	})
	return result, nil
}

// underwritingVariables expects a redacted request; process variables are
// visible in the engine's tooling.
func underwritingVariables(pool *models.Pool, req *models.CreatePoolRequest) map[string]interface{} {
	return map[string]interface{}{
		"poolId":        pool.ID,
		"poolType":      req.PoolType,
		"amount":        req.Amount,
		"roiRate":       req.ROIRate,
		"term":          req.TermMonths,
		"loanType":      req.LoanType,
		"borrowerEmail": req.Email,
		"submission":    req,
	}
}

func (s *Service) recordLedger(ctx context.Context, sub *models.Submission) {
	if s.ledger == nil {
		return
	}
	if err := s.ledger.Record(ctx, sub); err != nil {
		s.logger.WithError(err).Error("ledger write failed", map[string]interface{}{
			"sessionId": sub.SessionID,
			"status":    sub.Status,
		})
	}
}

func (s *Service) recordSubmission(ctx context.Context, poolType, outcome string, start time.Time) {
	metrics.WizardSubmissions.WithLabelValues(poolType, outcome).Inc()
	s.obs.RecordSubmission(ctx, poolType, outcome)
	s.obs.RecordSubmissionDuration(ctx, s.nowFn().Sub(start), outcome)
}
