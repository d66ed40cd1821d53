package wizard

import (
	"time"

	"pool-wizard/internal/common/errors"
	"pool-wizard/internal/models"
)

// Continue tries to leave the current step. On steps 1 to 3 the step's errors
// are recomputed: with none the wizard advances and the submit-attempt flag
// is cleared for reuse; otherwise the step is marked attempted, every field
// is touched, and the returned map lists the problems. Steps 4 and 5 always
// advance. The review step is left only through Submit.
func (s *State) Continue(now time.Time) (ErrorMap, error) {
	if err := s.ensureEditing(); err != nil {
		return nil, err
	}
	step := s.CurrentStep
	if step == StepReview {
		return nil, errors.NewInvalidTransitionError("Submit the pool to finish the wizard", int(step))
	}

	if tr := s.Tracking.For(step); tr != nil {
		errs := s.StepErrors(step, now)
		if !errs.Empty() {
			tr.SubmitAttempted = true
			tr.ShowErrors = true
			tr.Touch(FieldNames(step)...)
			return errs, nil
		}
		tr.SubmitAttempted = false
	}

	s.CurrentStep = step + 1
	return nil, nil
}

// Back retreats one step, staying on step 1.
func (s *State) Back() error {
	if err := s.ensureEditing(); err != nil {
		return err
	}
	if s.CurrentStep > FirstStep {
		s.CurrentStep--
	}
	return nil
}

// JumpTo moves straight to step, as the progress indicator does. Nothing is
// validated and no values are cleared.
func (s *State) JumpTo(step Step) error {
	if err := s.ensureEditing(); err != nil {
		return err
	}
	if !step.Valid() {
		return errors.NewStepOutOfRangeError(int(step))
	}
	s.CurrentStep = step
	return nil
}

// CheckSubmittable verifies the wizard may submit: it must be on the review
// step and steps 1 to 3 must be clean, since a jump can skip them. State is
// never modified.
func (s *State) CheckSubmittable(now time.Time) error {
	if err := s.ensureEditing(); err != nil {
		return err
	}
	if s.CurrentStep != StepReview {
		return errors.NewInvalidTransitionError("Pools can only be submitted from the review step", int(s.CurrentStep))
	}
	for _, step := range ValidatedSteps {
		if errs := s.StepErrors(step, now); !errs.Empty() {
			return errors.NewValidationFailedError(int(step), errs)
		}
	}
	return nil
}

// Complete records a successful submission: every value and all tracking go
// back to their defaults and the wizard shows the created pool.
func (s *State) Complete(pool *models.Pool, now time.Time) {
	fresh := NewState(s.ID, s.PoolType, s.CreatedAt)
	fresh.Phase = PhaseConfirmation
	fresh.CreatedPool = pool
	fresh.UpdatedAt = now
	*s = *fresh
}
