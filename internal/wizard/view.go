package wizard

import (
	"time"

	"pool-wizard/internal/models"
)

// View is what the page renders for a session.
type View struct {
	ID          string          `json:"id"`
	PoolType    PoolType        `json:"poolType"`
	Phase       Phase           `json:"phase"`
	CurrentStep Step            `json:"currentStep"`
	StepName    string          `json:"stepName"`
	Personal    PersonalInfo    `json:"personalInfo"`
	Property    PropertyInfo    `json:"propertyInfo"`
	Terms       PoolTerms       `json:"poolTerms"`
	Documents   []Document      `json:"documents"`
	Credit      LiabilityCredit `json:"liabilityCredit"`
	// Errors holds the visible errors of each validated step, keyed by step name.
	Errors      map[string]ErrorMap `json:"errors"`
	Warnings    ErrorMap            `json:"warnings,omitempty"`
	Derived     Derived             `json:"derived"`
	CreatedPool *models.Pool        `json:"createdPool,omitempty"`
}

func (s *State) View(now time.Time) View {
	v := View{
		ID:          s.ID,
		PoolType:    s.PoolType,
		Phase:       s.Phase,
		CurrentStep: s.CurrentStep,
		StepName:    s.CurrentStep.String(),
		Personal:    s.Personal,
		Property:    s.Property,
		Terms:       s.Terms,
		Documents:   s.Documents,
		Credit:      s.Credit,
		Errors:      map[string]ErrorMap{},
		Derived:     s.Derive(),
		CreatedPool: s.CreatedPool,
	}
	for _, step := range ValidatedSteps {
		if errs := s.VisibleErrors(step, now); !errs.Empty() {
			v.Errors[step.String()] = errs
		}
	}
	if w := LiabilityCreditWarnings(s.Credit); !w.Empty() {
		v.Warnings = w
	}
	return v
}
