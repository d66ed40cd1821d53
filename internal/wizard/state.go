// Package wizard holds the pool-creation wizard: step state, field validation,
// error display policy, derived figures and payload assembly. Everything here
// is pure; persistence and transport live in the session and server packages.
package wizard

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"pool-wizard/internal/common/errors"
	"pool-wizard/internal/models"
)

type Step int

const (
	StepPersonalInfo Step = iota + 1
	StepPropertyInfo
	StepPoolTerms
	StepDocuments
	StepLiabilityCredit
	StepReview
)

const (
	FirstStep = StepPersonalInfo
	LastStep  = StepReview
)

var stepNames = map[Step]string{
	StepPersonalInfo:    "personal-info",
	StepPropertyInfo:    "property-info",
	StepPoolTerms:       "pool-terms",
	StepDocuments:       "documents",
	StepLiabilityCredit: "liability-credit",
	StepReview:          "review",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("step-%d", int(s))
}

func (s Step) Valid() bool { return s >= FirstStep && s <= LastStep }

// Validated reports whether Continue checks the step's fields before advancing.
func (s Step) Validated() bool {
	return s == StepPersonalInfo || s == StepPropertyInfo || s == StepPoolTerms
}

// ValidatedSteps lists the steps re-checked on submit, in order.
var ValidatedSteps = []Step{StepPersonalInfo, StepPropertyInfo, StepPoolTerms}

type Phase string

const (
	PhaseEditing      Phase = "editing"
	PhaseConfirmation Phase = "confirmation"
)

type PoolType string

const (
	PoolTypeEquity    PoolType = "equity"
	PoolTypeRefinance PoolType = "refinance"
)

func ParsePoolType(raw string) (PoolType, error) {
	switch PoolType(raw) {
	case PoolTypeEquity, PoolTypeRefinance:
		return PoolType(raw), nil
	}
	return "", errors.NewInvalidPoolTypeError(raw)
}

type LoanType string

const (
	LoanTypeInterestOnly LoanType = "interest-only"
	LoanTypeMaturity     LoanType = "maturity"
)

// TermCustom is the term select value that enables the free-form month count.
const TermCustom = "custom"

// PresetTerms are the month counts offered by the term select.
var PresetTerms = []string{"6", "12", "18", "24", "36", "48", "60"}

type PersonalInfo struct {
	FirstName     string      `json:"firstName"`
	MiddleName    string      `json:"middleName"`
	LastName      string      `json:"lastName"`
	Email         string      `json:"email"`
	Phone         string      `json:"phone"`
	DateOfBirth   string      `json:"dateOfBirth"`
	SSN           string      `json:"ssn"`
	Address       string      `json:"address"`
	City          string      `json:"city"`
	State         string      `json:"state"`
	ZipCode       string      `json:"zipCode"`
	HasPriorNames bool        `json:"hasPriorNames"`
	PriorNames    []PriorName `json:"priorNames"`
}

type PriorName struct {
	FirstName  string `json:"firstName"`
	MiddleName string `json:"middleName"`
	LastName   string `json:"lastName"`
}

type PropertyInfo struct {
	Address          string         `json:"propertyAddress"`
	City             string         `json:"propertyCity"`
	State            string         `json:"propertyState"`
	ZipCode          string         `json:"propertyZip"`
	PropertyType     string         `json:"propertyType"`
	Value            string         `json:"propertyValue"`
	Link             string         `json:"propertyLink"`
	HasCoOwners      bool           `json:"hasCoOwners"`
	CoOwners         []CoOwner      `json:"coOwners"`
	HasExistingLoans bool           `json:"hasExistingLoans"`
	ExistingLoans    []ExistingLoan `json:"existingLoans"`
}

type CoOwner struct {
	Name       string `json:"name"`
	Percentage string `json:"percentage"`
}

type ExistingLoan struct {
	Lender         string `json:"lender"`
	Balance        string `json:"balance"`
	MonthlyPayment string `json:"monthlyPayment"`
}

type PoolTerms struct {
	Amount     string `json:"amount"`
	ROIRate    string `json:"roiRate"`
	Term       string `json:"term"`
	CustomTerm string `json:"customTerm"`
	LoanType   string `json:"loanType"`
}

// TermMonths resolves the preset or custom term. ok is false when the chosen
// source does not hold a valid month count.
func (t PoolTerms) TermMonths() (months int, ok bool) {
	raw, custom := t.Term, false
	if t.Term == TermCustom {
		raw, custom = t.CustomTerm, true
	}
	if !IsValidTerm(raw, custom) {
		return 0, false
	}
	months, _ = strconv.Atoi(strings.TrimSpace(raw))
	return months, true
}

type Document struct {
	Name string `json:"name"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

type LiabilityCredit struct {
	FICOScore    string      `json:"ficoScore"`
	AnnualIncome string      `json:"annualIncome"`
	Liabilities  []Liability `json:"liabilities"`
}

type Liability struct {
	Type           string `json:"type"`
	Creditor       string `json:"creditor"`
	Balance        string `json:"balance"`
	MonthlyPayment string `json:"monthlyPayment"`
}

// State is one wizard session: every step's values plus navigation and
// display tracking.
type State struct {
	ID          string          `json:"id"`
	PoolType    PoolType        `json:"poolType"`
	CurrentStep Step            `json:"currentStep"`
	Phase       Phase           `json:"phase"`
	Personal    PersonalInfo    `json:"personalInfo"`
	Property    PropertyInfo    `json:"propertyInfo"`
	Terms       PoolTerms       `json:"poolTerms"`
	Documents   []Document      `json:"documents"`
	Credit      LiabilityCredit `json:"liabilityCredit"`
	Tracking    Tracking        `json:"tracking"`
	CreatedPool *models.Pool    `json:"createdPool,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// NewState opens a session on step 1 with empty values and fresh tracking.
func NewState(id string, poolType PoolType, now time.Time) *State {
	return &State{
		ID:          id,
		PoolType:    poolType,
		CurrentStep: StepPersonalInfo,
		Phase:       PhaseEditing,
		Tracking:    NewTracking(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Prefill copies the signed-in borrower's profile into personal info.
// Fields the user already typed are left alone.
func (s *State) Prefill(profile *models.AuthProfile) {
	if profile == nil || !profile.Authenticated {
		return
	}
	p := &s.Personal
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&p.FirstName, profile.FirstName)
	fill(&p.MiddleName, profile.MiddleName)
	fill(&p.LastName, profile.LastName)
	fill(&p.Email, profile.Email)
	fill(&p.Phone, profile.Phone)
	fill(&p.DateOfBirth, profile.DateOfBirth)
}

// Clone returns a deep copy; list fields are copied so the two never alias.
func (s *State) Clone() *State {
	c := *s
	c.Personal.PriorNames = cloneSlice(s.Personal.PriorNames)
	c.Property.CoOwners = cloneSlice(s.Property.CoOwners)
	c.Property.ExistingLoans = cloneSlice(s.Property.ExistingLoans)
	c.Documents = cloneSlice(s.Documents)
	c.Credit.Liabilities = cloneSlice(s.Credit.Liabilities)
	c.Tracking = s.Tracking.clone()
	if s.CreatedPool != nil {
		pool := *s.CreatedPool
		c.CreatedPool = &pool
	}
	return &c
}

func (s *State) ensureEditing() error {
	if s.Phase != PhaseEditing {
		return errors.NewInvalidTransitionError("This pool has already been submitted", int(s.CurrentStep))
	}
	return nil
}
