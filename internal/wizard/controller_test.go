package wizard

import (
	"testing"

	"pool-wizard/internal/common/errors"
	"pool-wizard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewState(t *testing.T) {
	s := newTestState()

	assert.Equal(t, StepPersonalInfo, s.CurrentStep)
	assert.Equal(t, PhaseEditing, s.Phase)
	assert.Equal(t, PoolTypeEquity, s.PoolType)
	assert.Empty(t, s.Tracking.PersonalInfo.Touched)
	assert.False(t, s.Tracking.PersonalInfo.ShowErrors)
}

func TestParsePoolType(t *testing.T) {
	pt, err := ParsePoolType("refinance")
	require.NoError(t, err)
	assert.Equal(t, PoolTypeRefinance, pt)

	_, err = ParsePoolType("bridge")
	requireCode(t, err, errors.ErrCodeInvalidPoolType)
}

func TestContinue_ValidPersonalInfoAdvances(t *testing.T) {
	s := newTestState()
	s.Personal = validPersonal()

	assert.Empty(t, PersonalInfoErrors(s.Personal, testNow))

	errs, err := s.Continue(testNow)
	require.NoError(t, err)
	assert.Nil(t, errs)
	assert.Equal(t, StepPropertyInfo, s.CurrentStep)
	assert.False(t, s.Tracking.PersonalInfo.SubmitAttempted)
}

func TestContinue_SingleInvalidFieldBlocks(t *testing.T) {
	s := newTestState()
	s.Personal = validPersonal()
	s.Personal.Email = "not-an-email"

	errs, err := s.Continue(testNow)
	require.NoError(t, err)

	require.Len(t, errs, 1)
	assert.Contains(t, errs, "email")
	assert.Len(t, errs["email"], 1)
	assert.Equal(t, StepPersonalInfo, s.CurrentStep)

	tr := s.Tracking.PersonalInfo
	assert.True(t, tr.SubmitAttempted)
	assert.True(t, tr.ShowErrors)
	for _, f := range FieldNames(StepPersonalInfo) {
		assert.True(t, tr.Touched[f], "field %s should be touched", f)
	}
}

func TestContinue_RetryAfterFixClearsAttemptButKeepsShowErrors(t *testing.T) {
	s := newTestState()
	s.Personal = validPersonal()
	s.Personal.Phone = "555"

	_, err := s.Continue(testNow)
	require.NoError(t, err)
	require.Equal(t, StepPersonalInfo, s.CurrentStep)

	require.NoError(t, s.ApplyFields(StepPersonalInfo, map[string]string{"phone": "415-555-0134"}))
	errs, err := s.Continue(testNow)
	require.NoError(t, err)
	assert.Empty(t, errs)
	assert.Equal(t, StepPropertyInfo, s.CurrentStep)
	assert.False(t, s.Tracking.PersonalInfo.SubmitAttempted)
	assert.True(t, s.Tracking.PersonalInfo.ShowErrors)
}

func TestPropertyInfoErrors_CoOwnerSumCrossField(t *testing.T) {
	p := validProperty()
	p.HasCoOwners = true
	p.CoOwners = []CoOwner{{Name: "Sam Roe", Percentage: "60"}, {Name: "Ann Poe", Percentage: "50"}}

	errs := PropertyInfoErrors(p)

	require.Len(t, errs, 1)
	assert.Equal(t, []string{"Co-owner percentages must total less than 100%"}, errs[KeyCoOwnerPercentages])

	p.CoOwners[1].Percentage = "39.5"
	assert.Empty(t, PropertyInfoErrors(p))
}

func TestPropertyInfoErrors_RowsAggregateUnderSharedKeys(t *testing.T) {
	p := validProperty()
	p.HasCoOwners = true
	p.CoOwners = []CoOwner{{Name: "R2-D2", Percentage: "0"}, {Name: "", Percentage: "20"}}
	p.HasExistingLoans = true
	p.ExistingLoans = []ExistingLoan{{Lender: "", Balance: "100"}, {Lender: "Chase", Balance: "$120,000"}}

	errs := PropertyInfoErrors(p)

	assert.Len(t, errs[KeyCoOwnerNames], 2)
	assert.Len(t, errs[KeyCoOwnerPercentages], 1)
	assert.Equal(t, []string{"Loan 1: enter the lender and a valid balance"}, errs[KeyExistingLoans])
}

func TestPropertyInfoErrors_DisabledListsIgnored(t *testing.T) {
	p := validProperty()
	p.CoOwners = []CoOwner{{Name: "", Percentage: "900"}}
	p.ExistingLoans = []ExistingLoan{{}}

	assert.Empty(t, PropertyInfoErrors(p))
}

func TestPoolTermsErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PoolTerms)
		fields []string
	}{
		{"valid", func(*PoolTerms) {}, nil},
		{"amount over cap", func(p *PoolTerms) { p.Amount = "$10,000,001" }, []string{"amount"}},
		{"missing rate", func(p *PoolTerms) { p.ROIRate = "" }, []string{"roiRate"}},
		{"custom term too long", func(p *PoolTerms) { p.Term, p.CustomTerm = TermCustom, "400" }, []string{"customTerm"}},
		{"custom term ok", func(p *PoolTerms) { p.Term, p.CustomTerm = TermCustom, "240" }, nil},
		{"no term", func(p *PoolTerms) { p.Term = "" }, []string{"term"}},
		{"unknown loan type", func(p *PoolTerms) { p.LoanType = "balloon" }, []string{"loanType"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			terms := validTerms()
			tt.mutate(&terms)
			errs := PoolTermsErrors(terms)
			assert.ElementsMatch(t, tt.fields, errs.Fields())
		})
	}
}

func TestVisibleErrors_DisplayPolicy(t *testing.T) {
	s := newTestState()
	s.Personal = validPersonal()

	require.NoError(t, s.ApplyFields(StepPersonalInfo, map[string]string{"email": "j", "zipCode": "1"}))
	assert.Empty(t, s.VisibleErrors(StepPersonalInfo, testNow), "edits alone do not reveal errors")

	require.NoError(t, s.Touch(StepPersonalInfo, "email"))
	visible := s.VisibleErrors(StepPersonalInfo, testNow)
	assert.Equal(t, []string{"email"}, visible.Fields())

	_, err := s.Continue(testNow)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"email", "zipCode"}, s.VisibleErrors(StepPersonalInfo, testNow).Fields())
}

func TestTouch_UnknownFieldAndUntrackedStep(t *testing.T) {
	s := newTestState()

	requireCode(t, s.Touch(StepPersonalInfo, "favoriteColor"), errors.ErrCodeInvalidField)
	require.NoError(t, s.Touch(StepPropertyInfo, KeyCoOwnerPercentages))
	assert.True(t, s.Tracking.PropertyInfo.Touched[KeyCoOwnerPercentages])
	require.NoError(t, s.Touch(StepDocuments, "anything"))
	requireCode(t, s.Touch(Step(9), "email"), errors.ErrCodeStepOutOfRange)
}

func TestContinue_UnvalidatedStepsAdvance(t *testing.T) {
	s := newTestState()
	s.CurrentStep = StepDocuments
	s.Credit.FICOScore = "9000"

	_, err := s.Continue(testNow)
	require.NoError(t, err)
	assert.Equal(t, StepLiabilityCredit, s.CurrentStep)

	_, err = s.Continue(testNow)
	require.NoError(t, err)
	assert.Equal(t, StepReview, s.CurrentStep)

	_, err = s.Continue(testNow)
	requireCode(t, err, errors.ErrCodeInvalidTransition)
	assert.Equal(t, StepReview, s.CurrentStep)
}

func TestBack(t *testing.T) {
	s := newTestState()
	require.NoError(t, s.Back())
	assert.Equal(t, StepPersonalInfo, s.CurrentStep)

	s.CurrentStep = StepPoolTerms
	require.NoError(t, s.Back())
	assert.Equal(t, StepPropertyInfo, s.CurrentStep)
}

func TestJumpTo_PreservesValues(t *testing.T) {
	s := readyState()
	s.CurrentStep = StepPoolTerms
	s.Property.HasCoOwners = true
	s.Property.CoOwners = []CoOwner{{Name: "Sam Roe", Percentage: "20"}}
	before := s.Clone()

	require.NoError(t, s.JumpTo(StepPersonalInfo))
	assert.Equal(t, StepPersonalInfo, s.CurrentStep)
	require.NoError(t, s.JumpTo(StepReview))
	require.NoError(t, s.JumpTo(StepPoolTerms))

	assert.Equal(t, before.Personal, s.Personal)
	assert.Equal(t, before.Property, s.Property)
	assert.Equal(t, before.Terms, s.Terms)

	requireCode(t, s.JumpTo(Step(7)), errors.ErrCodeStepOutOfRange)
	requireCode(t, s.JumpTo(Step(0)), errors.ErrCodeStepOutOfRange)
	assert.Equal(t, StepPoolTerms, s.CurrentStep)
}

func TestApplyFields(t *testing.T) {
	s := newTestState()

	require.NoError(t, s.ApplyFields(StepPropertyInfo, map[string]string{
		"propertyCity": "Oakland",
		"hasCoOwners":  "true",
	}))
	assert.Equal(t, "Oakland", s.Property.City)
	assert.True(t, s.Property.HasCoOwners)
	assert.Empty(t, s.Tracking.PropertyInfo.Touched)

	err := s.ApplyFields(StepPropertyInfo, map[string]string{"propertyCity": "Reno", "bogus": "x"})
	requireCode(t, err, errors.ErrCodeInvalidField)
	assert.Equal(t, "Oakland", s.Property.City)

	err = s.ApplyFields(StepPropertyInfo, map[string]string{"propertyCity": "Reno", "hasCoOwners": "maybe"})
	requireCode(t, err, errors.ErrCodeInvalidField)
	assert.Equal(t, "Oakland", s.Property.City)

	requireCode(t, s.ApplyFields(Step(0), nil), errors.ErrCodeStepOutOfRange)

	v, ok := s.FieldValue(StepPropertyInfo, "hasCoOwners")
	assert.True(t, ok)
	assert.Equal(t, "true", v)
}

func TestListEdits_CopyOnWrite(t *testing.T) {
	s := newTestState()
	require.NoError(t, s.AddCoOwner(CoOwner{Name: "Sam Roe", Percentage: "20"}))
	require.NoError(t, s.AddCoOwner(CoOwner{Name: "Ann Poe", Percentage: "10"}))

	held := s.Property.CoOwners
	require.NoError(t, s.UpdateCoOwner(0, CoOwner{Name: "Sam Roe", Percentage: "30"}))
	assert.Equal(t, "20", held[0].Percentage)
	assert.Equal(t, "30", s.Property.CoOwners[0].Percentage)

	require.NoError(t, s.RemoveCoOwner(0))
	assert.Len(t, held, 2)
	require.Len(t, s.Property.CoOwners, 1)
	assert.Equal(t, "Ann Poe", s.Property.CoOwners[0].Name)

	requireCode(t, s.RemoveCoOwner(5), errors.ErrCodeInvalidField)
	requireCode(t, s.UpdateLiability(0, Liability{}), errors.ErrCodeInvalidField)

	require.NoError(t, s.AddPriorName(PriorName{FirstName: "Jane", LastName: "Smith"}))
	require.NoError(t, s.AddExistingLoan(ExistingLoan{Lender: "Chase", Balance: "1000"}))
	require.NoError(t, s.AddDocument(Document{Name: "deed.pdf", Type: "deed"}))
	require.NoError(t, s.AddLiability(Liability{Type: "auto", Creditor: "Ford", Balance: "9000"}))
	assert.Len(t, s.Personal.PriorNames, 1)
	assert.Len(t, s.Property.ExistingLoans, 1)
	assert.Len(t, s.Documents, 1)
	assert.Len(t, s.Credit.Liabilities, 1)
}

func TestCheckSubmittable(t *testing.T) {
	s := readyState()
	s.CurrentStep = StepDocuments
	requireCode(t, s.CheckSubmittable(testNow), errors.ErrCodeInvalidTransition)

	s = readyState()
	require.NoError(t, s.CheckSubmittable(testNow))

	s.Property.Value = ""
	before := s.Clone()
	stdErr := requireCode(t, s.CheckSubmittable(testNow), errors.ErrCodeValidationFailed)
	assert.Equal(t, int(StepPropertyInfo), stdErr.Metadata["step"])
	assert.Equal(t, before, s)
}

func TestComplete_ResetsToConfirmation(t *testing.T) {
	s := readyState()
	s.Tracking.PersonalInfo.ShowErrors = true
	require.NoError(t, s.AddDocument(Document{Name: "deed.pdf", Type: "deed"}))
	pool := &models.Pool{ID: "pool-42", Amount: 250000}

	s.Complete(pool, testNow)

	assert.Equal(t, PhaseConfirmation, s.Phase)
	assert.Equal(t, "sess-1", s.ID)
	assert.Equal(t, pool, s.CreatedPool)
	assert.Equal(t, PersonalInfo{}, s.Personal)
	assert.Equal(t, PropertyInfo{}, s.Property)
	assert.Equal(t, PoolTerms{}, s.Terms)
	assert.Empty(t, s.Documents)
	assert.False(t, s.Tracking.PersonalInfo.ShowErrors)

	_, err := s.Continue(testNow)
	requireCode(t, err, errors.ErrCodeInvalidTransition)
	requireCode(t, s.ApplyFields(StepPersonalInfo, map[string]string{"firstName": "X"}), errors.ErrCodeInvalidTransition)
	requireCode(t, s.Touch(StepPersonalInfo, "firstName"), errors.ErrCodeInvalidTransition)
	assert.Empty(t, s.Tracking.PersonalInfo.Touched)
}

func TestPrefill(t *testing.T) {
	s := newTestState()
	s.Personal.Email = "typed@example.com"

	s.Prefill(&models.AuthProfile{
		Authenticated: true,
		FirstName:     "Jane",
		LastName:      "Doe",
		Email:         "profile@example.com",
		DateOfBirth:   "1985-04-12",
	})

	assert.Equal(t, "Jane", s.Personal.FirstName)
	assert.Equal(t, "typed@example.com", s.Personal.Email)
	assert.Equal(t, "1985-04-12", s.Personal.DateOfBirth)

	other := newTestState()
	other.Prefill(&models.AuthProfile{Authenticated: false, FirstName: "Ghost"})
	assert.Empty(t, other.Personal.FirstName)
}

func TestView(t *testing.T) {
	s := readyState()
	s.CurrentStep = StepPersonalInfo
	s.Personal.Email = "bad"
	s.Credit.FICOScore = "200"

	_, err := s.Continue(testNow)
	require.NoError(t, err)

	v := s.View(testNow)
	assert.Equal(t, "personal-info", v.StepName)
	assert.Equal(t, []string{"email"}, v.Errors["personal-info"].Fields())
	assert.NotContains(t, v.Errors, "property-info")
	assert.Contains(t, v.Warnings, "ficoScore")
	assert.Equal(t, "2083.33", v.Derived.MonthlyInterest)
}
