package wizard

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"pool-wizard/internal/common/errors"
	"pool-wizard/internal/common/validation"
	"pool-wizard/internal/models"
)

// DefaultPropertyState matches the placeholder the state selects start on.
const DefaultPropertyState = "California"

//go:embed schema/create_pool.schema.json
var createPoolSchemaJSON []byte

var createPoolSchema = validation.MustCompileSchema(createPoolSchemaJSON)

// CreatePoolSchema returns the JSON schema every outgoing payload must satisfy.
func CreatePoolSchema() []byte {
	return append([]byte(nil), createPoolSchemaJSON...)
}

// ValidatePayload checks a raw create-pool document against the schema.
func ValidatePayload(raw []byte) (*validation.ValidationResult, error) {
	return createPoolSchema.ValidateBytes(raw)
}

type Assembler struct {
	defaultState string
}

func NewAssembler(defaultState string) *Assembler {
	if defaultState == "" {
		defaultState = DefaultPropertyState
	}
	return &Assembler{defaultState: defaultState}
}

// Build flattens every step into one create-pool payload. Currency strings
// become numbers, blank states take the default and the term resolves to a
// month count. The result is checked against the schema.
func (a *Assembler) Build(s *State) (*models.CreatePoolRequest, error) {
	p, prop, t := s.Personal, s.Property, s.Terms
	term, _ := t.TermMonths()

	req := &models.CreatePoolRequest{
		PoolType:    string(s.PoolType),
		FirstName:   strings.TrimSpace(p.FirstName),
		MiddleName:  strings.TrimSpace(p.MiddleName),
		LastName:    strings.TrimSpace(p.LastName),
		Email:       strings.TrimSpace(p.Email),
		Phone:       digitsOnly(p.Phone),
		DateOfBirth: strings.TrimSpace(p.DateOfBirth),
		SSN:         digitsOnly(p.SSN),
		Address:     strings.TrimSpace(p.Address),
		City:        strings.TrimSpace(p.City),
		State:       a.orDefaultState(p.State),
		ZipCode:     strings.TrimSpace(p.ZipCode),
		PriorNames:  []models.PriorName{},

		PropertyAddress: strings.TrimSpace(prop.Address),
		PropertyCity:    strings.TrimSpace(prop.City),
		PropertyState:   a.orDefaultState(prop.State),
		PropertyZip:     strings.TrimSpace(prop.ZipCode),
		PropertyType:    strings.TrimSpace(prop.PropertyType),
		PropertyValue:   ParseMoney(prop.Value).Float64(),
		PropertyLink:    strings.TrimSpace(prop.Link),
		HasCoOwners:     prop.HasCoOwners,
		CoOwners:        []models.CoOwner{},
		UserOwnership:   100,
		ExistingLoans:   []models.ExistingLoan{},

		Amount:     ParseMoney(t.Amount).Float64(),
		ROIRate:    ParsePercentage(t.ROIRate).Float64(),
		TermMonths: term,
		LoanType:   t.LoanType,

		Documents:   []models.Document{},
		Liabilities: []models.Liability{},
	}

	if p.HasPriorNames {
		for _, pn := range p.PriorNames {
			req.PriorNames = append(req.PriorNames, models.PriorName{
				FirstName:  strings.TrimSpace(pn.FirstName),
				MiddleName: strings.TrimSpace(pn.MiddleName),
				LastName:   strings.TrimSpace(pn.LastName),
			})
		}
	}

	if prop.HasCoOwners {
		for _, co := range prop.CoOwners {
			req.CoOwners = append(req.CoOwners, models.CoOwner{
				Name:       strings.TrimSpace(co.Name),
				Percentage: ParsePercentage(co.Percentage).Float64(),
			})
		}
		req.UserOwnership = userOwnership(prop.CoOwners)
	}

	if prop.HasExistingLoans {
		for _, loan := range prop.ExistingLoans {
			req.ExistingLoans = append(req.ExistingLoans, models.ExistingLoan{
				Lender:         strings.TrimSpace(loan.Lender),
				Balance:        ParseMoney(loan.Balance).Float64(),
				MonthlyPayment: ParseMoney(loan.MonthlyPayment).Float64(),
			})
		}
	}

	for _, d := range s.Documents {
		req.Documents = append(req.Documents, models.Document{Name: d.Name, Type: d.Type, URL: d.URL})
	}

	if err := a.applyCredit(req, s.Credit); err != nil {
		return nil, err
	}

	result, err := createPoolSchema.Validate(req)
	if err != nil {
		return nil, errors.NewPayloadSchemaInvalidError(err.Error())
	}
	if !result.Valid {
		return nil, errors.NewPayloadSchemaInvalidError(strings.Join(result.GetErrorMessages(), "; "))
	}
	return req, nil
}

// applyCredit copies step 5 into the payload. Values that do not parse are
// rejected instead of being dropped, so the range checks in the schema always
// see what the borrower entered.
func (a *Assembler) applyCredit(req *models.CreatePoolRequest, c LiabilityCredit) error {
	if score := strings.TrimSpace(c.FICOScore); score != "" {
		n, err := strconv.Atoi(score)
		if err != nil {
			return errors.NewPayloadSchemaInvalidError(fmt.Sprintf("ficoScore: %q is not a whole number", score))
		}
		req.FICOScore = &n
	}

	if income := ParseMoney(c.AnnualIncome); !income.Blank() {
		if !income.Positive() {
			return errors.NewPayloadSchemaInvalidError(fmt.Sprintf("annualIncome: %q is not a valid amount", c.AnnualIncome))
		}
		v := income.Float64()
		req.AnnualIncome = &v
	}

	for i, l := range c.Liabilities {
		balance := ParseMoney(l.Balance)
		if !balance.Positive() {
			return errors.NewPayloadSchemaInvalidError(fmt.Sprintf("liabilities[%d].balance: %q is not a valid amount", i, l.Balance))
		}
		payment := ParseMoney(l.MonthlyPayment)
		if !payment.Blank() && !payment.Positive() {
			return errors.NewPayloadSchemaInvalidError(fmt.Sprintf("liabilities[%d].monthlyPayment: %q is not a valid amount", i, l.MonthlyPayment))
		}
		req.Liabilities = append(req.Liabilities, models.Liability{
			Type:           strings.TrimSpace(l.Type),
			Creditor:       strings.TrimSpace(l.Creditor),
			Balance:        balance.Float64(),
			MonthlyPayment: payment.Float64(),
		})
	}
	return nil
}

func (a *Assembler) orDefaultState(v string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return a.defaultState
}

// FromRequest rebuilds wizard values from a payload so the step rules can be
// run against data that did not come through a session.
func FromRequest(req *models.CreatePoolRequest) *State {
	s := &State{
		PoolType:    PoolType(req.PoolType),
		CurrentStep: StepReview,
		Phase:       PhaseEditing,
		Tracking:    NewTracking(),
		Personal: PersonalInfo{
			FirstName:     req.FirstName,
			MiddleName:    req.MiddleName,
			LastName:      req.LastName,
			Email:         req.Email,
			Phone:         req.Phone,
			DateOfBirth:   req.DateOfBirth,
			SSN:           req.SSN,
			Address:       req.Address,
			City:          req.City,
			State:         req.State,
			ZipCode:       req.ZipCode,
			HasPriorNames: len(req.PriorNames) > 0,
		},
		Property: PropertyInfo{
			Address:          req.PropertyAddress,
			City:             req.PropertyCity,
			State:            req.PropertyState,
			ZipCode:          req.PropertyZip,
			PropertyType:     req.PropertyType,
			Value:            formatNumber(req.PropertyValue),
			Link:             req.PropertyLink,
			HasCoOwners:      req.HasCoOwners,
			HasExistingLoans: len(req.ExistingLoans) > 0,
		},
		Terms: PoolTerms{
			Amount:   formatNumber(req.Amount),
			ROIRate:  formatNumber(req.ROIRate),
			Term:     strconv.Itoa(req.TermMonths),
			LoanType: req.LoanType,
		},
	}
	if req.TermMonths > 0 && !isPresetTerm(s.Terms.Term) {
		s.Terms.Term, s.Terms.CustomTerm = TermCustom, strconv.Itoa(req.TermMonths)
	}

	for _, pn := range req.PriorNames {
		s.Personal.PriorNames = append(s.Personal.PriorNames, PriorName(pn))
	}
	for _, co := range req.CoOwners {
		s.Property.CoOwners = append(s.Property.CoOwners, CoOwner{Name: co.Name, Percentage: formatNumber(co.Percentage)})
	}
	for _, loan := range req.ExistingLoans {
		s.Property.ExistingLoans = append(s.Property.ExistingLoans, ExistingLoan{
			Lender:         loan.Lender,
			Balance:        formatNumber(loan.Balance),
			MonthlyPayment: formatNumber(loan.MonthlyPayment),
		})
	}
	if req.FICOScore != nil {
		s.Credit.FICOScore = strconv.Itoa(*req.FICOScore)
	}
	if req.AnnualIncome != nil {
		s.Credit.AnnualIncome = formatNumber(*req.AnnualIncome)
	}
	for _, l := range req.Liabilities {
		s.Credit.Liabilities = append(s.Credit.Liabilities, Liability{
			Type:           l.Type,
			Creditor:       l.Creditor,
			Balance:        formatNumber(l.Balance),
			MonthlyPayment: formatNumber(l.MonthlyPayment),
		})
	}
	for _, d := range req.Documents {
		s.Documents = append(s.Documents, Document(d))
	}
	return s
}

func isPresetTerm(term string) bool {
	for _, p := range PresetTerms {
		if p == term {
			return true
		}
	}
	return false
}

// formatNumber renders 0 as blank so optional amounts stay "not provided".
func formatNumber(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
