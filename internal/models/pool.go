// internal/models/pool.go
package models

// CreatePoolRequest is the flat payload POSTed to /api/pools/create.
type CreatePoolRequest struct {
	PoolType string `json:"poolType"`

	FirstName   string      `json:"firstName"`
	MiddleName  string      `json:"middleName,omitempty"`
	LastName    string      `json:"lastName"`
	Email       string      `json:"email"`
	Phone       string      `json:"phone"`
	DateOfBirth string      `json:"dateOfBirth"`
	SSN         string      `json:"ssn,omitempty"`
	SSNLast4    string      `json:"ssnLast4,omitempty"`
	Address     string      `json:"address"`
	City        string      `json:"city"`
	State       string      `json:"state"`
	ZipCode     string      `json:"zipCode"`
	PriorNames  []PriorName `json:"priorNames"`

	PropertyAddress string         `json:"propertyAddress"`
	PropertyCity    string         `json:"propertyCity"`
	PropertyState   string         `json:"propertyState"`
	PropertyZip     string         `json:"propertyZip"`
	PropertyType    string         `json:"propertyType"`
	PropertyValue   float64        `json:"propertyValue"`
	PropertyLink    string         `json:"propertyLink,omitempty"`
	HasCoOwners     bool           `json:"hasCoOwners"`
	CoOwners        []CoOwner      `json:"coOwners"`
	UserOwnership   float64        `json:"userOwnership"`
	ExistingLoans   []ExistingLoan `json:"existingLoans"`

	Amount     float64 `json:"amount"`
	ROIRate    float64 `json:"roiRate"`
	TermMonths int     `json:"term"`
	LoanType   string  `json:"loanType"`

	Documents []Document `json:"documents"`

	FICOScore    *int        `json:"ficoScore,omitempty"`
	AnnualIncome *float64    `json:"annualIncome,omitempty"`
	Liabilities  []Liability `json:"liabilities"`
}

// Redacted returns a shallow copy safe to persist or hand to the process
// engine: the SSN is replaced by its last four digits.
func (r *CreatePoolRequest) Redacted() *CreatePoolRequest {
	c := *r
	if len(c.SSN) >= 4 {
		c.SSNLast4 = c.SSN[len(c.SSN)-4:]
	}
	c.SSN = ""
	return &c
}

// IsRedacted reports whether the SSN was stripped by Redacted.
func (r *CreatePoolRequest) IsRedacted() bool {
	return r.SSN == "" && r.SSNLast4 != ""
}

type PriorName struct {
	FirstName  string `json:"firstName"`
	MiddleName string `json:"middleName,omitempty"`
	LastName   string `json:"lastName"`
}

type CoOwner struct {
	Name       string  `json:"name"`
	Percentage float64 `json:"percentage"`
}

type ExistingLoan struct {
	Lender         string  `json:"lender"`
	Balance        float64 `json:"balance"`
	MonthlyPayment float64 `json:"monthlyPayment,omitempty"`
}

// Document is upload metadata only; the file itself lives in the backend's storage.
type Document struct {
	Name string `json:"name"`
	Type string `json:"type"`
	URL  string `json:"url,omitempty"`
}

type Liability struct {
	Type           string  `json:"type"`
	Creditor       string  `json:"creditor"`
	Balance        float64 `json:"balance"`
	MonthlyPayment float64 `json:"monthlyPayment,omitempty"`
}

// Pool is the backend's representation of a funding request.
type Pool struct {
	ID              string  `json:"id"`
	PoolType        string  `json:"poolType"`
	Status          string  `json:"status,omitempty"`
	Amount          float64 `json:"amount"`
	AmountRaised    float64 `json:"amountRaised,omitempty"`
	ROIRate         float64 `json:"roiRate"`
	TermMonths      int     `json:"term"`
	LoanType        string  `json:"loanType,omitempty"`
	PropertyAddress string  `json:"propertyAddress,omitempty"`
	PropertyCity    string  `json:"propertyCity,omitempty"`
	PropertyState   string  `json:"propertyState,omitempty"`
	PropertyValue   float64 `json:"propertyValue,omitempty"`
	CreatedAt       string  `json:"createdAt,omitempty"`
}

// PoolUpdate carries the mutable subset accepted by PUT /api/pools/:id/update.
type PoolUpdate struct {
	Amount     *float64 `json:"amount,omitempty"`
	ROIRate    *float64 `json:"roiRate,omitempty"`
	TermMonths *int     `json:"term,omitempty"`
	LoanType   *string  `json:"loanType,omitempty"`
	Status     *string  `json:"status,omitempty"`
}
