package wizard

import (
	"fmt"
	"strings"
	"time"
)

var knownLoanTypes = map[LoanType]bool{
	LoanTypeInterestOnly: true,
	LoanTypeMaturity:     true,
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

func checkName(errs ErrorMap, field, label, value string, required bool) {
	switch {
	case blank(value):
		if required {
			errs.add(field, label+" is required")
		}
	case !IsValidName(value):
		errs.add(field, label+" can only contain letters, apostrophes, hyphens and spaces")
	}
}

// PersonalInfoErrors recomputes the personal-info error map. now anchors the
// age check.
func PersonalInfoErrors(p PersonalInfo, now time.Time) ErrorMap {
	errs := ErrorMap{}

	checkName(errs, "firstName", "First name", p.FirstName, true)
	checkName(errs, "middleName", "Middle name", p.MiddleName, false)
	checkName(errs, "lastName", "Last name", p.LastName, true)

	switch {
	case blank(p.Email):
		errs.add("email", "Email is required")
	case !IsValidEmail(p.Email):
		errs.add("email", "Enter a valid email address")
	}

	switch {
	case blank(p.Phone):
		errs.add("phone", "Phone number is required")
	case !IsValidPhone(p.Phone):
		errs.add("phone", "Phone number must be 10 digits")
	}

	if blank(p.DateOfBirth) {
		errs.add("dateOfBirth", "Date of birth is required")
	} else if _, ok := ParseDate(p.DateOfBirth); !ok {
		errs.add("dateOfBirth", "Enter a valid date of birth")
	} else if !IsAdult(p.DateOfBirth, now) {
		errs.add("dateOfBirth", "You must be at least 18 years old")
	}

	switch {
	case blank(p.SSN):
		errs.add("ssn", "SSN is required")
	case !IsValidSSN(p.SSN):
		errs.add("ssn", "SSN must be 9 digits")
	}

	if blank(p.Address) {
		errs.add("address", "Street address is required")
	}

	switch {
	case blank(p.City):
		errs.add("city", "City is required")
	case !IsValidCity(p.City):
		errs.add("city", "City can only contain letters, spaces, hyphens and apostrophes")
	}

	switch {
	case blank(p.ZipCode):
		errs.add("zipCode", "ZIP code is required")
	case !IsValidZIP(p.ZipCode):
		errs.add("zipCode", "ZIP code must be 5 digits or ZIP+4")
	}

	if p.HasPriorNames {
		if len(p.PriorNames) == 0 {
			errs.add(KeyPriorNames, "Add at least one prior name or answer no")
		}
		for i, pn := range p.PriorNames {
			if !IsValidName(pn.FirstName) || !IsValidName(pn.LastName) ||
				(!blank(pn.MiddleName) && !IsValidName(pn.MiddleName)) {
				errs.add(KeyPriorNames, fmt.Sprintf("Prior name %d: enter a valid first and last name", i+1))
			}
		}
	}

	return errs
}

// PropertyInfoErrors recomputes the property-info error map, including the
// co-owner and existing-loan rows.
func PropertyInfoErrors(p PropertyInfo) ErrorMap {
	errs := ErrorMap{}

	if blank(p.Address) {
		errs.add("propertyAddress", "Property address is required")
	}

	switch {
	case blank(p.City):
		errs.add("propertyCity", "Property city is required")
	case !IsValidCity(p.City):
		errs.add("propertyCity", "City can only contain letters, spaces, hyphens and apostrophes")
	}

	switch {
	case blank(p.ZipCode):
		errs.add("propertyZip", "Property ZIP code is required")
	case !IsValidZIP(p.ZipCode):
		errs.add("propertyZip", "ZIP code must be 5 digits or ZIP+4")
	}

	if blank(p.PropertyType) {
		errs.add("propertyType", "Select a property type")
	}

	if !IsValidCurrency(p.Value, true) {
		errs.add("propertyValue", "Enter a valid property value")
	}

	if !blank(p.Link) && !IsValidURL(p.Link) {
		errs.add("propertyLink", "Enter a valid URL, including http:// or https://")
	}

	if p.HasCoOwners {
		if len(p.CoOwners) == 0 {
			errs.add(KeyCoOwnerNames, "Add at least one co-owner or answer no")
		}
		total := 0.0
		for i, co := range p.CoOwners {
			if !IsValidName(co.Name) {
				errs.add(KeyCoOwnerNames, fmt.Sprintf("Co-owner %d: enter a valid name", i+1))
			}
			if !IsValidPercentage(co.Percentage) {
				errs.add(KeyCoOwnerPercentages, fmt.Sprintf("Co-owner %d: percentage must be greater than 0 and at most 100", i+1))
			}
			if pct := ParsePercentage(co.Percentage); pct.Valid() {
				total += pct.Float64()
			}
		}
		if total >= 100 {
			errs.add(KeyCoOwnerPercentages, "Co-owner percentages must total less than 100%")
		}
	}

	if p.HasExistingLoans {
		if len(p.ExistingLoans) == 0 {
			errs.add(KeyExistingLoans, "Add at least one existing loan or answer no")
		}
		for i, loan := range p.ExistingLoans {
			if blank(loan.Lender) || !IsValidCurrency(loan.Balance, true) || !IsValidCurrency(loan.MonthlyPayment, false) {
				errs.add(KeyExistingLoans, fmt.Sprintf("Loan %d: enter the lender and a valid balance", i+1))
			}
		}
	}

	return errs
}

// PoolTermsErrors recomputes the pool-terms error map.
func PoolTermsErrors(t PoolTerms) ErrorMap {
	errs := ErrorMap{}

	amount := ParseMoney(t.Amount)
	switch {
	case amount.Blank():
		errs.add("amount", "Pool amount is required")
	case !amount.Positive():
		errs.add("amount", "Enter a valid pool amount")
	case !IsValidPoolAmount(t.Amount):
		errs.add("amount", "Pool amount cannot exceed $10,000,000")
	}

	switch {
	case blank(t.ROIRate):
		errs.add("roiRate", "ROI rate is required")
	case !IsValidROIRate(t.ROIRate):
		errs.add("roiRate", "ROI rate must be greater than 0 and at most 100")
	}

	switch {
	case blank(t.Term):
		errs.add("term", "Select a term")
	case t.Term == TermCustom:
		if !IsValidTerm(t.CustomTerm, true) {
			errs.add("customTerm", fmt.Sprintf("Custom term must be a whole number of months up to %d", maxCustomTerm))
		}
	case !IsValidTerm(t.Term, false):
		errs.add("term", "Term must be a whole number of months")
	}

	if !knownLoanTypes[LoanType(t.LoanType)] {
		errs.add("loanType", "Select a loan type")
	}

	return errs
}

// LiabilityCreditWarnings checks the optional credit step. The result is
// advisory: Continue from that step never consults it.
func LiabilityCreditWarnings(c LiabilityCredit) ErrorMap {
	errs := ErrorMap{}
	if !IsValidFICO(c.FICOScore) {
		errs.add("ficoScore", fmt.Sprintf("FICO score must be a whole number between %d and %d", minFICO, maxFICO))
	}
	if !IsValidCurrency(c.AnnualIncome, false) {
		errs.add("annualIncome", "Enter a valid annual income")
	}
	for i, l := range c.Liabilities {
		if !IsValidCurrency(l.Balance, true) || !IsValidCurrency(l.MonthlyPayment, false) {
			errs.add("liabilities", fmt.Sprintf("Liability %d: enter a valid balance", i+1))
		}
	}
	return errs
}

// StepErrors is the full error map of a validated step; other steps have none.
func (s *State) StepErrors(step Step, now time.Time) ErrorMap {
	switch step {
	case StepPersonalInfo:
		return PersonalInfoErrors(s.Personal, now)
	case StepPropertyInfo:
		return PropertyInfoErrors(s.Property)
	case StepPoolTerms:
		return PoolTermsErrors(s.Terms)
	}
	return ErrorMap{}
}

// VisibleErrors applies the display policy to StepErrors.
func (s *State) VisibleErrors(step Step, now time.Time) ErrorMap {
	tr := s.Tracking.For(step)
	if tr == nil {
		return ErrorMap{}
	}
	return tr.Visible(s.StepErrors(step, now))
}
