package wizard

import (
	"fmt"
	"math"
	"strconv"
)

// MonthlyInterest is amount × rate / 12, or "0" without both inputs.
func MonthlyInterest(amount Money, rate Percentage) string {
	v, ok := monthlyInterest(amount, rate)
	if !ok {
		return "0"
	}
	return fmt.Sprintf("%.2f", v)
}

func monthlyInterest(amount Money, rate Percentage) (float64, bool) {
	if !amount.Positive() || !rate.Positive() {
		return 0, false
	}
	return amount.Float64() * rate.Fraction() / 12, true
}

// FinalRepayment is what the borrower owes at maturity. Interest-only loans
// repay the principal plus every monthly interest payment; maturity loans
// repay the principal plus simple interest accrued over the term. Unknown
// loan types, a non-positive amount and a negative rate yield "0".
func FinalRepayment(amount Money, rate Percentage, termMonths int, loanType LoanType) string {
	if !amount.Positive() || !rate.Valid() || rate.Float64() < 0 || termMonths <= 0 {
		return "0"
	}
	principal := amount.Float64()
	switch loanType {
	case LoanTypeInterestOnly:
		monthly, _ := monthlyInterest(amount, rate)
		return fmt.Sprintf("%.2f", principal+monthly*float64(termMonths))
	case LoanTypeMaturity:
		return fmt.Sprintf("%.2f", principal+principal*rate.Fraction()*float64(termMonths)/12)
	}
	return "0"
}

// UserOwnership is the borrower's share after co-owners, never below 0.
func UserOwnership(enabled bool, coOwners []CoOwner) string {
	if !enabled {
		return "100"
	}
	return strconv.FormatFloat(userOwnership(coOwners), 'f', -1, 64)
}

func userOwnership(coOwners []CoOwner) float64 {
	total := 0.0
	for _, co := range coOwners {
		if pct := ParsePercentage(co.Percentage); pct.Valid() {
			total += pct.Float64()
		}
	}
	share := math.Max(0, 100-total)
	return math.Round(share*100) / 100
}

// LoanToValue is amount ÷ property value as a percentage.
func LoanToValue(amount, propertyValue Money) string {
	if !amount.Positive() || !propertyValue.Positive() {
		return "0"
	}
	return fmt.Sprintf("%.2f", amount.Float64()/propertyValue.Float64()*100)
}

// Derived are the figures the page shows next to the inputs.
type Derived struct {
	MonthlyInterest string `json:"monthlyInterest"`
	FinalRepayment  string `json:"finalRepayment"`
	UserOwnership   string `json:"userOwnership"`
	LoanToValue     string `json:"loanToValue"`
}

// Derive recomputes every figure from the current values.
func (s *State) Derive() Derived {
	amount := ParseMoney(s.Terms.Amount)
	rate := ParsePercentage(s.Terms.ROIRate)
	term, _ := s.Terms.TermMonths()
	return Derived{
		MonthlyInterest: MonthlyInterest(amount, rate),
		FinalRepayment:  FinalRepayment(amount, rate, term, LoanType(s.Terms.LoanType)),
		UserOwnership:   UserOwnership(s.Property.HasCoOwners, s.Property.CoOwners),
		LoanToValue:     LoanToValue(amount, ParseMoney(s.Property.Value)),
	}
}
