package wizard

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"pool-wizard/internal/common/errors"
)

// fieldSpec binds a field name, as the page sends it, to its slot in State.
type fieldSpec struct {
	get func(*State) string
	set func(*State, string) error
}

func text(slot func(*State) *string) fieldSpec {
	return fieldSpec{
		get: func(s *State) string { return *slot(s) },
		set: func(s *State, v string) error {
			*slot(s) = v
			return nil
		},
	}
}

func flag(name string, slot func(*State) *bool) fieldSpec {
	return fieldSpec{
		get: func(s *State) string { return strconv.FormatBool(*slot(s)) },
		set: func(s *State, v string) error {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return errors.NewInvalidFieldError(name, fmt.Sprintf("expected true or false, got %q", v))
			}
			*slot(s) = b
			return nil
		},
	}
}

var stepFields = map[Step]map[string]fieldSpec{
	StepPersonalInfo: {
		"firstName":     text(func(s *State) *string { return &s.Personal.FirstName }),
		"middleName":    text(func(s *State) *string { return &s.Personal.MiddleName }),
		"lastName":      text(func(s *State) *string { return &s.Personal.LastName }),
		"email":         text(func(s *State) *string { return &s.Personal.Email }),
		"phone":         text(func(s *State) *string { return &s.Personal.Phone }),
		"dateOfBirth":   text(func(s *State) *string { return &s.Personal.DateOfBirth }),
		"ssn":           text(func(s *State) *string { return &s.Personal.SSN }),
		"address":       text(func(s *State) *string { return &s.Personal.Address }),
		"city":          text(func(s *State) *string { return &s.Personal.City }),
		"state":         text(func(s *State) *string { return &s.Personal.State }),
		"zipCode":       text(func(s *State) *string { return &s.Personal.ZipCode }),
		"hasPriorNames": flag("hasPriorNames", func(s *State) *bool { return &s.Personal.HasPriorNames }),
	},
	StepPropertyInfo: {
		"propertyAddress":  text(func(s *State) *string { return &s.Property.Address }),
		"propertyCity":     text(func(s *State) *string { return &s.Property.City }),
		"propertyState":    text(func(s *State) *string { return &s.Property.State }),
		"propertyZip":      text(func(s *State) *string { return &s.Property.ZipCode }),
		"propertyType":     text(func(s *State) *string { return &s.Property.PropertyType }),
		"propertyValue":    text(func(s *State) *string { return &s.Property.Value }),
		"propertyLink":     text(func(s *State) *string { return &s.Property.Link }),
		"hasCoOwners":      flag("hasCoOwners", func(s *State) *bool { return &s.Property.HasCoOwners }),
		"hasExistingLoans": flag("hasExistingLoans", func(s *State) *bool { return &s.Property.HasExistingLoans }),
	},
	StepPoolTerms: {
		"amount":     text(func(s *State) *string { return &s.Terms.Amount }),
		"roiRate":    text(func(s *State) *string { return &s.Terms.ROIRate }),
		"term":       text(func(s *State) *string { return &s.Terms.Term }),
		"customTerm": text(func(s *State) *string { return &s.Terms.CustomTerm }),
		"loanType":   text(func(s *State) *string { return &s.Terms.LoanType }),
	},
	StepLiabilityCredit: {
		"ficoScore":    text(func(s *State) *string { return &s.Credit.FICOScore }),
		"annualIncome": text(func(s *State) *string { return &s.Credit.AnnualIncome }),
	},
}

// listKeys are the error keys of each step's sub-lists; they can be touched
// like ordinary fields.
var listKeys = map[Step][]string{
	StepPersonalInfo: {KeyPriorNames},
	StepPropertyInfo: {KeyCoOwnerNames, KeyCoOwnerPercentages, KeyExistingLoans},
}

// FieldNames returns every trackable name of a step, sorted.
func FieldNames(step Step) []string {
	names := make([]string, 0, len(stepFields[step])+len(listKeys[step]))
	for name := range stepFields[step] {
		names = append(names, name)
	}
	names = append(names, listKeys[step]...)
	sort.Strings(names)
	return names
}

func isTrackable(step Step, field string) bool {
	if _, ok := stepFields[step][field]; ok {
		return true
	}
	for _, k := range listKeys[step] {
		if k == field {
			return true
		}
	}
	return false
}

// FieldValue reads one scalar field of a step.
func (s *State) FieldValue(step Step, field string) (string, bool) {
	spec, ok := stepFields[step][field]
	if !ok {
		return "", false
	}
	return spec.get(s), true
}

// ApplyFields writes scalar values into a step. All names are checked before
// anything is written, so an unknown name leaves the state untouched.
// Edits never mark fields touched.
func (s *State) ApplyFields(step Step, values map[string]string) error {
	if err := s.ensureEditing(); err != nil {
		return err
	}
	if !step.Valid() {
		return errors.NewStepOutOfRangeError(int(step))
	}
	specs := stepFields[step]
	for name := range values {
		if _, ok := specs[name]; !ok {
			return errors.NewInvalidFieldError(name, fmt.Sprintf("step %s has no field %q", step, name))
		}
	}

	next := s.Clone()
	for name, v := range values {
		if err := specs[name].set(next, v); err != nil {
			return err
		}
	}
	*s = *next
	return nil
}

// Touch records an explicit blur on fields of a validated step. Steps without
// validation have nothing to track and ignore the call.
func (s *State) Touch(step Step, fields ...string) error {
	if err := s.ensureEditing(); err != nil {
		return err
	}
	if !step.Valid() {
		return errors.NewStepOutOfRangeError(int(step))
	}
	if !step.Validated() {
		return nil
	}
	for _, f := range fields {
		if !isTrackable(step, f) {
			return errors.NewInvalidFieldError(f, fmt.Sprintf("step %s has no field %q", step, f))
		}
	}
	s.Tracking.For(step).Touch(fields...)
	return nil
}
