package wizard

import "sort"

// Shared keys under which row-level problems of the sub-lists collect.
const (
	KeyPriorNames         = "priorNames"
	KeyCoOwnerNames       = "coOwnerNames"
	KeyCoOwnerPercentages = "coOwnerPercentages"
	KeyExistingLoans      = "existingLoans"
)

// ErrorMap maps a field name to its messages, in the order rules ran.
// A field without problems is absent; a present field never has an empty list.
type ErrorMap map[string][]string

func (m ErrorMap) add(field, message string) {
	m[field] = append(m[field], message)
}

func (m ErrorMap) Empty() bool { return len(m) == 0 }

// Fields returns the offending field names, sorted.
func (m ErrorMap) Fields() []string {
	fields := make([]string, 0, len(m))
	for f := range m {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Filter keeps the fields for which keep returns true.
func (m ErrorMap) Filter(keep func(field string) bool) ErrorMap {
	out := ErrorMap{}
	for field, msgs := range m {
		if keep(field) {
			out[field] = append([]string(nil), msgs...)
		}
	}
	return out
}
