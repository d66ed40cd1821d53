package wizard

import (
	"testing"
	"time"

	"pool-wizard/internal/common/errors"

	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)

func validPersonal() PersonalInfo {
	return PersonalInfo{
		FirstName:   "Jane",
		LastName:    "Doe",
		Email:       "jane.doe@example.com",
		Phone:       "(415) 555-0134",
		DateOfBirth: "1985-04-12",
		SSN:         "123-45-6789",
		Address:     "1 Market St",
		City:        "San Francisco",
		ZipCode:     "94105",
	}
}

func validProperty() PropertyInfo {
	return PropertyInfo{
		Address:      "742 Evergreen Terrace",
		City:         "Oakland",
		State:        "Nevada",
		ZipCode:      "94607",
		PropertyType: "single-family",
		Value:        "$850,000",
		Link:         "https://example.com/listing/1",
	}
}

func validTerms() PoolTerms {
	return PoolTerms{
		Amount:   "$250,000",
		ROIRate:  "10",
		Term:     "12",
		LoanType: string(LoanTypeInterestOnly),
	}
}

func newTestState() *State {
	return NewState("sess-1", PoolTypeEquity, testNow)
}

// readyState is a session on the review step with every validated step clean.
func readyState() *State {
	s := newTestState()
	s.Personal = validPersonal()
	s.Property = validProperty()
	s.Terms = validTerms()
	s.CurrentStep = StepReview
	return s
}

func requireCode(t *testing.T, err error, code errors.ErrorCode) *errors.StandardError {
	t.Helper()
	require.Error(t, err)
	stdErr, ok := errors.AsStandardError(err)
	require.True(t, ok, "expected StandardError, got %T", err)
	require.Equal(t, code, stdErr.Code)
	return stdErr
}
