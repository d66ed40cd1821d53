package validatepoolsubmission

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"pool-wizard/internal/common/errors"
	"pool-wizard/internal/common/logger"
	"pool-wizard/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, throwOnInvalid bool) *Handler {
	h := NewHandler(&Config{Timeout: time.Second, ThrowOnInvalid: throwOnInvalid}, logger.NewTestLogger(t))
	h.now = func() time.Time { return time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC) }
	return h
}

func validSubmission() *models.CreatePoolRequest {
	return &models.CreatePoolRequest{
		PoolType:        "equity",
		FirstName:       "Jane",
		LastName:        "Doe",
		Email:           "jane.doe@example.com",
		Phone:           "4155550134",
		DateOfBirth:     "1985-04-12",
		SSN:             "123456789",
		Address:         "1 Market St",
		City:            "San Francisco",
		State:           "California",
		ZipCode:         "94105",
		PriorNames:      []models.PriorName{},
		PropertyAddress: "742 Evergreen Terrace",
		PropertyCity:    "Oakland",
		PropertyState:   "California",
		PropertyZip:     "94607",
		PropertyType:    "single-family",
		PropertyValue:   850000,
		CoOwners:        []models.CoOwner{},
		UserOwnership:   100,
		ExistingLoans:   []models.ExistingLoan{},
		Amount:          250000,
		ROIRate:         10,
		TermMonths:      12,
		LoanType:        "interest-only",
		Documents:       []models.Document{},
		Liabilities:     []models.Liability{},
	}
}

func TestHandler_Execute_Valid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *models.CreatePoolRequest)
	}{
		{name: "preset term", mutate: func(r *models.CreatePoolRequest) {}},
		{name: "custom term", mutate: func(r *models.CreatePoolRequest) { r.TermMonths = 30 }},
		{
			name: "co-owners under 100 percent",
			mutate: func(r *models.CreatePoolRequest) {
				r.HasCoOwners = true
				r.CoOwners = []models.CoOwner{{Name: "John Doe", Percentage: 40}}
				r.UserOwnership = 60
			},
		},
		{
			name: "existing loan",
			mutate: func(r *models.CreatePoolRequest) {
				r.ExistingLoans = []models.ExistingLoan{{Lender: "First Bank", Balance: 120000, MonthlyPayment: 900}}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := validSubmission()
			tt.mutate(sub)

			out, err := newTestHandler(t, true).Execute(context.Background(), &Input{PoolID: "pool-1", Submission: sub})
			require.NoError(t, err)
			assert.True(t, out.IsValid)
			assert.Equal(t, "pool-1", out.PoolID)
			assert.NotNil(t, out.ValidationErrors)
			assert.Empty(t, out.ValidationErrors)
		})
	}
}

func TestHandler_Execute_RedactedSubmission(t *testing.T) {
	sub := validSubmission().Redacted()
	require.True(t, sub.IsRedacted())
	assert.Equal(t, "6789", sub.SSNLast4)

	out, err := newTestHandler(t, true).Execute(context.Background(), &Input{PoolID: "pool-1", Submission: sub})
	require.NoError(t, err)
	assert.True(t, out.IsValid, "unexpected errors: %v", out.ValidationErrors)
}

func TestHandler_Execute_MissingSSN(t *testing.T) {
	sub := validSubmission()
	sub.SSN = ""

	out, err := newTestHandler(t, false).Execute(context.Background(), &Input{PoolID: "pool-1", Submission: sub})
	require.NoError(t, err)
	assert.False(t, out.IsValid)

	fields := make(map[string]bool)
	for _, v := range out.ValidationErrors {
		fields[v.Step+"/"+v.Field] = true
	}
	assert.True(t, fields["personal-info/ssn"])
}

func TestHandler_Execute_Invalid_Throws(t *testing.T) {
	sub := validSubmission()
	sub.Email = "not-an-email"
	sub.DateOfBirth = "2015-01-01"

	_, err := newTestHandler(t, true).Execute(context.Background(), &Input{PoolID: "pool-1", Submission: sub})

	stdErr, ok := errors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodePoolValidationFailed, stdErr.Code)
	assert.False(t, stdErr.Retryable)

	verrs, ok := stdErr.Metadata["validationErrors"].([]ValidationError)
	require.True(t, ok)
	fields := make(map[string]bool)
	for _, v := range verrs {
		fields[v.Field] = true
	}
	assert.True(t, fields["email"])
	assert.True(t, fields["dateOfBirth"])

	bpmn := errors.ConvertToBPMNError(stdErr)
	assert.Equal(t, "POOL_VALIDATION_FAILED", bpmn.Code)
	assert.Contains(t, bpmn.ErrorVariables, "validationErrors")
}

func TestHandler_Execute_Invalid_Completes(t *testing.T) {
	sub := validSubmission()
	sub.HasCoOwners = true
	sub.CoOwners = []models.CoOwner{{Name: "A B", Percentage: 60}, {Name: "C D", Percentage: 40}}
	sub.UserOwnership = 0

	out, err := newTestHandler(t, false).Execute(context.Background(), &Input{PoolID: "pool-2", Submission: sub})
	require.NoError(t, err)
	assert.False(t, out.IsValid)
	require.NotEmpty(t, out.ValidationErrors)
	assert.Equal(t, "property-info", out.ValidationErrors[0].Step)
	assert.Equal(t, "coOwnerPercentages", out.ValidationErrors[0].Field)
}

func TestHandler_Execute_SchemaViolation(t *testing.T) {
	sub := validSubmission()
	sub.PoolType = "bridge"

	out, err := newTestHandler(t, false).Execute(context.Background(), &Input{Submission: sub})
	require.NoError(t, err)
	assert.False(t, out.IsValid)

	var payloadErrors int
	for _, v := range out.ValidationErrors {
		if v.Step == "payload" {
			payloadErrors++
		}
	}
	assert.Positive(t, payloadErrors)
}

func TestHandler_Execute_SchemaErrorsAttributedToStep(t *testing.T) {
	sub := validSubmission()
	fico := 900
	sub.FICOScore = &fico

	out, err := newTestHandler(t, false).Execute(context.Background(), &Input{Submission: sub})
	require.NoError(t, err)
	assert.False(t, out.IsValid)
	require.Len(t, out.ValidationErrors, 1)
	assert.Equal(t, "liability-credit", out.ValidationErrors[0].Step)
	assert.Equal(t, "ficoScore", out.ValidationErrors[0].Field)
}

func TestHandler_Execute_MissingSubmission(t *testing.T) {
	_, err := newTestHandler(t, true).Execute(context.Background(), &Input{PoolID: "pool-1"})

	stdErr, ok := errors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeInputParsingFailed, stdErr.Code)
}

func createMockJob(key int64, variables string) entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                key,
		Type:               TaskType,
		ProcessInstanceKey: key * 10,
		BpmnProcessId:      "pool-underwriting",
		ElementId:          "Activity_ValidatePoolSubmission",
		CustomHeaders:      "{}",
		Worker:             "test-worker",
		Retries:            3,
		Variables:          variables,
	}}
}

func TestParseInput(t *testing.T) {
	raw, err := json.Marshal(map[string]interface{}{
		"poolId":     "pool-9",
		"submission": validSubmission(),
		"amount":     250000,
	})
	require.NoError(t, err)

	input, err := parseInput(createMockJob(1, string(raw)))
	require.NoError(t, err)
	assert.Equal(t, "pool-9", input.PoolID)
	require.NotNil(t, input.Submission)
	assert.Equal(t, 12, input.Submission.TermMonths)
}

func TestParseInput_Malformed(t *testing.T) {
	_, err := parseInput(createMockJob(2, "{not json"))

	stdErr, ok := errors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeInputParsingFailed, stdErr.Code)
}
