package validatepoolsubmission

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pool-wizard/internal/common/errors"
	"pool-wizard/internal/common/logger"
	"pool-wizard/internal/common/metrics"
	"pool-wizard/internal/common/validation"
	"pool-wizard/internal/wizard"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "validate-pool-submission"
)

type Handler struct {
	config       *Config
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
	now          func() time.Time
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		logger:       l,
		errorHandler: errors.NewErrorHandler(l),
		now:          time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	defer func() {
		metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	}()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := parseInput(job)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

func parseInput(job entities.Job) (*Input, error) {
	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, errors.NewInputParsingFailedError(err)
	}
	return &input, nil
}

// Execute runs the personal, property and terms rules plus the payload schema
// against the submitted pool.
func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	if input.Submission == nil {
		return nil, errors.NewInputParsingFailedError(fmt.Errorf("submission is required"))
	}

	var validationErrors []ValidationError

	state := wizard.FromRequest(input.Submission)
	now := h.now()
	for _, step := range wizard.ValidatedSteps {
		errs := state.StepErrors(step, now)
		if step == wizard.StepPersonalInfo && input.Submission.IsRedacted() {
			// Checked in full before the pool was created.
			delete(errs, "ssn")
		}
		for _, field := range errs.Fields() {
			for _, msg := range errs[field] {
				validationErrors = append(validationErrors, ValidationError{
					Step:    step.String(),
					Field:   field,
					Message: msg,
				})
			}
		}
	}

	raw, err := json.Marshal(input.Submission)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	result, err := wizard.ValidatePayload(raw)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	validationErrors = append(validationErrors, schemaErrors(result)...)

	isValid := len(validationErrors) == 0
	h.logger.Info("validation completed", map[string]interface{}{
		"poolId":     input.PoolID,
		"isValid":    isValid,
		"errorCount": len(validationErrors),
	})

	if !isValid && h.config.ThrowOnInvalid {
		return nil, errors.NewPoolValidationFailedError(
			fmt.Sprintf("%d validation errors", len(validationErrors)),
		).WithMetadata("validationErrors", validationErrors)
	}

	if validationErrors == nil {
		validationErrors = []ValidationError{}
	}
	return &Output{
		PoolID:           input.PoolID,
		IsValid:          isValid,
		ValidationErrors: validationErrors,
	}, nil
}

// payloadSections maps top-level payload keys to the wizard step that
// collects them.
var payloadSections = []struct {
	step   wizard.Step
	fields []string
}{
	{wizard.StepPersonalInfo, []string{"firstName", "middleName", "lastName", "email", "phone", "dateOfBirth", "ssn", "ssnLast4", "address", "city", "state", "zipCode", "priorNames"}},
	{wizard.StepPropertyInfo, []string{"propertyAddress", "propertyCity", "propertyState", "propertyZip", "propertyType", "propertyValue", "propertyLink", "hasCoOwners", "coOwners", "userOwnership", "existingLoans"}},
	{wizard.StepPoolTerms, []string{"amount", "roiRate", "term", "loanType"}},
	{wizard.StepDocuments, []string{"documents"}},
	{wizard.StepLiabilityCredit, []string{"ficoScore", "annualIncome", "liabilities"}},
}

// schemaErrors attributes schema violations to steps; anything outside a
// section (pool type, root-level required keys) is reported under "payload".
func schemaErrors(result *validation.ValidationResult) []ValidationError {
	var out []ValidationError
	claimed := make(map[validation.ValidationError]bool)
	for _, section := range payloadSections {
		for _, field := range section.fields {
			for _, e := range result.GetErrorsForField(field) {
				claimed[e] = true
				out = append(out, ValidationError{Step: section.step.String(), Field: e.Field, Message: e.Message})
			}
		}
	}
	for _, e := range result.Errors {
		if !claimed[e] {
			out = append(out, ValidationError{Step: "payload", Field: e.Field, Message: e.Message})
		}
	}
	return out
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}
