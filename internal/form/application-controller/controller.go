// internal/form/application-controller/controller.go
package applicationcontroller

import (
	"context"
	"errors"
	"sync"
	"time"

	"applicant-portal/internal/common/candidateapi"
	apperrors "applicant-portal/internal/common/errors"
	"applicant-portal/internal/common/logger"
	"applicant-portal/internal/common/metrics"
	"applicant-portal/internal/common/observability"
	draftschema "applicant-portal/internal/form/draft-schema"
	"applicant-portal/internal/models"

	"go.opentelemetry.io/otel/attribute"
)

// ErrSubmissionInFlight matches (errors.Is) the error returned while a submission is pending.
var ErrSubmissionInFlight = apperrors.ErrSubmissionInFlight

// ErrAlreadySubmitted matches the error returned by Submit before a success was dismissed.
var ErrAlreadySubmitted = apperrors.ErrAlreadySubmitted

// Handler holds what every form controller shares.
type Handler struct {
	config    *Config
	validator Validator
	submitter Submitter
	logger    logger.Logger
	obs       *observability.Observability
}

func NewHandler(cfg *Config, validator Validator, submitter Submitter, log logger.Logger, obs *observability.Observability) *Handler {
	return &Handler{
		config:    cfg,
		validator: validator,
		submitter: submitter,
		logger:    log.WithFields(map[string]interface{}{"component": "application-controller"}),
		obs:       obs,
	}
}

// NewController starts a fresh form in the editing state.
func (h *Handler) NewController(sessionID string) *Controller {
	return h.Restore(models.NewFormSession(sessionID))
}

// Restore resumes the form captured in s. A snapshot taken mid-submission is treated as failed.
func (h *Handler) Restore(s *models.FormSession) *Controller {
	state := *s
	if state.State == "" {
		state.State = models.StateEditing
	}
	if state.State == models.StateSubmitting {
		state.State = models.StateFailed
		state.Message = apperrors.MsgSubmissionFailed
	}
	return &Controller{h: h, state: state}
}

// Controller owns the draft, its validation result and the submission state of one form.
type Controller struct {
	h *Handler

	mu       sync.Mutex
	state    models.FormSession
	inFlight bool
}

// Snapshot returns a copy of the current form state.
func (c *Controller) Snapshot() *models.FormSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.FieldErrors = copyErrors(c.state.FieldErrors)
	if c.state.Result != nil {
		result := *c.state.Result
		s.Result = &result
	}
	return &s
}

func (c *Controller) State() models.FormState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.State
}

// SetReference stores the lists of the latest page mount.
func (c *Controller) SetReference(data models.ReferenceData) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Reference = data
}

// Update records an edit and re-validates it. A failed form returns to editing.
func (c *Controller) Update(d models.Draft) (draftschema.FieldErrors, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inFlight {
		return nil, apperrors.NewSubmissionInFlightError(c.state.ID)
	}

	fieldErrs, err := c.h.validator.Validate(d)
	if err != nil {
		return nil, err
	}
	c.state.Draft = d
	c.state.FieldErrors = copyErrors(fieldErrs)
	if c.state.State == models.StateFailed {
		c.state.State = models.StateEditing
		c.state.Message = ""
	}
	return fieldErrs, nil
}

// Submit validates d and, when every field passes, performs the write call exactly once.
// A form in the success state rejects Submit until Dismiss reopens it.
// The mutex is not held while the backend is called; the in-flight flag rejects a second Submit.
func (c *Controller) Submit(ctx context.Context, d models.Draft) (*models.Candidate, error) {
	c.mu.Lock()
	sessionID := c.state.ID
	if c.inFlight || c.state.State == models.StateSubmitting {
		c.mu.Unlock()
		metrics.Submissions.WithLabelValues(metrics.OutcomeBlocked).Inc()
		return nil, apperrors.NewSubmissionInFlightError(sessionID)
	}
	if c.state.State == models.StateSuccess {
		c.mu.Unlock()
		metrics.Submissions.WithLabelValues(metrics.OutcomeBlocked).Inc()
		return nil, apperrors.NewAlreadySubmittedError(sessionID)
	}

	fieldErrs, err := c.h.validator.Validate(d)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.state.Draft = d
	c.state.FieldErrors = copyErrors(fieldErrs)
	if !fieldErrs.Valid() {
		c.mu.Unlock()
		for field := range fieldErrs {
			metrics.ValidationFailures.WithLabelValues(field).Inc()
		}
		metrics.Submissions.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, apperrors.NewValidationFailedError(fieldErrs)
	}

	c.inFlight = true
	c.state.State = models.StateSubmitting
	c.state.Message = ""
	c.state.Result = nil
	c.mu.Unlock()

	candidate, err := c.send(ctx, sessionID, d)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false

	if err != nil {
		c.state.State = models.StateFailed
		c.state.Message = apperrors.MsgSubmissionFailed
		return nil, apperrors.NewCandidateRequestError(err)
	}

	c.state.State = models.StateSuccess
	c.state.Draft = models.Draft{}
	c.state.FieldErrors = nil
	c.state.Result = candidate
	c.state.Message = apperrors.MsgSubmissionSuccess
	return candidate, nil
}

func (c *Controller) send(ctx context.Context, sessionID string, d models.Draft) (*models.Candidate, error) {
	start := time.Now()
	mode := c.h.validator.Mode()
	ctx, span := c.h.obs.StartSpan(ctx, "application.submit", attribute.String("resume_mode", string(mode)))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.h.config.SubmitTimeout)
	defer cancel()

	metrics.SubmissionsInFlight.Inc()
	candidate, err := c.h.submitter.CreateCandidate(ctx, d, mode)
	metrics.SubmissionsInFlight.Dec()

	outcome := metrics.OutcomeSuccess
	switch {
	case err != nil && errors.Is(ctx.Err(), context.Canceled):
		outcome = metrics.OutcomeCanceled
	case err != nil:
		outcome = metrics.OutcomeFailed
	}
	metrics.Submissions.WithLabelValues(outcome).Inc()
	c.h.obs.RecordSubmission(ctx, outcome, time.Since(start))
	span.SetAttributes(attribute.String("outcome", outcome))

	if err != nil {
		msg := "candidate request failed"
		var statusErr *candidateapi.StatusError
		if errors.As(err, &statusErr) {
			msg = apperrors.MsgUnexpectedResponse
		}
		logger.FromContext(ctx, c.h.logger).Error(msg, map[string]interface{}{
			"sessionId": sessionID,
			"outcome":   outcome,
			"error":     err,
		})
		return nil, err
	}

	id := ""
	if candidate != nil {
		id = string(candidate.ID)
	}
	logger.FromContext(ctx, c.h.logger).Info("candidate created", map[string]interface{}{
		"sessionId":   sessionID,
		"candidateId": id,
	})
	return candidate, nil
}

// Dismiss acknowledges a successful submission and reopens an empty form.
// Calling it in any other state, or twice, has no effect.
func (c *Controller) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.State != models.StateSuccess {
		return
	}
	c.state.State = models.StateEditing
	c.state.Message = ""
	c.state.Result = nil
}

func copyErrors(in draftschema.FieldErrors) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
