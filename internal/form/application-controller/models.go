// internal/form/application-controller/models.go
package applicationcontroller

import (
	"context"

	draftschema "applicant-portal/internal/form/draft-schema"
	"applicant-portal/internal/models"
)

// Submitter performs the single write call.
type Submitter interface {
	CreateCandidate(ctx context.Context, draft models.Draft, mode models.ResumeMode) (*models.Candidate, error)
}

// Validator checks a draft against the form rules.
type Validator interface {
	Validate(d models.Draft) (draftschema.FieldErrors, error)
	Mode() models.ResumeMode
}
