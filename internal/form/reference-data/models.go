// internal/form/reference-data/models.go
package referencedata

import (
	"context"

	"applicant-portal/internal/models"
)

const (
	ListJobs      = "jobs"
	ListJobLevels = "job_levels"
)

// Fetcher reads the reference lists from the backend.
type Fetcher interface {
	ListJobs(ctx context.Context) ([]models.Option, error)
	ListJobLevels(ctx context.Context) ([]models.Option, error)
}
