// Package candidateapi talks to the candidate service that owns jobs, job levels and candidates.
package candidateapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"applicant-portal/internal/common/config"
	commonhttp "applicant-portal/internal/common/http"
	"applicant-portal/internal/common/logger"
	"applicant-portal/internal/common/observability"
	"applicant-portal/internal/models"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	PathJobs       = "/jobs"
	PathJobLevels  = "/job-levels"
	PathCandidates = "/candidates"
)

var ErrMissingResumeFile = errors.New("resume file is missing")

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// StatusError reports a response status the caller does not accept as success.
type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Endpoint, e.StatusCode)
}

type Client struct {
	http   *commonhttp.Client
	obs    *observability.Observability
	logger logger.Logger
}

// TransportTimeout is the http.Client limit for cfg. Callers bound each call with
// backend.timeout on the context; the transport limit is twice that, so the context
// deadline is the one that ends a slow call and the limit only covers callers without one.
func TransportTimeout(cfg config.BackendConfig) time.Duration {
	timeout := config.GetDuration(cfg.Timeout)
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return 2 * timeout
}

func New(cfg config.BackendConfig, log logger.Logger, obs *observability.Observability) *Client {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	httpClient := commonhttp.NewClient(
		cfg.BaseURL,
		TransportTimeout(cfg),
		log,
		commonhttp.RequestID(),
		commonhttp.BearerToken(cfg.AuthToken),
		commonhttp.TraceContext(),
	)
	return &Client{http: httpClient, obs: obs, logger: log}
}

func (c *Client) ListJobs(ctx context.Context) ([]models.Option, error) {
	return c.listOptions(ctx, PathJobs)
}

func (c *Client) ListJobLevels(ctx context.Context) ([]models.Option, error) {
	return c.listOptions(ctx, PathJobLevels)
}

func (c *Client) listOptions(ctx context.Context, path string) (options []models.Option, err error) {
	ctx, span := c.obs.StartSpan(ctx, "candidateapi.list", attribute.String("path", path))
	defer func() { endSpan(span, err) }()

	req, err := c.http.NewRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req, path)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Endpoint: "GET " + path, StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(&options); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if options == nil {
		options = []models.Option{}
	}
	return options, nil
}

// CreateCandidate posts the draft. In url mode the body is JSON; in file mode it is multipart
// with the resume carried as a file part. Only 200 and 201 count as success.
func (c *Client) CreateCandidate(ctx context.Context, draft models.Draft, mode models.ResumeMode) (candidate *models.Candidate, err error) {
	ctx, span := c.obs.StartSpan(ctx, "candidateapi.create_candidate", attribute.String("resume_mode", string(mode)))
	defer func() { endSpan(span, err) }()

	body, contentType, err := encodeCandidate(draft, mode)
	if err != nil {
		return nil, err
	}

	req, err := c.http.NewRequest(ctx, http.MethodPost, PathCandidates, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req, PathCandidates)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", PathCandidates, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, &StatusError{Endpoint: "POST " + PathCandidates, StatusCode: resp.StatusCode}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", PathCandidates, err)
	}
	candidate = &models.Candidate{}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, candidate); err != nil {
			c.logger.Warn("candidate response is not a record", map[string]interface{}{
				"status": resp.StatusCode,
				"error":  err,
			})
		}
	}
	return candidate, nil
}

func encodeCandidate(draft models.Draft, mode models.ResumeMode) (io.Reader, string, error) {
	payload := models.NewCandidatePayload(draft)
	if mode != models.ResumeModeFile {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, "", fmt.Errorf("encode candidate: %w", err)
		}
		return bytes.NewReader(data), "application/json", nil
	}

	if draft.ResumeFile == nil {
		return nil, "", ErrMissingResumeFile
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := []struct{ name, value string }{
		{"name", payload.Name},
		{"contact_phone", payload.ContactPhone},
		{"contact_email", payload.ContactEmail},
		{"role_id", payload.RoleID},
		{"job_level_id", payload.JobLevelID},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("encode %s: %w", f.name, err)
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="resume"; filename="%s"`, quoteEscaper.Replace(draft.ResumeFile.Filename)))
	contentType := draft.ResumeFile.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("encode resume: %w", err)
	}
	if _, err := part.Write(draft.ResumeFile.Content); err != nil {
		return nil, "", fmt.Errorf("encode resume: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("encode candidate: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
