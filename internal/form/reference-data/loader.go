// internal/form/reference-data/loader.go
package referencedata

import (
	"context"
	"sync"
	"time"

	apperrors "applicant-portal/internal/common/errors"
	"applicant-portal/internal/common/logger"
	"applicant-portal/internal/common/metrics"
	"applicant-portal/internal/common/observability"
	"applicant-portal/internal/models"

	"go.opentelemetry.io/otel/attribute"
)

type Loader struct {
	config  *Config
	fetcher Fetcher
	logger  logger.Logger
	obs     *observability.Observability
}

func NewLoader(cfg *Config, fetcher Fetcher, log logger.Logger, obs *observability.Observability) *Loader {
	return &Loader{
		config:  cfg,
		fetcher: fetcher,
		logger:  log.WithFields(map[string]interface{}{"component": "reference-data"}),
		obs:     obs,
	}
}

// Mount holds the two list cells of one page mount. Each fetch writes only its own cell.
type Mount struct {
	mu   sync.RWMutex
	data models.ReferenceData
	wg   sync.WaitGroup
	done chan struct{}
}

// Snapshot returns the cells as they are now. A list that has not answered yet is not Loaded.
func (m *Mount) Snapshot() models.ReferenceData {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyData(m.data)
}

// Done is closed once both fetches have finished or been discarded.
func (m *Mount) Done() <-chan struct{} {
	return m.done
}

// Wait blocks until Done and returns the final cells.
func (m *Mount) Wait() models.ReferenceData {
	<-m.done
	return m.Snapshot()
}

func (m *Mount) set(list string, cell models.ReferenceList) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch list {
	case ListJobs:
		m.data.Jobs = cell
	case ListJobLevels:
		m.data.JobLevels = cell
	}
}

// Start issues both reads concurrently. There is no ordering between them and no retry.
// Once ctx is done any late result is dropped and its cell stays untouched.
func (l *Loader) Start(ctx context.Context) *Mount {
	return l.start(ctx, ctx)
}

// start runs the reads under reqCtx. Only the end of mountCtx discards results; a read that
// fails because reqCtx expired is recorded as a failure of its list.
func (l *Loader) start(mountCtx, reqCtx context.Context) *Mount {
	m := &Mount{done: make(chan struct{})}
	m.wg.Add(2)
	go l.fetch(mountCtx, reqCtx, m, ListJobs, l.fetcher.ListJobs, apperrors.MsgFetchJobsFailed)
	go l.fetch(mountCtx, reqCtx, m, ListJobLevels, l.fetcher.ListJobLevels, apperrors.MsgFetchLevelsFailed)
	go func() {
		m.wg.Wait()
		close(m.done)
	}()
	return m
}

// Load mounts and waits for both lists. A list that does not answer within the configured
// timeout is reported with its failure message; cancelling ctx discards both.
func (l *Loader) Load(ctx context.Context) models.ReferenceData {
	start := time.Now()
	ctx, span := l.obs.StartSpan(ctx, "reference_data.load")
	defer span.End()

	reqCtx, cancel := context.WithTimeout(ctx, l.config.Timeout)
	defer cancel()

	data := l.start(ctx, reqCtx).Wait()
	complete := data.Jobs.Loaded && data.Jobs.Error == "" && data.JobLevels.Loaded && data.JobLevels.Error == ""
	span.SetAttributes(attribute.Bool("complete", complete))
	l.obs.RecordReferenceLoad(ctx, complete, time.Since(start))
	return data
}

func (l *Loader) fetch(
	mountCtx, reqCtx context.Context,
	m *Mount,
	list string,
	read func(context.Context) ([]models.Option, error),
	failMsg string,
) {
	defer m.wg.Done()
	log := logger.FromContext(mountCtx, l.logger)

	options, err := read(reqCtx)
	if mountCtx.Err() != nil {
		metrics.ReferenceFetches.WithLabelValues(list, metrics.OutcomeCanceled).Inc()
		log.Debug("reference fetch discarded", map[string]interface{}{"list": list})
		return
	}

	if err != nil {
		stdErr := apperrors.NewReferenceDataUnavailableError(list, failMsg, err)
		metrics.ReferenceFetches.WithLabelValues(list, metrics.OutcomeFailed).Inc()
		log.Error("reference fetch failed", map[string]interface{}{
			"list":      list,
			"errorCode": string(stdErr.Code),
			"error":     err,
		})
		m.set(list, models.ReferenceList{Options: []models.Option{}, Error: stdErr.Message, Loaded: true})
		return
	}

	metrics.ReferenceFetches.WithLabelValues(list, metrics.OutcomeSuccess).Inc()
	m.set(list, models.ReferenceList{Options: options, Loaded: true})
}

func copyData(d models.ReferenceData) models.ReferenceData {
	d.Jobs.Options = append([]models.Option(nil), d.Jobs.Options...)
	d.JobLevels.Options = append([]models.Option(nil), d.JobLevels.Options...)
	return d
}
