// Package web serves the application form.
package web

import (
	"context"
	"errors"
	"net/http"

	"applicant-portal/internal/common/config"
	apperrors "applicant-portal/internal/common/errors"
	"applicant-portal/internal/common/logger"
	"applicant-portal/internal/common/session"
	applicationcontroller "applicant-portal/internal/form/application-controller"
	draftschema "applicant-portal/internal/form/draft-schema"
	"applicant-portal/internal/models"

	"github.com/NYTimes/gziphandler"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReferenceLoader mounts the reference lists for a page.
type ReferenceLoader interface {
	Load(ctx context.Context) models.ReferenceData
}

type Deps struct {
	Config         *config.Config
	Store          session.Store
	Loader         ReferenceLoader
	Forms          *applicationcontroller.Handler
	Schema         *draftschema.Schema
	Logger         logger.Logger
	HealthCheck    func(ctx context.Context) error
	MetricsHandler http.Handler
}

type Server struct {
	cfg        *config.Config
	store      session.Store
	loader     ReferenceLoader
	forms      *applicationcontroller.Handler
	schema     *draftschema.Schema
	logger     logger.Logger
	errHandler *apperrors.ErrorHandler
	health     func(ctx context.Context) error
	metrics    http.Handler
}

func NewServer(deps Deps) *Server {
	metricsHandler := deps.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	log := deps.Logger.WithFields(map[string]interface{}{"component": "web"})
	return &Server{
		cfg:        deps.Config,
		store:      deps.Store,
		loader:     deps.Loader,
		forms:      deps.Forms,
		schema:     deps.Schema,
		logger:     log,
		errHandler: apperrors.NewErrorHandler(log),
		health:     deps.HealthCheck,
		metrics:    metricsHandler,
	}
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(
		WithRequestID(),
		WithTracing(s.cfg.Observability.ServiceName),
		WithLogger(s.logger),
		WithRecovery(s.logger),
	)

	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/application/validate", s.handleValidate).Methods(http.MethodPost)
	r.HandleFunc("/application", s.handleSubmit).Methods(http.MethodPost)
	r.HandleFunc("/application/dismiss", s.handleDismiss).Methods(http.MethodPost)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics).Methods(http.MethodGet)
	return r
}

func (s *Server) Handler() http.Handler {
	return gziphandler.GzipHandler(s.Router())
}

// handleIndex mounts the page: both reference lists are fetched on every render.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	form, err := s.openForm(w, r)
	if err != nil {
		s.errHandler.HandleHTTPError(w, r, err)
		return
	}
	form.SetReference(s.loader.Load(r.Context()))

	snap := form.Snapshot()
	if err := s.saveForm(r.Context(), snap); err != nil {
		s.errHandler.HandleHTTPError(w, r, err)
		return
	}
	s.renderPage(w, http.StatusOK, snap)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBodyBytes)

	form, err := s.openForm(w, r)
	if err != nil {
		s.errHandler.HandleHTTPError(w, r, err)
		return
	}
	draft, err := s.decodeDraft(r)
	if err != nil {
		s.errHandler.HandleHTTPError(w, r, apperrors.NewMalformedRequestError(err))
		return
	}

	fieldErrs, err := form.Update(draft)
	if err != nil {
		s.errHandler.HandleHTTPError(w, r, err)
		return
	}
	if err := s.saveForm(r.Context(), form.Snapshot()); err != nil {
		s.errHandler.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, validateResponse{Valid: fieldErrs.Valid(), Fields: fieldErrs})
}

// handleSubmit holds the session's submit lock for the whole submission so a second
// request for the same session, on any instance, is rejected instead of posting twice.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBodyBytes)

	form, err := s.openForm(w, r)
	if err != nil {
		s.errHandler.HandleHTTPError(w, r, err)
		return
	}
	draft, err := s.decodeDraft(r)
	if err != nil {
		s.errHandler.HandleHTTPError(w, r, apperrors.NewMalformedRequestError(err))
		return
	}

	sessionID := form.Snapshot().ID
	unlock, err := s.store.AcquireSubmitLock(r.Context(), sessionID)
	if errors.Is(err, session.ErrLocked) {
		s.respond(w, r, form, apperrors.NewSubmissionInFlightError(sessionID))
		return
	}
	if err != nil {
		s.errHandler.HandleHTTPError(w, r, apperrors.NewSessionStoreError("lock", err))
		return
	}
	defer func() {
		if err := unlock(context.WithoutCancel(r.Context())); err != nil {
			logger.FromContext(r.Context(), s.logger).WithError(err).Warn("release submit lock failed", map[string]interface{}{"sessionId": sessionID})
		}
	}()

	_, submitErr := form.Submit(r.Context(), draft)
	s.ensureReference(r.Context(), form)

	if err := s.saveForm(context.WithoutCancel(r.Context()), form.Snapshot()); err != nil {
		s.errHandler.HandleHTTPError(w, r, err)
		return
	}
	s.respond(w, r, form, submitErr)
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	form, err := s.openForm(w, r)
	if err != nil {
		s.errHandler.HandleHTTPError(w, r, err)
		return
	}
	form.Dismiss()

	snap := form.Snapshot()
	if err := s.saveForm(r.Context(), snap); err != nil {
		s.errHandler.HandleHTTPError(w, r, err)
		return
	}
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, newStateResponse(snap))
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// respond renders the form after a submission attempt. Errors are logged and mapped to a
// status; the body is always the current form so the user can keep editing. A browser
// that submitted successfully is redirected to the page, so reloading it does not post again.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, form *applicationcontroller.Controller, submitErr error) {
	status := http.StatusOK
	snap := form.Snapshot()
	if submitErr != nil {
		stdErr := apperrors.AsStandard(submitErr)
		s.errHandler.Log(r, stdErr)
		status = apperrors.HTTPStatus(stdErr.Code)
		snap.Message = stdErr.Message
	} else if snap.State == models.StateSuccess {
		status = http.StatusCreated
		if !wantsJSON(r) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
	}

	if wantsJSON(r) {
		writeJSON(w, status, newStateResponse(snap))
		return
	}
	s.renderPage(w, status, snap)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			logger.FromContext(r.Context(), s.logger).Warn("health check failed", map[string]interface{}{"error": err})
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
