package web

import (
	"context"
	"errors"
	"net/http"

	apperrors "applicant-portal/internal/common/errors"
	"applicant-portal/internal/common/session"
	applicationcontroller "applicant-portal/internal/form/application-controller"
	"applicant-portal/internal/models"

	"github.com/google/uuid"
)

// openForm restores the form bound to the request's session cookie, or starts a new one
// and sets the cookie when the session is missing or expired.
func (s *Server) openForm(w http.ResponseWriter, r *http.Request) (*applicationcontroller.Controller, error) {
	if cookie, err := r.Cookie(s.cfg.Session.CookieName); err == nil && cookie.Value != "" {
		snap, err := s.store.Get(r.Context(), cookie.Value)
		switch {
		case err == nil:
			return s.forms.Restore(snap), nil
		case !errors.Is(err, session.ErrNotFound):
			return nil, apperrors.NewSessionStoreError("get", err)
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Session.CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   s.cfg.Session.TTL / 1000,
		HttpOnly: true,
		Secure:   s.cfg.Session.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return s.forms.NewController(id), nil
}

func (s *Server) saveForm(ctx context.Context, snap *models.FormSession) error {
	if err := s.store.Put(ctx, snap); err != nil {
		return apperrors.NewSessionStoreError("put", err)
	}
	return nil
}

// ensureReference mounts the reference lists when the session has never loaded them.
func (s *Server) ensureReference(ctx context.Context, form *applicationcontroller.Controller) {
	ref := form.Snapshot().Reference
	if ref.Jobs.Loaded || ref.JobLevels.Loaded {
		return
	}
	form.SetReference(s.loader.Load(ctx))
}
