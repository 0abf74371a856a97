package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"strings"

	"applicant-portal/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/form.html"))

type pageView struct {
	State       models.FormState
	Draft       models.Draft
	Errors      map[string]string
	Message     string
	Result      *models.Candidate
	Jobs        models.ReferenceList
	JobLevels   models.ReferenceList
	FileMode    bool
	Accept      string
	ShowSuccess bool
	Submitting  bool
}

// stateResponse is the JSON rendering of a form for API clients.
type stateResponse struct {
	State   models.FormState  `json:"state"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	Result  *models.Candidate `json:"result,omitempty"`
}

type validateResponse struct {
	Valid  bool              `json:"valid"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (s *Server) newPageView(snap *models.FormSession) pageView {
	return pageView{
		State:       snap.State,
		Draft:       snap.Draft,
		Errors:      snap.FieldErrors,
		Message:     snap.Message,
		Result:      snap.Result,
		Jobs:        snap.Reference.Jobs,
		JobLevels:   snap.Reference.JobLevels,
		FileMode:    s.schema.Mode() == models.ResumeModeFile,
		Accept:      strings.Join(s.cfg.Form.AllowedResumeTypes, ","),
		ShowSuccess: snap.State == models.StateSuccess,
		Submitting:  snap.State == models.StateSubmitting,
	}
}

func (s *Server) renderPage(w http.ResponseWriter, status int, snap *models.FormSession) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, s.newPageView(snap)); err != nil {
		s.logger.Error("render page failed", map[string]interface{}{"error": err})
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newStateResponse(snap *models.FormSession) stateResponse {
	return stateResponse{
		State:   snap.State,
		Message: snap.Message,
		Fields:  snap.FieldErrors,
		Result:  snap.Result,
	}
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
