package models

import "time"

// FormState is the lifecycle state of an open application form.
type FormState string

const (
	StateEditing    FormState = "editing"
	StateSubmitting FormState = "submitting"
	StateSuccess    FormState = "success"
	StateFailed     FormState = "failed"
)

// ReferenceList is the view state of one reference list.
type ReferenceList struct {
	Options []Option `json:"options"`
	Error   string   `json:"error,omitempty"`
	Loaded  bool     `json:"loaded"`
}

// ReferenceData holds the two lists loaded on page mount.
type ReferenceData struct {
	Jobs      ReferenceList `json:"jobs"`
	JobLevels ReferenceList `json:"job_levels"`
}

// FormSession is the server side state of one open form.
type FormSession struct {
	ID           string            `json:"id"`
	State        FormState         `json:"state"`
	Draft        Draft             `json:"draft"`
	FieldErrors  map[string]string `json:"field_errors,omitempty"`
	Message      string            `json:"message,omitempty"`
	Result       *Candidate        `json:"result,omitempty"`
	Reference    ReferenceData     `json:"reference"`
	CreatedAt    time.Time         `json:"created_at"`
	LastActivity time.Time         `json:"last_activity"`
}

// NewFormSession returns an empty session in the editing state.
func NewFormSession(id string) *FormSession {
	now := time.Now()
	return &FormSession{
		ID:           id,
		State:        StateEditing,
		CreatedAt:    now,
		LastActivity: now,
	}
}

// UpdateActivity updates the last activity timestamp
func (s *FormSession) UpdateActivity() {
	s.LastActivity = time.Now()
}
