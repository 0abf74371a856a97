// internal/models/application.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID is an opaque backend identifier. Numeric JSON ids are kept as their decimal text.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Option is one selectable entry of a reference list (a job or a job level).
type Option struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// ResumeMode selects how the resume is supplied.
type ResumeMode string

const (
	ResumeModeURL  ResumeMode = "url"
	ResumeModeFile ResumeMode = "file"
)

// Draft is the in-progress form input.
type Draft struct {
	Name         string      `form:"name" json:"name"`
	ContactEmail string      `form:"contact_email" json:"contact_email"`
	ContactPhone string      `form:"contact_phone" json:"contact_phone"`
	RoleID       string      `form:"role_id" json:"role_id"`
	JobLevelID   string      `form:"job_level_id" json:"job_level_id"`
	Resume       string      `form:"resume" json:"resume,omitempty"`
	ResumeFile   *ResumeFile `form:"-" json:"resume_file,omitempty"`
}

// IsZero reports whether no field has been filled in.
func (d Draft) IsZero() bool {
	return d == Draft{}
}

// ResumeFile is an uploaded resume. Content is held only for the request that carried it.
type ResumeFile struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Content     []byte `json:"-"`
}

// CandidatePayload is the JSON body of POST /candidates in url mode.
type CandidatePayload struct {
	Name         string `json:"name"`
	ContactPhone string `json:"contact_phone"`
	ContactEmail string `json:"contact_email"`
	RoleID       string `json:"role_id"`
	JobLevelID   string `json:"job_level_id"`
	Resume       string `json:"resume,omitempty"`
}

// NewCandidatePayload copies the validated draft fields into a request payload.
func NewCandidatePayload(d Draft) CandidatePayload {
	return CandidatePayload{
		Name:         d.Name,
		ContactPhone: d.ContactPhone,
		ContactEmail: d.ContactEmail,
		RoleID:       d.RoleID,
		JobLevelID:   d.JobLevelID,
		Resume:       d.Resume,
	}
}

// Candidate is the record returned by the backend after creation.
type Candidate struct {
	ID           ID     `json:"id"`
	Name         string `json:"name"`
	ContactEmail string `json:"contact_email,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`
	RoleID       ID     `json:"role_id,omitempty"`
	JobLevelID   ID     `json:"job_level_id,omitempty"`
	Resume       string `json:"resume,omitempty"`
}
