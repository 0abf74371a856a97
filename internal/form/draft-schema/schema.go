// internal/form/draft-schema/schema.go
package draftschema

import (
	"fmt"
	"mime"

	"applicant-portal/internal/common/validation"
	"applicant-portal/internal/models"

	"github.com/gabriel-vasile/mimetype"
)

// Schema validates application drafts. One instance is built per resume mode.
type Schema struct {
	config   *Config
	compiled *validation.Schema
}

func New(cfg *Config) (*Schema, error) {
	switch cfg.ResumeMode {
	case models.ResumeModeURL, models.ResumeModeFile:
	default:
		return nil, fmt.Errorf("unknown resume mode %q", cfg.ResumeMode)
	}

	compiled, err := validation.Compile(definition(cfg))
	if err != nil {
		return nil, err
	}
	return &Schema{config: cfg, compiled: compiled}, nil
}

// Mode returns the resume mode the schema was built for.
func (s *Schema) Mode() models.ResumeMode {
	return s.config.ResumeMode
}

func definition(cfg *Config) map[string]interface{} {
	name := map[string]interface{}{"type": "string", "minLength": 1}
	if cfg.NameMaxLength > 0 {
		name["maxLength"] = cfg.NameMaxLength
	}

	var resume map[string]interface{}
	if cfg.ResumeMode == models.ResumeModeFile {
		resume = map[string]interface{}{
			"type":     "object",
			"required": []interface{}{"filename", "size", "content_type"},
			"properties": map[string]interface{}{
				"filename":     map[string]interface{}{"type": "string"},
				"size":         map[string]interface{}{"type": "integer", "minimum": 1, "maximum": cfg.MaxResumeBytes},
				"content_type": map[string]interface{}{"type": "string", "enum": toInterfaces(cfg.AllowedResumeTypes)},
			},
		}
	} else {
		resume = map[string]interface{}{"type": "string", "format": "uri", "pattern": urlPattern}
	}

	return map[string]interface{}{
		"$schema":  "http://json-schema.org/draft-07/schema#",
		"type":     "object",
		"required": toInterfaces(Fields),
		"properties": map[string]interface{}{
			FieldName:         name,
			FieldContactEmail: map[string]interface{}{"type": "string", "format": "email", "pattern": emailPattern},
			FieldContactPhone: map[string]interface{}{"type": "string", "minLength": 1},
			FieldRoleID:       map[string]interface{}{"type": "string", "minLength": 1},
			FieldJobLevelID:   map[string]interface{}{"type": "string", "minLength": 1},
			FieldResume:       resume,
		},
	}
}

// Validate checks every field of d and returns at most one message per failing field.
func (s *Schema) Validate(d models.Draft) (FieldErrors, error) {
	result, err := s.compiled.Validate(s.document(d))
	if err != nil {
		return nil, err
	}

	fieldErrs := FieldErrors{}
	for _, field := range Fields {
		codes := make(map[string]bool)
		for _, e := range result.GetErrorsForField(field) {
			codes[e.Code] = true
		}
		if len(codes) > 0 {
			fieldErrs[field] = s.message(field, codes)
		}
	}
	return fieldErrs, nil
}

// ValidateField returns the message for one field, or "" when it passes.
func (s *Schema) ValidateField(d models.Draft, field string) (string, error) {
	fieldErrs, err := s.Validate(d)
	if err != nil {
		return "", err
	}
	return fieldErrs[field], nil
}

func (s *Schema) document(d models.Draft) map[string]interface{} {
	doc := map[string]interface{}{
		FieldName:         d.Name,
		FieldContactEmail: d.ContactEmail,
		FieldContactPhone: d.ContactPhone,
		FieldRoleID:       d.RoleID,
		FieldJobLevelID:   d.JobLevelID,
	}
	if s.config.ResumeMode == models.ResumeModeFile {
		if d.ResumeFile == nil {
			doc[FieldResume] = nil
		} else {
			doc[FieldResume] = map[string]interface{}{
				"filename":     d.ResumeFile.Filename,
				"size":         d.ResumeFile.Size,
				"content_type": d.ResumeFile.ContentType,
			}
		}
	} else {
		doc[FieldResume] = d.Resume
	}
	return doc
}

func (s *Schema) message(field string, codes map[string]bool) string {
	switch field {
	case FieldName:
		if codes["string_lte"] && !codes["string_gte"] && !codes["invalid_type"] {
			return MsgNameTooLong
		}
		return MsgNameRequired
	case FieldContactEmail:
		return MsgInvalidEmail
	case FieldContactPhone:
		return MsgPhoneRequired
	case FieldRoleID:
		return MsgSelectJob
	case FieldJobLevelID:
		return MsgSelectPosition
	case FieldResume:
		if s.config.ResumeMode != models.ResumeModeFile {
			return MsgInvalidURL
		}
		switch {
		case codes["invalid_type"], codes["required"], codes["number_gte"]:
			return MsgResumeRequired
		case codes["number_lte"]:
			return MsgResumeTooLarge
		default:
			return MsgResumeUnsupported
		}
	}
	return "Invalid value"
}

// DetectResumeType sniffs content and returns the matching allowed type, so aliases and
// parameters do not defeat the allow list. Unknown content yields its detected base type.
func (s *Schema) DetectResumeType(content []byte) string {
	detected := mimetype.Detect(content)
	for _, allowed := range s.config.AllowedResumeTypes {
		if detected.Is(allowed) {
			return allowed
		}
	}
	base, _, err := mime.ParseMediaType(detected.String())
	if err != nil {
		return defaultResumeMimeType
	}
	return base
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
