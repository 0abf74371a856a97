// internal/form/draft-schema/config.go
package draftschema

import (
	"applicant-portal/internal/common/config"
	"applicant-portal/internal/models"
)

type Config struct {
	ResumeMode         models.ResumeMode
	NameMaxLength      int // 0 disables the cap
	MaxResumeBytes     int64
	AllowedResumeTypes []string
}

func LoadConfig(form config.FormConfig) *Config {
	return &Config{
		ResumeMode:         models.ResumeMode(form.ResumeMode),
		NameMaxLength:      form.NameMaxLength,
		MaxResumeBytes:     form.MaxResumeBytes,
		AllowedResumeTypes: form.AllowedResumeTypes,
	}
}
