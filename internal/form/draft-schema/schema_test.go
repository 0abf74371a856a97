package draftschema

import (
	"strings"
	"testing"

	"applicant-portal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allowedTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

func urlSchema(t *testing.T, nameMax int) *Schema {
	t.Helper()
	s, err := New(&Config{ResumeMode: models.ResumeModeURL, NameMaxLength: nameMax, MaxResumeBytes: 1024, AllowedResumeTypes: allowedTypes})
	require.NoError(t, err)
	return s
}

func fileSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := New(&Config{ResumeMode: models.ResumeModeFile, NameMaxLength: 10, MaxResumeBytes: 1024, AllowedResumeTypes: allowedTypes})
	require.NoError(t, err)
	return s
}

func validURLDraft() models.Draft {
	return models.Draft{
		Name:         "Jane Doe",
		ContactEmail: "jane@example.com",
		ContactPhone: "+1234567890",
		RoleID:       "r1",
		JobLevelID:   "l1",
		Resume:       "https://example.com/resume.pdf",
	}
}

func TestValidate_ValidURLDraft(t *testing.T) {
	errs, err := urlSchema(t, 10).Validate(validURLDraft())
	require.NoError(t, err)
	assert.True(t, errs.Valid())
}

func TestValidate_EmptyDraftReportsEveryField(t *testing.T) {
	errs, err := urlSchema(t, 10).Validate(models.Draft{})
	require.NoError(t, err)

	assert.Equal(t, FieldErrors{
		FieldName:         MsgNameRequired,
		FieldContactEmail: MsgInvalidEmail,
		FieldContactPhone: MsgPhoneRequired,
		FieldRoleID:       MsgSelectJob,
		FieldJobLevelID:   MsgSelectPosition,
		FieldResume:       MsgInvalidURL,
	}, errs)
}

func TestValidate_FieldRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *models.Draft)
		field  string
		want   string
	}{
		{"name too long", func(d *models.Draft) { d.Name = "Jane Q Public" }, FieldName, MsgNameTooLong},
		{"name at limit", func(d *models.Draft) { d.Name = "0123456789" }, FieldName, ""},
		{"name counts runes", func(d *models.Draft) { d.Name = "Zoë Müller" }, FieldName, ""},
		{"email without domain dot", func(d *models.Draft) { d.ContactEmail = "jane@example" }, FieldContactEmail, MsgInvalidEmail},
		{"email with display name", func(d *models.Draft) { d.ContactEmail = "Jane <jane@example.com>" }, FieldContactEmail, MsgInvalidEmail},
		{"phone has no format rule", func(d *models.Draft) { d.ContactPhone = "call me" }, FieldContactPhone, ""},
		{"job missing", func(d *models.Draft) { d.RoleID = "" }, FieldRoleID, MsgSelectJob},
		{"level missing", func(d *models.Draft) { d.JobLevelID = "" }, FieldJobLevelID, MsgSelectPosition},
		{"relative url", func(d *models.Draft) { d.Resume = "/resume.pdf" }, FieldResume, MsgInvalidURL},
		{"not a url", func(d *models.Draft) { d.Resume = "resume" }, FieldResume, MsgInvalidURL},
		{"ftp url", func(d *models.Draft) { d.Resume = "ftp://example.com/cv.pdf" }, FieldResume, MsgInvalidURL},
	}
	s := urlSchema(t, 10)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validURLDraft()
			tt.mutate(&d)
			msg, err := s.ValidateField(d, tt.field)
			require.NoError(t, err)
			assert.Equal(t, tt.want, msg)
		})
	}
}

func TestValidate_NameCapDisabled(t *testing.T) {
	d := validURLDraft()
	d.Name = strings.Repeat("a", 200)

	errs, err := urlSchema(t, 0).Validate(d)
	require.NoError(t, err)
	assert.True(t, errs.Valid())
}

func TestValidate_FileMode(t *testing.T) {
	s := fileSchema(t)
	base := validURLDraft()
	base.Resume = ""

	tests := []struct {
		name string
		file *models.ResumeFile
		want string
	}{
		{"missing", nil, MsgResumeRequired},
		{"empty", &models.ResumeFile{Filename: "cv.pdf", Size: 0, ContentType: "application/pdf"}, MsgResumeRequired},
		{"too large", &models.ResumeFile{Filename: "cv.pdf", Size: 2048, ContentType: "application/pdf"}, MsgResumeTooLarge},
		{"wrong type", &models.ResumeFile{Filename: "cv.png", Size: 10, ContentType: "image/png"}, MsgResumeUnsupported},
		{"ok", &models.ResumeFile{Filename: "cv.pdf", Size: 10, ContentType: "application/pdf"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := base
			d.ResumeFile = tt.file
			msg, err := s.ValidateField(d, FieldResume)
			require.NoError(t, err)
			assert.Equal(t, tt.want, msg)
		})
	}
}

func TestNew_UnknownMode(t *testing.T) {
	_, err := New(&Config{ResumeMode: "fax"})
	assert.Error(t, err)
}

func TestDetectResumeType(t *testing.T) {
	s := fileSchema(t)

	assert.Equal(t, "application/pdf", s.DetectResumeType([]byte("%PDF-1.7\n%âãÏÓ\n1 0 obj\n")))
	assert.Equal(t, "text/plain", s.DetectResumeType([]byte("just some words")))
}
