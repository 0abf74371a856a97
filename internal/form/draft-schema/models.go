// internal/form/draft-schema/models.go
package draftschema

// Field keys shared by the schema document, the HTML form and the field error map.
const (
	FieldName         = "name"
	FieldContactEmail = "contact_email"
	FieldContactPhone = "contact_phone"
	FieldRoleID       = "role_id"
	FieldJobLevelID   = "job_level_id"
	FieldResume       = "resume"
)

// Fields lists the field keys in form order.
var Fields = []string{FieldName, FieldContactEmail, FieldContactPhone, FieldRoleID, FieldJobLevelID, FieldResume}

const (
	MsgNameRequired       = "Name is required"
	MsgNameTooLong        = "Name is too long"
	MsgInvalidEmail       = "Invalid email address"
	MsgPhoneRequired      = "Phone number is required"
	MsgSelectJob          = "Please select a job"
	MsgSelectPosition     = "Please select a position"
	MsgInvalidURL         = "Invalid URL"
	MsgResumeRequired     = "Resume file is required"
	MsgResumeTooLarge     = "Resume file is too large"
	MsgResumeUnsupported  = "Unsupported resume file type"
	urlPattern            = `^https?://[^\s/$.?#][^\s]*$`
	emailPattern          = `^[^\s@]+@[^\s@]+\.[^\s@]+$`
	defaultResumeMimeType = "application/octet-stream"
)

// FieldErrors maps a field key to the one message shown next to it.
type FieldErrors map[string]string

// Valid reports whether no field failed.
func (fe FieldErrors) Valid() bool {
	return len(fe) == 0
}
