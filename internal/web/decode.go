package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	draftschema "applicant-portal/internal/form/draft-schema"
	"applicant-portal/internal/models"

	"github.com/go-playground/form"
)

const multipartMemory = 8 << 20

var decoder = form.NewDecoder()

// decodeDraft reads a draft from a url-encoded or multipart body. In file mode the resume
// upload is read (at most one byte past the size limit) and its type is sniffed from the content.
func (s *Server) decodeDraft(r *http.Request) (models.Draft, error) {
	var d models.Draft

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return d, fmt.Errorf("parse multipart form: %w", err)
		}
	} else if err := r.ParseForm(); err != nil {
		return d, fmt.Errorf("parse form: %w", err)
	}

	if err := decoder.Decode(&d, r.PostForm); err != nil {
		return d, fmt.Errorf("decode draft: %w", err)
	}

	if s.schema.Mode() != models.ResumeModeFile {
		return d, nil
	}
	d.Resume = ""

	if r.MultipartForm == nil {
		return d, nil
	}
	file, header, err := r.FormFile(draftschema.FieldResume)
	if errors.Is(err, http.ErrMissingFile) {
		return d, nil
	}
	if err != nil {
		return d, fmt.Errorf("read resume: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, s.cfg.Form.MaxResumeBytes+1))
	if err != nil {
		return d, fmt.Errorf("read resume: %w", err)
	}
	size := header.Size
	if int64(len(content)) > size {
		size = int64(len(content))
	}
	d.ResumeFile = &models.ResumeFile{
		Filename:    header.Filename,
		ContentType: s.schema.DetectResumeType(content),
		Size:        size,
		Content:     content,
	}
	return d, nil
}
