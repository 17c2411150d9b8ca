package project

import (
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/trezcool/darasa/core"
)

// File types
const (
	FileTypePDF   = "pdf"
	FileTypeDocx  = "docx"
	FileTypeZip   = "zip"
	FileTypeOther = "other"
)

type (
	// File is an uploaded document attached to a Project.
	File struct {
		URL      string `json:"url"`
		FileType string `json:"file_type"`
	}

	// Project is project work posted by a teacher; students submit their work
	// as file uploads.
	Project struct {
		ID           string    `json:"id"`
		Title        string    `json:"title"`
		Description  string    `json:"description"`
		Tags         []string  `json:"tags"`
		Files        []File    `json:"files"`         // student submissions
		TeacherFiles []File    `json:"teacher_files"` // handouts, briefs...
		Submitter    string    `json:"submitter"`     // the authoring teacher
		CreatedAt    time.Time `json:"created_at"`    // UTC
		UpdatedAt    time.Time `json:"updated_at"`    // UTC
	}

	// Upload is a file received from the transport layer, not yet persisted.
	Upload struct {
		Filename    string
		ContentType string
		Content     io.Reader
	}

	// NewProject contains information needed to post a new Project.
	NewProject struct {
		Title       string   `json:"title" validate:"required"`
		Description string   `json:"description"`
		Tags        []string `json:"tags"`
	}
)

func (np *NewProject) Validate() error {
	np.Title = core.CleanString(np.Title)
	np.Description = core.CleanString(np.Description)
	tags := np.Tags[:0]
	for _, tag := range np.Tags {
		if tag = core.CleanString(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	np.Tags = tags
	return core.Validate.Struct(np)
}

// FileTypeFor maps a filename to one of the supported file type labels.
func FileTypeFor(filename string) string {
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), ".")); ext {
	case "pdf":
		return FileTypePDF
	case "doc", "docx":
		return FileTypeDocx
	case "zip":
		return FileTypeZip
	default:
		return FileTypeOther
	}
}
