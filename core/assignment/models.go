package assignment

import (
	"time"

	"github.com/trezcool/darasa/core"
)

// Assignment is classwork posted by a teacher; students mark it completed and
// earn its aura points once.
type Assignment struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date"`
	AuraPoint   int       `json:"aura_point"`
	Semester    string    `json:"semester,omitempty"`
	Branch      string    `json:"branch,omitempty"`
	Author      string    `json:"author"`
	Complete    bool      `json:"complete"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// NewAssignment contains information needed to post a new Assignment.
type NewAssignment struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description" validate:"required"`
	DueDate     time.Time `json:"due_date" validate:"required"`
	AuraPoint   int       `json:"aura_point" validate:"min=0"`
	Semester    string    `json:"semester"`
	Branch      string    `json:"branch" validate:"omitempty,branch"`
}

func (na *NewAssignment) Validate() error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	na.Semester = core.CleanString(na.Semester)
	return core.Validate.Struct(na)
}

// UpdateAssignment defines what the author may change on an existing Assignment.
type UpdateAssignment struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date"`
	AuraPoint   *int      `json:"aura_point" validate:"omitempty,min=0"`
}

func (ua *UpdateAssignment) Validate(orig Assignment) error {
	title := core.CleanString(ua.Title)
	if title != "" {
		ua.Title = title
	} else {
		ua.Title = orig.Title
	}

	desc := core.CleanString(ua.Description)
	if desc != "" {
		ua.Description = desc
	} else {
		ua.Description = orig.Description
	}

	if ua.DueDate.IsZero() {
		ua.DueDate = orig.DueDate
	}
	if ua.AuraPoint == nil {
		ua.AuraPoint = &orig.AuraPoint
	}
	return core.Validate.Struct(ua)
}
