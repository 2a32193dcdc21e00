package course

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

type Course struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	MediaURL     null.String `json:"media_url"`
	InstructorID null.String `json:"instructor_id"`
	Instructor   *user.User  `json:"-"` // attached on reads when assigned
	CreatedAt    time.Time   `json:"created_at"` // UTC
	UpdatedAt    time.Time   `json:"updated_at"` // UTC
}

// NewCourse contains information needed to create a new Course.
// The ID is generated by the caller before the create request.
type NewCourse struct {
	ID           string `json:"id" validate:"required,uuid4"`
	Title        string `json:"title" validate:"required,max=50"`
	Description  string `json:"description" validate:"max=200"`
	InstructorID string `json:"instructor_id" validate:"omitempty,uuid4"`
	MediaURL     string `json:"media_url" validate:"omitempty,max=50"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.ID = core.CleanString(nc.ID, true /* lower */)
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	nc.InstructorID = core.CleanString(nc.InstructorID, true /* lower */)
	nc.MediaURL = core.CleanString(nc.MediaURL)
	return validate.Struct(nc)
}

// UpdateCourse defines what information may be provided to modify an existing
// Course. The ID must be repeated and match the course being updated; title,
// description, instructor and media URL are overwritten in place.
type UpdateCourse struct {
	ID           string `json:"id" validate:"required,uuid4"`
	Title        string `json:"title" validate:"required,max=50"`
	Description  string `json:"description" validate:"max=200"`
	InstructorID string `json:"instructor_id" validate:"omitempty,uuid4"`
	MediaURL     string `json:"media_url" validate:"omitempty,max=50"`
}

func (uc *UpdateCourse) Validate(validate *validator.Validate) error {
	uc.ID = core.CleanString(uc.ID, true /* lower */)
	uc.Title = core.CleanString(uc.Title)
	uc.Description = core.CleanString(uc.Description)
	uc.InstructorID = core.CleanString(uc.InstructorID, true /* lower */)
	uc.MediaURL = core.CleanString(uc.MediaURL)
	return validate.Struct(uc)
}
