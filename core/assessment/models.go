package assessment

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

type Assessment struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CourseID  string    `json:"course_id"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// Result records one user's attempt at one assessment.
type Result struct {
	ID           string    `json:"id"`
	AssessmentID string    `json:"assessment_id"`
	UserID       string    `json:"user_id"`
	AttemptDate  time.Time `json:"attempt_date"` // UTC
}

// NewAssessment contains information needed to create a new Assessment.
// The ID is generated by the caller before the create request.
type NewAssessment struct {
	ID    string `json:"id" validate:"required,uuid4"`
	Title string `json:"title" validate:"required,max=50"`
}

func (na *NewAssessment) Validate(validate *validator.Validate) error {
	na.ID = core.CleanString(na.ID, true /* lower */)
	na.Title = core.CleanString(na.Title)
	return validate.Struct(na)
}

// NewResult contains information needed to record an attempt.
type NewResult struct {
	ID          string    `json:"id" validate:"required,uuid4"`
	AttemptDate time.Time `json:"attempt_date"`
}

func (nr *NewResult) Validate(validate *validator.Validate) error {
	nr.ID = core.CleanString(nr.ID, true /* lower */)
	return validate.Struct(nr)
}
