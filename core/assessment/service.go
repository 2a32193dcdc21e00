package assessment

import (
	"errors"
	"time"
)

var (
	// errors
	ErrNotFound = errors.New("assessment not found")
)

type (
	Repository interface {
		CreateAssessment(ass Assessment) (Assessment, error)
		QueryAssessmentsByCourse(courseID string) ([]Assessment, error)
		GetAssessment(id string) (Assessment, error)
		// DeleteAssessment removes the assessment and its Results.
		DeleteAssessment(id string) error

		CreateResult(res Result) (Result, error)
		QueryResultsByUser(userID string) ([]Result, error)
		QueryResultsByAssessment(assessmentID string) ([]Result, error)
	}

	Service interface {
		Create(courseID string, na NewAssessment) (Assessment, error)
		QueryByCourse(courseID string) ([]Assessment, error)
		GetByID(id string) (Assessment, error)
		Delete(id string) error

		RecordResult(assessmentID, userID string, nr NewResult) (Result, error)
		QueryResultsByUser(userID string) ([]Result, error)
		QueryResultsByAssessment(assessmentID string) ([]Result, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) *service {
	return &service{repo: repo}
}

func (svc *service) Create(courseID string, na NewAssessment) (Assessment, error) {
	ass := Assessment{
		ID:        na.ID,
		Title:     na.Title,
		CourseID:  courseID,
		CreatedAt: time.Now().UTC(),
	}
	return svc.repo.CreateAssessment(ass)
}

func (svc *service) QueryByCourse(courseID string) ([]Assessment, error) {
	return svc.repo.QueryAssessmentsByCourse(courseID)
}

func (svc *service) GetByID(id string) (Assessment, error) {
	return svc.repo.GetAssessment(id)
}

func (svc *service) Delete(id string) error {
	return svc.repo.DeleteAssessment(id)
}

func (svc *service) RecordResult(assessmentID, userID string, nr NewResult) (Result, error) {
	attempt := nr.AttemptDate
	if attempt.IsZero() {
		attempt = time.Now()
	}
	res := Result{
		ID:           nr.ID,
		AssessmentID: assessmentID,
		UserID:       userID,
		AttemptDate:  attempt.UTC(),
	}
	return svc.repo.CreateResult(res)
}

func (svc *service) QueryResultsByUser(userID string) ([]Result, error) {
	return svc.repo.QueryResultsByUser(userID)
}

func (svc *service) QueryResultsByAssessment(assessmentID string) ([]Result, error) {
	return svc.repo.QueryResultsByAssessment(assessmentID)
}
