package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/assessment"
)

type assessmentRepository struct {
	db *sqlx.DB
}

var _ assessment.Repository = (*assessmentRepository)(nil) // interface compliance check

func NewAssessmentRepository(db *sqlx.DB) *assessmentRepository {
	return &assessmentRepository{db: db}
}

type assessmentRow struct {
	ID        string    `db:"id"`
	Title     string    `db:"title"`
	CourseID  string    `db:"course_id"`
	CreatedAt time.Time `db:"created_at"`
}

func (r assessmentRow) toAssessment() assessment.Assessment {
	return assessment.Assessment{
		ID:        r.ID,
		Title:     r.Title,
		CourseID:  r.CourseID,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

type resultRow struct {
	ID           string    `db:"id"`
	AssessmentID string    `db:"assessment_id"`
	UserID       string    `db:"user_id"`
	AttemptDate  time.Time `db:"attempt_date"`
}

func (r resultRow) toResult() assessment.Result {
	return assessment.Result{
		ID:           r.ID,
		AssessmentID: r.AssessmentID,
		UserID:       r.UserID,
		AttemptDate:  r.AttemptDate.UTC(),
	}
}

func (repo *assessmentRepository) CreateAssessment(ass assessment.Assessment) (assessment.Assessment, error) {
	q := `INSERT INTO assessment (id, title, course_id, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := repo.db.Exec(q, ass.ID, ass.Title, ass.CourseID, ass.CreatedAt); err != nil {
		return assessment.Assessment{}, errors.Wrap(err, "creating assessment")
	}
	return ass, nil
}

func (repo *assessmentRepository) QueryAssessmentsByCourse(courseID string) ([]assessment.Assessment, error) {
	if _, err := uuid.Parse(courseID); err != nil {
		return []assessment.Assessment{}, nil
	}

	var rows []assessmentRow
	q := `SELECT * FROM assessment WHERE course_id = $1 ORDER BY created_at`
	if err := repo.db.Select(&rows, q, courseID); err != nil {
		return nil, errors.Wrap(err, "querying assessments")
	}

	asses := make([]assessment.Assessment, 0, len(rows))
	for _, row := range rows {
		asses = append(asses, row.toAssessment())
	}
	return asses, nil
}

func (repo *assessmentRepository) GetAssessment(id string) (assessment.Assessment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return assessment.Assessment{}, assessment.ErrNotFound
	}

	var row assessmentRow
	if err := repo.db.Get(&row, `SELECT * FROM assessment WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return assessment.Assessment{}, assessment.ErrNotFound
		}
		return assessment.Assessment{}, errors.Wrap(err, "getting assessment")
	}
	return row.toAssessment(), nil
}

// DeleteAssessment deletes the assessment; its results go along via FK cascade.
func (repo *assessmentRepository) DeleteAssessment(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}
	if _, err := repo.db.Exec(`DELETE FROM assessment WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting assessment")
	}
	return nil
}

func (repo *assessmentRepository) CreateResult(res assessment.Result) (assessment.Result, error) {
	q := `INSERT INTO result (id, assessment_id, user_id, attempt_date) VALUES ($1, $2, $3, $4)`
	if _, err := repo.db.Exec(q, res.ID, res.AssessmentID, res.UserID, res.AttemptDate); err != nil {
		return assessment.Result{}, errors.Wrap(err, "creating result")
	}
	return res, nil
}

func (repo *assessmentRepository) QueryResultsByUser(userID string) ([]assessment.Result, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return []assessment.Result{}, nil
	}

	var rows []resultRow
	q := `SELECT * FROM result WHERE user_id = $1 ORDER BY attempt_date`
	if err := repo.db.Select(&rows, q, userID); err != nil {
		return nil, errors.Wrap(err, "querying user results")
	}

	results := make([]assessment.Result, 0, len(rows))
	for _, row := range rows {
		results = append(results, row.toResult())
	}
	return results, nil
}

func (repo *assessmentRepository) QueryResultsByAssessment(assessmentID string) ([]assessment.Result, error) {
	if _, err := uuid.Parse(assessmentID); err != nil {
		return []assessment.Result{}, nil
	}

	var rows []resultRow
	q := `SELECT * FROM result WHERE assessment_id = $1 ORDER BY attempt_date`
	if err := repo.db.Select(&rows, q, assessmentID); err != nil {
		return nil, errors.Wrap(err, "querying assessment results")
	}

	results := make([]assessment.Result, 0, len(rows))
	for _, row := range rows {
		results = append(results, row.toResult())
	}
	return results, nil
}
