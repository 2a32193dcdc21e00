package sqlxrepos

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/user"
)

// pq error codes
const uniqueViolation = "23505"

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) *courseRepository {
	return &courseRepository{db: db}
}

// courseRow flattens a course and its LEFT JOINed instructor.
type courseRow struct {
	ID              string      `db:"id"`
	Title           string      `db:"title"`
	Description     string      `db:"description"`
	MediaURL        null.String `db:"media_url"`
	InstructorID    null.String `db:"instructor_id"`
	CreatedAt       time.Time   `db:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at"`
	InstructorName  null.String `db:"instructor_name"`
	InstructorEmail null.String `db:"instructor_email"`
	InstructorRole  null.String `db:"instructor_role"`
}

func (r courseRow) toCourse() course.Course {
	crs := course.Course{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		MediaURL:     r.MediaURL,
		InstructorID: r.InstructorID,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
	if r.InstructorID.Valid {
		crs.Instructor = &user.User{
			ID:    r.InstructorID.String,
			Name:  r.InstructorName.String,
			Email: r.InstructorEmail.String,
			Role:  r.InstructorRole.String,
		}
	}
	return crs
}

const selectCourseQuery = `
	SELECT c.id, c.title, c.description, c.media_url, c.instructor_id, c.created_at, c.updated_at,
	       i.name  AS instructor_name,
	       i.email AS instructor_email,
	       i.role  AS instructor_role
	FROM course c
	LEFT JOIN "user" i ON i.id = c.instructor_id`

// orderable course columns; anything else falls back to the insertion order
var courseOrderColumns = map[string]bool{
	"title":      true,
	"created_at": true,
	"updated_at": true,
}

func orderCoursesBy(ordering []core.DBOrdering) string {
	clauses := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		if courseOrderColumns[ord.Field] {
			clauses = append(clauses, "c."+ord.String())
		}
	}
	if len(clauses) == 0 {
		return " ORDER BY c.created_at"
	}
	return " ORDER BY " + strings.Join(clauses, ", ")
}

func (repo *courseRepository) CreateCourse(crs course.Course) (course.Course, error) {
	q := `
	INSERT INTO course (id, title, description, media_url, instructor_id, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := repo.db.Exec(q, crs.ID, crs.Title, crs.Description, crs.MediaURL, crs.InstructorID, crs.CreatedAt, crs.UpdatedAt)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "creating course")
	}
	return crs, nil
}

func (repo *courseRepository) QueryAllCourses(ordering ...core.DBOrdering) ([]course.Course, error) {
	var rows []courseRow
	if err := repo.db.Select(&rows, selectCourseQuery+orderCoursesBy(ordering)); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}

	courses := make([]course.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, row.toCourse())
	}
	return courses, nil
}

func (repo *courseRepository) QueryCoursesByStudent(userID string) ([]course.Course, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return []course.Course{}, nil
	}

	var rows []courseRow
	q := selectCourseQuery + `
	JOIN enrollment e ON e.course_id = c.id
	WHERE e.user_id = $1
	ORDER BY e.created_at`
	if err := repo.db.Select(&rows, q, userID); err != nil {
		return nil, errors.Wrap(err, "querying student courses")
	}

	courses := make([]course.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, row.toCourse())
	}
	return courses, nil
}

func (repo *courseRepository) QueryCoursesByInstructor(userID string) ([]course.Course, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return []course.Course{}, nil
	}

	var rows []courseRow
	q := selectCourseQuery + `
	WHERE c.instructor_id = $1
	ORDER BY c.created_at`
	if err := repo.db.Select(&rows, q, userID); err != nil {
		return nil, errors.Wrap(err, "querying instructor courses")
	}

	courses := make([]course.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, row.toCourse())
	}
	return courses, nil
}

func (repo *courseRepository) GetCourse(id string) (course.Course, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.Course{}, course.ErrNotFound
	}

	var row courseRow
	if err := repo.db.Get(&row, selectCourseQuery+` WHERE c.id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "getting course")
	}
	return row.toCourse(), nil
}

func (repo *courseRepository) UpdateCourse(crs course.Course) (course.Course, error) {
	q := `
	UPDATE course
	SET title = $2, description = $3, media_url = $4, instructor_id = $5, updated_at = $6
	WHERE id = $1`
	res, err := repo.db.Exec(q, crs.ID, crs.Title, crs.Description, crs.MediaURL, crs.InstructorID, crs.UpdatedAt)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return crs, nil
}

// DeleteCourse deletes the course; its assessments, their results and its
// enrollments go along via FK cascades.
func (repo *courseRepository) DeleteCourse(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}
	if _, err := repo.db.Exec(`DELETE FROM course WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return nil
}

func (repo *courseRepository) Enroll(courseID, userID string) error {
	q := `INSERT INTO enrollment (course_id, user_id) VALUES ($1, $2)`
	if _, err := repo.db.Exec(q, courseID, userID); err != nil {
		// a concurrent duplicate lands on the composite PK
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == uniqueViolation {
			return course.ErrAlreadyEnrolled
		}
		return errors.Wrap(err, "enrolling user")
	}
	return nil
}

func (repo *courseRepository) IsEnrolled(courseID, userID string) (bool, error) {
	var enrolled bool
	q := `SELECT EXISTS (SELECT 1 FROM enrollment WHERE course_id = $1 AND user_id = $2)`
	if err := repo.db.Get(&enrolled, q, courseID, userID); err != nil {
		return false, errors.Wrap(err, "checking enrollment")
	}
	return enrolled, nil
}
