package dummydb

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/assessment"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/user"
)

// errDuplicateKey stands in for the primary-key constraint of the real schema.
var errDuplicateKey = errors.New("duplicate key")

type (
	// DB is an in-memory store for tests and local hacking. Repositories
	// share it so the foreign-key behaviors of the real schema (cascades,
	// instructor reset on user deletion) can be emulated across tables.
	DB struct {
		sync.RWMutex
		users       map[string]*user.User
		courses     map[string]*course.Course
		assessments map[string]*assessment.Assessment
		results     map[string]*assessment.Result
		enrollments map[enrollmentKey]time.Time
	}

	enrollmentKey struct {
		courseID string
		userID   string
	}
)

func Open() (*DB, error) {
	db := &DB{
		users:       make(map[string]*user.User),
		courses:     make(map[string]*course.Course),
		assessments: make(map[string]*assessment.Assessment),
		results:     make(map[string]*assessment.Result),
		enrollments: make(map[enrollmentKey]time.Time),
	}
	return db, nil
}

// deleteCourse removes a course, its assessments and their results,
// and its enrollments. Callers must hold the write lock.
func (db *DB) deleteCourse(id string) {
	for assID, ass := range db.assessments {
		if ass.CourseID == id {
			db.deleteAssessment(assID)
		}
	}
	for key := range db.enrollments {
		if key.courseID == id {
			delete(db.enrollments, key)
		}
	}
	delete(db.courses, id)
}

// deleteAssessment removes an assessment and its results.
// Callers must hold the write lock.
func (db *DB) deleteAssessment(id string) {
	for resID, res := range db.results {
		if res.AssessmentID == id {
			delete(db.results, resID)
		}
	}
	delete(db.assessments, id)
}

// deleteUser removes a user, their results and their enrollments, and
// detaches them from any course they instruct. Callers must hold the
// write lock.
func (db *DB) deleteUser(id string) {
	for resID, res := range db.results {
		if res.UserID == id {
			delete(db.results, resID)
		}
	}
	for key := range db.enrollments {
		if key.userID == id {
			delete(db.enrollments, key)
		}
	}
	for _, crs := range db.courses {
		if crs.InstructorID.Valid && crs.InstructorID.String == id {
			crs.InstructorID.Valid = false
			crs.InstructorID.String = ""
			crs.Instructor = nil
		}
	}
	delete(db.users, id)
}
