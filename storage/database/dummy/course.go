package dummydb

import (
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db}
}

// withInstructor attaches a copy of the instructor when one is assigned.
// Callers must hold at least the read lock.
func (repo *courseRepository) withInstructor(crs course.Course) course.Course {
	crs.Instructor = nil
	if crs.InstructorID.Valid {
		if usr, ok := repo.db.users[crs.InstructorID.String]; ok {
			u := *usr
			crs.Instructor = &u
		}
	}
	return crs
}

func (repo *courseRepository) query() []course.Course {
	courses := make([]course.Course, 0, len(repo.db.courses))
	for _, crs := range repo.db.courses {
		courses = append(courses, repo.withInstructor(*crs))
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].CreatedAt.Before(courses[j].CreatedAt) })
	return courses
}

func (repo *courseRepository) CreateCourse(crs course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.courses[crs.ID]; ok {
		return course.Course{}, errors.Errorf("course %q: %v", crs.ID, errDuplicateKey)
	}
	repo.db.courses[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) QueryAllCourses(ordering ...core.DBOrdering) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	courses := repo.query()
	applyOrdering(courses, ordering)
	return courses, nil
}

func (repo *courseRepository) QueryCoursesByStudent(userID string) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	type enrolled struct {
		crs course.Course
		at  time.Time
	}
	var matches []enrolled
	for key, at := range repo.db.enrollments {
		if key.userID != userID {
			continue
		}
		if crs, ok := repo.db.courses[key.courseID]; ok {
			matches = append(matches, enrolled{crs: repo.withInstructor(*crs), at: at})
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].at.Before(matches[j].at) })

	courses := make([]course.Course, 0, len(matches))
	for _, m := range matches {
		courses = append(courses, m.crs)
	}
	return courses, nil
}

func (repo *courseRepository) QueryCoursesByInstructor(userID string) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	courses := make([]course.Course, 0)
	for _, crs := range repo.db.courses {
		if crs.InstructorID.Valid && crs.InstructorID.String == userID {
			courses = append(courses, repo.withInstructor(*crs))
		}
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].CreatedAt.Before(courses[j].CreatedAt) })
	return courses, nil
}

func (repo *courseRepository) GetCourse(id string) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if crs, ok := repo.db.courses[id]; ok {
		return repo.withInstructor(*crs), nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) UpdateCourse(crs course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.courses[crs.ID]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	orig.Title = crs.Title
	orig.Description = crs.Description
	orig.MediaURL = crs.MediaURL
	orig.InstructorID = crs.InstructorID
	orig.UpdatedAt = crs.UpdatedAt
	return repo.withInstructor(*orig), nil
}

func (repo *courseRepository) DeleteCourse(id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.deleteCourse(id)
	return nil
}

func (repo *courseRepository) Enroll(courseID, userID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := enrollmentKey{courseID: courseID, userID: userID}
	if _, ok := repo.db.enrollments[key]; ok {
		return course.ErrAlreadyEnrolled
	}
	repo.db.enrollments[key] = time.Now().UTC()
	return nil
}

func (repo *courseRepository) IsEnrolled(courseID, userID string) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	_, ok := repo.db.enrollments[enrollmentKey{courseID: courseID, userID: userID}]
	return ok, nil
}

func applyOrdering(courses []course.Course, ordering []core.DBOrdering) {
	for i := len(ordering) - 1; i >= 0; i-- {
		ord := ordering[i]
		sort.SliceStable(courses, func(a, b int) bool {
			var less bool
			switch ord.Field {
			case "title":
				less = courses[a].Title < courses[b].Title
			case "created_at":
				less = courses[a].CreatedAt.Before(courses[b].CreatedAt)
			case "updated_at":
				less = courses[a].UpdatedAt.Before(courses[b].UpdatedAt)
			default:
				return false
			}
			if !ord.Ascending {
				return !less && !equalField(courses[a], courses[b], ord.Field)
			}
			return less
		})
	}
}

func equalField(a, b course.Course, field string) bool {
	switch field {
	case "title":
		return a.Title == b.Title
	case "created_at":
		return a.CreatedAt.Equal(b.CreatedAt)
	case "updated_at":
		return a.UpdatedAt.Equal(b.UpdatedAt)
	}
	return false
}
