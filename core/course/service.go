package course

import (
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

var (
	// errors
	ErrNotFound        = errors.New("course not found")
	ErrIDMismatch      = errors.New("course id mismatch")
	ErrAlreadyEnrolled = errors.New("already enrolled in this course")
)

type (
	Repository interface {
		CreateCourse(crs Course) (Course, error)
		// QueryAllCourses returns all courses with their instructor attached;
		// an empty store yields an empty slice, not an error.
		QueryAllCourses(ordering ...core.DBOrdering) ([]Course, error)
		QueryCoursesByStudent(userID string) ([]Course, error)
		QueryCoursesByInstructor(userID string) ([]Course, error)
		GetCourse(id string) (Course, error)
		UpdateCourse(crs Course) (Course, error)
		// DeleteCourse removes the course and its Assessments (and their Results).
		DeleteCourse(id string) error
		// Enroll adds the (course, student) relation. The relation key is unique
		// in storage; a concurrent duplicate surfaces as ErrAlreadyEnrolled.
		Enroll(courseID, userID string) error
		IsEnrolled(courseID, userID string) (bool, error)
	}

	Service interface {
		Create(nc NewCourse) (Course, error)
		QueryAll(ordering ...core.DBOrdering) ([]Course, error)
		QueryByStudent(userID string) ([]Course, error)
		QueryByInstructor(userID string) ([]Course, error)
		GetByID(id string) (Course, error)
		Update(id string, uc UpdateCourse) (Course, error)
		Delete(id string) error
		Enroll(usr user.User, courseID string) error
	}

	service struct {
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) *service {
	return &service{
		repo:    repo,
		mailSvc: mailSvc,
		conf:    conf,
	}
}

func (svc *service) Create(nc NewCourse) (Course, error) {
	now := time.Now().UTC()
	crs := Course{
		ID:           nc.ID,
		Title:        nc.Title,
		Description:  nc.Description,
		InstructorID: null.NewString(nc.InstructorID, nc.InstructorID != ""),
		MediaURL:     null.NewString(nc.MediaURL, nc.MediaURL != ""),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	// the caller owns ID generation; a colliding ID fails on the storage
	// constraint rather than on a pre-check here
	return svc.repo.CreateCourse(crs)
}

func (svc *service) QueryAll(ordering ...core.DBOrdering) ([]Course, error) {
	return svc.repo.QueryAllCourses(ordering...)
}

func (svc *service) QueryByStudent(userID string) ([]Course, error) {
	return svc.repo.QueryCoursesByStudent(userID)
}

func (svc *service) QueryByInstructor(userID string) ([]Course, error) {
	return svc.repo.QueryCoursesByInstructor(userID)
}

func (svc *service) GetByID(id string) (Course, error) {
	return svc.repo.GetCourse(id)
}

func (svc *service) Update(id string, uc UpdateCourse) (Course, error) {
	if uc.ID != id {
		return Course{}, core.NewValidationError(ErrIDMismatch, core.FieldError{Field: "id", Error: ErrIDMismatch.Error()})
	}

	crs, err := svc.repo.GetCourse(id)
	if err != nil {
		return Course{}, err
	}

	crs.Title = uc.Title
	crs.Description = uc.Description
	crs.InstructorID = null.NewString(uc.InstructorID, uc.InstructorID != "")
	crs.MediaURL = null.NewString(uc.MediaURL, uc.MediaURL != "")
	crs.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(crs)
}

func (svc *service) Delete(id string) error {
	if _, err := svc.repo.GetCourse(id); err != nil {
		return err
	}
	return svc.repo.DeleteCourse(id)
}

func (svc *service) Enroll(usr user.User, courseID string) error {
	crs, err := svc.repo.GetCourse(courseID)
	if err != nil {
		return err
	}

	enrolled, err := svc.repo.IsEnrolled(crs.ID, usr.ID)
	if err != nil {
		return err
	}
	if enrolled {
		return ErrAlreadyEnrolled
	}

	if err := svc.repo.Enroll(crs.ID, usr.ID); err != nil {
		return err
	}
	svc.sendEnrollmentMail(usr, crs)
	return nil
}

func (svc *service) sendEnrollmentMail(usr user.User, crs Course) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject: "Enrollment confirmed",
		BodyStr: fmt.Sprintf(
			"Hi %s,\n\nYou are now enrolled in %q. Happy learning!",
			usr.Name, crs.Title,
		),
	})
}
