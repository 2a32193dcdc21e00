package echoapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/user"
)

// display fallbacks applied once, here, when shaping responses
const (
	defaultCourseTitle       = "Untitled Course"
	defaultCourseDescription = "No description available"
	noInstructorName         = "No Instructor Assigned"
	noInstructorEmail        = "N/A"
)

type (
	// InstructorResponse flattens the instructor sub-object.
	InstructorResponse struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}

	// CourseResponse is the course read contract. Missing display fields are
	// substituted with sentinels; an unassigned instructor keeps an empty ID.
	CourseResponse struct {
		ID          string             `json:"id"`
		Title       string             `json:"title"`
		Description string             `json:"description"`
		MediaURL    string             `json:"media_url,omitempty"`
		Instructor  InstructorResponse `json:"instructor"`
		CreatedAt   time.Time          `json:"created_at"`
		UpdatedAt   time.Time          `json:"updated_at"`
	}
)

func NewCourseResponse(crs course.Course) CourseResponse {
	res := CourseResponse{
		ID:          crs.ID,
		Title:       crs.Title,
		Description: crs.Description,
		MediaURL:    crs.MediaURL.String,
		CreatedAt:   crs.CreatedAt,
		UpdatedAt:   crs.UpdatedAt,
	}
	if res.Title == "" {
		res.Title = defaultCourseTitle
	}
	if res.Description == "" {
		res.Description = defaultCourseDescription
	}
	if crs.Instructor != nil {
		res.Instructor = InstructorResponse{
			ID:    crs.Instructor.ID,
			Name:  crs.Instructor.Name,
			Email: crs.Instructor.Email,
		}
	} else {
		res.Instructor = InstructorResponse{
			Name:  noInstructorName,
			Email: noInstructorEmail,
		}
	}
	return res
}

func NewCourseResponseList(courses []course.Course) []CourseResponse {
	res := make([]CourseResponse, 0, len(courses))
	for _, crs := range courses {
		res = append(res, NewCourseResponse(crs))
	}
	return res
}

type courseApi struct {
	svc      course.Service
	usrSvc   user.Service
	validate *validator.Validate
}

func registerCourseAPI(g *echo.Group, optionalJWT echo.MiddlewareFunc, deps ServerDeps) {
	api := courseApi{
		svc:      deps.CourseSvc,
		usrSvc:   deps.UserSvc,
		validate: deps.Validate,
	}

	cg := g.Group("/courses")
	cg.GET("", api.query)
	cg.POST("", api.create)
	cg.GET("/:id", api.retrieve)
	cg.PUT("/:id", api.update)
	cg.DELETE("/:id", api.destroy)
	cg.POST("/:id/enroll", api.enroll, optionalJWT)
}

// Handlers

func (api *courseApi) query(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx)

	courses, err := api.svc.QueryAll(ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	return ctx.JSON(http.StatusOK, NewCourseResponseList(courses))
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	crs, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, NewCourseResponse(crs))
}

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	crs, err := api.svc.Create(data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}

	ctx.Response().Header().Set(echo.HeaderLocation, fmt.Sprintf("/v1/courses/%s", crs.ID))
	return ctx.JSON(http.StatusCreated, NewCourseResponse(crs))
}

func (api *courseApi) update(ctx echo.Context) error {
	var data course.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if _, err := api.svc.Update(ctx.Param("id"), data); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// enroll adds the authenticated user to the course. Checks run in this
// order: course existence, session identity, user existence, duplicate.
func (api *courseApi) enroll(ctx echo.Context) error {
	crs, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx, api.usrSvc, claims)
	if err != nil {
		return err
	}

	if err := api.svc.Enroll(usr, crs.ID); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: fmt.Sprintf("enrolled in %q", crs.Title)})
}
