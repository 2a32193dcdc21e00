package echoapi

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assessment"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/user"
)

type assessmentApi struct {
	svc       assessment.Service
	courseSvc course.Service
	usrSvc    user.Service
	validate  *validator.Validate
}

func registerAssessmentAPI(g *echo.Group, deps ServerDeps) {
	api := assessmentApi{
		svc:       deps.AssessmentSvc,
		courseSvc: deps.CourseSvc,
		usrSvc:    deps.UserSvc,
		validate:  deps.Validate,
	}

	// nested under the parent course
	g.GET("/courses/:id/assessments", api.queryByCourse)
	g.POST("/courses/:id/assessments", api.create)

	ag := g.Group("/assessments")
	ag.GET("/:id", api.retrieve)
	ag.DELETE("/:id", api.destroy)
	ag.GET("/:id/results", api.queryResults)
	ag.POST("/:id/results", api.recordResult)
}

// Handlers

func (api *assessmentApi) queryByCourse(ctx echo.Context) error {
	crs, err := api.courseSvc.GetByID(ctx.Param("id"))
	if err != nil {
		return err
	}

	asses, err := api.svc.QueryByCourse(crs.ID)
	if err != nil {
		return errors.Wrap(err, "querying assessments")
	}
	return ctx.JSON(http.StatusOK, asses)
}

func (api *assessmentApi) create(ctx echo.Context) error {
	crs, err := api.courseSvc.GetByID(ctx.Param("id"))
	if err != nil {
		return err
	}

	var data assessment.NewAssessment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssessment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ass, err := api.svc.Create(crs.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating assessment")
	}

	ctx.Response().Header().Set(echo.HeaderLocation, fmt.Sprintf("/v1/assessments/%s", ass.ID))
	return ctx.JSON(http.StatusCreated, ass)
}

func (api *assessmentApi) retrieve(ctx echo.Context) error {
	ass, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ass)
}

func (api *assessmentApi) destroy(ctx echo.Context) error {
	ass, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ass.ID); err != nil {
		return errors.Wrap(err, "deleting assessment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *assessmentApi) queryResults(ctx echo.Context) error {
	ass, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return err
	}

	results, err := api.svc.QueryResultsByAssessment(ass.ID)
	if err != nil {
		return errors.Wrap(err, "querying results")
	}
	return ctx.JSON(http.StatusOK, results)
}

// recordResult records a user's attempt at the assessment.
func (api *assessmentApi) recordResult(ctx echo.Context) error {
	ass, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return err
	}

	var data RecordResultRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RecordResultRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.usrSvc.GetByID(data.UserID)
	if err != nil {
		return err
	}

	res, err := api.svc.RecordResult(ass.ID, usr.ID, data.NewResult)
	if err != nil {
		return errors.Wrap(err, "recording result")
	}
	return ctx.JSON(http.StatusCreated, res)
}

type RecordResultRequest struct {
	assessment.NewResult
	UserID string `json:"user_id" validate:"required,uuid4"`
}

func (rr *RecordResultRequest) Validate(validate *validator.Validate) error {
	rr.ID = core.CleanString(rr.ID, true /* lower */)
	rr.UserID = core.CleanString(rr.UserID, true /* lower */)
	return validate.Struct(rr)
}
