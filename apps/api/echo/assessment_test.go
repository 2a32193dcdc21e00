package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/assessment"
	"github.com/trezcool/darasa/core/user"
)

func Test_assessmentApi_createAndQuery(t *testing.T) {
	env := setup(t)
	crs := env.createCourse(t, "Geology", null.String{})

	// unknown course -> 404
	body := marchallObj(t, assessment.NewAssessment{ID: uuid.New().String(), Title: "Quiz"})
	req, rec := newRequest(http.MethodPost, "/v1/courses/"+uuid.New().String()+"/assessments", body)
	env.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// ok -> 201 + Location
	id := uuid.New().String()
	body = marchallObj(t, assessment.NewAssessment{ID: id, Title: "Rocks Quiz"})
	req, rec = newRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/assessments", body)
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/v1/assessments/"+id, rec.Header().Get("Location"))

	var ass assessment.Assessment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ass))
	assert.Equal(t, crs.ID, ass.CourseID)

	// listed under the parent course
	req, rec = newRequest(http.MethodGet, "/v1/courses/"+crs.ID+"/assessments")
	env.server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusOK,
		wantData: marchallObj(t, []assessment.Assessment{ass}),
	}, rec)
}

func Test_assessmentApi_recordResult(t *testing.T) {
	env := setup(t)
	crs := env.createCourse(t, "Geology", null.String{})
	ass := env.createAssessment(t, crs.ID, "Rocks Quiz")
	usr := env.createUser(t, "Jane", "jane@darasa.dev", user.RoleStudent)

	// unknown user -> 404
	body := marchallObj(t, map[string]string{"id": uuid.New().String(), "user_id": uuid.New().String()})
	req, rec := newRequest(http.MethodPost, "/v1/assessments/"+ass.ID+"/results", body)
	env.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// ok; a zero attempt date defaults to now
	body = marchallObj(t, map[string]string{"id": uuid.New().String(), "user_id": usr.ID})
	req, rec = newRequest(http.MethodPost, "/v1/assessments/"+ass.ID+"/results", body)
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var res assessment.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, usr.ID, res.UserID)
	assert.False(t, res.AttemptDate.IsZero())

	// listed for the assessment
	req, rec = newRequest(http.MethodGet, "/v1/assessments/"+ass.ID+"/results")
	env.server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusOK,
		wantData: marchallObj(t, []assessment.Result{res}),
	}, rec)
}

func Test_assessmentApi_destroy(t *testing.T) {
	env := setup(t)
	crs := env.createCourse(t, "Geology", null.String{})
	ass := env.createAssessment(t, crs.ID, "Rocks Quiz")

	req, rec := newRequest(http.MethodDelete, "/v1/assessments/"+uuid.New().String())
	env.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req, rec = newRequest(http.MethodDelete, "/v1/assessments/"+ass.ID)
	env.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	asses, err := env.assSvc.QueryByCourse(crs.ID)
	require.NoError(t, err)
	assert.Empty(t, asses)
}
