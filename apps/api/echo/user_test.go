package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/assessment"
	"github.com/trezcool/darasa/core/user"
	emailsvc "github.com/trezcool/darasa/services/email"
)

func Test_userApi_create(t *testing.T) {
	env := setup(t)
	existing := env.createUser(t, "Taken", "taken@darasa.dev", user.RoleStudent)
	emailsvc.ClearSentMessages()

	newUser := func(mutate func(*user.NewUser)) []byte {
		nu := user.NewUser{
			ID:              uuid.New().String(),
			Name:            "John Doe",
			Email:           "john@darasa.dev",
			Password:        "V3ry$ecret!",
			PasswordConfirm: "V3ry$ecret!",
		}
		if mutate != nil {
			mutate(&nu)
		}
		return marchallObj(t, &nu)
	}

	tests := []httpTest{
		{
			name:     "id is required",
			body:     newUser(func(nu *user.NewUser) { nu.ID = "" }),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "passwords must match",
			body:     newUser(func(nu *user.NewUser) { nu.PasswordConfirm = "other" }),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "password too similar to name",
			body:     newUser(func(nu *user.NewUser) { nu.Password = "John Doe1"; nu.PasswordConfirm = "John Doe1" }),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown role",
			body:     newUser(func(nu *user.NewUser) { nu.Role = "Admin" }),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "duplicate email",
			body:     newUser(func(nu *user.NewUser) { nu.Email = existing.Email }),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": user.ErrEmailExists.Error()}),
		},
		{
			name:     "ok, role defaults to Student",
			body:     newUser(nil),
			wantCode: http.StatusCreated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users", tt.body)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusCreated {
				var usr user.User
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &usr))
				assert.Equal(t, user.RoleStudent, usr.Role)

				// welcome email went out
				require.Len(t, emailsvc.SentMessages, 1)
				assert.Equal(t, "Welcome aboard!", emailsvc.SentMessages[0].Subject)
			}
		})
	}
}

func Test_userApi_login(t *testing.T) {
	env := setup(t)
	usr := env.createUser(t, "Jane", "jane@darasa.dev", user.RoleInstructor)

	tests := []httpTest{
		{
			name:     "unknown email",
			body:     marchallObj(t, LoginRequest{Email: "nope@darasa.dev", Password: "V3ry$ecret!"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "wrong password",
			body:     marchallObj(t, LoginRequest{Email: usr.Email, Password: "wrong"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "ok",
			body:     marchallObj(t, LoginRequest{Email: usr.Email, Password: "V3ry$ecret!"}),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			env.server.ServeHTTP(rec, req)

			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
				return
			}
			require.Equal(t, tt.wantCode, rec.Code)

			var res LoginResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
			assert.NotEmpty(t, res.Token)
			require.NotNil(t, res.User)
			assert.Equal(t, usr.ID, res.User.ID)
			assert.Equal(t, user.RoleInstructor, res.User.Role)
		})
	}
}

func Test_userApi_refreshToken(t *testing.T) {
	env := setup(t)
	usr := env.createUser(t, "Jane", "jane@darasa.dev", user.RoleStudent)

	// no token -> 401
	req, rec := newRequest(http.MethodPost, "/v1/users/token-refresh")
	env.server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)

	// valid token -> fresh token
	req, rec = newAuthRequest(http.MethodPost, "/v1/users/token-refresh", getToken(t, env.conf, usr))
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var res LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.NotEmpty(t, res.Token)
}

func Test_userApi_queryAndRetrieve(t *testing.T) {
	env := setup(t)

	req, rec := newRequest(http.MethodGet, "/v1/users")
	env.server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte("[]")}, rec)

	usr := env.createUser(t, "Jane", "jane@darasa.dev", user.RoleStudent)

	req, rec = newRequest(http.MethodGet, "/v1/users")
	env.server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, []user.User{usr})}, rec)

	req, rec = newRequest(http.MethodGet, "/v1/users/"+usr.ID)
	env.server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, usr)}, rec)

	req, rec = newRequest(http.MethodGet, "/v1/users/"+uuid.New().String())
	env.server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusNotFound,
		wantData: marchallObj(t, httpErr{Error: "user not found"}),
	}, rec)
}

func Test_userApi_queryTeaching(t *testing.T) {
	env := setup(t)
	instructor := env.createUser(t, "Ada", "ada@darasa.dev", user.RoleInstructor)
	student := env.createUser(t, "John", "john@darasa.dev", user.RoleStudent)

	taught := env.createCourse(t, "Computing", null.StringFrom(instructor.ID))
	env.createCourse(t, "Unassigned", null.String{})

	// unknown user -> 404
	req, rec := newRequest(http.MethodGet, "/v1/users/"+uuid.New().String()+"/teaching")
	env.server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusNotFound,
		wantData: marchallObj(t, httpErr{Error: "user not found"}),
	}, rec)

	// a student teaches nothing
	req, rec = newRequest(http.MethodGet, "/v1/users/"+student.ID+"/teaching")
	env.server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte("[]")}, rec)

	// the instructor sees only their own courses
	got, err := env.courseSvc.GetByID(taught.ID)
	require.NoError(t, err)
	req, rec = newRequest(http.MethodGet, "/v1/users/"+instructor.ID+"/teaching")
	env.server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusOK,
		wantData: marchallObj(t, []CourseResponse{NewCourseResponse(got)}),
	}, rec)
}

func Test_userApi_destroyCascadesResults(t *testing.T) {
	env := setup(t)
	usr := env.createUser(t, "Jane", "jane@darasa.dev", user.RoleStudent)
	crs := env.createCourse(t, "Maths", null.String{})
	ass := env.createAssessment(t, crs.ID, "Quiz 1")

	res, err := env.assSvc.RecordResult(ass.ID, usr.ID, assessment.NewResult{
		ID:          uuid.New().String(),
		AttemptDate: time.Now(),
	})
	require.NoError(t, err)

	// results listed for the user
	req, rec := newRequest(http.MethodGet, "/v1/users/"+usr.ID+"/results")
	env.server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, []assessment.Result{res})}, rec)

	// delete the user; their results go along
	req, rec = newRequest(http.MethodDelete, "/v1/users/"+usr.ID)
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	results, err := env.assSvc.QueryResultsByAssessment(ass.ID)
	require.NoError(t, err)
	assert.Empty(t, results)

	// but the assessment (and course) survive
	_, err = env.assSvc.GetByID(ass.ID)
	assert.NoError(t, err)
}
