package client_test

import (
	"context"
	"net/http/httptest"
	"net/mail"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/client"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assessment"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/user"
	emailsvc "github.com/trezcool/darasa/services/email"
	dummydb "github.com/trezcool/darasa/storage/database/dummy"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func startTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	conf := &core.Config{
		TestMode:         true,
		Env:              "TEST",
		AppName:          "Darasa",
		SecretKey:        []byte("secret"),
		DefaultFromEmail: mail.Address{Name: "Darasa", Address: "noreply@localhost"},
		Server: core.ServerConfig{
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
	}

	db, err := dummydb.Open()
	require.NoError(t, err)
	mailSvc := emailsvc.NewConsoleServiceMock(conf)

	usrSvc := user.NewService(dummydb.NewUserRepository(db), mailSvc, conf)
	courseSvc := course.NewService(dummydb.NewCourseRepository(db), mailSvc, conf)
	assSvc := assessment.NewService(dummydb.NewAssessmentRepository(db))

	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:           conf,
		Logger:         nopLogger{},
		UserSvc:        usrSvc,
		CourseSvc:      courseSvc,
		AssessmentSvc:  assSvc,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})

	ts := httptest.NewServer(server)
	t.Cleanup(ts.Close)
	return ts
}

func newTestClient(t *testing.T, baseURL string) *client.Client {
	t.Helper()
	session, err := client.NewSession(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)
	return client.New(baseURL, session)
}

func TestClient_Ping(t *testing.T) {
	ts := startTestServer(t)
	c := newTestClient(t, ts.URL)

	require.NoError(t, c.Ping(context.Background()))

	// unreachable server: retries with backoff, then gives up
	dead := newTestClient(t, "http://127.0.0.1:1")
	ctx, cancel := context.WithTimeout(context.Background(), 400*time.Millisecond)
	defer cancel()
	err := dead.Ping(ctx)
	require.Error(t, err)
}

func TestClient_sessionLifecycle(t *testing.T) {
	ts := startTestServer(t)

	sessionPath := filepath.Join(t.TempDir(), "session.json")
	session, err := client.NewSession(sessionPath)
	require.NoError(t, err)
	c := client.New(ts.URL, session)

	assert.False(t, session.IsAuthenticated())

	_, err = c.Register(context.Background(), client.RegisterInput{
		Name:     "John Doe",
		Email:    "john@darasa.dev",
		Password: "V3ry$ecret!",
	})
	require.NoError(t, err)

	// bad credentials decode into an APIError, not a transport error
	_, err = c.Login(context.Background(), "john@darasa.dev", "wrong")
	require.Error(t, err)
	apiErr, ok := errors.Cause(err).(*client.APIError)
	require.True(t, ok)
	assert.Equal(t, 400, apiErr.StatusCode)

	id, err := c.Login(context.Background(), "john@darasa.dev", "V3ry$ecret!")
	require.NoError(t, err)
	assert.NotEmpty(t, id.Token)
	assert.True(t, session.IsAuthenticated())
	assert.True(t, session.IsStudent())
	assert.False(t, session.IsInstructor())

	// the identity survives a restart
	restored, err := client.NewSession(sessionPath)
	require.NoError(t, err)
	assert.True(t, restored.IsAuthenticated())
	got, _ := restored.Current()
	assert.Equal(t, id.UserID, got.UserID)

	require.NoError(t, c.Logout())
	assert.False(t, session.IsAuthenticated())
}

func TestClient_courses(t *testing.T) {
	ts := startTestServer(t)
	c := newTestClient(t, ts.URL)
	ctx := context.Background()

	courses, err := c.ListCourses(ctx)
	require.NoError(t, err)
	assert.Empty(t, courses)

	crs, err := c.CreateCourse(ctx, client.CourseInput{Title: "Go 101", Description: "Concurrency first"})
	require.NoError(t, err)
	assert.NotEmpty(t, crs.ID) // generated client-side

	got, err := c.GetCourse(ctx, crs.ID)
	require.NoError(t, err)
	assert.Equal(t, "Go 101", got.Title)

	require.NoError(t, c.UpdateCourse(ctx, crs.ID, client.CourseInput{Title: "Go 102"}))

	courses, err = c.ListCourses(ctx)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "Go 102", courses[0].Title)

	require.NoError(t, c.DeleteCourse(ctx, crs.ID))
	_, err = c.GetCourse(ctx, crs.ID)
	assert.True(t, client.IsNotFound(err))
}

func TestClient_teaching(t *testing.T) {
	ts := startTestServer(t)
	c := newTestClient(t, ts.URL)
	ctx := context.Background()

	instructor, err := c.Register(ctx, client.RegisterInput{
		Name:     "Ada",
		Email:    "ada@darasa.dev",
		Password: "V3ry$ecret!",
		Role:     user.RoleInstructor,
	})
	require.NoError(t, err)
	_, err = c.Login(ctx, "ada@darasa.dev", "V3ry$ecret!")
	require.NoError(t, err)
	assert.True(t, c.Session().IsInstructor())

	crs, err := c.CreateCourse(ctx, client.CourseInput{Title: "Computing", InstructorID: instructor.ID})
	require.NoError(t, err)
	_, err = c.CreateCourse(ctx, client.CourseInput{Title: "Unassigned"})
	require.NoError(t, err)

	teaching, err := c.MyTeaching(ctx)
	require.NoError(t, err)
	require.Len(t, teaching, 1)
	assert.Equal(t, crs.ID, teaching[0].ID)
}

func TestClient_enroll(t *testing.T) {
	ts := startTestServer(t)
	c := newTestClient(t, ts.URL)
	ctx := context.Background()

	crs, err := c.CreateCourse(ctx, client.CourseInput{Title: "Databases"})
	require.NoError(t, err)

	// no session -> 401 from the server
	err = c.Enroll(ctx, crs.ID)
	require.Error(t, err)
	apiErr, ok := errors.Cause(err).(*client.APIError)
	require.True(t, ok)
	assert.Equal(t, 401, apiErr.StatusCode)

	_, err = c.Register(ctx, client.RegisterInput{Name: "Jane", Email: "jane@darasa.dev", Password: "V3ry$ecret!"})
	require.NoError(t, err)
	_, err = c.Login(ctx, "jane@darasa.dev", "V3ry$ecret!")
	require.NoError(t, err)

	require.NoError(t, c.Enroll(ctx, crs.ID))

	mine, err := c.MyCourses(ctx)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, crs.ID, mine[0].ID)

	// enrolling twice is rejected
	err = c.Enroll(ctx, crs.ID)
	require.Error(t, err)
	apiErr, ok = errors.Cause(err).(*client.APIError)
	require.True(t, ok)
	assert.Equal(t, 400, apiErr.StatusCode)
}
