package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	echoapi "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core/assessment"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/user"
)

// ErrServerUnreachable signals a transport failure, as opposed to an
// APIError decoded from a server response.
var ErrServerUnreachable = errors.New("server unreachable")

// APIError is an error body decoded from a non-2xx server response.
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string]string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%d: %v", e.StatusCode, e.Fields)
}

func IsNotFound(err error) bool {
	apiErr, ok := errors.Cause(err).(*APIError)
	return ok && apiErr.StatusCode == http.StatusNotFound
}

// Client is a typed HTTP client for the Darasa API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
}

func New(baseURL string, session *Session) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		session:    session,
	}
}

func (c *Client) Session() *Session { return c.session }

// Ping probes the API root with a bounded exponential backoff. Only this
// connectivity check retries; data calls never do.
func (c *Client) Ping(ctx context.Context) error {
	var err error
	delay := 250 * time.Millisecond
	maxAttempts := 5
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = c.do(ctx, http.MethodGet, "/", nil, nil); err == nil {
			return nil
		}
		if errors.Cause(err) != ErrServerUnreachable || attempt == maxAttempts {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
	}
	return err
}

// Login authenticates against the server and persists the identity.
func (c *Client) Login(ctx context.Context, email, password string) (Identity, error) {
	body := map[string]string{"email": email, "password": password}
	var res echoapi.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/v1/users/login", body, &res); err != nil {
		return Identity{}, err
	}

	id := Identity{Token: res.Token}
	if res.User != nil {
		id.UserID = res.User.ID
		id.Name = res.User.Name
		id.Email = res.User.Email
		id.Role = res.User.Role
	}
	if err := c.session.Save(id); err != nil {
		return Identity{}, err
	}
	return id, nil
}

func (c *Client) Logout() error {
	return c.session.Clear()
}

// RegisterInput is the sign-up form; the id is generated here, client-side.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

func (c *Client) Register(ctx context.Context, in RegisterInput) (user.User, error) {
	body := user.NewUser{
		ID:              uuid.New().String(),
		Name:            in.Name,
		Email:           in.Email,
		Password:        in.Password,
		PasswordConfirm: in.Password,
		Role:            in.Role,
	}
	var usr user.User
	if err := c.do(ctx, http.MethodPost, "/v1/users", body, &usr); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

// CourseInput is the course form; ids are generated client-side on create.
type CourseInput struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	InstructorID string `json:"instructor_id,omitempty"`
	MediaURL     string `json:"media_url,omitempty"`
}

func (c *Client) ListCourses(ctx context.Context) ([]echoapi.CourseResponse, error) {
	var courses []echoapi.CourseResponse
	if err := c.do(ctx, http.MethodGet, "/v1/courses", nil, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

func (c *Client) GetCourse(ctx context.Context, id string) (echoapi.CourseResponse, error) {
	var crs echoapi.CourseResponse
	if err := c.do(ctx, http.MethodGet, "/v1/courses/"+id, nil, &crs); err != nil {
		return echoapi.CourseResponse{}, err
	}
	return crs, nil
}

func (c *Client) CreateCourse(ctx context.Context, in CourseInput) (echoapi.CourseResponse, error) {
	body := course.NewCourse{
		ID:           uuid.New().String(),
		Title:        in.Title,
		Description:  in.Description,
		InstructorID: in.InstructorID,
		MediaURL:     in.MediaURL,
	}
	var crs echoapi.CourseResponse
	if err := c.do(ctx, http.MethodPost, "/v1/courses", body, &crs); err != nil {
		return echoapi.CourseResponse{}, err
	}
	return crs, nil
}

func (c *Client) UpdateCourse(ctx context.Context, id string, in CourseInput) error {
	body := course.UpdateCourse{
		ID:           id,
		Title:        in.Title,
		Description:  in.Description,
		InstructorID: in.InstructorID,
		MediaURL:     in.MediaURL,
	}
	return c.do(ctx, http.MethodPut, "/v1/courses/"+id, body, nil)
}

func (c *Client) DeleteCourse(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/v1/courses/"+id, nil, nil)
}

// Enroll enrolls the logged-in user in the course.
func (c *Client) Enroll(ctx context.Context, courseID string) error {
	return c.do(ctx, http.MethodPost, "/v1/courses/"+courseID+"/enroll", nil, nil)
}

// MyCourses lists the courses the logged-in user is enrolled in.
func (c *Client) MyCourses(ctx context.Context) ([]echoapi.CourseResponse, error) {
	id, ok := c.session.Current()
	if !ok {
		return nil, errors.New("not logged in")
	}
	var courses []echoapi.CourseResponse
	if err := c.do(ctx, http.MethodGet, "/v1/users/"+id.UserID+"/courses", nil, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// MyTeaching lists the courses the logged-in instructor teaches.
func (c *Client) MyTeaching(ctx context.Context) ([]echoapi.CourseResponse, error) {
	id, ok := c.session.Current()
	if !ok {
		return nil, errors.New("not logged in")
	}
	var courses []echoapi.CourseResponse
	if err := c.do(ctx, http.MethodGet, "/v1/users/"+id.UserID+"/teaching", nil, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

func (c *Client) ListAssessments(ctx context.Context, courseID string) ([]assessment.Assessment, error) {
	var asses []assessment.Assessment
	if err := c.do(ctx, http.MethodGet, "/v1/courses/"+courseID+"/assessments", nil, &asses); err != nil {
		return nil, err
	}
	return asses, nil
}

func (c *Client) MyResults(ctx context.Context) ([]assessment.Result, error) {
	id, ok := c.session.Current()
	if !ok {
		return nil, errors.New("not logged in")
	}
	var results []assessment.Result
	if err := c.do(ctx, http.MethodGet, "/v1/users/"+id.UserID+"/results", nil, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// do runs one request/response cycle. Transport failures wrap
// ErrServerUnreachable; error responses decode into *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return errors.Wrap(err, "encoding request body")
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(ErrServerUnreachable, "%s %s: %v", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "reading response body")
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrap(err, "decoding response body")
	}
	return nil
}

func decodeAPIError(code int, data []byte) error {
	apiErr := &APIError{StatusCode: code}

	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		apiErr.Message = body.Error
		return apiErr
	}

	var fields map[string]string
	if err := json.Unmarshal(data, &fields); err == nil {
		apiErr.Fields = fields
		return apiErr
	}

	apiErr.Message = string(data)
	return apiErr
}
