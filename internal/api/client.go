// Package api implements the HTTP client for the assignment portal API.
//
// Every endpoint speaks JSON: success bodies carry {data, pagination?},
// failure bodies carry {message}. The server message is surfaced verbatim
// through *Error; when the body is unusable the caller's fallback message
// is used instead.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/avilkin/classdesk/internal/model"
)

// Error is a failure reported by the portal server.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return e.Message
}

// Client talks to the portal API, attaching the bearer token once set.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a portal API client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken sets the bearer token attached to subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ClearToken removes the bearer token.
func (c *Client) ClearToken() {
	c.SetToken("")
}

// envelope is the common response wrapper.
type envelope struct {
	Data       json.RawMessage   `json:"data"`
	Pagination *model.Pagination `json:"pagination"`
	Message    string            `json:"message"`
}

// do issues a request and decodes the response envelope. fallback becomes the
// error message when the server's failure body carries none.
func (c *Client) do(ctx context.Context, method, path string, body any, fallback string) (*envelope, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.RLock()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	c.mu.RUnlock()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode >= 400 {
		msg := env.Message
		if msg == "" {
			msg = fallback
		}
		return nil, &Error{StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil && decodeErr != io.EOF {
		return nil, fmt.Errorf("decode response: %w", decodeErr)
	}
	return &env, nil
}

// AuthResult is the payload of a successful login or registration.
type AuthResult struct {
	Token  string     `json:"token"`
	Role   model.Role `json:"role"`
	Name   string     `json:"name"`
	Email  string     `json:"email"`
	UserID string     `json:"userId"`
}

// Login authenticates with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	env, err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, "Login failed")
	if err != nil {
		return nil, err
	}
	var res AuthResult
	if err := json.Unmarshal(env.Data, &res); err != nil {
		return nil, fmt.Errorf("decode auth result: %w", err)
	}
	return &res, nil
}

// Register creates a new account and authenticates it.
func (c *Client) Register(ctx context.Context, name, email, password string, role model.Role) (*AuthResult, error) {
	env, err := c.do(ctx, http.MethodPost, "/auth/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
		"role":     string(role),
	}, "Registration failed")
	if err != nil {
		return nil, err
	}
	var res AuthResult
	if err := json.Unmarshal(env.Data, &res); err != nil {
		return nil, fmt.Errorf("decode auth result: %w", err)
	}
	return &res, nil
}

// ListAssignmentsParams filters and pages the assignment list.
// Zero values are omitted from the query so the server defaults apply.
type ListAssignmentsParams struct {
	Status model.AssignmentStatus
	Page   int
	Limit  int
}

// ListAssignments fetches the assignment page visible to the current role.
func (c *Client) ListAssignments(ctx context.Context, params ListAssignmentsParams) ([]model.Assignment, *model.Pagination, error) {
	q := url.Values{}
	if params.Status != "" {
		q.Set("status", string(params.Status))
	}
	if params.Page > 0 {
		q.Set("page", strconv.Itoa(params.Page))
	}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	path := "/assignments"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	env, err := c.do(ctx, http.MethodGet, path, nil, "Failed to fetch assignments")
	if err != nil {
		return nil, nil, err
	}
	var assignments []model.Assignment
	if err := json.Unmarshal(env.Data, &assignments); err != nil {
		return nil, nil, fmt.Errorf("decode assignments: %w", err)
	}
	return assignments, env.Pagination, nil
}

// GetAssignment fetches a single assignment.
func (c *Client) GetAssignment(ctx context.Context, id string) (*model.Assignment, error) {
	env, err := c.do(ctx, http.MethodGet, "/assignments/"+id, nil, "Failed to fetch assignment")
	if err != nil {
		return nil, err
	}
	var a model.Assignment
	if err := json.Unmarshal(env.Data, &a); err != nil {
		return nil, fmt.Errorf("decode assignment: %w", err)
	}
	return &a, nil
}

// CreateAssignment creates a draft assignment.
func (c *Client) CreateAssignment(ctx context.Context, title, description string, dueDate time.Time) (*model.Assignment, error) {
	env, err := c.do(ctx, http.MethodPost, "/assignments", map[string]any{
		"title":       title,
		"description": description,
		"dueDate":     dueDate.Format(time.RFC3339),
	}, "Failed to create assignment")
	if err != nil {
		return nil, err
	}
	var a model.Assignment
	if err := json.Unmarshal(env.Data, &a); err != nil {
		return nil, fmt.Errorf("decode assignment: %w", err)
	}
	return &a, nil
}

// AssignmentPatch carries the updatable assignment fields. Nil means unchanged.
type AssignmentPatch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

// UpdateAssignment updates a draft assignment and returns the new server copy.
func (c *Client) UpdateAssignment(ctx context.Context, id string, patch AssignmentPatch) (*model.Assignment, error) {
	env, err := c.do(ctx, http.MethodPut, "/assignments/"+id, patch, "Failed to update assignment")
	if err != nil {
		return nil, err
	}
	var a model.Assignment
	if err := json.Unmarshal(env.Data, &a); err != nil {
		return nil, fmt.Errorf("decode assignment: %w", err)
	}
	return &a, nil
}

// DeleteAssignment removes a draft assignment.
func (c *Client) DeleteAssignment(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/assignments/"+id, nil, "Failed to delete assignment")
	return err
}

// UpdateAssignmentStatus moves an assignment along its lifecycle.
func (c *Client) UpdateAssignmentStatus(ctx context.Context, id string, status model.AssignmentStatus) (*model.Assignment, error) {
	env, err := c.do(ctx, http.MethodPut, "/assignments/"+id+"/status", map[string]string{
		"status": string(status),
	}, "Failed to update assignment status")
	if err != nil {
		return nil, err
	}
	var a model.Assignment
	if err := json.Unmarshal(env.Data, &a); err != nil {
		return nil, fmt.Errorf("decode assignment: %w", err)
	}
	return &a, nil
}

// CreateSubmission submits an answer for an assignment.
func (c *Client) CreateSubmission(ctx context.Context, assignmentID, answer string) (*model.Submission, error) {
	env, err := c.do(ctx, http.MethodPost, "/submissions", map[string]string{
		"assignmentId": assignmentID,
		"answer":       answer,
	}, "Failed to submit assignment")
	if err != nil {
		return nil, err
	}
	var s model.Submission
	if err := json.Unmarshal(env.Data, &s); err != nil {
		return nil, fmt.Errorf("decode submission: %w", err)
	}
	return &s, nil
}

// MySubmissions fetches the current student's submissions.
func (c *Client) MySubmissions(ctx context.Context) ([]model.Submission, error) {
	env, err := c.do(ctx, http.MethodGet, "/submissions/my-submissions", nil, "Failed to fetch submissions")
	if err != nil {
		return nil, err
	}
	var subs []model.Submission
	if err := json.Unmarshal(env.Data, &subs); err != nil {
		return nil, fmt.Errorf("decode submissions: %w", err)
	}
	return subs, nil
}

// SubmissionsByAssignment fetches all submissions for one assignment.
func (c *Client) SubmissionsByAssignment(ctx context.Context, assignmentID string) ([]model.Submission, error) {
	env, err := c.do(ctx, http.MethodGet, "/submissions/"+assignmentID, nil, "Failed to fetch submissions")
	if err != nil {
		return nil, err
	}
	var subs []model.Submission
	if err := json.Unmarshal(env.Data, &subs); err != nil {
		return nil, fmt.Errorf("decode submissions: %w", err)
	}
	return subs, nil
}

// ReviewResult is the server's acknowledgment of a saved review.
type ReviewResult struct {
	SubmissionID string   `json:"submissionId"`
	Grade        *float64 `json:"grade"`
	Feedback     *string  `json:"feedback"`
}

// ReviewSubmission attaches a grade and/or feedback to a submission.
func (c *Client) ReviewSubmission(ctx context.Context, submissionID string, grade *float64, feedback *string) (*ReviewResult, error) {
	env, err := c.do(ctx, http.MethodPut, "/submissions/"+submissionID+"/review", map[string]any{
		"grade":    grade,
		"feedback": feedback,
	}, "Failed to review submission")
	if err != nil {
		return nil, err
	}
	var res ReviewResult
	if err := json.Unmarshal(env.Data, &res); err != nil {
		return nil, fmt.Errorf("decode review result: %w", err)
	}
	return &res, nil
}

// Analytics fetches the server-computed aggregate report.
func (c *Client) Analytics(ctx context.Context) (*model.Analytics, error) {
	env, err := c.do(ctx, http.MethodGet, "/analytics", nil, "Failed to fetch analytics")
	if err != nil {
		return nil, err
	}
	var a model.Analytics
	if err := json.Unmarshal(env.Data, &a); err != nil {
		return nil, fmt.Errorf("decode analytics: %w", err)
	}
	return &a, nil
}
