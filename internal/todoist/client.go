// Package todoist is a small Todoist REST v2 client for tasks and projects.
package todoist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/vipul43/canvas-todoist-sync/internal/duedate"
	"github.com/vipul43/canvas-todoist-sync/internal/priority"
)

const DefaultBaseURL = "https://api.todoist.com/rest/v2"

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type Due struct {
	Date string `json:"date"`
}

type Task struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	ProjectID string `json:"project_id"`
	Priority  int    `json:"priority"`
	Due       *Due   `json:"due"`
}

type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// OptionalDate distinguishes "leave the due date alone" (zero value),
// "clear the due date" (NullDate) and "set the due date" (DateOf).
type OptionalDate struct {
	set  bool
	date *duedate.Date
}

func NullDate() OptionalDate {
	return OptionalDate{set: true}
}

func DateOf(d duedate.Date) OptionalDate {
	return OptionalDate{set: true, date: &d}
}

// DateOrNull maps a nil date to an explicit clear.
func DateOrNull(d *duedate.Date) OptionalDate {
	if d == nil {
		return NullDate()
	}
	return DateOf(*d)
}

// DateOrUnset maps a nil date to an omitted field.
func DateOrUnset(d *duedate.Date) OptionalDate {
	if d == nil {
		return OptionalDate{}
	}
	return DateOf(*d)
}

func (o OptionalDate) IsSet() bool {
	return o.set
}

func (o OptionalDate) IsNull() bool {
	return o.set && o.date == nil
}

func (o OptionalDate) apply(body map[string]interface{}) {
	if !o.set {
		return
	}
	if o.date == nil {
		body["due_date"] = nil
		return
	}
	body["due_date"] = o.date.String()
}

type CreateTaskRequest struct {
	ProjectID string
	Content   string
	Priority  priority.Level
	Due       OptionalDate
}

func (r CreateTaskRequest) body() map[string]interface{} {
	body := map[string]interface{}{
		"content":    r.Content,
		"project_id": r.ProjectID,
		"priority":   r.Priority.APIValue(),
	}
	r.Due.apply(body)
	return body
}

type UpdateTaskRequest struct {
	Priority priority.Level
	Due      OptionalDate
}

func (r UpdateTaskRequest) body() map[string]interface{} {
	body := map[string]interface{}{
		"priority": r.Priority.APIValue(),
	}
	r.Due.apply(body)
	return body
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("todoist API error (status %d): %s", e.StatusCode, e.Body)
}

// IsNotFound reports whether the task or project no longer exists.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// ListTasks returns every open task in a project
func (c *Client) ListTasks(ctx context.Context, token string, projectID string) ([]Task, error) {
	var tasks []Task
	path := "/tasks?" + url.Values{"project_id": {projectID}}.Encode()
	if err := c.do(ctx, token, http.MethodGet, path, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListProjects returns every project of the token owner
func (c *Client) ListProjects(ctx context.Context, token string) ([]Project, error) {
	var projects []Project
	if err := c.do(ctx, token, http.MethodGet, "/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// CreateTask creates a task and returns its id
func (c *Client) CreateTask(ctx context.Context, token string, req CreateTaskRequest) (string, error) {
	var task Task
	if err := c.do(ctx, token, http.MethodPost, "/tasks", req.body(), &task); err != nil {
		return "", err
	}
	if task.ID == "" {
		return "", fmt.Errorf("todoist returned a task without id")
	}
	return task.ID, nil
}

// UpdateTask sets priority and, depending on req.Due, the due date of a task
func (c *Client) UpdateTask(ctx context.Context, token string, taskID string, req UpdateTaskRequest) error {
	return c.do(ctx, token, http.MethodPost, "/tasks/"+url.PathEscape(taskID), req.body(), nil)
}

func (c *Client) do(ctx context.Context, token, method, path string, body map[string]interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.authorized(ctx, token).Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (c *Client) authorized(ctx context.Context, token string) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
	hc.Timeout = c.httpClient.Timeout
	return hc
}
