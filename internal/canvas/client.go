// Package canvas is a minimal Canvas LMS REST client for courses and assignments.
package canvas

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	EnrollmentActive           = "active"
	EnrollmentInvitedOrPending = "invited_or_pending"

	PageSize = 100
	maxPages = 500
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type Course struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// IDString returns the course id in the form stored locally.
func (c Course) IDString() string {
	return strconv.FormatInt(c.ID, 10)
}

type Assignment struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	DueAt       *string `json:"due_at"`
}

func (a Assignment) IDString() string {
	return strconv.FormatInt(a.ID, 10)
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("canvas API error (status %d): %s", e.StatusCode, e.Body)
}

// ListCourses returns every course of the token owner in the given enrollment state
func (c *Client) ListCourses(ctx context.Context, token string, enrollmentState string) ([]Course, error) {
	query := url.Values{}
	if enrollmentState != "" {
		query.Set("enrollment_state", enrollmentState)
	}
	return listAll[Course](ctx, c, token, "/api/v1/courses", query)
}

// ListAssignments returns every assignment of a course
func (c *Client) ListAssignments(ctx context.Context, token string, courseID string) ([]Assignment, error) {
	path := "/api/v1/courses/" + url.PathEscape(courseID) + "/assignments"
	return listAll[Assignment](ctx, c, token, path, url.Values{})
}

// listAll keeps requesting pages until one comes back short.
func listAll[T any](ctx context.Context, c *Client, token, path string, query url.Values) ([]T, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("canvas base URL is not configured")
	}
	httpClient := c.authorized(ctx, token)

	var all []T
	for page := 1; page <= maxPages; page++ {
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		q.Set("per_page", strconv.Itoa(PageSize))
		q.Set("page", strconv.Itoa(page))

		var items []T
		if err := c.getJSON(ctx, httpClient, path+"?"+q.Encode(), &items); err != nil {
			return nil, err
		}
		all = append(all, items...)
		if len(items) < PageSize {
			return all, nil
		}
	}
	return nil, fmt.Errorf("canvas pagination for %s exceeded %d pages", path, maxPages)
}

func (c *Client) getJSON(ctx context.Context, httpClient *http.Client, pathAndQuery string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pathAndQuery, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// authorized wraps the base client with a bearer token source.
func (c *Client) authorized(ctx context.Context, token string) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
	hc.Timeout = c.httpClient.Timeout
	return hc
}
