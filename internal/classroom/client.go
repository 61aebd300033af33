// Package classroom is a thin typed wrapper over the Google Classroom API.
package classroom

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	classroomapi "google.golang.org/api/classroom/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Factory builds per-request clients bound to one visitor's access token.
type Factory struct {
	base     *http.Client
	endpoint string
}

// NewFactory returns a Factory. base may be nil; endpoint overrides the API
// base URL and is empty in production.
func NewFactory(base *http.Client, endpoint string) *Factory {
	if base == nil {
		base = http.DefaultClient
	}
	return &Factory{base: base, endpoint: endpoint}
}

// Client is immutable and safe to share between goroutines.
type Client struct {
	svc *classroomapi.Service
}

func (f *Factory) ForToken(ctx context.Context, accessToken string) (*Client, error) {
	transport := f.base.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}),
			Base:   transport,
		},
		Timeout: f.base.Timeout,
	}

	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if f.endpoint != "" {
		opts = append(opts, option.WithEndpoint(f.endpoint))
	}

	svc, err := classroomapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create classroom service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// ListCourses returns the visitor's active courses across all pages.
func (c *Client) ListCourses(ctx context.Context, fields ...googleapi.Field) ([]Course, error) {
	call := c.svc.Courses.List().CourseStates("ACTIVE")
	if len(fields) > 0 {
		call = call.Fields(withPageToken(fields)...)
	}

	var courses []Course
	err := call.Pages(ctx, func(resp *classroomapi.ListCoursesResponse) error {
		for _, course := range resp.Courses {
			courses = append(courses, toCourse(course))
		}
		return nil
	})
	if err != nil {
		return nil, requestError("courses.list", err)
	}
	return courses, nil
}

func (c *Client) GetCourse(ctx context.Context, courseID string, fields ...googleapi.Field) (*Course, error) {
	call := c.svc.Courses.Get(courseID).Context(ctx)
	if len(fields) > 0 {
		call = call.Fields(fields...)
	}

	course, err := call.Do()
	if err != nil {
		return nil, requestError("courses.get", err)
	}

	out := toCourse(course)
	return &out, nil
}

// ListWork returns a single page of a course's work items.
func (c *Client) ListWork(ctx context.Context, courseID string, q WorkQuery, fields ...googleapi.Field) (*WorkPage, error) {
	call := c.svc.Courses.CourseWork.List(courseID).Context(ctx)
	if q.PageSize > 0 {
		call = call.PageSize(int64(q.PageSize))
	}
	if q.PageToken != "" {
		call = call.PageToken(q.PageToken)
	}
	if q.OrderBy != "" {
		call = call.OrderBy(q.OrderBy)
	}
	if len(fields) > 0 {
		call = call.Fields(withPageToken(fields)...)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, requestError("courses.courseWork.list", err)
	}

	page := &WorkPage{NextPageToken: resp.NextPageToken}
	for _, work := range resp.CourseWork {
		page.Items = append(page.Items, toWorkItem(work))
	}
	return page, nil
}

// ListAllWork follows pagination until every work item of the course is read.
func (c *Client) ListAllWork(ctx context.Context, courseID string, fields ...googleapi.Field) ([]WorkItem, error) {
	call := c.svc.Courses.CourseWork.List(courseID).OrderBy("dueDate desc")
	if len(fields) > 0 {
		call = call.Fields(withPageToken(fields)...)
	}

	var items []WorkItem
	err := call.Pages(ctx, func(resp *classroomapi.ListCourseWorkResponse) error {
		for _, work := range resp.CourseWork {
			items = append(items, toWorkItem(work))
		}
		return nil
	})
	if err != nil {
		return nil, requestError("courses.courseWork.list", err)
	}
	return items, nil
}

func (c *Client) GetWork(ctx context.Context, courseID, workID string, fields ...googleapi.Field) (*WorkItem, error) {
	call := c.svc.Courses.CourseWork.Get(courseID, workID).Context(ctx)
	if len(fields) > 0 {
		call = call.Fields(fields...)
	}

	work, err := call.Do()
	if err != nil {
		return nil, requestError("courses.courseWork.get", err)
	}

	out := toWorkItem(work)
	return &out, nil
}

// ListSubmissions returns the current user's submissions for workSelector,
// which is a work item id or AllWork.
func (c *Client) ListSubmissions(ctx context.Context, courseID, workSelector string, fields ...googleapi.Field) ([]Submission, error) {
	call := c.svc.Courses.CourseWork.StudentSubmissions.List(courseID, workSelector).UserId("me")
	if len(fields) > 0 {
		call = call.Fields(withPageToken(fields)...)
	}

	var submissions []Submission
	err := call.Pages(ctx, func(resp *classroomapi.ListStudentSubmissionsResponse) error {
		for _, sub := range resp.StudentSubmissions {
			submissions = append(submissions, toSubmission(sub))
		}
		return nil
	})
	if err != nil {
		return nil, requestError("courses.courseWork.studentSubmissions.list", err)
	}
	return submissions, nil
}

// withPageToken makes sure pagination keeps working under a field mask.
func withPageToken(fields []googleapi.Field) []googleapi.Field {
	for _, f := range fields {
		if f == "nextPageToken" {
			return fields
		}
	}
	return append([]googleapi.Field{"nextPageToken"}, fields...)
}
