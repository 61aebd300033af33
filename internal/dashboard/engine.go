// Package dashboard builds the dashboard views from Classroom data: a
// course's work page, the course list and the cross-course pending work.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/api/googleapi"

	"github.com/marcogenualdo/classboard/internal/classroom"
	"github.com/marcogenualdo/classboard/internal/config"
)

const (
	DefaultPageSize       = 10
	DefaultMaxConcurrency = 8
)

// Field masks keep upstream payloads to what the views use.
const (
	courseListFields   googleapi.Field = "courses(id,name,section,alternateLink)"
	pendingCourseField googleapi.Field = "courses(id,name)"
	courseFields       googleapi.Field = "id,name,section,alternateLink"
	workPageFields     googleapi.Field = "courseWork(id,title,dueDate,dueTime,alternateLink)"
	pendingWorkFields  googleapi.Field = "courseWork(id,title,description,dueDate,dueTime,alternateLink)"
	workFields         googleapi.Field = "id,courseId,title,description,dueDate,dueTime,alternateLink"
	submissionFields   googleapi.Field = "studentSubmissions(id,courseWorkId,state,late,assignedGrade,submissionHistory/gradeHistory/gradeChangeType)"
)

// Upstream is the Classroom API as seen by the engine. *classroom.Client
// implements it.
type Upstream interface {
	ListCourses(ctx context.Context, fields ...googleapi.Field) ([]classroom.Course, error)
	GetCourse(ctx context.Context, courseID string, fields ...googleapi.Field) (*classroom.Course, error)
	ListWork(ctx context.Context, courseID string, q classroom.WorkQuery, fields ...googleapi.Field) (*classroom.WorkPage, error)
	ListAllWork(ctx context.Context, courseID string, fields ...googleapi.Field) ([]classroom.WorkItem, error)
	GetWork(ctx context.Context, courseID, workID string, fields ...googleapi.Field) (*classroom.WorkItem, error)
	ListSubmissions(ctx context.Context, courseID, workSelector string, fields ...googleapi.Field) ([]classroom.Submission, error)
}

type Todo struct {
	CourseID    string
	CourseName  string
	WorkID      string
	Title       string
	Description string
	Link        string
	Due         *time.Time
	State       string
	Late        bool
}

type Work struct {
	classroom.WorkItem
	Due *time.Time
}

type CourseDetail struct {
	Course        classroom.Course
	Work          []Work
	NextPageToken string
	FirstPage     bool
}

type AssignmentDetail struct {
	Course classroom.Course
	Work   Work
}

// PendingResult holds the sorted todos and the courses that could not be
// aggregated.
type PendingResult struct {
	Todos    []Todo
	Failures []CourseFailure
}

type Engine struct {
	pageSize       int
	maxConcurrency int
	logger         *slog.Logger
}

func NewEngine(cfg config.ClassroomConfig, logger *slog.Logger) *Engine {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	maxConcurrency := cfg.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}

	return &Engine{
		pageSize:       pageSize,
		maxConcurrency: maxConcurrency,
		logger:         logger,
	}
}

func (e *Engine) Courses(ctx context.Context, up Upstream) ([]classroom.Course, error) {
	return up.ListCourses(ctx, courseListFields)
}

// CourseDetail fetches the course and one page of its work concurrently.
// pageToken is the cursor returned by a previous call, empty for the first page.
func (e *Engine) CourseDetail(ctx context.Context, up Upstream, courseID, pageToken string) (*CourseDetail, error) {
	var (
		course *classroom.Course
		page   *classroom.WorkPage
	)

	g, gctx := errgroup.WithContext(ctx)
	goSafe(g, "courses.get", func() error {
		var err error
		course, err = up.GetCourse(gctx, courseID, courseFields)
		return err
	})
	goSafe(g, "courses.courseWork.list", func() error {
		var err error
		page, err = up.ListWork(gctx, courseID, classroom.WorkQuery{
			PageSize:  e.pageSize,
			PageToken: pageToken,
		}, workPageFields)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	detail := &CourseDetail{
		Course:        *course,
		NextPageToken: page.NextPageToken,
		FirstPage:     pageToken == "",
	}
	for _, item := range page.Items {
		detail.Work = append(detail.Work, Work{WorkItem: item, Due: DueInstant(item.DueDate, item.DueTime)})
	}
	return detail, nil
}

func (e *Engine) Assignment(ctx context.Context, up Upstream, courseID, workID string) (*AssignmentDetail, error) {
	var (
		course *classroom.Course
		work   *classroom.WorkItem
	)

	g, gctx := errgroup.WithContext(ctx)
	goSafe(g, "courses.get", func() error {
		var err error
		course, err = up.GetCourse(gctx, courseID, courseFields)
		return err
	})
	goSafe(g, "courses.courseWork.get", func() error {
		var err error
		work, err = up.GetWork(gctx, courseID, workID, workFields)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &AssignmentDetail{
		Course: *course,
		Work:   Work{WorkItem: *work, Due: DueInstant(work.DueDate, work.DueTime)},
	}, nil
}

// Pending aggregates the incomplete work of every course. Courses are
// processed by a bounded pool; a course that fails is recorded in
// Failures and the others are still returned. Only when every course
// fails is an error returned.
func (e *Engine) Pending(ctx context.Context, up Upstream) (*PendingResult, error) {
	courses, err := up.ListCourses(ctx, pendingCourseField)
	if err != nil {
		return nil, err
	}

	type courseResult struct {
		todos []Todo
		err   error
	}
	results := make([]courseResult, len(courses))

	var g errgroup.Group
	g.SetLimit(e.maxConcurrency)
	for i, course := range courses {
		g.Go(func() error {
			todos, err := e.courseTodos(ctx, up, course)
			results[i] = courseResult{todos: todos, err: err}
			return nil
		})
	}
	g.Wait()

	result := &PendingResult{}
	var errs []error
	for i, r := range results {
		if r.err != nil {
			failure := CourseFailure{CourseID: courses[i].ID, CourseName: courses[i].Name, Err: r.err}
			e.logFailure(failure)
			result.Failures = append(result.Failures, failure)
			errs = append(errs, failure)
			continue
		}
		result.Todos = append(result.Todos, r.todos...)
	}

	if len(courses) > 0 && len(result.Failures) == len(courses) {
		return nil, errors.Join(errs...)
	}

	SortTodos(result.Todos)
	return result, nil
}

// PendingForCourse is Pending restricted to one course. Failures are
// returned as errors.
func (e *Engine) PendingForCourse(ctx context.Context, up Upstream, courseID string) (*PendingResult, error) {
	course, err := up.GetCourse(ctx, courseID, "id,name")
	if err != nil {
		return nil, err
	}

	todos, err := e.courseTodos(ctx, up, *course)
	if err != nil {
		return nil, err
	}

	SortTodos(todos)
	return &PendingResult{Todos: todos}, nil
}

func (e *Engine) courseTodos(ctx context.Context, up Upstream, course classroom.Course) ([]Todo, error) {
	var todos []Todo
	err := runSafe("course "+course.ID, func() error {
		var err error
		todos, err = e.fetchCourseTodos(ctx, up, course)
		return err
	})
	return todos, err
}

func (e *Engine) fetchCourseTodos(ctx context.Context, up Upstream, course classroom.Course) ([]Todo, error) {
	if course.ID == "" {
		return nil, missingField("courses.list.courses[].id")
	}
	if course.Name == "" {
		return nil, missingField("courses.list.courses[id=%s].name", course.ID)
	}

	var (
		work        []classroom.WorkItem
		submissions []classroom.Submission
	)

	g, gctx := errgroup.WithContext(ctx)
	goSafe(g, "courses.courseWork.list "+course.ID, func() error {
		var err error
		work, err = up.ListAllWork(gctx, course.ID, pendingWorkFields)
		return err
	})
	goSafe(g, "courses.courseWork.studentSubmissions.list "+course.ID, func() error {
		var err error
		submissions, err = up.ListSubmissions(gctx, course.ID, classroom.AllWork, submissionFields)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return joinTodos(course, work, submissions)
}

// joinTodos matches submissions to work items and keeps the incomplete
// ones, in work item order.
func joinTodos(course classroom.Course, work []classroom.WorkItem, submissions []classroom.Submission) ([]Todo, error) {
	known := make(map[string]bool, len(work))
	for _, w := range work {
		if w.ID == "" {
			return nil, missingField("courses[id=%s].courseWork[].id", course.ID)
		}
		known[w.ID] = true
	}

	byWork := make(map[string]classroom.Submission, len(submissions))
	for _, s := range submissions {
		if s.WorkID == "" {
			return nil, missingField("courses[id=%s].studentSubmissions[].courseWorkId", course.ID)
		}
		if !known[s.WorkID] {
			return nil, missingField("courses[id=%s].courseWork[id=%s]", course.ID, s.WorkID)
		}
		byWork[s.WorkID] = s
	}

	var todos []Todo
	for _, w := range work {
		s, ok := byWork[w.ID]
		if !ok || !IsIncomplete(s) {
			continue
		}
		if w.Title == "" {
			return nil, missingField("courses[id=%s].courseWork[id=%s].title", course.ID, w.ID)
		}

		todos = append(todos, Todo{
			CourseID:    course.ID,
			CourseName:  course.Name,
			WorkID:      w.ID,
			Title:       w.Title,
			Description: w.Description,
			Link:        w.Link,
			Due:         DueInstant(w.DueDate, w.DueTime),
			State:       s.State,
			Late:        s.Late,
		})
	}
	return todos, nil
}

func (e *Engine) logFailure(f CourseFailure) {
	var panicErr *TaskPanicError
	if errors.As(f.Err, &panicErr) {
		e.logger.Error("course aggregation panicked",
			"course_id", f.CourseID,
			"task", panicErr.Task,
			"panic", panicErr.Value,
			"stack", string(panicErr.Stack),
		)
		return
	}

	e.logger.Warn("course aggregation failed",
		"course_id", f.CourseID,
		"course_name", f.CourseName,
		"error", f.Err,
	)
}
