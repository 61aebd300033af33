package classroom

import (
	classroomapi "google.golang.org/api/classroom/v1"
)

func toCourse(c *classroomapi.Course) Course {
	if c == nil {
		return Course{}
	}
	return Course{
		ID:      c.Id,
		Name:    c.Name,
		Section: c.Section,
		Link:    c.AlternateLink,
	}
}

func toWorkItem(w *classroomapi.CourseWork) WorkItem {
	if w == nil {
		return WorkItem{}
	}
	return WorkItem{
		ID:          w.Id,
		CourseID:    w.CourseId,
		Title:       w.Title,
		Description: w.Description,
		Link:        w.AlternateLink,
		DueDate:     toDate(w.DueDate),
		DueTime:     toTimeOfDay(w.DueTime),
	}
}

// toDate treats zero components as missing: no valid date has a zero year,
// month or day.
func toDate(d *classroomapi.Date) *Date {
	if d == nil {
		return nil
	}
	return &Date{
		Year:  nonZero(d.Year),
		Month: nonZero(d.Month),
		Day:   nonZero(d.Day),
	}
}

// toTimeOfDay keeps zero components: the API omits zero values, so a present
// TimeOfDay without minutes means minute 0.
func toTimeOfDay(t *classroomapi.TimeOfDay) *TimeOfDay {
	if t == nil {
		return nil
	}
	return &TimeOfDay{
		Hours:   intPtr(t.Hours),
		Minutes: intPtr(t.Minutes),
		Seconds: intPtr(t.Seconds),
		Nanos:   intPtr(t.Nanos),
	}
}

func toSubmission(s *classroomapi.StudentSubmission) Submission {
	if s == nil {
		return Submission{}
	}
	return Submission{
		ID:     s.Id,
		WorkID: s.CourseWorkId,
		State:  s.State,
		Late:   s.Late,
		Graded: isGraded(s),
	}
}

// isGraded reports whether a grade was assigned. The API drops a zero
// assignedGrade from the payload, so the grade history is consulted too.
func isGraded(s *classroomapi.StudentSubmission) bool {
	if s.AssignedGrade != 0 {
		return true
	}
	for _, h := range s.SubmissionHistory {
		if h != nil && h.GradeHistory != nil && h.GradeHistory.GradeChangeType == "ASSIGNED_GRADE_POINTS_EARNED_CHANGE" {
			return true
		}
	}
	return false
}

func nonZero(v int64) *int {
	if v == 0 {
		return nil
	}
	return intPtr(v)
}

func intPtr(v int64) *int {
	i := int(v)
	return &i
}
