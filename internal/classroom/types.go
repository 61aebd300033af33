package classroom

// Submission states reported by the Classroom API.
const (
	StateNew       = "NEW"
	StateCreated   = "CREATED"
	StateTurnedIn  = "TURNED_IN"
	StateReturned  = "RETURNED"
	StateReclaimed = "RECLAIMED_BY_STUDENT"
)

// AllWork selects the submissions of every work item in a course.
const AllWork = "-"

type Course struct {
	ID      string
	Name    string
	Section string
	Link    string
}

// Date is a calendar date; nil fields were not reported upstream.
type Date struct {
	Year  *int
	Month *int
	Day   *int
}

type TimeOfDay struct {
	Hours   *int
	Minutes *int
	Seconds *int
	Nanos   *int
}

type WorkItem struct {
	ID          string
	CourseID    string
	Title       string
	Description string
	Link        string
	DueDate     *Date
	DueTime     *TimeOfDay
}

// Submission is the current user's progress on one work item. State is
// empty when the API did not report one.
type Submission struct {
	ID     string
	WorkID string
	State  string
	Late   bool
	Graded bool
}

type WorkQuery struct {
	PageSize  int
	PageToken string
	OrderBy   string
}

type WorkPage struct {
	Items         []WorkItem
	NextPageToken string
}
