package models

// DateLayout is the day-month-year text format exam dates are stored and shown in
const DateLayout = "02-01-2006"

// Exam is an upcoming exam registered by an owner
type Exam struct {
	ID      int64  `json:"id"`
	OwnerID int64  `json:"owner_id"`
	Name    string `json:"name"`
	Date    string `json:"date"`
	Prep    int    `json:"prep"`
}

// RankedExam is an exam with its urgency computed against a given day
type RankedExam struct {
	Exam
	DaysUntil     int `json:"days_until"`
	UrgencyLevel  int `json:"urgency_level"`
	PriorityScore int `json:"priority_score"`
}

// PrepGap is how many percentage points of preparation are still missing
func (e Exam) PrepGap() int {
	return 100 - e.Prep
}

// IsOverdue reports whether the exam day is today or already past
func (r RankedExam) IsOverdue() bool {
	return r.DaysUntil <= 0
}
