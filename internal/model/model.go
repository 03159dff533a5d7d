package model

import "time"

// Role represents a portal user's access level.
type Role string

const (
	// RoleTeacher can create, publish, and grade assignments.
	RoleTeacher Role = "teacher"
	// RoleStudent can submit answers and read feedback.
	RoleStudent Role = "student"
)

// Valid reports whether r is one of the two permitted roles.
func (r Role) Valid() bool {
	return r == RoleTeacher || r == RoleStudent
}

// Dashboard returns the role's own dashboard path.
func (r Role) Dashboard() string {
	if r == RoleTeacher {
		return "/teacher"
	}
	return "/student"
}

// User is the authenticated identity returned by the portal.
type User struct {
	ID    string `json:"userId"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Session holds the current authentication identity and credential.
// IsLoggedIn always equals (Token != "" && User != nil).
type Session struct {
	Token      string
	User       *User
	IsLoggedIn bool
}

// AssignmentStatus is the lifecycle stage of an assignment.
type AssignmentStatus string

const (
	StatusDraft     AssignmentStatus = "Draft"
	StatusPublished AssignmentStatus = "Published"
	StatusCompleted AssignmentStatus = "Completed"
)

// Valid reports whether s is a known status value.
func (s AssignmentStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusCompleted:
		return true
	}
	return false
}

// CanTransition reports whether the one-way progression allows moving to next.
// The only legal moves are Draft→Published and Published→Completed.
func (s AssignmentStatus) CanTransition(next AssignmentStatus) bool {
	switch s {
	case StatusDraft:
		return next == StatusPublished
	case StatusPublished:
		return next == StatusCompleted
	}
	return false
}

// Assignment is a task a teacher publishes for students.
type Assignment struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	DueDate     time.Time        `json:"dueDate"`
	Status      AssignmentStatus `json:"status"`
	CreatedBy   string           `json:"createdBy"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// Overdue reports whether now is past the assignment's due date.
func (a Assignment) Overdue(now time.Time) bool {
	return now.After(a.DueDate)
}

// Submission is a student's single answer to one assignment.
// Grade and Feedback stay nil until a teacher reviews it.
type Submission struct {
	ID           string    `json:"id"`
	AssignmentID string    `json:"assignmentId"`
	StudentName  string    `json:"studentName"`
	StudentEmail string    `json:"studentEmail"`
	Answer       string    `json:"answer"`
	SubmittedAt  time.Time `json:"submittedAt"`
	Reviewed     bool      `json:"reviewed"`
	Grade        *float64  `json:"grade"`
	Feedback     *string   `json:"feedback"`
}

// Pagination mirrors the server's paging response. It is never computed locally.
type Pagination struct {
	CurrentPage      int  `json:"currentPage"`
	TotalPages       int  `json:"totalPages"`
	TotalAssignments int  `json:"totalAssignments"`
	HasNext          bool `json:"hasNext"`
	HasPrev          bool `json:"hasPrev"`
}

// AnalyticsOverview holds the portal-wide aggregate counts.
type AnalyticsOverview struct {
	TotalAssignments     int `json:"totalAssignments"`
	TotalSubmissions     int `json:"totalSubmissions"`
	ReviewedSubmissions  int `json:"reviewedSubmissions"`
	PublishedAssignments int `json:"publishedAssignments"`
}

// AssignmentAnalytics is one per-assignment row of the analytics report.
type AssignmentAnalytics struct {
	AssignmentID    string           `json:"assignmentId"`
	Title           string           `json:"title"`
	Status          AssignmentStatus `json:"status"`
	SubmissionCount int              `json:"submissionCount"`
	ReviewedCount   int              `json:"reviewedCount"`
	AverageGrade    *float64         `json:"averageGrade"`
}

// Analytics is the server-computed aggregate snapshot. The client only caches
// the last fetched copy and never derives it locally.
type Analytics struct {
	Overview            AnalyticsOverview     `json:"overview"`
	AssignmentAnalytics []AssignmentAnalytics `json:"assignmentAnalytics"`
}
