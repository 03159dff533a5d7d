package demo

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/avilkin/classdesk/internal/api"
)

func newTestPortal(t *testing.T) *api.Client {
	t.Helper()
	srv, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return api.New(ts.URL)
}

func login(t *testing.T, c *api.Client, email string) *api.AuthResult {
	t.Helper()
	res, err := c.Login(context.Background(), email, Password)
	if err != nil {
		t.Fatalf("login %s: %v", email, err)
	}
	c.SetToken(res.Token)
	return res
}

func TestLoginRejectsBadPassword(t *testing.T) {
	c := newTestPortal(t)
	if _, err := c.Login(context.Background(), TeacherEmail, "nope"); err == nil {
		t.Fatal("expected login to fail")
	}
}

func TestRoleEnforcement(t *testing.T) {
	c := newTestPortal(t)
	login(t, c, StudentEmail)

	// Students cannot create assignments.
	_, err := c.CreateAssignment(context.Background(), "Sneaky", "should fail", time.Now().Add(time.Hour))
	apiErr, ok := err.(*api.Error)
	if !ok || apiErr.StatusCode != 403 {
		t.Fatalf("expected 403, got %v", err)
	}

	// Students cannot read analytics.
	if _, err := c.Analytics(context.Background()); err == nil {
		t.Fatal("expected analytics to be forbidden for students")
	}
}

func TestSingleSubmissionPerStudent(t *testing.T) {
	c := newTestPortal(t)
	login(t, c, StudentEmail)

	assignments, _, err := c.ListAssignments(context.Background(), api.ListAssignmentsParams{})
	if err != nil {
		t.Fatalf("ListAssignments: %v", err)
	}
	target := assignments[0]

	if _, err := c.CreateSubmission(context.Background(), target.ID, "first"); err != nil {
		t.Fatalf("CreateSubmission: %v", err)
	}
	_, err = c.CreateSubmission(context.Background(), target.ID, "second")
	apiErr, ok := err.(*api.Error)
	if !ok || apiErr.StatusCode != 409 {
		t.Fatalf("expected 409 on duplicate, got %v", err)
	}
}

func TestStudentsNeverSeeDrafts(t *testing.T) {
	c := newTestPortal(t)
	login(t, c, TeacherEmail)

	if _, err := c.CreateAssignment(context.Background(), "Hidden Draft", "not yet visible", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("CreateAssignment: %v", err)
	}
	teacherView, _, err := c.ListAssignments(context.Background(), api.ListAssignmentsParams{})
	if err != nil {
		t.Fatalf("teacher list: %v", err)
	}

	login(t, c, StudentEmail)
	studentView, _, err := c.ListAssignments(context.Background(), api.ListAssignmentsParams{})
	if err != nil {
		t.Fatalf("student list: %v", err)
	}
	if len(studentView) != len(teacherView)-1 {
		t.Errorf("student sees %d assignments, teacher %d; drafts must be hidden",
			len(studentView), len(teacherView))
	}
}

func TestAnalyticsAverages(t *testing.T) {
	c := newTestPortal(t)
	login(t, c, StudentEmail)

	assignments, _, err := c.ListAssignments(context.Background(), api.ListAssignmentsParams{})
	if err != nil {
		t.Fatalf("ListAssignments: %v", err)
	}
	target := assignments[0]
	sub, err := c.CreateSubmission(context.Background(), target.ID, "essay")
	if err != nil {
		t.Fatalf("CreateSubmission: %v", err)
	}

	login(t, c, TeacherEmail)
	grade := 80.0
	if _, err := c.ReviewSubmission(context.Background(), sub.ID, &grade, nil); err != nil {
		t.Fatalf("ReviewSubmission: %v", err)
	}

	analytics, err := c.Analytics(context.Background())
	if err != nil {
		t.Fatalf("Analytics: %v", err)
	}
	if analytics.Overview.ReviewedSubmissions != 1 {
		t.Errorf("reviewed = %d, want 1", analytics.Overview.ReviewedSubmissions)
	}
	for _, row := range analytics.AssignmentAnalytics {
		if row.AssignmentID != target.ID {
			continue
		}
		if row.AverageGrade == nil || *row.AverageGrade != 80 {
			t.Errorf("average grade = %v, want 80", row.AverageGrade)
		}
	}
}
