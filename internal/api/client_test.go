package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/avilkin/classdesk/internal/model"
)

func TestBearerTokenAttached(t *testing.T) {
	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []model.Assignment{}})
	}))
	t.Cleanup(ts.Close)

	c := New(ts.URL)
	if _, _, err := c.ListAssignments(context.Background(), ListAssignmentsParams{}); err != nil {
		t.Fatalf("ListAssignments: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("unexpected Authorization header before SetToken: %q", gotAuth)
	}

	c.SetToken("secret-token")
	if _, _, err := c.ListAssignments(context.Background(), ListAssignmentsParams{}); err != nil {
		t.Fatalf("ListAssignments: %v", err)
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("Authorization = %q, want 'Bearer secret-token'", gotAuth)
	}

	c.ClearToken()
	if _, _, err := c.ListAssignments(context.Background(), ListAssignmentsParams{}); err != nil {
		t.Fatalf("ListAssignments: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("Authorization survived ClearToken: %q", gotAuth)
	}
}

func TestServerMessageSurfacedVerbatim(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "Only draft assignments can be edited"})
	}))
	t.Cleanup(ts.Close)

	c := New(ts.URL)
	_, err := c.UpdateAssignment(context.Background(), "a1", AssignmentPatch{})
	if err == nil {
		t.Fatal("expected an error")
	}
	apiErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if apiErr.Message != "Only draft assignments can be edited" {
		t.Errorf("message = %q, want the server message verbatim", apiErr.Message)
	}
	if apiErr.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", apiErr.StatusCode)
	}
}

func TestFallbackMessageOnUnusableBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	t.Cleanup(ts.Close)

	c := New(ts.URL)
	_, err := c.Login(context.Background(), "a@b.c", "pw")
	if err == nil {
		t.Fatal("expected an error")
	}
	if err.Error() != "Login failed" {
		t.Errorf("error = %q, want the operation fallback", err.Error())
	}
}

func TestListParamsEncoding(t *testing.T) {
	var gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []model.Assignment{}})
	}))
	t.Cleanup(ts.Close)
	c := New(ts.URL)

	tests := []struct {
		name   string
		params ListAssignmentsParams
		want   string
	}{
		{"no params", ListAssignmentsParams{}, ""},
		{"status only", ListAssignmentsParams{Status: model.StatusPublished}, "status=Published"},
		{"full paging", ListAssignmentsParams{Status: model.StatusDraft, Page: 2, Limit: 5}, "limit=5&page=2&status=Draft"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := c.ListAssignments(context.Background(), tt.params); err != nil {
				t.Fatalf("ListAssignments: %v", err)
			}
			if gotQuery != tt.want {
				t.Errorf("query = %q, want %q", gotQuery, tt.want)
			}
		})
	}
}

func TestPaginationDecoded(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []model.Assignment{{ID: "a1", Title: "One"}},
			"pagination": model.Pagination{
				CurrentPage:      2,
				TotalPages:       3,
				TotalAssignments: 25,
				HasNext:          true,
				HasPrev:          true,
			},
		})
	}))
	t.Cleanup(ts.Close)

	c := New(ts.URL)
	assignments, pg, err := c.ListAssignments(context.Background(), ListAssignmentsParams{Page: 2})
	if err != nil {
		t.Fatalf("ListAssignments: %v", err)
	}
	if len(assignments) != 1 || assignments[0].ID != "a1" {
		t.Errorf("assignments = %+v", assignments)
	}
	if pg == nil || pg.CurrentPage != 2 || !pg.HasNext || !pg.HasPrev {
		t.Errorf("pagination = %+v", pg)
	}
}
