package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/avilkin/classdesk/internal/demo"
	"github.com/avilkin/classdesk/internal/model"
)

// newDemoStore builds a Store wired to a fresh in-memory demo portal.
func newDemoStore(t *testing.T) *Store {
	t.Helper()
	srv, err := demo.New()
	if err != nil {
		t.Fatalf("demo.New: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return newStoreAt(t, ts.URL, ":memory:")
}

// newStoreWithHandler builds a Store whose API calls hit the given handler.
func newStoreWithHandler(t *testing.T, h http.Handler) *Store {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return newStoreAt(t, ts.URL, ":memory:")
}

func newStoreAt(t *testing.T, apiURL, statePath string) *Store {
	t.Helper()
	st, err := New(Config{APIURL: apiURL, StatePath: statePath})
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// noRequests fails the test if any request reaches the server. Used to
// prove that local rejections never dispatch.
func noRequests(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		http.Error(w, `{"message":"unexpected"}`, http.StatusInternalServerError)
	})
}

func loginAs(t *testing.T, st *Store, email string) {
	t.Helper()
	if err := st.Session.Login(context.Background(), email, demo.Password); err != nil {
		t.Fatalf("login %s: %v", email, err)
	}
}

func loginTeacher(t *testing.T, st *Store) { loginAs(t, st, demo.TeacherEmail) }
func loginStudent(t *testing.T, st *Store) { loginAs(t, st, demo.StudentEmail) }

// writeListEnvelope writes an assignment list in the portal's wire shape.
func writeListEnvelope(t *testing.T, w http.ResponseWriter, assignments []model.Assignment) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(map[string]any{
		"data": assignments,
		"pagination": model.Pagination{
			CurrentPage:      1,
			TotalPages:       1,
			TotalAssignments: len(assignments),
		},
	})
	if err != nil {
		t.Errorf("encode envelope: %v", err)
	}
}

func TestFetchStateString(t *testing.T) {
	tests := []struct {
		state FetchState
		want  string
	}{
		{StateIdle, "idle"},
		{StateLoading, "loading"},
		{StateSucceeded, "succeeded"},
		{StateFailed, "failed"},
		{FetchState(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("FetchState(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
