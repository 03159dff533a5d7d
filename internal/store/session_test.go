package store

import (
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/avilkin/classdesk/internal/demo"
	"github.com/avilkin/classdesk/internal/model"
	"github.com/avilkin/classdesk/internal/validate"
)

func TestLoginSuccess(t *testing.T) {
	st := newDemoStore(t)

	if err := st.Session.Login(context.Background(), demo.TeacherEmail, demo.Password); err != nil {
		t.Fatalf("Login: %v", err)
	}

	sess := st.Session.Session()
	if !sess.IsLoggedIn {
		t.Error("expected IsLoggedIn after login")
	}
	if sess.Token == "" {
		t.Error("expected a token after login")
	}
	if sess.User == nil || sess.User.Role != model.RoleTeacher {
		t.Errorf("expected teacher user, got %+v", sess.User)
	}
	if st.Session.State() != StateSucceeded {
		t.Errorf("state = %v, want succeeded", st.Session.State())
	}
	if st.Session.Err() != "" {
		t.Errorf("unexpected error %q", st.Session.Err())
	}
}

func TestLoginFailure(t *testing.T) {
	st := newDemoStore(t)

	err := st.Session.Login(context.Background(), demo.TeacherEmail, "wrong-password")
	if err == nil {
		t.Fatal("expected login to fail")
	}

	sess := st.Session.Session()
	if sess.IsLoggedIn || sess.Token != "" || sess.User != nil {
		t.Errorf("session must stay unset on failure, got %+v", sess)
	}
	if st.Session.State() != StateFailed {
		t.Errorf("state = %v, want failed", st.Session.State())
	}
	// The server message is surfaced verbatim.
	if st.Session.Err() != "Invalid email or password" {
		t.Errorf("error = %q, want server message", st.Session.Err())
	}

	st.Session.ClearError()
	if st.Session.Err() != "" {
		t.Error("ClearError did not clear the error")
	}
}

func TestRegisterAndRoleValidation(t *testing.T) {
	st := newDemoStore(t)

	err := st.Session.Register(context.Background(), RegisterInput{
		Name:     "New Student",
		Email:    "new@example.com",
		Password: "password123",
		Role:     model.RoleStudent,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if sess := st.Session.Session(); !sess.IsLoggedIn || sess.User.Name != "New Student" {
		t.Errorf("expected registered session, got %+v", sess)
	}
}

func TestRegisterRejectsBadRoleLocally(t *testing.T) {
	st := newStoreWithHandler(t, noRequests(t))

	err := st.Session.Register(context.Background(), RegisterInput{
		Name:     "Eve",
		Email:    "eve@example.com",
		Password: "password123",
		Role:     "admin",
	})
	var ferrs validate.Errors
	if !errors.As(err, &ferrs) {
		t.Fatalf("expected field errors, got %v", err)
	}
	// Field errors never reach the store's remote-error state.
	if st.Session.Err() != "" {
		t.Errorf("store error = %q, want empty", st.Session.Err())
	}
}

func TestLogoutLeavesNoResidue(t *testing.T) {
	st := newDemoStore(t)
	loginStudent(t, st)

	st.Session.Logout()

	sess := st.Session.Session()
	if sess.IsLoggedIn || sess.Token != "" || sess.User != nil {
		t.Errorf("expected empty session after logout, got %+v", sess)
	}
	for _, key := range []string{keyToken, keyUser} {
		val, err := st.keys.get(key)
		if err != nil {
			t.Fatalf("keyring get %s: %v", key, err)
		}
		if val != "" {
			t.Errorf("persisted %s survived logout: %q", key, val)
		}
	}
}

func TestSessionPersistenceRoundTrip(t *testing.T) {
	srv, err := demo.New()
	if err != nil {
		t.Fatalf("demo.New: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	statePath := filepath.Join(t.TempDir(), "state.db")

	first := newStoreAt(t, ts.URL, statePath)
	loginTeacher(t, first)
	want := first.Session.Session()
	if err := first.Close(); err != nil {
		t.Fatalf("close first store: %v", err)
	}

	// A fresh process restores the identical triple.
	second := newStoreAt(t, ts.URL, statePath)
	second.Session.Restore()
	got := second.Session.Session()

	if got.Token != want.Token {
		t.Errorf("restored token = %q, want %q", got.Token, want.Token)
	}
	if got.IsLoggedIn != want.IsLoggedIn {
		t.Errorf("restored IsLoggedIn = %v, want %v", got.IsLoggedIn, want.IsLoggedIn)
	}
	if got.User == nil || *got.User != *want.User {
		t.Errorf("restored user = %+v, want %+v", got.User, want.User)
	}
}

func TestRestoreDiscardsMalformedSession(t *testing.T) {
	st := newDemoStore(t)

	if err := st.keys.set(keyToken, "tok"); err != nil {
		t.Fatalf("seed token: %v", err)
	}
	if err := st.keys.set(keyUser, "{not json"); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	st.Session.Restore()
	if sess := st.Session.Session(); sess.IsLoggedIn {
		t.Errorf("malformed persisted data must read as logged out, got %+v", sess)
	}
}

func TestRestoreDiscardsUnknownRole(t *testing.T) {
	st := newDemoStore(t)

	if err := st.keys.set(keyToken, "tok"); err != nil {
		t.Fatalf("seed token: %v", err)
	}
	if err := st.keys.set(keyUser, `{"userId":"u1","name":"X","email":"x@example.com","role":"admin"}`); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	st.Session.Restore()
	if sess := st.Session.Session(); sess.IsLoggedIn {
		t.Errorf("unknown role must read as logged out, got %+v", sess)
	}
}

func TestRestoreIgnoresPartialSession(t *testing.T) {
	st := newDemoStore(t)

	// Token without a user is not a session.
	if err := st.keys.set(keyToken, "tok"); err != nil {
		t.Fatalf("seed token: %v", err)
	}
	st.Session.Restore()
	if st.Session.Session().IsLoggedIn {
		t.Error("token without user must read as logged out")
	}
}
