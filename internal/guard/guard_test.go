package guard

import (
	"testing"

	"github.com/avilkin/classdesk/internal/model"
)

func loggedIn(role model.Role) model.Session {
	return model.Session{
		Token:      "tok",
		User:       &model.User{ID: "u1", Name: "Sam", Email: "sam@example.com", Role: role},
		IsLoggedIn: true,
	}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name         string
		sess         model.Session
		required     model.Role
		path         string
		wantAllowed  bool
		wantRedirect string
		wantRemember string
	}{
		{
			name:         "anonymous always goes to login",
			sess:         model.Session{},
			required:     "",
			path:         "/teacher/assignments",
			wantRedirect: "/login",
			wantRemember: "/teacher/assignments",
		},
		{
			name:         "anonymous with role requirement still goes to login",
			sess:         model.Session{},
			required:     model.RoleTeacher,
			path:         "/teacher",
			wantRedirect: "/login",
			wantRemember: "/teacher",
		},
		{
			name:         "student on a teacher path reroutes to student dashboard",
			sess:         loggedIn(model.RoleStudent),
			required:     model.RoleTeacher,
			path:         "/teacher",
			wantRedirect: "/student",
		},
		{
			name:         "teacher on a student path reroutes to teacher dashboard",
			sess:         loggedIn(model.RoleTeacher),
			required:     model.RoleStudent,
			path:         "/student",
			wantRedirect: "/teacher",
		},
		{
			name:        "matching role is allowed",
			sess:        loggedIn(model.RoleTeacher),
			required:    model.RoleTeacher,
			path:        "/teacher",
			wantAllowed: true,
		},
		{
			name:        "no role requirement admits any logged-in user",
			sess:        loggedIn(model.RoleStudent),
			required:    "",
			path:        "/assignments",
			wantAllowed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.sess, tt.required, tt.path)
			if d.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", d.Allowed, tt.wantAllowed)
			}
			if d.RedirectTo != tt.wantRedirect {
				t.Errorf("RedirectTo = %q, want %q", d.RedirectTo, tt.wantRedirect)
			}
			if d.RememberPath != tt.wantRemember {
				t.Errorf("RememberPath = %q, want %q", d.RememberPath, tt.wantRemember)
			}
		})
	}
}

func TestDecideIsStateless(t *testing.T) {
	// The same inputs must yield the same decision on every evaluation;
	// nothing may be cached between calls.
	sess := loggedIn(model.RoleStudent)
	first := Decide(sess, model.RoleTeacher, "/teacher")
	second := Decide(sess, model.RoleTeacher, "/teacher")
	if first != second {
		t.Errorf("decisions differ: %+v vs %+v", first, second)
	}
}
