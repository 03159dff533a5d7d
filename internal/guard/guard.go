// Package guard gates navigation based on the current session and role.
// Decisions are pure values: no state is kept and nothing is cached, so
// the caller re-evaluates on every navigation attempt.
package guard

import "github.com/avilkin/classdesk/internal/model"

// LoginPath is where anonymous visitors are sent.
const LoginPath = "/login"

// Decision is the outcome of one navigation check.
type Decision struct {
	// Allowed is true when the requested path may be rendered.
	Allowed bool
	// RedirectTo is the path to navigate to instead, when not allowed.
	RedirectTo string
	// RememberPath carries the originally requested path across a login
	// redirect so the login flow can return there. Best-effort only.
	RememberPath string
}

// Decide checks whether the session may reach path. required is the role
// the path demands, or empty for any authenticated user.
//
// A wrong-role user is never shown a "forbidden" page; they are silently
// rerouted to their own dashboard.
func Decide(sess model.Session, required model.Role, path string) Decision {
	if !sess.IsLoggedIn {
		return Decision{RedirectTo: LoginPath, RememberPath: path}
	}
	if required != "" && sess.User.Role != required {
		return Decision{RedirectTo: sess.User.Role.Dashboard()}
	}
	return Decision{Allowed: true}
}
