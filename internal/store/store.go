// Package store implements the client-side state layer of the portal:
// the session, assignment, and submission stores that sit between the UI
// and the remote API.
//
// A Store is constructed explicitly and injected into its consumer; there
// is no package-level instance. Each sub-store exclusively owns its slice
// of state and guards it with a mutex. List fetches carry a monotonic
// sequence ticket so that a response settling after a newer fetch was
// issued is discarded instead of overwriting fresher data. Mutating
// operations stay last-settled-wins.
package store

import (
	"fmt"
	"net/http"

	"github.com/avilkin/classdesk/internal/api"
)

// FetchState tracks the lifecycle of the most recent fetch on a store slice.
type FetchState int

const (
	StateIdle FetchState = iota
	StateLoading
	StateSucceeded
	StateFailed
)

func (s FetchState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Config holds everything a Store needs to operate.
type Config struct {
	// APIURL is the base URL of the portal API.
	APIURL string
	// StatePath is the sqlite file holding the persisted session
	// (":memory:" for throwaway state).
	StatePath string
	// HTTPClient optionally overrides the API client's http.Client.
	HTTPClient *http.Client
}

// Store is the state container handed to the view layer. It owns the API
// client, the durable credential keyring, and the three sub-stores.
type Store struct {
	api  *api.Client
	keys *keyring

	Session     *SessionStore
	Assignments *AssignmentStore
	Submissions *SubmissionStore
}

// New builds a Store from cfg. The returned Store must be Closed when the
// process is done with it.
func New(cfg Config) (*Store, error) {
	var opts []api.Option
	if cfg.HTTPClient != nil {
		opts = append(opts, api.WithHTTPClient(cfg.HTTPClient))
	}
	client := api.New(cfg.APIURL, opts...)

	keys, err := openKeyring(cfg.StatePath)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}

	return &Store{
		api:         client,
		keys:        keys,
		Session:     newSessionStore(client, keys),
		Assignments: newAssignmentStore(client),
		Submissions: newSubmissionStore(client),
	}, nil
}

// Close releases the durable state handle.
func (s *Store) Close() error {
	return s.keys.Close()
}
