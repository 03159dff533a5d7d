package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/avilkin/classdesk/internal/api"
	"github.com/avilkin/classdesk/internal/model"
	"github.com/avilkin/classdesk/internal/validate"
)

// AssignmentStore holds the assignment list visible to the current role,
// its pagination mirror, and the status filter.
type AssignmentStore struct {
	mu  sync.Mutex
	api *api.Client

	assignments []model.Assignment
	current     *model.Assignment
	pagination  model.Pagination
	filter      string
	state       FetchState
	err         string

	// listSeq tickets list fetches; a response holding an older ticket
	// than the newest issued one is discarded.
	listSeq uint64
}

func newAssignmentStore(client *api.Client) *AssignmentStore {
	return &AssignmentStore{
		api:        client,
		filter:     "all",
		pagination: model.Pagination{CurrentPage: 1, TotalPages: 1},
	}
}

// Assignments returns a snapshot of the current list.
func (s *AssignmentStore) Assignments() []model.Assignment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Assignment, len(s.assignments))
	copy(out, s.assignments)
	return out
}

// Current returns the last individually fetched assignment, or nil.
func (s *AssignmentStore) Current() *model.Assignment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	a := *s.current
	return &a
}

// Pagination returns the server's last reported paging state.
func (s *AssignmentStore) Pagination() model.Pagination {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pagination
}

// Filter returns the active status filter ("all" by default).
func (s *AssignmentStore) Filter() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// SetFilter records the status filter. Local-only; callers re-List themselves.
func (s *AssignmentStore) SetFilter(value string) {
	s.mu.Lock()
	s.filter = value
	s.mu.Unlock()
}

// State returns the fetch state of the assignment slice.
func (s *AssignmentStore) State() FetchState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the last remote error, or empty string.
func (s *AssignmentStore) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// ClearError clears the last error.
func (s *AssignmentStore) ClearError() {
	s.mu.Lock()
	s.err = ""
	s.mu.Unlock()
}

// ClearCurrent drops the individually fetched assignment.
func (s *AssignmentStore) ClearCurrent() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}

// List replaces the full assignment list from the server. The fetch is
// sequence-guarded: if a newer List was issued while this one was in
// flight, the stale response is dropped and List returns nil.
func (s *AssignmentStore) List(ctx context.Context, params api.ListAssignmentsParams) error {
	s.mu.Lock()
	s.state = StateLoading
	s.err = ""
	s.listSeq++
	ticket := s.listSeq
	s.mu.Unlock()

	assignments, pagination, err := s.api.ListAssignments(ctx, params)

	s.mu.Lock()
	defer s.mu.Unlock()
	if ticket != s.listSeq {
		slog.Debug("discarding stale assignment list response", "ticket", ticket, "latest", s.listSeq)
		return nil
	}
	if err != nil {
		s.state = StateFailed
		s.err = err.Error()
		return err
	}
	s.state = StateSucceeded
	s.assignments = assignments
	if pagination != nil {
		s.pagination = *pagination
	}
	return nil
}

// Get fetches a single assignment into the current slot.
func (s *AssignmentStore) Get(ctx context.Context, id string) error {
	a, err := s.api.GetAssignment(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateFailed
		s.err = err.Error()
		return err
	}
	s.current = a
	return nil
}

// CreateInput is the pre-dispatch shape of a new assignment.
type CreateInput struct {
	Title       string    `json:"title" validate:"required,notblank,max=200"`
	Description string    `json:"description" validate:"required,notblank,max=2000"`
	DueDate     time.Time `json:"dueDate" validate:"required,futuredate"`
}

// Create validates the input and creates a draft assignment. On success the
// server's copy is prepended to the local list, newest first. Validation
// failures are returned without issuing a request or touching store state.
func (s *AssignmentStore) Create(ctx context.Context, in CreateInput) (*model.Assignment, error) {
	if err := validate.Check(in); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.state = StateLoading
	s.err = ""
	s.mu.Unlock()

	a, err := s.api.CreateAssignment(ctx, in.Title, in.Description, in.DueDate)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateFailed
		s.err = err.Error()
		return nil, err
	}
	s.state = StateSucceeded
	s.assignments = append([]model.Assignment{*a}, s.assignments...)
	return a, nil
}

// Update modifies a draft assignment and replaces the local entry in place.
// Non-draft assignments are rejected locally without a request.
func (s *AssignmentStore) Update(ctx context.Context, id string, patch api.AssignmentPatch) (*model.Assignment, error) {
	if err := s.requireDraft(id, "edited"); err != nil {
		return nil, err
	}

	a, err := s.api.UpdateAssignment(ctx, id, patch)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.err = err.Error()
		return nil, err
	}
	s.replace(*a)
	return a, nil
}

// Delete removes a draft assignment locally and remotely. Non-draft
// assignments are rejected locally without a request.
func (s *AssignmentStore) Delete(ctx context.Context, id string) error {
	if err := s.requireDraft(id, "deleted"); err != nil {
		return err
	}

	err := s.api.DeleteAssignment(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.err = err.Error()
		return err
	}
	for i, a := range s.assignments {
		if a.ID == id {
			s.assignments = append(s.assignments[:i], s.assignments[i+1:]...)
			break
		}
	}
	return nil
}

// UpdateStatus moves an assignment along Draft→Published→Completed. Any
// other transition is rejected locally with a descriptive message and no
// request. The server stays authoritative: it may still reject a move the
// client allowed, which surfaces as an ordinary remote error.
func (s *AssignmentStore) UpdateStatus(ctx context.Context, id string, next model.AssignmentStatus) (*model.Assignment, error) {
	if !next.Valid() {
		return nil, fmt.Errorf("unknown assignment status %q", next)
	}
	s.mu.Lock()
	cur, ok := s.find(id)
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("assignment %s is not in the current list", id)
	}
	if !cur.Status.CanTransition(next) {
		return nil, fmt.Errorf("an assignment cannot move from %s to %s", cur.Status, next)
	}

	a, err := s.api.UpdateAssignmentStatus(ctx, id, next)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.err = err.Error()
		return nil, err
	}
	s.replace(*a)
	return a, nil
}

// requireDraft rejects mutation of anything but a locally known draft.
func (s *AssignmentStore) requireDraft(id, verb string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.find(id)
	if !ok {
		return fmt.Errorf("assignment %s is not in the current list", id)
	}
	if a.Status != model.StatusDraft {
		return fmt.Errorf("only draft assignments can be %s", verb)
	}
	return nil
}

// find looks up an assignment by id. Callers hold s.mu.
func (s *AssignmentStore) find(id string) (model.Assignment, bool) {
	for _, a := range s.assignments {
		if a.ID == id {
			return a, true
		}
	}
	return model.Assignment{}, false
}

// replace swaps the matching list entry for the server's copy. Callers hold s.mu.
func (s *AssignmentStore) replace(a model.Assignment) {
	for i := range s.assignments {
		if s.assignments[i].ID == a.ID {
			s.assignments[i] = a
			return
		}
	}
}
