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

// SubmissionStore holds the student's own submissions, the teacher's
// per-assignment view, and the cached analytics snapshot.
//
// The "mine" and assignment-scoped lists are deliberately independent:
// each is fetched and mutated on its own, so a teacher review never
// touches the "mine" slice and the student view refetches instead.
type SubmissionStore struct {
	mu  sync.Mutex
	api *api.Client

	mine      []model.Submission
	scoped    []model.Submission
	analytics *model.Analytics
	state     FetchState
	err       string
	submitted bool
	mineSeq   uint64
	scopedSeq uint64
}

func newSubmissionStore(client *api.Client) *SubmissionStore {
	return &SubmissionStore{api: client}
}

// Mine returns a snapshot of the student's own submissions.
func (s *SubmissionStore) Mine() []model.Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Submission, len(s.mine))
	copy(out, s.mine)
	return out
}

// ForAssignment returns a snapshot of the assignment-scoped list.
func (s *SubmissionStore) ForAssignment() []model.Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Submission, len(s.scoped))
	copy(out, s.scoped)
	return out
}

// Analytics returns the last fetched analytics snapshot, or nil.
func (s *SubmissionStore) Analytics() *model.Analytics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analytics
}

// Success reports the one-shot submission flag. It stays raised until the
// caller acknowledges it with ClearSuccess.
func (s *SubmissionStore) Success() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitted
}

// ClearSuccess acknowledges the submission flag.
func (s *SubmissionStore) ClearSuccess() {
	s.mu.Lock()
	s.submitted = false
	s.mu.Unlock()
}

// State returns the fetch state of the submission slice.
func (s *SubmissionStore) State() FetchState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the last remote error, or empty string.
func (s *SubmissionStore) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// ClearError clears the last error.
func (s *SubmissionStore) ClearError() {
	s.mu.Lock()
	s.err = ""
	s.mu.Unlock()
}

// ClearAssignmentSubmissions discards the assignment-scoped list. Called
// when leaving that view so stale data cannot leak into the next one.
func (s *SubmissionStore) ClearAssignmentSubmissions() {
	s.mu.Lock()
	s.scoped = nil
	s.mu.Unlock()
}

// submitInput is the validated shape of a new answer.
type submitInput struct {
	Answer string `json:"answer" validate:"required,notblank,max=5000"`
}

// Submit checks the local preconditions and submits an answer for the given
// assignment. The assignment must not be overdue and the student must not
// already have a local submission for it; these are conveniences, the
// server remains authoritative. On success the new submission is appended
// to "mine" and the one-shot success flag is raised.
func (s *SubmissionStore) Submit(ctx context.Context, assignment model.Assignment, answer string) (*model.Submission, error) {
	if err := validate.Check(submitInput{Answer: answer}); err != nil {
		return nil, err
	}
	if assignment.Overdue(time.Now()) {
		return nil, fmt.Errorf("assignment %q is overdue", assignment.Title)
	}
	s.mu.Lock()
	for _, sub := range s.mine {
		if sub.AssignmentID == assignment.ID {
			s.mu.Unlock()
			return nil, fmt.Errorf("you have already submitted an answer for %q", assignment.Title)
		}
	}
	s.state = StateLoading
	s.err = ""
	s.submitted = false
	s.mu.Unlock()

	sub, err := s.api.CreateSubmission(ctx, assignment.ID, answer)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateFailed
		s.err = err.Error()
		return nil, err
	}
	s.state = StateSucceeded
	s.mine = append(s.mine, *sub)
	s.submitted = true
	return sub, nil
}

// ListMine replaces the full "mine" list from the server. Sequence-guarded;
// a stale response is dropped and ListMine returns nil.
func (s *SubmissionStore) ListMine(ctx context.Context) error {
	s.mu.Lock()
	s.state = StateLoading
	s.err = ""
	s.mineSeq++
	ticket := s.mineSeq
	s.mu.Unlock()

	subs, err := s.api.MySubmissions(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if ticket != s.mineSeq {
		slog.Debug("discarding stale my-submissions response", "ticket", ticket, "latest", s.mineSeq)
		return nil
	}
	if err != nil {
		s.state = StateFailed
		s.err = err.Error()
		return err
	}
	s.state = StateSucceeded
	s.mine = subs
	return nil
}

// ListForAssignment replaces the assignment-scoped list from the server.
// Sequence-guarded like ListMine.
func (s *SubmissionStore) ListForAssignment(ctx context.Context, assignmentID string) error {
	s.mu.Lock()
	s.state = StateLoading
	s.err = ""
	s.scopedSeq++
	ticket := s.scopedSeq
	s.mu.Unlock()

	subs, err := s.api.SubmissionsByAssignment(ctx, assignmentID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if ticket != s.scopedSeq {
		slog.Debug("discarding stale assignment submissions response", "ticket", ticket, "latest", s.scopedSeq)
		return nil
	}
	if err != nil {
		s.state = StateFailed
		s.err = err.Error()
		return err
	}
	s.state = StateSucceeded
	s.scoped = subs
	return nil
}

// reviewInput is the validated shape of a review.
type reviewInput struct {
	Grade *float64 `json:"grade" validate:"omitempty,gte=0,lte=100"`
}

// Review attaches a grade and/or feedback to a submission. The grade, when
// present, must be a finite number in [0,100]; that is checked before any
// request. On success only the assignment-scoped entry is patched — the
// "mine" list is refetched independently by the student view.
func (s *SubmissionStore) Review(ctx context.Context, submissionID string, grade *float64, feedback *string) error {
	if err := validate.Check(reviewInput{Grade: grade}); err != nil {
		return err
	}

	res, err := s.api.ReviewSubmission(ctx, submissionID, grade, feedback)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.err = err.Error()
		return err
	}
	for i := range s.scoped {
		if s.scoped[i].ID == res.SubmissionID {
			s.scoped[i].Reviewed = true
			s.scoped[i].Grade = res.Grade
			s.scoped[i].Feedback = res.Feedback
			break
		}
	}
	return nil
}

// FetchAnalytics replaces the cached analytics snapshot wholesale. Nothing
// else refreshes it; a review does not invalidate the cache.
func (s *SubmissionStore) FetchAnalytics(ctx context.Context) error {
	a, err := s.api.Analytics(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.err = err.Error()
		return err
	}
	s.analytics = a
	return nil
}
