// Package demo is an in-memory stand-in for the portal backend. It exists
// for local development (`classdesk demo`) and doubles as the HTTP fixture
// in tests. It is not the production server and keeps nothing on disk.
package demo

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/crypto/bcrypt"

	"github.com/avilkin/classdesk/internal/model"
)

type account struct {
	user         model.User
	passwordHash []byte
}

// Server holds the in-memory portal state.
type Server struct {
	mu          sync.Mutex
	accounts    map[string]*account // keyed by email
	tokens      map[string]string   // token -> email
	assignments []model.Assignment
	submissions []model.Submission
	nextID      int
}

// New creates a demo portal seeded with the two demo accounts and the
// sample assignments, owned by the demo teacher and already published.
func New() (*Server, error) {
	s := &Server{
		accounts: make(map[string]*account),
		tokens:   make(map[string]string),
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}
	teacher := s.addAccount("Demo Teacher", TeacherEmail, model.RoleTeacher, hash)
	s.addAccount("Demo Student", StudentEmail, model.RoleStudent, hash)

	now := time.Now()
	for _, seed := range seedAssignments {
		s.assignments = append(s.assignments, model.Assignment{
			ID:          s.newID("a"),
			Title:       seed.title,
			Description: seed.description,
			DueDate:     now.Add(seed.dueIn),
			Status:      model.StatusPublished,
			CreatedBy:   teacher.user.ID,
			CreatedAt:   now,
		})
	}
	return s, nil
}

func (s *Server) addAccount(name, email string, role model.Role, hash []byte) *account {
	acc := &account{
		user: model.User{
			ID:    s.newID("u"),
			Name:  name,
			Email: email,
			Role:  role,
		},
		passwordHash: hash,
	}
	s.accounts[email] = acc
	return acc
}

func (s *Server) newID(prefix string) string {
	s.nextID++
	return prefix + strconv.Itoa(s.nextID)
}

// Handler returns the portal's HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/register", s.handleRegister)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Get("/assignments", s.handleListAssignments)
		r.Get("/assignments/{id}", s.handleGetAssignment)
		r.With(s.requireRole(model.RoleTeacher)).Post("/assignments", s.handleCreateAssignment)
		r.With(s.requireRole(model.RoleTeacher)).Put("/assignments/{id}", s.handleUpdateAssignment)
		r.With(s.requireRole(model.RoleTeacher)).Delete("/assignments/{id}", s.handleDeleteAssignment)
		r.With(s.requireRole(model.RoleTeacher)).Put("/assignments/{id}/status", s.handleUpdateStatus)

		r.With(s.requireRole(model.RoleStudent)).Post("/submissions", s.handleCreateSubmission)
		r.With(s.requireRole(model.RoleStudent)).Get("/submissions/my-submissions", s.handleMySubmissions)
		r.With(s.requireRole(model.RoleTeacher)).Get("/submissions/{assignmentId}", s.handleSubmissionsByAssignment)
		r.With(s.requireRole(model.RoleTeacher)).Put("/submissions/{id}/review", s.handleReview)

		r.With(s.requireRole(model.RoleTeacher)).Get("/analytics", s.handleAnalytics)
	})

	return r
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, code int, data any) {
	writeJSON(w, code, map[string]any{"data": data})
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"message": message})
}

type userCtxKey struct{}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if len(auth) <= len(prefix) || auth[:len(prefix)] != prefix {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		s.mu.Lock()
		email, ok := s.tokens[auth[len(prefix):]]
		var user model.User
		if ok {
			user = s.accounts[email].user
		}
		s.mu.Unlock()
		if !ok {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		ctx := contextWithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireRole(role model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userFromRequest(r).Role != role {
				writeError(w, http.StatusForbidden, "You do not have access to this resource")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	acc, ok := s.accounts[req.Email]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	s.issueToken(w, acc)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string     `json:"name"`
		Email    string     `json:"email"`
		Password string     `json:"password"`
		Role     model.Role `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Name, email and password are required")
		return
	}
	if !req.Role.Valid() {
		writeError(w, http.StatusBadRequest, "Role must be teacher or student")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	s.mu.Lock()
	if _, exists := s.accounts[req.Email]; exists {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "An account with this email already exists")
		return
	}
	acc := s.addAccount(req.Name, req.Email, req.Role, hash)
	s.mu.Unlock()

	s.issueToken(w, acc)
}

func (s *Server) issueToken(w http.ResponseWriter, acc *account) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		writeError(w, http.StatusInternalServerError, "Token generation failed")
		return
	}
	token := hex.EncodeToString(b)

	s.mu.Lock()
	s.tokens[token] = acc.user.Email
	s.mu.Unlock()

	writeData(w, http.StatusOK, map[string]any{
		"token":  token,
		"role":   acc.user.Role,
		"name":   acc.user.Name,
		"email":  acc.user.Email,
		"userId": acc.user.ID,
	})
}

func (s *Server) handleListAssignments(w http.ResponseWriter, r *http.Request) {
	user := userFromRequest(r)
	status := model.AssignmentStatus(r.URL.Query().Get("status"))
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = 10
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []model.Assignment
	for _, a := range s.assignments {
		// Students never see drafts.
		if user.Role == model.RoleStudent && a.Status == model.StatusDraft {
			continue
		}
		if status != "" && a.Status != status {
			continue
		}
		matched = append(matched, a)
	}

	total := len(matched)
	totalPages := (total + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data": matched[start:end],
		"pagination": model.Pagination{
			CurrentPage:      page,
			TotalPages:       totalPages,
			TotalAssignments: total,
			HasNext:          page < totalPages,
			HasPrev:          page > 1,
		},
	})
}

func (s *Server) handleGetAssignment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.assignments {
		if a.ID == id {
			writeData(w, http.StatusOK, a)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Assignment not found")
}

func (s *Server) handleCreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       string    `json:"title"`
		Description string    `json:"description"`
		DueDate     time.Time `json:"dueDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Title == "" || req.Description == "" {
		writeError(w, http.StatusBadRequest, "Title and description are required")
		return
	}
	if !req.DueDate.After(time.Now()) {
		writeError(w, http.StatusBadRequest, "Due date must be in the future")
		return
	}

	s.mu.Lock()
	a := model.Assignment{
		ID:          s.newID("a"),
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Status:      model.StatusDraft,
		CreatedBy:   userFromRequest(r).ID,
		CreatedAt:   time.Now(),
	}
	s.assignments = append(s.assignments, a)
	s.mu.Unlock()

	writeData(w, http.StatusCreated, a)
}

func (s *Server) handleUpdateAssignment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Title       *string    `json:"title"`
		Description *string    `json:"description"`
		DueDate     *time.Time `json:"dueDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.assignments {
		if s.assignments[i].ID != id {
			continue
		}
		if s.assignments[i].Status != model.StatusDraft {
			writeError(w, http.StatusConflict, "Only draft assignments can be edited")
			return
		}
		if req.Title != nil {
			s.assignments[i].Title = *req.Title
		}
		if req.Description != nil {
			s.assignments[i].Description = *req.Description
		}
		if req.DueDate != nil {
			s.assignments[i].DueDate = *req.DueDate
		}
		writeData(w, http.StatusOK, s.assignments[i])
		return
	}
	writeError(w, http.StatusNotFound, "Assignment not found")
}

func (s *Server) handleDeleteAssignment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.assignments {
		if s.assignments[i].ID != id {
			continue
		}
		if s.assignments[i].Status != model.StatusDraft {
			writeError(w, http.StatusConflict, "Only draft assignments can be deleted")
			return
		}
		s.assignments = append(s.assignments[:i], s.assignments[i+1:]...)
		writeData(w, http.StatusOK, map[string]string{"id": id})
		return
	}
	writeError(w, http.StatusNotFound, "Assignment not found")
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Status model.AssignmentStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.assignments {
		if s.assignments[i].ID != id {
			continue
		}
		if !s.assignments[i].Status.CanTransition(req.Status) {
			writeError(w, http.StatusConflict,
				fmt.Sprintf("Cannot move an assignment from %s to %s", s.assignments[i].Status, req.Status))
			return
		}
		s.assignments[i].Status = req.Status
		writeData(w, http.StatusOK, s.assignments[i])
		return
	}
	writeError(w, http.StatusNotFound, "Assignment not found")
}

func (s *Server) handleCreateSubmission(w http.ResponseWriter, r *http.Request) {
	user := userFromRequest(r)
	var req struct {
		AssignmentID string `json:"assignmentId"`
		Answer       string `json:"answer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Answer == "" {
		writeError(w, http.StatusBadRequest, "Answer is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var assignment *model.Assignment
	for i := range s.assignments {
		if s.assignments[i].ID == req.AssignmentID {
			assignment = &s.assignments[i]
			break
		}
	}
	if assignment == nil {
		writeError(w, http.StatusNotFound, "Assignment not found")
		return
	}
	if assignment.Status != model.StatusPublished {
		writeError(w, http.StatusConflict, "This assignment is not accepting submissions")
		return
	}
	if time.Now().After(assignment.DueDate) {
		writeError(w, http.StatusConflict, "This assignment is overdue")
		return
	}
	for _, sub := range s.submissions {
		if sub.AssignmentID == req.AssignmentID && sub.StudentEmail == user.Email {
			writeError(w, http.StatusConflict, "You have already submitted an answer for this assignment")
			return
		}
	}

	sub := model.Submission{
		ID:           s.newID("s"),
		AssignmentID: req.AssignmentID,
		StudentName:  user.Name,
		StudentEmail: user.Email,
		Answer:       req.Answer,
		SubmittedAt:  time.Now(),
	}
	s.submissions = append(s.submissions, sub)
	writeData(w, http.StatusCreated, sub)
}

func (s *Server) handleMySubmissions(w http.ResponseWriter, r *http.Request) {
	user := userFromRequest(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	mine := []model.Submission{}
	for _, sub := range s.submissions {
		if sub.StudentEmail == user.Email {
			mine = append(mine, sub)
		}
	}
	writeData(w, http.StatusOK, mine)
}

func (s *Server) handleSubmissionsByAssignment(w http.ResponseWriter, r *http.Request) {
	assignmentID := chi.URLParam(r, "assignmentId")
	s.mu.Lock()
	defer s.mu.Unlock()
	scoped := []model.Submission{}
	for _, sub := range s.submissions {
		if sub.AssignmentID == assignmentID {
			scoped = append(scoped, sub)
		}
	}
	writeData(w, http.StatusOK, scoped)
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Grade    *float64 `json:"grade"`
		Feedback *string  `json:"feedback"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Grade != nil && (*req.Grade < 0 || *req.Grade > 100) {
		writeError(w, http.StatusBadRequest, "Grade must be between 0 and 100")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.submissions {
		if s.submissions[i].ID != id {
			continue
		}
		s.submissions[i].Reviewed = true
		s.submissions[i].Grade = req.Grade
		s.submissions[i].Feedback = req.Feedback
		writeData(w, http.StatusOK, map[string]any{
			"submissionId": id,
			"grade":        req.Grade,
			"feedback":     req.Feedback,
		})
		return
	}
	writeError(w, http.StatusNotFound, "Submission not found")
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	overview := model.AnalyticsOverview{TotalAssignments: len(s.assignments)}
	rows := make([]model.AssignmentAnalytics, 0, len(s.assignments))
	for _, a := range s.assignments {
		if a.Status == model.StatusPublished {
			overview.PublishedAssignments++
		}
		row := model.AssignmentAnalytics{
			AssignmentID: a.ID,
			Title:        a.Title,
			Status:       a.Status,
		}
		var gradeSum float64
		var graded int
		for _, sub := range s.submissions {
			if sub.AssignmentID != a.ID {
				continue
			}
			row.SubmissionCount++
			if sub.Reviewed {
				row.ReviewedCount++
			}
			if sub.Grade != nil {
				gradeSum += *sub.Grade
				graded++
			}
		}
		if graded > 0 {
			avg := gradeSum / float64(graded)
			row.AverageGrade = &avg
		}
		overview.TotalSubmissions += row.SubmissionCount
		overview.ReviewedSubmissions += row.ReviewedCount
		rows = append(rows, row)
	}

	writeData(w, http.StatusOK, model.Analytics{
		Overview:            overview,
		AssignmentAnalytics: rows,
	})
}
