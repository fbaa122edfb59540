package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fitlog/apiserver/internal/services"
	"github.com/fitlog/apiserver/types"
)

const (
	formFieldUsername    = "username"
	formFieldDescription = "description"
	formFieldDuration    = "duration"
	formFieldDate        = "date"

	msgMalformedForm = "Request body could not be parsed"
)

// UserHandler serves the user registry and the per-user exercise routes.
type UserHandler struct {
	users     *services.UserService
	exercises *services.ExerciseService
}

func NewUserHandler(users *services.UserService, exercises *services.ExerciseService) *UserHandler {
	return &UserHandler{users: users, exercises: exercises}
}

// UserRouter registers user routes on the given router.
func UserRouter(r chi.Router, users *services.UserService, exercises *services.ExerciseService) {
	handler := NewUserHandler(users, exercises)

	r.Get("/", handler.ListUsers)
	r.Post("/", handler.CreateUser)
	r.Route("/{userID}", func(r chi.Router) {
		r.Get("/logs", handler.GetLogs)
		r.Post("/exercises", handler.AddExercise)
	})
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		writeError(w, http.StatusBadRequest, msgMalformedForm)
		return
	}

	user, err := h.users.Create(r.Context(), r.PostForm.Get(formFieldUsername))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// ExerciseResponse is returned after an exercise is appended.
type ExerciseResponse struct {
	UserID      string `json:"userId"`
	Username    string `json:"username"`
	Description string `json:"description"`
	Duration    int    `json:"duration"`
	Date        string `json:"date"`
}

func (h *UserHandler) AddExercise(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		writeError(w, http.StatusBadRequest, msgMalformedForm)
		return
	}

	exercise, err := h.exercises.Append(r.Context(), services.AppendExerciseInput{
		UserID:      chi.URLParam(r, "userID"),
		Description: r.PostForm.Get(formFieldDescription),
		Duration:    r.PostForm.Get(formFieldDuration),
		Date:        r.PostForm.Get(formFieldDate),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ExerciseResponse{
		UserID:      exercise.UserID,
		Username:    exercise.Username,
		Description: exercise.Description,
		Duration:    exercise.Duration,
		Date:        exercise.Date.String(),
	})
}

// LogEntry is one item of a LogResponse.
type LogEntry struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Duration    int    `json:"duration"`
	Date        string `json:"date"`
}

// LogResponse reports the total match count alongside the limited entries.
type LogResponse struct {
	Username string     `json:"username"`
	Count    int        `json:"count"`
	UserID   string     `json:"userId"`
	Log      []LogEntry `json:"log"`
}

func (h *UserHandler) GetLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	result, err := h.exercises.Log(r.Context(), services.LogQuery{
		UserID: chi.URLParam(r, "userID"),
		From:   query.Get("from"),
		To:     query.Get("to"),
		Limit:  query.Get("limit"),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newLogResponse(result))
}

func newLogResponse(result types.ExerciseLog) LogResponse {
	entries := make([]LogEntry, 0, len(result.Entries))
	for _, e := range result.Entries {
		entries = append(entries, LogEntry{
			ID:          e.ID,
			Description: e.Description,
			Duration:    e.Duration,
			Date:        e.Date.String(),
		})
	}
	return LogResponse{
		Username: result.User.Username,
		Count:    result.Count,
		UserID:   result.User.ID,
		Log:      entries,
	}
}
