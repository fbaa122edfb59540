package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitlog/apiserver/internal/handlers"
	"github.com/fitlog/apiserver/internal/logger"
	"github.com/fitlog/apiserver/internal/services"
	"github.com/fitlog/apiserver/internal/store/memory"
	"github.com/fitlog/apiserver/types"
)

type failingUsers struct {
	services.UserRepository
}

func (failingUsers) List(context.Context) ([]types.User, error) {
	return nil, context.DeadlineExceeded
}

func newRouter(repo services.UserRepository, exercises services.ExerciseRepository) http.Handler {
	users := services.NewUserService(repo)
	svc := services.NewExerciseService(users, exercises,
		services.WithClock(func() time.Time { return time.Date(2024, time.June, 3, 9, 0, 0, 0, time.UTC) }))

	r := chi.NewRouter()
	r.Use(handlers.RequestLogger(logger.NewNop()), handlers.CORS)
	r.Get("/healthz", handlers.Healthz)
	r.Route("/api/users", func(r chi.Router) {
		handlers.UserRouter(r, users, svc)
	})
	return r
}

func newTestRouter() http.Handler {
	store := memory.New()
	return newRouter(store.Users(), store.Exercises())
}

func postForm(t *testing.T, h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func createUser(t *testing.T, h http.Handler, name string) types.User {
	t.Helper()
	rec := postForm(t, h, "/api/users", url.Values{"username": {name}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[types.User](t, rec)
}

func TestCreateAndListUsers(t *testing.T) {
	h := newTestRouter()

	rec := get(t, h, "/api/users")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	alice := createUser(t, h, "alice")
	assert.NotEmpty(t, alice.ID)
	assert.Equal(t, "alice", alice.Username)

	rec = postForm(t, h, "/api/users", url.Values{"username": {"alice"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "User with that username already exists, please use a different one",
		decode[handlers.ErrorResponse](t, rec).Message)

	rec = postForm(t, h, "/api/users", url.Values{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Username cannot be empty", decode[handlers.ErrorResponse](t, rec).Message)

	createUser(t, h, "bob")
	rec = get(t, h, "/api/users")
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 2)
	assert.Equal(t, map[string]string{"id": alice.ID, "username": "alice"}, listed[0])
	assert.Equal(t, "bob", listed[1]["username"])
}

func TestCreateUserMultipart(t *testing.T) {
	h := newTestRouter()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("username", "carol"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/users", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "carol", decode[types.User](t, rec).Username)
}

func TestListUsersStoreFailure(t *testing.T) {
	store := memory.New()
	h := newRouter(failingUsers{UserRepository: store.Users()}, store.Exercises())

	rec := get(t, h, "/api/users")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "There was an error fetching users", decode[handlers.ErrorResponse](t, rec).Message)
}

func TestAddExerciseAndLogs(t *testing.T) {
	h := newTestRouter()
	alice := createUser(t, h, "alice")
	base := "/api/users/" + alice.ID

	rec := postForm(t, h, base+"/exercises", url.Values{
		"description": {"run"}, "duration": {"30"}, "date": {"2024-01-05"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"userId":"`+alice.ID+`","username":"alice","description":"run","duration":30,"date":"Fri Jan 05 2024"}`,
		rec.Body.String())

	rec = postForm(t, h, base+"/exercises", url.Values{
		"description": {"swim"}, "duration": {"45"}, "date": {"2024-01-10"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postForm(t, h, base+"/exercises", url.Values{
		"description": {"yoga"}, "duration": {"20"}, "date": {""},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Mon Jun 03 2024", decode[handlers.ExerciseResponse](t, rec).Date)

	rec = get(t, h, base+"/logs?from=2024-01-06&to=2024-01-31")
	require.Equal(t, http.StatusOK, rec.Code)
	logs := decode[handlers.LogResponse](t, rec)
	assert.Equal(t, "alice", logs.Username)
	assert.Equal(t, alice.ID, logs.UserID)
	assert.Equal(t, 1, logs.Count)
	require.Len(t, logs.Log, 1)
	assert.Equal(t, "swim", logs.Log[0].Description)
	assert.Equal(t, 45, logs.Log[0].Duration)
	assert.Equal(t, "Wed Jan 10 2024", logs.Log[0].Date)
	assert.NotEmpty(t, logs.Log[0].ID)

	rec = get(t, h, base+"/logs?limit=2")
	require.Equal(t, http.StatusOK, rec.Code)
	logs = decode[handlers.LogResponse](t, rec)
	assert.Equal(t, 3, logs.Count)
	require.Len(t, logs.Log, 2)
	assert.Equal(t, "run", logs.Log[0].Description)
	assert.Equal(t, "swim", logs.Log[1].Description)
}

func TestExerciseRouteErrors(t *testing.T) {
	h := newTestRouter()
	alice := createUser(t, h, "alice")

	tests := []struct {
		name string
		rec  *httptest.ResponseRecorder
		msg  string
	}{
		{
			name: "unknown user on append",
			rec:  postForm(t, h, "/api/users/nope/exercises", url.Values{"description": {"run"}, "duration": {"5"}}),
			msg:  "No user exists with that id",
		},
		{
			name: "zero duration",
			rec:  postForm(t, h, "/api/users/"+alice.ID+"/exercises", url.Values{"description": {"run"}, "duration": {"0"}}),
			msg:  "Duration must be at least 1 minute",
		},
		{
			name: "unknown user on logs",
			rec:  get(t, h, "/api/users/nope/logs"),
			msg:  "No user exists with that id",
		},
		{
			name: "no exercises",
			rec:  get(t, h, "/api/users/"+alice.ID+"/logs"),
			msg:  "No exercises fall under those criteria",
		},
		{
			name: "bad from",
			rec:  get(t, h, "/api/users/"+alice.ID+"/logs?from=soon"),
			msg:  "Please enter a valid from date",
		},
		{
			name: "bad limit",
			rec:  get(t, h, "/api/users/"+alice.ID+"/logs?limit=-3"),
			msg:  "Limit must be a positive whole number",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, tt.rec.Code)
			assert.Equal(t, tt.msg, decode[handlers.ErrorResponse](t, tt.rec).Message)
		})
	}
}

func TestBodyUserIDIsIgnored(t *testing.T) {
	h := newTestRouter()
	alice := createUser(t, h, "alice")
	bob := createUser(t, h, "bob")

	rec := postForm(t, h, "/api/users/"+alice.ID+"/exercises", url.Values{
		"_id": {bob.ID}, "userId": {bob.ID}, "description": {"run"}, "duration": {"10"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, alice.ID, decode[handlers.ExerciseResponse](t, rec).UserID)
}

func TestHealthzAndCORS(t *testing.T) {
	h := newTestRouter()

	rec := get(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	req := httptest.NewRequest(http.MethodOptions, "/api/users", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
