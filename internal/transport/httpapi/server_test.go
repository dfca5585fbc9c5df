package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homehub/internal/auth"
	"homehub/internal/cache"
	"homehub/internal/dispatch"
	"homehub/internal/model"
	"homehub/internal/runner"
	"homehub/internal/scrape"
	"homehub/internal/storage"
	"homehub/internal/store"
	logx "homehub/pkg/logx"
)

type recordingSender struct {
	sent []string
}

func (r *recordingSender) Send(_ context.Context, deviceKey, body, title string) error {
	r.sent = append(r.sent, deviceKey+"|"+title+"|"+body)
	return nil
}

type testSchedules struct {
	crontabs  *store.CrontabStore
	intervals *store.IntervalStore
}

func (s testSchedules) Crontab(ctx context.Context, id int64) (model.CrontabSchedule, error) {
	return s.crontabs.Get(ctx, id)
}

func (s testSchedules) Interval(ctx context.Context, id int64) (model.IntervalSchedule, error) {
	return s.intervals.Get(ctx, id)
}

type testEnv struct {
	ts     *httptest.Server
	sender *recordingSender
	run    *runner.Service

	adminToken string
	userToken  string
	userID     int64
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := storage.Open(storage.Config{Path: ":memory:"}, logx.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	users := store.NewUserStore(db)
	foods := store.NewFoodStore(db)
	ingredients := store.NewIngredientStore(db)
	crontabs := store.NewCrontabStore(db)
	intervals := store.NewIntervalStore(db)

	ctx := context.Background()
	_, err = users.Save(ctx, store.UserInput{Username: "admin", Password: "adminpw", IsAdmin: true})
	require.NoError(t, err)
	userID, err := users.Save(ctx, store.UserInput{Username: "member", Password: "memberpw"})
	require.NoError(t, err)

	authSvc := auth.New(auth.Config{}, users, cache.New(), logx.Nop())
	run := runner.New(runner.Config{}, logx.Nop())
	t.Cleanup(func() { run.Stop(context.Background()) })

	registry := runner.NewRegistry()
	registry.Register("jobs.daily_menu", "daily menu suggestion push",
		func(context.Context) error { return nil })

	sender := &recordingSender{}
	dispatcher := dispatch.New(run, registry,
		testSchedules{crontabs: crontabs, intervals: intervals}, logx.Nop())
	scraper := scrape.New(scrape.Config{}, foods, ingredients, logx.Nop())

	srv := NewServer(Config{StaticDir: t.TempDir()}, logx.Nop(), authSvc,
		Stores{
			Users:       users,
			Events:      store.NewEventStore(db),
			Foods:       foods,
			Cates:       store.NewCateStore(db),
			Ingredients: ingredients,
			Crontabs:    crontabs,
			Intervals:   intervals,
			Tasks:       store.NewTaskStore(db),
		}, dispatcher, registry, sender, scraper, nil)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	env := &testEnv{ts: ts, sender: sender, run: run, userID: userID}
	env.adminToken = env.login(t, "admin", "adminpw")
	env.userToken = env.login(t, "member", "memberpw")
	return env
}

func (e *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()
	env := e.post(t, "", "/login", map[string]string{"username": username, "password": password})
	require.Equal(t, codeSuccess, env.Code)
	data := env.dataMap(t)
	token, _ := data["token"].(string)
	require.NotEmpty(t, token)
	return token
}

type testEnvelope struct {
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Total   *int            `json:"total"`
}

func (env testEnvelope) dataMap(t *testing.T) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &m))
	return m
}

func (e *testEnv) do(t *testing.T, method, token, path string, body any) testEnvelope {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.ts.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("token", token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env testEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

func (e *testEnv) post(t *testing.T, token, path string, body any) testEnvelope {
	return e.do(t, http.MethodPost, token, path, body)
}

func (e *testEnv) get(t *testing.T, token, path string) testEnvelope {
	return e.do(t, http.MethodGet, token, path, nil)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)
	env := e.post(t, "", "/login", map[string]string{"username": "admin", "password": "wrong"})
	assert.Equal(t, codeFail, env.Code)
	assert.Equal(t, "wrong username or password", env.Message)
}

func TestMissingTokenIsUnauthorized(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)
	env := e.get(t, "", "/events")
	assert.Equal(t, codeUnauthorized, env.Code)
}

func TestAdminGate(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)

	env := e.get(t, e.userToken, "/users")
	assert.Equal(t, codeFail, env.Code)
	assert.Equal(t, "insufficient permissions", env.Message)

	env = e.get(t, e.adminToken, "/users")
	assert.Equal(t, codeSuccess, env.Code)
	require.NotNil(t, env.Total)
	assert.Equal(t, 2, *env.Total)
}

func TestLogoutInvalidatesToken(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)

	env := e.post(t, e.userToken, "/logout", nil)
	assert.Equal(t, codeSuccess, env.Code)

	env = e.get(t, e.userToken, "/events")
	assert.Equal(t, codeUnauthorized, env.Code)
}

func TestEventOwnerScoping(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)

	env := e.post(t, e.userToken, "/events/save", map[string]any{
		"name": "dentist", "target_date": "2026-09-20", "status": "1",
	})
	require.Equal(t, codeSuccess, env.Code)

	env = e.post(t, e.adminToken, "/events/save", map[string]any{
		"name": "servicing", "target_date": "2026-09-25", "status": "1",
	})
	require.Equal(t, codeSuccess, env.Code)

	env = e.get(t, e.userToken, "/events")
	require.Equal(t, codeSuccess, env.Code)
	require.NotNil(t, env.Total)
	assert.Equal(t, 1, *env.Total)

	env = e.get(t, e.adminToken, "/events")
	require.NotNil(t, env.Total)
	assert.Equal(t, 2, *env.Total)
}

func TestEventSaveRejectsBadDate(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)
	env := e.post(t, e.userToken, "/events/save", map[string]any{
		"name": "bad", "target_date": "someday", "status": "1",
	})
	assert.Equal(t, codeFail, env.Code)
	assert.Equal(t, "target_date must be YYYY-MM-DD", env.Message)
}

func TestCrontabSaveAndList(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)

	env := e.post(t, e.adminToken, "/crontab/save", map[string]any{"schedule": "5 4 * * *"})
	require.Equal(t, codeSuccess, env.Code)

	env = e.post(t, e.adminToken, "/crontab/save", map[string]any{"schedule": "not cron"})
	assert.Equal(t, codeFail, env.Code)

	env = e.get(t, e.adminToken, "/crontab")
	require.Equal(t, codeSuccess, env.Code)
	var rows []crontabRow
	require.NoError(t, json.Unmarshal(env.Data, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "5 4 * * *", rows[0].Schedule)
}

func TestTaskSaveDispatches(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)

	env := e.post(t, e.adminToken, "/interval/save", map[string]any{"every": 2, "period": "hours"})
	require.Equal(t, codeSuccess, env.Code)
	intervalID := env.dataMap(t)["id"].(float64)

	env = e.post(t, e.adminToken, "/tasks/save", map[string]any{
		"name":          "menu push",
		"task_type":     "jobs.daily_menu",
		"schedule_type": "interval",
		"is_active":     true,
		"interval_id":   intervalID,
	})
	require.Equal(t, codeSuccess, env.Code)
	assert.Equal(t, "task added", env.Message)
	assert.Contains(t, e.run.Registered(), "task-menu push")
}

func TestTaskSaveCommitsRowEvenWhenDispatchFails(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)

	env := e.post(t, e.adminToken, "/tasks/save", map[string]any{
		"name":          "ghost",
		"task_type":     "jobs.unknown",
		"schedule_type": "interval",
		"is_active":     true,
	})
	assert.Equal(t, codeFail, env.Code)
	assert.Equal(t, "task not found", env.Message)

	// The row survived the failed dispatch.
	env = e.get(t, e.adminToken, "/tasks")
	require.Equal(t, codeSuccess, env.Code)
	require.NotNil(t, env.Total)
	assert.Equal(t, 1, *env.Total)
}

func TestTaskRegistryList(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)

	env := e.get(t, e.adminToken, "/tasks/list")
	require.Equal(t, codeSuccess, env.Code)
	var rows []registryRow
	require.NoError(t, json.Unmarshal(env.Data, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "jobs.daily_menu", rows[0].Name)
}

func TestMsgSend(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)

	// No device key yet.
	env := e.post(t, e.adminToken, "/msg/send", map[string]any{
		"user_id": e.userID, "title": "hi", "body": "test",
	})
	assert.Equal(t, codeFail, env.Code)
	assert.Equal(t, "user has no device key", env.Message)
	assert.Empty(t, e.sender.sent)

	// Attach a device key through the user save endpoint, then the push
	// goes out.
	env = e.post(t, e.adminToken, "/users/save", map[string]any{
		"id": e.userID, "username": "member", "device_key": "dev-m",
	})
	require.Equal(t, codeSuccess, env.Code)

	env = e.post(t, e.adminToken, "/msg/send", map[string]any{
		"user_id": e.userID, "title": "hi", "body": "test",
	})
	assert.Equal(t, codeSuccess, env.Code)
	require.Len(t, e.sender.sent, 1)
	assert.Equal(t, "dev-m|hi|test", e.sender.sent[0])
}

func TestCateCRUD(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)

	env := e.post(t, e.userToken, "/cate/save", map[string]any{"name": "soup"})
	require.Equal(t, codeSuccess, env.Code)
	id := env.dataMap(t)["id"].(float64)

	env = e.get(t, e.userToken, "/cate")
	require.NotNil(t, env.Total)
	assert.Equal(t, 1, *env.Total)

	env = e.post(t, e.userToken, "/cate/del", map[string]any{"id": id})
	assert.Equal(t, codeSuccess, env.Code)

	env = e.post(t, e.userToken, "/cate/del", map[string]any{"id": id})
	assert.Equal(t, codeFail, env.Code)
}
