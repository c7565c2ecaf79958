package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/app/scheduler"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/app/service"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/app/worker"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/common"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/common/security"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/domain/model"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/domain/repository"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/platform/codeforces"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/platform/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// codeforcesStub answers user.info, user.rating and user.status for "tourist" only.
func codeforcesStub(t *testing.T) *httptest.Server {
	t.Helper()
	solvedAt := time.Now().Add(-48 * time.Hour).Unix()
	ratedAt := time.Now().Add(-10 * 24 * time.Hour).Unix()

	results := map[string]string{
		"/user.info": `[{"handle":"tourist","rating":3800,"maxRating":3979,"rank":"legendary grandmaster","maxRank":"legendary grandmaster"}]`,
		"/user.rating": fmt.Sprintf(`[{"contestId":1900,"contestName":"Round 900","handle":"tourist","rank":1,`+
			`"ratingUpdateTimeSeconds":%d,"oldRating":3750,"newRating":3800}]`, ratedAt),
		"/user.status": fmt.Sprintf(`[{"id":1,"contestId":1900,"creationTimeSeconds":%d,`+
			`"problem":{"contestId":1900,"index":"A","name":"Warmup","rating":1200,"tags":["math"]},`+
			`"author":{"participantType":"CONTESTANT"},"verdict":"OK"}]`, solvedAt),
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handle := r.URL.Query().Get("handle")
		if handle == "" {
			handle = r.URL.Query().Get("handles")
		}
		result, ok := results[r.URL.Path]
		if !ok || handle != "tourist" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, `{"status":"FAILED","comment":"handle: User with handle %s not found"}`, handle)
			return
		}
		fmt.Fprintf(w, `{"status":"OK","result":%s}`, result)
	}))
	t.Cleanup(srv.Close)
	return srv
}

type testAPI struct {
	handler http.Handler
	store   *repository.MemoryStore
	tokens  *security.TokenIssuer
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	cf := codeforces.NewClient(codeforcesStub(t).URL, 5*time.Second)
	store := repository.NewMemoryStore()
	tokens := security.NewTokenIssuer([]byte("test-secret"), time.Hour)

	syncService := service.NewSyncService(cf, store, store, service.SyncConfig{Location: time.UTC})
	studentService := service.NewStudentService(store, store, syncService, time.UTC)
	reminderService := service.NewReminderService(store, nil, tokens, service.ReminderConfig{
		AppName:             "Tracker",
		InactivityThreshold: 7 * 24 * time.Hour,
		Cooldown:            24 * time.Hour,
	})
	w := worker.NewSyncWorker(syncService, reminderService, &worker.LocalLocker{}, worker.NewMemoryRunLog(20))
	sched, err := scheduler.New(w, "0 2 * * *", time.UTC)
	require.NoError(t, err)

	h := NewRouter(RouterConfig{}, studentService, syncService, reminderService, sched)
	return &testAPI{handler: h, store: store, tokens: tokens}
}

func (a *testAPI) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (a *testAPI) createTourist(t *testing.T) model.StudentWithActivity {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/v1/students",
		`{"name":"Gennady","email":"gennady@example.com","codeforces_handle":"tourist"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[model.StudentWithActivity](t, rec)
}

func TestHealth(t *testing.T) {
	a := newTestAPI(t)
	rec := a.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestStudentLifecycle(t *testing.T) {
	a := newTestAPI(t)
	created := a.createTourist(t)

	assert.Equal(t, "tourist", created.CodeforcesHandle)
	assert.True(t, created.EmailRemindersEnabled)
	require.NotNil(t, created.Activity, "create runs a synchronous sync")
	assert.Equal(t, 3800, created.Activity.CurrentRating)
	assert.Equal(t, "legendary-grandmaster", created.Activity.RankSlug)
	assert.Equal(t, 1, created.Activity.ProblemStats.TotalSolved)

	rec := a.do(t, http.MethodGet, "/api/v1/students", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]model.StudentWithActivity](t, rec)
	require.Len(t, list, 1)
	assert.NotNil(t, list[0].Activity)

	rec = a.do(t, http.MethodGet, "/api/v1/students/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.ID, decode[model.StudentWithActivity](t, rec).ID)

	rec = a.do(t, http.MethodGet, "/api/v1/students/codeforces/tourist", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tourist", decode[model.ActivityRecord](t, rec).Handle)

	rec = a.do(t, http.MethodPut, "/api/v1/students/"+created.ID,
		`{"name":"Gennady K.","email":"gk@example.com","codeforces_handle":"tourist"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Gennady K.", decode[model.StudentWithActivity](t, rec).Name)

	rec = a.do(t, http.MethodDelete, "/api/v1/students/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/v1/students/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	_, err := a.store.FindActivityByStudentID(context.Background(), created.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCreateStudent_Validation(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/api/v1/students", `{"email":"not-an-email","codeforces_handle":"x"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[common.ErrorResponse](t, rec)
	fields := map[string]bool{}
	for _, f := range resp.Fields {
		fields[f.Field] = true
	}
	assert.True(t, fields["name"])
	assert.True(t, fields["email"])
	assert.True(t, fields["codeforces_handle"])

	rec = a.do(t, http.MethodPost, "/api/v1/students", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	list, err := a.store.ListStudents(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list, "nothing is written on validation failure")
}

func TestCreateStudent_DuplicateHandle(t *testing.T) {
	a := newTestAPI(t)
	a.createTourist(t)

	rec := a.do(t, http.MethodPost, "/api/v1/students", `{"name":"Impostor","codeforces_handle":"tourist"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSyncStudent_UpstreamFailure(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/api/v1/students", `{"name":"Ghost","codeforces_handle":"no_such_user"}`)
	require.Equal(t, http.StatusCreated, rec.Code, "create succeeds even when the first sync fails")
	ghost := decode[model.StudentWithActivity](t, rec)
	assert.Nil(t, ghost.Activity)

	rec = a.do(t, http.MethodPost, "/api/v1/students/"+ghost.ID+"/sync-codeforces", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/v1/students/missing/sync-codeforces", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestActivityWindows(t *testing.T) {
	a := newTestAPI(t)
	created := a.createTourist(t)

	rec := a.do(t, http.MethodGet, "/api/v1/students/"+created.ID+"/contests", "")
	require.Equal(t, http.StatusOK, rec.Code)
	contests := decode[service.ContestWindow](t, rec)
	assert.Equal(t, 1, contests.TotalContests)

	rec = a.do(t, http.MethodGet, "/api/v1/students/"+created.ID+"/problems?days=7", "")
	require.Equal(t, http.StatusOK, rec.Code)
	problems := decode[service.ProblemWindow](t, rec)
	assert.Equal(t, 1, problems.TotalSolved)
	assert.Len(t, problems.DailyActivity, 7)

	for _, q := range []string{"?days=abc", "?days=0"} {
		rec = a.do(t, http.MethodGet, "/api/v1/students/"+created.ID+"/problems"+q, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestReminderEndpoints(t *testing.T) {
	a := newTestAPI(t)
	created := a.createTourist(t)
	base := "/api/v1/reminders"

	for _, body := range []string{`{}`, `{"enabled":"no"}`, `{"enabled":1}`, ``} {
		rec := a.do(t, http.MethodPatch, base+"/toggle/"+created.ID, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}

	rec := a.do(t, http.MethodPatch, base+"/toggle/"+created.ID, `{"enabled":false}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodGet, base+"/stats/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[model.ReminderStats](t, rec).EmailRemindersEnabled)

	rec = a.do(t, http.MethodPatch, base+"/toggle/unknown", `{"enabled":true}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(t, http.MethodPost, base+"/reset-count/"+created.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodPost, base+"/check-now", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "no mail transport configured")

	rec = a.do(t, http.MethodGet, base+"/email-config", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[model.EmailConfigStatus](t, rec).Configured)

	rec = a.do(t, http.MethodGet, base+"/students", "")
	require.Equal(t, http.StatusOK, rec.Code)
	views := decode[[]model.StudentReminderView](t, rec)
	require.Len(t, views, 1)
	require.NotNil(t, views[0].DaysSinceLastSubmission)
	assert.Equal(t, 2, *views[0].DaysSinceLastSubmission)
	assert.False(t, views[0].IsInactive)
}

func TestUnsubscribe(t *testing.T) {
	a := newTestAPI(t)
	created := a.createTourist(t)

	token, err := a.tokens.GenerateUnsubscribeToken(created.ID)
	require.NoError(t, err)

	rec := a.do(t, http.MethodGet, "/api/v1/reminders/unsubscribe?token="+token, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	st, err := a.store.FindStudentByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.False(t, st.EmailRemindersEnabled)

	rec = a.do(t, http.MethodGet, "/api/v1/reminders/unsubscribe?token=garbage", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = a.do(t, http.MethodGet, "/api/v1/reminders/unsubscribe", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScheduleEndpoints(t *testing.T) {
	a := newTestAPI(t)
	base := "/api/v1/settings/cron"

	rec := a.do(t, http.MethodGet, base+"/current", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0 2 * * *", decode[scheduler.Status](t, rec).Schedule)

	rec = a.do(t, http.MethodPost, base+"/set", `{"schedule":"every morning"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = a.do(t, http.MethodPost, base+"/set", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodGet, base+"/current", "")
	assert.Equal(t, "0 2 * * *", decode[scheduler.Status](t, rec).Schedule, "invalid input keeps the schedule")

	rec = a.do(t, http.MethodPost, base+"/set", `{"schedule":"30 6 * * 1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "30 6 * * 1", decode[scheduler.Status](t, rec).Schedule)

	rec = a.do(t, http.MethodGet, base+"/runs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}
