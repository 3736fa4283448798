package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"timelog/internal/db"
	"timelog/internal/handler"
	"timelog/internal/logging"
	"timelog/internal/recovery"
	"timelog/internal/repository"
	"timelog/internal/router"
	"timelog/internal/service"
	"timelog/internal/validate"
)

type activityEnvelope struct {
	Activity struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"activity"`
}

type sessionEnvelope struct {
	Session *struct {
		ID           string `json:"id"`
		ActivityName string `json:"activityName"`
		Status       string `json:"status"`
		EntryType    string `json:"entryType"`
		Duration     *int64 `json:"duration"`
		PauseHistory []struct {
			PauseTime  string  `json:"pauseTime"`
			ResumeTime *string `json:"resumeTime"`
		} `json:"pauseHistory"`
	} `json:"session"`
}

type sessionsEnvelope struct {
	Sessions []struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"sessions"`
}

type apiErrorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			Field string `json:"field"`
		} `json:"details"`
	} `json:"error"`
}

func TestTimerFlow(t *testing.T) {
	engine := setupTestEngine(t, "")
	activityID := createActivity(t, engine, "", "Reading")

	status, raw := requestJSON(t, engine, http.MethodGet, "/api/sessions/timer/current", "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 for current timer, got %d", status)
	}
	if current := decodeSession(t, raw); current.Session != nil {
		t.Fatalf("expected no running timer, got %s", current.Session.ID)
	}

	status, raw = requestJSON(t, engine, http.MethodPost, "/api/sessions/timer/start", "", map[string]string{
		"activityId": activityID,
	})
	if status != http.StatusCreated {
		t.Fatalf("expected 201 on start, got %d: %s", status, string(raw))
	}
	started := decodeSession(t, raw)
	if started.Session.Status != "active" || started.Session.ActivityName != "Reading" {
		t.Fatalf("unexpected started session: %+v", started.Session)
	}
	id := started.Session.ID

	status, raw = requestJSON(t, engine, http.MethodPost, "/api/sessions/timer/start", "", map[string]string{
		"activityId": activityID,
	})
	expectError(t, status, raw, http.StatusConflict, "timer_already_running")

	status, raw = requestJSON(t, engine, http.MethodPost, "/api/sessions/"+id+"/pause", "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on pause, got %d: %s", status, string(raw))
	}
	paused := decodeSession(t, raw)
	if paused.Session.Status != "paused" || len(paused.Session.PauseHistory) != 1 {
		t.Fatalf("unexpected paused session: %+v", paused.Session)
	}
	if paused.Session.PauseHistory[0].ResumeTime != nil {
		t.Fatal("expected open pause interval")
	}

	status, raw = requestJSON(t, engine, http.MethodPost, "/api/sessions/"+id+"/pause", "", nil)
	expectError(t, status, raw, http.StatusUnprocessableEntity, "already_paused")

	status, raw = requestJSON(t, engine, http.MethodPost, "/api/sessions/"+id+"/heartbeat", "", nil)
	expectError(t, status, raw, http.StatusUnprocessableEntity, "session_paused")

	status, raw = requestJSON(t, engine, http.MethodPost, "/api/sessions/"+id+"/resume", "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on resume, got %d: %s", status, string(raw))
	}

	status, raw = requestJSON(t, engine, http.MethodPost, "/api/sessions/"+id+"/heartbeat", "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on heartbeat, got %d: %s", status, string(raw))
	}

	status, raw = requestJSON(t, engine, http.MethodPost, "/api/sessions/"+id+"/recover", "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on recover, got %d: %s", status, string(raw))
	}
	var view struct {
		Outcome string `json:"outcome"`
	}
	if err := json.Unmarshal(raw, &view); err != nil {
		t.Fatalf("unmarshal recover response: %v", err)
	}
	if view.Outcome != "refreshed" {
		t.Fatalf("expected refreshed outcome, got %s", view.Outcome)
	}

	status, raw = requestJSON(t, engine, http.MethodPost, "/api/sessions/"+id+"/stop", "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on stop, got %d: %s", status, string(raw))
	}
	stopped := decodeSession(t, raw)
	if stopped.Session.Status != "completed" || stopped.Session.Duration == nil {
		t.Fatalf("unexpected stopped session: %+v", stopped.Session)
	}

	status, raw = requestJSON(t, engine, http.MethodDelete, "/api/sessions/"+id+"/timer", "", nil)
	expectError(t, status, raw, http.StatusUnprocessableEntity, "already_completed")

	status, raw = requestJSON(t, engine, http.MethodPost, "/api/sessions/missing/stop", "", nil)
	expectError(t, status, raw, http.StatusNotFound, "session_not_found")
}

func TestTimerRequestValidation(t *testing.T) {
	engine := setupTestEngine(t, "")
	activityID := createActivity(t, engine, "", "Reading")

	tests := []struct {
		name      string
		body      map[string]string
		wantCode  string
		wantField string
	}{
		{name: "malformed start", body: map[string]string{"activityId": activityID, "startTime": "yesterday-ish"}, wantCode: "invalid_date", wantField: "startTime"},
		{name: "missing activity", body: map[string]string{}, wantCode: "missing_field", wantField: "activityId"},
		{name: "empty activity", body: map[string]string{"activityId": "  "}, wantCode: "missing_field", wantField: "activityId"},
	}
	for _, tc := range tests {
		status, raw := requestJSON(t, engine, http.MethodPost, "/api/sessions/timer/start", "", tc.body)
		resp := expectError(t, status, raw, http.StatusBadRequest, tc.wantCode)
		if resp.Error.Details.Field != tc.wantField {
			t.Fatalf("%s: expected field %s, got %q", tc.name, tc.wantField, resp.Error.Details.Field)
		}
	}

	status, raw := requestJSON(t, engine, http.MethodPost, "/api/sessions/timer/start", "", map[string]string{
		"activityId": activityID,
		"startTime":  time.Now().UTC().Add(-time.Minute).Format(time.RFC3339Nano),
	})
	if status != http.StatusCreated {
		t.Fatalf("expected 201 on backdated start, got %d: %s", status, string(raw))
	}
	id := decodeSession(t, raw).Session.ID

	status, raw = requestJSON(t, engine, http.MethodPost, "/api/sessions/"+id+"/stop", "", map[string]string{"endTime": "soon"})
	resp := expectError(t, status, raw, http.StatusBadRequest, "invalid_date")
	if resp.Error.Details.Field != "endTime" {
		t.Fatalf("expected field endTime, got %q", resp.Error.Details.Field)
	}

	status, raw = requestJSON(t, engine, http.MethodPost, "/api/sessions/"+id+"/stop", "", map[string]string{
		"endTime": time.Now().UTC().Add(time.Hour).Format(time.RFC3339),
	})
	expectError(t, status, raw, http.StatusBadRequest, "future_time")

	status, raw = requestJSON(t, engine, http.MethodPost, "/api/sessions/"+id+"/stop", "", map[string]string{"endTime": ""})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on stop without endTime, got %d: %s", status, string(raw))
	}
}

func TestDiscardTimer(t *testing.T) {
	engine := setupTestEngine(t, "")
	activityID := createActivity(t, engine, "", "Reading")

	_, raw := requestJSON(t, engine, http.MethodPost, "/api/sessions/timer/start", "", map[string]string{
		"activityId": activityID,
	})
	id := decodeSession(t, raw).Session.ID

	status, _ := requestJSON(t, engine, http.MethodDelete, "/api/sessions/"+id+"/timer", "", nil)
	if status != http.StatusNoContent {
		t.Fatalf("expected 204 on discard, got %d", status)
	}

	status, raw = requestJSON(t, engine, http.MethodGet, "/api/sessions/timer/current", "", nil)
	if status != http.StatusOK || decodeSession(t, raw).Session != nil {
		t.Fatalf("expected no running timer after discard, got %d: %s", status, string(raw))
	}
}

func TestManualEntriesAndListing(t *testing.T) {
	engine := setupTestEngine(t, "")
	activityID := createActivity(t, engine, "", "Writing")

	now := time.Now().UTC()
	start := now.Add(-2 * time.Hour).Truncate(time.Second)
	end := now.Add(-time.Hour).Truncate(time.Second)

	status, raw := requestJSON(t, engine, http.MethodPost, "/api/sessions/manual", "", map[string]string{
		"activityId": activityID,
		"startTime":  start.Format(time.RFC3339),
		"endTime":    end.Format(time.RFC3339),
	})
	if status != http.StatusCreated {
		t.Fatalf("expected 201 on manual entry, got %d: %s", status, string(raw))
	}
	entry := decodeSession(t, raw)
	if entry.Session.EntryType != "manual" || *entry.Session.Duration != 3600 {
		t.Fatalf("unexpected manual entry: %+v", entry.Session)
	}

	status, raw = requestJSON(t, engine, http.MethodPost, "/api/sessions/manual", "", map[string]string{
		"activityId": activityID,
		"startTime":  start.Add(30 * time.Minute).Format(time.RFC3339),
		"endTime":    end.Add(30 * time.Minute).Format(time.RFC3339),
	})
	expectError(t, status, raw, http.StatusConflict, "entry_overlap")

	status, raw = requestJSON(t, engine, http.MethodPost, "/api/sessions/manual", "", map[string]string{
		"activityId": activityID,
		"startTime":  end.Format(time.RFC3339),
		"endTime":    end.Add(2 * time.Minute).Format(time.RFC3339),
	})
	expectError(t, status, raw, http.StatusBadRequest, "duration_too_short")

	path := "/api/sessions?from=" + now.Add(-3*time.Hour).Format(time.RFC3339) + "&to=" + now.Format(time.RFC3339)
	status, raw = requestJSON(t, engine, http.MethodGet, path, "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on list, got %d: %s", status, string(raw))
	}
	var list sessionsEnvelope
	if err := json.Unmarshal(raw, &list); err != nil {
		t.Fatalf("unmarshal list response: %v", err)
	}
	if len(list.Sessions) != 1 || list.Sessions[0].ID != entry.Session.ID {
		t.Fatalf("unexpected sessions: %+v", list.Sessions)
	}

	status, raw = requestJSON(t, engine, http.MethodGet, "/api/sessions?from=yesterday", "", nil)
	expectError(t, status, raw, http.StatusBadRequest, "invalid_date")

	status, _ = requestJSON(t, engine, http.MethodDelete, "/api/sessions/"+entry.Session.ID, "", nil)
	if status != http.StatusNoContent {
		t.Fatalf("expected 204 on delete, got %d", status)
	}
}

func TestActivityConflicts(t *testing.T) {
	engine := setupTestEngine(t, "")
	createActivity(t, engine, "", "Reading")

	status, raw := requestJSON(t, engine, http.MethodPost, "/api/activities", "", map[string]string{"name": "reading"})
	expectError(t, status, raw, http.StatusConflict, "activity_name_taken")

	status, raw = requestJSON(t, engine, http.MethodGet, "/api/activities/missing", "", nil)
	expectError(t, status, raw, http.StatusNotFound, "activity_not_found")
}

func TestAuthRequiredWhenPasswordConfigured(t *testing.T) {
	hash, err := service.HashPassword("open sesame")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	engine := setupTestEngine(t, hash)

	status, raw := requestJSON(t, engine, http.MethodGet, "/api/activities", "", nil)
	expectError(t, status, raw, http.StatusUnauthorized, "unauthorized")

	status, raw = requestJSON(t, engine, http.MethodPost, "/api/auth/token", "", map[string]string{"password": "nope"})
	expectError(t, status, raw, http.StatusUnauthorized, "unauthorized")

	status, raw = requestJSON(t, engine, http.MethodPost, "/api/auth/token", "", map[string]string{"password": "open sesame"})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on token, got %d: %s", status, string(raw))
	}
	var token struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(raw, &token); err != nil {
		t.Fatalf("unmarshal token response: %v", err)
	}

	createActivity(t, engine, token.Token, "Reading")
}

func TestMetricsEndpoint(t *testing.T) {
	engine := setupTestEngine(t, "")
	activityID := createActivity(t, engine, "", "Reading")
	requestJSON(t, engine, http.MethodPost, "/api/sessions/timer/start", "", map[string]string{"activityId": activityID})

	status, raw := requestJSON(t, engine, http.MethodGet, "/metrics", "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 for metrics, got %d", status)
	}
	if !strings.Contains(string(raw), "timelog_session_transitions_total") {
		t.Fatal("expected session transition counter in metrics output")
	}
}

func TestCORSPreflight(t *testing.T) {
	engine := setupTestEngine(t, "")
	req := httptest.NewRequest(http.MethodOptions, "/api/sessions/abc", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "DELETE")
	recorder := httptest.NewRecorder()

	engine.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", recorder.Code)
	}
	if recorder.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("unexpected allow-origin header: %s", recorder.Header().Get("Access-Control-Allow-Origin"))
	}
	if !strings.Contains(recorder.Header().Get("Access-Control-Allow-Methods"), "DELETE") {
		t.Fatalf("expected DELETE in allowed methods: %s", recorder.Header().Get("Access-Control-Allow-Methods"))
	}
}

func setupTestEngine(t *testing.T, passwordHash string) http.Handler {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	_, currentFile, _, _ := runtime.Caller(0)
	migrationsDir := filepath.Join(filepath.Dir(currentFile), "..", "..", "migrations")
	if _, err := db.RunMigrations(context.Background(), database, migrationsDir); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	logger := logging.Discard()
	activityRepo := repository.NewActivityRepository(database)
	sessionService := service.NewSessionService(
		repository.NewSessionRepository(database),
		activityRepo,
		recovery.NewEngine(recovery.DefaultThresholds()),
		validate.NewManualEntryValidator(validate.Bounds{Location: time.UTC}),
		logger,
	)
	activityService := service.NewActivityService(activityRepo, logger)
	authService := service.NewAuthService(passwordHash, "test-secret", 24*time.Hour)

	return router.New(
		authService,
		handler.NewAuthHandler(authService),
		handler.NewActivityHandler(activityService),
		handler.NewSessionHandler(sessionService),
		logger,
		[]string{"http://localhost:5173"},
	)
}

func createActivity(t *testing.T, server http.Handler, token, name string) string {
	t.Helper()
	status, body := requestJSON(t, server, http.MethodPost, "/api/activities", token, map[string]string{"name": name})
	if status != http.StatusCreated {
		t.Fatalf("create activity %s failed with status %d: %s", name, status, string(body))
	}
	var resp activityEnvelope
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal activity response: %v", err)
	}
	if resp.Activity.ID == "" {
		t.Fatalf("empty id for activity %s", name)
	}
	return resp.Activity.ID
}

func decodeSession(t *testing.T, raw []byte) sessionEnvelope {
	t.Helper()
	var resp sessionEnvelope
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("unmarshal session response: %v", err)
	}
	return resp
}

func expectError(t *testing.T, status int, raw []byte, wantStatus int, wantCode string) apiErrorEnvelope {
	t.Helper()
	if status != wantStatus {
		t.Fatalf("expected status %d, got %d: %s", wantStatus, status, string(raw))
	}
	var resp apiErrorEnvelope
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("unmarshal error response: %v", err)
	}
	if resp.Error.Code != wantCode {
		t.Fatalf("expected code %s, got %s", wantCode, resp.Error.Code)
	}
	return resp
}

func requestJSON(
	t *testing.T,
	server http.Handler,
	method, path, token string,
	body interface{},
) (int, []byte) {
	t.Helper()

	var payload []byte
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		payload = raw
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)
	return recorder.Code, recorder.Body.Bytes()
}
