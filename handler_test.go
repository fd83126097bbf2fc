package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"lg/aroical-go-api/internal/analysis"
	"lg/aroical-go-api/internal/kvstore"
	"lg/aroical-go-api/internal/nutrition"
)

const testToken = "test-device-token"

var (
	testZone = time.FixedZone("ICT", 7*60*60)
	testHash = func() []byte {
		h, _ := bcrypt.GenerateFromPassword([]byte(testToken), bcrypt.MinCost)
		return h
	}()
)

// testClock is a settable now func shared by all managers under test.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// fakeOCR returns canned menu text.
type fakeOCR struct{ text string }

func (f fakeOCR) RecognizeText(context.Context, []byte) (string, error) { return f.text, nil }

// testEnv bundles a router wired to a memory store, a fixed clock and a mock
// OpenAI server whose response can be set per test.
type testEnv struct {
	router  *gin.Engine
	handler *Handler
	store   kvstore.Store
	clock   *testClock
	setAI   func(status int, body any)
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	var mu sync.Mutex
	mockStatus := http.StatusOK
	var mockBody any

	mockOpenAI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		status, body := mockStatus, mockBody
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(mockOpenAI.Close)

	client, err := analysis.NewClient(analysis.ClientConfig{BaseURL: mockOpenAI.URL, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("client: %v", err)
	}

	clock := &testClock{t: time.Date(2026, 3, 10, 9, 0, 0, 0, testZone)}
	store := kvstore.NewMemoryStore()
	h := newHandler(context.Background(), store, nutrition.Calendar{Loc: testZone}, clock.Now,
		client, fakeOCR{text: "Tom Yum 180\nGreen Curry 220"}, string(testHash), "en-US")

	gin.SetMode(gin.TestMode)
	router := gin.New()
	h.registerRoutes(router)

	return &testEnv{
		router:  router,
		handler: h,
		store:   store,
		clock:   clock,
		setAI: func(status int, body any) {
			mu.Lock()
			defer mu.Unlock()
			mockStatus, mockBody = status, body
		},
	}
}

// do sends an authenticated request with an optional JSON body.
func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+testToken)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to parse response %q: %v", w.Body.String(), err)
	}
	return v
}

// openAIChatResponse wraps a content string in the OpenAI chat completions
// response shape (choices[0].message.content).
func openAIChatResponse(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
}

/* ─── Auth ───────────────────────────────────────────────────────────── */

func TestAuth(t *testing.T) {
	env := setupTestEnv(t)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"wrong token", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "Bearer " + testToken, http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/profile", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			env.router.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Errorf("expected %d, got %d: %s", tc.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestAuth_NoHashConfiguredRejectsEverything(t *testing.T) {
	h := &Handler{}
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/x", h.authMiddleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("Authorization", "Bearer dummy")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without a configured hash, got %d", w.Code)
	}
}

func TestHealthzIsPublic(t *testing.T) {
	env := setupTestEnv(t)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

/* ─── Profile ────────────────────────────────────────────────────────── */

func TestProfile_PatchAndApplyTargets(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do("PATCH", "/api/profile", `{"age":30,"height_cm":180,"weight_kg":80,"gender":"male","activity_level":"moderate","goal":"lose","weekly_loss_kg":0.5}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	p := decode[profileResponse](t, w)
	if p.Age != 30 || p.TargetCalories != 2000 {
		t.Errorf("patch should not recompute targets: %+v", p.UserProfile)
	}

	targets := decode[targetsResponse](t, env.do("GET", "/api/profile/targets", ""))
	if targets.BMR != 1780 || targets.CalculatedTDEE != 2209 {
		t.Errorf("targets = %+v", targets)
	}

	w = env.do("POST", "/api/profile/apply-targets", "")
	applied := decode[profileResponse](t, w)
	if applied.TargetCalories != 2209 || applied.TargetProtein != 165 {
		t.Errorf("applied = %+v", applied.UserProfile)
	}
	if applied.Warning != "" {
		t.Errorf("unexpected warning %q", applied.Warning)
	}

	reset := decode[profileResponse](t, env.do("POST", "/api/profile/reset", ""))
	if reset.Age != 25 || reset.TargetCalories != 2000 {
		t.Errorf("reset = %+v", reset.UserProfile)
	}
}

func TestProfile_PatchValidation(t *testing.T) {
	env := setupTestEnv(t)

	tests := []struct {
		name string
		body string
	}{
		{"unknown activity", `{"activity_level":"couch"}`},
		{"unknown gender", `{"gender":"robot"}`},
		{"unknown goal", `{"goal":"bulk"}`},
		{"negative weight", `{"weight_kg":-1}`},
		{"absurd weekly rate", `{"weekly_loss_kg":5}`},
		{"no fields", `{}`},
		{"not json", `nope`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if w := env.do("PATCH", "/api/profile", tc.body); w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestProfile_PatchWithApplyTargets(t *testing.T) {
	env := setupTestEnv(t)

	p := decode[profileResponse](t, env.do("PATCH", "/api/profile", `{"goal":"maintain","apply_targets":true}`))
	want := nutrition.DefaultProfile()
	want.Goal = nutrition.GoalMaintain
	if p.TargetCalories != want.CalculateTDEE() {
		t.Errorf("target calories = %d, want %d", p.TargetCalories, want.CalculateTDEE())
	}
}

/* ─── Food log ───────────────────────────────────────────────────────── */

func TestFoodLog_CreateListDelete(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do("POST", "/api/food-log/entries", `{"name":"Khao Man Gai","calories":600,"protein":30,"carbs":70,"fat":20}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	created := decode[entryResponse](t, w)
	if created.Entry.ServingSize != "1 serving" {
		t.Errorf("default serving = %q", created.Entry.ServingSize)
	}
	env.do("POST", "/api/food-log/entries", `{"name":"Thai Iced Tea","calories":250,"carbs":40,"fat":8}`)

	today := decode[dailyLogResponse](t, env.do("GET", "/api/food-log/today", ""))
	if len(today.Entries) != 2 || today.TotalCalories != 850 || today.RemainingCalories != 1150 {
		t.Errorf("today = %+v", today)
	}
	if today.Date.Format("2006-01-02") != "2026-03-10" {
		t.Errorf("date = %s", today.Date.Format("2006-01-02"))
	}

	path := "/api/food-log/entries/" + created.Entry.ID.String()
	for i := 0; i < 2; i++ {
		if w := env.do("DELETE", path, ""); w.Code != http.StatusNoContent {
			t.Errorf("delete #%d: expected 204, got %d", i+1, w.Code)
		}
	}
	daily := decode[dailyLogResponse](t, env.do("GET", "/api/food-log/daily?date=2026-03-10", ""))
	if len(daily.Entries) != 1 || daily.Entries[0].Name != "Thai Iced Tea" {
		t.Errorf("after delete = %+v", daily.Entries)
	}
}

func TestFoodLog_Validation(t *testing.T) {
	env := setupTestEnv(t)

	tests := []struct {
		method, path, body string
	}{
		{"POST", "/api/food-log/entries", `{"calories":100}`},
		{"POST", "/api/food-log/entries", `{"name":"x","calories":-5}`},
		{"DELETE", "/api/food-log/entries/not-a-uuid", ""},
		{"GET", "/api/food-log/daily?date=03/10/2026", ""},
		{"GET", "/api/food-log/progress?days=0", ""},
		{"GET", "/api/food-log/progress?days=abc", ""},
	}
	for _, tc := range tests {
		if w := env.do(tc.method, tc.path, tc.body); w.Code != http.StatusBadRequest {
			t.Errorf("%s %s: expected 400, got %d", tc.method, tc.path, w.Code)
		}
	}
}

func TestFoodLog_DailyDoesNotCreate(t *testing.T) {
	env := setupTestEnv(t)

	daily := decode[dailyLogResponse](t, env.do("GET", "/api/food-log/daily", ""))
	if daily.ID != nil || len(daily.Entries) != 0 {
		t.Errorf("expected no log, got %+v", daily)
	}
	if _, err := env.store.Get(context.Background(), "daily_logs"); err == nil {
		t.Error("reading a day must not persist anything")
	}
}

func TestFoodLog_StreakAndProgress(t *testing.T) {
	env := setupTestEnv(t)

	// Log on three consecutive days ending today.
	env.clock.advance(-48 * time.Hour)
	for i := 0; i < 3; i++ {
		env.do("POST", "/api/food-log/entries", `{"name":"Rice","calories":300}`)
		if i < 2 {
			env.clock.advance(24 * time.Hour)
		}
	}

	streak := decode[map[string]int](t, env.do("GET", "/api/food-log/streak", ""))
	if streak["streak"] != 3 {
		t.Errorf("streak = %d, want 3", streak["streak"])
	}

	progress := decode[progressResponse](t, env.do("GET", "/api/food-log/progress?days=2", ""))
	if len(progress.Logs) != 2 || progress.Averages.Calories != 300 || progress.Streak != 3 {
		t.Errorf("progress = %+v", progress)
	}
	if progress.Logs[0].Date.Format("2006-01-02") != "2026-03-09" {
		t.Errorf("progress should be oldest first, got %s", progress.Logs[0].Date.Format("2006-01-02"))
	}
}

func TestFoodLog_ProgressOnEmptyLog(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do("GET", "/api/food-log/progress", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	progress := decode[progressResponse](t, w)
	if progress.Days != 7 || len(progress.Logs) != 0 || progress.Averages.Calories != 0 {
		t.Errorf("progress = %+v", progress)
	}
}

/* ─── Weight log ─────────────────────────────────────────────────────── */

func TestWeightLog(t *testing.T) {
	env := setupTestEnv(t)

	if w := env.do("GET", "/api/weight-log/today", ""); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 before logging, got %d", w.Code)
	}
	if w := env.do("POST", "/api/weight-log", `{"weight_kg":0}`); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for zero weight, got %d", w.Code)
	}

	env.do("POST", "/api/weight-log", `{"date":"2026-03-08","weight_kg":71.2}`)
	env.do("POST", "/api/weight-log", `{"weight_kg":70.9}`)
	w := env.do("POST", "/api/weight-log", `{"date":"2026-03-10","weight_kg":70.4}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	today := decode[weightEntryResponse](t, env.do("GET", "/api/weight-log/today", ""))
	if today.WeightKg != 70.4 {
		t.Errorf("today's weight = %v, want the replacement 70.4", today.WeightKg)
	}

	entries := decode[[]weightEntryResponse](t, env.do("GET", "/api/weight-log?days=7", ""))
	if len(entries) != 2 || entries[0].Date.Format("2006-01-02") != "2026-03-08" {
		t.Errorf("entries = %+v", entries)
	}
}

/* ─── Settings ───────────────────────────────────────────────────────── */

func TestLanguageSettings(t *testing.T) {
	env := setupTestEnv(t)

	got := decode[languageResponse](t, env.do("GET", "/api/settings/language", ""))
	if got.Language != nutrition.LanguageEnglish || len(got.Available) != 3 {
		t.Errorf("initial = %+v", got)
	}
	if w := env.do("PUT", "/api/settings/language", `{"language":"de"}`); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unsupported language, got %d", w.Code)
	}

	got = decode[languageResponse](t, env.do("PUT", "/api/settings/language", `{"language":"th"}`))
	if got.Language != nutrition.LanguageThai {
		t.Errorf("after put = %s", got.Language)
	}
	got = decode[languageResponse](t, env.do("POST", "/api/settings/language/cycle", ""))
	if got.Language != nutrition.LanguageJapanese {
		t.Errorf("after cycle = %s", got.Language)
	}
}

/* ─── Storage failures ───────────────────────────────────────────────── */

// readOnlyStore rejects writes so handlers surface a warning.
type readOnlyStore struct{ *kvstore.MemoryStore }

func (readOnlyStore) Set(context.Context, string, []byte) error { return io.ErrClosedPipe }

func TestStorageFailureBecomesWarning(t *testing.T) {
	client, _ := analysis.NewClient(analysis.ClientConfig{BaseURL: "http://127.0.0.1:1"})
	clock := &testClock{t: time.Date(2026, 3, 10, 9, 0, 0, 0, testZone)}
	h := newHandler(context.Background(), readOnlyStore{kvstore.NewMemoryStore()}, nutrition.Calendar{Loc: testZone},
		clock.Now, client, nil, string(testHash), "en")
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h.registerRoutes(router)
	env := &testEnv{router: router, clock: clock}

	w := env.do("POST", "/api/food-log/entries", `{"name":"Som Tam","calories":150}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("a failed save must not fail the request, got %d", w.Code)
	}
	if resp := decode[entryResponse](t, w); resp.Warning == "" {
		t.Error("expected a storage warning")
	}
	today := decode[dailyLogResponse](t, env.do("GET", "/api/food-log/today", ""))
	if len(today.Entries) != 1 {
		t.Errorf("entry should remain in memory, got %d entries", len(today.Entries))
	}

	if w := env.do("POST", "/api/menu/analyze", `{"image":""}`); w.Code != http.StatusServiceUnavailable {
		t.Errorf("menu without OCR: expected 503, got %d", w.Code)
	}
}
