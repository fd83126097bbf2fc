package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"lg/aroical-go-api/internal/analysis"
	"lg/aroical-go-api/internal/nutrition"
)

// photo is any non-empty image payload, base64-encoded for a JSON body.
var photo = base64.StdEncoding.EncodeToString([]byte("fake jpeg bytes"))

func menuPhoto(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(2, 2, color.White)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

const padThai = `{"name":"Pad Thai","nameThai":"ผัดไทย","nameJapanese":"パッタイ","calories":520,"protein":18.5,"carbs":64,"fat":19,"servingSize":"1 plate"}`

/* ─── Food analysis ──────────────────────────────────────────────────── */

func TestAnalyzeFood_Success(t *testing.T) {
	env := setupTestEnv(t)
	env.setAI(http.StatusOK, openAIChatResponse(padThai))

	w := env.do("POST", "/api/food/analyze", `{"source":"camera","image":"`+photo+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	entry := decode[nutrition.FoodEntry](t, w)
	if entry.Name != "Pad Thai" || entry.Calories != 520 || entry.ServingSize != "1 plate" {
		t.Errorf("entry = %+v", entry)
	}

	// Analysis alone must not log anything.
	today := decode[dailyLogResponse](t, env.do("GET", "/api/food-log/today", ""))
	if len(today.Entries) != 0 {
		t.Errorf("analyze should not log, got %d entries", len(today.Entries))
	}
}

func TestAnalyzeFood_FencedJSON(t *testing.T) {
	env := setupTestEnv(t)
	env.setAI(http.StatusOK, openAIChatResponse("```json\n"+padThai+"\n```"))

	w := env.do("POST", "/api/food/analyze", `{"source":"library","image":"`+photo+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAnalyzeFood_Failures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     any
		req      string
		wantCode int
		wantMsg  string
	}{
		{
			name:     "vendor error message",
			status:   http.StatusTooManyRequests,
			body:     map[string]any{"error": map[string]any{"message": "Rate limit exceeded"}},
			req:      `{"source":"camera","image":"` + photo + `"}`,
			wantCode: http.StatusBadGateway,
			wantMsg:  "API Error: Rate limit exceeded",
		},
		{
			name:     "not json content",
			status:   http.StatusOK,
			body:     openAIChatResponse("I think this is a sandwich"),
			req:      `{"source":"camera","image":"` + photo + `"}`,
			wantCode: http.StatusBadGateway,
		},
		{
			name:     "missing content",
			status:   http.StatusOK,
			body:     map[string]any{"choices": []any{}},
			req:      `{"source":"camera","image":"` + photo + `"}`,
			wantCode: http.StatusBadGateway,
		},
		{
			name:     "no image",
			status:   http.StatusOK,
			body:     openAIChatResponse(padThai),
			req:      `{"source":"camera"}`,
			wantCode: http.StatusBadRequest,
			wantMsg:  "No image data provided",
		},
		{
			name:     "manual is not analyzable",
			status:   http.StatusOK,
			body:     openAIChatResponse(padThai),
			req:      `{"source":"manual","manual":{"name":"x","calories":1}}`,
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := setupTestEnv(t)
			env.setAI(tc.status, tc.body)

			w := env.do("POST", "/api/food/analyze", tc.req)
			if w.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d: %s", tc.wantCode, w.Code, w.Body.String())
			}
			if tc.wantMsg != "" {
				if got := decode[map[string]string](t, w)["error"]; got != tc.wantMsg {
					t.Errorf("error = %q, want %q", got, tc.wantMsg)
				}
			}
		})
	}
}

func TestAnalyzeFood_SecondRequestWhileBusyIsRejected(t *testing.T) {
	env := setupTestEnv(t)
	env.setAI(http.StatusOK, openAIChatResponse(padThai))

	release, err := env.handler.guard.Acquire(testToken)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	w := env.do("POST", "/api/food/analyze", `{"source":"camera","image":"`+photo+`"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 while busy, got %d", w.Code)
	}

	release()
	w = env.do("POST", "/api/food/analyze", `{"source":"camera","image":"`+photo+`"}`)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 after release, got %d: %s", w.Code, w.Body.String())
	}
}

/* ─── Food logging ───────────────────────────────────────────────────── */

func TestLogFood_Sources(t *testing.T) {
	env := setupTestEnv(t)
	env.setAI(http.StatusOK, openAIChatResponse(padThai))

	w := env.do("POST", "/api/food/log", `{"source":"camera","image":"`+photo+`"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("camera: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	logged := decode[entryResponse](t, w)
	if logged.Entry.NameThai != "ผัดไทย" || len(logged.Entry.ImageData) == 0 {
		t.Errorf("camera entry = %+v", logged.Entry)
	}

	w = env.do("POST", "/api/food/log", `{"source":"manual","manual":{"name":"Mango","calories":120,"carbs":30}}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("manual: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	if w := env.do("POST", "/api/food/log", `{"source":"manual","manual":{"calories":120}}`); w.Code != http.StatusBadRequest {
		t.Errorf("manual without name: expected 400, got %d", w.Code)
	}
	if w := env.do("POST", "/api/food/log", `{"source":"fax"}`); w.Code != http.StatusBadRequest {
		t.Errorf("unknown source: expected 400, got %d", w.Code)
	}

	today := decode[dailyLogResponse](t, env.do("GET", "/api/food-log/today", ""))
	if len(today.Entries) != 2 || today.TotalCalories != 640 {
		t.Errorf("today = %d entries, %d kcal", len(today.Entries), today.TotalCalories)
	}
}

func TestLogFood_AnalysisFailureLogsNothing(t *testing.T) {
	env := setupTestEnv(t)
	env.setAI(http.StatusInternalServerError, map[string]any{})

	w := env.do("POST", "/api/food/log", `{"source":"camera","image":"`+photo+`"}`)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", w.Code, w.Body.String())
	}
	today := decode[dailyLogResponse](t, env.do("GET", "/api/food-log/today", ""))
	if len(today.Entries) != 0 {
		t.Errorf("failed analysis must not log, got %d entries", len(today.Entries))
	}
}

/* ─── Menu analysis ──────────────────────────────────────────────────── */

const menuReply = `{
  "healthiest": [{"name":"Tom Yum Goong","description":"Spicy shrimp soup","estimatedCalories":"180","healthScore":9,"tasteScore":8,"reasoning":"Broth based","nutrients":{"protein":"20g"}}],
  "tastiest": [{"name":"Green Curry","description":"Coconut curry","estimatedCalories":"220","healthScore":6,"tasteScore":10,"reasoning":"Rich"}],
  "analysis": "Mostly light soups and curries.",
  "tips": ["Ask for less sugar"]
}`

func TestAnalyzeMenu(t *testing.T) {
	env := setupTestEnv(t)
	env.setAI(http.StatusOK, openAIChatResponse(menuReply))

	w := env.do("POST", "/api/menu/analyze", `{"image":"`+menuPhoto(t)+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !strings.Contains(body, `"healthiest"`) || !strings.Contains(body, "Tom Yum Goong") {
		t.Errorf("unexpected body: %s", body)
	}
	if strings.Contains(body, "balancedChoice") {
		t.Errorf("absent balanced choice should be omitted: %s", body)
	}
}

func TestAnalyzeMenu_BadImage(t *testing.T) {
	env := setupTestEnv(t)

	tests := []struct {
		name, body, wantMsg string
	}{
		{"empty", `{"image":""}`, "No image data provided"},
		{"not an image", `{"image":"` + photo + `"}`, "Could not process the image"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do("POST", "/api/menu/analyze", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
			if got := decode[map[string]string](t, w)["error"]; got != tc.wantMsg {
				t.Errorf("error = %q, want %q", got, tc.wantMsg)
			}
		})
	}
}

func TestRecommendFromMenu(t *testing.T) {
	env := setupTestEnv(t)
	env.setAI(http.StatusOK, openAIChatResponse("ต้มยำกุ้ง has the most protein."))
	env.do("PUT", "/api/settings/language", `{"language":"th"}`)

	w := env.do("POST", "/api/menu/recommend", `{"image":"`+menuPhoto(t)+`","type":"protein"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[recommendResponse](t, w)
	if resp.Language != nutrition.LanguageThai || resp.Text == "" {
		t.Errorf("resp = %+v", resp)
	}

	if w := env.do("POST", "/api/menu/recommend", `{"image":"`+menuPhoto(t)+`","type":"cheapest"}`); w.Code != http.StatusBadRequest {
		t.Errorf("unknown type: expected 400, got %d", w.Code)
	}
}

/* ─── Failure mapping ────────────────────────────────────────────────── */

func TestAnalysisFailure_StatusCodes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"busy", analysis.ErrAnalysisInProgress, http.StatusConflict},
		{"deadline", fmt.Errorf("wait for rate limiter: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"limiter would exceed deadline", fmt.Errorf("%w: would exceed context deadline", analysis.ErrRateLimited), http.StatusTooManyRequests},
		{"bad image", analysis.ErrInvalidImage, http.StatusBadRequest},
		{"vendor error", &analysis.APIError{StatusCode: 500, Message: "boom"}, http.StatusBadGateway},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			analysisFailure(c, "test", tc.err)
			if w.Code != tc.wantCode {
				t.Errorf("expected %d, got %d: %s", tc.wantCode, w.Code, w.Body.String())
			}
		})
	}
}
