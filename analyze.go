package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lg/aroical-go-api/internal/analysis"
	"lg/aroical-go-api/internal/nutrition"
)

// analyzeFood estimates nutrition for a camera or library photo without
// logging it. Only one analysis per session runs at a time.
// POST /api/food/analyze. Body: { "source": "camera", "image": "<base64>" }.
func (h *Handler) analyzeFood(c *gin.Context) {
	var body foodSourceRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	src := body.toSource()
	if !src.NeedsAnalysis() {
		apiError(c, http.StatusBadRequest, "source must be camera or library")
		return
	}

	entry, err := analysis.Guarded(h.guard, c.GetString("session_id"), func() (nutrition.FoodEntry, error) {
		return h.food.AnalyzeFood(c.Request.Context(), src.Image)
	})
	if err != nil {
		analysisFailure(c, "analyzeFood", err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// logFood turns any food source into an entry and adds it to today's log.
// Photos are analyzed first; manual values are validated as typed.
// POST /api/food/log. Body: { "source": "camera"|"library"|"manual", "image"?, "manual"? }.
func (h *Handler) logFood(c *gin.Context) {
	var body foodSourceRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	src := body.toSource()

	var entry nutrition.FoodEntry
	var err error
	if src.NeedsAnalysis() {
		entry, err = analysis.Guarded(h.guard, c.GetString("session_id"), func() (nutrition.FoodEntry, error) {
			return h.food.EntryFromSource(c.Request.Context(), src)
		})
	} else {
		entry, err = h.food.EntryFromSource(c.Request.Context(), src)
	}
	if err != nil {
		analysisFailure(c, "logFood", err)
		return
	}

	err = h.logs.AddEntry(c.Request.Context(), entry)
	c.JSON(http.StatusCreated, entryResponse{Entry: entry, Warning: storageWarning("logFood", err)})
}

// analyzeMenu reads a menu photo and returns structured picks.
// POST /api/menu/analyze. Body: { "image": "<base64>" }.
func (h *Handler) analyzeMenu(c *gin.Context) {
	if h.menu == nil {
		apiError(c, http.StatusServiceUnavailable, "menu analysis is not configured")
		return
	}
	var body menuRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	recs, err := analysis.Guarded(h.guard, c.GetString("session_id"), func() (analysis.MenuRecommendations, error) {
		return h.menu.AnalyzeMenu(c.Request.Context(), body.Image)
	})
	if err != nil {
		analysisFailure(c, "analyzeMenu", err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

// recommendFromMenu returns free-text advice for one recommendation type, in
// the user's current language.
// POST /api/menu/recommend. Body: { "image": "<base64>", "type": "protein" }.
func (h *Handler) recommendFromMenu(c *gin.Context) {
	if h.menu == nil {
		apiError(c, http.StatusServiceUnavailable, "menu analysis is not configured")
		return
	}
	var body recommendRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	kind, ok := analysis.ParseRecommendationType(body.Type)
	if !ok {
		apiError(c, http.StatusBadRequest, "type must be one of: healthiest, tastiest, protein, fiber")
		return
	}
	lang := h.language.Current()

	text, err := analysis.Guarded(h.guard, c.GetString("session_id"), func() (string, error) {
		return h.menu.AnalyzeMenuWithRecommendation(c.Request.Context(), body.Image, kind, lang)
	})
	if err != nil {
		analysisFailure(c, "recommendFromMenu", err)
		return
	}
	c.JSON(http.StatusOK, recommendResponse{Type: kind, Language: lang, Text: text})
}
