package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lg/aroical-go-api/internal/nutrition"
)

// getLanguage returns the UI language.
// GET /api/settings/language.
func (h *Handler) getLanguage(c *gin.Context) {
	c.JSON(http.StatusOK, languageResponse{Language: h.language.Current(), Available: nutrition.Languages})
}

// putLanguage sets the UI language.
// PUT /api/settings/language. Body: { "language": "th" }.
func (h *Handler) putLanguage(c *gin.Context) {
	var body struct {
		Language string `json:"language"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	lang, ok := nutrition.ParseLanguage(body.Language)
	if !ok {
		apiError(c, http.StatusBadRequest, "language must be one of: en, th, ja")
		return
	}

	err := h.language.Set(c.Request.Context(), lang)
	c.JSON(http.StatusOK, languageResponse{
		Language:  lang,
		Available: nutrition.Languages,
		Warning:   storageWarning("putLanguage", err),
	})
}

// cycleLanguage advances to the next language (en → th → ja → en).
// POST /api/settings/language/cycle.
func (h *Handler) cycleLanguage(c *gin.Context) {
	lang, err := h.language.Cycle(c.Request.Context())
	c.JSON(http.StatusOK, languageResponse{
		Language:  lang,
		Available: nutrition.Languages,
		Warning:   storageWarning("cycleLanguage", err),
	})
}
