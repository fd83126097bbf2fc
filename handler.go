package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"lg/aroical-go-api/internal/analysis"
	"lg/aroical-go-api/internal/kvstore"
	"lg/aroical-go-api/internal/nutrition"
)

// Handler holds the managers and gateways shared by all route handlers.
type Handler struct {
	profiles *nutrition.ProfileManager
	logs     *nutrition.DailyLogManager
	weights  *nutrition.WeightLog
	language *nutrition.LanguageSetting

	food  *analysis.FoodGateway
	menu  *analysis.MenuGateway // nil when no OCR provider could be set up
	guard *analysis.Guard

	cal       nutrition.Calendar
	now       func() time.Time
	tokenHash []byte
}

// newHandler loads every manager from store. now may be nil (time.Now).
func newHandler(ctx context.Context, store kvstore.Store, cal nutrition.Calendar, now func() time.Time,
	client *analysis.Client, ocr analysis.TextRecognizer, tokenHash, languageTag string) *Handler {
	if now == nil {
		now = time.Now
	}
	h := &Handler{
		profiles:  nutrition.NewProfileManager(ctx, store),
		logs:      nutrition.NewDailyLogManager(ctx, store, cal, now),
		weights:   nutrition.NewWeightLog(ctx, store, cal, now),
		language:  nutrition.NewLanguageSetting(ctx, store, languageTag),
		food:      analysis.NewFoodGateway(client, now),
		guard:     analysis.NewGuard(),
		cal:       cal,
		now:       now,
		tokenHash: []byte(tokenHash),
	}
	if ocr != nil {
		h.menu = analysis.NewMenuGateway(client, ocr)
	}
	return h
}

/* ─── Response helpers ───────────────────────────────────────────────── */

// apiError returns a consistent JSON error response: {"error": "message"}.
func apiError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// storageWarning logs a failed save and returns the text for the response's
// "warning" field. The in-memory change already happened, so the request
// still succeeds.
func storageWarning(scope string, err error) string {
	if err == nil {
		return ""
	}
	log.Printf("[%s] persist failed (continuing): %v", scope, err)
	return "changes could not be saved and may be lost on restart"
}

// analysisFailure maps a gateway or food-source error to a status code and a
// user-facing message.
func analysisFailure(c *gin.Context, scope string, err error) {
	log.Printf("[%s] analysis failed: %v", scope, err)

	var apiErr *analysis.APIError
	switch {
	case errors.Is(err, analysis.ErrAnalysisInProgress):
		apiError(c, http.StatusConflict, analysis.Describe(err))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		apiError(c, http.StatusGatewayTimeout, "analysis timed out")
	case errors.Is(err, analysis.ErrRateLimited):
		apiError(c, http.StatusTooManyRequests, analysis.Describe(err))
	case errors.Is(err, analysis.ErrNoImageData),
		errors.Is(err, analysis.ErrInvalidImage),
		errors.Is(err, analysis.ErrTextExtractionFailed):
		apiError(c, http.StatusBadRequest, analysis.Describe(err))
	case errors.As(err, &apiErr),
		errors.Is(err, analysis.ErrInvalidResponse),
		errors.Is(err, analysis.ErrNoContent),
		errors.Is(err, analysis.ErrParsing),
		errors.Is(err, analysis.ErrInvalidJSON):
		apiError(c, http.StatusBadGateway, analysis.Describe(err))
	case errors.Is(err, nutrition.ErrManualNameRequired),
		errors.Is(err, nutrition.ErrNegativeNutrition),
		errors.Is(err, nutrition.ErrUnknownSource):
		apiError(c, http.StatusBadRequest, err.Error())
	default:
		apiError(c, http.StatusInternalServerError, analysis.Describe(err))
	}
}

// parseDayParam reads a YYYY-MM-DD query param as local midnight, defaulting
// to today.
func (h *Handler) parseDayParam(c *gin.Context, name string) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return h.now(), nil
	}
	day, err := h.cal.ParseDay(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s, expected YYYY-MM-DD", name)
	}
	return day, nil
}

/* ─── Server setup ────────────────────────────────────────────────────── */

// newRecognizer picks the OCR backend for menu scans.
func newRecognizer(ctx context.Context, cfg config) (analysis.TextRecognizer, error) {
	switch cfg.OCRProvider {
	case "google":
		r, err := analysis.NewVisionRecognizer(ctx, cfg.GoogleVisionKey)
		if err != nil {
			return nil, err
		}
		return r, nil
	case "aws":
		r, err := analysis.NewRekognitionRecognizer(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown OCR_PROVIDER %q (want google or aws)", cfg.OCRProvider)
	}
}

// registerRoutes registers all API routes on the router.
func (h *Handler) registerRoutes(router *gin.Engine) {
	// Public routes
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Authenticated routes
	api := router.Group("/api", h.authMiddleware())
	api.GET("/profile", h.getProfile)
	api.PATCH("/profile", h.patchProfile)
	api.GET("/profile/targets", h.getProfileTargets)
	api.POST("/profile/apply-targets", h.applyProfileTargets)
	api.POST("/profile/reset", h.resetProfile)

	api.GET("/food-log/today", h.getTodayLog)
	api.GET("/food-log/daily", h.getDailyLog)
	api.POST("/food-log/entries", h.createFoodEntry)
	api.DELETE("/food-log/entries/:id", h.deleteFoodEntry)
	api.GET("/food-log/streak", h.getStreak)
	api.GET("/food-log/progress", h.getProgress)

	api.POST("/food/analyze", h.analyzeFood)
	api.POST("/food/log", h.logFood)
	api.POST("/menu/analyze", h.analyzeMenu)
	api.POST("/menu/recommend", h.recommendFromMenu)

	api.GET("/weight-log", h.getWeightLog)
	api.POST("/weight-log", h.logWeight)
	api.GET("/weight-log/today", h.getTodayWeight)

	api.GET("/settings/language", h.getLanguage)
	api.PUT("/settings/language", h.putLanguage)
	api.POST("/settings/language/cycle", h.cycleLanguage)
}
