package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"lg/aroical-go-api/internal/nutrition"
)

const maxProgressDays = 365

// dailyLogView builds the response for one day. Remaining calories are
// measured against the profile's current target.
func (h *Handler) dailyLogView(l nutrition.DailyLog, exists bool, day DateOnly) dailyLogResponse {
	target := h.profiles.Profile().TargetCalories
	resp := dailyLogResponse{
		Date:              day,
		Entries:           l.Entries,
		TotalCalories:     l.TotalCalories(),
		TotalProtein:      l.TotalProtein(),
		TotalCarbs:        l.TotalCarbs(),
		TotalFat:          l.TotalFat(),
		TargetCalories:    target,
		RemainingCalories: nutrition.RemainingCalories(target, l.TotalCalories()),
	}
	if exists {
		id := l.ID
		resp.ID = &id
	}
	// Ensure entries is an empty array (not null) in JSON
	if resp.Entries == nil {
		resp.Entries = []nutrition.FoodEntry{}
	}
	return resp
}

// getTodayLog returns today's log, creating an empty one on first access.
// GET /api/food-log/today.
func (h *Handler) getTodayLog(c *gin.Context) {
	l, err := h.logs.TodayLog(c.Request.Context())
	resp := h.dailyLogView(l, true, DateOnly{h.cal.StartOfDay(l.Date)})
	resp.Warning = storageWarning("getTodayLog", err)
	c.JSON(http.StatusOK, resp)
}

// getDailyLog returns the log for a given date without creating one.
// GET /api/food-log/daily?date=YYYY-MM-DD (defaults to today).
func (h *Handler) getDailyLog(c *gin.Context) {
	day, err := h.parseDayParam(c, "date")
	if err != nil {
		apiError(c, http.StatusBadRequest, err.Error())
		return
	}
	l, ok := h.logs.LogForDate(day)
	c.JSON(http.StatusOK, h.dailyLogView(l, ok, DateOnly{h.cal.StartOfDay(day)}))
}

// createFoodEntry logs typed-in values (optionally with a photo) to today.
// POST /api/food-log/entries.
func (h *Handler) createFoodEntry(c *gin.Context) {
	var body createEntryRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := nutrition.NewManualEntry(body.ManualEntry, h.now())
	if err != nil {
		apiError(c, http.StatusBadRequest, err.Error())
		return
	}
	entry.ImageData = body.Image

	err = h.logs.AddEntry(c.Request.Context(), entry)
	c.JSON(http.StatusCreated, entryResponse{Entry: entry, Warning: storageWarning("createFoodEntry", err)})
}

// deleteFoodEntry removes an entry from the given day's log. Removing an
// entry that isn't there succeeds.
// DELETE /api/food-log/entries/:id?date=YYYY-MM-DD (defaults to today).
func (h *Handler) deleteFoodEntry(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid id")
		return
	}
	day, err := h.parseDayParam(c, "date")
	if err != nil {
		apiError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.logs.RemoveEntry(c.Request.Context(), id, day); err != nil {
		c.JSON(http.StatusOK, gin.H{"warning": storageWarning("deleteFoodEntry", err)})
		return
	}
	c.Status(http.StatusNoContent)
}

// getStreak returns the count of consecutive logged days ending today.
// GET /api/food-log/streak.
func (h *Handler) getStreak(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"streak": h.logs.CurrentStreak()})
}

// getProgress returns per-day totals and averages for the last N days. Only
// days that have a log are returned (no gap-filling; the client handles that).
// GET /api/food-log/progress?days=N (default 7).
func (h *Handler) getProgress(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil || days < 1 || days > maxProgressDays {
		apiError(c, http.StatusBadRequest, "days must be an integer between 1 and 365")
		return
	}

	logs := h.logs.LogsForLastDays(days)
	points := make([]progressDay, 0, len(logs))
	for _, l := range logs {
		points = append(points, progressDay{
			Date:     DateOnly{h.cal.StartOfDay(l.Date)},
			Calories: l.TotalCalories(),
			Protein:  l.TotalProtein(),
			Carbs:    l.TotalCarbs(),
			Fat:      l.TotalFat(),
			Entries:  len(l.Entries),
		})
	}

	c.JSON(http.StatusOK, progressResponse{
		Days:           days,
		Logs:           points,
		Averages:       nutrition.AverageOf(logs),
		Streak:         h.logs.CurrentStreak(),
		TargetCalories: h.profiles.Profile().TargetCalories,
	})
}
