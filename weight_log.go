package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"lg/aroical-go-api/internal/nutrition"
)

func (h *Handler) weightView(e nutrition.WeightEntry) weightEntryResponse {
	return weightEntryResponse{
		ID:       e.ID,
		Date:     DateOnly{h.cal.StartOfDay(e.Date)},
		WeightKg: e.WeightKg,
	}
}

// getWeightLog returns weigh-ins for the last N days, oldest first.
// GET /api/weight-log?days=N (default 30). Returns an empty array (not null)
// if there are none.
func (h *Handler) getWeightLog(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil || days < 1 || days > maxProgressDays {
		apiError(c, http.StatusBadRequest, "days must be an integer between 1 and 365")
		return
	}

	entries := h.weights.EntriesForLastDays(days)
	out := make([]weightEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, h.weightView(e))
	}
	c.JSON(http.StatusOK, out)
}

// logWeight records a weigh-in. Posting the same date again replaces it.
// POST /api/weight-log. Body: { "date": "YYYY-MM-DD" (optional), "weight_kg": 72.4 }.
func (h *Handler) logWeight(c *gin.Context) {
	var body logWeightRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	date := h.now()
	if body.Date != nil {
		// DateOnly parses as UTC midnight; re-anchor it to the local day.
		local, err := h.cal.ParseDay(body.Date.Format("2006-01-02"))
		if err != nil {
			apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return
		}
		date = local
	}

	entry, err := h.weights.LogWeight(c.Request.Context(), body.WeightKg, date)
	if errors.Is(err, nutrition.ErrInvalidWeight) {
		apiError(c, http.StatusBadRequest, err.Error())
		return
	}
	resp := h.weightView(entry)
	resp.Warning = storageWarning("logWeight", err)
	c.JSON(http.StatusCreated, resp)
}

// getTodayWeight returns today's weigh-in.
// GET /api/weight-log/today.
func (h *Handler) getTodayWeight(c *gin.Context) {
	entry, ok := h.weights.EntryForToday()
	if !ok {
		apiError(c, http.StatusNotFound, "no weight logged today")
		return
	}
	c.JSON(http.StatusOK, h.weightView(entry))
}
