package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"lg/aroical-go-api/internal/nutrition"
)

// getProfile returns the stored profile.
// GET /api/profile.
func (h *Handler) getProfile(c *gin.Context) {
	c.JSON(http.StatusOK, profileResponse{UserProfile: h.profiles.Profile()})
}

// patchProfile updates only the provided profile fields. Targets are left as
// they are unless apply_targets is true.
// PATCH /api/profile.
func (h *Handler) patchProfile(c *gin.Context) {
	var body patchProfileRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := body.validate(); msg != "" {
		apiError(c, http.StatusBadRequest, msg)
		return
	}
	if !body.hasChanges() {
		apiError(c, http.StatusBadRequest, "no fields to update")
		return
	}

	p, err := h.profiles.Update(c.Request.Context(), body.apply)
	if body.ApplyTargets {
		var applyErr error
		p, applyErr = h.profiles.ApplyCalculatedTargets(c.Request.Context())
		err = errors.Join(err, applyErr)
	}
	c.JSON(http.StatusOK, profileResponse{UserProfile: p, Warning: storageWarning("patchProfile", err)})
}

// getProfileTargets returns BMR, the calculated TDEE and macros for the
// current biometrics, next to the targets in force.
// GET /api/profile/targets.
func (h *Handler) getProfileTargets(c *gin.Context) {
	p := h.profiles.Profile()
	c.JSON(http.StatusOK, targetsResponse{
		BMR:              p.BMR(),
		CalculatedTDEE:   p.CalculateTDEE(),
		CalculatedMacros: p.CalculateMacros(),
		TargetCalories:   p.TargetCalories,
		TargetProtein:    p.TargetProtein,
		TargetCarbs:      p.TargetCarbs,
		TargetFat:        p.TargetFat,
	})
}

// applyProfileTargets recomputes and stores the daily targets.
// POST /api/profile/apply-targets.
func (h *Handler) applyProfileTargets(c *gin.Context) {
	p, err := h.profiles.ApplyCalculatedTargets(c.Request.Context())
	c.JSON(http.StatusOK, profileResponse{UserProfile: p, Warning: storageWarning("applyProfileTargets", err)})
}

// resetProfile replaces the profile with defaults (account reset).
// POST /api/profile/reset.
func (h *Handler) resetProfile(c *gin.Context) {
	p, err := h.profiles.Reset(c.Request.Context())
	c.JSON(http.StatusOK, profileResponse{UserProfile: p, Warning: storageWarning("resetProfile", err)})
}

/* ─── Patch helpers ──────────────────────────────────────────────────── */

// validate returns a user-facing message for the first invalid field, or "".
// An unknown activity level would silently fall back to sedentary in every
// later TDEE calculation, so it is rejected here.
func (r patchProfileRequest) validate() string {
	if r.Gender != nil && !nutrition.ValidGenders[*r.Gender] {
		return "gender must be one of: male, female, other"
	}
	if r.ActivityLevel != nil {
		if _, ok := nutrition.ActivityMultipliers[*r.ActivityLevel]; !ok {
			return "activity_level must be one of: sedentary, light, moderate, active, very_active"
		}
	}
	if r.Goal != nil && !nutrition.ValidGoals[*r.Goal] {
		return "goal must be one of: lose, maintain, gain"
	}
	if r.Age != nil && (*r.Age < 1 || *r.Age > 120) {
		return "age must be between 1 and 120"
	}
	if r.HeightCm != nil && (*r.HeightCm <= 0 || *r.HeightCm > 300) {
		return "height_cm must be between 0 and 300"
	}
	for _, w := range []*float64{r.WeightKg, r.DesiredWeightKg} {
		if w != nil && (*w <= 0 || *w > 1000) {
			return "weights must be between 0 and 1000 kg"
		}
	}
	if r.WeeklyLossKg != nil && (*r.WeeklyLossKg < 0 || *r.WeeklyLossKg > 2) {
		return "weekly_loss_kg must be between 0 and 2"
	}
	for _, t := range []*int{r.TargetCalories, r.TargetProtein, r.TargetCarbs, r.TargetFat} {
		if t != nil && *t < 0 {
			return "targets must not be negative"
		}
	}
	return ""
}

func (r patchProfileRequest) hasChanges() bool {
	return r.Name != nil || r.Age != nil || r.Gender != nil || r.HeightCm != nil ||
		r.WeightKg != nil || r.DesiredWeightKg != nil || r.WeeklyLossKg != nil ||
		r.ActivityLevel != nil || r.Goal != nil || r.TargetCalories != nil ||
		r.TargetProtein != nil || r.TargetCarbs != nil || r.TargetFat != nil ||
		r.Difficulties != nil || r.DietGoal != nil || r.CreatorReferral != nil ||
		r.ApplyTargets
}

func (r patchProfileRequest) apply(p *nutrition.UserProfile) {
	if r.Name != nil {
		p.Name = strings.TrimSpace(*r.Name)
	}
	if r.Age != nil {
		p.Age = *r.Age
	}
	if r.Gender != nil {
		p.Gender = *r.Gender
	}
	if r.HeightCm != nil {
		p.HeightCm = *r.HeightCm
	}
	if r.WeightKg != nil {
		p.WeightKg = *r.WeightKg
	}
	if r.DesiredWeightKg != nil {
		p.DesiredWeightKg = *r.DesiredWeightKg
	}
	if r.WeeklyLossKg != nil {
		p.WeeklyLossKg = *r.WeeklyLossKg
	}
	if r.ActivityLevel != nil {
		p.ActivityLevel = *r.ActivityLevel
	}
	if r.Goal != nil {
		p.Goal = *r.Goal
	}
	if r.TargetCalories != nil {
		p.TargetCalories = *r.TargetCalories
	}
	if r.TargetProtein != nil {
		p.TargetProtein = *r.TargetProtein
	}
	if r.TargetCarbs != nil {
		p.TargetCarbs = *r.TargetCarbs
	}
	if r.TargetFat != nil {
		p.TargetFat = *r.TargetFat
	}
	if r.Difficulties != nil {
		p.Difficulties = append([]string{}, *r.Difficulties...)
	}
	if r.DietGoal != nil {
		p.DietGoal = *r.DietGoal
	}
	if r.CreatorReferral != nil {
		p.CreatorReferral = *r.CreatorReferral
	}
}
