// Package nutrition holds the user's goal model, the per-day food log
// aggregator and the weight log. All state is persisted as whole JSON blobs in
// a kvstore.Store.
package nutrition

import (
	"context"
	"log"
	"math"
	"sync"

	"lg/aroical-go-api/internal/kvstore"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

type ActivityLevel string

const (
	ActivitySedentary  ActivityLevel = "sedentary"
	ActivityLight      ActivityLevel = "light"
	ActivityModerate   ActivityLevel = "moderate"
	ActivityActive     ActivityLevel = "active"
	ActivityVeryActive ActivityLevel = "very_active"
)

type GoalType string

const (
	GoalLose     GoalType = "lose"
	GoalMaintain GoalType = "maintain"
	GoalGain     GoalType = "gain"
)

// ActivityMultipliers maps activity levels to their TDEE multiplier. This is
// the single source of truth for valid activity levels.
var ActivityMultipliers = map[ActivityLevel]float64{
	ActivitySedentary:  1.2,
	ActivityLight:      1.375,
	ActivityModerate:   1.55,
	ActivityActive:     1.725,
	ActivityVeryActive: 1.9,
}

// ValidGenders and ValidGoals back request validation.
var (
	ValidGenders = map[Gender]bool{GenderMale: true, GenderFemale: true, GenderOther: true}
	ValidGoals   = map[GoalType]bool{GoalLose: true, GoalMaintain: true, GoalGain: true}
)

const (
	kcalPerKgFat    = 7700.0
	gainSurplusKcal = 300.0
	minDailyKcal    = 1200

	profileKey = "user_profile"
)

// UserProfile is the user's biometrics, goal and derived daily targets. The
// targets are only valid after ApplyCalculatedTargets has run against the
// current biometrics; mutating a field does not recompute them.
type UserProfile struct {
	Name            string        `json:"name"`
	Age             int           `json:"age"`
	Gender          Gender        `json:"gender"`
	HeightCm        float64       `json:"height_cm"`
	WeightKg        float64       `json:"weight_kg"`
	DesiredWeightKg float64       `json:"desired_weight_kg"`
	WeeklyLossKg    float64       `json:"weekly_loss_kg"`
	ActivityLevel   ActivityLevel `json:"activity_level"`
	Goal            GoalType      `json:"goal"`

	TargetCalories int `json:"target_calories"`
	TargetProtein  int `json:"target_protein"`
	TargetCarbs    int `json:"target_carbs"`
	TargetFat      int `json:"target_fat"`

	// Onboarding answers, stored for the plan screen.
	Difficulties    []string `json:"difficulties"`
	DietGoal        string   `json:"diet_goal"`
	CreatorReferral string   `json:"creator_referral"`
}

// Macros are daily macronutrient targets in whole grams.
type Macros struct {
	ProteinG int `json:"protein_g"`
	CarbsG   int `json:"carbs_g"`
	FatG     int `json:"fat_g"`
}

// DefaultProfile is the profile a fresh install (or an account reset) starts with.
func DefaultProfile() UserProfile {
	return UserProfile{
		Age:             25,
		Gender:          GenderMale,
		HeightCm:        170,
		WeightKg:        70,
		DesiredWeightKg: 65,
		WeeklyLossKg:    0.5,
		ActivityLevel:   ActivityModerate,
		Goal:            GoalLose,
		TargetCalories:  2000,
		TargetProtein:   150,
		TargetCarbs:     200,
		TargetFat:       65,
		Difficulties:    []string{},
		DietGoal:        "lose",
	}
}

// BMR is the Mifflin-St Jeor basal metabolic rate. "other" uses the midpoint
// of the male and female constants.
func (p UserProfile) BMR() float64 {
	bmr := 10*p.WeightKg + 6.25*p.HeightCm - 5*float64(p.Age)
	switch p.Gender {
	case GenderMale:
		bmr += 5
	case GenderFemale:
		bmr -= 161
	default:
		bmr -= 78
	}
	return bmr
}

func (p UserProfile) activityMultiplier() float64 {
	if m, ok := ActivityMultipliers[p.ActivityLevel]; ok {
		return m
	}
	return ActivityMultipliers[ActivitySedentary]
}

// CalculateTDEE returns the daily calorie target: BMR × activity multiplier,
// adjusted for the goal, truncated to an integer and floored at 1200 kcal.
// Under GoalMaintain the weekly rate is ignored.
func (p UserProfile) CalculateTDEE() int {
	tdee := p.BMR() * p.activityMultiplier()

	switch p.Goal {
	case GoalLose:
		tdee -= p.WeeklyLossKg * kcalPerKgFat / 7
	case GoalGain:
		tdee += gainSurplusKcal
	}

	if math.IsNaN(tdee) || tdee < minDailyKcal {
		return minDailyKcal
	}
	if tdee > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(tdee)
}

// CalculateMacros splits CalculateTDEE into 30% protein, 45% carbs and 25%
// fat, each truncated to whole grams.
func (p UserProfile) CalculateMacros() Macros {
	cals := float64(p.CalculateTDEE())
	return Macros{
		ProteinG: int(cals * 0.30 / 4),
		CarbsG:   int(cals * 0.45 / 4),
		FatG:     int(cals * 0.25 / 9),
	}
}

// clone copies the slice field so callers can't alias manager state.
func (p UserProfile) clone() UserProfile {
	p.Difficulties = append([]string{}, p.Difficulties...)
	return p
}

// ProfileManager owns the single UserProfile and persists it under
// "user_profile".
type ProfileManager struct {
	mu      sync.Mutex
	store   kvstore.Store
	profile UserProfile
}

// NewProfileManager loads the saved profile, falling back to DefaultProfile
// when nothing is saved or the blob can't be decoded.
func NewProfileManager(ctx context.Context, store kvstore.Store) *ProfileManager {
	m := &ProfileManager{store: store, profile: DefaultProfile()}
	var saved UserProfile
	found, err := loadJSON(ctx, store, profileKey, &saved)
	if err != nil {
		log.Printf("[profile] load failed, using defaults: %v", err)
		return m
	}
	if found {
		m.profile = saved
	}
	return m
}

// Profile returns a copy of the current profile.
func (m *ProfileManager) Profile() UserProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profile.clone()
}

// Update applies fn to the profile and saves. Targets are not recomputed.
func (m *ProfileManager) Update(ctx context.Context, fn func(*UserProfile)) (UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fn(&m.profile)
	return m.profile.clone(), m.saveLocked(ctx)
}

// ApplyCalculatedTargets recomputes the calorie and macro targets from the
// current biometrics and saves.
func (m *ProfileManager) ApplyCalculatedTargets(ctx context.Context) (UserProfile, error) {
	return m.Update(ctx, func(p *UserProfile) {
		p.TargetCalories = p.CalculateTDEE()
		macros := p.CalculateMacros()
		p.TargetProtein = macros.ProteinG
		p.TargetCarbs = macros.CarbsG
		p.TargetFat = macros.FatG
	})
}

// Reset replaces the profile with a fresh default instance (account reset).
func (m *ProfileManager) Reset(ctx context.Context) (UserProfile, error) {
	return m.Update(ctx, func(p *UserProfile) { *p = DefaultProfile() })
}

func (m *ProfileManager) Save(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveLocked(ctx)
}

func (m *ProfileManager) saveLocked(ctx context.Context) error {
	return saveJSON(ctx, m.store, profileKey, m.profile)
}
