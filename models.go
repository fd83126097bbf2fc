package main

import (
	"time"

	"github.com/google/uuid"

	"lg/aroical-go-api/internal/analysis"
	"lg/aroical-go-api/internal/nutrition"
)

// DateOnly wraps time.Time to serialize as "YYYY-MM-DD" in JSON. Handlers
// convert into the calendar's location before wrapping.
type DateOnly struct{ time.Time }

func (d DateOnly) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Time.Format("2006-01-02") + `"`), nil
}

func (d *DateOnly) UnmarshalJSON(b []byte) error {
	t, err := time.Parse(`"2006-01-02"`, string(b))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

/* ─── Profile ────────────────────────────────────────────────────────── */

// profileResponse is the profile plus an optional storage warning.
type profileResponse struct {
	nutrition.UserProfile
	Warning string `json:"warning,omitempty"`
}

// patchProfileRequest uses pointer fields to distinguish "not provided" from
// zero. Only non-nil fields are applied.
type patchProfileRequest struct {
	Name            *string                  `json:"name"`
	Age             *int                     `json:"age"`
	Gender          *nutrition.Gender        `json:"gender"`
	HeightCm        *float64                 `json:"height_cm"`
	WeightKg        *float64                 `json:"weight_kg"`
	DesiredWeightKg *float64                 `json:"desired_weight_kg"`
	WeeklyLossKg    *float64                 `json:"weekly_loss_kg"`
	ActivityLevel   *nutrition.ActivityLevel `json:"activity_level"`
	Goal            *nutrition.GoalType      `json:"goal"`

	TargetCalories *int `json:"target_calories"`
	TargetProtein  *int `json:"target_protein"`
	TargetCarbs    *int `json:"target_carbs"`
	TargetFat      *int `json:"target_fat"`

	Difficulties    *[]string `json:"difficulties"`
	DietGoal        *string   `json:"diet_goal"`
	CreatorReferral *string   `json:"creator_referral"`

	// ApplyTargets recomputes the targets after the other fields are applied.
	ApplyTargets bool `json:"apply_targets"`
}

// targetsResponse shows what the current biometrics would produce next to
// the targets in force.
type targetsResponse struct {
	BMR              float64          `json:"bmr"`
	CalculatedTDEE   int              `json:"calculated_tdee"`
	CalculatedMacros nutrition.Macros `json:"calculated_macros"`
	TargetCalories   int              `json:"target_calories"`
	TargetProtein    int              `json:"target_protein"`
	TargetCarbs      int              `json:"target_carbs"`
	TargetFat        int              `json:"target_fat"`
}

/* ─── Food log ───────────────────────────────────────────────────────── */

// dailyLogResponse is one day's log with totals and the remaining budget.
// ID is nil when no log exists for the day yet.
type dailyLogResponse struct {
	ID                *uuid.UUID            `json:"id"`
	Date              DateOnly              `json:"date"`
	Entries           []nutrition.FoodEntry `json:"entries"`
	TotalCalories     int                   `json:"total_calories"`
	TotalProtein      float64               `json:"total_protein"`
	TotalCarbs        float64               `json:"total_carbs"`
	TotalFat          float64               `json:"total_fat"`
	TargetCalories    int                   `json:"target_calories"`
	RemainingCalories int                   `json:"remaining_calories"`
	Warning           string                `json:"warning,omitempty"`
}

// createEntryRequest is the body for POST /api/food-log/entries: typed-in
// values, optionally with the photo the values came from.
type createEntryRequest struct {
	nutrition.ManualEntry
	Image []byte `json:"image"`
}

// entryResponse wraps a newly logged entry.
type entryResponse struct {
	Entry   nutrition.FoodEntry `json:"entry"`
	Warning string              `json:"warning,omitempty"`
}

// progressDay is one point on the progress chart.
type progressDay struct {
	Date     DateOnly `json:"date"`
	Calories int      `json:"calories"`
	Protein  float64  `json:"protein"`
	Carbs    float64  `json:"carbs"`
	Fat      float64  `json:"fat"`
	Entries  int      `json:"entries"`
}

type progressResponse struct {
	Days           int                `json:"days"`
	Logs           []progressDay      `json:"logs"`
	Averages       nutrition.Averages `json:"averages"`
	Streak         int                `json:"streak"`
	TargetCalories int                `json:"target_calories"`
}

/* ─── Analysis ───────────────────────────────────────────────────────── */

// foodSourceRequest is the tagged food source: camera/library carry an image
// (base64 in JSON), manual carries typed values.
type foodSourceRequest struct {
	Source string                 `json:"source"`
	Image  []byte                 `json:"image"`
	Manual *nutrition.ManualEntry `json:"manual"`
}

func (r foodSourceRequest) toSource() nutrition.FoodSource {
	src := nutrition.FoodSource{Kind: nutrition.SourceKind(r.Source), Image: r.Image}
	if r.Manual != nil {
		src.Manual = *r.Manual
	}
	return src
}

type menuRequest struct {
	Image []byte `json:"image"`
}

type recommendRequest struct {
	Image []byte `json:"image"`
	Type  string `json:"type"`
}

type recommendResponse struct {
	Type     analysis.RecommendationType `json:"type"`
	Language nutrition.Language          `json:"language"`
	Text     string                      `json:"text"`
}

/* ─── Weight log ─────────────────────────────────────────────────────── */

type weightEntryResponse struct {
	ID       uuid.UUID `json:"id"`
	Date     DateOnly  `json:"date"`
	WeightKg float64   `json:"weight_kg"`
	Warning  string    `json:"warning,omitempty"`
}

// logWeightRequest's date defaults to today when omitted.
type logWeightRequest struct {
	Date     *DateOnly `json:"date"`
	WeightKg float64   `json:"weight_kg"`
}

/* ─── Settings ───────────────────────────────────────────────────────── */

type languageResponse struct {
	Language  nutrition.Language   `json:"language"`
	Available []nutrition.Language `json:"available"`
	Warning   string               `json:"warning,omitempty"`
}
