package nutrition

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultServingSize = "1 serving"

// FoodEntry is one logged food. Immutable by convention once logged; owned by
// exactly one DailyLog.
type FoodEntry struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	NameThai     string    `json:"name_thai"`
	NameJapanese string    `json:"name_japanese"`
	Calories     int       `json:"calories"`
	Protein      float64   `json:"protein"`
	Carbs        float64   `json:"carbs"`
	Fat          float64   `json:"fat"`
	ServingSize  string    `json:"serving_size"`
	ImageData    []byte    `json:"image_data,omitempty"`
	Date         time.Time `json:"date"`
}

// LocalizedName picks the name variant for lang, falling back to the default
// name when that variant is empty.
func (e FoodEntry) LocalizedName(lang Language) string {
	switch lang {
	case LanguageThai:
		if e.NameThai != "" {
			return e.NameThai
		}
	case LanguageJapanese:
		if e.NameJapanese != "" {
			return e.NameJapanese
		}
	}
	return e.Name
}

// SourceKind says where a food came from.
type SourceKind string

const (
	SourceCamera  SourceKind = "camera"
	SourceLibrary SourceKind = "library"
	SourceManual  SourceKind = "manual"
)

// FoodSource is the tagged input to logging a food: an image from the camera
// or photo library, or values typed in by hand.
type FoodSource struct {
	Kind   SourceKind
	Image  []byte
	Manual ManualEntry
}

// NeedsAnalysis reports whether the source must go through image analysis.
func (s FoodSource) NeedsAnalysis() bool {
	return s.Kind == SourceCamera || s.Kind == SourceLibrary
}

// ManualEntry holds user-typed nutrition values.
type ManualEntry struct {
	Name         string  `json:"name"`
	NameThai     string  `json:"name_thai"`
	NameJapanese string  `json:"name_japanese"`
	Calories     int     `json:"calories"`
	Protein      float64 `json:"protein"`
	Carbs        float64 `json:"carbs"`
	Fat          float64 `json:"fat"`
	ServingSize  string  `json:"serving_size"`
}

var (
	ErrManualNameRequired = errors.New("name is required")
	ErrNegativeNutrition  = errors.New("calories and macros must not be negative")
	ErrUnknownSource      = errors.New("unknown food source")
)

// NewManualEntry validates m and builds an entry stamped at now.
func NewManualEntry(m ManualEntry, now time.Time) (FoodEntry, error) {
	name := strings.TrimSpace(m.Name)
	if name == "" {
		return FoodEntry{}, ErrManualNameRequired
	}
	if m.Calories < 0 || m.Protein < 0 || m.Carbs < 0 || m.Fat < 0 {
		return FoodEntry{}, ErrNegativeNutrition
	}
	serving := strings.TrimSpace(m.ServingSize)
	if serving == "" {
		serving = defaultServingSize
	}
	return FoodEntry{
		ID:           uuid.New(),
		Name:         name,
		NameThai:     m.NameThai,
		NameJapanese: m.NameJapanese,
		Calories:     m.Calories,
		Protein:      m.Protein,
		Carbs:        m.Carbs,
		Fat:          m.Fat,
		ServingSize:  serving,
		Date:         now,
	}, nil
}
