package analysis

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"lg/aroical-go-api/internal/nutrition"
)

const foodPrompt = `Analyze this food image. Return ONLY a JSON object with these exact fields:
{"name": "English name", "nameThai": "Thai name", "nameJapanese": "Japanese name", "calories": number, "protein": number, "carbs": number, "fat": number, "servingSize": "portion description"}
Estimate the nutritional values per visible serving. Be accurate for Thai, Japanese, and international foods.`

// foodEstimate is the JSON shape the model is asked for. Every field is
// required; pointers let decode tell a missing key from a zero value.
type foodEstimate struct {
	Name         *string  `json:"name"`
	NameThai     *string  `json:"nameThai"`
	NameJapanese *string  `json:"nameJapanese"`
	Calories     *float64 `json:"calories"`
	Protein      *float64 `json:"protein"`
	Carbs        *float64 `json:"carbs"`
	Fat          *float64 `json:"fat"`
	ServingSize  *string  `json:"servingSize"`
}

func (f foodEstimate) complete() bool {
	return f.Name != nil && f.NameThai != nil && f.NameJapanese != nil &&
		f.Calories != nil && f.Protein != nil && f.Carbs != nil && f.Fat != nil &&
		f.ServingSize != nil
}

// FoodGateway estimates nutrition from a food photo.
type FoodGateway struct {
	client *Client
	now    func() time.Time
}

// NewFoodGateway returns a gateway stamping entries with now (time.Now if nil).
func NewFoodGateway(client *Client, now func() time.Time) *FoodGateway {
	if now == nil {
		now = time.Now
	}
	return &FoodGateway{client: client, now: now}
}

// AnalyzeFood sends image to the model and builds an unlogged FoodEntry from
// its estimate. Errors are terminal; nothing is retried.
func (g *FoodGateway) AnalyzeFood(ctx context.Context, image []byte) (nutrition.FoodEntry, error) {
	if len(image) == 0 {
		return nutrition.FoodEntry{}, ErrNoImageData
	}

	req := chatRequest{
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: foodPrompt},
				{Type: "image_url", ImageURL: &imageURL{
					URL:    "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image),
					Detail: "low",
				}},
			},
		}},
		MaxTokens: 300,
	}

	content, err := g.client.complete(ctx, req)
	if errors.Is(err, errNoChoiceContent) {
		return nutrition.FoodEntry{}, ErrInvalidResponse
	}
	if err != nil {
		return nutrition.FoodEntry{}, err
	}

	est, err := parseFoodEstimate(content)
	if err != nil {
		return nutrition.FoodEntry{}, err
	}

	return nutrition.FoodEntry{
		ID:           uuid.New(),
		Name:         *est.Name,
		NameThai:     *est.NameThai,
		NameJapanese: *est.NameJapanese,
		Calories:     int(*est.Calories),
		Protein:      *est.Protein,
		Carbs:        *est.Carbs,
		Fat:          *est.Fat,
		ServingSize:  *est.ServingSize,
		ImageData:    image,
		Date:         g.now(),
	}, nil
}

// parseFoodEstimate decodes fenced or bare JSON. Calories must be a whole
// number and no value may be negative.
func parseFoodEstimate(content string) (foodEstimate, error) {
	var est foodEstimate
	if err := json.Unmarshal([]byte(stripCodeFences(content)), &est); err != nil {
		return est, fmt.Errorf("%w: %v", ErrParsing, err)
	}
	if !est.complete() {
		return est, fmt.Errorf("%w: missing fields", ErrParsing)
	}
	if *est.Calories != math.Trunc(*est.Calories) || *est.Calories > math.MaxInt32 {
		return est, fmt.Errorf("%w: calories %v is not an integer", ErrParsing, *est.Calories)
	}
	if *est.Calories < 0 || *est.Protein < 0 || *est.Carbs < 0 || *est.Fat < 0 {
		return est, fmt.Errorf("%w: negative nutrition values", ErrParsing)
	}
	return est, nil
}

// EntryFromSource is the single entry point for logging a food: camera and
// library images go through analysis, manual values are validated as typed.
func (g *FoodGateway) EntryFromSource(ctx context.Context, src nutrition.FoodSource) (nutrition.FoodEntry, error) {
	switch {
	case src.NeedsAnalysis():
		return g.AnalyzeFood(ctx, src.Image)
	case src.Kind == nutrition.SourceManual:
		return nutrition.NewManualEntry(src.Manual, g.now())
	default:
		return nutrition.FoodEntry{}, fmt.Errorf("%w: %q", nutrition.ErrUnknownSource, src.Kind)
	}
}
