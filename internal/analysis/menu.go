package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp"

	"lg/aroical-go-api/internal/nutrition"
)

/* ─── Types ──────────────────────────────────────────────────────────── */

// MenuItem is one dish the model picked out of a menu.
type MenuItem struct {
	ID                uuid.UUID     `json:"id"`
	Name              string        `json:"name"`
	Description       string        `json:"description"`
	EstimatedCalories string        `json:"estimatedCalories"`
	HealthScore       int           `json:"healthScore"`
	TasteScore        int           `json:"tasteScore"`
	Reasoning         string        `json:"reasoning"`
	Nutrients         *NutrientInfo `json:"nutrients,omitempty"`
}

// NutrientInfo holds free-text ranges such as "20-25g".
type NutrientInfo struct {
	Protein *string `json:"protein,omitempty"`
	Carbs   *string `json:"carbs,omitempty"`
	Fat     *string `json:"fat,omitempty"`
	Fiber   *string `json:"fiber,omitempty"`
}

type MenuRecommendations struct {
	Healthiest     []MenuItem `json:"healthiest"`
	Tastiest       []MenuItem `json:"tastiest"`
	BalancedChoice *MenuItem  `json:"balancedChoice,omitempty"`
	Analysis       string     `json:"analysis"`
	Tips           []string   `json:"tips"`
}

// RecommendationType narrows the advisory variant of menu analysis.
type RecommendationType string

const (
	RecommendHealthiest RecommendationType = "healthiest"
	RecommendTastiest   RecommendationType = "tastiest"
	RecommendProtein    RecommendationType = "protein"
	RecommendFiber      RecommendationType = "fiber"
)

var recommendationFocus = map[RecommendationType]string{
	RecommendHealthiest: "the healthiest dishes: lean protein, vegetables, lighter cooking methods and sensible portions",
	RecommendTastiest:   "the tastiest and most satisfying dishes, while noting anything very heavy",
	RecommendProtein:    "high-protein dishes that help with satiety and muscle maintenance",
	RecommendFiber:      "fiber-rich dishes that are gentle on digestion",
}

func ParseRecommendationType(s string) (RecommendationType, bool) {
	t := RecommendationType(s)
	_, ok := recommendationFocus[t]
	return t, ok
}

// TextRecognizer extracts a plain-text transcript from an image.
type TextRecognizer interface {
	RecognizeText(ctx context.Context, image []byte) (string, error)
}

/* ─── Prompts ────────────────────────────────────────────────────────── */

const menuSystemPrompt = "You are a helpful nutritionist and food expert."

const menuPromptTemplate = `You are a nutritionist and food expert analyzing a menu. Based on the following menu text, provide recommendations in JSON format.

Menu Text:
%s

Please analyze and return a JSON response with:
1. "healthiest": Array of top 3 healthiest options with details
2. "tastiest": Array of top 3 tastiest/most satisfying options with details
3. "balancedChoice": Single best option balancing health and taste
4. "analysis": Brief overview of the menu's health profile
5. "tips": Array of 3 tips for ordering from this menu

For each menu item include:
- name: Item name
- description: Brief description
- estimatedCalories: Estimated calorie range (e.g., "400-500")
- healthScore: 1-10 rating
- tasteScore: 1-10 rating
- reasoning: Why this choice
- nutrients: Object with protein, carbs, fat, fiber estimates

Respond ONLY with valid JSON, no additional text.`

const recommendPromptTemplate = `Here is the text of a restaurant menu:

%s

Recommend up to 3 dishes from this menu, focusing on %s. For each dish give its name, a rough calorie range and one sentence on why it fits. Finish with one short ordering tip.
Reply in %s as plain text, no JSON and no Markdown tables.`

var languageNames = map[nutrition.Language]string{
	nutrition.LanguageEnglish:  "English",
	nutrition.LanguageThai:     "Thai",
	nutrition.LanguageJapanese: "Japanese",
}

/* ─── Gateway ────────────────────────────────────────────────────────── */

// MenuGateway reads a menu photo with OCR, then asks the model about it.
type MenuGateway struct {
	client *Client
	ocr    TextRecognizer
}

func NewMenuGateway(client *Client, ocr TextRecognizer) *MenuGateway {
	return &MenuGateway{client: client, ocr: ocr}
}

// extractText runs OCR. Nothing reaches the network if the bytes are not a
// decodable image or no text comes back.
func (g *MenuGateway) extractText(ctx context.Context, img []byte) (string, error) {
	if len(img) == 0 {
		return "", ErrNoImageData
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(img)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	text, err := g.ocr.RecognizeText(ctx, img)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTextExtractionFailed, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrTextExtractionFailed
	}
	return text, nil
}

// AnalyzeMenu returns structured healthiest/tastiest picks for a menu photo.
func (g *MenuGateway) AnalyzeMenu(ctx context.Context, img []byte) (MenuRecommendations, error) {
	menuText, err := g.extractText(ctx, img)
	if err != nil {
		return MenuRecommendations{}, err
	}

	content, err := g.client.complete(ctx, chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: menuSystemPrompt},
			{Role: "user", Content: fmt.Sprintf(menuPromptTemplate, menuText)},
		},
		MaxCompletionTokens: 2000,
	})
	if errors.Is(err, errNoChoiceContent) {
		return MenuRecommendations{}, ErrNoContent
	}
	if err != nil {
		return MenuRecommendations{}, err
	}
	return parseMenuRecommendations(content)
}

// AnalyzeMenuWithRecommendation returns free-text advice for one
// recommendation type, written in lang.
func (g *MenuGateway) AnalyzeMenuWithRecommendation(ctx context.Context, img []byte, kind RecommendationType, lang nutrition.Language) (string, error) {
	focus, ok := recommendationFocus[kind]
	if !ok {
		return "", fmt.Errorf("unknown recommendation type %q", kind)
	}
	menuText, err := g.extractText(ctx, img)
	if err != nil {
		return "", err
	}
	langName, ok := languageNames[lang]
	if !ok {
		langName = languageNames[nutrition.LanguageEnglish]
	}

	content, err := g.client.complete(ctx, chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: menuSystemPrompt},
			{Role: "user", Content: fmt.Sprintf(recommendPromptTemplate, menuText, focus, langName)},
		},
		MaxCompletionTokens: 2000,
	})
	if errors.Is(err, errNoChoiceContent) {
		return "", ErrNoContent
	}
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(content)
	if text == "" {
		return "", ErrNoContent
	}
	return text, nil
}

/* ─── Decoding ───────────────────────────────────────────────────────── */

// Wire shapes use pointers so required keys can be told apart from zero
// values.
type menuItemWire struct {
	Name              *string       `json:"name"`
	Description       *string       `json:"description"`
	EstimatedCalories *string       `json:"estimatedCalories"`
	HealthScore       *int          `json:"healthScore"`
	TasteScore        *int          `json:"tasteScore"`
	Reasoning         *string       `json:"reasoning"`
	Nutrients         *NutrientInfo `json:"nutrients"`
}

type menuWire struct {
	Healthiest     *[]menuItemWire `json:"healthiest"`
	Tastiest       *[]menuItemWire `json:"tastiest"`
	BalancedChoice *menuItemWire   `json:"balancedChoice"`
	Analysis       *string         `json:"analysis"`
	Tips           *[]string       `json:"tips"`
}

func (w menuItemWire) toItem() (MenuItem, error) {
	if w.Name == nil || w.Description == nil || w.EstimatedCalories == nil ||
		w.HealthScore == nil || w.TasteScore == nil || w.Reasoning == nil {
		return MenuItem{}, fmt.Errorf("%w: menu item missing fields", ErrInvalidJSON)
	}
	return MenuItem{
		ID:                uuid.New(),
		Name:              *w.Name,
		Description:       *w.Description,
		EstimatedCalories: *w.EstimatedCalories,
		HealthScore:       *w.HealthScore,
		TasteScore:        *w.TasteScore,
		Reasoning:         *w.Reasoning,
		Nutrients:         w.Nutrients,
	}, nil
}

func toItems(ws []menuItemWire) ([]MenuItem, error) {
	items := make([]MenuItem, 0, len(ws))
	for _, w := range ws {
		item, err := w.toItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func parseMenuRecommendations(content string) (MenuRecommendations, error) {
	var w menuWire
	if err := json.Unmarshal([]byte(stripCodeFences(content)), &w); err != nil {
		return MenuRecommendations{}, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if w.Healthiest == nil || w.Tastiest == nil || w.Analysis == nil || w.Tips == nil {
		return MenuRecommendations{}, fmt.Errorf("%w: missing fields", ErrInvalidJSON)
	}

	healthiest, err := toItems(*w.Healthiest)
	if err != nil {
		return MenuRecommendations{}, err
	}
	tastiest, err := toItems(*w.Tastiest)
	if err != nil {
		return MenuRecommendations{}, err
	}
	recs := MenuRecommendations{
		Healthiest: healthiest,
		Tastiest:   tastiest,
		Analysis:   *w.Analysis,
		Tips:       *w.Tips,
	}
	if w.BalancedChoice != nil {
		balanced, err := w.BalancedChoice.toItem()
		if err != nil {
			return MenuRecommendations{}, err
		}
		recs.BalancedChoice = &balanced
	}
	return recs, nil
}
