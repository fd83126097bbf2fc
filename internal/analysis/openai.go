// Package analysis talks to the OpenAI chat completions API to turn food
// photos and menu photos into nutrition data.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

/* ─── Errors ─────────────────────────────────────────────────────────── */

var (
	ErrNoImageData          = errors.New("no image data provided")
	ErrInvalidResponse      = errors.New("invalid response from api")
	ErrParsing              = errors.New("could not parse food information")
	ErrInvalidImage         = errors.New("could not process the image")
	ErrTextExtractionFailed = errors.New("could not extract text from the menu")
	ErrInvalidURL           = errors.New("invalid api endpoint")
	ErrNoContent            = errors.New("no recommendations received")
	ErrInvalidJSON          = errors.New("could not parse recommendations")
	ErrAnalysisInProgress   = errors.New("an analysis is already in progress")
	ErrRateLimited          = errors.New("too many analysis requests")
)

// APIError is a failed exchange with the API: a non-200 status, a transport
// failure, or an unreadable body. StatusCode is 0 when no response arrived.
type APIError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	return "api error: " + e.Message
}

func (e *APIError) Unwrap() error { return e.Err }

// errNoChoiceContent is mapped by each gateway to its own taxonomy.
var errNoChoiceContent = errors.New("no choice content in response")

// Describe turns an analysis error into the message shown to the user.
func Describe(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &apiErr):
		return "API Error: " + apiErr.Message
	case errors.Is(err, ErrNoImageData):
		return "No image data provided"
	case errors.Is(err, ErrInvalidResponse):
		return "Invalid response from API"
	case errors.Is(err, ErrParsing):
		return "Could not parse food information"
	case errors.Is(err, ErrInvalidImage):
		return "Could not process the image"
	case errors.Is(err, ErrTextExtractionFailed):
		return "Could not extract text from the menu"
	case errors.Is(err, ErrInvalidURL):
		return "Invalid API endpoint"
	case errors.Is(err, ErrNoContent):
		return "No recommendations received"
	case errors.Is(err, ErrInvalidJSON):
		return "Could not parse recommendations"
	case errors.Is(err, ErrAnalysisInProgress):
		return "An analysis is already in progress"
	case errors.Is(err, ErrRateLimited):
		return "Too many analysis requests, try again shortly"
	default:
		return "API request failed"
	}
}

/* ─── Wire types ─────────────────────────────────────────────────────── */

// chatMessage content is either a plain string or a list of contentParts.
type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type chatRequest struct {
	Model               string        `json:"model"`
	Messages            []chatMessage `json:"messages"`
	MaxTokens           int           `json:"max_tokens,omitempty"`
	MaxCompletionTokens int           `json:"max_completion_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type vendorError struct {
	Error *struct {
		Message string  `json:"message"`
		Type    *string `json:"type"`
		Code    any     `json:"code"`
	} `json:"error"`
}

/* ─── Client ─────────────────────────────────────────────────────────── */

// ClientConfig configures a Client. Zero Timeout means 30s; zero
// RatePerMinute disables throttling.
type ClientConfig struct {
	BaseURL       string
	APIKey        string
	Model         string
	Timeout       time.Duration
	RatePerMinute int
}

// Client sends chat completion requests. Safe for concurrent use.
type Client struct {
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient validates the endpoint once, so a malformed base URL fails at
// startup instead of on the first request.
func NewClient(cfg ClientConfig) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, cfg.BaseURL)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-5-nano"
	}

	c := &Client{
		endpoint:   u.String() + "/v1/chat/completions",
		apiKey:     cfg.APIKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
	if cfg.RatePerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RatePerMinute)), cfg.RatePerMinute)
	}
	return c, nil
}

// complete sends req and returns choices[0].message.content.
func (c *Client) complete(ctx context.Context, req chatRequest) (string, error) {
	if c.limiter != nil {
		// Wait fails early, without a context error, when the next token
		// would arrive after ctx's deadline.
		if err := c.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return "", fmt.Errorf("wait for rate limiter: %w", ctx.Err())
			}
			return "", fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
	}
	req.Model = c.model

	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return "", &APIError{Message: "Failed to build request: " + err.Error()}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", &APIError{Message: "Failed to build request: " + err.Error()}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &APIError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &APIError{StatusCode: resp.StatusCode, Message: err.Error()}
	}

	if resp.StatusCode != http.StatusOK {
		var envelope vendorError
		if json.Unmarshal(respBytes, &envelope) == nil && envelope.Error != nil && envelope.Error.Message != "" {
			return "", &APIError{StatusCode: resp.StatusCode, Message: envelope.Error.Message}
		}
		return "", &APIError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("Server returned status %d", resp.StatusCode)}
	}

	var result chatResponse
	if err := json.Unmarshal(respBytes, &result); err != nil {
		return "", &APIError{StatusCode: resp.StatusCode, Message: err.Error()}
	}
	if len(result.Choices) == 0 || result.Choices[0].Message.Content == nil {
		return "", errNoChoiceContent
	}
	return *result.Choices[0].Message.Content, nil
}

// stripCodeFences removes Markdown ```json / ``` markers the model sometimes
// wraps around JSON, plus surrounding whitespace.
func stripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
