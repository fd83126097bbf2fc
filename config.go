package main

import (
	"log"
	"os"
	"strconv"
	"time"
)

// config is read once from the environment (and .env, when present).
type config struct {
	Port       string
	GinMode    string
	StorageURL string
	KVPrefix   string

	OpenAIKey           string
	OpenAIBaseURL       string
	OpenAIModel         string
	OpenAITimeout       time.Duration
	OpenAIRatePerMinute int

	OCRProvider     string
	GoogleVisionKey string
	AWSRegion       string

	APITokenHash string
	TZName       string
	LanguageTag  string
}

func loadConfig() config {
	return config{
		Port:       getEnv("PORT", "3000"),
		GinMode:    getEnv("GIN_MODE", ""),
		StorageURL: getEnv("STORAGE_URL", "file://./data"),
		KVPrefix:   getEnv("KV_PREFIX", "aroical:"),

		OpenAIKey:           getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:       getEnv("OPENAI_BASE_URL", "https://api.openai.com"),
		OpenAIModel:         getEnv("OPENAI_MODEL", "gpt-5-nano"),
		OpenAITimeout:       getEnvDuration("OPENAI_TIMEOUT", 30*time.Second),
		OpenAIRatePerMinute: getEnvInt("OPENAI_RATE_PER_MINUTE", 30),

		OCRProvider:     getEnv("OCR_PROVIDER", "google"),
		GoogleVisionKey: getEnv("GOOGLE_VISION_API_KEY", ""),
		AWSRegion:       getEnv("AWS_REGION", ""),

		APITokenHash: getEnv("API_TOKEN_HASH", ""),
		TZName:       getEnv("TZ_NAME", ""),
		LanguageTag:  getEnv("APP_LANGUAGE", getEnv("LANG", "en")),
	}
}

// location is the zone every calendar-day comparison happens in.
func (c config) location() (*time.Location, error) {
	if c.TZName == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.TZName)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("[config] %s=%q is not an integer, using %d", key, raw, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("[config] %s=%q is not a duration, using %s", key, raw, defaultValue)
		return defaultValue
	}
	return d
}
