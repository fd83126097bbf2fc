package nutrition

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"lg/aroical-go-api/internal/kvstore"
)

type Language string

const (
	LanguageEnglish  Language = "en"
	LanguageThai     Language = "th"
	LanguageJapanese Language = "ja"

	languageKey = "app_language"
)

// Languages lists supported languages in cycle order.
var Languages = []Language{LanguageEnglish, LanguageThai, LanguageJapanese}

func ParseLanguage(s string) (Language, bool) {
	for _, l := range Languages {
		if string(l) == s {
			return l, true
		}
	}
	return "", false
}

// DetectLanguage maps a preferred-language tag such as "th-TH" or an
// Accept-Language header to a supported language. Unknown means English.
func DetectLanguage(tag string) Language {
	first := strings.TrimSpace(strings.Split(tag, ",")[0])
	first = strings.ToLower(first)
	switch {
	case strings.HasPrefix(first, "th"):
		return LanguageThai
	case strings.HasPrefix(first, "ja"):
		return LanguageJapanese
	default:
		return LanguageEnglish
	}
}

// LanguageSetting is the persisted UI language, stored as the bare code.
type LanguageSetting struct {
	mu      sync.Mutex
	store   kvstore.Store
	current Language
}

// NewLanguageSetting loads the saved language or falls back to detecting one
// from fallbackTag.
func NewLanguageSetting(ctx context.Context, store kvstore.Store, fallbackTag string) *LanguageSetting {
	s := &LanguageSetting{store: store, current: DetectLanguage(fallbackTag)}
	b, err := store.Get(ctx, languageKey)
	switch {
	case errors.Is(err, kvstore.ErrNotFound):
	case err != nil:
		log.Printf("[language] load failed, using %s: %v", s.current, err)
	default:
		if l, ok := ParseLanguage(string(b)); ok {
			s.current = l
		}
	}
	return s
}

func (s *LanguageSetting) Current() Language {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *LanguageSetting) Set(ctx context.Context, l Language) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLocked(ctx, l)
}

func (s *LanguageSetting) setLocked(ctx context.Context, l Language) error {
	s.current = l
	if err := s.store.Set(ctx, languageKey, []byte(l)); err != nil {
		return &StorageError{Op: "save", Key: languageKey, Err: err}
	}
	return nil
}

// Cycle advances to the next language (en → th → ja → en).
func (s *LanguageSetting) Cycle(ctx context.Context) (Language, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := Languages[0]
	for i, l := range Languages {
		if l == s.current {
			next = Languages[(i+1)%len(Languages)]
			break
		}
	}
	return next, s.setLocked(ctx, next)
}
