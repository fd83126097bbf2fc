package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"lg/aroical-go-api/internal/analysis"
	"lg/aroical-go-api/internal/kvstore"
	"lg/aroical-go-api/internal/nutrition"
)

func main() {
	log.SetPrefix("aroical-api: ")
	log.SetFlags(log.LstdFlags)

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}
	cfg := loadConfig()

	loc, err := cfg.location()
	if err != nil {
		log.Fatalf("Invalid TZ_NAME %q: %v", cfg.TZName, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := kvstore.Open(ctx, cfg.StorageURL, cfg.KVPrefix)
	if err != nil {
		log.Fatalf("Unable to open storage: %v", err)
	}
	defer store.Close()

	// A malformed endpoint is a configuration error, so it stops startup.
	client, err := analysis.NewClient(analysis.ClientConfig{
		BaseURL:       cfg.OpenAIBaseURL,
		APIKey:        cfg.OpenAIKey,
		Model:         cfg.OpenAIModel,
		Timeout:       cfg.OpenAITimeout,
		RatePerMinute: cfg.OpenAIRatePerMinute,
	})
	if err != nil {
		log.Fatalf("OpenAI client: %v", err)
	}
	if cfg.OpenAIKey == "" {
		log.Println("WARNING: OPENAI_API_KEY not set; food and menu analysis will fail")
	}

	ocr, err := newRecognizer(ctx, cfg)
	if err != nil {
		log.Printf("WARNING: OCR unavailable, menu analysis disabled: %v", err)
	}
	if cfg.APITokenHash == "" {
		log.Println("WARNING: API_TOKEN_HASH not set; every /api request will be rejected. Run cmd/create-token.")
	}

	h := newHandler(ctx, store, nutrition.Calendar{Loc: loc}, nil, client, ocr, cfg.APITokenHash, cfg.LanguageTag)

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	router := gin.Default()
	router.SetTrustedProxies(nil)
	h.registerRoutes(router)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("Listening on %s (zone %s)", srv.Addr, loc)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
