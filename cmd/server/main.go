package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/artinSha/RingApp-Backend/internal/api"
	"github.com/artinSha/RingApp-Backend/internal/audio"
	"github.com/artinSha/RingApp-Backend/internal/call"
	"github.com/artinSha/RingApp-Backend/internal/config"
	"github.com/artinSha/RingApp-Backend/internal/httpserver"
	"github.com/artinSha/RingApp-Backend/internal/llm"
	"github.com/artinSha/RingApp-Backend/internal/scenario"
	"github.com/artinSha/RingApp-Backend/internal/storage"
	"github.com/artinSha/RingApp-Backend/internal/store"
	"github.com/artinSha/RingApp-Backend/internal/stt"
	"github.com/artinSha/RingApp-Backend/internal/tts"
)

func main() {
	// Include sub-second precision in all log timestamps
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	cfg := config.Load()

	connectCtx, connectCancel := context.WithTimeout(context.Background(), 10*time.Second)
	st, err := store.NewMongo(connectCtx, cfg.MongoURI)
	connectCancel()
	if err != nil {
		log.Fatalf("mongo: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = st.Close(ctx)
	}()

	catalog := scenario.Load(cfg.ScenariosPath)
	if cfg.RandomSeed != "" {
		if seed, err := strconv.ParseInt(cfg.RandomSeed, 10, 64); err == nil {
			catalog.SetSeed(seed)
		} else {
			log.Printf("RANDOM_SEED %q is not an integer, ignoring", cfg.RandomSeed)
		}
	}
	catalog.SetForced(cfg.ForceScenario)

	var archive call.Archiver
	if cfg.SupabaseURL != "" && cfg.SupabaseKey != "" {
		sb, err := storage.New(storage.Config{
			URL:            cfg.SupabaseURL,
			ServiceRoleKey: cfg.SupabaseKey,
			Bucket:         cfg.SupabaseBucket,
		})
		if err != nil {
			log.Printf("supabase storage disabled: %v", err)
		} else {
			archive = sb
		}
	}

	svc := call.NewService(call.Deps{
		Store:       st,
		Transcriber: stt.NewGoogleClient(cfg.GoogleSpeechAPIKey),
		Dialogue:    llm.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModelID),
		Synthesizer: tts.NewElevenLabsClient(cfg.ElevenLabsKey, cfg.ElevenLabsVoiceID),
		Transcoder:  audio.NewFFmpeg(),
		Archive:     archive,
		Catalog:     catalog,
	})

	e := httpserver.New()
	api.NewHandlers(svc, st).Register(e)

	server := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in background
	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("server listening on %s", cfg.HTTPAddress)
		serverErrors <- server.ListenAndServe()
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	case sig := <-sigChan:
		log.Printf("shutdown signal received: %v", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = server.Close()
	}
}
