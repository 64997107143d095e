package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	enrich "github.com/paperpulse/enrich"
	"github.com/paperpulse/enrich/llm"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (JSON)")
	addr := flag.String("addr", ":8080", "Listen address")
	flag.Parse()

	// Structured JSON logging.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg := enrich.DefaultConfig()
	if *configPath != "" {
		f, err := os.Open(*configPath)
		if err != nil {
			slog.Error("opening config", "error", err)
			os.Exit(1)
		}
		if err := json.NewDecoder(f).Decode(&cfg); err != nil {
			f.Close()
			slog.Error("parsing config", "error", err)
			os.Exit(1)
		}
		f.Close()
	}

	// Override from environment variables.
	if v := os.Getenv("PAPERPULSE_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("PAPERPULSE_PREVIEW_URL_TEMPLATE"); v != "" {
		cfg.PreviewURLTemplate = v
	}
	if v := os.Getenv("PAPERPULSE_METADATA_API_URL"); v != "" {
		cfg.MetadataAPIURL = v
	}
	if v := os.Getenv("PAPERPULSE_ANALYSIS_PROVIDER"); v != "" {
		if cfg.Analysis == nil {
			cfg.Analysis = &llm.Config{}
		}
		cfg.Analysis.Provider = v
	}
	if cfg.Analysis != nil {
		if v := os.Getenv("PAPERPULSE_ANALYSIS_BASE_URL"); v != "" {
			cfg.Analysis.BaseURL = v
		}
		if v := os.Getenv("PAPERPULSE_ANALYSIS_MODEL"); v != "" {
			cfg.Analysis.Model = v
		}
		if v := os.Getenv("PAPERPULSE_ANALYSIS_API_KEY"); v != "" {
			cfg.Analysis.APIKey = v
		}
		// Fallback: check well-known provider env vars for API keys.
		if cfg.Analysis.APIKey == "" && cfg.Analysis.Provider == "groq" {
			cfg.Analysis.APIKey = os.Getenv("GROQ_API_KEY")
		}
	}

	apiKey := os.Getenv("PAPERPULSE_API_KEY")
	corsOrigins := os.Getenv("PAPERPULSE_CORS_ORIGINS")

	engine, err := enrich.New(cfg)
	if err != nil {
		slog.Error("creating engine", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	h := newHandler(engine)
	mux := http.NewServeMux()

	mux.HandleFunc("POST /enrich", h.handleEnrich)
	mux.HandleFunc("GET /papers/{id}/structure", h.handleStructure)
	mux.HandleFunc("GET /papers/{id}/thumbnail", h.handleThumbnail)
	mux.HandleFunc("GET /papers/{id}/analysis", h.handleAnalysis)
	mux.HandleFunc("GET /health", h.handleHealth)

	// Middleware chain: recovery -> cors -> auth -> logging -> mux
	var handler http.Handler = mux
	handler = logMiddleware(handler)
	handler = authMiddleware(apiKey, handler)
	handler = corsMiddleware(corsOrigins, handler)
	handler = recoveryMiddleware(handler)

	srv := &http.Server{
		Addr:         *addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute, // cascades can walk several slow upstreams
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown on SIGTERM/SIGINT.
	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}
