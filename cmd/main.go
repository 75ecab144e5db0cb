package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"drive-rag-chatbot/internal/ai"
	"drive-rag-chatbot/internal/config"
	"drive-rag-chatbot/internal/logger"
	"drive-rag-chatbot/internal/telemetry"
	"drive-rag-chatbot/middleware"
	"drive-rag-chatbot/routes"
	"drive-rag-chatbot/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.InitLogger(cfg)

	if cfg.TracingEnabled {
		shutdown, err := telemetry.InitTracer("drive-rag-chatbot", cfg.OTLPEndpoint)
		if err != nil {
			logger.Warn("Tracing disabled", "error", err)
		} else {
			defer shutdown()
		}
	}

	ctx := context.Background()

	// AI clients are optional: without an API key the server still runs and
	// answers queries with a fixed unavailable message.
	var embedder services.Embedder
	var generator services.Generator
	if cfg.GeminiAPIKey != "" {
		embeddingClient, err := ai.NewEmbeddingClient(ctx, cfg.GeminiAPIKey, cfg.GoogleEmbeddingsModel)
		if err != nil {
			log.Fatalf("Failed to create embedding client: %v", err)
		}
		defer embeddingClient.Close()

		geminiClient, err := ai.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiTier, cfg.Temperature, cfg.MaxOutputTokens)
		if err != nil {
			log.Fatalf("Failed to create Gemini client: %v", err)
		}
		defer geminiClient.Close()

		embedder = embeddingClient
		generator = geminiClient
		logger.Info("AI services configured", "model", cfg.GeminiModel, "embeddings_model", cfg.GoogleEmbeddingsModel)
	} else {
		logger.Warn("GEMINI_API_KEY not set, running without AI services")
	}

	var cache *services.ExtractCache
	if redisClient, err := config.NewRedisClient(cfg); err != nil {
		logger.Warn("Running without extraction cache", "error", err)
	} else {
		defer redisClient.Close()
		cache = services.NewExtractCache(redisClient, cfg.ExtractCacheTTL)
		logger.Info("Extraction cache enabled", "ttl", cfg.ExtractCacheTTL.String())
	}

	synth := services.NewAnswerSynthesizer(generator)
	svc := services.NewRAGService(embedder, synth, cache, cfg.MaxChunkSize, cfg.ChunkOverlap, cfg.RetrievalTopK)

	store := services.NewSessionStore(cfg.SessionTTL)
	go store.Start()
	defer store.Stop()

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.Register(r, svc, store, routes.NewDriveSource)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	logger.Info("Server exited")
}
