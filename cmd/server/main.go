package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"metachat.app/studio/common/id"
	"metachat.app/studio/common/llm"
	"metachat.app/studio/common/logger"
	"metachat.app/studio/common/otel"
	"metachat.app/studio/core/config"
	"metachat.app/studio/core/db"
	"metachat.app/studio/internal/http/middleware"
	httprouter "metachat.app/studio/internal/http/router"
	"metachat.app/studio/internal/hub"
	"metachat.app/studio/internal/relay"
	"metachat.app/studio/internal/service"
	"metachat.app/studio/internal/store"
	"metachat.app/studio/internal/summary"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)
	slog.InfoContext(ctx, "studio starting", "env", cfg.Env, "channel", cfg.Chat.Channel)

	if err := id.Init(cfg.SnowflakeNodeID); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	// The relay is the broadcast path. Without it, clients on other
	// instances would silently miss messages, so connectivity failure
	// here is fatal.
	redisOpts, err := redis.ParseURL(cfg.Chat.RedisURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	slog.InfoContext(ctx, "redis connected", "channel", cfg.Chat.Channel)

	publisher := relay.NewRedisPublisher(redisClient, cfg.Chat.Channel, nil)
	outbox := relay.NewOutbox(publisher, cfg.Chat.OutboxCapacity, cfg.Chat.OutboxRetryDelay, nil)
	go func() {
		if err := outbox.Run(ctx); err != nil && ctx.Err() == nil {
			slog.ErrorContext(ctx, "outbox stopped", "error", err)
		}
	}()

	state := summary.NewState()
	stores := store.NewStores(database.Queries())

	var summarizer llm.Summarizer
	if cfg.Summarizer.Enabled() {
		summarizer, err = llm.New(llm.Config{
			APIKey:  cfg.Summarizer.APIKey,
			BaseURL: cfg.Summarizer.BaseURL,
			Model:   cfg.Summarizer.Model,
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to create summarizer", "error", err)
			os.Exit(1)
		}
		slog.InfoContext(ctx, "summarizer enabled", "model", summarizer.Model())
	} else {
		slog.InfoContext(ctx, "summarizer disabled (no api key), summaries will not update")
	}

	pipeline := summary.NewPipeline(state, stores.Messages(), summarizer, outbox)

	h := hub.New(state)
	go func() {
		if err := h.Run(ctx); err != nil && ctx.Err() == nil {
			slog.ErrorContext(ctx, "hub stopped", "error", err)
		}
	}()

	// Relay-delivered summaries update the local state cell too, so
	// on-connect replay and GET /api/summary stay fresh on instances
	// that never ran the pipeline themselves.
	subscriber, err := relay.NewSubscriber(ctx, redisClient, cfg.Chat.Channel, func(ctx context.Context, env relay.Envelope) {
		switch e := env.(type) {
		case relay.SummaryEnvelope:
			state.Observe(e.Text, e.Version)
		case relay.ResetEnvelope:
			state.Observe(summary.EmptyText, e.Version)
		}
		h.Deliver(ctx, env)
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to subscribe to relay", "error", err)
		os.Exit(1)
	}
	defer subscriber.Close()
	go func() {
		if err := subscriber.Run(ctx); err != nil && ctx.Err() == nil {
			slog.ErrorContext(ctx, "relay subscriber stopped", "error", err)
			os.Exit(1)
		}
	}()

	chat := service.NewChatService(stores, service.NewTxRunner(database), outbox, state, pipeline, nil)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, chat, h)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupRouter(cfg config.Config, chat service.ChatService, h *hub.Hub) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.DashboardURL))

	httprouter.SetupRoutes(router, chat, h, httprouter.RouterConfig{
		DashboardURL: cfg.DashboardURL,
	})

	return router
}

const banner = `
███╗   ███╗███████╗████████╗ █████╗  ██████╗██╗  ██╗ █████╗ ████████╗
████╗ ████║██╔════╝╚══██╔══╝██╔══██╗██╔════╝██║  ██║██╔══██╗╚══██╔══╝
██╔████╔██║█████╗     ██║   ███████║██║     ███████║███████║   ██║
██║╚██╔╝██║██╔══╝     ██║   ██╔══██║██║     ██╔══██║██╔══██║   ██║
██║ ╚═╝ ██║███████╗   ██║   ██║  ██║╚██████╗██║  ██║██║  ██║   ██║
╚═╝     ╚═╝╚══════╝   ╚═╝   ╚═╝  ╚═╝ ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝   ╚═╝
`
