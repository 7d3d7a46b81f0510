package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/viewvista/stream-service/internal/chat"
	"github.com/viewvista/stream-service/internal/config"
	"github.com/viewvista/stream-service/internal/handler"
	"github.com/viewvista/stream-service/internal/hub"
	"github.com/viewvista/stream-service/internal/presence"
	"github.com/viewvista/stream-service/internal/registry"
	"github.com/viewvista/stream-service/internal/session"
	"github.com/viewvista/stream-service/internal/signaling"
	"github.com/viewvista/stream-service/internal/timer"
	pkglog "github.com/viewvista/stream-service/pkg/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load configuration")
	}

	pkglog.Init(pkglog.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty, ServiceName: "stream-service"})
	logger := pkglog.L()

	logger.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("starting stream-service")

	// Transport hub
	wsHub := hub.NewHub(cfg.WebSocket)
	go wsHub.Run()

	// Core components
	roomRegistry := registry.New()
	timers := timer.New()
	tracker := presence.New()
	chatRelay := chat.New()
	coordinator := signaling.New(wsHub)

	manager := session.NewManager(roomRegistry, timers, tracker, chatRelay, coordinator, wsHub)

	// Handlers
	wsHandler := handler.NewWSHandler(wsHub, manager)
	httpHandler := handler.NewHTTPHandler(manager)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(pkglog.GinMiddleware(logger), gin.Recovery())

	httpHandler.RegisterRoutes(router)
	router.GET("/ws", gin.WrapF(wsHandler.HandleWebSocket))

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", server.Addr).Msg("stream-service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down stream-service")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server error")
	}
	logger.Info().Msg("stream-service stopped")
}
