package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"chat-relay/internal/config"
	"chat-relay/internal/handlers"
	"chat-relay/internal/observability"
	"chat-relay/internal/rabbitmq"
	"chat-relay/internal/room"
	"chat-relay/internal/store"
	"chat-relay/internal/telemetry"
	"chat-relay/internal/ws"
)

const serviceName = "chat-relay"

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	shutdownTracing, err := telemetry.SetupTracing(ctx, serviceName, cfg.OTELEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Printf("tracing shutdown error: %v", err)
		}
	}()

	st := store.Connect(ctx, cfg.RedisAddr)
	defer func() { _ = st.Close() }()

	publisher := rabbitmq.NewPublisher(cfg.AmqpURL, cfg.AmqpExchange)
	defer func() { _ = publisher.Close() }()
	observability.SetPublisher(publisher)
	log.Printf("event publisher mode=%s", rabbitmq.PublisherMode(publisher))

	auditEmitter := telemetry.NewAuditEmitter(publisher, "audit_log.relay", serviceName, cfg.Environment)

	roomCfg := room.Config{ID: cfg.RoomID, Secret: cfg.SharedSecret}
	hub := ws.NewHub()
	chatRoom := room.New(roomCfg, st, hub, auditEmitter)

	wsHandler := ws.NewHandler(hub, chatRoom)
	relayHandler := handlers.NewRelayHandler(st, chatRoom, roomCfg)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(observability.HTTPMetricsMiddleware())
	router.Use(otelgin.Middleware(serviceName))

	router.GET("/ws", wsHandler.Handle)
	router.GET("/history", relayHandler.GetHistory)
	router.GET("/users", relayHandler.GetOnlineUsers)
	router.GET("/healthz", relayHandler.GetHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterDebugRoutes(router, auditEmitter, cfg.DebugRoutes)

	server := &http.Server{Addr: cfg.Addr, Handler: router}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening addr=%s room=%s", cfg.Addr, cfg.RoomID)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Println("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("server shutdown error: %v", err)
		}
	}

	return nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("server error: %v", err)
	}
}
