package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/richd0tcom/powrmet/core/consumer"
	"github.com/richd0tcom/powrmet/internal/engine"
	"github.com/richd0tcom/powrmet/internal/metrics"
	"github.com/richd0tcom/powrmet/internal/worker"
)

const requestIDKey = "request_id"

type Server struct {
	config   *ServerConfig
	svc      *engine.Service
	worker   *worker.Worker
	obs      *metrics.PromObs
	registry *prometheus.Registry
	router   *gin.Engine
}

func NewServer(options ...ConfigOption) (*Server, error) {
	config := &ServerConfig{
		WorkerCount: 4,
		BatchSize:   100,
		Port:        "3000",
	}

	for _, option := range options {
		if err := option(config); err != nil {
			return nil, errors.Join(err, config.close())
		}
	}

	if config.DataStore == nil {
		return nil, errors.Join(errors.New("server: a sample store is required"), config.close())
	}
	if config.Consumer == nil {
		config.Consumer = consumer.NewLogConsumer("default")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	obs := metrics.NewPromObs(registry)

	svc := engine.NewService(config.DataStore, config.Clock)

	server := &Server{
		config:   config,
		svc:      svc,
		obs:      obs,
		registry: registry,
		router:   gin.Default(),
	}
	if config.MessageQueue != nil {
		server.worker = worker.NewWorker(svc, config.Consumer, obs, config.QueueSource, config.WorkerCount, config.BatchSize)
	}

	server.setupRoutes()
	return server, nil
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	s.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	lora := s.router.Group("/lora", requestID())
	{
		lora.POST("", s.handleIngest)
		lora.GET("/latest", s.handleLatest)
		lora.GET("/history", s.handleHistory)
		lora.GET("/summary", s.handleSummary)
	}
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func (s *Server) Start(ctx context.Context) error {
	if s.worker != nil {
		go func() {
			if err := s.worker.Start(ctx, s.config.MessageQueue); err != nil {
				slog.Error("worker stopped with error", "source", s.config.QueueSource, "error", err)
			}
		}()
	}

	server := &http.Server{
		Addr:    ":" + s.config.Port,
		Handler: s.router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("http shutdown", "error", err)
		}
	}()

	slog.Info("server starting", "port", s.config.Port)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Close() error {
	return s.config.close()
}
