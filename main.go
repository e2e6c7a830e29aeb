package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/faceglow/internal/config"
	"github.com/example/faceglow/internal/grpchealth"
	"github.com/example/faceglow/internal/handlers"
	"github.com/example/faceglow/internal/logging"
	"github.com/example/faceglow/internal/middleware"
	"github.com/example/faceglow/internal/usecase"
	"github.com/example/faceglow/internal/vision"
	"github.com/example/faceglow/internal/vision/gemini"
	"github.com/example/faceglow/internal/vision/openai"
	"github.com/example/faceglow/internal/vision/stub"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, closeClient, err := newVisionClient(ctx, cfg.Vision, logger)
	if err != nil {
		return err
	}
	defer closeClient()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := usecase.NewMetrics(registry)
	if err != nil {
		return err
	}

	uc := usecase.NewAnalysisUseCase(client, logger,
		usecase.WithStrictShape(cfg.StrictShape),
		usecase.WithMetrics(metrics),
	)

	if cfg.Server.GinMode != "" {
		gin.SetMode(cfg.Server.GinMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog(logger))
	r.MaxMultipartMemory = cfg.Server.MaxBodyBytes

	handlers.RegisterRoutes(r, uc, handlers.Options{
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Metrics:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
	})

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	var health *grpchealth.Server
	if cfg.Server.GRPCHealthPort != "" {
		lis, err := net.Listen("tcp", ":"+cfg.Server.GRPCHealthPort)
		if err != nil {
			return logging.NewOperationError("main.listen_grpc_health", "", err)
		}
		health = grpchealth.New(logger)
		g.Go(func() error { return health.Serve(gctx, lis) })
		health.MarkServing()
	}

	g.Go(func() error {
		// Stopping HTTP stops the health listener too.
		defer cancel()
		logger.Info("FaceGlow API listening",
			zap.String("addr", server.Addr),
			zap.String("provider", client.Name()),
		)
		return serveHTTPServer(gctx, server, cfg.Server.ShutdownTimeout, logger, serveOptions{
			onShutdown: func() {
				if health != nil {
					health.MarkNotServing()
				}
			},
		})
	})

	return g.Wait()
}

// newVisionClient builds the configured model backend. The returned close
// function is always non-nil.
func newVisionClient(ctx context.Context, cfg config.VisionConfig, logger *zap.Logger) (vision.Client, func(), error) {
	noop := func() {}

	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openai.New(openai.Options{
			APIKey:    cfg.OpenAIAPIKey,
			Model:     cfg.OpenAIModel,
			BaseURL:   cfg.OpenAIBaseURL,
			MaxTokens: cfg.OpenAIMaxTokens,
		}, logger), noop, nil
	case config.ProviderGemini:
		client, err := gemini.New(ctx, gemini.Options{
			APIKey:    cfg.GeminiAPIKey,
			Model:     cfg.GeminiModel,
			MaxTokens: int32(cfg.GeminiMaxTokens),
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return client, func() {
			if err := client.Close(); err != nil {
				logger.Warn("failed to close gemini client", zap.Error(err))
			}
		}, nil
	case config.ProviderStub:
		logger.Warn("using stub vision provider; replies are synthetic")
		return stub.New(), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown vision provider %q", cfg.Provider)
	}
}

type serveOptions struct {
	// listener replaces ListenAndServe when set.
	listener net.Listener
	// signals replaces the process SIGINT/SIGTERM subscription when set.
	signals <-chan os.Signal
	// onShutdown runs before the server starts draining.
	onShutdown func()
}

// serveHTTPServer runs server until it fails, ctx is cancelled or a shutdown
// signal arrives, then drains in-flight requests for up to shutdownTimeout.
func serveHTTPServer(ctx context.Context, server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger, opts serveOptions) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if opts.listener != nil {
			err = server.Serve(opts.listener)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	sigCh := opts.signals
	if sigCh == nil {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(ch)
		sigCh = ch
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	case sig, ok := <-sigCh:
		if !ok {
			return <-errCh
		}
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	}

	if opts.onShutdown != nil {
		opts.onShutdown()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return <-errCh
}
