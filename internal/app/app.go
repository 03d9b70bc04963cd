package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"

	"github.com/MikhailRaia/shortlink/internal/auth"
	"github.com/MikhailRaia/shortlink/internal/bitly"
	"github.com/MikhailRaia/shortlink/internal/config"
	"github.com/MikhailRaia/shortlink/internal/embedding"
	"github.com/MikhailRaia/shortlink/internal/handler"
	"github.com/MikhailRaia/shortlink/internal/middleware"
	"github.com/MikhailRaia/shortlink/internal/proto"
	"github.com/MikhailRaia/shortlink/internal/qrcode"
	"github.com/MikhailRaia/shortlink/internal/service"
	"github.com/MikhailRaia/shortlink/internal/tracing"
)

const (
	shutdownTimeout = 10 * time.Second
	sweepInterval   = time.Minute
)

type App struct {
	config          *config.Config
	provider        *embedding.Provider
	limiter         *middleware.RateLimiter
	handler         http.Handler
	grpcServer      *grpc.Server
	shutdownTracing func(context.Context) error
}

func NewApp(cfg *config.Config) (*App, error) {
	shutdownTracing, err := tracing.Setup(tracing.Config{
		Enabled:  cfg.TracingEnabled,
		Exporter: cfg.TracingExporter,
	}, os.Stdout)
	if err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}

	backend, err := newBackend(cfg)
	if err != nil {
		return nil, fmt.Errorf("create embedding backend: %w", err)
	}
	provider := embedding.NewProvider(backend, embedding.BreakerConfig{})

	shortener := bitly.NewClient(cfg.BitlyToken,
		bitly.WithEndpoint(cfg.BitlyEndpoint),
		bitly.WithDefaultDomain(cfg.BitlyDefaultDomain),
		bitly.WithTimeout(cfg.BitlyTimeout),
	)
	renderer := qrcode.NewRenderer()
	controller := service.NewController(shortener, renderer, provider, cfg.ModelWait)

	secret := cfg.SessionSecret
	if secret == "" {
		secret = uuid.NewString()
		log.Warn().Msg("SESSION_SECRET is not set, client tokens will not survive a restart")
	}
	identity := middleware.NewClientIdentity(auth.NewJWTService(secret))
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	httpHandler := handler.NewHandler(controller, renderer, provider,
		handler.WithClientIdentity(identity),
		handler.WithRateLimiter(limiter),
	)

	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(
		identity.UnaryInterceptor,
		limiter.UnaryInterceptor,
	))
	proto.RegisterLinkServiceServer(grpcServer, handler.NewLinkGRPCServer(controller, provider))

	return &App{
		config:          cfg,
		provider:        provider,
		limiter:         limiter,
		handler:         httpHandler.RegisterRoutes(),
		grpcServer:      grpcServer,
		shutdownTracing: shutdownTracing,
	}, nil
}

func newBackend(cfg *config.Config) (embedding.Backend, error) {
	switch cfg.EmbeddingBackend {
	case config.BackendOpenAI:
		return embedding.NewOpenAI(cfg.OpenAIAPIKey, cfg.EmbeddingModel, cfg.OpenAIBaseURL)
	case config.BackendTEI, "":
		var opts []embedding.TEIOption
		if cfg.EmbeddingModel != "" {
			opts = append(opts, embedding.WithTEIModel(cfg.EmbeddingModel))
		}
		return embedding.NewTEI(cfg.EmbeddingURL, opts...), nil
	default:
		return nil, fmt.Errorf("unknown embedding backend %q", cfg.EmbeddingBackend)
	}
}

// Run serves HTTP and gRPC until ctx is done or a server fails, then shuts
// both down. The embedding model loads in the background meanwhile.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.loadModel(ctx)
	go a.limiter.Run(ctx, sweepInterval)

	lis, err := net.Listen("tcp", a.config.GRPCAddress)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}

	httpServer := &http.Server{
		Addr:              a.config.ServerAddress,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)

	go func() {
		log.Info().Str("address", a.config.ServerAddress).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	go func() {
		log.Info().Str("address", lis.Addr().String()).Msg("Starting gRPC server")
		if err := a.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down")
	case runErr = <-errCh:
		log.Error().Err(runErr).Msg("Server failed, shutting down")
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	a.grpcServer.GracefulStop()

	if err := a.shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Tracing shutdown failed")
	}

	return runErr
}

func (a *App) loadModel(ctx context.Context) {
	if err := a.provider.Load(ctx); err != nil {
		log.Error().Err(err).Msg("Embedding model failed to load, similarity checks are disabled")
	}
}
