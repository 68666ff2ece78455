package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/xela07ax/claims-authz-harness/internal/graph"
	"github.com/xela07ax/claims-authz-harness/internal/infra"
	"github.com/xela07ax/claims-authz-harness/internal/infra/auth"
	"github.com/xela07ax/claims-authz-harness/internal/policy"
	"github.com/xela07ax/claims-authz-harness/internal/repository/postgres"
	"github.com/xela07ax/claims-authz-harness/internal/server"
)

func main() {
	// 1. Конфиг и логгер
	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Политики: конфиг + (опционально) Postgres. Реестр запечатывается до приема трафика
	registry, err := buildRegistry(appCtx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to build policy registry", zap.Error(err))
	}
	logger.Info("policies registered", zap.Strings("names", registry.Names()))

	protections, err := graph.NewProtections(cfg.Protections)
	if err != nil {
		logger.Fatal("invalid type protections", zap.Error(err))
	}
	// Неизвестная политика в привязке — падаем на старте, а не на первом запросе
	if err := protections.Validate(registry); err != nil {
		logger.Fatal("invalid type protections", zap.Error(err))
	}

	// 3. Метрики и слой доступа
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	guard := graph.NewGuard(policy.NewGate(registry), protections, graph.NewMetrics(promReg), logger)

	users := make([]graph.User, len(cfg.Directory.Users))
	for i, u := range cfg.Directory.Users {
		users[i] = graph.User{ID: u.ID, Name: u.Name}
	}
	schema, err := graph.NewSchema(graph.NewResolver(guard, users), protections, logger)
	if err != nil {
		logger.Fatal("failed to build schema", zap.Error(err))
	}

	// 4. Построитель UserContext
	builder, err := newContextBuilder(cfg.Auth, logger)
	if err != nil {
		logger.Fatal("failed to init authentication", zap.Error(err))
	}

	// 5. HTTP Server
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server.NewServer(cfg.Server, logger, schema, builder, promReg),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 6. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("harness started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	<-stop
	logger.Info("harness stopping...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	logger.Info("harness exited properly")
}

func buildRegistry(ctx context.Context, cfg *infra.Config, logger *zap.Logger) (*policy.Registry, error) {
	defs := append([]policy.Definition(nil), cfg.Policies...)

	if cfg.Database.URL != "" {
		repo, err := postgres.NewPolicyRepo(ctx, cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		defer repo.Close()

		dbDefs, err := repo.LoadDefinitions(ctx)
		if err != nil {
			return nil, err
		}
		defs = append(defs, dbDefs...)
	}

	return policy.BuildRegistry(defs)
}

func newContextBuilder(cfg infra.AuthConfig, logger *zap.Logger) (auth.ContextBuilder, error) {
	// Подмена пользователя тестовыми клеймами имеет приоритет над токеном
	if len(cfg.OverrideClaims) > 0 || cfg.OverrideIdentity != "" {
		logger.Warn("user context override is active, tokens are ignored",
			zap.String("identity", cfg.OverrideIdentity), zap.Int("claims", len(cfg.OverrideClaims)))
		return auth.NewStaticContextBuilder(cfg.OverrideIdentity, cfg.OverrideClaims), nil
	}

	if len(cfg.PublicKey) == 0 {
		logger.Warn("no public key configured, all requests are anonymous")
		return auth.AnonymousContextBuilder, nil
	}

	pub, err := auth.ParseRSAPublicKey(cfg.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}
	return auth.NewTokenContextBuilder(auth.NewBaseValidator(pub, cfg.Issuer)), nil
}
