package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ipanov/UrbanAI-sub002/internal/config"
	api "github.com/ipanov/UrbanAI-sub002/internal/http"
	"github.com/ipanov/UrbanAI-sub002/internal/log"
	"github.com/ipanov/UrbanAI-sub002/internal/metrics"
	"github.com/ipanov/UrbanAI-sub002/internal/oauth"
	"github.com/ipanov/UrbanAI-sub002/internal/queue"
	"github.com/ipanov/UrbanAI-sub002/internal/repo"
	"github.com/ipanov/UrbanAI-sub002/internal/service"
)

func main() {
	cfg := config.Load()

	logger, err := log.Init(cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfg.AllowMockTokens {
		logger.Warn("mock token resolver enabled; do not run this configuration in production")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pg, err := repo.NewPG(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()
	if err := pg.EnsureSchema(ctx); err != nil {
		logger.Fatal("postgres schema", zap.Error(err))
	}

	mg, err := repo.NewMongo(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Fatal("mongo connect", zap.Error(err))
	}
	defer mg.Close(context.Background())

	states, err := repo.NewStateStore(ctx, cfg.RedisAddr, cfg.StateTTL)
	if err != nil {
		logger.Fatal("redis connect", zap.Error(err))
	}
	defer states.Close()

	var events queue.Publisher = queue.NewNoop()
	if cfg.RabbitURL != "" {
		pub, err := queue.NewRabbit(cfg.RabbitURL)
		if err != nil {
			logger.Fatal("rabbit connect", zap.Error(err))
		}
		events = pub
	}
	defer events.Close()

	regulations := repo.NewRegulationsMongo(mg)
	if err := regulations.EnsureIndexes(ctx); err != nil {
		logger.Fatal("mongo indexes", zap.Error(err))
	}

	metrics.MustRegister()

	authSvc := service.NewAuthService(
		repo.NewUsersPG(pg),
		repo.NewTermsPG(pg),
		states,
		oauth.NewRegistry(&cfg),
		events,
		&cfg,
	)
	issueSvc := service.NewIssueService(repo.NewIssuesPG(pg), events)
	regSvc := service.NewRegulationService(regulations)

	ready := func(ctx context.Context) error { return pg.Pool.Ping(ctx) }
	h := api.NewHandler(authSvc, issueSvc, regSvc, cfg, ready)
	r := api.NewRouter(h)

	srvErr := make(chan error, 1)
	go func() { srvErr <- r.Run(":" + cfg.Port) }()

	logger.Info("urbanai listening", zap.String("port", cfg.Port))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		logger.Info("shutting down", zap.String("signal", s.String()))
	case err := <-srvErr:
		logger.Error("server error", zap.Error(err))
	}
}
