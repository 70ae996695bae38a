package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ent0n29/ayanamist/internal/admin"
	"github.com/ent0n29/ayanamist/internal/bot"
	"github.com/ent0n29/ayanamist/internal/config"
	"github.com/ent0n29/ayanamist/internal/dispatch"
	"github.com/ent0n29/ayanamist/internal/greeter"
	"github.com/ent0n29/ayanamist/internal/ledger"
	"github.com/ent0n29/ayanamist/internal/logging"
	"github.com/ent0n29/ayanamist/internal/observability"
	"github.com/ent0n29/ayanamist/internal/platform"
	"github.com/ent0n29/ayanamist/internal/pokeapi"
	"github.com/ent0n29/ayanamist/internal/proxy"
	"github.com/ent0n29/ayanamist/internal/quiz"
	"github.com/ent0n29/ayanamist/internal/verify"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Configure("", nil)
		logging.L().Fatal().Err(err).Msg("config load failed")
	}
	logging.Configure(cfg.LogLevel, nil)
	logger := logging.With("main")

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	store, err := ledger.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("ledger store init failed")
	}
	defer store.Close()

	client := platform.NewClient(cfg.APIBaseURL, cfg.BotToken)
	gateway := platform.NewGateway(cfg.GatewayURL, cfg.BotToken)
	broker := platform.NewBroker()

	registry := verify.NewRegistry(cfg.CaptchaTimeLimit)
	verifyHandler := verify.NewHandler(registry, client, metrics, store,
		cfg.GuildID, cfg.StaffRoleID, cfg.VerifyRoleID)
	quizHandler := quiz.NewHandler(client, pokeapi.NewClient(cfg.PokeAPIBaseURL), broker,
		metrics, store, cfg.ApplicationID, cfg.QuizTimeLimit, cfg.QuizMaxRetry)
	proxyHandler := proxy.NewHandler(client, proxy.NewClient(cfg.ProxyListURL, cfg.ProxyCheckURL),
		metrics, cfg.ApplicationID)
	greeterHandler := greeter.NewHandler(client, cfg.GuildID, cfg.GreeterChannelID)

	router := dispatch.NewRouter()
	router.Handle(dispatch.NamespaceCaptcha, verifyHandler.HandleComponent)
	router.Handle(dispatch.NamespaceProxy, proxyHandler.HandleComponent)

	b := bot.New(bot.Options{
		Registrar: client,
		Router:    router,
		Greeter:   greeterHandler,
		Publisher: broker,
		Metrics:   metrics,
		Commands: bot.CommandTable(client,
			verifyHandler.HandleCommand,
			quizHandler.HandleCommand,
			proxyHandler.HandleProxy,
			proxyHandler.HandleProxyCheck,
		),
		ApplicationID: cfg.ApplicationID,
		GuildID:       cfg.GuildID,
	})

	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: admin.New(store, b.Ready).Router(),
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	go func() {
		if err := gateway.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("gateway stopped")
		}
	}()
	go func() {
		if err := b.Run(runCtx, gateway.Events()); err != nil && !errors.Is(err, context.Canceled) {
			logger.Fatal().Err(err).Msg("event loop failed")
		}
	}()
	go func() {
		logger.Info().Str("addr", cfg.BindAddr).Msg("admin server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("listen failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info().Msg("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("graceful shutdown failed")
		_ = httpServer.Close()
	}

	logger.Info().Msg("shutdown complete")
}
