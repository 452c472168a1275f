package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"google.golang.org/grpc/health"

	grpchealth "github.com/dtroode/auth-server/internal/api/grpc/health"
	grpcrouter "github.com/dtroode/auth-server/internal/api/grpc/router"
	grpcserver "github.com/dtroode/auth-server/internal/api/grpc/server"
	httpctx "github.com/dtroode/auth-server/internal/api/http/context"
	httprouter "github.com/dtroode/auth-server/internal/api/http/router"
	httpserver "github.com/dtroode/auth-server/internal/api/http/server"
	"github.com/dtroode/auth-server/internal/config"
	"github.com/dtroode/auth-server/internal/logger"
	"github.com/dtroode/auth-server/internal/model"
	"github.com/dtroode/auth-server/internal/notify"
	"github.com/dtroode/auth-server/internal/password"
	"github.com/dtroode/auth-server/internal/repository/postgres"
	"github.com/dtroode/auth-server/internal/repository/sqlite"
	"github.com/dtroode/auth-server/internal/server"
	"github.com/dtroode/auth-server/internal/service"
	"github.com/dtroode/auth-server/internal/telemetry"
	"github.com/dtroode/auth-server/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

// storage is the opened database regardless of driver.
type storage struct {
	accounts model.AccountStore
	ledger   model.RefreshTokenStore
	pinger   grpchealth.Pinger
	close    func() error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.Log.Level, cfg.Log.Format)

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:     cfg.OTEL.Enabled,
		Endpoint:    cfg.OTEL.Endpoint,
		ServiceName: cfg.OTEL.ServiceName,
		Version:     buildVersion,
	})
	if err != nil {
		logger.Fatal("failed to initialize tracing", "error", err)
	}

	store, err := openStorage(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err, "driver", cfg.Database.Driver)
	}
	defer store.close()

	kinds := make(map[model.TokenKind]token.KindConfig, 4)
	ttls := cfg.JWT.TTLs()
	for kind, secret := range cfg.JWT.Secrets() {
		kinds[kind] = token.KindConfig{Secret: secret, TTL: ttls[kind]}
	}
	tokenManager := token.NewJWT(kinds)

	hasher, err := password.New(password.Params{
		Algorithm:  cfg.KDF.Algorithm,
		Time:       cfg.KDF.Time,
		MemKiB:     cfg.KDF.MemKiB,
		Par:        cfg.KDF.Par,
		BcryptCost: cfg.KDF.BcryptCost,
	})
	if err != nil {
		logger.Fatal("failed to initialize password hasher", "error", err)
	}

	dispatcher := notify.NewDispatcher(notify.Links{
		VerifyEmailURL:   cfg.Notify.VerifyEmailURL,
		ResetPasswordURL: cfg.Notify.ResetPasswordURL,
	}, notify.NewLogSender(logger), cfg.Notify.QueueSize, logger)
	// queued links are still delivered after the signal
	dispatcher.Start(context.WithoutCancel(ctx))

	tokenService := service.NewTokenService(tokenManager, store.ledger, logger)
	authService := service.NewAuth(store.accounts, tokenService, tokenManager, hasher, dispatcher, logger)
	sweeper := service.NewSweeper(store.ledger, cfg.Database.SweepInterval, logger)

	httpSrv := httpserver.NewHTTPServer(
		httprouter.New(authService, tokenService, httpctx.NewManager(), logger).Register(),
		fmt.Sprintf(":%s", cfg.HTTP.Port),
	)

	healthServer := health.NewServer()
	watcher := grpchealth.NewWatcher(healthServer, store.pinger, cfg.GRPC.HealthInterval, logger)
	grpcSrv := grpcserver.NewGRPCServer(
		grpcrouter.New(healthServer, logger).Register(),
		fmt.Sprintf(":%s", cfg.GRPC.Port),
	)

	var httpSL, grpcSL model.SecurityLayer = server.NewPlainListener(), server.NewPlainListener()
	if cfg.HTTP.EnableHTTPS {
		httpSL = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName, "http/1.1")
	}
	if cfg.GRPC.EnableTLS {
		grpcSL = server.NewTLSListener(cfg.GRPC.CertFileName, cfg.GRPC.PrivateKeyFileName, "h2")
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		sweeper.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		watcher.Run(ctx)
	}()

	servers := []struct {
		srv model.Server
		sl  model.SecurityLayer
	}{
		{httpSrv, httpSL},
		{grpcSrv, grpcSL},
	}
	for _, s := range servers {
		wg.Add(1)
		go func(s model.Server, sl model.SecurityLayer) {
			defer wg.Done()
			logger.Info("Starting server on", "address", s.Address())
			if err := s.Start(sl); err != nil {
				logger.Error("failed to start server", "error", err, "address", s.Address())
				stop()
			}
		}(s.srv, s.sl)
	}

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	for _, s := range servers {
		if err := s.srv.Stop(shutdownCtx); err != nil {
			logger.Error("error during server shutdown", "error", err, "address", s.srv.Address())
		}
	}

	wg.Wait()
	dispatcher.Close()

	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("error during tracing shutdown", "error", err)
	}
	logger.Info("shutdown complete")
}

func openStorage(ctx context.Context, cfg config.Database) (*storage, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		conn, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &storage{
			accounts: sqlite.NewAccountRepository(conn.DB),
			ledger:   sqlite.NewRefreshTokenRepository(conn.DB),
			pinger:   conn,
			close:    conn.Close,
		}, nil
	default:
		conn, err := postgres.NewConnection(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return &storage{
			accounts: postgres.NewAccountRepository(conn.DB),
			ledger:   postgres.NewRefreshTokenRepository(conn.DB),
			pinger:   conn,
			close:    conn.Close,
		}, nil
	}
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
