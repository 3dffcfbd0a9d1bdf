package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/drawguess-backend/internal/archive"
	"github.com/DoyleJ11/drawguess-backend/internal/config"
	"github.com/DoyleJ11/drawguess-backend/internal/httpapi"
	"github.com/DoyleJ11/drawguess-backend/internal/hub"
	"github.com/DoyleJ11/drawguess-backend/internal/logging"
	"github.com/DoyleJ11/drawguess-backend/internal/session"
	"github.com/DoyleJ11/drawguess-backend/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatal(err)
	}
	os.Exit(exitCode(logger, run(cfg, logger)))
}

// exitCode flushes logger before main exits, since os.Exit skips defers.
func exitCode(logger *zap.Logger, err error) int {
	if err != nil {
		logger.Error("server exited", zap.Error(err))
	}
	_ = logger.Sync()
	if err != nil {
		return 1
	}
	return 0
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var archiver session.Archiver = archive.Nop{}
	if cfg.DatabaseURL != "" {
		store, closeDB, err := archive.Open(ctx, cfg.DatabaseURL, logger.Named("archive"))
		if err != nil {
			return err
		}
		defer closeDB()
		archiver = store
	} else {
		logger.Info("DATABASE_URL not set, round archival disabled")
	}

	h := hub.NewHub(ctx, hub.Config{RoundDuration: cfg.RoundDuration, Logger: logger.Named("hub")})
	clients := ws.NewClients(logger.Named("ws"))
	coord, err := session.NewCoordinator(ctx, h, clients, session.Config{
		Archiver:       archiver,
		ArchiveTimeout: cfg.ArchiveTimeout,
		Logger:         logger.Named("session"),
	})
	if err != nil {
		return err
	}

	handler := httpapi.SetupRoutes(httpapi.Deps{
		Rooms: h,
		WS: ws.Handler(coord, clients, ws.Options{
			OriginPatterns: cfg.Origins(),
			ReadLimit:      cfg.ReadLimit,
			MessageRate:    cfg.MessageRate,
			MessageBurst:   cfg.MessageBurst,
		}),
		Logger: logger.Named("http"),
	})
	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: handler,
		// Hijacked websocket connections are not closed by Shutdown; tie them
		// to the signal context instead.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		h.Shutdown()
		if werr := coord.Wait(shutdownCtx); werr != nil {
			logger.Warn("archival still in flight at shutdown", zap.Error(werr))
		}
		return err
	})
	return g.Wait()
}
