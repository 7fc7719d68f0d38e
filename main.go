// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/danielhkuo/formsink/auditlog"
	"github.com/danielhkuo/formsink/cliparse"
	"github.com/danielhkuo/formsink/dbops"
	"github.com/danielhkuo/formsink/handlers"
	"github.com/danielhkuo/formsink/router"
)

const shutdownTimeout = 10 * time.Second

func newLogger() *zap.SugaredLogger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stdout), zapcore.InfoLevel)
	return zap.New(core).Sugar()
}

func main() {
	log := newLogger()
	defer log.Sync()

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		log.Errorw("Error parsing flags", "error", err)
		os.Exit(1)
	}

	// Connect to PostgreSQL
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	pool, err := dbops.Open(ctx, cfg)
	cancel()
	if err != nil {
		log.Errorw("database connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	facade := dbops.NewFacade(pool.DB(), log)

	// Audit logger: ensures the log table and starts the flush timer
	alog, err := auditlog.New(context.Background(), facade, auditlog.Options{
		Table:     cfg.LogTable,
		SessionID: "system",
		Subject:   cfg.WriteTable,
		Console:   log,
	})
	if err != nil {
		log.Errorw("audit log setup failed", "error", err)
		os.Exit(1)
	}
	log.Infow("Audit log ready", "table", cfg.LogTable)

	// Load survey definitions
	registry, err := handlers.LoadRegistry(cfg.SurveyDir)
	if err != nil {
		log.Errorw("survey registry load failed", "error", err)
		os.Exit(1)
	}
	log.Infow("Surveys loaded", "dir", cfg.SurveyDir, "surveys", registry.Names())

	// Create router
	mux := router.NewRouter(facade, cfg, registry, alog, log)

	// Create server
	server := http.Server{
		Handler:           mux,
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer scancel()
		if err := server.Shutdown(sctx); err != nil {
			log.Warnw("server shutdown forced", "error", err)
			server.Close()
		}
	}()

	// Start server
	log.Infow("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Errorw("Server closed", "error", err)
	} else {
		log.Infow("Server closed")
	}

	// Flush the remaining audit entries before the pool goes away
	dctx, dcancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer dcancel()
	if err := alog.Drain(dctx); err != nil {
		log.Warnw("audit log drain incomplete", "error", err)
	}
}
