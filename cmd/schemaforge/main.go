// Command schemaforge runs the dynamic model API server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/schemaforge/schemaforge/internal/config"
	"github.com/schemaforge/schemaforge/internal/db"
	"github.com/schemaforge/schemaforge/internal/httpapi"
	"github.com/schemaforge/schemaforge/internal/logging"
	"github.com/schemaforge/schemaforge/internal/records"
	"github.com/schemaforge/schemaforge/internal/registry"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}

func run(configPath string) error {
	cfg, errLoad := config.Load(configPath)
	if errLoad != nil {
		return errLoad
	}
	logging.Setup(cfg.Logging)

	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	store := records.NewStore(conn)
	reg := registry.New(conn)
	binder := httpapi.NewBinder(store, cfg.JWT.Secret)
	reg.SetInstaller(binder)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if errLoadAll := reg.LoadAll(ctx); errLoadAll != nil {
		return errLoadAll
	}

	gin.SetMode(gin.ReleaseMode)
	router := httpapi.NewRouter(conn, reg, store, binder, cfg.JWT)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", server.Addr).Info("server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case errServe := <-errCh:
		if errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			return errServe
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
		return errShutdown
	}

	if sqlDB, errDB := conn.DB(); errDB == nil {
		_ = sqlDB.Close()
	}
	log.Info("server closed")
	return nil
}
