package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"berlin-airquality/internal/config"
	"berlin-airquality/internal/dataset"
	db "berlin-airquality/internal/db"
	httpapi "berlin-airquality/internal/httpapi"
	"berlin-airquality/internal/migrate"
	"berlin-airquality/internal/modules/airquality"
	airqualityviews "berlin-airquality/internal/modules/airquality/views"
	"berlin-airquality/internal/mqtt"
)

const mqttConnectTimeout = 5 * time.Second

// Run serves the dashboard until ctx is done.
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	logger.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"datasetPath", cfg.DatasetPath,
		"catalogFile", cfg.CatalogFile,
		"sqliteDriver", cfg.SQLiteDriver,
		"sqlitePath", cfg.SQLitePath,
		"sqliteMaxOpenConns", cfg.SQLiteMaxOpenConns,
		"sqliteMaxIdleConns", cfg.SQLiteMaxIdleConns,
		"sqliteConnMaxLifetime", cfg.SQLiteConnMaxLifetime,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttTopic", cfg.MQTTTopic,
	)

	catalog, err := dataset.LoadCatalog(cfg.CatalogFile)
	if err != nil {
		return err
	}

	dbConn, err := db.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(dbConn); closeErr != nil {
			logger.Error("db close", "error", closeErr)
		}
	}()

	if err := migrate.Run(dbConn, logger); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info("database ready")

	if err := airqualityviews.LoadTemplates(); err != nil {
		return fmt.Errorf("load templates: %w", err)
	}

	// The handler is attached before Connect so the OnConnect subscription
	// delivers the retained notice to it.
	var (
		subscriber *mqtt.Subscriber
		notices    mqtt.NoticeSubscriber
	)
	if cfg.MQTTEnabled() {
		subscriber = mqtt.NewSubscriber(cfg, logger)
		notices = subscriber
	}

	metrics := httpapi.NewMetrics()
	mux := httpapi.NewMux(dbConn)
	svc := airquality.RegisterFeature(mux, dbConn, notices, cfg.DatasetPath, catalog, logger)
	httpapi.RegisterReadiness(mux, dbConn, svc)
	metrics.TrackDataset(svc)
	metrics.RegisterRoutes(mux)

	if snap, err := svc.Snapshot(ctx); err != nil {
		logger.Warn("dataset not loaded at startup (serving error state until it appears)", "path", cfg.DatasetPath, "error", err)
	} else {
		logger.Info("dataset ready", "path", snap.Path, "rows", snap.Rows, "loaded_at", snap.LoadedAt)
	}

	if subscriber != nil {
		connectCtx, connectCancel := context.WithTimeout(ctx, mqttConnectTimeout)
		err = subscriber.Connect(connectCtx)
		connectCancel()
		if err != nil {
			logger.Warn("mqtt connection failed (continuing without dataset notices)", "error", err)
		}
	}

	srv := httpapi.NewServer(cfg, mux, metrics)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if subscriber != nil {
		logger.Info("mqtt disconnecting")
		subscriber.Disconnect()
	}

	logger.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}
