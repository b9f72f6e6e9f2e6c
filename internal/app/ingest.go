package app

import (
	"context"
	"log/slog"

	"berlin-airquality/internal/config"
	"berlin-airquality/internal/dataset"
	"berlin-airquality/internal/ingest"
	"berlin-airquality/internal/mqtt"
)

// RunIngest builds the combined dataset from the configured archive. A
// configured broker that cannot be reached only costs the notice.
func RunIngest(ctx context.Context, cfg config.Config, logger *slog.Logger) (*ingest.Report, error) {
	logger.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"archivePath", cfg.ArchivePath,
		"rawDir", cfg.RawDir,
		"outputParquet", cfg.OutputParquet,
		"outputCSV", cfg.OutputCSV,
		"catalogFile", cfg.CatalogFile,
		"mqttBroker", cfg.MQTTBroker,
		"mqttTopic", cfg.MQTTTopic,
	)

	catalog, err := dataset.LoadCatalog(cfg.CatalogFile)
	if err != nil {
		return nil, err
	}

	var notifier ingest.Notifier
	if cfg.MQTTEnabled() {
		publisher := mqtt.NewPublisher(cfg, logger)
		connectCtx, cancel := context.WithTimeout(ctx, mqttConnectTimeout)
		err := publisher.Connect(connectCtx)
		cancel()
		if err != nil {
			logger.Warn("mqtt connection failed (dataset notice will not be sent)", "error", err)
		} else {
			defer publisher.Disconnect()
			notifier = publisher
		}
	}

	pipeline := ingest.NewPipeline(ingest.Options{
		ArchivePath: cfg.ArchivePath,
		WorkDir:     cfg.RawDir,
		ParquetPath: cfg.OutputParquet,
		CSVPath:     cfg.OutputCSV,
	}, catalog, logger, notifier)
	return pipeline.Run(ctx)
}
