// Package airquality is the dashboard feature: it mirrors the combined
// dataset into the query store and serves the filter, statistics and chart
// endpoints.
package airquality

import (
	"database/sql"
	"log/slog"
	"net/http"

	"berlin-airquality/internal/dataset"
	"berlin-airquality/internal/modules/airquality/controller"
	"berlin-airquality/internal/modules/airquality/repository"
	"berlin-airquality/internal/modules/airquality/service"
	"berlin-airquality/internal/mqtt"
)

// RegisterFeature wires the feature onto mux. subscriber may be nil when
// dataset notices are disabled.
func RegisterFeature(mux *http.ServeMux, db *sql.DB, subscriber mqtt.NoticeSubscriber, datasetPath string, catalog *dataset.Catalog, logger *slog.Logger) *service.Service {
	airQualityRepository := repository.NewRepository(db)
	loader := service.NewLoader(datasetPath, airQualityRepository, catalog, logger)
	airQualityService := service.NewService(loader, airQualityRepository, catalog, logger)
	if subscriber != nil {
		airQualityService.Register(subscriber)
	}
	airQualityController := controller.NewAirQualityController(airQualityService)
	airQualityController.RegisterRoutes(mux)
	return airQualityService
}
