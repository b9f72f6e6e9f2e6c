package controller

import (
	"context"
	"net/http"

	"berlin-airquality/internal/dataset"
	"berlin-airquality/internal/modules/airquality/types"
)

// AirQualityService is what the controller needs from the service layer.
type AirQualityService interface {
	Options(ctx context.Context) (*types.Options, error)
	View(ctx context.Context, q types.FilterQuery) (*types.View, error)
	Records(ctx context.Context, q types.FilterQuery, page, pageSize int) (*types.RecordsPage, error)
	Snapshot(ctx context.Context) (*types.Snapshot, error)
	Directory() []dataset.StationEntry
}

type AirQualityController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type airQualityControllerImpl struct {
	service AirQualityService
}

func NewAirQualityController(service AirQualityService) AirQualityController {
	return &airQualityControllerImpl{service: service}
}

func (c *airQualityControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /", c.handleDashboard)
	mux.HandleFunc("GET /partials/view", c.handleViewPartial)
	mux.HandleFunc("GET /partials/records", c.handleRecordsPartial)
	mux.HandleFunc("GET /api/v1/options", c.handleOptions)
	mux.HandleFunc("GET /api/v1/view", c.handleView)
	mux.HandleFunc("GET /api/v1/records", c.handleRecords)
	mux.HandleFunc("GET /api/v1/dataset", c.handleDataset)
}
