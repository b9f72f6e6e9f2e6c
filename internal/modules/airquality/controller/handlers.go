package controller

import (
	"html/template"
	"io"
	"log/slog"
	"net/http"

	"berlin-airquality/internal/modules/airquality/service"
	"berlin-airquality/internal/modules/airquality/types"
	"berlin-airquality/internal/modules/airquality/views"
	"berlin-airquality/internal/utils"
)

func (c *airQualityControllerImpl) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	data := &views.DashboardData{Title: views.PageTitle, Intro: views.NewIntro(c.service.Directory())}

	opts, err := c.service.Options(r.Context())
	if err != nil {
		status := logServiceError("dashboard: options", err)
		data.Error = err.Error()
		utils.WriteHTML(w, status, func(w io.Writer) error { return views.RenderDashboard(w, data) })
		return
	}

	q, err := parseFilterQuery(r)
	if err != nil {
		data.Error = err.Error()
		data.Form = views.NewFilterForm(opts, defaultFilter(opts))
		utils.WriteHTML(w, http.StatusBadRequest, func(w io.Writer) error { return views.RenderDashboard(w, data) })
		return
	}

	view, err := c.service.View(r.Context(), q)
	if err != nil {
		status := logServiceError("dashboard: view", err)
		data.Error = err.Error()
		data.Form = views.NewFilterForm(opts, defaultFilter(opts))
		utils.WriteHTML(w, status, func(w io.Writer) error { return views.RenderDashboard(w, data) })
		return
	}

	data.Form = views.NewFilterForm(opts, view.Filter)
	data.View = views.NewViewData(view, recordsURL(view.Filter, 0))
	utils.WriteHTML(w, http.StatusOK, func(w io.Writer) error { return views.RenderDashboard(w, data) })
}

func (c *airQualityControllerImpl) handleViewPartial(w http.ResponseWriter, r *http.Request) {
	q, err := parseFilterQuery(r)
	if err != nil {
		data := &views.ViewData{Error: err.Error()}
		utils.WriteHTML(w, http.StatusBadRequest, func(w io.Writer) error { return views.RenderViewPartial(w, data) })
		return
	}
	view, err := c.service.View(r.Context(), q)
	if err != nil {
		status := logServiceError("view partial", err)
		data := &views.ViewData{Error: err.Error()}
		utils.WriteHTML(w, status, func(w io.Writer) error { return views.RenderViewPartial(w, data) })
		return
	}
	data := views.NewViewData(view, recordsURL(view.Filter, 0))
	utils.WriteHTML(w, http.StatusOK, func(w io.Writer) error { return views.RenderViewPartial(w, data) })
}

func (c *airQualityControllerImpl) handleRecordsPartial(w http.ResponseWriter, r *http.Request) {
	q, err := parseFilterQuery(r)
	if err != nil {
		data := &views.RecordsData{Error: err.Error()}
		utils.WriteHTML(w, http.StatusBadRequest, func(w io.Writer) error { return views.RenderRecordsPartial(w, data) })
		return
	}
	page, err := c.service.Records(r.Context(), q, parsePage(r), recordsPageSize)
	if err != nil {
		status := logServiceError("records partial", err)
		data := &views.RecordsData{Error: err.Error()}
		utils.WriteHTML(w, status, func(w io.Writer) error { return views.RenderRecordsPartial(w, data) })
		return
	}

	data := &views.RecordsData{
		Page:      page,
		PageItems: buildPageItems(page.Filter, page.TotalPages, page.Page),
	}
	if page.Page > 1 {
		data.PrevURL = template.URL(recordsURL(page.Filter, page.Page-1))
	}
	if page.Page < page.TotalPages {
		data.NextURL = template.URL(recordsURL(page.Filter, page.Page+1))
	}
	utils.WriteHTML(w, http.StatusOK, func(w io.Writer) error { return views.RenderRecordsPartial(w, data) })
}

func (c *airQualityControllerImpl) handleOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := c.service.Options(r.Context())
	if err != nil {
		utils.WriteError(w, logServiceError("options", err), err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, opts)
}

func (c *airQualityControllerImpl) handleView(w http.ResponseWriter, r *http.Request) {
	q, err := parseFilterQuery(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	view, err := c.service.View(r.Context(), q)
	if err != nil {
		utils.WriteError(w, logServiceError("view", err), err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, view)
}

func (c *airQualityControllerImpl) handleRecords(w http.ResponseWriter, r *http.Request) {
	q, err := parseFilterQuery(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	pageSize, err := parsePageSize(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	page, err := c.service.Records(r.Context(), q, parsePage(r), pageSize)
	if err != nil {
		utils.WriteError(w, logServiceError("records", err), err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, page)
}

func (c *airQualityControllerImpl) handleDataset(w http.ResponseWriter, r *http.Request) {
	snap, err := c.service.Snapshot(r.Context())
	if err != nil {
		utils.WriteError(w, logServiceError("dataset", err), err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, snap)
}

func defaultFilter(opts *types.Options) types.Filter {
	f, _ := service.ResolveFilter(opts, types.FilterQuery{})
	return f
}

// logServiceError logs err at a level matching its status and returns the status.
func logServiceError(what string, err error) int {
	status := errorStatus(err)
	switch status {
	case http.StatusServiceUnavailable:
		slog.Warn(what+": dataset unavailable", "error", err)
	case http.StatusInternalServerError:
		slog.Error(what+" failed", "error", err)
	}
	return status
}
