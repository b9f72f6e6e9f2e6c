package controller

import (
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"berlin-airquality/internal/dataset"
	"berlin-airquality/internal/modules/airquality/service"
	"berlin-airquality/internal/modules/airquality/types"
	"berlin-airquality/internal/modules/airquality/views"
)

const (
	recordsPageSize    = 20
	apiRecordsPageSize = 100
	maxRecordsPageSize = 1000
)

// parseFilterQuery reads pollutant, repeated station, stations_set, from and
// to. Absent values are left for the service to default.
func parseFilterQuery(r *http.Request) (types.FilterQuery, error) {
	q := r.URL.Query()
	var fq types.FilterQuery

	fq.Pollutant = strings.TrimSpace(q.Get("pollutant"))
	for _, s := range q["station"] {
		if s = strings.TrimSpace(s); s != "" {
			fq.Stations = append(fq.Stations, s)
		}
	}
	fq.StationsSet = q.Has("stations_set") || len(fq.Stations) > 0

	var err error
	if s := strings.TrimSpace(q.Get("from")); s != "" {
		if fq.From, err = dataset.ParseDate(s); err != nil {
			return types.FilterQuery{}, errors.New("invalid 'from' (expected YYYY-MM-DD)")
		}
	}
	if s := strings.TrimSpace(q.Get("to")); s != "" {
		if fq.To, err = dataset.ParseDate(s); err != nil {
			return types.FilterQuery{}, errors.New("invalid 'to' (expected YYYY-MM-DD)")
		}
	}
	if !fq.From.IsZero() && !fq.To.IsZero() && fq.From.After(fq.To) {
		return types.FilterQuery{}, errors.New("'from' must be <= 'to'")
	}
	return fq, nil
}

// parsePage returns the 1-based page number from the request (default 1, min 1).
func parsePage(r *http.Request) int {
	s := r.URL.Query().Get("page")
	if s == "" {
		return 1
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func parsePageSize(r *http.Request) (int, error) {
	s := r.URL.Query().Get("page_size")
	if s == "" {
		return apiRecordsPageSize, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New("invalid 'page_size' (expected integer)")
	}
	if n <= 0 {
		return 0, errors.New("'page_size' must be > 0")
	}
	if n > maxRecordsPageSize {
		return 0, errors.New("'page_size' must be <= 1000")
	}
	return n, nil
}

// filterValues encodes a resolved filter so that follow-up requests select
// exactly the same subset.
func filterValues(f types.Filter) url.Values {
	v := url.Values{}
	v.Set("pollutant", f.Pollutant)
	if !f.AllStations {
		v.Set("stations_set", "1")
		for _, s := range f.Stations {
			v.Add("station", s)
		}
	}
	v.Set("from", f.From.String())
	v.Set("to", f.To.String())
	return v
}

func recordsURL(f types.Filter, page int) string {
	v := filterValues(f)
	if page > 0 {
		v.Set("page", strconv.Itoa(page))
	}
	return "/partials/records?" + v.Encode()
}

// buildPageItems returns page numbers and ellipsis for the pagination bar.
func buildPageItems(f types.Filter, totalPages, currentPage int) []views.PaginationItem {
	if totalPages <= 0 {
		return nil
	}
	const window = 2
	show := map[int]bool{1: true, totalPages: true}
	for p := currentPage - window; p <= currentPage+window; p++ {
		if p >= 1 && p <= totalPages {
			show[p] = true
		}
	}
	var items []views.PaginationItem
	prev := 0
	for p := 1; p <= totalPages; p++ {
		if !show[p] {
			continue
		}
		if prev != 0 && p > prev+1 {
			items = append(items, views.PaginationItem{Ellipsis: true})
		}
		items = append(items, views.PaginationItem{Page: p, URL: template.URL(recordsURL(f, p))})
		prev = p
	}
	return items
}

// errorStatus maps service errors to HTTP statuses.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidFilter):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrDatasetUnavailable),
		errors.Is(err, service.ErrMissingColumns),
		errors.Is(err, service.ErrNoStations):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
