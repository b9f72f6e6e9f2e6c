// Package service answers dashboard queries against the loaded dataset.
package service

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"berlin-airquality/internal/dataset"
	"berlin-airquality/internal/modules/airquality/repository"
	"berlin-airquality/internal/modules/airquality/types"
)

const (
	EmptyMessage   = "По выбранным фильтрам данных нет. Попробуй выбрать больше станций или расширить период."
	HeatmapMessage = "Недостаточно данных для построения тепловой карты."
)

type Service struct {
	loader  *Loader
	repo    repository.AirQualityRepository
	catalog *dataset.Catalog
	logger  *slog.Logger
}

func NewService(loader *Loader, repo repository.AirQualityRepository, catalog *dataset.Catalog, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{loader: loader, repo: repo, catalog: catalog, logger: logger}
}

// Snapshot loads the dataset if needed and describes it.
func (s *Service) Snapshot(ctx context.Context) (*types.Snapshot, error) {
	return s.loader.Ensure(ctx)
}

// Loaded returns the snapshot currently served without triggering a load.
func (s *Service) Loaded() *types.Snapshot {
	return s.loader.Current()
}

// Directory is the catalog's station list, independent of the loaded data.
func (s *Service) Directory() []dataset.StationEntry {
	return s.catalog.Directory()
}

func (s *Service) Options(ctx context.Context) (*types.Options, error) {
	if _, err := s.loader.Ensure(ctx); err != nil {
		return nil, err
	}
	return s.options()
}

func (s *Service) options() (*types.Options, error) {
	stations, err := s.repo.GetStationNames()
	if err != nil {
		return nil, fmt.Errorf("station names: %w", err)
	}
	if len(stations) == 0 {
		return nil, ErrNoStations
	}
	collate.New(language.German).SortStrings(stations)

	codes, err := s.repo.GetPollutants()
	if err != nil {
		return nil, fmt.Errorf("pollutants: %w", err)
	}
	pollutants := make([]types.PollutantOption, len(codes))
	for i, code := range codes {
		pollutants[i] = types.PollutantOption{Code: code, Label: s.catalog.PollutantLabel(code)}
	}

	first, last, _, err := s.repo.GetDateBounds()
	if err != nil {
		return nil, fmt.Errorf("date bounds: %w", err)
	}
	return &types.Options{Pollutants: pollutants, Stations: stations, MinDate: first, MaxDate: last}, nil
}

// ResolveFilter fills the defaults of q from opts: the first pollutant, every
// station and the full date range.
func ResolveFilter(opts *types.Options, q types.FilterQuery) (types.Filter, error) {
	var f types.Filter

	switch {
	case q.Pollutant != "":
		if !slices.ContainsFunc(opts.Pollutants, func(p types.PollutantOption) bool { return p.Code == q.Pollutant }) {
			return f, fmt.Errorf("%w: unknown pollutant %q", ErrInvalidFilter, q.Pollutant)
		}
		f.Pollutant = q.Pollutant
	case len(opts.Pollutants) > 0:
		f.Pollutant = opts.Pollutants[0].Code
	}

	if !q.StationsSet && len(q.Stations) == 0 {
		f.AllStations = true
		f.Stations = slices.Clone(opts.Stations)
	} else {
		f.Stations = []string{}
		for _, name := range q.Stations {
			if !slices.Contains(opts.Stations, name) {
				return f, fmt.Errorf("%w: unknown station %q", ErrInvalidFilter, name)
			}
			if !slices.Contains(f.Stations, name) {
				f.Stations = append(f.Stations, name)
			}
		}
	}

	// An open end defaults to the data bound but never crosses the given end,
	// so a one-sided range outside the data is empty rather than invalid.
	f.From, f.To = q.From, q.To
	if f.From.IsZero() {
		f.From = opts.MinDate
		if !q.To.IsZero() && q.To.Before(f.From) {
			f.From = q.To
		}
	}
	if f.To.IsZero() {
		f.To = opts.MaxDate
		if q.From.After(f.To) {
			f.To = q.From
		}
	}
	if f.To.Before(f.From) {
		return f, fmt.Errorf("%w: from %s is after to %s", ErrInvalidFilter, f.From, f.To)
	}
	return f, nil
}

func (s *Service) resolve(ctx context.Context, q types.FilterQuery) (types.Filter, error) {
	if _, err := s.loader.Ensure(ctx); err != nil {
		return types.Filter{}, err
	}
	opts, err := s.options()
	if err != nil {
		return types.Filter{}, err
	}
	return ResolveFilter(opts, q)
}

// View computes statistics and chart series for the filtered subset. An empty
// subset is not an error: the view comes back with Empty set.
func (s *Service) View(ctx context.Context, q types.FilterQuery) (*types.View, error) {
	f, err := s.resolve(ctx, q)
	if err != nil {
		return nil, err
	}
	view := &types.View{
		Filter:         f,
		PollutantLabel: s.catalog.PollutantLabel(f.Pollutant),
		PollutantName:  s.catalog.PollutantTitle(f.Pollutant),
	}

	values, err := s.repo.GetFilteredValues(f)
	if err != nil {
		return nil, fmt.Errorf("filtered values: %w", err)
	}
	if len(values) == 0 {
		view.Empty = true
		view.Message = EmptyMessage
		return view, nil
	}
	view.Summary = Describe(values)

	if view.Daily, err = s.repo.GetDailyMeans(f); err != nil {
		return nil, fmt.Errorf("daily means: %w", err)
	}
	if view.Ranking, err = s.repo.GetStationMeans(f); err != nil {
		return nil, fmt.Errorf("station means: %w", err)
	}
	cells, err := s.repo.GetStationDateMeans(f)
	if err != nil {
		return nil, fmt.Errorf("station date means: %w", err)
	}
	view.Heatmap = BuildHeatmap(cells, f.Stations)
	if view.Heatmap == nil {
		view.HeatmapEmpty = true
		view.HeatmapMessage = HeatmapMessage
	}
	return view, nil
}

// BuildHeatmap pivots station × date means into a matrix. Stations follow
// order, dates ascend. It returns nil when there are no cells.
func BuildHeatmap(cells []types.StationDateMean, order []string) *types.Heatmap {
	if len(cells) == 0 {
		return nil
	}
	rank := make(map[string]int, len(order))
	for i, name := range order {
		rank[name] = i
	}

	var (
		stations []string
		dates    []dataset.Date
		seenS    = map[string]bool{}
		seenD    = map[dataset.Date]bool{}
	)
	for _, c := range cells {
		if !seenS[c.StationName] {
			seenS[c.StationName] = true
			stations = append(stations, c.StationName)
		}
		if !seenD[c.Date] {
			seenD[c.Date] = true
			dates = append(dates, c.Date)
		}
	}
	slices.SortFunc(stations, func(a, b string) int {
		ra, okA := rank[a]
		rb, okB := rank[b]
		switch {
		case okA && okB:
			return cmp.Compare(ra, rb)
		case okA:
			return -1
		case okB:
			return 1
		}
		return cmp.Compare(a, b)
	})
	slices.SortFunc(dates, func(a, b dataset.Date) int { return a.Compare(b.Time) })

	row := make(map[string]int, len(stations))
	for i, name := range stations {
		row[name] = i
	}
	col := make(map[dataset.Date]int, len(dates))
	for j, d := range dates {
		col[d] = j
	}

	h := &types.Heatmap{
		Stations: stations,
		Dates:    dates,
		Values:   make([][]*float64, len(stations)),
		ZMin:     cells[0].Mean,
		ZMax:     cells[0].Mean,
	}
	for i := range h.Values {
		h.Values[i] = make([]*float64, len(dates))
	}
	for _, c := range cells {
		v := c.Mean
		h.Values[row[c.StationName]][col[c.Date]] = &v
		h.ZMin = min(h.ZMin, v)
		h.ZMax = max(h.ZMax, v)
	}
	return h
}

// Records returns one page of the filtered raw rows. Out-of-range pages are
// clamped.
func (s *Service) Records(ctx context.Context, q types.FilterQuery, page, pageSize int) (*types.RecordsPage, error) {
	f, err := s.resolve(ctx, q)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.GetRecordsCount(f)
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}
	if pageSize < 1 {
		pageSize = 1
	}
	totalPages := (total + pageSize - 1) / pageSize
	page = max(1, min(page, totalPages))

	records, err := s.repo.GetRecords(f, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("records: %w", err)
	}
	if records == nil {
		records = []dataset.Record{}
	}
	return &types.RecordsPage{
		Filter:     f,
		Records:    records,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}
