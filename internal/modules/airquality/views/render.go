package views

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"slices"

	"berlin-airquality/internal/dataset"
	"berlin-airquality/internal/modules/airquality/types"
)

const (
	PageTitle = "Анализ качества воздуха в Берлине (EEA, PM2.5)"
	UnitLabel = "Концентрация, µg/m³"
)

var dashboardTmpl *template.Template

// loadTemplatesFromFS loads dashboard templates from the given fs and dir.
// Used by LoadTemplates and by tests to simulate failure scenarios.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	tmpl, err := template.New("").Funcs(funcs).ParseFS(sub, "*.html", "partials/*.html")
	if err != nil {
		return err
	}
	dashboardTmpl = tmpl
	return nil
}

// LoadTemplates loads embedded dashboard templates. Call during startup before
// serving requests; if it returns an error, do not start the server.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

var funcs = template.FuncMap{
	"fmtValue": func(v float64) string { return fmt.Sprintf("%.2f", v) },
}

// PollutantChoice is one entry of the pollutant selector.
type PollutantChoice struct {
	Code     string
	Label    string
	Selected bool
}

type StationChoice struct {
	Name     string
	Selected bool
}

// FilterForm is the view model of the filter sidebar.
type FilterForm struct {
	Pollutants []PollutantChoice
	Stations   []StationChoice
	From       string
	To         string
	MinDate    string
	MaxDate    string
}

// NewFilterForm marks the options selected by f.
func NewFilterForm(opts *types.Options, f types.Filter) *FilterForm {
	form := &FilterForm{
		From:    f.From.String(),
		To:      f.To.String(),
		MinDate: opts.MinDate.String(),
		MaxDate: opts.MaxDate.String(),
	}
	for _, p := range opts.Pollutants {
		form.Pollutants = append(form.Pollutants, PollutantChoice{Code: p.Code, Label: p.Label, Selected: p.Code == f.Pollutant})
	}
	for _, s := range opts.Stations {
		form.Stations = append(form.Stations, StationChoice{Name: s, Selected: f.Selected(s)})
	}
	return form
}

// StatRow is one line of the descriptive statistics table.
type StatRow struct {
	Label string
	Value string
}

// Series is an x/y pair of plotly trace arrays.
type Series struct {
	X []string  `json:"x"`
	Y []float64 `json:"y"`
}

// turboColors are the stops of the Turbo color scale, low to high.
var turboColors = []string{
	"#30123b", "#4145ab", "#4675ed", "#39a2fc", "#1bcfd4",
	"#24eca6", "#61fc6c", "#a4fc3b", "#d1e834", "#f3c63a",
	"#fe9b2d", "#f36315", "#d93806", "#b11901", "#7a0402",
}

type HeatmapChart struct {
	X      []string     `json:"x"`
	Y      []string     `json:"y"`
	Z      [][]*float64 `json:"z"`
	ZMin   float64      `json:"zmin"`
	ZMax   float64      `json:"zmax"`
	Colors []string     `json:"colors"`
}

// ChartData is embedded into the view partial as JSON for plotly.
type ChartData struct {
	Unit         string        `json:"unit"`
	DailyTitle   string        `json:"dailyTitle"`
	RankingTitle string        `json:"rankingTitle"`
	HeatmapTitle string        `json:"heatmapTitle"`
	Daily        Series        `json:"daily"`
	Ranking      Series        `json:"ranking"`
	Heatmap      *HeatmapChart `json:"heatmap,omitempty"`
}

// ViewData is the view model for the view partial. Error replaces the whole
// partial when set.
type ViewData struct {
	View       *types.View
	Stats      []StatRow
	Charts     *ChartData
	RecordsURL template.URL
	Error      string
}

// NewViewData prepares the statistics table and chart series of v.
func NewViewData(v *types.View, recordsURL string) *ViewData {
	data := &ViewData{View: v, RecordsURL: template.URL(recordsURL)}
	if v == nil || v.Empty {
		return data
	}
	if s := v.Summary; s != nil {
		std := "—"
		if s.Std != nil {
			std = fmt.Sprintf("%.2f", *s.Std)
		}
		data.Stats = []StatRow{
			{"Количество измерений", fmt.Sprintf("%d", s.Count)},
			{"Среднее", fmt.Sprintf("%.2f", s.Mean)},
			{"Ст. отклонение", std},
			{"Минимум", fmt.Sprintf("%.2f", s.Min)},
			{"25-й перцентиль", fmt.Sprintf("%.2f", s.P25)},
			{"Медиана", fmt.Sprintf("%.2f", s.P50)},
			{"75-й перцентиль", fmt.Sprintf("%.2f", s.P75)},
			{"Максимум", fmt.Sprintf("%.2f", s.Max)},
		}
	}

	name := v.PollutantName
	charts := &ChartData{
		Unit:         UnitLabel,
		DailyTitle:   "Временной ряд средних концентраций " + name + " по выбранным станциям",
		RankingTitle: "Средняя концентрация " + name + " по станциям Берлина",
		HeatmapTitle: "Тепловая карта концентраций " + name,
		Daily:        Series{X: []string{}, Y: []float64{}},
		Ranking:      Series{X: []string{}, Y: []float64{}},
	}
	for _, d := range v.Daily {
		charts.Daily.X = append(charts.Daily.X, d.Date.String())
		charts.Daily.Y = append(charts.Daily.Y, d.Mean)
	}
	for _, r := range v.Ranking {
		charts.Ranking.X = append(charts.Ranking.X, r.StationName)
		charts.Ranking.Y = append(charts.Ranking.Y, r.Mean)
	}
	if h := v.Heatmap; h != nil {
		hc := &HeatmapChart{Y: h.Stations, Z: h.Values, ZMin: h.ZMin, ZMax: h.ZMax, Colors: turboColors}
		for _, d := range h.Dates {
			hc.X = append(hc.X, d.String())
		}
		charts.Heatmap = hc
	}
	data.Charts = charts
	return data
}

// DashboardData is the view model for the full page.
type DashboardData struct {
	Title string
	Intro *Intro
	Form  *FilterForm
	View  *ViewData
	Error string
}

// Intro is the station directory shown above the charts.
type Intro struct {
	Stations []dataset.StationEntry
	Areas    []string
}

// NewIntro lists dir and the distinct area types in order of appearance.
// An empty directory yields nil.
func NewIntro(dir []dataset.StationEntry) *Intro {
	if len(dir) == 0 {
		return nil
	}
	in := &Intro{Stations: dir}
	for _, s := range dir {
		if s.Area != "" && !slices.Contains(in.Areas, s.Area) {
			in.Areas = append(in.Areas, s.Area)
		}
	}
	return in
}

// PaginationItem is one entry in the pagination bar: either a page number or an ellipsis.
type PaginationItem struct {
	Page     int
	Ellipsis bool
	URL      template.URL
}

// RecordsData is the view model for the raw rows partial.
type RecordsData struct {
	Page      *types.RecordsPage
	PageItems []PaginationItem
	PrevURL   template.URL
	NextURL   template.URL
	Error     string
}

func RenderDashboard(w io.Writer, data *DashboardData) error {
	if dashboardTmpl == nil {
		return errors.New("dashboard template not loaded: call views.LoadTemplates during startup")
	}
	return dashboardTmpl.ExecuteTemplate(w, "dashboard.html", data)
}

// RenderViewPartial executes only the view partial into w.
// Use for HTMX fragment refresh after a filter change.
func RenderViewPartial(w io.Writer, data *ViewData) error {
	if dashboardTmpl == nil {
		return errors.New("view template not loaded: call views.LoadTemplates during startup")
	}
	return dashboardTmpl.ExecuteTemplate(w, "partials/view.html", data)
}

// RenderRecordsPartial executes only the raw rows partial into w.
func RenderRecordsPartial(w io.Writer, data *RecordsData) error {
	if dashboardTmpl == nil {
		return errors.New("records template not loaded: call views.LoadTemplates during startup")
	}
	return dashboardTmpl.ExecuteTemplate(w, "partials/records.html", data)
}
