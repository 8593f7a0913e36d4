package http

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bikeshare/internal/analytics"
	"bikeshare/internal/charts"
	"bikeshare/internal/dataset"
	"bikeshare/internal/filter"
	"bikeshare/internal/report"
	"bikeshare/internal/services"
	"bikeshare/internal/shared/testutil"
)

func filterOptions() *services.FilterOptions {
	return &services.FilterOptions{
		Bounds: dataset.Bounds{Min: day("2011-01-01"), Max: day("2012-12-31")},
		Weather: []services.CodeOption{
			{Code: 1, Label: "Cerah"}, {Code: 2, Label: "Mendung"}, {Code: 3, Label: "Hujan"},
		},
		Seasons: []services.CodeOption{
			{Code: 1, Label: "Spring"}, {Code: 2, Label: "Summer"}, {Code: 3, Label: "Fall"}, {Code: 4, Label: "Winter"},
		},
	}
}

func buildReport(t *testing.T, sel filter.Selection) *report.Report {
	t.Helper()
	tables := testutil.LoadSampleTables(t)
	cfg, warnings, err := filter.NewConfig(sel, tables.Bounds)
	require.NoError(t, err)
	rep, err := report.Build(tables, cfg, report.DefaultOptions())
	require.NoError(t, err)
	rep.Warnings = warnings
	return rep
}

func renderPage(t *testing.T, m *MockDashboardService, target string) *httptest.ResponseRecorder {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	h, err := NewPageHandler(m, logger, nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.Dashboard(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestPageHandler_Dashboard(t *testing.T) {
	rep := buildReport(t, filter.Selection{})
	all := charts.Build(rep)

	m := new(MockDashboardService)
	m.On("Filters").Return(filterOptions(), nil)
	m.On("Charts", filter.Selection{}).Return(all, rep, nil)

	rec := renderPage(t, m, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, report.Title)
	assert.Contains(t, body, "Filter Data")
	assert.Contains(t, body, "Kelompok 3")
	assert.Contains(t, body, "Data Harian")
	assert.Contains(t, body, "Statistik Deskriptif")
	assert.Contains(t, body, `id="chart-data"`)
	assert.Contains(t, body, "/api/dashboard/export/csv?")
	for _, c := range all {
		assert.Contains(t, body, `id="chart-`+c.ID+`"`)
	}
	// every box is ticked when no code parameter was sent
	assert.Contains(t, body, `value="3" checked`)
}

func TestPageHandler_EmptySelection(t *testing.T) {
	sel := filter.Selection{Weather: []int{}}
	rep := buildReport(t, sel)

	m := new(MockDashboardService)
	m.On("Filters").Return(filterOptions(), nil)
	m.On("Charts", sel).Return(charts.Build(rep), rep, nil)

	rec := renderPage(t, m, "/?weather=")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, report.NoticeNoData)
	assert.NotContains(t, body, `name="weather" value="1" checked`)
}

func TestPageHandler_Errors(t *testing.T) {
	tests := []struct {
		name           string
		target         string
		setupMock      func(*MockDashboardService)
		expectedStatus int
		expectedText   string
	}{
		{
			name:   "dataset not loaded",
			target: "/",
			setupMock: func(m *MockDashboardService) {
				m.On("Filters").Return(nil, services.ErrDatasetNotLoaded)
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedText:   "Data belum dimuat",
		},
		{
			name:   "bad code",
			target: "/?season=x",
			setupMock: func(m *MockDashboardService) {
				m.On("Filters").Return(filterOptions(), nil)
			},
			expectedStatus: http.StatusBadRequest,
			expectedText:   "Filter Data",
		},
		{
			name:   "invalid selection",
			target: "/?start=2012-01-01&end=2011-01-01",
			setupMock: func(m *MockDashboardService) {
				m.On("Filters").Return(filterOptions(), nil)
				m.On("Charts", mock.Anything).Return(nil, nil, fmt.Errorf("%w: end before start", filter.ErrInvalidSelection))
			},
			expectedStatus: http.StatusBadRequest,
			expectedText:   "end before start",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(MockDashboardService)
			tt.setupMock(m)

			rec := renderPage(t, m, tt.target)
			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedText)
			m.AssertExpectations(t)
		})
	}
}

func TestPageHandler_Static(t *testing.T) {
	h, err := NewPageHandler(new(MockDashboardService), nil, nil)
	require.NoError(t, err)

	for _, name := range []string{"dashboard.js", "dashboard.css"} {
		rec := httptest.NewRecorder()
		h.Static(rec, httptest.NewRequest(http.MethodGet, "/static/"+name, nil))
		assert.Equal(t, http.StatusOK, rec.Code, name)
		assert.NotZero(t, rec.Body.Len(), name)
	}
}

func TestTemplateHelpers(t *testing.T) {
	h, err := NewPageHandler(new(MockDashboardService), nil, nil)
	require.NoError(t, err)
	funcs := h.funcs()

	num := funcs["num"].(func(float64, int) string)
	assert.Equal(t, "4.504,35", num(4504.3489, 2))

	optnum := funcs["optnum"].(func(*float64, int) string)
	assert.Equal(t, "–", optnum(nil, 2))

	std := 1.5
	c := analytics.ColumnStats{Count: 3, Mean: 2, Std: &std, Min: 1, Q25: 1.5, Median: 2, Q75: 2.5, Max: 3}
	for _, row := range analytics.StatLabels {
		assert.NotNil(t, statCell(c, row), row)
	}
	assert.Nil(t, statCell(analytics.ColumnStats{}, "std"))

	lo, hi := 0.0, 10.0
	assert.Contains(t, string(heatStyle(&lo, lo, hi)), "rgb(255, 237, 160)")
	assert.Contains(t, string(heatStyle(&hi, lo, hi)), "rgb(255, 40, 40)")
	assert.Contains(t, string(heatStyle(nil, lo, hi)), "#f5f5f5")
}
