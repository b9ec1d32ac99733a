package handlers

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/RMahshie/pmtview/internal/provider"
	"github.com/RMahshie/pmtview/internal/render"
	"github.com/RMahshie/pmtview/pkg/chart"
	"github.com/RMahshie/pmtview/pkg/models"
)

// MockRenderService implements render.Service for testing
type MockRenderService struct {
	mock.Mock
}

func (m *MockRenderService) Scene(ctx context.Context, req render.Request) (*chart.Scene, error) {
	args := m.Called(ctx, req)
	scene, _ := args.Get(0).(*chart.Scene)
	return scene, args.Error(1)
}

func (m *MockRenderService) SVG(ctx context.Context, req render.Request) (render.SVGResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(render.SVGResult), args.Error(1)
}

func (m *MockRenderService) Export(ctx context.Context, req render.Request, format render.Format) (render.ExportResult, error) {
	args := m.Called(ctx, req, format)
	return args.Get(0).(render.ExportResult), args.Error(1)
}

func (m *MockRenderService) Download(ctx context.Context, name string) (render.ExportedChart, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(render.ExportedChart), args.Error(1)
}

func (m *MockRenderService) DeleteExport(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

type staticSnapshots struct {
	snap provider.Snapshot
}

func (s staticSnapshots) Snapshot() provider.Snapshot { return s.snap }

var testDefaults = chart.Sizing{Width: 800, Height: 400, Padding: 60}

func seededSnapshots() staticSnapshots {
	points := provider.DefaultDataset()
	points = append(points, models.MeasurementPoint{
		SourceID:   "AA0001",
		Wavelength: 300,
		Metrics:    map[models.MetricKey]float64{models.MetricCurrent: 1e-18},
	})
	return staticSnapshots{snap: provider.Snapshot{Version: 3, Points: points}}
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var se huma.StatusError
	require.True(t, errors.As(err, &se), "expected a huma status error, got %v", err)
	return se.GetStatus()
}

func TestListMetrics(t *testing.T) {
	handler := NewChartHandler(&MockRenderService{}, seededSnapshots(), testDefaults)

	resp, err := handler.ListMetrics(context.Background(), &struct{}{})
	require.NoError(t, err)
	require.Len(t, resp.Body.Metrics, 3)
	assert.Equal(t, models.MetricCurrent, resp.Body.Metrics[0].Key)
	assert.Equal(t, "A/W", resp.Body.Metrics[2].Unit)
}

func TestListSources(t *testing.T) {
	handler := NewChartHandler(&MockRenderService{}, seededSnapshots(), testDefaults)

	resp, err := handler.ListSources(context.Background(), &struct{}{})
	require.NoError(t, err)
	require.Len(t, resp.Body.Sources, 2)

	assert.Equal(t, "AA0001", resp.Body.Sources[0].ID)
	assert.Equal(t, chart.Palette[0], resp.Body.Sources[0].Color)
	assert.Equal(t, 1, resp.Body.Sources[0].Points)

	assert.Equal(t, "ZK5024", resp.Body.Sources[1].ID)
	assert.Equal(t, chart.Palette[1], resp.Body.Sources[1].Color)
	assert.Equal(t, 5, resp.Body.Sources[1].Points)
}

func TestGetScene(t *testing.T) {
	tests := []struct {
		name       string
		query      models.ChartQuery
		wantStatus int
	}{
		{
			name:  "selected source",
			query: models.ChartQuery{Sources: []string{"ZK5024"}, Metric: "light_response", Padding: -1},
		},
		{
			name:       "unknown metric",
			query:      models.ChartQuery{Sources: []string{"ZK5024"}, Metric: "gain", Padding: -1},
			wantStatus: 400,
		},
		{
			name:       "padding larger than the chart",
			query:      models.ChartQuery{Sources: []string{"ZK5024"}, Metric: "current", Width: 100, Height: 100, Padding: 60},
			wantStatus: 400,
		},
		{
			name:       "non-finite width",
			query:      models.ChartQuery{Sources: []string{"ZK5024"}, Metric: "current", Width: math.NaN(), Padding: -1},
			wantStatus: 400,
		},
		{
			name:       "infinite height",
			query:      models.ChartQuery{Sources: []string{"ZK5024"}, Metric: "current", Height: math.Inf(1), Padding: -1},
			wantStatus: 400,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewChartHandler(render.NewService(seededSnapshots(), nil, nil), seededSnapshots(), testDefaults)

			resp, err := handler.GetScene(context.Background(), &tt.query)
			if tt.wantStatus != 0 {
				assert.Equal(t, tt.wantStatus, statusOf(t, err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 800.0, resp.Body.Width)
			assert.Equal(t, []string{"ZK5024"}, resp.Body.ActiveSelection)
			require.Len(t, resp.Body.Series, 1)
			assert.Len(t, resp.Body.Series[0].Vertices, 5)
		})
	}
}

func TestGetSVG(t *testing.T) {
	handler := NewChartHandler(render.NewService(seededSnapshots(), nil, nil), seededSnapshots(), testDefaults)
	query := models.ChartQuery{Sources: []string{"ZK5024"}, Metric: "light_response", Padding: -1}

	resp, err := handler.GetSVG(context.Background(), &models.ChartSVGRequest{ChartQuery: query})
	require.NoError(t, err)
	assert.Equal(t, "image/svg+xml", resp.ContentType)
	assert.NotEmpty(t, resp.ETag)
	assert.True(t, strings.HasPrefix(string(resp.Body), "<svg"))

	t.Run("matching etag", func(t *testing.T) {
		_, err := handler.GetSVG(context.Background(), &models.ChartSVGRequest{ChartQuery: query, IfNoneMatch: resp.ETag})
		assert.Equal(t, 304, statusOf(t, err))
	})

	t.Run("stale etag", func(t *testing.T) {
		again, err := handler.GetSVG(context.Background(), &models.ChartSVGRequest{ChartQuery: query, IfNoneMatch: `"0000000000000000"`})
		require.NoError(t, err)
		assert.Equal(t, resp.ETag, again.ETag)
	})
}

func TestGetSVG_RenderFailure(t *testing.T) {
	mockRender := &MockRenderService{}
	mockRender.On("SVG", mock.Anything, mock.Anything).Return(render.SVGResult{}, errors.New("encoder exploded"))

	handler := NewChartHandler(mockRender, seededSnapshots(), testDefaults)
	_, err := handler.GetSVG(context.Background(), &models.ChartSVGRequest{ChartQuery: models.ChartQuery{Metric: "current", Padding: -1}})
	assert.Equal(t, 500, statusOf(t, err))
	mockRender.AssertExpectations(t)
}

func TestExportChart(t *testing.T) {
	padding := 10.0
	tests := []struct {
		name       string
		padding    *float64
		format     string
		wantSizing chart.Sizing
		wantFormat render.Format
		result     render.ExportResult
		err        error
		wantStatus int
	}{
		{
			name:       "defaults",
			wantSizing: testDefaults,
			wantFormat: render.FormatSVG,
			result:     render.ExportResult{Name: "a.svg", Key: "charts/a.svg", DownloadURL: "https://example.com/a.svg", ExpiresIn: 24 * time.Hour},
		},
		{
			name:       "explicit padding",
			padding:    &padding,
			wantSizing: chart.Sizing{Width: 800, Height: 400, Padding: 10},
			wantFormat: render.FormatSVG,
			result:     render.ExportResult{Name: "b.svg", Key: "charts/b.svg", DownloadURL: "https://example.com/b.svg", ExpiresIn: time.Hour},
		},
		{
			name:       "scene json",
			format:     "json",
			wantSizing: testDefaults,
			wantFormat: render.FormatJSON,
			result:     render.ExportResult{Name: "c.json", Key: "charts/c.json", DownloadURL: "https://example.com/c.json", ExpiresIn: time.Hour},
		},
		{
			name:       "export disabled",
			wantSizing: testDefaults,
			wantFormat: render.FormatSVG,
			err:        render.ErrExportDisabled,
			wantStatus: 503,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRender := &MockRenderService{}
			mockRender.On("Export", mock.Anything, render.Request{
				Sources: []string{"ZK5024"},
				Metric:  "current",
				Sizing:  tt.wantSizing,
			}, tt.wantFormat).Return(tt.result, tt.err)

			req := &models.ExportChartRequest{}
			req.Body.Sources = []string{"ZK5024"}
			req.Body.Metric = "current"
			req.Body.Padding = tt.padding
			req.Body.Format = tt.format

			handler := NewChartHandler(mockRender, seededSnapshots(), testDefaults)
			resp, err := handler.ExportChart(context.Background(), req)
			if tt.wantStatus != 0 {
				assert.Equal(t, tt.wantStatus, statusOf(t, err))
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.result.Name, resp.Body.Name)
				assert.Equal(t, tt.result.Key, resp.Body.Key)
				assert.Equal(t, tt.result.DownloadURL, resp.Body.DownloadURL)
				assert.Equal(t, int(tt.result.ExpiresIn.Seconds()), resp.Body.ExpiresIn)
			}
			mockRender.AssertExpectations(t)
		})
	}
}

func TestExportChart_UnsupportedFormat(t *testing.T) {
	mockRender := &MockRenderService{}
	req := &models.ExportChartRequest{}
	req.Body.Sources = []string{"ZK5024"}
	req.Body.Metric = "current"
	req.Body.Format = "png"

	_, err := NewChartHandler(mockRender, seededSnapshots(), testDefaults).ExportChart(context.Background(), req)
	assert.Equal(t, 400, statusOf(t, err))
	mockRender.AssertNotCalled(t, "Export", mock.Anything, mock.Anything, mock.Anything)
}

func TestDownloadChart(t *testing.T) {
	const name = "0b8f7c1e-2d3a-4b5c-9d6e-7f8091a2b3c4.svg"

	tests := []struct {
		name       string
		result     render.ExportedChart
		err        error
		wantStatus int
	}{
		{name: "stored", result: render.ExportedChart{Data: []byte("<svg></svg>"), ContentType: "image/svg+xml"}},
		{name: "missing", err: render.ErrExportNotFound, wantStatus: 404},
		{name: "export disabled", err: render.ErrExportDisabled, wantStatus: 503},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRender := &MockRenderService{}
			mockRender.On("Download", mock.Anything, name).Return(tt.result, tt.err)

			resp, err := NewChartHandler(mockRender, seededSnapshots(), testDefaults).DownloadChart(context.Background(), &models.ChartFileRequest{Name: name})
			if tt.wantStatus != 0 {
				assert.Equal(t, tt.wantStatus, statusOf(t, err))
			} else {
				require.NoError(t, err)
				assert.Equal(t, "image/svg+xml", resp.ContentType)
				assert.Equal(t, tt.result.Data, resp.Body)
			}
			mockRender.AssertExpectations(t)
		})
	}
}

func TestDeleteChart(t *testing.T) {
	mockRender := &MockRenderService{}
	mockRender.On("DeleteExport", mock.Anything, "a.svg").Return(nil)
	mockRender.On("DeleteExport", mock.Anything, "bogus").Return(render.ErrExportNotFound)

	handler := NewChartHandler(mockRender, seededSnapshots(), testDefaults)
	_, err := handler.DeleteChart(context.Background(), &models.ChartFileRequest{Name: "a.svg"})
	assert.NoError(t, err)

	_, err = handler.DeleteChart(context.Background(), &models.ChartFileRequest{Name: "bogus"})
	assert.Equal(t, 404, statusOf(t, err))
	mockRender.AssertExpectations(t)
}

func TestResolveSizing(t *testing.T) {
	assert.Equal(t, testDefaults, resolveSizing(testDefaults, 0, 0, -1))
	assert.Equal(t, chart.Sizing{Width: 300, Height: 200, Padding: 0}, resolveSizing(testDefaults, 300, 200, 0))
}
