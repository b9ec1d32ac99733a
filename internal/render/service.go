package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/ristretto"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/pmtview/internal/metrics"
	"github.com/RMahshie/pmtview/internal/provider"
	"github.com/RMahshie/pmtview/internal/storage"
	"github.com/RMahshie/pmtview/pkg/chart"
	"github.com/RMahshie/pmtview/pkg/models"
)

var (
	// ErrExportDisabled is returned by export operations when no chart store is configured
	ErrExportDisabled = errors.New("chart export is not configured")
	// ErrUnsupportedFormat is returned for an unknown export format
	ErrUnsupportedFormat = errors.New("unsupported export format")
	// ErrExportNotFound is returned for names that do not identify an export
	ErrExportNotFound = errors.New("exported chart not found")
)

// exportPrefix is the object key prefix of exported charts
const exportPrefix = "charts/"

// Format is the encoding of an exported chart
type Format string

const (
	FormatSVG  Format = "svg"
	FormatJSON Format = "json"
)

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	switch f {
	case FormatSVG:
		return "image/svg+xml"
	case FormatJSON:
		return "application/json"
	}
	return ""
}

// ParseFormat validates an export format. An empty string selects SVG.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case "":
		return FormatSVG, nil
	case FormatSVG, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// Request describes one chart rendering
type Request struct {
	Sources []string
	Metric  string
	Sizing  chart.Sizing
}

// SVGResult is a rendered SVG document and its entity tag
type SVGResult struct {
	Data    []byte
	ETag    string
	Version uint64
}

// ExportResult locates an exported chart
type ExportResult struct {
	Name        string
	Key         string
	DownloadURL string
	ExpiresIn   time.Duration
}

// SnapshotSource yields the current measurement snapshot
type SnapshotSource interface {
	Snapshot() provider.Snapshot
}

// ExportedChart is the content of a stored export
type ExportedChart struct {
	Data        []byte
	ContentType string
}

type Service interface {
	Scene(ctx context.Context, req Request) (*chart.Scene, error)
	SVG(ctx context.Context, req Request) (SVGResult, error)
	Export(ctx context.Context, req Request, format Format) (ExportResult, error)
	Download(ctx context.Context, name string) (ExportedChart, error)
	DeleteExport(ctx context.Context, name string) error
}

type service struct {
	snapshots SnapshotSource
	store     storage.ChartStore
	cache     *ristretto.Cache
}

// NewService creates a render service. store and cache may be nil, which
// disables export and memoisation respectively.
func NewService(snapshots SnapshotSource, store storage.ChartStore, cache *ristretto.Cache) Service {
	return &service{
		snapshots: snapshots,
		store:     store,
		cache:     cache,
	}
}

// NewCache creates the SVG render cache bounded by maxCost bytes. A zero
// maxCost returns a nil cache, which disables memoisation.
func NewCache(maxCost int64) (*ristretto.Cache, error) {
	if maxCost == 0 {
		return nil, nil
	}
	return ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
}

func (s *service) Scene(ctx context.Context, req Request) (*chart.Scene, error) {
	metric, err := models.ParseMetricKey(req.Metric)
	if err != nil {
		return nil, err
	}
	snap := s.snapshots.Snapshot()
	return s.render(snap, req, metric, "json")
}

func (s *service) SVG(ctx context.Context, req Request) (SVGResult, error) {
	metric, err := models.ParseMetricKey(req.Metric)
	if err != nil {
		return SVGResult{}, err
	}
	snap := s.snapshots.Snapshot()
	key := cacheKey(snap.Version, req.Sources, metric, req.Sizing)
	etag := fmt.Sprintf(`"%016x"`, key)

	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			metrics.RenderCacheHits.Inc()
			return SVGResult{Data: v.([]byte), ETag: etag, Version: snap.Version}, nil
		}
	}

	scene, err := s.render(snap, req, metric, "svg")
	if err != nil {
		return SVGResult{}, err
	}

	var buf bytes.Buffer
	if err := chart.EncodeSVG(&buf, scene); err != nil {
		return SVGResult{}, fmt.Errorf("failed to encode svg: %w", err)
	}
	data := buf.Bytes()

	if s.cache != nil {
		s.cache.Set(key, data, int64(len(data)))
	}
	return SVGResult{Data: data, ETag: etag, Version: snap.Version}, nil
}

func (s *service) Export(ctx context.Context, req Request, format Format) (ExportResult, error) {
	if s.store == nil {
		return ExportResult{}, ErrExportDisabled
	}

	data, version, err := s.encode(ctx, req, format)
	if err != nil {
		return ExportResult{}, err
	}

	name := fmt.Sprintf("%s.%s", uuid.New(), format)
	key := exportPrefix + name
	if err := s.store.Upload(ctx, key, data, format.ContentType()); err != nil {
		metrics.ChartExports.WithLabelValues("error").Inc()
		return ExportResult{}, err
	}

	url, err := s.store.GenerateDownloadURL(ctx, key)
	if err != nil {
		metrics.ChartExports.WithLabelValues("error").Inc()
		return ExportResult{}, err
	}

	metrics.ChartExports.WithLabelValues("ok").Inc()
	log.Info().Str("key", key).Str("format", string(format)).Uint64("version", version).Msg("Chart exported")
	return ExportResult{Name: name, Key: key, DownloadURL: url, ExpiresIn: s.store.URLExpiry()}, nil
}

func (s *service) encode(ctx context.Context, req Request, format Format) ([]byte, uint64, error) {
	switch format {
	case FormatSVG:
		out, err := s.SVG(ctx, req)
		return out.Data, out.Version, err
	case FormatJSON:
		metric, err := models.ParseMetricKey(req.Metric)
		if err != nil {
			return nil, 0, err
		}
		snap := s.snapshots.Snapshot()
		scene, err := s.render(snap, req, metric, "json")
		if err != nil {
			return nil, 0, err
		}
		data, err := json.Marshal(scene)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to encode scene: %w", err)
		}
		return data, snap.Version, nil
	}
	return nil, 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

func (s *service) Download(ctx context.Context, name string) (ExportedChart, error) {
	if s.store == nil {
		return ExportedChart{}, ErrExportDisabled
	}
	format, err := exportFormat(name)
	if err != nil {
		return ExportedChart{}, err
	}

	data, err := s.store.DownloadFile(ctx, exportPrefix+name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ExportedChart{}, fmt.Errorf("%w: %s", ErrExportNotFound, name)
		}
		return ExportedChart{}, err
	}
	return ExportedChart{Data: data, ContentType: format.ContentType()}, nil
}

func (s *service) DeleteExport(ctx context.Context, name string) error {
	if s.store == nil {
		return ErrExportDisabled
	}
	if _, err := exportFormat(name); err != nil {
		return err
	}
	if err := s.store.DeleteFile(ctx, exportPrefix+name); err != nil {
		return err
	}
	log.Info().Str("key", exportPrefix+name).Msg("Exported chart deleted")
	return nil
}

// exportFormat checks that name has the "<uuid>.<format>" shape Export
// produces and returns its format
func exportFormat(name string) (Format, error) {
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if _, err := uuid.Parse(stem); err != nil || len(stem) != 36 {
		return "", fmt.Errorf("%w: %s", ErrExportNotFound, name)
	}
	format, err := ParseFormat(strings.TrimPrefix(ext, "."))
	if err != nil || ext == "" {
		return "", fmt.Errorf("%w: %s", ErrExportNotFound, name)
	}
	return format, nil
}

func (s *service) render(snap provider.Snapshot, req Request, metric models.MetricKey, format string) (*chart.Scene, error) {
	start := time.Now()
	scene, err := chart.Render(snap.Points, req.Sources, metric, req.Sizing)
	metrics.RenderDuration.WithLabelValues(format).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.Renders.WithLabelValues(format, "error").Inc()
		return nil, err
	}

	result := "ok"
	if scene.Placeholder != nil {
		result = "placeholder"
	}
	metrics.Renders.WithLabelValues(format, result).Inc()
	return scene, nil
}

// cacheKey hashes every input the rendering depends on
func cacheKey(version uint64, sources []string, metric models.MetricKey, sizing chart.Sizing) uint64 {
	h := xxhash.New()
	var scratch [64]byte
	h.Write(strconv.AppendUint(scratch[:0], version, 10))
	h.Write([]byte{0})
	h.WriteString(string(metric))
	for _, src := range sources {
		h.Write([]byte{0})
		h.WriteString(src)
	}
	h.Write([]byte{1})
	for _, f := range []float64{sizing.Width, sizing.Height, sizing.Padding} {
		h.Write(strconv.AppendFloat(scratch[:0], f, 'g', -1, 64))
		h.Write([]byte{0})
	}
	return h.Sum64()
}
