package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"labordash/internal/config"
	apperrors "labordash/internal/errors"
	"labordash/internal/files"
	"labordash/internal/infrastructure"
	"labordash/pkg/contracts/domain"
)

// National statistics offices publish single-country files without a region column
var defaultRegions = map[domain.Source]string{
	domain.SourceBLS: "USA",
}

// LoadOptions tune the import of a single file
type LoadOptions struct {
	// Metric names the indicator when the file has no metric column.
	// Defaults to the file base name.
	Metric string
}

// Loader turns local CSV and Excel files into datasets. It never touches the network.
type Loader struct {
	workers   int
	recursive bool
	logger    *slog.Logger
	metrics   *infrastructure.BusinessMetrics
}

// NewLoader creates a loader. Metrics may be nil.
func NewLoader(cfg config.LoaderConfig, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *Loader {
	workers := cfg.Workers
	if workers < 1 {
		workers = config.DefaultLoaderWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		workers:   workers,
		recursive: cfg.Recursive,
		logger:    logger.With(slog.String("component", "loader")),
		metrics:   metrics,
	}
}

// LoadFile imports one file with default options
func (l *Loader) LoadFile(ctx context.Context, path string, source domain.Source) (*domain.Dataset, *Report, error) {
	return l.LoadFileWithOptions(ctx, path, source, LoadOptions{})
}

// LoadFileWithOptions imports one file. It fails with a MALFORMED_INPUT error
// when the file cannot be read, lacks required columns or holds unparseable
// periods or numbers.
func (l *Loader) LoadFileWithOptions(ctx context.Context, path string, source domain.Source, opts LoadOptions) (*domain.Dataset, *Report, error) {
	start := time.Now()
	obs, fr := l.loadFile(ctx, path, source, opts)

	report := &Report{Files: []FileReport{fr}, LoadedAt: time.Now(), Duration: time.Since(start)}
	if fr.Err != nil {
		return nil, report, fr.Err
	}

	ds := domain.NewDataset(obs)
	report.Observations = ds.Len()
	return ds, report, nil
}

// LoadDir imports every data file of dir. Files with no inferable source or
// with malformed content are skipped with a warning; only an unreadable
// directory fails the load. Files are parsed concurrently and merged in name
// order, so a later file wins on key collisions.
func (l *Loader) LoadDir(ctx context.Context, dir string) (*domain.Dataset, *Report, error) {
	start := time.Now()
	ctx, span := infrastructure.StartSpan(ctx, "ingest.LoadDir", attribute.String("dir", dir))
	defer span.End()

	found, err := files.NewDiscovery(dir, l.recursive).FindDataFiles(dir)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, nil, apperrors.NewStorageError("failed to read data directory", err).
			WithContext("dir", dir)
	}

	report := &Report{}
	var candidates []files.FileInfo
	for _, f := range found {
		if !f.HasSource() {
			report.warnf("%s: skipped: cannot infer source from file name or directory (use a bls_, ilo_ or wb_ prefix)", f.RelPath)
			l.logger.WarnContext(ctx, "Skipping file without source", slog.String("file", f.RelPath))
			continue
		}
		candidates = append(candidates, f)
	}

	results := make([][]domain.Observation, len(candidates))
	reports := make([]FileReport, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, f := range candidates {
		i, f := i, f
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i], reports[i] = l.loadFile(gctx, f.Path, f.Source, LoadOptions{})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var all []domain.Observation
	for i := range candidates {
		report.Files = append(report.Files, reports[i])
		if reports[i].Err != nil {
			continue
		}
		all = append(all, results[i]...)
	}

	ds := domain.NewDataset(all)
	report.Observations = ds.Len()
	report.LoadedAt = time.Now()
	report.Duration = time.Since(start)

	if len(candidates) == 0 {
		report.warnf("no data files with a recognizable source found in %s", dir)
	}

	l.logger.InfoContext(ctx, "Data directory loaded",
		slog.String("dir", dir),
		slog.Int("files", len(candidates)),
		slog.Int("failed", len(report.Failed())),
		slog.Int("observations", ds.Len()),
		slog.Duration("duration", report.Duration))

	return ds, report, nil
}

// loadFile parses one file into observations. The error, if any, is carried
// in the returned report.
func (l *Loader) loadFile(ctx context.Context, path string, source domain.Source, opts LoadOptions) ([]domain.Observation, FileReport) {
	start := time.Now()
	fr := FileReport{Path: path, Source: source}

	obs, err := l.parse(ctx, path, source, opts, &fr)
	if err != nil {
		fr.Err = err
		fr.Rows = 0
		l.logger.WarnContext(ctx, "Failed to load file",
			slog.String("file", path),
			slog.String("source", string(source)),
			slog.String("error", err.Error()))
	} else {
		unique := domain.NewDataset(obs).Len()
		if dup := len(obs) - unique; dup > 0 {
			fr.Duplicates = dup
			fr.warnf("%d duplicate rows collapsed, the last row wins", dup)
		}
		fr.Rows = len(obs)
		l.logger.DebugContext(ctx, "File loaded",
			slog.String("file", path),
			slog.String("source", string(source)),
			slog.Int("rows", len(obs)),
			slog.Int("skipped", fr.Skipped))
	}

	infrastructure.RecordFileLoad(ctx, l.metrics, string(source), fr.Rows, fr.Skipped, time.Since(start), err)
	return obs, fr
}

func (l *Loader) parse(ctx context.Context, path string, source domain.Source, opts LoadOptions, fr *FileReport) ([]domain.Observation, error) {
	if _, ok := aliasTables[source]; !ok {
		return nil, apperrors.NewMalformedInputError(path, 0, "", fmt.Sprintf("unknown source %q", source), nil)
	}

	sheets, err := readSheets(path)
	if err != nil {
		return nil, apperrors.NewMalformedInputError(path, 0, "", "unreadable file", err)
	}

	s, headerAt, cols := findHeader(sheets, source)
	if s == nil {
		return nil, apperrors.NewMalformedInputError(path, 0, "", "no recognizable header row", nil)
	}
	fr.Sheet = s.name
	header := s.records[headerAt]

	for _, name := range cols.dropped {
		fr.DroppedColumns = append(fr.DroppedColumns, name)
		fr.warnf("dropped unmapped column %q", name)
	}

	if err := checkRequired(path, header.line, cols, source); err != nil {
		return nil, err
	}

	p := rowParser{
		path:          path,
		source:        source,
		header:        header,
		cols:          cols,
		metric:        defaultMetric(path, opts),
		defaultRegion: defaultRegions[source],
	}

	var obs []domain.Observation
	missingRegion, missingPeriod := 0, 0
	for i, rec := range s.records[headerAt+1:] {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if rec.blank() {
			continue
		}
		if p.periodMissing(rec) {
			missingPeriod++
			continue
		}
		rowObs, skipped, err := p.parseRow(rec)
		if err != nil {
			return nil, err
		}
		if rowObs == nil && skipped == 0 {
			missingRegion++
			continue
		}
		fr.Skipped += skipped
		obs = append(obs, rowObs...)
	}

	if fr.Skipped > 0 {
		fr.warnf("skipped %d values marked as missing", fr.Skipped)
	}
	if missingRegion > 0 {
		fr.Skipped += missingRegion
		fr.warnf("skipped %d rows without a region", missingRegion)
	}
	if missingPeriod > 0 {
		fr.Skipped += missingPeriod
		fr.warnf("skipped %d rows without a period", missingPeriod)
	}
	return obs, nil
}

func readSheets(path string) ([]*sheet, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		s, err := readCSVFile(path)
		if err != nil {
			return nil, err
		}
		return []*sheet{s}, nil
	case ".xlsx", ".xlsm":
		return readWorkbook(path)
	default:
		return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
}

// findHeader returns the first sheet with a recognizable header row among its
// leading rows, the index of that row and its column mapping
func findHeader(sheets []*sheet, source domain.Source) (*sheet, int, columnMap) {
	for _, s := range sheets {
		for i, rec := range s.records {
			if i >= maxHeaderScan {
				break
			}
			if rec.blank() {
				continue
			}
			cols := mapColumns(rec.cells, source)
			if looksLikeHeader(cols) {
				return s, i, cols
			}
		}
	}
	return nil, 0, columnMap{}
}

func checkRequired(path string, line int, cols columnMap, source domain.Source) error {
	if !cols.has(ColRegion) && !cols.has(ColRegionName) && defaultRegions[source] == "" {
		return apperrors.NewMalformedInputError(path, line, string(ColRegion), "missing required column", nil)
	}
	if cols.wide() {
		return nil
	}
	if !cols.has(ColPeriod) && !cols.has(ColYear) {
		return apperrors.NewMalformedInputError(path, line, string(ColPeriod), "missing required column (period or year)", nil)
	}
	if !cols.has(ColValue) {
		return apperrors.NewMalformedInputError(path, line, string(ColValue), "missing required column", nil)
	}
	return nil
}

// defaultMetric names the indicator of a file without a metric column:
// the explicit option, else the file base name (female_unemployment.csv
// becomes female_unemployment)
func defaultMetric(path string, opts LoadOptions) string {
	if opts.Metric != "" {
		return opts.Metric
	}
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return NormalizeHeader(files.TrimSourcePrefix(base))
}

// rowParser converts records below the header into observations
type rowParser struct {
	path          string
	source        domain.Source
	header        record
	cols          columnMap
	metric        string
	defaultRegion string
}

func (p rowParser) get(rec record, c Column) string {
	i, ok := p.cols.index[c]
	if !ok {
		return ""
	}
	return rec.cell(i)
}

func (p rowParser) headerName(c Column) string {
	if i, ok := p.cols.index[c]; ok {
		if name := p.header.cell(i); name != "" {
			return name
		}
	}
	return string(c)
}

func (p rowParser) malformed(rec record, column, message string, cause error) error {
	return apperrors.NewMalformedInputError(p.path, rec.line, column, message, cause)
}

// parseRow returns the observations of one record and how many of its values
// were missing markers. A nil slice with zero skipped means the row has no region.
func (p rowParser) parseRow(rec record) ([]domain.Observation, int, error) {
	base, ok := p.region(rec)
	if !ok {
		return nil, 0, nil
	}

	base.Demographic = domain.NewDemographic(
		CleanDimension(ColAge, p.get(rec, ColAge)),
		CleanDimension(ColGender, p.get(rec, ColGender)),
		CleanDimension(ColEducation, p.get(rec, ColEducation)),
	)
	base.Metric = p.metric
	if m := p.get(rec, ColMetric); m != "" {
		base.Metric = m
	}
	base.Source = p.source

	if p.cols.wide() {
		return p.melt(rec, base)
	}

	raw := p.get(rec, ColValue)
	if IsMissing(raw) {
		return []domain.Observation{}, 1, nil
	}
	value, err := ParseValue(raw)
	if err != nil {
		return nil, 0, p.malformed(rec, p.headerName(ColValue), "unparseable number", err)
	}

	period, column, err := p.period(rec)
	if err != nil {
		return nil, 0, p.malformed(rec, column, "unparseable date", err)
	}

	base.Period = period
	base.Value = value
	return []domain.Observation{base}, 0, nil
}

// melt unpivots the year columns of a World Bank wide row
func (p rowParser) melt(rec record, base domain.Observation) ([]domain.Observation, int, error) {
	out := make([]domain.Observation, 0, len(p.cols.years))
	skipped := 0
	for _, yc := range p.cols.years {
		raw := rec.cell(yc.index)
		if IsMissing(raw) {
			skipped++
			continue
		}
		value, err := ParseValue(raw)
		if err != nil {
			return nil, 0, p.malformed(rec, p.header.cell(yc.index), "unparseable number", err)
		}
		o := base
		o.Period = domain.Year(yc.year)
		o.Value = value
		out = append(out, o)
	}
	return out, skipped, nil
}

// region resolves the region code, display name and group of a record
func (p rowParser) region(rec record) (domain.Observation, bool) {
	code := p.get(rec, ColRegion)
	name := p.get(rec, ColRegionName)
	if code == "" && name == "" {
		if p.defaultRegion == "" {
			return domain.Observation{}, false
		}
		code = p.defaultRegion
	}

	if code != "" {
		code = strings.ToUpper(code)
		if c, ok := LookupRegion(code); ok {
			code = c.Code
			if name == "" {
				name = c.Name
			}
		}
	} else if c, ok := LookupRegion(name); ok {
		code = c.Code
	} else {
		code = name
	}

	return domain.Observation{
		Region:      code,
		RegionName:  name,
		RegionGroup: RegionGroup(code),
	}, true
}

// periodMissing reports whether a long-format record leaves its time cell
// empty. Such rows are skipped like missing values; wide rows carry the year
// in the header.
func (p rowParser) periodMissing(rec record) bool {
	if p.cols.wide() {
		return false
	}
	if p.cols.has(ColYear) {
		return IsMissing(p.get(rec, ColYear))
	}
	return IsMissing(p.get(rec, ColPeriod))
}

// period resolves the period of a record and, on failure, the header of the
// offending column
func (p rowParser) period(rec record) (domain.Period, string, error) {
	rawPeriod := p.get(rec, ColPeriod)
	hasYear := p.cols.has(ColYear)

	if rawPeriod != "" && !hasYear {
		period, err := ParsePeriod(rawPeriod)
		return period, p.headerName(ColPeriod), err
	}

	if !hasYear {
		return domain.Period{}, p.headerName(ColPeriod), fmt.Errorf("empty period")
	}

	year, err := parseYear(p.get(rec, ColYear))
	if err != nil {
		return domain.Period{}, p.headerName(ColYear), err
	}

	if rawPeriod != "" {
		if period, ok := ParseBLSPeriod(year, rawPeriod); ok {
			return period, "", nil
		}
		period, err := ParsePeriod(rawPeriod)
		if err != nil {
			return domain.Period{}, p.headerName(ColPeriod), err
		}
		if period.Year != year {
			return domain.Period{}, p.headerName(ColPeriod), fmt.Errorf("period %s does not match year %d", period, year)
		}
		return period, "", nil
	}

	if raw := p.get(rec, ColMonth); raw != "" {
		month, err := parseMonth(raw)
		if err != nil {
			return domain.Period{}, p.headerName(ColMonth), err
		}
		return domain.Month(year, month), "", nil
	}
	if raw := p.get(rec, ColQuarter); raw != "" {
		q, err := parseQuarter(raw)
		if err != nil {
			return domain.Period{}, p.headerName(ColQuarter), err
		}
		return domain.Quarter(year, q), "", nil
	}
	return domain.Year(year), "", nil
}
