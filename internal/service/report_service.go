package service

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"

	"github.com/locvowork/excelmerge/internal/domain"
	"github.com/locvowork/excelmerge/internal/logger"
	"github.com/locvowork/excelmerge/pkg/sheetmerge"
	"github.com/locvowork/excelmerge/pkg/simpleexcel"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// FeatureSheet is the sheet of the feature report that receives the features.
const FeatureSheet = "Features"

//go:embed templates/feature_report.yaml
var defaultFeatureTemplate []byte

var ErrSheetNotFound = errors.New("sheet not found")

// ReportConfig tunes the generated reports.
type ReportConfig struct {
	DateFormat     string
	MaxColumnWidth float64
	// TemplatePath replaces the embedded feature report template when set.
	TemplatePath string
}

// MergeRequest selects the sheet, axis and optional bounds of an upload merge.
// Nil bounds default to the sheet bounds.
type MergeRequest struct {
	Sheet    string
	Axis     string
	StartRow *int
	EndRow   *int
	StartCol *int
	EndCol   *int
}

// MergeResult is a merged upload: the workbook, the sheet that was merged and
// the regions newly applied to it.
type MergeResult struct {
	Workbook []byte
	Sheet    string
	Regions  []sheetmerge.Region
}

// Options converts the request bounds to merge options.
func (r MergeRequest) Options() []sheetmerge.Option {
	var opts []sheetmerge.Option
	if r.StartRow != nil {
		opts = append(opts, sheetmerge.WithStartRow(*r.StartRow))
	}
	if r.EndRow != nil {
		opts = append(opts, sheetmerge.WithEndRow(*r.EndRow))
	}
	if r.StartCol != nil {
		opts = append(opts, sheetmerge.WithStartCol(*r.StartCol))
	}
	if r.EndCol != nil {
		opts = append(opts, sheetmerge.WithEndCol(*r.EndCol))
	}
	return opts
}

// ReportService builds feature reports and merges uploaded workbooks
type ReportService struct {
	featureRepo domain.FeatureRepository
	cfg         ReportConfig
}

// NewReportService creates a new ReportService instance
func NewReportService(featureRepo domain.FeatureRepository, cfg ReportConfig) *ReportService {
	return &ReportService{featureRepo: featureRepo, cfg: cfg}
}

// BuildFeatureReport renders the feature report for the filter and returns the xlsx bytes.
func (s *ReportService) BuildFeatureReport(ctx context.Context, filter domain.FeatureFilter) ([]byte, error) {
	features, err := s.featureRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	tmpl, err := s.template()
	if err != nil {
		return nil, err
	}

	exporter, err := simpleexcel.NewExporterFromYAML(tmpl, s.exporterOptions(ctx)...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse report template: %w", err)
	}
	defer exporter.Close()

	if err := exporter.BindSheetData(FeatureSheet, features).Render(); err != nil {
		return nil, fmt.Errorf("failed to render feature report: %w", err)
	}

	logger.InfoLog(ctx, "Feature report built with %d features", len(features))
	return exporter.ToBytes()
}

// MergeUploaded merges the runs of one sheet of an uploaded workbook. An empty
// sheet name selects the first sheet.
func (s *ReportService) MergeUploaded(ctx context.Context, r io.Reader, req MergeRequest) (*MergeResult, error) {
	if req.Axis != sheetmerge.AxisColumns && req.Axis != sheetmerge.AxisRows {
		return nil, fmt.Errorf("%w: %q", sheetmerge.ErrInvalidAxis, req.Axis)
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := req.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx == -1 {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
	}

	ctx = logger.WithLogger(ctx, map[string]interface{}{"sheet": sheet, "axis": req.Axis})
	exporter := simpleexcel.NewExporterFromFile(f, s.exporterOptions(ctx)...)
	regions, err := exporter.Merge(sheet, req.Axis, req.Options()...)
	if err != nil {
		return nil, err
	}

	data, err := exporter.ToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	logger.InfoLog(ctx, "Merged %d regions", len(regions))
	return &MergeResult{Workbook: data, Sheet: sheet, Regions: regions}, nil
}

func (s *ReportService) template() ([]byte, error) {
	if s.cfg.TemplatePath == "" {
		return defaultFeatureTemplate, nil
	}
	return simpleexcel.LoadTemplateFile(s.cfg.TemplatePath)
}

func (s *ReportService) exporterOptions(ctx context.Context) []simpleexcel.Option {
	opts := []simpleexcel.Option{simpleexcel.WithDateFormat(s.cfg.DateFormat)}
	if s.cfg.MaxColumnWidth > 0 {
		opts = append(opts, simpleexcel.WithMaxColumnWidth(s.cfg.MaxColumnWidth))
	}
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		opts = append(opts, simpleexcel.WithLogger(*l))
	}
	return opts
}
