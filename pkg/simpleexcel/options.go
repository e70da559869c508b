package simpleexcel

import "github.com/rs/zerolog"

type exportConfig struct {
	dateFormat      string
	cellStyle       *CellStyle
	headerSeparator string
	startRow        int
	startCol        int
	maxColumnWidth  float64
	autoFit         bool
	logger          *zerolog.Logger
}

func defaultConfig() exportConfig {
	return exportConfig{
		dateFormat:     DefaultDateFormat,
		cellStyle:      DefaultCellStyle(),
		maxColumnWidth: DefaultMaxColumnWidth,
		autoFit:        true,
	}
}

// Option configures an Exporter.
type Option func(*exportConfig)

// WithDateFormat sets the Go time layout used for time.Time values
func WithDateFormat(layout string) Option {
	return func(cfg *exportConfig) {
		if layout != "" {
			cfg.dateFormat = layout
		}
	}
}

// WithCellStyle sets the style applied to header and data cells
func WithCellStyle(style *CellStyle) Option {
	return func(cfg *exportConfig) {
		if style != nil {
			cfg.cellStyle = style
		}
	}
}

// WithHeaderSeparator sets the separator that splits a header into rows.
// The default splits on any run of whitespace.
func WithHeaderSeparator(sep string) Option {
	return func(cfg *exportConfig) {
		cfg.headerSeparator = sep
	}
}

// WithStartLocation sets the top-left cell (0-based) of new sheets
func WithStartLocation(row, col int) Option {
	return func(cfg *exportConfig) {
		if row >= 0 {
			cfg.startRow = row
		}
		if col >= 0 {
			cfg.startCol = col
		}
	}
}

// WithMaxColumnWidth caps auto-fitted column widths
func WithMaxColumnWidth(width float64) Option {
	return func(cfg *exportConfig) {
		cfg.maxColumnWidth = width
	}
}

// WithAutoFitColumns enables or disables auto-fitting column widths
func WithAutoFitColumns(enabled bool) Option {
	return func(cfg *exportConfig) {
		cfg.autoFit = enabled
	}
}

// WithLogger sets the logger used for build warnings
func WithLogger(l zerolog.Logger) Option {
	return func(cfg *exportConfig) {
		cfg.logger = &l
	}
}
