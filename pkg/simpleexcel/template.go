package simpleexcel

import (
	"bytes"
	"fmt"
	"os"

	"github.com/locvowork/excelmerge/pkg/sheetmerge"
	"gopkg.in/yaml.v3"
)

// ReportTemplate represents the YAML structure.
type ReportTemplate struct {
	DateFormat      string          `yaml:"date_format"`
	HeaderSeparator string          `yaml:"header_separator"`
	MaxColumnWidth  float64         `yaml:"max_column_width"`
	Style           *CellStyle      `yaml:"style"`
	Sheets          []SheetTemplate `yaml:"sheets"`
}

// SheetTemplate represents a sheet in the YAML.
type SheetTemplate struct {
	Name     string           `yaml:"name"`
	StartRow int              `yaml:"start_row"`
	StartCol int              `yaml:"start_col"`
	Columns  []ColumnTemplate `yaml:"columns"`
	Merges   []MergeTemplate  `yaml:"merges"`
}

// ColumnTemplate defines a column in a sheet.
type ColumnTemplate struct {
	Header string  `yaml:"header"`
	Field  string  `yaml:"field"` // FieldReader name or map key
	Width  float64 `yaml:"width"`
}

// MergeTemplate is one merge pass applied after the sheet is built.
// Bounds are 0-based sheet indexes; omitted bounds default to the sheet bounds.
type MergeTemplate struct {
	Axis     string `yaml:"axis"` // "columns" or "rows"
	StartRow *int   `yaml:"start_row"`
	EndRow   *int   `yaml:"end_row"`
	StartCol *int   `yaml:"start_col"`
	EndCol   *int   `yaml:"end_col"`
}

// options converts the template bounds to merge options.
func (m MergeTemplate) options() []sheetmerge.Option {
	var opts []sheetmerge.Option
	if m.StartRow != nil {
		opts = append(opts, sheetmerge.WithStartRow(*m.StartRow))
	}
	if m.EndRow != nil {
		opts = append(opts, sheetmerge.WithEndRow(*m.EndRow))
	}
	if m.StartCol != nil {
		opts = append(opts, sheetmerge.WithStartCol(*m.StartCol))
	}
	if m.EndCol != nil {
		opts = append(opts, sheetmerge.WithEndCol(*m.EndCol))
	}
	return opts
}

// LoadTemplateFile reads a YAML report template from disk.
func LoadTemplateFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template file: %w", err)
	}
	return data, nil
}

// NewExporterFromYAML creates an exporter driven by a YAML report template.
// Settings present in the template override the given options.
func NewExporterFromYAML(data []byte, opts ...Option) (*Exporter, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrTemplateEmpty
	}

	var tmpl ReportTemplate
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	for i, sheet := range tmpl.Sheets {
		if len(sheet.Columns) == 0 {
			return nil, fmt.Errorf("sheet %d (%q): %w", i, sheet.Name, ErrNoColumns)
		}
		for _, m := range sheet.Merges {
			if m.Axis != sheetmerge.AxisColumns && m.Axis != sheetmerge.AxisRows {
				return nil, fmt.Errorf("sheet %q: %w: %q", sheet.Name, sheetmerge.ErrInvalidAxis, m.Axis)
			}
		}
	}

	if tmpl.DateFormat != "" {
		opts = append(opts, WithDateFormat(tmpl.DateFormat))
	}
	if tmpl.HeaderSeparator != "" {
		opts = append(opts, WithHeaderSeparator(tmpl.HeaderSeparator))
	}
	if tmpl.MaxColumnWidth > 0 {
		opts = append(opts, WithMaxColumnWidth(tmpl.MaxColumnWidth))
	}
	if tmpl.Style != nil {
		opts = append(opts, WithCellStyle(tmpl.Style))
	}

	e := NewExporter(opts...)
	e.template = &tmpl
	return e, nil
}

// BindSheetData binds records to a template sheet by name.
func (e *Exporter) BindSheetData(name string, data interface{}) *Exporter {
	e.data[name] = data
	return e
}

// Render builds every template sheet with its bound data and applies its merges.
func (e *Exporter) Render() error {
	if e.template == nil {
		return ErrTemplateEmpty
	}
	if e.rendered {
		return ErrAlreadyRendered
	}
	e.rendered = true

	for _, sheet := range e.template.Sheets {
		columns := make([]Column, len(sheet.Columns))
		for i, col := range sheet.Columns {
			columns[i] = Column{Header: col.Header, Field: col.Field, Width: col.Width}
		}

		e.SetStartLocation(sheet.StartRow, sheet.StartCol)
		if err := e.BuildSheet(sheet.Name, columns, e.data[sheet.Name]); err != nil {
			return fmt.Errorf("build sheet %q: %w", sheet.Name, err)
		}

		name := e.current
		for _, m := range sheet.Merges {
			regions, err := e.Merge(name, m.Axis, m.options()...)
			if err != nil {
				return fmt.Errorf("merge %s of sheet %q: %w", m.Axis, name, err)
			}
			e.logger.Debug().Str("sheet", name).Str("axis", m.Axis).Int("regions", len(regions)).Msg("template merge applied")
		}
	}
	return nil
}
