package simpleexcel

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/locvowork/excelmerge/pkg/sheetmerge"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

// =============================================================================
// Constants & Types
// =============================================================================

const (
	DefaultDateFormat     = "2006-01-02 15:04:05"
	DefaultMaxColumnWidth = 50.0
	minColumnWidth        = 10.0
	columnWidthPadding    = 1.2
	defaultSheetName      = "Sheet1"
)

var (
	ErrNoColumns       = errors.New("no columns configured")
	ErrInvalidData     = errors.New("data must be a slice or array")
	ErrTemplateEmpty   = errors.New("report template is empty")
	ErrAlreadyRendered = errors.New("report template already rendered")
)

// Exporter fills workbook sheets from records and merges equal neighbouring cells.
// It is not safe for concurrent use.
type Exporter struct {
	file   *excelize.File
	cfg    exportConfig
	logger zerolog.Logger

	// pristine is true while the default "Sheet1" of a new file is unused.
	pristine bool
	styleID  int
	hasStyle bool

	sheets  map[string]*sheetState
	order   []string
	current string

	// template flow
	template *ReportTemplate
	data     map[string]interface{}
	rendered bool
}

// sheetState tracks what the exporter wrote to one sheet.
type sheetState struct {
	name     string
	grid     *sheetmerge.SparseGrid
	startRow int
	startCol int
	cursor   int // next row to write
	widths   map[int]float64
	merged   *sheetmerge.MergedRanges
}

// =============================================================================
// Constructors
// =============================================================================

// NewExporter creates an exporter over a new, empty workbook.
func NewExporter(opts ...Option) *Exporter {
	e := NewExporterFromFile(excelize.NewFile(), opts...)
	e.pristine = true
	return e
}

// NewExporterFromFile creates an exporter that writes into an existing workbook.
func NewExporterFromFile(f *excelize.File, opts ...Option) *Exporter {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	l := log.Logger
	if cfg.logger != nil {
		l = *cfg.logger
	}
	return &Exporter{
		file:   f,
		cfg:    cfg,
		logger: l,
		sheets: make(map[string]*sheetState),
		data:   make(map[string]interface{}),
	}
}

// =============================================================================
// Sheet building
// =============================================================================

// SetStartLocation sets the top-left cell (0-based) used by sheets built from now on.
func (e *Exporter) SetStartLocation(row, col int) {
	if row < 0 {
		row = 0
	}
	if col < 0 {
		col = 0
	}
	e.cfg.startRow, e.cfg.startCol = row, col
}

// BuildSheet writes the header rows and one row per record of data to the named
// sheet. An empty name creates a new sheet with a generated name; an existing
// sheet gets the new block appended below its previous content.
// data must be a slice or array (nil writes the header only).
func (e *Exporter) BuildSheet(name string, columns []Column, data interface{}) error {
	if len(columns) == 0 {
		return ErrNoColumns
	}
	records, err := toRecords(data)
	if err != nil {
		return err
	}

	st, err := e.sheet(name)
	if err != nil {
		return err
	}
	styleID, err := e.cellStyle()
	if err != nil {
		return err
	}

	if err := e.writeHeader(st, columns, styleID); err != nil {
		return err
	}
	for i, record := range records {
		if err := e.writeRecord(st, columns, record, i, styleID); err != nil {
			return err
		}
	}
	if err := e.fitColumns(st, columns); err != nil {
		return err
	}

	e.current = st.name
	e.logger.Debug().
		Str("sheet", st.name).
		Int("records", len(records)).
		Int("last_row", st.grid.Bounds().LastRow).
		Msg("sheet built")
	return nil
}

func (e *Exporter) writeHeader(st *sheetState, columns []Column, styleID int) error {
	segments := make([][]string, len(columns))
	headRows := 0
	for i, col := range columns {
		segs := e.splitHeader(col.Header)
		if len(segs) == 0 {
			segs = []string{""}
		}
		segments[i] = segs
		if len(segs) > headRows {
			headRows = len(segs)
		}
	}

	for r := 0; r < headRows; r++ {
		for i := range columns {
			segs := segments[i]
			text := segs[len(segs)-1]
			if r < len(segs) {
				text = segs[r]
			}
			if err := e.setCell(st, st.cursor, st.startCol+i, text, text, styleID); err != nil {
				return err
			}
		}
		st.cursor++
	}
	return nil
}

func (e *Exporter) writeRecord(st *sheetState, columns []Column, record interface{}, index, styleID int) error {
	for i, col := range columns {
		raw, ok := resolveField(col, record)
		if !ok {
			e.logger.Warn().
				Str("sheet", st.name).
				Str("field", col.Field).
				Int("record", index).
				Str("type", fmt.Sprintf("%T", record)).
				Msg("field not resolved, leaving cell blank")
		}
		value, display := coerceValue(raw, e.cfg.dateFormat)
		if err := e.setCell(st, st.cursor, st.startCol+i, value, display, styleID); err != nil {
			return err
		}
	}
	st.cursor++
	return nil
}

func (e *Exporter) setCell(st *sheetState, row, col int, value interface{}, display string, styleID int) error {
	cell, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return err
	}
	if value != nil {
		if err := e.file.SetCellValue(st.name, cell, value); err != nil {
			return fmt.Errorf("set cell %s: %w", cell, err)
		}
	}
	if err := e.file.SetCellStyle(st.name, cell, cell, styleID); err != nil {
		return fmt.Errorf("set style of %s: %w", cell, err)
	}
	st.grid.Set(row, col, display)

	if w := float64(utf8.RuneCountInString(display)); w > st.widths[col] {
		st.widths[col] = w
	}
	return nil
}

// fitColumns sizes every column written by this build.
func (e *Exporter) fitColumns(st *sheetState, columns []Column) error {
	for i, col := range columns {
		width := col.Width
		if width <= 0 {
			if !e.cfg.autoFit {
				continue
			}
			width = st.widths[st.startCol+i]
			if width < minColumnWidth {
				width = minColumnWidth
			}
			width *= columnWidthPadding
			if e.cfg.maxColumnWidth > 0 && width > e.cfg.maxColumnWidth {
				width = e.cfg.maxColumnWidth
			}
		}
		name, err := excelize.ColumnNumberToName(st.startCol + i + 1)
		if err != nil {
			return err
		}
		if err := e.file.SetColWidth(st.name, name, name, width); err != nil {
			return fmt.Errorf("set width of column %s: %w", name, err)
		}
	}
	return nil
}

func (e *Exporter) splitHeader(header string) []string {
	if e.cfg.headerSeparator == "" {
		return strings.Fields(header)
	}
	return strings.Split(header, e.cfg.headerSeparator)
}

// sheet returns the state for name, creating the worksheet when needed.
func (e *Exporter) sheet(name string) (*sheetState, error) {
	if name == "" {
		name = e.nextSheetName()
	}
	if st, ok := e.sheets[name]; ok {
		return st, nil
	}

	idx, err := e.file.GetSheetIndex(name)
	if err != nil {
		return nil, fmt.Errorf("lookup sheet %q: %w", name, err)
	}
	startRow := e.cfg.startRow
	if idx == -1 {
		if e.pristine {
			if err := e.file.SetSheetName(defaultSheetName, name); err != nil {
				return nil, fmt.Errorf("rename default sheet: %w", err)
			}
		} else if _, err := e.file.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %q: %w", name, err)
		}
	} else {
		// Existing content stays; the first block goes below its last row.
		rows, err := e.file.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read rows of %q: %w", name, err)
		}
		if len(rows) > startRow {
			startRow = len(rows)
		}
	}
	e.pristine = false

	merged, err := sheetmerge.LoadMergedRanges(e.file, name)
	if err != nil {
		return nil, err
	}

	st := &sheetState{
		name:     name,
		grid:     sheetmerge.NewSparseGrid(startRow, e.cfg.startCol),
		startRow: startRow,
		startCol: e.cfg.startCol,
		cursor:   startRow,
		widths:   make(map[int]float64),
		merged:   merged,
	}
	e.sheets[name] = st
	e.order = append(e.order, name)
	return st, nil
}

func (e *Exporter) nextSheetName() string {
	if e.pristine {
		return defaultSheetName
	}
	for n := len(e.file.GetSheetList()) + 1; ; n++ {
		name := fmt.Sprintf("Sheet%d", n)
		if idx, _ := e.file.GetSheetIndex(name); idx == -1 {
			return name
		}
	}
}

func (e *Exporter) cellStyle() (int, error) {
	if e.hasStyle {
		return e.styleID, nil
	}
	id, err := e.file.NewStyle(toExcelStyle(e.cfg.cellStyle))
	if err != nil {
		return 0, fmt.Errorf("create cell style: %w", err)
	}
	e.styleID, e.hasStyle = id, true
	return id, nil
}

// toRecords flattens a slice or array into its elements.
func toRecords(data interface{}) ([]interface{}, error) {
	if data == nil {
		return nil, nil
	}
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return nil, fmt.Errorf("%w: got %T", ErrInvalidData, data)
	}
	records := make([]interface{}, v.Len())
	for i := range records {
		records[i] = v.Index(i).Interface()
	}
	return records, nil
}

// =============================================================================
// Merging
// =============================================================================

// MergeAlongColumns merges vertically adjacent equal cells of the named sheet.
// An unknown sheet is a no-op: no regions and no error.
func (e *Exporter) MergeAlongColumns(sheet string, opts ...sheetmerge.Option) ([]sheetmerge.Region, error) {
	return e.Merge(sheet, sheetmerge.AxisColumns, opts...)
}

// MergeAlongRows merges horizontally adjacent equal cells of the named sheet.
// An unknown sheet is a no-op: no regions and no error.
func (e *Exporter) MergeAlongRows(sheet string, opts ...sheetmerge.Option) ([]sheetmerge.Region, error) {
	return e.Merge(sheet, sheetmerge.AxisRows, opts...)
}

// Merge merges along the given axis and returns the regions it applied. Sheets
// built by this exporter are scanned from the values it wrote; other sheets of
// the workbook are read from the file. Runs that are already merged, or that
// overlap a merged range, are skipped and not returned.
func (e *Exporter) Merge(sheet, axis string, opts ...sheetmerge.Option) ([]sheetmerge.Region, error) {
	if st, ok := e.sheets[sheet]; ok {
		applier := sheetmerge.NewExcelApplier(e.file, st.name, st.merged)
		return sheetmerge.Merge(st.grid, applier, axis, opts...)
	}

	xs, found, err := sheetmerge.OpenExcelSheet(e.file, sheet)
	if err != nil {
		return nil, err
	}
	if !found {
		e.logger.Warn().Str("sheet", sheet).Str("axis", axis).Msg("merge skipped, sheet not found")
		return nil, nil
	}
	return sheetmerge.Merge(xs, xs, axis, opts...)
}

// =============================================================================
// Accessors
// =============================================================================

// Bounds returns the populated rectangle of a sheet built by this exporter.
func (e *Exporter) Bounds(sheet string) (sheetmerge.Bounds, bool) {
	st, ok := e.sheets[sheet]
	if !ok {
		return sheetmerge.Bounds{}, false
	}
	return st.grid.Bounds(), true
}

// SheetNames returns the sheets built by this exporter, in creation order.
func (e *Exporter) SheetNames() []string {
	return append([]string(nil), e.order...)
}

// CurrentSheet returns the name of the most recently built sheet.
func (e *Exporter) CurrentSheet() string {
	return e.current
}

// File returns the underlying workbook.
func (e *Exporter) File() *excelize.File {
	return e.file
}

// =============================================================================
// Output
// =============================================================================

// SaveAs writes the workbook to disk.
func (e *Exporter) SaveAs(ctx context.Context, path string) error {
	if err := e.file.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	e.logger.Info().Str("path", path).Strs("sheets", e.order).Msg("workbook saved")
	return nil
}

// WriteTo writes the workbook to w.
func (e *Exporter) WriteTo(w io.Writer) (int64, error) {
	return e.file.WriteTo(w)
}

// ToBytes exports the workbook to an in-memory byte slice.
func (e *Exporter) ToBytes() ([]byte, error) {
	buf := new(bytes.Buffer)
	if _, err := e.file.WriteTo(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Close releases the workbook's temporary resources.
func (e *Exporter) Close() error {
	return e.file.Close()
}
