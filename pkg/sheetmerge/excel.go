package sheetmerge

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExcelSheet adapts one worksheet of an excelize workbook to Grid and Applier.
//
// Cell values are read once, when the sheet is opened, using their displayed
// string form. Excelize does not distinguish an empty string cell from an absent
// one, so empty cells count as missing and always break a run.
type ExcelSheet struct {
	file   *excelize.File
	name   string
	rows   [][]string
	merged *MergedRanges
}

// OpenExcelSheet reads the named worksheet. The second result is false when the
// workbook has no sheet with that name.
func OpenExcelSheet(f *excelize.File, name string) (*ExcelSheet, bool, error) {
	idx, err := f.GetSheetIndex(name)
	if err != nil {
		return nil, false, fmt.Errorf("lookup sheet %q: %w", name, err)
	}
	if idx == -1 {
		return nil, false, nil
	}

	rows, err := f.GetRows(name)
	if err != nil {
		return nil, true, fmt.Errorf("read rows of %q: %w", name, err)
	}

	merged, err := LoadMergedRanges(f, name)
	if err != nil {
		return nil, true, err
	}

	return &ExcelSheet{file: f, name: name, rows: rows, merged: merged}, true, nil
}

// Name returns the worksheet name.
func (s *ExcelSheet) Name() string {
	return s.name
}

// Bounds implements Grid. Excelize rows always start at A1.
func (s *ExcelSheet) Bounds() Bounds {
	lastCol := -1
	for _, row := range s.rows {
		if len(row)-1 > lastCol {
			lastCol = len(row) - 1
		}
	}
	return Bounds{StartRow: 0, LastRow: len(s.rows) - 1, StartCol: 0, LastCol: lastCol}
}

// Value implements Grid.
func (s *ExcelSheet) Value(row, col int) (string, bool) {
	if row < 0 || row >= len(s.rows) {
		return "", false
	}
	cells := s.rows[row]
	if col < 0 || col >= len(cells) || cells[col] == "" {
		return "", false
	}
	return cells[col], true
}

// Merge implements Applier. See NewExcelApplier for skipped regions.
func (s *ExcelSheet) Merge(r Region) error {
	return mergeInto(s.file, s.name, s.merged, r)
}

// NewExcelApplier returns an Applier that merges regions on the named sheet of f.
// A region already in merged is rejected with ErrAlreadyMerged, one overlapping
// a different merged range with ErrMergeConflict; excelize would otherwise join
// the two into a single block. Applied regions are added to merged.
func NewExcelApplier(f *excelize.File, sheet string, merged *MergedRanges) Applier {
	if merged == nil {
		merged = &MergedRanges{}
	}
	return applierFunc(func(r Region) error {
		return mergeInto(f, sheet, merged, r)
	})
}

type applierFunc func(Region) error

func (fn applierFunc) Merge(r Region) error { return fn(r) }

// MergedRanges tracks the merged ranges of one worksheet.
type MergedRanges struct {
	regions []Region
}

// LoadMergedRanges reads the ranges already merged on the named sheet.
func LoadMergedRanges(f *excelize.File, sheet string) (*MergedRanges, error) {
	cells, err := f.GetMergeCells(sheet)
	if err != nil {
		return nil, fmt.Errorf("read merged cells of %q: %w", sheet, err)
	}
	m := &MergedRanges{regions: make([]Region, 0, len(cells))}
	for _, mc := range cells {
		r, err := parseRange(mc.GetStartAxis(), mc.GetEndAxis())
		if err != nil {
			return nil, fmt.Errorf("parse merged range of %q: %w", sheet, err)
		}
		m.regions = append(m.regions, r)
	}
	return m, nil
}

// Regions returns the tracked ranges.
func (m *MergedRanges) Regions() []Region {
	return append([]Region(nil), m.regions...)
}

// check returns ErrAlreadyMerged or ErrMergeConflict when r meets a tracked range.
func (m *MergedRanges) check(r Region) error {
	for _, o := range m.regions {
		if o == r {
			return fmt.Errorf("%w: %s", ErrAlreadyMerged, r)
		}
		if r.Overlaps(o) {
			return fmt.Errorf("%w: %s overlaps %s", ErrMergeConflict, r, o)
		}
	}
	return nil
}

func parseRange(topLeft, bottomRight string) (Region, error) {
	c1, r1, err := excelize.CellNameToCoordinates(topLeft)
	if err != nil {
		return Region{}, err
	}
	c2, r2, err := excelize.CellNameToCoordinates(bottomRight)
	if err != nil {
		return Region{}, err
	}
	if r1 > r2 {
		r1, r2 = r2, r1
	}
	if c1 > c2 {
		c1, c2 = c2, c1
	}
	return Region{StartRow: r1 - 1, EndRow: r2 - 1, StartCol: c1 - 1, EndCol: c2 - 1}, nil
}

func mergeInto(f *excelize.File, sheet string, merged *MergedRanges, r Region) error {
	topLeft, bottomRight, err := r.CellNames()
	if err != nil {
		return err
	}
	if err := merged.check(r); err != nil {
		return err
	}
	if err := f.MergeCell(sheet, topLeft, bottomRight); err != nil {
		return err
	}
	merged.regions = append(merged.regions, r)
	return nil
}
