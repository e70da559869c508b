package sheetmerge

import (
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	AxisColumns = "columns" // merge vertical runs inside each column
	AxisRows    = "rows"    // merge horizontal runs inside each row
)

var (
	// ErrInvalidAxis is returned when an axis name is neither AxisColumns nor AxisRows.
	ErrInvalidAxis = errors.New("invalid merge axis")

	// ErrAlreadyMerged and ErrMergeConflict are returned by an Applier that left a
	// region alone. The merge pass skips such regions and keeps going.
	ErrAlreadyMerged = errors.New("region already merged")
	ErrMergeConflict = errors.New("region overlaps a merged range")
)

// Bounds is the populated rectangle of a grid. All indexes are 0-based and inclusive.
// An empty grid has LastRow < StartRow.
type Bounds struct {
	StartRow int
	LastRow  int
	StartCol int
	LastCol  int
}

// Empty reports whether the bounds contain no cell.
func (b Bounds) Empty() bool {
	return b.LastRow < b.StartRow || b.LastCol < b.StartCol
}

// Grid is a read-only view over populated sheet cells.
// Value returns false for a missing row as well as for a missing cell.
type Grid interface {
	Bounds() Bounds
	Value(row, col int) (string, bool)
}

// Applier materializes a merge region on the underlying sheet.
type Applier interface {
	Merge(r Region) error
}

// Region is a merged cell range, 0-based and inclusive on both axes.
// Regions produced by this package are always one line thick.
type Region struct {
	StartRow int `json:"start_row"`
	EndRow   int `json:"end_row"`
	StartCol int `json:"start_col"`
	EndCol   int `json:"end_col"`
}

// Len returns the number of cells covered by the region.
func (r Region) Len() int {
	return (r.EndRow - r.StartRow + 1) * (r.EndCol - r.StartCol + 1)
}

// Overlaps reports whether r and o share at least one cell.
func (r Region) Overlaps(o Region) bool {
	return r.StartRow <= o.EndRow && o.StartRow <= r.EndRow &&
		r.StartCol <= o.EndCol && o.StartCol <= r.EndCol
}

// CellNames returns the top-left and bottom-right cell names in A1 notation.
func (r Region) CellNames() (string, string, error) {
	topLeft, err := excelize.CoordinatesToCellName(r.StartCol+1, r.StartRow+1)
	if err != nil {
		return "", "", err
	}
	bottomRight, err := excelize.CoordinatesToCellName(r.EndCol+1, r.EndRow+1)
	if err != nil {
		return "", "", err
	}
	return topLeft, bottomRight, nil
}

// String returns the region as an A1 range, e.g. "A1:A3".
func (r Region) String() string {
	topLeft, bottomRight, err := r.CellNames()
	if err != nil {
		return fmt.Sprintf("(%d,%d,%d,%d)", r.StartRow, r.EndRow, r.StartCol, r.EndCol)
	}
	return topLeft + ":" + bottomRight
}

// SparseGrid is an in-memory Grid. Cells that were never set are missing.
// The zero value is not usable; create one with NewSparseGrid.
type SparseGrid struct {
	startRow, startCol int
	lastRow, lastCol   int
	cells              map[int]map[int]string
}

// NewSparseGrid creates an empty grid whose bounds start at (startRow, startCol).
func NewSparseGrid(startRow, startCol int) *SparseGrid {
	return &SparseGrid{
		startRow: startRow,
		startCol: startCol,
		lastRow:  startRow - 1,
		lastCol:  startCol - 1,
		cells:    make(map[int]map[int]string),
	}
}

// Set stores a cell value and grows the bounds to include it.
func (g *SparseGrid) Set(row, col int, value string) {
	cols, ok := g.cells[row]
	if !ok {
		cols = make(map[int]string)
		g.cells[row] = cols
	}
	cols[col] = value
	if row > g.lastRow {
		g.lastRow = row
	}
	if col > g.lastCol {
		g.lastCol = col
	}
}

// Bounds implements Grid.
func (g *SparseGrid) Bounds() Bounds {
	return Bounds{StartRow: g.startRow, LastRow: g.lastRow, StartCol: g.startCol, LastCol: g.lastCol}
}

// Value implements Grid.
func (g *SparseGrid) Value(row, col int) (string, bool) {
	cols, ok := g.cells[row]
	if !ok {
		return "", false
	}
	v, ok := cols[col]
	return v, ok
}
