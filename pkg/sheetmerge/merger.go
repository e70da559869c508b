package sheetmerge

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// scanRange holds the caller-requested bounds. Nil means "use the grid bound".
type scanRange struct {
	startRow, endRow *int
	startCol, endCol *int
}

// Option narrows the scanned rectangle.
type Option func(*scanRange)

// WithStartRow sets the first scanned row (0-based).
func WithStartRow(row int) Option {
	return func(r *scanRange) { r.startRow = &row }
}

// WithEndRow sets the last scanned row (inclusive).
func WithEndRow(row int) Option {
	return func(r *scanRange) { r.endRow = &row }
}

// WithStartCol sets the first scanned column (0-based).
func WithStartCol(col int) Option {
	return func(r *scanRange) { r.startCol = &col }
}

// WithEndCol sets the last scanned column (inclusive).
func WithEndCol(col int) Option {
	return func(r *scanRange) { r.endCol = &col }
}

// clamp resolves the options against the grid bounds. ok is false when the
// clamped range is empty on either axis.
func clamp(b Bounds, opts []Option) (rng Bounds, ok bool) {
	var req scanRange
	for _, opt := range opts {
		opt(&req)
	}

	rng = b
	if req.startRow != nil && *req.startRow > rng.StartRow {
		rng.StartRow = *req.startRow
	}
	if req.endRow != nil && *req.endRow < rng.LastRow {
		rng.LastRow = *req.endRow
	}
	if req.startCol != nil && *req.startCol > rng.StartCol {
		rng.StartCol = *req.startCol
	}
	if req.endCol != nil && *req.endCol < rng.LastCol {
		rng.LastCol = *req.endCol
	}
	return rng, !rng.Empty()
}

// runScanner detects runs of equal values along one line of the grid.
type runScanner struct {
	active   bool
	runStart int
	last     string
	emit     func(start, end int)
}

// close emits the active run if it ends at end and covers at least two lines.
func (s *runScanner) close(end int) {
	if s.active && end > s.runStart {
		s.emit(s.runStart, end)
	}
}

// scan walks indexes lo..hi. value reports the cell at each index.
func (s *runScanner) scan(lo, hi int, value func(i int) (string, bool)) {
	s.active = false
	for i := lo; i <= hi; i++ {
		v, ok := value(i)
		if !ok {
			s.close(i - 1)
			s.active = false
			continue
		}
		if !s.active || v != s.last {
			s.close(i - 1)
			s.active, s.runStart, s.last = true, i, v
		}
		if i == hi {
			s.close(i)
		}
	}
}

// FindColumnRuns returns the regions MergeAlongColumns would apply, without applying them.
func FindColumnRuns(g Grid, opts ...Option) []Region {
	rng, ok := clamp(g.Bounds(), opts)
	if !ok {
		return nil
	}

	var regions []Region
	for c := rng.StartCol; c <= rng.LastCol; c++ {
		col := c
		s := &runScanner{emit: func(start, end int) {
			regions = append(regions, Region{StartRow: start, EndRow: end, StartCol: col, EndCol: col})
		}}
		s.scan(rng.StartRow, rng.LastRow, func(row int) (string, bool) {
			return g.Value(row, col)
		})
	}
	return regions
}

// FindRowRuns returns the regions MergeAlongRows would apply, without applying them.
func FindRowRuns(g Grid, opts ...Option) []Region {
	rng, ok := clamp(g.Bounds(), opts)
	if !ok {
		return nil
	}

	var regions []Region
	for r := rng.StartRow; r <= rng.LastRow; r++ {
		row := r
		s := &runScanner{emit: func(start, end int) {
			regions = append(regions, Region{StartRow: row, EndRow: row, StartCol: start, EndCol: end})
		}}
		s.scan(rng.StartCol, rng.LastCol, func(col int) (string, bool) {
			return g.Value(row, col)
		})
	}
	return regions
}

// MergeAlongColumns merges vertically adjacent cells with equal values, column by column.
// It returns the regions newly applied, in scan order. Runs the applier rejects
// with ErrAlreadyMerged or ErrMergeConflict are left out.
func MergeAlongColumns(g Grid, a Applier, opts ...Option) ([]Region, error) {
	return apply(a, AxisColumns, FindColumnRuns(g, opts...))
}

// MergeAlongRows merges horizontally adjacent cells with equal values, row by row.
func MergeAlongRows(g Grid, a Applier, opts ...Option) ([]Region, error) {
	return apply(a, AxisRows, FindRowRuns(g, opts...))
}

// Merge dispatches to MergeAlongColumns or MergeAlongRows by axis name.
func Merge(g Grid, a Applier, axis string, opts ...Option) ([]Region, error) {
	switch axis {
	case AxisColumns:
		return MergeAlongColumns(g, a, opts...)
	case AxisRows:
		return MergeAlongRows(g, a, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidAxis, axis)
	}
}

func apply(a Applier, axis string, regions []Region) ([]Region, error) {
	var applied []Region
	skipped := 0
	for _, r := range regions {
		err := a.Merge(r)
		switch {
		case err == nil:
			applied = append(applied, r)
		case errors.Is(err, ErrAlreadyMerged):
			skipped++
		case errors.Is(err, ErrMergeConflict):
			skipped++
			log.Warn().Str("axis", axis).Err(err).Msg("merge skipped")
		default:
			return applied, fmt.Errorf("merge %s: %w", r, err)
		}
	}
	log.Debug().Str("axis", axis).Int("regions", len(applied)).Int("skipped", skipped).Msg("merged runs")
	return applied, nil
}
