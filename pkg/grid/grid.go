package grid

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrDuplicateStaff is returned when a replacement entry list would place the
// same staff member twice in one cell.
var ErrDuplicateStaff = errors.New("staff member already placed in cell")

// OutOfBoundsError reports an address outside the grid dimensions.
type OutOfBoundsError struct {
	Row    int
	Column int
	Rows   int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("cell (%d,%d) is outside a grid of %d rows", e.Row, e.Column, e.Rows)
}

// Cell is a single grid position.
type Cell struct {
	Row       int     `json:"row"`
	Column    int     `json:"column"`
	IsBlocked bool    `json:"isBlocked"`
	Entries   []Entry `json:"entries"`
}

// Grid is an immutable matrix of cells indexed [row][column]. Every write
// returns a new Grid; values handed out by accessors are copies.
type Grid struct {
	rows [][]Cell
}

// New builds a grid from raw rows. Coordinates are stamped from the position
// in rows, blocked cells lose their entries and repeated staff members within
// a cell are dropped after their first occurrence.
func New(rows [][]Cell) Grid {
	out := make([][]Cell, len(rows))
	for r, row := range rows {
		out[r] = make([]Cell, len(row))
		for c, cell := range row {
			entries := make([]Entry, 0, len(cell.Entries))
			if !cell.IsBlocked {
				for _, e := range cell.Entries {
					if ContainsStaff(entries, e.StaffID) {
						continue
					}
					entries = append(entries, e)
				}
			}
			out[r][c] = Cell{Row: r, Column: c, IsBlocked: cell.IsBlocked, Entries: entries}
		}
	}
	return Grid{rows: out}
}

// NumRows returns the number of rows.
func (g Grid) NumRows() int {
	return len(g.rows)
}

// NumColumns returns the number of cells in row, or 0 if the row does not exist.
func (g Grid) NumColumns(row int) int {
	if row < 0 || row >= len(g.rows) {
		return 0
	}
	return len(g.rows[row])
}

// Contains reports whether (row, col) addresses an existing cell.
func (g Grid) Contains(row, col int) bool {
	return row >= 0 && row < len(g.rows) && col >= 0 && col < len(g.rows[row])
}

// Cell returns a copy of the cell at (row, col).
func (g Grid) Cell(row, col int) (Cell, error) {
	if !g.Contains(row, col) {
		return Cell{}, &OutOfBoundsError{Row: row, Column: col, Rows: len(g.rows)}
	}
	c := g.rows[row][col]
	c.Entries = cloneEntries(c.Entries)
	return c, nil
}

// SetCellEntries replaces the entries of the cell at (row, col). Writes to a
// blocked cell are ignored and return the grid unchanged.
func (g Grid) SetCellEntries(row, col int, entries []Entry) (Grid, error) {
	if !g.Contains(row, col) {
		return g, &OutOfBoundsError{Row: row, Column: col, Rows: len(g.rows)}
	}
	if g.rows[row][col].IsBlocked {
		return g, nil
	}
	for i, e := range entries {
		if ContainsStaff(entries[:i], e.StaffID) {
			return g, fmt.Errorf("cell (%d,%d): %w", row, col, ErrDuplicateStaff)
		}
	}

	// Untouched rows are shared; nothing hands out a mutable reference to them.
	rows := make([][]Cell, len(g.rows))
	copy(rows, g.rows)
	newRow := make([]Cell, len(g.rows[row]))
	copy(newRow, g.rows[row])
	newRow[col].Entries = cloneEntries(entries)
	rows[row] = newRow
	return Grid{rows: rows}, nil
}

// Rows returns a deep copy of all cells.
func (g Grid) Rows() [][]Cell {
	out := make([][]Cell, len(g.rows))
	for r, row := range g.rows {
		out[r] = make([]Cell, len(row))
		for c, cell := range row {
			cell.Entries = cloneEntries(cell.Entries)
			out[r][c] = cell
		}
	}
	return out
}

// EntryCount returns the number of placements across all cells.
func (g Grid) EntryCount() int {
	n := 0
	for _, row := range g.rows {
		for _, cell := range row {
			n += len(cell.Entries)
		}
	}
	return n
}

// MarshalJSON encodes the grid as a [][]Cell array.
func (g Grid) MarshalJSON() ([]byte, error) {
	if g.rows == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(g.rows)
}

// UnmarshalJSON decodes a [][]Cell array through New.
func (g *Grid) UnmarshalJSON(data []byte) error {
	var rows [][]Cell
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}
	*g = New(rows)
	return nil
}
