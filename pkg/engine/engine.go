package engine

import (
	"github.com/arnavshah/schedule-board-api/pkg/grid"
	"github.com/arnavshah/schedule-board-api/pkg/models"
	"github.com/google/uuid"
)

// Position addresses an index inside a container (the pool or a cell)
type Position struct {
	Location grid.Location
	Index    int
}

// Drop is a completed drag gesture. Destination is nil when the item was
// released outside any container.
type Drop struct {
	Source      Position
	Destination *Position
}

// Outcome describes what a drop did. Every value other than Applied means the
// grid was returned unchanged.
type Outcome string

const (
	Applied          Outcome = "applied"
	NoDestination    Outcome = "no_destination"
	PoolNotDroppable Outcome = "pool_not_droppable"
	BlockedCell      Outcome = "blocked_cell"
	CellOccupied     Outcome = "cell_occupied"
	DuplicateStaff   Outcome = "duplicate_staff"
	InvalidIndex     Outcome = "invalid_index"
	OutOfBounds      Outcome = "out_of_bounds"
)

// Applied reports whether the drop changed the grid.
func (o Outcome) Applied() bool {
	return o == Applied
}

// Engine applies drag results to grids
type Engine struct {
	newID func() string
}

// New creates an engine that stamps copies with random uuids
func New() *Engine {
	return NewWithIDs(uuid.NewString)
}

// NewWithIDs creates an engine with a custom drag instance id generator
func NewWithIDs(newID func() string) *Engine {
	return &Engine{newID: newID}
}

// Apply interprets a drop against the current grid and pool and returns the
// resulting grid. Rejected drops return g itself; the pool is never modified.
func (e *Engine) Apply(d Drop, g grid.Grid, pool grid.Pool, allocation models.AllocationType) (grid.Grid, Outcome) {
	if d.Destination == nil {
		return g, NoDestination
	}
	src, dst := d.Source, *d.Destination

	switch {
	case dst.Location.IsPool():
		return g, PoolNotDroppable
	case src.Location == dst.Location:
		return reorderCell(g, src, dst.Index)
	case src.Location.IsPool():
		return e.transfer(g, pool, src, dst, allocation, false)
	default:
		return e.transfer(g, pool, src, dst, allocation, true)
	}
}

// transfer is the shared copy/move path. Copies come from the pool and get a
// fresh instance id; moves take the entry out of the source cell.
func (e *Engine) transfer(g grid.Grid, pool grid.Pool, src, dst Position, allocation models.AllocationType, removeFromSource bool) (grid.Grid, Outcome) {
	var (
		item    grid.Entry
		srcCell grid.Cell
	)
	if removeFromSource {
		var err error
		if srcCell, err = g.Cell(src.Location.Row, src.Location.Column); err != nil {
			return g, OutOfBounds
		}
		if src.Index < 0 || src.Index >= len(srcCell.Entries) {
			return g, InvalidIndex
		}
		item = srcCell.Entries[src.Index]
	} else {
		var ok bool
		if item, ok = pool.At(src.Index); !ok {
			return g, InvalidIndex
		}
	}

	dstCell, err := g.Cell(dst.Location.Row, dst.Location.Column)
	if err != nil {
		return g, OutOfBounds
	}
	if outcome := admit(dstCell, item.StaffID, allocation); outcome != Applied {
		return g, outcome
	}

	if !removeFromSource {
		item.InstanceID = e.newID()
	}
	next := g
	if removeFromSource {
		if next, err = next.SetCellEntries(src.Location.Row, src.Location.Column, removeAt(srcCell.Entries, src.Index)); err != nil {
			return g, OutOfBounds
		}
	}
	if next, err = next.SetCellEntries(dst.Location.Row, dst.Location.Column, insertAt(dstCell.Entries, dst.Index, item)); err != nil {
		return g, DuplicateStaff
	}
	return next, Applied
}

// admit decides whether staffID may be placed into dst.
func admit(dst grid.Cell, staffID string, allocation models.AllocationType) Outcome {
	switch {
	case dst.IsBlocked:
		return BlockedCell
	case len(dst.Entries) > 0 && allocation != models.AllocationMultiple:
		return CellOccupied
	case grid.ContainsStaff(dst.Entries, staffID):
		return DuplicateStaff
	}
	return Applied
}

func reorderCell(g grid.Grid, src Position, to int) (grid.Grid, Outcome) {
	cell, err := g.Cell(src.Location.Row, src.Location.Column)
	if err != nil {
		return g, OutOfBounds
	}
	if src.Index < 0 || src.Index >= len(cell.Entries) {
		return g, InvalidIndex
	}
	next, err := g.SetCellEntries(src.Location.Row, src.Location.Column, Reorder(cell.Entries, src.Index, to))
	if err != nil {
		return g, OutOfBounds
	}
	return next, Applied
}

// Reorder moves the element at from to position to and returns a new slice.
// to is clamped into range.
func Reorder(list []grid.Entry, from, to int) []grid.Entry {
	if from < 0 || from >= len(list) {
		return append([]grid.Entry(nil), list...)
	}
	item := list[from]
	return insertAt(removeAt(list, from), to, item)
}

// Remove deletes the entry at index from the cell at (row, col). Removal is
// never subject to allocation rules.
func Remove(g grid.Grid, row, col, index int) (grid.Grid, Outcome) {
	cell, err := g.Cell(row, col)
	if err != nil {
		return g, OutOfBounds
	}
	if index < 0 || index >= len(cell.Entries) {
		return g, InvalidIndex
	}
	next, err := g.SetCellEntries(row, col, removeAt(cell.Entries, index))
	if err != nil {
		return g, OutOfBounds
	}
	return next, Applied
}

func removeAt(list []grid.Entry, i int) []grid.Entry {
	out := make([]grid.Entry, 0, len(list))
	out = append(out, list[:i]...)
	return append(out, list[i+1:]...)
}

func insertAt(list []grid.Entry, i int, item grid.Entry) []grid.Entry {
	if i < 0 {
		i = 0
	}
	if i > len(list) {
		i = len(list)
	}
	out := make([]grid.Entry, 0, len(list)+1)
	out = append(out, list[:i]...)
	out = append(out, item)
	return append(out, list[i:]...)
}
