package engine

import (
	"fmt"
	"testing"

	"github.com/arnavshah/schedule-board-api/pkg/grid"
	"github.com/arnavshah/schedule-board-api/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("drag-%d", n)
	}
}

func staff(id string) grid.Entry {
	return grid.Entry{StaffID: id, InstanceID: "pool-" + id, DisplayName: "Staff " + id}
}

func placed(id string) grid.Entry {
	return grid.Entry{StaffID: id, InstanceID: "cell-" + id, DisplayName: "Staff " + id}
}

// newGrid builds a 2x2 grid with (1,1) blocked.
func newGrid(cells map[[2]int][]grid.Entry) grid.Grid {
	rows := [][]grid.Cell{
		{{}, {}},
		{{}, {IsBlocked: true}},
	}
	for addr, entries := range cells {
		rows[addr[0]][addr[1]].Entries = entries
	}
	return grid.New(rows)
}

func pool() grid.Pool {
	return grid.Pool{staff("u1"), staff("u2"), staff("u3")}
}

func fromPool(index int, row, col, at int) Drop {
	return Drop{
		Source:      Position{Location: grid.PoolLocation(), Index: index},
		Destination: &Position{Location: grid.CellLocation(row, col), Index: at},
	}
}

func between(sr, sc, si, dr, dc, di int) Drop {
	return Drop{
		Source:      Position{Location: grid.CellLocation(sr, sc), Index: si},
		Destination: &Position{Location: grid.CellLocation(dr, dc), Index: di},
	}
}

func entriesAt(t *testing.T, g grid.Grid, row, col int) []grid.Entry {
	t.Helper()
	c, err := g.Cell(row, col)
	require.NoError(t, err)
	return c.Entries
}

func staffIDs(entries []grid.Entry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.StaffID
	}
	return ids
}

func TestApply_CopyIntoEmptyCellSingleMode(t *testing.T) {
	e := NewWithIDs(sequentialIDs())
	g := newGrid(nil)

	next, outcome := e.Apply(fromPool(0, 0, 0, 0), g, pool(), models.AllocationSingle)

	assert.Equal(t, Applied, outcome)
	got := entriesAt(t, next, 0, 0)
	require.Len(t, got, 1)
	assert.Equal(t, "u1", got[0].StaffID)
	assert.Equal(t, "drag-1", got[0].InstanceID)
	assert.Equal(t, "Staff u1", got[0].DisplayName)
}

func TestApply_SingleModeRejectsOccupiedCell(t *testing.T) {
	e := NewWithIDs(sequentialIDs())
	g, _ := e.Apply(fromPool(0, 0, 0, 0), newGrid(nil), pool(), models.AllocationSingle)

	next, outcome := e.Apply(fromPool(1, 0, 0, 0), g, pool(), models.AllocationSingle)

	assert.Equal(t, CellOccupied, outcome)
	assert.Equal(t, g, next)
	assert.Equal(t, []string{"u1"}, staffIDs(entriesAt(t, next, 0, 0)))
}

func TestApply_MultipleModeRejectsDuplicateStaff(t *testing.T) {
	e := NewWithIDs(sequentialIDs())
	g := newGrid(map[[2]int][]grid.Entry{{0, 0}: {placed("u1")}})

	next, outcome := e.Apply(fromPool(0, 0, 0, 1), g, pool(), models.AllocationMultiple)

	assert.Equal(t, DuplicateStaff, outcome)
	assert.Equal(t, g, next)
}

func TestApply_MultipleModeCopiesAtIndex(t *testing.T) {
	e := NewWithIDs(sequentialIDs())
	g := newGrid(map[[2]int][]grid.Entry{{0, 0}: {placed("u1"), placed("u3")}})

	next, outcome := e.Apply(fromPool(1, 0, 0, 1), g, pool(), models.AllocationMultiple)

	assert.Equal(t, Applied, outcome)
	assert.Equal(t, []string{"u1", "u2", "u3"}, staffIDs(entriesAt(t, next, 0, 0)))
}

func TestApply_MoveBetweenCells(t *testing.T) {
	e := NewWithIDs(sequentialIDs())
	g := newGrid(map[[2]int][]grid.Entry{{0, 0}: {placed("u1")}})

	next, outcome := e.Apply(between(0, 0, 0, 0, 1, 0), g, pool(), models.AllocationMultiple)

	assert.Equal(t, Applied, outcome)
	assert.Empty(t, entriesAt(t, next, 0, 0))
	moved := entriesAt(t, next, 0, 1)
	require.Len(t, moved, 1)
	assert.Equal(t, placed("u1"), moved[0], "a move keeps the instance id")
}

func TestApply_RejectedMoveKeepsSource(t *testing.T) {
	e := NewWithIDs(sequentialIDs())
	g := newGrid(map[[2]int][]grid.Entry{
		{0, 0}: {placed("u1")},
		{0, 1}: {placed("u2")},
	})

	next, outcome := e.Apply(between(0, 0, 0, 0, 1, 0), g, pool(), models.AllocationSingle)

	assert.Equal(t, CellOccupied, outcome)
	assert.Equal(t, []string{"u1"}, staffIDs(entriesAt(t, next, 0, 0)))
	assert.Equal(t, []string{"u2"}, staffIDs(entriesAt(t, next, 0, 1)))
}

func TestApply_MoveRejectsDuplicateInMultipleMode(t *testing.T) {
	e := NewWithIDs(sequentialIDs())
	g := newGrid(map[[2]int][]grid.Entry{
		{0, 0}: {placed("u1")},
		{0, 1}: {placed("u2"), placed("u1")},
	})

	next, outcome := e.Apply(between(0, 0, 0, 0, 1, 0), g, pool(), models.AllocationMultiple)

	assert.Equal(t, DuplicateStaff, outcome)
	assert.Equal(t, g, next)
}

func TestApply_ReorderWithinCell(t *testing.T) {
	e := NewWithIDs(sequentialIDs())
	g := newGrid(map[[2]int][]grid.Entry{{0, 0}: {placed("a"), placed("b"), placed("c")}})

	next, outcome := e.Apply(between(0, 0, 0, 0, 0, 2), g, pool(), models.AllocationSingle)

	assert.Equal(t, Applied, outcome)
	got := entriesAt(t, next, 0, 0)
	assert.Equal(t, []string{"b", "c", "a"}, staffIDs(got))
	assert.ElementsMatch(t, entriesAt(t, g, 0, 0), got, "reorder only permutes entries")
}

func TestApply_NoDestinationIsIdentity(t *testing.T) {
	e := NewWithIDs(sequentialIDs())
	g := newGrid(map[[2]int][]grid.Entry{{0, 0}: {placed("u1")}})
	p := pool()

	next, outcome := e.Apply(Drop{Source: Position{Location: grid.CellLocation(0, 0)}}, g, p, models.AllocationMultiple)

	assert.Equal(t, NoDestination, outcome)
	assert.Equal(t, g, next)
	assert.Equal(t, pool(), p)
}

func TestApply_PoolIsNeverADropTarget(t *testing.T) {
	e := NewWithIDs(sequentialIDs())
	g := newGrid(map[[2]int][]grid.Entry{{0, 0}: {placed("u1")}})

	toPool := Drop{
		Source:      Position{Location: grid.CellLocation(0, 0), Index: 0},
		Destination: &Position{Location: grid.PoolLocation(), Index: 0},
	}
	next, outcome := e.Apply(toPool, g, pool(), models.AllocationMultiple)
	assert.Equal(t, PoolNotDroppable, outcome)
	assert.Equal(t, g, next)

	withinPool := Drop{
		Source:      Position{Location: grid.PoolLocation(), Index: 0},
		Destination: &Position{Location: grid.PoolLocation(), Index: 2},
	}
	_, outcome = e.Apply(withinPool, g, pool(), models.AllocationMultiple)
	assert.Equal(t, PoolNotDroppable, outcome)
}

func TestApply_BlockedDestination(t *testing.T) {
	e := NewWithIDs(sequentialIDs())
	g := newGrid(map[[2]int][]grid.Entry{{0, 0}: {placed("u1")}})

	next, outcome := e.Apply(fromPool(1, 1, 1, 0), g, pool(), models.AllocationMultiple)
	assert.Equal(t, BlockedCell, outcome)
	assert.Equal(t, g, next)

	next, outcome = e.Apply(between(0, 0, 0, 1, 1, 0), g, pool(), models.AllocationMultiple)
	assert.Equal(t, BlockedCell, outcome)
	assert.Equal(t, g, next)
	assert.Empty(t, entriesAt(t, next, 1, 1))
}

func TestApply_InvalidAddresses(t *testing.T) {
	e := NewWithIDs(sequentialIDs())
	g := newGrid(map[[2]int][]grid.Entry{{0, 0}: {placed("u1")}})

	cases := []struct {
		name string
		drop Drop
		want Outcome
	}{
		{"pool index past end", fromPool(9, 0, 1, 0), InvalidIndex},
		{"negative pool index", fromPool(-1, 0, 1, 0), InvalidIndex},
		{"source index past end", between(0, 0, 3, 0, 1, 0), InvalidIndex},
		{"reorder empty cell", between(0, 1, 0, 0, 1, 0), InvalidIndex},
		{"destination outside grid", fromPool(0, 4, 0, 0), OutOfBounds},
		{"source outside grid", between(7, 7, 0, 0, 1, 0), OutOfBounds},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, outcome := e.Apply(tc.drop, g, pool(), models.AllocationMultiple)
			assert.Equal(t, tc.want, outcome)
			assert.Equal(t, g, next)
		})
	}
}

func TestApply_ClampsDestinationIndex(t *testing.T) {
	e := NewWithIDs(sequentialIDs())
	g := newGrid(map[[2]int][]grid.Entry{{0, 0}: {placed("u1")}})

	next, outcome := e.Apply(fromPool(1, 0, 0, 42), g, pool(), models.AllocationMultiple)
	assert.Equal(t, Applied, outcome)
	assert.Equal(t, []string{"u1", "u2"}, staffIDs(entriesAt(t, next, 0, 0)))

	next, outcome = e.Apply(fromPool(2, 0, 0, -3), next, pool(), models.AllocationMultiple)
	assert.Equal(t, Applied, outcome)
	assert.Equal(t, []string{"u3", "u1", "u2"}, staffIDs(entriesAt(t, next, 0, 0)))
}

func TestApply_PoolUnchangedAfterCopies(t *testing.T) {
	e := NewWithIDs(sequentialIDs())
	p := pool()
	g := newGrid(nil)

	g, _ = e.Apply(fromPool(0, 0, 0, 0), g, p, models.AllocationMultiple)
	g, _ = e.Apply(fromPool(0, 0, 1, 0), g, p, models.AllocationMultiple)
	g, _ = e.Apply(fromPool(1, 1, 0, 0), g, p, models.AllocationMultiple)

	assert.Equal(t, pool(), p)
	assert.Equal(t, 3, g.EntryCount())

	a := entriesAt(t, g, 0, 0)[0]
	b := entriesAt(t, g, 0, 1)[0]
	assert.Equal(t, a.StaffID, b.StaffID)
	assert.NotEqual(t, a.InstanceID, b.InstanceID, "each copy gets its own instance id")
}

func TestApply_InvariantsHoldOverGestureSequence(t *testing.T) {
	e := NewWithIDs(sequentialIDs())
	p := pool()
	g := newGrid(nil)

	drops := []Drop{
		fromPool(0, 0, 0, 0),
		fromPool(1, 0, 0, 0),
		fromPool(0, 0, 0, 1),
		fromPool(0, 0, 1, 0),
		between(0, 1, 0, 0, 0, 0),
		between(0, 0, 0, 1, 0, 0),
		fromPool(2, 1, 1, 0),
		between(0, 0, 1, 0, 0, 0),
		fromPool(2, 1, 0, 5),
		between(1, 0, 0, 0, 1, 0),
	}
	for _, mode := range []models.AllocationType{models.AllocationSingle, models.AllocationMultiple} {
		cur := g
		for _, d := range drops {
			cur, _ = e.Apply(d, cur, p, mode)
			for _, row := range cur.Rows() {
				for _, cell := range row {
					if cell.IsBlocked {
						assert.Empty(t, cell.Entries)
					}
					seen := map[string]bool{}
					for _, en := range cell.Entries {
						assert.False(t, seen[en.StaffID], "duplicate %s in (%d,%d)", en.StaffID, cell.Row, cell.Column)
						seen[en.StaffID] = true
					}
					if mode == models.AllocationSingle {
						assert.LessOrEqual(t, len(cell.Entries), 1)
					}
				}
			}
		}
	}
	assert.Equal(t, pool(), p)
}

func TestReorder(t *testing.T) {
	list := []grid.Entry{placed("a"), placed("b"), placed("c")}

	assert.Equal(t, []string{"b", "c", "a"}, staffIDs(Reorder(list, 0, 2)))
	assert.Equal(t, []string{"c", "a", "b"}, staffIDs(Reorder(list, 2, 0)))
	assert.Equal(t, []string{"a", "b", "c"}, staffIDs(Reorder(list, 1, 1)))
	assert.Equal(t, []string{"a", "c", "b"}, staffIDs(Reorder(list, 1, 99)))
	assert.Equal(t, []string{"a", "b", "c"}, staffIDs(Reorder(list, 5, 0)))
	assert.Equal(t, []string{"a", "b", "c"}, staffIDs(list), "input is not modified")
}

func TestRemove(t *testing.T) {
	g := newGrid(map[[2]int][]grid.Entry{{0, 0}: {placed("a"), placed("b")}})

	next, outcome := Remove(g, 0, 0, 0)
	assert.Equal(t, Applied, outcome)
	assert.Equal(t, []string{"b"}, staffIDs(entriesAt(t, next, 0, 0)))
	assert.Equal(t, []string{"a", "b"}, staffIDs(entriesAt(t, g, 0, 0)))

	_, outcome = Remove(g, 0, 0, 2)
	assert.Equal(t, InvalidIndex, outcome)

	_, outcome = Remove(g, 3, 0, 0)
	assert.Equal(t, OutOfBounds, outcome)
}

func TestOutcomeApplied(t *testing.T) {
	assert.True(t, Applied.Applied())
	assert.False(t, CellOccupied.Applied())
}
