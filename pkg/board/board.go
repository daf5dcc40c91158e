package board

import (
	"errors"
	"sync"
	"time"

	"github.com/arnavshah/schedule-board-api/pkg/engine"
	"github.com/arnavshah/schedule-board-api/pkg/grid"
	"github.com/arnavshah/schedule-board-api/pkg/models"
	"github.com/arnavshah/schedule-board-api/pkg/projector"
)

// ErrRetired is returned by mutations on a board that has left the registry.
// Callers fetch the current board again and retry.
var ErrRetired = errors.New("board retired")

// CommitFunc persists a grid before a board adopts it. A failing commit
// leaves the board unchanged.
type CommitFunc func(g grid.Grid) error

// PublishFunc receives every adopted state while the board is still locked,
// so consecutive calls observe versions in order. It must not block.
type PublishFunc func(s Snapshot, outcome engine.Outcome)

// Snapshot is a read-only view of a board.
type Snapshot struct {
	ScheduleID       string                  `json:"scheduleId"`
	Version          uint64                  `json:"version"`
	TemplateID       string                  `json:"templateId"`
	AllocationType   models.AllocationType   `json:"allocationType"`
	StaffDisplayType models.StaffDisplayType `json:"staffDisplayType"`
	Grid             grid.Grid               `json:"grid"`
	Pool             grid.Pool               `json:"pool"`
	Layout           projector.Layout        `json:"layout"`
}

// Board owns the live grid and pool of one schedule. All mutations run one
// at a time.
type Board struct {
	mu         sync.Mutex
	scheduleID string
	template   models.Template
	grid       grid.Grid
	pool       grid.Pool
	layout     projector.Layout
	engine     *engine.Engine
	lastUsed   time.Time
	version    uint64
	retired    bool
}

// New creates a board for scheduleID from a projection of t.
func New(scheduleID string, t models.Template, p projector.Projection, e *engine.Engine) *Board {
	return &Board{
		scheduleID: scheduleID,
		template:   t,
		grid:       p.Grid,
		pool:       p.Pool,
		layout:     p.Layout,
		engine:     e,
		lastUsed:   time.Now(),
	}
}

// ScheduleID returns the id of the schedule the board belongs to.
func (b *Board) ScheduleID() string {
	return b.scheduleID
}

// Template returns the template the board was projected from.
func (b *Board) Template() models.Template {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.template
}

// LastUsed returns when the board was last read or written.
func (b *Board) LastUsed() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastUsed
}

// Touch marks the board as used now.
func (b *Board) Touch() {
	b.mu.Lock()
	b.lastUsed = time.Now()
	b.mu.Unlock()
}

// retire stops the board from accepting mutations. It waits for a running
// mutation to finish, so nothing is committed from the board afterwards.
func (b *Board) retire() {
	b.mu.Lock()
	b.retired = true
	b.mu.Unlock()
}

// Snapshot returns the current state.
func (b *Board) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastUsed = time.Now()
	return b.snapshot()
}

// Apply runs a drop through the engine. Applied results are committed before
// the board adopts them; rejected drops never reach commit. publish may be nil.
func (b *Board) Apply(d engine.Drop, commit CommitFunc, publish PublishFunc) (Snapshot, engine.Outcome, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.retired {
		return Snapshot{}, "", ErrRetired
	}
	b.lastUsed = time.Now()

	next, outcome := b.engine.Apply(d, b.grid, b.pool, b.template.AllocationType)
	return b.adopt(next, outcome, commit, publish)
}

// Remove deletes one placed entry.
func (b *Board) Remove(row, col, index int, commit CommitFunc, publish PublishFunc) (Snapshot, engine.Outcome, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.retired {
		return Snapshot{}, "", ErrRetired
	}
	b.lastUsed = time.Now()

	next, outcome := engine.Remove(b.grid, row, col, index)
	return b.adopt(next, outcome, commit, publish)
}

// adopt must be called with mu held.
func (b *Board) adopt(next grid.Grid, outcome engine.Outcome, commit CommitFunc, publish PublishFunc) (Snapshot, engine.Outcome, error) {
	if !outcome.Applied() {
		return b.snapshot(), outcome, nil
	}
	if err := commit(next); err != nil {
		return b.snapshot(), outcome, err
	}
	b.grid = next
	b.version++
	snap := b.snapshot()
	if publish != nil {
		publish(snap, outcome)
	}
	return snap, outcome, nil
}

// Reset replaces the whole board with a fresh projection, e.g. after a
// template switch.
func (b *Board) Reset(t models.Template, p projector.Projection, commit CommitFunc, publish PublishFunc) (Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.retired {
		return Snapshot{}, ErrRetired
	}
	b.lastUsed = time.Now()

	if err := commit(p.Grid); err != nil {
		return b.snapshot(), err
	}
	b.template = t
	b.grid = p.Grid
	b.pool = p.Pool
	b.layout = p.Layout
	b.version++
	snap := b.snapshot()
	if publish != nil {
		publish(snap, engine.Applied)
	}
	return snap, nil
}

func (b *Board) snapshot() Snapshot {
	return Snapshot{
		ScheduleID:       b.scheduleID,
		Version:          b.version,
		TemplateID:       b.template.ID,
		AllocationType:   b.template.AllocationType,
		StaffDisplayType: b.template.StaffDisplayType,
		Grid:             b.grid,
		Pool:             b.pool.Clone(),
		Layout:           b.layout,
	}
}
