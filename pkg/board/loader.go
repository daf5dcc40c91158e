package board

import (
	"context"
	"fmt"

	"github.com/arnavshah/schedule-board-api/pkg/engine"
	"github.com/arnavshah/schedule-board-api/pkg/grid"
	"github.com/arnavshah/schedule-board-api/pkg/models"
	"github.com/arnavshah/schedule-board-api/pkg/projector"
	"go.uber.org/zap"
)

// ScheduleSource reads schedules and templates.
type ScheduleSource interface {
	GetSchedule(ctx context.Context, id string) (models.Schedule, error)
	GetTemplate(ctx context.Context, id string) (models.Template, error)
}

// Directory lists the staff user directory.
type Directory interface {
	Users(ctx context.Context) ([]models.User, error)
}

// Loader rebuilds boards from storage.
type Loader struct {
	schedules ScheduleSource
	directory Directory
	projector *projector.Projector
	engine    *engine.Engine
	log       *zap.Logger
}

// NewLoader creates a loader.
func NewLoader(schedules ScheduleSource, directory Directory, p *projector.Projector, e *engine.Engine, log *zap.Logger) *Loader {
	return &Loader{schedules: schedules, directory: directory, projector: p, engine: e, log: log}
}

// Load builds the board of a stored schedule. The saved grid is kept when it
// still matches the template's table; otherwise the board starts over from
// the template.
func (l *Loader) Load(ctx context.Context, scheduleID string) (*Board, error) {
	s, err := l.schedules.GetSchedule(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("load schedule %s: %w", scheduleID, err)
	}
	t, err := l.schedules.GetTemplate(ctx, s.TemplateID)
	if err != nil {
		return nil, fmt.Errorf("load template %s: %w", s.TemplateID, err)
	}
	proj, err := l.Project(ctx, t)
	if err != nil {
		return nil, err
	}

	switch {
	case s.Grid.NumRows() == 0:
	case sameShape(s.Grid, proj.Grid):
		proj.Grid = s.Grid
	default:
		l.log.Warn("saved grid no longer matches template, starting over",
			zap.String("schedule_id", scheduleID),
			zap.String("template_id", t.ID))
	}
	return New(scheduleID, t, proj, l.engine), nil
}

// Project builds a fresh projection of t against the current directory.
func (l *Loader) Project(ctx context.Context, t models.Template) (projector.Projection, error) {
	users, err := l.directory.Users(ctx)
	if err != nil {
		return projector.Projection{}, fmt.Errorf("load directory: %w", err)
	}
	proj := l.projector.Project(t, users)
	if missing := len(t.StaffIDs) - len(proj.Pool); missing > 0 {
		l.log.Debug("template staff missing from directory",
			zap.String("template_id", t.ID),
			zap.Int("missing", missing))
	}
	return proj, nil
}

func sameShape(a, b grid.Grid) bool {
	if a.NumRows() != b.NumRows() {
		return false
	}
	for r := 0; r < a.NumRows(); r++ {
		if a.NumColumns(r) != b.NumColumns(r) {
			return false
		}
		for c := 0; c < a.NumColumns(r); c++ {
			ac, _ := a.Cell(r, c)
			bc, _ := b.Cell(r, c)
			if ac.IsBlocked != bc.IsBlocked {
				return false
			}
		}
	}
	return true
}
