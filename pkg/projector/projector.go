package projector

import (
	"github.com/arnavshah/schedule-board-api/pkg/grid"
	"github.com/arnavshah/schedule-board-api/pkg/models"
	"github.com/google/uuid"
)

// timeLayout formats session start and end times in column headers.
const timeLayout = "3:04 PM"

// RowHeader labels one grid row with its day and area.
type RowHeader struct {
	Day  string `json:"day"`
	Area string `json:"area"`
}

// Layout holds the header labels rendered around the grid.
type Layout struct {
	Columns []string    `json:"columns"`
	Rows    []RowHeader `json:"rows"`
}

// Projection is the initial board state for a template.
type Projection struct {
	Grid   grid.Grid
	Pool   grid.Pool
	Layout Layout
}

// Projector builds grids and pools from templates
type Projector struct {
	newID func() string
}

// New creates a projector that stamps pool entries with random uuids
func New() *Projector {
	return NewWithIDs(uuid.NewString)
}

// NewWithIDs creates a projector with a custom drag instance id generator
func NewWithIDs(newID func() string) *Projector {
	return &Projector{newID: newID}
}

// Project builds the full board state for t. users is the user directory.
func (p *Projector) Project(t models.Template, users []models.User) Projection {
	return Projection{
		Grid:   Grid(t),
		Pool:   p.Pool(t, users),
		Layout: LayoutFor(t),
	}
}

// Pool maps the template roster through the directory, keeping roster order.
// Staff ids missing from the directory are skipped.
func (p *Projector) Pool(t models.Template, users []models.User) grid.Pool {
	byID := make(map[string]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	pool := make(grid.Pool, 0, len(t.StaffIDs))
	for _, id := range t.StaffIDs {
		u, ok := byID[id]
		if !ok {
			continue
		}
		e := EntryFor(u)
		e.InstanceID = p.newID()
		pool = append(pool, e)
	}
	return pool
}

// EntryFor converts a directory user into a grid entry without an instance id.
func EntryFor(u models.User) grid.Entry {
	return grid.Entry{
		StaffID:     u.ID,
		DisplayName: u.Name.Full(),
		ClassLabel:  u.Class,
		AvatarURL:   u.AvatarURL,
	}
}

// Grid deep-copies the template's table shape. The grid mirrors the table
// exactly; nothing is padded.
func Grid(t models.Template) grid.Grid {
	rows := make([][]grid.Cell, len(t.TableShape))
	for r, row := range t.TableShape {
		rows[r] = make([]grid.Cell, len(row))
		for c, cell := range row {
			rows[r][c] = grid.Cell{IsBlocked: cell.IsBlocked, Entries: cell.List}
		}
	}
	return grid.New(rows)
}

// LayoutFor computes column headers from sessions and row headers from the
// days x areas combination.
func LayoutFor(t models.Template) Layout {
	l := Layout{
		Columns: make([]string, 0, len(t.Sessions)),
		Rows:    make([]RowHeader, 0, len(t.Days)*len(t.Areas)),
	}
	for _, s := range t.Sessions {
		l.Columns = append(l.Columns, SessionLabel(s, t.SessionDisplayType))
	}
	for _, d := range t.Days {
		for _, a := range t.Areas {
			l.Rows = append(l.Rows, RowHeader{Day: d.Title, Area: AreaLabel(a, t.AreaDisplayType)})
		}
	}
	return l
}

// SessionLabel renders a session header.
func SessionLabel(s models.Session, display models.SessionDisplayType) string {
	if display == models.SessionDisplayTime {
		return s.StartTime.Format(timeLayout) + " - " + s.EndTime.Format(timeLayout)
	}
	return s.Title
}

// AreaLabel renders an area header.
func AreaLabel(a models.Area, display models.AreaDisplayType) string {
	if display == models.AreaDisplayAlternateName && a.AlternateName != "" {
		return a.AlternateName
	}
	return a.Title
}

// Label renders a placed staff entry: the class label when the template shows
// classes and one is set, otherwise the name.
func Label(e grid.Entry, display models.StaffDisplayType) string {
	if display == models.StaffDisplayClass && e.ClassLabel != "" {
		return e.ClassLabel
	}
	return e.DisplayName
}
