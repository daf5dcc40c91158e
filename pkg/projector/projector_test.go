package projector

import (
	"fmt"
	"testing"
	"time"

	"github.com/arnavshah/schedule-board-api/pkg/grid"
	"github.com/arnavshah/schedule-board-api/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counter() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func directory() []models.User {
	return []models.User{
		{ID: "u1", Name: models.Name{First: "Olgica", Last: "Krsteva"}, AvatarURL: "https://a/1.jpg"},
		{ID: "u2", Name: models.Name{First: "Daniel", Last: "Lewis"}, Class: "5B"},
		{ID: "u3", Name: models.Name{First: "Alexander", Last: "Rydin"}},
	}
}

func template() models.Template {
	start := time.Date(2024, 3, 4, 8, 15, 0, 0, time.UTC)
	return models.Template{
		ID:                 "t1",
		Title:              "Yard duty",
		AllocationType:     models.AllocationSingle,
		StaffIDs:           []string{"u3", "ghost", "u1", "u2"},
		AreaDisplayType:    models.AreaDisplayAlternateName,
		SessionDisplayType: models.SessionDisplayTime,
		StaffDisplayType:   models.StaffDisplayClass,
		Days:               []models.Day{{ID: "d1", Title: "Monday"}, {ID: "d2", Title: "Tuesday"}},
		Areas: []models.Area{
			{ID: "a1", Title: "Car Park Gate", AlternateName: "CPG"},
			{ID: "a2", Title: "Courtyard"},
		},
		Sessions: []models.Session{
			{ID: "s1", Title: "Before School", StartTime: start, EndTime: start.Add(30 * time.Minute)},
			{ID: "s2", Title: "Recess", StartTime: start.Add(3 * time.Hour), EndTime: start.Add(4 * time.Hour)},
		},
		TableShape: [][]models.TemplateCell{
			{{}, {IsBlocked: true}},
			{{List: []grid.Entry{{StaffID: "u1", InstanceID: "pre"}}}, {}},
			{{}, {}},
			{{IsBlocked: true, List: []grid.Entry{{StaffID: "u2"}}}, {}},
		},
	}
}

func TestPool_FollowsRosterAndSkipsMisses(t *testing.T) {
	p := NewWithIDs(counter())

	pool := p.Pool(template(), directory())

	require.Len(t, pool, 3)
	assert.Equal(t, "u3", pool[0].StaffID)
	assert.Equal(t, "u1", pool[1].StaffID)
	assert.Equal(t, "u2", pool[2].StaffID)
	assert.Equal(t, "Alexander Rydin", pool[0].DisplayName)
	assert.Equal(t, "https://a/1.jpg", pool[1].AvatarURL)
	assert.Equal(t, "5B", pool[2].ClassLabel)
	assert.Equal(t, []string{"id-1", "id-2", "id-3"}, []string{pool[0].InstanceID, pool[1].InstanceID, pool[2].InstanceID})
}

func TestPool_EmptyDirectory(t *testing.T) {
	pool := New().Pool(template(), nil)
	assert.Empty(t, pool)
}

func TestGrid_MirrorsTableShape(t *testing.T) {
	tpl := template()
	g := Grid(tpl)

	assert.Equal(t, 4, g.NumRows())
	for r := 0; r < 4; r++ {
		assert.Equal(t, 2, g.NumColumns(r))
	}

	pre, err := g.Cell(1, 0)
	require.NoError(t, err)
	require.Len(t, pre.Entries, 1)
	assert.Equal(t, "pre", pre.Entries[0].InstanceID)

	blocked, err := g.Cell(3, 0)
	require.NoError(t, err)
	assert.True(t, blocked.IsBlocked)
	assert.Empty(t, blocked.Entries)

	tpl.TableShape[1][0].List[0].StaffID = "changed"
	again, _ := g.Cell(1, 0)
	assert.Equal(t, "u1", again.Entries[0].StaffID, "grid does not alias the template")
}

func TestLayoutFor(t *testing.T) {
	l := LayoutFor(template())

	assert.Equal(t, []string{"8:15 AM - 8:45 AM", "11:15 AM - 12:15 PM"}, l.Columns)
	assert.Equal(t, []RowHeader{
		{Day: "Monday", Area: "CPG"},
		{Day: "Monday", Area: "Courtyard"},
		{Day: "Tuesday", Area: "CPG"},
		{Day: "Tuesday", Area: "Courtyard"},
	}, l.Rows)

	tpl := template()
	tpl.SessionDisplayType = models.SessionDisplayTitle
	tpl.AreaDisplayType = models.AreaDisplayTitle
	l = LayoutFor(tpl)
	assert.Equal(t, []string{"Before School", "Recess"}, l.Columns)
	assert.Equal(t, "Car Park Gate", l.Rows[0].Area)
}

func TestProject(t *testing.T) {
	proj := NewWithIDs(counter()).Project(template(), directory())

	assert.Equal(t, 4, proj.Grid.NumRows())
	assert.Len(t, proj.Pool, 3)
	assert.Len(t, proj.Layout.Rows, 4)
}

func TestLabel(t *testing.T) {
	withClass := grid.Entry{DisplayName: "Daniel Lewis", ClassLabel: "5B"}
	noClass := grid.Entry{DisplayName: "Olgica Krsteva"}

	assert.Equal(t, "5B", Label(withClass, models.StaffDisplayClass))
	assert.Equal(t, "Olgica Krsteva", Label(noClass, models.StaffDisplayClass))
	assert.Equal(t, "Daniel Lewis", Label(withClass, models.StaffDisplayName))
}
