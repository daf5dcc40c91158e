package models

import (
	"time"

	"github.com/arnavshah/schedule-board-api/pkg/grid"
)

// AllocationType controls whether a cell may hold more than one staff entry
type AllocationType string

const (
	AllocationSingle   AllocationType = "single"
	AllocationMultiple AllocationType = "multiple"
)

// AreaDisplayType selects the label used for area row headers
type AreaDisplayType string

const (
	AreaDisplayTitle         AreaDisplayType = "title"
	AreaDisplayAlternateName AreaDisplayType = "alternateName"
)

// SessionDisplayType selects the label used for session column headers
type SessionDisplayType string

const (
	SessionDisplayTitle SessionDisplayType = "title"
	SessionDisplayTime  SessionDisplayType = "time"
)

// StaffDisplayType selects the label used for placed staff
type StaffDisplayType string

const (
	StaffDisplayName  StaffDisplayType = "name"
	StaffDisplayClass StaffDisplayType = "class"
)

// Area is a physical duty area, one row group per day
type Area struct {
	ID            string `json:"_id"`
	Title         string `json:"title"`
	AlternateName string `json:"alternateName,omitempty"`
}

// Day is a weekday row group
type Day struct {
	ID    string `json:"_id"`
	Title string `json:"title"`
}

// Session is a time slot shown as a grid column
type Session struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

// TemplateCell is one cell of a template's table shape
type TemplateCell struct {
	IsBlocked bool         `json:"isBlocked"`
	List      []grid.Entry `json:"list"`
}

// Template is a reusable grid definition from which schedules are projected
type Template struct {
	ID                 string             `json:"_id"`
	Title              string             `json:"title"`
	TableShape         [][]TemplateCell   `json:"tableShape"`
	AllocationType     AllocationType     `json:"allocationType"`
	StaffIDs           []string           `json:"staffIds"`
	AreaDisplayType    AreaDisplayType    `json:"areaDisplayType"`
	SessionDisplayType SessionDisplayType `json:"sessionDisplayType"`
	StaffDisplayType   StaffDisplayType   `json:"staffDisplayType"`
	Areas              []Area             `json:"areas"`
	Days               []Day              `json:"days"`
	Sessions           []Session          `json:"sessions"`
}

// Name is a person's name as stored in the user directory
type Name struct {
	First string `json:"first"`
	Last  string `json:"last"`
}

// Full returns "first last".
func (n Name) Full() string {
	switch {
	case n.First == "":
		return n.Last
	case n.Last == "":
		return n.First
	}
	return n.First + " " + n.Last
}

// User is a staff member in the user directory
type User struct {
	ID        string `json:"_id"`
	Name      Name   `json:"name"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Class     string `json:"class,omitempty"`
}

// Schedule is a named board projected from a template, holding the current
// grid assignment
type Schedule struct {
	ID            string     `json:"_id"`
	Title         string     `json:"title"`
	AlternateName string     `json:"alternateName,omitempty"`
	TemplateID    string     `json:"templateId"`
	StartDate     *time.Time `json:"startDate,omitempty"`
	EndDate       *time.Time `json:"endDate,omitempty"`
	Grid          grid.Grid  `json:"grid"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}
