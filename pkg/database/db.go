package database

import (
	"fmt"
	"time"

	"github.com/arnavshah/schedule-board-api/pkg/grid"
	"github.com/arnavshah/schedule-board-api/pkg/models"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// APIKey represents the api_keys table
type APIKey struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Key        string     `gorm:"unique;not null" json:"-"`
	KeyPreview string     `json:"key_preview"`
	Name       string     `gorm:"not null" json:"name"`
	RateLimit  int        `gorm:"default:10000" json:"rate_limit"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsed   *time.Time `json:"last_used"`
}

// APIUsage represents the api_usage table
type APIUsage struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	KeyID         uint   `gorm:"uniqueIndex:idx_key_date;not null" json:"key_id"`
	Date          string `gorm:"uniqueIndex:idx_key_date;not null" json:"date"`
	RequestCount  int    `gorm:"default:0" json:"request_count"`
	AppliedDrags  int    `gorm:"default:0" json:"applied_drags"`
	RejectedDrags int    `gorm:"default:0" json:"rejected_drags"`
}

// MasterUser represents the master_users table
type MasterUser struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"unique;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// TemplateRecord represents the templates table
type TemplateRecord struct {
	ID                 string                                      `gorm:"primaryKey;size:36"`
	Title              string                                      `gorm:"not null"`
	TableShape         datatypes.JSONType[[][]models.TemplateCell] `gorm:"not null"`
	AllocationType     string                                      `gorm:"not null;default:single"`
	StaffIDs           datatypes.JSONType[[]string]                `gorm:"not null"`
	AreaDisplayType    string
	SessionDisplayType string
	StaffDisplayType   string
	Areas              datatypes.JSONType[[]models.Area]
	Days               datatypes.JSONType[[]models.Day]
	Sessions           datatypes.JSONType[[]models.Session]
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (TemplateRecord) TableName() string { return "templates" }

// StaffUser represents the staff_users table (the user directory)
type StaffUser struct {
	ID        string `gorm:"primaryKey;size:36"`
	FirstName string `gorm:"not null"`
	LastName  string
	AvatarURL string
	Class     string
	CreatedAt time.Time
}

// ScheduleRecord represents the schedules table
type ScheduleRecord struct {
	ID            string `gorm:"primaryKey;size:36"`
	Title         string `gorm:"not null"`
	AlternateName string
	TemplateID    string `gorm:"index;size:36;not null"`
	StartDate     *time.Time
	EndDate       *time.Time
	Grid          datatypes.JSONType[grid.Grid]
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (ScheduleRecord) TableName() string { return "schedules" }

// Open connects to Postgres when databaseURL is set and to the SQLite file at
// dataPath otherwise.
func Open(databaseURL, dataPath string) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

	var (
		db  *gorm.DB
		err error
	)
	if databaseURL != "" {
		cfg.PrepareStmt = false
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  databaseURL,
			PreferSimpleProtocol: true,
		}), cfg)
	} else {
		db, err = gorm.Open(sqlite.Open(dataPath), cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if databaseURL == "" {
		// sqlite takes one writer at a time
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&APIKey{},
		&APIUsage{},
		&MasterUser{},
		&TemplateRecord{},
		&StaffUser{},
		&ScheduleRecord{},
	)
}

func (r TemplateRecord) toModel() models.Template {
	return models.Template{
		ID:                 r.ID,
		Title:              r.Title,
		TableShape:         r.TableShape.Data(),
		AllocationType:     models.AllocationType(r.AllocationType),
		StaffIDs:           r.StaffIDs.Data(),
		AreaDisplayType:    models.AreaDisplayType(r.AreaDisplayType),
		SessionDisplayType: models.SessionDisplayType(r.SessionDisplayType),
		StaffDisplayType:   models.StaffDisplayType(r.StaffDisplayType),
		Areas:              r.Areas.Data(),
		Days:               r.Days.Data(),
		Sessions:           r.Sessions.Data(),
	}
}

func templateRecord(t models.Template) TemplateRecord {
	return TemplateRecord{
		ID:                 t.ID,
		Title:              t.Title,
		TableShape:         datatypes.NewJSONType(t.TableShape),
		AllocationType:     string(t.AllocationType),
		StaffIDs:           datatypes.NewJSONType(t.StaffIDs),
		AreaDisplayType:    string(t.AreaDisplayType),
		SessionDisplayType: string(t.SessionDisplayType),
		StaffDisplayType:   string(t.StaffDisplayType),
		Areas:              datatypes.NewJSONType(t.Areas),
		Days:               datatypes.NewJSONType(t.Days),
		Sessions:           datatypes.NewJSONType(t.Sessions),
	}
}

func (u StaffUser) toModel() models.User {
	return models.User{
		ID:        u.ID,
		Name:      models.Name{First: u.FirstName, Last: u.LastName},
		AvatarURL: u.AvatarURL,
		Class:     u.Class,
	}
}

func (r ScheduleRecord) toModel() models.Schedule {
	return models.Schedule{
		ID:            r.ID,
		Title:         r.Title,
		AlternateName: r.AlternateName,
		TemplateID:    r.TemplateID,
		StartDate:     r.StartDate,
		EndDate:       r.EndDate,
		Grid:          r.Grid.Data(),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}
