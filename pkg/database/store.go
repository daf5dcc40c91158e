package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arnavshah/schedule-board-api/pkg/grid"
	"github.com/arnavshah/schedule-board-api/pkg/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrTemplateInUse is returned when deleting a template that schedules still use.
	ErrTemplateInUse = errors.New("template is used by a schedule")
)

const usageDateLayout = "2006-01-02"

// Store wraps the gorm connection with typed queries.
type Store struct {
	db *gorm.DB
}

// NewStore creates a store on db.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// CreateTemplate inserts t, assigning an id when it has none.
func (s *Store) CreateTemplate(ctx context.Context, t models.Template) (models.Template, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	rec := templateRecord(t)
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return models.Template{}, fmt.Errorf("create template: %w", err)
	}
	return rec.toModel(), nil
}

// GetTemplate loads one template.
func (s *Store) GetTemplate(ctx context.Context, id string) (models.Template, error) {
	var rec TemplateRecord
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return models.Template{}, notFound(err)
	}
	return rec.toModel(), nil
}

// ListTemplates returns every template, oldest first.
func (s *Store) ListTemplates(ctx context.Context) ([]models.Template, error) {
	var recs []TemplateRecord
	if err := s.db.WithContext(ctx).Order("created_at asc, id asc").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]models.Template, len(recs))
	for i, r := range recs {
		out[i] = r.toModel()
	}
	return out, nil
}

// UpdateTemplate replaces every field of an existing template.
func (s *Store) UpdateTemplate(ctx context.Context, t models.Template) (models.Template, error) {
	rec := templateRecord(t)
	rec.UpdatedAt = time.Now()
	res := s.db.WithContext(ctx).Model(&TemplateRecord{}).
		Where("id = ?", t.ID).
		Select("*").Omit("id", "created_at").
		Updates(&rec)
	if res.Error != nil {
		return models.Template{}, fmt.Errorf("update template: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.Template{}, ErrNotFound
	}
	return s.GetTemplate(ctx, t.ID)
}

// DeleteTemplate removes a template no schedule refers to.
func (s *Store) DeleteTemplate(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inUse int64
		if err := tx.Model(&ScheduleRecord{}).Where("template_id = ?", id).Count(&inUse).Error; err != nil {
			return err
		}
		if inUse > 0 {
			return ErrTemplateInUse
		}
		res := tx.Where("id = ?", id).Delete(&TemplateRecord{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// CreateUser adds a staff member to the directory.
func (s *Store) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	rec := StaffUser{
		ID:        u.ID,
		FirstName: u.Name.First,
		LastName:  u.Name.Last,
		AvatarURL: u.AvatarURL,
		Class:     u.Class,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return rec.toModel(), nil
}

// ListUsers returns the whole directory in insertion order.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	var recs []StaffUser
	if err := s.db.WithContext(ctx).Order("created_at asc, id asc").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]models.User, len(recs))
	for i, r := range recs {
		out[i] = r.toModel()
	}
	return out, nil
}

// CreateSchedule inserts a schedule with its initial grid.
func (s *Store) CreateSchedule(ctx context.Context, sc models.Schedule) (models.Schedule, error) {
	if sc.ID == "" {
		sc.ID = uuid.NewString()
	}
	rec := ScheduleRecord{
		ID:            sc.ID,
		Title:         sc.Title,
		AlternateName: sc.AlternateName,
		TemplateID:    sc.TemplateID,
		StartDate:     sc.StartDate,
		EndDate:       sc.EndDate,
		Grid:          datatypes.NewJSONType(sc.Grid),
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return models.Schedule{}, fmt.Errorf("create schedule: %w", err)
	}
	return rec.toModel(), nil
}

// GetSchedule loads one schedule.
func (s *Store) GetSchedule(ctx context.Context, id string) (models.Schedule, error) {
	var rec ScheduleRecord
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return models.Schedule{}, notFound(err)
	}
	return rec.toModel(), nil
}

// ListSchedules returns every schedule, newest first.
func (s *Store) ListSchedules(ctx context.Context) ([]models.Schedule, error) {
	var recs []ScheduleRecord
	if err := s.db.WithContext(ctx).Order("created_at desc, id asc").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]models.Schedule, len(recs))
	for i, r := range recs {
		out[i] = r.toModel()
	}
	return out, nil
}

// UpdateScheduleDetails writes the descriptive fields and template of a schedule.
func (s *Store) UpdateScheduleDetails(ctx context.Context, sc models.Schedule) (models.Schedule, error) {
	res := s.db.WithContext(ctx).Model(&ScheduleRecord{}).
		Where("id = ?", sc.ID).
		Select("title", "alternate_name", "template_id", "start_date", "end_date", "updated_at").
		Updates(&ScheduleRecord{
			Title:         sc.Title,
			AlternateName: sc.AlternateName,
			TemplateID:    sc.TemplateID,
			StartDate:     sc.StartDate,
			EndDate:       sc.EndDate,
			UpdatedAt:     time.Now(),
		})
	if res.Error != nil {
		return models.Schedule{}, fmt.Errorf("update schedule: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.Schedule{}, ErrNotFound
	}
	return s.GetSchedule(ctx, sc.ID)
}

// SaveScheduleGrid stores the current grid assignment of a schedule.
func (s *Store) SaveScheduleGrid(ctx context.Context, id string, g grid.Grid) error {
	res := s.db.WithContext(ctx).Model(&ScheduleRecord{}).
		Where("id = ?", id).
		Select("grid", "updated_at").
		Updates(&ScheduleRecord{Grid: datatypes.NewJSONType(g), UpdatedAt: time.Now()})
	if res.Error != nil {
		return fmt.Errorf("save grid: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindOrCreateAPIKey returns the record for key, creating it on first use.
func (s *Store) FindOrCreateAPIKey(ctx context.Context, key, name string) (APIKey, error) {
	var apiKey APIKey
	err := s.db.WithContext(ctx).Where(APIKey{Key: key}).FirstOrCreate(&apiKey, APIKey{
		Key:        key,
		Name:       name,
		KeyPreview: Preview(key),
		RateLimit:  10000,
	}).Error
	if err != nil {
		return APIKey{}, err
	}

	now := time.Now()
	apiKey.LastUsed = &now
	s.db.WithContext(ctx).Model(&apiKey).Update("last_used", now)
	return apiKey, nil
}

// CreateAPIKey stores a newly issued key.
func (s *Store) CreateAPIKey(ctx context.Context, key, name string, rateLimit int) (APIKey, error) {
	apiKey := APIKey{Key: key, Name: name, KeyPreview: Preview(key), RateLimit: rateLimit}
	if err := s.db.WithContext(ctx).Create(&apiKey).Error; err != nil {
		return APIKey{}, err
	}
	return apiKey, nil
}

// ListAPIKeys returns all keys.
func (s *Store) ListAPIKeys(ctx context.Context) ([]APIKey, error) {
	var keys []APIKey
	err := s.db.WithContext(ctx).Order("id asc").Find(&keys).Error
	return keys, err
}

// DeleteAPIKey revokes a key.
func (s *Store) DeleteAPIKey(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&APIKey{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateKeyLimit changes the daily request limit of a key.
func (s *Store) UpdateKeyLimit(ctx context.Context, id uint, limit int) error {
	res := s.db.WithContext(ctx).Model(&APIKey{}).Where("id = ?", id).Update("rate_limit", limit)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Preview shortens a key for display.
func Preview(key string) string {
	if len(key) > 8 {
		return key[:3] + "..." + key[len(key)-4:]
	}
	return "****"
}

// CountMasterUsers returns the number of admin accounts.
func (s *Store) CountMasterUsers(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&MasterUser{}).Count(&count).Error
	return count, err
}

// CreateMasterUser adds an admin account.
func (s *Store) CreateMasterUser(ctx context.Context, username, passwordHash string) error {
	return s.db.WithContext(ctx).Create(&MasterUser{Username: username, PasswordHash: passwordHash}).Error
}

// FindMasterUser loads an admin account by username.
func (s *Store) FindMasterUser(ctx context.Context, username string) (MasterUser, error) {
	var user MasterUser
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return MasterUser{}, notFound(err)
	}
	return user, nil
}

// RecordUsage adds one request and its drag results to today's usage row
// using a single-query upsert (supported by both Postgres and SQLite)
func (s *Store) RecordUsage(ctx context.Context, keyID uint, applied, rejected int) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"request_count":  gorm.Expr("request_count + ?", 1),
			"applied_drags":  gorm.Expr("applied_drags + ?", applied),
			"rejected_drags": gorm.Expr("rejected_drags + ?", rejected),
		}),
	}).Create(&APIUsage{
		KeyID:         keyID,
		Date:          time.Now().Format(usageDateLayout),
		RequestCount:  1,
		AppliedDrags:  applied,
		RejectedDrags: rejected,
	}).Error
}

// RequestsToday returns how many requests keyID made today.
func (s *Store) RequestsToday(ctx context.Context, keyID uint) (int, error) {
	var usage APIUsage
	err := s.db.WithContext(ctx).
		Where("key_id = ? AND date = ?", keyID, time.Now().Format(usageDateLayout)).
		First(&usage).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	return usage.RequestCount, err
}

// UsageFor returns the latest usage rows of a key, newest first.
func (s *Store) UsageFor(ctx context.Context, keyID uint, limit int) ([]APIUsage, error) {
	var usage []APIUsage
	err := s.db.WithContext(ctx).Where("key_id = ?", keyID).Order("date desc").Limit(limit).Find(&usage).Error
	return usage, err
}

// PruneUsage deletes usage rows older than before.
func (s *Store) PruneUsage(ctx context.Context, before time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("date < ?", before.Format(usageDateLayout)).Delete(&APIUsage{})
	return res.RowsAffected, res.Error
}
