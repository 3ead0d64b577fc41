package repository

import (
	"context"

	"contractbuilder/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingsRepository reads and writes the single application settings row.
type SettingsRepository interface {
	Get(ctx context.Context) (*model.AppSettings, error)
	Save(ctx context.Context, settings *model.AppSettings) error
}

type settingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

// Get returns the settings row, creating it with defaults on first access.
func (r *settingsRepository) Get(ctx context.Context) (*model.AppSettings, error) {
	settings := model.DefaultSettings()
	if err := GetDB(ctx, r.db).
		Where(model.AppSettings{ID: model.SettingsID}).
		FirstOrCreate(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

// Save upserts the row identified by model.SettingsID.
func (r *settingsRepository) Save(ctx context.Context, settings *model.AppSettings) error {
	settings.ID = model.SettingsID
	return GetDB(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(settings).Error
}
