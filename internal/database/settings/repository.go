// Package settings provides database operations for application settings.
//
// # Usage
//
//	repo := settings.NewRepository(db)
//	value, ok, err := repo.Get(ctx, entities.SettingKeyReadingGoal)
package settings

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mrlokans/readtrack/internal/entities"
)

// Repository handles all settings database operations.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get retrieves a setting value by key. ok is false when the key is unset.
func (r *Repository) Get(ctx context.Context, key string) (value string, ok bool, err error) {
	var setting entities.Setting
	err = r.db.WithContext(ctx).Where("key = ?", key).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return setting.Value, true, nil
}

// Set creates or updates a setting.
func (r *Repository) Set(ctx context.Context, key, value string) error {
	db := r.db.WithContext(ctx)

	var setting entities.Setting
	result := db.Where("key = ?", key).First(&setting)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		setting = entities.Setting{
			Key:   key,
			Value: value,
		}
		return db.Create(&setting).Error
	} else if result.Error != nil {
		return result.Error
	}

	setting.Value = value
	return db.Save(&setting).Error
}

// Delete removes a setting by key.
func (r *Repository) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Where("key = ?", key).Delete(&entities.Setting{}).Error
}
