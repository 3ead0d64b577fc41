package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"contractbuilder/internal/config"
	"contractbuilder/internal/model"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewConnection opens the PostgreSQL pool described by cfg and migrates the schema when enabled.
func NewConnection(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := Open(postgres.Open(cfg.DSN()), cfg)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// Open wraps gorm.Open with the pool and logger settings shared by every dialect.
func Open(dialector gorm.Dialector, cfg config.DatabaseConfig) (*gorm.DB, error) {
	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	}

	return db, nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.ContractTemplate{},
		&model.Contract{},
		&model.ContractVersion{},
		&model.AuditLog{},
		&model.AppSettings{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate models: %w", err)
	}
	return nil
}

// Seed provisions the settings row and the first administrator. Both steps are idempotent.
func Seed(ctx context.Context, db *gorm.DB, cfg config.SeedConfig) error {
	settings := model.DefaultSettings()
	if cfg.CompanyName != "" {
		settings.CompanyName = cfg.CompanyName
	}
	if err := db.WithContext(ctx).Where(model.AppSettings{ID: model.SettingsID}).
		FirstOrCreate(&settings).Error; err != nil {
		return fmt.Errorf("failed to seed settings: %w", err)
	}

	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		slog.Warn("admin seed skipped, seed.admin_email or seed.admin_password not set")
		return nil
	}

	var existing model.User
	err := db.WithContext(ctx).Where("email = ?", cfg.AdminEmail).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up admin: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := model.User{
		Email:       cfg.AdminEmail,
		Password:    string(hashed),
		Name:        cfg.AdminName,
		Role:        model.RoleAdmin,
		Status:      model.UserStatusActive,
		CompanyName: settings.CompanyName,
	}
	if err := db.WithContext(ctx).Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	slog.Info("default admin created", "email", admin.Email)
	return nil
}
