package database

import (
	"context"
	"testing"

	"contractbuilder/internal/config"
	"contractbuilder/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestOpen_ConfiguresPool(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectPing()

	db, err := Open(postgres.New(postgres.Config{Conn: sqlDB}), config.DatabaseConfig{
		MaxIdleConns:    5,
		MaxOpenConns:    20,
		ConnMaxIdleTime: 10,
		ConnMaxLifetime: 30,
	})
	require.NoError(t, err)

	underlying, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 20, underlying.Stats().MaxOpenConnections)
	assert.True(t, db.Config.TranslateError)
	assert.Equal(t, "UTC", db.Config.NowFunc().Location().String())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(sqlite.Open("file::memory:?_foreign_keys=on"), config.DatabaseConfig{MaxOpenConns: 1})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return db
}

func TestSeed_IsIdempotent(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	cfg := config.SeedConfig{
		AdminEmail:    "admin@ahmed-essa.com",
		AdminPassword: "Admin@123456",
		AdminName:     "System Administrator",
		CompanyName:   "AEMCO",
	}

	require.NoError(t, Seed(ctx, db, cfg))
	require.NoError(t, Seed(ctx, db, cfg))

	var admins []model.User
	require.NoError(t, db.Where("role = ?", model.RoleAdmin).Find(&admins).Error)
	require.Len(t, admins, 1)
	assert.Equal(t, model.UserStatusActive, admins[0].Status)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admins[0].Password), []byte("Admin@123456")))

	var count int64
	require.NoError(t, db.Model(&model.AppSettings{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var settings model.AppSettings
	require.NoError(t, db.First(&settings, model.SettingsID).Error)
	assert.Equal(t, "AEMCO", settings.CompanyName)
}

func TestSeed_SkipsAdminWithoutPassword(t *testing.T) {
	db := openSQLite(t)

	require.NoError(t, Seed(context.Background(), db, config.SeedConfig{AdminEmail: "admin@ahmed-essa.com"}))

	var count int64
	require.NoError(t, db.Model(&model.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	_, err := NewRedisClient(context.Background(), config.RedisConfig{Addrs: []string{"127.0.0.1:1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to redis")
}
