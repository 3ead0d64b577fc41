// Package testutil provides an in-memory database and fixtures for package tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"contractbuilder/internal/config"
	"contractbuilder/internal/database"
	"contractbuilder/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Password is the plain-text password of every fixture user.
const Password = "password123"

var seq atomic.Int64

// NewDB opens a private in-memory SQLite database with the full schema migrated.
// The pool is pinned to one connection so the database lives as long as the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(sqlite.Open("file::memory:?_foreign_keys=on"), config.DatabaseConfig{MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// CreateUser inserts a user with a unique email and the fixture password.
func CreateUser(t *testing.T, db *gorm.DB, role, status string) *model.User {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	n := seq.Add(1)
	user := &model.User{
		Email:       fmt.Sprintf("%s%d@example.com", role, n),
		Password:    string(hashed),
		Name:        fmt.Sprintf("%s %d", role, n),
		Role:        role,
		Status:      status,
		CompanyName: fmt.Sprintf("Company %d", n),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func CreateAdmin(t *testing.T, db *gorm.DB) *model.User {
	t.Helper()
	return CreateUser(t, db, model.RoleAdmin, model.UserStatusActive)
}

func CreateProvider(t *testing.T, db *gorm.DB) *model.User {
	t.Helper()
	return CreateUser(t, db, model.RoleProvider, model.UserStatusActive)
}

func CreateTemplate(t *testing.T, db *gorm.DB, content string) *model.ContractTemplate {
	t.Helper()

	tmpl := &model.ContractTemplate{
		Name:     fmt.Sprintf("Template %d", seq.Add(1)),
		Category: "services",
		Content:  content,
		Status:   model.TemplateStatusActive,
	}
	if err := db.Create(tmpl).Error; err != nil {
		t.Fatalf("create template: %v", err)
	}
	return tmpl
}

// CreateContract inserts a contract in the given status together with its first version.
func CreateContract(t *testing.T, db *gorm.DB, providerID uuid.UUID, status string, amount int64) *model.Contract {
	t.Helper()

	n := seq.Add(1)
	value := decimal.NewFromInt(amount)
	contract := &model.Contract{
		ContractNumber: fmt.Sprintf("AEMCO-2025-%04d", n%10000),
		ProviderID:     providerID,
		Title:          fmt.Sprintf("Contract %d", n),
		Content:        "Scope of work",
		Amount:         &value,
		Currency:       model.DefaultCurrency,
		Status:         status,
	}
	if status == model.ContractStatusSigned {
		contract.SignedByProvider = true
	}
	if err := db.Create(contract).Error; err != nil {
		t.Fatalf("create contract: %v", err)
	}

	version := &model.ContractVersion{
		ContractID:    contract.ID,
		VersionNumber: 1,
		Content:       contract.Content,
		ChangeNotes:   model.InitialVersionNote,
	}
	if err := db.Create(version).Error; err != nil {
		t.Fatalf("create version: %v", err)
	}
	return contract
}
