package model

import (
	"time"

	"github.com/google/uuid"
)

// SettingsID is the primary key of the only AppSettings row.
const SettingsID uint = 1

// SecretMask replaces stored secrets in read models.
const SecretMask = "********"

// AppSettings holds company branding and integration configuration.
type AppSettings struct {
	ID             uint       `gorm:"primaryKey;autoIncrement:false" json:"-"`
	CompanyName    string     `gorm:"type:varchar(255)" json:"company_name"`
	CompanyAddress string     `gorm:"type:text" json:"company_address"`
	CompanyPhone   string     `gorm:"type:varchar(50)" json:"company_phone"`
	CompanyEmail   string     `gorm:"type:varchar(255)" json:"company_email"`
	CompanyWebsite string     `gorm:"type:varchar(255)" json:"company_website"`
	LogoURL        string     `gorm:"type:varchar(500)" json:"logo_url"`
	SMTPHost       string     `gorm:"column:smtp_host;type:varchar(255)" json:"smtp_host"`
	SMTPPort       int        `gorm:"column:smtp_port" json:"smtp_port"`
	SMTPUser       string     `gorm:"column:smtp_user;type:varchar(255)" json:"smtp_user"`
	SMTPPassword   string     `gorm:"column:smtp_password;type:varchar(255)" json:"smtp_password"`
	SMTPSecure     bool       `gorm:"column:smtp_secure" json:"smtp_secure"`
	SMTPFromName   string     `gorm:"column:smtp_from_name;type:varchar(255)" json:"smtp_from_name"`
	SMTPFromEmail  string     `gorm:"column:smtp_from_email;type:varchar(255)" json:"smtp_from_email"`
	AIEnabled      bool       `gorm:"column:ai_enabled" json:"ai_enabled"`
	GeminiAPIKey   string     `gorm:"column:gemini_api_key;type:varchar(255)" json:"gemini_api_key"`
	GeminiModel    string     `gorm:"column:gemini_model;type:varchar(100)" json:"gemini_model"`
	UpdatedBy      *uuid.UUID `gorm:"type:uuid" json:"updated_by"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (AppSettings) TableName() string {
	return "app_settings"
}

// DefaultSettings returns the values used before an administrator saves anything.
func DefaultSettings() AppSettings {
	return AppSettings{
		ID:             SettingsID,
		CompanyName:    "AHMED ESSA CONSTRUCTION & TRADING (AEMCO)",
		CompanyAddress: "6619, King Fahd Road, Dammam, 32243, Saudi Arabia",
		CompanyPhone:   "+966 50 911 9859",
		CompanyEmail:   "ahmed.Wasim@ahmed-essa.com",
		CompanyWebsite: "www.ahmed-essa.com",
		SMTPPort:       587,
		SMTPSecure:     true,
		SMTPFromName:   "AEMCO Contract Builder",
		SMTPFromEmail:  "noreply@ahmed-essa.com",
		GeminiModel:    "gemini-1.5-flash",
	}
}
