package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleAdmin    = "admin"
	RoleProvider = "provider"
)

const (
	UserStatusPending  = "pending"
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User is either an administrator or an external service provider.
type User struct {
	ID                     uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email                  string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password               string     `gorm:"type:varchar(255);not null" json:"-"`
	Name                   string     `gorm:"type:varchar(255);not null" json:"name"`
	Role                   string     `gorm:"type:varchar(20);not null;default:'provider';index" json:"role"`
	Status                 string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CompanyName            string     `gorm:"type:varchar(255)" json:"company_name"`
	CompanyAddress         string     `gorm:"type:text" json:"company_address"`
	Phone                  string     `gorm:"type:varchar(50)" json:"phone"`
	Address                string     `gorm:"type:text" json:"address"`
	CommercialRegistration string     `gorm:"type:varchar(100)" json:"commercial_registration"`
	AvatarURL              *string    `gorm:"type:varchar(500)" json:"avatar_url"`
	LastLoginAt            *time.Time `json:"last_login_at"`
	CreatedAt              time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// IsActive reports whether the account may authenticate.
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

func IsValidRole(role string) bool {
	return role == RoleAdmin || role == RoleProvider
}

func IsValidUserStatus(status string) bool {
	switch status {
	case UserStatusPending, UserStatusActive, UserStatusInactive:
		return true
	}
	return false
}
