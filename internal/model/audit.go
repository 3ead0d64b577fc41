package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ActionLogin          = "LOGIN"
	ActionLogout         = "LOGOUT"
	ActionRegister       = "REGISTER"
	ActionChangePassword = "CHANGE_PASSWORD"

	ActionCreateContract = "CREATE_CONTRACT"
	ActionUpdateContract = "UPDATE_CONTRACT"
	ActionSendContract   = "SEND_CONTRACT"
	ActionDeleteContract = "DELETE_CONTRACT"
	ActionSignContract   = "SIGN_CONTRACT"
	ActionRejectContract = "REJECT_CONTRACT"

	ActionCreateTemplate = "CREATE_TEMPLATE"
	ActionUpdateTemplate = "UPDATE_TEMPLATE"
	ActionDeleteTemplate = "DELETE_TEMPLATE"

	ActionCreateUser    = "CREATE_USER"
	ActionUpdateUser    = "UPDATE_USER"
	ActionApproveUser   = "APPROVE_USER"
	ActionResetPassword = "RESET_PASSWORD"
	ActionDeleteUser    = "DELETE_USER"

	ActionUpdateSettings = "UPDATE_SETTINGS"
	ActionUploadLogo     = "UPLOAD_LOGO"
	ActionUpdateProfile  = "UPDATE_PROFILE"
	ActionUploadAvatar   = "UPLOAD_AVATAR"
	ActionDeleteAvatar   = "DELETE_AVATAR"
)

const (
	EntityContract = "contract"
	EntityTemplate = "template"
	EntityUser     = "user"
	EntitySettings = "settings"
)

// AuditLog is an append-only record of who did what to which entity.
type AuditLog struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID     `gorm:"type:uuid;index" json:"user_id"`
	User       *User          `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"user,omitempty"`
	Action     string         `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityType string         `gorm:"type:varchar(50);index" json:"entity_type"`
	EntityID   string         `gorm:"type:varchar(64);index" json:"entity_id"`
	Details    datatypes.JSON `json:"details"`
	IPAddress  string         `gorm:"type:varchar(64)" json:"ip_address"`
	UserAgent  string         `gorm:"type:varchar(500)" json:"user_agent"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
