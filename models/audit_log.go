package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditAction represents the type of operation performed
type AuditAction string

const (
	AuditActionCreate       AuditAction = "CREATE"
	AuditActionUpdate       AuditAction = "UPDATE"
	AuditActionLogin        AuditAction = "LOGIN"
	AuditActionLogout       AuditAction = "LOGOUT"
	AuditActionAssemble     AuditAction = "ASSEMBLE"
	AuditActionDisassemble  AuditAction = "DISASSEMBLE"
	AuditActionDecommission AuditAction = "DECOMMISSION"
	AuditActionFault        AuditAction = "FAULT"
	AuditActionMove         AuditAction = "MOVE"
	AuditActionWorkshop     AuditAction = "WORKSHOP"
	AuditActionExport       AuditAction = "EXPORT"
	AuditActionDownload     AuditAction = "DOWNLOAD"
	AuditActionSecurity     AuditAction = "SECURITY"
)

// AuditLog is an immutable local record of a command issued through this app.
// The backend keeps its own history; this one answers "who clicked what".
type AuditLog struct {
	ID        string    `gorm:"type:varchar(36);primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index:idx_audit_created_at" json:"created_at"`

	UserID     *string `gorm:"type:varchar(36);index:idx_audit_user" json:"user_id,omitempty"`
	UserEmail  string  `gorm:"not null" json:"user_email"`
	UserRole   string  `gorm:"not null" json:"user_role"`
	CenterName string  `json:"center_name,omitempty"`

	ResourceType string `gorm:"not null;index:idx_audit_resource" json:"resource_type"` // e.g. "Componente", "Equipo"
	ResourceID   string `gorm:"type:varchar(64);not null;index:idx_audit_resource" json:"resource_id"`
	ResourceName string `json:"resource_name,omitempty"`

	Action      AuditAction `gorm:"not null;index:idx_audit_action" json:"action"`
	Description string      `gorm:"type:text" json:"description,omitempty"`
	Details     string      `gorm:"type:text" json:"details,omitempty"` // JSON encoded parameters

	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// BeforeCreate generates UUID
func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// BeforeUpdate prevents modification of audit logs (immutability)
func (a *AuditLog) BeforeUpdate(tx *gorm.DB) error {
	return gorm.ErrRecordNotFound
}

// BeforeDelete prevents deletion of audit logs (immutability)
func (a *AuditLog) BeforeDelete(tx *gorm.DB) error {
	return gorm.ErrRecordNotFound
}

// TableName specifies the table name
func (AuditLog) TableName() string {
	return "audit_logs"
}
