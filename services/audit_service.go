package services

import (
	"encoding/json"

	"rov_inventory_go/logger"
	"rov_inventory_go/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AuditContext identifies who issued a command.
type AuditContext struct {
	UserID     string
	UserEmail  string
	UserRole   string
	CenterName string
	IPAddress  string
	UserAgent  string
}

// AuditContextFor builds an AuditContext from a resolved profile.
func AuditContextFor(p *Profile, ipAddress, userAgent string) AuditContext {
	ctx := AuditContext{IPAddress: ipAddress, UserAgent: userAgent}
	if p != nil {
		ctx.UserID = p.UserID
		ctx.UserEmail = p.Email
		ctx.UserRole = p.Role
		ctx.CenterName = p.CenterName
	}
	return ctx
}

// LogAuditEvent creates a new audit log entry asynchronously
func LogAuditEvent(
	db *gorm.DB,
	ctx AuditContext,
	action models.AuditAction,
	resourceType string,
	resourceID string,
	resourceName string,
	description string,
	details interface{},
) {
	go func() {
		if err := recordAuditEvent(db, ctx, action, resourceType, resourceID, resourceName, description, details); err != nil {
			logger.Warn("[AUDIT] Failed to create audit log", zap.Error(err))
		}
	}()
}

func recordAuditEvent(
	db *gorm.DB,
	ctx AuditContext,
	action models.AuditAction,
	resourceType, resourceID, resourceName, description string,
	details interface{},
) error {
	var detailsJSON string
	if details != nil {
		if bytes, err := json.Marshal(details); err == nil {
			detailsJSON = string(bytes)
		}
	}

	role := ctx.UserRole
	if role == "" {
		role = "unknown"
	}
	entry := models.AuditLog{
		UserID:       ptrIfNotEmpty(ctx.UserID),
		UserEmail:    ctx.UserEmail,
		UserRole:     role,
		CenterName:   ctx.CenterName,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		ResourceName: resourceName,
		Action:       action,
		Description:  description,
		Details:      detailsJSON,
		IPAddress:    ctx.IPAddress,
		UserAgent:    ctx.UserAgent,
	}
	return db.Create(&entry).Error
}

// ptrIfNotEmpty returns a pointer to the string if not empty, nil otherwise
func ptrIfNotEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// GetResourceAuditHistory retrieves the audit history for a specific resource
func GetResourceAuditHistory(db *gorm.DB, resourceType, resourceID string, limit int) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	q := db.Where("resource_type = ? AND resource_id = ?", resourceType, resourceID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&logs).Error
	return logs, err
}

// LogSecurityEvent writes a [SECURITY] log line and persists the event.
func LogSecurityEvent(db *gorm.DB, eventType string, ctx AuditContext, details string) {
	logger.Security(eventType,
		zap.String("user_id", ctx.UserID),
		zap.String("email", ctx.UserEmail),
		zap.String("ip", ctx.IPAddress),
		zap.String("details", details),
	)
	if db == nil {
		return
	}
	go func() {
		if err := recordAuditEvent(db, ctx, models.AuditActionSecurity, "SECURITY_EVENT", eventType, "", details, nil); err != nil {
			logger.Warn("[AUDIT] Failed to create security audit log", zap.Error(err))
		}
	}()
}
