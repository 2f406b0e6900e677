package services

import (
	"encoding/json"
	"testing"
	"time"

	"rov_inventory_go/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupAuditTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	db.AutoMigrate(&models.AuditLog{})
	return db
}

func TestLogAuditEvent(t *testing.T) {
	db := setupAuditTestDB()
	ctx := AuditContextFor(&Profile{UserID: "u1", Email: "ana@example.com", Role: RoleCentro, CenterName: "Calbuco"}, "10.0.0.1", "TestAgent")

	LogAuditEvent(db, ctx, models.AuditActionAssemble, "Equipo", "e1", "EQ-01", "Ensamblado ROV-12", map[string]string{"componente_id": "k1"})

	var entry models.AuditLog
	assert.Eventually(t, func() bool {
		return db.First(&entry, "resource_id = ?", "e1").Error == nil
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, "u1", *entry.UserID)
	assert.Equal(t, "centro", entry.UserRole)
	assert.Equal(t, "Calbuco", entry.CenterName)
	assert.Equal(t, models.AuditActionAssemble, entry.Action)

	var details map[string]string
	require.NoError(t, json.Unmarshal([]byte(entry.Details), &details))
	assert.Equal(t, "k1", details["componente_id"])
}

func TestAuditLogIsImmutable(t *testing.T) {
	db := setupAuditTestDB()
	require.NoError(t, recordAuditEvent(db, AuditContext{}, models.AuditActionCreate, "Empresa", "x", "", "", nil))

	var entry models.AuditLog
	require.NoError(t, db.First(&entry).Error)
	assert.Equal(t, "unknown", entry.UserRole)
	assert.Nil(t, entry.UserID)

	assert.Error(t, db.Model(&entry).Update("description", "changed").Error)
	assert.Error(t, db.Delete(&entry).Error)
}

func TestLogSecurityEvent(t *testing.T) {
	db := setupAuditTestDB()

	LogSecurityEvent(db, "LOGIN_FAILED", AuditContext{UserEmail: "ana@example.com"}, "Invalid password")

	var entry models.AuditLog
	assert.Eventually(t, func() bool {
		return db.Where("action = ?", "SECURITY").First(&entry).Error == nil
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, "SECURITY_EVENT", entry.ResourceType)
	assert.Equal(t, "LOGIN_FAILED", entry.ResourceID)
	assert.Equal(t, "Invalid password", entry.Description)
}

func TestGetResourceAuditHistory(t *testing.T) {
	db := setupAuditTestDB()

	db.Create(&models.AuditLog{UserEmail: "a", UserRole: "admin", ResourceType: "Equipo", ResourceID: "e1", Action: models.AuditActionCreate, CreatedAt: time.Now().Add(-2 * time.Hour)})
	db.Create(&models.AuditLog{UserEmail: "a", UserRole: "admin", ResourceType: "Equipo", ResourceID: "e1", Action: models.AuditActionAssemble, CreatedAt: time.Now().Add(-1 * time.Hour)})
	db.Create(&models.AuditLog{UserEmail: "a", UserRole: "admin", ResourceType: "Componente", ResourceID: "k1", Action: models.AuditActionFault})

	logs, err := GetResourceAuditHistory(db, "Equipo", "e1", 0)
	assert.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, models.AuditActionAssemble, logs[0].Action)

	logs, err = GetResourceAuditHistory(db, "Equipo", "e1", 1)
	assert.NoError(t, err)
	assert.Len(t, logs, 1)
}
