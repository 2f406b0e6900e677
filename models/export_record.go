package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ExportRecord tracks an archived bitácora spreadsheet.
type ExportRecord struct {
	ID        string    `gorm:"type:varchar(36);primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	UserID    string `gorm:"type:varchar(36);index" json:"user_id"`
	UserEmail string `json:"user_email"`

	CompanyID string `gorm:"type:varchar(64)" json:"company_id"`
	ZoneID    string `gorm:"type:varchar(64);index" json:"zone_id"`
	DateFrom  string `gorm:"type:varchar(10)" json:"date_from"`
	DateTo    string `gorm:"type:varchar(10)" json:"date_to"`

	FileName   string `gorm:"not null" json:"file_name"`
	StorageKey string `gorm:"not null" json:"-"`
	FileSize   int64  `json:"file_size"`
	SheetCount int    `json:"sheet_count"`
	RowCount   int    `json:"row_count"`
}

// BeforeCreate generates UUID
func (e *ExportRecord) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (ExportRecord) TableName() string {
	return "export_records"
}
