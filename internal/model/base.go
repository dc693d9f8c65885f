package model

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel handles the serial ID and standard audit trail columns
type BaseModel struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"` // Soft delete support

	// Audit user tracking (username of the actor)
	CreatedBy string `gorm:"type:varchar(100)" json:"createdBy,omitempty"`
	UpdatedBy string `gorm:"type:varchar(100)" json:"updatedBy,omitempty"`
	DeletedBy string `gorm:"type:varchar(100)" json:"-"`
}
