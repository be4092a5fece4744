package models

import (
	"time"

	"github.com/google/uuid"
)

type Schedule struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	EmployeeID     uuid.UUID `gorm:"type:uuid;not null;index" json:"employee_id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index" json:"organization_id"`

	ShiftDate time.Time `gorm:"not null;index" json:"shift_date"`
	StartTime string    `gorm:"type:varchar(5);not null" json:"start_time"` // HH:MM
	EndTime   string    `gorm:"type:varchar(5);not null" json:"end_time"`   // HH:MM

	Position string `gorm:"type:varchar(120)" json:"position"`
	Notes    string `gorm:"type:text" json:"notes"`

	CreatedBy uuid.UUID `gorm:"type:uuid" json:"created_by"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Employee *Employee `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
}
