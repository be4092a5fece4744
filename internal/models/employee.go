package models

import (
	"time"

	"github.com/google/uuid"
)

type EmploymentStatus string

const (
	EmploymentOnboarding EmploymentStatus = "onboarding"
	EmploymentActive     EmploymentStatus = "active"
	EmploymentTerminated EmploymentStatus = "terminated"
)

type Employee struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`

	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index" json:"organization_id"`

	EmployeeNumber string `gorm:"type:varchar(30);uniqueIndex" json:"employee_number"`
	Position       string `gorm:"type:varchar(120)" json:"position"`
	Department     string `gorm:"type:varchar(120)" json:"department"`
	Phone          string `gorm:"type:varchar(30)" json:"phone"`
	Address        string `gorm:"type:text" json:"address"`

	HireDate       *time.Time       `json:"hire_date"`
	EmploymentType string           `gorm:"type:varchar(30)" json:"employment_type"` // full_time | part_time | contract
	Status         EmploymentStatus `gorm:"type:varchar(20);not null;default:'onboarding';index" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User         *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
}
