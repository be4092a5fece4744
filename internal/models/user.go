package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleHRAdmin  Role = "hr_admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

type Organization struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name     string    `gorm:"type:varchar(150);not null" json:"name"`
	Slug     string    `gorm:"type:varchar(80);uniqueIndex" json:"slug"`
	Address  string    `gorm:"type:text" json:"address"`
	Timezone string    `gorm:"type:varchar(60);default:'America/New_York'" json:"timezone"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type User struct {
	ID    uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email string    `gorm:"uniqueIndex;not null" json:"email"`

	Password string `gorm:"not null" json:"-"`
	Role     Role   `gorm:"type:varchar(20);not null;index" json:"role"`

	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index" json:"organization_id"`

	FirstName string `gorm:"type:varchar(80)" json:"first_name"`
	LastName  string `gorm:"type:varchar(80)" json:"last_name"`

	LanguagePreference string `gorm:"type:varchar(5);default:'en'" json:"language_preference"` // en | es
	IsActive           bool   `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	Employee     *Employee     `gorm:"foreignKey:UserID;references:ID" json:"employee,omitempty"`
}
