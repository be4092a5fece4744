package models

import (
	"time"

	"github.com/google/uuid"
)

type JobPostingStatus string

const (
	JobPostingOpen   JobPostingStatus = "open"
	JobPostingClosed JobPostingStatus = "closed"
)

type JobPosting struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index" json:"organization_id"`

	Title        string `gorm:"type:varchar(150);not null" json:"title"`
	Department   string `gorm:"type:varchar(120)" json:"department"`
	Description  string `gorm:"type:text" json:"description"`
	Requirements string `gorm:"type:text" json:"requirements"`

	Status JobPostingStatus `gorm:"type:varchar(10);not null;default:'open';index" json:"status"`

	CreatedBy uuid.UUID `gorm:"type:uuid" json:"created_by"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
}

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

type JobApplication struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	JobPostingID uuid.UUID `gorm:"type:uuid;not null;index" json:"job_posting_id"`

	FirstName string `gorm:"type:varchar(80);not null" json:"first_name"`
	LastName  string `gorm:"type:varchar(80);not null" json:"last_name"`
	Email     string `gorm:"type:varchar(150);not null" json:"email"`
	Phone     string `gorm:"type:varchar(30)" json:"phone"`
	ResumeURL string `gorm:"type:text" json:"resume_url"`

	Status     ApplicationStatus `gorm:"type:varchar(10);not null;default:'pending';index" json:"status"`
	ReviewedBy *uuid.UUID        `gorm:"type:uuid" json:"reviewed_by"`
	ReviewedAt *time.Time        `json:"reviewed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	JobPosting *JobPosting `gorm:"foreignKey:JobPostingID" json:"job_posting,omitempty"`
}
