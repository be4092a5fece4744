package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type DocumentStatus string

const (
	DocumentPending  DocumentStatus = "pending"
	DocumentSigned   DocumentStatus = "signed"
	DocumentRejected DocumentStatus = "rejected"
)

type Document struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	EmployeeID     uuid.UUID `gorm:"type:uuid;not null;index" json:"employee_id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index" json:"organization_id"`

	DocumentType string `gorm:"type:varchar(60);not null" json:"document_type"` // i9, w4, handbook, policy, other
	Title        string `gorm:"type:varchar(150)" json:"title"`
	FileURL      string `gorm:"type:text" json:"file_url"`

	Status DocumentStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`

	// Signature payload captured from the signing UI (drawn strokes or typed
	// name), stored as-is.
	SignatureData datatypes.JSON `json:"signature_data"`
	SignedAt      *time.Time     `json:"signed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Employee *Employee `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
}
