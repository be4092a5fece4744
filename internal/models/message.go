package models

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SenderID   uuid.UUID `gorm:"type:uuid;not null;index" json:"sender_id"`
	ReceiverID uuid.UUID `gorm:"type:uuid;not null;index" json:"receiver_id"`

	Subject string `gorm:"type:varchar(200)" json:"subject"`
	Content string `gorm:"type:text;not null" json:"content"`

	IsRead bool       `gorm:"default:false" json:"is_read"`
	ReadAt *time.Time `json:"read_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Sender   *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Receiver *User `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`
}

type AnnouncementPriority string

const (
	PriorityLow    AnnouncementPriority = "low"
	PriorityNormal AnnouncementPriority = "normal"
	PriorityUrgent AnnouncementPriority = "urgent"
)

type Announcement struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`

	// Null organization means a global announcement visible to every org.
	OrganizationID *uuid.UUID `gorm:"type:uuid;index" json:"organization_id"`

	Title    string               `gorm:"type:varchar(200);not null" json:"title"`
	Content  string               `gorm:"type:text;not null" json:"content"`
	Priority AnnouncementPriority `gorm:"type:varchar(10);default:'normal'" json:"priority"`

	IsActive  bool       `gorm:"default:true;index" json:"is_active"`
	ExpiresAt *time.Time `json:"expires_at"`

	CreatedBy uuid.UUID `gorm:"type:uuid" json:"created_by"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
