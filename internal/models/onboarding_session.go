package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionCancelled  SessionStatus = "cancelled"
	SessionExpired    SessionStatus = "expired"
)

// StepLanguageSelection is the first step of the candidate flow.
const StepLanguageSelection = "language_selection"

// StepCompleted marks a finished flow.
const StepCompleted = "completed"

type OnboardingSession struct {
	ID    uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Token string    `gorm:"type:varchar(12);uniqueIndex;not null" json:"token"`

	// Nullable: walk-in candidates carry identity inline until an employee
	// record exists.
	EmployeeID *uuid.UUID `gorm:"type:uuid;index" json:"employee_id"`

	FirstName        string     `gorm:"type:varchar(80)" json:"first_name"`
	LastName         string     `gorm:"type:varchar(80)" json:"last_name"`
	Email            string     `gorm:"type:varchar(150)" json:"email"`
	OrganizationID   *uuid.UUID `gorm:"type:uuid;index" json:"organization_id"`
	OrganizationName string     `gorm:"type:varchar(150)" json:"organization_name"`

	LanguagePreference string `gorm:"type:varchar(5);default:'en'" json:"language_preference"` // en | es

	CurrentStep string         `gorm:"type:varchar(60)" json:"current_step"`
	FormData    datatypes.JSON `json:"form_data"`

	Status SessionStatus `gorm:"type:varchar(20);not null;default:'in_progress';index" json:"status"`

	ExpiresAt   time.Time  `gorm:"not null" json:"expires_at"`
	CompletedAt *time.Time `json:"completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Employee *Employee `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
}

// IsLive reports whether the session is accepting progress updates.
func (s *OnboardingSession) IsLive(now time.Time) bool {
	return s.Status == SessionInProgress && s.ExpiresAt.After(now)
}

// IsTerminal reports whether the session reached a final state.
func (s *OnboardingSession) IsTerminal() bool {
	return s.Status == SessionCompleted || s.Status == SessionCancelled
}
