package onboarding

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gramv/onboardingsoftware/internal/models"
)

// ErrNotFound is returned by the repository on a lookup miss. The service maps
// it to the user-facing NOT_FOUND error.
var ErrNotFound = errors.New("record not found")

type SessionFilter struct {
	Status         models.SessionStatus
	EmployeeID     *uuid.UUID
	OrganizationID *uuid.UUID
	Page           int
	Limit          int
}

// Repository is the persistence contract of the lifecycle manager. The GORM
// implementation below is the production one; tests substitute an in-memory
// fake.
type Repository interface {
	FindEmployee(id uuid.UUID) (*models.Employee, error)
	FindSessionByID(id uuid.UUID) (*models.OnboardingSession, error)
	FindSessionByToken(token string) (*models.OnboardingSession, error)
	FindActiveSessionByEmployee(employeeID uuid.UUID, now time.Time) (*models.OnboardingSession, error)
	TokenExists(token string) (bool, error)
	CreateSession(s *models.OnboardingSession) error
	SaveSession(s *models.OnboardingSession) error
	ListSessions(f SessionFilter) ([]models.OnboardingSession, int64, error)
	ListSessionsByEmployee(employeeID uuid.UUID) ([]models.OnboardingSession, error)
	MarkExpiredSessions(now time.Time) (int64, error)
}

type GormRepository struct {
	DB *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{DB: db}
}

func (r *GormRepository) FindEmployee(id uuid.UUID) (*models.Employee, error) {
	var emp models.Employee
	err := r.DB.Preload("User").Preload("Organization").First(&emp, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

func (r *GormRepository) FindSessionByID(id uuid.UUID) (*models.OnboardingSession, error) {
	var sess models.OnboardingSession
	err := r.DB.First(&sess, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

func (r *GormRepository) FindSessionByToken(token string) (*models.OnboardingSession, error) {
	var sess models.OnboardingSession
	err := r.DB.First(&sess, "token = ?", token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

func (r *GormRepository) FindActiveSessionByEmployee(employeeID uuid.UUID, now time.Time) (*models.OnboardingSession, error) {
	var sess models.OnboardingSession
	err := r.DB.
		Where("employee_id = ? AND status = ? AND expires_at > ?", employeeID, models.SessionInProgress, now).
		First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

func (r *GormRepository) TokenExists(token string) (bool, error) {
	var count int64
	if err := r.DB.Model(&models.OnboardingSession{}).
		Where("token = ?", token).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepository) CreateSession(s *models.OnboardingSession) error {
	return r.DB.Create(s).Error
}

func (r *GormRepository) SaveSession(s *models.OnboardingSession) error {
	return r.DB.Save(s).Error
}

func (r *GormRepository) ListSessions(f SessionFilter) ([]models.OnboardingSession, int64, error) {
	q := r.DB.Model(&models.OnboardingSession{})

	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.EmployeeID != nil {
		q = q.Where("employee_id = ?", *f.EmployeeID)
	}
	if f.OrganizationID != nil {
		q = q.Where("organization_id = ?", *f.OrganizationID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	limit := f.Limit
	if limit < 1 {
		limit = 20
	}

	var sessions []models.OnboardingSession
	err := q.Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&sessions).Error
	if err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

func (r *GormRepository) ListSessionsByEmployee(employeeID uuid.UUID) ([]models.OnboardingSession, error) {
	var sessions []models.OnboardingSession
	err := r.DB.
		Where("employee_id = ?", employeeID).
		Order("created_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *GormRepository) MarkExpiredSessions(now time.Time) (int64, error) {
	res := r.DB.Model(&models.OnboardingSession{}).
		Where("status = ? AND expires_at < ?", models.SessionInProgress, now).
		Update("status", models.SessionExpired)
	return res.RowsAffected, res.Error
}
