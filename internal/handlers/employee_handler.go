package handlers

import (
	"math"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gramv/onboardingsoftware/internal/apperr"
	"github.com/gramv/onboardingsoftware/internal/authz"
	"github.com/gramv/onboardingsoftware/internal/models"
	"github.com/gramv/onboardingsoftware/internal/utils"
)

type EmployeeHandler struct {
	DB *gorm.DB
}

func NewEmployeeHandler(db *gorm.DB) *EmployeeHandler {
	return &EmployeeHandler{DB: db}
}

type createEmployeeReq struct {
	Email              string  `json:"email"`
	Password           string  `json:"password"`
	FirstName          string  `json:"first_name"`
	LastName           string  `json:"last_name"`
	Role               string  `json:"role"` // manager / employee
	OrganizationID     string  `json:"organization_id"`
	EmployeeNumber     string  `json:"employee_number"`
	Position           string  `json:"position"`
	Department         string  `json:"department"`
	Phone              string  `json:"phone"`
	Address            string  `json:"address"`
	HireDate           *string `json:"hire_date"` // YYYY-MM-DD
	EmploymentType     string  `json:"employment_type"`
	LanguagePreference string  `json:"language_preference"`
}

// Create provisions the user account and the employee record in one
// transaction.
func (h *EmployeeHandler) Create(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return err
	}

	var req createEmployeeReq
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid body", nil)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	first := strings.TrimSpace(req.FirstName)
	last := strings.TrimSpace(req.LastName)

	if email == "" || !strings.Contains(email, "@") {
		return apperr.Validation("a valid email is required", nil)
	}
	if first == "" || last == "" {
		return apperr.Validation("first_name and last_name are required", nil)
	}
	if len(strings.TrimSpace(req.Password)) < 8 {
		return apperr.Validation("password must be at least 8 characters", nil)
	}

	role := models.Role(strings.ToLower(strings.TrimSpace(req.Role)))
	if role == "" {
		role = models.RoleEmployee
	}
	if role != models.RoleEmployee && role != models.RoleManager {
		return apperr.Validation("role must be employee or manager", nil)
	}

	orgID := actor.OrganizationID
	if req.OrganizationID != "" {
		parsed, err := uuid.Parse(req.OrganizationID)
		if err != nil {
			return apperr.Validation("invalid organization_id", nil)
		}
		orgID = parsed
	}

	if err := authz.CanManageOrganization(actor, orgID); err != nil {
		return err
	}

	var hireDate *time.Time
	if req.HireDate != nil && *req.HireDate != "" {
		d, err := time.Parse("2006-01-02", *req.HireDate)
		if err != nil {
			return apperr.Validation("hire_date must be YYYY-MM-DD", nil)
		}
		hireDate = &d
	}

	var existing models.User
	if err := h.DB.Where("email = ?", email).First(&existing).Error; err == nil {
		return apperr.Conflict("a user with this email already exists")
	} else if err != gorm.ErrRecordNotFound {
		return err
	}

	hashed, err := utils.HashPassword(strings.TrimSpace(req.Password))
	if err != nil {
		return err
	}

	lang := strings.TrimSpace(req.LanguagePreference)
	if lang == "" {
		lang = "en"
	}

	tx := h.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	u := models.User{
		Email:              email,
		Password:           hashed,
		Role:               role,
		OrganizationID:     orgID,
		FirstName:          first,
		LastName:           last,
		LanguagePreference: lang,
		IsActive:           true,
	}
	if err := tx.Create(&u).Error; err != nil {
		tx.Rollback()
		return err
	}

	emp := models.Employee{
		UserID:         u.ID,
		OrganizationID: orgID,
		EmployeeNumber: strings.TrimSpace(req.EmployeeNumber),
		Position:       strings.TrimSpace(req.Position),
		Department:     strings.TrimSpace(req.Department),
		Phone:          strings.TrimSpace(req.Phone),
		Address:        strings.TrimSpace(req.Address),
		HireDate:       hireDate,
		EmploymentType: strings.TrimSpace(req.EmploymentType),
		Status:         models.EmploymentOnboarding,
	}
	if err := tx.Create(&emp).Error; err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	emp.User = &u
	return created(c, emp)
}

func (h *EmployeeHandler) List(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return err
	}

	q := h.DB.Model(&models.Employee{}).Preload("User")

	// managers and employees only ever see their own organization
	if actor.Role != models.RoleHRAdmin {
		q = q.Where("organization_id = ?", actor.OrganizationID)
	} else if org := c.Query("organization_id"); org != "" {
		orgID, err := uuid.Parse(org)
		if err != nil {
			return apperr.Validation("invalid organization_id", nil)
		}
		q = q.Where("organization_id = ?", orgID)
	}

	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if dept := c.Query("department"); dept != "" {
		q = q.Where("department = ?", dept)
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return err
	}

	var employees []models.Employee
	if err := q.Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&employees).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    employees,
		"meta": fiber.Map{
			"page":        page,
			"limit":       limit,
			"total_items": total,
			"total_pages": int(math.Ceil(float64(total) / float64(limit))),
		},
	})
}

func (h *EmployeeHandler) Get(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return err
	}

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var emp models.Employee
	if err := h.DB.Preload("User").Preload("Organization").First(&emp, "id = ?", id).Error; err != nil {
		return apperr.NotFound("employee not found")
	}

	if err := authz.CanAccessEmployeeResource(actor, emp.OrganizationID, emp.UserID); err != nil {
		return err
	}

	return ok(c, emp)
}

type updateEmployeeReq struct {
	Position       *string `json:"position"`
	Department     *string `json:"department"`
	Phone          *string `json:"phone"`
	Address        *string `json:"address"`
	EmploymentType *string `json:"employment_type"`
	Status         *string `json:"status"`
}

func (h *EmployeeHandler) Update(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return err
	}

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var emp models.Employee
	if err := h.DB.First(&emp, "id = ?", id).Error; err != nil {
		return apperr.NotFound("employee not found")
	}

	// employees may update their own contact details only; status changes
	// stay with managers and HR
	if err := authz.CanAccessEmployeeResource(actor, emp.OrganizationID, emp.UserID); err != nil {
		return err
	}

	var req updateEmployeeReq
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid body", nil)
	}

	if req.Phone != nil {
		emp.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Address != nil {
		emp.Address = strings.TrimSpace(*req.Address)
	}

	if actor.Role != models.RoleEmployee {
		if req.Position != nil {
			emp.Position = strings.TrimSpace(*req.Position)
		}
		if req.Department != nil {
			emp.Department = strings.TrimSpace(*req.Department)
		}
		if req.EmploymentType != nil {
			emp.EmploymentType = strings.TrimSpace(*req.EmploymentType)
		}
		if req.Status != nil {
			st := models.EmploymentStatus(*req.Status)
			if st != models.EmploymentOnboarding && st != models.EmploymentActive && st != models.EmploymentTerminated {
				return apperr.Validation("status must be onboarding, active or terminated", nil)
			}
			emp.Status = st
		}
	} else if req.Position != nil || req.Department != nil || req.EmploymentType != nil || req.Status != nil {
		return apperr.Forbidden("employees may only update contact details")
	}

	if err := h.DB.Save(&emp).Error; err != nil {
		return err
	}
	return ok(c, emp)
}

func (h *EmployeeHandler) Delete(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return err
	}

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var emp models.Employee
	if err := h.DB.First(&emp, "id = ?", id).Error; err != nil {
		return apperr.NotFound("employee not found")
	}

	if err := authz.CanManageOrganization(actor, emp.OrganizationID); err != nil {
		return err
	}

	// soft-terminate, the row and its history stay
	emp.Status = models.EmploymentTerminated
	if err := h.DB.Save(&emp).Error; err != nil {
		return err
	}

	if err := h.DB.Model(&models.User{}).
		Where("id = ?", emp.UserID).
		Update("is_active", false).Error; err != nil {
		return err
	}

	return ok(c, emp)
}
