package handlers

import (
	"math"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gramv/onboardingsoftware/internal/apperr"
	"github.com/gramv/onboardingsoftware/internal/authz"
	"github.com/gramv/onboardingsoftware/internal/i18n"
	"github.com/gramv/onboardingsoftware/internal/models"
	"github.com/gramv/onboardingsoftware/internal/services/onboarding"
)

type OnboardingHandler struct {
	DB      *gorm.DB
	Service *onboarding.Service
}

func NewOnboardingHandler(db *gorm.DB, svc *onboarding.Service) *OnboardingHandler {
	return &OnboardingHandler{DB: db, Service: svc}
}

// ===== admin surface =====

type createSessionReq struct {
	EmployeeID         string                 `json:"employee_id"`
	LanguagePreference string                 `json:"language_preference"`
	ExpirationHours    int                    `json:"expiration_hours"`
	CurrentStep        string                 `json:"current_step"`
	FormData           map[string]interface{} `json:"form_data"`
}

func (h *OnboardingHandler) CreateSession(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return err
	}

	var req createSessionReq
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid body", nil)
	}

	employeeID, err := uuid.Parse(strings.TrimSpace(req.EmployeeID))
	if err != nil {
		return apperr.Validation("employee_id is required", nil)
	}

	var emp models.Employee
	if err := h.DB.First(&emp, "id = ?", employeeID).Error; err != nil {
		return apperr.NotFound("employee not found")
	}
	if err := authz.CanManageOrganization(actor, emp.OrganizationID); err != nil {
		return err
	}

	sess, onboardURL, err := h.Service.CreateSession(employeeID, onboarding.CreateOptions{
		LanguagePreference: req.LanguagePreference,
		ExpirationHours:    req.ExpirationHours,
		CurrentStep:        req.CurrentStep,
		FormData:           req.FormData,
	})
	if err != nil {
		return err
	}

	return created(c, fiber.Map{
		"session":        sess,
		"onboarding_url": onboardURL,
	})
}

func (h *OnboardingHandler) ListSessions(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return err
	}

	filter := onboarding.SessionFilter{
		Status: models.SessionStatus(c.Query("status")),
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", 20),
	}

	if raw := c.Query("employee_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return apperr.Validation("invalid employee_id", nil)
		}
		filter.EmployeeID = &id
	}

	if actor.Role != models.RoleHRAdmin {
		org := actor.OrganizationID
		filter.OrganizationID = &org
	} else if raw := c.Query("organization_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return apperr.Validation("invalid organization_id", nil)
		}
		filter.OrganizationID = &id
	}

	sessions, total, err := h.Service.ListSessions(filter)
	if err != nil {
		return err
	}

	limit := filter.Limit
	if limit < 1 {
		limit = 20
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    sessions,
		"meta": fiber.Map{
			"page":        page,
			"limit":       limit,
			"total_items": total,
			"total_pages": int(math.Ceil(float64(total) / float64(limit))),
		},
	})
}

func (h *OnboardingHandler) GetSession(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return err
	}

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	sess, err := h.guardSession(actor, id)
	if err != nil {
		return err
	}
	return ok(c, sess)
}

func (h *OnboardingHandler) GetEmployeeSessions(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return err
	}

	employeeID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var emp models.Employee
	if err := h.DB.First(&emp, "id = ?", employeeID).Error; err != nil {
		return apperr.NotFound("employee not found")
	}
	if err := authz.CanAccessEmployeeResource(actor, emp.OrganizationID, emp.UserID); err != nil {
		return err
	}

	if c.Query("active") == "true" {
		sess, err := h.Service.GetActiveSessionByEmployee(employeeID)
		if err != nil {
			return err
		}
		return ok(c, sess)
	}

	sessions, err := h.Service.GetSessionsByEmployee(employeeID)
	if err != nil {
		return err
	}
	return ok(c, sessions)
}

func (h *OnboardingHandler) CompleteSession(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return err
	}

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if _, err := h.guardSession(actor, id); err != nil {
		return err
	}

	sess, err := h.Service.CompleteSession(id)
	if err != nil {
		return err
	}
	return ok(c, sess)
}

func (h *OnboardingHandler) CancelSession(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return err
	}

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if _, err := h.guardSession(actor, id); err != nil {
		return err
	}

	sess, err := h.Service.CancelSession(id)
	if err != nil {
		return err
	}
	return ok(c, sess)
}

type extendSessionReq struct {
	AdditionalHours int `json:"additional_hours"`
}

func (h *OnboardingHandler) ExtendSession(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return err
	}

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if _, err := h.guardSession(actor, id); err != nil {
		return err
	}

	var req extendSessionReq
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid body", nil)
	}

	sess, err := h.Service.ExtendSession(id, req.AdditionalHours)
	if err != nil {
		return err
	}
	return ok(c, sess)
}

// MarkExpired is the maintenance sweep endpoint, hr_admin only.
func (h *OnboardingHandler) MarkExpired(c *fiber.Ctx) error {
	count, err := h.Service.MarkExpiredSessions()
	if err != nil {
		return err
	}
	return ok(c, fiber.Map{"expired": count})
}

// guardSession loads the session and applies the org/ownership guard against
// its owning organization.
func (h *OnboardingHandler) guardSession(actor authz.Actor, id uuid.UUID) (*models.OnboardingSession, error) {
	var sess models.OnboardingSession
	if err := h.DB.First(&sess, "id = ?", id).Error; err != nil {
		return nil, apperr.NotFound("onboarding session not found")
	}

	if sess.OrganizationID != nil {
		if err := authz.CanManageOrganization(actor, *sess.OrganizationID); err != nil {
			return nil, err
		}
	} else if actor.Role != models.RoleHRAdmin {
		return nil, apperr.Forbidden("insufficient permissions")
	}

	return &sess, nil
}

// ===== public candidate surface (token-keyed, no auth cookie) =====

func (h *OnboardingHandler) VerifyToken(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Params("token"))

	res, err := h.Service.ValidateToken(token)
	if err != nil {
		return err
	}

	if res.Err != nil {
		lang := i18n.DefaultLanguage
		if res.Session != nil {
			lang = res.Session.LanguagePreference
		}
		key := "onboarding.invalid_token"
		switch res.Err.Code {
		case apperr.CodeSessionExpired:
			key = "onboarding.session_expired"
		case apperr.CodeSessionNotActive:
			key = "onboarding.session_not_active"
		}
		return c.Status(res.Err.Status).JSON(fiber.Map{
			"success": false,
			"error":   res.Err.Code,
			"message": i18n.Translate(lang, key),
			"data": fiber.Map{
				"is_valid":   false,
				"is_expired": res.IsExpired,
			},
		})
	}

	sess := res.Session
	return ok(c, fiber.Map{
		"is_valid":   true,
		"is_expired": false,
		"session": fiber.Map{
			"id":                  sess.ID,
			"first_name":          sess.FirstName,
			"last_name":           sess.LastName,
			"organization_name":   sess.OrganizationName,
			"language_preference": sess.LanguagePreference,
			"current_step":        sess.CurrentStep,
			"form_data":           sess.FormData,
			"expires_at":          sess.ExpiresAt,
		},
		"welcome": i18n.Translate(sess.LanguagePreference, "onboarding.welcome"),
	})
}

type progressReq struct {
	CurrentStep        *string                `json:"current_step"`
	FormData           map[string]interface{} `json:"form_data"`
	LanguagePreference *string                `json:"language_preference"`
}

func (h *OnboardingHandler) UpdateProgress(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Params("token"))

	res, err := h.Service.ValidateToken(token)
	if err != nil {
		return err
	}
	if res.Err != nil {
		return res.Err
	}

	var req progressReq
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid body", nil)
	}

	sess, err := h.Service.UpdateProgress(res.Session.ID, onboarding.ProgressUpdate{
		CurrentStep:        req.CurrentStep,
		FormData:           req.FormData,
		LanguagePreference: req.LanguagePreference,
	})
	if err != nil {
		return err
	}
	return ok(c, sess)
}

func (h *OnboardingHandler) CompleteByToken(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Params("token"))

	res, err := h.Service.ValidateToken(token)
	if err != nil {
		return err
	}
	if res.Err != nil {
		return res.Err
	}

	sess, err := h.Service.CompleteSession(res.Session.ID)
	if err != nil {
		return err
	}

	return ok(c, fiber.Map{
		"session": sess,
		"message": i18n.Translate(sess.LanguagePreference, "onboarding.completed"),
	})
}
