package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gramv/onboardingsoftware/internal/apperr"
	"github.com/gramv/onboardingsoftware/internal/authz"
	"github.com/gramv/onboardingsoftware/internal/models"
	"github.com/gramv/onboardingsoftware/internal/realtime"
)

type AnnouncementHandler struct {
	DB  *gorm.DB
	Hub *realtime.Hub
}

func NewAnnouncementHandler(db *gorm.DB, hub *realtime.Hub) *AnnouncementHandler {
	return &AnnouncementHandler{DB: db, Hub: hub}
}

type createAnnouncementReq struct {
	Title          string  `json:"title"`
	Content        string  `json:"content"`
	Priority       string  `json:"priority"`
	OrganizationID *string `json:"organization_id"` // empty + hr_admin = global
	ExpiresAt      *string `json:"expires_at"`      // RFC3339
}

func (h *AnnouncementHandler) Create(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return err
	}

	var req createAnnouncementReq
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid body", nil)
	}

	title := strings.TrimSpace(req.Title)
	content := strings.TrimSpace(req.Content)
	if title == "" || content == "" {
		return apperr.Validation("title and content are required", nil)
	}

	priority := models.AnnouncementPriority(strings.TrimSpace(req.Priority))
	if priority == "" {
		priority = models.PriorityNormal
	}
	if priority != models.PriorityLow && priority != models.PriorityNormal && priority != models.PriorityUrgent {
		return apperr.Validation("priority must be low, normal or urgent", nil)
	}

	var orgID *uuid.UUID
	if req.OrganizationID != nil && *req.OrganizationID != "" {
		parsed, err := uuid.Parse(*req.OrganizationID)
		if err != nil {
			return apperr.Validation("invalid organization_id", nil)
		}
		orgID = &parsed
	} else if actor.Role != models.RoleHRAdmin {
		// managers always post into their own organization
		org := actor.OrganizationID
		orgID = &org
	}

	if orgID != nil {
		if err := authz.CanManageOrganization(actor, *orgID); err != nil {
			return err
		}
	} else if actor.Role != models.RoleHRAdmin {
		return apperr.Forbidden("only hr_admin can publish global announcements")
	}

	var expiresAt *time.Time
	if req.ExpiresAt != nil && *req.ExpiresAt != "" {
		t, err := time.Parse(time.RFC3339, *req.ExpiresAt)
		if err != nil {
			return apperr.Validation("expires_at must be RFC3339", nil)
		}
		expiresAt = &t
	}

	ann := models.Announcement{
		OrganizationID: orgID,
		Title:          title,
		Content:        content,
		Priority:       priority,
		IsActive:       true,
		ExpiresAt:      expiresAt,
		CreatedBy:      actor.UserID,
	}
	if err := h.DB.Create(&ann).Error; err != nil {
		return err
	}

	// Global announcements are visible to every user, so they go to every
	// open socket. Org-scoped ones are picked up on the next active listing.
	if h.Hub != nil && ann.OrganizationID == nil {
		h.Hub.BroadcastJSON(fiber.Map{
			"type":         "announcement",
			"announcement": ann,
		})
	}

	return created(c, ann)
}

// ListActive is the broadcast read surface: every authenticated user sees the
// active announcements of their own organization plus global ones.
func (h *AnnouncementHandler) ListActive(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return err
	}

	now := time.Now()
	q := h.DB.Model(&models.Announcement{}).
		Where("is_active = true").
		Where("expires_at IS NULL OR expires_at > ?", now)

	if actor.Role != models.RoleHRAdmin {
		q = q.Where("organization_id IS NULL OR organization_id = ?", actor.OrganizationID)
	}

	var announcements []models.Announcement
	if err := q.Order("priority DESC, created_at DESC").Find(&announcements).Error; err != nil {
		return err
	}
	return ok(c, announcements)
}

func (h *AnnouncementHandler) Deactivate(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return err
	}

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var ann models.Announcement
	if err := h.DB.First(&ann, "id = ?", id).Error; err != nil {
		return apperr.NotFound("announcement not found")
	}

	if ann.OrganizationID != nil {
		if err := authz.CanManageOrganization(actor, *ann.OrganizationID); err != nil {
			return err
		}
	} else if actor.Role != models.RoleHRAdmin {
		return apperr.Forbidden("only hr_admin can manage global announcements")
	}

	ann.IsActive = false
	if err := h.DB.Save(&ann).Error; err != nil {
		return err
	}
	return ok(c, ann)
}
