package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/gramv/onboardingsoftware/internal/apperr"
	"github.com/gramv/onboardingsoftware/internal/authz"
	"github.com/gramv/onboardingsoftware/internal/models"
	"github.com/gramv/onboardingsoftware/internal/services/onboarding"
)

type JobHandler struct {
	DB         *gorm.DB
	Onboarding *onboarding.Service
}

func NewJobHandler(db *gorm.DB, svc *onboarding.Service) *JobHandler {
	return &JobHandler{DB: db, Onboarding: svc}
}

type createPostingReq struct {
	Title        string `json:"title"`
	Department   string `json:"department"`
	Description  string `json:"description"`
	Requirements string `json:"requirements"`
}

func (h *JobHandler) CreatePosting(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return err
	}

	var req createPostingReq
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid body", nil)
	}
	if strings.TrimSpace(req.Title) == "" {
		return apperr.Validation("title is required", nil)
	}

	if err := authz.CanManageOrganization(actor, actor.OrganizationID); err != nil {
		return err
	}

	posting := models.JobPosting{
		OrganizationID: actor.OrganizationID,
		Title:          strings.TrimSpace(req.Title),
		Department:     strings.TrimSpace(req.Department),
		Description:    strings.TrimSpace(req.Description),
		Requirements:   strings.TrimSpace(req.Requirements),
		Status:         models.JobPostingOpen,
		CreatedBy:      actor.UserID,
	}
	if err := h.DB.Create(&posting).Error; err != nil {
		return err
	}
	return created(c, posting)
}

// ListOpen is the public job board.
func (h *JobHandler) ListOpen(c *fiber.Ctx) error {
	var postings []models.JobPosting
	q := h.DB.Preload("Organization").Where("status = ?", models.JobPostingOpen)
	if dept := c.Query("department"); dept != "" {
		q = q.Where("department = ?", dept)
	}
	if err := q.Order("created_at DESC").Find(&postings).Error; err != nil {
		return err
	}
	return ok(c, postings)
}

func (h *JobHandler) ClosePosting(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return err
	}

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var posting models.JobPosting
	if err := h.DB.First(&posting, "id = ?", id).Error; err != nil {
		return apperr.NotFound("job posting not found")
	}
	if err := authz.CanManageOrganization(actor, posting.OrganizationID); err != nil {
		return err
	}

	posting.Status = models.JobPostingClosed
	if err := h.DB.Save(&posting).Error; err != nil {
		return err
	}
	return ok(c, posting)
}

type applyReq struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	ResumeURL string `json:"resume_url"`
}

// Apply is public: candidates submit against an open posting.
func (h *JobHandler) Apply(c *fiber.Ctx) error {
	postingID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var posting models.JobPosting
	if err := h.DB.First(&posting, "id = ?", postingID).Error; err != nil {
		return apperr.NotFound("job posting not found")
	}
	if posting.Status != models.JobPostingOpen {
		return apperr.Conflict("this job posting is closed")
	}

	var req applyReq
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid body", nil)
	}

	first := strings.TrimSpace(req.FirstName)
	last := strings.TrimSpace(req.LastName)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if first == "" || last == "" {
		return apperr.Validation("first_name and last_name are required", nil)
	}
	if email == "" || !strings.Contains(email, "@") {
		return apperr.Validation("a valid email is required", nil)
	}

	app := models.JobApplication{
		JobPostingID: postingID,
		FirstName:    first,
		LastName:     last,
		Email:        email,
		Phone:        strings.TrimSpace(req.Phone),
		ResumeURL:    strings.TrimSpace(req.ResumeURL),
		Status:       models.ApplicationPending,
	}
	if err := h.DB.Create(&app).Error; err != nil {
		return err
	}
	return created(c, app)
}

func (h *JobHandler) ListApplications(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return err
	}

	postingID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var posting models.JobPosting
	if err := h.DB.First(&posting, "id = ?", postingID).Error; err != nil {
		return apperr.NotFound("job posting not found")
	}
	if err := authz.CanViewOrganization(actor, posting.OrganizationID); err != nil {
		return err
	}

	var apps []models.JobApplication
	q := h.DB.Where("job_posting_id = ?", postingID)
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Order("created_at ASC").Find(&apps).Error; err != nil {
		return err
	}
	return ok(c, apps)
}

// Approve accepts an application and starts a walk-in onboarding session for
// the candidate.
func (h *JobHandler) Approve(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return err
	}

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var app models.JobApplication
	if err := h.DB.Preload("JobPosting.Organization").First(&app, "id = ?", id).Error; err != nil {
		return apperr.NotFound("application not found")
	}
	if app.JobPosting == nil {
		return apperr.NotFound("job posting not found")
	}
	if err := authz.CanManageOrganization(actor, app.JobPosting.OrganizationID); err != nil {
		return err
	}
	if app.Status != models.ApplicationPending {
		return apperr.Conflict("application has already been reviewed")
	}

	orgName := ""
	if app.JobPosting.Organization != nil {
		orgName = app.JobPosting.Organization.Name
	}

	sess, onboardURL, err := h.Onboarding.CreateWalkInSession(onboarding.WalkInInput{
		FirstName:        app.FirstName,
		LastName:         app.LastName,
		Email:            app.Email,
		OrganizationID:   app.JobPosting.OrganizationID,
		OrganizationName: orgName,
	}, onboarding.CreateOptions{})
	if err != nil {
		return err
	}

	now := time.Now()
	app.Status = models.ApplicationApproved
	app.ReviewedBy = &actor.UserID
	app.ReviewedAt = &now
	if err := h.DB.Save(&app).Error; err != nil {
		return err
	}

	return ok(c, fiber.Map{
		"application":    app,
		"session":        sess,
		"onboarding_url": onboardURL,
	})
}

func (h *JobHandler) Reject(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return err
	}

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var app models.JobApplication
	if err := h.DB.Preload("JobPosting").First(&app, "id = ?", id).Error; err != nil {
		return apperr.NotFound("application not found")
	}
	if app.JobPosting == nil {
		return apperr.NotFound("job posting not found")
	}
	if err := authz.CanManageOrganization(actor, app.JobPosting.OrganizationID); err != nil {
		return err
	}
	if app.Status != models.ApplicationPending {
		return apperr.Conflict("application has already been reviewed")
	}

	now := time.Now()
	app.Status = models.ApplicationRejected
	app.ReviewedBy = &actor.UserID
	app.ReviewedAt = &now
	if err := h.DB.Save(&app).Error; err != nil {
		return err
	}
	return ok(c, app)
}
