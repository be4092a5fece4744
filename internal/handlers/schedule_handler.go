package handlers

import (
	"regexp"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gramv/onboardingsoftware/internal/apperr"
	"github.com/gramv/onboardingsoftware/internal/authz"
	"github.com/gramv/onboardingsoftware/internal/models"
)

type ScheduleHandler struct {
	DB *gorm.DB
}

func NewScheduleHandler(db *gorm.DB) *ScheduleHandler {
	return &ScheduleHandler{DB: db}
}

var timeRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

type createScheduleReq struct {
	EmployeeID string `json:"employee_id"`
	ShiftDate  string `json:"shift_date"` // YYYY-MM-DD
	StartTime  string `json:"start_time"` // HH:MM
	EndTime    string `json:"end_time"`   // HH:MM
	Position   string `json:"position"`
	Notes      string `json:"notes"`
}

func (h *ScheduleHandler) Create(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return err
	}

	var req createScheduleReq
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid body", nil)
	}

	employeeID, err := uuid.Parse(strings.TrimSpace(req.EmployeeID))
	if err != nil {
		return apperr.Validation("employee_id is required", nil)
	}

	shiftDate, err := time.Parse("2006-01-02", strings.TrimSpace(req.ShiftDate))
	if err != nil {
		return apperr.Validation("shift_date must be YYYY-MM-DD", nil)
	}

	start := strings.TrimSpace(req.StartTime)
	end := strings.TrimSpace(req.EndTime)
	if !timeRe.MatchString(start) || !timeRe.MatchString(end) {
		return apperr.Validation("start_time and end_time must be HH:MM", nil)
	}

	var emp models.Employee
	if err := h.DB.First(&emp, "id = ?", employeeID).Error; err != nil {
		return apperr.NotFound("employee not found")
	}
	if err := authz.CanManageOrganization(actor, emp.OrganizationID); err != nil {
		return err
	}

	sched := models.Schedule{
		EmployeeID:     employeeID,
		OrganizationID: emp.OrganizationID,
		ShiftDate:      shiftDate,
		StartTime:      start,
		EndTime:        end,
		Position:       strings.TrimSpace(req.Position),
		Notes:          strings.TrimSpace(req.Notes),
		CreatedBy:      actor.UserID,
	}
	if err := h.DB.Create(&sched).Error; err != nil {
		return err
	}

	return created(c, sched)
}

// ListByEmployee returns an employee's shifts; employees see their own,
// managers and HR their organization's.
func (h *ScheduleHandler) ListByEmployee(c *fiber.Ctx) error {
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

	q := h.DB.Where("employee_id = ?", employeeID)
	if from := c.Query("from"); from != "" {
		d, err := time.Parse("2006-01-02", from)
		if err != nil {
			return apperr.Validation("from must be YYYY-MM-DD", nil)
		}
		q = q.Where("shift_date >= ?", d)
	}
	if to := c.Query("to"); to != "" {
		d, err := time.Parse("2006-01-02", to)
		if err != nil {
			return apperr.Validation("to must be YYYY-MM-DD", nil)
		}
		q = q.Where("shift_date <= ?", d)
	}

	var schedules []models.Schedule
	if err := q.Order("shift_date ASC, start_time ASC").Find(&schedules).Error; err != nil {
		return err
	}
	return ok(c, schedules)
}

type updateScheduleReq struct {
	ShiftDate *string `json:"shift_date"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
	Position  *string `json:"position"`
	Notes     *string `json:"notes"`
}

func (h *ScheduleHandler) Update(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return err
	}

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var sched models.Schedule
	if err := h.DB.First(&sched, "id = ?", id).Error; err != nil {
		return apperr.NotFound("schedule not found")
	}
	if err := authz.CanManageOrganization(actor, sched.OrganizationID); err != nil {
		return err
	}

	var req updateScheduleReq
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid body", nil)
	}

	if req.ShiftDate != nil {
		d, err := time.Parse("2006-01-02", *req.ShiftDate)
		if err != nil {
			return apperr.Validation("shift_date must be YYYY-MM-DD", nil)
		}
		sched.ShiftDate = d
	}
	if req.StartTime != nil {
		if !timeRe.MatchString(*req.StartTime) {
			return apperr.Validation("start_time must be HH:MM", nil)
		}
		sched.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		if !timeRe.MatchString(*req.EndTime) {
			return apperr.Validation("end_time must be HH:MM", nil)
		}
		sched.EndTime = *req.EndTime
	}
	if req.Position != nil {
		sched.Position = strings.TrimSpace(*req.Position)
	}
	if req.Notes != nil {
		sched.Notes = strings.TrimSpace(*req.Notes)
	}

	if err := h.DB.Save(&sched).Error; err != nil {
		return err
	}
	return ok(c, sched)
}

func (h *ScheduleHandler) Delete(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return err
	}

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var sched models.Schedule
	if err := h.DB.First(&sched, "id = ?", id).Error; err != nil {
		return apperr.NotFound("schedule not found")
	}
	if err := authz.CanManageOrganization(actor, sched.OrganizationID); err != nil {
		return err
	}

	if err := h.DB.Delete(&sched).Error; err != nil {
		return err
	}
	return ok(c, fiber.Map{"deleted": id})
}
