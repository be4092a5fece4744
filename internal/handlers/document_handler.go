package handlers

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/gramv/onboardingsoftware/internal/apperr"
	"github.com/gramv/onboardingsoftware/internal/authz"
	"github.com/gramv/onboardingsoftware/internal/models"
)

type DocumentHandler struct {
	DB            *gorm.DB
	UploadDir     string
	PublicBaseURL string
}

func NewDocumentHandler(db *gorm.DB, uploadDir, publicBaseURL string) *DocumentHandler {
	return &DocumentHandler{DB: db, UploadDir: uploadDir, PublicBaseURL: publicBaseURL}
}

var allowedDocExts = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// Upload stores a document file (multipart field: file) for an employee.
func (h *DocumentHandler) Upload(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return err
	}

	employeeID, err := uuid.Parse(c.FormValue("employee_id"))
	if err != nil {
		return apperr.Validation("employee_id is required", nil)
	}

	docType := strings.TrimSpace(c.FormValue("document_type"))
	if docType == "" {
		docType = "other"
	}
	title := strings.TrimSpace(c.FormValue("title"))

	var emp models.Employee
	if err := h.DB.First(&emp, "id = ?", employeeID).Error; err != nil {
		return apperr.NotFound("employee not found")
	}
	if err := authz.CanAccessEmployeeResource(actor, emp.OrganizationID, emp.UserID); err != nil {
		return err
	}

	file, err := c.FormFile("file")
	if err != nil {
		return apperr.Validation("file is required (multipart field: file)", nil)
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedDocExts[ext] {
		return apperr.Validation("file must be pdf/jpg/jpeg/png", nil)
	}
	if file.Size > 10*1024*1024 {
		return apperr.Validation("file max size is 10MB", nil)
	}

	dir := filepath.Join(h.UploadDir, "documents", employeeID.String())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to create upload dir")
	}

	filename := fmt.Sprintf("%s%s", uuid.New().String(), ext)
	if err := c.SaveFile(file, filepath.Join(dir, filename)); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to save file")
	}

	base := strings.TrimRight(h.PublicBaseURL, "/")
	fileURL := fmt.Sprintf("%s/uploads/documents/%s/%s", base, employeeID.String(), filename)
	if base == "" {
		fileURL = fmt.Sprintf("/uploads/documents/%s/%s", employeeID.String(), filename)
	}

	doc := models.Document{
		EmployeeID:     employeeID,
		OrganizationID: emp.OrganizationID,
		DocumentType:   docType,
		Title:          title,
		FileURL:        fileURL,
		Status:         models.DocumentPending,
	}
	if err := h.DB.Create(&doc).Error; err != nil {
		return err
	}

	return created(c, doc)
}

func (h *DocumentHandler) ListByEmployee(c *fiber.Ctx) error {
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

	var docs []models.Document
	q := h.DB.Where("employee_id = ?", employeeID)
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Order("created_at DESC").Find(&docs).Error; err != nil {
		return err
	}

	return ok(c, docs)
}

type signDocumentReq struct {
	SignatureData map[string]interface{} `json:"signature_data"`
}

// Sign records the signature payload; only the document's own employee may
// sign.
func (h *DocumentHandler) Sign(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return err
	}

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var doc models.Document
	if err := h.DB.Preload("Employee").First(&doc, "id = ?", id).Error; err != nil {
		return apperr.NotFound("document not found")
	}

	if doc.Employee == nil {
		return apperr.NotFound("document has no employee")
	}
	if actor.UserID != doc.Employee.UserID {
		return apperr.Forbidden("only the document owner can sign it")
	}

	if doc.Status == models.DocumentSigned {
		return apperr.Conflict("document is already signed")
	}

	var req signDocumentReq
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid body", nil)
	}
	if len(req.SignatureData) == 0 {
		return apperr.Validation("signature_data is required", nil)
	}

	raw, err := json.Marshal(req.SignatureData)
	if err != nil {
		return apperr.Validation("signature_data must be a JSON object", nil)
	}

	now := time.Now()
	doc.SignatureData = datatypes.JSON(raw)
	doc.SignedAt = &now
	doc.Status = models.DocumentSigned

	if err := h.DB.Save(&doc).Error; err != nil {
		return err
	}

	return ok(c, doc)
}

// Reject flips a pending document back for re-upload; manager/hr only.
func (h *DocumentHandler) Reject(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return err
	}

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var doc models.Document
	if err := h.DB.First(&doc, "id = ?", id).Error; err != nil {
		return apperr.NotFound("document not found")
	}

	if err := authz.CanManageOrganization(actor, doc.OrganizationID); err != nil {
		return err
	}

	doc.Status = models.DocumentRejected
	if err := h.DB.Save(&doc).Error; err != nil {
		return err
	}
	return ok(c, doc)
}
