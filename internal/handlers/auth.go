package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/gramv/onboardingsoftware/internal/apperr"
	"github.com/gramv/onboardingsoftware/internal/i18n"
	"github.com/gramv/onboardingsoftware/internal/middleware"
	"github.com/gramv/onboardingsoftware/internal/models"
	"github.com/gramv/onboardingsoftware/internal/utils"
)

type AuthHandler struct {
	DB        *gorm.DB
	JWTSecret string
	Expires   int
}

type LoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginReq
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid body", nil)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	password := strings.TrimSpace(req.Password)

	if email == "" || password == "" {
		return apperr.Validation("email and password are required", nil)
	}

	var u models.User
	if err := h.DB.Where("email = ?", email).First(&u).Error; err != nil {
		return apperr.Unauthorized(i18n.Translate(i18n.DefaultLanguage, "auth.invalid_credentials"))
	}

	if !u.IsActive {
		return apperr.Unauthorized("account is inactive")
	}

	if !utils.CheckPassword(u.Password, password) {
		return apperr.Unauthorized(i18n.Translate(u.LanguagePreference, "auth.invalid_credentials"))
	}

	token, err := utils.SignJWT(h.JWTSecret, u.ID.String(), string(u.Role), u.OrganizationID.String(), h.Expires)
	if err != nil {
		return err
	}

	h.setSessionCookie(c, token)

	return ok(c, fiber.Map{
		"user": fiber.Map{
			"id":              u.ID,
			"email":           u.Email,
			"first_name":      u.FirstName,
			"last_name":       u.LastName,
			"role":            u.Role,
			"organization_id": u.OrganizationID,
		},
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   false,
		SameSite: "Lax",
	})

	return c.JSON(fiber.Map{"success": true, "message": "logged out"})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	uid := c.Locals("userId")

	var u models.User
	if err := h.DB.Preload("Employee").First(&u, "id = ?", uid).Error; err != nil {
		return apperr.Unauthorized("user not found")
	}

	return ok(c, fiber.Map{
		"id":                  u.ID,
		"email":               u.Email,
		"first_name":          u.FirstName,
		"last_name":           u.LastName,
		"role":                u.Role,
		"organization_id":     u.OrganizationID,
		"language_preference": u.LanguagePreference,
		"employee":            u.Employee,
	})
}

func (h *AuthHandler) setSessionCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   false, // true behind HTTPS in production
		SameSite: "Lax",
		MaxAge:   h.Expires * 60,
	})
}
