package i18n

import "strings"

// Static lookup table for user-facing copy. English is the fallback; Spanish
// covers the candidate-facing onboarding flow.

const DefaultLanguage = "en"

var messages = map[string]map[string]string{
	"en": {
		"onboarding.invalid_token":      "This onboarding link is not valid.",
		"onboarding.session_expired":    "This onboarding link has expired. Please contact your HR representative.",
		"onboarding.session_not_active": "This onboarding session is no longer active.",
		"onboarding.already_active":     "An active onboarding session already exists for this employee.",
		"onboarding.welcome":            "Welcome! Let's get you set up.",
		"onboarding.completed":          "Your onboarding is complete. Thank you!",
		"employee.not_found":            "Employee not found.",
		"session.not_found":             "Onboarding session not found.",
		"auth.forbidden":                "You do not have permission to perform this action.",
		"auth.invalid_credentials":      "Invalid email or password.",
	},
	"es": {
		"onboarding.invalid_token":      "Este enlace de incorporación no es válido.",
		"onboarding.session_expired":    "Este enlace de incorporación ha expirado. Comuníquese con su representante de recursos humanos.",
		"onboarding.session_not_active": "Esta sesión de incorporación ya no está activa.",
		"onboarding.already_active":     "Ya existe una sesión de incorporación activa para este empleado.",
		"onboarding.welcome":            "¡Bienvenido! Vamos a prepararlo.",
		"onboarding.completed":          "Su incorporación está completa. ¡Gracias!",
		"employee.not_found":            "Empleado no encontrado.",
		"session.not_found":             "Sesión de incorporación no encontrada.",
		"auth.forbidden":                "No tiene permiso para realizar esta acción.",
		"auth.invalid_credentials":      "Correo o contraseña inválidos.",
	},
}

// Translate resolves key for lang, falling back to English, then to the key
// itself so a missing entry never blanks the UI.
func Translate(lang, key string) string {
	lang = normalize(lang)
	if m, ok := messages[lang]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	if v, ok := messages[DefaultLanguage][key]; ok {
		return v
	}
	return key
}

// Supported reports whether lang has a translation table.
func Supported(lang string) bool {
	_, ok := messages[normalize(lang)]
	return ok
}

func normalize(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	return lang
}
