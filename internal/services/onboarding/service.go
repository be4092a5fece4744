package onboarding

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/gramv/onboardingsoftware/internal/apperr"
	"github.com/gramv/onboardingsoftware/internal/i18n"
	"github.com/gramv/onboardingsoftware/internal/models"
	"github.com/gramv/onboardingsoftware/internal/services/mailer"
)

const (
	tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	tokenLength   = 12
	maxTokenTries = 10

	// DefaultExpirationHours is one week.
	DefaultExpirationHours = 168
)

// Service owns the onboarding session lifecycle: creation, token validation,
// progress, completion, cancellation, extension and the expiration sweep.
type Service struct {
	Repo    Repository
	Mailer  mailer.Mailer
	BaseURL string

	now func() time.Time
}

func NewService(repo Repository, m mailer.Mailer, baseURL string) *Service {
	return &Service{
		Repo:    repo,
		Mailer:  m,
		BaseURL: baseURL,
		now:     time.Now,
	}
}

// GenerateUniqueToken draws 12 random alphanumeric characters and verifies
// uniqueness against the store, retrying up to 10 times.
func (s *Service) GenerateUniqueToken() (string, error) {
	for i := 0; i < maxTokenTries; i++ {
		tok, err := randomToken(tokenLength)
		if err != nil {
			return "", err
		}
		exists, err := s.Repo.TokenExists(tok)
		if err != nil {
			return "", err
		}
		if !exists {
			return tok, nil
		}
	}
	return "", apperr.TokenGenerationExhausted()
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = tokenAlphabet[int(b[i])%len(tokenAlphabet)]
	}
	return string(b), nil
}

// CreateOptions carries the optional knobs of session creation.
type CreateOptions struct {
	LanguagePreference string
	ExpirationHours    int
	CurrentStep        string
	FormData           map[string]interface{}
}

// CreateSession starts onboarding for an existing employee. Fails with
// NOT_FOUND when the employee is missing and CONFLICT when an active session
// already exists. The invite email is fire-and-forget.
func (s *Service) CreateSession(employeeID uuid.UUID, opts CreateOptions) (*models.OnboardingSession, string, error) {
	emp, err := s.Repo.FindEmployee(employeeID)
	if errors.Is(err, ErrNotFound) {
		return nil, "", apperr.NotFound("employee not found")
	}
	if err != nil {
		return nil, "", err
	}

	now := s.now()
	if _, err := s.Repo.FindActiveSessionByEmployee(employeeID, now); err == nil {
		return nil, "", apperr.Conflict("an active onboarding session already exists for this employee")
	} else if !errors.Is(err, ErrNotFound) {
		return nil, "", err
	}

	sess, err := s.newSession(opts, now)
	if err != nil {
		return nil, "", err
	}

	sess.EmployeeID = &emp.ID
	sess.OrganizationID = &emp.OrganizationID
	if emp.User != nil {
		sess.FirstName = emp.User.FirstName
		sess.LastName = emp.User.LastName
		sess.Email = emp.User.Email
		if opts.LanguagePreference == "" && i18n.Supported(emp.User.LanguagePreference) {
			sess.LanguagePreference = emp.User.LanguagePreference
		}
	}
	if emp.Organization != nil {
		sess.OrganizationName = emp.Organization.Name
	}

	if err := s.Repo.CreateSession(sess); err != nil {
		return nil, "", err
	}

	s.sendInvite(sess)
	return sess, mailer.OnboardingURL(s.BaseURL, sess.Token), nil
}

// WalkInInput identifies a candidate who has no employee record yet.
type WalkInInput struct {
	FirstName        string
	LastName         string
	Email            string
	OrganizationID   uuid.UUID
	OrganizationName string
}

// CreateWalkInSession starts onboarding for a candidate before any employee
// record exists (e.g. an approved job application).
func (s *Service) CreateWalkInSession(in WalkInInput, opts CreateOptions) (*models.OnboardingSession, string, error) {
	if in.FirstName == "" || in.LastName == "" || in.Email == "" {
		return nil, "", apperr.Validation("first_name, last_name and email are required", nil)
	}

	sess, err := s.newSession(opts, s.now())
	if err != nil {
		return nil, "", err
	}

	sess.FirstName = in.FirstName
	sess.LastName = in.LastName
	sess.Email = in.Email
	orgID := in.OrganizationID
	sess.OrganizationID = &orgID
	sess.OrganizationName = in.OrganizationName

	if err := s.Repo.CreateSession(sess); err != nil {
		return nil, "", err
	}

	s.sendInvite(sess)
	return sess, mailer.OnboardingURL(s.BaseURL, sess.Token), nil
}

func (s *Service) newSession(opts CreateOptions, now time.Time) (*models.OnboardingSession, error) {
	token, err := s.GenerateUniqueToken()
	if err != nil {
		return nil, err
	}

	hours := opts.ExpirationHours
	if hours <= 0 {
		hours = DefaultExpirationHours
	}

	lang := opts.LanguagePreference
	if lang == "" || !i18n.Supported(lang) {
		lang = i18n.DefaultLanguage
	}

	step := opts.CurrentStep
	if step == "" {
		step = models.StepLanguageSelection
	}

	formData := datatypes.JSON([]byte("{}"))
	if len(opts.FormData) > 0 {
		raw, err := json.Marshal(opts.FormData)
		if err != nil {
			return nil, apperr.Validation("form_data must be a JSON object", nil)
		}
		formData = datatypes.JSON(raw)
	}

	return &models.OnboardingSession{
		Token:              token,
		LanguagePreference: lang,
		CurrentStep:        step,
		FormData:           formData,
		Status:             models.SessionInProgress,
		ExpiresAt:          now.Add(time.Duration(hours) * time.Hour),
	}, nil
}

func (s *Service) sendInvite(sess *models.OnboardingSession) {
	if s.Mailer == nil || sess.Email == "" {
		return
	}
	name := sess.FirstName + " " + sess.LastName
	email := sess.Email
	org := sess.OrganizationName
	token := sess.Token
	go func() {
		if err := s.Mailer.SendOnboardingInvite(email, name, org, token, s.BaseURL); err != nil {
			log.Printf("[onboarding] invite email to %s failed: %v", email, err)
		}
	}()
}

// TokenValidation is the outcome of a candidate opening their link. Err holds
// the business reason when the token is not usable; repository failures come
// back as the second return value of ValidateToken instead.
type TokenValidation struct {
	IsValid   bool
	IsExpired bool
	Session   *models.OnboardingSession
	Err       *apperr.Error
}

// ValidateToken is the sole point of lazy expiration: an in_progress session
// past its deadline is flipped to expired here before the result is reported.
func (s *Service) ValidateToken(token string) (TokenValidation, error) {
	sess, err := s.Repo.FindSessionByToken(token)
	if errors.Is(err, ErrNotFound) {
		return TokenValidation{Err: apperr.InvalidToken("invalid onboarding token")}, nil
	}
	if err != nil {
		return TokenValidation{}, err
	}

	now := s.now()
	if sess.Status == models.SessionExpired ||
		(sess.Status == models.SessionInProgress && !sess.ExpiresAt.After(now)) {
		if sess.Status == models.SessionInProgress {
			sess.Status = models.SessionExpired
			if err := s.Repo.SaveSession(sess); err != nil {
				return TokenValidation{}, err
			}
		}
		return TokenValidation{
			IsExpired: true,
			Session:   sess,
			Err:       apperr.SessionExpired("onboarding session has expired"),
		}, nil
	}

	if sess.Status != models.SessionInProgress {
		return TokenValidation{
			Session: sess,
			Err:     apperr.SessionNotActive("onboarding session is no longer active"),
		}, nil
	}

	return TokenValidation{IsValid: true, Session: sess}, nil
}

// ProgressUpdate carries the optional fields of a candidate progress call.
type ProgressUpdate struct {
	CurrentStep        *string
	FormData           map[string]interface{}
	LanguagePreference *string
}

// UpdateProgress shallow-merges FormData per top-level key and persists the
// session in a single update. Expiration is re-checked with the same rule as
// ValidateToken.
func (s *Service) UpdateProgress(id uuid.UUID, upd ProgressUpdate) (*models.OnboardingSession, error) {
	sess, err := s.Repo.FindSessionByID(id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("onboarding session not found")
	}
	if err != nil {
		return nil, err
	}

	now := s.now()
	if sess.Status == models.SessionExpired ||
		(sess.Status == models.SessionInProgress && !sess.ExpiresAt.After(now)) {
		if sess.Status == models.SessionInProgress {
			sess.Status = models.SessionExpired
			if err := s.Repo.SaveSession(sess); err != nil {
				return nil, err
			}
		}
		return nil, apperr.SessionExpired("onboarding session has expired")
	}
	if sess.Status != models.SessionInProgress {
		return nil, apperr.SessionNotActive("onboarding session is no longer active")
	}

	if len(upd.FormData) > 0 {
		merged, err := mergeFormData(sess.FormData, upd.FormData)
		if err != nil {
			return nil, err
		}
		sess.FormData = merged
	}
	if upd.CurrentStep != nil && *upd.CurrentStep != "" {
		sess.CurrentStep = *upd.CurrentStep
	}
	if upd.LanguagePreference != nil {
		if !i18n.Supported(*upd.LanguagePreference) {
			return nil, apperr.Validation("language_preference must be en or es", nil)
		}
		sess.LanguagePreference = *upd.LanguagePreference
	}

	if err := s.Repo.SaveSession(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// mergeFormData overlays patch onto existing, top-level keys only: new keys
// are added, colliding keys overwritten, untouched keys preserved.
func mergeFormData(existing datatypes.JSON, patch map[string]interface{}) (datatypes.JSON, error) {
	current := map[string]interface{}{}
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &current); err != nil {
			// A corrupted blob should not brick the session: start fresh.
			current = map[string]interface{}{}
		}
	}
	for k, v := range patch {
		current[k] = v
	}
	raw, err := json.Marshal(current)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// CompleteSession closes an in_progress session.
func (s *Service) CompleteSession(id uuid.UUID) (*models.OnboardingSession, error) {
	sess, err := s.Repo.FindSessionByID(id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("onboarding session not found")
	}
	if err != nil {
		return nil, err
	}

	if sess.Status != models.SessionInProgress {
		return nil, apperr.SessionNotActive("only an in-progress session can be completed")
	}

	now := s.now()
	sess.Status = models.SessionCompleted
	sess.CompletedAt = &now
	sess.CurrentStep = models.StepCompleted

	if err := s.Repo.SaveSession(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// CancelSession cancels a session. Terminal sessions (completed or already
// cancelled) are rejected so completion stays final.
func (s *Service) CancelSession(id uuid.UUID) (*models.OnboardingSession, error) {
	sess, err := s.Repo.FindSessionByID(id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("onboarding session not found")
	}
	if err != nil {
		return nil, err
	}

	if sess.IsTerminal() {
		return nil, apperr.SessionNotActive("session is already finalized")
	}

	sess.Status = models.SessionCancelled
	if err := s.Repo.SaveSession(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// ExtendSession pushes the deadline out by additionalHours. An expired session
// is reactivated; terminal sessions cannot be extended.
func (s *Service) ExtendSession(id uuid.UUID, additionalHours int) (*models.OnboardingSession, error) {
	if additionalHours <= 0 {
		return nil, apperr.Validation("additional_hours must be positive", nil)
	}

	sess, err := s.Repo.FindSessionByID(id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("onboarding session not found")
	}
	if err != nil {
		return nil, err
	}

	if sess.IsTerminal() {
		return nil, apperr.SessionNotActive("session is already finalized")
	}

	sess.ExpiresAt = sess.ExpiresAt.Add(time.Duration(additionalHours) * time.Hour)
	if sess.Status == models.SessionExpired {
		sess.Status = models.SessionInProgress
	}

	if err := s.Repo.SaveSession(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *Service) ListSessions(f SessionFilter) ([]models.OnboardingSession, int64, error) {
	return s.Repo.ListSessions(f)
}

func (s *Service) GetSessionsByEmployee(employeeID uuid.UUID) ([]models.OnboardingSession, error) {
	return s.Repo.ListSessionsByEmployee(employeeID)
}

// GetActiveSessionByEmployee returns the employee's live session, or nil when
// there is none.
func (s *Service) GetActiveSessionByEmployee(employeeID uuid.UUID) (*models.OnboardingSession, error) {
	sess, err := s.Repo.FindActiveSessionByEmployee(employeeID, s.now())
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// MarkExpiredSessions is the periodic maintenance sweep: every in_progress
// session past its deadline flips to expired in bulk.
func (s *Service) MarkExpiredSessions() (int64, error) {
	return s.Repo.MarkExpiredSessions(s.now())
}
