package onboarding

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gramv/onboardingsoftware/internal/apperr"
	"github.com/gramv/onboardingsoftware/internal/models"
)

// fakeRepo is an in-memory Repository. It stores copies so a forgotten
// SaveSession call shows up as stale state, the same way a real DB would.
type fakeRepo struct {
	employees map[uuid.UUID]*models.Employee
	sessions  map[uuid.UUID]*models.OnboardingSession

	tokenAlwaysTaken bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		employees: map[uuid.UUID]*models.Employee{},
		sessions:  map[uuid.UUID]*models.OnboardingSession{},
	}
}

func (r *fakeRepo) FindEmployee(id uuid.UUID) (*models.Employee, error) {
	emp, ok := r.employees[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *emp
	return &cp, nil
}

func (r *fakeRepo) FindSessionByID(id uuid.UUID) (*models.OnboardingSession, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeRepo) FindSessionByToken(token string) (*models.OnboardingSession, error) {
	for _, s := range r.sessions {
		if s.Token == token {
			cp := *s
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fakeRepo) FindActiveSessionByEmployee(employeeID uuid.UUID, now time.Time) (*models.OnboardingSession, error) {
	for _, s := range r.sessions {
		if s.EmployeeID != nil && *s.EmployeeID == employeeID &&
			s.Status == models.SessionInProgress && s.ExpiresAt.After(now) {
			cp := *s
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fakeRepo) TokenExists(token string) (bool, error) {
	if r.tokenAlwaysTaken {
		return true, nil
	}
	_, err := r.FindSessionByToken(token)
	return err == nil, nil
}

func (r *fakeRepo) CreateSession(s *models.OnboardingSession) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *fakeRepo) SaveSession(s *models.OnboardingSession) error {
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *fakeRepo) ListSessions(f SessionFilter) ([]models.OnboardingSession, int64, error) {
	var out []models.OnboardingSession
	for _, s := range r.sessions {
		if f.Status != "" && s.Status != f.Status {
			continue
		}
		if f.EmployeeID != nil && (s.EmployeeID == nil || *s.EmployeeID != *f.EmployeeID) {
			continue
		}
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

func (r *fakeRepo) ListSessionsByEmployee(employeeID uuid.UUID) ([]models.OnboardingSession, error) {
	var out []models.OnboardingSession
	for _, s := range r.sessions {
		if s.EmployeeID != nil && *s.EmployeeID == employeeID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeRepo) MarkExpiredSessions(now time.Time) (int64, error) {
	var count int64
	for _, s := range r.sessions {
		if s.Status == models.SessionInProgress && s.ExpiresAt.Before(now) {
			s.Status = models.SessionExpired
			count++
		}
	}
	return count, nil
}

type recordingMailer struct {
	invites chan string
}

func (m *recordingMailer) SendOnboardingInvite(toEmail, candidateName, organizationName, token, baseURL string) error {
	m.invites <- toEmail
	return nil
}

func newTestService(repo *fakeRepo) (*Service, *recordingMailer) {
	m := &recordingMailer{invites: make(chan string, 8)}
	svc := NewService(repo, m, "http://localhost:3000")
	return svc, m
}

func seedEmployee(repo *fakeRepo) *models.Employee {
	userID := uuid.New()
	orgID := uuid.New()
	emp := &models.Employee{
		ID:             uuid.New(),
		UserID:         userID,
		OrganizationID: orgID,
		User: &models.User{
			ID:                 userID,
			Email:              "maria@example.com",
			FirstName:          "Maria",
			LastName:           "Lopez",
			LanguagePreference: "es",
			OrganizationID:     orgID,
		},
		Organization: &models.Organization{ID: orgID, Name: "Sunrise Motel"},
	}
	repo.employees[emp.ID] = emp
	return emp
}

func formDataMap(t *testing.T, sess *models.OnboardingSession) map[string]interface{} {
	t.Helper()
	out := map[string]interface{}{}
	if err := json.Unmarshal(sess.FormData, &out); err != nil {
		t.Fatalf("form data is not a JSON object: %v", err)
	}
	return out
}

func TestGenerateUniqueToken(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		tok, err := svc.GenerateUniqueToken()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(tok) != 12 {
			t.Fatalf("token %q has length %d, want 12", tok, len(tok))
		}
		for _, ch := range tok {
			if !(ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9') {
				t.Fatalf("token %q contains non-alphanumeric %q", tok, ch)
			}
		}
		if seen[tok] {
			t.Fatalf("duplicate token %q", tok)
		}
		seen[tok] = true
	}
}

func TestGenerateUniqueTokenExhausted(t *testing.T) {
	repo := newFakeRepo()
	repo.tokenAlwaysTaken = true
	svc, _ := newTestService(repo)

	_, err := svc.GenerateUniqueToken()
	if !apperr.Is(err, apperr.CodeTokenGenerationExhausted) {
		t.Fatalf("got %v, want TOKEN_GENERATION_EXHAUSTED", err)
	}
}

func TestCreateSessionDefaults(t *testing.T) {
	repo := newFakeRepo()
	svc, m := newTestService(repo)
	emp := seedEmployee(repo)

	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }

	sess, url, err := svc.CreateSession(emp.ID, CreateOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sess.Status != models.SessionInProgress {
		t.Errorf("status = %s, want in_progress", sess.Status)
	}
	if sess.CurrentStep != models.StepLanguageSelection {
		t.Errorf("current step = %s, want %s", sess.CurrentStep, models.StepLanguageSelection)
	}
	if want := start.Add(DefaultExpirationHours * time.Hour); !sess.ExpiresAt.Equal(want) {
		t.Errorf("expires at = %v, want %v", sess.ExpiresAt, want)
	}
	// employee's own preference carries over
	if sess.LanguagePreference != "es" {
		t.Errorf("language = %s, want es", sess.LanguagePreference)
	}
	if sess.FirstName != "Maria" || sess.Email != "maria@example.com" {
		t.Errorf("candidate identity not copied from employee: %+v", sess)
	}
	if sess.OrganizationName != "Sunrise Motel" {
		t.Errorf("organization name = %q", sess.OrganizationName)
	}
	if len(formDataMap(t, sess)) != 0 {
		t.Errorf("form data should start empty, got %s", sess.FormData)
	}
	if want := "http://localhost:3000/onboard/" + sess.Token; url != want {
		t.Errorf("onboarding url = %q, want %q", url, want)
	}

	select {
	case to := <-m.invites:
		if to != "maria@example.com" {
			t.Errorf("invite sent to %q", to)
		}
	case <-time.After(time.Second):
		t.Error("invite email was never dispatched")
	}
}

func TestCreateSessionEmployeeNotFound(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	_, _, err := svc.CreateSession(uuid.New(), CreateOptions{})
	if !apperr.Is(err, apperr.CodeNotFound) {
		t.Fatalf("got %v, want NOT_FOUND", err)
	}
}

func TestCreateSessionConflictOnActive(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	emp := seedEmployee(repo)

	if _, _, err := svc.CreateSession(emp.ID, CreateOptions{}); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	_, _, err := svc.CreateSession(emp.ID, CreateOptions{})
	if !apperr.Is(err, apperr.CodeConflict) {
		t.Fatalf("got %v, want CONFLICT", err)
	}
	if len(repo.sessions) != 1 {
		t.Fatalf("second row was persisted, have %d sessions", len(repo.sessions))
	}
}

func TestCreateSessionAllowedAfterExpiry(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	emp := seedEmployee(repo)

	start := time.Now()
	svc.now = func() time.Time { return start }

	if _, _, err := svc.CreateSession(emp.ID, CreateOptions{ExpirationHours: 1}); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	// the first session lapsed, a new one may be started
	svc.now = func() time.Time { return start.Add(2 * time.Hour) }
	if _, _, err := svc.CreateSession(emp.ID, CreateOptions{}); err != nil {
		t.Fatalf("create after expiry failed: %v", err)
	}
}

func TestValidateTokenLazyExpiration(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	emp := seedEmployee(repo)

	start := time.Now()
	svc.now = func() time.Time { return start }

	sess, _, err := svc.CreateSession(emp.ID, CreateOptions{ExpirationHours: 1})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	svc.now = func() time.Time { return start.Add(2 * time.Hour) }

	res, err := svc.ValidateToken(sess.Token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.IsValid || !res.IsExpired {
		t.Fatalf("result = %+v, want invalid+expired", res)
	}
	if !apperr.Is(res.Err, apperr.CodeSessionExpired) {
		t.Fatalf("err = %v, want SESSION_EXPIRED", res.Err)
	}

	// expiration must have been persisted, and must stick
	stored := repo.sessions[sess.ID]
	if stored.Status != models.SessionExpired {
		t.Fatalf("persisted status = %s, want expired", stored.Status)
	}

	res2, err := svc.ValidateToken(sess.Token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res2.IsExpired {
		t.Fatalf("second validation should still report expired")
	}
}

func TestValidateTokenUnknown(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	res, err := svc.ValidateToken("nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.IsValid || res.IsExpired {
		t.Fatalf("result = %+v, want plain invalid", res)
	}
	if !apperr.Is(res.Err, apperr.CodeInvalidToken) {
		t.Fatalf("err = %v, want INVALID_TOKEN", res.Err)
	}
}

func TestValidateTokenTerminalSession(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	emp := seedEmployee(repo)

	sess, _, err := svc.CreateSession(emp.ID, CreateOptions{})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := svc.CompleteSession(sess.ID); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	res, err := svc.ValidateToken(sess.Token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.IsValid {
		t.Fatal("completed session should not validate")
	}
	if !apperr.Is(res.Err, apperr.CodeSessionNotActive) {
		t.Fatalf("err = %v, want SESSION_NOT_ACTIVE", res.Err)
	}
}

func TestUpdateProgressMergesFormData(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	emp := seedEmployee(repo)

	sess, _, err := svc.CreateSession(emp.ID, CreateOptions{
		FormData: map[string]interface{}{"b": float64(2)},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	updated, err := svc.UpdateProgress(sess.ID, ProgressUpdate{
		FormData: map[string]interface{}{"a": float64(1)},
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	want := map[string]interface{}{"a": float64(1), "b": float64(2)}
	if got := formDataMap(t, updated); !reflect.DeepEqual(got, want) {
		t.Fatalf("form data = %v, want %v", got, want)
	}

	// repeating the same patch changes nothing
	again, err := svc.UpdateProgress(sess.ID, ProgressUpdate{
		FormData: map[string]interface{}{"a": float64(1)},
	})
	if err != nil {
		t.Fatalf("repeat update failed: %v", err)
	}
	if got := formDataMap(t, again); !reflect.DeepEqual(got, want) {
		t.Fatalf("repeat changed form data: %v", got)
	}
}

func TestUpdateProgressSequentialSteps(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	emp := seedEmployee(repo)

	sess, _, err := svc.CreateSession(emp.ID, CreateOptions{})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	step := "document_upload"
	if _, err := svc.UpdateProgress(sess.ID, ProgressUpdate{
		CurrentStep: &step,
		FormData:    map[string]interface{}{"step1": "done"},
	}); err != nil {
		t.Fatalf("first update failed: %v", err)
	}

	final, err := svc.UpdateProgress(sess.ID, ProgressUpdate{
		FormData: map[string]interface{}{"step2": "done"},
	})
	if err != nil {
		t.Fatalf("second update failed: %v", err)
	}

	want := map[string]interface{}{"step1": "done", "step2": "done"}
	if got := formDataMap(t, final); !reflect.DeepEqual(got, want) {
		t.Fatalf("form data = %v, want %v", got, want)
	}
	if final.CurrentStep != "document_upload" {
		t.Fatalf("current step = %s", final.CurrentStep)
	}
}

func TestUpdateProgressExpiredSession(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	emp := seedEmployee(repo)

	start := time.Now()
	svc.now = func() time.Time { return start }

	sess, _, err := svc.CreateSession(emp.ID, CreateOptions{ExpirationHours: 1})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	svc.now = func() time.Time { return start.Add(2 * time.Hour) }

	_, err = svc.UpdateProgress(sess.ID, ProgressUpdate{
		FormData: map[string]interface{}{"a": float64(1)},
	})
	if !apperr.Is(err, apperr.CodeSessionExpired) {
		t.Fatalf("got %v, want SESSION_EXPIRED", err)
	}
	if repo.sessions[sess.ID].Status != models.SessionExpired {
		t.Fatal("expiration was not persisted")
	}
}

func TestCompleteSession(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	emp := seedEmployee(repo)

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	sess, _, err := svc.CreateSession(emp.ID, CreateOptions{})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	done, err := svc.CompleteSession(sess.ID)
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if done.Status != models.SessionCompleted {
		t.Errorf("status = %s", done.Status)
	}
	if done.CompletedAt == nil || !done.CompletedAt.Equal(now) {
		t.Errorf("completed at = %v, want %v", done.CompletedAt, now)
	}
	if done.CurrentStep != models.StepCompleted {
		t.Errorf("current step = %s", done.CurrentStep)
	}

	// completion is final
	if _, err := svc.CompleteSession(sess.ID); !apperr.Is(err, apperr.CodeSessionNotActive) {
		t.Fatalf("second complete: got %v, want SESSION_NOT_ACTIVE", err)
	}
}

func TestCancelSession(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	emp := seedEmployee(repo)

	sess, _, err := svc.CreateSession(emp.ID, CreateOptions{})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	cancelled, err := svc.CancelSession(sess.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != models.SessionCancelled {
		t.Errorf("status = %s", cancelled.Status)
	}

	// a finalized session stays finalized
	if _, err := svc.CancelSession(sess.ID); !apperr.Is(err, apperr.CodeSessionNotActive) {
		t.Fatalf("re-cancel: got %v, want SESSION_NOT_ACTIVE", err)
	}
}

func TestCancelCompletedSessionRejected(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	emp := seedEmployee(repo)

	sess, _, err := svc.CreateSession(emp.ID, CreateOptions{})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := svc.CompleteSession(sess.ID); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	if _, err := svc.CancelSession(sess.ID); !apperr.Is(err, apperr.CodeSessionNotActive) {
		t.Fatalf("got %v, want SESSION_NOT_ACTIVE", err)
	}
	if repo.sessions[sess.ID].Status != models.SessionCompleted {
		t.Fatal("completed status was overwritten")
	}
}

func TestExtendSessionReactivatesExpired(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	emp := seedEmployee(repo)

	start := time.Now()
	svc.now = func() time.Time { return start }

	sess, _, err := svc.CreateSession(emp.ID, CreateOptions{ExpirationHours: 1})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	svc.now = func() time.Time { return start.Add(2 * time.Hour) }
	if _, err := svc.ValidateToken(sess.Token); err != nil {
		t.Fatalf("validate failed: %v", err)
	}

	oldDeadline := repo.sessions[sess.ID].ExpiresAt
	extended, err := svc.ExtendSession(sess.ID, 24)
	if err != nil {
		t.Fatalf("extend failed: %v", err)
	}

	if extended.Status != models.SessionInProgress {
		t.Errorf("status = %s, want in_progress", extended.Status)
	}
	if want := oldDeadline.Add(24 * time.Hour); !extended.ExpiresAt.Equal(want) {
		t.Errorf("expires at = %v, want %v", extended.ExpiresAt, want)
	}
}

func TestExtendSessionRejectsBadInput(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	emp := seedEmployee(repo)

	sess, _, err := svc.CreateSession(emp.ID, CreateOptions{})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := svc.ExtendSession(sess.ID, 0); !apperr.Is(err, apperr.CodeValidation) {
		t.Fatalf("got %v, want VALIDATION_ERROR", err)
	}
	if _, err := svc.ExtendSession(uuid.New(), 5); !apperr.Is(err, apperr.CodeNotFound) {
		t.Fatalf("got %v, want NOT_FOUND", err)
	}
}

func TestMarkExpiredSessions(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	now := time.Now()
	svc.now = func() time.Time { return now }

	put := func(status models.SessionStatus, expiresAt time.Time) uuid.UUID {
		id := uuid.New()
		repo.sessions[id] = &models.OnboardingSession{
			ID:        id,
			Token:     id.String()[:12],
			Status:    status,
			ExpiresAt: expiresAt,
		}
		return id
	}

	a := put(models.SessionInProgress, now.Add(-time.Hour))
	b := put(models.SessionInProgress, now.Add(-time.Minute))
	live := put(models.SessionInProgress, now.Add(time.Hour))
	done := put(models.SessionCompleted, now.Add(-time.Hour))

	count, err := svc.MarkExpiredSessions()
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
	for _, id := range []uuid.UUID{a, b} {
		if repo.sessions[id].Status != models.SessionExpired {
			t.Errorf("session %s not expired", id)
		}
	}
	if repo.sessions[live].Status != models.SessionInProgress {
		t.Error("live session was swept")
	}
	if repo.sessions[done].Status != models.SessionCompleted {
		t.Error("completed session was swept")
	}
}

func TestCreateWalkInSession(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	orgID := uuid.New()
	sess, url, err := svc.CreateWalkInSession(WalkInInput{
		FirstName:        "Jon",
		LastName:         "Snow",
		Email:            "jon@example.com",
		OrganizationID:   orgID,
		OrganizationName: "Winterfell Inn",
	}, CreateOptions{LanguagePreference: "en"})
	if err != nil {
		t.Fatalf("walk-in create failed: %v", err)
	}

	if sess.EmployeeID != nil {
		t.Error("walk-in session should have no employee")
	}
	if sess.OrganizationID == nil || *sess.OrganizationID != orgID {
		t.Error("organization not carried inline")
	}
	if sess.FirstName != "Jon" || sess.Email != "jon@example.com" {
		t.Errorf("candidate identity missing: %+v", sess)
	}
	if url == "" {
		t.Error("onboarding url missing")
	}

	_, _, err = svc.CreateWalkInSession(WalkInInput{FirstName: "Jon"}, CreateOptions{})
	if !apperr.Is(err, apperr.CodeValidation) {
		t.Fatalf("got %v, want VALIDATION_ERROR", err)
	}
}

func TestGetActiveSessionByEmployee(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	emp := seedEmployee(repo)

	got, err := svc.GetActiveSessionByEmployee(emp.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected no active session, got %+v", got)
	}

	sess, _, err := svc.CreateSession(emp.ID, CreateOptions{})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err = svc.GetActiveSessionByEmployee(emp.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.ID != sess.ID {
		t.Fatalf("active session lookup = %+v", got)
	}
}
