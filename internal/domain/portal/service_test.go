package portal

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/ehr/portal/internal/platform/apperr"
	"github.com/ehr/portal/internal/platform/auth"
)

// ── Mock Repository ──

type mockAccountRepo struct {
	data map[uuid.UUID]*Account
}

func newMockAccountRepo() *mockAccountRepo {
	return &mockAccountRepo{data: make(map[uuid.UUID]*Account)}
}

func (m *mockAccountRepo) Create(_ context.Context, a *Account) error {
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	m.data[a.ID] = &cp
	return nil
}
func (m *mockAccountRepo) GetByID(_ context.Context, id uuid.UUID) (*Account, error) {
	if a, ok := m.data[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, fmt.Errorf("portal account: %w", apperr.ErrNotFound)
}
func (m *mockAccountRepo) GetByUsername(_ context.Context, username string) (*Account, error) {
	for _, a := range m.data {
		if a.Username == username {
			cp := *a
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("portal account: %w", apperr.ErrNotFound)
}
func (m *mockAccountRepo) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	for _, a := range m.data {
		if a.Username == username || a.Email == email {
			return true, nil
		}
	}
	return false, nil
}
func (m *mockAccountRepo) Update(_ context.Context, a *Account) error {
	if _, ok := m.data[a.ID]; !ok {
		return fmt.Errorf("portal account: %w", apperr.ErrNotFound)
	}
	cp := *a
	m.data[a.ID] = &cp
	return nil
}
func (m *mockAccountRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	a, ok := m.data[id]
	if !ok {
		return fmt.Errorf("portal account: %w", apperr.ErrNotFound)
	}
	a.LastLoginAt = &at
	return nil
}

var testNow = time.Date(2026, 5, 10, 9, 30, 0, 0, time.UTC)

func newTestService() (*Service, *mockAccountRepo) {
	repo := newMockAccountRepo()
	issuer := auth.NewIssuer(auth.JWTConfig{SigningKey: []byte("portal-test-signing-key"), TTL: time.Hour})
	svc := NewService(repo, issuer, zerolog.Nop(),
		WithHashCost(bcrypt.MinCost),
		WithClock(func() time.Time { return testNow }),
	)
	return svc, repo
}

func validRegister() RegisterInput {
	return RegisterInput{
		Username:  "Ana.Gomez",
		Email:     "Ana@Example.com",
		Password:  "Secr3t!pass",
		FirstName: "Ana",
		LastName:  "Gómez",
		BirthDate: "1990-04-12",
		Phone:     &PhoneInput{Country: "CO", National: "300 123 4567"},
	}
}

// ── Register ──

func TestService_Register(t *testing.T) {
	svc, repo := newTestService()
	a, err := svc.Register(context.Background(), validRegister())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.ID == uuid.Nil {
		t.Error("expected ID to be set")
	}
	if a.Username != "ana.gomez" || a.Email != "ana@example.com" {
		t.Errorf("expected normalised username/email, got %s %s", a.Username, a.Email)
	}
	if a.Phone != "+573001234567" || a.PhoneCountry != "CO" {
		t.Errorf("expected combined phone, got %q %q", a.Phone, a.PhoneCountry)
	}
	if a.Status != StatusActive {
		t.Errorf("expected active status, got %s", a.Status)
	}
	if a.BirthDate == nil || a.BirthDate.Format(birthDateLayout) != "1990-04-12" {
		t.Errorf("unexpected birth date %v", a.BirthDate)
	}
	stored := repo.data[a.ID]
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("Secr3t!pass")); err != nil {
		t.Errorf("stored hash does not match password: %v", err)
	}
}

func TestService_Register_WithoutPhone(t *testing.T) {
	svc, _ := newTestService()
	in := validRegister()
	in.Phone = nil
	a, err := svc.Register(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Phone != "" || a.PhoneCountry != "" {
		t.Errorf("expected empty phone, got %q %q", a.Phone, a.PhoneCountry)
	}
}

func TestService_Register_SharedDialCodeKeepsCountry(t *testing.T) {
	svc, _ := newTestService()
	in := validRegister()
	in.Phone = &PhoneInput{Country: "CA", National: "(416) 555-0123"}
	a, err := svc.Register(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Phone != "+14165550123" || a.PhoneCountry != "CA" {
		t.Errorf("expected +14165550123/CA, got %q/%q", a.Phone, a.PhoneCountry)
	}
}

func TestService_Register_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *RegisterInput)
		field  string
	}{
		{"missing username", func(in *RegisterInput) { in.Username = "  " }, "username"},
		{"missing email", func(in *RegisterInput) { in.Email = "" }, "email"},
		{"missing first name", func(in *RegisterInput) { in.FirstName = "" }, "first_name"},
		{"missing last name", func(in *RegisterInput) { in.LastName = "" }, "last_name"},
		{"short password", func(in *RegisterInput) { in.Password = "short" }, "password"},
		{"bad birth date", func(in *RegisterInput) { in.BirthDate = "12/04/1990" }, "birth_date"},
		{"future birth date", func(in *RegisterInput) { in.BirthDate = "2030-01-01" }, "birth_date"},
		{"unknown phone country", func(in *RegisterInput) { in.Phone.Country = "ZZ" }, "phone.country"},
		{"incomplete phone", func(in *RegisterInput) { in.Phone.National = "30012" }, "phone.national"},
		{"bad nanp phone", func(in *RegisterInput) { in.Phone = &PhoneInput{Country: "US", National: "1015550123"} }, "phone.national"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService()
			in := validRegister()
			tt.mutate(&in)
			_, err := svc.Register(context.Background(), in)
			var ve *apperr.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, ve.Field)
			}
		})
	}
}

func TestService_Register_Duplicate(t *testing.T) {
	svc, _ := newTestService()
	if _, err := svc.Register(context.Background(), validRegister()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	in := validRegister()
	in.Username = "someone-else"
	_, err := svc.Register(context.Background(), in)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate email, got %v", err)
	}
}

// ── Login ──

func TestService_Login(t *testing.T) {
	svc, repo := newTestService()
	a, _ := svc.Register(context.Background(), validRegister())

	s, err := svc.Login(context.Background(), " ANA.GOMEZ ", "Secr3t!pass")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.AccessToken == "" || s.TokenType != "Bearer" {
		t.Errorf("expected bearer token, got %+v", s.Token)
	}
	if s.Account.ID != a.ID {
		t.Errorf("expected account %s, got %s", a.ID, s.Account.ID)
	}
	if got := repo.data[a.ID].LastLoginAt; got == nil || !got.Equal(testNow) {
		t.Errorf("expected last login %s, got %v", testNow, got)
	}
}

func TestService_Login_Failures(t *testing.T) {
	svc, repo := newTestService()
	a, _ := svc.Register(context.Background(), validRegister())

	if _, err := svc.Login(context.Background(), "ana.gomez", "Wr0ng!pass"); !errors.Is(err, apperr.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "nobody", "Secr3t!pass"); !errors.Is(err, apperr.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}

	repo.data[a.ID].Status = StatusLocked
	if _, err := svc.Login(context.Background(), "ana.gomez", "Secr3t!pass"); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("expected ErrForbidden for locked account, got %v", err)
	}
}

// ── Profile ──

func TestService_GetProfile_TrustsStoredCountry(t *testing.T) {
	svc, repo := newTestService()
	a, _ := svc.Register(context.Background(), validRegister())
	repo.data[a.ID].Phone = "+14165550123"
	repo.data[a.ID].PhoneCountry = "CA"

	p, err := svc.GetProfile(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Phone.Country != "CA" || p.Phone.National != "4165550123" {
		t.Errorf("expected CA/4165550123, got %s/%s", p.Phone.Country, p.Phone.National)
	}
	if p.Phone.Display != "+1 (416) 555-0123" {
		t.Errorf("unexpected display %q", p.Phone.Display)
	}
}

func TestService_GetProfile_LegacyPhoneWithoutCountry(t *testing.T) {
	svc, repo := newTestService()
	a, _ := svc.Register(context.Background(), validRegister())
	repo.data[a.ID].PhoneCountry = ""

	p, err := svc.GetProfile(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Phone.Country != "CO" || p.Phone.National != "3001234567" {
		t.Errorf("expected prefix inference to give CO/3001234567, got %s/%s", p.Phone.Country, p.Phone.National)
	}
	if p.Phone.Display != "+57 300 123 4567" {
		t.Errorf("unexpected display %q", p.Phone.Display)
	}
}

func TestService_GetProfile_NoPhone(t *testing.T) {
	svc, _ := newTestService()
	in := validRegister()
	in.Phone = nil
	a, _ := svc.Register(context.Background(), in)

	p, err := svc.GetProfile(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Phone.Country != "CO" || p.Phone.National != "" || p.Phone.Display != "" {
		t.Errorf("expected default country with empty number, got %+v", p.Phone)
	}
}

func TestService_GetProfile_NotFound(t *testing.T) {
	svc, _ := newTestService()
	if _, err := svc.GetProfile(context.Background(), uuid.New()); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_UpdateProfile(t *testing.T) {
	svc, repo := newTestService()
	a, _ := svc.Register(context.Background(), validRegister())

	first := "  Ana María "
	p, err := svc.UpdateProfile(context.Background(), a.ID, ProfileUpdate{
		FirstName: &first,
		Phone:     &PhoneInput{Country: "mx", National: "55 1234 5678"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.FirstName != "Ana María" {
		t.Errorf("expected trimmed first name, got %q", p.FirstName)
	}
	if p.LastName != "Gómez" {
		t.Errorf("expected untouched last name, got %q", p.LastName)
	}
	stored := repo.data[a.ID]
	if stored.Phone != "+525512345678" || stored.PhoneCountry != "MX" {
		t.Errorf("expected +525512345678/MX, got %q/%q", stored.Phone, stored.PhoneCountry)
	}
}

func TestService_UpdateProfile_ClearsPhone(t *testing.T) {
	svc, repo := newTestService()
	a, _ := svc.Register(context.Background(), validRegister())

	_, err := svc.UpdateProfile(context.Background(), a.ID, ProfileUpdate{Phone: &PhoneInput{Country: "CO"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.data[a.ID].Phone != "" || repo.data[a.ID].PhoneCountry != "" {
		t.Errorf("expected phone to be cleared, got %+v", repo.data[a.ID])
	}
}

func TestService_UpdateProfile_RejectsIncompletePhone(t *testing.T) {
	svc, repo := newTestService()
	a, _ := svc.Register(context.Background(), validRegister())

	_, err := svc.UpdateProfile(context.Background(), a.ID, ProfileUpdate{Phone: &PhoneInput{Country: "ES", National: "512345678"}})
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) || ve.Field != "phone.national" {
		t.Fatalf("expected phone.national validation error, got %v", err)
	}
	if repo.data[a.ID].Phone != "+573001234567" {
		t.Errorf("expected stored phone to be untouched, got %q", repo.data[a.ID].Phone)
	}
}

func TestService_UpdateProfile_EmptyEmail(t *testing.T) {
	svc, _ := newTestService()
	a, _ := svc.Register(context.Background(), validRegister())
	empty := " "
	_, err := svc.UpdateProfile(context.Background(), a.ID, ProfileUpdate{Email: &empty})
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

// ── Password ──

func TestService_ChangePassword(t *testing.T) {
	svc, _ := newTestService()
	a, _ := svc.Register(context.Background(), validRegister())

	if err := svc.ChangePassword(context.Background(), a.ID, "Secr3t!pass", "N3w!password"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Login(context.Background(), "ana.gomez", "N3w!password"); err != nil {
		t.Errorf("expected login with new password, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "ana.gomez", "Secr3t!pass"); !errors.Is(err, apperr.ErrInvalidCredentials) {
		t.Errorf("expected old password to fail, got %v", err)
	}
}

func TestService_ChangePassword_Failures(t *testing.T) {
	svc, _ := newTestService()
	a, _ := svc.Register(context.Background(), validRegister())

	if err := svc.ChangePassword(context.Background(), a.ID, "wrong", "N3w!password"); !errors.Is(err, apperr.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	var ve *apperr.ValidationError
	if err := svc.ChangePassword(context.Background(), a.ID, "Secr3t!pass", "Secr3t!pass"); !errors.As(err, &ve) {
		t.Errorf("expected ValidationError for unchanged password, got %v", err)
	}
	if err := svc.ChangePassword(context.Background(), a.ID, "Secr3t!pass", "short"); !errors.As(err, &ve) {
		t.Errorf("expected ValidationError for short password, got %v", err)
	}
}
