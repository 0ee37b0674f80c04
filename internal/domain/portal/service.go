package portal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/ehr/portal/internal/platform/apperr"
	"github.com/ehr/portal/internal/platform/auth"
	"github.com/ehr/portal/internal/platform/phone"
)

const (
	minPasswordLength = 8
	// bcrypt ignores everything past 72 bytes
	maxPasswordLength = 72
	birthDateLayout   = "2006-01-02"
)

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Issue(subject string, roles ...string) (auth.Token, error)
}

type Service struct {
	accounts AccountRepository
	tokens   TokenIssuer
	logger   zerolog.Logger
	now      func() time.Time
	hashCost int
	revoked  auth.RevocationStore
	// compared against when the username is unknown so both paths cost a
	// bcrypt comparison
	dummyHash []byte
}

type Option func(*Service)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithHashCost sets the bcrypt cost; tests use bcrypt.MinCost.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.hashCost = cost }
}

// WithRevocations lets Logout invalidate the caller's token.
func WithRevocations(store auth.RevocationStore) Option {
	return func(s *Service) { s.revoked = store }
}

func NewService(accounts AccountRepository, tokens TokenIssuer, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		accounts: accounts,
		tokens:   tokens,
		logger:   logger.With().Str("component", "portal").Logger(),
		now:      time.Now,
		hashCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.hashCost)
	return s
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*Account, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	email := strings.ToLower(strings.TrimSpace(in.Email))

	switch {
	case username == "":
		return nil, apperr.Invalid("username", "is required")
	case email == "":
		return nil, apperr.Invalid("email", "is required")
	case strings.TrimSpace(in.FirstName) == "":
		return nil, apperr.Invalid("first_name", "is required")
	case strings.TrimSpace(in.LastName) == "":
		return nil, apperr.Invalid("last_name", "is required")
	}
	if err := checkPassword("password", in.Password); err != nil {
		return nil, err
	}
	birth, err := s.parseBirthDate(in.BirthDate)
	if err != nil {
		return nil, err
	}
	intl, country, err := normalizePhone(in.Phone)
	if err != nil {
		return nil, err
	}

	exists, err := s.accounts.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, fmt.Errorf("check existing account: %w", err)
	}
	if exists {
		return nil, apperr.Conflict("username or email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	a := &Account{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		BirthDate:    birth,
		Phone:        intl,
		PhoneCountry: country,
		Status:       StatusActive,
	}
	if err := s.accounts.Create(ctx, a); err != nil {
		return nil, err
	}
	s.logger.Info().Str("account_id", a.ID.String()).Str("phone_country", country).Msg("account registered")
	return a, nil
}

func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	a, err := s.accounts.GetByUsername(ctx, username)
	if errors.Is(err, apperr.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		s.logger.Warn().Str("username", username).Msg("login for unknown username")
		return nil, apperr.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn().Str("account_id", a.ID.String()).Msg("login with wrong password")
		return nil, apperr.ErrInvalidCredentials
	}
	if a.Status != StatusActive {
		s.logger.Warn().Str("account_id", a.ID.String()).Str("status", a.Status).Msg("login to disabled account")
		return nil, fmt.Errorf("account is %s: %w", a.Status, apperr.ErrForbidden)
	}

	now := s.now().UTC()
	if err := s.accounts.UpdateLastLogin(ctx, a.ID, now); err != nil {
		return nil, fmt.Errorf("record last login: %w", err)
	}
	a.LastLoginAt = &now

	token, err := s.tokens.Issue(a.ID.String(), auth.RolePatient)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, Account: a}, nil
}

func (s *Service) GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	a, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewProfile(a), nil
}

func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, in ProfileUpdate) (*Profile, error) {
	a, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email == "" {
			return nil, apperr.Invalid("email", "cannot be empty")
		}
		a.Email = email
	}
	if in.FirstName != nil {
		if strings.TrimSpace(*in.FirstName) == "" {
			return nil, apperr.Invalid("first_name", "cannot be empty")
		}
		a.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		if strings.TrimSpace(*in.LastName) == "" {
			return nil, apperr.Invalid("last_name", "cannot be empty")
		}
		a.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.BirthDate != nil {
		birth, err := s.parseBirthDate(*in.BirthDate)
		if err != nil {
			return nil, err
		}
		a.BirthDate = birth
	}
	if in.Phone != nil {
		intl, country, err := normalizePhone(in.Phone)
		if err != nil {
			return nil, err
		}
		a.Phone, a.PhoneCountry = intl, country
	}

	if err := s.accounts.Update(ctx, a); err != nil {
		return nil, err
	}
	return NewProfile(a), nil
}

func (s *Service) ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error {
	a, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(current)); err != nil {
		return apperr.ErrInvalidCredentials
	}
	if err := checkPassword("new_password", next); err != nil {
		return err
	}
	if current == next {
		return apperr.Invalid("new_password", "must differ from the current password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.hashCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	a.PasswordHash = string(hash)
	if err := s.accounts.Update(ctx, a); err != nil {
		return err
	}
	s.logger.Info().Str("account_id", a.ID.String()).Msg("password changed")
	return nil
}

// Logout revokes the presented token until it expires. Without a revocation
// store it is a no-op and the client simply discards the token.
func (s *Service) Logout(ctx context.Context, id uuid.UUID, token auth.TokenRef) error {
	if s.revoked == nil || token.ID == "" {
		return nil
	}
	if err := s.revoked.Revoke(ctx, token.ID, token.ExpiresAt); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	s.logger.Info().Str("account_id", id.String()).Msg("logged out")
	return nil
}

func checkPassword(field, pw string) error {
	if len(pw) < minPasswordLength {
		return apperr.Invalid(field, "must be at least %d characters", minPasswordLength)
	}
	if len(pw) > maxPasswordLength {
		return apperr.Invalid(field, "must be at most %d bytes", maxPasswordLength)
	}
	return nil
}

func (s *Service) parseBirthDate(v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	d, err := time.Parse(birthDateLayout, v)
	if err != nil {
		return nil, apperr.Invalid("birth_date", "must be in the form YYYY-MM-DD")
	}
	if d.After(s.now()) {
		return nil, apperr.Invalid("birth_date", "cannot be in the future")
	}
	return &d, nil
}

// normalizePhone validates a form pair and returns the international string
// and country to persist. An absent pair or empty national number clears the
// phone.
func normalizePhone(in *PhoneInput) (international, country string, err error) {
	if in == nil || phone.Digits(in.National) == "" {
		return "", "", nil
	}
	c, ok := phone.Lookup(in.Country)
	if !ok {
		return "", "", apperr.Invalid("phone.country", "must be a supported country code")
	}
	if !phone.IsComplete(c.Code, in.National) {
		lo, hi := c.Bounds()
		if lo == hi {
			return "", "", apperr.Invalid("phone.national", "must be a complete %s number of %d digits", c.Name, hi)
		}
		return "", "", apperr.Invalid("phone.national", "must be a complete %s number of %d to %d digits", c.Name, lo, hi)
	}
	return phone.Combine(c.Code, in.National), c.Code, nil
}
