package portal

import (
	"time"

	"github.com/google/uuid"

	"github.com/ehr/portal/internal/platform/auth"
	"github.com/ehr/portal/internal/platform/phone"
)

// Account statuses.
const (
	StatusActive   = "active"
	StatusLocked   = "locked"
	StatusInactive = "inactive"
)

// Account maps to the portal_account table. Phone holds the combined
// international string; PhoneCountry is stored beside it because digits alone
// cannot tell apart countries that share a dial code.
type Account struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FirstName    string     `db:"first_name" json:"first_name"`
	LastName     string     `db:"last_name" json:"last_name"`
	BirthDate    *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Phone        string     `db:"phone" json:"phone,omitempty"`
	PhoneCountry string     `db:"phone_country" json:"phone_country,omitempty"`
	Status       string     `db:"status" json:"status"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// PhoneInput is the (country, national) pair a form submits.
type PhoneInput struct {
	Country  string `json:"country" validate:"omitempty,country"`
	National string `json:"national"`
}

type RegisterInput struct {
	Username  string      `json:"username" validate:"required,min=3,max=64"`
	Email     string      `json:"email" validate:"required,email,max=255"`
	Password  string      `json:"password" validate:"required,strongpassword,max=72"`
	FirstName string      `json:"first_name" validate:"required,max=100"`
	LastName  string      `json:"last_name" validate:"required,max=100"`
	BirthDate string      `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	Phone     *PhoneInput `json:"phone"`
}

type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ProfileUpdate is a partial update; nil fields are left alone. A phone with
// an empty national number clears the stored phone.
type ProfileUpdate struct {
	Email     *string     `json:"email" validate:"omitempty,email,max=255"`
	FirstName *string     `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName  *string     `json:"last_name" validate:"omitempty,min=1,max=100"`
	BirthDate *string     `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	Phone     *PhoneInput `json:"phone"`
}

type PasswordChange struct {
	Current string `json:"current_password" validate:"required"`
	New     string `json:"new_password" validate:"required,strongpassword,max=72"`
}

// Session is returned by a successful login.
type Session struct {
	auth.Token
	Account *Account `json:"account"`
}

// PhoneView is the edit-side and read-side rendering of a stored phone.
type PhoneView struct {
	International string `json:"international"`
	Country       string `json:"country"`
	National      string `json:"national"`
	Display       string `json:"display,omitempty"`
	LineType      string `json:"line_type,omitempty"`
}

// Profile is what /me returns.
type Profile struct {
	ID          uuid.UUID  `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	BirthDate   *time.Time `json:"birth_date,omitempty"`
	Status      string     `json:"status"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	Phone       PhoneView  `json:"phone"`
}

// NewProfile splits the stored phone back into its pair, trusting the stored
// country over what the dial code alone would suggest.
func NewProfile(a *Account) *Profile {
	v := phone.Split(a.Phone, phone.Trusted(a.PhoneCountry))
	view := PhoneView{
		International: a.Phone,
		Country:       v.Country,
		National:      v.National,
	}
	if v.National != "" {
		view.Display = phone.Display(v)
		view.LineType = phone.LineType(a.Phone)
	}
	return &Profile{
		ID:          a.ID,
		Username:    a.Username,
		Email:       a.Email,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		BirthDate:   a.BirthDate,
		Status:      a.Status,
		LastLoginAt: a.LastLoginAt,
		CreatedAt:   a.CreatedAt,
		Phone:       view,
	}
}
