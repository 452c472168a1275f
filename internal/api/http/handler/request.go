package handler

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/dtroode/auth-server/internal/model"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{4,15}$`)

var emailFolder = cases.Fold()

// CanonicalEmail trims, NFKC-normalizes and case-folds an address so that
// lookups and the unique index agree on one spelling.
func CanonicalEmail(email string) string {
	return emailFolder.String(norm.NFKC.String(strings.TrimSpace(email)))
}

// parseDate accepts RFC 3339 timestamps and bare ISO 8601 dates.
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, errors.New("must be an ISO 8601 date")
	}
	return t, nil
}

func isoDate(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	_, err := parseDate(s)
	return err
}

func strongPassword(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	var lower, upper, digit, symbol bool
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	if !lower || !upper || !digit || !symbol {
		return errors.New("must contain a lowercase letter, an uppercase letter, a digit and a symbol")
	}
	return nil
}

func stringEquals(other string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != other {
			return errors.New("must match password")
		}
		return nil
	}
}

func validUsername(value any) error {
	s, _ := value.(*string)
	if s == nil {
		return nil
	}
	if !usernamePattern.MatchString(*s) {
		return errors.New("must be 4-15 letters, digits or underscores")
	}
	if strings.Trim(*s, "0123456789") == "" {
		return errors.New("must not be only digits")
	}
	return nil
}

func passwordRules() []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.Length(8, 50),
		validation.By(strongPassword),
	}
}

// RegisterRequest is the body of POST /users/register.
type RegisterRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	DateOfBirth     string `json:"date_of_birth"`
}

func (r *RegisterRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = CanonicalEmail(r.Email)
}

// Validate runs validation rules.
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, passwordRules()...),
		validation.Field(&r.ConfirmPassword, append(passwordRules(), validation.By(stringEquals(r.Password)))...),
		validation.Field(&r.DateOfBirth, validation.Required, validation.By(isoDate)),
	)
}

func (r RegisterRequest) params() model.RegisterParams {
	dob, _ := parseDate(r.DateOfBirth)
	return model.RegisterParams{
		Email:       r.Email,
		Password:    r.Password,
		Name:        r.Name,
		DateOfBirth: dob,
	}
}

// LoginRequest is the body of POST /users/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) normalize() {
	r.Email = CanonicalEmail(r.Email)
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 50)),
	)
}

// RefreshTokenRequest is the body of POST /users/logout and POST /users/refresh-token.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (r *RefreshTokenRequest) normalize() {
	r.RefreshToken = strings.TrimSpace(r.RefreshToken)
}

func (r RefreshTokenRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RefreshToken, validation.Required),
	)
}

// ForgotPasswordRequest is the body of POST /users/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

func (r *ForgotPasswordRequest) normalize() {
	r.Email = CanonicalEmail(r.Email)
}

func (r ForgotPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

// ForgotPasswordTokenRequest is the body of POST /users/verify-forgot-password.
type ForgotPasswordTokenRequest struct {
	ForgotPasswordToken string `json:"forgot_password_token"`
}

func (r *ForgotPasswordTokenRequest) normalize() {
	r.ForgotPasswordToken = strings.TrimSpace(r.ForgotPasswordToken)
}

func (r ForgotPasswordTokenRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ForgotPasswordToken, validation.Required),
	)
}

// ResetPasswordRequest is the body of POST /users/reset-password.
type ResetPasswordRequest struct {
	ForgotPasswordToken string `json:"forgot_password_token"`
	Password            string `json:"password"`
	ConfirmPassword     string `json:"confirm_password"`
}

func (r *ResetPasswordRequest) normalize() {
	r.ForgotPasswordToken = strings.TrimSpace(r.ForgotPasswordToken)
}

func (r ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ForgotPasswordToken, validation.Required),
		validation.Field(&r.Password, passwordRules()...),
		validation.Field(&r.ConfirmPassword, append(passwordRules(), validation.By(stringEquals(r.Password)))...),
	)
}

// ChangePasswordRequest is the body of PUT /users/change-password.
type ChangePasswordRequest struct {
	OldPassword     string `json:"old_password"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (r *ChangePasswordRequest) normalize() {}

func (r ChangePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.OldPassword, validation.Required, validation.Length(8, 50)),
		validation.Field(&r.Password, passwordRules()...),
		validation.Field(&r.ConfirmPassword, append(passwordRules(), validation.By(stringEquals(r.Password)))...),
	)
}

// UpdateMeRequest is the body of PATCH /users/me. Absent fields stay untouched.
type UpdateMeRequest struct {
	Name        *string `json:"name"`
	DateOfBirth *string `json:"date_of_birth"`
	Bio         *string `json:"bio"`
	Location    *string `json:"location"`
	Website     *string `json:"website"`
	Username    *string `json:"username"`
	Avatar      *string `json:"avatar"`
	CoverPhoto  *string `json:"cover_photo"`
}

func (r *UpdateMeRequest) normalize() {
	for _, f := range []*string{r.Name, r.DateOfBirth, r.Bio, r.Location, r.Website, r.Username, r.Avatar, r.CoverPhoto} {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
}

func (r UpdateMeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.Length(1, 100)),
		validation.Field(&r.DateOfBirth, validation.NilOrNotEmpty, validation.By(func(value any) error {
			if s, _ := value.(*string); s != nil {
				return isoDate(*s)
			}
			return nil
		})),
		validation.Field(&r.Bio, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&r.Location, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&r.Website, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&r.Username, validation.NilOrNotEmpty, validation.Length(1, 50), validation.By(validUsername)),
		validation.Field(&r.Avatar, validation.NilOrNotEmpty, validation.Length(1, 400)),
		validation.Field(&r.CoverPhoto, validation.NilOrNotEmpty, validation.Length(1, 400)),
	)
}

func (r UpdateMeRequest) patch() model.ProfilePatch {
	p := model.ProfilePatch{
		Name:       r.Name,
		Bio:        r.Bio,
		Location:   r.Location,
		Website:    r.Website,
		Username:   r.Username,
		Avatar:     r.Avatar,
		CoverPhoto: r.CoverPhoto,
	}
	if r.DateOfBirth != nil {
		dob, _ := parseDate(*r.DateOfBirth)
		p.DateOfBirth = &dob
	}
	return p
}
