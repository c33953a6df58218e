package utils

import (
	"errors"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"PracticeManager/models"
)

// Validation errors
var (
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters long")
	ErrPasswordNotComplex = errors.New("password must include at least one uppercase letter, one lowercase letter, one digit, and one special character")
	ErrInvalidResetCode   = errors.New("invalid reset code")
	ErrPasswordMismatch   = errors.New("passwords do not match")
)

var (
	lowercaseRegex = regexp.MustCompile(`[a-z]`)
	uppercaseRegex = regexp.MustCompile(`[A-Z]`)
	digitRegex     = regexp.MustCompile(`\d`)
	specialRegex   = regexp.MustCompile(`[@$!%*?&#]`)
	resetCodeRegex = regexp.MustCompile(`^\d{6}$`)
	prefixRegex    = regexp.MustCompile(`^[A-Z0-9]{1,8}$`)
)

// PasswordRule applies the password length and complexity checks.
var PasswordRule = validation.By(validatePassword)

// ValidateUserData validates the profile fields of a user. The password
// is checked separately since stored users only carry the hash.
func ValidateUserData(user models.User) error {
	return validation.ValidateStruct(&user,
		validation.Field(&user.Username, validation.Required, validation.Length(3, 50)),
		validation.Field(&user.Email, validation.Required, is.EmailFormat),
		validation.Field(&user.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&user.Surname, validation.Required, validation.Length(1, 100)),
	)
}

// ValidatePassword validates a new plain text password.
func ValidatePassword(password string) error {
	return validation.Errors{
		"password": validation.Validate(password, validation.Required.Error("password cannot be blank"), PasswordRule),
	}.Filter()
}

// ValidatePasswordReset validates the reset code and new password.
func ValidatePasswordReset(resetCode, newPassword string) error {
	return validation.Errors{
		"code":     validation.Validate(resetCode, validation.Required.Error(ErrInvalidResetCode.Error()), validation.Match(resetCodeRegex).Error(ErrInvalidResetCode.Error())),
		"password": validation.Validate(newPassword, validation.Required, PasswordRule),
	}.Filter()
}

// validatePassword checks the password for length and complexity.
func validatePassword(value interface{}) error {
	password, _ := value.(string)
	if password == "" {
		return nil
	}
	if len(password) < 8 {
		return ErrPasswordTooShort
	}
	if !lowercaseRegex.MatchString(password) ||
		!uppercaseRegex.MatchString(password) ||
		!digitRegex.MatchString(password) ||
		!specialRegex.MatchString(password) {
		return ErrPasswordNotComplex
	}
	return nil
}

// ValidateOrganization validates practice details.
func ValidateOrganization(org models.Organization) error {
	return validation.ValidateStruct(&org,
		validation.Field(&org.Name, validation.Required, validation.Length(1, 150)),
		validation.Field(&org.PracticeNumber, validation.Required, validation.Length(1, 50)),
		validation.Field(&org.Email, validation.Required, is.EmailFormat),
		validation.Field(&org.Phone, validation.Required, validation.Length(5, 30)),
		validation.Field(&org.FilePrefix, validation.Match(prefixRegex).Error("must be 1 to 8 upper case letters or digits")),
	)
}

// ValidatePatient validates patient demographics.
func ValidatePatient(p models.Patient) error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&p.Surname, validation.Required, validation.Length(1, 100)),
		validation.Field(&p.IDNumber, validation.Length(0, 20), is.Alphanumeric),
		validation.Field(&p.Gender, validation.In("Male", "Female", "Other")),
		validation.Field(&p.Email, is.EmailFormat),
		validation.Field(&p.Cell, validation.Length(0, 30)),
	)
}

// ValidateInjuryOnDuty validates employer claim details.
func ValidateInjuryOnDuty(iod models.InjuryOnDuty) error {
	return validation.ValidateStruct(&iod,
		validation.Field(&iod.CompanyName, validation.Required),
		validation.Field(&iod.ContactEmail, is.EmailFormat),
	)
}

// ValidateAppointment validates the fields of a calendar entry.
func ValidateAppointment(a models.Appointment) error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.PatientID, validation.Required, is.UUID),
		validation.Field(&a.UserID, validation.Required, is.UUID),
		validation.Field(&a.Title, validation.Length(0, 200)),
		validation.Field(&a.StartTime, validation.Required),
		validation.Field(&a.EndTime, validation.Required, validation.Min(a.StartTime.Add(1)).Error("must be after start_time")),
		validation.Field(&a.Status, validation.Required, validation.In(models.AppointmentScheduled, models.AppointmentFulfilled, models.AppointmentCancelled)),
	)
}
