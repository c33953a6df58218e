package services

import (
	"context"
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/rs/zerolog"

	"PracticeManager/apperrors"
	"PracticeManager/models"
	"PracticeManager/repositories"
	"PracticeManager/utils"
)

// Wizard steps, in the order the client walks through them.
const (
	StepPractice = "practice"
	StepAdmin    = "admin"
	StepTerms    = "terms"
)

var wizardSteps = []string{StepPractice, StepAdmin, StepTerms}

type PracticeStep struct {
	Name           string `json:"name"`
	PracticeName   string `json:"practice_name"`
	PracticeNumber string `json:"practice_number"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Address        string `json:"address"`
	FilePrefix     string `json:"file_prefix"`
}

type AdminStep struct {
	Name            string `json:"name"`
	Surname         string `json:"surname"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type TermsStep struct {
	Accepted bool `json:"accepted"`
}

// RegistrationInput is the whole wizard submitted at the end.
type RegistrationInput struct {
	Practice PracticeStep `json:"practice"`
	Admin    AdminStep    `json:"admin"`
	Terms    TermsStep    `json:"terms"`
}

// StepTarget returns the part of the input a single step decodes into.
func (in *RegistrationInput) StepTarget(step string) (interface{}, bool) {
	switch step {
	case StepPractice:
		return &in.Practice, true
	case StepAdmin:
		return &in.Admin, true
	case StepTerms:
		return &in.Terms, true
	}
	return nil, false
}

type RegistrationResult struct {
	Organization *models.Organization `json:"organization"`
	User         *models.User         `json:"user"`
}

type RegistrationService interface {
	ValidateStep(ctx context.Context, step string, in RegistrationInput) error
	Register(ctx context.Context, in RegistrationInput) (*RegistrationResult, error)
}

type registrationService struct {
	store  repositories.Store
	locker Locker
	emails EmailQueue
	log    zerolog.Logger
}

func NewRegistrationService(store repositories.Store, locker Locker, emails EmailQueue, log zerolog.Logger) RegistrationService {
	return &registrationService{store: store, locker: locker, emails: emails, log: log}
}

func (p PracticeStep) organization() models.Organization {
	org := models.Organization{
		Name:           strings.TrimSpace(p.Name),
		PracticeName:   strings.TrimSpace(p.PracticeName),
		PracticeNumber: strings.TrimSpace(p.PracticeNumber),
		Email:          utils.NormalizeEmail(p.Email),
		Phone:          strings.TrimSpace(p.Phone),
		Address:        strings.TrimSpace(p.Address),
		FilePrefix:     strings.ToUpper(strings.TrimSpace(p.FilePrefix)),
	}
	if org.PracticeName == "" {
		org.PracticeName = org.Name
	}
	return org
}

func (a AdminStep) validate() error {
	errs := validation.Errors{}
	user := models.User{Username: strings.TrimSpace(a.Username), Email: utils.NormalizeEmail(a.Email), Name: a.Name, Surname: a.Surname}
	if err := utils.ValidateUserData(user); err != nil {
		var verrs validation.Errors
		if !errors.As(err, &verrs) {
			return err
		}
		for k, v := range verrs {
			errs[k] = v
		}
	}
	errs["password"] = validation.Validate(a.Password, validation.Required, utils.PasswordRule)
	if a.ConfirmPassword != a.Password {
		errs["confirm_password"] = utils.ErrPasswordMismatch
	}
	return errs.Filter()
}

func (t TermsStep) validate() error {
	return validation.Errors{
		"accepted": validation.Validate(t.Accepted, validation.Required.Error("the terms must be accepted")),
	}.Filter()
}

func (s *registrationService) ValidateStep(ctx context.Context, step string, in RegistrationInput) error {
	var err error
	switch step {
	case StepPractice:
		err = utils.ValidateOrganization(in.Practice.organization())
	case StepAdmin:
		err = in.Admin.validate()
	case StepTerms:
		err = in.Terms.validate()
	default:
		return apperrors.BadRequest("unknown registration step " + step)
	}
	if err != nil {
		return apperrors.Validation(err).WithStep(step)
	}
	return nil
}

// Register creates the practice and its first administrator.
func (s *registrationService) Register(ctx context.Context, in RegistrationInput) (*RegistrationResult, error) {
	for _, step := range wizardSteps {
		if err := s.ValidateStep(ctx, step, in); err != nil {
			return nil, err
		}
	}

	email := utils.NormalizeEmail(in.Admin.Email)
	username := strings.TrimSpace(in.Admin.Username)
	var result *RegistrationResult
	err := withLock(ctx, s.locker, s.log, "registration:"+email, func() error {
		if err := checkUnique(ctx, s.store.Users(), email, username, ""); err != nil {
			var appErr *apperrors.AppError
			if errors.As(err, &appErr) {
				return appErr.WithStep(StepAdmin)
			}
			return err
		}

		hashed, err := utils.HashPassword(in.Admin.Password)
		if err != nil {
			return err
		}

		org := in.Practice.organization()
		if org.FilePrefix == "" {
			org.FilePrefix = utils.DefaultFilePrefix(org.PracticeName)
		}
		user := models.User{
			Username: username,
			Email:    email,
			Password: hashed,
			Name:     strings.TrimSpace(in.Admin.Name),
			Surname:  strings.TrimSpace(in.Admin.Surname),
		}

		err = s.store.Transaction(ctx, func(tx repositories.Store) error {
			role, err := tx.Users().GetRoleByName(ctx, models.RoleAdmin)
			if err != nil {
				return err
			}
			if err := tx.Organizations().Create(ctx, &org); err != nil {
				return err
			}
			user.OrganizationID = org.ID
			user.RoleID = role.ID
			if err := tx.Users().CreateUser(ctx, &user); err != nil {
				return err
			}
			user.Role = *role
			return nil
		})
		if err != nil {
			return err
		}
		result = &RegistrationResult{Organization: &org, User: &user}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.emails.EnqueueWelcome(ctx, email, result.User.Name, result.Organization.PracticeName); err != nil {
		s.log.Error().Err(err).Str("org_id", result.Organization.ID).Msg("Failed to enqueue welcome email")
	}
	s.log.Info().Str("org_id", result.Organization.ID).Str("user_id", result.User.ID).Msg("Practice registered")
	return result, nil
}
