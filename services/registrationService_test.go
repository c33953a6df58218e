package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"PracticeManager/apperrors"
	"PracticeManager/models"
	"PracticeManager/utils"
)

func validRegistration() RegistrationInput {
	return RegistrationInput{
		Practice: PracticeStep{
			Name:           "Bright Smiles",
			PracticeName:   "Bright Smiles Dental",
			PracticeNumber: "0456789",
			Email:          "hello@brightsmiles.test",
			Phone:          "0215550199",
		},
		Admin: AdminStep{
			Name:            "Lerato",
			Surname:         "Dlamini",
			Username:        "lerato",
			Email:           "Lerato@BrightSmiles.test",
			Password:        "Secret#123",
			ConfirmPassword: "Secret#123",
		},
		Terms: TermsStep{Accepted: true},
	}
}

func newRegistrationService(t *testing.T) (RegistrationService, *mockStore, *mockEmails) {
	t.Helper()
	c, _ := newTestCache(t)
	store := newMockStore()
	emails := &mockEmails{}
	return NewRegistrationService(store, c, emails, nopLogger()), store, emails
}

func TestValidateStep_ReportsStepAndFields(t *testing.T) {
	svc, _, _ := newRegistrationService(t)
	in := validRegistration()
	in.Admin.ConfirmPassword = "Different#1"
	in.Admin.Password = "short"

	err := svc.ValidateStep(context.Background(), StepAdmin, in)
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Step != StepAdmin || appErr.Status != http.StatusBadRequest {
		t.Fatalf("unexpected error %+v", appErr)
	}
	fields := map[string]bool{}
	for _, f := range appErr.Fields {
		fields[f.Field] = true
	}
	if !fields["password"] || !fields["confirm_password"] {
		t.Errorf("expected password and confirm_password errors, got %+v", appErr.Fields)
	}

	if err := svc.ValidateStep(context.Background(), StepPractice, in); err != nil {
		t.Errorf("practice step should pass: %v", err)
	}
	wantStatus(t, svc.ValidateStep(context.Background(), "billing", in), http.StatusBadRequest)
}

func TestRegister_FirstFailingStepWins(t *testing.T) {
	svc, _, _ := newRegistrationService(t)
	in := validRegistration()
	in.Practice.Email = "not-an-email"
	in.Terms.Accepted = false

	_, err := svc.Register(context.Background(), in)
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Step != StepPractice {
		t.Fatalf("expected practice step error, got %v", err)
	}
}

func TestRegister_CreatesPracticeAndAdmin(t *testing.T) {
	svc, store, emails := newRegistrationService(t)

	res, err := svc.Register(context.Background(), validRegistration())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if res.Organization.FilePrefix != "BSD" {
		t.Errorf("expected default prefix BSD, got %q", res.Organization.FilePrefix)
	}
	if res.User.OrganizationID != res.Organization.ID {
		t.Error("admin not attached to the new practice")
	}
	if res.User.Role.Name != models.RoleAdmin {
		t.Errorf("expected admin role, got %q", res.User.Role.Name)
	}
	stored := store.users.users[res.User.ID]
	if stored.Email != "lerato@brightsmiles.test" || !utils.CheckPassword("Secret#123", stored.Password) {
		t.Errorf("stored admin not normalised or hashed: %+v", stored)
	}
	if len(emails.sent) != 1 || emails.sent[0].kind != "welcome" {
		t.Errorf("expected a welcome email, got %+v", emails.sent)
	}

	_, err = svc.Register(context.Background(), validRegistration())
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Status != http.StatusConflict || appErr.Step != StepAdmin {
		t.Fatalf("expected 409 on the admin step, got %v", err)
	}
}

func TestRegister_EmailFailureDoesNotFail(t *testing.T) {
	svc, _, emails := newRegistrationService(t)
	emails.err = errors.New("queue down")

	if _, err := svc.Register(context.Background(), validRegistration()); err != nil {
		t.Fatalf("Register should succeed without the email: %v", err)
	}
}
