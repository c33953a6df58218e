package services

import (
	"context"
	"net/http"
	"testing"

	"PracticeManager/models"
	"PracticeManager/utils"
)

type authFixture struct {
	store    *mockStore
	emails   *mockEmails
	sessions *SessionStore
	codes    *utils.ResetCodes
	svc      AuthService
	org      models.Organization
	user     models.User
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	c, _ := newTestCache(t)
	tokens, err := utils.NewTokenMaker([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("NewTokenMaker: %v", err)
	}
	f := &authFixture{
		store:    newMockStore(),
		emails:   &mockEmails{},
		sessions: NewSessionStore(c),
		codes:    utils.NewResetCodes(c),
	}
	f.svc = NewAuthService(f.store, f.sessions, tokens, f.codes, f.emails, nopLogger())
	f.org = seedOrg(t, f.store, "SC")
	f.user = seedUser(f.store, f.org.ID, models.RoleDoctor, "thandi@smile.test")
	return f
}

func TestLogin_IssuesTokensForLiveSession(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	res, err := f.svc.Login(ctx, "  Thandi@Smile.test ", "Secret#123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.AccessToken == "" || res.RefreshToken == "" {
		t.Fatal("expected both tokens")
	}
	if res.User.LastLogin == nil {
		t.Error("expected last login to be recorded")
	}

	session, err := f.svc.Authenticate(ctx, res.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if session.OrgID != f.org.ID || session.UserID != f.user.ID {
		t.Errorf("unexpected session %+v", session)
	}
	if !session.Can(models.PermManageNotes) || session.Can(models.PermManageUsers) {
		t.Errorf("doctor permissions not carried: %v", session.Permissions)
	}

	if _, err := f.svc.Authenticate(ctx, res.RefreshToken); err == nil {
		t.Error("refresh token must not authenticate requests")
	}
	access, err := f.svc.Refresh(ctx, res.RefreshToken)
	if err != nil || access == "" {
		t.Fatalf("Refresh: %q %v", access, err)
	}
}

func TestLogin_Rejections(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Login(ctx, "thandi@smile.test", "wrong")
	wantStatus(t, err, http.StatusUnauthorized)

	_, err = f.svc.Login(ctx, "nobody@smile.test", "Secret#123")
	wantStatus(t, err, http.StatusUnauthorized)

	u := f.store.users.users[f.user.ID]
	u.Active = false
	f.store.users.users[f.user.ID] = u
	_, err = f.svc.Login(ctx, "thandi@smile.test", "Secret#123")
	wantStatus(t, err, http.StatusForbidden)

	u.Active = true
	f.store.users.users[f.user.ID] = u
	org := f.store.orgs.orgs[f.org.ID]
	org.Active = false
	f.store.orgs.orgs[f.org.ID] = org
	_, err = f.svc.Login(ctx, "thandi@smile.test", "Secret#123")
	wantStatus(t, err, http.StatusForbidden)
}

func TestLogout_EndsSession(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	res, err := f.svc.Login(ctx, "thandi@smile.test", "Secret#123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := f.svc.Logout(ctx, res.Session); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	_, err = f.svc.Authenticate(ctx, res.AccessToken)
	wantStatus(t, err, http.StatusUnauthorized)
	_, err = f.svc.Refresh(ctx, res.RefreshToken)
	wantStatus(t, err, http.StatusUnauthorized)
}

func TestSendResetCode(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	err := f.svc.SendResetCode(ctx, "missing@smile.test")
	wantStatus(t, err, http.StatusNotFound)

	if err := f.svc.SendResetCode(ctx, "THANDI@smile.test"); err != nil {
		t.Fatalf("SendResetCode: %v", err)
	}
	if len(f.emails.sent) != 1 || f.emails.sent[0].kind != "reset" {
		t.Fatalf("expected one reset email, got %+v", f.emails.sent)
	}
	code := f.emails.sent[0].args[0]
	ok, err := f.codes.Matches(ctx, "thandi@smile.test", code)
	if err != nil || !ok {
		t.Fatalf("stored code does not match emailed code: %v", err)
	}
}

func TestChangePassword_RevokesSessions(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	res, err := f.svc.Login(ctx, "thandi@smile.test", "Secret#123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := f.codes.Set(ctx, "thandi@smile.test", "123456"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	err = f.svc.ChangePassword(ctx, "thandi@smile.test", "654321", "NewSecret#1")
	wantStatus(t, err, http.StatusBadRequest)

	err = f.svc.ChangePassword(ctx, "thandi@smile.test", "123456", "weak")
	wantStatus(t, err, http.StatusBadRequest)

	if err := f.svc.ChangePassword(ctx, "thandi@smile.test", "123456", "NewSecret#1"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := f.svc.Authenticate(ctx, res.AccessToken); err == nil {
		t.Error("old session should be revoked")
	}
	if _, err := f.svc.Login(ctx, "thandi@smile.test", "NewSecret#1"); err != nil {
		t.Errorf("login with new password: %v", err)
	}
	if ok, _ := f.codes.Matches(ctx, "thandi@smile.test", "123456"); ok {
		t.Error("reset code should be single use")
	}
}

func TestChangePassword_LimitsWrongCodes(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	if err := f.codes.Set(ctx, "thandi@smile.test", "123456"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	for i := 0; i < utils.MaxResetAttempts; i++ {
		err := f.svc.ChangePassword(ctx, "thandi@smile.test", "000000", "NewSecret#1")
		wantStatus(t, err, http.StatusBadRequest)
	}
	err := f.svc.ChangePassword(ctx, "thandi@smile.test", "123456", "NewSecret#1")
	wantStatus(t, err, http.StatusBadRequest)
	if _, err := f.svc.Login(ctx, "thandi@smile.test", "Secret#123"); err != nil {
		t.Errorf("old password should still work: %v", err)
	}
}

func TestUpdateProfile_Uniqueness(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	seedUser(f.store, f.org.ID, models.RoleReceptionist, "sipho@smile.test")
	session := &Session{UserID: f.user.ID, OrgID: f.org.ID}

	taken := "sipho@smile.test"
	_, err := f.svc.UpdateProfile(ctx, session, ProfileInput{Email: &taken})
	wantStatus(t, err, http.StatusConflict)

	name := "Thandeka"
	user, err := f.svc.UpdateProfile(ctx, session, ProfileInput{Name: &name})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if user.Name != "Thandeka" || user.Email != "thandi@smile.test" {
		t.Errorf("unexpected profile %+v", user)
	}
}
