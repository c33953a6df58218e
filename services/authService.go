package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"PracticeManager/apperrors"
	"PracticeManager/models"
	"PracticeManager/repositories"
	"PracticeManager/utils"
)

// LoginResult is returned to a user who signed in.
type LoginResult struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	Session      *Session     `json:"-"`
}

// ProfileInput carries the fields a user may change on their own profile.
type ProfileInput struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Name     *string `json:"name"`
	Surname  *string `json:"surname"`
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Authenticate(ctx context.Context, accessToken string) (*Session, error)
	Logout(ctx context.Context, session *Session) error
	SendResetCode(ctx context.Context, email string) error
	ChangePassword(ctx context.Context, email, code, newPassword string) error
	Profile(ctx context.Context, session *Session) (*models.User, error)
	UpdateProfile(ctx context.Context, session *Session, in ProfileInput) (*models.User, error)
}

type authService struct {
	store    repositories.Store
	sessions *SessionStore
	tokens   *utils.TokenMaker
	codes    *utils.ResetCodes
	emails   EmailQueue
	log      zerolog.Logger
}

func NewAuthService(store repositories.Store, sessions *SessionStore, tokens *utils.TokenMaker, codes *utils.ResetCodes, emails EmailQueue, log zerolog.Logger) AuthService {
	return &authService{store: store, sessions: sessions, tokens: tokens, codes: codes, emails: emails, log: log}
}

var errBadCredentials = apperrors.Unauthorized("invalid email or password")

func (s *authService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.store.Users().GetUserByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, errBadCredentials
		}
		return nil, err
	}
	if !utils.CheckPassword(password, user.Password) {
		return nil, errBadCredentials
	}
	if !user.Active {
		return nil, apperrors.Forbidden("this account has been deactivated")
	}
	if _, err := s.store.Organizations().GetByID(ctx, user.OrganizationID); err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.Forbidden("this practice has been deactivated")
		}
		return nil, err
	}

	session, err := s.sessions.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	access, refresh, err := s.tokens.GenerateTokens(user.ID, user.OrganizationID, user.Role.Name, session.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.store.Users().UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("Failed to record last login")
	} else {
		user.LastLogin = &now
	}

	s.log.Info().Str("user_id", user.ID).Str("org_id", user.OrganizationID).Msg("User logged in")
	return &LoginResult{User: user, AccessToken: access, RefreshToken: refresh, Session: session}, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.ValidateToken(refreshToken, utils.TokenKindRefresh)
	if err != nil {
		return "", apperrors.Unauthorized("invalid refresh token")
	}
	session, err := s.liveSession(ctx, claims)
	if err != nil {
		return "", err
	}
	return s.tokens.GenerateAccessToken(session.UserID, session.OrgID, session.Role, session.ID)
}

func (s *authService) Authenticate(ctx context.Context, accessToken string) (*Session, error) {
	if accessToken == "" {
		return nil, apperrors.Unauthorized("missing access token")
	}
	claims, err := s.tokens.ValidateToken(accessToken, utils.TokenKindAccess)
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return nil, apperrors.Unauthorized("access token expired")
		}
		return nil, apperrors.Unauthorized("invalid access token")
	}
	return s.liveSession(ctx, claims)
}

// liveSession checks that the session named by the token still exists
// and belongs to the same user and organization.
func (s *authService) liveSession(ctx context.Context, claims *utils.TokenClaims) (*Session, error) {
	session, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if session == nil || session.UserID != claims.UserID || session.OrgID != claims.OrgID {
		return nil, apperrors.Unauthorized("session expired, please log in again")
	}
	return session, nil
}

func (s *authService) Logout(ctx context.Context, session *Session) error {
	return s.sessions.Delete(ctx, session)
}

func (s *authService) SendResetCode(ctx context.Context, email string) error {
	email = utils.NormalizeEmail(email)
	user, err := s.store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !user.Active {
		return apperrors.Forbidden("this account has been deactivated")
	}
	code, err := utils.GenerateResetCode()
	if err != nil {
		return err
	}
	if err := s.codes.Set(ctx, email, code); err != nil {
		return err
	}
	return s.emails.EnqueueResetCode(ctx, user.Email, code)
}

func (s *authService) ChangePassword(ctx context.Context, email, code, newPassword string) error {
	if err := utils.ValidatePasswordReset(code, newPassword); err != nil {
		return validationError(err)
	}
	email = utils.NormalizeEmail(email)
	user, err := s.store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	ok, err := s.codes.Matches(ctx, email, code)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.BadRequest("invalid or expired reset code")
	}

	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.store.Users().UpdateUserPassword(ctx, user.ID, hashed); err != nil {
		return err
	}
	if err := s.codes.Delete(ctx, email); err != nil {
		s.log.Warn().Err(err).Msg("Failed to delete reset code")
	}
	return s.sessions.RevokeUser(ctx, user.ID)
}

func (s *authService) Profile(ctx context.Context, session *Session) (*models.User, error) {
	return s.store.Users().GetUserByID(ctx, session.OrgID, session.UserID)
}

func (s *authService) UpdateProfile(ctx context.Context, session *Session, in ProfileInput) (*models.User, error) {
	users := s.store.Users()
	user, err := users.GetUserByID(ctx, session.OrgID, session.UserID)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if in.Username != nil {
		user.Username = *in.Username
		fields["username"] = user.Username
	}
	if in.Email != nil {
		user.Email = utils.NormalizeEmail(*in.Email)
		fields["email"] = user.Email
	}
	if in.Name != nil {
		user.Name = *in.Name
		fields["name"] = user.Name
	}
	if in.Surname != nil {
		user.Surname = *in.Surname
		fields["surname"] = user.Surname
	}
	if err := utils.ValidateUserData(*user); err != nil {
		return nil, validationError(err)
	}
	if err := checkUnique(ctx, users, user.Email, user.Username, user.ID); err != nil {
		return nil, err
	}

	if err := users.UpdateUser(ctx, session.OrgID, user.ID, fields); err != nil {
		return nil, err
	}
	return users.GetUserByID(ctx, session.OrgID, user.ID)
}

// checkUnique rejects an email or username another user already has.
func checkUnique(ctx context.Context, users repositories.UserRepository, email, username, excludeID string) error {
	exists, err := users.EmailExists(ctx, email, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return apperrors.Conflict("email already registered")
	}
	exists, err = users.UsernameExists(ctx, username, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return apperrors.Conflict("username already taken")
	}
	return nil
}
