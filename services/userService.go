package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"PracticeManager/apperrors"
	"PracticeManager/models"
	"PracticeManager/repositories"
	"PracticeManager/utils"
)

type CreateUserInput struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Surname  string `json:"surname" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

// UpdateUserInput is an admin edit of another user. Active only supports
// deactivation; deactivated users are gone from the practice.
type UpdateUserInput struct {
	Role    *string `json:"role"`
	Active  *bool   `json:"active"`
	Name    *string `json:"name"`
	Surname *string `json:"surname"`
}

type UserService interface {
	ListUsers(ctx context.Context, orgID string) ([]models.User, error)
	GetUser(ctx context.Context, orgID, userID string) (*models.User, error)
	CreateUser(ctx context.Context, orgID string, in CreateUserInput) (*models.User, error)
	UpdateUser(ctx context.Context, session *Session, userID string, in UpdateUserInput) (*models.User, error)
	DeleteUser(ctx context.Context, session *Session, userID string) error
	ListRoles(ctx context.Context) ([]models.Role, error)
	Permissions(ctx context.Context, orgID, userID string) ([]string, error)
}

type userService struct {
	store    repositories.Store
	sessions *SessionStore
	emails   EmailQueue
	log      zerolog.Logger
}

func NewUserService(store repositories.Store, sessions *SessionStore, emails EmailQueue, log zerolog.Logger) UserService {
	return &userService{store: store, sessions: sessions, emails: emails, log: log}
}

func (s *userService) ListUsers(ctx context.Context, orgID string) ([]models.User, error) {
	users, err := s.store.Users().GetAllUsers(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

func (s *userService) GetUser(ctx context.Context, orgID, userID string) (*models.User, error) {
	return s.store.Users().GetUserByID(ctx, orgID, userID)
}

// CreateUser adds a staff member with an unusable random password and
// invites them to pick their own through the reset flow.
func (s *userService) CreateUser(ctx context.Context, orgID string, in CreateUserInput) (*models.User, error) {
	users := s.store.Users()
	role, err := s.role(ctx, in.Role)
	if err != nil {
		return nil, err
	}
	user := models.User{
		OrganizationID: orgID,
		Username:       strings.TrimSpace(in.Username),
		Email:          utils.NormalizeEmail(in.Email),
		Name:           strings.TrimSpace(in.Name),
		Surname:        strings.TrimSpace(in.Surname),
		RoleID:         role.ID,
	}
	if err := utils.ValidateUserData(user); err != nil {
		return nil, validationError(err)
	}
	if err := checkUnique(ctx, users, user.Email, user.Username, ""); err != nil {
		return nil, err
	}
	org, err := s.store.Organizations().GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if user.Password, err = utils.HashPassword(uuid.NewString()); err != nil {
		return nil, err
	}
	if err := users.CreateUser(ctx, &user); err != nil {
		return nil, err
	}

	practice := org.PracticeName
	if practice == "" {
		practice = org.Name
	}
	if err := s.emails.EnqueueInvitation(ctx, user.Email, user.Name, practice, user.Username); err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to enqueue invitation email")
	}
	return users.GetUserByID(ctx, orgID, user.ID)
}

func (s *userService) role(ctx context.Context, name string) (*models.Role, error) {
	role, err := s.store.Users().GetRoleByName(ctx, strings.TrimSpace(name))
	if apperrors.IsNotFound(err) {
		return nil, apperrors.BadRequest("unknown role " + name)
	}
	return role, err
}

// UpdateUser changes another user's role, name or status. Role changes and
// deactivation revoke the user's sessions so they take effect at once.
func (s *userService) UpdateUser(ctx context.Context, session *Session, userID string, in UpdateUserInput) (*models.User, error) {
	users := s.store.Users()
	user, err := users.GetUserByID(ctx, session.OrgID, userID)
	if err != nil {
		return nil, err
	}
	self := user.ID == session.UserID

	fields := map[string]interface{}{}
	revoke := false
	if in.Role != nil && *in.Role != user.Role.Name {
		if self {
			return nil, apperrors.Forbidden("you cannot change your own role")
		}
		role, err := s.role(ctx, *in.Role)
		if err != nil {
			return nil, err
		}
		user.RoleID, user.Role = role.ID, *role
		fields["role_id"] = role.ID
		revoke = true
	}
	if in.Active != nil && !*in.Active {
		if self {
			return nil, apperrors.Forbidden("you cannot deactivate yourself")
		}
		user.Active = false
		fields["active"] = false
		revoke = true
	}
	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
		fields["name"] = user.Name
	}
	if in.Surname != nil {
		user.Surname = strings.TrimSpace(*in.Surname)
		fields["surname"] = user.Surname
	}
	if err := utils.ValidateUserData(*user); err != nil {
		return nil, validationError(err)
	}

	if err := users.UpdateUser(ctx, session.OrgID, userID, fields); err != nil {
		return nil, err
	}
	if revoke {
		if err := s.sessions.RevokeUser(ctx, userID); err != nil {
			return nil, err
		}
	}
	return user, nil
}

func (s *userService) DeleteUser(ctx context.Context, session *Session, userID string) error {
	if userID == session.UserID {
		return apperrors.Forbidden("you cannot delete yourself")
	}
	if err := s.store.Users().DeleteUser(ctx, session.OrgID, userID); err != nil {
		return err
	}
	return s.sessions.RevokeUser(ctx, userID)
}

func (s *userService) ListRoles(ctx context.Context) ([]models.Role, error) {
	return s.store.Users().GetRoles(ctx)
}

func (s *userService) Permissions(ctx context.Context, orgID, userID string) ([]string, error) {
	user, err := s.store.Users().GetUserByID(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}
	return user.Role.PermissionNames(), nil
}
