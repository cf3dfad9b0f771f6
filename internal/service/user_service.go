package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"textile-backoffice/internal/auth"
	"textile-backoffice/internal/models"
	"textile-backoffice/internal/policy"
	"textile-backoffice/internal/util"

	"go.uber.org/zap"
)

// DefaultAdminID is the id of the seeded general manager account
const DefaultAdminID = "user_1"

// UserService manages staff accounts and their sessions
type UserService struct {
	tx         TxRunner
	users      UserRepository
	activity   *ActivityLogService
	tokens     *auth.JWTManager
	sessions   SessionStore
	bcryptCost int
	notify     notifier
	logger     *zap.Logger
}

// NewUserService creates a new user service. sessions may be nil, in which
// case logout cannot revoke tokens.
func NewUserService(
	tx TxRunner,
	users UserRepository,
	activity *ActivityLogService,
	tokens *auth.JWTManager,
	sessions SessionStore,
	bcryptCost int,
	events EventPublisher,
) *UserService {
	return &UserService{
		tx:         tx,
		users:      users,
		activity:   activity,
		tokens:     tokens,
		sessions:   sessions,
		bcryptCost: bcryptCost,
		notify:     newNotifier(events),
		logger:     util.GetLogger(),
	}
}

// LoginResult is handed to a client after a successful login
type LoginResult struct {
	Token        string          `json:"token"`
	User         *models.User    `json:"user"`
	DefaultRoute string          `json:"default_route"`
	Routes       []string        `json:"routes"`
	Actions      []policy.Action `json:"actions"`
}

// Login checks the password of userID and issues a session token
func (s *UserService) Login(ctx context.Context, userID, password string) (*LoginResult, error) {
	ctx, span := util.StartSpan(ctx, "UserService.Login")
	defer span.End()

	user, err := s.users.GetUserByID(ctx, strings.TrimSpace(userID))
	if errors.Is(err, models.ErrNotFound) {
		util.LoginAttemptsTotal.WithLabelValues("unknown_user").Inc()
		return nil, models.ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	ok, err := auth.CheckPassword(user.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		util.LoginAttemptsTotal.WithLabelValues("bad_password").Inc()
		return nil, models.ErrUnauthorized
	}

	route, known := policy.DefaultRoute(user.Role)
	if !known {
		util.LoginAttemptsTotal.WithLabelValues("unknown_role").Inc()
		s.logger.Warn("Login refused for role without access policy",
			zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
		return nil, models.ErrUnauthorized
	}

	token, _, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	util.LoginAttemptsTotal.WithLabelValues("ok").Inc()
	s.logger.Info("User logged in", zap.String("user_id", user.ID))

	return &LoginResult{
		Token:        token,
		User:         user,
		DefaultRoute: route,
		Routes:       policy.AllowedRoutes(user.Role),
		Actions:      policy.Capabilities(user.Role),
	}, nil
}

// Authenticate validates a session token and rejects revoked ones. The
// account is reloaded so a deleted user loses the session and a role change
// applies at once.
func (s *UserService) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}
	if s.sessions != nil {
		revoked, err := s.sessions.IsTokenRevoked(ctx, claims.TokenID)
		if err != nil {
			return nil, fmt.Errorf("failed to check token: %w", err)
		}
		if revoked {
			return nil, fmt.Errorf("token revoked: %w", models.ErrUnauthorized)
		}
	}

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("account %s no longer exists: %w", claims.UserID, models.ErrUnauthorized)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session user: %w", err)
	}
	claims.Role = user.Role
	return claims, nil
}

// Logout revokes the session behind claims
func (s *UserService) Logout(ctx context.Context, claims *auth.Claims) error {
	if s.sessions == nil {
		return nil
	}
	return s.sessions.RevokeToken(ctx, claims.TokenID, claims.ExpiresAt)
}

// CreateUserRequest represents a request to create a user
type CreateUserRequest struct {
	Name     string `json:"name"`
	Role     string `json:"role"`
	Password string `json:"password,omitempty"`
	Language string `json:"language,omitempty"`
}

// CreateUser adds a staff account. The password is optional.
func (s *UserService) CreateUser(ctx context.Context, req *CreateUserRequest) (*models.User, error) {
	ctx, span := util.StartSpan(ctx, "UserService.CreateUser")
	defer span.End()

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", models.ErrValidation)
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		return nil, err
	}
	lang := models.DefaultLanguage
	if req.Language != "" {
		if lang, err = models.ParseLanguage(req.Language); err != nil {
			return nil, err
		}
	}

	user := &models.User{
		ID:        newID(prefixUser),
		Name:      name,
		Role:      role,
		Language:  lang,
		CreatedAt: now(),
	}
	if req.Password != "" {
		if user.PasswordHash, err = auth.HashPassword(req.Password, s.bcryptCost); err != nil {
			return nil, err
		}
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User created", zap.String("user_id", user.ID), zap.String("role", string(role)))
	s.notify.entityChanged(ctx, models.CollectionUsers, user.ID, models.ChangeCreated)
	return user, nil
}

// UpdateUserRequest carries the fields to change; nil leaves a field as is
type UpdateUserRequest struct {
	Name     *string `json:"name,omitempty"`
	Role     *string `json:"role,omitempty"`
	Password *string `json:"password,omitempty"`
	Language *string `json:"language,omitempty"`
}

// UpdateUser changes name, role, password or language of a user
func (s *UserService) UpdateUser(ctx context.Context, id string, req *UpdateUserRequest) (*models.User, error) {
	ctx, span := util.StartSpan(ctx, "UserService.UpdateUser")
	defer span.End()

	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", models.ErrValidation)
		}
		user.Name = name
	}
	if req.Role != nil {
		if user.Role, err = models.ParseRole(*req.Role); err != nil {
			return nil, err
		}
	}
	if req.Language != nil {
		if user.Language, err = models.ParseLanguage(*req.Language); err != nil {
			return nil, err
		}
	}
	if req.Password != nil && *req.Password != "" {
		if user.PasswordHash, err = auth.HashPassword(*req.Password, s.bcryptCost); err != nil {
			return nil, err
		}
	}

	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}

	s.notify.entityChanged(ctx, models.CollectionUsers, user.ID, models.ChangeUpdated)
	return user, nil
}

// UpdatePreferences sets the UI language of userID. Users may change their
// own preferences; changing someone else's needs the user management right.
func (s *UserService) UpdatePreferences(ctx context.Context, actor *auth.Claims, userID, language string) (*models.User, error) {
	if actor.UserID != userID && !policy.Can(actor.Role, policy.ActionManageUsers) {
		return nil, fmt.Errorf("%w: cannot change preferences of another user", models.ErrForbidden)
	}
	return s.UpdateUser(ctx, userID, &UpdateUserRequest{Language: &language})
}

// DeleteUser moves a user into the activity log. Deleting your own account
// is refused.
func (s *UserService) DeleteUser(ctx context.Context, actorID, userID string) (err error) {
	ctx, span := util.StartSpan(ctx, "UserService.DeleteUser")
	defer func() { util.EndSpan(span, err) }()

	if actorID == userID {
		return fmt.Errorf("%w: you cannot delete your own account", models.ErrValidation)
	}

	var entry *models.ActivityLogItem
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		user, err := s.users.GetUserByID(ctx, userID)
		if err != nil {
			return err
		}
		entry, err = s.activity.RecordDeletion(ctx, UserDescription(user), user)
		if err != nil {
			return err
		}
		return s.users.DeleteUser(ctx, userID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("User deleted", zap.String("user_id", userID), zap.String("by", actorID))
	s.notify.entityChanged(ctx, models.CollectionUsers, userID, models.ChangeDeleted)
	s.notify.entityChanged(ctx, models.CollectionActivity, entry.ID, models.ChangeCreated)
	return nil
}

// ListUsers returns all users in creation order
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.ListUsers(ctx)
}

// GetUser retrieves a user by ID
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.users.GetUserByID(ctx, id)
}

// EnsureDefaultAdmin makes sure DefaultAdminID exists and is a general
// manager. The password only applies when the account is created.
func (s *UserService) EnsureDefaultAdmin(ctx context.Context, name, password string) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		user, err := s.users.GetUserByID(ctx, DefaultAdminID)
		if errors.Is(err, models.ErrNotFound) {
			admin := &models.User{
				ID:        DefaultAdminID,
				Name:      name,
				Role:      models.RoleGeneralManager,
				Language:  models.DefaultLanguage,
				CreatedAt: now(),
			}
			if admin.PasswordHash, err = auth.HashPassword(password, s.bcryptCost); err != nil {
				return err
			}
			if err := s.users.CreateUser(ctx, admin); err != nil {
				return err
			}
			s.logger.Info("Default admin created", zap.String("user_id", DefaultAdminID))
			return nil
		}
		if err != nil {
			return err
		}

		if user.Role != models.RoleGeneralManager {
			user.Role = models.RoleGeneralManager
			s.logger.Warn("Default admin role restored", zap.String("user_id", DefaultAdminID))
			return s.users.UpdateUser(ctx, user)
		}
		return nil
	})
}

// UserDescription is the activity log text for a deleted user
func UserDescription(user *models.User) string {
	return fmt.Sprintf("%s (%s)", user.Name, user.Role)
}
