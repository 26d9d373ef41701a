package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"postboard_backend/internal/common"
	"postboard_backend/internal/config"
	"postboard_backend/internal/firebase"
	"postboard_backend/internal/shared"

	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ServiceImplementation implements the shared.Service interface.
type ServiceImplementation struct {
	repo            Repository
	firebaseService firebase.Service
	cfg             *config.Config
	logger          *zap.Logger
}

var _ shared.Service = (*ServiceImplementation)(nil)

// NewService creates a new user service.
func NewService(
	repo Repository,
	firebaseService firebase.Service,
	cfg *config.Config,
	logger *zap.Logger,
) *ServiceImplementation {
	return &ServiceImplementation{
		repo:            repo,
		firebaseService: firebaseService,
		cfg:             cfg,
		logger:          logger,
	}
}

// Register creates a new account: an identity-provider user first, then the
// local profile row. The requested role is advisory; the repository promotes
// the very first profile to admin regardless, and anything other than the
// two known roles is rejected outright.
func (s *ServiceImplementation) Register(ctx context.Context, req shared.SignupRequest) (*shared.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if req.Role != "" && !common.ValidRole(req.Role) {
		return nil, common.ErrBadRequest.WithDetails("Role must be either 'admin' or 'user'.")
	}
	role := req.Role
	if role == "" {
		role = common.RoleUser
	}

	// Check if the email is already registered locally before touching the
	// identity provider.
	_, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return nil, common.ErrConflict.WithDetails("User with this email already exists.")
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user by email: %w", err)
	}

	uid, err := s.firebaseService.CreateUser(ctx, email, req.Password, req.DisplayName)
	if err != nil {
		s.logger.Error("Failed to create identity provider account", zap.Error(err), zap.String("email", email))
		return nil, common.ErrConflict.WithDetails("Could not create account with the identity provider.")
	}

	dbUser := &User{
		FirebaseUID: uid,
		Email:       email,
		Role:        role,
	}
	if req.DisplayName != "" {
		name := req.DisplayName
		dbUser.DisplayName = &name
	}

	if err := s.repo.Create(ctx, dbUser); err != nil {
		s.logger.Error("Failed to create user profile, rolling back identity account",
			zap.Error(err), zap.String("uid", uid))
		if delErr := s.firebaseService.DeleteUser(ctx, uid); delErr != nil {
			s.logger.Error("Rollback of identity account failed; orphaned account remains",
				zap.Error(delErr), zap.String("uid", uid))
		}
		if apiErr, ok := common.IsAPIError(err); ok {
			return nil, apiErr
		}
		return nil, fmt.Errorf("failed to create user profile: %w", err)
	}

	sharedUser := DBToShared(dbUser)
	s.logger.Info("User registered successfully",
		zap.String("uid", sharedUser.FirebaseUID),
		zap.String("role", sharedUser.Role))
	return sharedUser, nil
}

// GetOrCreateUserFromFirebaseClaims resolves a verified identity token into a
// local profile, creating one lazily on first sign-in if it does not exist.
func (s *ServiceImplementation) GetOrCreateUserFromFirebaseClaims(ctx context.Context, firebaseToken *firebaseauth.Token) (*shared.User, bool, error) {
	dbUser, err := s.repo.FindByFirebaseUID(ctx, firebaseToken.UID)
	if err == nil {
		return DBToShared(dbUser), false, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		s.logger.Error("Error finding user by uid", zap.Error(err), zap.String("uid", firebaseToken.UID))
		return nil, false, err
	}

	email, _ := firebaseToken.Claims["email"].(string)
	if email == "" {
		return nil, false, common.ErrUnauthorized.WithDetails("Identity token carries no email claim.")
	}

	newUser := &User{
		FirebaseUID: firebaseToken.UID,
		Email:       strings.ToLower(strings.TrimSpace(email)),
		Role:        common.RoleUser,
	}
	if name, ok := firebaseToken.Claims["name"].(string); ok && name != "" {
		newUser.DisplayName = &name
	}
	if picture, ok := firebaseToken.Claims["picture"].(string); ok && picture != "" {
		newUser.ImageURL = &picture
	}

	if err := s.repo.Create(ctx, newUser); err != nil {
		s.logger.Error("Failed to create profile on first sign-in", zap.Error(err), zap.String("uid", firebaseToken.UID))
		if apiErr, ok := common.IsAPIError(err); ok {
			return nil, false, apiErr
		}
		return nil, false, common.ErrInternalServer.WithDetails("Could not create user profile.")
	}

	s.logger.Info("Profile created lazily on first sign-in", zap.String("uid", newUser.FirebaseUID))
	return DBToShared(newUser), true, nil
}

// GetUserByID returns one profile by internal ID.
func (s *ServiceImplementation) GetUserByID(ctx context.Context, id uuid.UUID) (*shared.User, error) {
	dbUser, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return DBToShared(dbUser), nil
}

// UpdateProfile applies a partial self-update and returns the fresh profile.
func (s *ServiceImplementation) UpdateProfile(ctx context.Context, id uuid.UUID, update shared.ProfileUpdate) (*shared.User, error) {
	dbUser, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.DisplayName != nil {
		dbUser.DisplayName = update.DisplayName
	}
	if update.ImageURL != nil {
		dbUser.ImageURL = update.ImageURL
	}

	if err := s.repo.Update(ctx, dbUser); err != nil {
		s.logger.Error("Failed to update profile", zap.Error(err), zap.String("userID", id.String()))
		return nil, err
	}
	return DBToShared(dbUser), nil
}

// ListUsers returns the full roster. Authorization is the caller's problem;
// the handler gates this on the admin role.
func (s *ServiceImplementation) ListUsers(ctx context.Context) ([]shared.User, error) {
	dbUsers, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	users := make([]shared.User, len(dbUsers))
	for i := range dbUsers {
		users[i] = *DBToShared(&dbUsers[i])
	}
	return users, nil
}

// UpdateUserRole sets another user's role. The actor must not target
// themself; demoting the last admin through this path is how systems get
// locked out.
func (s *ServiceImplementation) UpdateUserRole(ctx context.Context, actorID uuid.UUID, targetUID string, role string) error {
	if !common.ValidRole(role) {
		return common.ErrBadRequest.WithDetails("Role must be either 'admin' or 'user'.")
	}

	target, err := s.repo.FindByFirebaseUID(ctx, targetUID)
	if err != nil {
		return err
	}
	if target.ID == actorID {
		return common.ErrForbidden.WithDetails("You cannot change your own role.")
	}

	if err := s.repo.UpdateRole(ctx, target.ID, role); err != nil {
		s.logger.Error("Failed to update role", zap.Error(err), zap.String("targetUID", targetUID))
		return err
	}
	s.logger.Info("User role updated",
		zap.String("targetUID", targetUID),
		zap.String("role", role),
		zap.String("actorID", actorID.String()))
	return nil
}
