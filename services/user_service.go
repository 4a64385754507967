package services

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cavemicro/isolate-api/auth"
	"github.com/cavemicro/isolate-api/models"
	"github.com/cavemicro/isolate-api/notify"
	apierrors "github.com/cavemicro/isolate-api/pkg/errors"
	"gorm.io/gorm"
)

// UserService handles account registration, login, and user reads.
type UserService struct {
	db       *gorm.DB
	tokens   *auth.TokenService
	policy   *PolicyService
	notifier notify.Notifier
}

// NewUserService creates a new user service.
func NewUserService(db *gorm.DB, tokens *auth.TokenService, policy *PolicyService, notifier notify.Notifier) *UserService {
	if notifier == nil {
		notifier = notify.NoopNotifier{}
	}
	return &UserService{db: db, tokens: tokens, policy: policy, notifier: notifier}
}

// userResponse projects a user with the role name computed from the Role
// relation.
func userResponse(user *models.User, roleName string) models.UserResponse {
	return models.UserResponse{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Username:  user.Username,
		Email:     user.Email,
		RoleName:  roleName,
	}
}

// Register creates a new account. Creating an Admin account requires the
// caller to already hold the Admin role, on top of any endpoint-level
// permission check.
func (s *UserService) Register(caller *models.User, req *models.RegisterRequest) (*models.UserResponse, error) {
	if req.FirstName == "" || req.LastName == "" || req.Username == "" ||
		req.Email == "" || req.Password == "" || req.RoleName == "" {
		return nil, apierrors.ValidationError("missing required fields")
	}
	if len(req.FirstName) > models.MaxNameLength || len(req.LastName) > models.MaxNameLength ||
		len(req.Username) > models.MaxNameLength {
		return nil, apierrors.ValidationError(fmt.Sprintf("name fields must be at most %d characters", models.MaxNameLength))
	}
	if len(req.Email) > models.MaxEmailLength {
		return nil, apierrors.ValidationError(fmt.Sprintf("email must be at most %d characters", models.MaxEmailLength))
	}

	var role models.Role
	err := s.db.Where("role_name = ?", req.RoleName).First(&role).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierrors.NotFoundError("Role not found")
	}
	if err != nil {
		return nil, apierrors.InternalErrorWithCause("failed to load role", err)
	}

	if role.RoleName == models.RoleAdmin {
		admin, err := s.policy.IsAdmin(caller)
		if err != nil {
			return nil, err
		}
		if !admin {
			return nil, apierrors.ForbiddenError("only an Admin may create Admin accounts")
		}
	}

	var collided []string
	for _, key := range []struct{ column, label, value string }{
		{"username", "username", req.Username},
		{"email", "email", req.Email},
	} {
		var count int64
		if err := s.db.Model(&models.User{}).Where(fmt.Sprintf("%s = ?", key.column), key.value).Count(&count).Error; err != nil {
			return nil, apierrors.InternalErrorWithCause("uniqueness check failed", err)
		}
		if count > 0 {
			collided = append(collided, key.label)
		}
	}
	if len(collided) > 0 {
		verb := "already exists"
		if len(collided) > 1 {
			verb = "already exist"
		}
		return nil, apierrors.ConflictError(fmt.Sprintf("%s %s", strings.Join(collided, " and "), verb))
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apierrors.InternalErrorWithCause("failed to hash password", err)
	}

	user := models.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		RoleID:       role.ID,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, apierrors.InternalErrorWithCause("failed to create user", err)
	}

	// Best-effort credential delivery; a failed send never rolls back the
	// already-created account.
	go func() {
		subject := "Your isolate registry account"
		body := fmt.Sprintf("Hello %s,\n\nYour account %q has been created.\n", user.FirstName, user.Username)
		if err := s.notifier.Send(user.Email, subject, body); err != nil {
			slog.Error("Failed to send account notification", "email", user.Email, "error", err)
		}
	}()

	response := userResponse(&user, role.RoleName)
	return &response, nil
}

// Login verifies credentials and issues a bearer token.
func (s *UserService) Login(req *models.LoginRequest) (*models.LoginResponse, error) {
	if req.Username == "" || req.Password == "" {
		return nil, apierrors.ValidationError("missing required fields")
	}

	var user models.User
	err := s.db.Preload("Role").Where("username = ?", req.Username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierrors.UnauthorizedError("invalid credentials")
	}
	if err != nil {
		return nil, apierrors.InternalErrorWithCause("failed to load user", err)
	}
	if !auth.ComparePassword(req.Password, user.PasswordHash) {
		return nil, apierrors.UnauthorizedError("invalid credentials")
	}

	token, err := s.tokens.Issue(&user)
	if err != nil {
		return nil, apierrors.InternalErrorWithCause("failed to issue token", err)
	}
	return &models.LoginResponse{
		Token: token,
		User:  userResponse(&user, user.Role.RoleName),
	}, nil
}

// Load returns the user row for a verified credential subject. Used by
// the auth middleware; an unknown subject leaves the caller anonymous.
func (s *UserService) Load(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.UnauthorizedError("credential subject does not exist")
		}
		return nil, apierrors.InternalErrorWithCause("failed to load user", err)
	}
	return &user, nil
}

// List returns every non-deleted user with projected role names.
func (s *UserService) List() ([]models.UserResponse, error) {
	var users []models.User
	if err := s.db.Preload("Role").Order("id").Find(&users).Error; err != nil {
		return nil, apierrors.InternalErrorWithCause("failed to list users", err)
	}
	responses := make([]models.UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, userResponse(&users[i], users[i].Role.RoleName))
	}
	return responses, nil
}

// Get returns one user with the projected role name.
func (s *UserService) Get(id uint) (*models.UserResponse, error) {
	var user models.User
	if err := s.db.Preload("Role").First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.NotFoundError("User not found")
		}
		return nil, apierrors.InternalErrorWithCause("failed to load user", err)
	}
	response := userResponse(&user, user.Role.RoleName)
	return &response, nil
}
