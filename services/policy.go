package services

import (
	"errors"

	"github.com/cavemicro/isolate-api/models"
	apierrors "github.com/cavemicro/isolate-api/pkg/errors"
	"gorm.io/gorm"
)

// PolicyService evaluates roles, permissions, and isolate visibility
// tiers. A nil user means the caller is anonymous.
type PolicyService struct {
	db *gorm.DB
}

// NewPolicyService creates a new policy service.
func NewPolicyService(db *gorm.DB) *PolicyService {
	return &PolicyService{db: db}
}

// loadRole fetches the caller's role with its permission set. RoleID is
// the source of truth; the role name is never read off the user row.
func (p *PolicyService) loadRole(user *models.User) (*models.Role, error) {
	var role models.Role
	err := p.db.Preload("Permissions").First(&role, user.RoleID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.ForbiddenError("caller role does not exist")
		}
		return nil, apierrors.InternalErrorWithCause("failed to load caller role", err)
	}
	return &role, nil
}

// RoleName projects the caller's role name from the Role relation.
func (p *PolicyService) RoleName(user *models.User) (string, error) {
	role, err := p.loadRole(user)
	if err != nil {
		return "", err
	}
	return role.RoleName, nil
}

// IsAdmin reports whether the caller holds the Admin role.
func (p *PolicyService) IsAdmin(user *models.User) (bool, error) {
	if user == nil {
		return false, nil
	}
	name, err := p.RoleName(user)
	if err != nil {
		return false, err
	}
	return name == models.RoleAdmin, nil
}

// VisibleLevels returns the access levels the caller may see on list
// reads. nil means unrestricted (Admin).
func (p *PolicyService) VisibleLevels(user *models.User) ([]models.AccessLevel, error) {
	if user == nil {
		return []models.AccessLevel{models.AccessLevelPublic}, nil
	}
	admin, err := p.IsAdmin(user)
	if err != nil {
		return nil, err
	}
	if admin {
		return nil, nil
	}
	return []models.AccessLevel{models.AccessLevelPublic, models.AccessLevelLimited}, nil
}

// AuthorizeIsolateRead checks a single-isolate read: anonymous callers
// see only Public (401 otherwise); authenticated callers see Public and
// Limited; Restricted is Admin-only (403 otherwise).
func (p *PolicyService) AuthorizeIsolateRead(user *models.User, isolate *models.Isolate) error {
	if user == nil {
		if isolate.AccessLevel != models.AccessLevelPublic {
			return apierrors.UnauthorizedError("authentication required for this isolate")
		}
		return nil
	}
	if isolate.AccessLevel != models.AccessLevelRestricted {
		return nil
	}
	admin, err := p.IsAdmin(user)
	if err != nil {
		return err
	}
	if !admin {
		return apierrors.ForbiddenError("restricted isolate")
	}
	return nil
}

// RequireAccess checks the caller against an allow list that mixes role
// names (e.g. "Admin") with permission names (e.g. "read_cave"): holding
// either is sufficient.
func (p *PolicyService) RequireAccess(user *models.User, allowed []string) error {
	if user == nil {
		return apierrors.UnauthorizedError("authentication required")
	}
	role, err := p.loadRole(user)
	if err != nil {
		return err
	}

	allowedSet := make(map[string]bool, len(allowed))
	for _, name := range allowed {
		allowedSet[name] = true
	}
	if allowedSet[role.RoleName] {
		return nil
	}
	for _, permission := range role.Permissions {
		if allowedSet[permission.PermissionName] {
			return nil
		}
	}
	return apierrors.ForbiddenError("insufficient role or permissions")
}
