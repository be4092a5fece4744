package authz

import (
	"github.com/google/uuid"

	"github.com/gramv/onboardingsoftware/internal/apperr"
	"github.com/gramv/onboardingsoftware/internal/models"
)

// Actor is the authenticated principal attached to a request.
type Actor struct {
	UserID         uuid.UUID
	Role           models.Role
	OrganizationID uuid.UUID
}

// CanManageOrganization gates mutating access to resources owned by orgID.
// hr_admin is unrestricted; managers only inside their own organization;
// employees never manage org-level resources.
func CanManageOrganization(actor Actor, orgID uuid.UUID) error {
	switch actor.Role {
	case models.RoleHRAdmin:
		return nil
	case models.RoleManager:
		if actor.OrganizationID == orgID {
			return nil
		}
		return apperr.Forbidden("insufficient permissions for this organization")
	default:
		return apperr.Forbidden("insufficient permissions")
	}
}

// CanViewOrganization gates org-scoped reads. Same matrix as management:
// the read surfaces covered here are already resource-scoped, not broadcast.
func CanViewOrganization(actor Actor, orgID uuid.UUID) error {
	return CanManageOrganization(actor, orgID)
}

// CanAccessEmployeeResource gates access to a resource owned by a specific
// employee (documents, schedules, sessions). ownerOrgID is the resource's
// organization, ownerUserID the user the employee record belongs to.
func CanAccessEmployeeResource(actor Actor, ownerOrgID, ownerUserID uuid.UUID) error {
	switch actor.Role {
	case models.RoleHRAdmin:
		return nil
	case models.RoleManager:
		if actor.OrganizationID == ownerOrgID {
			return nil
		}
		return apperr.Forbidden("insufficient permissions for this organization")
	case models.RoleEmployee:
		if actor.UserID == ownerUserID {
			return nil
		}
		return apperr.Forbidden("you may only access your own records")
	default:
		return apperr.Forbidden("insufficient permissions")
	}
}

// CanViewAnnouncement gates the broadcast read surface. Active announcements
// are visible to anyone inside the target organization; global announcements
// (nil org) are visible to everyone.
func CanViewAnnouncement(actor Actor, orgID *uuid.UUID) error {
	if orgID == nil || actor.Role == models.RoleHRAdmin {
		return nil
	}
	if actor.OrganizationID == *orgID {
		return nil
	}
	return apperr.Forbidden("insufficient permissions for this organization")
}

// CanMessage enforces the directed messaging matrix:
//
//	hr_admin -> anyone
//	manager  -> employees in own org, or any hr_admin
//	employee -> managers in own org, or any hr_admin
func CanMessage(sender Actor, receiverRole models.Role, receiverOrgID uuid.UUID) error {
	switch sender.Role {
	case models.RoleHRAdmin:
		return nil
	case models.RoleManager:
		if receiverRole == models.RoleHRAdmin {
			return nil
		}
		if receiverRole == models.RoleEmployee && sender.OrganizationID == receiverOrgID {
			return nil
		}
	case models.RoleEmployee:
		if receiverRole == models.RoleHRAdmin {
			return nil
		}
		if receiverRole == models.RoleManager && sender.OrganizationID == receiverOrgID {
			return nil
		}
	}
	return apperr.Forbidden("you are not allowed to message this user")
}
