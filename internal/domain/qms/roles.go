package qms

import (
	"fmt"
	"strings"
)

type Role string

const (
	RoleAdmin          Role = "admin"
	RoleQualityManager Role = "quality_manager"
	RoleQualityAuditor Role = "quality_auditor"
	RoleManager        Role = "manager"
	RoleViewer         Role = "viewer"
)

func ParseRole(raw string) (Role, error) {
	switch role := Role(strings.ToLower(strings.TrimSpace(raw))); role {
	case RoleAdmin, RoleQualityManager, RoleQualityAuditor, RoleManager, RoleViewer:
		return role, nil
	case "":
		return RoleViewer, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, raw)
	}
}

// Actor is the authenticated user performing an operation.
type Actor struct {
	ID    string
	Name  string
	Email string
	Role  Role
}

// DisplayName mirrors the original "full name, else e-mail" rule.
func (a Actor) DisplayName() string {
	if name := strings.TrimSpace(a.Name); name != "" {
		return name
	}
	if email := strings.TrimSpace(a.Email); email != "" {
		return email
	}
	return a.ID
}

func (r Role) in(allowed ...Role) bool {
	for _, candidate := range allowed {
		if r == candidate {
			return true
		}
	}
	return false
}

func (r Role) CanRaiseCAR() bool {
	return r.in(RoleAdmin, RoleQualityManager, RoleQualityAuditor)
}

// CanEditRecords covers CAR field edits, CAP saves and general documents.
func (r Role) CanEditRecords() bool {
	return r.in(RoleAdmin, RoleQualityManager, RoleQualityAuditor, RoleManager)
}

// IsQualityManagerClass gates verification sign-off.
func (r Role) IsQualityManagerClass() bool {
	return r.in(RoleAdmin, RoleQualityManager)
}

func (r Role) CanEditRisks() bool {
	return r.in(RoleAdmin, RoleQualityManager, RoleQualityAuditor)
}

func (r Role) CanDelete() bool {
	return r == RoleAdmin
}

// RequireRole returns ErrRoleNotPermitted when allowed is false.
func RequireRole(actor Actor, allowed bool, action string) error {
	if allowed {
		return nil
	}
	return fmt.Errorf("%w: %s cannot %s", ErrRoleNotPermitted, actor.Role, action)
}
