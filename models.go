package portal

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Role is the portal role assigned to a user
type Role = string

const (
	// RoleApplicant is the default role for a freshly provisioned user
	RoleApplicant Role = "applicant"
	// RoleStudent is an enrolled learner
	RoleStudent Role = "student"
	// RoleStaff can review applicants and browse reports
	RoleStaff Role = "staff"
	// RoleAdmin has full portal access, including role management
	RoleAdmin Role = "admin"
)

// AccountStatus is the application/acceptance state of a user
type AccountStatus = string

const (
	// StatusPending is the default status for a freshly provisioned user
	StatusPending AccountStatus = "pending"
	// StatusAccepted marks an approved account
	StatusAccepted AccountStatus = "accepted"
	// StatusDenied marks a rejected account
	StatusDenied AccountStatus = "denied"
)

// User is the locally persisted identity record
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID     `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username      string        `bun:"username,notnull" json:"username,omitempty"`
	Avatar        string        `bun:"avatar" json:"avatar,omitempty"`
	DiscordID     string        `bun:"discord_id,nullzero,unique" json:"discord_id,omitempty"`
	Role          Role          `bun:"user_role,notnull" json:"user_role,omitempty"`
	Status        AccountStatus `bun:"status,notnull" json:"status,omitempty"`
	CreatedAt     *time.Time    `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time    `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// EnsureDefaults backfills role and status on records that predate both
// columns being mandatory.
func (u *User) EnsureDefaults() {
	if u.Role == "" {
		u.Role = RoleApplicant
	}
	if u.Status == "" {
		u.Status = StatusPending
	}
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsStaff reports whether the user holds the staff or admin role
func (u *User) IsStaff() bool {
	return u.Role == RoleStaff || u.Role == RoleAdmin
}

// IsAccepted reports whether the account has been approved
func (u *User) IsAccepted() bool {
	return u.Status == StatusAccepted
}

// RoleIsValid checks if the role is one of the predefined valid roles
func RoleIsValid(r Role) bool {
	switch r {
	case RoleApplicant, RoleStudent, RoleStaff, RoleAdmin:
		return true
	default:
		return false
	}
}

// StatusIsValid checks if the status is one of the predefined valid statuses
func StatusIsValid(s AccountStatus) bool {
	switch s {
	case StatusPending, StatusAccepted, StatusDenied:
		return true
	default:
		return false
	}
}

// ParseRole safely parses a string into a Role
func ParseRole(roleStr string) (Role, bool) {
	role := Role(roleStr)
	return role, RoleIsValid(role)
}

// ParseStatus safely parses a string into an AccountStatus
func ParseStatus(statusStr string) (AccountStatus, bool) {
	status := AccountStatus(statusStr)
	return status, StatusIsValid(status)
}

// AllRoles returns the predefined roles in escalation order
func AllRoles() []Role {
	return []Role{
		RoleApplicant,
		RoleStudent,
		RoleStaff,
		RoleAdmin,
	}
}

// AllStatuses returns the predefined account statuses
func AllStatuses() []AccountStatus {
	return []AccountStatus{
		StatusPending,
		StatusAccepted,
		StatusDenied,
	}
}

func roleIn(role Role, set []Role) bool {
	for _, r := range set {
		if r == role {
			return true
		}
	}
	return false
}

func statusIn(status AccountStatus, set []AccountStatus) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}
