package access

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PermissionDefinition is one materialized permission atom. Name is the
// canonical "{object}_{level}_{scope}" string and is the single source of
// truth; the triple is re-derived from it on read.
type PermissionDefinition struct {
	ID          string `gorm:"primaryKey;size:36"`
	Name        string `gorm:"uniqueIndex;not null;size:128"`
	Description string
}

func (p *PermissionDefinition) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Triple decodes the definition's canonical name.
func (p *PermissionDefinition) Triple() (Triple, error) {
	return ParseName(p.Name)
}

// Role is a named bundle of permission definitions. The five built-in system
// roles carry their name as id and are immutable and undeletable.
type Role struct {
	ID          string `gorm:"primaryKey;size:64"`
	Name        string `gorm:"uniqueIndex;not null;size:64"`
	Description string
	IsSystem    bool `gorm:"not null;default:false"`
}

func (r *Role) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// RolePermission joins roles to permission definitions. The composite
// primary key rules out duplicate pairs.
type RolePermission struct {
	RoleID       string `gorm:"primaryKey;size:64;column:role"`
	PermissionID string `gorm:"primaryKey;size:36"`
}

func (RolePermission) TableName() string { return "role_permissions" }

// Profile is the principal record the enclosing application keys sessions
// on. Only the role column matters to this subsystem: it backs the role
// in-use guard and principal role resolution.
type Profile struct {
	ID       string `gorm:"primaryKey;size:64"`
	Email    string `gorm:"uniqueIndex;not null;size:255"`
	FullName string `gorm:"size:255"`
	RoleID   string `gorm:"column:role;index;size:64"`
}

// Team groups profiles for the team scope.
type Team struct {
	ID   string `gorm:"primaryKey;size:36"`
	Name string `gorm:"uniqueIndex;not null;size:128"`
}

func (t *Team) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// TeamMember maps a profile into a team.
type TeamMember struct {
	TeamID    string `gorm:"primaryKey;size:36"`
	ProfileID string `gorm:"primaryKey;size:64"`
}

// AuditEntry records an admin mutation or access decision.
type AuditEntry struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	ActorID   string `gorm:"index;size:64"`
	Action    string `gorm:"not null;size:64"`
	Target    string `gorm:"not null;size:255"`
	Success   bool
	CreatedAt time.Time
}
