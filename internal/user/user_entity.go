package user

import (
	"time"

	"github.com/google/uuid"
)

// Legacy single-role values still present on the users table. The roles
// tables are the source of truth for grants; this field only feeds the
// degraded fallback path and the routing shortcuts.
const (
	RoleOwner             = "owner"
	RoleAdmin             = "admin"
	RoleHRManager         = "hr_manager"
	RoleDepartmentManager = "department_manager"
	RoleEmployee          = "employee"
)

// User is owned by the user-management subsystem. This service only reads it.
type User struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	FullName   string    `gorm:"type:varchar(120);not null"`
	Department string    `gorm:"type:varchar(120)"`
	Role       string    `gorm:"type:varchar(40);not null;default:'employee'"`
	IsOwner    bool      `gorm:"not null;default:false"`
	IsActive   bool      `gorm:"not null;default:true"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (User) TableName() string { return "users" }

// Department rows are read only for the manager designation.
type Department struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Name      string     `gorm:"type:varchar(120);not null;uniqueIndex"`
	ManagerID *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Department) TableName() string { return "departments" }
