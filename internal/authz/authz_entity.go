package authz

import (
	"time"

	"github.com/google/uuid"
)

type Role struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name         string    `gorm:"type:varchar(60);not null;uniqueIndex"`
	DisplayName  string    `gorm:"type:varchar(120)"`
	Description  string    `gorm:"type:text"`
	IsSystemRole bool      `gorm:"not null;default:false"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Role) TableName() string { return "roles" }

type Permission struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string    `gorm:"type:varchar(120);not null;uniqueIndex"`
	Description string    `gorm:"type:text"`
	Category    string    `gorm:"type:varchar(60)"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Permission) TableName() string { return "permissions" }
