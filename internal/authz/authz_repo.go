package authz

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	GetRolesForUser(ctx context.Context, userID string) ([]Role, error)
	GetPermissionsForRoles(ctx context.Context, roleIDs []string) ([]Permission, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetRolesForUser(ctx context.Context, userID string) ([]Role, error) {
	var roles []Role
	err := r.db.WithContext(ctx).
		Table("roles").
		Select("roles.*").
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Order("roles.name ASC").
		Scan(&roles).Error
	return roles, err
}

func (r *repository) GetPermissionsForRoles(ctx context.Context, roleIDs []string) ([]Permission, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	var perms []Permission
	err := r.db.WithContext(ctx).
		Table("permissions").
		Select("DISTINCT permissions.*").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Where("role_permissions.role_id IN ?", roleIDs).
		Order("permissions.name ASC").
		Scan(&perms).Error
	return perms, err
}
