package user

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repository is the read-only view of users and departments this service
// needs for routing and authorization. Mutations live in the user-management
// subsystem.
type Repository interface {
	FindByID(ctx context.Context, id string) (*User, error)
	// FindDepartmentManager returns the active user designated as manager of
	// the named department via departments.manager_id, or nil when the
	// department has no designation.
	FindDepartmentManager(ctx context.Context, department string) (*User, error)
	// FindActiveManagerInDepartment returns any active user carrying the
	// department_manager role inside the department, earliest created first.
	FindActiveManagerInDepartment(ctx context.Context, department string) (*User, error)
	// FindFirstActiveByRole returns the earliest-created active user holding
	// the given legacy role.
	FindFirstActiveByRole(ctx context.Context, role string) (*User, error)
	FindOwner(ctx context.Context) (*User, error)
	CountActiveAdminTier(ctx context.Context) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByID(ctx context.Context, id string) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) FindDepartmentManager(ctx context.Context, department string) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).
		Table("users").
		Joins("JOIN departments ON departments.manager_id = users.id").
		Where("departments.name = ?", department).
		Where("users.is_active = ?", true).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) FindActiveManagerInDepartment(ctx context.Context, department string) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).
		Where("department = ?", department).
		Where("role = ?", RoleDepartmentManager).
		Where("is_active = ?", true).
		Order("created_at ASC").
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) FindFirstActiveByRole(ctx context.Context, role string) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).
		Where("role = ?", role).
		Where("is_active = ?", true).
		Order("created_at ASC").
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) FindOwner(ctx context.Context) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).
		Where("is_owner = ?", true).
		Where("is_active = ?", true).
		Order("created_at ASC").
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) CountActiveAdminTier(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&User{}).
		Where("is_active = ?", true).
		Where("is_owner = ? OR role = ?", true, RoleAdmin).
		Count(&count).Error
	return count, err
}
