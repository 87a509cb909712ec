package counter

import (
	"context"

	"gorm.io/gorm"
)

// Repository hands out gap-free sequence numbers per counter scope
// (e.g. "leave_request:2026"). Increments are atomic at the database.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetNextValue(ctx context.Context, scope string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) GetNextValue(ctx context.Context, scope string) (int64, error) {
	var nextValue int64

	// Atomic upsert-and-increment so concurrent callers never share a value.
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO counters (scope, last_value, updated_at)
		VALUES (?, 1, now())
		ON CONFLICT (scope) DO UPDATE
		SET last_value = counters.last_value + 1, updated_at = now()
		RETURNING last_value
	`, scope).Scan(&nextValue).Error

	if err != nil {
		return 0, err
	}

	return nextValue, nil
}
