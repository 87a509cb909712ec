package balance

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// FindForUpdate locks the balance row for the rest of the transaction.
	FindForUpdate(ctx context.Context, userID string, year int) (*LeaveBalance, error)
	FindByUserAndYear(ctx context.Context, userID string, year int) (*LeaveBalance, error)
	Create(ctx context.Context, b *LeaveBalance) error
	Update(ctx context.Context, b *LeaveBalance) error
	CreateAudit(ctx context.Context, rec *AuditRecord) error
	ListAudit(ctx context.Context, balanceID string) ([]AuditRecord, error)
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

func (r *repository) FindForUpdate(ctx context.Context, userID string, year int) (*LeaveBalance, error) {
	var b LeaveBalance
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND year = ?", userID, year).
		First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) FindByUserAndYear(ctx context.Context, userID string, year int) (*LeaveBalance, error) {
	var b LeaveBalance
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND year = ?", userID, year).
		First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) Create(ctx context.Context, b *LeaveBalance) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *repository) Update(ctx context.Context, b *LeaveBalance) error {
	return r.db.WithContext(ctx).Save(b).Error
}

func (r *repository) CreateAudit(ctx context.Context, rec *AuditRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *repository) ListAudit(ctx context.Context, balanceID string) ([]AuditRecord, error) {
	var recs []AuditRecord
	err := r.db.WithContext(ctx).
		Where("leave_balance_id = ?", balanceID).
		Order("created_at ASC").
		Find(&recs).Error
	return recs, err
}

// IsUniqueViolation detects the (user_id, year) race when two transactions
// lazily create the same balance row.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
