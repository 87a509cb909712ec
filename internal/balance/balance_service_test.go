package balance_test

import (
	"context"
	"testing"
	"time"

	"go-leaveflow/internal/balance"
	balanceerrors "go-leaveflow/internal/balance/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeBalanceRepo struct {
	findForUpdateFn     func(ctx context.Context, userID string, year int) (*balance.LeaveBalance, error)
	findByUserAndYearFn func(ctx context.Context, userID string, year int) (*balance.LeaveBalance, error)
	createFn            func(ctx context.Context, b *balance.LeaveBalance) error

	created      []*balance.LeaveBalance
	updated      []*balance.LeaveBalance
	auditRecords []*balance.AuditRecord
}

func (f *fakeBalanceRepo) WithTx(tx *gorm.DB) balance.Repository { return f }

func (f *fakeBalanceRepo) FindForUpdate(ctx context.Context, userID string, year int) (*balance.LeaveBalance, error) {
	if f.findForUpdateFn != nil {
		return f.findForUpdateFn(ctx, userID, year)
	}
	return nil, nil
}

func (f *fakeBalanceRepo) FindByUserAndYear(ctx context.Context, userID string, year int) (*balance.LeaveBalance, error) {
	if f.findByUserAndYearFn != nil {
		return f.findByUserAndYearFn(ctx, userID, year)
	}
	return nil, nil
}

func (f *fakeBalanceRepo) Create(ctx context.Context, b *balance.LeaveBalance) error {
	if f.createFn != nil {
		if err := f.createFn(ctx, b); err != nil {
			return err
		}
	}
	f.created = append(f.created, b)
	return nil
}

func (f *fakeBalanceRepo) Update(ctx context.Context, b *balance.LeaveBalance) error {
	f.updated = append(f.updated, b)
	return nil
}

func (f *fakeBalanceRepo) CreateAudit(ctx context.Context, rec *balance.AuditRecord) error {
	f.auditRecords = append(f.auditRecords, rec)
	return nil
}

func (f *fakeBalanceRepo) ListAudit(ctx context.Context, balanceID string) ([]balance.AuditRecord, error) {
	return nil, nil
}

func existingBalance(userID uuid.UUID, year, annual int) *balance.LeaveBalance {
	return &balance.LeaveBalance{
		ID:        uuid.New(),
		UserID:    userID,
		Year:      year,
		Annual:    annual,
		Sick:      balance.DefaultSick,
		Long:      balance.DefaultLong,
		Maternity: balance.DefaultMaternity,
		Paternity: balance.DefaultPaternity,
		Marriage:  balance.DefaultMarriage,
		Death:     balance.DefaultDeath,
		HajjUmrah: balance.DefaultHajjUmrah,
	}
}

func TestDayCount(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2026, 9, d, 0, 0, 0, 0, time.UTC)
	}

	assert.Equal(t, 1, balance.DayCount(day(7), day(7)))
	assert.Equal(t, 3, balance.DayCount(day(7), day(9)))
	assert.Equal(t, 30, balance.DayCount(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), day(30)))
}

func TestBalanceServiceApplyApproval(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	actorID := uuid.New()

	charge := func(leaveType string, startDay, endDay int) balance.ApprovalCharge {
		return balance.ApprovalCharge{
			LeaveRequestID: uuid.New(),
			RequestNumber:  "LR-2026-00007",
			UserID:         userID,
			LeaveType:      leaveType,
			StartDate:      time.Date(2026, 9, startDay, 0, 0, 0, 0, time.UTC),
			EndDate:        time.Date(2026, 9, endDay, 0, 0, 0, 0, time.UTC),
			ActorID:        actorID,
		}
	}

	t.Run("deducts the inclusive day count and writes an audit row", func(t *testing.T) {
		repo := &fakeBalanceRepo{
			findForUpdateFn: func(ctx context.Context, id string, year int) (*balance.LeaveBalance, error) {
				return existingBalance(userID, year, 12), nil
			},
		}
		svc := balance.NewService(nil, repo, zap.NewNop())

		err := svc.ApplyApproval(ctx, nil, charge(balance.TypeAnnual, 7, 9))
		assert.NoError(t, err)

		assert.Len(t, repo.updated, 1)
		assert.Equal(t, 9, repo.updated[0].Annual)

		assert.Len(t, repo.auditRecords, 1)
		rec := repo.auditRecords[0]
		assert.Equal(t, balance.AdjustmentDeduction, rec.AdjustmentType)
		assert.Equal(t, -3, rec.AdjustmentAmount)
		assert.Equal(t, 12, rec.PreviousValue)
		assert.Equal(t, 9, rec.NewValue)
		assert.Equal(t, actorID, rec.AdjustedBy)
		assert.Contains(t, rec.Notes, "LR-2026-00007")
	})

	t.Run("balance may go negative and the audit row says so", func(t *testing.T) {
		repo := &fakeBalanceRepo{
			findForUpdateFn: func(ctx context.Context, id string, year int) (*balance.LeaveBalance, error) {
				return existingBalance(userID, year, 2), nil
			},
		}
		svc := balance.NewService(nil, repo, zap.NewNop())

		err := svc.ApplyApproval(ctx, nil, charge(balance.TypeAnnual, 1, 5))
		assert.NoError(t, err)

		assert.Equal(t, -3, repo.updated[0].Annual)
		assert.Equal(t, 2, repo.auditRecords[0].PreviousValue)
		assert.Equal(t, -3, repo.auditRecords[0].NewValue)
	})

	t.Run("creates the row with defaults on first reference", func(t *testing.T) {
		repo := &fakeBalanceRepo{}
		svc := balance.NewService(nil, repo, zap.NewNop())

		err := svc.ApplyApproval(ctx, nil, charge(balance.TypeSick, 7, 8))
		assert.NoError(t, err)

		assert.Len(t, repo.created, 1)
		assert.Equal(t, 2026, repo.created[0].Year)
		assert.Equal(t, balance.DefaultSick-2, repo.updated[0].Sick)
	})

	t.Run("deducts from the matching bucket only", func(t *testing.T) {
		repo := &fakeBalanceRepo{
			findForUpdateFn: func(ctx context.Context, id string, year int) (*balance.LeaveBalance, error) {
				return existingBalance(userID, year, 12), nil
			},
		}
		svc := balance.NewService(nil, repo, zap.NewNop())

		err := svc.ApplyApproval(ctx, nil, charge(balance.TypeMarriage, 7, 9))
		assert.NoError(t, err)

		assert.Equal(t, balance.DefaultMarriage-3, repo.updated[0].Marriage)
		assert.Equal(t, 12, repo.updated[0].Annual)
	})

	t.Run("rejects an unknown leave type", func(t *testing.T) {
		svc := balance.NewService(nil, &fakeBalanceRepo{}, zap.NewNop())

		err := svc.ApplyApproval(ctx, nil, charge("sabbatical", 7, 9))
		assert.ErrorIs(t, err, balanceerrors.ErrInvalidLeaveType)
	})

	t.Run("rejects an inverted range", func(t *testing.T) {
		svc := balance.NewService(nil, &fakeBalanceRepo{}, zap.NewNop())

		err := svc.ApplyApproval(ctx, nil, charge(balance.TypeAnnual, 9, 7))
		assert.ErrorIs(t, err, balanceerrors.ErrInvalidDateRange)
	})
}

func TestBalanceServiceGetForUser(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("returns the stored row", func(t *testing.T) {
		repo := &fakeBalanceRepo{
			findByUserAndYearFn: func(ctx context.Context, id string, year int) (*balance.LeaveBalance, error) {
				b := existingBalance(userID, year, 7)
				return b, nil
			},
		}
		svc := balance.NewService(nil, repo, zap.NewNop())

		resp, err := svc.GetForUser(ctx, userID.String(), 2026)
		assert.NoError(t, err)
		assert.Equal(t, 7, resp.Annual)
		assert.Equal(t, 2026, resp.Year)
	})

	t.Run("creates defaults lazily", func(t *testing.T) {
		repo := &fakeBalanceRepo{}
		svc := balance.NewService(nil, repo, zap.NewNop())

		resp, err := svc.GetForUser(ctx, userID.String(), 2026)
		assert.NoError(t, err)
		assert.Len(t, repo.created, 1)
		assert.Equal(t, balance.DefaultAnnual, resp.Annual)
		assert.Equal(t, balance.DefaultHajjUmrah, resp.HajjUmrah)
	})

	t.Run("rejects a malformed user id", func(t *testing.T) {
		svc := balance.NewService(nil, &fakeBalanceRepo{}, zap.NewNop())

		_, err := svc.GetForUser(ctx, "not-a-uuid", 2026)
		assert.ErrorIs(t, err, balanceerrors.ErrBalanceNotFound)
	})
}
