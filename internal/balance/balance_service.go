package balance

import (
	"context"
	"fmt"
	"time"

	balanceerrors "go-leaveflow/internal/balance/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ApprovalCharge carries everything the ledger needs from an approved leave
// request. The workflow passes primitives so the two packages stay
// decoupled.
type ApprovalCharge struct {
	LeaveRequestID uuid.UUID
	RequestNumber  string
	UserID         uuid.UUID
	LeaveType      string
	StartDate      time.Time
	EndDate        time.Time
	ActorID        uuid.UUID
}

type BalanceResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Year      int    `json:"year"`
	Annual    int    `json:"annual"`
	Sick      int    `json:"sick"`
	Long      int    `json:"long"`
	Maternity int    `json:"maternity"`
	Paternity int    `json:"paternity"`
	Marriage  int    `json:"marriage"`
	Death     int    `json:"death"`
	HajjUmrah int    `json:"hajj_umrah"`
}

type Service interface {
	// ApplyApproval deducts the inclusive day count of an approved request
	// from the matching bucket and writes one audit row. It must run inside
	// the same transaction as the request's pending->approved transition;
	// that single transition is what makes the charge exactly-once.
	ApplyApproval(ctx context.Context, tx *gorm.DB, charge ApprovalCharge) error
	// GetForUser returns the balance row for a user/year, creating it with
	// defaults when absent.
	GetForUser(ctx context.Context, userID string, year int) (BalanceResponse, error)
}

type service struct {
	db     *gorm.DB
	repo   Repository
	logger *zap.Logger
}

func NewService(db *gorm.DB, repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("balance.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("balance.service")
	}
	return &service{db: db, repo: repo, logger: l}
}

// DayCount is the inclusive number of days between two dates.
func DayCount(start, end time.Time) int {
	return int(end.Sub(start).Hours()/24) + 1
}

func (s *service) ApplyApproval(ctx context.Context, tx *gorm.DB, charge ApprovalCharge) error {
	if !ValidType(charge.LeaveType) {
		return balanceerrors.ErrInvalidLeaveType
	}
	if charge.StartDate.After(charge.EndDate) {
		return balanceerrors.ErrInvalidDateRange
	}
	days := DayCount(charge.StartDate, charge.EndDate)
	year := charge.StartDate.Year()

	qtx := s.repo.WithTx(tx)

	b, err := s.lockOrCreate(ctx, qtx, charge.UserID, year)
	if err != nil {
		return err
	}

	bucket := b.bucket(charge.LeaveType)
	previous := *bucket
	// Negative balances are allowed; the audit row preserves the truth
	// either way.
	*bucket = previous - days

	if err := qtx.Update(ctx, b); err != nil {
		return err
	}

	rec := &AuditRecord{
		LeaveBalanceID:   b.ID,
		AdjustedBy:       charge.ActorID,
		AdjustmentType:   AdjustmentDeduction,
		AdjustmentAmount: -days,
		PreviousValue:    previous,
		NewValue:         *bucket,
		Notes:            fmt.Sprintf("leave request %s (%s)", charge.RequestNumber, charge.LeaveRequestID),
	}
	if err := qtx.CreateAudit(ctx, rec); err != nil {
		return err
	}

	s.logger.Info("leave balance deducted",
		zap.String("user_id", charge.UserID.String()),
		zap.String("leave_type", charge.LeaveType),
		zap.Int("days", days),
		zap.Int("previous", previous),
		zap.Int("new", *bucket),
		zap.String("leave_request_id", charge.LeaveRequestID.String()),
	)
	return nil
}

// lockOrCreate returns the locked balance row for user/year, creating it
// with defaults on first reference. A concurrent creator losing the
// (user_id, year) unique race falls back to locking the winner's row.
func (s *service) lockOrCreate(ctx context.Context, qtx Repository, userID uuid.UUID, year int) (*LeaveBalance, error) {
	b, err := qtx.FindForUpdate(ctx, userID.String(), year)
	if err != nil {
		return nil, err
	}
	if b != nil {
		return b, nil
	}

	fresh := defaultBalance(userID, year)
	if err := qtx.Create(ctx, fresh); err != nil {
		if IsUniqueViolation(err) {
			return qtx.FindForUpdate(ctx, userID.String(), year)
		}
		return nil, err
	}
	return fresh, nil
}

func (s *service) GetForUser(ctx context.Context, userID string, year int) (BalanceResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return BalanceResponse{}, balanceerrors.ErrBalanceNotFound
	}

	b, err := s.repo.FindByUserAndYear(ctx, userID, year)
	if err != nil {
		return BalanceResponse{}, err
	}
	if b == nil {
		fresh := defaultBalance(uid, year)
		if err := s.repo.Create(ctx, fresh); err != nil {
			if !IsUniqueViolation(err) {
				return BalanceResponse{}, err
			}
			if b, err = s.repo.FindByUserAndYear(ctx, userID, year); err != nil {
				return BalanceResponse{}, err
			}
		} else {
			b = fresh
		}
	}

	return mapToResponse(b), nil
}

func defaultBalance(userID uuid.UUID, year int) *LeaveBalance {
	return &LeaveBalance{
		ID:        uuid.New(),
		UserID:    userID,
		Year:      year,
		Annual:    DefaultAnnual,
		Sick:      DefaultSick,
		Long:      DefaultLong,
		Maternity: DefaultMaternity,
		Paternity: DefaultPaternity,
		Marriage:  DefaultMarriage,
		Death:     DefaultDeath,
		HajjUmrah: DefaultHajjUmrah,
	}
}

func mapToResponse(b *LeaveBalance) BalanceResponse {
	return BalanceResponse{
		ID:        b.ID.String(),
		UserID:    b.UserID.String(),
		Year:      b.Year,
		Annual:    b.Annual,
		Sick:      b.Sick,
		Long:      b.Long,
		Maternity: b.Maternity,
		Paternity: b.Paternity,
		Marriage:  b.Marriage,
		Death:     b.Death,
		HajjUmrah: b.HajjUmrah,
	}
}
