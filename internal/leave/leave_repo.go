package leave

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, r *LeaveRequest) error
	FindByID(ctx context.Context, id string) (*LeaveRequest, error)
	// FindByIDForUpdate locks the request row; every decision serializes on
	// this lock.
	FindByIDForUpdate(ctx context.Context, id string) (*LeaveRequest, error)
	Update(ctx context.Context, r *LeaveRequest) error
	HasOverlappingRequest(ctx context.Context, userID string, startDate, endDate time.Time) (bool, error)

	CreateEntry(ctx context.Context, e *ApprovalWorkflowEntry) error
	UpdateEntry(ctx context.Context, e *ApprovalWorkflowEntry) error
	FindEntries(ctx context.Context, leaveRequestID string) ([]ApprovalWorkflowEntry, error)
	FindEntryAtLevelForUpdate(ctx context.Context, leaveRequestID string, level int) (*ApprovalWorkflowEntry, error)
	FindPendingForApprover(ctx context.Context, approverID string) ([]PendingRow, error)
}

// PendingRow joins a pending entry with its request for the approver inbox.
type PendingRow struct {
	Entry   ApprovalWorkflowEntry
	Request LeaveRequest
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

func (r *repository) Create(ctx context.Context, req *LeaveRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*LeaveRequest, error) {
	var req LeaveRequest
	err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id string) (*LeaveRequest, error) {
	var req LeaveRequest
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&req, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *repository) Update(ctx context.Context, req *LeaveRequest) error {
	return r.db.WithContext(ctx).Save(req).Error
}

func (r *repository) HasOverlappingRequest(ctx context.Context, userID string, startDate, endDate time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&LeaveRequest{}).
		Where("user_id = ?", userID).
		Where("status IN ?", []string{StatusPending, StatusApproved}).
		Where("NOT (end_date < ? OR start_date > ?)", startDate, endDate).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) CreateEntry(ctx context.Context, e *ApprovalWorkflowEntry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *repository) UpdateEntry(ctx context.Context, e *ApprovalWorkflowEntry) error {
	return r.db.WithContext(ctx).Save(e).Error
}

func (r *repository) FindEntries(ctx context.Context, leaveRequestID string) ([]ApprovalWorkflowEntry, error) {
	var entries []ApprovalWorkflowEntry
	err := r.db.WithContext(ctx).
		Where("leave_request_id = ?", leaveRequestID).
		Order("approval_level ASC").
		Find(&entries).Error
	return entries, err
}

func (r *repository) FindEntryAtLevelForUpdate(ctx context.Context, leaveRequestID string, level int) (*ApprovalWorkflowEntry, error) {
	var e ApprovalWorkflowEntry
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("leave_request_id = ? AND approval_level = ?", leaveRequestID, level).
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// pendingScan flattens the entry/request join; the colliding column names
// (id, status, created_at) are aliased apart.
type pendingScan struct {
	EntryID        uuid.UUID
	LeaveRequestID uuid.UUID
	ApprovalLevel  int
	ApproverID     uuid.UUID
	ApproverRole   string
	EntryStatus    string
	Comments       *string
	ApprovedAt     *time.Time
	EntryCreatedAt time.Time

	RequestNumber        string
	UserID               uuid.UUID
	Type                 string
	StartDate            time.Time
	EndDate              time.Time
	Reason               string
	RequestStatus        string
	CurrentApprovalLevel int
	ApprovedBy           *uuid.UUID
	ApprovalNotes        *string
	RequestCreatedAt     time.Time
	RequestUpdatedAt     time.Time
}

func (r *repository) FindPendingForApprover(ctx context.Context, approverID string) ([]PendingRow, error) {
	var scans []pendingScan
	err := r.db.WithContext(ctx).Raw(`
SELECT
	w.id AS entry_id,
	w.leave_request_id,
	w.approval_level,
	w.approver_id,
	w.approver_role,
	w.status AS entry_status,
	w.comments,
	w.approved_at,
	w.created_at AS entry_created_at,
	r.request_number,
	r.user_id,
	r.type,
	r.start_date,
	r.end_date,
	r.reason,
	r.status AS request_status,
	r.current_approval_level,
	r.approved_by,
	r.approval_notes,
	r.created_at AS request_created_at,
	r.updated_at AS request_updated_at
FROM leave_approval_workflow w
JOIN leave_requests r ON r.id = w.leave_request_id
WHERE w.approver_id = ?
	AND w.status = ?
	AND r.status = ?
	AND r.current_approval_level = w.approval_level
ORDER BY w.created_at ASC
`, approverID, EntryPending, StatusPending).Scan(&scans).Error
	if err != nil {
		return nil, err
	}

	rows := make([]PendingRow, 0, len(scans))
	for _, s := range scans {
		rows = append(rows, PendingRow{
			Entry: ApprovalWorkflowEntry{
				ID:             s.EntryID,
				LeaveRequestID: s.LeaveRequestID,
				ApprovalLevel:  s.ApprovalLevel,
				ApproverID:     s.ApproverID,
				ApproverRole:   s.ApproverRole,
				Status:         s.EntryStatus,
				Comments:       s.Comments,
				ApprovedAt:     s.ApprovedAt,
				CreatedAt:      s.EntryCreatedAt,
			},
			Request: LeaveRequest{
				ID:                   s.LeaveRequestID,
				RequestNumber:        s.RequestNumber,
				UserID:               s.UserID,
				Type:                 s.Type,
				StartDate:            s.StartDate,
				EndDate:              s.EndDate,
				Reason:               s.Reason,
				Status:               s.RequestStatus,
				CurrentApprovalLevel: s.CurrentApprovalLevel,
				ApprovedBy:           s.ApprovedBy,
				ApprovalNotes:        s.ApprovalNotes,
				CreatedAt:            s.RequestCreatedAt,
				UpdatedAt:            s.RequestUpdatedAt,
			},
		})
	}
	return rows, nil
}

// Accessor answers the authorization engine's ownership and department
// lookups for leave requests.
type Accessor struct {
	db *gorm.DB
}

func NewAccessor(db *gorm.DB) *Accessor {
	return &Accessor{db: db}
}

func (a *Accessor) OwnerOf(ctx context.Context, resourceID string) (string, error) {
	var userID string
	err := a.db.WithContext(ctx).
		Model(&LeaveRequest{}).
		Select("user_id").
		Where("id = ?", resourceID).
		Scan(&userID).Error
	return userID, err
}

func (a *Accessor) DepartmentOf(ctx context.Context, resourceID string) (string, error) {
	var department string
	err := a.db.WithContext(ctx).
		Table("leave_requests").
		Select("users.department").
		Joins("JOIN users ON users.id = leave_requests.user_id").
		Where("leave_requests.id = ?", resourceID).
		Scan(&department).Error
	return department, err
}
