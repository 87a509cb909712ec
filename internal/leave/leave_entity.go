package leave

import (
	"time"

	"github.com/google/uuid"
)

// Request statuses. The error statuses are terminal configuration failures,
// recorded on the row itself so the condition survives without log access.
const (
	StatusPending         = "pending"
	StatusApproved        = "approved"
	StatusRejected        = "rejected"
	StatusCancelled       = "cancelled"
	StatusErrorNoApprover = "error_no_approver"
	StatusErrorInit       = "error_workflow_init"
)

// Workflow entry statuses.
const (
	EntryPending  = "pending"
	EntryApproved = "approved"
	EntryRejected = "rejected"
)

// Approver role labels record why an approver was chosen, not what role
// they hold today.
const (
	LabelDepartmentManager = "department_manager"
	LabelHRManager         = "hr_manager"
	LabelOwner             = "owner"
	LabelAdmin             = "admin"
	LabelOwnerAutoApproved = "owner_auto_approved"
)

// Decisions accepted on a pending entry.
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

type LeaveRequest struct {
	ID                   uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RequestNumber        string    `gorm:"type:varchar(30);uniqueIndex"`
	UserID               uuid.UUID `gorm:"type:uuid;not null;index:idx_leave_requests_user"`
	Type                 string    `gorm:"column:type;type:varchar(30);not null"`
	StartDate            time.Time `gorm:"type:date;not null"`
	EndDate              time.Time `gorm:"type:date;not null"`
	Reason               string    `gorm:"type:text"`
	Status               string    `gorm:"type:varchar(30);not null;default:'pending';index:idx_leave_requests_status"`
	CurrentApprovalLevel int       `gorm:"not null;default:1"`
	ApprovedBy           *uuid.UUID `gorm:"type:uuid"`
	ApprovalNotes        *string    `gorm:"type:text"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (LeaveRequest) TableName() string { return "leave_requests" }

func (r *LeaveRequest) Terminal() bool {
	switch r.Status {
	case StatusApproved, StatusRejected, StatusCancelled, StatusErrorNoApprover, StatusErrorInit:
		return true
	}
	return false
}

type ApprovalWorkflowEntry struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	LeaveRequestID uuid.UUID `gorm:"type:uuid;not null;index:idx_workflow_request_level,unique,composite:request_level"`
	ApprovalLevel  int       `gorm:"not null;index:idx_workflow_request_level,unique,composite:request_level"`
	ApproverID     uuid.UUID `gorm:"type:uuid;not null;index"`
	ApproverRole   string    `gorm:"type:varchar(40);not null"`
	Status         string    `gorm:"type:varchar(20);not null;default:'pending'"`
	Comments       *string   `gorm:"type:text"`
	ApprovedAt     *time.Time
	CreatedAt      time.Time
}

func (ApprovalWorkflowEntry) TableName() string { return "leave_approval_workflow" }
