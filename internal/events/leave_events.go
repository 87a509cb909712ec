package events

const (
	TopicLeaveApprovalRequested = "leave.approval.requested"
	TopicLeaveStatusChanged     = "leave.status.changed"

	EventTypeLeaveApprovalRequested = "leave_approval_requested"
	EventTypeLeaveStatusChanged     = "leave_status_changed"
)

// LeaveApprovalRequestedEvent asks the notification channel to tell an
// approver a request is waiting at their level.
type LeaveApprovalRequestedEvent struct {
	LeaveRequestID string `json:"leave_request_id"`
	RequestNumber  string `json:"request_number"`
	RequesterID    string `json:"requester_id"`
	RequesterName  string `json:"requester_name"`
	ApproverID     string `json:"approver_id"`
	ApproverRole   string `json:"approver_role"`
	ApprovalLevel  int    `json:"approval_level"`
	LeaveType      string `json:"leave_type"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
}

// LeaveStatusChangedEvent tells the requester their request moved
// (approved, rejected, escalated, auto-approved).
type LeaveStatusChangedEvent struct {
	LeaveRequestID string `json:"leave_request_id"`
	RequestNumber  string `json:"request_number"`
	RequesterID    string `json:"requester_id"`
	Status         string `json:"status"`
	Decision       string `json:"decision"`
	ActorID        string `json:"actor_id"`
	ApprovalLevel  int    `json:"approval_level"`
	Comments       string `json:"comments,omitempty"`
}
