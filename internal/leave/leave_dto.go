package leave

type CreateLeaveRequest struct {
	LeaveType string `json:"leave_type" binding:"required,oneof=annual sick long maternity paternity marriage death hajj_umrah"`
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
	Reason    string `json:"reason"`
}

type DecisionRequest struct {
	Level    int    `json:"level" binding:"required,min=1"`
	Decision string `json:"decision" binding:"required,oneof=approve reject"`
	Comments string `json:"comments"`
}

type LeaveRequestResponse struct {
	ID                   string  `json:"id"`
	RequestNumber        string  `json:"request_number"`
	UserID               string  `json:"user_id"`
	LeaveType            string  `json:"leave_type"`
	StartDate            string  `json:"start_date"`
	EndDate              string  `json:"end_date"`
	TotalDays            int     `json:"total_days"`
	Reason               string  `json:"reason"`
	Status               string  `json:"status"`
	CurrentApprovalLevel int     `json:"current_approval_level"`
	ApprovedBy           *string `json:"approved_by,omitempty"`
	ApprovalNotes        *string `json:"approval_notes,omitempty"`
}

type WorkflowEntryResponse struct {
	ID            string  `json:"id"`
	ApprovalLevel int     `json:"approval_level"`
	ApproverID    string  `json:"approver_id"`
	ApproverRole  string  `json:"approver_role"`
	Status        string  `json:"status"`
	Comments      *string `json:"comments,omitempty"`
	ApprovedAt    *string `json:"approved_at,omitempty"`
}

type WorkflowResponse struct {
	Request LeaveRequestResponse    `json:"request"`
	Entries []WorkflowEntryResponse `json:"entries"`
}

type PendingApprovalResponse struct {
	EntryID       string `json:"entry_id"`
	ApprovalLevel int    `json:"approval_level"`
	ApproverRole  string `json:"approver_role"`
	Request       LeaveRequestResponse `json:"request"`
}
