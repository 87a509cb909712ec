package leave

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-leaveflow/internal/balance"
	"go-leaveflow/internal/events"
	leaveerrors "go-leaveflow/internal/leave/errors"
	"go-leaveflow/internal/notification"
	"go-leaveflow/internal/shared/counter"
	"go-leaveflow/internal/user"
)

const dateLayout = "2006-01-02"

// WorkflowEngine drives a leave request through its approval ladder. All
// state transitions happen inside a single database transaction per call.
type WorkflowEngine interface {
	Create(ctx context.Context, requesterID string, req CreateLeaveRequest) (*LeaveRequestResponse, error)
	Decide(ctx context.Context, requestID, actorID string, req DecisionRequest) (*LeaveRequestResponse, error)
	Cancel(ctx context.Context, requestID, actorID string) (*LeaveRequestResponse, error)
	GetByID(ctx context.Context, id string) (*LeaveRequestResponse, error)
	GetWorkflow(ctx context.Context, id string) (*WorkflowResponse, error)
	PendingApprovals(ctx context.Context, approverID string) ([]PendingApprovalResponse, error)
}

type engine struct {
	db         *gorm.DB
	repo       Repository
	users      user.Repository
	router     ApprovalRouter
	counters   counter.Repository
	balances   balance.Service
	dispatcher notification.Dispatcher
	logger     *zap.Logger
}

func NewWorkflowEngine(
	db *gorm.DB,
	repo Repository,
	users user.Repository,
	router ApprovalRouter,
	counters counter.Repository,
	balances balance.Service,
	dispatcher notification.Dispatcher,
	logger ...*zap.Logger,
) WorkflowEngine {
	l := zap.L().Named("leave.workflow")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.workflow")
	}
	return &engine{
		db:         db,
		repo:       repo,
		users:      users,
		router:     router,
		counters:   counters,
		balances:   balances,
		dispatcher: dispatcher,
		logger:     l,
	}
}

func (e *engine) Create(ctx context.Context, requesterID string, req CreateLeaveRequest) (*LeaveRequestResponse, error) {
	uid, err := uuid.Parse(requesterID)
	if err != nil {
		return nil, leaveerrors.ErrInvalidRequesterID
	}
	if !balance.ValidType(req.LeaveType) {
		return nil, leaveerrors.ErrInvalidLeaveType
	}
	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return nil, leaveerrors.ErrInvalidDateFormat
	}
	endDate, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		return nil, leaveerrors.ErrInvalidDateFormat
	}
	if startDate.After(endDate) {
		return nil, leaveerrors.ErrInvalidDateRange
	}

	requester, err := e.users.FindByID(ctx, requesterID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, leaveerrors.ErrInvalidRequesterID
	}
	if err != nil {
		return nil, fmt.Errorf("load requester: %w", err)
	}
	if !requester.IsActive {
		return nil, leaveerrors.ErrRequesterInactive
	}

	overlap, err := e.repo.HasOverlappingRequest(ctx, requesterID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("overlap check: %w", err)
	}
	if overlap {
		return nil, leaveerrors.ErrLeaveOverlap
	}

	sel, routeErr := e.router.SelectApprover(ctx, requester)
	if routeErr != nil && !errors.Is(routeErr, leaveerrors.ErrNoApproverFound) {
		return nil, fmt.Errorf("select approver: %w", routeErr)
	}

	request := &LeaveRequest{
		ID:        uuid.New(),
		UserID:    uid,
		Type:      req.LeaveType,
		StartDate: startDate,
		EndDate:   endDate,
		Reason:    req.Reason,
	}

	txErr := e.db.Transaction(func(tx *gorm.DB) error {
		repo := e.repo.WithTx(tx)

		seq, err := e.counters.WithTx(tx).GetNextValue(ctx, requestNumberScope(startDate.Year()))
		if err != nil {
			return fmt.Errorf("allocate request number: %w", err)
		}
		request.RequestNumber = formatRequestNumber(startDate.Year(), seq)

		switch {
		case routeErr != nil:
			// No approver exists. The request is persisted in a terminal
			// error status so the gap is visible to administrators.
			request.Status = StatusErrorNoApprover
			request.CurrentApprovalLevel = 0
			return repo.Create(ctx, request)

		case sel.AutoApprove:
			request.Status = StatusApproved
			request.CurrentApprovalLevel = LevelDepartmentManager
			request.ApprovedBy = &uid
			if err := repo.Create(ctx, request); err != nil {
				return fmt.Errorf("create request: %w", err)
			}
			now := time.Now()
			entry := &ApprovalWorkflowEntry{
				ID:             uuid.New(),
				LeaveRequestID: request.ID,
				ApprovalLevel:  LevelDepartmentManager,
				ApproverID:     uid,
				ApproverRole:   LabelOwnerAutoApproved,
				Status:         EntryApproved,
				ApprovedAt:     &now,
			}
			if err := repo.CreateEntry(ctx, entry); err != nil {
				return fmt.Errorf("%w: %s", leaveerrors.ErrWorkflowInit, err)
			}
			if err := e.balances.ApplyApproval(ctx, tx, e.chargeFor(request, uid)); err != nil {
				return fmt.Errorf("apply balance: %w", err)
			}
			e.dispatcher.WithTx(tx).SendLeaveStatusUpdate(ctx, events.LeaveStatusChangedEvent{
				LeaveRequestID: request.ID.String(),
				RequestNumber:  request.RequestNumber,
				RequesterID:    requesterID,
				Status:         StatusApproved,
				Decision:       DecisionApprove,
				ActorID:        requesterID,
				ApprovalLevel:  LevelDepartmentManager,
			})
			return nil

		default:
			request.Status = StatusPending
			request.CurrentApprovalLevel = sel.Level
			if err := repo.Create(ctx, request); err != nil {
				return fmt.Errorf("create request: %w", err)
			}
			entry := &ApprovalWorkflowEntry{
				ID:             uuid.New(),
				LeaveRequestID: request.ID,
				ApprovalLevel:  sel.Level,
				ApproverID:     sel.Approver.ID,
				ApproverRole:   sel.Label,
				Status:         EntryPending,
			}
			if err := repo.CreateEntry(ctx, entry); err != nil {
				return fmt.Errorf("%w: %s", leaveerrors.ErrWorkflowInit, err)
			}
			e.dispatcher.WithTx(tx).SendLeaveApprovalNotification(ctx, events.LeaveApprovalRequestedEvent{
				LeaveRequestID: request.ID.String(),
				RequestNumber:  request.RequestNumber,
				RequesterID:    requesterID,
				RequesterName:  requester.FullName,
				ApproverID:     sel.Approver.ID.String(),
				ApproverRole:   sel.Label,
				ApprovalLevel:  sel.Level,
				LeaveType:      req.LeaveType,
				StartDate:      req.StartDate,
				EndDate:        req.EndDate,
			})
			return nil
		}
	})

	if txErr != nil {
		if errors.Is(txErr, leaveerrors.ErrWorkflowInit) {
			// The workflow entry could not be written and the transaction
			// rolled back. Record the request in a terminal error status so
			// the attempt is not silently lost.
			e.recordInitFailure(ctx, request, requesterID)
			return nil, leaveerrors.ErrWorkflowInit
		}
		return nil, txErr
	}

	resp := toResponse(request)
	if routeErr != nil {
		return &resp, leaveerrors.ErrNoApproverFound
	}
	return &resp, nil
}

func requestNumberScope(year int) string {
	return fmt.Sprintf("leave_request:%d", year)
}

func formatRequestNumber(year int, seq int64) string {
	return fmt.Sprintf("LR-%d-%05d", year, seq)
}

func (e *engine) recordInitFailure(ctx context.Context, request *LeaveRequest, requesterID string) {
	failed := *request
	failed.Status = StatusErrorInit
	failed.CurrentApprovalLevel = 0
	failed.ApprovedBy = nil

	// The sequence increment rolled back with the transaction, so the number
	// on the failed request will be handed out again next create. The error
	// row gets its own allocation; if even that fails, the row id keeps the
	// number unique.
	year := request.StartDate.Year()
	if seq, seqErr := e.counters.GetNextValue(ctx, requestNumberScope(year)); seqErr == nil {
		failed.RequestNumber = formatRequestNumber(year, seq)
	} else {
		failed.RequestNumber = "LR-ERR-" + failed.ID.String()
	}

	if err := e.repo.Create(ctx, &failed); err != nil {
		e.logger.Error("record workflow init failure",
			zap.String("request_number", failed.RequestNumber),
			zap.String("requester_id", requesterID),
			zap.Error(err),
		)
	}
}

func (e *engine) Decide(ctx context.Context, requestID, actorID string, req DecisionRequest) (*LeaveRequestResponse, error) {
	if _, err := uuid.Parse(requestID); err != nil {
		return nil, leaveerrors.ErrRequestNotFound
	}
	actorUID, err := uuid.Parse(actorID)
	if err != nil {
		return nil, leaveerrors.ErrInvalidActorID
	}
	if req.Decision != DecisionApprove && req.Decision != DecisionReject {
		return nil, leaveerrors.ErrInvalidDecision
	}

	var request *LeaveRequest
	txErr := e.db.Transaction(func(tx *gorm.DB) error {
		repo := e.repo.WithTx(tx)

		var err error
		request, err = repo.FindByIDForUpdate(ctx, requestID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return leaveerrors.ErrRequestNotFound
		}
		if err != nil {
			return fmt.Errorf("lock request: %w", err)
		}

		if request.Status != StatusPending {
			return leaveerrors.ErrRequestNotPending
		}
		if req.Level != request.CurrentApprovalLevel {
			return leaveerrors.ErrWrongApprovalLevel
		}

		entry, err := repo.FindEntryAtLevelForUpdate(ctx, requestID, req.Level)
		if err != nil {
			return fmt.Errorf("lock workflow entry: %w", err)
		}
		if entry == nil {
			return leaveerrors.ErrWorkflowInit
		}
		if entry.Status != EntryPending {
			return leaveerrors.ErrEntryAlreadyDecided
		}
		if entry.ApproverID != actorUID {
			return leaveerrors.ErrWrongApprover
		}

		now := time.Now()
		if req.Comments != "" {
			entry.Comments = &req.Comments
		}

		if req.Decision == DecisionReject {
			entry.Status = EntryRejected
			if err := repo.UpdateEntry(ctx, entry); err != nil {
				return fmt.Errorf("update entry: %w", err)
			}
			request.Status = StatusRejected
			if req.Comments != "" {
				request.ApprovalNotes = &req.Comments
			}
			if err := repo.Update(ctx, request); err != nil {
				return fmt.Errorf("update request: %w", err)
			}
			e.dispatcher.WithTx(tx).SendLeaveStatusUpdate(ctx, events.LeaveStatusChangedEvent{
				LeaveRequestID: request.ID.String(),
				RequestNumber:  request.RequestNumber,
				RequesterID:    request.UserID.String(),
				Status:         StatusRejected,
				Decision:       DecisionReject,
				ActorID:        actorID,
				ApprovalLevel:  req.Level,
				Comments:       req.Comments,
			})
			return nil
		}

		entry.Status = EntryApproved
		entry.ApprovedAt = &now
		if err := repo.UpdateEntry(ctx, entry); err != nil {
			return fmt.Errorf("update entry: %w", err)
		}

		requester, err := e.users.FindByID(ctx, request.UserID.String())
		if err != nil {
			return fmt.Errorf("load requester: %w", err)
		}

		next, err := e.router.NextApprover(ctx, requester, req.Level, actorID)
		if err != nil {
			return fmt.Errorf("next approver: %w", err)
		}

		if next != nil {
			request.CurrentApprovalLevel = next.Level
			if err := repo.Update(ctx, request); err != nil {
				return fmt.Errorf("update request: %w", err)
			}
			nextEntry := &ApprovalWorkflowEntry{
				ID:             uuid.New(),
				LeaveRequestID: request.ID,
				ApprovalLevel:  next.Level,
				ApproverID:     next.Approver.ID,
				ApproverRole:   next.Label,
				Status:         EntryPending,
			}
			if err := repo.CreateEntry(ctx, nextEntry); err != nil {
				return fmt.Errorf("create escalation entry: %w", err)
			}
			d := e.dispatcher.WithTx(tx)
			d.SendLeaveApprovalNotification(ctx, events.LeaveApprovalRequestedEvent{
				LeaveRequestID: request.ID.String(),
				RequestNumber:  request.RequestNumber,
				RequesterID:    request.UserID.String(),
				RequesterName:  requester.FullName,
				ApproverID:     next.Approver.ID.String(),
				ApproverRole:   next.Label,
				ApprovalLevel:  next.Level,
				LeaveType:      request.Type,
				StartDate:      request.StartDate.Format(dateLayout),
				EndDate:        request.EndDate.Format(dateLayout),
			})
			d.SendLeaveStatusUpdate(ctx, events.LeaveStatusChangedEvent{
				LeaveRequestID: request.ID.String(),
				RequestNumber:  request.RequestNumber,
				RequesterID:    request.UserID.String(),
				Status:         StatusPending,
				Decision:       DecisionApprove,
				ActorID:        actorID,
				ApprovalLevel:  next.Level,
				Comments:       req.Comments,
			})
			return nil
		}

		request.Status = StatusApproved
		request.ApprovedBy = &actorUID
		if req.Comments != "" {
			request.ApprovalNotes = &req.Comments
		}
		if err := repo.Update(ctx, request); err != nil {
			return fmt.Errorf("update request: %w", err)
		}
		if err := e.balances.ApplyApproval(ctx, tx, e.chargeFor(request, actorUID)); err != nil {
			return fmt.Errorf("apply balance: %w", err)
		}
		e.dispatcher.WithTx(tx).SendLeaveStatusUpdate(ctx, events.LeaveStatusChangedEvent{
			LeaveRequestID: request.ID.String(),
			RequestNumber:  request.RequestNumber,
			RequesterID:    request.UserID.String(),
			Status:         StatusApproved,
			Decision:       DecisionApprove,
			ActorID:        actorID,
			ApprovalLevel:  req.Level,
			Comments:       req.Comments,
		})
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	resp := toResponse(request)
	return &resp, nil
}

func (e *engine) Cancel(ctx context.Context, requestID, actorID string) (*LeaveRequestResponse, error) {
	actorUID, err := uuid.Parse(actorID)
	if err != nil {
		return nil, leaveerrors.ErrInvalidActorID
	}

	var request *LeaveRequest
	txErr := e.db.Transaction(func(tx *gorm.DB) error {
		repo := e.repo.WithTx(tx)

		var err error
		request, err = repo.FindByIDForUpdate(ctx, requestID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return leaveerrors.ErrRequestNotFound
		}
		if err != nil {
			return fmt.Errorf("lock request: %w", err)
		}
		if request.UserID != actorUID {
			return leaveerrors.ErrNotRequester
		}
		if request.Status != StatusPending {
			return leaveerrors.ErrCancelNotAllowed
		}

		request.Status = StatusCancelled
		if err := repo.Update(ctx, request); err != nil {
			return fmt.Errorf("update request: %w", err)
		}
		e.dispatcher.WithTx(tx).SendLeaveStatusUpdate(ctx, events.LeaveStatusChangedEvent{
			LeaveRequestID: request.ID.String(),
			RequestNumber:  request.RequestNumber,
			RequesterID:    request.UserID.String(),
			Status:         StatusCancelled,
			ActorID:        actorID,
			ApprovalLevel:  request.CurrentApprovalLevel,
		})
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	resp := toResponse(request)
	return &resp, nil
}

func (e *engine) GetByID(ctx context.Context, id string) (*LeaveRequestResponse, error) {
	request, err := e.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, leaveerrors.ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	resp := toResponse(request)
	return &resp, nil
}

func (e *engine) GetWorkflow(ctx context.Context, id string) (*WorkflowResponse, error) {
	request, err := e.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, leaveerrors.ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	entries, err := e.repo.FindEntries(ctx, id)
	if err != nil {
		return nil, err
	}

	out := &WorkflowResponse{Request: toResponse(request)}
	for i := range entries {
		out.Entries = append(out.Entries, toEntryResponse(&entries[i]))
	}
	return out, nil
}

func (e *engine) PendingApprovals(ctx context.Context, approverID string) ([]PendingApprovalResponse, error) {
	if _, err := uuid.Parse(approverID); err != nil {
		return nil, leaveerrors.ErrInvalidActorID
	}
	rows, err := e.repo.FindPendingForApprover(ctx, approverID)
	if err != nil {
		return nil, err
	}

	out := make([]PendingApprovalResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, PendingApprovalResponse{
			EntryID:       row.Entry.ID.String(),
			ApprovalLevel: row.Entry.ApprovalLevel,
			ApproverRole:  row.Entry.ApproverRole,
			Request:       toResponse(&row.Request),
		})
	}
	return out, nil
}

func (e *engine) chargeFor(request *LeaveRequest, actorID uuid.UUID) balance.ApprovalCharge {
	return balance.ApprovalCharge{
		LeaveRequestID: request.ID,
		RequestNumber:  request.RequestNumber,
		UserID:         request.UserID,
		LeaveType:      request.Type,
		StartDate:      request.StartDate,
		EndDate:        request.EndDate,
		ActorID:        actorID,
	}
}

func toResponse(r *LeaveRequest) LeaveRequestResponse {
	resp := LeaveRequestResponse{
		ID:                   r.ID.String(),
		RequestNumber:        r.RequestNumber,
		UserID:               r.UserID.String(),
		LeaveType:            r.Type,
		StartDate:            r.StartDate.Format(dateLayout),
		EndDate:              r.EndDate.Format(dateLayout),
		TotalDays:            balance.DayCount(r.StartDate, r.EndDate),
		Reason:               r.Reason,
		Status:               r.Status,
		CurrentApprovalLevel: r.CurrentApprovalLevel,
		ApprovalNotes:        r.ApprovalNotes,
	}
	if r.ApprovedBy != nil {
		s := r.ApprovedBy.String()
		resp.ApprovedBy = &s
	}
	return resp
}

func toEntryResponse(e *ApprovalWorkflowEntry) WorkflowEntryResponse {
	resp := WorkflowEntryResponse{
		ID:            e.ID.String(),
		ApprovalLevel: e.ApprovalLevel,
		ApproverID:    e.ApproverID.String(),
		ApproverRole:  e.ApproverRole,
		Status:        e.Status,
		Comments:      e.Comments,
	}
	if e.ApprovedAt != nil {
		s := e.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &s
	}
	return resp
}
