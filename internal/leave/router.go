package leave

import (
	"context"

	"go.uber.org/zap"

	leaveerrors "go-leaveflow/internal/leave/errors"
	"go-leaveflow/internal/user"
)

// Approval ladder levels. Each level names the class of approver it expects,
// not a fixed person.
const (
	LevelDepartmentManager = 1
	LevelHRManager         = 2
	LevelOwner             = 3
)

// Selection is the routing outcome for a new leave request.
type Selection struct {
	// AutoApprove is set when the requester sits at the top of the ladder and
	// nobody above them can decide.
	AutoApprove bool
	Approver    *user.User
	Level       int
	Label       string
}

// ApprovalRouter decides who must approve a leave request, and whether an
// approval escalates to a higher level.
type ApprovalRouter interface {
	// SelectApprover picks the initial approver: the lowest ladder level with
	// an active approver distinct from the requester.
	SelectApprover(ctx context.Context, requester *user.User) (*Selection, error)
	// NextApprover returns the follow-up approver after an approval at the
	// given level, or nil when the approval is final.
	NextApprover(ctx context.Context, requester *user.User, approvedLevel int, approverID string) (*Selection, error)
}

type approvalRouter struct {
	users  user.Repository
	logger *zap.Logger
}

func NewApprovalRouter(users user.Repository, logger ...*zap.Logger) ApprovalRouter {
	l := zap.L().Named("leave.router")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.router")
	}
	return &approvalRouter{users: users, logger: l}
}

func (r *approvalRouter) SelectApprover(ctx context.Context, requester *user.User) (*Selection, error) {
	if requester.IsOwner {
		return &Selection{AutoApprove: true}, nil
	}
	if requester.Role == user.RoleAdmin {
		count, err := r.users.CountActiveAdminTier(ctx)
		if err != nil {
			return nil, err
		}
		if count <= 1 {
			// Sole admin with no owner above them; nobody can decide.
			return &Selection{AutoApprove: true}, nil
		}
	}

	if sel, err := r.departmentLevel(ctx, requester); err != nil || sel != nil {
		return sel, err
	}
	if sel, err := r.hrLevel(ctx, requester, ""); err != nil || sel != nil {
		return sel, err
	}
	if sel, err := r.ownerLevel(ctx, requester); err != nil || sel != nil {
		return sel, err
	}

	r.logger.Warn("no approver available for requester",
		zap.String("requester_id", requester.ID.String()),
		zap.String("department", requester.Department),
	)
	return nil, leaveerrors.ErrNoApproverFound
}

func (r *approvalRouter) NextApprover(ctx context.Context, requester *user.User, approvedLevel int, approverID string) (*Selection, error) {
	if approvedLevel != LevelDepartmentManager {
		return nil, nil
	}
	// A department-level approval escalates to HR review when someone other
	// than the requester and the first approver can give it.
	sel, err := r.hrLevel(ctx, requester, approverID)
	if err != nil {
		return nil, err
	}
	return sel, nil
}

func (r *approvalRouter) departmentLevel(ctx context.Context, requester *user.User) (*Selection, error) {
	if requester.Department == "" {
		return nil, nil
	}
	mgr, err := r.users.FindDepartmentManager(ctx, requester.Department)
	if err != nil {
		return nil, err
	}
	if mgr == nil {
		mgr, err = r.users.FindActiveManagerInDepartment(ctx, requester.Department)
		if err != nil {
			return nil, err
		}
	}
	if mgr == nil || mgr.ID == requester.ID {
		return nil, nil
	}
	return &Selection{Approver: mgr, Level: LevelDepartmentManager, Label: LabelDepartmentManager}, nil
}

func (r *approvalRouter) hrLevel(ctx context.Context, requester *user.User, excludeID string) (*Selection, error) {
	hr, err := r.users.FindFirstActiveByRole(ctx, user.RoleHRManager)
	if err != nil {
		return nil, err
	}
	if ok(hr, requester, excludeID) {
		return &Selection{Approver: hr, Level: LevelHRManager, Label: LabelHRManager}, nil
	}
	admin, err := r.users.FindFirstActiveByRole(ctx, user.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if ok(admin, requester, excludeID) {
		return &Selection{Approver: admin, Level: LevelHRManager, Label: LabelAdmin}, nil
	}
	return nil, nil
}

func (r *approvalRouter) ownerLevel(ctx context.Context, requester *user.User) (*Selection, error) {
	owner, err := r.users.FindOwner(ctx)
	if err != nil {
		return nil, err
	}
	if ok(owner, requester, "") {
		return &Selection{Approver: owner, Level: LevelOwner, Label: LabelOwner}, nil
	}
	admin, err := r.users.FindFirstActiveByRole(ctx, user.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if ok(admin, requester, "") {
		return &Selection{Approver: admin, Level: LevelOwner, Label: LabelAdmin}, nil
	}
	return nil, nil
}

func ok(candidate *user.User, requester *user.User, excludeID string) bool {
	if candidate == nil || candidate.ID == requester.ID {
		return false
	}
	return excludeID == "" || candidate.ID.String() != excludeID
}
