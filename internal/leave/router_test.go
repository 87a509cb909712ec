package leave_test

import (
	"context"
	"testing"

	"go-leaveflow/internal/leave"
	leaveerrors "go-leaveflow/internal/leave/errors"
	"go-leaveflow/internal/user"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeUserRepo struct {
	findByIDFn          func(ctx context.Context, id string) (*user.User, error)
	findDeptManagerFn   func(ctx context.Context, department string) (*user.User, error)
	findManagerInDeptFn func(ctx context.Context, department string) (*user.User, error)
	findFirstActiveFn   func(ctx context.Context, role string) (*user.User, error)
	findOwnerFn         func(ctx context.Context) (*user.User, error)
	countActiveAdminsFn func(ctx context.Context) (int64, error)
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id string) (*user.User, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (f *fakeUserRepo) FindDepartmentManager(ctx context.Context, department string) (*user.User, error) {
	if f.findDeptManagerFn != nil {
		return f.findDeptManagerFn(ctx, department)
	}
	return nil, nil
}

func (f *fakeUserRepo) FindActiveManagerInDepartment(ctx context.Context, department string) (*user.User, error) {
	if f.findManagerInDeptFn != nil {
		return f.findManagerInDeptFn(ctx, department)
	}
	return nil, nil
}

func (f *fakeUserRepo) FindFirstActiveByRole(ctx context.Context, role string) (*user.User, error) {
	if f.findFirstActiveFn != nil {
		return f.findFirstActiveFn(ctx, role)
	}
	return nil, nil
}

func (f *fakeUserRepo) FindOwner(ctx context.Context) (*user.User, error) {
	if f.findOwnerFn != nil {
		return f.findOwnerFn(ctx)
	}
	return nil, nil
}

func (f *fakeUserRepo) CountActiveAdminTier(ctx context.Context) (int64, error) {
	if f.countActiveAdminsFn != nil {
		return f.countActiveAdminsFn(ctx)
	}
	return 0, nil
}

func activeUser(role, department string) *user.User {
	return &user.User{
		ID:         uuid.New(),
		FullName:   "Someone",
		Role:       role,
		Department: department,
		IsActive:   true,
	}
}

func TestApprovalRouterSelectApprover(t *testing.T) {
	ctx := context.Background()

	t.Run("employee routes to the designated department manager", func(t *testing.T) {
		mgr := activeUser(user.RoleDepartmentManager, "engineering")
		users := &fakeUserRepo{
			findDeptManagerFn: func(ctx context.Context, department string) (*user.User, error) {
				assert.Equal(t, "engineering", department)
				return mgr, nil
			},
		}
		router := leave.NewApprovalRouter(users, zap.NewNop())

		sel, err := router.SelectApprover(ctx, activeUser(user.RoleEmployee, "engineering"))
		assert.NoError(t, err)
		assert.False(t, sel.AutoApprove)
		assert.Equal(t, leave.LevelDepartmentManager, sel.Level)
		assert.Equal(t, leave.LabelDepartmentManager, sel.Label)
		assert.Equal(t, mgr.ID, sel.Approver.ID)
	})

	t.Run("falls back to a manager-role user in the department", func(t *testing.T) {
		mgr := activeUser(user.RoleDepartmentManager, "engineering")
		users := &fakeUserRepo{
			findManagerInDeptFn: func(ctx context.Context, department string) (*user.User, error) {
				return mgr, nil
			},
		}
		router := leave.NewApprovalRouter(users, zap.NewNop())

		sel, err := router.SelectApprover(ctx, activeUser(user.RoleEmployee, "engineering"))
		assert.NoError(t, err)
		assert.Equal(t, leave.LevelDepartmentManager, sel.Level)
		assert.Equal(t, mgr.ID, sel.Approver.ID)
	})

	t.Run("department manager skips to HR review", func(t *testing.T) {
		requester := activeUser(user.RoleDepartmentManager, "engineering")
		hr := activeUser(user.RoleHRManager, "hr")
		users := &fakeUserRepo{
			findDeptManagerFn: func(ctx context.Context, department string) (*user.User, error) {
				return requester, nil
			},
			findFirstActiveFn: func(ctx context.Context, role string) (*user.User, error) {
				if role == user.RoleHRManager {
					return hr, nil
				}
				return nil, nil
			},
		}
		router := leave.NewApprovalRouter(users, zap.NewNop())

		sel, err := router.SelectApprover(ctx, requester)
		assert.NoError(t, err)
		assert.Equal(t, leave.LevelHRManager, sel.Level)
		assert.Equal(t, leave.LabelHRManager, sel.Label)
		assert.Equal(t, hr.ID, sel.Approver.ID)
	})

	t.Run("HR level falls back to the earliest admin", func(t *testing.T) {
		requester := activeUser(user.RoleHRManager, "hr")
		admin := activeUser(user.RoleAdmin, "")
		users := &fakeUserRepo{
			findFirstActiveFn: func(ctx context.Context, role string) (*user.User, error) {
				switch role {
				case user.RoleHRManager:
					return requester, nil
				case user.RoleAdmin:
					return admin, nil
				}
				return nil, nil
			},
		}
		router := leave.NewApprovalRouter(users, zap.NewNop())

		sel, err := router.SelectApprover(ctx, requester)
		assert.NoError(t, err)
		assert.Equal(t, leave.LevelHRManager, sel.Level)
		assert.Equal(t, leave.LabelAdmin, sel.Label)
		assert.Equal(t, admin.ID, sel.Approver.ID)
	})

	t.Run("climbs to the owner when nobody below can approve", func(t *testing.T) {
		requester := activeUser(user.RoleHRManager, "")
		owner := activeUser(user.RoleOwner, "")
		owner.IsOwner = true
		users := &fakeUserRepo{
			findFirstActiveFn: func(ctx context.Context, role string) (*user.User, error) {
				if role == user.RoleHRManager {
					return requester, nil
				}
				return nil, nil
			},
			findOwnerFn: func(ctx context.Context) (*user.User, error) {
				return owner, nil
			},
		}
		router := leave.NewApprovalRouter(users, zap.NewNop())

		sel, err := router.SelectApprover(ctx, requester)
		assert.NoError(t, err)
		assert.Equal(t, leave.LevelOwner, sel.Level)
		assert.Equal(t, leave.LabelOwner, sel.Label)
	})

	t.Run("owner requests auto-approve", func(t *testing.T) {
		requester := activeUser(user.RoleOwner, "")
		requester.IsOwner = true
		router := leave.NewApprovalRouter(&fakeUserRepo{}, zap.NewNop())

		sel, err := router.SelectApprover(ctx, requester)
		assert.NoError(t, err)
		assert.True(t, sel.AutoApprove)
	})

	t.Run("sole admin auto-approves", func(t *testing.T) {
		requester := activeUser(user.RoleAdmin, "")
		users := &fakeUserRepo{
			countActiveAdminsFn: func(ctx context.Context) (int64, error) { return 1, nil },
		}
		router := leave.NewApprovalRouter(users, zap.NewNop())

		sel, err := router.SelectApprover(ctx, requester)
		assert.NoError(t, err)
		assert.True(t, sel.AutoApprove)
	})

	t.Run("admin with peers routes upward normally", func(t *testing.T) {
		requester := activeUser(user.RoleAdmin, "")
		owner := activeUser(user.RoleOwner, "")
		owner.IsOwner = true
		users := &fakeUserRepo{
			countActiveAdminsFn: func(ctx context.Context) (int64, error) { return 2, nil },
			findOwnerFn: func(ctx context.Context) (*user.User, error) {
				return owner, nil
			},
		}
		router := leave.NewApprovalRouter(users, zap.NewNop())

		sel, err := router.SelectApprover(ctx, requester)
		assert.NoError(t, err)
		assert.False(t, sel.AutoApprove)
		assert.Equal(t, leave.LevelOwner, sel.Level)
	})

	t.Run("no approver anywhere", func(t *testing.T) {
		router := leave.NewApprovalRouter(&fakeUserRepo{}, zap.NewNop())

		_, err := router.SelectApprover(ctx, activeUser(user.RoleEmployee, "engineering"))
		assert.ErrorIs(t, err, leaveerrors.ErrNoApproverFound)
	})
}

func TestApprovalRouterNextApprover(t *testing.T) {
	ctx := context.Background()

	t.Run("level one approval escalates to HR", func(t *testing.T) {
		requester := activeUser(user.RoleEmployee, "engineering")
		firstApprover := activeUser(user.RoleDepartmentManager, "engineering")
		hr := activeUser(user.RoleHRManager, "hr")
		users := &fakeUserRepo{
			findFirstActiveFn: func(ctx context.Context, role string) (*user.User, error) {
				if role == user.RoleHRManager {
					return hr, nil
				}
				return nil, nil
			},
		}
		router := leave.NewApprovalRouter(users, zap.NewNop())

		sel, err := router.NextApprover(ctx, requester, leave.LevelDepartmentManager, firstApprover.ID.String())
		assert.NoError(t, err)
		assert.NotNil(t, sel)
		assert.Equal(t, leave.LevelHRManager, sel.Level)
		assert.Equal(t, hr.ID, sel.Approver.ID)
	})

	t.Run("no escalation when the HR candidate already approved", func(t *testing.T) {
		requester := activeUser(user.RoleEmployee, "engineering")
		hr := activeUser(user.RoleHRManager, "hr")
		users := &fakeUserRepo{
			findFirstActiveFn: func(ctx context.Context, role string) (*user.User, error) {
				if role == user.RoleHRManager {
					return hr, nil
				}
				return nil, nil
			},
		}
		router := leave.NewApprovalRouter(users, zap.NewNop())

		sel, err := router.NextApprover(ctx, requester, leave.LevelDepartmentManager, hr.ID.String())
		assert.NoError(t, err)
		assert.Nil(t, sel)
	})

	t.Run("level one approval is final without HR", func(t *testing.T) {
		requester := activeUser(user.RoleEmployee, "engineering")
		router := leave.NewApprovalRouter(&fakeUserRepo{}, zap.NewNop())

		sel, err := router.NextApprover(ctx, requester, leave.LevelDepartmentManager, uuid.NewString())
		assert.NoError(t, err)
		assert.Nil(t, sel)
	})

	t.Run("approvals above level one are final", func(t *testing.T) {
		requester := activeUser(user.RoleEmployee, "engineering")
		hr := activeUser(user.RoleHRManager, "hr")
		users := &fakeUserRepo{
			findFirstActiveFn: func(ctx context.Context, role string) (*user.User, error) {
				return hr, nil
			},
		}
		router := leave.NewApprovalRouter(users, zap.NewNop())

		sel, err := router.NextApprover(ctx, requester, leave.LevelHRManager, uuid.NewString())
		assert.NoError(t, err)
		assert.Nil(t, sel)

		sel, err = router.NextApprover(ctx, requester, leave.LevelOwner, uuid.NewString())
		assert.NoError(t, err)
		assert.Nil(t, sel)
	})
}
