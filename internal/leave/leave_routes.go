package leave

import (
	"go-leaveflow/internal/authz"
	"go-leaveflow/internal/middleware"

	"github.com/gin-gonic/gin"
)

const resourceLeaveRequest = "leave_request"

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	resolver *authz.Resolver,
	gate *authz.Gate,
) {
	requests := r.Group("/leave-requests")
	requests.Use(middleware.AuthMiddleware())
	{
		requests.POST("",
			authz.RequirePermission(resolver, gate, "create:leave_request"),
			handler.Create,
		)
		requests.GET("/pending-approvals",
			authz.RequirePermission(resolver, gate, "approve:leave_request"),
			handler.PendingApprovals,
		)
		requests.GET("/:id",
			authz.RequirePermission(resolver, gate, "read:leave_request:all",
				authz.WithOwnership(resourceLeaveRequest, "id"),
				authz.WithDepartmentScope(resourceLeaveRequest, "id"),
			),
			handler.GetById,
		)
		requests.GET("/:id/workflow",
			authz.RequirePermission(resolver, gate, "read:leave_request:all",
				authz.WithOwnership(resourceLeaveRequest, "id"),
				authz.WithDepartmentScope(resourceLeaveRequest, "id"),
			),
			handler.GetWorkflow,
		)
		requests.GET("/:id/balance",
			authz.RequirePermission(resolver, gate, "read:leave_balance:all",
				authz.WithOwnership(resourceLeaveRequest, "id"),
			),
			handler.GetBalance,
		)
		requests.POST("/:id/decision",
			authz.RequirePermission(resolver, gate, "approve:leave_request"),
			handler.Decide,
		)
		requests.POST("/:id/cancel",
			authz.RequirePermission(resolver, gate, "cancel:leave_request:all",
				authz.WithOwnership(resourceLeaveRequest, "id"),
			),
			handler.Cancel,
		)
	}
}
