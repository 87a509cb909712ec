package authz

import (
	"net/http"

	"go-leaveflow/internal/shared/apperror"
	"go-leaveflow/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// ContextAuthData is where the middleware stores the resolved view for
	// downstream handlers.
	ContextAuthData = "auth_data"
	ContextUserID   = "user_id"
)

// GateOption configures the ownership / department-scope checks for one route.
type GateOption func(*gateOptions)

type gateOptions struct {
	resourceType    string
	idParam         string
	checkOwnership  bool
	checkDepartment bool
}

// WithOwnership enables the ownership rule: the resource id is read from the
// named path parameter and its owner compared to the acting user.
func WithOwnership(resourceType, idParam string) GateOption {
	return func(o *gateOptions) {
		o.resourceType = resourceType
		o.idParam = idParam
		o.checkOwnership = true
	}
}

// WithDepartmentScope enables the department rule for the same resource.
func WithDepartmentScope(resourceType, idParam string) GateOption {
	return func(o *gateOptions) {
		o.resourceType = resourceType
		o.idParam = idParam
		o.checkDepartment = true
	}
}

// RequirePermission is the request gate. It resolves the acting user's auth
// data (cached), evaluates the required permission and aborts with 403 when
// denied, naming the permission so the caller knows what was missing.
func RequirePermission(resolver *Resolver, gate *Gate, required string, opts ...GateOption) gin.HandlerFunc {
	var options gateOptions
	for _, opt := range opts {
		opt(&options)
	}

	return func(c *gin.Context) {
		userID := c.GetString(ContextUserID)
		if userID == "" {
			response.Error(c, http.StatusUnauthorized, apperror.CodeUnauthorized, "missing auth context", nil)
			c.Abort()
			return
		}

		auth, err := resolver.LoadAuthData(c.Request.Context(), userID, true)
		if err != nil {
			httpErr := apperror.ToHTTP(err)
			response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
			c.Abort()
			return
		}

		rc := ResourceContext{
			Type:            options.resourceType,
			CheckOwnership:  options.checkOwnership,
			CheckDepartment: options.checkDepartment,
		}
		if options.idParam != "" {
			rc.ID = c.Param(options.idParam)
		}

		decision := gate.Check(c.Request.Context(), auth, required, rc)
		if !decision.Allowed {
			zap.L().Named("authz.middleware").Warn("permission denied",
				zap.String("user_id", userID),
				zap.String("permission", required),
			)
			response.Error(c, http.StatusForbidden, apperror.CodeForbidden,
				"You do not have permission to access this resource",
				gin.H{"required": required},
			)
			c.Abort()
			return
		}

		c.Set(ContextAuthData, auth)
		c.Next()
	}
}

// AuthDataFrom retrieves the view stored by RequirePermission.
func AuthDataFrom(c *gin.Context) (*AuthData, bool) {
	v, ok := c.Get(ContextAuthData)
	if !ok {
		return nil, false
	}
	data, ok := v.(*AuthData)
	return data, ok
}
