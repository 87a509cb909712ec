package authz

import (
	"net/http"

	authzerrors "go-leaveflow/internal/authz/errors"
	"go-leaveflow/internal/shared/apperror"
	"go-leaveflow/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handler struct {
	resolver *Resolver
	logger   *zap.Logger
}

func NewHandler(resolver *Resolver, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("authz.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("authz.handler")
	}
	return &Handler{resolver: resolver, logger: l}
}

// Invalidate drops the cached authorization view for one user. The
// user-management subsystem calls this after any role, permission or
// profile mutation so stale grants never outlive the mutation by more than
// an in-flight request.
func (h *Handler) Invalidate(c *gin.Context) {
	userID := c.Param("userId")
	if _, err := uuid.Parse(userID); err != nil {
		httpErr := apperror.ToHTTP(authzerrors.ErrInvalidUserID)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, nil)
		return
	}

	h.resolver.Invalidate(c.Request.Context(), userID)
	h.logger.Info("auth cache invalidated via hook", zap.String("user_id", userID))

	response.Success(c, http.StatusOK, gin.H{"invalidated": userID}, nil)
}

// Me returns the caller's resolved authorization view, mainly for clients
// that hide UI elements the user cannot act on.
func (h *Handler) Me(c *gin.Context) {
	userID := c.GetString(ContextUserID)
	if userID == "" {
		response.Error(c, http.StatusUnauthorized, apperror.CodeUnauthorized, "missing auth context", nil)
		return
	}

	auth, err := h.resolver.LoadAuthData(c.Request.Context(), userID, true)
	if err != nil {
		httpErr := apperror.ToHTTP(err)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return
	}

	response.Success(c, http.StatusOK, auth, nil)
}
