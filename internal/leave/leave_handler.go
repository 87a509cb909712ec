package leave

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-leaveflow/internal/balance"
	"go-leaveflow/internal/shared/apperror"
	"go-leaveflow/internal/shared/response"
)

type Handler struct {
	engine   WorkflowEngine
	balances balance.Service
	logger   *zap.Logger
}

func NewHandler(engine WorkflowEngine, balances balance.Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("leave.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.handler")
	}
	return &Handler{engine: engine, balances: balances, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("leave request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) Create(c *gin.Context) {
	actorID := c.GetString("user_id")

	var req CreateLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http create leave validation failed", zap.Error(err))
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.engine.Create(c.Request.Context(), actorID, req)
	if err != nil {
		// A routed-but-unapprovable request is still persisted; surface the
		// row alongside the condition so the client can reference it.
		if resp != nil {
			var appErr *apperror.AppError
			if errors.As(err, &appErr) {
				err = appErr.WithDetails(gin.H{
					"id":             resp.ID,
					"request_number": resp.RequestNumber,
					"status":         resp.Status,
				})
			}
		}
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) Decide(c *gin.Context) {
	actorID := c.GetString("user_id")
	id := c.Param("id")

	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http decide leave validation failed", zap.Error(err))
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.engine.Decide(c.Request.Context(), id, actorID, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Cancel(c *gin.Context) {
	actorID := c.GetString("user_id")
	id := c.Param("id")

	resp, err := h.engine.Cancel(c.Request.Context(), id, actorID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetById(c *gin.Context) {
	resp, err := h.engine.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetWorkflow(c *gin.Context) {
	resp, err := h.engine.GetWorkflow(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) PendingApprovals(c *gin.Context) {
	actorID := c.GetString("user_id")

	resp, err := h.engine.PendingApprovals(c.Request.Context(), actorID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetBalance(c *gin.Context) {
	// Shows the requester's ledger for the year the request draws from.
	req, err := h.engine.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	year := time.Now().Year()
	if start, parseErr := time.Parse(dateLayout, req.StartDate); parseErr == nil {
		year = start.Year()
	}

	resp, err := h.balances.GetForUser(c.Request.Context(), req.UserID, year)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}
