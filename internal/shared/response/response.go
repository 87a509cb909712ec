package response

import (
	"github.com/gin-gonic/gin"
)

// ErrorBody is the error half of the envelope. Details carries
// request-specific context such as the permission string that was denied.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type PaginationMeta struct {
	Total      int64 `json:"total,omitempty"`
	TotalPages int   `json:"totalPages,omitempty"`
	Page       int   `json:"page,omitempty"`
	PageSize   int   `json:"pageSize,omitempty"`
}

func NewPaginationMeta(total int64, page, limit int) PaginationMeta {
	meta := PaginationMeta{Total: total, Page: page, PageSize: limit}
	if limit > 0 {
		meta.TotalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return meta
}

// ApiEnvelope is the single response shape every handler writes. Exactly one
// of Data and Error is set.
type ApiEnvelope struct {
	Ok    bool            `json:"ok"`
	Data  any             `json:"data,omitempty"`
	Meta  *PaginationMeta `json:"meta,omitempty"`
	Error *ErrorBody      `json:"error,omitempty"`
}

func Success(c *gin.Context, status int, data interface{}, meta *PaginationMeta) {
	c.JSON(status, ApiEnvelope{Ok: true, Data: data, Meta: meta})
}

func Error(c *gin.Context, status int, errorCode string, message string, details interface{}) {
	c.JSON(status, ApiEnvelope{
		Ok: false,
		Error: &ErrorBody{
			Code:    errorCode,
			Message: message,
			Details: details,
		},
	})
}
