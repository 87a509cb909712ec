package balanceerrors

import (
	"net/http"

	"go-leaveflow/internal/shared/apperror"
)

var (
	ErrInvalidLeaveType = apperror.New(
		apperror.CodeInvalidInput,
		"unknown leave type",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"start_date must be before or equal end_date",
		http.StatusBadRequest,
	)
	ErrBalanceNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave balance not found",
		http.StatusNotFound,
	)
)
