package authzerrors

import (
	"net/http"

	"go-leaveflow/internal/shared/apperror"
)

var (
	ErrUserNotFound = apperror.New(
		apperror.CodeNotFound,
		"user not found",
		http.StatusNotFound,
	)
	ErrPermissionDenied = apperror.New(
		apperror.CodeForbidden,
		"you do not have the required permission",
		http.StatusForbidden,
	)
	ErrInvalidUserID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid user id",
		http.StatusBadRequest,
	)
)
