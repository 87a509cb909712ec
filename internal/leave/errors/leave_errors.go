package leaveerrors

import (
	"net/http"

	"go-leaveflow/internal/shared/apperror"
)

var (
	ErrInvalidRequesterID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid requester id",
		http.StatusBadRequest,
	)
	ErrInvalidActorID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid actor id",
		http.StatusBadRequest,
	)
	ErrInvalidLeaveType = apperror.New(
		apperror.CodeInvalidInput,
		"unknown leave type",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"start_date must be before or equal end_date",
		http.StatusBadRequest,
	)
	ErrRequesterInactive = apperror.New(
		apperror.CodeInvalidState,
		"requester is not an active user",
		http.StatusBadRequest,
	)
	ErrLeaveOverlap = apperror.New(
		apperror.CodeConflict,
		"leave already requested for an overlapping period",
		http.StatusConflict,
	)
	ErrRequestNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave request not found",
		http.StatusNotFound,
	)

	// State conflicts: a decision that does not match the one pending entry
	// at the request's current level.
	ErrRequestNotPending = apperror.New(
		apperror.CodeInvalidState,
		"leave request is not awaiting a decision",
		http.StatusConflict,
	)
	ErrWrongApprovalLevel = apperror.New(
		apperror.CodeInvalidState,
		"decision does not target the request's current approval level",
		http.StatusConflict,
	)
	ErrWrongApprover = apperror.New(
		apperror.CodeInvalidState,
		"you are not the registered approver for this level",
		http.StatusConflict,
	)
	ErrEntryAlreadyDecided = apperror.New(
		apperror.CodeInvalidState,
		"this approval entry has already been decided",
		http.StatusConflict,
	)
	ErrInvalidDecision = apperror.New(
		apperror.CodeInvalidInput,
		"decision must be approve or reject",
		http.StatusBadRequest,
	)

	ErrNoApproverFound = apperror.New(
		apperror.CodeInvalidState,
		"no approver could be determined; ask an administrator to configure a department manager",
		http.StatusUnprocessableEntity,
	)
	ErrWorkflowInit = apperror.New(
		apperror.CodeInternalError,
		"approval workflow could not be initialized",
		http.StatusInternalServerError,
	)

	ErrCancelNotAllowed = apperror.New(
		apperror.CodeInvalidState,
		"only a pending leave request can be cancelled",
		http.StatusConflict,
	)
	ErrNotRequester = apperror.New(
		apperror.CodeForbidden,
		"only the requester may cancel this leave request",
		http.StatusForbidden,
	)
)
