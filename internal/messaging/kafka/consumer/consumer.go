package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"go-leaveflow/internal/events"
	"go-leaveflow/internal/notification"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ConsumeApprovalRequests delivers "a request is waiting for you" mails.
func ConsumeApprovalRequests(
	ctx context.Context,
	reader *kafkago.Reader,
	mailer notification.Mailer,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.approval_requests")
	log.Info("approval request consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("approval request consumer stopped")
				return
			}
			log.Error("fetch approval request message failed", zap.Error(err))
			continue
		}

		var event events.LeaveApprovalRequestedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode approval request event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		subject := fmt.Sprintf("Leave request %s awaits your approval", event.RequestNumber)
		body := fmt.Sprintf(
			"%s requested %s leave from %s to %s. You are the level %d approver (%s).",
			event.RequesterName, event.LeaveType, event.StartDate, event.EndDate,
			event.ApprovalLevel, event.ApproverRole,
		)

		if err := mailer.Send(ctx, event.ApproverID, subject, body); err != nil {
			log.Error("send approval request mail failed",
				zap.String("leave_request_id", event.LeaveRequestID),
				zap.String("approver_id", event.ApproverID),
				zap.Error(err),
			)
			// Delivery is best effort; commit anyway so one bad address
			// cannot wedge the partition.
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit approval request message failed", zap.Error(err))
		}
	}
}

// ConsumeStatusUpdates delivers decision outcomes to requesters.
func ConsumeStatusUpdates(
	ctx context.Context,
	reader *kafkago.Reader,
	mailer notification.Mailer,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.status_updates")
	log.Info("status update consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("status update consumer stopped")
				return
			}
			log.Error("fetch status update message failed", zap.Error(err))
			continue
		}

		var event events.LeaveStatusChangedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode status update event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		subject := fmt.Sprintf("Leave request %s: %s", event.RequestNumber, event.Status)
		body := fmt.Sprintf(
			"Your leave request %s is now %s (decision %q at level %d).",
			event.RequestNumber, event.Status, event.Decision, event.ApprovalLevel,
		)
		if event.Comments != "" {
			body += " Comments: " + event.Comments
		}

		if err := mailer.Send(ctx, event.RequesterID, subject, body); err != nil {
			log.Error("send status update mail failed",
				zap.String("leave_request_id", event.LeaveRequestID),
				zap.String("requester_id", event.RequesterID),
				zap.Error(err),
			)
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit status update message failed", zap.Error(err))
		}
	}
}
