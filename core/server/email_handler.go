package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"schedulesync/core/logger"
	"schedulesync/core/utils"
	"schedulesync/core/worker"
)

func handleBookingConfirmedEmail(ctx context.Context, t *asynq.Task) error {
	var payload worker.BookingConfirmedEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal booking email payload: %w", err)
	}

	body := fmt.Sprintf(
		"Hi %s,\r\n\r\nYour meeting is confirmed.\r\n\r\nStart: %s\r\nEnd: %s\r\n",
		payload.BookerName, payload.StartTime, payload.EndTime,
	)
	if payload.MeetingLink != "" {
		body += fmt.Sprintf("Join: %s\r\n", payload.MeetingLink)
	}

	msg := utils.EmailMessage{
		To:      []string{payload.BookerEmail, payload.HostEmail},
		Subject: "Your meeting is confirmed",
		Body:    body,
	}
	if err := utils.SendEmailTLS(*utils.GetEmailConfig(), msg); err != nil {
		logger.Error("Worker:BookingConfirmedEmail:Send:Error", "error", err, "booker", payload.BookerEmail)
		return err
	}

	logger.Info("Worker:BookingConfirmedEmail:Sent", "booker", payload.BookerEmail)
	return nil
}
