package dto

import (
	"time"

	"schedulesync/modules/booking/entity"
)

// CreateBookingRequest is the guest-facing booking request. Field names match
// the public wire contract.
type CreateBookingRequest struct {
	PublicURLToken string `json:"publicUrlToken"`
	SlotID         string `json:"slotId"`
	BookerName     string `json:"bookerName"`
	BookerEmail    string `json:"bookerEmail"`
}

// EventDetails describes the calendar event created for a won booking.
type EventDetails struct {
	BookingID   string `json:"booking_id"`
	Title       string `json:"title"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	MeetingLink string `json:"meeting_link,omitempty"`
	HostName    string `json:"host_name"`
}

// CreateBookingResponse is returned on a fully successful booking.
type CreateBookingResponse struct {
	Message      string       `json:"message"`
	EventDetails EventDetails `json:"event_details"`
}

// BookingRecordResponse is the host's view of a past booking.
type BookingRecordResponse struct {
	ID          string `json:"id"`
	BookingID   string `json:"booking_id"`
	SlotID      string `json:"slot_id"`
	BookerName  string `json:"booker_name"`
	BookerEmail string `json:"booker_email"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	MeetingLink string `json:"meeting_link,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func ToBookingRecordResponses(records []entity.BookingRecord) []BookingRecordResponse {
	out := make([]BookingRecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, BookingRecordResponse{
			ID:          r.ID.String(),
			BookingID:   r.BookingID,
			SlotID:      r.SlotID,
			BookerName:  r.BookerName,
			BookerEmail: r.BookerEmail,
			StartTime:   r.StartTime.UTC().Format(time.RFC3339),
			EndTime:     r.EndTime.UTC().Format(time.RFC3339),
			MeetingLink: r.MeetingLink,
			CreatedAt:   r.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}
