package entity

import (
	"time"

	"github.com/google/uuid"
)

// BookingRecord is the immutable outcome of a won booking transaction.
// BookingID is the identifier the calendar event publisher assigned. At most
// one record ever references a given (host, slot) pair; the unique index on
// those columns backs the engine's at-most-one guarantee at the record layer.
type BookingRecord struct {
	ID          uuid.UUID `db:"id" json:"id"`
	BookingID   string    `db:"booking_id" json:"booking_id"`
	HostUserID  uuid.UUID `db:"host_user_id" json:"host_user_id"`
	SlotID      string    `db:"slot_id" json:"slot_id"`
	BookerName  string    `db:"booker_name" json:"booker_name"`
	BookerEmail string    `db:"booker_email" json:"booker_email"`
	StartTime   time.Time `db:"start_time" json:"start_time"`
	EndTime     time.Time `db:"end_time" json:"end_time"`
	MeetingLink string    `db:"meeting_link" json:"meeting_link"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

func (BookingRecord) TableName() string {
	return "bookings"
}
