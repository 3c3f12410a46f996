package repository

import (
	"context"

	"github.com/google/uuid"

	"schedulesync/core/database"
	"schedulesync/core/logger"
	"schedulesync/modules/booking/entity"
)

type BookingRepositoryInterface interface {
	CreateBookingRecord(ctx context.Context, record *entity.BookingRecord) (*entity.BookingRecord, error)
	GetBookingsByHost(ctx context.Context, hostUserID uuid.UUID) ([]entity.BookingRecord, error)
	RecordExistsForSlot(ctx context.Context, hostUserID uuid.UUID, slotID string) (bool, error)
}

type BookingRepository struct {
	db database.IDatabase
}

func NewBookingRepository(db database.IDatabase) *BookingRepository {
	return &BookingRepository{db: db}
}

// CreateBookingRecord inserts the record. Records are never updated or
// deleted.
func (r *BookingRepository) CreateBookingRecord(ctx context.Context, record *entity.BookingRecord) (*entity.BookingRecord, error) {
	query := `
		INSERT INTO bookings (booking_id, host_user_id, slot_id, booker_name, booker_email, start_time, end_time, meeting_link)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		record.BookingID, record.HostUserID, record.SlotID,
		record.BookerName, record.BookerEmail,
		record.StartTime, record.EndTime, record.MeetingLink,
	).Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		logger.Error("BookingRepository:CreateBookingRecord:Error",
			"error", err, "host_user_id", record.HostUserID, "slot_id", record.SlotID)
		return nil, err
	}
	return record, nil
}

func (r *BookingRepository) GetBookingsByHost(ctx context.Context, hostUserID uuid.UUID) ([]entity.BookingRecord, error) {
	query := `
		SELECT id, booking_id, host_user_id, slot_id, booker_name, booker_email, start_time, end_time, meeting_link, created_at
		FROM bookings
		WHERE host_user_id = $1
		ORDER BY start_time
	`
	var records []entity.BookingRecord
	if err := r.db.SelectContext(ctx, &records, query, hostUserID); err != nil {
		logger.Error("BookingRepository:GetBookingsByHost:Error", "error", err, "host_user_id", hostUserID)
		return nil, err
	}
	return records, nil
}

func (r *BookingRepository) RecordExistsForSlot(ctx context.Context, hostUserID uuid.UUID, slotID string) (bool, error) {
	var count int
	query := `SELECT COUNT(1) FROM bookings WHERE host_user_id = $1 AND slot_id = $2`
	if err := r.db.GetContext(ctx, &count, query, hostUserID, slotID); err != nil {
		return false, err
	}
	return count > 0, nil
}
