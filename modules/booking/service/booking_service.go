package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"schedulesync/core/errors"
	"schedulesync/core/logger"
	"schedulesync/core/utils"
	"schedulesync/core/worker"
	authentity "schedulesync/modules/auth/entity"
	"schedulesync/modules/booking/dto"
	"schedulesync/modules/booking/entity"
	"schedulesync/modules/booking/repository"
	caldto "schedulesync/modules/calendar/dto"
	notifdto "schedulesync/modules/notification/dto"
)

// HostResolver maps a public booking reference to a host user.
type HostResolver interface {
	ResolveHost(ctx context.Context, ref string) (*authentity.User, *errors.AppError)
}

// EventPublisher writes the confirmed event to the host's calendar.
type EventPublisher interface {
	CreateEvent(ctx context.Context, userID uuid.UUID, req *caldto.CreateEventRequest) (*caldto.CreateEventResponse, error)
}

// Notifier records an in-app notification for the host.
type Notifier interface {
	Create(ctx context.Context, req *notifdto.CreateNotificationRequest) error
}

// EmailEnqueuer schedules the booker's confirmation email.
type EmailEnqueuer interface {
	EnqueueBookingConfirmedEmail(payload worker.BookingConfirmedEmailPayload) error
}

type BookingService interface {
	Book(ctx context.Context, req *dto.CreateBookingRequest) (*dto.CreateBookingResponse, *errors.AppError)
	ListBookings(ctx context.Context, hostUserID uuid.UUID) ([]dto.BookingRecordResponse, *errors.AppError)
	ExportICal(ctx context.Context, hostUserID uuid.UUID) (string, *errors.AppError)
}

type bookingService struct {
	engine    *BookingEngine
	repo      repository.BookingRepositoryInterface
	hosts     HostResolver
	publisher EventPublisher
	notifier  Notifier
	emails    EmailEnqueuer
}

func NewBookingService(
	engine *BookingEngine,
	repo repository.BookingRepositoryInterface,
	hosts HostResolver,
	publisher EventPublisher,
	notifier Notifier,
	emails EmailEnqueuer,
) BookingService {
	return &bookingService{
		engine:    engine,
		repo:      repo,
		hosts:     hosts,
		publisher: publisher,
		notifier:  notifier,
		emails:    emails,
	}
}

// Book runs the booking sequence: resolve host, win the slot transaction,
// publish the calendar event, persist the record. A failure after the slot
// transaction commits leaves the slot booked; no compensating rollback is
// attempted, the reconciler reports the gap instead.
func (s *bookingService) Book(ctx context.Context, req *dto.CreateBookingRequest) (*dto.CreateBookingResponse, *errors.AppError) {
	if appErr := validateBookingRequest(req); appErr != nil {
		return nil, appErr
	}

	host, appErr := s.hosts.ResolveHost(ctx, req.PublicURLToken)
	if appErr != nil {
		return nil, appErr
	}

	slot, appErr := s.engine.AttemptBooking(ctx, host.ID, req.SlotID)
	if appErr != nil {
		return nil, appErr
	}

	title := fmt.Sprintf("Meeting: %s and %s", host.DisplayName, req.BookerName)
	event, err := s.publisher.CreateEvent(ctx, host.ID, &caldto.CreateEventRequest{
		Title:       title,
		Description: fmt.Sprintf("Booked via %s's booking page by %s (%s).", host.DisplayName, req.BookerName, req.BookerEmail),
		StartTime:   slot.StartTime,
		EndTime:     slot.EndTime,
		Attendees:   []string{host.Email, req.BookerEmail},
	})
	if err != nil {
		// The slot is durably booked; the guest must not retry into a
		// double-booking, so every publish failure surfaces as upstream
		// no matter what the provider reported.
		logger.Error("BookingService:Book:PublishEvent:Error",
			"error", err, "host_user_id", host.ID, "slot_id", req.SlotID)
		return nil, errors.NewAppError(errors.ErrUpstream, "failed to create calendar event", err)
	}

	record, err := s.repo.CreateBookingRecord(ctx, &entity.BookingRecord{
		BookingID:   event.EventID,
		HostUserID:  host.ID,
		SlotID:      slot.SlotID,
		BookerName:  req.BookerName,
		BookerEmail: req.BookerEmail,
		StartTime:   slot.StartTime,
		EndTime:     slot.EndTime,
		MeetingLink: event.MeetingLink,
	})
	if err != nil {
		logger.Error("BookingService:Book:PersistRecord:Error",
			"error", err, "host_user_id", host.ID, "slot_id", req.SlotID)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to persist booking record", err)
	}

	s.notifyBestEffort(ctx, host, record)

	return &dto.CreateBookingResponse{
		Message: "Booking confirmed",
		EventDetails: dto.EventDetails{
			BookingID:   record.BookingID,
			Title:       title,
			StartTime:   slot.StartTime.UTC().Format(time.RFC3339),
			EndTime:     slot.EndTime.UTC().Format(time.RFC3339),
			MeetingLink: record.MeetingLink,
			HostName:    host.DisplayName,
		},
	}, nil
}

// notifyBestEffort fans out the host notification and the booker email.
// Failures are logged and swallowed; the booking already succeeded.
func (s *bookingService) notifyBestEffort(ctx context.Context, host *authentity.User, record *entity.BookingRecord) {
	if s.notifier != nil {
		err := s.notifier.Create(ctx, &notifdto.CreateNotificationRequest{
			UserID:  host.ID,
			Title:   "New booking",
			Message: fmt.Sprintf("%s booked %s", record.BookerName, record.StartTime.UTC().Format("Mon Jan 2 15:04 MST")),
			Type:    notifdto.TypeBookingConfirmed,
			Data: map[string]interface{}{
				"booking_id": record.BookingID,
				"slot_id":    record.SlotID,
			},
		})
		if err != nil {
			logger.Warn("BookingService:Book:Notify:Error", "error", err, "host_user_id", host.ID)
		}
	}

	if s.emails != nil {
		err := s.emails.EnqueueBookingConfirmedEmail(worker.BookingConfirmedEmailPayload{
			BookerName:  record.BookerName,
			BookerEmail: record.BookerEmail,
			HostEmail:   host.Email,
			StartTime:   record.StartTime.UTC().Format(time.RFC3339),
			EndTime:     record.EndTime.UTC().Format(time.RFC3339),
			MeetingLink: record.MeetingLink,
		})
		if err != nil {
			logger.Warn("BookingService:Book:EnqueueEmail:Error", "error", err, "host_user_id", host.ID)
		}
	}
}

func (s *bookingService) ListBookings(ctx context.Context, hostUserID uuid.UUID) ([]dto.BookingRecordResponse, *errors.AppError) {
	records, err := s.repo.GetBookingsByHost(ctx, hostUserID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to list bookings", err)
	}
	return dto.ToBookingRecordResponses(records), nil
}

// ExportICal renders the host's bookings as an iCalendar document.
func (s *bookingService) ExportICal(ctx context.Context, hostUserID uuid.UUID) (string, *errors.AppError) {
	records, err := s.repo.GetBookingsByHost(ctx, hostUserID)
	if err != nil {
		return "", errors.NewAppError(errors.ErrInternalServer, "failed to list bookings", err)
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//schedulesync//bookings//EN")

	for _, rec := range records {
		event := cal.AddEvent(fmt.Sprintf("%s@schedulesync", rec.ID))
		event.SetCreatedTime(rec.CreatedAt)
		event.SetDtStampTime(rec.CreatedAt)
		event.SetStartAt(rec.StartTime)
		event.SetEndAt(rec.EndTime)
		event.SetSummary(fmt.Sprintf("Meeting with %s", rec.BookerName))
		event.AddAttendee(rec.BookerEmail)
		if rec.MeetingLink != "" {
			event.SetURL(rec.MeetingLink)
			event.SetLocation(rec.MeetingLink)
		}
	}

	return cal.Serialize(), nil
}

func validateBookingRequest(req *dto.CreateBookingRequest) *errors.AppError {
	if strings.TrimSpace(req.PublicURLToken) == "" {
		return errors.NewAppError(errors.ErrInvalidInput, "publicUrlToken is required", nil)
	}
	if strings.TrimSpace(req.SlotID) == "" {
		return errors.NewAppError(errors.ErrInvalidInput, "slotId is required", nil)
	}
	if strings.TrimSpace(req.BookerName) == "" {
		return errors.NewAppError(errors.ErrInvalidInput, "bookerName is required", nil)
	}
	if !utils.IsValidEmail(req.BookerEmail) {
		return errors.NewAppError(errors.ErrInvalidInput, "bookerEmail is not a valid email address", nil)
	}
	return nil
}
