package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"schedulesync/core/config"
	"schedulesync/core/errors"
	"schedulesync/core/logger"
	authentity "schedulesync/modules/auth/entity"
	"schedulesync/modules/availability/dto"
	"schedulesync/modules/availability/entity"
	"schedulesync/modules/availability/repository"
	calendarentity "schedulesync/modules/calendar/entity"
)

// HostResolver maps a public booking reference to a host user.
type HostResolver interface {
	ResolveHost(ctx context.Context, ref string) (*authentity.User, *errors.AppError)
}

// FreeBusyProvider reports busy intervals from the host's calendar.
type FreeBusyProvider interface {
	GetFreeBusy(ctx context.Context, userID uuid.UUID, timeMin, timeMax time.Time) ([]calendarentity.TimeRange, error)
}

type AvailabilityServiceInterface interface {
	RegenerateSlots(ctx context.Context, userID uuid.UUID) (*dto.SlotListResponse, *errors.AppError)
	GetOwnSlots(ctx context.Context, userID uuid.UUID) (*dto.SlotListResponse, *errors.AppError)
	GetPublicSlots(ctx context.Context, ref string) (*dto.PublicSlotsResponse, *errors.AppError)
}

type AvailabilityService struct {
	store    repository.SlotStore
	freeBusy FreeBusyProvider
	hosts    HostResolver
}

func NewAvailabilityService(store repository.SlotStore, freeBusy FreeBusyProvider, hosts HostResolver) *AvailabilityService {
	return &AvailabilityService{
		store:    store,
		freeBusy: freeBusy,
		hosts:    hosts,
	}
}

// RegenerateSlots rebuilds the user's availability window from working hours
// and calendar busy time. Booked slots survive regeneration.
func (s *AvailabilityService) RegenerateSlots(ctx context.Context, userID uuid.UUID) (*dto.SlotListResponse, *errors.AppError) {
	cfg := config.Get()
	genCfg := GeneratorConfig{
		WorkingHoursStart: cfg.Booking.WorkingHoursStart,
		WorkingHoursEnd:   cfg.Booking.WorkingHoursEnd,
		SlotDuration:      time.Duration(cfg.Booking.SlotDurationMinutes) * time.Minute,
		DaysAhead:         cfg.Booking.DaysAhead,
	}

	now := time.Now().UTC()
	windowEnd := now.AddDate(0, 0, genCfg.DaysAhead)

	busy, err := s.freeBusy.GetFreeBusy(ctx, userID, now, windowEnd)
	if err != nil {
		if ae, ok := err.(*errors.AppError); ok && ae.Code == errors.ErrNotFound {
			// No calendar linked yet; generate from working hours alone.
			logger.Warn("AvailabilityService:RegenerateSlots:NoCalendar", "user_id", userID)
			busy = nil
		} else {
			logger.Error("AvailabilityService:RegenerateSlots:FreeBusy:Error", "error", err, "user_id", userID)
			return nil, errors.NewAppError(errors.ErrUpstream, "failed to read calendar availability", err)
		}
	}

	candidates, genErr := GenerateCandidates(now, genCfg, busy)
	if genErr != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to generate slots", genErr)
	}

	doc, upErr := s.store.UpsertDocument(ctx, userID, func(existing *entity.SlotList) entity.SlotSeq {
		return MergePreservingBooked(existing, candidates)
	})
	if upErr != nil {
		logger.Error("AvailabilityService:RegenerateSlots:Upsert:Error", "error", upErr, "user_id", userID)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to store slots", upErr)
	}

	logger.Info("AvailabilityService:RegenerateSlots:Success",
		"user_id", userID, "total", len(doc.Slots), "booked", len(doc.Booked()))

	return &dto.SlotListResponse{
		Slots:     dto.ToSlotResponses(doc.Slots),
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func (s *AvailabilityService) GetOwnSlots(ctx context.Context, userID uuid.UUID) (*dto.SlotListResponse, *errors.AppError) {
	doc, err := s.store.ReadDocument(ctx, userID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to read slots", err)
	}

	resp := &dto.SlotListResponse{Slots: []dto.SlotResponse{}}
	if doc != nil {
		resp.Slots = dto.ToSlotResponses(doc.Slots)
		resp.UpdatedAt = doc.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return resp, nil
}

// GetPublicSlots resolves the booking reference and returns the host's
// available slots. An unknown reference is a 404.
func (s *AvailabilityService) GetPublicSlots(ctx context.Context, ref string) (*dto.PublicSlotsResponse, *errors.AppError) {
	host, appErr := s.hosts.ResolveHost(ctx, ref)
	if appErr != nil {
		return nil, appErr
	}

	doc, err := s.store.ReadDocument(ctx, host.ID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to read slots", err)
	}

	resp := &dto.PublicSlotsResponse{
		Host: dto.PublicHostInfo{
			DisplayName: host.DisplayName,
			Slug:        host.PublicSlug,
		},
		Slots: []dto.SlotResponse{},
	}
	if doc != nil {
		resp.Slots = dto.ToSlotResponses(doc.Available())
	}
	return resp, nil
}
