package service

import (
	"context"

	"github.com/google/uuid"

	"schedulesync/core/errors"
	"schedulesync/core/logger"
	availentity "schedulesync/modules/availability/entity"
	availrepo "schedulesync/modules/availability/repository"
)

// BookingEngine performs the atomic available-to-booked slot transition. It
// is the sole writer of slot status and the sole enforcer of the
// at-most-one-booking guarantee.
type BookingEngine struct {
	store availrepo.SlotStore
}

func NewBookingEngine(store availrepo.SlotStore) *BookingEngine {
	return &BookingEngine{store: store}
}

// AttemptBooking transitions the slot to booked and returns the committed
// slot. Among concurrent attempts on the same slot exactly one succeeds; the
// losers observe the committed status on their retried read and fail with
// SlotUnavailable. Outcomes:
//
//	ErrNotFound        no slot list exists for the user
//	ErrSlotNotFound    the list has no entry with this id
//	ErrSlotUnavailable the slot is already booked
//
// All three are terminal: they abort without retrying, because no retry can
// change the outcome.
func (e *BookingEngine) AttemptBooking(ctx context.Context, userID uuid.UUID, slotID string) (*availentity.Slot, *errors.AppError) {
	var won availentity.Slot

	_, err := e.store.TransactionalUpdate(ctx, userID, func(doc *availentity.SlotList) error {
		idx := doc.Find(slotID)
		if idx < 0 {
			return errors.NewAppError(errors.ErrSlotNotFound, "slot does not exist in the host's slot list", nil)
		}
		if doc.Slots[idx].Status != availentity.SlotStatusAvailable {
			return errors.NewAppError(errors.ErrSlotUnavailable, "slot is no longer available", nil)
		}

		doc.Slots[idx].Status = availentity.SlotStatusBooked
		won = doc.Slots[idx]
		return nil
	})
	if err != nil {
		if ae, ok := err.(*errors.AppError); ok {
			return nil, ae
		}
		if err == availrepo.ErrNoDocument {
			return nil, errors.NewAppError(errors.ErrNotFound, "no slot list exists for this host", nil)
		}
		// Includes exhausted optimistic retries: the outcome is unknown, so
		// surface an infrastructure error rather than a slot conflict.
		logger.Error("BookingEngine:AttemptBooking:StoreError", "error", err, "user_id", userID, "slot_id", slotID)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to commit booking transaction", err)
	}

	logger.Info("BookingEngine:AttemptBooking:Committed", "user_id", userID, "slot_id", slotID)
	return &won, nil
}
