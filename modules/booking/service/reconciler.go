package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"schedulesync/core/logger"
	availentity "schedulesync/modules/availability/entity"
	availrepo "schedulesync/modules/availability/repository"
	"schedulesync/modules/booking/repository"
	notifdto "schedulesync/modules/notification/dto"
)

// Reconciler sweeps for booked slots that have no booking record: the
// partial-failure window where the slot transaction committed but the
// calendar event or record write failed afterwards. It reports the gap to
// the host and never reverts slot status.
type Reconciler struct {
	store    availrepo.SlotStore
	repo     repository.BookingRepositoryInterface
	notifier Notifier
	grace    time.Duration

	mu       sync.Mutex
	reported map[string]struct{}
}

func NewReconciler(store availrepo.SlotStore, repo repository.BookingRepositoryInterface, notifier Notifier, grace time.Duration) *Reconciler {
	return &Reconciler{
		store:    store,
		repo:     repo,
		notifier: notifier,
		grace:    grace,
		reported: make(map[string]struct{}),
	}
}

// Run executes one sweep. Documents updated within the grace period are
// skipped so an in-flight booking is not reported as orphaned.
func (r *Reconciler) Run(ctx context.Context) error {
	docs, err := r.store.ListDocuments(ctx)
	if err != nil {
		logger.Error("Reconciler:Run:ListDocuments:Error", "error", err)
		return err
	}

	cutoff := time.Now().Add(-r.grace)
	var orphans int

	for i := range docs {
		doc := &docs[i]
		if doc.UpdatedAt.After(cutoff) {
			continue
		}

		for _, slot := range doc.Booked() {
			exists, err := r.repo.RecordExistsForSlot(ctx, doc.UserID, slot.SlotID)
			if err != nil {
				logger.Error("Reconciler:Run:RecordLookup:Error",
					"error", err, "user_id", doc.UserID, "slot_id", slot.SlotID)
				continue
			}
			if exists {
				continue
			}

			orphans++
			r.report(ctx, doc, slot)
		}
	}

	logger.Info("Reconciler:Run:Complete", "documents", len(docs), "orphans", orphans)
	return nil
}

func (r *Reconciler) report(ctx context.Context, doc *availentity.SlotList, slot availentity.Slot) {
	key := doc.UserID.String() + "/" + slot.SlotID

	r.mu.Lock()
	_, seen := r.reported[key]
	if !seen {
		r.reported[key] = struct{}{}
	}
	r.mu.Unlock()

	logger.Warn("Reconciler:OrphanedBooking",
		"user_id", doc.UserID, "slot_id", slot.SlotID,
		"start_time", slot.StartTime, "already_reported", seen)

	if seen || r.notifier == nil {
		return
	}

	err := r.notifier.Create(ctx, &notifdto.CreateNotificationRequest{
		UserID:  doc.UserID,
		Title:   "Booking needs attention",
		Message: fmt.Sprintf("The slot starting %s is marked booked but has no confirmed calendar event. Please follow up with the guest.", slot.StartTime.UTC().Format(time.RFC3339)),
		Type:    notifdto.TypeBookingUnreconciled,
		Data: map[string]interface{}{
			"slot_id": slot.SlotID,
		},
	})
	if err != nil {
		logger.Error("Reconciler:Report:Notify:Error", "error", err, "user_id", doc.UserID)
	}
}
