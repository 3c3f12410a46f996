package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	availentity "schedulesync/modules/availability/entity"
	notifdto "schedulesync/modules/notification/dto"
)

func putDocUpdatedAt(store *memSlotStore, userID uuid.UUID, updatedAt time.Time, slots ...availentity.Slot) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.docs[userID] = &availentity.SlotList{
		UserID:    userID,
		Slots:     slots,
		Version:   1,
		UpdatedAt: updatedAt,
	}
}

func TestReconcilerReportsOrphanedBooking(t *testing.T) {
	store := newMemSlotStore()
	repo := &fakeBookingRepo{exists: map[string]bool{}}
	notifier := &fakeNotifier{}

	hostID := uuid.New()
	start := time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)
	booked := testSlot(start, availentity.SlotStatusBooked)
	putDocUpdatedAt(store, hostID, time.Now().Add(-time.Hour), booked)

	rec := NewReconciler(store, repo, notifier, 15*time.Minute)
	if err := rec.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(notifier.created) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notifier.created))
	}
	got := notifier.created[0]
	if got.Type != notifdto.TypeBookingUnreconciled {
		t.Fatalf("type = %q, want %q", got.Type, notifdto.TypeBookingUnreconciled)
	}
	if got.UserID != hostID {
		t.Fatalf("notified user = %s, want host %s", got.UserID, hostID)
	}

	// Status must never be reverted.
	doc, _ := store.ReadDocument(context.Background(), hostID)
	if doc.Slots[0].Status != availentity.SlotStatusBooked {
		t.Fatal("reconciler reverted the slot status")
	}
}

func TestReconcilerSkipsRecentDocuments(t *testing.T) {
	store := newMemSlotStore()
	repo := &fakeBookingRepo{exists: map[string]bool{}}
	notifier := &fakeNotifier{}

	hostID := uuid.New()
	start := time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)
	booked := testSlot(start, availentity.SlotStatusBooked)
	putDocUpdatedAt(store, hostID, time.Now(), booked)

	rec := NewReconciler(store, repo, notifier, 15*time.Minute)
	if err := rec.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(notifier.created) != 0 {
		t.Fatal("in-flight booking reported as orphaned")
	}
}

func TestReconcilerIgnoresRecordedBookings(t *testing.T) {
	store := newMemSlotStore()
	notifier := &fakeNotifier{}

	hostID := uuid.New()
	start := time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)
	booked := testSlot(start, availentity.SlotStatusBooked)
	putDocUpdatedAt(store, hostID, time.Now().Add(-time.Hour), booked)

	repo := &fakeBookingRepo{exists: map[string]bool{
		hostID.String() + "/" + booked.SlotID: true,
	}}

	rec := NewReconciler(store, repo, notifier, 15*time.Minute)
	if err := rec.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(notifier.created) != 0 {
		t.Fatal("recorded booking reported as orphaned")
	}
}

func TestReconcilerNotifiesOnce(t *testing.T) {
	store := newMemSlotStore()
	repo := &fakeBookingRepo{exists: map[string]bool{}}
	notifier := &fakeNotifier{}

	hostID := uuid.New()
	start := time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)
	booked := testSlot(start, availentity.SlotStatusBooked)
	putDocUpdatedAt(store, hostID, time.Now().Add(-time.Hour), booked)

	rec := NewReconciler(store, repo, notifier, 15*time.Minute)
	for i := 0; i < 3; i++ {
		if err := rec.Run(context.Background()); err != nil {
			t.Fatalf("Run %d failed: %v", i, err)
		}
	}
	if len(notifier.created) != 1 {
		t.Fatalf("notifications = %d, want 1 (dedup across sweeps)", len(notifier.created))
	}
}
