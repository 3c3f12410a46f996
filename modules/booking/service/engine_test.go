package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	apperrors "schedulesync/core/errors"
	availentity "schedulesync/modules/availability/entity"
	availrepo "schedulesync/modules/availability/repository"
)

// memSlotStore is an in-memory SlotStore with the same commit semantics as
// the real one: fn runs against a clone and an fn error aborts the attempt.
type memSlotStore struct {
	mu   sync.Mutex
	docs map[uuid.UUID]*availentity.SlotList

	// failUpdates, when non-nil, is returned from TransactionalUpdate
	// before fn runs.
	failUpdates error
	fnCalls     int
}

func newMemSlotStore() *memSlotStore {
	return &memSlotStore{docs: make(map[uuid.UUID]*availentity.SlotList)}
}

func (m *memSlotStore) put(userID uuid.UUID, slots ...availentity.Slot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[userID] = &availentity.SlotList{
		UserID:    userID,
		Slots:     slots,
		Version:   1,
		UpdatedAt: time.Now(),
	}
}

func (m *memSlotStore) ReadDocument(_ context.Context, userID uuid.UUID) (*availentity.SlotList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[userID]
	if !ok {
		return nil, nil
	}
	return doc.Clone(), nil
}

func (m *memSlotStore) TransactionalUpdate(_ context.Context, userID uuid.UUID, fn func(doc *availentity.SlotList) error) (*availentity.SlotList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failUpdates != nil {
		return nil, m.failUpdates
	}

	doc, ok := m.docs[userID]
	if !ok {
		return nil, availrepo.ErrNoDocument
	}

	mutated := doc.Clone()
	m.fnCalls++
	if err := fn(mutated); err != nil {
		return nil, err
	}

	mutated.Version = doc.Version + 1
	mutated.UpdatedAt = time.Now()
	m.docs[userID] = mutated
	return mutated.Clone(), nil
}

func (m *memSlotStore) UpsertDocument(_ context.Context, userID uuid.UUID, fn func(existing *availentity.SlotList) availentity.SlotSeq) (*availentity.SlotList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing := m.docs[userID]
	var snapshot *availentity.SlotList
	if existing != nil {
		snapshot = existing.Clone()
	}
	slots := fn(snapshot)

	version := int64(1)
	if existing != nil {
		version = existing.Version + 1
	}
	doc := &availentity.SlotList{UserID: userID, Slots: slots, Version: version, UpdatedAt: time.Now()}
	m.docs[userID] = doc
	return doc.Clone(), nil
}

func (m *memSlotStore) ListDocuments(_ context.Context) ([]availentity.SlotList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]availentity.SlotList, 0, len(m.docs))
	for _, doc := range m.docs {
		out = append(out, *doc.Clone())
	}
	return out, nil
}

func testSlot(start time.Time, status availentity.SlotStatus) availentity.Slot {
	s := availentity.NewAvailableSlot(start, start.Add(30*time.Minute))
	s.Status = status
	return s
}

func TestAttemptBookingTransitionsSlot(t *testing.T) {
	store := newMemSlotStore()
	hostID := uuid.New()
	start := time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)
	slot := testSlot(start, availentity.SlotStatusAvailable)
	store.put(hostID, slot)

	engine := NewBookingEngine(store)
	won, appErr := engine.AttemptBooking(context.Background(), hostID, slot.SlotID)
	if appErr != nil {
		t.Fatalf("AttemptBooking failed: %v", appErr)
	}
	if won.Status != availentity.SlotStatusBooked {
		t.Fatalf("won slot status = %q, want booked", won.Status)
	}

	doc, _ := store.ReadDocument(context.Background(), hostID)
	if got := doc.Slots[doc.Find(slot.SlotID)].Status; got != availentity.SlotStatusBooked {
		t.Fatalf("stored slot status = %q, want booked", got)
	}
}

func TestAttemptBookingExactlyOneWinner(t *testing.T) {
	store := newMemSlotStore()
	hostID := uuid.New()
	start := time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)
	slot := testSlot(start, availentity.SlotStatusAvailable)
	store.put(hostID, slot)

	engine := NewBookingEngine(store)

	const attempts = 50
	var wg sync.WaitGroup
	results := make([]*apperrors.AppError, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = engine.AttemptBooking(context.Background(), hostID, slot.SlotID)
		}(i)
	}
	wg.Wait()

	var wins, conflicts int
	for _, appErr := range results {
		switch {
		case appErr == nil:
			wins++
		case appErr.Code == apperrors.ErrSlotUnavailable:
			conflicts++
		default:
			t.Fatalf("unexpected error code %q", appErr.Code)
		}
	}
	if wins != 1 {
		t.Fatalf("wins = %d, want exactly 1", wins)
	}
	if conflicts != attempts-1 {
		t.Fatalf("conflicts = %d, want %d", conflicts, attempts-1)
	}
}

func TestAttemptBookingSlotAlreadyBooked(t *testing.T) {
	store := newMemSlotStore()
	hostID := uuid.New()
	start := time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)
	slot := testSlot(start, availentity.SlotStatusBooked)
	store.put(hostID, slot)

	engine := NewBookingEngine(store)
	_, appErr := engine.AttemptBooking(context.Background(), hostID, slot.SlotID)
	if appErr == nil || appErr.Code != apperrors.ErrSlotUnavailable {
		t.Fatalf("got %v, want ErrSlotUnavailable", appErr)
	}
	if store.fnCalls != 1 {
		t.Fatalf("fn ran %d times, want 1 (terminal outcomes must not retry)", store.fnCalls)
	}
}

func TestAttemptBookingSlotNotFound(t *testing.T) {
	store := newMemSlotStore()
	hostID := uuid.New()
	store.put(hostID, testSlot(time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC), availentity.SlotStatusAvailable))

	engine := NewBookingEngine(store)
	_, appErr := engine.AttemptBooking(context.Background(), hostID, "2026-09-02T23:00:00Z")
	if appErr == nil || appErr.Code != apperrors.ErrSlotNotFound {
		t.Fatalf("got %v, want ErrSlotNotFound", appErr)
	}
}

func TestAttemptBookingNoDocument(t *testing.T) {
	store := newMemSlotStore()
	engine := NewBookingEngine(store)

	_, appErr := engine.AttemptBooking(context.Background(), uuid.New(), "2026-09-02T10:00:00Z")
	if appErr == nil || appErr.Code != apperrors.ErrNotFound {
		t.Fatalf("got %v, want ErrNotFound", appErr)
	}
}

func TestAttemptBookingRetriesExhaustedIsInternal(t *testing.T) {
	store := newMemSlotStore()
	store.failUpdates = availrepo.ErrConflictRetriesExhausted

	engine := NewBookingEngine(store)
	_, appErr := engine.AttemptBooking(context.Background(), uuid.New(), "2026-09-02T10:00:00Z")
	if appErr == nil || appErr.Code != apperrors.ErrInternalServer {
		t.Fatalf("got %v, want ErrInternalServer", appErr)
	}
	if !errors.Is(appErr, availrepo.ErrConflictRetriesExhausted) {
		t.Fatalf("cause not preserved: %v", appErr)
	}
}
