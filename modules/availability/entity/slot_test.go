package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCloneIsIndependent(t *testing.T) {
	start := time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)
	doc := &SlotList{
		UserID:  uuid.New(),
		Slots:   SlotSeq{NewAvailableSlot(start, start.Add(30*time.Minute))},
		Version: 3,
	}

	clone := doc.Clone()
	clone.Slots[0].Status = SlotStatusBooked

	if doc.Slots[0].Status != SlotStatusAvailable {
		t.Fatal("mutating the clone changed the original document")
	}
	if clone.Version != doc.Version || clone.UserID != doc.UserID {
		t.Fatal("clone lost identity fields")
	}
}

func TestFind(t *testing.T) {
	start := time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)
	slot := NewAvailableSlot(start, start.Add(30*time.Minute))
	doc := &SlotList{Slots: SlotSeq{slot}}

	if idx := doc.Find(slot.SlotID); idx != 0 {
		t.Fatalf("Find(%q) = %d, want 0", slot.SlotID, idx)
	}
	if idx := doc.Find("2030-01-01T00:00:00Z"); idx != -1 {
		t.Fatalf("Find(unknown) = %d, want -1", idx)
	}
}

func TestAvailableAndBookedPartition(t *testing.T) {
	start := time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)
	open := NewAvailableSlot(start, start.Add(30*time.Minute))
	taken := NewAvailableSlot(start.Add(time.Hour), start.Add(90*time.Minute))
	taken.Status = SlotStatusBooked

	doc := &SlotList{Slots: SlotSeq{open, taken}}

	if got := doc.Available(); len(got) != 1 || got[0].SlotID != open.SlotID {
		t.Fatalf("Available() = %+v", got)
	}
	if got := doc.Booked(); len(got) != 1 || got[0].SlotID != taken.SlotID {
		t.Fatalf("Booked() = %+v", got)
	}
}
