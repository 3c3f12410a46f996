package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// SlotStatus is the lifecycle of a bookable slot. The transition is one-way:
// once booked a slot never returns to available.
type SlotStatus string

const (
	SlotStatusAvailable SlotStatus = "available"
	SlotStatusBooked    SlotStatus = "booked"
)

// Slot is one bookable interval in a host's slot list.
type Slot struct {
	SlotID    string     `json:"slotId"`
	StartTime time.Time  `json:"startTime"`
	EndTime   time.Time  `json:"endTime"`
	Status    SlotStatus `json:"status"`
}

// NewAvailableSlot builds a slot keyed by its start instant (the slot id
// convention; uniqueness within the list is all the contract requires).
func NewAvailableSlot(start, end time.Time) Slot {
	return Slot{
		SlotID:    start.UTC().Format(time.RFC3339),
		StartTime: start.UTC(),
		EndTime:   end.UTC(),
		Status:    SlotStatusAvailable,
	}
}

// SlotSeq is the whole slot sequence, stored as a single JSONB document.
type SlotSeq []Slot

func (s SlotSeq) Value() (driver.Value, error) {
	if s == nil {
		s = SlotSeq{}
	}
	return json.Marshal(s)
}

func (s *SlotSeq) Scan(value any) error {
	if value == nil {
		*s = SlotSeq{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, s)
}

// SlotList is the per-user slot document. Version backs the store's
// optimistic-concurrency check; it never leaves the repository layer except
// for conflict detection.
type SlotList struct {
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Slots     SlotSeq   `db:"slots" json:"slots"`
	Version   int64     `db:"version" json:"-"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Find returns the index of the slot with the given id, or -1.
func (l *SlotList) Find(slotID string) int {
	for i := range l.Slots {
		if l.Slots[i].SlotID == slotID {
			return i
		}
	}
	return -1
}

// Clone deep-copies the document so a transaction attempt can mutate freely.
func (l *SlotList) Clone() *SlotList {
	slots := make(SlotSeq, len(l.Slots))
	copy(slots, l.Slots)
	return &SlotList{
		UserID:    l.UserID,
		Slots:     slots,
		Version:   l.Version,
		UpdatedAt: l.UpdatedAt,
	}
}

// Available returns only the slots a guest may still book.
func (l *SlotList) Available() []Slot {
	out := make([]Slot, 0, len(l.Slots))
	for _, s := range l.Slots {
		if s.Status == SlotStatusAvailable {
			out = append(out, s)
		}
	}
	return out
}

// Booked returns the consumed slots; regeneration must carry these forward.
func (l *SlotList) Booked() []Slot {
	out := make([]Slot, 0)
	for _, s := range l.Slots {
		if s.Status == SlotStatusBooked {
			out = append(out, s)
		}
	}
	return out
}
