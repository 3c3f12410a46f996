package service

import (
	"testing"
	"time"

	"schedulesync/modules/availability/entity"
	calendarentity "schedulesync/modules/calendar/entity"
)

func genConfig() GeneratorConfig {
	return GeneratorConfig{
		WorkingHoursStart: "09:00",
		WorkingHoursEnd:   "17:00",
		SlotDuration:      30 * time.Minute,
		DaysAhead:         2,
	}
}

func TestGenerateCandidatesGrid(t *testing.T) {
	// Midnight "now" so day 0 contributes a full working day.
	now := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)

	slots, err := GenerateCandidates(now, genConfig(), nil)
	if err != nil {
		t.Fatalf("GenerateCandidates failed: %v", err)
	}

	// 16 half-hour slots per 8-hour day, 2 days.
	if len(slots) != 32 {
		t.Fatalf("slots = %d, want 32", len(slots))
	}

	first := slots[0]
	if !first.StartTime.Equal(time.Date(2026, 9, 2, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("first slot starts %s, want 09:00", first.StartTime)
	}
	last := slots[len(slots)-1]
	if !last.EndTime.Equal(time.Date(2026, 9, 3, 17, 0, 0, 0, time.UTC)) {
		t.Fatalf("last slot ends %s, want 17:00 on day 2", last.EndTime)
	}

	for _, s := range slots {
		if s.Status != entity.SlotStatusAvailable {
			t.Fatalf("slot %s generated as %q", s.SlotID, s.Status)
		}
		if s.SlotID != s.StartTime.UTC().Format(time.RFC3339) {
			t.Fatalf("slot id %q does not match start %s", s.SlotID, s.StartTime)
		}
	}
}

func TestGenerateCandidatesSkipsPast(t *testing.T) {
	now := time.Date(2026, 9, 2, 12, 15, 0, 0, time.UTC)

	slots, err := GenerateCandidates(now, genConfig(), nil)
	if err != nil {
		t.Fatalf("GenerateCandidates failed: %v", err)
	}
	for _, s := range slots {
		if !s.StartTime.After(now) {
			t.Fatalf("slot %s starts at or before now", s.SlotID)
		}
	}
}

func TestGenerateCandidatesExcludesBusy(t *testing.T) {
	now := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	busy := []calendarentity.TimeRange{
		{
			Start: time.Date(2026, 9, 2, 10, 15, 0, 0, time.UTC),
			End:   time.Date(2026, 9, 2, 11, 15, 0, 0, time.UTC),
		},
	}

	slots, err := GenerateCandidates(now, genConfig(), busy)
	if err != nil {
		t.Fatalf("GenerateCandidates failed: %v", err)
	}

	for _, s := range slots {
		if s.StartTime.Before(busy[0].End) && busy[0].Start.Before(s.EndTime) {
			t.Fatalf("slot %s overlaps busy interval", s.SlotID)
		}
	}

	// The 10:00, 10:30 and 11:00 starts all overlap; the rest of day 0
	// survives.
	day0 := 0
	for _, s := range slots {
		if s.StartTime.Day() == 2 {
			day0++
		}
	}
	if day0 != 13 {
		t.Fatalf("day-0 slots = %d, want 13", day0)
	}
}

func TestGenerateCandidatesRejectsBadConfig(t *testing.T) {
	now := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)

	cfg := genConfig()
	cfg.WorkingHoursStart = "9am"
	if _, err := GenerateCandidates(now, cfg, nil); err == nil {
		t.Fatal("expected error for malformed working hours")
	}

	cfg = genConfig()
	cfg.SlotDuration = 0
	if _, err := GenerateCandidates(now, cfg, nil); err == nil {
		t.Fatal("expected error for zero slot duration")
	}
}

func TestMergePreservingBooked(t *testing.T) {
	bookedStart := time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)
	booked := entity.NewAvailableSlot(bookedStart, bookedStart.Add(30*time.Minute))
	booked.Status = entity.SlotStatusBooked

	staleStart := time.Date(2026, 9, 2, 9, 0, 0, 0, time.UTC)
	stale := entity.NewAvailableSlot(staleStart, staleStart.Add(30*time.Minute))

	existing := &entity.SlotList{Slots: entity.SlotSeq{stale, booked}}

	candidates := []entity.Slot{
		// Same id as the booked slot; must be dropped.
		entity.NewAvailableSlot(bookedStart, bookedStart.Add(30*time.Minute)),
		// Overlaps the booked interval without sharing its id; dropped too.
		entity.NewAvailableSlot(bookedStart.Add(15*time.Minute), bookedStart.Add(45*time.Minute)),
		// Clean candidate.
		entity.NewAvailableSlot(bookedStart.Add(time.Hour), bookedStart.Add(90*time.Minute)),
	}

	merged := MergePreservingBooked(existing, candidates)

	if len(merged) != 2 {
		t.Fatalf("merged = %d slots, want 2", len(merged))
	}
	if merged[0].SlotID != booked.SlotID || merged[0].Status != entity.SlotStatusBooked {
		t.Fatalf("booked slot not preserved first: %+v", merged[0])
	}
	if merged[1].Status != entity.SlotStatusAvailable {
		t.Fatalf("candidate slot status = %q", merged[1].Status)
	}

	// Stale available slots do not survive; only booked ones carry over.
	for _, s := range merged {
		if s.SlotID == stale.SlotID {
			t.Fatal("stale available slot survived regeneration")
		}
	}
}

func TestMergePreservingBookedNilExisting(t *testing.T) {
	start := time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)
	candidates := []entity.Slot{entity.NewAvailableSlot(start, start.Add(30*time.Minute))}

	merged := MergePreservingBooked(nil, candidates)
	if len(merged) != 1 {
		t.Fatalf("merged = %d slots, want 1", len(merged))
	}
}
