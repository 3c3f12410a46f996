package service

import (
	"fmt"
	"sort"
	"time"

	"schedulesync/modules/availability/entity"
	calendarentity "schedulesync/modules/calendar/entity"
)

// GeneratorConfig drives the candidate grid.
type GeneratorConfig struct {
	WorkingHoursStart string
	WorkingHoursEnd   string
	SlotDuration      time.Duration
	DaysAhead         int
}

// parseClock parses "HH:MM" into hour and minute.
func parseClock(s string) (int, int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid working-hours value %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

// GenerateCandidates builds the available-slot grid for the coming window:
// every SlotDuration interval inside working hours over the next DaysAhead
// days, minus intervals that overlap busy time and intervals already in the
// past. All output is UTC.
func GenerateCandidates(now time.Time, cfg GeneratorConfig, busy []calendarentity.TimeRange) ([]entity.Slot, error) {
	startHour, startMin, err := parseClock(cfg.WorkingHoursStart)
	if err != nil {
		return nil, err
	}
	endHour, endMin, err := parseClock(cfg.WorkingHoursEnd)
	if err != nil {
		return nil, err
	}
	if cfg.SlotDuration <= 0 {
		return nil, fmt.Errorf("slot duration must be positive, got %s", cfg.SlotDuration)
	}

	now = now.UTC()
	var out []entity.Slot

	for day := 0; day < cfg.DaysAhead; day++ {
		date := now.AddDate(0, 0, day)
		dayStart := time.Date(date.Year(), date.Month(), date.Day(), startHour, startMin, 0, 0, time.UTC)
		dayEnd := time.Date(date.Year(), date.Month(), date.Day(), endHour, endMin, 0, 0, time.UTC)

		for start := dayStart; !start.Add(cfg.SlotDuration).After(dayEnd); start = start.Add(cfg.SlotDuration) {
			end := start.Add(cfg.SlotDuration)
			if !start.After(now) {
				continue
			}
			if overlapsAny(start, end, busy) {
				continue
			}
			out = append(out, entity.NewAvailableSlot(start, end))
		}
	}

	return out, nil
}

func overlapsAny(start, end time.Time, busy []calendarentity.TimeRange) bool {
	for _, b := range busy {
		if start.Before(b.End) && b.Start.Before(end) {
			return true
		}
	}
	return false
}

// MergePreservingBooked folds fresh candidates into the existing document.
// Booked slots survive regeneration untouched; candidates colliding with a
// booked interval are dropped so a consumed slot can never reappear as
// available. existing may be nil.
func MergePreservingBooked(existing *entity.SlotList, candidates []entity.Slot) entity.SlotSeq {
	var booked []entity.Slot
	if existing != nil {
		booked = existing.Booked()
	}

	merged := make(entity.SlotSeq, 0, len(booked)+len(candidates))
	merged = append(merged, booked...)

	for _, c := range candidates {
		collides := false
		for _, b := range booked {
			if c.SlotID == b.SlotID || (c.StartTime.Before(b.EndTime) && b.StartTime.Before(c.EndTime)) {
				collides = true
				break
			}
		}
		if !collides {
			merged = append(merged, c)
		}
	}

	sort.Slice(merged, func(i, j int) bool {
		return merged[i].StartTime.Before(merged[j].StartTime)
	})

	return merged
}
