package dto

import (
	"time"

	"schedulesync/modules/availability/entity"
)

// SlotResponse mirrors the stored slot shape on the wire.
type SlotResponse struct {
	SlotID    string `json:"slotId"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Status    string `json:"status"`
}

// SlotListResponse is the host's own slot document.
type SlotListResponse struct {
	Slots     []SlotResponse `json:"slots"`
	UpdatedAt string         `json:"updated_at,omitempty"`
}

// PublicHostInfo identifies the host on the public booking page.
type PublicHostInfo struct {
	DisplayName string `json:"display_name"`
	Slug        string `json:"slug"`
}

// PublicSlotsResponse lists only the slots a guest may book.
type PublicSlotsResponse struct {
	Host  PublicHostInfo `json:"host"`
	Slots []SlotResponse `json:"slots"`
}

func ToSlotResponses(slots []entity.Slot) []SlotResponse {
	out := make([]SlotResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, SlotResponse{
			SlotID:    s.SlotID,
			StartTime: s.StartTime.UTC().Format(time.RFC3339),
			EndTime:   s.EndTime.UTC().Format(time.RFC3339),
			Status:    string(s.Status),
		})
	}
	return out
}
