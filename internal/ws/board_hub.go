package ws

// BoardHub pushes schedule-board changes (claims, releases, session end) to
// subscribed staff clients. It replaces interval polling on the schedule
// page; the HTTP endpoints remain the source of truth and clients re-fetch
// on every event.
type BoardHub struct {
	*Hub
}

func NewBoardHub() *BoardHub {
	return &BoardHub{Hub: NewHub()}
}

type boardEvent struct {
	Type         string `json:"type"`
	OccurrenceID string `json:"occurrence_id"`
	SlotID       string `json:"slot_id,omitempty"`
	SlotIndex    int    `json:"slot_index,omitempty"`
	UserID       uint64 `json:"user_id,omitempty"`
}

func (h *BoardHub) PublishHostClaimed(workspaceID uint64, occurrenceID string, userID uint64) {
	h.BroadcastToWorkspace(workspaceID, boardEvent{Type: "host_claimed", OccurrenceID: occurrenceID, UserID: userID})
}

func (h *BoardHub) PublishHostUnclaimed(workspaceID uint64, occurrenceID string, userID uint64) {
	h.BroadcastToWorkspace(workspaceID, boardEvent{Type: "host_unclaimed", OccurrenceID: occurrenceID, UserID: userID})
}

func (h *BoardHub) PublishSlotClaimed(workspaceID uint64, occurrenceID, slotID string, slotIndex int, userID uint64) {
	h.BroadcastToWorkspace(workspaceID, boardEvent{Type: "slot_claimed", OccurrenceID: occurrenceID, SlotID: slotID, SlotIndex: slotIndex, UserID: userID})
}

func (h *BoardHub) PublishSlotUnclaimed(workspaceID uint64, occurrenceID, slotID string, slotIndex int, userID uint64) {
	h.BroadcastToWorkspace(workspaceID, boardEvent{Type: "slot_unclaimed", OccurrenceID: occurrenceID, SlotID: slotID, SlotIndex: slotIndex, UserID: userID})
}

func (h *BoardHub) PublishEnded(workspaceID uint64, occurrenceID string) {
	h.BroadcastToWorkspace(workspaceID, boardEvent{Type: "session_ended", OccurrenceID: occurrenceID})
}
