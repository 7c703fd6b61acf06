package lifecycle

import (
	"strings"

	"github.com/foxseedlab/meetsync/internal/store"
)

// providerStatusTable maps the bot provider's free-text status vocabulary to
// the internal state machine. The provider adds statuses without notice, so
// anything unrecognized maps to pending rather than guessing.
var providerStatusTable = map[string]store.BotStatus{
	"ready":           store.BotStatusScheduled,
	"scheduled":       store.BotStatusScheduled,
	"joining_call":    store.BotStatusScheduled,
	"in_waiting_room": store.BotStatusScheduled,

	"joined":                store.BotStatusJoined,
	"in_call":               store.BotStatusJoined,
	"in_call_not_recording": store.BotStatusJoined,

	"recording":         store.BotStatusTranscribing,
	"in_call_recording": store.BotStatusTranscribing,
	"transcribing":      store.BotStatusTranscribing,
	"call_ended":        store.BotStatusTranscribing,
	"processing":        store.BotStatusTranscribing,

	"done":      store.BotStatusCompleted,
	"completed": store.BotStatusCompleted,

	"fatal":  store.BotStatusFailed,
	"failed": store.BotStatusFailed,
	"error":  store.BotStatusFailed,
}

func mapProviderStatus(raw string) store.BotStatus {
	if status, ok := providerStatusTable[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return status
	}
	return store.BotStatusPending
}

// nextStatus keeps a completed meeting from regressing: once completed, the
// only permitted moves are staying completed or going to failed.
func nextStatus(stored, mapped store.BotStatus) store.BotStatus {
	if stored == store.BotStatusCompleted &&
		mapped != store.BotStatusCompleted && mapped != store.BotStatusFailed {
		return store.BotStatusCompleted
	}
	return mapped
}
