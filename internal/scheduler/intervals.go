package scheduler

import (
	"time"

	"github.com/foxseedlab/meetsync/internal/store"
)

// pollIntervals is a status-indexed table, not a backoff curve: intervals
// tighten while the meeting is live and relax once transcript retrieval is
// the only remaining work.
var pollIntervals = map[store.BotStatus]time.Duration{
	store.BotStatusScheduled:    2 * time.Minute,
	store.BotStatusJoined:       1 * time.Minute,
	store.BotStatusTranscribing: 30 * time.Second,
	store.BotStatusCompleted:    5 * time.Minute,
}

const defaultPollInterval = 5 * time.Minute

func pollInterval(status store.BotStatus) time.Duration {
	if interval, ok := pollIntervals[status]; ok {
		return interval
	}
	return defaultPollInterval
}
