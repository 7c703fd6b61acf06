package pipeline

import (
	"context"
	"time"
)

// TranscriptEvent is handed to the downstream classification pipeline once a
// final transcript lands. Delivery is best-effort and never blocks the
// engine's own state commit.
type TranscriptEvent struct {
	Identity    string    `json:"identity"`
	MeetingID   string    `json:"meeting_id"`
	DocumentRef string    `json:"document_ref"`
	Transcript  string    `json:"transcript"`
	RetrievedAt time.Time `json:"retrieved_at"`
}

type Sender interface {
	SendTranscriptEvent(ctx context.Context, event TranscriptEvent) error
}
