package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/foxseedlab/meetsync/internal/alerts"
	"github.com/foxseedlab/meetsync/internal/botapi"
	"github.com/foxseedlab/meetsync/internal/pipeline"
	"github.com/foxseedlab/meetsync/internal/store"
)

const (
	transcriptSummaryLimit = 200

	// transcriptFetchAlertThreshold is roughly one hour of failed retries at
	// the completed-status poll interval. The meeting stays eligible past
	// it; an operator alert fires once when the threshold is crossed.
	transcriptFetchAlertThreshold = 12
)

// Data-integrity failures. These point at the deployment flow, not the
// provider, so they are alerted and never retried on a tightened schedule.
var (
	ErrMeetingNotFound   = errors.New("lifecycle: meeting not found")
	ErrNoBotAssociated   = errors.New("lifecycle: meeting has no attendee bot")
	ErrBotRecordMissing  = errors.New("lifecycle: bot record missing")
	ErrProviderIDMissing = errors.New("lifecycle: bot has no provider bot id")
)

func IsDataIntegrityError(err error) bool {
	return errors.Is(err, ErrMeetingNotFound) ||
		errors.Is(err, ErrNoBotAssociated) ||
		errors.Is(err, ErrBotRecordMissing) ||
		errors.Is(err, ErrProviderIDMissing)
}

type PollOutcome struct {
	MeetingID           string
	Status              store.BotStatus
	TranscriptRetrieved bool
	PolledAt            time.Time
	Err                 error
}

type Poller struct {
	meetings store.MeetingStore
	bots     store.BotStore
	client   botapi.Client
	pipeline pipeline.Sender
	alerts   alerts.Notifier
	now      func() time.Time
}

func NewPoller(meetings store.MeetingStore, bots store.BotStore, client botapi.Client, sender pipeline.Sender, notifier alerts.Notifier) *Poller {
	return &Poller{
		meetings: meetings,
		bots:     bots,
		client:   client,
		pipeline: sender,
		alerts:   notifier,
		now:      time.Now,
	}
}

func (p *Poller) Poll(ctx context.Context, meetingID string) PollOutcome {
	outcome := PollOutcome{MeetingID: meetingID}

	m, err := p.meetings.GetMeeting(ctx, meetingID)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	if m == nil {
		outcome.Err = ErrMeetingNotFound
		p.notifyIntegrity(ctx, meetingID, outcome.Err)
		return outcome
	}
	outcome.Status = m.BotStatus

	if m.AttendeeBotID == nil || *m.AttendeeBotID == "" {
		outcome.Err = ErrNoBotAssociated
		p.notifyIntegrity(ctx, meetingID, outcome.Err)
		return outcome
	}
	bot, err := p.bots.GetBot(ctx, *m.AttendeeBotID)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	if bot == nil {
		outcome.Err = fmt.Errorf("%w: %s", ErrBotRecordMissing, *m.AttendeeBotID)
		p.notifyIntegrity(ctx, meetingID, outcome.Err)
		return outcome
	}
	if bot.ProviderBotID == "" {
		outcome.Err = fmt.Errorf("%w: bot %s", ErrProviderIDMissing, bot.ID)
		p.notifyIntegrity(ctx, meetingID, outcome.Err)
		return outcome
	}

	// Stamped before the provider call so the row proves liveness even when
	// everything after this point fails.
	polledAt := p.now()
	if err := p.meetings.MarkMeetingPolled(ctx, m.ID, polledAt); err != nil {
		outcome.Err = err
		return outcome
	}
	outcome.PolledAt = polledAt

	status, err := p.client.GetStatus(ctx, bot.ProviderBotID)
	if err != nil {
		slog.Warn("bot status fetch failed", "error", err, "meeting_id", m.ID, "provider_bot_id", bot.ProviderBotID)
		outcome.Err = err
		return outcome
	}

	mapped := mapProviderStatus(status.Status)
	newStatus := nextStatus(m.BotStatus, mapped)
	if newStatus != m.BotStatus {
		if err := p.meetings.UpdateMeetingStatus(ctx, m.ID, newStatus); err != nil {
			outcome.Err = err
			return outcome
		}
		slog.Info("bot status changed", "meeting_id", m.ID, "from", m.BotStatus, "to", newStatus, "provider_status", status.Status)
	}
	outcome.Status = newStatus

	if newStatus == store.BotStatusTranscribing && status.LiveTranscript != "" {
		if err := p.meetings.SaveLiveTranscript(ctx, m.ID, status.LiveTranscript); err != nil {
			slog.Warn("failed to save live transcript snapshot", "error", err, "meeting_id", m.ID)
		}
	}

	if newStatus == store.BotStatusCompleted && !m.FinalTranscriptReady {
		outcome.TranscriptRetrieved = p.retrieveTranscript(ctx, m, bot, polledAt)
	}
	return outcome
}

// retrieveTranscript runs at most once per meeting: SaveFinalTranscript sets
// final_transcript_ready, and the guard above never lets us back in. A fetch
// failure leaves the committed completed status alone; the meeting stays
// eligible and the next scheduled poll retries.
func (p *Poller) retrieveTranscript(ctx context.Context, m *store.Meeting, bot *store.Bot, polledAt time.Time) bool {
	transcript, err := p.client.GetTranscript(ctx, bot.ProviderBotID)
	if err != nil {
		attempts, ierr := p.meetings.IncrementTranscriptFetchAttempts(ctx, m.ID)
		if ierr != nil {
			slog.Warn("failed to count transcript fetch attempt", "error", ierr, "meeting_id", m.ID)
		}
		slog.Warn("transcript fetch failed", "error", err, "meeting_id", m.ID, "attempts", attempts)
		if attempts == transcriptFetchAlertThreshold {
			detail := fmt.Sprintf("meeting %s: transcript fetch has failed %d times since completion, last error: %v", m.ID, attempts, err)
			if nerr := p.alerts.Notify(ctx, "transcript retrieval stuck", detail); nerr != nil {
				slog.Error("failed to send transcript-stuck alert", "error", nerr, "meeting_id", m.ID)
			}
		}
		return false
	}

	summary := summarize(transcript.Text)
	metadata := store.TranscriptMetadata{
		WordCount:   len(strings.Fields(transcript.Text)),
		CharCount:   utf8.RuneCountInString(transcript.Text),
		RetrievedAt: polledAt,
	}
	if err := p.meetings.SaveFinalTranscript(ctx, store.SaveFinalTranscriptInput{
		MeetingID:   m.ID,
		Transcript:  transcript.Text,
		Summary:     summary,
		Metadata:    metadata,
		RetrievedAt: polledAt,
	}); err != nil {
		slog.Error("failed to save final transcript", "error", err, "meeting_id", m.ID)
		return false
	}
	slog.Info("final transcript retrieved", "meeting_id", m.ID, "words", metadata.WordCount, "chars", metadata.CharCount)

	if err := p.pipeline.SendTranscriptEvent(ctx, pipeline.TranscriptEvent{
		Identity:    m.Identity,
		MeetingID:   m.ID,
		DocumentRef: "meetings/" + m.ID,
		Transcript:  transcript.Text,
		RetrievedAt: polledAt,
	}); err != nil {
		slog.Error("failed to emit transcript event", "error", err, "meeting_id", m.ID)
	}
	return true
}

func (p *Poller) notifyIntegrity(ctx context.Context, meetingID string, cause error) {
	slog.Error("meeting poll hit data-integrity failure", "error", cause, "meeting_id", meetingID)
	detail := fmt.Sprintf("meeting %s cannot be polled: %v", meetingID, cause)
	if err := p.alerts.Notify(ctx, "meeting poll data-integrity failure", detail); err != nil {
		slog.Error("failed to send data-integrity alert", "error", err, "meeting_id", meetingID)
	}
}

func summarize(text string) string {
	runes := []rune(text)
	if len(runes) <= transcriptSummaryLimit {
		return text
	}
	return string(runes[:transcriptSummaryLimit]) + "..."
}
