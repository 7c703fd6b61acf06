package lifecycle

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/foxseedlab/meetsync/internal/botapi"
	"github.com/foxseedlab/meetsync/internal/pipeline"
	"github.com/foxseedlab/meetsync/internal/store"
)

type mockStore struct {
	meeting   *store.Meeting
	bot       *store.Bot
	getBotErr error

	polledAt        []time.Time
	statusUpdates   []store.BotStatus
	liveTranscripts []string
	finalSaves      []store.SaveFinalTranscriptInput
	fetchAttempts   int
}

func (m *mockStore) GetMeeting(_ context.Context, _ string) (*store.Meeting, error) {
	return m.meeting, nil
}

func (m *mockStore) ListEligibleMeetings(_ context.Context, _ time.Time) ([]store.Meeting, error) {
	return nil, nil
}

func (m *mockStore) MarkMeetingPolled(_ context.Context, _ string, polledAt time.Time) error {
	m.polledAt = append(m.polledAt, polledAt)
	return nil
}

func (m *mockStore) UpdateMeetingStatus(_ context.Context, _ string, status store.BotStatus) error {
	m.statusUpdates = append(m.statusUpdates, status)
	return nil
}

func (m *mockStore) SetNextPollAt(_ context.Context, _ string, _ time.Time) error {
	return nil
}

func (m *mockStore) SaveLiveTranscript(_ context.Context, _, text string) error {
	m.liveTranscripts = append(m.liveTranscripts, text)
	return nil
}

func (m *mockStore) SaveFinalTranscript(_ context.Context, input store.SaveFinalTranscriptInput) error {
	m.finalSaves = append(m.finalSaves, input)
	return nil
}

func (m *mockStore) IncrementTranscriptFetchAttempts(_ context.Context, _ string) (int, error) {
	m.fetchAttempts++
	return m.fetchAttempts, nil
}

func (m *mockStore) GetBot(_ context.Context, _ string) (*store.Bot, error) {
	if m.getBotErr != nil {
		return nil, m.getBotErr
	}
	return m.bot, nil
}

type mockBotClient struct {
	status         string
	liveTranscript string
	statusErr      error
	transcript     string
	transcriptErr  error

	statusCalls     int
	transcriptCalls int
}

func (c *mockBotClient) GetStatus(_ context.Context, _ string) (*botapi.StatusResponse, error) {
	c.statusCalls++
	if c.statusErr != nil {
		return nil, c.statusErr
	}
	return &botapi.StatusResponse{Status: c.status, LiveTranscript: c.liveTranscript}, nil
}

func (c *mockBotClient) GetTranscript(_ context.Context, _ string) (*botapi.TranscriptResponse, error) {
	c.transcriptCalls++
	if c.transcriptErr != nil {
		return nil, c.transcriptErr
	}
	return &botapi.TranscriptResponse{Text: c.transcript}, nil
}

type mockPipeline struct {
	events []pipeline.TranscriptEvent
}

func (p *mockPipeline) SendTranscriptEvent(_ context.Context, event pipeline.TranscriptEvent) error {
	p.events = append(p.events, event)
	return nil
}

type mockNotifier struct {
	subjects []string
}

func (n *mockNotifier) Notify(_ context.Context, subject, _ string) error {
	n.subjects = append(n.subjects, subject)
	return nil
}

func botID(id string) *string { return &id }

func testMeeting(status store.BotStatus) *store.Meeting {
	return &store.Meeting{
		ID:             "meeting-1",
		Identity:       "alice@example.com",
		AttendeeBotID:  botID("bot-1"),
		BotStatus:      status,
		PollingEnabled: true,
	}
}

func newTestPoller(st *mockStore, client *mockBotClient) (*Poller, *mockPipeline, *mockNotifier) {
	sender := &mockPipeline{}
	notifier := &mockNotifier{}
	p := NewPoller(st, st, client, sender, notifier)
	return p, sender, notifier
}

func TestPoll_RecordingMovesToTranscribing(t *testing.T) {
	st := &mockStore{
		meeting: testMeeting(store.BotStatusJoined),
		bot:     &store.Bot{ID: "bot-1", ProviderBotID: "prov-1"},
	}
	client := &mockBotClient{status: "recording"}
	p, _, _ := newTestPoller(st, client)

	outcome := p.Poll(context.Background(), "meeting-1")

	if outcome.Err != nil {
		t.Fatalf("expected no error, got %v", outcome.Err)
	}
	if outcome.Status != store.BotStatusTranscribing {
		t.Fatalf("expected transcribing, got %q", outcome.Status)
	}
	if len(st.statusUpdates) != 1 || st.statusUpdates[0] != store.BotStatusTranscribing {
		t.Fatalf("expected one status update to transcribing, got %v", st.statusUpdates)
	}
	if outcome.PolledAt.IsZero() {
		t.Fatal("expected poll timestamp to be set")
	}
}

func TestPoll_TranscriptFetchFailureKeepsCompletedStatus(t *testing.T) {
	st := &mockStore{
		meeting: testMeeting(store.BotStatusTranscribing),
		bot:     &store.Bot{ID: "bot-1", ProviderBotID: "prov-1"},
	}
	client := &mockBotClient{status: "completed", transcriptErr: errors.New("status 500")}
	p, sender, _ := newTestPoller(st, client)

	outcome := p.Poll(context.Background(), "meeting-1")

	if outcome.Err != nil {
		t.Fatalf("expected no error (status commit succeeded), got %v", outcome.Err)
	}
	if outcome.Status != store.BotStatusCompleted {
		t.Fatalf("expected completed, got %q", outcome.Status)
	}
	if outcome.TranscriptRetrieved {
		t.Fatal("expected transcriptRetrieved=false after fetch failure")
	}
	if len(st.statusUpdates) != 1 || st.statusUpdates[0] != store.BotStatusCompleted {
		t.Fatalf("expected committed completed status, got %v", st.statusUpdates)
	}
	if len(st.finalSaves) != 0 {
		t.Fatal("expected no final transcript save")
	}
	if st.fetchAttempts != 1 {
		t.Fatalf("expected one counted fetch attempt, got %d", st.fetchAttempts)
	}
	if len(sender.events) != 0 {
		t.Fatal("expected no pipeline event on fetch failure")
	}
}

func TestPoll_CompletedWithFinalTranscriptIsIdempotent(t *testing.T) {
	m := testMeeting(store.BotStatusCompleted)
	m.FinalTranscriptReady = true
	st := &mockStore{meeting: m, bot: &store.Bot{ID: "bot-1", ProviderBotID: "prov-1"}}
	client := &mockBotClient{status: "completed", transcript: "should never be fetched"}
	p, _, _ := newTestPoller(st, client)

	outcome := p.Poll(context.Background(), "meeting-1")

	if outcome.Err != nil {
		t.Fatalf("expected no error, got %v", outcome.Err)
	}
	if client.transcriptCalls != 0 {
		t.Fatalf("expected zero transcript fetches, got %d", client.transcriptCalls)
	}
	if len(st.finalSaves) != 0 {
		t.Fatal("expected transcript fields to stay unchanged")
	}
	if len(st.statusUpdates) != 0 {
		t.Fatalf("expected no status update, got %v", st.statusUpdates)
	}
}

func TestPoll_CompletedNeverRegresses(t *testing.T) {
	m := testMeeting(store.BotStatusCompleted)
	m.FinalTranscriptReady = true
	st := &mockStore{meeting: m, bot: &store.Bot{ID: "bot-1", ProviderBotID: "prov-1"}}
	client := &mockBotClient{status: "recording"}
	p, _, _ := newTestPoller(st, client)

	outcome := p.Poll(context.Background(), "meeting-1")

	if outcome.Status != store.BotStatusCompleted {
		t.Fatalf("expected completed to stick, got %q", outcome.Status)
	}
	if len(st.statusUpdates) != 0 {
		t.Fatalf("expected no status update, got %v", st.statusUpdates)
	}
}

func TestPoll_NoBotAssociated(t *testing.T) {
	m := testMeeting(store.BotStatusScheduled)
	m.AttendeeBotID = nil
	st := &mockStore{meeting: m}
	client := &mockBotClient{}
	p, _, notifier := newTestPoller(st, client)

	outcome := p.Poll(context.Background(), "meeting-1")

	if !errors.Is(outcome.Err, ErrNoBotAssociated) {
		t.Fatalf("expected ErrNoBotAssociated, got %v", outcome.Err)
	}
	if !IsDataIntegrityError(outcome.Err) {
		t.Fatal("expected a data-integrity error")
	}
	if len(st.polledAt) != 0 {
		t.Fatal("expected no liveness stamp before bot resolution")
	}
	if client.statusCalls != 0 {
		t.Fatal("expected no provider call")
	}
	if len(notifier.subjects) != 1 {
		t.Fatalf("expected one operator alert, got %d", len(notifier.subjects))
	}
}

func TestPoll_BotRecordMissing(t *testing.T) {
	st := &mockStore{meeting: testMeeting(store.BotStatusScheduled)}
	p, _, notifier := newTestPoller(st, &mockBotClient{})

	outcome := p.Poll(context.Background(), "meeting-1")

	if !errors.Is(outcome.Err, ErrBotRecordMissing) {
		t.Fatalf("expected ErrBotRecordMissing, got %v", outcome.Err)
	}
	if len(notifier.subjects) != 1 {
		t.Fatal("expected an operator alert")
	}
}

func TestPoll_ProviderIDMissing(t *testing.T) {
	st := &mockStore{
		meeting: testMeeting(store.BotStatusScheduled),
		bot:     &store.Bot{ID: "bot-1"},
	}
	p, _, _ := newTestPoller(st, &mockBotClient{})

	outcome := p.Poll(context.Background(), "meeting-1")

	if !errors.Is(outcome.Err, ErrProviderIDMissing) {
		t.Fatalf("expected ErrProviderIDMissing, got %v", outcome.Err)
	}
}

func TestPoll_MeetingNotFound(t *testing.T) {
	st := &mockStore{}
	p, _, _ := newTestPoller(st, &mockBotClient{})

	outcome := p.Poll(context.Background(), "missing")

	if !errors.Is(outcome.Err, ErrMeetingNotFound) {
		t.Fatalf("expected ErrMeetingNotFound, got %v", outcome.Err)
	}
}

func TestPoll_ProviderUnavailableStillStampsLiveness(t *testing.T) {
	st := &mockStore{
		meeting: testMeeting(store.BotStatusJoined),
		bot:     &store.Bot{ID: "bot-1", ProviderBotID: "prov-1"},
	}
	client := &mockBotClient{statusErr: botapi.ErrProviderUnavailable}
	p, _, _ := newTestPoller(st, client)

	outcome := p.Poll(context.Background(), "meeting-1")

	if !errors.Is(outcome.Err, botapi.ErrProviderUnavailable) {
		t.Fatalf("expected provider unavailable, got %v", outcome.Err)
	}
	if len(st.polledAt) != 1 {
		t.Fatal("expected liveness stamp despite provider failure")
	}
	if len(st.statusUpdates) != 0 {
		t.Fatal("expected no status change on provider failure")
	}
}

func TestPoll_LiveTranscriptSnapshot(t *testing.T) {
	st := &mockStore{
		meeting: testMeeting(store.BotStatusTranscribing),
		bot:     &store.Bot{ID: "bot-1", ProviderBotID: "prov-1"},
	}
	client := &mockBotClient{status: "recording", liveTranscript: "partial text so far"}
	p, _, _ := newTestPoller(st, client)

	p.Poll(context.Background(), "meeting-1")

	if len(st.liveTranscripts) != 1 || st.liveTranscripts[0] != "partial text so far" {
		t.Fatalf("expected live transcript snapshot, got %v", st.liveTranscripts)
	}
}

func TestPoll_TranscriptRetrievalPersistsEverything(t *testing.T) {
	st := &mockStore{
		meeting: testMeeting(store.BotStatusTranscribing),
		bot:     &store.Bot{ID: "bot-1", ProviderBotID: "prov-1"},
	}
	text := strings.Repeat("word ", 100) // 500 chars, 100 words
	client := &mockBotClient{status: "done", transcript: text}
	p, sender, _ := newTestPoller(st, client)

	outcome := p.Poll(context.Background(), "meeting-1")

	if !outcome.TranscriptRetrieved {
		t.Fatal("expected transcriptRetrieved=true")
	}
	if len(st.finalSaves) != 1 {
		t.Fatalf("expected one final transcript save, got %d", len(st.finalSaves))
	}
	saved := st.finalSaves[0]
	if saved.Transcript != text {
		t.Fatal("expected full transcript persisted")
	}
	if saved.Metadata.WordCount != 100 {
		t.Errorf("expected 100 words, got %d", saved.Metadata.WordCount)
	}
	if saved.Metadata.CharCount != 500 {
		t.Errorf("expected 500 chars, got %d", saved.Metadata.CharCount)
	}
	if len([]rune(saved.Summary)) != transcriptSummaryLimit+3 || !strings.HasSuffix(saved.Summary, "...") {
		t.Errorf("expected truncated summary with ellipsis, got %d chars", len([]rune(saved.Summary)))
	}
	if len(sender.events) != 1 {
		t.Fatalf("expected one pipeline event, got %d", len(sender.events))
	}
	if sender.events[0].Identity != "alice@example.com" || sender.events[0].MeetingID != "meeting-1" {
		t.Errorf("unexpected pipeline event: %+v", sender.events[0])
	}
}

func TestPoll_TranscriptRetryThresholdAlertsOnce(t *testing.T) {
	st := &mockStore{
		meeting:       testMeeting(store.BotStatusCompleted),
		bot:           &store.Bot{ID: "bot-1", ProviderBotID: "prov-1"},
		fetchAttempts: transcriptFetchAlertThreshold - 1,
	}
	client := &mockBotClient{status: "completed", transcriptErr: errors.New("status 500")}
	p, _, notifier := newTestPoller(st, client)

	p.Poll(context.Background(), "meeting-1")
	if len(notifier.subjects) != 1 {
		t.Fatalf("expected alert at threshold crossing, got %d", len(notifier.subjects))
	}

	p.Poll(context.Background(), "meeting-1")
	if len(notifier.subjects) != 1 {
		t.Fatalf("expected no repeat alert past threshold, got %d", len(notifier.subjects))
	}
}

func TestSummarize(t *testing.T) {
	short := "a short transcript"
	if got := summarize(short); got != short {
		t.Errorf("expected short text unchanged, got %q", got)
	}
	long := strings.Repeat("x", transcriptSummaryLimit+1)
	got := summarize(long)
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected ellipsis suffix, got %q", got)
	}
	if len([]rune(got)) != transcriptSummaryLimit+3 {
		t.Errorf("expected %d runes, got %d", transcriptSummaryLimit+3, len([]rune(got)))
	}
}
