package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/foxseedlab/meetsync/internal/lifecycle"
	"github.com/foxseedlab/meetsync/internal/store"
	"github.com/foxseedlab/meetsync/internal/watch"
)

type Summary struct {
	Polled  int `json:"polled"`
	Renewed int `json:"renewed"`
	Failed  int `json:"failed"`
}

type MeetingPoller interface {
	Poll(ctx context.Context, meetingID string) lifecycle.PollOutcome
}

type SubscriptionRenewer interface {
	RenewCalendar(ctx context.Context, identity string) (*watch.Result, error)
	RenewGmail(ctx context.Context, identity string) (*watch.Result, error)
}

type Orchestrator struct {
	store           store.Store
	poller          MeetingPoller
	renewer         SubscriptionRenewer
	maxConcurrent   int
	resourceTimeout time.Duration
	now             func() time.Time
}

func NewOrchestrator(st store.Store, poller MeetingPoller, renewer SubscriptionRenewer, maxConcurrent int, resourceTimeout time.Duration) *Orchestrator {
	return &Orchestrator{
		store:           st,
		poller:          poller,
		renewer:         renewer,
		maxConcurrent:   maxConcurrent,
		resourceTimeout: resourceTimeout,
		now:             time.Now,
	}
}

// Tick runs one scheduling pass. Resources are independent: they are
// dispatched through a bounded worker pool, each call is time-boxed, and one
// resource's failure never aborts the batch. When the tick context expires,
// in-flight work finishes but nothing new is dispatched; a partial tick is
// safe because re-polling is idempotent.
func (o *Orchestrator) Tick(ctx context.Context) Summary {
	started := o.now()
	var (
		mu      sync.Mutex
		summary Summary
		wg      sync.WaitGroup
	)
	sem := make(chan struct{}, o.maxConcurrent)

	dispatch := func(fn func()) bool {
		if ctx.Err() != nil {
			return false
		}
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			fn()
		}()
		return true
	}

	meetings, err := o.store.ListEligibleMeetings(ctx, started)
	if err != nil {
		slog.Error("failed to list eligible meetings", "error", err)
	}
	for _, m := range meetings {
		meetingID := m.ID
		if !dispatch(func() { o.pollMeeting(ctx, meetingID, &mu, &summary) }) {
			slog.Warn("tick deadline reached, skipping remaining meetings")
			break
		}
	}

	subs, err := o.store.ListActiveSubscriptions(ctx)
	if err != nil {
		slog.Error("failed to list active subscriptions", "error", err)
	}
	for _, s := range subs {
		sub := s
		if !dispatch(func() { o.renewSubscription(ctx, sub, &mu, &summary) }) {
			slog.Warn("tick deadline reached, skipping remaining subscriptions")
			break
		}
	}

	wg.Wait()
	slog.Info("tick complete",
		"polled", summary.Polled,
		"renewed", summary.Renewed,
		"failed", summary.Failed,
		"eligible_meetings", len(meetings),
		"active_subscriptions", len(subs),
		"elapsed", o.now().Sub(started))
	return summary
}

// ForcePoll makes one meeting eligible on the very next tick, the operator
// path for an on-demand re-sync.
func (o *Orchestrator) ForcePoll(ctx context.Context, meetingID string) error {
	return o.store.SetNextPollAt(ctx, meetingID, o.now())
}

func (o *Orchestrator) pollMeeting(ctx context.Context, meetingID string, mu *sync.Mutex, summary *Summary) {
	callCtx, cancel := context.WithTimeout(ctx, o.resourceTimeout)
	defer cancel()

	outcome := o.poller.Poll(callCtx, meetingID)

	switch {
	case outcome.Err == nil:
		// The scheduling invariant: next eligibility derives from the
		// stamped poll time, not from when this goroutine finishes.
		next := outcome.PolledAt.Add(pollInterval(outcome.Status))
		if err := o.store.SetNextPollAt(ctx, meetingID, next); err != nil {
			slog.Error("failed to schedule next poll", "error", err, "meeting_id", meetingID)
		}
		mu.Lock()
		summary.Polled++
		mu.Unlock()
	case lifecycle.IsDataIntegrityError(outcome.Err):
		// Pushed out at the default interval: an elapsed next_poll_at would
		// otherwise re-fire this broken resource on every tick.
		next := o.now().Add(defaultPollInterval)
		if err := o.store.SetNextPollAt(ctx, meetingID, next); err != nil {
			slog.Error("failed to reschedule after integrity failure", "error", err, "meeting_id", meetingID)
		}
		mu.Lock()
		summary.Failed++
		mu.Unlock()
	default:
		// Transient: the schedule stays untouched so the next regular tick
		// retries at the existing cadence.
		mu.Lock()
		summary.Failed++
		mu.Unlock()
	}

	o.recordAttempt(ctx, store.InsertAttemptInput{
		ResourceType: "meeting",
		ResourceID:   meetingID,
		Operation:    "poll",
		Outcome:      pollOutcomeLabel(outcome),
		Detail:       errDetail(outcome.Err),
	})
}

func (o *Orchestrator) renewSubscription(ctx context.Context, sub store.WatchSubscription, mu *sync.Mutex, summary *Summary) {
	callCtx, cancel := context.WithTimeout(ctx, o.resourceTimeout)
	defer cancel()

	var (
		res *watch.Result
		err error
	)
	switch sub.Provider {
	case store.ProviderCalendar:
		res, err = o.renewer.RenewCalendar(callCtx, sub.Identity)
	case store.ProviderGmail:
		res, err = o.renewer.RenewGmail(callCtx, sub.Identity)
	default:
		slog.Error("subscription has unknown provider", "provider", sub.Provider, "subscription_id", sub.ID)
		return
	}

	outcome := "noop"
	if err != nil {
		slog.Warn("subscription renewal failed", "error", err, "identity", sub.Identity, "provider", sub.Provider)
		outcome = "failed"
		mu.Lock()
		summary.Failed++
		mu.Unlock()
	} else if res.Renewed {
		outcome = "renewed"
		mu.Lock()
		summary.Renewed++
		mu.Unlock()
	}

	o.recordAttempt(ctx, store.InsertAttemptInput{
		ResourceType: "subscription",
		ResourceID:   sub.ID,
		Operation:    "renew",
		Outcome:      outcome,
		Detail:       errDetail(err),
	})
}

func (o *Orchestrator) recordAttempt(ctx context.Context, input store.InsertAttemptInput) {
	if err := o.store.InsertAttempt(ctx, input); err != nil {
		slog.Warn("failed to record sync attempt", "error", err, "resource_type", input.ResourceType, "resource_id", input.ResourceID)
	}
}

func pollOutcomeLabel(outcome lifecycle.PollOutcome) string {
	switch {
	case outcome.Err != nil:
		return "failed"
	case outcome.TranscriptRetrieved:
		return "transcript_retrieved"
	default:
		return "polled"
	}
}

func errDetail(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
