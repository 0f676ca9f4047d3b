package poller

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"regenq/internal/logging"
	"regenq/internal/metrics"
	"regenq/internal/queue"
)

var (
	// ErrDetached is returned by calls made after Detach.
	ErrDetached = errors.New("poller detached")
	// ErrNotAttached is returned by Kick before a successful Attach call.
	ErrNotAttached = errors.New("poller not attached")
	// ErrAlreadyAttached is returned by a second Attach.
	ErrAlreadyAttached = errors.New("poller already attached")
)

// Poller tracks the latest queue item of one slug.
type Poller struct {
	reader queue.LatestReader
	token  string
	slug   string

	interval    time.Duration
	maxDuration time.Duration
	newTicker   TickerFactory
	now         func() time.Time
	logger      *slog.Logger
	metrics     *metrics.Metrics
	observer    func(Snapshot)

	mu        sync.Mutex
	parent    context.Context
	attached  bool
	detached  bool
	stopWatch func() bool
	snap      Snapshot
	round     *round
	done      chan struct{}
	wg        sync.WaitGroup
}

// round is one continuous polling schedule. Results read under a round that
// is no longer current are dropped.
type round struct {
	cancel context.CancelFunc
}

// New builds a poller for slug. Nothing is read until Attach.
func New(reader queue.LatestReader, token, slug string, opts ...Option) *Poller {
	p := &Poller{
		reader:    reader,
		token:     token,
		slug:      strings.TrimSpace(slug),
		interval:  DefaultInterval,
		newTicker: newRealTicker,
		now:       time.Now,
		logger:    logging.NewComponentLogger(nil, "poller"),
		done:      closedChan(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(logging.String(logging.FieldSlug, p.slug))
	p.snap = Snapshot{Slug: p.slug, State: StateIdle}
	return p
}

// Slug returns the watched slug.
func (p *Poller) Slug() string { return p.slug }

// Attach performs the initial read. A latest item that is still new or
// pending starts a round; otherwise the poller stays idle with the item (if
// any) exposed in its snapshot. A failed read leaves the poller idle and
// returns an upstream error. Cancelling ctx detaches the poller.
func (p *Poller) Attach(ctx context.Context) error {
	if p.slug == "" {
		return queue.Validation("poller attach", "slug is required")
	}
	if p.token == "" {
		return queue.AuthRequired("poller attach")
	}

	p.mu.Lock()
	switch {
	case p.detached:
		p.mu.Unlock()
		return ErrDetached
	case p.attached:
		p.mu.Unlock()
		return ErrAlreadyAttached
	}
	p.attached = true
	p.mu.Unlock()

	item, err := p.reader.LatestBySlug(ctx, p.token, p.slug)
	if err != nil {
		p.mu.Lock()
		p.attached = false
		p.mu.Unlock()
		err = queue.Upstream("poller attach", err)
		p.metrics.PollRead(queue.KindOf(err))
		logging.WarnWithContext(p.logger, "initial queue read failed", "poller_attach_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the store endpoint and credential"),
			logging.String(logging.FieldImpact, "progress is not tracked until the next request"),
		)
		return err
	}
	p.metrics.PollRead(metrics.ResultOK)

	p.mu.Lock()
	if p.detached {
		p.mu.Unlock()
		return ErrDetached
	}
	p.parent = context.WithoutCancel(ctx)
	p.stopWatch = context.AfterFunc(ctx, p.Detach)
	p.snap.Item = cloneItem(item)
	p.snap.UpdatedAt = p.now()
	if item != nil && item.Status.InFlight() {
		p.startRoundLocked()
	}
	snap := p.snap.clone()
	p.mu.Unlock()

	p.logger.Debug("poller attached", logging.String(logging.FieldState, string(snap.State)))
	p.publish(snap)
	return nil
}

// Kick starts a new round after a regeneration request. It is a no-op while
// a round is already running.
func (p *Poller) Kick() error {
	p.mu.Lock()
	switch {
	case p.detached:
		p.mu.Unlock()
		return ErrDetached
	case !p.attached || p.parent == nil:
		p.mu.Unlock()
		return ErrNotAttached
	case p.snap.State == StatePolling:
		p.mu.Unlock()
		return nil
	}
	p.startRoundLocked()
	snap := p.snap.clone()
	p.mu.Unlock()

	p.logger.Debug("poll round started")
	p.publish(snap)
	return nil
}

// Detach cancels the schedule. The state becomes cancelled unless the last
// round already ended; a read that is in flight completes and its result is
// dropped. Detach is idempotent.
func (p *Poller) Detach() {
	p.mu.Lock()
	if p.detached {
		p.mu.Unlock()
		return
	}
	p.detached = true
	if p.stopWatch != nil {
		p.stopWatch()
	}
	wasPolling := p.round != nil
	p.endRoundLocked()
	if !p.snap.State.Terminal() {
		p.snap.State = StateCancelled
		p.snap.UpdatedAt = p.now()
		closeChan(p.done)
	}
	snap := p.snap.clone()
	p.mu.Unlock()

	if wasPolling {
		p.metrics.PollOutcome(string(StateCancelled))
		p.metrics.PollerActive(-1)
	}
	p.logger.Debug("poller detached", logging.String(logging.FieldState, string(snap.State)))
	p.publish(snap)
}

// Snapshot returns a copy of the current view.
func (p *Poller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap.clone()
}

func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap.State
}

// Done is closed when the current round ends. Outside a round it returns a
// closed channel.
func (p *Poller) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Wait blocks until the current round ends or ctx is done.
func (p *Poller) Wait(ctx context.Context) (Snapshot, error) {
	select {
	case <-p.Done():
		return p.Snapshot(), nil
	case <-ctx.Done():
		return p.Snapshot(), ctx.Err()
	}
}

func (p *Poller) startRoundLocked() {
	ctx, cancel := context.WithCancel(p.parent)
	r := &round{cancel: cancel}
	p.round = r
	p.done = make(chan struct{})
	start := p.now()
	p.snap.State = StatePolling
	p.snap.Polls = 0
	p.snap.StartedAt = start
	p.snap.UpdatedAt = start
	p.metrics.PollerActive(1)

	ticker := p.newTicker(p.interval)
	p.wg.Add(1)
	go p.run(ctx, r, ticker)
}

func (p *Poller) endRoundLocked() {
	if p.round == nil {
		return
	}
	p.round.cancel()
	p.round = nil
}

func (p *Poller) run(ctx context.Context, r *round, ticker Ticker) {
	defer p.wg.Done()
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			if p.tick(ctx, r) {
				return
			}
		}
	}
}

// tick performs one read and reports whether the round is over.
func (p *Poller) tick(ctx context.Context, r *round) bool {
	// A tick can win the select against a cancelled round.
	p.mu.Lock()
	stale := p.round != r || ctx.Err() != nil
	p.mu.Unlock()
	if stale {
		return true
	}
	if p.timedOut(r) {
		return true
	}

	item, err := p.reader.LatestBySlug(ctx, p.token, p.slug)

	p.mu.Lock()
	if p.round != r {
		p.mu.Unlock()
		return true
	}
	p.snap.Polls++
	if err != nil {
		p.mu.Unlock()
		p.metrics.PollRead(queue.KindOf(queue.Upstream("poll", err)))
		p.logger.Debug("poll read failed; retrying on next tick", logging.Error(err))
		return false
	}
	p.metrics.PollRead(metrics.ResultOK)
	p.snap.UpdatedAt = p.now()
	if item != nil {
		p.snap.Item = cloneItem(item)
	}
	finished := false
	var outcome State
	if item != nil {
		outcome, finished = stateForItem(item.Status)
	}
	if finished {
		p.finishLocked(outcome)
	}
	snap := p.snap.clone()
	p.mu.Unlock()

	if finished {
		p.logOutcome(snap)
	}
	p.publish(snap)
	return finished
}

func (p *Poller) timedOut(r *round) bool {
	if p.maxDuration <= 0 {
		return false
	}
	p.mu.Lock()
	if p.round != r || p.now().Sub(p.snap.StartedAt) < p.maxDuration {
		p.mu.Unlock()
		return false
	}
	p.finishLocked(StateTimeout)
	snap := p.snap.clone()
	p.mu.Unlock()

	p.logOutcome(snap)
	p.publish(snap)
	return true
}

func (p *Poller) finishLocked(state State) {
	p.endRoundLocked()
	p.snap.State = state
	p.snap.UpdatedAt = p.now()
	closeChan(p.done)
	p.metrics.PollOutcome(string(state))
	p.metrics.PollerActive(-1)
}

func (p *Poller) logOutcome(snap Snapshot) {
	attrs := []logging.Attr{
		logging.String(logging.FieldState, string(snap.State)),
		logging.Int("polls", snap.Polls),
		logging.Duration("elapsed", snap.UpdatedAt.Sub(snap.StartedAt)),
	}
	if snap.Item != nil {
		attrs = append(attrs, logging.String(logging.FieldItemID, snap.Item.ID))
	}
	switch snap.State {
	case StateTimeout:
		logging.WarnWithContext(p.logger, "poll round timed out", "poller_timeout", append(attrs,
			logging.String(logging.FieldErrorHint, "the worker may be stalled; check its logs"),
			logging.String(logging.FieldImpact, "progress is no longer tracked for this request"),
		)...)
	default:
		p.logger.Info("poll round finished", logging.Args(attrs...)...)
	}
}

func (p *Poller) publish(snap Snapshot) {
	if p.observer != nil {
		p.observer(snap)
	}
}

func cloneItem(item *queue.Item) *queue.Item {
	if item == nil {
		return nil
	}
	copied := *item
	return &copied
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

func closeChan(ch chan struct{}) {
	select {
	case <-ch:
	default:
		close(ch)
	}
}
