package live

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"budgetme/internal/changefeed"
	"budgetme/internal/family/models"
	"budgetme/internal/family/resolver"
	id "budgetme/pkg/domain"
	"budgetme/pkg/platform/retry"
	"budgetme/pkg/platform/sentinel"
)

// familyTables lists the subscriptions one family context needs.
var familyTables = []changefeed.Table{
	changefeed.TableFamilies,
	changefeed.TableMemberships,
	changefeed.TableGoals,
	changefeed.TableContributions,
	changefeed.TableTransactions,
}

// familyKeys lists the refresh keys that only exist inside a family
// context.
var familyKeys = []string{KeyFamily, KeyMembers, KeySummary, KeyActivity}

// refreshKeysFor routes one table's change notifications to the snapshot
// slices it invalidates.
func refreshKeysFor(table changefeed.Table) []string {
	switch table {
	case changefeed.TableFamilies:
		return []string{KeyFamily}
	case changefeed.TableMemberships:
		return []string{KeyMembers, KeyActivity}
	case changefeed.TableGoals:
		return []string{KeySummary, KeyActivity}
	case changefeed.TableContributions:
		return []string{KeySummary}
	case changefeed.TableTransactions:
		return []string{KeyActivity}
	}
	return nil
}

// inflight is one cancellable background fetch in the per-key registry.
type inflight struct {
	cancel context.CancelFunc
	seq    uint64
	epoch  uint64
}

// loop is the run goroutine's private state. Nothing in it is shared:
// channels in, published Snapshot out.
type loop struct {
	m *Manager

	state    State
	epoch    uint64
	familyID id.FamilyID
	// memberIDs is the sorted active roster, pinned into the transaction
	// subscription's filter and the transaction reads.
	memberIDs []id.UserID

	selfSub changefeed.Subscription
	famSubs map[changefeed.Table]changefeed.Subscription

	inflight map[string]*inflight
	fetchSeq uint64

	settle        *time.Timer
	pendingSwitch bool
	pendingTarget id.FamilyID

	failed  map[string]struct{}
	working Snapshot
}

func (m *Manager) run() {
	defer close(m.done)

	l := &loop{
		m:        m,
		state:    StateIdle,
		famSubs:  make(map[changefeed.Table]changefeed.Subscription),
		inflight: make(map[string]*inflight),
		settle:   time.NewTimer(time.Hour),
		failed:   make(map[string]struct{}),
		working: Snapshot{
			UserID:           m.userID,
			MembershipSource: resolver.SourceNone,
			LastRefresh:      make(map[string]time.Time),
		},
	}
	if !l.settle.Stop() {
		<-l.settle.C
	}
	defer l.shutdown()

	sweep := time.NewTicker(m.cfg.SweepInterval)
	defer sweep.Stop()

	l.openSelfWatch()
	l.startResolve(m.readPolicy(), false)
	l.publish()

	for {
		select {
		case <-m.ctx.Done():
			return
		case n := <-m.notifications:
			l.handleNotification(n)
		case c := <-m.completions:
			l.handleCompletion(c)
		case req := <-m.refreshReqs:
			req.reply <- l.handleManualRefresh(req.key)
		case <-l.settle.C:
			l.onSettle()
		case <-sweep.C:
			l.onSweep()
		}
	}
}

// -----------------------------------------------------------------------------
// Inputs
// -----------------------------------------------------------------------------

func (l *loop) handleNotification(n notification) {
	if n.self {
		// The user's own membership row changed: re-resolve. Inserts and
		// updates chase visibility with the stretched budget; a delete is
		// answered correctly on the first read.
		chase := n.event.Op != changefeed.OpDelete
		pol := l.m.readPolicy()
		if chase {
			pol = l.m.justCreatedPolicy()
		}
		l.trigger(KeyMembership, pol, chase)
		return
	}
	if n.epoch != l.epoch {
		// A subscription from a previous family context delivered late.
		l.m.metrics.RecordStaleDiscard()
		return
	}
	for _, key := range refreshKeysFor(n.event.Table) {
		l.trigger(key, l.m.readPolicy(), false)
	}
}

func (l *loop) handleCompletion(c completion) {
	if c.key == KeyMembership {
		l.applyResolution(c)
		return
	}
	entry, ok := l.inflight[c.key]
	if !ok || entry.seq != c.seq || c.epoch != l.epoch {
		// A newer fetch for this key, or a newer family context, took
		// over while this one was in flight.
		l.m.metrics.RecordStaleDiscard()
		l.m.logger.Debug("discarded superseded fetch result", "key", c.key)
		return
	}
	entry.cancel()
	delete(l.inflight, c.key)
	l.m.metrics.ObserveFetch(c.key, c.took)

	if c.err != nil {
		l.failed[c.key] = struct{}{}
		l.m.logger.Warn("refresh failed, keeping prior data", "key", c.key, "error", c.err)
		l.publish()
		return
	}
	delete(l.failed, c.key)

	switch c.key {
	case KeyFamily:
		l.working.Family = c.family
	case KeyMembers:
		l.working.Members = c.members
		l.rescopeTransactions(c.members)
	case KeySummary:
		l.working.Summary = *c.summary
	case KeyActivity:
		l.working.Feed = c.feed
	}
	l.working.LastRefresh[c.key] = time.Now()
	l.publish()
}

func (l *loop) applyResolution(c completion) {
	entry, ok := l.inflight[KeyMembership]
	if !ok || entry.seq != c.seq {
		l.m.metrics.RecordStaleDiscard()
		return
	}
	entry.cancel()
	delete(l.inflight, KeyMembership)
	l.m.metrics.ObserveFetch(KeyMembership, c.took)

	if c.err != nil {
		// Keep the prior membership picture rather than flapping the UI.
		l.failed[KeyMembership] = struct{}{}
		l.m.logger.Warn("membership resolution failed", "error", c.err)
		l.publish()
		return
	}
	delete(l.failed, KeyMembership)
	l.working.LastRefresh[KeyMembership] = time.Now()

	res := *c.resolution
	if res.Found {
		membership := res.Membership
		l.working.Membership = &membership
		l.working.MembershipSource = res.Source
		l.working.Pending = nil
		l.switchContext(membership.FamilyID)
	} else {
		l.working.Membership = nil
		l.working.MembershipSource = res.Source
		l.working.Pending = res.Pending
		l.switchContext(id.FamilyID{})
	}
	l.publish()
}

func (l *loop) handleManualRefresh(key string) error {
	if !ValidKey(key) {
		return fmt.Errorf("unknown refresh key %q: %w", key, sentinel.ErrMalformed)
	}
	if key == KeyMembership {
		l.startResolve(l.m.readPolicy(), false)
		return nil
	}
	if l.familyID.IsZero() {
		return fmt.Errorf("refresh %q needs a family context: %w", key, sentinel.ErrInvalidState)
	}
	l.m.throttle.Bypass(l.throttleKey(key))
	l.startFetch(key, l.m.readPolicy(), false)
	return nil
}

// -----------------------------------------------------------------------------
// Refresh dispatch
// -----------------------------------------------------------------------------

// trigger runs a refresh for key unless its throttle window is open, in
// which case the trigger is dropped: the refresh that opened the window
// reads state at least as new as this trigger was reporting.
//
// Membership re-resolution is exempt from the window. Self-row changes
// are rare and correctness-critical (a removal absorbed by an open
// window would never be noticed), and the in-flight supersede already
// bounds them to one resolve at a time.
func (l *loop) trigger(key string, pol retry.Policy, chase bool) {
	if key == KeyMembership {
		l.startResolve(pol, chase)
		return
	}
	if !l.m.throttle.Allow(l.throttleKey(key)) {
		l.m.metrics.RecordCoalesced(key)
		return
	}
	l.startFetch(key, pol, chase)
}

// startFetch launches the background read for key, superseding any fetch
// already in flight for it: the older fetch is cancelled and its eventual
// result no longer matches the registry, so it can never apply.
func (l *loop) startFetch(key string, pol retry.Policy, chase bool) {
	if l.familyID.IsZero() {
		return
	}
	l.fetchSeq++
	seq := l.fetchSeq
	fctx, cancel := context.WithTimeout(l.m.ctx, l.m.cfg.FetchTimeout)
	if prev, ok := l.inflight[key]; ok {
		prev.cancel()
	}
	l.inflight[key] = &inflight{cancel: cancel, seq: seq, epoch: l.epoch}
	l.m.metrics.RecordRefresh(key)

	members := append([]id.UserID(nil), l.memberIDs...)
	go l.m.fetch(fctx, key, seq, l.epoch, l.familyID, members, pol)
}

func (l *loop) startResolve(pol retry.Policy, chase bool) {
	l.fetchSeq++
	seq := l.fetchSeq
	fctx, cancel := context.WithTimeout(l.m.ctx, l.m.cfg.FetchTimeout)
	if prev, ok := l.inflight[KeyMembership]; ok {
		prev.cancel()
	}
	l.inflight[KeyMembership] = &inflight{cancel: cancel, seq: seq}
	l.m.metrics.RecordRefresh(KeyMembership)

	go l.m.resolve(fctx, seq, pol, chase)
}

// throttleKey scopes a refresh key's coalescing window to the current
// family, so a fresh context never inherits a half-spent window.
func (l *loop) throttleKey(key string) string {
	return key + "/" + l.familyID.String()
}

// -----------------------------------------------------------------------------
// Context switching
// -----------------------------------------------------------------------------

// switchContext moves the manager to a new family context (zero target
// means none). The old context is torn down immediately; the new one is
// established only after the settle delay, so rapid switches replace the
// pending target instead of opening subscriptions they would immediately
// close.
func (l *loop) switchContext(target id.FamilyID) {
	if l.pendingSwitch {
		if target == l.pendingTarget {
			return
		}
	} else if target == l.familyID {
		return
	}

	l.epoch++
	l.teardown()

	if target.IsZero() {
		l.disarmSettle()
		l.pendingSwitch = false
		l.pendingTarget = id.FamilyID{}
		l.setState(StateIdle)
		return
	}
	l.pendingSwitch = true
	l.pendingTarget = target
	l.armSettle()
	l.setState(StateEstablishing)
}

// teardown cancels family-scoped fetches and closes family subscriptions.
// The self watch stays open. It runs to completion before any new
// context's subscriptions are requested.
func (l *loop) teardown() {
	if len(l.famSubs) == 0 && l.familyID.IsZero() {
		return
	}
	l.setState(StateTearingDown)
	for key, f := range l.inflight {
		if key == KeyMembership {
			continue
		}
		f.cancel()
		delete(l.inflight, key)
	}
	for table, sub := range l.famSubs {
		if err := sub.Close(); err != nil {
			l.m.logger.Warn("subscription close failed", "table", string(table), "error", err)
		}
		delete(l.famSubs, table)
	}
	for _, key := range familyKeys {
		l.m.throttle.Forget(l.throttleKey(key))
		delete(l.failed, key)
	}
	l.familyID = id.FamilyID{}
	l.memberIDs = nil
	l.clearFamilyView()
}

func (l *loop) clearFamilyView() {
	l.working.Family = nil
	l.working.Members = nil
	l.working.Summary = models.SummaryMetrics{}
	l.working.Feed = nil
	for _, key := range familyKeys {
		delete(l.working.LastRefresh, key)
	}
}

func (l *loop) onSettle() {
	if !l.pendingSwitch {
		return
	}
	l.familyID = l.pendingTarget
	l.pendingSwitch = false
	l.pendingTarget = id.FamilyID{}
	l.establish()
	for _, key := range familyKeys {
		l.trigger(key, l.m.readPolicy(), false)
	}
}

func (l *loop) armSettle() {
	l.disarmSettle()
	l.settle.Reset(l.m.cfg.SettleDelay)
}

func (l *loop) disarmSettle() {
	if !l.settle.Stop() {
		select {
		case <-l.settle.C:
		default:
		}
	}
}

// -----------------------------------------------------------------------------
// Subscriptions
// -----------------------------------------------------------------------------

// establish opens the family subscriptions that are not open yet. Partial
// failure keeps the ones that did open; the missing ones are re-attempted
// on the next sweep tick, never in a tight loop.
func (l *loop) establish() {
	if l.familyID.IsZero() {
		return
	}
	for _, table := range familyTables {
		if _, ok := l.famSubs[table]; ok {
			continue
		}
		sub, err := l.m.source.Subscribe(l.m.ctx, l.familyFilter(table), l.eventHandler(l.epoch))
		if err != nil {
			l.m.metrics.RecordEstablishFailure()
			if _, change := l.m.breaker.RecordFailure(); change.Opened {
				l.m.logger.Warn("changefeed subscribe breaker opened, polling until it recovers")
			}
			l.m.logger.Warn("subscription establish failed", "table", string(table), "error", err)
			continue
		}
		if _, change := l.m.breaker.RecordSuccess(); change.Closed {
			l.m.logger.Info("changefeed subscribe breaker closed")
		}
		l.famSubs[table] = sub
	}
	if len(l.famSubs) == len(familyTables) {
		l.setState(StateActive)
	} else {
		l.setState(StateEstablishing)
	}
}

func (l *loop) familyFilter(table changefeed.Table) changefeed.Filter {
	f := changefeed.Filter{Table: table, FamilyID: l.familyID}
	if table == changefeed.TableTransactions {
		f.MemberIDs = append([]id.UserID(nil), l.memberIDs...)
	}
	return f
}

// openSelfWatch subscribes to the user's own membership row. The watch is
// independent of any family context and stays open for the session's
// whole life, so removal or a brand-new membership is noticed even while
// Idle.
func (l *loop) openSelfWatch() {
	if l.selfSub != nil {
		return
	}
	f := changefeed.Filter{Table: changefeed.TableMemberships, UserID: l.m.userID}
	sub, err := l.m.source.Subscribe(l.m.ctx, f, l.selfHandler())
	if err != nil {
		l.m.metrics.RecordEstablishFailure()
		l.m.logger.Warn("self membership watch failed to open", "error", err)
		return
	}
	l.selfSub = sub
}

// eventHandler posts family events to the run loop without ever blocking
// the backend's delivery goroutine. A full buffer drops the event; the
// refresh it wanted is re-triggered by the next one.
func (l *loop) eventHandler(epoch uint64) changefeed.Handler {
	m := l.m
	return func(ev changefeed.Event) {
		select {
		case m.notifications <- notification{event: ev, epoch: epoch}:
		default:
			m.logger.Debug("notification buffer full, dropped event", "table", string(ev.Table))
		}
	}
}

func (l *loop) selfHandler() changefeed.Handler {
	m := l.m
	return func(ev changefeed.Event) {
		select {
		case m.notifications <- notification{event: ev, self: true}:
		default:
			m.logger.Debug("notification buffer full, dropped self event")
		}
	}
}

// rescopeTransactions rebuilds the transaction subscription when the
// active roster changes, since its filter pins the member-id set.
func (l *loop) rescopeTransactions(members []models.Membership) {
	ids := make([]id.UserID, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	if equalIDs(l.memberIDs, ids) {
		return
	}
	l.memberIDs = ids
	if sub, ok := l.famSubs[changefeed.TableTransactions]; ok {
		_ = sub.Close()
		delete(l.famSubs, changefeed.TableTransactions)
	}
	l.establish()
}

func equalIDs(a, b []id.UserID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// -----------------------------------------------------------------------------
// Housekeeping
// -----------------------------------------------------------------------------

func (l *loop) onSweep() {
	l.m.throttle.Sweep(10 * l.m.cfg.ThrottleWindow)
	l.openSelfWatch()
	// Keys whose last refresh failed get another chance each sweep, so a
	// degraded snapshot heals without waiting for the next change event.
	for key := range l.failed {
		l.trigger(key, l.m.readPolicy(), false)
	}
	if l.familyID.IsZero() {
		return
	}
	if len(l.famSubs) < len(familyTables) {
		l.establish()
	}
	if l.m.breaker.IsOpen() {
		// The push channel is down; poll so the view still moves.
		for _, key := range familyKeys {
			l.trigger(key, l.m.readPolicy(), false)
		}
	}
}

func (l *loop) setState(s State) {
	if l.state == s {
		return
	}
	l.m.logger.Debug("subscription state changed", "from", string(l.state), "to", string(s))
	l.state = s
	l.publish()
}

// publish copies the working snapshot out for readers. Slices are shared
// but never mutated after publication; the LastRefresh map is the one
// mutable field and is cloned.
func (l *loop) publish() {
	snap := l.working
	snap.State = l.state
	snap.IsLive = l.state == StateActive
	snap.Degraded = len(l.failed) > 0
	snap.DataUnavailable = l.unavailableReason()
	if len(l.working.LastRefresh) > 0 {
		lr := make(map[string]time.Time, len(l.working.LastRefresh))
		for k, v := range l.working.LastRefresh {
			lr[k] = v
		}
		snap.LastRefresh = lr
	} else {
		snap.LastRefresh = nil
	}

	l.m.mu.Lock()
	l.m.snapshot = snap
	l.m.mu.Unlock()
}

func (l *loop) unavailableReason() string {
	if len(l.failed) == 0 {
		return ""
	}
	keys := make([]string, 0, len(l.failed))
	for key := range l.failed {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ") + " data unavailable"
}

// shutdown releases everything the loop holds. Runs once, after the run
// loop exits.
func (l *loop) shutdown() {
	for _, f := range l.inflight {
		f.cancel()
	}
	l.inflight = make(map[string]*inflight)
	for _, sub := range l.famSubs {
		_ = sub.Close()
	}
	l.famSubs = make(map[changefeed.Table]changefeed.Subscription)
	if l.selfSub != nil {
		_ = l.selfSub.Close()
		l.selfSub = nil
	}
	l.disarmSettle()
	l.state = StateIdle
	l.publish()
}
