package dbus

import (
	"container/list"
	"context"
	"fmt"
	"strings"

	"github.com/busline/dbus/wire"
)

// Signal is a single decoded signal message delivered to a subscription.
type Signal struct {
	Sender    string
	Path      wire.ObjectPath
	Interface string
	Member    string
	Body      []interface{}
}

// MatchRule filters which signals a subscription receives. A zero field
// means "don't filter on this". PathNamespace matches Path and any of
// its descendants and is mutually exclusive with Path in practice,
// though nothing here enforces that.
type MatchRule struct {
	Sender        string
	Interface     string
	Member        string
	Path          wire.ObjectPath
	PathNamespace wire.ObjectPath
}

// String renders the match rule in the bus daemon's AddMatch syntax.
func (r MatchRule) String() string {
	var b strings.Builder
	b.WriteString("type='signal'")
	if r.Sender != "" {
		fmt.Fprintf(&b, ",sender='%s'", r.Sender)
	}
	if r.Interface != "" {
		fmt.Fprintf(&b, ",interface='%s'", r.Interface)
	}
	if r.Member != "" {
		fmt.Fprintf(&b, ",member='%s'", r.Member)
	}
	if r.Path != "" {
		fmt.Fprintf(&b, ",path='%s'", r.Path)
	}
	if r.PathNamespace != "" {
		fmt.Fprintf(&b, ",path_namespace='%s'", r.PathNamespace)
	}
	return b.String()
}

func (r MatchRule) matches(sig *Signal, resolveOwner func(name string) (string, bool)) bool {
	if r.Interface != "" && r.Interface != sig.Interface {
		return false
	}
	if r.Member != "" && r.Member != sig.Member {
		return false
	}
	if r.Path != "" && r.Path != sig.Path {
		return false
	}
	if r.PathNamespace != "" && !r.PathNamespace.IsNamespacePrefixOf(sig.Path) {
		return false
	}
	if r.Sender != "" {
		if r.Sender == sig.Sender {
			return true
		}
		if strings.HasPrefix(r.Sender, ":") {
			return false
		}
		owner, ok := resolveOwner(r.Sender)
		if !ok || owner != sig.Sender {
			return false
		}
	}
	return true
}

// SignalSubscription is a live subscription to bus signals matching a
// MatchRule. Delivery to the returned channel is strictly ordered,
// buffered internally by an unbounded queue so a slow consumer never
// blocks the reader goroutine, generalizing the teacher's sequential
// signal handler from one global fan-out list to one queue per
// subscription.
type SignalSubscription struct {
	conn *Connection
	rule MatchRule
	key  string

	out     chan *Signal
	in      chan *Signal
	closing chan struct{}
	done    chan struct{}
}

// Signals returns the channel signals matching this subscription's rule
// are delivered on. It is closed when the subscription is removed or
// the connection closes.
func (s *SignalSubscription) Signals() <-chan *Signal { return s.out }

func newSignalSubscription(c *Connection, rule MatchRule) *SignalSubscription {
	s := &SignalSubscription{
		conn:    c,
		rule:    rule,
		key:     rule.String(),
		out:     make(chan *Signal),
		in:      make(chan *Signal),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.pump()
	return s
}

func (s *SignalSubscription) pump() {
	var queue list.List
	var next *Signal
	defer close(s.done)
	for {
		if next == nil {
			if queue.Len() != 0 {
				elem := queue.Front()
				queue.Remove(elem)
				next = elem.Value.(*Signal)
			}
		}
		var outCh chan *Signal
		if next != nil {
			outCh = s.out
		}
		select {
		case sig := <-s.in:
			queue.PushBack(sig)
		case outCh <- next:
			next = nil
		case <-s.closing:
			// Drop anything still queued rather than blocking on s.out: a
			// caller that unsubscribes without draining Signals() first
			// must not be able to hang closeChannel/Unsubscribe/Close
			// forever waiting for a consumer that's no longer reading.
			close(s.out)
			return
		}
	}
}

// deliver hands sig to the pump goroutine, or drops it if the
// subscription is being unsubscribed or the connection is closing.
// s.in is never closed: closeChannel signals exit via s.closing instead,
// so a deliver racing a concurrent Unsubscribe can never send on a
// closed channel.
func (s *SignalSubscription) deliver(sig *Signal) {
	select {
	case s.in <- sig:
	case <-s.conn.closeCh:
	case <-s.closing:
	}
}

func (s *SignalSubscription) closeChannel() {
	close(s.closing)
	<-s.done
}

// SubscribeSignals installs rule with the bus (reference-counted: a
// second subscription with an identical rule shares the existing
// AddMatch) and returns a handle whose Signals channel receives every
// matching inbound signal (spec.md §4.5).
func (c *Connection) SubscribeSignals(ctx context.Context, rule MatchRule) (*SignalSubscription, error) {
	if err := c.connect(ctx); err != nil {
		return nil, err
	}
	key := rule.String()

	c.subsMu.Lock()
	needAddMatch := c.matchRefs[key] == 0
	c.matchRefs[key]++
	c.subsMu.Unlock()

	if needAddMatch {
		if err := c.callUngated(busName, busPath, busName, "AddMatch", []interface{}{key}); err != nil {
			c.subsMu.Lock()
			c.matchRefs[key]--
			c.subsMu.Unlock()
			return nil, err
		}
	}

	if rule.Sender != "" && !strings.HasPrefix(rule.Sender, ":") {
		// Fire-and-forget: must not block the subscribing caller on a bus
		// round-trip (spec.md §4.6, §9). Until this fills the cache, a
		// sender filter on this well-known name may miss early signals.
		sender := rule.Sender
		go c.primeNameOwner(context.Background(), sender)
	}

	sub := newSignalSubscription(c, rule)
	c.subsMu.Lock()
	c.subs = append(c.subs, sub)
	c.subsMu.Unlock()
	return sub, nil
}

// Unsubscribe removes sub, releasing the bus-side match rule once no
// other subscription shares it (spec.md §4.5).
func (c *Connection) Unsubscribe(sub *SignalSubscription) error {
	c.subsMu.Lock()
	idx := -1
	for i, s := range c.subs {
		if s == sub {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.subsMu.Unlock()
		return &UsageError{Reason: "subscription was already removed"}
	}
	c.subs = append(c.subs[:idx], c.subs[idx+1:]...)
	c.matchRefs[sub.key]--
	removeMatch := c.matchRefs[sub.key] <= 0
	if removeMatch {
		delete(c.matchRefs, sub.key)
	}
	c.subsMu.Unlock()

	sub.closeChannel()

	if removeMatch {
		return c.callUngated(busName, busPath, busName, "RemoveMatch", []interface{}{sub.key})
	}
	return nil
}

// dispatchSignal fans sig out to every subscription whose rule matches
// it (spec.md §4.5), resolving well-known-name sender filters against
// the name-owner cache.
func (c *Connection) dispatchSignal(sig *Signal) {
	c.subsMu.Lock()
	subs := make([]*SignalSubscription, len(c.subs))
	copy(subs, c.subs)
	c.subsMu.Unlock()

	delivered := false
	for _, s := range subs {
		if s.rule.matches(sig, c.lookupOwner) {
			s.deliver(sig)
			delivered = true
		}
	}
	if delivered {
		c.stats.addSignalIn()
	}
}

// subscribeBusSignals installs the internal NameOwnerChanged match rule
// the name-owner cache depends on; NameAcquired and NameLost arrive
// unicast to our own unique name and need no match rule.
func (c *Connection) subscribeBusSignals() error {
	rule := MatchRule{Sender: busName, Interface: busName, Member: "NameOwnerChanged"}
	return c.callUngated(busName, busPath, busName, "AddMatch", []interface{}{rule.String()})
}
