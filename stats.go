package dbus

import "sync/atomic"

// Stats holds cumulative counters for a Connection, the addition
// SPEC_FULL.md §6 makes to the public surface so callers can observe
// traffic without instrumenting the transport themselves.
type Stats struct {
	bytesIn     uint64
	bytesOut    uint64
	callsSent   uint64
	callsFailed uint64
	signalsIn   uint64
}

func (s *Stats) addBytesIn(n int)  { atomic.AddUint64(&s.bytesIn, uint64(n)) }
func (s *Stats) addBytesOut(n int) { atomic.AddUint64(&s.bytesOut, uint64(n)) }
func (s *Stats) addCallSent()      { atomic.AddUint64(&s.callsSent, 1) }
func (s *Stats) addCallFailed()    { atomic.AddUint64(&s.callsFailed, 1) }
func (s *Stats) addSignalIn()      { atomic.AddUint64(&s.signalsIn, 1) }

// BytesIn returns the total bytes read from the transport so far.
func (s *Stats) BytesIn() uint64 { return atomic.LoadUint64(&s.bytesIn) }

// BytesOut returns the total bytes written to the transport so far.
func (s *Stats) BytesOut() uint64 { return atomic.LoadUint64(&s.bytesOut) }

// CallsSent returns the number of method calls issued so far.
func (s *Stats) CallsSent() uint64 { return atomic.LoadUint64(&s.callsSent) }

// CallsFailed returns the number of method calls that completed with an
// error (transport, protocol, or remote).
func (s *Stats) CallsFailed() uint64 { return atomic.LoadUint64(&s.callsFailed) }

// SignalsIn returns the number of signal messages delivered to at least
// one subscription.
func (s *Stats) SignalsIn() uint64 { return atomic.LoadUint64(&s.signalsIn) }

// Stats returns a snapshot-by-reference of the connection's traffic
// counters. Fields are updated concurrently; read them via the accessor
// methods.
func (c *Connection) Stats() *Stats { return &c.stats }
