package dbus

import (
	"bytes"
	"context"
	"fmt"

	"github.com/busline/dbus/wire"
)

// pendingCall tracks one in-flight method call awaiting its
// method_return or error reply, correlated by serial (spec.md §4.2).
type pendingCall struct {
	done   chan struct{}
	values []interface{}
	err    error
}

func newPendingCall() *pendingCall {
	return &pendingCall{done: make(chan struct{})}
}

// complete is called exactly once per pendingCall, either by the
// dispatcher on reply or by failAllPending on close; the two are
// mutually exclusive under callsMu so no further guard is needed.
func (p *pendingCall) complete(values []interface{}, err error) {
	p.values = values
	p.err = err
	close(p.done)
}

// CallMethod invokes member on interface iface at path on destination,
// blocking until the reply arrives, ctx is done, or the connection
// closes. out receives the pointer targets for the reply body, in the
// same style as the teacher's Store (spec.md §4.2).
func (c *Connection) CallMethod(ctx context.Context, destination string, path wire.ObjectPath, iface, member string, args []interface{}, out ...interface{}) error {
	if err := c.connect(ctx); err != nil {
		return err
	}
	values, err := c.call(ctx, destination, path, iface, member, args)
	if err != nil {
		return err
	}
	return storeValues(values, out)
}

// CallMethodRaw is CallMethod without a typed destination, returning the
// reply body as loosely-typed values. Useful for generic callers, such
// as a command-line client, that don't know the reply shape ahead of
// time.
func (c *Connection) CallMethodRaw(ctx context.Context, destination string, path wire.ObjectPath, iface, member string, args []interface{}) ([]interface{}, error) {
	if err := c.connect(ctx); err != nil {
		return nil, err
	}
	return c.call(ctx, destination, path, iface, member, args)
}

// callUngated issues a call without gating on c.connect, for use while
// doConnect itself is still running (the Hello call has nowhere else to
// gate on).
func (c *Connection) callUngated(destination string, path wire.ObjectPath, iface, member string, args []interface{}, out ...interface{}) error {
	values, err := c.call(context.Background(), destination, path, iface, member, args)
	if err != nil {
		return err
	}
	return storeValues(values, out)
}

func (c *Connection) call(ctx context.Context, destination string, path wire.ObjectPath, iface, member string, args []interface{}) ([]interface{}, error) {
	serial := c.nextSerial()
	msg := wire.NewMessage(wire.KindMethodCall, serial)
	msg.SetPath(path)
	msg.SetMember(member)
	if iface != "" {
		msg.SetInterface(iface)
	}
	if destination != "" {
		msg.SetDestination(destination)
	}
	msg.Body = args

	pc := newPendingCall()
	c.callsMu.Lock()
	c.calls[serial] = pc
	c.callsMu.Unlock()

	if err := c.sendMessage(msg); err != nil {
		c.callsMu.Lock()
		delete(c.calls, serial)
		c.callsMu.Unlock()
		c.stats.addCallFailed()
		return nil, err
	}
	c.stats.addCallSent()

	select {
	case <-pc.done:
		if pc.err != nil {
			c.stats.addCallFailed()
		}
		return pc.values, pc.err
	case <-ctx.Done():
		c.callsMu.Lock()
		delete(c.calls, serial)
		c.callsMu.Unlock()
		c.stats.addCallFailed()
		return nil, ctx.Err()
	case <-c.closeCh:
		c.stats.addCallFailed()
		return nil, errClosed
	}
}

// sendMessage encodes and writes msg under writeMu, serializing writers
// the way the teacher's outWorker goroutine does, just without the
// extra goroutine hop.
func (c *Connection) sendMessage(msg *wire.Message) error {
	var buf bytes.Buffer
	if err := msg.EncodeTo(&buf); err != nil {
		return &ProtocolError{Context: "encoding outbound message", Err: err}
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	n, err := c.tr.Write(buf.Bytes())
	if err != nil {
		return &TransportError{Err: err}
	}
	c.stats.addBytesOut(n)
	return nil
}

func storeValues(values []interface{}, out []interface{}) error {
	if len(out) == 0 {
		return nil
	}
	if len(out) > len(values) {
		return &ProtocolError{Context: "method reply", Err: fmt.Errorf("expected at least %d values, got %d", len(out), len(values))}
	}
	for i, dst := range out {
		if err := storeOne(values[i], dst); err != nil {
			return &ProtocolError{Context: "method reply", Err: err}
		}
	}
	return nil
}

// Ping calls org.freedesktop.DBus.Peer.Ping on destination, a liveness
// check that every D-Bus-speaking process answers.
func (c *Connection) Ping(ctx context.Context, destination string, path wire.ObjectPath) error {
	return c.CallMethod(ctx, destination, path, "org.freedesktop.DBus.Peer", "Ping", nil)
}

// GetMachineId calls org.freedesktop.DBus.Peer.GetMachineId on destination.
func (c *Connection) GetMachineId(ctx context.Context, destination string, path wire.ObjectPath) (string, error) {
	var id string
	err := c.CallMethod(ctx, destination, path, "org.freedesktop.DBus.Peer", "GetMachineId", nil, &id)
	return id, err
}
