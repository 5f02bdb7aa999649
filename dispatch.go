package dbus

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"os"
	"strings"
	"sync"

	"github.com/busline/dbus/introspectable"
	"github.com/busline/dbus/objecttree"
	"github.com/busline/dbus/peer"
	"github.com/busline/dbus/properties"
	"github.com/busline/dbus/wire"
)

var (
	machineIDOnce sync.Once
	machineIDVal  string
)

// machineID returns a stable per-process identifier for GetMachineId
// replies, preferring the platform's own file and falling back to a
// random value generated once and cached for the life of the process.
func machineID() string {
	machineIDOnce.Do(func() {
		for _, path := range []string{"/etc/machine-id", "/var/lib/dbus/machine-id"} {
			if b, err := os.ReadFile(path); err == nil {
				machineIDVal = strings.TrimSpace(string(b))
				return
			}
		}
		var buf [16]byte
		rand.Read(buf[:])
		machineIDVal = hex.EncodeToString(buf[:])
	})
	return machineIDVal
}

// dispatchInbound routes one decoded message to the reply-correlation
// path, the signal fan-out path, or the inbound method-call handler,
// depending on its kind (spec.md §4.3). It runs on the single reader
// goroutine; nothing here blocks on the network.
func (c *Connection) dispatchInbound(msg *wire.Message) {
	switch msg.Kind {
	case wire.KindMethodReturn:
		c.completeCall(msg, msg.Body, nil)
	case wire.KindError:
		errName, _ := msg.ErrorName()
		c.completeCall(msg, nil, &RemoteError{Name: errName, Values: msg.Body})
	case wire.KindSignal:
		c.handleInboundSignal(msg)
	case wire.KindMethodCall:
		go c.handleInboundMethodCall(msg)
	}
}

func (c *Connection) completeCall(msg *wire.Message, values []interface{}, callErr error) {
	serial, ok := msg.ReplySerial()
	if !ok {
		c.log.Warning("reply with no reply_serial header")
		return
	}
	c.callsMu.Lock()
	pc, found := c.calls[serial]
	if found {
		delete(c.calls, serial)
	}
	c.callsMu.Unlock()
	if !found {
		return
	}
	pc.complete(values, callErr)
}

func (c *Connection) handleInboundSignal(msg *wire.Message) {
	path, _ := msg.Path()
	iface, _ := msg.Interface()
	member, _ := msg.Member()
	sender, _ := msg.Sender()

	if iface == busName && sender == busName {
		malformed := false
		switch member {
		case "NameAcquired":
			if len(msg.Body) == 1 {
				if name, ok := msg.Body[0].(string); ok {
					c.handleNameAcquired(name)
					break
				}
			}
			malformed = true
		case "NameLost":
			if len(msg.Body) == 1 {
				if name, ok := msg.Body[0].(string); ok {
					c.handleNameLost(name)
					break
				}
			}
			malformed = true
		case "NameOwnerChanged":
			if len(msg.Body) == 3 {
				name, _ := msg.Body[0].(string)
				oldOwner, _ := msg.Body[1].(string)
				newOwner, _ := msg.Body[2].(string)
				c.handleNameOwnerChanged(name, oldOwner, newOwner)
			} else {
				malformed = true
			}
		}
		if malformed {
			c.log.Warningf("protocol error: bus signal %s with unexpected arguments %v", member, msg.Body)
		}
	}

	c.dispatchSignal(&Signal{
		Sender:    sender,
		Path:      path,
		Interface: iface,
		Member:    member,
		Body:      msg.Body,
	})
}

// handleInboundMethodCall answers an inbound method call, delegating in
// order to the three built-in interface collaborators and finally to
// the registered object handler, exactly the precedence spec.md §4.3
// requires: a hosted object cannot shadow Introspectable/Peer/Properties.
func (c *Connection) handleInboundMethodCall(msg *wire.Message) {
	path, hasPath := msg.Path()
	member, _ := msg.Member()
	iface, _ := msg.Interface()
	sender, _ := msg.Sender()
	serial := msg.Serial

	if !hasPath {
		// wire.Message.Validate rejects a method call with no path at decode
		// time, so this is unreachable in practice: there's no frame left to
		// answer with UnknownObject by the time dispatch sees it.
		return
	}

	if iface == "" || iface == "org.freedesktop.DBus.Peer" {
		if values, ok := peer.Handle(member, machineID()); ok {
			c.replyMethodReturn(serial, sender, values)
			return
		}
	}
	if iface == "" || iface == "org.freedesktop.DBus.Introspectable" {
		if xmlBody, ok := introspectable.Handle(c.tree, path, member); ok {
			c.replyMethodReturn(serial, sender, []interface{}{xmlBody})
			return
		}
	}
	if iface == "" || iface == "org.freedesktop.DBus.Properties" {
		if result, merr, ok := properties.Handle(c.tree, path, member, msg.Body); ok {
			if merr != nil {
				c.replyError(serial, sender, merr.Name, merr.Values)
			} else {
				c.replyMethodReturn(serial, sender, result.Values)
			}
			return
		}
	}

	h, found := c.tree.Lookup(path)
	if !found {
		c.replyError(serial, sender, "org.freedesktop.DBus.Error.UnknownObject", []interface{}{"unknown object " + string(path)})
		return
	}
	if iface != "" {
		if provider, is := h.(objecttree.InterfaceProvider); is {
			known := false
			for _, name := range provider.Interfaces() {
				if name == iface {
					known = true
					break
				}
			}
			if !known {
				c.replyError(serial, sender, "org.freedesktop.DBus.Error.UnknownInterface", []interface{}{"unknown interface " + iface})
				return
			}
		}
	}

	result, merr := h.HandleMethodCall(context.Background(), &objecttree.MethodCall{
		Sender:    sender,
		Path:      path,
		Interface: iface,
		Member:    member,
		Args:      msg.Body,
	})
	if merr != nil {
		c.replyError(serial, sender, merr.Name, merr.Values)
		return
	}
	if result == nil {
		result = &objecttree.MethodResult{}
	}
	if msg.Flags&wire.FlagNoReplyExpected == 0 {
		c.replyMethodReturn(serial, sender, result.Values)
	}
}

func (c *Connection) replyMethodReturn(replySerial uint32, destination string, values []interface{}) {
	out := wire.NewMessage(wire.KindMethodReturn, c.nextSerial())
	out.SetReplySerial(replySerial)
	if destination != "" {
		out.SetDestination(destination)
	}
	out.Body = values
	if err := c.sendMessage(out); err != nil {
		c.log.Warning("failed to send method return: ", err)
	}
}

func (c *Connection) replyError(replySerial uint32, destination, errName string, values []interface{}) {
	out := wire.NewMessage(wire.KindError, c.nextSerial())
	out.SetReplySerial(replySerial)
	out.SetErrorName(errName)
	if destination != "" {
		out.SetDestination(destination)
	}
	out.Body = values
	if err := c.sendMessage(out); err != nil {
		c.log.Warning("failed to send error reply: ", err)
	}
}
