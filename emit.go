package dbus

import (
	"context"

	"github.com/busline/dbus/wire"
)

// EmitSignal broadcasts a signal from path on interface iface with the
// given body. Subscribers (including our own, if any match) receive it
// exactly as any other inbound signal would (spec.md §4.5).
func (c *Connection) EmitSignal(ctx context.Context, path wire.ObjectPath, iface, member string, body ...interface{}) error {
	if err := c.connect(ctx); err != nil {
		return err
	}
	msg := wire.NewMessage(wire.KindSignal, c.nextSerial())
	msg.SetPath(path)
	msg.SetInterface(iface)
	msg.SetMember(member)
	msg.Body = body
	return c.sendMessage(msg)
}
