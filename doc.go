/*
Package dbus implements a client connection engine for the D-Bus local
message-bus IPC protocol used on POSIX systems. It owns a single duplex
transport to a bus daemon and multiplexes over it an outgoing stream of
framed messages with monotonically increasing serials, an incoming stream
demultiplexed into method-call replies, inbound method calls, and signal
broadcasts, and subscription bookkeeping with the bus (match rules,
name-owner tracking, unique-name resolution).

Applications connect lazily via New, System, or Session, then call
methods with CallMethod, receive signals via the channel returned by
SubscribeSignals, own well-known names with RequestName, and publish
objects with RegisterObject.

The byte-level message codec and value model live in the wire
subpackage, the transport and EXTERNAL-auth handshake in transport,
hosted-object dispatch in objecttree, and the three built-in interface
handlers (Introspectable, Peer, Properties) in their own packages,
consumed here as pure functions.

Only the local stream-socket transport and the EXTERNAL authentication
mechanism are supported; this package never acts as a bus daemon and
never persists state across restarts.

Lifecycle and protocol-error logging uses github.com/op/go-logging;
callers own backend configuration via logging.SetBackend the same way
an embedding program would. Transport- and handshake-level errors are
wrapped with github.com/pkg/errors to preserve a cause chain back to the
underlying syscall failure.
*/
package dbus

// BUG: Unix file descriptor passing is not implemented.
