package dbus

import "fmt"

// ProtocolError reports a reply or signal whose shape didn't match what
// the bus is specified to produce (spec.md §7). The connection is not
// closed; the error is surfaced to the caller (or logged, for signals)
// and the connection keeps running.
type ProtocolError struct {
	Context string
	Err     error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("dbus: protocol error in %s: %v", e.Context, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// TransportError reports that the underlying socket closed or failed.
// Every pending call is failed with this error and the connection moves
// to closed.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("dbus: transport error: %v", e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// UsageError reports a caller mistake: double-registering an object path,
// removing a match rule that was never added, or operating on a closed
// connection.
type UsageError struct {
	Reason string
}

func (e *UsageError) Error() string { return "dbus: usage error: " + e.Reason }

// RemoteError is the structured result of a method call that the remote
// side answered with an Error message. It is never reported as a
// ProtocolError (spec.md §7).
type RemoteError struct {
	Name   string
	Values []interface{}
}

func (e *RemoteError) Error() string {
	if len(e.Values) > 0 {
		if s, ok := e.Values[0].(string); ok {
			return fmt.Sprintf("%s: %s", e.Name, s)
		}
	}
	return e.Name
}

var errClosed = &UsageError{Reason: "connection is closed"}
