// Package objecttree maps object paths to locally hosted objects that can
// handle inbound method calls. It is consumed by the connection engine as
// a narrow lookup interface (spec.md §4.3) and is otherwise independent of
// any bus connection.
package objecttree

import (
	"context"
	"fmt"
	"sync"

	"github.com/busline/dbus/wire"
)

// MethodCall is the inbound call handed to a Handler.
type MethodCall struct {
	Sender    string
	Path      wire.ObjectPath
	Interface string
	Member    string
	Args      []interface{}
}

// MethodResult is a successful method-call outcome.
type MethodResult struct {
	Values []interface{}
}

// MethodError is a failed method-call outcome, carrying the D-Bus error
// name and argument values that become the body of the Error reply.
type MethodError struct {
	Name   string
	Values []interface{}
}

func (e *MethodError) Error() string {
	if len(e.Values) > 0 {
		if s, ok := e.Values[0].(string); ok {
			return s
		}
	}
	return e.Name
}

// NewMethodError builds a MethodError whose first value is the string
// detail, followed by any extra args, mirroring how the bus daemon's own
// error replies are shaped.
func NewMethodError(name, detail string, args ...interface{}) *MethodError {
	return &MethodError{Name: name, Values: append([]interface{}{detail}, args...)}
}

// Handler is implemented by locally hosted objects. It is the capability
// interface spec.md §9 asks for in place of reflection-based dispatch.
type Handler interface {
	HandleMethodCall(ctx context.Context, call *MethodCall) (*MethodResult, *MethodError)
}

// InterfaceProvider is optionally implemented by a Handler to contribute
// interface names to introspection output.
type InterfaceProvider interface {
	Interfaces() []string
}

// Tree is the object-path -> Handler lookup table.
type Tree struct {
	mu       sync.RWMutex
	handlers map[wire.ObjectPath]Handler
}

// New returns an empty Tree.
func New() *Tree {
	return &Tree{handlers: make(map[wire.ObjectPath]Handler)}
}

// ErrAlreadyRegistered is returned by Register when path already has a
// handler installed.
type ErrAlreadyRegistered struct {
	Path wire.ObjectPath
}

func (e *ErrAlreadyRegistered) Error() string {
	return fmt.Sprintf("dbus: object already registered at %s", e.Path)
}

// Register installs h at path. It is a usage error to register over an
// existing path (spec.md §7).
func (t *Tree) Register(path wire.ObjectPath, h Handler) error {
	if !path.IsValid() {
		return fmt.Errorf("dbus: invalid object path %q", path)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.handlers[path]; exists {
		return &ErrAlreadyRegistered{Path: path}
	}
	t.handlers[path] = h
	return nil
}

// Unregister removes any handler installed at path.
func (t *Tree) Unregister(path wire.ObjectPath) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.handlers, path)
}

// Lookup returns the handler registered at path, if any.
func (t *Tree) Lookup(path wire.ObjectPath) (Handler, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h, ok := t.handlers[path]
	return h, ok
}

// Children returns the immediate child path segments of prefix that have
// a registered handler anywhere below them, for introspection.
func (t *Tree) Children(prefix wire.ObjectPath) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	seen := map[string]bool{}
	var out []string
	for p := range t.handlers {
		if p == prefix || !prefix.IsNamespacePrefixOf(p) {
			continue
		}
		rest := string(p)[len(string(prefix)):]
		if prefix == "/" {
			rest = string(p)[1:]
		} else {
			rest = rest[1:]
		}
		var child string
		for i, c := range rest {
			if c == '/' {
				child = rest[:i]
				break
			}
		}
		if child == "" {
			child = rest
		}
		if child != "" && !seen[child] {
			seen[child] = true
			out = append(out, child)
		}
	}
	return out
}
