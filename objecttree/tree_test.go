package objecttree

import (
	"context"
	"testing"

	"github.com/busline/dbus/wire"
)

type stubHandler struct {
	ifaces []string
}

func (s *stubHandler) HandleMethodCall(ctx context.Context, call *MethodCall) (*MethodResult, *MethodError) {
	return &MethodResult{Values: []interface{}{"ok"}}, nil
}

func (s *stubHandler) Interfaces() []string { return s.ifaces }

func TestRegisterAndLookup(t *testing.T) {
	tree := New()
	h := &stubHandler{ifaces: []string{"com.example.Thing"}}
	if err := tree.Register("/com/example/thing0", h); err != nil {
		t.Fatalf("Register: %v", err)
	}
	got, ok := tree.Lookup("/com/example/thing0")
	if !ok || got != h {
		t.Fatalf("Lookup did not return the registered handler")
	}
}

func TestRegisterRejectsDuplicate(t *testing.T) {
	tree := New()
	h := &stubHandler{}
	if err := tree.Register("/a", h); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	err := tree.Register("/a", h)
	if err == nil {
		t.Fatal("expected ErrAlreadyRegistered on duplicate path")
	}
	if _, ok := err.(*ErrAlreadyRegistered); !ok {
		t.Fatalf("unexpected error type %T", err)
	}
}

func TestRegisterRejectsInvalidPath(t *testing.T) {
	tree := New()
	if err := tree.Register("not-absolute", &stubHandler{}); err == nil {
		t.Fatal("expected error for invalid path")
	}
}

func TestUnregister(t *testing.T) {
	tree := New()
	h := &stubHandler{}
	tree.Register("/a", h)
	tree.Unregister("/a")
	if _, ok := tree.Lookup("/a"); ok {
		t.Fatal("handler still present after Unregister")
	}
}

func TestChildren(t *testing.T) {
	tree := New()
	tree.Register("/com/example/thing0", &stubHandler{})
	tree.Register("/com/example/thing1", &stubHandler{})
	tree.Register("/org/other", &stubHandler{})

	children := tree.Children(wire.ObjectPath("/com/example"))
	if len(children) != 2 {
		t.Fatalf("Children = %v, want 2 entries", children)
	}
	want := map[string]bool{"thing0": true, "thing1": true}
	for _, c := range children {
		if !want[c] {
			t.Errorf("unexpected child %q", c)
		}
	}
}
