package dbus

import (
	"context"
	"testing"

	"github.com/busline/dbus/objecttree"
)

func TestNextSerialMonotonic(t *testing.T) {
	c := New("unix:path=/nonexistent")
	first := c.nextSerial()
	if first != 1 {
		t.Fatalf("first serial = %d, want 1", first)
	}
	second := c.nextSerial()
	if second != 2 {
		t.Fatalf("second serial = %d, want 2", second)
	}
}

func TestNewConnectionStartsDisconnected(t *testing.T) {
	c := New("unix:path=/nonexistent")
	if c.UniqueName() != "" {
		t.Error("a freshly constructed Connection should have no unique name yet")
	}
	if len(c.OwnedNames()) != 0 {
		t.Error("a freshly constructed Connection should own no names yet")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	c := New("unix:path=/nonexistent")
	if err := c.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestRegisterObjectRejectsDuplicatePath(t *testing.T) {
	c := New("unix:path=/nonexistent")
	h := &stubConnHandler{}
	if err := c.RegisterObject("/a", h); err != nil {
		t.Fatalf("first RegisterObject: %v", err)
	}
	if err := c.RegisterObject("/a", h); err == nil {
		t.Fatal("expected UsageError on duplicate registration")
	}
}

type stubConnHandler struct{}

func (stubConnHandler) HandleMethodCall(ctx context.Context, call *objecttree.MethodCall) (*objecttree.MethodResult, *objecttree.MethodError) {
	return &objecttree.MethodResult{}, nil
}
