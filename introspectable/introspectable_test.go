package introspectable

import (
	"strings"
	"testing"

	"github.com/busline/dbus/objecttree"
	"github.com/busline/dbus/wire"
)

func TestHandleIntrospectListsChildrenAndBuiltins(t *testing.T) {
	tree := objecttree.New()
	tree.Register("/com/example/thing0", nil)

	xmlBody, ok := Handle(tree, "/com/example", "Introspect")
	if !ok {
		t.Fatal("expected Introspect to be handled")
	}
	if !strings.Contains(xmlBody, "org.freedesktop.DBus.Peer") {
		t.Error("expected built-in Peer interface to be listed")
	}
	if !strings.Contains(xmlBody, `name="thing0"`) {
		t.Errorf("expected child node thing0 in output: %s", xmlBody)
	}
}

func TestHandleUnknownMember(t *testing.T) {
	tree := objecttree.New()
	if _, ok := Handle(tree, wire.ObjectPath("/"), "Frobnicate"); ok {
		t.Fatal("expected unknown member to be left unhandled")
	}
}
