// Package introspectable implements org.freedesktop.DBus.Introspectable
// as a pure function over an object tree, consumed by the connection
// engine's inbound dispatcher (spec.md §4.3). The XML shape is dictated
// by the D-Bus introspection format itself, so it is carried over from
// the teacher's introspect.go Node/Interface/Arg types rather than
// reinvented.
package introspectable

import (
	"encoding/xml"

	"github.com/busline/dbus/objecttree"
	"github.com/busline/dbus/wire"
)

// Node is the root element of an introspection document.
type Node struct {
	XMLName    xml.Name    `xml:"node"`
	Interfaces []Interface `xml:"interface"`
	Children   []Child     `xml:"node"`
}

// Child is a child node reference in an introspection document.
type Child struct {
	Name string `xml:"name,attr"`
}

// Interface describes one interface contributed by a hosted object.
type Interface struct {
	Name string `xml:"name,attr"`
}

// Handle renders the introspection XML for path given the object tree.
// Returns ok=false only if member isn't "Introspect".
func Handle(tree *objecttree.Tree, path wire.ObjectPath, member string) (xmlBody string, ok bool) {
	if member != "Introspect" {
		return "", false
	}
	node := Node{
		Interfaces: []Interface{
			{Name: "org.freedesktop.DBus.Introspectable"},
			{Name: "org.freedesktop.DBus.Peer"},
			{Name: "org.freedesktop.DBus.Properties"},
		},
	}
	if h, found := tree.Lookup(path); found {
		if provider, is := h.(objecttree.InterfaceProvider); is {
			for _, name := range provider.Interfaces() {
				node.Interfaces = append(node.Interfaces, Interface{Name: name})
			}
		}
	}
	for _, child := range tree.Children(path) {
		node.Children = append(node.Children, Child{Name: child})
	}
	b, err := xml.MarshalIndent(node, "", "  ")
	if err != nil {
		return "", true
	}
	return string(b), true
}
