// Package properties implements org.freedesktop.DBus.Properties as a pure
// function over an object tree. The teacher has no Properties handler at
// all (its prop/prop.go is a caller-side property-watching helper, a
// different concern — see DESIGN.md); this collaborator is new, grounded
// on the shape of the other two built-in interface handlers in this
// module (peer, introspectable) and on the D-Bus Properties interface
// contract itself.
package properties

import (
	"github.com/busline/dbus/objecttree"
	"github.com/busline/dbus/wire"
)

// Provider is optionally implemented by a hosted object to expose
// gettable/settable properties.
type Provider interface {
	GetProperty(iface, name string) (interface{}, *objecttree.MethodError)
	SetProperty(iface, name string, value interface{}) *objecttree.MethodError
	AllProperties(iface string) (map[string]interface{}, *objecttree.MethodError)
}

const errUnknownInterface = "org.freedesktop.DBus.Error.UnknownInterface"

// Handle answers Get/Set/GetAll against path's handler, if it implements
// Provider. ok is false if member isn't one of the three.
func Handle(tree *objecttree.Tree, path wire.ObjectPath, member string, args []interface{}) (*objecttree.MethodResult, *objecttree.MethodError, bool) {
	switch member {
	case "Get", "Set", "GetAll":
	default:
		return nil, nil, false
	}

	h, found := tree.Lookup(path)
	if !found {
		return nil, objecttree.NewMethodError("org.freedesktop.DBus.Error.UnknownObject", "unknown object "+string(path)), true
	}
	provider, ok := h.(Provider)
	if !ok {
		return nil, objecttree.NewMethodError(errUnknownInterface, "object does not implement properties"), true
	}

	switch member {
	case "Get":
		if len(args) != 2 {
			return nil, objecttree.NewMethodError("org.freedesktop.DBus.Error.InvalidArgs", "Get takes (interface,name)"), true
		}
		iface, _ := args[0].(string)
		name, _ := args[1].(string)
		v, merr := provider.GetProperty(iface, name)
		if merr != nil {
			return nil, merr, true
		}
		return &objecttree.MethodResult{Values: []interface{}{wire.MakeVariant(v)}}, nil, true
	case "Set":
		if len(args) != 3 {
			return nil, objecttree.NewMethodError("org.freedesktop.DBus.Error.InvalidArgs", "Set takes (interface,name,value)"), true
		}
		iface, _ := args[0].(string)
		name, _ := args[1].(string)
		value := args[2]
		if v, isVariant := value.(wire.Variant); isVariant {
			value = v.Value()
		}
		if merr := provider.SetProperty(iface, name, value); merr != nil {
			return nil, merr, true
		}
		return &objecttree.MethodResult{}, nil, true
	case "GetAll":
		if len(args) != 1 {
			return nil, objecttree.NewMethodError("org.freedesktop.DBus.Error.InvalidArgs", "GetAll takes (interface)"), true
		}
		iface, _ := args[0].(string)
		all, merr := provider.AllProperties(iface)
		if merr != nil {
			return nil, merr, true
		}
		variants := make(map[string]wire.Variant, len(all))
		for k, v := range all {
			variants[k] = wire.MakeVariant(v)
		}
		return &objecttree.MethodResult{Values: []interface{}{variants}}, nil, true
	}
	return nil, nil, false
}
