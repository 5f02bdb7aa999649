package properties

import (
	"context"
	"testing"

	"github.com/busline/dbus/objecttree"
	"github.com/busline/dbus/wire"
)

type stubProvider struct {
	props map[string]interface{}
}

func (s *stubProvider) GetProperty(iface, name string) (interface{}, *objecttree.MethodError) {
	v, ok := s.props[name]
	if !ok {
		return nil, objecttree.NewMethodError("org.freedesktop.DBus.Error.UnknownProperty", "no such property "+name)
	}
	return v, nil
}

func (s *stubProvider) SetProperty(iface, name string, value interface{}) *objecttree.MethodError {
	s.props[name] = value
	return nil
}

func (s *stubProvider) AllProperties(iface string) (map[string]interface{}, *objecttree.MethodError) {
	return s.props, nil
}

type providerHandler struct{ *stubProvider }

func (h providerHandler) HandleMethodCall(ctx context.Context, call *objecttree.MethodCall) (*objecttree.MethodResult, *objecttree.MethodError) {
	return &objecttree.MethodResult{}, nil
}

func TestHandleGet(t *testing.T) {
	tree := objecttree.New()
	p := &stubProvider{props: map[string]interface{}{"Name": "widget"}}
	tree.Register("/a", providerHandler{p})

	result, merr, ok := Handle(tree, "/a", "Get", []interface{}{"com.example.Thing", "Name"})
	if !ok {
		t.Fatal("expected Get to be handled")
	}
	if merr != nil {
		t.Fatalf("unexpected error: %v", merr)
	}
	v := result.Values[0].(wire.Variant)
	if v.Value().(string) != "widget" {
		t.Errorf("Get returned %v", v.Value())
	}
}

func TestHandleSet(t *testing.T) {
	tree := objecttree.New()
	p := &stubProvider{props: map[string]interface{}{}}
	tree.Register("/a", providerHandler{p})

	_, merr, ok := Handle(tree, "/a", "Set", []interface{}{"com.example.Thing", "Name", wire.MakeVariant("widget2")})
	if !ok || merr != nil {
		t.Fatalf("Set failed: ok=%v merr=%v", ok, merr)
	}
	if p.props["Name"] != "widget2" {
		t.Errorf("property not updated: %v", p.props)
	}
}

func TestHandleUnknownObject(t *testing.T) {
	tree := objecttree.New()
	_, merr, ok := Handle(tree, "/missing", "Get", []interface{}{"a", "b"})
	if !ok {
		t.Fatal("expected Get on missing path to be handled with an error")
	}
	if merr == nil || merr.Name != "org.freedesktop.DBus.Error.UnknownObject" {
		t.Fatalf("unexpected merr %v", merr)
	}
}

func TestHandleNonMember(t *testing.T) {
	tree := objecttree.New()
	if _, _, ok := Handle(tree, "/a", "Frobnicate", nil); ok {
		t.Fatal("expected unrelated member to be left unhandled")
	}
}
