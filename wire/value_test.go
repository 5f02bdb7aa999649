package wire

import "testing"

func TestObjectPathIsValid(t *testing.T) {
	cases := []struct {
		path  ObjectPath
		valid bool
	}{
		{"/", true},
		{"/org/freedesktop/DBus", true},
		{"/org/freedesktop/DBus/", false},
		{"", false},
		{"no/leading/slash", false},
		{"/bad-dash", false},
	}
	for _, c := range cases {
		if got := c.path.IsValid(); got != c.valid {
			t.Errorf("ObjectPath(%q).IsValid() = %v, want %v", c.path, got, c.valid)
		}
	}
}

func TestObjectPathIsNamespacePrefixOf(t *testing.T) {
	if !ObjectPath("/").IsNamespacePrefixOf("/org/freedesktop") {
		t.Error("root path should prefix everything")
	}
	if !ObjectPath("/org/freedesktop").IsNamespacePrefixOf("/org/freedesktop") {
		t.Error("a path should be its own namespace prefix")
	}
	if !ObjectPath("/org/freedesktop").IsNamespacePrefixOf("/org/freedesktop/DBus") {
		t.Error("/org/freedesktop should prefix its child")
	}
	if ObjectPath("/org/freedesktop").IsNamespacePrefixOf("/org/freedesktopX") {
		t.Error("prefix match must respect path element boundaries")
	}
}

func TestIsValidInterfaceName(t *testing.T) {
	cases := []struct {
		name  string
		valid bool
	}{
		{"org.freedesktop.DBus", true},
		{"org.freedesktop.DBus.Peer", true},
		{"singleword", false},
		{"", false},
		{".leading.dot", false},
		{"org.1badstart", false},
	}
	for _, c := range cases {
		if got := IsValidInterfaceName(c.name); got != c.valid {
			t.Errorf("IsValidInterfaceName(%q) = %v, want %v", c.name, got, c.valid)
		}
	}
}

func TestMakeVariantSignature(t *testing.T) {
	v := MakeVariant("hello")
	if v.Signature().String() != "s" {
		t.Errorf("signature = %q, want s", v.Signature().String())
	}
	if v.Value().(string) != "hello" {
		t.Errorf("value = %v", v.Value())
	}
}

func TestSignatureOfComposite(t *testing.T) {
	sig := SignatureOf(uint32(1), "two", []byte{1, 2, 3})
	if sig.String() != "usay" {
		t.Errorf("signature = %q, want usay", sig.String())
	}
}
