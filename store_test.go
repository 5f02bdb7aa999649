package dbus

import (
	"testing"

	"github.com/busline/dbus/wire"
)

func TestStoreOnePlainValue(t *testing.T) {
	var s string
	if err := storeOne("hello", &s); err != nil {
		t.Fatalf("storeOne: %v", err)
	}
	if s != "hello" {
		t.Errorf("s = %q", s)
	}
}

func TestStoreOneUnwrapsVariant(t *testing.T) {
	var n uint32
	if err := storeOne(wire.MakeVariant(uint32(9)), &n); err != nil {
		t.Fatalf("storeOne: %v", err)
	}
	if n != 9 {
		t.Errorf("n = %d", n)
	}
}

func TestStoreOneKeepsVariantWhenTargetIsVariant(t *testing.T) {
	var v wire.Variant
	src := wire.MakeVariant("x")
	if err := storeOne(src, &v); err != nil {
		t.Fatalf("storeOne: %v", err)
	}
	if v.Value().(string) != "x" {
		t.Errorf("v = %v", v)
	}
}

func TestStoreOneRejectsNonPointer(t *testing.T) {
	var s string
	if err := storeOne("hello", s); err == nil {
		t.Fatal("expected error for non-pointer destination")
	}
}

func TestStoreOneRejectsIncompatibleType(t *testing.T) {
	var n int
	if err := storeOne("not a number", &n); err == nil {
		t.Fatal("expected error for incompatible type")
	}
}
