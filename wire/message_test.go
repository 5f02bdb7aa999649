package wire

import (
	"bytes"
	"testing"
)

func TestMessageRoundTrip(t *testing.T) {
	msg := NewMessage(KindMethodCall, 7)
	msg.SetPath(ObjectPath("/org/freedesktop/DBus"))
	msg.SetInterface("org.freedesktop.DBus")
	msg.SetMember("RequestName")
	msg.SetDestination("org.freedesktop.DBus")
	msg.Body = []interface{}{"com.example.Test", uint32(4)}

	var buf bytes.Buffer
	if err := msg.EncodeTo(&buf); err != nil {
		t.Fatalf("EncodeTo: %v", err)
	}

	decoded, consumed, err := DecodeMessage(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	if consumed != buf.Len() {
		t.Errorf("consumed %d bytes, want %d", consumed, buf.Len())
	}
	if decoded.Serial != 7 {
		t.Errorf("serial = %d, want 7", decoded.Serial)
	}
	path, ok := decoded.Path()
	if !ok || path != "/org/freedesktop/DBus" {
		t.Errorf("path = %q, ok=%v", path, ok)
	}
	member, ok := decoded.Member()
	if !ok || member != "RequestName" {
		t.Errorf("member = %q, ok=%v", member, ok)
	}
	if len(decoded.Body) != 2 {
		t.Fatalf("body length = %d, want 2", len(decoded.Body))
	}
	if decoded.Body[0].(string) != "com.example.Test" {
		t.Errorf("body[0] = %v", decoded.Body[0])
	}
	if decoded.Body[1].(uint32) != 4 {
		t.Errorf("body[1] = %v", decoded.Body[1])
	}
}

func TestMessageIncompleteFrame(t *testing.T) {
	msg := NewMessage(KindSignal, 1)
	msg.SetPath(ObjectPath("/a"))
	msg.SetInterface("com.example.I")
	msg.SetMember("Changed")
	msg.Body = []interface{}{"value"}

	var buf bytes.Buffer
	if err := msg.EncodeTo(&buf); err != nil {
		t.Fatalf("EncodeTo: %v", err)
	}

	_, _, err := DecodeMessage(buf.Bytes()[:buf.Len()-2])
	if !IsIncomplete(err) {
		t.Fatalf("expected incomplete error for truncated buffer, got %v", err)
	}
}

func TestMessageValidateRequiresFields(t *testing.T) {
	msg := NewMessage(KindMethodCall, 1)
	if err := msg.Validate(); err == nil {
		t.Fatal("expected validation error for missing path/member")
	}
}
