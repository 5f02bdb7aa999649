package peer

import "testing"

func TestHandlePing(t *testing.T) {
	values, ok := Handle("Ping", "abc123")
	if !ok {
		t.Fatal("expected Ping to be handled")
	}
	if len(values) != 0 {
		t.Errorf("Ping reply values = %v, want none", values)
	}
}

func TestHandleGetMachineId(t *testing.T) {
	values, ok := Handle("GetMachineId", "abc123")
	if !ok {
		t.Fatal("expected GetMachineId to be handled")
	}
	if len(values) != 1 || values[0].(string) != "abc123" {
		t.Errorf("GetMachineId reply values = %v", values)
	}
}

func TestHandleUnknownMember(t *testing.T) {
	_, ok := Handle("Frobnicate", "abc123")
	if ok {
		t.Fatal("expected unknown member to be left unhandled")
	}
}
