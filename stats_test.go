package dbus

import "testing"

func TestStatsCounters(t *testing.T) {
	var s Stats
	s.addBytesIn(10)
	s.addBytesOut(5)
	s.addCallSent()
	s.addCallFailed()
	s.addSignalIn()

	if s.BytesIn() != 10 {
		t.Errorf("BytesIn = %d", s.BytesIn())
	}
	if s.BytesOut() != 5 {
		t.Errorf("BytesOut = %d", s.BytesOut())
	}
	if s.CallsSent() != 1 {
		t.Errorf("CallsSent = %d", s.CallsSent())
	}
	if s.CallsFailed() != 1 {
		t.Errorf("CallsFailed = %d", s.CallsFailed())
	}
	if s.SignalsIn() != 1 {
		t.Errorf("SignalsIn = %d", s.SignalsIn())
	}
}

func TestConnectionStatsAccessor(t *testing.T) {
	c := New("unix:path=/nonexistent")
	if c.Stats() == nil {
		t.Fatal("Stats() returned nil")
	}
}
