package dbus

import "testing"

func TestMatchRuleString(t *testing.T) {
	rule := MatchRule{
		Sender:    "org.freedesktop.DBus",
		Interface: "org.freedesktop.DBus",
		Member:    "NameOwnerChanged",
	}
	got := rule.String()
	want := "type='signal',sender='org.freedesktop.DBus',interface='org.freedesktop.DBus',member='NameOwnerChanged'"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestMatchRuleMatchesInterfaceAndMember(t *testing.T) {
	rule := MatchRule{Interface: "com.example.Thing", Member: "Changed"}
	resolve := func(string) (string, bool) { return "", false }

	match := &Signal{Sender: ":1.1", Path: "/a", Interface: "com.example.Thing", Member: "Changed"}
	if !rule.matches(match, resolve) {
		t.Error("expected rule to match signal with same interface/member")
	}

	noMatch := &Signal{Sender: ":1.1", Path: "/a", Interface: "com.example.Thing", Member: "Other"}
	if rule.matches(noMatch, resolve) {
		t.Error("expected rule not to match signal with different member")
	}
}

func TestMatchRulePathNamespace(t *testing.T) {
	rule := MatchRule{PathNamespace: "/com/example"}
	resolve := func(string) (string, bool) { return "", false }

	inside := &Signal{Path: "/com/example/thing0", Interface: "x.Y", Member: "Z"}
	if !rule.matches(inside, resolve) {
		t.Error("expected path_namespace to match a descendant path")
	}
	outside := &Signal{Path: "/org/other", Interface: "x.Y", Member: "Z"}
	if rule.matches(outside, resolve) {
		t.Error("expected path_namespace not to match an unrelated path")
	}
}

func TestMatchRuleSenderResolvesWellKnownName(t *testing.T) {
	rule := MatchRule{Sender: "com.example.Service"}
	resolve := func(name string) (string, bool) {
		if name == "com.example.Service" {
			return ":1.42", true
		}
		return "", false
	}
	sig := &Signal{Sender: ":1.42", Path: "/a", Interface: "x.Y", Member: "Z"}
	if !rule.matches(sig, resolve) {
		t.Error("expected sender filter to resolve the well-known name to its current owner")
	}

	sigFromOther := &Signal{Sender: ":1.7", Path: "/a", Interface: "x.Y", Member: "Z"}
	if rule.matches(sigFromOther, resolve) {
		t.Error("expected sender filter to reject a signal from a different unique name")
	}
}
