// Package transport implements the local-socket D-Bus transport: address
// parsing, dialing, and the EXTERNAL authentication handshake. Non-local
// transports and non-EXTERNAL authentication are out of scope (spec
// Non-goals); an address naming any other transport is a ConfigError.
package transport

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ConfigError describes a bus address that names an unsupported transport
// or is missing required keys.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "dbus: invalid address: " + e.Reason }

// Address is a parsed bus address: the transport name plus its key/value
// properties.
type Address struct {
	Transport string
	Keys      map[string]string
}

// Parse parses a semicolon-separated D-Bus address string and returns the
// first entry whose transport this library supports ("unix"). If none
// match, the last error encountered is returned.
func Parse(raw string) (Address, error) {
	var lastErr error
	for _, entry := range strings.Split(raw, ";") {
		if entry == "" {
			continue
		}
		addr, err := parseOne(entry)
		if err != nil {
			lastErr = err
			continue
		}
		if addr.Transport != "unix" {
			lastErr = &ConfigError{Reason: fmt.Sprintf("unsupported transport %q", addr.Transport)}
			continue
		}
		if _, ok := addr.Keys["path"]; !ok {
			lastErr = &ConfigError{Reason: "unix transport requires a path key"}
			continue
		}
		return addr, nil
	}
	if lastErr == nil {
		lastErr = &ConfigError{Reason: "empty address"}
	}
	return Address{}, lastErr
}

func parseOne(entry string) (Address, error) {
	i := strings.IndexByte(entry, ':')
	if i == -1 {
		return Address{}, &ConfigError{Reason: "missing transport in address entry"}
	}
	addr := Address{Transport: entry[:i], Keys: make(map[string]string)}
	for _, kv := range strings.Split(entry[i+1:], ",") {
		if kv == "" {
			continue
		}
		j := strings.IndexByte(kv, '=')
		if j == -1 {
			return Address{}, &ConfigError{Reason: "malformed key=value pair"}
		}
		addr.Keys[kv[:j]] = kv[j+1:]
	}
	return addr, nil
}

// SessionAddress resolves the session bus address following the fallback
// chain: $DBUS_SESSION_BUS_ADDRESS, else $XDG_RUNTIME_DIR/bus, else
// /run/user/<uid>/bus.
func SessionAddress() (string, error) {
	if a := os.Getenv("DBUS_SESSION_BUS_ADDRESS"); a != "" {
		return a, nil
	}
	if xdg := os.Getenv("XDG_RUNTIME_DIR"); xdg != "" {
		return "unix:path=" + xdg + "/bus", nil
	}
	return "unix:path=/run/user/" + strconv.Itoa(os.Getuid()) + "/bus", nil
}

// SystemAddress resolves the system bus address: $DBUS_SYSTEM_BUS_ADDRESS,
// else /run/dbus/system_bus_socket.
func SystemAddress() string {
	if a := os.Getenv("DBUS_SYSTEM_BUS_ADDRESS"); a != "" {
		return a
	}
	return "unix:path=/run/dbus/system_bus_socket"
}
