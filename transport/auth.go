package transport

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// HandshakeError describes a failure of the EXTERNAL auth exchange.
type HandshakeError struct {
	Reason string
}

func (e *HandshakeError) Error() string { return "dbus: handshake failed: " + e.Reason }

// Handshake drives the credential-based EXTERNAL authentication exchange
// described in spec.md §4.1 and returns the server-assigned GUID. On
// return the connection is in binary-message mode (BEGIN has been sent).
func Handshake(c *Conn, uid int) (guid string, err error) {
	if err := c.SendNullByte(); err != nil {
		return "", errors.Wrap(err, "dbus: send credential byte")
	}

	line := "AUTH EXTERNAL " + hexEncodeUID(uid)
	if _, err := c.Write([]byte(line + "\r\n")); err != nil {
		return "", errors.Wrap(err, "dbus: write AUTH line")
	}

	resp, err := c.ReadLine()
	if err != nil {
		return "", errors.Wrap(err, "dbus: read AUTH response")
	}
	if !strings.HasPrefix(resp, "OK ") {
		return "", &HandshakeError{Reason: fmt.Sprintf("unexpected response %q", resp)}
	}
	guid = strings.TrimSpace(strings.TrimPrefix(resp, "OK "))

	if _, err := c.Write([]byte("BEGIN\r\n")); err != nil {
		return "", errors.Wrap(err, "dbus: write BEGIN")
	}
	return guid, nil
}

// hexEncodeUID renders uid as the decimal digit string of the uid, each
// digit further encoded as two lowercase hex characters of its ASCII
// code, per the EXTERNAL mechanism's convention for passing a username.
func hexEncodeUID(uid int) string {
	decimal := strconv.Itoa(uid)
	return hex.EncodeToString([]byte(decimal))
}
