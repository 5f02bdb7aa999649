package transport

import (
	"bytes"
	"net"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Conn is a local-socket duplex byte stream to a bus daemon, plus the
// peer-credential read used to cross-check the EXTERNAL auth line.
type Conn struct {
	*net.UnixConn
}

// Dial opens the unix-domain socket named by addr (already validated by
// Parse) and returns the raw duplex connection, before any handshake.
func Dial(addr Address) (*Conn, error) {
	path := addr.Keys["path"]
	if abstract, ok := addr.Keys["abstract"]; ok {
		path = "@" + abstract
	}
	c, err := net.DialUnix("unix", nil, &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		return nil, errors.Wrap(err, "dbus: dial unix transport")
	}
	return &Conn{c}, nil
}

// PeerCredentialUID reads the connected peer's UID off the socket via
// SO_PEERCRED, for the non-fatal cross-check described in SPEC_FULL.md
// §6.1. Returns ok=false if the platform or socket doesn't support it.
func (c *Conn) PeerCredentialUID() (uid uint32, ok bool) {
	raw, err := c.UnixConn.SyscallConn()
	if err != nil {
		return 0, false
	}
	var cred *unix.Ucred
	var gerr error
	err = raw.Control(func(fd uintptr) {
		cred, gerr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	})
	if err != nil || gerr != nil || cred == nil {
		return 0, false
	}
	return cred.Uid, true
}

// SendNullByte sends the single credential-passing sentinel byte that
// precedes the AUTH line, carrying SCM_CREDENTIALS ancillary data so the
// bus daemon can read our credentials the same way SendNullByte does in
// the teacher's unixcred transport.
func (c *Conn) SendNullByte() error {
	ucred := &unix.Ucred{Pid: int32(unixGetpid()), Uid: uint32(unixGetuid()), Gid: uint32(unixGetgid())}
	oob := unix.UnixCredentials(ucred)
	raw, err := c.UnixConn.SyscallConn()
	if err != nil {
		// Fall back to a plain byte write; the bus can still read
		// credentials via the listening socket's SO_PASSCRED option.
		_, werr := c.UnixConn.Write([]byte{0})
		return werr
	}
	var n, oobn int
	var werr error
	cerr := raw.Control(func(fd uintptr) {
		n, oobn, werr = sendmsgUnix(int(fd), []byte{0}, oob)
	})
	if cerr != nil {
		return cerr
	}
	if werr != nil {
		return werr
	}
	if n != 1 || oobn != len(oob) {
		return errors.New("dbus: short write sending credential byte")
	}
	return nil
}

func sendmsgUnix(fd int, b, oob []byte) (n, oobn int, err error) {
	if err := unix.Sendmsg(fd, b, oob, nil, 0); err != nil {
		return 0, 0, err
	}
	return len(b), len(oob), nil
}

func unixGetpid() int { return unix.Getpid() }
func unixGetuid() int { return unix.Getuid() }
func unixGetgid() int { return unix.Getgid() }

// ReadLine reads from the socket through the next "\r\n" and returns the
// line without that terminator, used only during the text-protocol phase
// of the handshake (§4.1). It is intentionally naive (single-byte reads,
// so no byte past the line is consumed) because the auth phase is
// short-lived and low-volume; once BEGIN is sent the connection's read
// loop reads in bulk and decodes framed messages.
func (c *Conn) ReadLine() (string, error) {
	var buf bytes.Buffer
	b := make([]byte, 1)
	for {
		n, err := c.UnixConn.Read(b)
		if err != nil {
			return "", err
		}
		if n == 0 {
			continue
		}
		buf.WriteByte(b[0])
		if buf.Len() >= 2 {
			tail := buf.Bytes()[buf.Len()-2:]
			if tail[0] == '\r' && tail[1] == '\n' {
				return buf.String()[:buf.Len()-2], nil
			}
		}
	}
}
