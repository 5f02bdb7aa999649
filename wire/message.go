package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"reflect"
)

const protocolVersion byte = 1

// Kind is the type of a D-Bus message.
type Kind byte

const (
	KindMethodCall Kind = 1 + iota
	KindMethodReturn
	KindError
	KindSignal
	kindMax
)

func (k Kind) String() string {
	switch k {
	case KindMethodCall:
		return "method_call"
	case KindMethodReturn:
		return "method_return"
	case KindError:
		return "error"
	case KindSignal:
		return "signal"
	}
	return "unknown"
}

// Flags are the per-message flag bits.
type Flags byte

const (
	FlagNoReplyExpected Flags = 1 << iota
	FlagNoAutoStart
)

// HeaderField identifies one of the fixed header fields of a message.
type HeaderField byte

const (
	FieldPath HeaderField = 1 + iota
	FieldInterface
	FieldMember
	FieldErrorName
	FieldReplySerial
	FieldDestination
	FieldSender
	FieldSignature
	fieldMax
)

var fieldSig = map[HeaderField]string{
	FieldPath:        "o",
	FieldInterface:   "s",
	FieldMember:      "s",
	FieldErrorName:   "s",
	FieldReplySerial: "u",
	FieldDestination: "s",
	FieldSender:      "s",
	FieldSignature:   "g",
}

// InvalidMessageError describes why a message failed validation.
type InvalidMessageError string

func (e InvalidMessageError) Error() string { return "wire: invalid message: " + string(e) }

// Message is a single decoded D-Bus message: a kind, a serial, the
// fixed header fields present on it, and an ordered argument list.
type Message struct {
	Order   binary.ByteOrder
	Kind    Kind
	Flags   Flags
	Serial  uint32
	Headers map[HeaderField]Variant
	Body    []interface{}
}

// NewMessage returns a zeroed Message ready to have its headers and body
// populated, defaulting to little-endian wire order.
func NewMessage(kind Kind, serial uint32) *Message {
	return &Message{
		Order:   binary.LittleEndian,
		Kind:    kind,
		Serial:  serial,
		Headers: make(map[HeaderField]Variant),
	}
}

func (m *Message) header(f HeaderField) (interface{}, bool) {
	v, ok := m.Headers[f]
	if !ok {
		return nil, false
	}
	return v.Value(), true
}

// Path returns the path header, if present.
func (m *Message) Path() (ObjectPath, bool) {
	v, ok := m.header(FieldPath)
	if !ok {
		return "", false
	}
	return v.(ObjectPath), true
}

// Interface returns the interface header, if present.
func (m *Message) Interface() (string, bool) {
	v, ok := m.header(FieldInterface)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// Member returns the member header, if present.
func (m *Message) Member() (string, bool) {
	v, ok := m.header(FieldMember)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// Sender returns the sender header, if present.
func (m *Message) Sender() (string, bool) {
	v, ok := m.header(FieldSender)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// Destination returns the destination header, if present.
func (m *Message) Destination() (string, bool) {
	v, ok := m.header(FieldDestination)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// ErrorName returns the error_name header, if present.
func (m *Message) ErrorName() (string, bool) {
	v, ok := m.header(FieldErrorName)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// ReplySerial returns the reply_serial header, if present.
func (m *Message) ReplySerial() (uint32, bool) {
	v, ok := m.header(FieldReplySerial)
	if !ok {
		return 0, false
	}
	return v.(uint32), true
}

// SetPath, SetInterface, etc. set the corresponding header field.
func (m *Message) SetPath(p ObjectPath)     { m.Headers[FieldPath] = MakeVariant(p) }
func (m *Message) SetInterface(s string)    { m.Headers[FieldInterface] = MakeVariant(s) }
func (m *Message) SetMember(s string)       { m.Headers[FieldMember] = MakeVariant(s) }
func (m *Message) SetSender(s string)       { m.Headers[FieldSender] = MakeVariant(s) }
func (m *Message) SetDestination(s string)  { m.Headers[FieldDestination] = MakeVariant(s) }
func (m *Message) SetErrorName(s string)    { m.Headers[FieldErrorName] = MakeVariant(s) }
func (m *Message) SetReplySerial(s uint32)  { m.Headers[FieldReplySerial] = MakeVariant(s) }

var requiredFields = map[Kind][]HeaderField{
	KindMethodCall:   {FieldPath, FieldMember},
	KindMethodReturn: {FieldReplySerial},
	KindError:        {FieldErrorName, FieldReplySerial},
	KindSignal:       {FieldPath, FieldInterface, FieldMember},
}

// Validate checks whether m is well-formed.
func (m *Message) Validate() error {
	if m.Kind == 0 || m.Kind >= kindMax {
		return InvalidMessageError("invalid kind")
	}
	for _, f := range requiredFields[m.Kind] {
		if _, ok := m.Headers[f]; !ok {
			return InvalidMessageError(fmt.Sprintf("missing required header field %v", f))
		}
	}
	if p, ok := m.Path(); ok && !p.IsValid() {
		return InvalidMessageError("invalid path")
	}
	return nil
}

// bodySignature computes the "sig" wire header string for the current Body.
func (m *Message) bodySignature() string {
	if len(m.Body) == 0 {
		return ""
	}
	return SignatureOf(m.Body...).String()
}

// EncodeTo serializes m onto w in its Order byte order.
func (m *Message) EncodeTo(w *bytes.Buffer) error {
	if err := m.Validate(); err != nil {
		return err
	}
	bodyBuf := new(bytes.Buffer)
	benc := newEncoder(bodyBuf, m.Order)
	benc.EncodeMulti(m.Body...)

	headers := m.Headers
	if sig := m.bodySignature(); sig != "" {
		headers = cloneHeaders(m.Headers)
		headers[FieldSignature] = MakeVariant(Signature{sig})
	}

	type headerEntry struct {
		Field HeaderField
		Val   Variant
	}
	entries := make([]headerEntry, 0, len(headers))
	for f, v := range headers {
		entries = append(entries, headerEntry{f, v})
	}

	fixed := new(bytes.Buffer)
	enc := newEncoder(fixed, m.Order)
	switch m.Order {
	case binary.LittleEndian:
		enc.write([]byte{'l'})
	case binary.BigEndian:
		enc.write([]byte{'B'})
	default:
		return InvalidMessageError("invalid byte order")
	}
	enc.write([]byte{byte(m.Kind), byte(m.Flags), protocolVersion})
	enc.putUint32(uint32(bodyBuf.Len()))
	enc.putUint32(m.Serial)

	headerBuf := new(bytes.Buffer)
	henc := newEncoderAtOffset(headerBuf, 0, m.Order)
	for _, e := range entries {
		henc.align(8)
		henc.write([]byte{byte(e.Field)})
		henc.encode(reflect.ValueOf(e.Val))
	}
	enc.putUint32(uint32(headerBuf.Len()))
	enc.write(headerBuf.Bytes())
	enc.align(8)

	w.Write(fixed.Bytes())
	w.Write(bodyBuf.Bytes())
	return nil
}

func cloneHeaders(h map[HeaderField]Variant) map[HeaderField]Variant {
	out := make(map[HeaderField]Variant, len(h)+1)
	for k, v := range h {
		out[k] = v
	}
	return out
}

// DecodeMessage attempts to decode a single complete message from buf. If
// buf does not yet hold a complete frame it returns errIncomplete and the
// caller must rewind to the same offset and retry once more bytes arrive.
func DecodeMessage(buf []byte) (*Message, int, error) {
	if len(buf) < 1 {
		return nil, 0, errIncomplete
	}
	var order binary.ByteOrder
	switch buf[0] {
	case 'l':
		order = binary.LittleEndian
	case 'B':
		order = binary.BigEndian
	default:
		return nil, 0, InvalidMessageError("invalid byte order")
	}
	if len(buf) < 16 {
		return nil, 0, errIncomplete
	}
	kind := Kind(buf[1])
	flags := Flags(buf[2])
	bodyLen := order.Uint32(buf[4:8])
	serial := order.Uint32(buf[8:12])
	headerArrayLen := order.Uint32(buf[12:16])

	headerStart := 16
	headerEnd := headerStart + int(headerArrayLen)
	bodyStart := align8(headerEnd)
	bodyEnd := bodyStart + int(bodyLen)
	if bodyEnd > len(buf) {
		return nil, 0, errIncomplete
	}

	d := newDecoder(buf[headerStart:headerEnd], order)
	headers := make(map[HeaderField]Variant)
	for d.pos < len(d.buf) {
		d.align(8)
		fb, err := d.need(1)
		if err != nil {
			return nil, 0, InvalidMessageError("truncated header")
		}
		field := HeaderField(fb[0])
		val, err := d.decode(variantType)
		if err != nil {
			return nil, 0, InvalidMessageError("truncated header value")
		}
		headers[field] = val.(Variant)
	}

	sig := ""
	if v, ok := headers[FieldSignature]; ok {
		sig = v.Value().(Signature).str
	}
	body, err := DecodeMessageBody(buf[bodyStart:bodyEnd], order, sig)
	if err != nil {
		return nil, 0, InvalidMessageError("invalid body: " + err.Error())
	}

	msg := &Message{
		Order:   order,
		Kind:    kind,
		Flags:   flags,
		Serial:  serial,
		Headers: headers,
		Body:    body,
	}
	if err := msg.Validate(); err != nil {
		return nil, 0, err
	}
	return msg, bodyEnd, nil
}

func align8(n int) int {
	if n%8 != 0 {
		return n + (8 - n%8)
	}
	return n
}

// IsIncomplete reports whether err signals a partial frame that should be
// retried once more bytes are available, as opposed to a hard decode error.
func IsIncomplete(err error) bool {
	return errors.Is(err, errIncomplete)
}
