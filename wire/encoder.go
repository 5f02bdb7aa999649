package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"reflect"
)

// encoder writes values to the D-Bus wire format, tracking position for
// alignment. Grounded on the teacher's reflect-driven encoder; unix file
// descriptor passing is not carried forward (see DESIGN.md).
type encoder struct {
	out   io.Writer
	order binary.ByteOrder
	pos   int
}

func newEncoder(out io.Writer, order binary.ByteOrder) *encoder {
	return &encoder{out: out, order: order}
}

func newEncoderAtOffset(out io.Writer, offset int, order binary.ByteOrder) *encoder {
	return &encoder{out: out, order: order, pos: offset}
}

func (e *encoder) write(p []byte) {
	if _, err := e.out.Write(p); err != nil {
		panic(err)
	}
	e.pos += len(p)
}

func (e *encoder) padding(algn int) int {
	if e.pos%algn != 0 {
		return algn - e.pos%algn
	}
	return 0
}

func (e *encoder) align(algn int) {
	if n := e.padding(algn); n > 0 {
		e.write(make([]byte, n))
	}
}

// EncodeMulti encodes a sequence of values in order, each value aligned
// according to its own type.
func (e *encoder) EncodeMulti(vs ...interface{}) {
	for _, v := range vs {
		e.encode(reflect.ValueOf(v))
	}
}

func (e *encoder) encode(v reflect.Value) {
	e.align(alignment(v.Type()))
	switch v.Type() {
	case signatureType:
		sig := v.Interface().(Signature)
		e.write([]byte{byte(len(sig.str))})
		e.write([]byte(sig.str))
		e.write([]byte{0})
		return
	case objectPathType:
		e.putUint32(uint32(len(v.String())))
		e.write([]byte(v.String()))
		e.write([]byte{0})
		return
	case variantType:
		variant := v.Interface().(Variant)
		e.encode(reflect.ValueOf(variant.sig))
		e.encode(reflect.ValueOf(variant.value))
		return
	}
	switch v.Kind() {
	case reflect.Uint8:
		e.write([]byte{byte(v.Uint())})
	case reflect.Bool:
		b := uint32(0)
		if v.Bool() {
			b = 1
		}
		e.putUint32(b)
	case reflect.Int16:
		e.putUint16(uint16(v.Int()))
	case reflect.Uint16:
		e.putUint16(uint16(v.Uint()))
	case reflect.Int32:
		e.putUint32(uint32(v.Int()))
	case reflect.Uint32:
		e.putUint32(uint32(v.Uint()))
	case reflect.Int64:
		e.putUint64(uint64(v.Int()))
	case reflect.Uint64:
		e.putUint64(v.Uint())
	case reflect.Float64:
		e.putUint64(math.Float64bits(v.Float()))
	case reflect.String:
		e.putUint32(uint32(v.Len()))
		e.write([]byte(v.String()))
		e.write([]byte{0})
	case reflect.Slice, reflect.Array:
		e.encodeArray(v)
	case reflect.Map:
		e.encodeMap(v)
	case reflect.Struct:
		e.encodeStruct(v)
	case reflect.Ptr:
		e.encode(v.Elem())
	case reflect.Interface:
		e.encode(reflect.ValueOf(MakeVariant(v.Interface())))
	default:
		panic(InvalidTypeError{v.Type()})
	}
}

const (
	int16Size = 2
	int32Size = 4
	int64Size = 8
)

func (e *encoder) putUint16(v uint16) {
	buf := make([]byte, int16Size)
	e.order.PutUint16(buf, v)
	e.write(buf)
}

func (e *encoder) putUint32(v uint32) {
	buf := make([]byte, int32Size)
	e.order.PutUint32(buf, v)
	e.write(buf)
}

func (e *encoder) putUint64(v uint64) {
	buf := make([]byte, int64Size)
	e.order.PutUint64(buf, v)
	e.write(buf)
}

// encodeArray writes the 4-byte length prefix then the aligned elements.
// The length excludes the padding before the first element but the
// encoder must align for that first element before measuring.
func (e *encoder) encodeArray(v reflect.Value) {
	if v.Type().Elem() == byteType {
		b := v.Bytes()
		e.putUint32(uint32(len(b)))
		e.write(b)
		return
	}
	buf := new(bytes.Buffer)
	elemAlign := alignment(v.Type().Elem())
	child := newEncoderAtOffset(buf, 0, e.order)
	child.align(elemAlign)
	buf.Reset()
	for i := 0; i < v.Len(); i++ {
		child.encode(v.Index(i))
	}
	e.putUint32(uint32(buf.Len()))
	e.align(elemAlign)
	e.write(buf.Bytes())
}

func (e *encoder) encodeMap(v reflect.Value) {
	buf := new(bytes.Buffer)
	child := newEncoderAtOffset(buf, 0, e.order)
	keys := v.MapKeys()
	for _, k := range keys {
		child.align(8)
		child.encode(k)
		child.encode(v.MapIndex(k))
	}
	e.putUint32(uint32(buf.Len()))
	e.align(8)
	e.write(buf.Bytes())
}

func (e *encoder) encodeStruct(v reflect.Value) {
	e.align(8)
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).PkgPath != "" {
			continue
		}
		e.encode(v.Field(i))
	}
}

// InvalidTypeError signals that a value cannot be represented on the
// D-Bus wire format.
type InvalidTypeError struct {
	Type reflect.Type
}

func (err InvalidTypeError) Error() string {
	return fmt.Sprintf("wire: invalid type %s", err.Type)
}
