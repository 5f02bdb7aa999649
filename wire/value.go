package wire

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

var (
	byteType       = reflect.TypeOf(byte(0))
	boolType       = reflect.TypeOf(false)
	int16Type      = reflect.TypeOf(int16(0))
	uint16Type     = reflect.TypeOf(uint16(0))
	int32Type      = reflect.TypeOf(int32(0))
	uint32Type     = reflect.TypeOf(uint32(0))
	int64Type      = reflect.TypeOf(int64(0))
	uint64Type     = reflect.TypeOf(uint64(0))
	float64Type    = reflect.TypeOf(float64(0))
	stringType     = reflect.TypeOf("")
	signatureType  = reflect.TypeOf(Signature{})
	objectPathType = reflect.TypeOf(ObjectPath(""))
	variantType    = reflect.TypeOf(Variant{})
)

// ObjectPath is a D-Bus object path: a "/"-separated identifier for a
// hosted object.
type ObjectPath string

// IsValid reports whether o is a syntactically valid object path.
func (o ObjectPath) IsValid() bool {
	s := string(o)
	if len(s) == 0 || s[0] != '/' {
		return false
	}
	if s == "/" {
		return true
	}
	if s[len(s)-1] == '/' {
		return false
	}
	for _, elem := range strings.Split(s[1:], "/") {
		if len(elem) == 0 {
			return false
		}
		for _, c := range elem {
			if !isMemberChar(c) {
				return false
			}
		}
	}
	return true
}

// IsNamespacePrefixOf reports whether child equals o or lies below it, in
// the object-path namespace sense used by path_namespace match-rule filters.
func (o ObjectPath) IsNamespacePrefixOf(child ObjectPath) bool {
	if o == child {
		return true
	}
	prefix := string(o)
	if prefix == "/" {
		return strings.HasPrefix(string(child), "/")
	}
	return strings.HasPrefix(string(child), prefix+"/")
}

func isMemberChar(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'Z') ||
		(c >= 'a' && c <= 'z') || c == '_'
}

// IsValidInterfaceName reports whether s is a well-formed interface name
// (reverse-DNS, at least two dot-separated elements).
func IsValidInterfaceName(s string) bool {
	if len(s) == 0 || len(s) > 255 || s[0] == '.' {
		return false
	}
	elems := strings.Split(s, ".")
	if len(elems) < 2 {
		return false
	}
	for _, e := range elems {
		if len(e) == 0 || (e[0] >= '0' && e[0] <= '9') {
			return false
		}
		for _, c := range e {
			if !isMemberChar(c) {
				return false
			}
		}
	}
	return true
}

// IsValidMemberName reports whether s is a well-formed member (method or
// signal) name.
func IsValidMemberName(s string) bool {
	if len(s) == 0 || len(s) > 255 || strings.ContainsRune(s, '.') {
		return false
	}
	if s[0] >= '0' && s[0] <= '9' {
		return false
	}
	for _, c := range s {
		if !isMemberChar(c) {
			return false
		}
	}
	return true
}

// Signature is a correct D-Bus type signature string, e.g. "s", "as",
// "(uu)". The zero value is the empty signature.
type Signature struct {
	str string
}

// SignatureOf computes the concatenated signature of the given values. It
// panics if a value cannot be represented on the wire.
func SignatureOf(vs ...interface{}) Signature {
	var b strings.Builder
	for _, v := range vs {
		b.WriteString(typeSignature(reflect.TypeOf(v)))
	}
	return Signature{b.String()}
}

// String returns the raw signature string.
func (s Signature) String() string { return s.str }

// Empty reports whether the signature carries no types.
func (s Signature) Empty() bool { return s.str == "" }

func typeSignature(t reflect.Type) string {
	if t == nil {
		panic(fmt.Sprintf("wire: cannot derive signature of untyped nil"))
	}
	switch t {
	case objectPathType:
		return "o"
	case signatureType:
		return "g"
	case variantType:
		return "v"
	}
	switch t.Kind() {
	case reflect.Uint8:
		return "y"
	case reflect.Bool:
		return "b"
	case reflect.Int16:
		return "n"
	case reflect.Uint16:
		return "q"
	case reflect.Int32:
		return "i"
	case reflect.Uint32:
		return "u"
	case reflect.Int64:
		return "x"
	case reflect.Uint64:
		return "t"
	case reflect.Float64:
		return "d"
	case reflect.String:
		return "s"
	case reflect.Ptr:
		return typeSignature(t.Elem())
	case reflect.Slice, reflect.Array:
		return "a" + typeSignature(t.Elem())
	case reflect.Map:
		return "a{" + typeSignature(t.Key()) + typeSignature(t.Elem()) + "}"
	case reflect.Struct:
		var b strings.Builder
		b.WriteByte('(')
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.PkgPath != "" {
				continue
			}
			b.WriteString(typeSignature(f.Type))
		}
		b.WriteByte(')')
		return b.String()
	case reflect.Interface:
		return "v"
	}
	panic(fmt.Sprintf("wire: invalid type %s", t))
}

// Variant is the D-Bus variant type: a value tagged with its own
// signature.
type Variant struct {
	sig   Signature
	value interface{}
}

// MakeVariant wraps v as a Variant, computing its signature. Panics if v
// cannot be represented on the wire.
func MakeVariant(v interface{}) Variant {
	return Variant{SignatureOf(v), v}
}

// Signature returns the signature of the wrapped value.
func (v Variant) Signature() Signature { return v.sig }

// Value returns the wrapped value.
func (v Variant) Value() interface{} { return v.value }

func (v Variant) String() string {
	switch val := v.value.(type) {
	case string:
		return strconv.Quote(val)
	case ObjectPath:
		return strconv.Quote(string(val))
	default:
		return fmt.Sprint(val)
	}
}

// alignment returns the alignment in bytes required before a value of the
// given type, per the D-Bus marshalling rules.
func alignment(t reflect.Type) int {
	switch t {
	case variantType:
		return 1
	case objectPathType:
		return 4
	case signatureType:
		return 1
	}
	switch t.Kind() {
	case reflect.Uint8:
		return 1
	case reflect.Int16, reflect.Uint16:
		return 2
	case reflect.Int32, reflect.Uint32, reflect.String, reflect.Slice, reflect.Array, reflect.Map:
		return 4
	case reflect.Int64, reflect.Uint64, reflect.Float64, reflect.Struct:
		return 8
	case reflect.Ptr:
		return alignment(t.Elem())
	}
	return 1
}
