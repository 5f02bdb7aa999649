package dbus

import (
	"fmt"
	"reflect"

	"github.com/busline/dbus/wire"
)

// storeOne assigns src into the value pointed to by dst, unwrapping a
// wire.Variant first if dst isn't itself a *wire.Variant. This mirrors
// the teacher's Store helper, generalized to a single value instead of
// a parallel slice walk.
func storeOne(src interface{}, dst interface{}) error {
	dv := reflect.ValueOf(dst)
	if dv.Kind() != reflect.Ptr || dv.IsNil() {
		return fmt.Errorf("dbus: store target must be a non-nil pointer, got %T", dst)
	}
	elem := dv.Elem()

	if elem.Type() != reflect.TypeOf(wire.Variant{}) {
		if v, ok := src.(wire.Variant); ok {
			src = v.Value()
		}
	}

	sv := reflect.ValueOf(src)
	if !sv.IsValid() {
		elem.Set(reflect.Zero(elem.Type()))
		return nil
	}
	if sv.Type().AssignableTo(elem.Type()) {
		elem.Set(sv)
		return nil
	}
	if sv.Type().ConvertibleTo(elem.Type()) {
		elem.Set(sv.Convert(elem.Type()))
		return nil
	}
	return fmt.Errorf("dbus: cannot store %s into %s", sv.Type(), elem.Type())
}
